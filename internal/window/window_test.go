package window

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func mustLoadLocation(t *testing.T, name string) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(name)
	require.NoError(t, err)
	return loc
}

func TestCheck_Unrestricted(t *testing.T) {
	res, err := Check(Schedule{}, time.Now())
	require.NoError(t, err)
	require.True(t, res.InWindow)
}

func TestCheck_NormalWindow(t *testing.T) {
	s := Schedule{StartHHMM: "09:00", EndHHMM: "17:00", TZ: "UTC"}

	inside := time.Date(2026, 1, 5, 12, 0, 0, 0, time.UTC)
	res, err := Check(s, inside)
	require.NoError(t, err)
	require.True(t, res.InWindow)

	before := time.Date(2026, 1, 5, 8, 0, 0, 0, time.UTC)
	res, err = Check(s, before)
	require.NoError(t, err)
	require.False(t, res.InWindow)
	require.Equal(t, time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC), res.WaitUntil)

	after := time.Date(2026, 1, 5, 18, 0, 0, 0, time.UTC)
	res, err = Check(s, after)
	require.NoError(t, err)
	require.False(t, res.InWindow)
	require.Equal(t, time.Date(2026, 1, 6, 9, 0, 0, 0, time.UTC), res.WaitUntil)
}

func TestCheck_MidnightWrapWindow(t *testing.T) {
	loc := mustLoadLocation(t, "Europe/Berlin")
	s := Schedule{StartHHMM: "22:00", EndHHMM: "06:00", TZ: "Europe/Berlin"}

	insideEarly := time.Date(2026, 3, 10, 3, 15, 0, 0, loc)
	res, err := Check(s, insideEarly)
	require.NoError(t, err)
	require.True(t, res.InWindow)

	outside := time.Date(2026, 3, 10, 7, 0, 0, 0, loc)
	res, err = Check(s, outside)
	require.NoError(t, err)
	require.False(t, res.InWindow)
	require.Equal(t, 22, res.WaitUntil.In(loc).Hour())
	require.Equal(t, 10, res.WaitUntil.In(loc).Day())
}
