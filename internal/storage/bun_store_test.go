package storage_test

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	"github.com/smilemakc/outreach-engine/internal/domain"
	"github.com/smilemakc/outreach-engine/internal/storage"
)

// openTestDB connects to the Postgres instance named by OUTREACH_TEST_DSN.
// Skipped when unset: these are integration tests, not unit tests.
func openTestDB(t *testing.T) *bun.DB {
	t.Helper()
	dsn := os.Getenv("OUTREACH_TEST_DSN")
	if dsn == "" {
		t.Skip("OUTREACH_TEST_DSN not set, skipping Postgres-backed storage test")
	}
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	return bun.NewDB(sqldb, pgdialect.New())
}

func TestBunCampaignStore_SaveGetUpdateQuota(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	store := storage.NewBunCampaignStore(db)
	require.NoError(t, store.InitSchema(ctx))

	graph := domain.NewWorkflowGraph("camp-bun-1", nil, nil)
	c := domain.NewCampaign("camp-bun-1", "org-1", "acct-1", graph, domain.ScheduleWindow{StartHHMM: "09:00", EndHHMM: "17:00", TZ: "UTC"}, 20, 100, time.Now())
	require.NoError(t, store.Save(ctx, c))

	got, err := store.Get(ctx, "camp-bun-1")
	require.NoError(t, err)
	require.Equal(t, "camp-bun-1", got.ID())
	require.Equal(t, 20, got.DailyLimit())

	updated, err := store.UpdateQuota(ctx, "camp-bun-1", func(q domain.QuotaCounters) domain.QuotaCounters {
		q.SentDay++
		return q
	})
	require.NoError(t, err)
	require.Equal(t, 1, updated.SentDay)
}

func TestBunLeadStore_SaveGetListByCampaign(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	store := storage.NewBunLeadStore(db)
	require.NoError(t, store.InitSchema(ctx))

	l := domain.NewLead("lead-bun-1", "camp-bun-1", "Ada", "Lovelace", "https://example.com/ada", time.Now())
	require.NoError(t, store.Save(ctx, l))

	got, err := store.Get(ctx, "lead-bun-1")
	require.NoError(t, err)
	require.Equal(t, "Ada", got.FirstName())

	leads, err := store.ListByCampaign(ctx, "camp-bun-1")
	require.NoError(t, err)
	require.NotEmpty(t, leads)
}
