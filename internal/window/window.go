// Package window computes whether "now" falls inside a campaign's
// configured send-time window, and if not, how long to wait until it does.
package window

import (
	"time"
)

// Schedule is a send-time window. A blank StartHHMM or EndHHMM means the
// window is unrestricted (24/7). TZ is an IANA zone name; blank defaults to
// "UTC".
type Schedule struct {
	StartHHMM string
	EndHHMM   string
	TZ        string
}

// Result is the gate's verdict for a given instant.
type Result struct {
	InWindow bool
	// WaitUntil is the next instant the window opens, set only when
	// InWindow is false.
	WaitUntil time.Time
}

// Check computes whether now falls inside the schedule's window in its
// configured timezone, and if not, the next instant it will.
func Check(s Schedule, now time.Time) (Result, error) {
	if s.StartHHMM == "" || s.EndHHMM == "" {
		return Result{InWindow: true}, nil
	}

	tzName := s.TZ
	if tzName == "" {
		tzName = "UTC"
	}
	loc, err := time.LoadLocation(tzName)
	if err != nil {
		return Result{}, err
	}

	startMin, err := parseHHMM(s.StartHHMM)
	if err != nil {
		return Result{}, err
	}
	endMin, err := parseHHMM(s.EndHHMM)
	if err != nil {
		return Result{}, err
	}

	local := now.In(loc)
	nowMin := local.Hour()*60 + local.Minute()

	var inWindow bool
	if endMin >= startMin {
		inWindow = nowMin >= startMin && nowMin <= endMin
	} else {
		inWindow = nowMin >= startMin || nowMin <= endMin
	}

	if inWindow {
		return Result{InWindow: true}, nil
	}

	// Wait to today's window start if we haven't reached it yet; otherwise
	// (we're past the end of today's window) wait to tomorrow's start.
	dayOffset := 1
	if nowMin < startMin {
		dayOffset = 0
	}

	waitUntil := localInstant(loc, local, dayOffset, startMin)
	return Result{InWindow: false, WaitUntil: waitUntil}, nil
}

func parseHHMM(hhmm string) (int, error) {
	t, err := time.Parse("15:04", hhmm)
	if err != nil {
		return 0, err
	}
	return t.Hour()*60 + t.Minute(), nil
}

// localInstant resolves year/month/day from `local` plus dayOffset days and
// minuteOfDay into a concrete UTC instant, converging on the target local
// wall-clock time across DST transitions by iteratively re-rendering the
// candidate instant in loc and correcting by the observed offset delta. At
// most 3 iterations; one correction settles any real-world DST shift.
func localInstant(loc *time.Location, local time.Time, dayOffset, minuteOfDay int) time.Time {
	targetDate := local.AddDate(0, 0, dayOffset)
	hour := minuteOfDay / 60
	minute := minuteOfDay % 60

	candidate := time.Date(targetDate.Year(), targetDate.Month(), targetDate.Day(), hour, minute, 0, 0, loc)
	for i := 0; i < 3; i++ {
		rendered := candidate.In(loc)
		gotMinuteOfDay := rendered.Hour()*60 + rendered.Minute()
		gotDay := rendered.Day()
		wantDay := time.Date(targetDate.Year(), targetDate.Month(), targetDate.Day(), 0, 0, 0, 0, loc).Day()
		if gotMinuteOfDay == minuteOfDay && gotDay == wantDay {
			break
		}
		deltaMinutes := minuteOfDay - gotMinuteOfDay
		candidate = candidate.Add(time.Duration(deltaMinutes) * time.Minute)
	}
	return candidate
}
