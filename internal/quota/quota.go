// Package quota implements the per-campaign daily/weekly connection-request
// counter, with calendar-day and ISO-week (Monday-based) rollover.
package quota

import (
	"time"

	"github.com/smilemakc/outreach-engine/internal/domain"
)

// Result is the gate's verdict for a given check.
type Result struct {
	CanProceed bool
	// WaitUntil is set only when CanProceed is false.
	WaitUntil time.Time
}

// Check evaluates a campaign's quota counters against now, resetting the
// daily counter on a calendar-day rollover and the weekly counter on an ISO
// week (Monday-based) rollover, then reporting whether a send may proceed.
// It returns the (possibly reset) counters alongside the verdict; the
// caller is responsible for persisting them.
func Check(q domain.QuotaCounters, dailyLimit, weeklyLimit int, now time.Time) (Result, domain.QuotaCounters) {
	if q.LastDayResetAt == nil || !sameLocalDay(*q.LastDayResetAt, now) {
		q.SentDay = 0
		reset := now
		q.LastDayResetAt = &reset
	}
	if q.LastWeekResetAt == nil || isoWeek(*q.LastWeekResetAt) != isoWeek(now) {
		q.SentWeek = 0
		reset := now
		q.LastWeekResetAt = &reset
	}

	dailyExceeded := q.SentDay >= dailyLimit
	weeklyExceeded := q.SentWeek >= weeklyLimit

	if !dailyExceeded && !weeklyExceeded {
		return Result{CanProceed: true}, q
	}

	nextMidnight := nextLocalMidnight(now)
	nextMonday := nextMondayMidnight(now)

	var waitUntil time.Time
	switch {
	case dailyExceeded && weeklyExceeded:
		waitUntil = laterOf(nextMidnight, nextMonday)
	case dailyExceeded:
		waitUntil = nextMidnight
	default:
		waitUntil = nextMonday
	}

	return Result{CanProceed: false, WaitUntil: waitUntil}, q
}

// Increment records a successful send, bumping both counters. Callers must
// call this only after a successful SendInvitation.
func Increment(q domain.QuotaCounters) domain.QuotaCounters {
	q.SentDay++
	q.SentWeek++
	return q
}

func sameLocalDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// isoWeek returns a (year, week) pair comparable for ordering across years.
func isoWeek(t time.Time) [2]int {
	y, w := t.ISOWeek()
	return [2]int{y, w}
}

func nextLocalMidnight(now time.Time) time.Time {
	y, m, d := now.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, now.Location()).AddDate(0, 0, 1)
}

// nextMondayMidnight returns the next Monday 00:00:00 strictly after now.
// A Sunday is one day ahead; any other weekday is 8-dow days ahead
// (dow: Monday=1 ... Sunday=7).
func nextMondayMidnight(now time.Time) time.Time {
	dow := int(now.Weekday())
	if dow == 0 {
		dow = 7 // Sunday
	}
	var daysAhead int
	if dow == 7 {
		daysAhead = 1
	} else {
		daysAhead = 8 - dow
	}
	y, m, d := now.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, now.Location()).AddDate(0, 0, daysAhead)
}

func laterOf(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}
