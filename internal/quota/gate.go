package quota

import (
	"context"
	"time"

	"github.com/smilemakc/outreach-engine/internal/domain"
)

// Store is the minimal campaign-quota persistence contract the Gate needs.
// UpdateQuota must perform its read-modify-write atomically (a DB row-level
// update or transaction) since concurrent lead workflows of the same
// campaign call it independently.
// Defined here, at the point of use, rather than imported from the storage
// package, so quota has no dependency on storage; any store whose method
// set matches satisfies it.
type Store interface {
	Get(ctx context.Context, campaignID string) (*domain.Campaign, error)
	UpdateQuota(ctx context.Context, campaignID string, mutate func(domain.QuotaCounters) domain.QuotaCounters) (domain.QuotaCounters, error)
}

// Gate binds the pure Check/Increment functions to a Store, persisting
// calendar resets and successful-send increments.
type Gate struct {
	store Store
}

// NewGate creates a Gate over store.
func NewGate(store Store) *Gate {
	return &Gate{store: store}
}

// Check reports whether campaignID may send now, persisting any calendar
// rollover observed along the way.
func (g *Gate) Check(ctx context.Context, campaignID string, now time.Time) (Result, error) {
	c, err := g.store.Get(ctx, campaignID)
	if err != nil {
		return Result{}, err
	}

	result, updated := Check(c.Quota(), c.DailyLimit(), c.WeeklyLimit(), now)
	if updated != c.Quota() {
		if _, err := g.store.UpdateQuota(ctx, campaignID, func(current domain.QuotaCounters) domain.QuotaCounters {
			_, reset := Check(current, c.DailyLimit(), c.WeeklyLimit(), now)
			return reset
		}); err != nil {
			return Result{}, err
		}
	}
	return result, nil
}

// Increment records a successful SendInvitation call. Callers must invoke
// this only after the provider has acknowledged the send; provider quotas
// count sends, not acceptances.
func (g *Gate) Increment(ctx context.Context, campaignID string) error {
	_, err := g.store.UpdateQuota(ctx, campaignID, Increment)
	return err
}
