// Package storage provides Campaign/Lead/ConnectedAccount persistence: a
// bun-backed (Postgres) and an in-memory implementation of each
// repository. The step ledger has its own store in internal/ledger; it is
// not duplicated here.
package storage

import (
	"context"

	"github.com/smilemakc/outreach-engine/internal/domain"
)

// CampaignStore persists Campaign aggregates, including the quota counters
// shared by all concurrently-running leads of a campaign.
type CampaignStore interface {
	Get(ctx context.Context, campaignID string) (*domain.Campaign, error)
	Save(ctx context.Context, c *domain.Campaign) error

	// UpdateQuota atomically reads a campaign's quota counters, applies
	// mutate, persists the result, and returns it. Implementations must
	// serialize concurrent callers for the same campaignID (a DB row lock
	// or equivalent), since multiple lead workflows share one campaign's
	// counters.
	UpdateQuota(ctx context.Context, campaignID string, mutate func(domain.QuotaCounters) domain.QuotaCounters) (domain.QuotaCounters, error)
}

// LeadStore persists Lead aggregates. Each lead is single-writer (its own
// Lead Workflow owns its step index), so no atomic-update contract is
// needed here.
type LeadStore interface {
	Get(ctx context.Context, leadID string) (*domain.Lead, error)
	Save(ctx context.Context, l *domain.Lead) error
	ListByCampaign(ctx context.Context, campaignID string) ([]*domain.Lead, error)
}

// ConnectedAccountStore is read-only: the account records are owned by an
// upstream system.
type ConnectedAccountStore interface {
	Get(ctx context.Context, accountID string) (*domain.ConnectedAccount, error)
}
