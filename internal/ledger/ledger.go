// Package ledger implements the durable, idempotent per-(campaign, lead,
// step-index) step ledger.
package ledger

import (
	"context"
	"sync"

	"github.com/smilemakc/outreach-engine/internal/domain"
)

// Store is the step ledger's storage contract. RecordStep must be
// idempotent: a second call for a key that already has an entry is a
// no-op that returns the first write's entry.
type Store interface {
	RecordStep(ctx context.Context, entry *domain.StepLedgerEntry) (*domain.StepLedgerEntry, error)
	ListSteps(ctx context.Context, campaignID string) ([]*domain.StepLedgerEntry, error)
	ListForLead(ctx context.Context, leadID string) ([]*domain.StepLedgerEntry, error)
}

type stepKey struct {
	campaignID string
	leadID     string
	stepIndex  int
}

// MemoryStore is an in-memory Store, used for tests and local development.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[stepKey]*domain.StepLedgerEntry
	order   []stepKey
}

// NewMemoryStore creates an empty in-memory step ledger.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[stepKey]*domain.StepLedgerEntry),
	}
}

// RecordStep writes entry if no row exists yet for its (campaign, lead,
// step) key; otherwise it returns the entry already on record.
func (s *MemoryStore) RecordStep(_ context.Context, entry *domain.StepLedgerEntry) (*domain.StepLedgerEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := stepKey{entry.CampaignID(), entry.LeadID(), entry.StepIndex()}
	if existing, ok := s.entries[key]; ok {
		return existing, nil
	}
	s.entries[key] = entry
	s.order = append(s.order, key)
	return entry, nil
}

// ListSteps returns all ledger rows for a campaign, in write order.
func (s *MemoryStore) ListSteps(_ context.Context, campaignID string) ([]*domain.StepLedgerEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*domain.StepLedgerEntry
	for _, key := range s.order {
		if key.campaignID == campaignID {
			out = append(out, s.entries[key])
		}
	}
	return out, nil
}

// ListForLead returns all ledger rows for a single lead, in write order.
func (s *MemoryStore) ListForLead(_ context.Context, leadID string) ([]*domain.StepLedgerEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*domain.StepLedgerEntry
	for _, key := range s.order {
		if key.leadID == leadID {
			out = append(out, s.entries[key])
		}
	}
	return out, nil
}
