package storage

import (
	"context"
	"fmt"
	"sync"

	"github.com/smilemakc/outreach-engine/internal/domain"
)

// MemoryCampaignStore is an in-memory CampaignStore for tests and local
// development.
type MemoryCampaignStore struct {
	mu        sync.Mutex
	campaigns map[string]*domain.Campaign
}

// NewMemoryCampaignStore creates an empty MemoryCampaignStore.
func NewMemoryCampaignStore() *MemoryCampaignStore {
	return &MemoryCampaignStore{campaigns: make(map[string]*domain.Campaign)}
}

// Get returns the campaign with the given ID.
func (s *MemoryCampaignStore) Get(_ context.Context, campaignID string) (*domain.Campaign, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.campaigns[campaignID]
	if !ok {
		return nil, fmt.Errorf("campaign %s not found", campaignID)
	}
	return c, nil
}

// Save upserts a campaign.
func (s *MemoryCampaignStore) Save(_ context.Context, c *domain.Campaign) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.campaigns[c.ID()] = c
	return nil
}

// UpdateQuota applies mutate under the store's lock, which is this
// implementation's stand-in for a DB row lock.
func (s *MemoryCampaignStore) UpdateQuota(_ context.Context, campaignID string, mutate func(domain.QuotaCounters) domain.QuotaCounters) (domain.QuotaCounters, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.campaigns[campaignID]
	if !ok {
		return domain.QuotaCounters{}, fmt.Errorf("campaign %s not found", campaignID)
	}
	updated := mutate(c.Quota())
	c.SetQuota(updated)
	return updated, nil
}

// MemoryLeadStore is an in-memory LeadStore for tests and local
// development.
type MemoryLeadStore struct {
	mu    sync.Mutex
	leads map[string]*domain.Lead
}

// NewMemoryLeadStore creates an empty MemoryLeadStore.
func NewMemoryLeadStore() *MemoryLeadStore {
	return &MemoryLeadStore{leads: make(map[string]*domain.Lead)}
}

// Get returns the lead with the given ID.
func (s *MemoryLeadStore) Get(_ context.Context, leadID string) (*domain.Lead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.leads[leadID]
	if !ok {
		return nil, fmt.Errorf("lead %s not found", leadID)
	}
	return l, nil
}

// Save upserts a lead.
func (s *MemoryLeadStore) Save(_ context.Context, l *domain.Lead) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.leads[l.ID()] = l
	return nil
}

// ListByCampaign returns all leads attached to campaignID.
func (s *MemoryLeadStore) ListByCampaign(_ context.Context, campaignID string) ([]*domain.Lead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.Lead
	for _, l := range s.leads {
		if l.CampaignID() == campaignID {
			out = append(out, l)
		}
	}
	return out, nil
}

// MemoryConnectedAccountStore is an in-memory, read-only
// ConnectedAccountStore.
type MemoryConnectedAccountStore struct {
	mu       sync.Mutex
	accounts map[string]*domain.ConnectedAccount
}

// NewMemoryConnectedAccountStore creates a MemoryConnectedAccountStore
// seeded with accounts.
func NewMemoryConnectedAccountStore(accounts ...*domain.ConnectedAccount) *MemoryConnectedAccountStore {
	s := &MemoryConnectedAccountStore{accounts: make(map[string]*domain.ConnectedAccount)}
	for _, a := range accounts {
		s.accounts[a.ID()] = a
	}
	return s
}

// Get returns the connected account with the given ID.
func (s *MemoryConnectedAccountStore) Get(_ context.Context, accountID string) (*domain.ConnectedAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[accountID]
	if !ok {
		return nil, fmt.Errorf("connected account %s not found", accountID)
	}
	return a, nil
}

// Put upserts a connected account, used by tests to change account health
// mid-run.
func (s *MemoryConnectedAccountStore) Put(a *domain.ConnectedAccount) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[a.ID()] = a
}
