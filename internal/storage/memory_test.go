package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smilemakc/outreach-engine/internal/domain"
)

func TestMemoryCampaignStore_SaveAndGet(t *testing.T) {
	store := NewMemoryCampaignStore()
	graph := domain.NewWorkflowGraph("camp-1", nil, nil)
	c := domain.NewCampaign("camp-1", "org-1", "acct-1", graph, domain.ScheduleWindow{}, 20, 100, time.Now())

	require.NoError(t, store.Save(context.Background(), c))

	got, err := store.Get(context.Background(), "camp-1")
	require.NoError(t, err)
	assert.Equal(t, "camp-1", got.ID())
	assert.Equal(t, 20, got.DailyLimit())
}

func TestMemoryCampaignStore_GetMissing(t *testing.T) {
	store := NewMemoryCampaignStore()
	_, err := store.Get(context.Background(), "nope")
	assert.Error(t, err)
}

func TestMemoryCampaignStore_UpdateQuotaIsAtomicPerCall(t *testing.T) {
	store := NewMemoryCampaignStore()
	graph := domain.NewWorkflowGraph("camp-1", nil, nil)
	c := domain.NewCampaign("camp-1", "org-1", "acct-1", graph, domain.ScheduleWindow{}, 20, 100, time.Now())
	require.NoError(t, store.Save(context.Background(), c))

	updated, err := store.UpdateQuota(context.Background(), "camp-1", func(q domain.QuotaCounters) domain.QuotaCounters {
		q.SentDay++
		return q
	})
	require.NoError(t, err)
	assert.Equal(t, 1, updated.SentDay)

	got, err := store.Get(context.Background(), "camp-1")
	require.NoError(t, err)
	assert.Equal(t, 1, got.Quota().SentDay)
}

func TestMemoryLeadStore_SaveAndListByCampaign(t *testing.T) {
	store := NewMemoryLeadStore()
	now := time.Now()
	l1 := domain.NewLead("lead-1", "camp-1", "Ada", "Lovelace", "https://example.com/ada", now)
	l2 := domain.NewLead("lead-2", "camp-1", "Grace", "Hopper", "https://example.com/grace", now)
	l3 := domain.NewLead("lead-3", "camp-2", "Alan", "Turing", "https://example.com/alan", now)

	for _, l := range []*domain.Lead{l1, l2, l3} {
		require.NoError(t, store.Save(context.Background(), l))
	}

	leads, err := store.ListByCampaign(context.Background(), "camp-1")
	require.NoError(t, err)
	assert.Len(t, leads, 2)
}

func TestMemoryConnectedAccountStore_Get(t *testing.T) {
	a := domain.NewConnectedAccount("acct-1", "org-1", "provider-acct-1", domain.ConnectedAccountStatusActive)
	store := NewMemoryConnectedAccountStore(a)

	got, err := store.Get(context.Background(), "acct-1")
	require.NoError(t, err)
	assert.True(t, got.Resolvable())

	_, err = store.Get(context.Background(), "missing")
	assert.Error(t, err)
}
