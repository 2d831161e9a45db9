package orchestrator_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smilemakc/outreach-engine/internal/domain"
	"github.com/smilemakc/outreach-engine/internal/executor"
	"github.com/smilemakc/outreach-engine/internal/graph"
	"github.com/smilemakc/outreach-engine/internal/ledger"
	"github.com/smilemakc/outreach-engine/internal/orchestrator"
	"github.com/smilemakc/outreach-engine/internal/provider"
	"github.com/smilemakc/outreach-engine/internal/quota"
	"github.com/smilemakc/outreach-engine/internal/runtime"
	"github.com/smilemakc/outreach-engine/internal/storage"
	"github.com/smilemakc/outreach-engine/internal/workflow"
)

func node(id string, kind domain.NodeKind, cfg map[string]any) *domain.Node {
	return domain.NewNode(id, "camp-1", kind, id, cfg)
}

func newOrchestrator(t *testing.T, nodes []*domain.Node, edges []*domain.Edge, leadCount int, maxConcurrent, staggerMs int) (*orchestrator.Orchestrator, storage.LeadStore, func()) {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/profile/visit", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"provider_id":"pid","first_name":"Ada","last_name":"Lovelace"}`))
	})
	server := httptest.NewServer(mux)

	client := provider.New(server.URL, "token", 10000, 10000)
	campaignStore := storage.NewMemoryCampaignStore()
	leadStore := storage.NewMemoryLeadStore()
	account := domain.NewConnectedAccount("acct-1", "org-1", "provider-acct-1", domain.ConnectedAccountStatusActive)
	accountStore := storage.NewMemoryConnectedAccountStore(account)

	g := graph.Build(nodes, edges, "camp-1")
	campaign := domain.NewCampaign("camp-1", "org-1", "acct-1", g.Snapshot(), domain.ScheduleWindow{}, 1000, 5000, time.Now())
	require.NoError(t, campaignStore.Save(context.Background(), campaign))

	for i := 0; i < leadCount; i++ {
		lead := domain.NewLead(
			"lead-"+string(rune('a'+i)), "camp-1", "Ada", "Lovelace",
			"https://example.com/in/ada-lovelace", time.Now(),
		)
		require.NoError(t, leadStore.Save(context.Background(), lead))
	}

	rt := runtime.NewLocalRuntime()
	retry := runtime.RetryPolicy{MaxAttempts: 1, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond, Multiplier: 1}
	reg := executor.NewRegistry(executor.Deps{
		Provider: client,
		Quota:    quota.NewGate(campaignStore),
		Ledger:   ledger.NewMemoryStore(),
		Runtime:  rt,
		Retry:    retry,
	})
	wf := workflow.New(workflow.Deps{
		Executors: reg,
		Ledger:    ledger.NewMemoryStore(),
		Runtime:   rt,
		Leads:     leadStore,
		Accounts:  accountStore,
	})

	o := orchestrator.New(orchestrator.Deps{
		Campaigns:          campaignStore,
		Leads:              leadStore,
		Workflow:           wf,
		Runtime:            rt,
		MaxConcurrentLeads: maxConcurrent,
		LeadStaggerMs:      staggerMs,
	}, "camp-1")

	return o, leadStore, server.Close
}

func TestOrchestrator_SpawnsAllLeadsAndCompletesCampaign(t *testing.T) {
	o, leadStore, closeFn := newOrchestrator(t,
		[]*domain.Node{node("a", domain.NodeKindProfileVisit, nil)}, nil,
		3, 10, 1,
	)
	defer closeFn()

	err := o.Run(context.Background())
	require.NoError(t, err)

	status := o.Status()
	assert.Equal(t, domain.CampaignStatusCompleted, status.CampaignStatus)
	assert.Equal(t, 3, status.Counters.TotalLeads)
	assert.Equal(t, 3, status.Counters.Processed)
	assert.Equal(t, 3, status.Counters.Success)
	assert.Equal(t, 0, status.Counters.Fail)

	leads, err := leadStore.ListByCampaign(context.Background(), "camp-1")
	require.NoError(t, err)
	for _, l := range leads {
		assert.Equal(t, domain.LeadStatusCompleted, l.Status())
	}
}

func TestOrchestrator_PauseBlocksSpawningUntilResume(t *testing.T) {
	o, _, closeFn := newOrchestrator(t,
		[]*domain.Node{node("a", domain.NodeKindProfileVisit, nil)}, nil,
		2, 10, 1,
	)
	defer closeFn()

	// Pausing before Run starts guarantees the spawn loop observes the
	// pause on its very first iteration, making this deterministic.
	o.Pause("operator requested pause")

	done := make(chan error, 1)
	go func() { done <- o.Run(context.Background()) }()

	select {
	case <-done:
		t.Fatal("orchestrator completed while paused; no leads should have spawned")
	case <-time.After(50 * time.Millisecond):
	}

	assert.Equal(t, domain.CampaignStatusPaused, o.Status().CampaignStatus)

	o.Resume()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("orchestrator did not finish after Resume")
	}

	status := o.Status()
	assert.Equal(t, 2, status.Counters.Processed)
	assert.Equal(t, domain.CampaignStatusCompleted, status.CampaignStatus)
}

func TestOrchestrator_StopWithoutCompleteCurrentCancelsRunningChildren(t *testing.T) {
	o, leadStore, closeFn := newOrchestrator(t,
		[]*domain.Node{node("a", domain.NodeKindDelay, map[string]any{"duration": "1h"})}, nil,
		1, 10, 1,
	)
	defer closeFn()

	done := make(chan error, 1)
	go func() { done <- o.Run(context.Background()) }()

	// Give the single lead time to reach its hour-long delay sleep before
	// stopping, so Stop must interrupt an in-flight sleep rather than race
	// the spawn loop itself.
	time.Sleep(50 * time.Millisecond)

	o.Stop(false)

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("orchestrator did not return after Stop(completeCurrent=false)")
	}

	status := o.Status()
	assert.Equal(t, domain.CampaignStatusStopped, status.CampaignStatus)
	assert.Equal(t, 1, status.Counters.Processed)
	assert.Equal(t, 1, status.Counters.Fail)

	leads, err := leadStore.ListByCampaign(context.Background(), "camp-1")
	require.NoError(t, err)
	require.Len(t, leads, 1)
	assert.NotEqual(t, domain.LeadStatusCompleted, leads[0].Status())
}

func TestOrchestrator_InvalidGraphFailsCampaignBeforeSpawning(t *testing.T) {
	// A conditional source with only a positive branch fails validation, so
	// no lead workflow may start.
	o, leadStore, closeFn := newOrchestrator(t,
		[]*domain.Node{
			node("a", domain.NodeKindSendConnectionRequest, nil),
			node("b", domain.NodeKindSendFollowup, nil),
		},
		[]*domain.Edge{
			domain.NewEdge("e1", "camp-1", "a", "b", domain.EdgeBranchPositive, nil),
		},
		2, 10, 1,
	)
	defer closeFn()

	err := o.Run(context.Background())
	require.Error(t, err)

	status := o.Status()
	assert.Equal(t, domain.CampaignStatusFailed, status.CampaignStatus)
	assert.Equal(t, 0, status.Counters.Processed)

	leads, err := leadStore.ListByCampaign(context.Background(), "camp-1")
	require.NoError(t, err)
	for _, l := range leads {
		assert.Equal(t, domain.LeadStatusPending, l.Status())
	}
}
