package workflow_test

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
	"github.com/smilemakc/outreach-engine/internal/provider"
	"github.com/smilemakc/outreach-engine/internal/quota"
	"github.com/smilemakc/outreach-engine/internal/runtime"
	"github.com/smilemakc/outreach-engine/internal/storage"
	"github.com/smilemakc/outreach-engine/internal/workflow"
)

func node(id string, kind domain.NodeKind, cfg map[string]any) *domain.Node {
	return domain.NewNode(id, "camp-1", kind, id, cfg)
}

func edge(id, from, to string, branch domain.EdgeBranch, delay *domain.Delay) *domain.Edge {
	return domain.NewEdge(id, "camp-1", from, to, branch, delay)
}

func newHarness(t *testing.T, mux *http.ServeMux) (workflow.Deps, *domain.Campaign, func()) {
	t.Helper()
	server := httptest.NewServer(mux)
	client := provider.New(server.URL, "token", 10000, 10000)

	campaignStore := storage.NewMemoryCampaignStore()
	leadStore := storage.NewMemoryLeadStore()
	account := domain.NewConnectedAccount("acct-1", "org-1", "provider-acct-1", domain.ConnectedAccountStatusActive)
	accountStore := storage.NewMemoryConnectedAccountStore(account)

	g := graph.Build(
		[]*domain.Node{
			node("a", domain.NodeKindProfileVisit, nil),
			node("b", domain.NodeKindLikePost, nil),
		},
		[]*domain.Edge{
			edge("e1", "a", "b", domain.EdgeBranchDefault, nil),
		},
		"camp-1",
	)

	campaign := domain.NewCampaign("camp-1", "org-1", "acct-1", g.Snapshot(), domain.ScheduleWindow{}, 20, 100, time.Now())
	campaign.Activate(time.Now())
	require.NoError(t, campaignStore.Save(context.Background(), campaign))

	retry := runtime.RetryPolicy{MaxAttempts: 2, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond, Multiplier: 1}
	rt := runtime.NewLocalRuntime()
	reg := executor.NewRegistry(executor.Deps{
		Provider: client,
		Quota:    quota.NewGate(campaignStore),
		Ledger:   ledger.NewMemoryStore(),
		Runtime:  rt,
		Retry:    retry,
	})

	deps := workflow.Deps{
		Executors: reg,
		Ledger:    ledger.NewMemoryStore(),
		Runtime:   rt,
		Leads:     leadStore,
		Accounts:  accountStore,
	}
	return deps, campaign, server.Close
}

func TestLeadWorkflow_HappyPathCompletesLead(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/profile/visit", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"provider_id":"pid-1","first_name":"Ada","last_name":"Lovelace"}`))
	})
	mux.HandleFunc("/posts/like", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	deps, campaign, closeFn := newHarness(t, mux)
	defer closeFn()

	g := graph.Build(campaign.Graph().Nodes(), campaign.Graph().Edges(), campaign.ID())
	lead := domain.NewLead("lead-1", "camp-1", "Ada", "Lovelace", "https://example.com/in/ada-lovelace", time.Now())
	require.NoError(t, deps.Leads.Save(context.Background(), lead))

	wf := workflow.New(deps)
	err := wf.Run(context.Background(), &workflow.Run{Campaign: campaign, Lead: lead, Graph: g})
	require.NoError(t, err)

	assert.Equal(t, domain.LeadStatusCompleted, lead.Status())

	steps, err := deps.Ledger.ListForLead(context.Background(), "lead-1")
	require.NoError(t, err)
	require.Len(t, steps, 2)
	assert.True(t, steps[0].Success())
	assert.True(t, steps[1].Success())
}

func TestLeadWorkflow_PermanentErrorFailsLeadWithoutFurtherSteps(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/profile/visit", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"type":"InvalidRecipient","detail":"blocked"}`))
	})
	mux.HandleFunc("/posts/like", func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("like step must not run after a permanent profile-visit failure")
	})

	deps, campaign, closeFn := newHarness(t, mux)
	defer closeFn()

	g := graph.Build(campaign.Graph().Nodes(), campaign.Graph().Edges(), campaign.ID())
	lead := domain.NewLead("lead-1", "camp-1", "Ada", "Lovelace", "https://example.com/in/ada-lovelace", time.Now())
	require.NoError(t, deps.Leads.Save(context.Background(), lead))

	wf := workflow.New(deps)
	err := wf.Run(context.Background(), &workflow.Run{Campaign: campaign, Lead: lead, Graph: g})
	require.NoError(t, err)

	assert.Equal(t, domain.LeadStatusFailed, lead.Status())
	steps, err := deps.Ledger.ListForLead(context.Background(), "lead-1")
	require.NoError(t, err)
	require.Len(t, steps, 1)
	assert.False(t, steps[0].Success())
}

func TestLeadWorkflow_ConditionalBranchFollowsNegativeEdgeOnFailure(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/profile/visit", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"provider_id":"pid-1","first_name":"Ada","last_name":"Lovelace"}`))
	})

	deps, campaign, closeFn := newHarness(t, mux)
	defer closeFn()

	// Override the harness graph with a conditional fan-out so we can
	// assert the negative branch fires on a failed step.
	g := graph.Build(
		[]*domain.Node{
			node("a", domain.NodeKindCondition, map[string]any{"expression": `first_name == "nobody"`}),
			node("pos", domain.NodeKindLikePost, nil),
			node("neg", domain.NodeKindLikePost, nil),
		},
		[]*domain.Edge{
			edge("e1", "a", "pos", domain.EdgeBranchPositive, nil),
			edge("e2", "a", "neg", domain.EdgeBranchNegative, nil),
		},
		"camp-1",
	)
	likeCalls := 0
	mux.HandleFunc("/posts/like", func(w http.ResponseWriter, r *http.Request) {
		likeCalls++
		w.WriteHeader(http.StatusOK)
	})

	lead := domain.NewLead("lead-1", "camp-1", "Ada", "Lovelace", "https://example.com/in/ada-lovelace", time.Now())
	require.NoError(t, deps.Leads.Save(context.Background(), lead))

	wf := workflow.New(deps)
	err := wf.Run(context.Background(), &workflow.Run{Campaign: campaign, Lead: lead, Graph: g})
	require.NoError(t, err)

	assert.Equal(t, domain.LeadStatusCompleted, lead.Status())
	assert.Equal(t, 1, likeCalls)

	steps, err := deps.Ledger.ListForLead(context.Background(), "lead-1")
	require.NoError(t, err)
	require.Len(t, steps, 2)
	assert.Equal(t, domain.NodeKindCondition, steps[0].Kind())
	assert.Equal(t, domain.NodeKindLikePost, steps[1].Kind())
}

func TestLeadWorkflow_ResumeSkipsAlreadyLedgeredSteps(t *testing.T) {
	mux := http.NewServeMux()
	visitCalls := 0
	mux.HandleFunc("/profile/visit", func(w http.ResponseWriter, r *http.Request) {
		visitCalls++
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"provider_id":"pid-1","first_name":"Ada","last_name":"Lovelace"}`))
	})

	deps, _, closeFn := newHarness(t, mux)
	defer closeFn()

	// A single-node graph: LikePost (which internally re-resolves a
	// providerId via VisitProfile) would confound the "no re-call" assertion
	// below, so this case isolates the replayed ProfileVisit step on its own.
	g := graph.Build(
		[]*domain.Node{node("a", domain.NodeKindProfileVisit, nil)},
		nil,
		"camp-1",
	)
	campaign := domain.NewCampaign("camp-1", "org-1", "acct-1", g.Snapshot(), domain.ScheduleWindow{}, 20, 100, time.Now())
	campaign.Activate(time.Now())

	lead := domain.NewLead("lead-1", "camp-1", "Ada", "Lovelace", "https://example.com/in/ada-lovelace", time.Now())
	require.NoError(t, deps.Leads.Save(context.Background(), lead))

	// Pre-seed the ledger as if step 0 already ran on a prior process.
	entry := domain.NewStepLedgerEntry("camp-1", "lead-1", 0, domain.NodeKindProfileVisit, nil, true,
		map[string]any{"verdict": "ok", "success": true, "providerId": "pid-1"}, time.Now())
	_, err := deps.Ledger.RecordStep(context.Background(), entry)
	require.NoError(t, err)

	wf := workflow.New(deps)
	err = wf.Run(context.Background(), &workflow.Run{Campaign: campaign, Lead: lead, Graph: g})
	require.NoError(t, err)

	assert.Equal(t, domain.LeadStatusCompleted, lead.Status())
	assert.Equal(t, 0, visitCalls, "profile visit should be replayed from the ledger, not re-called")
}
