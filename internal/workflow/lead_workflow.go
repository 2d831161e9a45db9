// Package workflow implements the durable per-lead DAG interpreter: a
// topological walk of a campaign's WorkflowGraph for a single lead,
// honoring conditional-edge branch selection, edge delays, the time-window
// gate, and step-ledger idempotency across restarts. SourceNodes/
// EdgesFrom/InDegree on graph.Graph give the walk everything a
// Kahn's-algorithm interpreter needs; no separate plan object is built.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/smilemakc/outreach-engine/internal/domain"
	"github.com/smilemakc/outreach-engine/internal/executor"
	"github.com/smilemakc/outreach-engine/internal/graph"
	"github.com/smilemakc/outreach-engine/internal/ledger"
	"github.com/smilemakc/outreach-engine/internal/monitoring"
	"github.com/smilemakc/outreach-engine/internal/runtime"
	"github.com/smilemakc/outreach-engine/internal/storage"
	"github.com/smilemakc/outreach-engine/internal/window"
)

// ErrAuthFailure is returned by Run when a node's classified verdict is
// AuthFailure. The caller (the campaign orchestrator) is responsible for
// pausing the campaign; AuthFailure is the sole verdict that pauses a
// campaign, and that decision belongs to the orchestrator, not the
// per-lead interpreter.
var ErrAuthFailure = errors.New("outreach: connected account auth failure")

// Deps bundles the collaborators a LeadWorkflow needs to walk one lead's
// DAG: the node executor registry, the step ledger, the runtime
// clock/sleep primitive, and the lead/account stores.
type Deps struct {
	Executors *executor.Registry
	Ledger    ledger.Store
	Runtime   runtime.Runtime
	Leads     storage.LeadStore
	Accounts  storage.ConnectedAccountStore

	// ExecLogger and Metrics are optional; a nil value disables the
	// corresponding observability call entirely rather than panicking or
	// logging to a default destination.
	ExecLogger monitoring.ExecutionLogger
	Metrics    *monitoring.Metrics
}

// Run is everything one lead's DAG walk needs: the campaign (for schedule,
// account id, and graph snapshot), the lead, and the pre-built Graph index.
type Run struct {
	Campaign *domain.Campaign
	Lead     *domain.Lead
	Graph    *graph.Graph
}

// LeadWorkflow interprets a campaign's stripped WorkflowGraph for a single
// lead: a Kahn's-algorithm topological walk, executing one node at a time
// through its registered executor, classifying the result to pick
// outgoing edges, and recording every step in the ledger before any delay
// or window sleep (so cancellation never loses a completed step).
type LeadWorkflow struct {
	deps Deps
}

// New creates a LeadWorkflow over deps.
func New(deps Deps) *LeadWorkflow {
	return &LeadWorkflow{deps: deps}
}

// Run walks run.Graph for run.Lead to completion, to a permanent failure,
// or until ctx is cancelled. It is safe to call again for a lead that was
// interrupted mid-walk: every already-ledgered step is replayed from its
// recorded result rather than re-executed.
func (w *LeadWorkflow) Run(ctx context.Context, run *Run) error {
	lead := run.Lead

	if lead.Status().IsTerminal() {
		return nil
	}
	if lead.Status() == domain.LeadStatusPending {
		lead.Start(w.deps.Runtime.Now())
		if err := w.deps.Leads.Save(ctx, lead); err != nil {
			return fmt.Errorf("save lead start: %w", err)
		}
	}

	priorSteps, err := w.priorSteps(ctx, lead.ID())
	if err != nil {
		return fmt.Errorf("load prior steps: %w", err)
	}

	g := run.Graph
	incoming := make(map[string]int, len(g.Snapshot().Nodes()))
	for _, n := range g.Snapshot().Nodes() {
		incoming[n.ID()] = g.InDegree(n.ID())
	}

	queue := append([]*domain.Node(nil), g.SourceNodes()...)
	enqueued := make(map[string]bool, len(queue))
	for _, n := range queue {
		enqueued[n.ID()] = true
	}

	stepIndex := 0
	for len(queue) > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		n := queue[0]
		queue = queue[1:]

		account, err := w.deps.Accounts.Get(ctx, run.Campaign.AccountID())
		if err != nil || !account.Resolvable() {
			lead.Fail(w.deps.Runtime.Now())
			_ = w.deps.Leads.Save(ctx, lead)
			log.Warn().Str("lead_id", lead.ID()).Str("campaign_id", run.Campaign.ID()).
				Msg("connected account no longer resolves, failing lead")
			if w.deps.Metrics != nil {
				w.deps.Metrics.RecordLeadOutcome("failed")
			}
			return nil
		}

		if n.Kind().IsProviderStep() {
			if err := w.waitForWindow(ctx, run.Campaign); err != nil {
				return err
			}
		}

		stepStart := w.deps.Runtime.Now()
		result, fromLedger, err := w.executeStep(ctx, run, account, n, stepIndex, priorSteps)
		if err != nil {
			return fmt.Errorf("execute step %d (%s): %w", stepIndex, n.Kind(), err)
		}
		if !fromLedger {
			log.Info().Str("lead_id", lead.ID()).Str("campaign_id", run.Campaign.ID()).
				Str("node_id", n.ID()).Str("kind", string(n.Kind())).Int("step", stepIndex).
				Bool("success", result.Success).Str("verdict", string(result.Verdict)).
				Msg("step executed")

			if w.deps.ExecLogger != nil {
				w.deps.ExecLogger.Log(&monitoring.LogEvent{
					CampaignID: run.Campaign.ID(),
					LeadID:     lead.ID(),
					NodeID:     n.ID(),
					Kind:       n.Kind(),
					StepIndex:  stepIndex,
					Success:    result.Success,
					Verdict:    result.Verdict,
					Detail:     result.Detail,
					Timestamp:  w.deps.Runtime.Now(),
				})
			}
			if w.deps.Metrics != nil {
				w.deps.Metrics.RecordStep(string(n.Kind()), result.Success, w.deps.Runtime.Now().Sub(stepStart).Seconds())
				if result.Verdict != domain.VerdictOK && result.Verdict != "" {
					w.deps.Metrics.RecordProviderError(string(result.Verdict))
				}
			}
		}

		lead.AdvanceStep(stepIndex, w.deps.Runtime.Now())
		if err := w.deps.Leads.Save(ctx, lead); err != nil {
			return fmt.Errorf("save lead after step %d: %w", stepIndex, err)
		}

		switch result.Verdict {
		case domain.VerdictPermanent:
			lead.Fail(w.deps.Runtime.Now())
			_ = w.deps.Leads.Save(ctx, lead)
			if w.deps.Metrics != nil {
				w.deps.Metrics.RecordLeadOutcome("failed")
			}
			return nil
		case domain.VerdictAuthFailure:
			lead.Fail(w.deps.Runtime.Now())
			_ = w.deps.Leads.Save(ctx, lead)
			if w.deps.Metrics != nil {
				w.deps.Metrics.RecordLeadOutcome("failed")
			}
			return ErrAuthFailure
		}

		stepIndex++

		for _, e := range g.EdgesFrom(n.ID()) {
			if !followEdge(e, result.Success) {
				continue
			}

			if d := e.Delay(); d != nil {
				if dur, perr := time.ParseDuration(d.Duration); perr == nil && dur > 0 {
					lead.Wait(w.deps.Runtime.Now())
					_ = w.deps.Leads.Save(ctx, lead)
					if err := w.deps.Runtime.Sleep(ctx, dur); err != nil {
						return err
					}
					lead.Resume(w.deps.Runtime.Now())
					_ = w.deps.Leads.Save(ctx, lead)
				}
			}

			target := e.ToNodeID()
			incoming[target]--
			if incoming[target] <= 0 && !enqueued[target] {
				enqueued[target] = true
				if tn := g.Node(target); tn != nil {
					queue = append(queue, tn)
				}
			}
		}
	}

	lead.Complete(w.deps.Runtime.Now())
	if err := w.deps.Leads.Save(ctx, lead); err != nil {
		return fmt.Errorf("save lead completion: %w", err)
	}
	log.Info().Str("lead_id", lead.ID()).Str("campaign_id", run.Campaign.ID()).Msg("lead workflow completed")
	if w.deps.Metrics != nil {
		w.deps.Metrics.RecordLeadOutcome("completed")
	}
	return nil
}

// followEdge: a conditional edge is followed iff its branch matches the
// step's success flag; a plain edge is always followed.
func followEdge(e *domain.Edge, success bool) bool {
	switch e.Branch() {
	case domain.EdgeBranchPositive:
		return success
	case domain.EdgeBranchNegative:
		return !success
	default:
		return true
	}
}

// waitForWindow blocks until the campaign's send-time window is open,
// re-checking after every wait in case the window computation itself
// advances past a DST boundary.
func (w *LeadWorkflow) waitForWindow(ctx context.Context, campaign *domain.Campaign) error {
	sched := campaign.Schedule()
	ws := window.Schedule{StartHHMM: sched.StartHHMM, EndHHMM: sched.EndHHMM, TZ: sched.TZ}
	for {
		now := w.deps.Runtime.Now()
		result, err := window.Check(ws, now)
		if err != nil {
			return fmt.Errorf("time window check: %w", err)
		}
		if result.InWindow {
			return nil
		}
		if w.deps.Metrics != nil {
			w.deps.Metrics.RecordWindowWait()
		}
		if err := w.deps.Runtime.Sleep(ctx, result.WaitUntil.Sub(now)); err != nil {
			return err
		}
	}
}

// priorSteps loads every ledger row already recorded for leadID, keyed by
// step index, so executeStep can replay a restarted walk without
// re-invoking the provider for steps already committed.
func (w *LeadWorkflow) priorSteps(ctx context.Context, leadID string) (map[int]*domain.StepLedgerEntry, error) {
	entries, err := w.deps.Ledger.ListForLead(ctx, leadID)
	if err != nil {
		return nil, err
	}
	out := make(map[int]*domain.StepLedgerEntry, len(entries))
	for _, e := range entries {
		out[e.StepIndex()] = e
	}
	return out, nil
}

// executeStep runs node n as step stepIndex, or replays it from an
// already-recorded ledger entry. The second return value reports whether
// the result came from the ledger rather than a fresh executor call.
func (w *LeadWorkflow) executeStep(ctx context.Context, run *Run, account *domain.ConnectedAccount, n *domain.Node, stepIndex int, prior map[int]*domain.StepLedgerEntry) (*executor.Result, bool, error) {
	if entry, ok := prior[stepIndex]; ok {
		return resultFromEntry(entry), true, nil
	}

	req := &executor.Request{
		Campaign:  run.Campaign,
		Account:   account,
		Lead:      run.Lead,
		Node:      n,
		StepIndex: stepIndex,
	}
	if n.Kind() == domain.NodeKindSendConnectionRequest {
		req.PollBudgetOverride = negativeBranchDelay(run.Graph, n.ID())
	}

	exec := w.deps.Executors.For(n.Kind())
	if exec == nil {
		return nil, false, fmt.Errorf("no executor registered for node kind %q", n.Kind())
	}

	result, err := exec.Execute(ctx, req)
	if err != nil {
		return nil, false, err
	}

	entry := domain.NewStepLedgerEntry(run.Campaign.ID(), run.Lead.ID(), stepIndex, n.Kind(), n.Config(), result.Success, result.ToMap(), w.deps.Runtime.Now())
	if _, err := w.deps.Ledger.RecordStep(ctx, entry); err != nil {
		return nil, false, fmt.Errorf("record step: %w", err)
	}
	return result, false, nil
}

// negativeBranchDelay returns the delay carried on nodeID's outgoing
// negative conditional edge, used as the SendConnectionRequest polling
// budget override: the rejected branch fires after that long anyway, so
// polling longer buys nothing.
func negativeBranchDelay(g *graph.Graph, nodeID string) *time.Duration {
	for _, e := range g.EdgesFrom(nodeID) {
		if e.Branch() == domain.EdgeBranchNegative && e.Delay() != nil {
			if d, err := time.ParseDuration(e.Delay().Duration); err == nil {
				return &d
			}
		}
	}
	return nil
}

// resultFromEntry reconstructs the executor.Result shape from a ledger
// entry recorded on a prior (interrupted) run of this lead.
func resultFromEntry(e *domain.StepLedgerEntry) *executor.Result {
	r := e.Result()
	res := &executor.Result{Success: e.Success()}
	if v, ok := r["verdict"].(string); ok {
		res.Verdict = domain.Verdict(v)
	}
	if v, ok := r["providerId"].(string); ok {
		res.ProviderID = v
	}
	if v, ok := r["firstName"].(string); ok {
		res.FirstName = v
	}
	if v, ok := r["lastName"].(string); ok {
		res.LastName = v
	}
	if v, ok := r["lastCompany"].(string); ok {
		res.LastCompany = v
	}
	if v, ok := r["status"].(string); ok {
		res.Status = v
	}
	if v, ok := r["errorCode"].(string); ok {
		res.ErrorCode = v
	}
	if v, ok := r["detail"].(string); ok {
		res.Detail = v
	}
	return res
}
