// Package orchestrator supervises one campaign's run: it loads the
// campaign's leads, spawns one lead workflow per lead with a staggered
// start and bounded concurrency, and answers operator pause/resume/stop
// signals. Concurrency is a semaphore channel; signal state is a
// mutex-guarded machine with a cancel func per running child.
package orchestrator

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/smilemakc/outreach-engine/internal/domain"
	"github.com/smilemakc/outreach-engine/internal/graph"
	"github.com/smilemakc/outreach-engine/internal/runtime"
	"github.com/smilemakc/outreach-engine/internal/storage"
	"github.com/smilemakc/outreach-engine/internal/workflow"
)

const (
	// DefaultMaxConcurrentLeads bounds active children when Deps doesn't
	// override it.
	DefaultMaxConcurrentLeads = 100
	// DefaultLeadStaggerMs is the spawn interval when Deps doesn't override
	// it.
	DefaultLeadStaggerMs = 30_000
)

// Deps bundles the collaborators an Orchestrator needs: the campaign/lead
// stores, a LeadWorkflow to run each child, and the runtime clock/sleep
// primitive the stagger interval and ctx-cancellation rely on.
type Deps struct {
	Campaigns storage.CampaignStore
	Leads     storage.LeadStore
	Workflow  *workflow.LeadWorkflow
	Runtime   runtime.Runtime

	MaxConcurrentLeads int
	LeadStaggerMs      int

	// OnLeadCompleted, if set, is called after every child lead workflow
	// terminates (success, failure, or cancellation), for test observation
	// and external instrumentation. Never required for correctness.
	OnLeadCompleted func(leadID string, err error)
}

// Counters tracks the lead tallies the campaign status query surfaces.
type Counters struct {
	TotalLeads int
	Processed  int
	Success    int
	Fail       int
}

// Status is the orchestrator's answer to the campaign status query:
// status plus counters plus start/end time.
type Status struct {
	CampaignStatus domain.CampaignStatus
	Counters       Counters
	StartTime      time.Time
	EndTime        *time.Time
}

// Orchestrator supervises one campaign's lead spawning. One Orchestrator
// per running campaign; Run blocks until every spawned child has
// terminated. A Stop never kills running children unless
// completeCurrent=false explicitly requests cancellation.
type Orchestrator struct {
	deps       Deps
	campaignID string

	mu              sync.Mutex
	campaign        *domain.Campaign
	counters        Counters
	startTime       time.Time
	endTime         *time.Time
	paused          bool
	pauseReason     string
	stopRequested   bool
	completeCurrent bool
	children        map[string]context.CancelFunc

	resumeCh chan struct{}
	wg       sync.WaitGroup
}

// New creates an Orchestrator for campaignID, applying the default
// MaxConcurrentLeads/LeadStaggerMs when Deps leaves them unset.
func New(deps Deps, campaignID string) *Orchestrator {
	if deps.MaxConcurrentLeads <= 0 {
		deps.MaxConcurrentLeads = DefaultMaxConcurrentLeads
	}
	if deps.LeadStaggerMs <= 0 {
		deps.LeadStaggerMs = DefaultLeadStaggerMs
	}
	return &Orchestrator{
		deps:       deps,
		campaignID: campaignID,
		children:   make(map[string]context.CancelFunc),
		resumeCh:   make(chan struct{}, 1),
	}
}

// Run loads the campaign and its leads, activates the campaign, and spawns
// a Lead Workflow per lead at the configured stagger interval, bounded by
// MaxConcurrentLeads concurrently-running children. It returns once every
// spawned child has terminated (or, for Stop(completeCurrent=false), once
// every child has been cancelled and observed its own termination).
func (o *Orchestrator) Run(ctx context.Context) error {
	campaign, err := o.deps.Campaigns.Get(ctx, o.campaignID)
	if err != nil {
		return err
	}
	leads, err := o.deps.Leads.ListByCampaign(ctx, o.campaignID)
	if err != nil {
		return err
	}

	now := o.deps.Runtime.Now()

	g := graph.Build(campaign.Graph().Nodes(), campaign.Graph().Edges(), campaign.ID())
	if err := graph.Validate(g); err != nil {
		campaign.Fail(now)
		_ = o.deps.Campaigns.Save(ctx, campaign)
		o.mu.Lock()
		o.campaign = campaign
		o.startTime = now
		end := now
		o.endTime = &end
		o.mu.Unlock()
		log.Error().Err(err).Str("campaign_id", o.campaignID).Msg("campaign graph failed validation")
		return err
	}

	campaign.Activate(now)
	if err := o.deps.Campaigns.Save(ctx, campaign); err != nil {
		return err
	}

	o.mu.Lock()
	o.campaign = campaign
	o.counters = Counters{TotalLeads: len(leads)}
	o.startTime = now
	o.mu.Unlock()
	sem := make(chan struct{}, o.deps.MaxConcurrentLeads)
	stagger := time.Duration(o.deps.LeadStaggerMs) * time.Millisecond

	for i, lead := range leads {
		if o.waitWhilePaused(ctx) {
			break // stopped while waiting out a pause
		}
		if o.isStopped() {
			break
		}

		select {
		case <-ctx.Done():
			o.wg.Wait()
			return ctx.Err()
		case sem <- struct{}{}:
		}

		childCtx, cancel := context.WithCancel(ctx)
		o.mu.Lock()
		o.children[lead.ID()] = cancel
		o.mu.Unlock()

		o.wg.Add(1)
		go o.runChild(childCtx, cancel, g, lead, sem)

		if i < len(leads)-1 {
			if err := o.deps.Runtime.Sleep(ctx, stagger); err != nil {
				break
			}
		}
	}

	o.wg.Wait()

	o.mu.Lock()
	end := o.deps.Runtime.Now()
	o.endTime = &end
	stopped := o.stopRequested
	o.mu.Unlock()

	if !stopped {
		campaign.Complete(o.deps.Runtime.Now())
		return o.deps.Campaigns.Save(ctx, campaign)
	}
	return nil
}

// runChild executes one lead workflow to completion (or cancellation),
// updates counters, and pauses the campaign on an auth-failure verdict.
func (o *Orchestrator) runChild(ctx context.Context, cancel context.CancelFunc, g *graph.Graph, lead *domain.Lead, sem chan struct{}) {
	defer o.wg.Done()
	defer cancel()
	defer func() { <-sem }()
	defer func() {
		o.mu.Lock()
		delete(o.children, lead.ID())
		o.mu.Unlock()
	}()

	o.mu.Lock()
	campaign := o.campaign
	o.mu.Unlock()

	runErr := o.deps.Workflow.Run(ctx, &workflow.Run{Campaign: campaign, Lead: lead, Graph: g})

	if errors.Is(runErr, context.Canceled) {
		o.mu.Lock()
		hardStop := o.stopRequested && !o.completeCurrent
		o.mu.Unlock()
		if hardStop && !lead.Status().IsTerminal() {
			lead.Fail(o.deps.Runtime.Now())
			_ = o.deps.Leads.Save(context.Background(), lead)
		}
	}

	o.mu.Lock()
	o.counters.Processed++
	switch {
	case errors.Is(runErr, workflow.ErrAuthFailure):
		o.counters.Fail++
		o.pauseLocked("connected account authentication failure")
		if campaign != nil {
			campaign.Pause(o.deps.Runtime.Now())
		}
		log.Warn().Str("campaign_id", o.campaignID).Str("lead_id", lead.ID()).
			Msg("auth failure verdict, pausing campaign")
	case runErr != nil:
		o.counters.Fail++
		log.Error().Err(runErr).Str("campaign_id", o.campaignID).Str("lead_id", lead.ID()).
			Msg("lead workflow returned an error")
	case lead.Status() == domain.LeadStatusFailed:
		o.counters.Fail++
	default:
		o.counters.Success++
	}
	o.mu.Unlock()

	if o.deps.OnLeadCompleted != nil {
		o.deps.OnLeadCompleted(lead.ID(), runErr)
	}
}

// waitWhilePaused blocks the spawn loop while the campaign is paused,
// waking on Resume or Stop. It returns true if a Stop arrived while
// waiting, signalling the caller to abandon spawning.
func (o *Orchestrator) waitWhilePaused(ctx context.Context) bool {
	for {
		o.mu.Lock()
		paused := o.paused
		stopped := o.stopRequested
		o.mu.Unlock()
		if stopped {
			return true
		}
		if !paused {
			return false
		}
		select {
		case <-ctx.Done():
			return true
		case <-o.resumeCh:
		}
	}
}

func (o *Orchestrator) isStopped() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.stopRequested
}

// Pause stops further spawning; already-running children continue
// untouched.
func (o *Orchestrator) Pause(reason string) {
	o.mu.Lock()
	o.pauseLocked(reason)
	campaign := o.campaign
	o.mu.Unlock()
	if campaign != nil {
		campaign.Pause(o.deps.Runtime.Now())
	}
}

func (o *Orchestrator) pauseLocked(reason string) {
	o.paused = true
	o.pauseReason = reason
}

// Resume restores spawning after a Pause.
func (o *Orchestrator) Resume() {
	o.mu.Lock()
	o.paused = false
	o.pauseReason = ""
	campaign := o.campaign
	o.mu.Unlock()
	if campaign != nil {
		campaign.Activate(o.deps.Runtime.Now())
	}
	select {
	case o.resumeCh <- struct{}{}:
	default:
	}
}

// Stop halts further spawning. If completeCurrent is false, every
// currently-running child's context is cancelled; the lead workflow
// propagates that cancellation out of any sleep without corrupting the
// ledger, since every ledger write precedes the decision to sleep. If
// completeCurrent is true, running children are left to finish naturally.
func (o *Orchestrator) Stop(completeCurrent bool) {
	o.mu.Lock()
	o.stopRequested = true
	o.completeCurrent = completeCurrent
	campaign := o.campaign
	var toCancel []context.CancelFunc
	if !completeCurrent {
		for _, cancel := range o.children {
			toCancel = append(toCancel, cancel)
		}
	}
	o.mu.Unlock()

	if campaign != nil {
		campaign.Stop(o.deps.Runtime.Now())
	}

	select {
	case o.resumeCh <- struct{}{}:
	default:
	}
	for _, cancel := range toCancel {
		cancel()
	}
}

// Status answers the campaign status query.
func (o *Orchestrator) Status() Status {
	o.mu.Lock()
	defer o.mu.Unlock()
	status := domain.CampaignStatusRunning
	if o.campaign != nil {
		status = o.campaign.Status()
	}
	// A Pause signalled before Run loaded the campaign only sets the flag;
	// reflect it in the answer so the operator never sees Running while the
	// spawn loop is held.
	if o.paused && status == domain.CampaignStatusRunning {
		status = domain.CampaignStatusPaused
	}
	return Status{
		CampaignStatus: status,
		Counters:       o.counters,
		StartTime:      o.startTime,
		EndTime:        o.endTime,
	}
}
