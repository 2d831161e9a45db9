// Package executor implements the per-node-kind outreach activities: one
// executor per domain.NodeKind, each composing the provider adapter, the
// error classifier, and the step ledger exactly as the lead workflow
// expects, dispatched through a registry map keyed by kind.
package executor

import (
	"context"
	"time"

	"github.com/smilemakc/outreach-engine/internal/domain"
	"github.com/smilemakc/outreach-engine/internal/generator"
	"github.com/smilemakc/outreach-engine/internal/ledger"
	"github.com/smilemakc/outreach-engine/internal/monitoring"
	"github.com/smilemakc/outreach-engine/internal/provider"
	"github.com/smilemakc/outreach-engine/internal/quota"
	"github.com/smilemakc/outreach-engine/internal/runtime"
)

// Request bundles everything a node executor needs to run a single step for
// a single lead.
type Request struct {
	Campaign *domain.Campaign
	Account  *domain.ConnectedAccount
	Lead     *domain.Lead
	Node     *domain.Node

	// StepIndex is this step's position in the lead's DAG walk, used as the
	// step ledger key.
	StepIndex int

	// PollBudgetOverride, when non-nil, replaces SendConnectionRequest's
	// default 10-day polling budget with the delay value carried on the
	// outgoing negative conditional edge.
	PollBudgetOverride *time.Duration
}

// Result is the typed outcome of a single node execution, the shape the
// Lead Workflow classifies to pick an outgoing edge and the step ledger
// stores as its result payload.
type Result struct {
	// Verdict is the classified outcome of the step's provider call
	// (VerdictOK when it succeeded); the interpreter checks this
	// specifically for Permanent (halt the lead) and AuthFailure (halt the
	// lead, pause the campaign). It is the zero value when the step's
	// pass/fail comes from something other than a classified provider
	// call, e.g. Condition and Delay nodes and the connection-request
	// sub-state-machine's rejected and timed_out terminal states.
	Verdict domain.Verdict

	// Success drives ledger success recording and outgoing conditional
	// edge selection; it is not always derived from Verdict alone (see
	// SendConnectionRequest's Rejected/TimedOut terminal states).
	Success bool

	ProviderID  string
	FirstName   string
	LastName    string
	LastCompany string

	// Status carries the connection-request sub-state-machine's terminal
	// state (accepted, rejected, timed_out, already_connected) for
	// SendConnectionRequest; empty for every other node kind.
	Status string

	ErrorCode string
	Detail    string
}

// ToMap renders the result as the generic payload the step ledger stores.
func (r *Result) ToMap() map[string]any {
	m := map[string]any{
		"verdict": string(r.Verdict),
		"success": r.Success,
	}
	if r.ProviderID != "" {
		m["providerId"] = r.ProviderID
	}
	if r.FirstName != "" {
		m["firstName"] = r.FirstName
	}
	if r.LastName != "" {
		m["lastName"] = r.LastName
	}
	if r.LastCompany != "" {
		m["lastCompany"] = r.LastCompany
	}
	if r.Status != "" {
		m["status"] = r.Status
	}
	if r.ErrorCode != "" {
		m["errorCode"] = r.ErrorCode
	}
	if r.Detail != "" {
		m["detail"] = r.Detail
	}
	return m
}

// Executor runs a single node kind's activity.
type Executor interface {
	Execute(ctx context.Context, req *Request) (*Result, error)
}

// Registry dispatches a node to its Executor by kind.
type Registry struct {
	executors map[domain.NodeKind]Executor
}

// Deps bundles every collaborator a node executor may need; NewRegistry
// wires each one into the executors that use it.
type Deps struct {
	Provider  *provider.Client
	Generator generator.Generator
	Quota     *quota.Gate
	Ledger    ledger.Store
	Runtime   runtime.Runtime
	Retry     runtime.RetryPolicy

	// Metrics is optional; nil disables quota-wait instrumentation.
	Metrics *monitoring.Metrics
}

// NewRegistry builds the fixed executor set, one per node kind.
func NewRegistry(deps Deps) *Registry {
	r := &Registry{executors: make(map[domain.NodeKind]Executor)}
	r.executors[domain.NodeKindProfileVisit] = &profileVisitExecutor{deps: deps}
	r.executors[domain.NodeKindLikePost] = &likePostExecutor{deps: deps}
	r.executors[domain.NodeKindCommentPost] = &commentPostExecutor{deps: deps}
	r.executors[domain.NodeKindSendConnectionRequest] = &sendConnectionRequestExecutor{deps: deps}
	r.executors[domain.NodeKindSendFollowup] = &sendFollowupExecutor{deps: deps}
	r.executors[domain.NodeKindSendInmail] = &sendInmailExecutor{deps: deps}
	r.executors[domain.NodeKindWithdrawRequest] = &withdrawRequestExecutor{deps: deps}
	r.executors[domain.NodeKindWebhook] = &webhookExecutor{deps: deps}
	r.executors[domain.NodeKindCondition] = &conditionExecutor{deps: deps}
	r.executors[domain.NodeKindDelay] = &delayExecutor{deps: deps}
	return r
}

// For returns the executor registered for kind, or nil if none is.
func (r *Registry) For(kind domain.NodeKind) Executor {
	return r.executors[kind]
}
