package executor

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/smilemakc/outreach-engine/internal/domain"
	"github.com/smilemakc/outreach-engine/internal/provider"
	"github.com/smilemakc/outreach-engine/internal/runtime"
)

const (
	defaultPollBudget = 10 * 24 * time.Hour

	statusAccepted        = "accepted"
	statusRejected        = "rejected"
	statusTimedOut        = "timed_out"
	statusAlreadyConnected = "already_connected"
)

// sendConnectionRequestExecutor implements the SendConnectionRequest node
// kind's Sending -> Polling -> {Accepted, Rejected, TimedOut,
// AlreadyConnected} sub-state-machine.
type sendConnectionRequestExecutor struct {
	deps Deps
}

func (e *sendConnectionRequestExecutor) Execute(ctx context.Context, req *Request) (*Result, error) {
	cfg := SendConnectionRequestConfig{}
	if req.Node.Config() != nil {
		parsed, err := parseConfig[SendConnectionRequestConfig](req.Node.Config())
		if err != nil {
			return &Result{Verdict: domain.VerdictPermanent, Success: false, Detail: err.Error()}, nil
		}
		cfg = *parsed
	}

	publicID := provider.ExtractPublicIdentifier(req.Lead.ProfileURL())
	if publicID == "" {
		return &Result{Verdict: domain.VerdictPermanent, Success: false, Detail: "profile URL has no extractable identifier"}, nil
	}

	visit, verdict, code, detail := resolveProviderID(ctx, e.deps, req, publicID)
	if !verdict.IsSuccess() {
		return &Result{Verdict: verdict, Success: false, ErrorCode: code, Detail: detail}, nil
	}

	sendVerdict, code, detail, err := e.send(ctx, req, visit.ProviderID, cfg.Message)
	if err != nil {
		return nil, err
	}

	switch sendVerdict {
	case domain.VerdictAlreadyDone:
		return &Result{
			Verdict: sendVerdict, Success: true, ProviderID: visit.ProviderID,
			FirstName: visit.FirstName, LastName: visit.LastName, LastCompany: visit.LastCompany,
			Status: statusAlreadyConnected,
		}, nil
	case domain.VerdictWait24h:
		// The provider asked for a ~24h backoff before re-inviting. The send
		// is skipped and the step reports success with the hint on record, so
		// the walk continues instead of stalling the lead for a day.
		return &Result{
			Verdict: sendVerdict, Success: true, ProviderID: visit.ProviderID,
			FirstName: visit.FirstName, LastName: visit.LastName, LastCompany: visit.LastCompany,
			ErrorCode: code, Detail: detail,
		}, nil
	case domain.VerdictOK, domain.VerdictAlreadyInvitedRecently:
		// Sent, or an earlier invitation is still outstanding: poll either way.
	default:
		return &Result{Verdict: sendVerdict, Success: false, ProviderID: visit.ProviderID, ErrorCode: code, Detail: detail}, nil
	}

	budget := defaultPollBudget
	if req.PollBudgetOverride != nil {
		budget = *req.PollBudgetOverride
	} else if cfg.PollBudgetDaysMax > 0 {
		budget = time.Duration(cfg.PollBudgetDaysMax) * 24 * time.Hour
	}

	status, err := e.poll(ctx, req, visit.ProviderID, publicID, budget)
	if err != nil {
		return nil, err
	}

	result := &Result{
		ProviderID: visit.ProviderID,
		FirstName:  visit.FirstName,
		LastName:   visit.LastName,
		LastCompany: visit.LastCompany,
		Status:     status,
	}
	switch status {
	case statusAccepted:
		result.Verdict = domain.VerdictOK
		result.Success = true
	default:
		result.Success = false
	}
	return result, nil
}

// send gates through the quota gate, and when the provider reports its own
// quota exhaustion, sleeps until the gate allows a send and retries the
// invitation.
func (e *sendConnectionRequestExecutor) send(ctx context.Context, req *Request, providerID, message string) (domain.Verdict, string, string, error) {
	for {
		qr, err := e.deps.Quota.Check(ctx, req.Campaign.ID(), e.deps.Runtime.Now())
		if err != nil {
			return domain.VerdictTransient, "", err.Error(), nil
		}
		if !qr.CanProceed {
			if e.deps.Metrics != nil {
				e.deps.Metrics.RecordQuotaWait()
			}
			if err := e.deps.Runtime.Sleep(ctx, qr.WaitUntil.Sub(e.deps.Runtime.Now())); err != nil {
				return "", "", "", err
			}
			continue
		}

		verdict, code, detail := withRetry(ctx, e.deps.Runtime, e.deps.Retry, func(ctx context.Context) error {
			return e.deps.Provider.SendInvitation(ctx, req.Account.ProviderAccountID(), providerID, message)
		})

		switch verdict {
		case domain.VerdictQuotaExhausted:
			continue
		case domain.VerdictOK:
			if err := e.deps.Quota.Increment(ctx, req.Campaign.ID()); err != nil {
				return domain.VerdictTransient, code, err.Error(), nil
			}
			return verdict, code, detail, nil
		default:
			return verdict, code, detail, nil
		}
	}
}

// poll implements the Polling state: repeated IsConnected/ListSentInvitations
// checks at an interval chosen once from the total budget.
func (e *sendConnectionRequestExecutor) poll(ctx context.Context, req *Request, providerID, publicID string, budget time.Duration) (string, error) {
	interval := pollInterval(budget)
	deadline := e.deps.Runtime.Now().Add(budget)

	for e.deps.Runtime.Now().Before(deadline) {
		if err := e.deps.Runtime.Sleep(ctx, interval); err != nil {
			return "", err
		}

		connected, code, detail := withRetryBool(ctx, e.deps.Runtime, e.deps.Retry, func(ctx context.Context) (bool, error) {
			return e.deps.Provider.IsConnected(ctx, req.Account.ProviderAccountID(), publicID)
		})
		if code != "" || detail != "" {
			log.Debug().Str("lead_id", req.Lead.ID()).Str("code", code).Str("detail", detail).Msg("connection poll check failed, continuing")
		}
		if connected {
			return statusAccepted, nil
		}

		sent, err := e.deps.Provider.ListSentInvitations(ctx, req.Account.ProviderAccountID())
		if err != nil {
			continue
		}
		if !invitationStillPending(sent, providerID) {
			return statusRejected, nil
		}
	}
	return statusTimedOut, nil
}

func invitationStillPending(sent []provider.SentInvitation, providerID string) bool {
	for _, s := range sent {
		if s.InvitedProviderID == providerID {
			return true
		}
	}
	return false
}

// pollInterval chooses the polling cadence from the total budget: under a
// day polls every 15 minutes, under a week every 30, anything longer
// hourly. The interval never exceeds the budget itself, so a short budget
// still gets at least one check before timing out.
func pollInterval(budget time.Duration) time.Duration {
	var interval time.Duration
	switch {
	case budget < 24*time.Hour:
		interval = 15 * time.Minute
	case budget < 7*24*time.Hour:
		interval = 30 * time.Minute
	default:
		interval = time.Hour
	}
	if interval > budget {
		interval = budget
	}
	return interval
}

// withRetryBool adapts withRetry to a call returning a bool payload rather
// than only an error, used by IsConnected during polling.
func withRetryBool(ctx context.Context, rt runtime.Runtime, policy runtime.RetryPolicy, call func(ctx context.Context) (bool, error)) (bool, string, string) {
	var result bool
	maxAttempts := 3
	var detail string
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		v, err := call(ctx)
		if err == nil {
			return v, "", ""
		}
		result = v
		detail = err.Error()
		if attempt == maxAttempts {
			break
		}
		if sleepErr := rt.Sleep(ctx, policy.Delay(attempt)); sleepErr != nil {
			break
		}
	}
	return result, "", detail
}
