package executor

import (
	"context"

	"github.com/smilemakc/outreach-engine/internal/domain"
	"github.com/smilemakc/outreach-engine/internal/provider"
)

// withdrawRequestExecutor implements the WithdrawRequest node kind:
// cancels a previously sent connection request if one is still pending.
type withdrawRequestExecutor struct {
	deps Deps
}

func (e *withdrawRequestExecutor) Execute(ctx context.Context, req *Request) (*Result, error) {
	publicID := provider.ExtractPublicIdentifier(req.Lead.ProfileURL())
	visit, verdict, code, detail := resolveProviderID(ctx, e.deps, req, publicID)
	if !verdict.IsSuccess() {
		return &Result{Verdict: verdict, Success: false, ErrorCode: code, Detail: detail}, nil
	}

	sent, err := e.deps.Provider.ListSentInvitations(ctx, req.Account.ProviderAccountID())
	if err != nil {
		v, code, detail := classifyErr(err)
		return &Result{Verdict: v, Success: false, ProviderID: visit.ProviderID, ErrorCode: code, Detail: detail}, nil
	}

	var invitationID string
	for _, s := range sent {
		if s.InvitedProviderID == visit.ProviderID {
			invitationID = s.InvitationID
			break
		}
	}
	if invitationID == "" {
		return &Result{Verdict: domain.VerdictOK, Success: true, ProviderID: visit.ProviderID, Detail: "nothing to withdraw"}, nil
	}

	cancelVerdict, code, detail := withRetry(ctx, e.deps.Runtime, e.deps.Retry, func(ctx context.Context) error {
		return e.deps.Provider.CancelInvitation(ctx, req.Account.ProviderAccountID(), invitationID)
	})
	return &Result{Verdict: cancelVerdict, Success: cancelVerdict.IsSuccess(), ProviderID: visit.ProviderID, ErrorCode: code, Detail: detail}, nil
}
