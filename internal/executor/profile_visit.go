package executor

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/smilemakc/outreach-engine/internal/domain"
	"github.com/smilemakc/outreach-engine/internal/provider"
)

// profileVisitExecutor implements the ProfileVisit node kind: a
// notify=false profile lookup that seeds the lead's providerId and name
// fields for every downstream step.
type profileVisitExecutor struct {
	deps Deps
}

func (e *profileVisitExecutor) Execute(ctx context.Context, req *Request) (*Result, error) {
	publicID := provider.ExtractPublicIdentifier(req.Lead.ProfileURL())
	if publicID == "" {
		return &Result{Verdict: domain.VerdictPermanent, Detail: "profile URL has no extractable identifier"}, nil
	}

	var visit *provider.VisitResult
	verdict, code, detail := withRetry(ctx, e.deps.Runtime, e.deps.Retry, func(ctx context.Context) error {
		v, err := e.deps.Provider.VisitProfile(ctx, req.Account.ProviderAccountID(), publicID, false)
		if err != nil {
			return err
		}
		visit = v
		return nil
	})

	log.Debug().Str("lead_id", req.Lead.ID()).Str("verdict", string(verdict)).Msg("profile visit")

	if !verdict.IsSuccess() {
		return &Result{Verdict: verdict, Success: false, ErrorCode: code, Detail: detail}, nil
	}
	return &Result{
		Verdict:     verdict,
		Success:     true,
		ProviderID:  visit.ProviderID,
		FirstName:   visit.FirstName,
		LastName:    visit.LastName,
		LastCompany: visit.LastCompany,
	}, nil
}

// resolveProviderID visits the lead's profile when a node needs a
// providerId it doesn't already have cached. The result is scoped to one
// executor call, never persisted across steps.
func resolveProviderID(ctx context.Context, deps Deps, req *Request, publicID string) (*provider.VisitResult, domain.Verdict, string, string) {
	var visit *provider.VisitResult
	verdict, code, detail := withRetry(ctx, deps.Runtime, deps.Retry, func(ctx context.Context) error {
		v, err := deps.Provider.VisitProfile(ctx, req.Account.ProviderAccountID(), publicID, false)
		if err != nil {
			return err
		}
		visit = v
		return nil
	})
	return visit, verdict, code, detail
}
