package executor

import (
	"context"

	"github.com/smilemakc/outreach-engine/internal/domain"
	"github.com/smilemakc/outreach-engine/internal/provider"
	"github.com/smilemakc/outreach-engine/internal/template"
)

// sendFollowupExecutor implements the SendFollowup node kind: a templated
// direct message to an already-visited lead.
type sendFollowupExecutor struct {
	deps Deps
}

func (e *sendFollowupExecutor) Execute(ctx context.Context, req *Request) (*Result, error) {
	cfg := SendFollowupConfig{}
	if req.Node.Config() != nil {
		parsed, err := parseConfig[SendFollowupConfig](req.Node.Config())
		if err != nil {
			return &Result{Verdict: domain.VerdictPermanent, Success: false, Detail: err.Error()}, nil
		}
		cfg = *parsed
	}

	publicID := provider.ExtractPublicIdentifier(req.Lead.ProfileURL())
	visit, verdict, code, detail := resolveProviderID(ctx, e.deps, req, publicID)
	if !verdict.IsSuccess() {
		return &Result{Verdict: verdict, Success: false, ErrorCode: code, Detail: detail}, nil
	}

	vars := template.Vars{FirstName: visit.FirstName, LastName: visit.LastName, Company: visit.LastCompany}
	text := cfg.Template
	if text == "" {
		text = "Thanks for connecting, {{first_name}}!"
	}
	rendered, err := template.Render(text, vars)
	if err == nil {
		text = rendered
	}

	verdict, code, detail = withRetry(ctx, e.deps.Runtime, e.deps.Retry, func(ctx context.Context) error {
		return e.deps.Provider.SendMessage(ctx, req.Account.ProviderAccountID(), []string{visit.ProviderID}, text)
	})
	return &Result{Verdict: verdict, Success: verdict.IsSuccess(), ProviderID: visit.ProviderID, ErrorCode: code, Detail: detail}, nil
}
