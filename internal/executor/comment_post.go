package executor

import (
	"context"

	"github.com/smilemakc/outreach-engine/internal/domain"
	"github.com/smilemakc/outreach-engine/internal/provider"
	"github.com/smilemakc/outreach-engine/internal/template"
)

// commentPostExecutor implements the CommentPost node kind: generated or
// templated comment text on a random recent post.
type commentPostExecutor struct {
	deps Deps
}

func (e *commentPostExecutor) Execute(ctx context.Context, req *Request) (*Result, error) {
	cfg := CommentPostConfig{RecentPostDays: 7}
	if req.Node.Config() != nil {
		parsed, err := parseConfig[CommentPostConfig](req.Node.Config())
		if err != nil {
			return &Result{Verdict: domain.VerdictPermanent, Detail: err.Error()}, nil
		}
		if parsed.RecentPostDays > 0 {
			cfg.RecentPostDays = parsed.RecentPostDays
		}
		cfg.Template = parsed.Template
		cfg.AIInstructions = parsed.AIInstructions
	}

	publicID := provider.ExtractPublicIdentifier(req.Lead.ProfileURL())
	visit, verdict, code, detail := resolveProviderID(ctx, e.deps, req, publicID)
	if !verdict.IsSuccess() {
		return &Result{Verdict: verdict, Success: false, ErrorCode: code, Detail: detail}, nil
	}

	vars := template.Vars{FirstName: visit.FirstName, LastName: visit.LastName, Company: visit.LastCompany}
	text := cfg.Template
	if text == "" {
		text = "{{first_name}}"
	}
	if rendered, rerr := template.Render(text, vars); rerr == nil {
		text = rendered
	}
	// The rendered template stays as the fallback when the AI call fails;
	// a generation error never fails the step.
	if cfg.AIInstructions != "" && e.deps.Generator != nil {
		if generated, genErr := e.deps.Generator.Generate(ctx, vars, cfg.AIInstructions); genErr == nil {
			text = generated
		}
	}

	verdict, code, detail = withRetry(ctx, e.deps.Runtime, e.deps.Retry, func(ctx context.Context) error {
		return e.deps.Provider.CommentRecentPost(ctx, req.Account.ProviderAccountID(), visit.ProviderID, cfg.RecentPostDays, text)
	})
	return &Result{Verdict: verdict, Success: verdict.IsSuccess(), ProviderID: visit.ProviderID, ErrorCode: code, Detail: detail}, nil
}
