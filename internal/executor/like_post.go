package executor

import (
	"context"

	"github.com/smilemakc/outreach-engine/internal/domain"
	"github.com/smilemakc/outreach-engine/internal/provider"
)

// likePostExecutor implements the LikePost node kind.
type likePostExecutor struct {
	deps Deps
}

func (e *likePostExecutor) Execute(ctx context.Context, req *Request) (*Result, error) {
	cfg := LikePostConfig{RecentPostDays: 7}
	if req.Node.Config() != nil {
		parsed, err := parseConfig[LikePostConfig](req.Node.Config())
		if err != nil {
			return &Result{Verdict: domain.VerdictPermanent, Detail: err.Error()}, nil
		}
		if parsed.RecentPostDays > 0 {
			cfg.RecentPostDays = parsed.RecentPostDays
		}
		if parsed.Reaction != "" {
			cfg.Reaction = parsed.Reaction
		}
	}

	publicID := provider.ExtractPublicIdentifier(req.Lead.ProfileURL())
	visit, verdict, code, detail := resolveProviderID(ctx, e.deps, req, publicID)
	if !verdict.IsSuccess() {
		return &Result{Verdict: verdict, Success: false, ErrorCode: code, Detail: detail}, nil
	}

	verdict, code, detail = withRetry(ctx, e.deps.Runtime, e.deps.Retry, func(ctx context.Context) error {
		return e.deps.Provider.LikeRecentPost(ctx, req.Account.ProviderAccountID(), visit.ProviderID, cfg.RecentPostDays, cfg.Reaction)
	})
	return &Result{Verdict: verdict, Success: verdict.IsSuccess(), ProviderID: visit.ProviderID, ErrorCode: code, Detail: detail}, nil
}
