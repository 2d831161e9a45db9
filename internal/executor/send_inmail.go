package executor

import (
	"context"

	"github.com/smilemakc/outreach-engine/internal/domain"
)

// sendInmailExecutor implements the SendInmail node kind. It is a stubbed
// success: the provider's paid-inmail surface is not integrated yet, but
// the node kind is kept so a graph referencing it still validates and runs
// end to end.
type sendInmailExecutor struct {
	deps Deps
}

func (e *sendInmailExecutor) Execute(_ context.Context, _ *Request) (*Result, error) {
	return &Result{Verdict: domain.VerdictOK, Success: true}, nil
}
