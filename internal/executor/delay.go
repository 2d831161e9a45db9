package executor

import (
	"context"
	"time"

	"github.com/smilemakc/outreach-engine/internal/domain"
)

// delayExecutor implements the Delay node kind: a plain durable sleep
// authored as its own step, distinct from the wait attached to an edge.
type delayExecutor struct {
	deps Deps
}

func (e *delayExecutor) Execute(ctx context.Context, req *Request) (*Result, error) {
	cfg, err := parseConfig[DelayConfig](req.Node.Config())
	if err != nil || cfg.Duration == "" {
		return &Result{Verdict: domain.VerdictPermanent, Success: false, Detail: "delay node missing duration"}, nil
	}
	d, err := time.ParseDuration(cfg.Duration)
	if err != nil {
		return &Result{Verdict: domain.VerdictPermanent, Success: false, Detail: err.Error()}, nil
	}
	if err := e.deps.Runtime.Sleep(ctx, d); err != nil {
		return nil, err
	}
	return &Result{Success: true}, nil
}
