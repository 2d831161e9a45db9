package executor

import (
	"context"

	"github.com/smilemakc/outreach-engine/internal/domain"
	"github.com/smilemakc/outreach-engine/internal/template"
)

// conditionExecutor implements the Condition node kind: an explicit branch
// point whose outgoing positive/negative edge is chosen by evaluating an
// expr-lang expression against the lead's known variables, rather than by
// the success/failure of a provider call. Condition nodes never call the
// provider, so they are exempt from the time window and quota gates
// (domain.NodeKind.IsProviderStep reports false for them).
type conditionExecutor struct {
	deps Deps
}

func (e *conditionExecutor) Execute(_ context.Context, req *Request) (*Result, error) {
	cfg, err := parseConfig[ConditionConfig](req.Node.Config())
	if err != nil || cfg.Expression == "" {
		return &Result{Verdict: domain.VerdictPermanent, Success: false, Detail: "condition node missing expression"}, nil
	}

	ok, err := template.EvalBool(cfg.Expression, template.Vars{
		FirstName: req.Lead.FirstName(),
		LastName:  req.Lead.LastName(),
	})
	if err != nil {
		return &Result{Verdict: domain.VerdictPermanent, Success: false, Detail: err.Error()}, nil
	}
	return &Result{Success: ok}, nil
}
