package executor

import (
	"context"

	"github.com/smilemakc/outreach-engine/internal/classifier"
	"github.com/smilemakc/outreach-engine/internal/domain"
	"github.com/smilemakc/outreach-engine/internal/provider"
	"github.com/smilemakc/outreach-engine/internal/runtime"
)

// classifyErr maps a provider call's error into a verdict, the only
// boundary where a node executor inspects a raw error value rather than a
// typed result.
func classifyErr(err error) (domain.Verdict, string, string) {
	if err == nil {
		return domain.VerdictOK, "", ""
	}
	if pe, ok := err.(*provider.Error); ok {
		return classifier.Classify(pe.HTTPStatus, pe.TypedCode), pe.TypedCode, pe.Detail
	}
	return domain.VerdictTransient, "", err.Error()
}

// withRetry runs call, retrying per policy as long as the resulting verdict
// is Transient. It sleeps through rt between attempts so a LocalRuntime and
// a durable-execution-backed Runtime behave identically.
func withRetry(ctx context.Context, rt runtime.Runtime, policy runtime.RetryPolicy, call func(ctx context.Context) error) (domain.Verdict, string, string) {
	var verdict domain.Verdict
	var code, detail string
	for attempt := 1; attempt <= policy.MaxAttempts; attempt++ {
		err := call(ctx)
		verdict, code, detail = classifyErr(err)
		if !verdict.IsRetryable() {
			return verdict, code, detail
		}
		if attempt == policy.MaxAttempts {
			break
		}
		if sleepErr := rt.Sleep(ctx, policy.Delay(attempt)); sleepErr != nil {
			return domain.VerdictTransient, code, sleepErr.Error()
		}
	}
	return verdict, code, detail
}
