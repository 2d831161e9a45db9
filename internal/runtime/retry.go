package runtime

import (
	"math/rand"
	"time"
)

// RetryPolicy is the exponential-backoff-with-jitter policy applied to
// every provider-calling activity: initial 1s, cap 30s, 10 max attempts.
// Permanent and auth verdicts short-circuit it; only transient verdicts
// consume attempts.
type RetryPolicy struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}

// DefaultRetryPolicy returns the policy used for provider activities.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:  10,
		InitialDelay: time.Second,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
	}
}

// Delay returns the backoff to wait after the given attempt fails (1-based:
// Delay(N) is the delay that precedes attempt N+1), with +/-10% jitter to avoid a thundering
// herd across leads retrying in lockstep.
func (p RetryPolicy) Delay(attempt int) time.Duration {
	d := float64(p.InitialDelay)
	for i := 1; i < attempt; i++ {
		d *= p.Multiplier
		if d > float64(p.MaxDelay) {
			d = float64(p.MaxDelay)
			break
		}
	}
	jitterAmount := d * 0.1
	d += (rand.Float64()*2 - 1) * jitterAmount
	if d < 0 {
		d = 0
	}
	return time.Duration(d)
}
