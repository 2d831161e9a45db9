package runtime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRetryPolicy_DelayGrowsExponentiallyUpToCap(t *testing.T) {
	p := RetryPolicy{MaxAttempts: 10, InitialDelay: time.Second, MaxDelay: 30 * time.Second, Multiplier: 2}

	// Jitter is +/-10%, so assert on bands rather than exact values.
	d1 := p.Delay(1)
	assert.InDelta(t, float64(time.Second), float64(d1), float64(time.Second)*0.11)

	d3 := p.Delay(3)
	assert.InDelta(t, float64(4*time.Second), float64(d3), float64(4*time.Second)*0.11)

	d10 := p.Delay(10)
	assert.LessOrEqual(t, d10, 33*time.Second)
	assert.GreaterOrEqual(t, d10, 27*time.Second)
}

func TestDefaultRetryPolicy(t *testing.T) {
	p := DefaultRetryPolicy()
	assert.Equal(t, 10, p.MaxAttempts)
	assert.Equal(t, time.Second, p.InitialDelay)
	assert.Equal(t, 30*time.Second, p.MaxDelay)
}
