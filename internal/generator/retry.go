package generator

import (
	"time"
)

// RetryPolicy controls how rate-limited generations are retried.
type RetryPolicy struct {
	MaxAttempts int           // total attempts, first one included
	BaseDelay   time.Duration // wait before the second attempt, doubled after
}

// DefaultRetryPolicy returns three attempts with a one second base delay.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		BaseDelay:   time.Second,
	}
}

// Delay returns the wait before the given zero-based attempt.
// Attempt 0 never waits; attempt n waits BaseDelay * 2^(n-1).
func (p RetryPolicy) Delay(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}
	return p.BaseDelay << (attempt - 1)
}

// Schedule lists the wait before every attempt the policy allows.
func (p RetryPolicy) Schedule() []time.Duration {
	out := make([]time.Duration, p.attempts())
	for i := range out {
		out[i] = p.Delay(i)
	}
	return out
}

func (p RetryPolicy) attempts() int {
	if p.MaxAttempts <= 0 {
		return 1
	}
	return p.MaxAttempts
}
