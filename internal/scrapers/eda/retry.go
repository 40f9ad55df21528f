package eda

import (
	"math"
	"time"
)

// RetryPolicy describes how often and how patiently a failed request is retried.
//
// Every failure is retried the same way: transport errors, timeouts and any non-2xx status.
type RetryPolicy struct {
	// MaxAttempts is the total number of attempts, including the first one.
	MaxAttempts int
	// Multiplier is the base of the exponential backoff.
	Multiplier time.Duration
	MinWait    time.Duration
	MaxWait    time.Duration
}

// DefaultRetryPolicy makes 5 attempts, waiting 4s, 4s, 4s and 8s between them.
var DefaultRetryPolicy = RetryPolicy{
	MaxAttempts: 5,
	Multiplier:  time.Second,
	MinWait:     4 * time.Second,
	MaxWait:     10 * time.Second,
}

// Wait returns how long to wait after the given attempt (starting at 1) has failed:
// min(max(Multiplier * 2^(attempt-1), MinWait), MaxWait)
func (p RetryPolicy) Wait(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}

	wait := float64(p.Multiplier) * math.Exp2(float64(attempt-1))
	if p.MaxWait > 0 && wait > float64(p.MaxWait) {
		return p.MaxWait
	}
	if wait < float64(p.MinWait) {
		return p.MinWait
	}
	return time.Duration(wait)
}

func (p RetryPolicy) retries() int {
	if p.MaxAttempts < 1 {
		return 0
	}
	return p.MaxAttempts - 1
}
