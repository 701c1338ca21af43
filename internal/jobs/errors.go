package jobs

import "errors"

// RetryableError marks a handler failure as transient: the processor leaves
// the job Pending (for SetJobPendingForRetry) instead of marking it Failed
// outright. Anything else surfacing from a handler is treated as permanent
// (spec.md §4.3's retry policy: 3 attempts, 2s/4s/8s backoff, then Failed).
type RetryableError struct {
	Err error
}

func (e *RetryableError) Error() string { return e.Err.Error() }

func (e *RetryableError) Unwrap() error { return e.Err }

// Retryable wraps err as a RetryableError, or returns nil if err is nil.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return &RetryableError{Err: err}
}

// IsRetryable reports whether err (or something it wraps) is a RetryableError.
func IsRetryable(err error) bool {
	var re *RetryableError
	return errors.As(err, &re)
}

// MaxAttempts is the attempt ceiling before a job is marked Failed for good.
const MaxAttempts = 3

// Backoff returns the delay before reattempting a job, given its current
// (post-increment) attempt count. Attempt counts beyond the length of the
// 2/4/8s schedule reuse the last entry.
func Backoff(attempt int) int {
	schedule := []int{2, 4, 8}
	if attempt <= 0 {
		return schedule[0]
	}
	if attempt > len(schedule) {
		return schedule[len(schedule)-1]
	}
	return schedule[attempt-1]
}
