package nvd

import (
	"context"
	"net/http"
	"time"
)

// RetryPolicy bounds repeated attempts of one source request.
type RetryPolicy struct {
	// MaxAttempts counts the first attempt too.
	MaxAttempts int
	// Delay is waited between two attempts.
	Delay time.Duration
	// Retryable reports whether an HTTP status is worth another attempt.
	Retryable func(status int) bool
}

// DefaultRetryPolicy retries "503 Service Unavailable" up to three attempts, three seconds apart.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		Delay:       3 * time.Second,
		Retryable:   RetryOnUnavailable,
	}
}

func RetryOnUnavailable(status int) bool {
	return status == http.StatusServiceUnavailable
}

func (p RetryPolicy) shouldRetry(status, attempt int) bool {
	if status == 0 || attempt >= p.MaxAttempts {
		return false
	}
	retryable := p.Retryable
	if retryable == nil {
		retryable = RetryOnUnavailable
	}
	return retryable(status)
}

// sleep waits d unless ctx ends first.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
