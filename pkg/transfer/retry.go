package transfer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/vodforge/vodforge/pkg/objectstore"
)

// Classification decides whether a failed attempt may be retried.
type Classification int

const (
	Retryable Classification = iota
	Fatal
)

// Classifier inspects an error and classifies it.
type Classifier func(error) Classification

// DefaultClassifier treats the fixed deny-list of adapter error kinds as
// fatal and everything else (timeouts, throttling, server-side failures)
// as retryable.
func DefaultClassifier(err error) Classification {
	switch {
	case objectstore.IsNotFound(err),
		objectstore.IsAccessDenied(err),
		objectstore.IsBadCredentials(err),
		errors.Is(err, objectstore.ErrMalformedRequest),
		errors.Is(err, objectstore.ErrBucketNotEmpty),
		errors.Is(err, objectstore.ErrInvalidKey):
		return Fatal
	default:
		return Retryable
	}
}

// AttemptHook observes each retry before its backoff sleep. It never
// affects control flow.
type AttemptHook func(attempt, remaining int, delay time.Duration)

// RetryConfig bounds a retried operation.
type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Classifier  Classifier
	OnAttempt   AttemptHook
}

// Retry executes op with bounded-attempt exponential backoff. The delay
// before attempt n+1 is BaseDelay * 2^(n-1), with no jitter. A fatal
// classification aborts immediately with the original error; exhausting
// the budget returns the last error annotated with the attempt count.
func Retry(ctx context.Context, config RetryConfig, op func() error) error {
	classifier := config.Classifier
	if classifier == nil {
		classifier = DefaultClassifier
	}
	maxAttempts := config.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := op()
		if err == nil {
			return nil
		}
		lastErr = err

		if classifier(err) == Fatal {
			return err
		}
		if attempt == maxAttempts {
			break
		}

		delay := config.BaseDelay << (attempt - 1)
		if config.OnAttempt != nil {
			config.OnAttempt(attempt, maxAttempts-attempt, delay)
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("retry cancelled: %w", ctx.Err())
		case <-time.After(delay):
		}
	}

	return fmt.Errorf("operation failed after %d attempts: %w", maxAttempts, lastErr)
}
