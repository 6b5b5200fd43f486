package transfer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vodforge/vodforge/pkg/objectstore"
)

func TestRetryBackoffDoubling(t *testing.T) {
	var delays []time.Duration

	calls := 0
	err := Retry(context.Background(), RetryConfig{
		MaxAttempts: 4,
		BaseDelay:   time.Millisecond,
		OnAttempt: func(attempt, remaining int, delay time.Duration) {
			delays = append(delays, delay)
		},
	}, func() error {
		calls++
		return errors.New("transient")
	})

	require.Error(t, err)
	assert.Equal(t, 4, calls)
	assert.Equal(t, []time.Duration{
		time.Millisecond,
		2 * time.Millisecond,
		4 * time.Millisecond,
	}, delays)
	assert.Contains(t, err.Error(), "after 4 attempts")
}

func TestRetrySucceedsMidway(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), RetryConfig{
		MaxAttempts: 5,
		BaseDelay:   time.Microsecond,
	}, func() error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetryFatalNeverRetries(t *testing.T) {
	fatal := objectstore.NewError("Get", objectstore.ObjectRef{Bucket: "b", Key: "k"},
		"s3", objectstore.ErrAccessDenied, errors.New("denied"))

	calls := 0
	err := Retry(context.Background(), RetryConfig{
		MaxAttempts: 5,
		BaseDelay:   time.Microsecond,
	}, func() error {
		calls++
		return fatal
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls)
	// The original error propagates unannotated.
	assert.Equal(t, fatal, err)
}

func TestRetryFatalDenyList(t *testing.T) {
	kinds := []error{
		objectstore.ErrNotFound,
		objectstore.ErrAccessDenied,
		objectstore.ErrBadCredentials,
		objectstore.ErrMalformedRequest,
		objectstore.ErrBucketNotEmpty,
		objectstore.ErrInvalidKey,
	}
	for _, kind := range kinds {
		err := objectstore.NewError("Op", objectstore.ObjectRef{}, "s3", kind, errors.New("boom"))
		assert.Equal(t, Fatal, DefaultClassifier(err), "kind %v", kind)
	}

	retryable := []error{
		objectstore.ErrTimeout,
		objectstore.ErrThrottled,
		objectstore.ErrInternal,
	}
	for _, kind := range retryable {
		err := objectstore.NewError("Op", objectstore.ObjectRef{}, "s3", kind, errors.New("boom"))
		assert.Equal(t, Retryable, DefaultClassifier(err), "kind %v", kind)
	}

	assert.Equal(t, Retryable, DefaultClassifier(errors.New("plain")))
}

func TestRetryLastErrorWrapped(t *testing.T) {
	last := errors.New("still broken")
	err := Retry(context.Background(), RetryConfig{
		MaxAttempts: 2,
		BaseDelay:   time.Microsecond,
	}, func() error {
		return last
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, last))
}

func TestRetryContextCancelledDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	errCh := make(chan error, 1)
	go func() {
		errCh <- Retry(ctx, RetryConfig{
			MaxAttempts: 3,
			BaseDelay:   time.Minute,
		}, func() error {
			calls++
			return errors.New("transient")
		})
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		require.Error(t, err)
		assert.True(t, errors.Is(err, context.Canceled))
		assert.Equal(t, 1, calls)
	case <-time.After(time.Second):
		t.Fatal("retry did not observe cancellation")
	}
}

func TestRetryZeroMaxAttemptsRunsOnce(t *testing.T) {
	calls := 0
	_ = Retry(context.Background(), RetryConfig{}, func() error {
		calls++
		return errors.New("transient")
	})
	assert.Equal(t, 1, calls)
}
