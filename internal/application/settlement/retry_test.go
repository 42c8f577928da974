package settlement

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/alejandrodnm/pratracker/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithRetry_StopsOnSuccess(t *testing.T) {
	calls := 0
	v, err := withRetry(context.Background(), retryPolicy{maxRetries: 2, delay: time.Millisecond}, "op",
		func(context.Context) (int, error) {
			calls++
			if calls < 2 {
				return 0, domain.ErrProviderUnavailable
			}
			return 42, nil
		})
	require.NoError(t, err)
	assert.Equal(t, 42, v)
	assert.Equal(t, 2, calls)
}

func TestWithRetry_ReturnsLastTransientError(t *testing.T) {
	calls := 0
	_, err := withRetry(context.Background(), retryPolicy{maxRetries: 2, delay: time.Millisecond}, "op",
		func(context.Context) (int, error) {
			calls++
			return 0, domain.ErrProviderUnavailable
		})
	assert.ErrorIs(t, err, domain.ErrProviderUnavailable)
	assert.Equal(t, 3, calls)
}

func TestWithRetry_PermanentErrorNotRetried(t *testing.T) {
	calls := 0
	boom := errors.New("boom")
	_, err := withRetry(context.Background(), retryPolicy{maxRetries: 5, delay: time.Millisecond}, "op",
		func(context.Context) (int, error) {
			calls++
			return 0, boom
		})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
}

func TestWithRetry_CancelledDuringDelay(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	_, err := withRetry(ctx, retryPolicy{maxRetries: 3, delay: time.Hour}, "op",
		func(context.Context) (int, error) {
			calls++
			cancel()
			return 0, domain.ErrProviderUnavailable
		})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestWithRetry_NoRetryLogAfterLastAttempt(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })

	_, err := withRetry(context.Background(), retryPolicy{maxRetries: 2, delay: time.Millisecond}, "box g1",
		func(context.Context) (int, error) {
			return 0, domain.ErrProviderUnavailable
		})
	require.ErrorIs(t, err, domain.ErrProviderUnavailable)

	out := buf.String()
	assert.Equal(t, 2, strings.Count(out, "retrying"))
	assert.NotContains(t, out, "attempt=3")
}

func TestWithRetry_ZeroRetriesSingleAttemptNoLog(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })

	calls := 0
	_, err := withRetry(context.Background(), retryPolicy{maxRetries: 0, delay: time.Millisecond}, "op",
		func(context.Context) (int, error) {
			calls++
			return 0, domain.ErrProviderUnavailable
		})
	assert.ErrorIs(t, err, domain.ErrProviderUnavailable)
	assert.Equal(t, 1, calls)
	assert.Empty(t, buf.String())
}
