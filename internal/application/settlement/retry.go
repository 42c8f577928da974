package settlement

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/alejandrodnm/pratracker/internal/domain"
)

// retryPolicy reintenta solo fallos transitorios del proveedor.
// MaxRetries=2 significa hasta 3 intentos en total.
type retryPolicy struct {
	maxRetries int
	delay      time.Duration
}

// withRetry ejecuta fn y la repite con un delay fijo mientras el error envuelva
// domain.ErrProviderUnavailable. Cualquier otro error se devuelve al momento.
func withRetry[T any](ctx context.Context, p retryPolicy, op string, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	var lastErr error

	for attempt := 0; attempt <= p.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(p.delay):
			case <-ctx.Done():
				return zero, ctx.Err()
			}
		}

		v, err := fn(ctx)
		if err == nil {
			return v, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return zero, ctxErr
		}
		if !errors.Is(err, domain.ErrProviderUnavailable) {
			return zero, err
		}

		lastErr = err
		if attempt == p.maxRetries {
			break
		}
		slog.Warn("provider unavailable, retrying",
			"op", op,
			"attempt", attempt+1,
			"max_attempts", p.maxRetries+1,
			"err", err,
		)
	}
	return zero, lastErr
}
