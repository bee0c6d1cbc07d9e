package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/felixgeelhaar/fortify/circuitbreaker"
	"github.com/felixgeelhaar/fortify/retry"
)

// ResilientDoer wraps a Doer with resilience patterns from fortify. Only
// transport failures count against the breaker and the retrier; HTTP
// status handling, including the 401 refresh flow, stays in the Client so
// the refresh-once guarantee is unaffected.
type ResilientDoer struct {
	base           Doer
	circuitBreaker circuitbreaker.CircuitBreaker[*http.Response]
	retrier        retry.Retry[*http.Response]
	logger         *slog.Logger
}

// ResilienceConfig holds configuration for the resilient wrapper.
type ResilienceConfig struct {
	// EnableCircuitBreaker fails fast after repeated transport failures
	EnableCircuitBreaker bool

	// EnableRetry retries idempotent reads on transport failures
	EnableRetry bool

	// Logger for resilience events
	Logger *slog.Logger
}

// NewResilientDoer wraps base with the configured resilience patterns.
func NewResilientDoer(base Doer, cfg ResilienceConfig) *ResilientDoer {
	d := &ResilientDoer{
		base:   base,
		logger: cfg.Logger,
	}

	if cfg.EnableCircuitBreaker {
		d.circuitBreaker = circuitbreaker.New[*http.Response](circuitbreaker.Config{
			MaxRequests: 2,
			Interval:    10 * time.Second,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts circuitbreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 3
			},
			OnStateChange: func(from, to circuitbreaker.State) {
				if d.logger != nil {
					d.logger.Warn("circuit breaker state change",
						"from", from.String(),
						"to", to.String())
				}
			},
		})
	}

	if cfg.EnableRetry {
		d.retrier = retry.New[*http.Response](retry.Config{
			MaxAttempts:   2,
			InitialDelay:  250 * time.Millisecond,
			MaxDelay:      2 * time.Second,
			Multiplier:    2.0,
			BackoffPolicy: retry.BackoffExponential,
			Jitter:        true,
			IsRetryable: func(err error) bool {
				// Only transport errors reach the retrier; responses,
				// whatever their status, are returned as success.
				return true
			},
		})
	}

	return d
}

// Do executes the request through the configured resilience layers.
func (d *ResilientDoer) Do(req *http.Request) (*http.Response, error) {
	ctx := req.Context()

	operation := func(ctx context.Context) (*http.Response, error) {
		return d.base.Do(req)
	}

	// Retry only idempotent methods; a mutation is dispatched at most once.
	retrier := d.retrier
	if req.Method != http.MethodGet && req.Method != http.MethodHead {
		retrier = nil
	}

	if d.circuitBreaker != nil && retrier != nil {
		return d.circuitBreaker.Execute(ctx, func(ctx context.Context) (*http.Response, error) {
			return retrier.Do(ctx, operation)
		})
	}

	if d.circuitBreaker != nil {
		return d.circuitBreaker.Execute(ctx, operation)
	}

	if retrier != nil {
		return retrier.Do(ctx, operation)
	}

	return operation(ctx)
}
