// Package resilience wraps outbound calls with bounded retries and a
// per-operation circuit breaker. Callers describe each failure through an
// ErrorClassifier so transport errors retry while protocol errors surface
// immediately.
package resilience

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/sony/gobreaker/v2"
)

// ErrorClassification tells the executor what to do with a failed call.
// Retryable schedules another attempt, RecordFailure counts the error
// toward tripping the breaker.
type ErrorClassification struct {
	Retryable     bool
	RecordFailure bool
}

type ErrorClassifier func(err error) ErrorClassification

// Executor shares breaker state across all calls with the same operation
// name, so every model request to one endpoint sees the same circuit.
type Executor struct {
	cfg Config

	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker[any]
}

func NewExecutor(cfg Config) *Executor {
	return &Executor{
		cfg:      cfg.normalize(),
		breakers: make(map[string]*gobreaker.CircuitBreaker[any]),
	}
}

// Execute runs fn under the retry policy and the breaker registered for
// operation. A nil classifier treats every error as permanent.
func (e *Executor) Execute(
	ctx context.Context,
	operation string,
	fn func(context.Context) error,
	classifier ErrorClassifier,
) error {
	if fn == nil {
		return fmt.Errorf("resilience: nil operation for %q", operation)
	}
	name := strings.TrimSpace(operation)
	if name == "" {
		name = "unnamed"
	}
	if classifier == nil {
		classifier = permanentFailure
	}

	if !e.cfg.BreakerEnabled {
		return e.retryLoop(ctx, name, fn, classifier)
	}
	_, err := e.breakerFor(name, classifier).Execute(func() (any, error) {
		return nil, e.retryLoop(ctx, name, fn, classifier)
	})
	return err
}

func (e *Executor) retryLoop(
	ctx context.Context,
	operation string,
	fn func(context.Context) error,
	classifier ErrorClassifier,
) error {
	delay := e.cfg.RetryInitialBackoff

	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := fn(ctx)
		if err == nil {
			return nil
		}
		if !classifier(err).Retryable || attempt >= e.cfg.RetryMaxAttempts {
			return err
		}

		if delay > e.cfg.RetryMaxBackoff {
			delay = e.cfg.RetryMaxBackoff
		}
		slog.Warn("retrying operation",
			"operation", operation,
			"attempt", attempt,
			"max_attempts", e.cfg.RetryMaxAttempts,
			"delay", delay.String(),
			"error", err,
		)
		if !sleepCtx(ctx, delay) {
			return err
		}
		delay = time.Duration(float64(delay) * e.cfg.RetryMultiplier)
	}
}

// sleepCtx waits for d unless the context ends first.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func (e *Executor) breakerFor(operation string, classifier ErrorClassifier) *gobreaker.CircuitBreaker[any] {
	e.mu.Lock()
	defer e.mu.Unlock()

	if cb, ok := e.breakers[operation]; ok {
		return cb
	}

	cb := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        operation,
		MaxRequests: e.cfg.BreakerHalfOpenMaxCalls,
		Timeout:     e.cfg.BreakerOpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < e.cfg.BreakerMinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= e.cfg.BreakerFailureRatio
		},
		IsSuccessful: func(err error) bool {
			return err == nil || !classifier(err).RecordFailure
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("breaker changed state", "operation", name, "from", from.String(), "to", to.String())
		},
	})
	e.breakers[operation] = cb
	return cb
}

// IsCircuitOpen reports whether err came from the breaker itself rather
// than the wrapped operation.
func IsCircuitOpen(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}

func permanentFailure(error) ErrorClassification {
	return ErrorClassification{Retryable: false, RecordFailure: true}
}
