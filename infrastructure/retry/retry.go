// Package retry runs an operation with exponential backoff between attempts.
package retry

import (
	"context"
	"time"

	"vod-catalog/infrastructure/logger"
	"vod-catalog/infrastructure/metrics"
)

// Sleeper waits for d or until ctx is done, whichever comes first.
type Sleeper func(ctx context.Context, d time.Duration) error

// Sleep is the production Sleeper.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// NoSleep returns immediately. Tests use it to skip pacing and backoff.
func NoSleep(ctx context.Context, _ time.Duration) error {
	return ctx.Err()
}

// Executor carries the wait strategy shared by every retried call site.
type Executor struct {
	Sleep Sleeper
}

func NewExecutor(sleep Sleeper) *Executor {
	if sleep == nil {
		sleep = Sleep
	}
	return &Executor{Sleep: sleep}
}

// Pause waits between paced upstream calls. Cancellation ends the wait early.
func (e *Executor) Pause(ctx context.Context, d time.Duration) {
	_ = e.sleeper()(ctx, d)
}

func (e *Executor) sleeper() Sleeper {
	if e == nil || e.Sleep == nil {
		return Sleep
	}
	return e.Sleep
}

// Execute makes up to maxRetries+1 attempts of op. After failed attempt i
// (zero based) it waits baseDelay*2^i, except after the last attempt, when
// the error of that attempt is returned unchanged.
func Execute[T any](ctx context.Context, e *Executor, maxRetries int, baseDelay time.Duration, op func(ctx context.Context) (T, error)) (T, error) {
	if maxRetries < 0 {
		maxRetries = 0
	}
	var (
		result T
		err    error
	)
	for attempt := 0; attempt <= maxRetries; attempt++ {
		result, err = op(ctx)
		if err == nil {
			return result, nil
		}
		if attempt == maxRetries {
			break
		}
		delay := baseDelay * time.Duration(1<<attempt)
		metrics.UpstreamRetries.Inc()
		logger.GetLogger().WithFields(map[string]interface{}{
			"attempt": attempt + 1,
			"delay":   delay.String(),
			"error":   err,
		}).Warn("Upstream call failed, retrying")
		if sleepErr := e.sleeper()(ctx, delay); sleepErr != nil {
			break
		}
	}
	return result, err
}
