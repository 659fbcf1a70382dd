package ghapi

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// quota is one API budget window.
type quota struct {
	limit     int
	remaining int
	reset     time.Time
}

// RateTracker tracks the REST core and GraphQL budgets from response
// metadata and blocks callers when a budget is nearly exhausted, so
// calls wait for the window to reset instead of burning requests on
// rate limit rejections. REST and GraphQL draw on separate budgets and
// are tracked independently.
type RateTracker struct {
	mu      sync.Mutex
	core    quota
	graphql quota
	logger  *slog.Logger
}

// NewRateTracker creates a tracker with no budget information. Budgets
// populate from the first responses.
func NewRateTracker(logger *slog.Logger) *RateTracker {
	if logger == nil {
		logger = slog.Default()
	}
	return &RateTracker{logger: logger}
}

// UpdateCore records the REST core budget from response rate headers.
func (t *RateTracker) UpdateCore(limit, remaining int, reset time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.core = quota{limit: limit, remaining: remaining, reset: reset}
}

// UpdateGraphQL records the GraphQL point budget from a query's
// rateLimit block.
func (t *RateTracker) UpdateGraphQL(limit, remaining int, reset time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.graphql = quota{limit: limit, remaining: remaining, reset: reset}
}

// WaitCore blocks until the REST budget allows another call.
func (t *RateTracker) WaitCore(ctx context.Context) error {
	return t.wait(ctx, &t.core, CoreRateThreshold, "core")
}

// WaitGraphQL blocks until the GraphQL budget allows another query.
func (t *RateTracker) WaitGraphQL(ctx context.Context) error {
	return t.wait(ctx, &t.graphql, GraphQLRateThreshold, "graphql")
}

func (t *RateTracker) wait(ctx context.Context, q *quota, threshold int, api string) error {
	t.mu.Lock()
	snapshot := *q
	t.mu.Unlock()

	// No budget information yet; the first response populates it.
	if snapshot.limit == 0 {
		return nil
	}
	if snapshot.remaining > threshold {
		return nil
	}

	wait := time.Until(snapshot.reset) + resetBuffer
	if wait <= 0 {
		// Reset already passed; the next response refreshes the window.
		return nil
	}
	if wait > maxResetWait {
		return fmt.Errorf("%s rate limit reset is %s away, refusing to wait (check system clock)", api, wait.Round(time.Second))
	}

	t.logger.Warn("rate limit budget low, waiting for reset",
		"api", api,
		"remaining", snapshot.remaining,
		"reset", snapshot.reset.Format(time.RFC3339),
		"wait", wait.Round(time.Second))

	if err := sleepContext(ctx, wait); err != nil {
		return err
	}

	// The window has reset. Assume a full budget until the next
	// response reports fresh numbers.
	t.mu.Lock()
	if q.reset.Equal(snapshot.reset) {
		q.remaining = q.limit
		q.reset = snapshot.reset.Add(time.Hour)
	}
	t.mu.Unlock()
	return nil
}

// sleepContext sleeps for d unless the context is cancelled first.
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
