package ghapi

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"
)

// maxBackoff caps a single retry delay. Secondary rate limit windows
// are short; anything longer than this means the run should fail.
const maxBackoff = 5 * time.Minute

// RetryPolicy retries transient API failures with exponential backoff.
// Secondary rate limit rejections, 5xx responses, and network errors are
// retried. Auth failures and 404s are not: they cannot succeed on a
// second attempt. A primary rate limit rejection waits for the reported
// window reset before the next attempt.
type RetryPolicy struct {
	// Attempts is the number of retries after the initial attempt.
	Attempts int

	// BaseWait is the first backoff delay; each retry doubles it, plus
	// up to 10% jitter so parallel workers do not retry in lockstep.
	BaseWait time.Duration

	logger *slog.Logger
}

// NewRetryPolicy creates a policy, substituting defaults for
// nonpositive values.
func NewRetryPolicy(attempts int, baseWait time.Duration, logger *slog.Logger) *RetryPolicy {
	if attempts <= 0 {
		attempts = DefaultRetryCount
	}
	if baseWait <= 0 {
		baseWait = DefaultRetryBaseWait
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RetryPolicy{Attempts: attempts, BaseWait: baseWait, logger: logger}
}

// Do runs fn, retrying per the policy. op names the operation in logs
// and in the final error.
func (p *RetryPolicy) Do(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	var lastErr error
	for attempt := 0; attempt <= p.Attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}

		if attempt == p.Attempts {
			break
		}

		wait, retry := p.classify(lastErr, attempt)
		if !retry {
			return lastErr
		}

		p.logger.Warn("retrying after error",
			"operation", op,
			"attempt", attempt+1,
			"max_attempts", p.Attempts+1,
			"wait", wait.Round(time.Millisecond),
			"error", lastErr)

		if err := sleepContext(ctx, wait); err != nil {
			return err
		}
	}
	return fmt.Errorf("%s failed after %d attempts: %w", op, p.Attempts+1, lastErr)
}

// classify decides whether err warrants another attempt and how long to
// wait before it.
func (p *RetryPolicy) classify(err error, attempt int) (time.Duration, bool) {
	if reset, ok := isPrimaryRateLimit(err); ok {
		wait := time.Until(reset) + resetBuffer
		if wait < 0 {
			wait = resetBuffer
		}
		if wait > maxResetWait {
			return 0, false
		}
		return wait, true
	}

	if after, ok := isSecondaryRateLimit(err); ok {
		wait := p.backoff(attempt)
		// Honor the server's retry-after hint when it asks for longer.
		if after > wait {
			wait = after
		}
		return wait, true
	}

	if isTransient(err) {
		return p.backoff(attempt), true
	}

	return 0, false
}

// backoff returns the exponential delay for a retry attempt.
func (p *RetryPolicy) backoff(attempt int) time.Duration {
	if attempt > 16 {
		attempt = 16
	}
	wait := p.BaseWait << uint(attempt)
	if wait > maxBackoff || wait <= 0 {
		wait = maxBackoff
	}
	jitter := time.Duration(rand.Int64N(int64(wait)/10 + 1))
	return wait + jitter
}
