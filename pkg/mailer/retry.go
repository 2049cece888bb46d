package mailer

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// retrier re-runs a provider call with capped exponential backoff. maxRetries
// counts calls after the first, so a send makes at most maxRetries+1 calls.
type retrier struct {
	initial    time.Duration
	max        time.Duration
	maxRetries int
	logger     zerolog.Logger
}

func newRetrier(initialMs, maxMs, maxRetries int, logger zerolog.Logger) *retrier {
	if initialMs <= 0 {
		initialMs = 500
	}
	if maxMs <= 0 {
		maxMs = initialMs
	}
	if maxMs < initialMs {
		maxMs = initialMs
	}
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &retrier{
		initial:    time.Duration(initialMs) * time.Millisecond,
		max:        time.Duration(maxMs) * time.Millisecond,
		maxRetries: maxRetries,
		logger:     logger,
	}
}

func (r *retrier) do(ctx context.Context, fn func() error, retryable func(error) bool) error {
	var attempt int
	for {
		err := fn()
		if err == nil {
			return nil
		}
		if attempt >= r.maxRetries || !retryable(err) {
			return err
		}
		delay := backoffWithJitter(r.initial, r.max, attempt)
		event := r.logger.Warn().Int("attempt", attempt+1).Int("max_retries", r.maxRetries).Dur("sleep", delay)
		var statusErr retryableStatusError
		if errors.As(err, &statusErr) {
			event = event.Str("reason", "provider_status").Int("provider_status", statusErr.status)
		} else {
			event = event.Str("reason", "transport").Err(err)
		}
		event.Msg("Retrying email send")

		t := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return err
		case <-t.C:
		}
		attempt++
	}
}

func backoffWithJitter(initial, max time.Duration, attempt int) time.Duration {
	b := float64(initial) * math.Pow(2, float64(attempt))
	if b > float64(max) {
		b = float64(max)
	}
	j := b / 2
	return time.Duration(j + rand.Float64()*j)
}

func isRetryableHTTP(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var statusErr retryableStatusError
	return errors.As(err, &statusErr)
}

func isRetryableStatus(status int) bool {
	if status >= 500 && status < 600 {
		return true
	}
	return status == http.StatusTooManyRequests
}

type retryableStatusError struct {
	status int
}

func (e retryableStatusError) Error() string {
	return http.StatusText(e.status)
}
