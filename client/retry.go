package client

import (
	"context"
	"net/http"
	"time"

	backoff "github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
)

// RetryPolicy is the one retry component shared by the pagination controller
// and the single-resource fetchers. Transient failures are retried with
// jittered exponential backoff; 504-class failures use a longer plain
// doubling schedule; irrecoverable errors fail immediately.
type RetryPolicy struct {
	// MaxAttempts counts the first try. Default 5.
	MaxAttempts int
	// BaseDelay seeds the jittered backoff for generic transient failures.
	// Default 500ms.
	BaseDelay time.Duration
	// GatewayBase seeds the doubling schedule used after a 504. Default 3s.
	GatewayBase time.Duration
	// MaxInterval caps any single wait. Default 20s.
	MaxInterval time.Duration
	// AttemptTimeout bounds the first attempt; each retry gets TimeoutStep
	// more, so slow backends get progressively more room. Defaults 30s/15s.
	AttemptTimeout time.Duration
	TimeoutStep    time.Duration
}

// DefaultRetryPolicy returns the policy used unless overridden.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:    5,
		BaseDelay:      500 * time.Millisecond,
		GatewayBase:    3 * time.Second,
		MaxInterval:    20 * time.Second,
		AttemptTimeout: 30 * time.Second,
		TimeoutStep:    15 * time.Second,
	}
}

func (p RetryPolicy) withDefaults() RetryPolicy {
	d := DefaultRetryPolicy()
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = d.MaxAttempts
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = d.BaseDelay
	}
	if p.GatewayBase <= 0 {
		p.GatewayBase = d.GatewayBase
	}
	if p.MaxInterval <= 0 {
		p.MaxInterval = d.MaxInterval
	}
	if p.AttemptTimeout <= 0 {
		p.AttemptTimeout = d.AttemptTimeout
	}
	if p.TimeoutStep <= 0 {
		p.TimeoutStep = d.TimeoutStep
	}
	return p
}

// Do runs fn under the policy. fn receives a per-attempt context whose
// deadline escalates across retries. The last error is returned once
// attempts are exhausted; callers surface it and stop retrying until the
// next user action.
func (p RetryPolicy) Do(ctx context.Context, log zerolog.Logger, op string, fn func(context.Context) error) error {
	p = p.withDefaults()

	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = p.BaseDelay
	exp.Multiplier = 2
	exp.MaxInterval = p.MaxInterval
	exp.MaxElapsedTime = 0
	exp.Reset()

	gatewayWait := p.GatewayBase

	var err error
	for attempt := 0; attempt < p.MaxAttempts; attempt++ {
		attemptCtx, cancel := context.WithTimeout(ctx, p.AttemptTimeout+time.Duration(attempt)*p.TimeoutStep)
		err = fn(attemptCtx)
		cancel()

		if err == nil {
			return nil
		}
		if IsIrrecoverable(err) {
			return err
		}
		if attempt == p.MaxAttempts-1 {
			break
		}

		var wait time.Duration
		if StatusOf(err) == http.StatusGatewayTimeout {
			wait = gatewayWait
			gatewayWait *= 2
		} else {
			wait = exp.NextBackOff()
		}
		if wait > p.MaxInterval {
			wait = p.MaxInterval
		}

		retriesTotal.WithLabelValues(op).Inc()
		log.Debug().Err(err).Str("op", op).Int("attempt", attempt+1).Dur("wait", wait).Msg("retrying")

		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}
