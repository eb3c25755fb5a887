package client

// Functional options configuring a Client during construction, plus the
// env-driven constructor used by tooling.

import (
	"fmt"
	"net/http"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog"
)

// Option configures a Client during construction in New.
type Option func(*Client) error

// WithHTTPTimeout sets a coarse bound on a single HTTP request. Per-attempt
// context deadlines from the retry policy are the finer control.
func WithHTTPTimeout(d time.Duration) Option {
	return func(c *Client) error {
		if d <= 0 {
			return fmt.Errorf("http timeout must be > 0")
		}
		c.http.Timeout = d
		return nil
	}
}

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) error {
		if h == nil {
			return fmt.Errorf("http client cannot be nil")
		}
		c.http = h
		return nil
	}
}

// WithLogger attaches a logger; the default discards everything.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) error {
		c.log = log
		return nil
	}
}

// WithRetryPolicy overrides the default retry policy.
func WithRetryPolicy(p RetryPolicy) Option {
	return func(c *Client) error {
		if p.MaxAttempts < 1 {
			return fmt.Errorf("retry policy needs at least one attempt")
		}
		c.retry = p
		return nil
	}
}

type envSettings struct {
	BaseURL     string        `envconfig:"MEMOPAD_BASE_URL" default:"http://localhost:8080"`
	HTTPTimeout time.Duration `envconfig:"MEMOPAD_HTTP_TIMEOUT" default:"30s"`
}

// FromEnv builds a Client from MEMOPAD_* environment variables. Explicit
// options are applied on top.
func FromEnv(opts ...Option) (*Client, error) {
	var s envSettings
	if err := envconfig.Process("", &s); err != nil {
		return nil, err
	}
	merged := append([]Option{WithHTTPTimeout(s.HTTPTimeout)}, opts...)
	return New(s.BaseURL, merged...)
}
