package client

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrNotFound reports a 404 envelope (missing record or cross-user access).
// Never retried.
var ErrNotFound = errors.New("memo not found")

// Category determines how the retry policy treats a failure.
type Category int

const (
	// Recoverable failures are retried with backoff: 5xx responses,
	// timeouts, and transport-level errors.
	Recoverable Category = iota

	// Irrecoverable failures fail immediately: validation, ownership and
	// not-found responses.
	Irrecoverable
)

func (c Category) String() string {
	switch c {
	case Recoverable:
		return "Recoverable"
	case Irrecoverable:
		return "Irrecoverable"
	default:
		return fmt.Sprintf("Unknown(%d)", int(c))
	}
}

// APIError wraps a failed request with the metadata the retry policy and the
// rollback paths branch on.
type APIError struct {
	Category   Category
	StatusCode int    // 0 for transport-level failures
	Message    string // server-provided error/message field
	Underlying error
}

func (e *APIError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("[%s] HTTP %d: %v", e.Category, e.StatusCode, e.Underlying)
	}
	return fmt.Sprintf("[%s] %v", e.Category, e.Underlying)
}

func (e *APIError) Unwrap() error { return e.Underlying }

// classifyStatus maps an HTTP status to a retry category. 408 and 429 are
// the transient exceptions among the 4xx family.
func classifyStatus(status int) Category {
	switch {
	case status == http.StatusRequestTimeout, status == http.StatusTooManyRequests:
		return Recoverable
	case status >= 400 && status < 500:
		return Irrecoverable
	default:
		return Recoverable
	}
}

func newHTTPError(status int, msg, operation string) *APIError {
	return &APIError{
		Category:   classifyStatus(status),
		StatusCode: status,
		Message:    msg,
		Underlying: fmt.Errorf("%s failed: HTTP %d", operation, status),
	}
}

// newTransportError wraps a network-level failure; always recoverable.
func newTransportError(operation string, err error) *APIError {
	return &APIError{
		Category:   Recoverable,
		Underlying: fmt.Errorf("%s transport error: %w", operation, err),
	}
}

// IsIrrecoverable reports whether err must not be retried.
func IsIrrecoverable(err error) bool {
	var ae *APIError
	if errors.As(err, &ae) {
		return ae.Category == Irrecoverable
	}
	return false
}

// StatusOf extracts the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var ae *APIError
	if errors.As(err, &ae) {
		return ae.StatusCode
	}
	return 0
}
