package platform

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidURL is returned when a URL does not match the adapter's
	// pattern, or no adapter recognizes it at all.
	ErrInvalidURL = errors.New("url does not match any known platform pattern")

	// ErrNoResults is returned when a search was valid but matched nothing.
	ErrNoResults = errors.New("no results")

	// ErrNoToken is returned when an authenticated call is attempted before
	// the first token grant completed.
	ErrNoToken = errors.New("no access token held")

	// ErrAuth is returned when the platform rejected the held access token.
	// The next scheduled refresh tick replaces the token, so callers treat
	// this as a transient per-call failure.
	ErrAuth = errors.New("platform rejected the access token")

	// ErrInvalidCredentials means the platform rejected the configured
	// client id/secret. This is a configuration mistake and is never retried.
	ErrInvalidCredentials = errors.New("invalid client credentials")
)

// UpstreamError wraps a malformed or unexpected response from a third-party
// API. Batch flows drop the affected item; single-item flows surface it as a
// generic failure message.
type UpstreamError struct {
	Platform string
	Op       string
	Err      error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Platform, e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

func upstreamErr(name, op string, err error) error {
	return &UpstreamError{Platform: name, Op: op, Err: err}
}
