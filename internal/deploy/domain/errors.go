package domain

import (
	"errors"
	"fmt"
)

// ErrInvalidCredential is returned when the deploy service rejects the
// workspace credentials (HTTP 401).
var ErrInvalidCredential = errors.New("invalid platformatic_workspace_key provided")

// ConfigError represents a problem with the action inputs or the project
// layout. It is always raised before any network call is made.
type ConfigError struct {
	Msg string
}

func (e *ConfigError) Error() string {
	return e.Msg
}

// NewConfigError creates a new ConfigError.
func NewConfigError(format string, args ...any) *ConfigError {
	return &ConfigError{Msg: fmt.Sprintf(format, args...)}
}

// IsConfigError checks if an error is or wraps a ConfigError.
func IsConfigError(err error) bool {
	var cfgErr *ConfigError
	return errors.As(err, &cfgErr)
}

// IsInvalidCredential checks if an error is or wraps ErrInvalidCredential.
func IsInvalidCredential(err error) bool {
	return errors.Is(err, ErrInvalidCredential)
}

// RemoteError represents a non-2xx answer from the deploy service.
type RemoteError struct {
	Op         string // e.g. "create a bundle"
	StatusCode int
	Body       string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("could not %s: %d", e.Op, e.StatusCode)
}

// NewRemoteError creates a new RemoteError.
func NewRemoteError(op string, statusCode int, body string) *RemoteError {
	return &RemoteError{
		Op:         op,
		StatusCode: statusCode,
		Body:       body,
	}
}

// PrewarmError is returned once every prewarm attempt has failed. It carries
// the outcome of the last attempt: either an HTTP status and body, or the
// transport error.
type PrewarmError struct {
	URL        string
	Attempts   int
	StatusCode int
	Body       string
	Err        error
}

func (e *PrewarmError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("could not make a prewarm call: %v", e.Err)
	}
	return fmt.Sprintf("could not make a prewarm call: %d %s", e.StatusCode, e.Body)
}

func (e *PrewarmError) Unwrap() error {
	return e.Err
}

// IsPrewarmError checks if an error is or wraps a PrewarmError.
func IsPrewarmError(err error) bool {
	var pErr *PrewarmError
	return errors.As(err, &pErr)
}
