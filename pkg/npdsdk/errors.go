package npdsdk

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ============================================================================
// Sentinel Errors
// ============================================================================

var (
	// ErrNotAuthenticated is returned when an authenticated call is attempted
	// with no usable access token and no refresh token to renew it.
	ErrNotAuthenticated = errors.New("npdsdk: not authenticated")

	// ErrIncompleteCredentials is returned by AuthInfo before the first
	// successful authentication.
	ErrIncompleteCredentials = errors.New("npdsdk: missing auth information")

	// ErrPartialCredentials is returned by New when a resumed session carries
	// an access token without a refresh token or the other way round.
	ErrPartialCredentials = errors.New("npdsdk: access and refresh tokens must be supplied together")

	// ErrAuthFailed matches every *AuthError via errors.Is.
	ErrAuthFailed = errors.New("npdsdk: authentication failed")

	// ErrSubmissionFailed matches every *SubmissionError via errors.Is.
	ErrSubmissionFailed = errors.New("npdsdk: income submission failed")

	// ErrInvalidIncome is returned when income input fails validation. Nothing
	// is sent to the service in that case.
	ErrInvalidIncome = errors.New("npdsdk: invalid income")
)

// defaultAuthFailureMessage is used when the service rejects a login without
// saying why.
const defaultAuthFailureMessage = "authentication failed"

// ============================================================================
// AuthError
// ============================================================================

// AuthError is returned when a login, SMS verification or token renewal
// response lacks the expected token fields.
type AuthError struct {
	// Op is the protocol that failed ("password", "sms", "renew", "sms-start").
	Op string

	// StatusCode is the HTTP status of the response that carried the failure.
	StatusCode int

	// Message is the server supplied message, or a generic fallback.
	Message string
}

// Error implements the error interface.
func (e *AuthError) Error() string {
	return fmt.Sprintf("%s auth: %s", e.Op, e.Message)
}

// Is reports whether target is ErrAuthFailed.
func (e *AuthError) Is(target error) bool { return target == ErrAuthFailed }

// ============================================================================
// SubmissionError
// ============================================================================

// SubmissionError is returned when the income endpoint does not issue a
// receipt. Raw holds the response body as received for diagnostics.
type SubmissionError struct {
	Raw json.RawMessage

	// Err is the underlying failure when the service answered with a non-2xx
	// status, nil when it answered 2xx without a receipt id.
	Err error
}

// Error implements the error interface.
func (e *SubmissionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("income submission failed: %v", e.Err)
	}
	return fmt.Sprintf("income submission failed: no receipt issued: %s", string(e.Raw))
}

// Is reports whether target is ErrSubmissionFailed.
func (e *SubmissionError) Is(target error) bool { return target == ErrSubmissionFailed }

// Unwrap returns the underlying HTTP failure, if any.
func (e *SubmissionError) Unwrap() error { return e.Err }

// ============================================================================
// Transport Errors
// ============================================================================

// TransportError wraps a network or JSON decoding failure unmodified.
type TransportError struct {
	Op  string
	Err error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying I/O error.
func (e *TransportError) Unwrap() error { return e.Err }

// HTTPError is returned by authenticated calls answered with a non-2xx status.
type HTTPError struct {
	StatusCode int
	Body       []byte
}

// Error implements the error interface.
func (e *HTTPError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, string(e.Body))
}
