package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrKind classifies pipeline failures. Adapters translate raw transport
// errors into one of these at the boundary; only the terminal kinds
// (validation_error, providers_exhausted, upload_failed) reach callers.
type ErrKind string

const (
	ErrValidation         ErrKind = "validation_error"
	ErrMissingCredentials ErrKind = "missing_credentials"
	ErrVerificationNeeded ErrKind = "verification_required"
	ErrInvalidRequest     ErrKind = "invalid_request"
	ErrRateLimited        ErrKind = "rate_limited"
	ErrUpstream           ErrKind = "upstream_error"
	ErrInvalidResponse    ErrKind = "invalid_response"
	ErrPayloadTooLarge    ErrKind = "payload_too_large"
	ErrNotFound           ErrKind = "not_found"
	ErrProvidersExhausted ErrKind = "providers_exhausted"
	ErrUploadFailed       ErrKind = "upload_failed"
)

// Error is the shared taxonomy error. Attempts is populated only for
// providers_exhausted, carrying one entry per provider tried.
type Error struct {
	Kind     ErrKind
	Provider string
	Message  string
	Attempts []ProviderAttempt
	Err      error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Kind))
	if e.Provider != "" {
		b.WriteString(" [" + e.Provider + "]")
	}
	if e.Message != "" {
		b.WriteString(": " + e.Message)
	}
	if e.Err != nil {
		b.WriteString(": " + e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError builds a taxonomy error with a formatted message.
func NewError(kind ErrKind, provider, format string, args ...any) *Error {
	return &Error{Kind: kind, Provider: provider, Message: fmt.Sprintf(format, args...)}
}

// WrapError attaches a taxonomy kind to an underlying cause.
func WrapError(kind ErrKind, provider string, err error) *Error {
	return &Error{Kind: kind, Provider: provider, Err: err}
}

// KindOf extracts the taxonomy kind from err, or empty when err carries none.
func KindOf(err error) ErrKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsKind reports whether err carries the given taxonomy kind.
func IsKind(err error, kind ErrKind) bool {
	return KindOf(err) == kind
}
