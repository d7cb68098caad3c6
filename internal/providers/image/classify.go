package image

import (
	"context"
	"errors"
	"strings"

	"assetforge/internal/domain"
)

// statusKind maps an upstream HTTP status to the shared taxonomy. The
// message is consulted only to separate account-verification rejections
// from plain credential failures.
func statusKind(status int, message string) domain.ErrKind {
	lowered := strings.ToLower(message)
	switch {
	case status == 401:
		return domain.ErrMissingCredentials
	case status == 403:
		if strings.Contains(lowered, "verif") {
			return domain.ErrVerificationNeeded
		}
		return domain.ErrMissingCredentials
	case status == 404:
		return domain.ErrNotFound
	case status == 413:
		return domain.ErrPayloadTooLarge
	case status == 429:
		return domain.ErrRateLimited
	case status >= 500:
		return domain.ErrUpstream
	case status >= 400:
		return domain.ErrInvalidRequest
	default:
		return domain.ErrUpstream
	}
}

// classify converts any adapter-level error into a taxonomy error for the
// named provider. Errors that already carry a kind pass through unchanged.
func classify(provider string, err error, missingKey error, status func(error) (int, string, bool)) error {
	if err == nil {
		return nil
	}
	var tagged *domain.Error
	if errors.As(err, &tagged) {
		return err
	}
	if missingKey != nil && errors.Is(err, missingKey) {
		return domain.WrapError(domain.ErrMissingCredentials, provider, err)
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return domain.WrapError(domain.ErrUpstream, provider, err)
	}
	if status != nil {
		if code, message, ok := status(err); ok {
			return domain.WrapError(statusKind(code, message), provider, err)
		}
	}
	lowered := strings.ToLower(err.Error())
	if strings.Contains(lowered, "decode") || strings.Contains(lowered, "empty") {
		return domain.WrapError(domain.ErrInvalidResponse, provider, err)
	}
	return domain.WrapError(domain.ErrUpstream, provider, err)
}
