// Package apperr defines the error taxonomy shared by the core packages.
//
// Callers classify errors with errors.Is against the sentinels below.
// NotFound, Forbidden and Validation are deterministic outcomes and must
// not be retried. Timeout marks a store operation that exceeded the
// caller's deadline; read-only operations are safe to retry.
package apperr

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a referenced user, group, signal or
	// trend does not exist.
	ErrNotFound = errors.New("not found")

	// ErrForbidden is returned when the caller fails a permission check.
	ErrForbidden = errors.New("permission denied")

	// ErrValidation is returned for unrecognized filter keys, malformed
	// facet values and out-of-range pagination.
	ErrValidation = errors.New("validation failed")

	// ErrTimeout is returned when a store operation exceeds the deadline
	// supplied through the context.
	ErrTimeout = errors.New("operation timed out")

	// ErrInternal is returned for unexpected store failures.
	ErrInternal = errors.New("internal error")
)

// NotFoundf wraps ErrNotFound with a formatted detail message.
func NotFoundf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

// Forbiddenf wraps ErrForbidden with a formatted detail message.
func Forbiddenf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrForbidden, fmt.Sprintf(format, args...))
}

// Validationf wraps ErrValidation with a formatted detail message.
func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// FromStore classifies an error coming back from the database layer.
// Context deadline and cancellation map to ErrTimeout, everything else
// that is not already part of the taxonomy maps to ErrInternal.
func FromStore(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrForbidden) ||
		errors.Is(err, ErrValidation) || errors.Is(err, ErrTimeout) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return fmt.Errorf("%w: %v", ErrInternal, err)
}
