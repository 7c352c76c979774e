// Package shared contains the error taxonomy used across all domain packages.
// This package has zero external dependencies.
package shared

import (
	"errors"
	"fmt"
)

// Base domain errors that can be used for error checking with errors.Is().
var (
	// Entity errors
	ErrNotFound = errors.New("entity not found")

	// Validation errors
	ErrValidation      = errors.New("validation error")
	ErrInvalidInput    = errors.New("invalid input")
	ErrValueOutOfRange = errors.New("value out of range")

	// Authorization errors
	ErrUnauthorized = errors.New("unauthorized")

	// Backing store errors
	ErrStoreFailure       = errors.New("store failure")
	ErrServiceUnavailable = errors.New("service unavailable")
	ErrTimeout            = errors.New("operation timeout")
)

// DomainError represents a domain-specific error with context.
type DomainError struct {
	Domain  string // e.g., "leaderboard", "profile", "social"
	Op      string // Operation that failed, e.g., "ParseMetric", "Aggregate"
	Kind    error  // Base error type for errors.Is() checking
	Message string // Human-readable message
	Value   string // Offending input value, if any
	Err     error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	msg := e.Message
	if e.Value != "" {
		msg = fmt.Sprintf("%s %q", e.Message, e.Value)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s.%s: %s: %v", e.Domain, e.Op, msg, e.Err)
	}
	return fmt.Sprintf("%s.%s: %s", e.Domain, e.Op, msg)
}

// Unwrap returns the underlying error for errors.Unwrap().
func (e *DomainError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return e.Kind
}

// Is implements errors.Is() matching.
func (e *DomainError) Is(target error) bool {
	if t, ok := target.(*DomainError); ok {
		return e.Domain == t.Domain && e.Op == t.Op && e.Message == t.Message
	}
	if e.Kind != nil && errors.Is(e.Kind, target) {
		return true
	}
	if e.Err != nil && errors.Is(e.Err, target) {
		return true
	}
	return false
}

// WithValue returns a copy of the error carrying the offending input value.
func (e *DomainError) WithValue(value string) *DomainError {
	cp := *e
	cp.Value = value
	return &cp
}

// NewDomainError creates a new domain error.
func NewDomainError(domain, op string, kind error, message string) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
	}
}

// WrapError wraps an existing error with domain context.
func WrapError(domain, op string, kind error, message string, err error) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// StoreFailure wraps a backing-store error. A nil err yields nil.
func StoreFailure(domain, op string, err error) error {
	if err == nil {
		return nil
	}
	var de *DomainError
	if errors.As(err, &de) && errors.Is(de.Kind, ErrStoreFailure) {
		return err
	}
	return WrapError(domain, op, ErrStoreFailure, "store query failed", err)
}

// IsInvalidInput reports whether err is a caller mistake (4xx).
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidInput) || errors.Is(err, ErrValidation)
}

// IsUnauthorized reports whether err means the caller has no identity.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

// IsStoreFailure reports whether err originated in a backing store.
func IsStoreFailure(err error) bool {
	return errors.Is(err, ErrStoreFailure)
}

// Leaderboard domain errors
var (
	ErrUnknownMetric = NewDomainError("leaderboard", "ParseMetric", ErrInvalidInput, "unknown metric")
	ErrUnknownPeriod = NewDomainError("leaderboard", "ParsePeriod", ErrInvalidInput, "unknown period")
	ErrUnknownScope  = NewDomainError("leaderboard", "ParseScope", ErrInvalidInput, "unknown scope")
	ErrInvalidLimit  = NewDomainError("leaderboard", "Validate", ErrInvalidInput, "invalid limit")
	ErrNoCaller      = NewDomainError("leaderboard", "Validate", ErrUnauthorized, "caller identity is required")
)

// Profile domain errors
var (
	ErrProfileNotFound = NewDomainError("profile", "Find", ErrNotFound, "profile not found")
	ErrInvalidLevel    = NewDomainError("profile", "Validate", ErrValueOutOfRange, "level must be at least 1")
	ErrInvalidXP       = NewDomainError("profile", "Validate", ErrValueOutOfRange, "xp must be within 0..99")
)
