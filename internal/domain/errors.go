package domain

import (
	"errors"
	"net/http"
)

// HTTPError is implemented by domain errors that map to an HTTP status code,
// so the handler layer can translate them without a type switch per error.
type HTTPError interface {
	error
	StatusCode() int
}

type (
	// NotFoundError indicates a document or child row was not found.
	NotFoundError struct {
		Message string
	}

	// ValidationError indicates invalid input rejected before any write.
	ValidationError struct {
		Message string
	}

	// ConflictError indicates a uniqueness conflict (e.g. display ID taken).
	ConflictError struct {
		Message string
	}

	// StaleWriteError indicates an edit based on outdated client state: the
	// document was modified after the caller last observed it. Recoverable by
	// re-fetching and retrying.
	StaleWriteError struct {
		Message string
	}

	// SequenceGenerationError indicates display-ID allocation failed after
	// exhausting the bounded fallback retries.
	SequenceGenerationError struct {
		Message string
	}

	// ReconciliationIntegrityError indicates a malformed incoming child list
	// (duplicate ids within one request), rejected before any write.
	ReconciliationIntegrityError struct {
		Message string
	}
)

func (e *NotFoundError) Error() string                { return e.Message }
func (e *ValidationError) Error() string              { return e.Message }
func (e *ConflictError) Error() string                { return e.Message }
func (e *StaleWriteError) Error() string              { return e.Message }
func (e *SequenceGenerationError) Error() string      { return e.Message }
func (e *ReconciliationIntegrityError) Error() string { return e.Message }

func (e *NotFoundError) StatusCode() int                { return http.StatusNotFound }
func (e *ValidationError) StatusCode() int              { return http.StatusBadRequest }
func (e *ConflictError) StatusCode() int                { return http.StatusConflict }
func (e *StaleWriteError) StatusCode() int              { return http.StatusConflict }
func (e *SequenceGenerationError) StatusCode() int      { return http.StatusInternalServerError }
func (e *ReconciliationIntegrityError) StatusCode() int { return http.StatusUnprocessableEntity }

// Sentinel errors for errors.Is matching across layers.
var (
	ErrNotFound      = errors.New("not found")
	ErrConflict      = errors.New("already exists")
	ErrValidation    = errors.New("validation failed")
	ErrStaleWrite    = errors.New("stale write")
	ErrSequenceError = errors.New("sequence generation failed")
	ErrIntegrity     = errors.New("reconciliation integrity violation")
)

func (e *NotFoundError) Is(target error) bool   { return target == ErrNotFound }
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }
func (e *ConflictError) Is(target error) bool   { return target == ErrConflict }
func (e *StaleWriteError) Is(target error) bool { return target == ErrStaleWrite }
func (e *SequenceGenerationError) Is(target error) bool {
	return target == ErrSequenceError
}
func (e *ReconciliationIntegrityError) Is(target error) bool {
	return target == ErrIntegrity
}

// NewStaleWriteError builds the conflict signal surfaced to API callers.
func NewStaleWriteError() *StaleWriteError {
	return &StaleWriteError{Message: "document was modified by another user, refresh and retry"}
}
