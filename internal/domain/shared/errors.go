package shared

import (
	"errors"
	"fmt"
)

// DomainError is the base error type for all domain errors
type DomainError struct {
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

func NewDomainError(message string) *DomainError {
	return &DomainError{Message: message}
}

// Job lifecycle errors
//
// The taxonomy mirrors how failures propagate: only RejectedStart is ever
// user-visible; stale jobs clean up silently; transient failures retry.

// RejectedStartError indicates a start that must not be retried: duplicate
// submission, already-owned target, or a server refusal.
type RejectedStartError struct {
	*DomainError
	TargetID string
}

func NewRejectedStartError(targetID, message string) *RejectedStartError {
	return &RejectedStartError{
		DomainError: &DomainError{Message: fmt.Sprintf("start rejected for %s: %s", targetID, message)},
		TargetID:    targetID,
	}
}

// StaleJobError indicates the server no longer recognizes a job (already
// completed or never existed). Callers treat it as success-with-cleanup.
// Yield carries any resource amounts the server still reported.
type StaleJobError struct {
	*DomainError
	TargetID string
	JobID    string
	Yield    map[string]float64
}

func NewStaleJobError(targetID, jobID string, yield map[string]float64) *StaleJobError {
	return &StaleJobError{
		DomainError: &DomainError{Message: fmt.Sprintf("job %s for %s is not running server-side", jobID, targetID)},
		TargetID:    targetID,
		JobID:       jobID,
		Yield:       yield,
	}
}

// NotFinishedYetError indicates the server considers a job still running
// (clock skew between client and server). The job is retried after a short
// delay, never deleted.
type NotFinishedYetError struct {
	*DomainError
	TargetID string
	JobID    string
}

func NewNotFinishedYetError(targetID, jobID string) *NotFinishedYetError {
	return &NotFinishedYetError{
		DomainError: &DomainError{Message: fmt.Sprintf("job %s for %s is not finished yet server-side", jobID, targetID)},
		TargetID:    targetID,
		JobID:       jobID,
	}
}

// MalformedJobError indicates a persisted job record failed shape validation
// on load (a "ghost job"). Discarded silently, never surfaced.
type MalformedJobError struct {
	*DomainError
	TargetID string
}

func NewMalformedJobError(targetID, message string) *MalformedJobError {
	return &MalformedJobError{
		DomainError: &DomainError{Message: fmt.Sprintf("malformed persisted job for %s: %s", targetID, message)},
		TargetID:    targetID,
	}
}

// ValidationError reports a field-level validation failure
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// Error predicates used at reconciliation call sites

func IsStaleJob(err error) bool {
	var stale *StaleJobError
	return errors.As(err, &stale)
}

func IsNotFinishedYet(err error) bool {
	var nfy *NotFinishedYetError
	return errors.As(err, &nfy)
}

func IsRejectedStart(err error) bool {
	var rejected *RejectedStartError
	return errors.As(err, &rejected)
}
