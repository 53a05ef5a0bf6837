// Package apperrors defines the error taxonomy surfaced to the dashboard.
// Every failure reaches the initiating UI action as one user-visible message;
// nothing is retried automatically and no error is process-fatal.
package apperrors

import (
	"errors"
	"fmt"
)

// Auth failures.
var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrDuplicateEmail     = errors.New("This email is already registered. Please log in instead.")
	ErrProfileMissing     = errors.New("user profile not found for authenticated account")
)

// ProfileCreationError reports that the identity account was created but the
// profile row insert failed afterwards.
type ProfileCreationError struct {
	Email string
	Err   error
}

func (e *ProfileCreationError) Error() string {
	return fmt.Sprintf("account created but profile setup failed for %s: %v", e.Email, e.Err)
}

func (e *ProfileCreationError) Unwrap() error { return e.Err }

// PersistenceError wraps any store read/write failure. The backend's raw
// message passes through untouched.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// PartialSubmissionError reports a submission whose later write failed after
// an earlier one succeeded. When Compensated is false an orphaned record may
// remain in the store.
type PartialSubmissionError struct {
	RequestID   string
	Step        string
	Compensated bool
	Err         error
}

func (e *PartialSubmissionError) Error() string {
	return fmt.Sprintf("submission of request %s failed at %s: %v", e.RequestID, e.Step, e.Err)
}

func (e *PartialSubmissionError) Unwrap() error { return e.Err }
