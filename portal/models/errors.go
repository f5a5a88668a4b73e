package models

import (
	"errors"
	"fmt"
)

var (
	ErrNoExtensionFound  = errors.New("no wallet extension found")
	ErrExtensionNotFound = errors.New("wallet extension not found")
	ErrPermissionDenied  = errors.New("wallet extension permission denied")
	ErrNoAccountsFound   = errors.New("no accounts found in wallet extension")
	ErrNoAccountSelected = errors.New("no account selected, connect wallet first")
	ErrMissingCurrency   = errors.New("currency is required")
	ErrBusy              = errors.New("a transfer is already being submitted")
	ErrSubmission        = errors.New("transfer submission failed")
)

// SubmissionError wraps whatever made a transfer fail after it left the form:
// builder rejection, signature refusal, node rejection.
type SubmissionError struct {
	Stage string // build, sign or submit
	Cause error
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("transfer submission failed at %s: %v", e.Stage, e.Cause)
}

func (e *SubmissionError) Unwrap() error {
	return e.Cause
}

// Is lets errors.Is(err, ErrSubmission) match any SubmissionError.
func (e *SubmissionError) Is(target error) bool {
	return target == ErrSubmission
}

// NewSubmissionError wraps cause for the given stage.
func NewSubmissionError(stage string, cause error) *SubmissionError {
	return &SubmissionError{Stage: stage, Cause: cause}
}
