package domain

import (
	"errors"
	"fmt"
)

// ErrFormNotFound is returned when a form id does not resolve.
var ErrFormNotFound = errors.New("form not found")

// ErrFormNotPublished is returned when respondents try to reach a draft form.
var ErrFormNotPublished = errors.New("form not published")

// ErrSubmissionNotFound is returned when a session has no submission in the store.
var ErrSubmissionNotFound = errors.New("submission not found")

// ErrSubmissionExists is returned by Create when the session already has a submission.
var ErrSubmissionExists = errors.New("submission already exists")

// ErrStepNotFound is returned when an answered step id is not part of the form.
var ErrStepNotFound = errors.New("step not found")

// ErrSessionCompleted is returned when answering a session that can no longer advance.
var ErrSessionCompleted = errors.New("session already completed")

// StepMismatchError reports a replay answer whose replay node does not point at the answered step.
type StepMismatchError struct {
	ReplayStepID string
	StepID       string
}

func (e *StepMismatchError) Error() string {
	return fmt.Sprintf("replay step '%s' does not replay step '%s'", e.ReplayStepID, e.StepID)
}

// ErrInvalidRequest is returned for requests missing required fields.
var ErrInvalidRequest = errors.New("invalid request")

// ErrSessionFormMismatch is returned when a session is used with a form other than the one it started on.
var ErrSessionFormMismatch = errors.New("session belongs to another form")
