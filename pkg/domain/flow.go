package domain

import "time"

// StartResult is returned when a respondent opens or resumes a session.
type StartResult struct {
	SessionID  string           `json:"sessionId"`
	Step       *StepView        `json:"step,omitempty"`
	Data       map[string]any   `json:"data"`
	Status     SubmissionStatus `json:"status,omitempty"`
	IsComplete bool             `json:"isComplete"`
	// Message is the completion message for finished sessions.
	Message string `json:"message,omitempty"`
}

// SubmitRequest is one answer sent by a respondent.
//
// StepID is the step being answered. When answering a replay node the caller
// may send either the replay node's id as StepID, or the target id as StepID
// with the replay node in ReplayStepID.
type SubmitRequest struct {
	FormID       string        `json:"formId"`
	SessionID    string        `json:"sessionId"`
	StepID       string        `json:"stepId"`
	Answer       any           `json:"answer"`
	ReplayStepID string        `json:"replayStepId,omitempty"`
	TimeSpent    time.Duration `json:"-"`
}

// SubmitResult is the outcome of SubmitAnswer.
// When Accepted is false, ValidationError holds the message and NextStep is
// the same step presented again.
type SubmitResult struct {
	Accepted        bool           `json:"accepted"`
	ValidationError string         `json:"validationError,omitempty"`
	IsComplete      bool           `json:"isComplete"`
	NextStep        *StepView      `json:"nextStep,omitempty"`
	Data            map[string]any `json:"data,omitempty"`
	Message         string         `json:"message,omitempty"`
}
