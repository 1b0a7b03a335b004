package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventSubmissionStart    EventType = "submission_start"
	EventAnswerAccepted     EventType = "answer_accepted"
	EventAnswerRejected     EventType = "answer_rejected"
	EventSubmissionComplete EventType = "submission_complete"
	EventSubmissionAbandon  EventType = "submission_abandon"
	EventActionResult       EventType = "action_result"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	FormID    string    `json:"form_id"`
	SessionID string    `json:"session_id"`
}

// SubmissionEvent reports a lifecycle transition.
type SubmissionEvent struct {
	EventBase
	SubmissionID string `json:"submission_id"`
}

// AnswerEvent reports an accepted or rejected answer.
type AnswerEvent struct {
	EventBase
	StepID   string   `json:"step_id"`
	DataType DataType `json:"data_type,omitempty"`
	Error    string   `json:"error,omitempty"`
}

// ActionEvent reports the outcome of one post-completion action.
type ActionEvent struct {
	EventBase
	SubmissionID string        `json:"submission_id"`
	ActionType   ActionType    `json:"action_type"`
	Duration     time.Duration `json:"duration"`
	IsError      bool          `json:"is_error,omitempty"`
	Error        string        `json:"error,omitempty"`
}

// LifecycleHooks defines callbacks for engine observability.
// Any hook may be nil.
type LifecycleHooks struct {
	OnSubmissionStart    func(context.Context, *SubmissionEvent)
	OnAnswerAccepted     func(context.Context, *AnswerEvent)
	OnAnswerRejected     func(context.Context, *AnswerEvent)
	OnSubmissionComplete func(context.Context, *SubmissionEvent)
	OnSubmissionAbandon  func(context.Context, *SubmissionEvent)
	OnActionResult       func(context.Context, *ActionEvent)
}
