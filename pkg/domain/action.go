package domain

import "time"

// ActionType selects the post-completion side effect.
type ActionType string

const (
	ActionEmail   ActionType = "email"
	ActionWebhook ActionType = "webhook"
	// ActionCommand runs a locally registered program. Forms can only name
	// commands the operator allow-listed.
	ActionCommand ActionType = "command"
)

// ActionConfig is an authored post-completion action.
// Config is decoded into a concrete action by the dispatcher.
type ActionConfig struct {
	ID      string         `json:"id,omitempty" yaml:"id,omitempty"`
	Type    ActionType     `json:"type" yaml:"type" jsonschema:"required,enum=email,enum=webhook,enum=command"`
	Enabled bool           `json:"enabled" yaml:"enabled"`
	Config  map[string]any `json:"config" yaml:"config"`
}

// DispatchJob is the message emitted by the completed transition.
// It carries an immutable snapshot of the submission data.
type DispatchJob struct {
	FormID       string         `json:"formId"`
	FormName     string         `json:"formName"`
	SubmissionID string         `json:"submissionId"`
	SessionID    string         `json:"sessionId"`
	Data         map[string]any `json:"data"`
	DataOrder    []string       `json:"dataOrder,omitempty"`
	SubmittedAt  time.Time      `json:"submittedAt"`
	Actions      []ActionConfig `json:"actions"`
}

// SubmittedAtText renders SubmittedAt for human-facing payloads.
func (j DispatchJob) SubmittedAtText() string {
	return j.SubmittedAt.UTC().Format("Jan 2, 2006 at 3:04 PM MST")
}
