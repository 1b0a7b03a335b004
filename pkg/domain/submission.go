package domain

import "time"

// SubmissionStatus is the lifecycle state of a submission.
type SubmissionStatus string

const (
	StatusInProgress SubmissionStatus = "in-progress"
	StatusCompleted  SubmissionStatus = "completed"
	StatusAbandoned  SubmissionStatus = "abandoned"
)

// Submission is one respondent's run through a form.
// It does not exist until the first answer is accepted.
type Submission struct {
	ID        string           `json:"id"`
	FormID    string           `json:"formId"`
	SessionID string           `json:"sessionId"`
	Status    SubmissionStatus `json:"status" jsonschema:"enum=in-progress,enum=completed,enum=abandoned"`

	// Data maps variable names to the last written value.
	Data map[string]any `json:"data"`
	// DataOrder records first-insertion order of Data keys for export.
	DataOrder []string `json:"dataOrder,omitempty"`

	StepHistory []HistoryEntry     `json:"stepHistory"`
	Metadata    SubmissionMetadata `json:"metadata"`
}

// HistoryEntry is one accepted answer. Entries are append-only.
// StepID is the step the answer belongs to; for replays ReplayStepID holds the
// node the respondent was actually on.
type HistoryEntry struct {
	StepID       string    `json:"stepId"`
	ReplayStepID string    `json:"replayStepId,omitempty"`
	AnsweredAt   time.Time `json:"answeredAt"`
	Answer       any       `json:"answer"`
	VariableName string    `json:"variableName,omitempty"`
}

// Position returns the navigation node of the entry.
func (h HistoryEntry) Position() string {
	if h.ReplayStepID != "" {
		return h.ReplayStepID
	}
	return h.StepID
}

type SubmissionMetadata struct {
	StartedAt      time.Time  `json:"startedAt"`
	CompletedAt    *time.Time `json:"completedAt,omitempty"`
	LastActivityAt time.Time  `json:"lastActivityAt"`
	// Conversions lists step ids whose conversion event fired, without duplicates.
	Conversions []string `json:"conversions,omitempty"`
	// TimeSpentPerStep accumulates milliseconds per step id across repeats.
	TimeSpentPerStep map[string]int64 `json:"timeSpentPerStep,omitempty"`
}

// IsTerminal reports whether the submission can no longer be advanced.
func (s *Submission) IsTerminal() bool {
	return s.Status == StatusCompleted || s.Status == StatusAbandoned
}

// Value returns the collected value for name.
// Nil values count as absent.
func (s *Submission) Value(name string) (any, bool) {
	v, ok := s.Data[name]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

// OrderedData returns the collected variables in first-insertion order.
func (s *Submission) OrderedData() []KeyValue {
	out := make([]KeyValue, 0, len(s.Data))
	seen := make(map[string]bool, len(s.Data))
	for _, k := range s.DataOrder {
		if v, ok := s.Data[k]; ok && !seen[k] {
			out = append(out, KeyValue{Key: k, Value: v})
			seen[k] = true
		}
	}
	return out
}

// LastPosition returns the navigation node of the newest history entry, or "".
func (s *Submission) LastPosition() string {
	if len(s.StepHistory) == 0 {
		return ""
	}
	return s.StepHistory[len(s.StepHistory)-1].Position()
}

// Clone returns a deep enough copy for safe mutation by the lifecycle.
func (s *Submission) Clone() *Submission {
	if s == nil {
		return nil
	}
	next := *s
	next.Data = make(map[string]any, len(s.Data))
	for k, v := range s.Data {
		next.Data[k] = v
	}
	next.DataOrder = append([]string(nil), s.DataOrder...)
	next.StepHistory = append([]HistoryEntry(nil), s.StepHistory...)
	next.Metadata.Conversions = append([]string(nil), s.Metadata.Conversions...)
	next.Metadata.TimeSpentPerStep = make(map[string]int64, len(s.Metadata.TimeSpentPerStep))
	for k, v := range s.Metadata.TimeSpentPerStep {
		next.Metadata.TimeSpentPerStep[k] = v
	}
	if s.Metadata.CompletedAt != nil {
		t := *s.Metadata.CompletedAt
		next.Metadata.CompletedAt = &t
	}
	return &next
}

// KeyValue is an ordered export pair.
type KeyValue struct {
	Key   string `json:"key"`
	Value any    `json:"value"`
}
