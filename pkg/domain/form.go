package domain

// FormStatus controls whether respondents can reach a form.
type FormStatus string

const (
	FormDraft     FormStatus = "draft"
	FormPublished FormStatus = "published"
)

// Form is an authored questionnaire: an ordered step list plus completion actions.
type Form struct {
	ID          string         `json:"id" yaml:"id"`
	PublicID    string         `json:"publicId,omitempty" yaml:"publicId,omitempty"`
	Name        string         `json:"name" yaml:"name"`
	Description string         `json:"description,omitempty" yaml:"description,omitempty"`
	Status      FormStatus     `json:"status,omitempty" yaml:"status,omitempty" jsonschema:"enum=draft,enum=published"`
	Steps       []Step         `json:"steps" yaml:"steps" jsonschema:"required"`
	Actions     []ActionConfig `json:"actions,omitempty" yaml:"actions,omitempty"`
	Settings    FormSettings   `json:"settings,omitempty" yaml:"settings,omitempty"`
}

// FormSettings holds respondent-facing presentation options.
type FormSettings struct {
	CompletionMessage string `json:"completionMessage,omitempty" yaml:"completionMessage,omitempty"`
}

// Key returns the identifier respondents use to reach the form.
func (f *Form) Key() string {
	if f.PublicID != "" {
		return f.PublicID
	}
	return f.ID
}

// IsPublished reports whether respondents may start the form.
// Forms without an explicit status are treated as published.
func (f *Form) IsPublished() bool {
	return f.Status == "" || f.Status == FormPublished
}

// StepByID returns a pointer into Steps, or nil when id does not resolve.
func (f *Form) StepByID(id string) *Step {
	for i := range f.Steps {
		if f.Steps[i].ID == id {
			return &f.Steps[i]
		}
	}
	return nil
}

// Counter names one of the per-form totals.
type Counter string

const (
	CounterViews       Counter = "views"
	CounterStarts      Counter = "starts"
	CounterCompletions Counter = "completions"
)

// Counters are the per-form totals mutated by lifecycle commands.
type Counters struct {
	Views       int64 `json:"views"`
	Starts      int64 `json:"starts"`
	Completions int64 `json:"completions"`
}

// CompletionRate is completions / starts, or 0 before the first start.
func (c Counters) CompletionRate() float64 {
	if c.Starts == 0 {
		return 0
	}
	return float64(c.Completions) / float64(c.Starts)
}

// Add returns a copy with delta applied to the named counter.
func (c Counters) Add(counter Counter, delta int64) Counters {
	switch counter {
	case CounterViews:
		c.Views += delta
	case CounterStarts:
		c.Starts += delta
	case CounterCompletions:
		c.Completions += delta
	}
	return c
}
