package domain

// StepType defines how the engine treats a step during traversal.
type StepType string

const (
	// StepQuestion displays content and waits for an answer.
	StepQuestion StepType = "question"
	// StepMessage displays content with a "Continue" affordance.
	StepMessage StepType = "message"
	// StepReplay borrows the display and input of ReplayTarget.
	StepReplay StepType = "replay"
	// StepEnd is a closing node. It is displayed like a message.
	StepEnd StepType = "end"
)

// InputType is the kind of answer a step accepts.
type InputType string

const (
	InputNone   InputType = "none"
	InputChoice InputType = "choice"
	InputText   InputType = "text"
)

// DataType selects the validation and formatting behaviour of a text input.
type DataType string

const (
	DataName        DataType = "name"
	DataEmail       DataType = "email"
	DataPhone       DataType = "phone"
	DataNumber      DataType = "number"
	DataCountryCode DataType = "country-code"
	DataText        DataType = "text"
)

// Step represents a single node in the form graph.
type Step struct {
	// ID is opaque and stable. Branching rules and replay pointers reference it.
	ID string `json:"id" yaml:"id" jsonschema:"required"`
	// Order is advisory only; traversal follows the list position.
	Order int      `json:"order" yaml:"order"`
	Type  StepType `json:"type,omitempty" yaml:"type,omitempty" jsonschema:"enum=question,enum=message,enum=replay,enum=end"`

	Display Display `json:"display" yaml:"display"`
	Input   Input   `json:"input" yaml:"input"`

	Collect          *Collect          `json:"collect,omitempty" yaml:"collect,omitempty"`
	ConditionalLogic *ConditionalLogic `json:"conditionalLogic,omitempty" yaml:"conditionalLogic,omitempty"`
	NextStepOverride *NextStepOverride `json:"nextStepOverride,omitempty" yaml:"nextStepOverride,omitempty"`

	// ReplayTarget points at the step whose content this replay node re-asks.
	ReplayTarget string `json:"replayTarget,omitempty" yaml:"replayTarget,omitempty"`

	Tracking *Tracking `json:"tracking,omitempty" yaml:"tracking,omitempty"`
}

// Display holds everything rendered for a step.
// Messages may contain {variable} placeholders; media and links are verbatim.
type Display struct {
	Messages []string `json:"messages" yaml:"messages"`
	Media    []Media  `json:"media,omitempty" yaml:"media,omitempty"`
	Links    []Link   `json:"links,omitempty" yaml:"links,omitempty"`
}

type Media struct {
	Type string `json:"type" yaml:"type"` // image, video, ...
	URL  string `json:"url" yaml:"url"`
	Alt  string `json:"alt,omitempty" yaml:"alt,omitempty"`
}

type Link struct {
	Label string `json:"label" yaml:"label"`
	URL   string `json:"url" yaml:"url"`
}

// Input describes the answer a step expects.
type Input struct {
	Type        InputType `json:"type" yaml:"type" jsonschema:"enum=none,enum=choice,enum=text"`
	Options     []Option  `json:"options,omitempty" yaml:"options,omitempty"`
	DataType    DataType  `json:"dataType,omitempty" yaml:"dataType,omitempty"`
	CountryCode string    `json:"countryCode,omitempty" yaml:"countryCode,omitempty"`
	Placeholder string    `json:"placeholder,omitempty" yaml:"placeholder,omitempty"`
}

// Option is one labeled choice. Value is stored when the option is picked.
type Option struct {
	Label string `json:"label" yaml:"label"`
	Value any    `json:"value" yaml:"value"`
}

// Collect stores the step's answer under VariableName when Enabled.
type Collect struct {
	Enabled      bool   `json:"enabled" yaml:"enabled"`
	VariableName string `json:"variableName" yaml:"variableName"`
}

// Tracking marks a step's completion as a conversion event.
type Tracking struct {
	ConversionEvent string `json:"conversionEvent,omitempty" yaml:"conversionEvent,omitempty"`
}

// ConditionalLogic governs visibility during forward scanning.
type ConditionalLogic struct {
	ShowIf   []Condition   `json:"showIf" yaml:"showIf"`
	Operator LogicOperator `json:"operator" yaml:"operator" jsonschema:"enum=AND,enum=OR"`
}

// NextStepOverride governs branching away from sequential order.
type NextStepOverride struct {
	Rules   []BranchRule `json:"rules,omitempty" yaml:"rules,omitempty"`
	Default string       `json:"default,omitempty" yaml:"default,omitempty"`
}

// BranchRule jumps to TargetStepID when its conditions hold.
type BranchRule struct {
	Conditions   []Condition   `json:"conditions" yaml:"conditions"`
	Operator     LogicOperator `json:"operator" yaml:"operator" jsonschema:"enum=AND,enum=OR"`
	TargetStepID string        `json:"targetStepId" yaml:"targetStepId" jsonschema:"required"`
}

// IsReplay reports whether the step is a replay pointer.
func (s *Step) IsReplay() bool {
	return s.Type == StepReplay && s.ReplayTarget != ""
}

// CollectsVariable returns the variable name the step writes, or "".
func (s *Step) CollectsVariable() string {
	if s.Collect == nil || !s.Collect.Enabled {
		return ""
	}
	return s.Collect.VariableName
}

// ConversionEvent returns the tracking label, or "".
func (s *Step) ConversionEvent() string {
	if s.Tracking == nil {
		return ""
	}
	return s.Tracking.ConversionEvent
}

// RequiresAnswer reports whether the step waits for respondent input other than "Continue".
func (s *Step) RequiresAnswer() bool {
	return s.Input.Type == InputChoice || s.Input.Type == InputText
}
