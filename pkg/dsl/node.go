package dsl

import "github.com/aretw0/formflow/pkg/domain"

// StepBuilder provides a fluent API for configuring a step.
type StepBuilder struct {
	step domain.Step
}

// Text makes the step accept free text validated as dataType.
func (s *StepBuilder) Text(dataType domain.DataType) *StepBuilder {
	s.step.Input.Type = domain.InputText
	s.step.Input.DataType = dataType
	return s
}

// Phone accepts a phone number using countryCode as the default prefix.
func (s *StepBuilder) Phone(countryCode string) *StepBuilder {
	s.Text(domain.DataPhone)
	s.step.Input.CountryCode = countryCode
	return s
}

// Placeholder sets the input hint.
func (s *StepBuilder) Placeholder(text string) *StepBuilder {
	s.step.Input.Placeholder = text
	return s
}

// Options turns the step into a choice whose values equal the labels.
func (s *StepBuilder) Options(labels ...string) *StepBuilder {
	opts := make([]domain.Option, len(labels))
	for i, l := range labels {
		opts[i] = domain.Option{Label: l, Value: l}
	}
	return s.Choice(opts...)
}

// Choice turns the step into a choice between opts.
func (s *StepBuilder) Choice(opts ...domain.Option) *StepBuilder {
	s.step.Input.Type = domain.InputChoice
	s.step.Input.Options = append(s.step.Input.Options, opts...)
	return s
}

// SaveTo specifies the variable the answer is collected into.
func (s *StepBuilder) SaveTo(variable string) *StepBuilder {
	s.step.Collect = &domain.Collect{Enabled: true, VariableName: variable}
	return s
}

// ShowIf shows the step only when every condition holds.
func (s *StepBuilder) ShowIf(conds ...domain.Condition) *StepBuilder {
	s.step.ConditionalLogic = &domain.ConditionalLogic{ShowIf: conds, Operator: domain.LogicAnd}
	return s
}

// ShowIfAny shows the step when at least one condition holds.
func (s *StepBuilder) ShowIfAny(conds ...domain.Condition) *StepBuilder {
	s.step.ConditionalLogic = &domain.ConditionalLogic{ShowIf: conds, Operator: domain.LogicOr}
	return s
}

// When adds a branching rule to target taken when every condition holds.
// Rules are tried in the order they were added.
func (s *StepBuilder) When(target string, conds ...domain.Condition) *StepBuilder {
	return s.rule(target, domain.LogicAnd, conds)
}

// WhenAny adds a branching rule taken when at least one condition holds.
func (s *StepBuilder) WhenAny(target string, conds ...domain.Condition) *StepBuilder {
	return s.rule(target, domain.LogicOr, conds)
}

func (s *StepBuilder) rule(target string, op domain.LogicOperator, conds []domain.Condition) *StepBuilder {
	o := s.override()
	o.Rules = append(o.Rules, domain.BranchRule{Conditions: conds, Operator: op, TargetStepID: target})
	return s
}

// Otherwise sets the jump taken when no rule matches.
func (s *StepBuilder) Otherwise(target string) *StepBuilder {
	s.override().Default = target
	return s
}

func (s *StepBuilder) override() *domain.NextStepOverride {
	if s.step.NextStepOverride == nil {
		s.step.NextStepOverride = &domain.NextStepOverride{}
	}
	return s.step.NextStepOverride
}

// Media attaches an image or video to the step.
func (s *StepBuilder) Media(kind, url, alt string) *StepBuilder {
	s.step.Display.Media = append(s.step.Display.Media, domain.Media{Type: kind, URL: url, Alt: alt})
	return s
}

// Link attaches a link to the step.
func (s *StepBuilder) Link(label, url string) *StepBuilder {
	s.step.Display.Links = append(s.step.Display.Links, domain.Link{Label: label, URL: url})
	return s
}

// Conversion marks the step as a conversion event.
func (s *StepBuilder) Conversion(event string) *StepBuilder {
	s.step.Tracking = &domain.Tracking{ConversionEvent: event}
	return s
}

// Build returns the underlying domain.Step.
// This is primarily used by the FormBuilder, but exposed for advanced usage.
func (s *StepBuilder) Build() domain.Step {
	return s.step
}

// Eq matches when variable equals value.
func Eq(variable string, value any) domain.Condition {
	return cond(variable, domain.OpEquals, value)
}

// Ne matches when variable differs from value.
func Ne(variable string, value any) domain.Condition {
	return cond(variable, domain.OpNotEquals, value)
}

// Gt matches when variable is greater than value.
func Gt(variable string, value any) domain.Condition {
	return cond(variable, domain.OpGreaterThan, value)
}

// Gte matches when variable is greater than or equal to value.
func Gte(variable string, value any) domain.Condition {
	return cond(variable, domain.OpGreaterThanOrEqual, value)
}

// Lt matches when variable is less than value.
func Lt(variable string, value any) domain.Condition {
	return cond(variable, domain.OpLessThan, value)
}

// Lte matches when variable is less than or equal to value.
func Lte(variable string, value any) domain.Condition {
	return cond(variable, domain.OpLessThanOrEqual, value)
}

// Contains matches when variable contains value.
func Contains(variable string, value any) domain.Condition {
	return cond(variable, domain.OpContains, value)
}

// NotContains matches when variable does not contain value.
func NotContains(variable string, value any) domain.Condition {
	return cond(variable, domain.OpNotContains, value)
}

// In matches when variable is one of values.
func In(variable string, values ...any) domain.Condition {
	return cond(variable, domain.OpIn, values)
}

// NotIn matches when variable is present and none of values.
func NotIn(variable string, values ...any) domain.Condition {
	return cond(variable, domain.OpNotIn, values)
}

func cond(variable string, op domain.Operator, value any) domain.Condition {
	return domain.Condition{VariableName: variable, Operator: op, Value: value}
}
