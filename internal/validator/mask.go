package validator

import (
	"github.com/aretw0/formflow/internal/runtime"
	"github.com/aretw0/formflow/pkg/domain"
)

// CheckMask reports an error for every masked variable the flow reads back
// after it was stored. A masked value is persisted as a placeholder, so a
// later request would branch, render or infer a phone country from the
// placeholder instead of the answer.
func CheckMask(form *domain.Form, masked func(name string) bool) Report {
	r := Report{FormID: form.ID}
	if masked == nil {
		return r
	}

	flag := func(stepID, name, use string) {
		if name != "" && masked(name) {
			r.add(SeverityError, stepID, "masked variable '%s' is read by %s", name, use)
		}
	}

	sniffsCountry := false
	for i := range form.Steps {
		content := runtime.ResolveReplay(&form.Steps[i], form.Steps).Content
		if content.Input.DataType == domain.DataPhone && content.Input.CountryCode == "" {
			sniffsCountry = true
		}
	}

	for i := range form.Steps {
		step := &form.Steps[i]
		if c := step.ConditionalLogic; c != nil {
			for _, name := range conditionVars(c.ShowIf) {
				flag(step.ID, name, "showIf")
			}
		}
		if o := step.NextStepOverride; o != nil {
			for _, rule := range o.Rules {
				for _, name := range conditionVars(rule.Conditions) {
					flag(step.ID, name, "a branching rule")
				}
			}
		}
		content := runtime.ResolveReplay(step, form.Steps).Content
		for _, name := range displayVars(content) {
			flag(step.ID, name, "a placeholder")
		}
		if sniffsCountry && content.Input.DataType == domain.DataCountryCode {
			flag(step.ID, content.CollectsVariable(), "the phone country lookup")
		}
	}
	for _, name := range runtime.ExtractVariables(form.Settings.CompletionMessage) {
		flag("", name, "the completion message")
	}
	return r
}
