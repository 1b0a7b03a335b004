// Package validator checks authored forms for mistakes the engine tolerates
// silently at runtime: dangling references, replay chains and variables that
// may be read before any step collects them.
package validator

import (
	"context"
	"fmt"
	"strings"

	"github.com/aretw0/formflow/pkg/domain"
	"github.com/aretw0/formflow/pkg/ports"
)

// Severity classifies an issue.
type Severity string

const (
	// SeverityError marks forms that should not be published.
	SeverityError Severity = "error"
	// SeverityWarning marks forms that run but probably not as intended.
	SeverityWarning Severity = "warning"
)

// Issue is one finding on a form.
type Issue struct {
	StepID   string   `json:"stepId,omitempty"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
}

func (i Issue) String() string {
	if i.StepID == "" {
		return fmt.Sprintf("[%s] %s", i.Severity, i.Message)
	}
	return fmt.Sprintf("[%s] step '%s': %s", i.Severity, i.StepID, i.Message)
}

// Report is the result of validating one form.
type Report struct {
	FormID string  `json:"formId"`
	Issues []Issue `json:"issues"`
}

// HasErrors reports whether any issue has error severity.
func (r Report) HasErrors() bool {
	for _, i := range r.Issues {
		if i.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Err returns nil unless the report has errors.
func (r Report) Err() error {
	if !r.HasErrors() {
		return nil
	}
	lines := make([]string, 0, len(r.Issues))
	for _, i := range r.Issues {
		if i.Severity == SeverityError {
			lines = append(lines, " - "+i.String())
		}
	}
	return fmt.Errorf("form '%s' validation failed:\n%s", r.FormID, strings.Join(lines, "\n"))
}

func (r *Report) add(sev Severity, stepID, format string, args ...any) {
	r.Issues = append(r.Issues, Issue{StepID: stepID, Severity: sev, Message: fmt.Sprintf(format, args...)})
}

// ValidateAll validates every form the loader lists.
func ValidateAll(ctx context.Context, loader ports.FormLoader) ([]Report, error) {
	ids, err := loader.ListForms(ctx)
	if err != nil {
		return nil, err
	}
	reports := make([]Report, 0, len(ids))
	for _, id := range ids {
		form, err := loader.GetForm(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to load form %s: %w", id, err)
		}
		reports = append(reports, Validate(form))
	}
	return reports, nil
}

// Validate runs the structural checks and the availability analysis on form.
func Validate(form *domain.Form) Report {
	r := Report{FormID: form.ID}
	if len(form.Steps) == 0 {
		r.add(SeverityError, "", "form has no steps")
		return r
	}

	checkStructure(form, &r)
	if r.HasErrors() {
		// The graph is not well-formed enough for dataflow.
		return r
	}
	checkAvailability(form, &r)
	return r
}

func checkStructure(form *domain.Form, r *Report) {
	seen := make(map[string]bool, len(form.Steps))
	for i := range form.Steps {
		step := &form.Steps[i]
		if step.ID == "" {
			r.add(SeverityError, "", "step #%d has no id", i+1)
			continue
		}
		if seen[step.ID] {
			r.add(SeverityError, step.ID, "duplicate step id")
		}
		seen[step.ID] = true
	}

	for i := range form.Steps {
		step := &form.Steps[i]
		if step.ID == "" {
			continue
		}

		if step.Collect != nil && step.Collect.Enabled && step.Collect.VariableName == "" {
			r.add(SeverityError, step.ID, "collect is enabled without a variableName")
		}
		if step.Input.Type == domain.InputChoice && len(step.Input.Options) == 0 {
			r.add(SeverityError, step.ID, "choice input has no options")
		}

		if step.Type == domain.StepReplay {
			checkReplay(form, step, r)
		}

		if o := step.NextStepOverride; o != nil {
			for n, rule := range o.Rules {
				if form.StepByID(rule.TargetStepID) == nil {
					r.add(SeverityError, step.ID, "rule #%d targets unknown step '%s'", n+1, rule.TargetStepID)
				}
			}
			if o.Default != "" && form.StepByID(o.Default) == nil {
				r.add(SeverityError, step.ID, "default targets unknown step '%s'", o.Default)
			}
		}
	}
}

func checkReplay(form *domain.Form, step *domain.Step, r *Report) {
	switch target := form.StepByID(step.ReplayTarget); {
	case step.ReplayTarget == "":
		r.add(SeverityError, step.ID, "replay step has no replayTarget")
	case target == nil:
		r.add(SeverityError, step.ID, "replayTarget '%s' does not exist", step.ReplayTarget)
	case target.ID == step.ID:
		r.add(SeverityError, step.ID, "replay step replays itself")
	case target.Type == domain.StepReplay:
		r.add(SeverityWarning, step.ID, "replayTarget '%s' is itself a replay step; chains are not followed", target.ID)
	}
}
