package dsl

import (
	"errors"
	"fmt"

	"github.com/aretw0/formflow/pkg/adapters/memory"
	"github.com/aretw0/formflow/pkg/domain"
)

// FormBuilder manages the form construction.
type FormBuilder struct {
	form  domain.Form
	steps []*StepBuilder
}

// NewForm creates a new form builder.
func NewForm(id string) *FormBuilder {
	return &FormBuilder{form: domain.Form{ID: id}}
}

// Name sets the display name of the form.
func (f *FormBuilder) Name(name string) *FormBuilder {
	f.form.Name = name
	return f
}

// PublicID sets the identifier respondents use to reach the form.
func (f *FormBuilder) PublicID(id string) *FormBuilder {
	f.form.PublicID = id
	return f
}

// Description sets the form description.
func (f *FormBuilder) Description(text string) *FormBuilder {
	f.form.Description = text
	return f
}

// Draft hides the form from respondents.
func (f *FormBuilder) Draft() *FormBuilder {
	f.form.Status = domain.FormDraft
	return f
}

// CompletionMessage sets the text shown once the last step is answered.
func (f *FormBuilder) CompletionMessage(text string) *FormBuilder {
	f.form.Settings.CompletionMessage = text
	return f
}

// Question appends a step that waits for an answer.
// Without a Text or Options call the step accepts free text.
func (f *FormBuilder) Question(id string, messages ...string) *StepBuilder {
	return f.add(domain.Step{
		ID:      id,
		Type:    domain.StepQuestion,
		Display: domain.Display{Messages: messages},
		Input:   domain.Input{Type: domain.InputText},
	})
}

// Message appends a step that only displays content.
func (f *FormBuilder) Message(id string, messages ...string) *StepBuilder {
	return f.add(domain.Step{
		ID:      id,
		Type:    domain.StepMessage,
		Display: domain.Display{Messages: messages},
		Input:   domain.Input{Type: domain.InputNone},
	})
}

// End appends a closing step.
func (f *FormBuilder) End(id string, messages ...string) *StepBuilder {
	return f.add(domain.Step{
		ID:      id,
		Type:    domain.StepEnd,
		Display: domain.Display{Messages: messages},
		Input:   domain.Input{Type: domain.InputNone},
	})
}

// Replay appends a step that asks target again.
func (f *FormBuilder) Replay(id, target string) *StepBuilder {
	return f.add(domain.Step{
		ID:           id,
		Type:         domain.StepReplay,
		ReplayTarget: target,
	})
}

// Webhook adds an enabled webhook action posting to url.
func (f *FormBuilder) Webhook(url string, headers map[string]string) *FormBuilder {
	cfg := map[string]any{"url": url}
	if len(headers) > 0 {
		cfg["headers"] = headers
	}
	return f.action(domain.ActionWebhook, cfg)
}

// Email adds an enabled email action.
func (f *FormBuilder) Email(subject string, recipients ...string) *FormBuilder {
	return f.action(domain.ActionEmail, map[string]any{
		"subject":    subject,
		"recipients": recipients,
	})
}

// Command adds an enabled action running the registered command name.
func (f *FormBuilder) Command(name string) *FormBuilder {
	return f.action(domain.ActionCommand, map[string]any{"name": name})
}

func (f *FormBuilder) action(t domain.ActionType, cfg map[string]any) *FormBuilder {
	f.form.Actions = append(f.form.Actions, domain.ActionConfig{
		ID:      fmt.Sprintf("%s-%d", t, len(f.form.Actions)+1),
		Type:    t,
		Enabled: true,
		Config:  cfg,
	})
	return f
}

func (f *FormBuilder) add(step domain.Step) *StepBuilder {
	step.Order = len(f.steps) + 1
	sb := &StepBuilder{step: step}
	f.steps = append(f.steps, sb)
	return sb
}

// Build returns the form. Step ids must be unique and non-empty.
func (f *FormBuilder) Build() (domain.Form, error) {
	if f.form.ID == "" {
		return domain.Form{}, errors.New("form id is required")
	}
	form := f.form
	form.Steps = make([]domain.Step, 0, len(f.steps))
	seen := make(map[string]bool, len(f.steps))
	for _, sb := range f.steps {
		if sb.step.ID == "" {
			return domain.Form{}, fmt.Errorf("form %s: step #%d has no id", form.ID, sb.step.Order)
		}
		if seen[sb.step.ID] {
			return domain.Form{}, fmt.Errorf("form %s: duplicate step id '%s'", form.ID, sb.step.ID)
		}
		seen[sb.step.ID] = true
		form.Steps = append(form.Steps, sb.Build())
	}
	return form, nil
}

// Loader builds every form into a memory loader.
func Loader(forms ...*FormBuilder) (*memory.Loader, error) {
	loader := memory.NewLoader()
	for _, fb := range forms {
		form, err := fb.Build()
		if err != nil {
			return nil, fmt.Errorf("failed to build form: %w", err)
		}
		loader.Put(form)
	}
	return loader, nil
}
