package runtime

import "github.com/aretw0/formflow/pkg/domain"

// Render builds the respondent view of step with replay indirection resolved
// and placeholders substituted. It returns nil for a nil step.
func Render(step *domain.Step, steps []domain.Step, data map[string]any) *domain.StepView {
	if step == nil {
		return nil
	}
	p := ResolveReplay(step, steps)
	content := p.Content

	view := &domain.StepView{
		StepID:       p.Navigation.ID,
		AnswerStepID: content.ID,
		Type:         content.Type,
		Messages:     make([]string, len(content.Display.Messages)),
		Media:        content.Display.Media,
		Links:        content.Display.Links,
		Input:        content.Input,
	}
	for i, msg := range content.Display.Messages {
		view.Messages[i] = Interpolate(msg, data)
	}
	if view.Type == "" || view.Type == domain.StepReplay {
		view.Type = inferType(content)
	}

	if len(content.Input.Options) > 0 {
		view.Input.Options = make([]domain.Option, len(content.Input.Options))
		for i, opt := range content.Input.Options {
			view.Input.Options[i] = domain.Option{Label: Interpolate(opt.Label, data), Value: opt.Value}
		}
	}
	return view
}

func inferType(step *domain.Step) domain.StepType {
	if step.RequiresAnswer() {
		return domain.StepQuestion
	}
	return domain.StepMessage
}
