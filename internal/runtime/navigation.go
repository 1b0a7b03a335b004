package runtime

import "github.com/aretw0/formflow/pkg/domain"

// ResolveNext picks the step displayed after current, or nil when the form is complete.
//
// Priority:
//  1. the first branching rule whose conditions hold and whose target resolves;
//  2. the override default, if it resolves;
//  3. the first visible step after current in list order.
//
// The result depends only on its arguments. Branching never looks backward on
// its own; loops created by explicit rules are the author's responsibility.
func ResolveNext(current *domain.Step, steps []domain.Step, data map[string]any) *domain.Step {
	if current == nil {
		return FirstVisible(steps, data)
	}

	if override := current.NextStepOverride; override != nil {
		for _, rule := range override.Rules {
			if !Combine(rule.Conditions, rule.Operator, data) {
				continue
			}
			if target := FindStep(steps, rule.TargetStepID); target != nil {
				return target
			}
		}
		if override.Default != "" {
			if target := FindStep(steps, override.Default); target != nil {
				return target
			}
		}
	}

	pos := indexOf(steps, current.ID)
	if pos < 0 {
		return nil
	}
	return firstVisibleFrom(steps, pos+1, data)
}

// FirstVisible returns the first step of the list that is visible given data.
func FirstVisible(steps []domain.Step, data map[string]any) *domain.Step {
	return firstVisibleFrom(steps, 0, data)
}

// FindStep returns a pointer into steps, or nil when id does not resolve.
func FindStep(steps []domain.Step, id string) *domain.Step {
	if id == "" {
		return nil
	}
	if i := indexOf(steps, id); i >= 0 {
		return &steps[i]
	}
	return nil
}

func firstVisibleFrom(steps []domain.Step, start int, data map[string]any) *domain.Step {
	for i := start; i < len(steps); i++ {
		if IsVisible(&steps[i], data) {
			return &steps[i]
		}
	}
	return nil
}

func indexOf(steps []domain.Step, id string) int {
	for i := range steps {
		if steps[i].ID == id {
			return i
		}
	}
	return -1
}
