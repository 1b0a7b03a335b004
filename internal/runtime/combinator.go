package runtime

import "github.com/aretw0/formflow/pkg/domain"

// Combine folds conditions with op. An empty list is vacuously true for both
// AND and OR. AND stops at the first false, OR at the first true.
// Any operator other than OR is treated as AND.
func Combine(conds []domain.Condition, op domain.LogicOperator, data map[string]any) bool {
	if len(conds) == 0 {
		return true
	}
	if op == domain.LogicOr {
		for _, c := range conds {
			if Evaluate(c, data) {
				return true
			}
		}
		return false
	}
	for _, c := range conds {
		if !Evaluate(c, data) {
			return false
		}
	}
	return true
}

// IsVisible reports whether step may be shown given data.
// Steps without conditional logic are always visible.
func IsVisible(step *domain.Step, data map[string]any) bool {
	if step == nil {
		return false
	}
	if step.ConditionalLogic == nil {
		return true
	}
	return Combine(step.ConditionalLogic.ShowIf, step.ConditionalLogic.Operator, data)
}
