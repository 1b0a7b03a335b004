package runtime

import "github.com/aretw0/formflow/pkg/domain"

// Presentation separates the two identities of a displayed step.
//
// Navigation is the node traversal advances from. Content is the node whose
// display and input are shown and under which the answer is recorded.
// For ordinary steps both point at the same step.
type Presentation struct {
	Navigation *domain.Step
	Content    *domain.Step
}

// ResolveReplay resolves replay indirection for step.
// A replay node whose target does not resolve is presented as itself.
// Chains are not followed: the target is used as-is even if it is a replay node.
func ResolveReplay(step *domain.Step, steps []domain.Step) Presentation {
	p := Presentation{Navigation: step, Content: step}
	if step == nil || !step.IsReplay() {
		return p
	}
	if target := FindStep(steps, step.ReplayTarget); target != nil && target.ID != step.ID {
		p.Content = target
	}
	return p
}

// IsReplay reports whether the presentation borrows another step's content.
func (p Presentation) IsReplay() bool {
	return p.Navigation != nil && p.Content != nil && p.Navigation.ID != p.Content.ID
}
