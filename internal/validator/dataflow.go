package validator

import (
	"sort"

	"github.com/aretw0/formflow/internal/runtime"
	"github.com/aretw0/formflow/pkg/domain"
)

// varSet is a set of variable names. A nil set is the lattice top (every
// variable), which is what unreached steps hold.
type varSet map[string]bool

func (s varSet) clone() varSet {
	out := make(varSet, len(s))
	for k := range s {
		out[k] = true
	}
	return out
}

func (s varSet) with(names ...string) varSet {
	out := s.clone()
	for _, n := range names {
		if n != "" {
			out[n] = true
		}
	}
	return out
}

func meet(a, b varSet) varSet {
	if a == nil {
		return b.clone()
	}
	out := make(varSet)
	for k := range a {
		if b[k] {
			out[k] = true
		}
	}
	return out
}

func equal(a, b varSet) bool {
	if (a == nil) != (b == nil) || len(a) != len(b) {
		return false
	}
	for k := range a {
		if !b[k] {
			return false
		}
	}
	return true
}

// edge is a possible transition; implied names variables that must be
// present for the transition to be taken.
type edge struct {
	to      int
	implied []string
}

// checkAvailability reports variables that some path can read before any
// step has collected them. It is a must-available forward dataflow over the
// step graph: a variable is available at a step only if it was collected (or
// required by a taken AND condition) on every path reaching it.
func checkAvailability(form *domain.Form, r *Report) {
	steps := form.Steps
	index := make(map[string]int, len(steps))
	for i := range steps {
		index[steps[i].ID] = i
	}

	in := make([]varSet, len(steps))
	for _, i := range sequentialFrom(steps, 0) {
		in[i] = varSet{}
	}

	for changed := true; changed; {
		changed = false
		for i := range steps {
			if in[i] == nil {
				continue
			}
			out := afterAnswer(&steps[i], steps, in[i])
			for _, e := range successors(steps, index, i) {
				next := meet(in[e.to], out.with(e.implied...))
				if !equal(next, in[e.to]) {
					in[e.to] = next
					changed = true
				}
			}
		}
	}

	for i := range steps {
		step := &steps[i]
		if in[i] == nil {
			r.add(SeverityWarning, step.ID, "step is unreachable")
			continue
		}
		if step.ConditionalLogic != nil {
			for _, name := range missing(conditionVars(step.ConditionalLogic.ShowIf), in[i]) {
				r.add(SeverityWarning, step.ID, "showIf reads '%s', which may not be collected yet", name)
			}
		}

		shown := entered(step, in[i])
		content := runtime.ResolveReplay(step, steps).Content
		for _, name := range missing(displayVars(content), shown) {
			r.add(SeverityWarning, step.ID, "placeholder {%s} may not be collected yet", name)
		}

		if o := step.NextStepOverride; o != nil {
			answered := afterAnswer(step, steps, in[i])
			for n, rule := range o.Rules {
				for _, name := range missing(conditionVars(rule.Conditions), answered) {
					r.add(SeverityWarning, step.ID, "rule #%d reads '%s', which may not be collected yet", n+1, name)
				}
			}
		}
	}
}

// entered is what is known once step is shown: a visible step with an AND
// showIf guarantees every variable it tests.
func entered(step *domain.Step, in varSet) varSet {
	if step.ConditionalLogic == nil {
		return in
	}
	return in.with(impliedBy(step.ConditionalLogic.ShowIf, step.ConditionalLogic.Operator)...)
}

func afterAnswer(step *domain.Step, steps []domain.Step, in varSet) varSet {
	content := runtime.ResolveReplay(step, steps).Content
	out := entered(step, in)
	if content.RequiresAnswer() {
		out = out.with(content.CollectsVariable())
	}
	return out
}

func successors(steps []domain.Step, index map[string]int, i int) []edge {
	var out []edge
	step := &steps[i]
	if o := step.NextStepOverride; o != nil {
		for _, rule := range o.Rules {
			if j, ok := index[rule.TargetStepID]; ok {
				out = append(out, edge{to: j, implied: impliedBy(rule.Conditions, rule.Operator)})
			}
		}
		if j, ok := index[o.Default]; ok {
			return append(out, edge{to: j})
		}
	}
	for _, j := range sequentialFrom(steps, i+1) {
		out = append(out, edge{to: j})
	}
	return out
}

// sequentialFrom lists the steps the sequential fallback may land on when
// scanning from start: every conditional step up to and including the first
// unconditional one.
func sequentialFrom(steps []domain.Step, start int) []int {
	var out []int
	for j := start; j < len(steps); j++ {
		out = append(out, j)
		if c := steps[j].ConditionalLogic; c == nil || len(c.ShowIf) == 0 {
			break
		}
	}
	return out
}

// impliedBy returns the variables a true combination guarantees present.
// Absent variables make every condition false, so an AND of conditions (or a
// single condition) implies all of its variables.
func impliedBy(conds []domain.Condition, op domain.LogicOperator) []string {
	if op == domain.LogicOr && len(conds) > 1 {
		return nil
	}
	return conditionVars(conds)
}

func conditionVars(conds []domain.Condition) []string {
	out := make([]string, 0, len(conds))
	for _, c := range conds {
		out = append(out, c.VariableName)
	}
	return out
}

func displayVars(step *domain.Step) []string {
	var out []string
	for _, msg := range step.Display.Messages {
		out = append(out, runtime.ExtractVariables(msg)...)
	}
	for _, opt := range step.Input.Options {
		out = append(out, runtime.ExtractVariables(opt.Label)...)
	}
	return out
}

func missing(names []string, available varSet) []string {
	seen := make(map[string]bool)
	var out []string
	for _, n := range names {
		if n == "" || available[n] || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
