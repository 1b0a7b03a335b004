package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/formflow/internal/runtime"
	"github.com/aretw0/formflow/pkg/domain"
)

// GraphOverlay contains submission data to visualize on the graph.
type GraphOverlay struct {
	VisitedSteps []string
	CurrentStep  string
}

// OverlayFromSubmission marks every answered position as visited.
func OverlayFromSubmission(sub *domain.Submission, current string) *GraphOverlay {
	o := &GraphOverlay{CurrentStep: current}
	if sub == nil {
		return o
	}
	for _, h := range sub.StepHistory {
		o.VisitedSteps = append(o.VisitedSteps, h.Position())
	}
	return o
}

var opSymbols = map[domain.Operator]string{
	domain.OpEquals:             "==",
	domain.OpNotEquals:          "!=",
	domain.OpContains:           "contains",
	domain.OpNotContains:        "not contains",
	domain.OpGreaterThan:        ">",
	domain.OpLessThan:           "<",
	domain.OpGreaterThanOrEqual: ">=",
	domain.OpLessThanOrEqual:    "<=",
	domain.OpIn:                 "in",
	domain.OpNotIn:              "not in",
}

// GenerateMermaid produces a Mermaid flowchart of a form.
// Shapes follow the step type:
//   - first step: ((Circle))
//   - question: [/Parallelogram/]
//   - replay: {{Hexagon}}
//   - end: ([Stadium])
//   - message: [Rectangle]
//
// Solid edges are branching rules and defaults, dotted edges the sequential
// fallback and replay pointers. Steps with visibility conditions carry them
// in their label.
func GenerateMermaid(form *domain.Form, overlay *GraphOverlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	for i := range form.Steps {
		step := &form.Steps[i]
		safeID := sanitizeMermaidID(step.ID)

		opener, closer := "[", "]"
		switch {
		case i == 0:
			opener, closer = "((", "))"
		case step.IsReplay():
			opener, closer = "{{", "}}"
		case step.Type == domain.StepEnd:
			opener, closer = "([", "])"
		case step.RequiresAnswer():
			opener, closer = "[/", "/]"
		}

		label := step.ID
		if v := step.CollectsVariable(); v != "" {
			label += " → " + v
		}
		if step.ConditionalLogic != nil && len(step.ConditionalLogic.ShowIf) > 0 {
			label += " <br/> if " + describe(step.ConditionalLogic.ShowIf, step.ConditionalLogic.Operator)
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", safeID, opener, escape(label), closer)

		if step.IsReplay() && form.StepByID(step.ReplayTarget) != nil {
			fmt.Fprintf(&sb, "    %s -. \"replays\" .-> %s\n", safeID, sanitizeMermaidID(step.ReplayTarget))
		}

		if o := step.NextStepOverride; o != nil {
			for _, rule := range o.Rules {
				if form.StepByID(rule.TargetStepID) == nil {
					continue
				}
				cond := describe(rule.Conditions, rule.Operator)
				if cond == "" {
					cond = "always"
				}
				fmt.Fprintf(&sb, "    %s -- \"%s\" --> %s\n", safeID, escape(cond), sanitizeMermaidID(rule.TargetStepID))
			}
			if o.Default != "" && form.StepByID(o.Default) != nil {
				fmt.Fprintf(&sb, "    %s -- \"default\" --> %s\n", safeID, sanitizeMermaidID(o.Default))
			}
		}

		if i+1 < len(form.Steps) {
			fmt.Fprintf(&sb, "    %s -.-> %s\n", safeID, sanitizeMermaidID(form.Steps[i+1].ID))
		}
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Black text keeps contrast on both light and dark themes.
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		seen := make(map[string]bool)
		for _, id := range overlay.VisitedSteps {
			safeID := sanitizeMermaidID(id)
			if safeID != "" && !seen[safeID] {
				seen[safeID] = true
				fmt.Fprintf(&sb, "    class %s visited;\n", safeID)
			}
		}
		if overlay.CurrentStep != "" {
			fmt.Fprintf(&sb, "    class %s current;\n", sanitizeMermaidID(overlay.CurrentStep))
		}
	}

	return sb.String()
}

func describe(conds []domain.Condition, op domain.LogicOperator) string {
	parts := make([]string, 0, len(conds))
	for _, c := range conds {
		sym, ok := opSymbols[c.Operator]
		if !ok {
			sym = string(c.Operator)
		}
		parts = append(parts, fmt.Sprintf("%s %s %s", c.VariableName, sym, runtime.Stringify(c.Value)))
	}
	joiner := " and "
	if op == domain.LogicOr {
		joiner = " or "
	}
	return strings.Join(parts, joiner)
}

func escape(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	s = strings.ReplaceAll(s, " ", "_")
	return s
}
