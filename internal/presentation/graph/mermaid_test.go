package graph_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aretw0/formflow/internal/presentation/graph"
	"github.com/aretw0/formflow/pkg/domain"
)

func testForm() *domain.Form {
	return &domain.Form{
		ID: "feedback",
		Steps: []domain.Step{
			{
				ID:      "rate",
				Type:    domain.StepQuestion,
				Input:   domain.Input{Type: domain.InputText, DataType: domain.DataNumber},
				Collect: &domain.Collect{Enabled: true, VariableName: "rating"},
				NextStepOverride: &domain.NextStepOverride{
					Rules: []domain.BranchRule{
						{Conditions: []domain.Condition{{VariableName: "rating", Operator: domain.OpGreaterThanOrEqual, Value: 4.0}}, TargetStepID: "thanks"},
						{Conditions: []domain.Condition{{VariableName: "rating", Operator: domain.OpEquals, Value: 0.0}}, TargetStepID: "deleted"},
					},
					Default: "why",
				},
			},
			{
				ID:   "why",
				Type: domain.StepQuestion,
				Input: domain.Input{Type: domain.InputChoice, Options: []domain.Option{
					{Label: "Price", Value: "price"},
				}},
				ConditionalLogic: &domain.ConditionalLogic{
					Operator: domain.LogicOr,
					ShowIf: []domain.Condition{
						{VariableName: "rating", Operator: domain.OpLessThan, Value: 3.0},
						{VariableName: "vip", Operator: domain.OpEquals, Value: true},
					},
				},
			},
			{ID: "ask-again", Type: domain.StepReplay, ReplayTarget: "rate"},
			{ID: "thanks", Type: domain.StepEnd},
		},
	}
}

func TestGenerateMermaid(t *testing.T) {
	out := graph.GenerateMermaid(testForm(), nil)

	tests := []struct {
		name string
		want string
	}{
		{"first step is a circle", `rate(("rate → rating"))`},
		{"question shape and condition label", `why[/"why <br/> if rating < 3 or vip == true"/]`},
		{"replay hexagon", `ask_again{{"ask-again"}}`},
		{"end stadium", `thanks(["thanks"])`},
		{"rule edge", `rate -- "rating >= 4" --> thanks`},
		{"default edge", `rate -- "default" --> why`},
		{"sequential edge", `why -.-> ask_again`},
		{"replay edge", `ask_again -. "replays" .-> rate`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Contains(t, out, tt.want)
		})
	}

	assert.NotContains(t, out, "deleted", "unresolved targets are not drawn")
	assert.NotContains(t, out, "classDef")
}

func TestGenerateMermaid_Overlay(t *testing.T) {
	sub := &domain.Submission{StepHistory: []domain.HistoryEntry{
		{StepID: "rate"},
		{StepID: "rate", ReplayStepID: "ask-again"},
		{StepID: "rate"},
	}}
	out := graph.GenerateMermaid(testForm(), graph.OverlayFromSubmission(sub, "thanks"))

	assert.Equal(t, 1, strings.Count(out, "class rate visited;"))
	assert.Contains(t, out, "class ask_again visited;")
	assert.Contains(t, out, "class thanks current;")
}
