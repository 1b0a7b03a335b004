package dsl_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/formflow"
	"github.com/aretw0/formflow/internal/validator"
	"github.com/aretw0/formflow/pkg/domain"
	"github.com/aretw0/formflow/pkg/dsl"
)

func signup() *dsl.FormBuilder {
	f := dsl.NewForm("signup").Name("Signup").PublicID("join")

	f.Question("ask-name", "What's your name?").
		Text(domain.DataName).
		SaveTo("name")

	f.Question("ask-plan", "Which plan, {name}?").
		Options("Free", "Pro").
		SaveTo("plan")

	f.Message("upsell", "Pro has a 14 day trial.").
		ShowIf(dsl.Eq("plan", "Free"))

	f.End("bye", "Welcome aboard, {name}!")
	return f
}

func TestBuilder_Build(t *testing.T) {
	form, err := signup().Webhook("https://example.com/hook", nil).Build()
	require.NoError(t, err)

	assert.Equal(t, "join", form.Key())
	require.Len(t, form.Steps, 4)

	ask := form.Steps[1]
	assert.Equal(t, 2, ask.Order)
	assert.Equal(t, domain.InputChoice, ask.Input.Type)
	assert.Equal(t, []domain.Option{{Label: "Free", Value: "Free"}, {Label: "Pro", Value: "Pro"}}, ask.Input.Options)
	assert.Equal(t, "plan", ask.CollectsVariable())

	upsell := form.Steps[2]
	require.NotNil(t, upsell.ConditionalLogic)
	assert.Equal(t, domain.LogicAnd, upsell.ConditionalLogic.Operator)
	assert.Equal(t, domain.InputNone, upsell.Input.Type)

	require.Len(t, form.Actions, 1)
	assert.Equal(t, domain.ActionWebhook, form.Actions[0].Type)
	assert.True(t, form.Actions[0].Enabled)
}

func TestBuilder_Branching(t *testing.T) {
	f := dsl.NewForm("nps")
	f.Question("rate", "How likely are you to recommend us?").
		Text(domain.DataNumber).
		SaveTo("score").
		When("promoter", dsl.Gte("score", 9)).
		WhenAny("detractor", dsl.Lt("score", 5), dsl.In("score", 6, 7)).
		Otherwise("bye")
	f.Replay("again", "rate")

	form, err := f.Build()
	require.NoError(t, err)

	o := form.Steps[0].NextStepOverride
	require.NotNil(t, o)
	require.Len(t, o.Rules, 2)
	assert.Equal(t, "promoter", o.Rules[0].TargetStepID)
	assert.Equal(t, domain.LogicOr, o.Rules[1].Operator)
	assert.Equal(t, []any{6, 7}, o.Rules[1].Conditions[1].Value)
	assert.Equal(t, "bye", o.Default)
	assert.True(t, form.Steps[1].IsReplay())
}

func TestBuilder_Errors(t *testing.T) {
	_, err := dsl.NewForm("").Build()
	assert.Error(t, err)

	f := dsl.NewForm("dup")
	f.Message("a")
	f.Message("a")
	_, err = f.Build()
	assert.ErrorContains(t, err, "duplicate step id 'a'")

	_, err = dsl.Loader(f)
	assert.Error(t, err)
}

func TestLoader_RunsThroughEngine(t *testing.T) {
	ctx := context.Background()
	loader, err := dsl.Loader(signup())
	require.NoError(t, err)

	reports, err := validator.ValidateAll(ctx, loader)
	require.NoError(t, err)
	for _, r := range reports {
		assert.False(t, r.HasErrors(), r.Issues)
	}

	engine, err := formflow.New(loader)
	require.NoError(t, err)

	start, err := engine.StartOrResume(ctx, "join", "")
	require.NoError(t, err)
	assert.Equal(t, "ask-name", start.Step.StepID)

	submit := func(step string, answer any) *domain.SubmitResult {
		t.Helper()
		res, err := engine.SubmitAnswer(ctx, domain.SubmitRequest{
			FormID: "join", SessionID: start.SessionID, StepID: step, Answer: answer,
		})
		require.NoError(t, err)
		require.True(t, res.Accepted, res.ValidationError)
		return res
	}

	res := submit("ask-name", "ann lee")
	assert.Equal(t, []string{"Which plan, Ann Lee?"}, res.NextStep.Messages)

	res = submit("ask-plan", "Pro")
	assert.Equal(t, "bye", res.NextStep.StepID, "upsell is hidden for Pro")

	res = submit("bye", nil)
	assert.True(t, res.IsComplete)
	assert.Equal(t, map[string]any{"name": "Ann Lee", "plan": "Pro"}, res.Data)
}
