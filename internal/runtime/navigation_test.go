package runtime_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/formflow/internal/runtime"
	"github.com/aretw0/formflow/pkg/domain"
)

func cond(name string, op domain.Operator, v any) domain.Condition {
	return domain.Condition{VariableName: name, Operator: op, Value: v}
}

func showIf(op domain.LogicOperator, conds ...domain.Condition) *domain.ConditionalLogic {
	return &domain.ConditionalLogic{ShowIf: conds, Operator: op}
}

func collect(name string) *domain.Collect {
	return &domain.Collect{Enabled: true, VariableName: name}
}

// ratingSteps is the A/B/C form: B shows for low ratings, C for low ratings that want to explain.
func ratingSteps() []domain.Step {
	return []domain.Step{
		{ID: "A", Collect: collect("rating"), Input: domain.Input{Type: domain.InputText, DataType: domain.DataNumber}},
		{ID: "B", ConditionalLogic: showIf(domain.LogicAnd, cond("rating", domain.OpLessThanOrEqual, 3))},
		{ID: "C", ConditionalLogic: showIf(domain.LogicAnd,
			cond("rating", domain.OpLessThanOrEqual, 3),
			cond("explain", domain.OpEquals, true),
		)},
	}
}

func TestResolveNext_RatingScenario(t *testing.T) {
	steps := ratingSteps()

	t.Run("High Rating Completes", func(t *testing.T) {
		next := runtime.ResolveNext(&steps[0], steps, map[string]any{"rating": int64(5)})
		assert.Nil(t, next)
	})

	t.Run("Low Rating Shows B", func(t *testing.T) {
		next := runtime.ResolveNext(&steps[0], steps, map[string]any{"rating": int64(2)})
		require.NotNil(t, next)
		assert.Equal(t, "B", next.ID)
	})

	t.Run("C Needs Explain", func(t *testing.T) {
		next := runtime.ResolveNext(&steps[1], steps, map[string]any{"rating": int64(2)})
		assert.Nil(t, next)

		next = runtime.ResolveNext(&steps[1], steps, map[string]any{"rating": int64(2), "explain": true})
		require.NotNil(t, next)
		assert.Equal(t, "C", next.ID)
	})
}

func TestResolveNext_IsDeterministic(t *testing.T) {
	steps := ratingSteps()
	data := map[string]any{"rating": 1, "explain": true}

	first := runtime.ResolveNext(&steps[0], steps, data)
	second := runtime.ResolveNext(&steps[0], steps, data)
	assert.Same(t, first, second)
}

func TestResolveNext_RulePriority(t *testing.T) {
	steps := []domain.Step{
		{ID: "start", NextStepOverride: &domain.NextStepOverride{
			Rules: []domain.BranchRule{
				{Conditions: []domain.Condition{cond("plan", domain.OpEquals, "pro")}, TargetStepID: "first"},
				{Conditions: []domain.Condition{cond("plan", domain.OpContains, "pr")}, TargetStepID: "second"},
			},
			Default: "fallback",
		}},
		{ID: "sequential"},
		{ID: "first"},
		{ID: "second"},
		{ID: "fallback"},
	}

	t.Run("First Matching Rule Wins", func(t *testing.T) {
		next := runtime.ResolveNext(&steps[0], steps, map[string]any{"plan": "pro"})
		assert.Equal(t, "first", next.ID)
	})

	t.Run("Second Rule", func(t *testing.T) {
		next := runtime.ResolveNext(&steps[0], steps, map[string]any{"plan": "premium"})
		assert.Equal(t, "second", next.ID)
	})

	t.Run("Default When No Rule Matches", func(t *testing.T) {
		next := runtime.ResolveNext(&steps[0], steps, map[string]any{"plan": "free"})
		assert.Equal(t, "fallback", next.ID)
	})

	t.Run("Rule Without Conditions Always Matches", func(t *testing.T) {
		s := []domain.Step{
			{ID: "a", NextStepOverride: &domain.NextStepOverride{Rules: []domain.BranchRule{{TargetStepID: "c"}}}},
			{ID: "b"},
			{ID: "c"},
		}
		assert.Equal(t, "c", runtime.ResolveNext(&s[0], s, nil).ID)
	})
}

func TestResolveNext_UnresolvedTargetsFallThrough(t *testing.T) {
	steps := []domain.Step{
		{ID: "start", NextStepOverride: &domain.NextStepOverride{
			Rules: []domain.BranchRule{
				{Conditions: []domain.Condition{cond("x", domain.OpEquals, 1)}, TargetStepID: "deleted"},
				{Conditions: []domain.Condition{cond("x", domain.OpEquals, 1)}, TargetStepID: "end"},
			},
		}},
		{ID: "middle"},
		{ID: "end"},
	}
	next := runtime.ResolveNext(&steps[0], steps, map[string]any{"x": 1})
	assert.Equal(t, "end", next.ID)

	steps[0].NextStepOverride = &domain.NextStepOverride{
		Rules:   []domain.BranchRule{{Conditions: []domain.Condition{cond("x", domain.OpEquals, 1)}, TargetStepID: "deleted"}},
		Default: "also-deleted",
	}
	next = runtime.ResolveNext(&steps[0], steps, map[string]any{"x": 1})
	assert.Equal(t, "middle", next.ID, "sequential scan is the last resort")
}

func TestResolveNext_SequentialSkipsHidden(t *testing.T) {
	hidden := showIf(domain.LogicAnd, cond("never", domain.OpEquals, true))
	steps := []domain.Step{
		{ID: "a"},
		{ID: "b", ConditionalLogic: hidden},
		{ID: "c", ConditionalLogic: hidden},
		{ID: "d"},
		{ID: "e", ConditionalLogic: hidden},
	}

	assert.Equal(t, "d", runtime.ResolveNext(&steps[0], steps, nil).ID)
	assert.Nil(t, runtime.ResolveNext(&steps[3], steps, nil))
	assert.Nil(t, runtime.ResolveNext(&steps[4], steps, nil))
}

func TestResolveNext_BranchMayTargetHiddenStep(t *testing.T) {
	steps := []domain.Step{
		{ID: "a", NextStepOverride: &domain.NextStepOverride{Default: "b"}},
		{ID: "b", ConditionalLogic: showIf(domain.LogicAnd, cond("x", domain.OpEquals, 1))},
	}
	assert.Equal(t, "b", runtime.ResolveNext(&steps[0], steps, nil).ID)
}

func TestResolveNext_UnknownCurrentStep(t *testing.T) {
	steps := []domain.Step{{ID: "a"}, {ID: "b"}}
	assert.Nil(t, runtime.ResolveNext(&domain.Step{ID: "ghost"}, steps, nil))
	assert.Equal(t, "a", runtime.ResolveNext(nil, steps, nil).ID)
}

func TestFirstVisible(t *testing.T) {
	steps := []domain.Step{
		{ID: "intro", ConditionalLogic: showIf(domain.LogicOr, cond("returning", domain.OpEquals, true))},
		{ID: "welcome"},
	}
	assert.Equal(t, "welcome", runtime.FirstVisible(steps, nil).ID)
	assert.Equal(t, "intro", runtime.FirstVisible(steps, map[string]any{"returning": true}).ID)
	assert.Nil(t, runtime.FirstVisible(nil, nil))
}

func TestResolveReplay(t *testing.T) {
	steps := []domain.Step{
		{ID: "email", Collect: collect("email"), Display: domain.Display{Messages: []string{"Your email?"}}},
		{ID: "confirm"},
		{ID: "retry", Type: domain.StepReplay, ReplayTarget: "email"},
		{ID: "broken", Type: domain.StepReplay, ReplayTarget: "missing"},
	}

	p := runtime.ResolveReplay(&steps[2], steps)
	assert.Equal(t, "retry", p.Navigation.ID)
	assert.Equal(t, "email", p.Content.ID)
	assert.True(t, p.IsReplay())

	p = runtime.ResolveReplay(&steps[3], steps)
	assert.Equal(t, "broken", p.Content.ID, "unresolved replay is shown as itself")
	assert.False(t, p.IsReplay())

	p = runtime.ResolveReplay(&steps[1], steps)
	assert.Same(t, p.Navigation, p.Content)
}

func TestResolveNext_ReplayNavigatesFromReplayNode(t *testing.T) {
	steps := []domain.Step{
		{ID: "email", Collect: collect("email")},
		{ID: "check"},
		{ID: "retry", Type: domain.StepReplay, ReplayTarget: "email"},
		{ID: "thanks"},
	}
	p := runtime.ResolveReplay(&steps[2], steps)
	next := runtime.ResolveNext(p.Navigation, steps, map[string]any{"email": "a@b.co"})
	assert.Equal(t, "thanks", next.ID)
}
