package runtime

import (
	"time"

	"github.com/aretw0/formflow/pkg/domain"
)

// Command is an effect requested by a lifecycle transition.
// Transitions never perform effects themselves; the Engine executes the commands.
type Command interface {
	command()
}

// IncrementCounter asks for one of the form's totals to be bumped by one.
type IncrementCounter struct {
	FormID  string
	Counter domain.Counter
}

// DispatchActions asks for the post-completion actions of a job to run.
type DispatchActions struct {
	Job domain.DispatchJob
}

func (IncrementCounter) command() {}
func (DispatchActions) command()  {}

// View is the transition for a respondent opening a form without a submission.
func View(formID string) []Command {
	return []Command{IncrementCounter{FormID: formID, Counter: domain.CounterViews}}
}

// Begin creates the in-progress submission for a session's first accepted answer.
func Begin(id, formID, sessionID string, now time.Time) (*domain.Submission, []Command) {
	sub := &domain.Submission{
		ID:        id,
		FormID:    formID,
		SessionID: sessionID,
		Status:    domain.StatusInProgress,
		Data:      make(map[string]any),
		Metadata: domain.SubmissionMetadata{
			StartedAt:        now,
			LastActivityAt:   now,
			TimeSpentPerStep: make(map[string]int64),
		},
	}
	return sub, []Command{IncrementCounter{FormID: formID, Counter: domain.CounterStarts}}
}

// Answer is an accepted answer ready to be recorded.
type Answer struct {
	// Step is the step whose content was answered (the target for replays).
	Step *domain.Step
	// Position is the navigation node, which differs from Step only for replays.
	Position *domain.Step
	Value    any
	Elapsed  time.Duration
}

// RecordAnswer returns a copy of sub with the answer applied.
//
// The history entry is always appended. The value is written to data only when
// the step collects a variable, overwriting any previous value.
func RecordAnswer(sub *domain.Submission, a Answer, now time.Time) *domain.Submission {
	next := sub.Clone()
	if next.Data == nil {
		next.Data = make(map[string]any)
	}

	entry := domain.HistoryEntry{
		StepID:     a.Step.ID,
		AnsweredAt: now,
		Answer:     a.Value,
	}
	if a.Position != nil && a.Position.ID != a.Step.ID {
		entry.ReplayStepID = a.Position.ID
	}

	if name := a.Step.CollectsVariable(); name != "" && a.Value != nil {
		entry.VariableName = name
		if _, exists := next.Data[name]; !exists {
			next.DataOrder = append(next.DataOrder, name)
		}
		next.Data[name] = a.Value
	}
	next.StepHistory = append(next.StepHistory, entry)

	if a.Step.ConversionEvent() != "" && !contains(next.Metadata.Conversions, a.Step.ID) {
		next.Metadata.Conversions = append(next.Metadata.Conversions, a.Step.ID)
	}

	if ms := a.Elapsed.Milliseconds(); ms > 0 {
		if next.Metadata.TimeSpentPerStep == nil {
			next.Metadata.TimeSpentPerStep = make(map[string]int64)
		}
		next.Metadata.TimeSpentPerStep[a.Step.ID] += ms
	}

	next.Metadata.LastActivityAt = now
	return next
}

// Complete transitions sub to completed.
// Calling it on a terminal submission returns sub unchanged and no commands.
func Complete(sub *domain.Submission, form *domain.Form, now time.Time) (*domain.Submission, []Command) {
	if sub.IsTerminal() {
		return sub, nil
	}
	next := sub.Clone()
	next.Status = domain.StatusCompleted
	next.Metadata.CompletedAt = &now
	next.Metadata.LastActivityAt = now

	cmds := []Command{IncrementCounter{FormID: next.FormID, Counter: domain.CounterCompletions}}

	if actions := enabledActions(form.Actions); len(actions) > 0 {
		snapshot := next.Clone()
		cmds = append(cmds, DispatchActions{Job: domain.DispatchJob{
			FormID:       form.ID,
			FormName:     form.Name,
			SubmissionID: next.ID,
			SessionID:    next.SessionID,
			Data:         snapshot.Data,
			DataOrder:    snapshot.DataOrder,
			SubmittedAt:  now,
			Actions:      actions,
		}})
	}
	return next, cmds
}

// Abandon transitions an in-progress submission to abandoned.
// It reports false when the submission was already terminal.
func Abandon(sub *domain.Submission, now time.Time) (*domain.Submission, bool) {
	if sub.IsTerminal() {
		return sub, false
	}
	next := sub.Clone()
	next.Status = domain.StatusAbandoned
	next.Metadata.LastActivityAt = now
	return next, true
}

func enabledActions(actions []domain.ActionConfig) []domain.ActionConfig {
	var out []domain.ActionConfig
	for _, a := range actions {
		if a.Enabled {
			out = append(out, a)
		}
	}
	return out
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
