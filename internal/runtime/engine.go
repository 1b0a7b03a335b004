package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/formflow/internal/logging"
	"github.com/aretw0/formflow/pkg/domain"
	"github.com/aretw0/formflow/pkg/ports"
	"github.com/aretw0/formflow/pkg/session"
	"github.com/google/uuid"
)

// Engine sequences the pure flow functions against the stores.
// It holds no per-session state; everything lives in the submission store.
type Engine struct {
	loader     ports.FormLoader
	sessions   *session.Manager
	counters   ports.CounterStore
	dispatcher ports.ActionDispatcher
	hooks      domain.LifecycleHooks
	logger     *slog.Logger
	now        func() time.Time
	newID      func() string
}

// EngineOption configures the Engine.
type EngineOption func(*Engine)

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) EngineOption {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithDispatcher sets where completed submissions send their action jobs.
// Without one, jobs are logged and dropped.
func WithDispatcher(d ports.ActionDispatcher) EngineOption {
	return func(e *Engine) {
		e.dispatcher = d
	}
}

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) {
		e.now = now
	}
}

// WithIDGenerator replaces the UUID generator used for session and submission IDs.
func WithIDGenerator(fn func() string) EngineOption {
	return func(e *Engine) {
		e.newID = fn
	}
}

// NewEngine creates an engine over the given collaborators.
func NewEngine(loader ports.FormLoader, sessions *session.Manager, counters ports.CounterStore, opts ...EngineOption) *Engine {
	e := &Engine{
		loader:   loader,
		sessions: sessions,
		counters: counters,
		logger:   logging.NewNop(),
		now:      func() time.Time { return time.Now().UTC() },
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// StartOrResume opens a session on a published form.
//
// New sessions get the first visible step and bump the views counter; no
// submission is created until the first answer is accepted. In-progress
// sessions continue after their last answered step.
func (e *Engine) StartOrResume(ctx context.Context, formID, sessionID string) (*domain.StartResult, error) {
	form, err := e.loadPublished(ctx, formID)
	if err != nil {
		return nil, err
	}
	if sessionID == "" {
		sessionID = e.newID()
	}

	res := &domain.StartResult{SessionID: sessionID}
	var cmds []Command
	var completed *domain.Submission

	err = e.sessions.Update(ctx, sessionID, func(ctx context.Context, sub *domain.Submission) (*domain.Submission, error) {
		if sub == nil {
			cmds = View(form.ID)
			res.Data = map[string]any{}
			res.Step = Render(FirstVisible(form.Steps, res.Data), form.Steps, res.Data)
			res.IsComplete = res.Step == nil
			return nil, nil
		}
		if sub.FormID != form.ID {
			return nil, fmt.Errorf("%w: session %s", domain.ErrSessionFormMismatch, sessionID)
		}

		res.Status = sub.Status
		res.Data = copyData(sub.Data)
		if sub.IsTerminal() {
			res.IsComplete = sub.Status == domain.StatusCompleted
			res.Message = Interpolate(form.Settings.CompletionMessage, sub.Data)
			return nil, nil
		}

		position := FindStep(form.Steps, sub.LastPosition())
		next := ResolveNext(position, form.Steps, sub.Data)
		if next != nil {
			res.Step = Render(next, form.Steps, sub.Data)
			return nil, nil
		}

		// The form changed under an in-progress session and nothing is left to ask.
		completed, cmds = Complete(sub, form, e.now())
		res.Status = completed.Status
		res.IsComplete = true
		res.Message = Interpolate(form.Settings.CompletionMessage, sub.Data)
		return completed, nil
	})
	if err != nil {
		return nil, err
	}

	e.apply(ctx, cmds)
	if completed != nil {
		e.emitSubmission(ctx, e.hooks.OnSubmissionComplete, domain.EventSubmissionComplete, completed)
	}
	return res, nil
}

// SubmitAnswer validates one answer, records it and resolves the next step.
//
// A rejected answer changes nothing and re-presents the same step with the
// validation message. An accepted answer creates the submission if needed,
// records the answer under the answered step (the target for replays), and
// advances from the navigation node. When no step follows, the submission
// completes and its post-completion actions are enqueued.
func (e *Engine) SubmitAnswer(ctx context.Context, req domain.SubmitRequest) (*domain.SubmitResult, error) {
	if req.SessionID == "" {
		return nil, fmt.Errorf("%w: session id is required", domain.ErrInvalidRequest)
	}
	form, err := e.loadPublished(ctx, req.FormID)
	if err != nil {
		return nil, err
	}
	position, content, err := resolveAnswerTarget(form, req.StepID, req.ReplayStepID)
	if err != nil {
		return nil, err
	}

	var (
		result   *domain.SubmitResult
		cmds     []Command
		final    *domain.Submission
		started  bool
		rejected string
	)

	err = e.sessions.Update(ctx, req.SessionID, func(ctx context.Context, cur *domain.Submission) (*domain.Submission, error) {
		data := map[string]any{}
		var order []string
		if cur != nil {
			if cur.FormID != form.ID {
				return nil, fmt.Errorf("%w: session %s", domain.ErrSessionFormMismatch, req.SessionID)
			}
			if cur.IsTerminal() {
				return nil, domain.ErrSessionCompleted
			}
			data, order = cur.Data, cur.DataOrder
		}

		in := ProcessInput(req.Answer, content.Input, InputContext{Data: data, DataOrder: order})
		if !in.OK {
			rejected = in.Error
			result = &domain.SubmitResult{
				Accepted:        false,
				ValidationError: in.Error,
				NextStep:        Render(position, form.Steps, data),
				Data:            copyData(data),
			}
			return nil, nil
		}

		now := e.now()
		sub := cur
		if sub == nil {
			sub, cmds = Begin(e.newID(), form.ID, req.SessionID, now)
			started = true
		}
		sub = RecordAnswer(sub, Answer{
			Step:     content,
			Position: position,
			Value:    in.Value,
			Elapsed:  req.TimeSpent,
		}, now)

		result = &domain.SubmitResult{Accepted: true}
		if next := ResolveNext(position, form.Steps, sub.Data); next != nil {
			result.NextStep = Render(next, form.Steps, sub.Data)
		} else {
			var completeCmds []Command
			sub, completeCmds = Complete(sub, form, now)
			cmds = append(cmds, completeCmds...)
			result.IsComplete = true
			result.Message = Interpolate(form.Settings.CompletionMessage, sub.Data)
		}
		result.Data = copyData(sub.Data)
		final = sub
		return sub, nil
	})
	if err != nil {
		return nil, err
	}

	if rejected != "" {
		e.logger.Debug("Answer rejected", "form_id", form.ID, "session_id", req.SessionID, "step_id", content.ID, "reason", rejected)
		e.emitAnswer(ctx, e.hooks.OnAnswerRejected, domain.EventAnswerRejected, form.ID, req.SessionID, content, rejected)
		return result, nil
	}

	if started {
		e.emitSubmission(ctx, e.hooks.OnSubmissionStart, domain.EventSubmissionStart, final)
	}
	e.emitAnswer(ctx, e.hooks.OnAnswerAccepted, domain.EventAnswerAccepted, form.ID, req.SessionID, content, "")
	e.apply(ctx, cmds)
	if result.IsComplete {
		e.logger.Info("Submission completed", "form_id", form.ID, "session_id", req.SessionID, "submission_id", final.ID)
		e.emitSubmission(ctx, e.hooks.OnSubmissionComplete, domain.EventSubmissionComplete, final)
	}
	return result, nil
}

// Abandon marks an in-progress submission as abandoned.
// It reports whether a transition happened.
func (e *Engine) Abandon(ctx context.Context, sessionID string) (bool, error) {
	var abandoned *domain.Submission
	err := e.sessions.Update(ctx, sessionID, func(ctx context.Context, cur *domain.Submission) (*domain.Submission, error) {
		if cur == nil {
			return nil, nil
		}
		next, changed := Abandon(cur, e.now())
		if !changed {
			return nil, nil
		}
		abandoned = next
		return next, nil
	})
	if err != nil || abandoned == nil {
		return false, err
	}
	e.emitSubmission(ctx, e.hooks.OnSubmissionAbandon, domain.EventSubmissionAbandon, abandoned)
	return true, nil
}

// Inspect returns the form definition regardless of its publication status.
func (e *Engine) Inspect(ctx context.Context, formID string) (*domain.Form, error) {
	form, err := e.loader.GetForm(ctx, formID)
	if err != nil {
		return nil, fmt.Errorf("failed to load form %s: %w", formID, err)
	}
	return form, nil
}

// Counters returns the totals of a form.
func (e *Engine) Counters(ctx context.Context, formID string) (domain.Counters, error) {
	form, err := e.Inspect(ctx, formID)
	if err != nil {
		return domain.Counters{}, err
	}
	return e.counters.Get(ctx, form.ID)
}

// Sessions exposes the session manager.
func (e *Engine) Sessions() *session.Manager {
	return e.sessions
}

func (e *Engine) loadPublished(ctx context.Context, formID string) (*domain.Form, error) {
	form, err := e.Inspect(ctx, formID)
	if err != nil {
		return nil, err
	}
	if !form.IsPublished() {
		return nil, fmt.Errorf("%w: %s", domain.ErrFormNotPublished, formID)
	}
	return form, nil
}

// resolveAnswerTarget returns the navigation node and the content step of an answer.
func resolveAnswerTarget(form *domain.Form, stepID, replayStepID string) (*domain.Step, *domain.Step, error) {
	step := FindStep(form.Steps, stepID)
	if step == nil {
		return nil, nil, fmt.Errorf("%w: %s", domain.ErrStepNotFound, stepID)
	}
	if replayStepID == "" {
		p := ResolveReplay(step, form.Steps)
		return p.Navigation, p.Content, nil
	}

	replay := FindStep(form.Steps, replayStepID)
	if replay == nil {
		return nil, nil, fmt.Errorf("%w: %s", domain.ErrStepNotFound, replayStepID)
	}
	p := ResolveReplay(replay, form.Steps)
	if !p.IsReplay() || p.Content.ID != step.ID {
		return nil, nil, &domain.StepMismatchError{ReplayStepID: replayStepID, StepID: stepID}
	}
	return p.Navigation, p.Content, nil
}

// apply executes lifecycle commands. The submission is already durable at this
// point, so failures are logged rather than returned.
func (e *Engine) apply(ctx context.Context, cmds []Command) {
	for _, cmd := range cmds {
		switch c := cmd.(type) {
		case IncrementCounter:
			if _, err := e.counters.Increment(ctx, c.FormID, c.Counter); err != nil {
				e.logger.Error("Failed to increment counter", "form_id", c.FormID, "counter", c.Counter, "err", err)
			}
		case DispatchActions:
			if e.dispatcher == nil {
				e.logger.Warn("No dispatcher configured, dropping actions", "form_id", c.Job.FormID, "submission_id", c.Job.SubmissionID)
				continue
			}
			if err := e.dispatcher.Enqueue(ctx, c.Job); err != nil {
				e.logger.Error("Failed to enqueue actions", "form_id", c.Job.FormID, "submission_id", c.Job.SubmissionID, "err", err)
			}
		}
	}
}

func (e *Engine) emitSubmission(ctx context.Context, hook func(context.Context, *domain.SubmissionEvent), typ domain.EventType, sub *domain.Submission) {
	if hook == nil || sub == nil {
		return
	}
	hook(ctx, &domain.SubmissionEvent{
		EventBase: domain.EventBase{
			Timestamp: e.now(),
			Type:      typ,
			FormID:    sub.FormID,
			SessionID: sub.SessionID,
		},
		SubmissionID: sub.ID,
	})
}

func (e *Engine) emitAnswer(ctx context.Context, hook func(context.Context, *domain.AnswerEvent), typ domain.EventType, formID, sessionID string, step *domain.Step, reason string) {
	if hook == nil {
		return
	}
	hook(ctx, &domain.AnswerEvent{
		EventBase: domain.EventBase{
			Timestamp: e.now(),
			Type:      typ,
			FormID:    formID,
			SessionID: sessionID,
		},
		StepID:   step.ID,
		DataType: step.Input.DataType,
		Error:    reason,
	})
}

func copyData(data map[string]any) map[string]any {
	out := make(map[string]any, len(data))
	for k, v := range data {
		out[k] = v
	}
	return out
}
