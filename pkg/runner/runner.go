package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/aretw0/formflow/internal/logging"
	"github.com/aretw0/formflow/pkg/domain"
	"github.com/aretw0/formflow/pkg/ports"
)

// DefaultCompletionMessage is shown when the form has no completion message of its own.
const DefaultCompletionMessage = "Thanks, your answers were recorded."

// Runner handles the respondent loop over a FlowEngine using provided IO.
// This allows for easy testing and integration with different frontends (CLI, TUI, etc).
type Runner struct {
	Engine  ports.FlowEngine
	Handler IOHandler

	// Logger is used for internal debug logging.
	// If nil, a no-op logger is used.
	Logger *slog.Logger

	FormID string
	// SessionID is updated with the engine-assigned ID once Run starts.
	SessionID string

	now  func() time.Time
	done bool
}

// New creates a Runner reading stdin and writing stdout unless a handler is given.
func New(engine ports.FlowEngine, opts ...Option) *Runner {
	r := &Runner{
		Engine: engine,
		Logger: logging.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.Handler == nil {
		r.Handler = NewTextHandler(nil, nil)
	}
	return r
}

// Run executes the loop until the submission completes or input ends.
// A closed input stream is not an error: the session stays resumable.
func (r *Runner) Run(ctx context.Context) error {
	start, err := r.Engine.StartOrResume(ctx, r.FormID, r.SessionID)
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	r.SessionID = start.SessionID
	r.Logger.Debug("Session opened", "form_id", r.FormID, "session_id", r.SessionID, "status", start.Status)

	if start.IsComplete || start.Step == nil {
		return r.finish(ctx, start.Status, start.Message)
	}

	step := start.Step
	for step != nil {
		if err := r.Handler.Output(ctx, step); err != nil {
			return fmt.Errorf("output error: %w", err)
		}

		began := r.now()
		var answer any
		if step.Input.Type == domain.InputChoice || step.Input.Type == domain.InputText {
			answer, err = r.Handler.Input(ctx, step)
			if errors.Is(err, io.EOF) {
				r.Logger.Debug("Input closed", "session_id", r.SessionID, "step_id", step.StepID)
				return nil
			}
			if err != nil {
				return err
			}
		}

		res, err := r.Engine.SubmitAnswer(ctx, Request(r.FormID, r.SessionID, step, answer, r.now().Sub(began)))
		if err != nil {
			return fmt.Errorf("submit error: %w", err)
		}

		if !res.Accepted {
			if err := r.Handler.SystemOutput(ctx, res.ValidationError); err != nil {
				return err
			}
			if res.NextStep != nil {
				step = res.NextStep
			}
			continue
		}
		if res.IsComplete {
			return r.finish(ctx, domain.StatusCompleted, res.Message)
		}
		step = res.NextStep
	}
	return nil
}

// Done reports whether the last Run reached a completed or abandoned session.
func (r *Runner) Done() bool {
	return r.done
}

func (r *Runner) finish(ctx context.Context, status domain.SubmissionStatus, msg string) error {
	r.done = true
	switch {
	case status == domain.StatusAbandoned:
		msg = "This session was abandoned."
	case msg == "":
		msg = DefaultCompletionMessage
	}
	return r.Handler.SystemOutput(ctx, msg)
}

// Request builds the SubmitRequest answering step. Replay views are answered
// under their target with the replay node as navigation position.
func Request(formID, sessionID string, step *domain.StepView, answer any, spent time.Duration) domain.SubmitRequest {
	req := domain.SubmitRequest{
		FormID:    formID,
		SessionID: sessionID,
		StepID:    step.StepID,
		Answer:    answer,
		TimeSpent: spent,
	}
	if step.IsReplay() {
		req.StepID = step.AnswerStepID
		req.ReplayStepID = step.StepID
	}
	return req
}
