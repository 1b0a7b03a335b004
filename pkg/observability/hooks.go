package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/formflow/pkg/domain"
)

// LoggingHooks logs every lifecycle event at debug level, and failed actions
// at warn level.
func LoggingHooks(logger *slog.Logger) domain.LifecycleHooks {
	submission := func(msg string) func(context.Context, *domain.SubmissionEvent) {
		return func(ctx context.Context, e *domain.SubmissionEvent) {
			logger.DebugContext(ctx, msg, "form_id", e.FormID, "session_id", e.SessionID, "submission_id", e.SubmissionID)
		}
	}
	answer := func(msg string) func(context.Context, *domain.AnswerEvent) {
		return func(ctx context.Context, e *domain.AnswerEvent) {
			attrs := []any{"form_id", e.FormID, "session_id", e.SessionID, "step_id", e.StepID}
			if e.Error != "" {
				attrs = append(attrs, "reason", e.Error)
			}
			logger.DebugContext(ctx, msg, attrs...)
		}
	}
	return domain.LifecycleHooks{
		OnSubmissionStart:    submission("submission started"),
		OnSubmissionComplete: submission("submission completed"),
		OnSubmissionAbandon:  submission("submission abandoned"),
		OnAnswerAccepted:     answer("answer accepted"),
		OnAnswerRejected:     answer("answer rejected"),
		OnActionResult: func(ctx context.Context, e *domain.ActionEvent) {
			if e.IsError {
				logger.WarnContext(ctx, "action failed",
					"action_type", e.ActionType, "submission_id", e.SubmissionID, "duration", e.Duration, "err", e.Error)
				return
			}
			logger.DebugContext(ctx, "action finished",
				"action_type", e.ActionType, "submission_id", e.SubmissionID, "duration", e.Duration)
		},
	}
}

// Combine fans every event out to each set of hooks in order.
func Combine(sets ...domain.LifecycleHooks) domain.LifecycleHooks {
	var out domain.LifecycleHooks
	for _, h := range sets {
		out.OnSubmissionStart = chain(out.OnSubmissionStart, h.OnSubmissionStart)
		out.OnSubmissionComplete = chain(out.OnSubmissionComplete, h.OnSubmissionComplete)
		out.OnSubmissionAbandon = chain(out.OnSubmissionAbandon, h.OnSubmissionAbandon)
		out.OnAnswerAccepted = chain(out.OnAnswerAccepted, h.OnAnswerAccepted)
		out.OnAnswerRejected = chain(out.OnAnswerRejected, h.OnAnswerRejected)
		out.OnActionResult = chain(out.OnActionResult, h.OnActionResult)
	}
	return out
}

func chain[E any](a, b func(context.Context, E)) func(context.Context, E) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, e E) {
		a(ctx, e)
		b(ctx, e)
	}
}
