package runner

import (
	"log/slog"
	"time"
)

// Option defines a functional option for configuring the Runner.
type Option func(*Runner)

// WithForm selects the form to run, by ID or public ID.
func WithForm(formID string) Option {
	return func(r *Runner) {
		r.FormID = formID
	}
}

// WithSessionID resumes (or pins) a session. Empty starts a fresh one.
func WithSessionID(id string) Option {
	return func(r *Runner) {
		r.SessionID = id
	}
}

// WithHandler sets the IO strategy.
func WithHandler(h IOHandler) Option {
	return func(r *Runner) {
		r.Handler = h
	}
}

// WithLogger configures the runner's internal logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		if logger != nil {
			r.Logger = logger
		}
	}
}

// WithClock replaces time.Now for time-spent measurement.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) {
		r.now = now
	}
}
