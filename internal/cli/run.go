package cli

import (
	"errors"
	"io"
	"os"
)

// RunOptions contains all the configuration for the Run command.
type RunOptions struct {
	FormID    string
	SessionID string
	JSON      bool
	Watch     bool
	Fresh     bool
	// Quiet suppresses the banner and session notices.
	Quiet bool

	In  io.Reader
	Out io.Writer
}

func (o *RunOptions) defaults() {
	if o.In == nil {
		o.In = os.Stdin
	}
	if o.Out == nil {
		o.Out = os.Stdout
	}
}

// Execute handles the 'run' command logic, dispatching to Session or Watch mode.
func Execute(app *App, opts RunOptions) error {
	if opts.FormID == "" {
		return errors.New("a form id is required")
	}
	opts.defaults()

	if opts.Watch {
		if opts.JSON {
			return errors.New("--watch and --json cannot be used together")
		}
		return RunWatch(app, opts)
	}
	return RunSession(app, opts)
}
