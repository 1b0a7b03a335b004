package cli

import (
	"context"
	"crypto/md5"
	"errors"
	"fmt"
	"time"

	"github.com/aretw0/formflow/internal/presentation/tui"
	"github.com/aretw0/formflow/pkg/runner"
)

// reloadDelay lets editors finish writing before the form is read again.
const reloadDelay = 100 * time.Millisecond

// RunWatch runs a form in development mode: whenever the form files change,
// the session is resumed on the new definition.
func RunWatch(app *App, opts RunOptions) error {
	// Scope the default session by directory and form so projects do not collide.
	if opts.SessionID == "" {
		hash := md5.Sum([]byte(app.Config.Dir + "/" + opts.FormID))
		opts.SessionID = fmt.Sprintf("watch-%x", hash[:4])
	}

	sigCtx := NewSignalContext(context.Background())
	defer sigCtx.Cancel()

	if opts.Fresh {
		if err := resetSession(sigCtx, app, opts.SessionID); err != nil {
			return fmt.Errorf("failed to reset session: %w", err)
		}
	}

	changes, err := app.Engine.Watch(sigCtx)
	if err != nil {
		return err
	}

	if !opts.Quiet {
		tui.PrintBanner(opts.Out)
	}
	app.Logger.Info("Starting watcher", "dir", app.Config.Dir, "session_id", opts.SessionID)
	printSystemMessage(opts.Out, "Watching '%s' with session '%s'.", app.Config.Dir, opts.SessionID)

	// One handler for every iteration keeps a single reader on the input.
	handler := runner.NewTextHandler(opts.In, opts.Out,
		runner.WithTextHandlerRenderer(tui.NewRenderer()),
		runner.WithTextHandlerSystemStyle(tui.System),
	)

	for {
		reload, err := runWatchIteration(sigCtx, app, opts, handler, changes)
		if err != nil {
			return err
		}
		if !reload {
			return nil
		}
		app.Logger.Info("Watcher restarting")
	}
}

// runWatchIteration runs the session until it finishes, the input ends, or a
// change arrives. It reports whether the caller should run again.
func runWatchIteration(parent *SignalContext, app *App, opts RunOptions, handler runner.IOHandler, changes <-chan string) (bool, error) {
	runCtx, cancel := context.WithCancel(parent)
	defer cancel()

	r := runner.New(app.Engine,
		runner.WithForm(opts.FormID),
		runner.WithSessionID(opts.SessionID),
		runner.WithHandler(handler),
		runner.WithLogger(app.Logger),
	)
	done := make(chan error, 1)
	go func() { done <- r.Run(runCtx) }()

	var runErr error
	select {
	case <-parent.Done():
		cancel()
		<-done
		printSystemMessage(opts.Out, "Stopped.")
		return false, nil
	case name, ok := <-changes:
		cancel()
		<-done
		if !ok {
			return false, nil
		}
		fmt.Fprintln(opts.Out)
		printSystemMessage(opts.Out, "Change detected in '%s'.", name)
		time.Sleep(reloadDelay)
		return true, nil
	case runErr = <-done:
	}

	if runErr != nil && !isInterrupted(runErr) {
		// A broken form is reported and fixed in place.
		app.Logger.Error("Runtime error", "err", runErr)
		printSystemMessage(opts.Out, "%v", runErr)
	}
	if errors.Is(runErr, errInterrupted) {
		return false, nil
	}

	printSystemMessage(opts.Out, "Waiting for changes...")
	select {
	case <-parent.Done():
		return false, nil
	case name, ok := <-changes:
		if !ok {
			return false, nil
		}
		printSystemMessage(opts.Out, "Change detected in '%s'.", name)
		time.Sleep(reloadDelay)
		return true, nil
	}
}
