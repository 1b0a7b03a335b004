package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aretw0/formflow/internal/presentation/tui"
	"github.com/aretw0/formflow/pkg/runner"
)

// RunSession walks one respondent session in the terminal.
func RunSession(app *App, opts RunOptions) error {
	sigCtx := NewSignalContext(context.Background())
	defer sigCtx.Cancel()

	if opts.Fresh {
		if err := resetSession(sigCtx, app, opts.SessionID); err != nil {
			return fmt.Errorf("failed to reset session: %w", err)
		}
	}

	interactive := !opts.JSON && IsTerminal(opts.In)
	handler, closeHandler, err := newHandler(opts, interactive)
	if err != nil {
		return err
	}
	defer closeHandler()

	if interactive && !opts.Quiet {
		tui.PrintBanner(opts.Out)
	}

	r := runner.New(app.Engine,
		runner.WithForm(opts.FormID),
		runner.WithSessionID(opts.SessionID),
		runner.WithHandler(handler),
		runner.WithLogger(app.Logger),
	)
	runErr := r.Run(sigCtx)
	if sigCtx.Err() != nil && runErr == nil {
		runErr = sigCtx.Err()
	}

	if (runErr == nil || isInterrupted(runErr)) && !r.Done() && !opts.JSON && !opts.Quiet && r.SessionID != "" {
		printSystemMessage(opts.Out, "Session '%s' saved. Resume with --session %s", r.SessionID, r.SessionID)
	}
	return handleExecutionError(runErr)
}

func newHandler(opts RunOptions, interactive bool) (runner.IOHandler, func(), error) {
	switch {
	case opts.JSON:
		return runner.NewJSONHandler(opts.In, opts.Out), func() {}, nil
	case interactive:
		h, err := NewPromptHandler(historyPath())
		if err != nil {
			return nil, nil, err
		}
		return h, func() { _ = h.Close() }, nil
	default:
		return runner.NewTextHandler(opts.In, opts.Out), func() {}, nil
	}
}

func historyPath() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return ""
	}
	dir = filepath.Join(dir, "formflow")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return ""
	}
	return filepath.Join(dir, "history")
}
