package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"

	"github.com/aretw0/formflow/internal/presentation/tui"
	"github.com/aretw0/formflow/pkg/domain"
	"github.com/aretw0/formflow/pkg/runner"
)

// errInterrupted is returned by PromptHandler.Input on Ctrl+C.
var errInterrupted = errors.New("interrupted")

// PromptHandler is the interactive terminal handler: readline for input with
// history and option completion, glamour for step content.
type PromptHandler struct {
	*runner.TextHandler
	rl *readline.Instance
}

// NewPromptHandler opens a readline instance on the terminal.
func NewPromptHandler(historyFile string) (*PromptHandler, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "> ",
		HistoryFile:     historyFile,
		InterruptPrompt: "^C",
		EOFPrompt:       "quit",
	})
	if err != nil {
		return nil, fmt.Errorf("init readline: %w", err)
	}
	text := runner.NewTextHandler(strings.NewReader(""), rl.Stdout(),
		runner.WithTextHandlerRenderer(tui.NewRenderer()),
		runner.WithTextHandlerSystemStyle(tui.System),
	)
	return &PromptHandler{TextHandler: text, rl: rl}, nil
}

// Input reads one line. Tab completes option labels on choice steps.
func (h *PromptHandler) Input(ctx context.Context, step *domain.StepView) (any, error) {
	h.rl.SetPrompt(PromptFor(step))
	h.rl.Config.AutoComplete = OptionCompleter(step)

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		line, err := h.rl.Readline()
		switch {
		case errors.Is(err, readline.ErrInterrupt):
			return nil, errInterrupted
		case err != nil:
			return nil, err
		}
		clean, err := runner.SanitizeInput(strings.TrimSpace(line))
		if err != nil {
			fmt.Fprintln(h.Writer, tui.Error(fmt.Sprintf("Error: %v. Please try again.", err)))
			continue
		}
		return runner.ChoiceByNumber(step, clean), nil
	}
}

// Close restores the terminal.
func (h *PromptHandler) Close() error {
	return h.rl.Close()
}

// PromptFor builds the prompt shown while a step waits for input.
func PromptFor(step *domain.StepView) string {
	if step != nil && step.Input.Placeholder != "" {
		return step.Input.Placeholder + " > "
	}
	return "> "
}

// OptionCompleter completes the labels of a choice step, or nothing.
func OptionCompleter(step *domain.StepView) readline.AutoCompleter {
	pc := readline.NewPrefixCompleter()
	if step == nil || step.Input.Type != domain.InputChoice {
		return pc
	}
	for _, opt := range step.Input.Options {
		pc.Children = append(pc.Children, readline.PcItem(opt.Label))
	}
	return pc
}

var _ io.Closer = (*PromptHandler)(nil)
