package runner

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/aretw0/formflow/internal/runtime"
	"github.com/aretw0/formflow/pkg/domain"
)

// TextHandler implements the standard line-based interface.
type TextHandler struct {
	Reader   *bufio.Reader
	Writer   io.Writer
	Renderer ContentRenderer
	// System formats meta-messages. Defaults to a "[System]" prefix.
	System func(string) string

	inputChan chan inputResult
	startOnce sync.Once
}

type inputResult struct {
	text string
	err  error
}

// TextHandlerOption defines configuration for TextHandler.
type TextHandlerOption func(*TextHandler)

// WithTextHandlerRenderer configures the content renderer.
func WithTextHandlerRenderer(renderer ContentRenderer) TextHandlerOption {
	return func(h *TextHandler) {
		h.Renderer = renderer
	}
}

// WithTextHandlerSystemStyle configures how meta-messages are styled.
func WithTextHandlerSystemStyle(style func(string) string) TextHandlerOption {
	return func(h *TextHandler) {
		h.System = style
	}
}

// NewTextHandler creates a handler for standard text IO.
func NewTextHandler(r io.Reader, w io.Writer, opts ...TextHandlerOption) *TextHandler {
	if r == nil {
		r = os.Stdin
	}
	if w == nil {
		w = os.Stdout
	}
	h := &TextHandler{
		Reader: bufio.NewReader(r),
		Writer: w,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *TextHandler) initPump() {
	h.startOnce.Do(func() {
		h.inputChan = make(chan inputResult)
		go h.pump()
	})
}

// pump reads lines in the background so Input can honor context cancellation.
func (h *TextHandler) pump() {
	for {
		text, err := h.Reader.ReadString('\n')
		if text != "" {
			h.inputChan <- inputResult{text: text}
		}
		if err != nil {
			if err != io.EOF {
				h.inputChan <- inputResult{err: err}
			}
			close(h.inputChan)
			return
		}
	}
}

func (h *TextHandler) Output(ctx context.Context, step *domain.StepView) error {
	for _, msg := range step.Messages {
		fmt.Fprintln(h.Writer, strings.TrimSpace(h.render(msg)))
	}
	for _, m := range step.Media {
		label := m.Alt
		if label == "" {
			label = m.Type
		}
		fmt.Fprintf(h.Writer, "[%s] %s\n", label, m.URL)
	}
	for _, l := range step.Links {
		fmt.Fprintf(h.Writer, "%s: %s\n", l.Label, l.URL)
	}
	if step.Input.Type == domain.InputChoice {
		for i, opt := range step.Input.Options {
			fmt.Fprintf(h.Writer, "  %d) %s\n", i+1, opt.Label)
		}
	}
	return nil
}

func (h *TextHandler) render(msg string) string {
	if h.Renderer == nil {
		return msg
	}
	rendered, err := h.Renderer(msg)
	if err != nil {
		return msg
	}
	return rendered
}

// Input reads one line. For choice steps a 1-based option number is mapped
// to that option's value; anything else is passed through as typed.
func (h *TextHandler) Input(ctx context.Context, step *domain.StepView) (any, error) {
	h.initPump()

	for {
		prompt := "> "
		if step != nil && step.Input.Placeholder != "" {
			prompt = step.Input.Placeholder + " > "
		}
		fmt.Fprint(h.Writer, prompt)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case res, ok := <-h.inputChan:
			if !ok {
				return nil, io.EOF
			}
			if res.err != nil {
				return nil, res.err
			}
			clean, err := SanitizeInput(strings.TrimSpace(res.text))
			if err != nil {
				fmt.Fprintf(h.Writer, "Error: %v. Please try again.\n", err)
				continue
			}
			return ChoiceByNumber(step, clean), nil
		}
	}
}

func (h *TextHandler) SystemOutput(ctx context.Context, msg string) error {
	if h.System != nil {
		fmt.Fprintln(h.Writer, h.System(msg))
		return nil
	}
	fmt.Fprintf(h.Writer, "[System] %s\n", msg)
	return nil
}

// ChoiceByNumber maps "2" to the second option's value on choice steps.
// Other answers are returned unchanged.
func ChoiceByNumber(step *domain.StepView, text string) any {
	if step == nil || step.Input.Type != domain.InputChoice {
		return text
	}
	n, err := strconv.Atoi(text)
	if err != nil || n < 1 || n > len(step.Input.Options) {
		return text
	}
	// An option whose own value is that number keeps its literal meaning.
	for _, opt := range step.Input.Options {
		if runtime.Stringify(opt.Value) == text {
			return text
		}
	}
	return step.Input.Options[n-1].Value
}
