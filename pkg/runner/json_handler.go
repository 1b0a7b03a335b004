package runner

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"os"
	"strings"

	"github.com/aretw0/formflow/pkg/domain"
)

// JSONHandler implements the IOHandler interface for structured JSON-Lines communication.
//
// Every step is written as one {"type":"step", "step": {...}} line and every
// meta-message as {"type":"system", "message": "..."}. Each input line is a
// JSON value (string, number, bool) or, failing that, raw text.
type JSONHandler struct {
	Reader  *bufio.Reader
	Encoder *json.Encoder
}

// Event is one line written by the JSONHandler.
type Event struct {
	Type    string           `json:"type"`
	Step    *domain.StepView `json:"step,omitempty"`
	Message string           `json:"message,omitempty"`
}

// NewJSONHandler creates a handler for JSON IO.
func NewJSONHandler(r io.Reader, w io.Writer) *JSONHandler {
	if r == nil {
		r = os.Stdin
	}
	if w == nil {
		w = os.Stdout
	}
	return &JSONHandler{
		Reader:  bufio.NewReader(r),
		Encoder: json.NewEncoder(w),
	}
}

func (h *JSONHandler) Output(ctx context.Context, step *domain.StepView) error {
	return h.Encoder.Encode(Event{Type: "step", Step: step})
}

func (h *JSONHandler) Input(ctx context.Context, step *domain.StepView) (any, error) {
	text, err := h.Reader.ReadString('\n')
	if err != nil && (err != io.EOF || text == "") {
		return nil, err
	}
	text = strings.TrimSpace(text)

	var val any
	if err := json.Unmarshal([]byte(text), &val); err == nil {
		return SanitizeAnswer(val)
	}
	return SanitizeInput(text)
}

func (h *JSONHandler) SystemOutput(ctx context.Context, msg string) error {
	return h.Encoder.Encode(Event{Type: "system", Message: msg})
}
