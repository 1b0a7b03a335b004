// Package process runs allow-listed local programs as post-completion actions.
// The completed submission reaches the program as JSON on stdin and as
// FORMFLOW_* environment variables; it is never spliced into arguments.
package process

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
	"time"
	"unicode"

	"github.com/aretw0/formflow/pkg/domain"
	"github.com/aretw0/formflow/pkg/registry"
)

// waitDelay bounds how long output is drained after the context kills the process.
const waitDelay = time.Second

// Runner executes registered commands. It follows a strict allow-list:
// names that were not registered are never resolved to a program.
type Runner struct {
	commands *registry.Registry[Command]
	baseDir  string
}

// RunnerOption configures the runner.
type RunnerOption func(*Runner)

// WithCommands populates the allow-list from a loaded config.
func WithCommands(commands map[string]Command) RunnerOption {
	return func(r *Runner) {
		for name, c := range commands {
			c.Name = name
			r.commands.Register(name, c)
		}
	}
}

// WithBaseDir sets the working directory for executed processes.
func WithBaseDir(dir string) RunnerOption {
	return func(r *Runner) {
		r.baseDir = dir
	}
}

// NewRunner creates a new process Runner.
func NewRunner(opts ...RunnerOption) *Runner {
	r := &Runner{commands: registry.New[Command]()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds a trusted command to the allow-list.
func (r *Runner) Register(name string, command string, args ...string) {
	r.commands.Register(name, Command{Name: name, Command: command, Args: args})
}

// Names lists the allow-listed commands.
func (r *Runner) Names() []string {
	return r.commands.Names()
}

// Payload is the JSON document written to the command's stdin.
type Payload struct {
	FormID       string         `json:"formId"`
	FormName     string         `json:"formName"`
	SubmissionID string         `json:"submissionId"`
	SessionID    string         `json:"sessionId"`
	Data         map[string]any `json:"data"`
	SubmittedAt  time.Time      `json:"submittedAt"`
}

// Run executes the command registered as name for job and returns its
// trimmed stdout. A non-zero exit is an error carrying stderr.
func (r *Runner) Run(ctx context.Context, name string, job domain.DispatchJob) (string, error) {
	c, ok := r.commands.Get(name)
	if !ok {
		return "", fmt.Errorf("command not registered: %s", name)
	}

	stdin, err := json.Marshal(Payload{
		FormID:       job.FormID,
		FormName:     job.FormName,
		SubmissionID: job.SubmissionID,
		SessionID:    job.SessionID,
		Data:         job.Data,
		SubmittedAt:  job.SubmittedAt,
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode command payload: %w", err)
	}

	cmd := exec.CommandContext(ctx, c.Command, c.Args...)
	cmd.Dir = r.baseDir
	cmd.WaitDelay = waitDelay
	cmd.Env = append(cmd.Environ(), environment(c, job)...)
	cmd.Stdin = bytes.NewReader(stdin)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("command %s failed: %w: %s", name, err, strings.TrimSpace(stderr.String()))
	}
	return strings.TrimSpace(stdout.String()), nil
}

func environment(c Command, job domain.DispatchJob) []string {
	env := []string{
		"FORMFLOW_FORM_ID=" + job.FormID,
		"FORMFLOW_FORM_NAME=" + job.FormName,
		"FORMFLOW_SUBMISSION_ID=" + job.SubmissionID,
		"FORMFLOW_SESSION_ID=" + job.SessionID,
	}
	for k, v := range job.Data {
		env = append(env, fmt.Sprintf("FORMFLOW_DATA_%s=%s", envName(k), envValue(v)))
	}
	for k, v := range c.Environment {
		env = append(env, k+"="+v)
	}
	return env
}

// envName upper-cases a variable name and replaces anything outside
// [A-Z0-9_] with an underscore.
func envName(k string) string {
	return strings.Map(func(r rune) rune {
		r = unicode.ToUpper(r)
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_' {
			return r
		}
		return '_'
	}, k)
}

// envValue formats primitives directly and complex values as JSON.
func envValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case int, int64, float64, bool:
		return fmt.Sprintf("%v", val)
	default:
		if b, err := json.Marshal(val); err == nil {
			return string(b)
		}
		return fmt.Sprintf("%v", val)
	}
}
