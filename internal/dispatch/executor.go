package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/aretw0/formflow/internal/logging"
	"github.com/aretw0/formflow/internal/runtime"
	"github.com/aretw0/formflow/pkg/domain"
)

// DefaultActionTimeout bounds each action independently.
const DefaultActionTimeout = 30 * time.Second

// Result is the outcome of one action of a job.
type Result struct {
	Action   domain.ActionConfig
	Duration time.Duration
	Err      error
}

// CommandRunner runs allow-listed programs for command actions.
type CommandRunner interface {
	Run(ctx context.Context, name string, job domain.DispatchJob) (string, error)
}

// Executor runs the actions of a dispatch job.
type Executor struct {
	mailer   Mailer
	client   *http.Client
	commands CommandRunner
	timeout  time.Duration
	logger   *slog.Logger
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithMailer sets the mailer used by email actions.
func WithMailer(m Mailer) ExecutorOption {
	return func(x *Executor) {
		x.mailer = m
	}
}

// WithHTTPClient sets the client used by webhook actions.
func WithHTTPClient(c *http.Client) ExecutorOption {
	return func(x *Executor) {
		x.client = c
	}
}

// WithCommandRunner enables command actions. Without it they fail.
func WithCommandRunner(r CommandRunner) ExecutorOption {
	return func(x *Executor) {
		x.commands = r
	}
}

// WithActionTimeout overrides DefaultActionTimeout.
func WithActionTimeout(d time.Duration) ExecutorOption {
	return func(x *Executor) {
		if d > 0 {
			x.timeout = d
		}
	}
}

// WithExecutorLogger sets the executor logger.
func WithExecutorLogger(l *slog.Logger) ExecutorOption {
	return func(x *Executor) {
		if l != nil {
			x.logger = l
		}
	}
}

// NewExecutor creates an Executor. Email goes to a LogMailer unless WithMailer is given.
func NewExecutor(opts ...ExecutorOption) *Executor {
	x := &Executor{
		client:  http.DefaultClient,
		timeout: DefaultActionTimeout,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(x)
	}
	if x.mailer == nil {
		x.mailer = LogMailer{Logger: x.logger}
	}
	return x
}

// Run executes every action of job concurrently and waits for all of them.
// A failing action never cancels its siblings. Results keep the action order.
func (x *Executor) Run(ctx context.Context, job domain.DispatchJob) []Result {
	results := make([]Result, len(job.Actions))
	var g errgroup.Group
	for i, action := range job.Actions {
		g.Go(func() error {
			actx, cancel := context.WithTimeout(ctx, x.timeout)
			defer cancel()

			start := time.Now()
			err := x.safeRunOne(actx, job, action)
			results[i] = Result{Action: action, Duration: time.Since(start), Err: err}
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// safeRunOne turns a panicking action into a failed result.
func (x *Executor) safeRunOne(ctx context.Context, job domain.DispatchJob, action domain.ActionConfig) (err error) {
	defer func() {
		if r := recover(); r != nil {
			x.logger.Error("Action panicked", "action", action.Type, "submission_id", job.SubmissionID, "panic", r)
			err = fmt.Errorf("%s action panicked: %v", action.Type, r)
		}
	}()
	return x.runOne(ctx, job, action)
}

func (x *Executor) runOne(ctx context.Context, job domain.DispatchJob, action domain.ActionConfig) error {
	switch action.Type {
	case domain.ActionEmail:
		a, err := DecodeEmail(action)
		if err != nil {
			return err
		}
		return x.sendEmail(ctx, job, a)
	case domain.ActionWebhook:
		a, err := DecodeWebhook(action)
		if err != nil {
			return err
		}
		return x.postWebhook(ctx, job, a)
	case domain.ActionCommand:
		a, err := DecodeCommand(action)
		if err != nil {
			return err
		}
		return x.runCommand(ctx, job, a)
	default:
		return fmt.Errorf("unknown action type %q", action.Type)
	}
}

func (x *Executor) sendEmail(ctx context.Context, job domain.DispatchJob, a EmailAction) error {
	subject := a.Subject
	if subject == "" {
		subject = "New submission: " + job.FormName
	}
	subject = runtime.Interpolate(subject, job.Data)
	return x.mailer.Send(ctx, Message{To: a.Recipients, Subject: subject, Body: EmailBody(job)})
}

func (x *Executor) runCommand(ctx context.Context, job domain.DispatchJob, a CommandAction) error {
	if x.commands == nil {
		return fmt.Errorf("command actions are disabled: cannot run %s", a.Name)
	}
	out, err := x.commands.Run(ctx, a.Name, job)
	if err != nil {
		return err
	}
	x.logger.Debug("Command finished", "command", a.Name, "submission_id", job.SubmissionID, "output", out)
	return nil
}

// EmailBody lists the collected answers in the order they were first given.
func EmailBody(job domain.DispatchJob) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Form: %s\nSubmitted: %s\n\n", job.FormName, job.SubmittedAtText())
	sub := domain.Submission{Data: job.Data, DataOrder: job.DataOrder}
	for _, kv := range sub.OrderedData() {
		fmt.Fprintf(&b, "%s: %s\n", kv.Key, runtime.DisplayValue(kv.Value))
	}
	return b.String()
}

// WebhookPayload is the JSON body posted by webhook actions.
type WebhookPayload struct {
	FormName     string         `json:"formName"`
	SubmissionID string         `json:"submissionId"`
	Data         map[string]any `json:"data"`
	SubmittedAt  time.Time      `json:"submittedAt"`
}

func (x *Executor) postWebhook(ctx context.Context, job domain.DispatchJob, a WebhookAction) error {
	body, err := json.Marshal(WebhookPayload{
		FormName:     job.FormName,
		SubmissionID: job.SubmissionID,
		Data:         job.Data,
		SubmittedAt:  job.SubmittedAt,
	})
	if err != nil {
		return fmt.Errorf("failed to encode webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, a.Method, a.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("invalid webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range a.Headers {
		req.Header.Set(k, v)
	}

	resp, err := x.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook request failed: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}
