package dispatch_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/formflow/internal/dispatch"
	"github.com/aretw0/formflow/pkg/adapters/process"
	"github.com/aretw0/formflow/pkg/domain"
)

type recordingMailer struct {
	mu   sync.Mutex
	sent []dispatch.Message
}

func (m *recordingMailer) Send(_ context.Context, msg dispatch.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return nil
}

func job(actions ...domain.ActionConfig) domain.DispatchJob {
	return domain.DispatchJob{
		FormID:       "form-1",
		FormName:     "Signup",
		SubmissionID: "sub-1",
		SessionID:    "sess-1",
		Data:         map[string]any{"name": "Ann", "country": "Peru|+51"},
		DataOrder:    []string{"name", "country"},
		SubmittedAt:  time.Date(2026, 1, 2, 15, 4, 0, 0, time.UTC),
		Actions:      actions,
	}
}

func TestDecodeWebhook(t *testing.T) {
	a, err := dispatch.DecodeWebhook(domain.ActionConfig{Config: map[string]any{
		"url":     "http://hooks.test/x",
		"method":  "put",
		"headers": map[string]any{"X-Token": "abc"},
	}})
	require.NoError(t, err)
	assert.Equal(t, "PUT", a.Method)
	assert.Equal(t, "abc", a.Headers["X-Token"])

	a, err = dispatch.DecodeWebhook(domain.ActionConfig{Config: map[string]any{"url": "http://hooks.test"}})
	require.NoError(t, err)
	assert.Equal(t, http.MethodPost, a.Method)

	_, err = dispatch.DecodeWebhook(domain.ActionConfig{Config: map[string]any{}})
	assert.Error(t, err)
}

func TestDecodeEmail(t *testing.T) {
	a, err := dispatch.DecodeEmail(domain.ActionConfig{Config: map[string]any{
		"recipients": []any{"ops@example.com"},
		"subject":    "Hi",
	}})
	require.NoError(t, err)
	assert.Equal(t, []string{"ops@example.com"}, a.Recipients)

	_, err = dispatch.DecodeEmail(domain.ActionConfig{Config: map[string]any{"subject": "x"}})
	assert.Error(t, err)
}

func TestExecutor_Webhook(t *testing.T) {
	var got dispatch.WebhookPayload
	var header string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header = r.Header.Get("X-Token")
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	x := dispatch.NewExecutor()
	results := x.Run(context.Background(), job(domain.ActionConfig{
		Type:    domain.ActionWebhook,
		Enabled: true,
		Config:  map[string]any{"url": srv.URL, "headers": map[string]any{"X-Token": "t"}},
	}))

	require.Len(t, results, 1)
	require.NoError(t, results[0].Err)
	assert.Equal(t, "t", header)
	assert.Equal(t, "Signup", got.FormName)
	assert.Equal(t, "sub-1", got.SubmissionID)
	assert.Equal(t, "Ann", got.Data["name"])
}

func TestExecutor_AllSettled(t *testing.T) {
	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer failing.Close()

	mailer := &recordingMailer{}
	x := dispatch.NewExecutor(dispatch.WithMailer(mailer))
	results := x.Run(context.Background(), job(
		domain.ActionConfig{Type: domain.ActionWebhook, Config: map[string]any{"url": failing.URL}},
		domain.ActionConfig{Type: domain.ActionEmail, Config: map[string]any{"recipients": []string{"ops@example.com"}}},
		domain.ActionConfig{Type: "sms"},
	))

	require.Len(t, results, 3)
	assert.ErrorContains(t, results[0].Err, "500")
	assert.NoError(t, results[1].Err)
	assert.ErrorContains(t, results[2].Err, "unknown action type")

	require.Len(t, mailer.sent, 1)
	msg := mailer.sent[0]
	assert.Equal(t, "New submission: Signup", msg.Subject)
	assert.Contains(t, msg.Body, "name: Ann\ncountry: Peru +51\n")
}

type panickingMailer struct{}

func (panickingMailer) Send(context.Context, dispatch.Message) error {
	panic("smtp client exploded")
}

type panickingRunner struct{}

func (panickingRunner) Run(context.Context, string, domain.DispatchJob) (string, error) {
	panic("runner exploded")
}

func TestExecutor_PanicIsolated(t *testing.T) {
	hits := make(chan struct{}, 1)
	ok := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits <- struct{}{}
	}))
	defer ok.Close()

	x := dispatch.NewExecutor(dispatch.WithMailer(panickingMailer{}), dispatch.WithCommandRunner(panickingRunner{}))
	results := x.Run(context.Background(), job(
		domain.ActionConfig{Type: domain.ActionEmail, Config: map[string]any{"recipients": []string{"ops@example.com"}}},
		domain.ActionConfig{Type: domain.ActionWebhook, Config: map[string]any{"url": ok.URL}},
		domain.ActionConfig{Type: domain.ActionCommand, Config: map[string]any{"name": "notify"}},
	))

	require.Len(t, results, 3)
	assert.ErrorContains(t, results[0].Err, "smtp client exploded")
	assert.NoError(t, results[1].Err)
	assert.ErrorContains(t, results[2].Err, "runner exploded")
	assert.Len(t, hits, 1)
}

func TestExecutor_PerActionTimeout(t *testing.T) {
	release := make(chan struct{})
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer slow.Close()
	defer close(release)

	mailer := &recordingMailer{}
	x := dispatch.NewExecutor(dispatch.WithMailer(mailer), dispatch.WithActionTimeout(50*time.Millisecond))
	results := x.Run(context.Background(), job(
		domain.ActionConfig{Type: domain.ActionWebhook, Config: map[string]any{"url": slow.URL}},
		domain.ActionConfig{Type: domain.ActionEmail, Config: map[string]any{"recipients": []string{"a@b.co"}, "subject": "{name} finished"}},
	))

	assert.Error(t, results[0].Err)
	assert.NoError(t, results[1].Err)
	assert.Equal(t, "Ann finished", mailer.sent[0].Subject)
}

func TestExecutor_Command(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts are POSIX only")
	}
	runner := process.NewRunner()
	runner.Register("greet", "sh", "-c", `test "$FORMFLOW_DATA_NAME" = Ann`)

	action := func(name string) domain.ActionConfig {
		return domain.ActionConfig{Type: domain.ActionCommand, Enabled: true, Config: map[string]any{"name": name}}
	}

	results := dispatch.NewExecutor(dispatch.WithCommandRunner(runner)).
		Run(context.Background(), job(action("greet"), action("rm-rf"), domain.ActionConfig{Type: domain.ActionCommand}))
	require.Len(t, results, 3)
	assert.NoError(t, results[0].Err)
	assert.ErrorContains(t, results[1].Err, "not registered")
	assert.ErrorContains(t, results[2].Err, "name is required")

	results = dispatch.NewExecutor().Run(context.Background(), job(action("greet")))
	assert.ErrorContains(t, results[0].Err, "command actions are disabled")
}

func TestQueue(t *testing.T) {
	mailer := &recordingMailer{}
	var mu sync.Mutex
	var events []*domain.ActionEvent
	hooks := domain.LifecycleHooks{
		OnActionResult: func(_ context.Context, e *domain.ActionEvent) {
			mu.Lock()
			defer mu.Unlock()
			events = append(events, e)
		},
	}

	q := dispatch.NewQueue(dispatch.NewExecutor(dispatch.WithMailer(mailer)), dispatch.WithHooks(hooks), dispatch.WithWorkers(3))
	email := domain.ActionConfig{Type: domain.ActionEmail, Config: map[string]any{"recipients": []string{"a@b.co"}}}
	for i := 0; i < 5; i++ {
		require.NoError(t, q.Enqueue(context.Background(), job(email)))
	}
	require.NoError(t, q.Close())

	assert.Len(t, mailer.sent, 5)
	require.Len(t, events, 5)
	assert.Equal(t, domain.EventActionResult, events[0].Type)
	assert.Equal(t, "sub-1", events[0].SubmissionID)
	assert.False(t, events[0].IsError)

	assert.ErrorIs(t, q.Enqueue(context.Background(), job(email)), dispatch.ErrQueueClosed)
	assert.NoError(t, q.Close(), "close is idempotent")
}
