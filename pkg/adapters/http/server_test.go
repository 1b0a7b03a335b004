package http_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/formflow/internal/runtime"
	httpadapter "github.com/aretw0/formflow/pkg/adapters/http"
	"github.com/aretw0/formflow/pkg/adapters/memory"
	"github.com/aretw0/formflow/pkg/domain"
	"github.com/aretw0/formflow/pkg/session"
)

func signupForm() domain.Form {
	return domain.Form{
		ID:       "signup",
		PublicID: "join",
		Name:     "Signup",
		Settings: domain.FormSettings{CompletionMessage: "Welcome aboard, {name}"},
		Steps: []domain.Step{
			{
				ID:      "ask-name",
				Display: domain.Display{Messages: []string{"Name?"}},
				Input:   domain.Input{Type: domain.InputText, DataType: domain.DataName},
				Collect: &domain.Collect{Enabled: true, VariableName: "name"},
			},
			{
				ID:      "ask-email",
				Display: domain.Display{Messages: []string{"Email, {name}?"}},
				Input:   domain.Input{Type: domain.InputText, DataType: domain.DataEmail},
				Collect: &domain.Collect{Enabled: true, VariableName: "email"},
			},
		},
	}
}

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	engine := runtime.NewEngine(memory.NewLoader(signupForm()), session.NewManager(memory.NewStore()), memory.NewCounters())
	h, err := httpadapter.NewHandler(engine, httpadapter.WithGatherer(prometheus.NewRegistry()))
	require.NoError(t, err)
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return srv
}

func post(t *testing.T, url string, body any) (*http.Response, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	resp, err := http.Post(url, "application/json", &buf)
	require.NoError(t, err)
	defer resp.Body.Close()

	out := map[string]any{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp, out
}

func TestServer_Flow(t *testing.T) {
	srv := newServer(t)

	resp, start := post(t, srv.URL+"/forms/join/sessions", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	sessionID, _ := start["sessionId"].(string)
	require.NotEmpty(t, sessionID)
	assert.Equal(t, "ask-name", start["step"].(map[string]any)["stepId"])

	answers := srv.URL + "/forms/join/sessions/" + sessionID + "/answers"

	resp, res := post(t, answers, map[string]any{"stepId": "ask-name", "answer": "dana\x00 scully"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, res["accepted"])
	assert.Equal(t, []any{"Email, Dana Scully?"}, res["nextStep"].(map[string]any)["messages"])

	resp, res = post(t, answers, map[string]any{"stepId": "ask-email", "answer": "nope"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, false, res["accepted"])
	assert.Equal(t, runtime.MsgInvalidEmail, res["validationError"])

	resp, res = post(t, answers, map[string]any{"stepId": "ask-email", "answer": "dana@fbi.gov", "timeSpentMs": 1200})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, res["isComplete"])
	assert.Equal(t, "Welcome aboard, Dana Scully", res["message"])

	resp, res = post(t, answers, map[string]any{"stepId": "ask-email", "answer": "again@fbi.gov"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Contains(t, res["error"], "completed")

	stats, err := http.Get(srv.URL + "/forms/signup/stats")
	require.NoError(t, err)
	defer stats.Body.Close()
	var totals map[string]float64
	require.NoError(t, json.NewDecoder(stats.Body).Decode(&totals))
	assert.Equal(t, map[string]float64{"views": 1, "starts": 1, "completions": 1, "completionRate": 1}, totals)
}

func TestServer_Errors(t *testing.T) {
	srv := newServer(t)

	tests := []struct {
		name   string
		url    string
		body   any
		status int
	}{
		{"unknown form", "/forms/nope/sessions", nil, http.StatusNotFound},
		{"missing step id", "/forms/signup/sessions/s1/answers", map[string]any{"answer": "x"}, http.StatusBadRequest},
		{"unknown step", "/forms/signup/sessions/s1/answers", map[string]any{"stepId": "ghost", "answer": "x"}, http.StatusBadRequest},
		{"oversized answer", "/forms/signup/sessions/s1/answers", map[string]any{"stepId": "ask-name", "answer": strings.Repeat("a", 5000)}, http.StatusRequestEntityTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := post(t, srv.URL+tt.url, tt.body)
			assert.Equal(t, tt.status, resp.StatusCode)
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestServer_Introspection(t *testing.T) {
	srv := newServer(t)

	t.Run("graph", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/forms/signup/graph")
		require.NoError(t, err)
		defer resp.Body.Close()
		var buf bytes.Buffer
		_, _ = buf.ReadFrom(resp.Body)
		assert.True(t, strings.HasPrefix(buf.String(), "graph TD"))
		assert.Contains(t, buf.String(), "ask_name -.-> ask_email")
	})

	t.Run("form", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/forms/signup")
		require.NoError(t, err)
		defer resp.Body.Close()
		var form domain.Form
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&form))
		assert.Equal(t, "Signup", form.Name)
	})

	t.Run("info", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/info")
		require.NoError(t, err)
		defer resp.Body.Close()
		var info httpadapter.InfoResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&info))
		assert.Equal(t, "formflow API", info.Title)
		assert.Contains(t, info.Routes, "POST /forms/{formID}/sessions/{sessionID}/answers")
	})

	t.Run("health and metrics", func(t *testing.T) {
		for _, path := range []string{"/health", "/metrics", "/openapi.yaml"} {
			resp, err := http.Get(srv.URL + path)
			require.NoError(t, err)
			resp.Body.Close()
			assert.Equal(t, http.StatusOK, resp.StatusCode, path)
		}
	})

	t.Run("cors preflight", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodOptions, srv.URL+"/forms/signup/sessions", nil)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
	})
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, httpadapter.StatusFor(&domain.StepMismatchError{ReplayStepID: "r", StepID: "q"}))
	assert.Equal(t, http.StatusConflict, httpadapter.StatusFor(domain.ErrSessionFormMismatch))
	assert.Equal(t, http.StatusInternalServerError, httpadapter.StatusFor(assert.AnError))
}
