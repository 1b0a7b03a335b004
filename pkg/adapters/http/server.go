// Package http exposes the form flow engine over a JSON HTTP API.
package http

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aretw0/formflow/internal/logging"
	"github.com/aretw0/formflow/internal/presentation/graph"
	"github.com/aretw0/formflow/pkg/domain"
	"github.com/aretw0/formflow/pkg/ports"
	"github.com/aretw0/formflow/pkg/runner"
)

//go:embed openapi.yaml
var rawSpec []byte

// Engine is the flow surface plus the per-form totals.
type Engine interface {
	ports.FlowEngine
	Counters(ctx context.Context, formID string) (domain.Counters, error)
}

// Server serves the formflow HTTP API.
type Server struct {
	Engine   Engine
	Logger   *slog.Logger
	Gatherer prometheus.Gatherer

	spec *openapi3.T
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.Logger = logger
		}
	}
}

// WithGatherer sets the registry served on /metrics.
// Defaults to the global Prometheus registry.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.Gatherer = g
	}
}

// Spec parses the embedded OpenAPI document.
func Spec(ctx context.Context) (*openapi3.T, error) {
	doc, err := openapi3.NewLoader().LoadFromData(rawSpec)
	if err != nil {
		return nil, fmt.Errorf("failed to load openapi document: %w", err)
	}
	if err := doc.Validate(ctx); err != nil {
		return nil, fmt.Errorf("invalid openapi document: %w", err)
	}
	return doc, nil
}

// NewHandler creates a new HTTP handler for the engine.
func NewHandler(engine Engine, opts ...Option) (http.Handler, error) {
	spec, err := Spec(context.Background())
	if err != nil {
		return nil, err
	}
	s := &Server{
		Engine:   engine,
		Logger:   logging.NewNop(),
		Gatherer: prometheus.DefaultGatherer,
		spec:     spec,
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)
	r.Use(enableCORS)

	r.Get("/health", s.Health)
	r.Get("/info", s.Info)
	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/yaml")
		_, _ = w.Write(rawSpec)
	})
	r.Get("/swagger", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(swaggerHTML))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.Gatherer, promhttp.HandlerOpts{}))

	r.Route("/forms/{formID}", func(r chi.Router) {
		r.Get("/", s.GetForm)
		r.Get("/graph", s.GetGraph)
		r.Get("/stats", s.GetStats)
		r.Post("/sessions", s.StartSession)
		r.Post("/sessions/{sessionID}/answers", s.SubmitAnswer)
	})
	return r, nil
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.Logger.Debug("HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}

const swaggerHTML = `
<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="utf-8" />
    <meta name="viewport" content="width=device-width, initial-scale=1" />
    <title>formflow API Documentation</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui.css" />
</head>
<body>
<div id="swagger-ui"></div>
<script src="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui-bundle.js" crossorigin></script>
<script>
    window.onload = () => {
    window.ui = SwaggerUIBundle({
        url: '/openapi.yaml',
        dom_id: '#swagger-ui',
    });
    };
</script>
</body>
</html>
`

// Health handles GET /health.
func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// InfoResponse describes the API.
type InfoResponse struct {
	Title   string   `json:"title"`
	Version string   `json:"version"`
	Routes  []string `json:"routes"`
}

// Info handles GET /info from the parsed OpenAPI document.
func (s *Server) Info(w http.ResponseWriter, r *http.Request) {
	resp := InfoResponse{Title: s.spec.Info.Title, Version: s.spec.Info.Version}
	for path, item := range s.spec.Paths.Map() {
		for method := range item.Operations() {
			resp.Routes = append(resp.Routes, method+" "+path)
		}
	}
	sort.Strings(resp.Routes)
	writeJSON(w, http.StatusOK, resp)
}

// GetForm handles GET /forms/{formID}.
func (s *Server) GetForm(w http.ResponseWriter, r *http.Request) {
	form, err := s.Engine.Inspect(r.Context(), chi.URLParam(r, "formID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, form)
}

// GetGraph handles GET /forms/{formID}/graph.
func (s *Server) GetGraph(w http.ResponseWriter, r *http.Request) {
	form, err := s.Engine.Inspect(r.Context(), chi.URLParam(r, "formID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(graph.GenerateMermaid(form, nil)))
}

// StatsResponse is the per-form totals with the derived completion rate.
type StatsResponse struct {
	domain.Counters
	CompletionRate float64 `json:"completionRate"`
}

// GetStats handles GET /forms/{formID}/stats.
func (s *Server) GetStats(w http.ResponseWriter, r *http.Request) {
	c, err := s.Engine.Counters(r.Context(), chi.URLParam(r, "formID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, StatsResponse{Counters: c, CompletionRate: c.CompletionRate()})
}

// StartRequest is the optional body of POST /forms/{formID}/sessions.
type StartRequest struct {
	SessionID string `json:"sessionId,omitempty"`
}

// StartSession handles POST /forms/{formID}/sessions.
func (s *Server) StartSession(w http.ResponseWriter, r *http.Request) {
	var body StartRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		s.writeError(w, r, fmt.Errorf("%w: %v", domain.ErrInvalidRequest, err))
		return
	}
	res, err := s.Engine.StartOrResume(r.Context(), chi.URLParam(r, "formID"), body.SessionID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// AnswerRequest is the body of POST /forms/{formID}/sessions/{sessionID}/answers.
type AnswerRequest struct {
	StepID       string `json:"stepId"`
	ReplayStepID string `json:"replayStepId,omitempty"`
	Answer       any    `json:"answer"`
	TimeSpentMs  int64  `json:"timeSpentMs,omitempty"`
}

// SubmitAnswer handles POST /forms/{formID}/sessions/{sessionID}/answers.
func (s *Server) SubmitAnswer(w http.ResponseWriter, r *http.Request) {
	var body AnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, r, fmt.Errorf("%w: %v", domain.ErrInvalidRequest, err))
		return
	}
	if body.StepID == "" {
		s.writeError(w, r, fmt.Errorf("%w: stepId is required", domain.ErrInvalidRequest))
		return
	}

	answer, err := runner.SanitizeAnswer(body.Answer)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	res, err := s.Engine.SubmitAnswer(r.Context(), domain.SubmitRequest{
		FormID:       chi.URLParam(r, "formID"),
		SessionID:    chi.URLParam(r, "sessionID"),
		StepID:       body.StepID,
		ReplayStepID: body.ReplayStepID,
		Answer:       answer,
		TimeSpent:    time.Duration(body.TimeSpentMs) * time.Millisecond,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error string `json:"error"`
}

// StatusFor maps engine errors onto HTTP status codes.
func StatusFor(err error) int {
	var mismatch *domain.StepMismatchError
	switch {
	case errors.Is(err, domain.ErrFormNotFound),
		errors.Is(err, domain.ErrFormNotPublished):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrSessionCompleted),
		errors.Is(err, domain.ErrSessionFormMismatch):
		return http.StatusConflict
	case errors.Is(err, runner.ErrInputTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, domain.ErrInvalidRequest),
		errors.Is(err, domain.ErrStepNotFound),
		errors.Is(err, runner.ErrInvalidUTF8),
		errors.As(err, &mismatch):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		s.Logger.Error("Request failed", "path", r.URL.Path, "err", err)
		msg = http.StatusText(status)
	} else {
		s.Logger.Warn("Request rejected", "path", r.URL.Path, "status", status, "err", err)
	}
	writeJSON(w, status, ErrorResponse{Error: strings.TrimSpace(msg)})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
