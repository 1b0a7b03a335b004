// Package mcp exposes the form flow engine as Model Context Protocol tools,
// so an assistant can walk a respondent through a form.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/aretw0/formflow/internal/logging"
	"github.com/aretw0/formflow/pkg/domain"
	"github.com/aretw0/formflow/pkg/ports"
	"github.com/aretw0/formflow/pkg/runner"
)

// FormURIPrefix addresses a single form resource.
const FormURIPrefix = "formflow://forms/"

// StartArgs are the arguments of the start_session tool.
type StartArgs struct {
	FormID    string `json:"form_id"`
	SessionID string `json:"session_id,omitempty"`
}

// AnswerArgs are the arguments of the submit_answer tool.
type AnswerArgs struct {
	FormID       string `json:"form_id"`
	SessionID    string `json:"session_id"`
	StepID       string `json:"step_id"`
	ReplayStepID string `json:"replay_step_id,omitempty"`
	Answer       any    `json:"answer"`
}

// FormArgs are the arguments of the get_form tool.
type FormArgs struct {
	FormID string `json:"form_id"`
}

// Server wraps the engine and exposes it as an MCP Server.
type Server struct {
	engine    ports.FlowEngine
	loader    ports.FormLoader
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(engine ports.FlowEngine, loader ports.FormLoader, version string, opts ...Option) *Server {
	s := &Server{
		engine: engine,
		loader: loader,
		logger: logging.NewNop(),
		mcpServer: server.NewMCPServer("formflow-mcp", strings.TrimSpace(version),
			server.WithToolCapabilities(true),
			server.WithResourceCapabilities(false, false),
		),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying protocol server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE and stops it when ctx ends.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(fmt.Sprintf("http://localhost:%d", port)))

	mux := http.NewServeMux()
	mux.Handle("/sse", sseServer.SSEHandler())
	mux.Handle("/message", sseServer.MessageHandler())
	httpServer := &http.Server{Addr: addr, Handler: mux}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("start_session",
		mcp.WithDescription("Start a form session, or resume one when session_id is given. Returns the first step to present."),
		mcp.WithString("form_id", mcp.Required(), mcp.Description("Form ID or public ID")),
		mcp.WithString("session_id", mcp.Description("Existing session to resume (optional)")),
		mcp.WithOutputSchema[domain.StartResult](),
	), mcp.NewStructuredToolHandler(s.handleStart))

	s.mcpServer.AddTool(mcp.NewTool("submit_answer",
		mcp.WithDescription("Answer the current step. Rejected answers come back with accepted=false and a validationError to relay."),
		mcp.WithString("form_id", mcp.Required(), mcp.Description("Form ID or public ID")),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session returned by start_session")),
		mcp.WithString("step_id", mcp.Required(), mcp.Description("stepId of the step being answered")),
		mcp.WithString("replay_step_id", mcp.Description("Replay node, when answering under answerStepId")),
		mcp.WithString("answer", mcp.Description("The respondent's answer. Omit for message steps.")),
		mcp.WithOutputSchema[domain.SubmitResult](),
	), mcp.NewStructuredToolHandler(s.handleSubmit))

	s.mcpServer.AddTool(mcp.NewTool("get_form",
		mcp.WithDescription("Get the full form definition for introspection."),
		mcp.WithString("form_id", mcp.Required(), mcp.Description("Form ID or public ID")),
	), s.handleGetForm)
}

func (s *Server) handleStart(ctx context.Context, request mcp.CallToolRequest, args StartArgs) (*domain.StartResult, error) {
	if args.FormID == "" {
		return nil, fmt.Errorf("%w: form_id is required", domain.ErrInvalidRequest)
	}
	return s.engine.StartOrResume(ctx, args.FormID, args.SessionID)
}

func (s *Server) handleSubmit(ctx context.Context, request mcp.CallToolRequest, args AnswerArgs) (*domain.SubmitResult, error) {
	if args.FormID == "" || args.SessionID == "" || args.StepID == "" {
		return nil, fmt.Errorf("%w: form_id, session_id and step_id are required", domain.ErrInvalidRequest)
	}
	answer, err := runner.SanitizeAnswer(args.Answer)
	if err != nil {
		s.logger.Warn("MCP submit: input rejected", "err", err, "session_id", args.SessionID)
		return nil, fmt.Errorf("input rejected: %w", err)
	}
	return s.engine.SubmitAnswer(ctx, domain.SubmitRequest{
		FormID:       args.FormID,
		SessionID:    args.SessionID,
		StepID:       args.StepID,
		ReplayStepID: args.ReplayStepID,
		Answer:       answer,
	})
}

func (s *Server) handleGetForm(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	formID, _ := request.GetArguments()["form_id"].(string)
	if formID == "" {
		return mcp.NewToolResultError("form_id is required"), nil
	}
	form, err := s.engine.Inspect(ctx, formID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("inspect failed: %v", err)), nil
	}
	data, err := json.Marshal(form)
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource("formflow://forms", "Available forms",
		mcp.WithResourceDescription("IDs of every form the server can run"),
		mcp.WithMIMEType("application/json"),
	), s.readFormList)

	s.mcpServer.AddResourceTemplate(mcp.NewResourceTemplate(FormURIPrefix+"{id}", "Form definition",
		mcp.WithTemplateDescription("A single form definition by ID or public ID"),
		mcp.WithTemplateMIMEType("application/json"),
	), s.readForm)
}

func (s *Server) readFormList(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	ids, err := s.loader.ListForms(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list forms: %w", err)
	}
	data, err := json.Marshal(ids)
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{URI: request.Params.URI, MIMEType: "application/json", Text: string(data)},
	}, nil
}

func (s *Server) readForm(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	id := strings.TrimPrefix(request.Params.URI, FormURIPrefix)
	if id == "" || id == request.Params.URI {
		return nil, fmt.Errorf("%w: %s", domain.ErrFormNotFound, request.Params.URI)
	}
	form, err := s.engine.Inspect(ctx, id)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(form)
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{URI: request.Params.URI, MIMEType: "application/json", Text: string(data)},
	}, nil
}
