// Package mcp exposes sessions and flows as Model Context Protocol tools, so
// MCP-capable clients can create conversations, post messages, and run flows
// against this engine.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/aretw0/weave/pkg/session"
	"github.com/aretw0/weave/pkg/storemanager"
	"github.com/aretw0/weave/pkg/template"
)

// MessageDTO is one transcript entry in tool results.
type MessageDTO struct {
	Role    string `json:"role" jsonschema_description:"Message author role"`
	Content string `json:"content" jsonschema_description:"Message text"`
}

// TranscriptResponse is the structured result shared by session tools.
type TranscriptResponse struct {
	SessionID string         `json:"session_id" jsonschema_description:"Session identifier"`
	Messages  []MessageDTO   `json:"messages" jsonschema_description:"Ordered conversation transcript"`
	Vars      map[string]any `json:"vars,omitempty" jsonschema_description:"Conversation variables"`
}

// Server exposes the session manager as an MCP server.
type Server struct {
	manager   *storemanager.Manager
	flows     map[string]template.Template
	responder template.Template
	mcpServer *server.MCPServer
}

// Option configures the Server.
type Option func(*Server)

// WithFlow registers a named flow runnable via the run_flow tool.
func WithFlow(name string, tmpl template.Template) Option {
	return func(s *Server) {
		s.flows[name] = tmpl
	}
}

// WithResponder sets the template executed after each send_message call.
func WithResponder(tmpl template.Template) Option {
	return func(s *Server) {
		s.responder = tmpl
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(manager *storemanager.Manager, version string, opts ...Option) *Server {
	s := &Server{
		manager:   manager,
		flows:     make(map[string]template.Template),
		mcpServer: server.NewMCPServer("weave-mcp", version),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	serverErrors := make(chan error, 1)
	go func() {
		slog.Info("MCP Server listening (SSE)", "address", addr)
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

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	startTool := mcp.NewTool("start_session",
		mcp.WithDescription("Create a conversation session. Returns the session transcript."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Identifier for the session; reused if it already exists")),
		mcp.WithString("vars", mcp.Description("JSON object of initial conversation variables (optional)")),
		mcp.WithOutputSchema[TranscriptResponse](),
	)
	s.mcpServer.AddTool(startTool, mcp.NewStructuredToolHandler(s.handleStartSession))

	sendTool := mcp.NewTool("send_message",
		mcp.WithDescription("Append a user message to a session and run the configured responder."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session identifier")),
		mcp.WithString("content", mcp.Required(), mcp.Description("User message text")),
		mcp.WithOutputSchema[TranscriptResponse](),
	)
	s.mcpServer.AddTool(sendTool, mcp.NewStructuredToolHandler(s.handleSendMessage))

	transcriptTool := mcp.NewTool("get_transcript",
		mcp.WithDescription("Get the full transcript and variables of a session."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session identifier")),
		mcp.WithOutputSchema[TranscriptResponse](),
	)
	s.mcpServer.AddTool(transcriptTool, mcp.NewStructuredToolHandler(s.handleGetTranscript))

	runTool := mcp.NewTool("run_flow",
		mcp.WithDescription("Execute a named flow against a session."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session identifier")),
		mcp.WithString("flow", mcp.Required(), mcp.Description("Registered flow name")),
		mcp.WithOutputSchema[TranscriptResponse](),
	)
	s.mcpServer.AddTool(runTool, mcp.NewStructuredToolHandler(s.handleRunFlow))

	s.mcpServer.AddTool(mcp.NewTool("list_sessions",
		mcp.WithDescription("List the IDs of all stored sessions."),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		ids, err := s.manager.List(ctx)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("list failed: %v", err)), nil
		}
		jsonBytes, _ := json.Marshal(ids)
		return mcp.NewToolResultText(string(jsonBytes)), nil
	})

	s.mcpServer.AddTool(mcp.NewTool("delete_session",
		mcp.WithDescription("Delete a stored session."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session identifier")),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := request.RequireString("session_id")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if err := s.manager.Delete(ctx, id); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("delete failed: %v", err)), nil
		}
		return mcp.NewToolResultText("deleted"), nil
	})
}

func toTranscript(id string, sess *session.Session) TranscriptResponse {
	msgs := sess.Messages()
	out := make([]MessageDTO, len(msgs))
	for i, m := range msgs {
		out[i] = MessageDTO{Role: string(m.Role), Content: m.Content}
	}
	return TranscriptResponse{SessionID: id, Messages: out, Vars: sess.Vars().AsMap()}
}

func (s *Server) handleStartSession(ctx context.Context, request mcp.CallToolRequest, args map[string]any) (TranscriptResponse, error) {
	id, _ := args["session_id"].(string)
	if id == "" {
		return TranscriptResponse{}, fmt.Errorf("session_id is required")
	}

	var opts []session.Option
	if varsStr, ok := args["vars"].(string); ok && varsStr != "" {
		vars := make(map[string]any)
		if err := json.Unmarshal([]byte(varsStr), &vars); err != nil {
			return TranscriptResponse{}, fmt.Errorf("invalid vars json: %w", err)
		}
		opts = append(opts, session.WithVars(session.NewVars(vars)))
	}

	sess, err := s.manager.LoadOrCreate(ctx, id, opts...)
	if err != nil {
		return TranscriptResponse{}, fmt.Errorf("start session failed: %w", err)
	}
	return toTranscript(id, sess), nil
}

func (s *Server) handleSendMessage(ctx context.Context, request mcp.CallToolRequest, args map[string]any) (TranscriptResponse, error) {
	id, _ := args["session_id"].(string)
	content, _ := args["content"].(string)
	if id == "" || content == "" {
		return TranscriptResponse{}, fmt.Errorf("session_id and content are required")
	}

	sess, err := s.manager.Update(ctx, id, func(ctx context.Context, sess *session.Session) (*session.Session, error) {
		next := sess.Append(session.NewMessage(session.RoleUser, content))
		if s.responder == nil {
			return next, nil
		}
		return s.responder.Execute(ctx, next)
	})
	if err != nil {
		return TranscriptResponse{}, fmt.Errorf("send message failed: %w", err)
	}
	return toTranscript(id, sess), nil
}

func (s *Server) handleGetTranscript(ctx context.Context, request mcp.CallToolRequest, args map[string]any) (TranscriptResponse, error) {
	id, _ := args["session_id"].(string)
	if id == "" {
		return TranscriptResponse{}, fmt.Errorf("session_id is required")
	}

	sess, err := s.manager.Load(ctx, id)
	if err != nil {
		return TranscriptResponse{}, fmt.Errorf("load failed: %w", err)
	}
	return toTranscript(id, sess), nil
}

func (s *Server) handleRunFlow(ctx context.Context, request mcp.CallToolRequest, args map[string]any) (TranscriptResponse, error) {
	id, _ := args["session_id"].(string)
	flowName, _ := args["flow"].(string)

	flow, ok := s.flows[flowName]
	if !ok {
		return TranscriptResponse{}, fmt.Errorf("unknown flow %q", flowName)
	}

	sess, err := s.manager.Update(ctx, id, flow.Execute)
	if err != nil {
		return TranscriptResponse{}, fmt.Errorf("run flow failed: %w", err)
	}
	return toTranscript(id, sess), nil
}
