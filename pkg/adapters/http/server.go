// Package http exposes sessions and flows over a JSON REST API. It lets a
// frontend drive conversations while the engine and its stores stay
// server-side.
package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/aretw0/weave/internal/logging"
	"github.com/aretw0/weave/pkg/session"
	"github.com/aretw0/weave/pkg/storemanager"
	"github.com/aretw0/weave/pkg/template"
)

// Server serves the session API.
type Server struct {
	manager   *storemanager.Manager
	flows     map[string]template.Template
	responder template.Template
	logger    *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithFlow registers a named flow runnable via POST /sessions/{id}/flows/{flow}.
func WithFlow(name string, tmpl template.Template) Option {
	return func(s *Server) {
		s.flows[name] = tmpl
	}
}

// WithResponder sets the template executed after each posted user message,
// typically an assistant generation step.
func WithResponder(tmpl template.Template) Option {
	return func(s *Server) {
		s.responder = tmpl
	}
}

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewHandler creates the HTTP handler for the session API.
func NewHandler(manager *storemanager.Manager, opts ...Option) http.Handler {
	s := &Server{
		manager: manager,
		flows:   make(map[string]template.Template),
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Get("/healthz", s.health)
	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", s.createSession)
		r.Get("/", s.listSessions)
		r.Route("/{sessionID}", func(r chi.Router) {
			r.Get("/", s.getSession)
			r.Delete("/", s.deleteSession)
			r.Post("/messages", s.postMessage)
			r.Post("/flows/{flow}", s.runFlow)
		})
	})
	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type createSessionRequest struct {
	ID   string         `json:"id"`
	Vars map[string]any `json:"vars"`
}

type messageDTO struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type sessionResponse struct {
	ID       string         `json:"id"`
	Messages []messageDTO   `json:"messages"`
	Vars     map[string]any `json:"vars"`
}

func toResponse(id string, sess *session.Session) sessionResponse {
	msgs := sess.Messages()
	out := make([]messageDTO, len(msgs))
	for i, m := range msgs {
		out[i] = messageDTO{Role: string(m.Role), Content: m.Content}
	}
	return sessionResponse{ID: id, Messages: out, Vars: sess.Vars().AsMap()}
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) createSession(w http.ResponseWriter, r *http.Request) {
	var body createSessionRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
	}

	id := body.ID
	if id == "" {
		id = newSessionID()
	}

	var opts []session.Option
	if len(body.Vars) > 0 {
		opts = append(opts, session.WithVars(session.NewVars(body.Vars)))
	}

	sess, err := s.manager.LoadOrCreate(r.Context(), id, opts...)
	if err != nil {
		s.serverError(w, "create session", err)
		return
	}

	s.logger.Info("session created", "session_id", id)
	s.writeJSON(w, http.StatusCreated, toResponse(id, sess))
}

func (s *Server) listSessions(w http.ResponseWriter, r *http.Request) {
	ids, err := s.manager.List(r.Context())
	if err != nil {
		s.serverError(w, "list sessions", err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string][]string{"sessions": ids})
}

func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	sess, err := s.manager.Load(r.Context(), id)
	if err != nil {
		s.loadError(w, id, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toResponse(id, sess))
}

func (s *Server) deleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	if err := s.manager.Delete(r.Context(), id); err != nil {
		s.serverError(w, "delete session", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type postMessageRequest struct {
	Content string `json:"content"`
}

func (s *Server) postMessage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")

	var body postMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if body.Content == "" {
		http.Error(w, "content is required", http.StatusBadRequest)
		return
	}

	sess, err := s.manager.Update(r.Context(), id, func(ctx context.Context, sess *session.Session) (*session.Session, error) {
		next := sess.Append(session.NewMessage(session.RoleUser, body.Content))
		if s.responder == nil {
			return next, nil
		}
		return s.responder.Execute(ctx, next)
	})
	if err != nil {
		s.loadError(w, id, err)
		return
	}

	s.writeJSON(w, http.StatusOK, toResponse(id, sess))
}

func (s *Server) runFlow(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	flowName := chi.URLParam(r, "flow")

	flow, ok := s.flows[flowName]
	if !ok {
		http.Error(w, fmt.Sprintf("unknown flow %q", flowName), http.StatusNotFound)
		return
	}

	sess, err := s.manager.Update(r.Context(), id, flow.Execute)
	if err != nil {
		s.loadError(w, id, err)
		return
	}

	s.logger.Info("flow executed", "session_id", id, "flow", flowName)
	s.writeJSON(w, http.StatusOK, toResponse(id, sess))
}

func (s *Server) loadError(w http.ResponseWriter, id string, err error) {
	if errors.Is(err, session.ErrNotFound) {
		http.Error(w, fmt.Sprintf("session %q not found", id), http.StatusNotFound)
		return
	}
	s.serverError(w, "load session", err)
}

func (s *Server) serverError(w http.ResponseWriter, op string, err error) {
	s.logger.Error("request failed", "op", op, "err", err)
	http.Error(w, "internal error", http.StatusInternalServerError)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encode failed", "err", err)
	}
}

func newSessionID() string {
	var buf [16]byte
	if _, err := rand.Read(buf[:]); err != nil {
		panic(err) // crypto/rand never fails on supported platforms
	}
	return hex.EncodeToString(buf[:])
}
