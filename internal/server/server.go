// Package server exposes the assistant over HTTP:
//
//	GET    /health                  -> {"status", "environment", "debug", "rate_limits"}
//	POST   /api/v1/ask              -> answer for {"session_id", "query"}
//	GET    /api/v1/tools            -> tool declarations offered to the model
//	GET    /api/v1/sessions/{id}    -> session info and turns
//	DELETE /api/v1/sessions/{id}    -> forget a session
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"math"
	"net/http"
	"time"

	"github.com/Cyclone1070/beachai/internal/config"
	"github.com/Cyclone1070/beachai/internal/memory"
	"github.com/Cyclone1070/beachai/internal/orchestrator"
	"github.com/Cyclone1070/beachai/internal/tool"
)

const maxBodyBytes = 64 << 10

// Asker answers one user query.
type Asker interface {
	Ask(ctx context.Context, sessionID, query string) (*orchestrator.Answer, error)
}

// Sessions is the part of the conversation store the API exposes.
type Sessions interface {
	Lookup(sessionID string) (memory.Info, error)
	History(sessionID string, maxTurns int) []memory.Turn
	Clear(sessionID string) error
}

// RateBudgets reports the tokens left per rate-limited source.
type RateBudgets interface {
	Sources() []string
	Available(source string) float64
}

// Option customises a Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithRateBudgets adds the remaining tokens of each source to /health.
func WithRateBudgets(b RateBudgets) Option {
	return func(s *Server) { s.budgets = b }
}

// Server routes HTTP requests to the orchestrator and the session store.
type Server struct {
	cfg      config.ServerConfig
	asker    Asker
	sessions Sessions
	tools    []tool.Declaration
	budgets  RateBudgets
	logger   *log.Logger
	handler  http.Handler
}

// New builds a Server. tools is the catalog reported by /api/v1/tools.
func New(cfg config.ServerConfig, asker Asker, sessions Sessions, tools []tool.Declaration, opts ...Option) *Server {
	s := &Server{
		cfg:      cfg,
		asker:    asker,
		sessions: sessions,
		tools:    tools,
		logger:   log.New(io.Discard, "", 0),
	}
	for _, opt := range opts {
		opt(s)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /api/v1/ask", s.handleAsk)
	mux.HandleFunc("GET /api/v1/tools", s.handleTools)
	mux.HandleFunc("GET /api/v1/sessions/{id}", s.handleGetSession)
	mux.HandleFunc("DELETE /api/v1/sessions/{id}", s.handleDeleteSession)

	s.handler = withCORS(cfg.CORSOrigins, mux)
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// Run serves on cfg.Addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Printf("[server] listening on %s", s.cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		s.logger.Printf("[server] shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return <-errCh
	}
}

type healthResponse struct {
	Status      string             `json:"status"`
	Environment string             `json:"environment"`
	Debug       bool               `json:"debug"`
	RateLimits  map[string]float64 `json:"rate_limits,omitempty"`
}

type askRequest struct {
	SessionID string `json:"session_id"`
	Query     string `json:"query"`
}

type askResponse struct {
	*orchestrator.Answer
	Error string `json:"error,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type toolsResponse struct {
	Tools []tool.Declaration `json:"tools"`
}

type sessionResponse struct {
	Session memory.Info   `json:"session"`
	Turns   []memory.Turn `json:"turns"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	resp := healthResponse{
		Status:      "healthy",
		Environment: s.cfg.Environment,
		Debug:       s.cfg.Debug,
	}
	if s.budgets != nil {
		resp.RateLimits = make(map[string]float64)
		for _, source := range s.budgets.Sources() {
			// Tokens are fractional between refills.
			resp.RateLimits[source] = math.Floor(s.budgets.Available(source)*100) / 100
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}

	answer, err := s.asker.Ask(r.Context(), req.SessionID, req.Query)
	if err != nil {
		// An aborted request still carries the apology for the user.
		if errors.Is(err, orchestrator.ErrLoopExhausted) && answer != nil {
			s.logger.Printf("[server] session %s: %v", answer.SessionID, err)
			writeJSON(w, http.StatusOK, askResponse{Answer: answer, Error: err.Error()})
			return
		}
		status := statusFor(err)
		s.logger.Printf("[server] ask failed (%d): %v", status, err)
		writeError(w, status, err)
		return
	}
	writeJSON(w, http.StatusOK, askResponse{Answer: answer})
}

func (s *Server) handleTools(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, toolsResponse{Tools: s.tools})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	info, err := s.sessions.Lookup(id)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{Session: info, Turns: s.sessions.History(id, 0)})
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Clear(r.PathValue("id")); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// statusFor maps request errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, orchestrator.ErrEmptyQuery), errors.Is(err, memory.ErrEmptySessionID):
		return http.StatusBadRequest
	case errors.Is(err, memory.ErrUnknownSession):
		return http.StatusNotFound
	case errors.Is(err, orchestrator.ErrModelUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, orchestrator.ErrRequestTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		// Client went away; nobody reads the body.
		return 499
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Error: err.Error()})
}
