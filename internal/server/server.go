// Package server exposes a backend.Ledger over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/julienschmidt/httprouter"

	"github.com/tally-dev/tally/internal/backend"
	"github.com/tally-dev/tally/internal/model"
)

// RequestIDHeader carries the per-request correlation ID.
const RequestIDHeader = "X-Request-ID"

// ImportRequest is the body of POST /api/import.
type ImportRequest struct {
	Paths []string `json:"paths"`
}

// ImportResponse is the reply to POST /api/import.
type ImportResponse struct {
	Operations []model.CandidateOperation `json:"operations"`
}

// Server handles HTTP requests against a ledger.
type Server struct {
	ledger backend.Ledger
	logger *log.Logger
	router *httprouter.Router
}

// New creates a Server with its routes registered.
func New(ledger backend.Ledger, logger *log.Logger) *Server {
	s := &Server{ledger: ledger, logger: logger, router: httprouter.New()}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	r := s.router
	r.GET("/health", s.handleHealth)
	r.GET("/api/accounts", s.handleListAccounts)
	r.GET("/api/accounts/:account_id/operations", s.handleListOperations)
	r.POST("/api/accounts/:account_id/operations", s.handleAddOperation)
	// Operation IDs embed raw labels, which may contain slashes.
	r.GET("/api/accounts/:account_id/operations/*operation_id", s.handleGetOperation)
	r.PUT("/api/accounts/:account_id/operations/*operation_id", s.handleUpdateOperation)
	r.POST("/api/import", s.handleImport)
	r.GET("/api/references", s.handleReferences)

	r.PanicHandler = func(w http.ResponseWriter, req *http.Request, rec any) {
		s.logger.Error("panic recovered", "panic", rec, "method", req.Method, "path", req.URL.Path)
		s.respondError(w, req, fmt.Errorf("panic: %v", rec))
	}
}

// Handler returns the router wrapped with request ID and logging
// middleware.
func (s *Server) Handler() http.Handler {
	return s.withRequestID(s.withLogging(s.router))
}

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{Handler: s.Handler(), ReadHeaderTimeout: 10 * time.Second}

	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()
	s.logger.Info("listening", "addr", ln.Addr().String())

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down: %w", err)
		}
		return nil
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	accts, err := s.ledger.ListAccounts(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, accts)
}

func (s *Server) handleListOperations(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	ops, err := s.ledger.ListOperations(r.Context(), p.ByName("account_id"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, ops)
}

func (s *Server) handleGetOperation(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	op, err := s.ledger.GetOperation(r.Context(), p.ByName("account_id"), operationID(p))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, op)
}

func (s *Server) handleAddOperation(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	var d model.OperationDraft
	if err := decodeBody(r, &d); err != nil {
		s.respondError(w, r, err)
		return
	}
	if err := s.ledger.AddOperation(r.Context(), p.ByName("account_id"), d); err != nil {
		s.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleUpdateOperation(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	var op model.Operation
	if err := decodeBody(r, &op); err != nil {
		s.respondError(w, r, err)
		return
	}
	op.ID = operationID(p)
	if err := s.ledger.UpdateOperation(r.Context(), p.ByName("account_id"), op); err != nil {
		s.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req ImportRequest
	if err := decodeBody(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	cands, err := s.ledger.ImportFiles(r.Context(), req.Paths)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if cands == nil {
		cands = []model.CandidateOperation{}
	}
	s.writeJSON(w, http.StatusOK, ImportResponse{Operations: cands})
}

func (s *Server) handleReferences(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	cat, err := s.ledger.ListReferences(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, cat)
}

func operationID(p httprouter.Params) string {
	return strings.TrimPrefix(p.ByName("operation_id"), "/")
}

func decodeBody(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return &backend.ValidationError{Message: fmt.Sprintf("decoding request body: %v", err), Err: err}
	}
	return nil
}

// StatusFor maps a ledger error to an HTTP status.
func StatusFor(err error) int {
	switch {
	case backend.IsValidation(err):
		return http.StatusBadRequest
	case errors.Is(err, backend.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("failed to write json response", "err", err)
	}
}

// respondError logs err and writes its message as a plain-text body.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusFor(err)
	s.logger.Warn("request error", "status", status, "err", err, "method", r.Method, "path", r.URL.Path,
		"request_id", w.Header().Get(RequestIDHeader))
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(err.Error()))
}
