// Package api is the thin HTTP boundary of the service. It parses the
// request, delegates to the query service, and maps the result or typed
// error onto the wire format. No contribution logic lives here.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"social-insurance/core/query"
	"social-insurance/db"
	apperrors "social-insurance/internal/errors"
	"social-insurance/internal/logging"
)

// statusForKind maps the error taxonomy onto HTTP status codes
var statusForKind = map[apperrors.Kind]int{
	apperrors.KindBadInput:         http.StatusBadRequest,
	apperrors.KindInvalidAge:       http.StatusBadRequest,
	apperrors.KindBracketMissing:   http.StatusBadRequest,
	apperrors.KindMalformedBracket: http.StatusInternalServerError,
	apperrors.KindStorage:          http.StatusInternalServerError,
	apperrors.KindInternal:         http.StatusInternalServerError,
}

// Server is the API server
type Server struct {
	mux     *http.ServeMux
	svc     *query.Service
	store   db.BracketStore
	version string
	timeout time.Duration
}

// NewServer creates the API server
func NewServer(version string, svc *query.Service, store db.BracketStore, timeout time.Duration) *Server {
	s := &Server{
		mux:     http.NewServeMux(),
		svc:     svc,
		store:   store,
		version: version,
		timeout: timeout,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /socialInsuranceQuery", s.handleSocialInsuranceQuery)
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /version", s.handleVersion)
}

// ServeHTTP implements http.Handler with panic recovery and the per-request
// deadline.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requestID := uuid.NewString()

	if s.timeout > 0 {
		ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
		defer cancel()
		r = r.WithContext(ctx)
	}
	r = r.WithContext(withRequestID(r.Context(), requestID))

	defer func() {
		if rec := recover(); rec != nil {
			err := apperrors.Internal("unexpected failure", fmt.Errorf("%v", rec))
			s.writeError(w, r, err)
		}
	}()

	s.mux.ServeHTTP(w, r)
}

// handleSocialInsuranceQuery handles GET /socialInsuranceQuery
func (s *Server) handleSocialInsuranceQuery(w http.ResponseWriter, r *http.Request) {
	monthlySalary, err := requiredIntParam(r, "monthlySalary")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	age, err := requiredIntParam(r, "age")
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	result, err := s.svc.SocialInsuranceQuery(r.Context(), monthlySalary, &age)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, toDTO(result), http.StatusOK)
}

// handleHealth handles GET /health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	code := http.StatusOK
	if err := s.store.Ping(r.Context()); err != nil {
		status = "degraded"
		code = http.StatusServiceUnavailable
	}
	s.writeJSON(w, map[string]string{
		"status":  status,
		"version": s.version,
		"time":    time.Now().UTC().Format(time.RFC3339),
	}, code)
}

// handleVersion handles GET /version
func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, map[string]string{
		"version": s.version,
		"service": "social-insurance",
	}, http.StatusOK)
}

// requiredIntParam parses a mandatory non-negative integer query parameter
func requiredIntParam(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, apperrors.BadInputf("query parameter %s is required", name)
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperrors.BadInputf("query parameter %s must be an integer, got %q", name, raw)
	}
	return v, nil
}

func (s *Server) writeJSON(w http.ResponseWriter, data interface{}, status int) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError maps a typed error onto the envelope. 500-class responses emit
// a server-side diagnostic; the wire carries no stack traces.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	kind := apperrors.KindOf(err)
	status, ok := statusForKind[kind]
	if !ok {
		status = http.StatusInternalServerError
	}

	if status >= http.StatusInternalServerError {
		logging.Error("request failed",
			zap.String("request_id", requestIDFrom(r.Context())),
			zap.String("kind", string(kind)),
			zap.String("path", r.URL.Path),
			zap.String("query", r.URL.RawQuery),
			zap.Error(err))
	}

	s.writeJSON(w, &ErrorResponseDTO{
		Timestamp: envelopeTimestamp(time.Now()),
		Status:    status,
		Error:     http.StatusText(status),
		Message:   apperrors.MessageOf(err),
		Path:      r.URL.Path,
	}, status)
}

type requestIDKey struct{}

func withRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

func requestIDFrom(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok {
		return id
	}
	return ""
}
