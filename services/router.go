package services

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"linear-board-sync/models"
)

const (
	// maxRequestBodyBytes bounds the size of an update request body
	maxRequestBodyBytes = 1 << 20

	requestIDHeader = "X-Request-ID"
)

// jsonErrorResponse is the body of every JSON error response
type jsonErrorResponse struct {
	Error string `json:"error"`
}

// healthResponse is the body of GET /health
type healthResponse struct {
	Status string `json:"status"`
}

// Router dispatches proxy requests by method and path
type Router struct {
	config    *models.Config
	forwarder MutationForwarder
	resolver  StateResolver
	cache     *StatusCache
	logger    *zap.Logger
}

// NewRouter creates a new Router. When the cache is scoped per request the
// status index is invalidated before every update.
func NewRouter(config *models.Config, forwarder MutationForwarder, resolver StateResolver, cache *StatusCache, logger *zap.Logger) *Router {
	return &Router{
		config:    config,
		forwarder: forwarder,
		resolver:  resolver,
		cache:     cache,
		logger:    logger,
	}
}

// statusRecorder captures the status code written by a handler
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// setCORSHeaders allows browser callers on any origin to read every response
func setCORSHeaders(header http.Header) {
	header.Set("Access-Control-Allow-Origin", "*")
	header.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	header.Set("Access-Control-Allow-Headers", "Content-Type")
}

// ServeHTTP implements http.Handler
func (s *Router) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	requestID := r.Header.Get(requestIDHeader)
	if requestID == "" {
		requestID = uuid.New().String()
	}

	rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
	setCORSHeaders(rec.Header())
	rec.Header().Set(requestIDHeader, requestID)

	logger := s.logger.With(
		zap.String("request_id", requestID),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
	)
	defer func() {
		logger.Info("Handled request", zap.Int("status", rec.status), zap.Duration("duration", time.Since(start)))
	}()

	switch {
	case r.Method == http.MethodOptions:
		rec.WriteHeader(http.StatusNoContent)
	case r.Method == http.MethodGet && r.URL.Path == "/health":
		s.writeJSON(rec, logger, http.StatusOK, healthResponse{Status: "ok"})
	case !s.config.HasAPIKey():
		logger.Error("Rejecting request, Linear API key is not configured")
		s.writeJSON(rec, logger, http.StatusInternalServerError, jsonErrorResponse{Error: ErrConfiguration.Error()})
	case r.Method == http.MethodPost && r.URL.Path == "/update":
		s.handleUpdate(rec, r, logger)
	default:
		rec.Header().Set("Content-Type", "text/plain; charset=utf-8")
		rec.WriteHeader(http.StatusNotFound)
		if _, err := fmt.Fprint(rec, "Not Found"); err != nil {
			logger.Debug("Failed to write response", zap.Error(err))
		}
	}
}

// handleUpdate handles POST /update
func (s *Router) handleUpdate(w http.ResponseWriter, r *http.Request, logger *zap.Logger) {
	var request models.MoveRequest
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBodyBytes))
	if err := decoder.Decode(&request); err != nil {
		logger.Warn("Invalid update request body", zap.Error(err))
		s.writeJSON(w, logger, http.StatusBadRequest, jsonErrorResponse{Error: fmt.Sprintf("invalid request body: %v", err)})
		return
	}

	if s.cache != nil && s.cache.PerRequest() {
		s.resolver.Invalidate()
	}

	result, err := s.forwarder.Move(r.Context(), request)
	if err != nil {
		status := statusForError(err)
		if status >= http.StatusInternalServerError {
			logger.Error("Update failed", zap.String("issue_id", request.IssueID), zap.Error(err))
		} else {
			logger.Warn("Update rejected", zap.String("issue_id", request.IssueID), zap.Int("status", status), zap.Error(err))
		}
		s.writeJSON(w, logger, status, jsonErrorResponse{Error: err.Error()})
		return
	}

	s.writeJSON(w, logger, http.StatusOK, result)
}

// writeJSON writes payload as a JSON response with the given status
func (s *Router) writeJSON(w http.ResponseWriter, logger *zap.Logger, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Debug("Failed to write response", zap.Error(err))
	}
}
