package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/yndnr/tasklist-go/internal/core/domain"
	"github.com/yndnr/tasklist-go/internal/core/service"
	"github.com/yndnr/tasklist-go/internal/telemetry/logger"
	"github.com/yndnr/tasklist-go/internal/worker"
)

// MaxBodyBytes caps request bodies.
const MaxBodyBytes = 1 << 20

// Handler is the main HTTP handler that routes requests to appropriate handlers.
type Handler struct {
	taskSvc   *service.TaskService
	pool      *worker.Pool
	logger    *slog.Logger
	mux       *http.ServeMux
	startTime time.Time
	ready     atomic.Bool
}

// New creates a new Handler. pool may be nil, in which case batch appends
// are unavailable.
func New(taskSvc *service.TaskService, pool *worker.Pool, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handler{
		taskSvc:   taskSvc,
		pool:      pool,
		logger:    logger,
		mux:       http.NewServeMux(),
		startTime: time.Now(),
	}
	h.ready.Store(true)

	h.registerRoutes()
	return h
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// SetReady switches the readiness probe. The server clears it while
// shutting down.
func (h *Handler) SetReady(ready bool) {
	h.ready.Store(ready)
}

func (h *Handler) registerRoutes() {
	h.mux.HandleFunc("GET /health", h.handleHealth)
	h.mux.HandleFunc("GET /ready", h.handleReady)

	h.mux.HandleFunc("POST /tasks", h.handleAddTask)
	h.mux.HandleFunc("POST /tasks/batch", h.handleBatchAdd)
	h.mux.HandleFunc("GET /tasks", h.handleListTasks)
	h.mux.HandleFunc("GET /tasks/{index}", h.handleGetTask)

	h.mux.HandleFunc("GET /admin/v1/status/summary", h.handleAdminStatus)
}

// writeJSON writes a JSON response with standard envelope format.
func (h *Handler) writeJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	requestID := getRequestID(r)
	response := NewResponse(requestID, data)

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Request-ID", requestID)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

// writeError writes an error response with standard envelope format.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, status int, code, message string, details any) {
	requestID := getRequestID(r)
	response := NewErrorResponse(requestID, code, message, details)

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Error-Code", code)
	w.Header().Set("X-Request-ID", requestID)
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(response)
}

// writeErrorWithData writes the error envelope for err with data attached.
func (h *Handler) writeErrorWithData(w http.ResponseWriter, r *http.Request, err error, data any) {
	status := http.StatusInternalServerError
	response := NewErrorResponse(getRequestID(r), domain.ErrInternalServer.Code, domain.ErrInternalServer.Message, nil)

	var de *domain.DomainError
	if errors.As(err, &de) {
		status = errorCodeToHTTPStatus(de.Code)
		response.Code = de.Code
		response.Message = de.Message
		if de.Details != "" {
			response.Details = de.Details
		}
	}
	if status >= http.StatusInternalServerError {
		logger.L(r.Context()).Error("request failed", "code", response.Code, "error", err)
	}
	response.Data = data

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Error-Code", response.Code)
	w.Header().Set("X-Request-ID", response.RequestID)
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(response)
}

// decodeBody decodes a size-limited JSON body into v.
func (h *Handler) decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.writeError(w, r, http.StatusRequestEntityTooLarge, "TL-SYS-4130", "request body too large", nil)
			return false
		}
		h.writeError(w, r, http.StatusBadRequest, "TL-SYS-4000", "invalid request body", nil)
		return false
	}
	return true
}

// getRequestID returns the request ID set by the RequestID middleware,
// falling back to the incoming header.
func getRequestID(r *http.Request) string {
	if reqID := logger.RequestIDFromContext(r.Context()); reqID != "" {
		return reqID
	}
	return r.Header.Get("X-Request-ID")
}

// handleServiceError converts service errors to HTTP responses.
func (h *Handler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var de *domain.DomainError
	if errors.As(err, &de) {
		status := errorCodeToHTTPStatus(de.Code)
		if status >= http.StatusInternalServerError {
			logger.L(r.Context()).Error("request failed", "code", de.Code, "error", err)
		}
		var details any
		if de.Details != "" {
			details = de.Details
		}
		h.writeError(w, r, status, de.Code, de.Message, details)
		return
	}

	logger.L(r.Context()).Error("internal error", "error", err)
	h.writeError(w, r, http.StatusInternalServerError, "TL-SYS-5000", "internal server error", nil)
}

// errorCodeToHTTPStatus maps error codes to HTTP status codes.
func errorCodeToHTTPStatus(code string) int {
	switch {
	case strings.HasSuffix(code, "-4040"):
		return http.StatusNotFound
	case strings.HasSuffix(code, "-4290"):
		return http.StatusTooManyRequests
	case strings.HasSuffix(code, "-4130"):
		return http.StatusRequestEntityTooLarge
	case strings.HasSuffix(code, "-4000"), strings.HasSuffix(code, "-4001"):
		return http.StatusBadRequest
	case strings.HasSuffix(code, "-5030"), strings.HasSuffix(code, "-5031"):
		return http.StatusServiceUnavailable
	case strings.HasPrefix(code, "TL-ARG-"):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
