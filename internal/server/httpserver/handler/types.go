package handler

import (
	"time"

	"github.com/yndnr/tasklist-go/internal/core/domain"
	"github.com/yndnr/tasklist-go/internal/infra/buildinfo"
)

// Response is the standard API response envelope.
// All JSON responses use this format (except /metrics which uses Prometheus format).
type Response struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id"`
	Timestamp int64  `json:"timestamp"`
	Data      any    `json:"data,omitempty"`
	Details   any    `json:"details,omitempty"` // Additional error details
}

// NewResponse creates a success response.
func NewResponse(requestID string, data any) *Response {
	return &Response{
		Code:      "OK",
		Message:   "Success",
		RequestID: requestID,
		Timestamp: time.Now().UnixMilli(),
		Data:      data,
	}
}

// NewErrorResponse creates an error response.
func NewErrorResponse(requestID, code, message string, details any) *Response {
	return &Response{
		Code:      code,
		Message:   message,
		RequestID: requestID,
		Timestamp: time.Now().UnixMilli(),
		Details:   details,
	}
}

// AddTaskRequest is the request body for POST /tasks.
type AddTaskRequest struct {
	Title  string   `json:"title"`
	Labels []string `json:"labels,omitempty"`
}

// AddTaskResponse is the response body for POST /tasks.
type AddTaskResponse struct {
	Task  domain.Task `json:"task"`
	Index int         `json:"index"`
}

// BatchAddRequest is the request body for POST /tasks/batch.
type BatchAddRequest struct {
	Tasks []AddTaskRequest `json:"tasks"`
}

// BatchItemResult is the outcome of one item of a batch.
type BatchItemResult struct {
	Position int    `json:"position"`
	Index    int    `json:"index"` // -1 when the item failed
	TaskID   string `json:"task_id,omitempty"`
	Worker   int    `json:"worker"`
	Code     string `json:"code,omitempty"`
	Message  string `json:"message,omitempty"`
}

// BatchAddResponse is the response body for POST /tasks/batch.
type BatchAddResponse struct {
	Results   []BatchItemResult `json:"results"`
	Succeeded int               `json:"succeeded"`
	Failed    int               `json:"failed"`
	// Unsent counts trailing items never handed to a worker.
	Unsent int `json:"unsent,omitempty"`
}

// ListTasksResponse is the response body for GET /tasks.
type ListTasksResponse struct {
	Items  []domain.Task `json:"items"`
	Total  int           `json:"total"`
	Offset int           `json:"offset"`
	Limit  int           `json:"limit"`
}

// StatusSummary is the response body for GET /admin/v1/status/summary.
type StatusSummary struct {
	Status        string         `json:"status"`
	Build         buildinfo.Info `json:"build"`
	StartedAt     time.Time      `json:"started_at"`
	UptimeSeconds int64          `json:"uptime_seconds"`
	Tasks         int            `json:"tasks"`
	Workers       int            `json:"workers"`
	Processed     int64          `json:"processed"`
	OpenJournals  int            `json:"open_journals"`
	Goroutines    int            `json:"goroutines"`
}
