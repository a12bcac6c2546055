package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/yndnr/tasklist-go/internal/core/domain"
	"github.com/yndnr/tasklist-go/internal/core/service"
	"github.com/yndnr/tasklist-go/internal/worker"
)

// MaxBatchSize is the largest accepted POST /tasks/batch.
const MaxBatchSize = 1000

// handleAddTask handles POST /tasks.
func (h *Handler) handleAddTask(w http.ResponseWriter, r *http.Request) {
	var req AddTaskRequest
	if !h.decodeBody(w, r, &req) {
		return
	}

	resp, err := h.taskSvc.Add(r.Context(), service.AddTaskRequest{
		Title:  req.Title,
		Labels: req.Labels,
	})
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.writeJSON(w, r, http.StatusCreated, AddTaskResponse{
		Task:  resp.Task,
		Index: resp.Index,
	})
}

// handleBatchAdd handles POST /tasks/batch. Items are appended concurrently
// by the worker pool; each item succeeds or fails on its own.
func (h *Handler) handleBatchAdd(w http.ResponseWriter, r *http.Request) {
	if h.pool == nil {
		h.writeError(w, r, http.StatusServiceUnavailable, "TL-SYS-5031", "worker pool not configured", nil)
		return
	}

	var req BatchAddRequest
	if !h.decodeBody(w, r, &req) {
		return
	}
	if len(req.Tasks) == 0 {
		h.writeError(w, r, http.StatusBadRequest, "TL-ARG-1002", "tasks is required", nil)
		return
	}
	if len(req.Tasks) > MaxBatchSize {
		h.writeError(w, r, http.StatusBadRequest, "TL-ARG-1001", "invalid argument",
			fmt.Sprintf("at most %d tasks per batch", MaxBatchSize))
		return
	}

	reqs := make([]service.AddTaskRequest, len(req.Tasks))
	for i, t := range req.Tasks {
		reqs[i] = service.AddTaskRequest{Title: t.Title, Labels: t.Labels}
	}

	results, err := h.pool.Submit(r.Context(), reqs)

	resp := BatchAddResponse{
		Results: make([]BatchItemResult, len(results)),
		Unsent:  len(reqs) - len(results),
	}
	for i, res := range results {
		item := BatchItemResult{
			Position: res.Position,
			Index:    res.Index,
			TaskID:   res.TaskID,
			Worker:   res.Worker,
		}
		if res.Err != nil {
			resp.Failed++
			item.Code = domain.GetErrorCode(res.Err)
			if item.Code == "" {
				item.Code = domain.ErrInternalServer.Code
			}
			item.Message = res.Err.Error()
		} else {
			resp.Succeeded++
		}
		resp.Results[i] = item
	}

	// Items that reached a worker are already in the list; report them with
	// the error so a retry can skip them.
	if err != nil {
		switch {
		case errors.Is(err, worker.ErrStopped):
			err = domain.ErrServiceUnavailable.WithDetails("worker pool stopped").WithCause(err)
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			err = domain.ErrServiceUnavailable.WithDetails("batch interrupted").WithCause(err)
		}
		h.writeErrorWithData(w, r, err, resp)
		return
	}

	h.writeJSON(w, r, http.StatusOK, resp)
}

// handleListTasks handles GET /tasks?offset=&limit=.
func (h *Handler) handleListTasks(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	offset, ok := h.intParam(w, r, query.Get("offset"), "offset")
	if !ok {
		return
	}
	limit, ok := h.intParam(w, r, query.Get("limit"), "limit")
	if !ok {
		return
	}

	resp, err := h.taskSvc.List(r.Context(), service.ListTasksRequest{
		Offset: offset,
		Limit:  limit,
	})
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.writeJSON(w, r, http.StatusOK, ListTasksResponse{
		Items:  resp.Tasks,
		Total:  resp.Total,
		Offset: resp.Offset,
		Limit:  resp.Limit,
	})
}

// handleGetTask handles GET /tasks/{index}.
func (h *Handler) handleGetTask(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		h.writeError(w, r, http.StatusBadRequest, "TL-ARG-1001", "invalid argument", "index must be an integer")
		return
	}

	task, err := h.taskSvc.Get(r.Context(), index)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.writeJSON(w, r, http.StatusOK, task)
}

// intParam parses an optional integer query parameter. Empty means zero.
func (h *Handler) intParam(w http.ResponseWriter, r *http.Request, raw, name string) (int, bool) {
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		h.writeError(w, r, http.StatusBadRequest, "TL-ARG-1001", "invalid argument", name+" must be an integer")
		return 0, false
	}
	return n, true
}
