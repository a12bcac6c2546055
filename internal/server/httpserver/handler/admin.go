package handler

import (
	"net/http"
	"runtime"
	"time"

	"github.com/yndnr/tasklist-go/internal/infra/buildinfo"
)

// handleAdminStatus handles GET /admin/v1/status/summary.
func (h *Handler) handleAdminStatus(w http.ResponseWriter, r *http.Request) {
	summary := StatusSummary{
		Status:        "running",
		Build:         buildinfo.Get(),
		StartedAt:     h.startTime.UTC(),
		UptimeSeconds: int64(time.Since(h.startTime).Seconds()),
		Tasks:         h.taskSvc.Count(r.Context()),
		OpenJournals:  h.taskSvc.OpenJournals(),
		Goroutines:    runtime.NumGoroutine(),
	}
	if !h.ready.Load() {
		summary.Status = "stopping"
	}
	if h.pool != nil {
		summary.Workers = h.pool.Size()
		summary.Processed = h.pool.Processed()
	}

	h.writeJSON(w, r, http.StatusOK, summary)
}
