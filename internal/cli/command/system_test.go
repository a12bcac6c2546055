package command

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"
)

func TestSystemCommand(t *testing.T) {
	cmd := SystemCommand()
	if cmd.Name != "system" {
		t.Errorf("Name = %q, want system", cmd.Name)
	}

	names := make(map[string]bool)
	for _, sub := range cmd.Subcommands {
		names[sub.Name] = true
	}
	for _, want := range []string{"health", "status"} {
		if !names[want] {
			t.Errorf("missing subcommand %q", want)
		}
	}
}

func TestSystemHealth(t *testing.T) {
	srv, _ := newTaskServer(t)

	r := runApp(t, srv.URL, "system", "health")
	if r.err != nil {
		t.Fatalf("system health error = %v", r.err)
	}
	if !strings.Contains(r.stdout, "Server is healthy\n") || !strings.Contains(r.stdout, "Target: "+srv.URL) {
		t.Errorf("stdout = %q", r.stdout)
	}

	r = runApp(t, srv.URL, "-o", "json", "sys", "health")
	if r.err != nil {
		t.Fatalf("system health json error = %v", r.err)
	}
	var h Health
	if err := json.Unmarshal([]byte(r.stdout), &h); err != nil {
		t.Fatalf("decode %q: %v", r.stdout, err)
	}
	if h.Status != "healthy" || !h.Ready || h.Server != srv.URL {
		t.Errorf("health = %+v", h)
	}
}

func TestSystemHealth_NotReady(t *testing.T) {
	m := newMockServer(t)
	m.handle("GET /health", func(w http.ResponseWriter, r *http.Request) {
		dataResponse(w, http.StatusOK, map[string]string{"status": "healthy"})
	})
	m.handle("GET /ready", func(w http.ResponseWriter, r *http.Request) {
		errorResponse(w, http.StatusServiceUnavailable, "TL-SYS-5030", "service unavailable", "shutting down")
	})

	r := runApp(t, m.URL, "system", "health")
	if r.err != nil {
		t.Fatalf("system health error = %v", r.err)
	}
	if !strings.Contains(r.stdout, "healthy but not ready") {
		t.Errorf("stdout = %q", r.stdout)
	}
}

func TestSystemHealth_Unreachable(t *testing.T) {
	r := runApp(t, "http://127.0.0.1:1", "system", "health")
	if r.err == nil || r.err.Error() != "server unreachable" {
		t.Errorf("err = %v, want server unreachable", r.err)
	}
	if !strings.Contains(r.stderr, "error: health check failed") {
		t.Errorf("stderr = %q", r.stderr)
	}
}

func TestSystemStatus(t *testing.T) {
	srv, svc := newTaskServer(t)
	addTasks(t, svc, "a", "b")

	r := runApp(t, srv.URL, "system", "status")
	if r.err != nil {
		t.Fatalf("system status error = %v", r.err)
	}
	for _, want := range []string{"System Status", "Status:         running", "Tasks:          2", "Workers:        2"} {
		if !strings.Contains(r.stdout, want) {
			t.Errorf("stdout missing %q:\n%s", want, r.stdout)
		}
	}
	if strings.Contains(r.stdout, "Goroutines") {
		t.Error("goroutines are wide-only")
	}

	r = runApp(t, srv.URL, "--wide", "system", "status")
	if !strings.Contains(r.stdout, "Goroutines:") {
		t.Errorf("wide stdout = %q", r.stdout)
	}

	r = runApp(t, srv.URL, "-o", "json", "system", "status")
	if r.err != nil {
		t.Fatalf("system status json error = %v", r.err)
	}
	var s StatusSummary
	if err := json.Unmarshal([]byte(r.stdout), &s); err != nil {
		t.Fatalf("decode %q: %v", r.stdout, err)
	}
	if s.Tasks != 2 || s.Workers != 2 || s.Build.Version == "" {
		t.Errorf("summary = %+v", s)
	}
}

func TestSystemStatus_ServerError(t *testing.T) {
	m := newMockServer(t)
	m.handle("GET /admin/v1/status/summary", func(w http.ResponseWriter, r *http.Request) {
		errorResponse(w, http.StatusInternalServerError, "TL-SYS-5000", "internal server error", "")
	})

	r := runApp(t, m.URL, "system", "status")
	if r.err == nil || !strings.Contains(r.err.Error(), "TL-SYS-5000") {
		t.Errorf("err = %v", r.err)
	}
}
