package command

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/tasklist-go/internal/core/service"
	"github.com/yndnr/tasklist-go/internal/server/httpserver"
	"github.com/yndnr/tasklist-go/internal/telemetry/metric"
	"github.com/yndnr/tasklist-go/internal/worker"
)

// mockServer is a test HTTP server with per-path handlers.
type mockServer struct {
	*httptest.Server
	handlers map[string]http.HandlerFunc
}

func newMockServer(t *testing.T) *mockServer {
	m := &mockServer{
		handlers: make(map[string]http.HandlerFunc),
	}
	m.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if handler, ok := m.handlers[r.Method+" "+r.URL.Path]; ok {
			handler(w, r)
			return
		}
		http.NotFound(w, r)
	}))
	t.Cleanup(m.Close)
	return m
}

// handle registers a handler for "METHOD /path".
func (m *mockServer) handle(pattern string, handler http.HandlerFunc) {
	m.handlers[pattern] = handler
}

// dataResponse writes a success envelope.
func dataResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{
		"code":       "OK",
		"message":    "Success",
		"request_id": "req-test",
		"data":       data,
	})
}

// errorResponse writes an error envelope.
func errorResponse(w http.ResponseWriter, status int, code, message, details string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{
		"code":       code,
		"message":    message,
		"request_id": "req-test",
		"details":    details,
	})
}

// newTaskServer serves the real router backed by a fresh service.
func newTaskServer(t *testing.T) (*httptest.Server, *service.TaskService) {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := service.NewTaskService(service.WithLogger(log))

	pool, err := worker.New(svc, 2, log)
	if err != nil {
		t.Fatalf("worker.New: %v", err)
	}
	t.Cleanup(func() { _ = pool.Stop(context.Background()) })

	router := httpserver.NewRouter(&httpserver.RouterConfig{
		TaskService: svc,
		Pool:        pool,
		Logger:      log,
		Metrics:     metric.NewRegistry(),
	})
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv, svc
}

type runResult struct {
	stdout string
	stderr string
	err    error
}

type runOpts struct {
	server     string
	stdin      string
	configPath string // default: a missing file in a temp dir
}

// runApp runs the CLI against server with an isolated config file.
func runApp(t *testing.T, server string, args ...string) runResult {
	t.Helper()
	return runAppOpts(t, runOpts{server: server}, args...)
}

func runAppOpts(t *testing.T, opts runOpts, args ...string) runResult {
	t.Helper()
	var stdout, stderr bytes.Buffer

	app := App()
	app.Reader = strings.NewReader(opts.stdin)
	app.Writer = &stdout
	app.ErrWriter = &stderr
	app.ExitErrHandler = func(*cli.Context, error) {}

	configPath := opts.configPath
	if configPath == "" {
		configPath = filepath.Join(t.TempDir(), "cli.yaml")
	}

	full := []string{"tasklist-cli", "--config", configPath}
	if opts.server != "" {
		full = append(full, "--server", opts.server)
	}
	full = append(full, args...)

	err := app.Run(full)
	return runResult{stdout: stdout.String(), stderr: stderr.String(), err: err}
}
