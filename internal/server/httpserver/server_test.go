package httpserver

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/yndnr/tasklist-go/internal/core/service"
	"github.com/yndnr/tasklist-go/internal/server/ratelimit"
	"github.com/yndnr/tasklist-go/internal/telemetry/metric"
)

func TestNew(t *testing.T) {
	s := New(":8080", okHandler(), DefaultOptions())
	if s == nil {
		t.Fatal("New returned nil")
	}
	if s.httpServer == nil {
		t.Fatal("httpServer is nil")
	}
	if s.handler == nil {
		t.Error("handler is nil")
	}
	if s.httpServer.ReadTimeout != 10*time.Second {
		t.Errorf("ReadTimeout = %v, want 10s", s.httpServer.ReadTimeout)
	}
}

func TestServer_Shutdown(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	s := New(ln.Addr().String(), okHandler(), DefaultOptions())

	errChan := make(chan error, 1)
	go func() {
		errChan <- s.Serve(ln)
	}()

	resp, err := http.Get("http://" + ln.Addr().String() + "/")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.Shutdown(ctx); err != nil {
		t.Errorf("Shutdown error: %v", err)
	}

	select {
	case err := <-errChan:
		if err != nil {
			t.Errorf("Serve returned unexpected error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Error("timeout waiting for Serve to return")
	}
}

func TestDefaultRouterConfig(t *testing.T) {
	cfg := DefaultRouterConfig()
	if cfg == nil {
		t.Fatal("DefaultRouterConfig returned nil")
	}
	if cfg.RateLimiter == nil {
		t.Error("RateLimiter should be set")
	}
	if !cfg.EnableAudit {
		t.Error("EnableAudit should default to true")
	}
}

func newTestRouter(t *testing.T, limiter *ratelimit.Limiter) (*Router, *metric.Registry) {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	reg := metric.NewRegistry()
	svc := service.NewTaskService(service.WithLogger(log))

	return NewRouter(&RouterConfig{
		TaskService: svc,
		Logger:      log,
		Metrics:     reg,
		RateLimiter: limiter,
		EnableAudit: true,
	}), reg
}

func TestNewRouter_Routes(t *testing.T) {
	router, _ := newTestRouter(t, nil)

	tests := []struct {
		method string
		path   string
		body   string
		want   int
	}{
		{"GET", "/health", "", http.StatusOK},
		{"GET", "/ready", "", http.StatusOK},
		{"GET", "/metrics", "", http.StatusOK},
		{"POST", "/tasks", `{"title":"write docs"}`, http.StatusCreated},
		{"GET", "/tasks", "", http.StatusOK},
		{"GET", "/tasks/0", "", http.StatusOK},
		{"GET", "/tasks/5", "", http.StatusNotFound},
		{"POST", "/tasks/batch", `{"tasks":[{"title":"a"}]}`, http.StatusServiceUnavailable},
		{"GET", "/admin/v1/status/summary", "", http.StatusOK},
		{"DELETE", "/tasks/0", "", http.StatusMethodNotAllowed},
		{"GET", "/unknown", "", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d (body: %s)", rec.Code, tt.want, rec.Body.String())
			}
		})
	}
}

func TestNewRouter_SetReady(t *testing.T) {
	router, _ := newTestRouter(t, nil)
	router.SetReady(false)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/ready", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}

func TestNewRouter_RateLimitSkipsProbes(t *testing.T) {
	limiter := ratelimit.New(1, 1)
	router, _ := newTestRouter(t, limiter)

	send := func(path string) int {
		req := httptest.NewRequest("GET", path, nil)
		req.RemoteAddr = "10.1.1.1:5000"
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec.Code
	}

	if code := send("/tasks"); code != http.StatusOK {
		t.Fatalf("first /tasks = %d, want 200", code)
	}
	if code := send("/tasks"); code != http.StatusTooManyRequests {
		t.Errorf("second /tasks = %d, want 429", code)
	}
	if code := send("/health"); code != http.StatusOK {
		t.Errorf("/health = %d, want 200 regardless of limit", code)
	}
}

func TestNewRouter_RequestIDInEnvelope(t *testing.T) {
	router, _ := newTestRouter(t, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/health", nil))

	var body struct {
		Code      string `json:"code"`
		RequestID string `json:"request_id"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Code != "OK" {
		t.Errorf("code = %q, want OK", body.Code)
	}
	if body.RequestID == "" || body.RequestID != rec.Header().Get("X-Request-ID") {
		t.Errorf("request_id = %q, header = %q", body.RequestID, rec.Header().Get("X-Request-ID"))
	}
}

func TestNewRouter_RecordsMetrics(t *testing.T) {
	router, reg := newTestRouter(t, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("POST", "/tasks", strings.NewReader(`{"title":"x"}`)))

	rec = httptest.NewRecorder()
	reg.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	want := `tasklist_requests_total{method="POST /tasks",protocol="http",status="201"} 1`
	if !strings.Contains(rec.Body.String(), want) {
		t.Errorf("expected %s in metrics output", want)
	}
}
