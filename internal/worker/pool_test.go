package worker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/yndnr/tasklist-go/internal/core/domain"
	"github.com/yndnr/tasklist-go/internal/core/service"
	"github.com/yndnr/tasklist-go/internal/storage"
	"github.com/yndnr/tasklist-go/pkg/ctxlocal"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newService(t *testing.T) *service.TaskService {
	t.Helper()
	journals := service.NewJournals(quietLogger(), nil)
	journals.Init(storage.JournalParams{InMemory: true})
	t.Cleanup(func() { journals.CloseAll() })
	return service.NewTaskService(service.WithLogger(quietLogger()), service.WithJournals(journals))
}

func requests(n int) []service.AddTaskRequest {
	reqs := make([]service.AddTaskRequest, n)
	for i := range reqs {
		reqs[i] = service.AddTaskRequest{Title: fmt.Sprintf("task-%d", i)}
	}
	return reqs
}

func TestNew_InvalidSize(t *testing.T) {
	for _, size := range []int{0, -1} {
		if _, err := New(newService(t), size, quietLogger()); err == nil {
			t.Errorf("New(size=%d) expected error", size)
		}
	}
}

func TestPool_SubmitCoversEveryRequest(t *testing.T) {
	svc := newService(t)
	p, err := New(svc, 4, quietLogger())
	if err != nil {
		t.Fatal(err)
	}

	reqs := requests(200)
	results, err := p.Submit(context.Background(), reqs)
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if len(results) != len(reqs) {
		t.Fatalf("len(results) = %d, want %d", len(results), len(reqs))
	}

	indexes := make(map[int]bool)
	for i, r := range results {
		if r.Err != nil {
			t.Fatalf("results[%d].Err = %v", i, r.Err)
		}
		if r.Position != i {
			t.Errorf("results[%d].Position = %d", i, r.Position)
		}
		if indexes[r.Index] {
			t.Fatalf("index %d assigned twice", r.Index)
		}
		indexes[r.Index] = true

		task, err := svc.Get(context.Background(), r.Index)
		if err != nil {
			t.Fatalf("Get(%d) error = %v", r.Index, err)
		}
		if task.Title != reqs[i].Title || task.ID != r.TaskID {
			t.Errorf("index %d holds %q/%s, want %q/%s", r.Index, task.Title, task.ID, reqs[i].Title, r.TaskID)
		}
	}

	if p.Processed() != 200 {
		t.Errorf("Processed() = %d, want 200", p.Processed())
	}
	if n := svc.OpenJournals(); n < 1 || n > 4 {
		t.Errorf("OpenJournals() = %d, want 1..4", n)
	}

	if err := p.Stop(context.Background()); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if n := svc.OpenJournals(); n != 0 {
		t.Errorf("OpenJournals() after Stop = %d, want 0", n)
	}
}

func TestPool_InvalidRequests(t *testing.T) {
	svc := newService(t)
	p, _ := New(svc, 2, quietLogger())
	defer p.Stop(context.Background())

	reqs := []service.AddTaskRequest{{Title: "ok"}, {Title: " "}, {Title: "also ok"}}
	results, err := p.Submit(context.Background(), reqs)
	if err != nil {
		t.Fatal(err)
	}

	if results[1].Err == nil || !errors.Is(results[1].Err, domain.ErrInvalidArgument) {
		t.Errorf("results[1].Err = %v, want ErrInvalidArgument", results[1].Err)
	}
	if results[1].Index != -1 || results[1].TaskID != "" {
		t.Errorf("results[1] = %+v, want no index", results[1])
	}
	if svc.Count(context.Background()) != 2 {
		t.Errorf("Count() = %d, want 2", svc.Count(context.Background()))
	}
}

// recordingAppender remembers which execution id each append ran under.
type recordingAppender struct {
	mu       sync.Mutex
	byWorker map[string]int
	released []string
	delay    time.Duration
}

func (a *recordingAppender) Add(ctx context.Context, req service.AddTaskRequest) (*service.AddTaskResponse, error) {
	id, ok := ctxlocal.ExecutionID(ctx)
	if !ok {
		return nil, errors.New("no execution id")
	}
	time.Sleep(a.delay)
	a.mu.Lock()
	defer a.mu.Unlock()
	a.byWorker[id]++
	return &service.AddTaskResponse{Index: 0}, nil
}

func (a *recordingAppender) ReleaseExecution(ctx context.Context) error {
	id, _ := ctxlocal.ExecutionID(ctx)
	a.mu.Lock()
	defer a.mu.Unlock()
	a.released = append(a.released, id)
	return nil
}

func TestPool_WorkersHaveDistinctExecutions(t *testing.T) {
	a := &recordingAppender{byWorker: make(map[string]int), delay: time.Millisecond}
	p, _ := New(a, 3, quietLogger())

	results, err := p.Submit(context.Background(), requests(30))
	if err != nil {
		t.Fatal(err)
	}
	for _, r := range results {
		if r.Err != nil {
			t.Fatalf("unexpected error: %v", r.Err)
		}
	}

	if err := p.Stop(context.Background()); err != nil {
		t.Fatal(err)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.byWorker) > 3 {
		t.Errorf("appends ran under %d execution ids, want at most 3", len(a.byWorker))
	}
	if len(a.released) != 3 {
		t.Errorf("released %d executions, want 3", len(a.released))
	}
	for id := range a.byWorker {
		found := false
		for _, r := range a.released {
			found = found || r == id
		}
		if !found {
			t.Errorf("execution %s was never released", id)
		}
	}
}

func TestPool_SubmitAfterStop(t *testing.T) {
	p, _ := New(newService(t), 1, quietLogger())
	if err := p.Stop(context.Background()); err != nil {
		t.Fatal(err)
	}
	// Stop is idempotent.
	if err := p.Stop(context.Background()); err != nil {
		t.Fatal(err)
	}

	results, err := p.Submit(context.Background(), requests(3))
	if !errors.Is(err, ErrStopped) {
		t.Errorf("Submit() error = %v, want ErrStopped", err)
	}
	if len(results) != 0 {
		t.Errorf("len(results) = %d, want 0", len(results))
	}
}

func TestPool_SubmitCanceled(t *testing.T) {
	p, _ := New(newService(t), 1, quietLogger())
	defer p.Stop(context.Background())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results, err := p.Submit(ctx, requests(5))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Submit() error = %v, want context.Canceled", err)
	}
	if len(results) > 5 {
		t.Errorf("len(results) = %d", len(results))
	}
}
