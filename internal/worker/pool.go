package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/yndnr/tasklist-go/internal/core/service"
	"github.com/yndnr/tasklist-go/pkg/ctxlocal"
)

// ErrStopped is returned by Submit after Stop.
var ErrStopped = errors.New("worker pool stopped")

// Appender is the part of TaskService the pool drives.
type Appender interface {
	Add(ctx context.Context, req service.AddTaskRequest) (*service.AddTaskResponse, error)
	ReleaseExecution(ctx context.Context) error
}

// Result is the outcome of one submitted request.
type Result struct {
	Position int    // position in the submitted batch
	Index    int    // list index, -1 on error
	TaskID   string // empty on error
	Worker   int
	Err      error
}

type job struct {
	ctx      context.Context
	position int
	req      service.AddTaskRequest
	results  chan<- Result
}

// Pool is a fixed-size set of appending workers.
type Pool struct {
	appender Appender
	logger   *slog.Logger
	size     int

	jobs     chan job
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	processed atomic.Int64
}

// New starts size workers appending through a.
func New(a Appender, size int, logger *slog.Logger) (*Pool, error) {
	if size <= 0 {
		return nil, fmt.Errorf("worker: size must be > 0, got %d", size)
	}
	if logger == nil {
		logger = slog.Default()
	}

	p := &Pool{
		appender: a,
		logger:   logger,
		size:     size,
		jobs:     make(chan job),
		stopCh:   make(chan struct{}),
	}
	for i := 0; i < size; i++ {
		p.wg.Add(1)
		go p.run(i)
	}

	logger.Info("worker pool started", "size", size)
	return p, nil
}

func (p *Pool) run(id int) {
	defer p.wg.Done()

	execCtx, execID := ctxlocal.WithExecution(context.Background())
	logger := p.logger.With("worker", id, "execution_id", execID)
	logger.Debug("worker started")

	for {
		select {
		case j := <-p.jobs:
			ctx := ctxlocal.WithExecutionID(j.ctx, execID)
			res := Result{Position: j.position, Index: -1, Worker: id}
			if resp, err := p.appender.Add(ctx, j.req); err != nil {
				res.Err = err
			} else {
				res.Index = resp.Index
				res.TaskID = resp.Task.ID
			}
			p.processed.Add(1)
			j.results <- res

		case <-p.stopCh:
			if err := p.appender.ReleaseExecution(execCtx); err != nil {
				logger.Warn("failed to release worker journal", "error", err)
			}
			logger.Debug("worker stopped")
			return
		}
	}
}

// Submit appends every request and returns one result per request, ordered
// by position in reqs. If ctx ends before every request was handed to a
// worker, the results gathered so far are returned together with ctx.Err().
func (p *Pool) Submit(ctx context.Context, reqs []service.AddTaskRequest) ([]Result, error) {
	results := make(chan Result, len(reqs))

	sent := 0
	var submitErr error
dispatch:
	for i, req := range reqs {
		if err := ctx.Err(); err != nil {
			submitErr = err
			break
		}
		select {
		case p.jobs <- job{ctx: ctx, position: i, req: req, results: results}:
			sent++
		case <-ctx.Done():
			submitErr = ctx.Err()
			break dispatch
		case <-p.stopCh:
			submitErr = ErrStopped
			break dispatch
		}
	}

	out := make([]Result, sent)
	for n := 0; n < sent; n++ {
		r := <-results
		out[r.Position] = r
	}
	return out, submitErr
}

// Size returns the number of workers.
func (p *Pool) Size() int {
	return p.size
}

// Processed returns the number of requests handled since start.
func (p *Pool) Processed() int64 {
	return p.processed.Load()
}

// Stop stops the workers and closes their journals. It waits for in-flight
// requests or until ctx is done.
func (p *Pool) Stop(ctx context.Context) error {
	p.stopOnce.Do(func() {
		close(p.stopCh)
	})

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.logger.Info("worker pool stopped", "processed", p.Processed())
		return nil
	case <-ctx.Done():
		return fmt.Errorf("worker: stop: %w", ctx.Err())
	}
}
