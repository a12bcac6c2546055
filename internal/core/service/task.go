package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/yndnr/tasklist-go/internal/core/domain"
	"github.com/yndnr/tasklist-go/internal/storage"
	"github.com/yndnr/tasklist-go/pkg/applist"
	"github.com/yndnr/tasklist-go/pkg/ctxlocal"
)

// Pagination limits for List.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Journals is the per-execution-context journal cache.
type Journals = ctxlocal.Cache[storage.JournalParams, *storage.Journal]

// NewJournals creates an uninitialized journal cache. Call Init with the
// journal parameters before the first append from an execution context.
func NewJournals(logger *slog.Logger, metrics *storage.JournalMetrics) *Journals {
	if logger == nil {
		logger = slog.Default()
	}
	factory := func(_ context.Context, params storage.JournalParams, executionID string) (*storage.Journal, error) {
		return storage.OpenJournal(params, executionID, logger, storage.WithJournalMetrics(metrics))
	}
	closer := func(j *storage.Journal) error {
		return j.Close()
	}
	return ctxlocal.New(factory, closer, ctxlocal.WithLogger(logger))
}

// Option configures a TaskService.
type Option func(*TaskService)

// WithLogger sets the service logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *TaskService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithRegisterer registers the task metrics with reg.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(s *TaskService) {
		s.registerer = reg
	}
}

// WithBackoff enables bounded backoff between contended appends.
func WithBackoff(minDelay, maxDelay time.Duration) Option {
	return func(s *TaskService) {
		s.backoffMin, s.backoffMax = minDelay, maxDelay
	}
}

// WithJournals records appends made from an execution context.
func WithJournals(j *Journals) Option {
	return func(s *TaskService) {
		s.journals = j
	}
}

// TaskService manages the task list.
type TaskService struct {
	list     *applist.List[domain.Task]
	journals *Journals
	logger   *slog.Logger

	registerer prometheus.Registerer
	backoffMin time.Duration
	backoffMax time.Duration

	added    prometheus.Counter
	rejected prometheus.Counter
}

// NewTaskService creates a service with an empty task list.
func NewTaskService(opts ...Option) *TaskService {
	s := &TaskService{logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}

	s.added = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "tasklist",
		Name:      "tasks_added_total",
		Help:      "Tasks appended to the list.",
	})
	s.rejected = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "tasklist",
		Name:      "tasks_rejected_total",
		Help:      "Tasks rejected by validation.",
	})

	listOpts := []applist.Option[domain.Task]{
		applist.WithValidator(domain.Task.Validate),
		applist.WithObserver[domain.Task](s.taskAdded),
	}
	if s.backoffMax > 0 {
		listOpts = append(listOpts, applist.WithBackoff[domain.Task](s.backoffMin, s.backoffMax))
	}
	s.list = applist.New(listOpts...)

	if s.registerer != nil {
		tasks := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "tasklist",
			Name:      "tasks",
			Help:      "Tasks currently in the list.",
		}, func() float64 { return float64(s.list.Len()) })
		s.registerer.MustRegister(s.added, s.rejected, tasks)
	}

	return s
}

// taskAdded runs after every successful append.
func (s *TaskService) taskAdded(index int, t domain.Task) {
	s.added.Inc()
	s.logger.Info("task added",
		"task_id", t.ID,
		"index", index,
		"title", t.Title)
}

// AddTaskRequest contains parameters for appending a task.
type AddTaskRequest struct {
	Title  string   `json:"title"`
	Labels []string `json:"labels,omitempty"`
}

// AddTaskResponse contains the appended task and its index.
type AddTaskResponse struct {
	Task  domain.Task `json:"task"`
	Index int         `json:"index"`
}

// Add validates and appends a task.
//
// When ctx carries an execution id and initialized journals are attached, the append is
// also recorded in that execution context's journal. A journal failure is
// logged; the append itself has already been published and stands.
func (s *TaskService) Add(ctx context.Context, req AddTaskRequest) (*AddTaskResponse, error) {
	task, err := domain.NewTask(req.Title, req.Labels)
	if err != nil {
		return nil, err
	}

	index, err := s.list.Add(task)
	if err != nil {
		s.rejected.Inc()
		return nil, toDomainError(err)
	}

	s.record(ctx, index, task)

	return &AddTaskResponse{Task: task, Index: index}, nil
}

func (s *TaskService) record(ctx context.Context, index int, task domain.Task) {
	if s.journals == nil {
		return
	}
	if _, ok := ctxlocal.ExecutionID(ctx); !ok || !s.journals.Initialized() {
		return
	}

	j, err := s.journals.Get(ctx)
	if err == nil {
		err = j.Record(ctx, storage.JournalEntry{
			Index:  index,
			TaskID: task.ID,
			Title:  task.Title,
		})
	}
	if err != nil {
		s.logger.Warn("failed to journal task",
			"task_id", task.ID,
			"index", index,
			"error", err)
	}
}

// Get returns the task at index.
func (s *TaskService) Get(_ context.Context, index int) (domain.Task, error) {
	task, err := s.list.Get(index)
	if err != nil {
		return domain.Task{}, toDomainError(err)
	}
	return task, nil
}

// ListTasksRequest selects a page of tasks.
type ListTasksRequest struct {
	Offset int
	Limit  int // default DefaultPageSize, max MaxPageSize
}

// ListTasksResponse is one page of a single snapshot.
type ListTasksResponse struct {
	Tasks  []domain.Task `json:"tasks"`
	Total  int           `json:"total"`
	Offset int           `json:"offset"`
	Limit  int           `json:"limit"`
}

// List returns a page of tasks. Total is the length of the snapshot the
// page was cut from, so pages and totals are always consistent.
func (s *TaskService) List(_ context.Context, req ListTasksRequest) (*ListTasksResponse, error) {
	if req.Offset < 0 {
		return nil, domain.ErrInvalidArgument.WithDetails("offset must not be negative")
	}
	limit := req.Limit
	switch {
	case limit < 0:
		return nil, domain.ErrInvalidArgument.WithDetails("limit must not be negative")
	case limit == 0:
		limit = DefaultPageSize
	case limit > MaxPageSize:
		limit = MaxPageSize
	}

	view := s.list.Snapshot()
	tasks := view.Range(req.Offset, req.Offset+limit)
	if tasks == nil {
		tasks = []domain.Task{}
	}

	return &ListTasksResponse{
		Tasks:  tasks,
		Total:  view.Len(),
		Offset: req.Offset,
		Limit:  limit,
	}, nil
}

// Snapshot returns a stable view of the whole list.
func (s *TaskService) Snapshot(_ context.Context) applist.View[domain.Task] {
	return s.list.Snapshot()
}

// Count returns the current number of tasks.
func (s *TaskService) Count(_ context.Context) int {
	return s.list.Len()
}

// Journal returns the entries recorded by the execution context in ctx.
// A context that has not appended anything has an empty journal.
func (s *TaskService) Journal(ctx context.Context) ([]storage.JournalEntry, error) {
	if s.journals == nil {
		return nil, domain.ErrNotInitialized.WithDetails("journals are disabled")
	}
	if _, ok := ctxlocal.ExecutionID(ctx); !ok {
		return nil, domain.ErrMissingArgument.WithDetails("no execution context")
	}
	if !s.journals.Initialized() {
		return nil, domain.ErrNotInitialized.WithDetails("journals are not initialized")
	}

	j, err := s.journals.Get(ctx)
	if err != nil {
		return nil, toDomainError(err)
	}
	entries, err := j.Entries(ctx)
	if err != nil {
		return nil, domain.ErrStorageError.WithCause(err)
	}
	return entries, nil
}

// ReleaseExecution closes the journal of the execution context in ctx.
func (s *TaskService) ReleaseExecution(ctx context.Context) error {
	if s.journals == nil {
		return nil
	}
	if err := s.journals.Close(ctx); err != nil && !errors.Is(err, ctxlocal.ErrNoExecution) {
		return domain.ErrStorageError.WithCause(err)
	}
	return nil
}

// OpenJournals returns the number of journals currently open.
func (s *TaskService) OpenJournals() int {
	if s.journals == nil {
		return 0
	}
	return s.journals.Len()
}

// toDomainError maps list and cache errors to domain errors.
func toDomainError(err error) error {
	var de *domain.DomainError
	var ie *applist.IndexError
	switch {
	case errors.As(err, &ie):
		return domain.ErrIndexOutOfRange.WithDetails(
			fmt.Sprintf("index %d: there are %d tasks", ie.Index, ie.Length))
	case errors.As(err, &de):
		return de
	case errors.Is(err, applist.ErrInvalidArgument):
		return domain.ErrInvalidArgument.WithCause(err)
	case errors.Is(err, ctxlocal.ErrNotInitialized):
		return domain.ErrNotInitialized.WithCause(err)
	default:
		return domain.ErrInternalServer.WithCause(err)
	}
}
