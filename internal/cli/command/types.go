package command

import "github.com/yndnr/tasklist-go/internal/infra/buildinfo"

// task is a task as the server encodes it.
type task struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	Labels    []string `json:"labels,omitempty"`
	CreatedAt int64    `json:"created_at"`
}

// TaskRow is a task with its list position, as printed.
type TaskRow struct {
	Index     int      `json:"index" yaml:"index"`
	Title     string   `json:"title" yaml:"title"`
	Labels    []string `json:"labels,omitempty" yaml:"labels,omitempty" table:"list"`
	ID        string   `json:"id" yaml:"id" table:"wide"`
	CreatedAt int64    `json:"created_at" yaml:"created_at" table:"ms,wide"`
}

func newTaskRow(index int, t task) TaskRow {
	return TaskRow{
		Index:     index,
		Title:     t.Title,
		Labels:    t.Labels,
		ID:        t.ID,
		CreatedAt: t.CreatedAt,
	}
}

type addTaskRequest struct {
	Title  string   `json:"title"`
	Labels []string `json:"labels,omitempty"`
}

type addTaskResponse struct {
	Task  task `json:"task"`
	Index int  `json:"index"`
}

type listTasksResponse struct {
	Items  []task `json:"items"`
	Total  int    `json:"total"`
	Offset int    `json:"offset"`
	Limit  int    `json:"limit"`
}

// TaskPage is one printed page of tasks.
type TaskPage struct {
	Items  []TaskRow `json:"items" yaml:"items"`
	Total  int       `json:"total" yaml:"total"`
	Offset int       `json:"offset" yaml:"offset"`
	Limit  int       `json:"limit" yaml:"limit"`
}

type batchAddRequest struct {
	Tasks []addTaskRequest `json:"tasks"`
}

type batchItemResult struct {
	Position int    `json:"position"`
	Index    int    `json:"index"`
	TaskID   string `json:"task_id"`
	Worker   int    `json:"worker"`
	Code     string `json:"code"`
	Message  string `json:"message"`
}

type batchAddResponse struct {
	Results   []batchItemResult `json:"results"`
	Succeeded int               `json:"succeeded"`
	Failed    int               `json:"failed"`
}

// ImportFailure is one line of an import file the server rejected.
type ImportFailure struct {
	Line    int    `json:"line" yaml:"line"`
	Title   string `json:"title" yaml:"title"`
	Code    string `json:"code" yaml:"code"`
	Message string `json:"message" yaml:"message"`
}

// ImportResult summarizes task import.
type ImportResult struct {
	Total     int             `json:"total" yaml:"total"`
	Succeeded int             `json:"succeeded" yaml:"succeeded"`
	Failed    int             `json:"failed" yaml:"failed"`
	Failures  []ImportFailure `json:"failures,omitempty" yaml:"failures,omitempty"`
}

type healthResponse struct {
	Status string `json:"status" yaml:"status"`
	Time   string `json:"time" yaml:"time"`
}

// Health is the printed result of system health.
type Health struct {
	Server string `json:"server" yaml:"server"`
	Status string `json:"status" yaml:"status"`
	Ready  bool   `json:"ready" yaml:"ready"`
}

// StatusSummary mirrors GET /admin/v1/status/summary.
type StatusSummary struct {
	Status        string         `json:"status" yaml:"status"`
	Build         buildinfo.Info `json:"build" yaml:"build" table:"-"`
	StartedAt     string         `json:"started_at" yaml:"started_at"`
	UptimeSeconds int64          `json:"uptime_seconds" yaml:"uptime_seconds"`
	Tasks         int            `json:"tasks" yaml:"tasks"`
	Workers       int            `json:"workers" yaml:"workers"`
	Processed     int64          `json:"processed" yaml:"processed"`
	OpenJournals  int            `json:"open_journals" yaml:"open_journals"`
	Goroutines    int            `json:"goroutines" yaml:"goroutines" table:"wide"`
}

// VersionInfo is the printed result of version.
type VersionInfo struct {
	Client buildinfo.Info  `json:"client" yaml:"client"`
	Server *buildinfo.Info `json:"server,omitempty" yaml:"server,omitempty"`
}
