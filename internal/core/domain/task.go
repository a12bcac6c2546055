package domain

import (
	"crypto/rand"
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/oklog/ulid/v2"

	"github.com/yndnr/tasklist-go/pkg/immutable"
)

// Task constraints.
const (
	MaxTitleLength = 1024
	MaxLabels      = 32
	MaxLabelLength = 64

	// TaskIDPrefix is the prefix for task IDs.
	TaskIDPrefix = "tltk-"
)

// Task is one entry of the task list. A Task is a value: once built it is
// never modified, and its labels are only reachable through copies.
type Task struct {
	// ID is the unique identifier for the task.
	// Format: tltk-{ulid_lowercase}, 31 characters total.
	ID string

	// Title is the task text. It must not be blank.
	Title string

	// CreatedAt is the creation timestamp (Unix milliseconds).
	CreatedAt int64

	labels immutable.Slice[string]
}

// NewTask creates a Task with a generated ID. It does not validate.
func NewTask(title string, labels []string) (Task, error) {
	id, err := GenerateTaskID()
	if err != nil {
		return Task{}, err
	}
	return Task{
		ID:        id,
		Title:     title,
		CreatedAt: time.Now().UnixMilli(),
		labels:    immutable.NewSlice(labels),
	}, nil
}

// GenerateTaskID generates a new task ID using ULID.
func GenerateTaskID() (string, error) {
	entropy := ulid.Monotonic(rand.Reader, 0)
	id, err := ulid.New(ulid.Timestamp(time.Now()), entropy)
	if err != nil {
		return "", ErrInternalServer.WithCause(err)
	}
	return TaskIDPrefix + strings.ToLower(id.String()), nil
}

// IsValidTaskID checks if a string is a valid task ID.
// ParseStrict also rejects characters outside the Crockford alphabet.
func IsValidTaskID(id string) bool {
	id = strings.ToLower(id)
	if !strings.HasPrefix(id, TaskIDPrefix) || len(id) != len(TaskIDPrefix)+ulid.EncodedSize {
		return false
	}
	_, err := ulid.ParseStrict(strings.ToUpper(id[len(TaskIDPrefix):]))
	return err == nil
}

// Labels returns a copy of the task labels.
func (t Task) Labels() []string {
	return t.labels.Get()
}

// CreatedTime returns CreatedAt as time.Time.
func (t Task) CreatedTime() time.Time {
	return time.UnixMilli(t.CreatedAt)
}

// Validate checks the task against the task constraints.
func (t Task) Validate() error {
	if strings.TrimSpace(t.Title) == "" {
		return ErrInvalidArgument.WithDetails("task cannot be blank")
	}
	if len(t.Title) > MaxTitleLength {
		return ErrInvalidArgument.WithDetails(fmt.Sprintf("title exceeds %d bytes", MaxTitleLength))
	}
	if !utf8.ValidString(t.Title) {
		return ErrInvalidArgument.WithDetails("title is not valid UTF-8")
	}
	if t.labels.Len() > MaxLabels {
		return ErrInvalidArgument.WithDetails(fmt.Sprintf("at most %d labels allowed", MaxLabels))
	}
	for i := 0; i < t.labels.Len(); i++ {
		label, _ := t.labels.At(i)
		if strings.TrimSpace(label) == "" {
			return ErrInvalidArgument.WithDetails("label cannot be blank")
		}
		if len(label) > MaxLabelLength {
			return ErrInvalidArgument.WithDetails(fmt.Sprintf("label exceeds %d bytes", MaxLabelLength))
		}
	}
	return nil
}

type taskJSON struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	Labels    []string `json:"labels,omitempty"`
	CreatedAt int64    `json:"created_at"`
}

// MarshalJSON implements json.Marshaler.
func (t Task) MarshalJSON() ([]byte, error) {
	return json.Marshal(taskJSON{
		ID:        t.ID,
		Title:     t.Title,
		Labels:    t.Labels(),
		CreatedAt: t.CreatedAt,
	})
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Task) UnmarshalJSON(data []byte) error {
	var v taskJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*t = Task{
		ID:        v.ID,
		Title:     v.Title,
		CreatedAt: v.CreatedAt,
		labels:    immutable.NewSlice(v.Labels),
	}
	return nil
}
