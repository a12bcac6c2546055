package domain

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestNewTask(t *testing.T) {
	task, err := NewTask("write report", []string{"work"})
	if err != nil {
		t.Fatalf("NewTask() error = %v", err)
	}

	if !IsValidTaskID(task.ID) {
		t.Errorf("ID %q is not a valid task ID", task.ID)
	}
	if task.Title != "write report" {
		t.Errorf("Title = %q, want %q", task.Title, "write report")
	}
	if task.CreatedAt == 0 {
		t.Error("CreatedAt should be set")
	}
	if task.CreatedTime().UnixMilli() != task.CreatedAt {
		t.Error("CreatedTime() should match CreatedAt")
	}
}

func TestTask_LabelsDefensiveCopy(t *testing.T) {
	labels := []string{"a", "b"}
	task, _ := NewTask("t", labels)

	labels[0] = "mutated"
	got := task.Labels()
	got[1] = "mutated"

	if strings.Join(task.Labels(), ",") != "a,b" {
		t.Errorf("Labels() = %v, want [a b]", task.Labels())
	}
}

func TestTask_Validate(t *testing.T) {
	tests := []struct {
		name    string
		title   string
		labels  []string
		wantErr bool
	}{
		{"valid", "write report", nil, false},
		{"valid with labels", "write report", []string{"work", "q3"}, false},
		{"empty title", "", nil, true},
		{"blank title", "   \t", nil, true},
		{"title too long", strings.Repeat("x", MaxTitleLength+1), nil, true},
		{"title at limit", strings.Repeat("x", MaxTitleLength), nil, false},
		{"invalid utf8", "\xff\xfe", nil, true},
		{"blank label", "t", []string{"ok", " "}, true},
		{"label too long", "t", []string{strings.Repeat("l", MaxLabelLength+1)}, true},
		{"too many labels", "t", make([]string, MaxLabels+1), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			task, _ := NewTask(tt.title, tt.labels)
			err := task.Validate()
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidArgument) {
					t.Errorf("Validate() error = %v, want ErrInvalidArgument", err)
				}
				return
			}
			if err != nil {
				t.Errorf("Validate() error = %v", err)
			}
		})
	}
}

func TestIsValidTaskID(t *testing.T) {
	id, _ := GenerateTaskID()

	tests := []struct {
		id   string
		want bool
	}{
		{id, true},
		{strings.ToUpper(id), true},
		{"", false},
		{"tltk-short", false},
		{"tmss-" + id[len(TaskIDPrefix):], false},
		{TaskIDPrefix + strings.Repeat("!", 26), false},
	}

	for _, tt := range tests {
		if got := IsValidTaskID(tt.id); got != tt.want {
			t.Errorf("IsValidTaskID(%q) = %v, want %v", tt.id, got, tt.want)
		}
	}
}

func TestTask_JSON(t *testing.T) {
	task, _ := NewTask("write report", []string{"work"})

	data, err := json.Marshal(task)
	if err != nil {
		t.Fatalf("Marshal error = %v", err)
	}
	if !strings.Contains(string(data), `"labels":["work"]`) {
		t.Errorf("JSON %s should contain labels", data)
	}

	var decoded Task
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal error = %v", err)
	}
	if decoded.ID != task.ID || decoded.Title != task.Title || decoded.CreatedAt != task.CreatedAt {
		t.Errorf("decoded = %+v, want %+v", decoded, task)
	}
	if strings.Join(decoded.Labels(), ",") != "work" {
		t.Errorf("decoded labels = %v", decoded.Labels())
	}
}

func TestTask_JSONWithoutLabels(t *testing.T) {
	task, _ := NewTask("t", nil)
	data, _ := json.Marshal(task)
	if strings.Contains(string(data), "labels") {
		t.Errorf("JSON %s should omit empty labels", data)
	}
}
