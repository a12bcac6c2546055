package logger

import (
	"bytes"
	"testing"
)

func TestRedactSensitive_KeyNames(t *testing.T) {
	tests := []struct {
		key      string
		value    string
		redacted bool
	}{
		{"password", "hunter2", true},
		{"Authorization", "Bearer abc", true},
		{"db_secret", "s3", true},
		{"token", "", false},
		{"title", "buy milk", false},
		{"task_id", "tltk-01J", false},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			var buf bytes.Buffer
			l := newJSONLogger(t, &buf)
			l.Info("event", tt.key, tt.value)

			entry := decodeEntry(t, &buf)
			got, _ := entry[tt.key].(string)
			if tt.redacted && got != redactedValue {
				t.Errorf("%s = %q, want redacted", tt.key, got)
			}
			if !tt.redacted && got != tt.value {
				t.Errorf("%s = %q, want %q", tt.key, got, tt.value)
			}
		})
	}
}

func TestRedactSensitive_Group(t *testing.T) {
	var buf bytes.Buffer
	l := newJSONLogger(t, &buf)
	l.Slog().Info("event", "conn", map[string]string{"x": "y"})
	l.Slog().WithGroup("auth").Info("event", "password", "p")

	if bytes.Contains(buf.Bytes(), []byte(`"p"`)) {
		t.Errorf("grouped password leaked: %s", buf.String())
	}
}
