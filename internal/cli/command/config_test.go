package command

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/yndnr/tasklist-go/internal/cli/config"
)

func TestConfigShow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cli.yaml")

	r := runAppOpts(t, runOpts{server: "http://tasks.example.com", configPath: path}, "config", "show")
	if r.err != nil {
		t.Fatalf("config show error = %v", r.err)
	}
	for _, want := range []string{path + " (not found)", "Server:  http://tasks.example.com", "Output:  table"} {
		if !strings.Contains(r.stdout, want) {
			t.Errorf("stdout missing %q:\n%s", want, r.stdout)
		}
	}
}

func TestConfigInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "cli.yaml")
	opts := runOpts{server: "http://tasks.example.com:5080", configPath: path}

	r := runAppOpts(t, opts, "-o", "yaml", "config", "init")
	if r.err != nil {
		t.Fatalf("config init error = %v", r.err)
	}

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.DefaultServer != "http://tasks.example.com:5080" || cfg.DefaultOutput != "yaml" {
		t.Errorf("saved config = %+v", cfg)
	}

	r = runAppOpts(t, opts, "config", "init")
	if r.err == nil || !strings.Contains(r.err.Error(), "already exists") {
		t.Errorf("second init err = %v, want already exists", r.err)
	}

	r = runAppOpts(t, opts, "config", "init", "--force")
	if r.err != nil {
		t.Errorf("init --force error = %v", r.err)
	}
}

func TestConfigValidate(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(content), 0600); err != nil {
			t.Fatal(err)
		}
		return path
	}

	valid := write("valid.yaml", "server:\n  http:\n    addr: 127.0.0.1:9999\nworker:\n  size: 8\n")
	invalid := write("invalid.yaml", "worker:\n  size: 0\n")

	tests := []struct {
		name    string
		args    []string
		wantOut string
		wantErr string
	}{
		{"valid", []string{"config", "validate", valid}, "Configuration is valid", ""},
		{"invalid", []string{"config", "validate", invalid}, "", "worker.size"},
		{"missing", []string{"config", "validate", filepath.Join(dir, "nope.yaml")}, "", "read file"},
		{"no file", []string{"config", "validate"}, "", "path required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := runApp(t, "", tt.args...)
			if tt.wantErr != "" {
				if r.err == nil || !strings.Contains(r.err.Error(), tt.wantErr) {
					t.Errorf("err = %v, want containing %q", r.err, tt.wantErr)
				}
				return
			}
			if r.err != nil {
				t.Fatalf("err = %v", r.err)
			}
			if !strings.Contains(r.stdout, tt.wantOut) {
				t.Errorf("stdout = %q", r.stdout)
			}
		})
	}
}
