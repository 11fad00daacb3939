package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"salesflow/logger"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "config.yml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestRunMissingConfigFails(t *testing.T) {
	if code := run(filepath.Join(t.TempDir(), "absent.yml"), true); code != 1 {
		t.Fatalf("expected exit code 1, got %d", code)
	}
}

func TestRunFailureStillClosesResources(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "salesflow.log")
	rawDir := filepath.Join(dir, "raw")
	if err := os.Mkdir(rawDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	t.Setenv("LOG_LEVEL", "")
	t.Cleanup(func() {
		_ = logger.GetLogger().Configure("info", "json", "stdout", 0)
	})

	// The raw directory holds no tables, so the extract stage fails.
	path := writeConfig(t, dir, `app:
  name: "salesflow"
pipeline:
  as_of_date: "2018-10-17"
  run_timestamp: "2018-10-18T00:00:00Z"
source:
  kind: csv
  csv:
    dir: "`+rawDir+`"
writer:
  local:
    enabled: true
    dir: "`+filepath.Join(dir, "marts")+`"
metrics:
  prometheus:
    enabled: true
    address: "127.0.0.1:0"
logging:
  level: "info"
  format: "json"
  output: "`+logPath+`"
`)

	if code := run(path, true); code != 1 {
		t.Fatalf("expected exit code 1, got %d", code)
	}

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	out := string(data)
	for _, msg := range []string{"pipeline components closed", "metric handler unregistered", "salesflow stopped"} {
		if !strings.Contains(out, msg) {
			t.Errorf("expected log to contain %q", msg)
		}
	}
	if strings.Index(out, "salesflow stopped") > strings.Index(out, "pipeline components closed") {
		t.Error("expected components to close after the run loop returned")
	}
}
