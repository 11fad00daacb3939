package logger

import (
	"io"
	"os"
	"testing"
)

func TestWithComponent(t *testing.T) {
	log := Logger()
	entry := log.WithComponent("test")
	if v, ok := entry.Entry.Data["component"]; !ok || v != "test" {
		t.Fatalf("component field missing: %v", entry.Entry.Data)
	}
}

func TestConfigureInvalidLevel(t *testing.T) {
	// Ensure environment variables do not override the provided level
	t.Setenv("LOG_LEVEL", "")

	log := Logger()
	if err := log.Configure("invalid", "json", "stdout", 0); err == nil {
		t.Fatalf("expected error for invalid level")
	}
}

func TestWithEnv(t *testing.T) {
	os.Setenv("FOO", "bar")
	log := Logger()
	entry := log.WithEnv("FOO")
	if v, ok := entry.Entry.Data["FOO"]; !ok || v != "bar" {
		t.Fatalf("env field not set: %v", entry.Entry.Data)
	}
}

func TestConfigureInvalidFormat(t *testing.T) {
	t.Setenv("LOG_LEVEL", "")

	log := Logger()
	if err := log.Configure("info", "xml", "stdout", 0); err == nil {
		t.Fatalf("expected error for invalid format")
	}
}

func TestWarnAndErrorCounts(t *testing.T) {
	ResetCounts()
	log := Logger()
	log.SetOutput(io.Discard)

	entry := log.WithComponent("enricher")
	entry.Warn("rate missing")
	entry.Warn("rate missing")
	entry.Error("boom")
	log.WithComponent("aggregator").Warn("empty group")

	counts := Counts()
	if len(counts) != 2 {
		t.Fatalf("expected 2 components, got %d", len(counts))
	}
	if counts[0].Component != "aggregator" || counts[0].Warnings != 1 {
		t.Fatalf("unexpected aggregator counts: %+v", counts[0])
	}
	if counts[1].Component != "enricher" || counts[1].Warnings != 2 || counts[1].Errors != 1 {
		t.Fatalf("unexpected enricher counts: %+v", counts[1])
	}
}
