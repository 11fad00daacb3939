package metadata

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func testRun(id string, ts time.Time) Run {
	return Run{
		ID:        id,
		Timestamp: ts,
		Files: []DataFile{{
			Path:        "data/marts/fct_orders_with_economics/data.parquet",
			FileSize:    100,
			RecordCount: 10,
			Partition:   map[string]any{"table": "fct_orders_with_economics", "sink": "local"},
		}},
		RowCounts: map[string]int{"fct_orders_with_economics": 10},
	}
}

func TestGeneratorCreatesMetadata(t *testing.T) {
	dir := t.TempDir()
	gen := NewGenerator(dir, "marts")
	ts := time.Date(2018, 10, 18, 12, 0, 0, 0, time.UTC)
	if err := gen.AddRun(testRun("run-1", ts)); err != nil {
		t.Fatalf("AddRun: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "metadata", "metadata.json")); err != nil {
		t.Fatalf("metadata not written: %v", err)
	}
	catalogDir := filepath.Join(dir, "catalog")
	if err := gen.WriteCatalogEntry(catalogDir, []string{"fct_orders_with_economics"}); err != nil {
		t.Fatalf("catalog entry: %v", err)
	}
	if _, err := os.Stat(filepath.Join(catalogDir, "fct_orders_with_economics.json")); err != nil {
		t.Fatalf("catalog entry not written: %v", err)
	}
}

func TestGeneratorReplacesSameRun(t *testing.T) {
	dir := t.TempDir()
	gen := NewGenerator(dir, "marts")
	ts := time.Date(2018, 10, 18, 12, 0, 0, 0, time.UTC)
	for _, id := range []string{"run-1", "run-2"} {
		if err := gen.AddRun(testRun(id, ts)); err != nil {
			t.Fatalf("AddRun: %v", err)
		}
	}
	if err := gen.AddRun(testRun("run-3", ts.Add(time.Hour))); err != nil {
		t.Fatalf("AddRun: %v", err)
	}

	tm, err := gen.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(tm.Snapshots) != 2 {
		t.Fatalf("expected 2 snapshots, got %d", len(tm.Snapshots))
	}
	if tm.Snapshots[0].RunID != "run-2" {
		t.Errorf("same-timestamp run should be replaced, got %s", tm.Snapshots[0].RunID)
	}
	if tm.CurrentSnapshotID != ts.Add(time.Hour).UnixMilli() {
		t.Errorf("unexpected current snapshot %d", tm.CurrentSnapshotID)
	}

	first := tm.TableUUID
	again, _ := gen.Load()
	if again.TableUUID != first {
		t.Errorf("table uuid should persist across loads")
	}
}
