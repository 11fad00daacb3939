package metadata

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DataFile describes one table file published by a run.
type DataFile struct {
	Path        string         `json:"path"`
	FileSize    int64          `json:"file_size_in_bytes"`
	RecordCount int64          `json:"record_count"`
	Partition   map[string]any `json:"partition"`
}

// ManifestEntry mirrors the information kept in an Iceberg manifest file.
type ManifestEntry struct {
	Status   int      `json:"status"`
	DataFile DataFile `json:"data_file"`
}

// Snapshot is one run of the pipeline.
type Snapshot struct {
	SnapshotID  int64          `json:"snapshot-id"`
	RunID       string         `json:"run-id"`
	TimestampMs int64          `json:"timestamp-ms"`
	Manifest    string         `json:"manifest-list"`
	Summary     map[string]int `json:"summary"`
}

// TableMetadata is the metadata.json file describing every run so far.
type TableMetadata struct {
	FormatVersion     int        `json:"format-version"`
	TableUUID         string     `json:"table-uuid"`
	Location          string     `json:"location"`
	CurrentSnapshotID int64      `json:"current-snapshot-id"`
	Snapshots         []Snapshot `json:"snapshots"`
}

// Run is what the generator records for one pipeline run.
type Run struct {
	ID        string
	Timestamp time.Time
	Files     []DataFile
	RowCounts map[string]int
}

// Generator maintains the run manifest under basePath/metadata. Snapshots
// are keyed by run timestamp, so re-running the same run replaces its
// snapshot instead of adding one.
type Generator struct {
	mu       sync.Mutex
	basePath string
	name     string
}

// NewGenerator returns a metadata generator rooted at basePath.
func NewGenerator(basePath, name string) *Generator {
	return &Generator{basePath: basePath, name: name}
}

func (g *Generator) metadataPath() string {
	return filepath.Join(g.basePath, "metadata", "metadata.json")
}

// Load returns the current metadata, or an empty document if none exists.
func (g *Generator) Load() (*TableMetadata, error) {
	b, err := os.ReadFile(g.metadataPath())
	if errors.Is(err, os.ErrNotExist) {
		return &TableMetadata{FormatVersion: 2, TableUUID: uuid.NewString(), Location: g.basePath}, nil
	}
	if err != nil {
		return nil, err
	}
	var tm TableMetadata
	if err := json.Unmarshal(b, &tm); err != nil {
		return nil, fmt.Errorf("parse %s: %w", g.metadataPath(), err)
	}
	return &tm, nil
}

// AddRun writes the run's manifest and makes it the current snapshot.
func (g *Generator) AddRun(run Run) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	snapID := run.Timestamp.UnixMilli()
	manifestFile := fmt.Sprintf("manifest-%d.json", snapID)
	manifestPath := filepath.Join(g.basePath, "metadata", manifestFile)
	if err := os.MkdirAll(filepath.Dir(manifestPath), 0o755); err != nil {
		return err
	}
	entries := make([]ManifestEntry, len(run.Files))
	for i, df := range run.Files {
		entries[i] = ManifestEntry{Status: 1, DataFile: df}
	}
	b, err := json.Marshal(entries)
	if err != nil {
		return err
	}
	if err := os.WriteFile(manifestPath, b, 0o644); err != nil {
		return err
	}

	tm, err := g.Load()
	if err != nil {
		return err
	}
	snapshot := Snapshot{
		SnapshotID:  snapID,
		RunID:       run.ID,
		TimestampMs: run.Timestamp.UnixMilli(),
		Manifest:    manifestFile,
		Summary:     run.RowCounts,
	}
	replaced := false
	for i := range tm.Snapshots {
		if tm.Snapshots[i].SnapshotID == snapID {
			tm.Snapshots[i] = snapshot
			replaced = true
		}
	}
	if !replaced {
		tm.Snapshots = append(tm.Snapshots, snapshot)
	}
	sort.Slice(tm.Snapshots, func(i, j int) bool { return tm.Snapshots[i].SnapshotID < tm.Snapshots[j].SnapshotID })
	tm.CurrentSnapshotID = snapID
	return g.writeTableMetadata(tm)
}

func (g *Generator) writeTableMetadata(tm *TableMetadata) error {
	b, err := json.MarshalIndent(tm, "", "  ")
	if err != nil {
		return err
	}
	tmp := g.metadataPath() + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, g.metadataPath())
}

// WriteCatalogEntry creates a catalog entry per table pointing at the metadata.
func (g *Generator) WriteCatalogEntry(catalogDir string, tables []string) error {
	if err := os.MkdirAll(catalogDir, 0o755); err != nil {
		return err
	}
	for _, table := range tables {
		entry := map[string]string{
			"name":              table,
			"namespace":         g.name,
			"metadata_location": g.metadataPath(),
		}
		b, err := json.MarshalIndent(entry, "", "  ")
		if err != nil {
			return err
		}
		if err := os.WriteFile(filepath.Join(catalogDir, table+".json"), b, 0o644); err != nil {
			return err
		}
	}
	return nil
}
