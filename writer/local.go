package writer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"salesflow/logger"
	"salesflow/models"
)

// LocalSink writes each table to <dir>/<table>/data.parquet. Files are
// written next to their target and renamed into place.
type LocalSink struct {
	dir         string
	compression string
	log         *logger.Log
}

func NewLocalSink(dir, compression string) (*LocalSink, error) {
	if dir == "" {
		return nil, fmt.Errorf("local sink directory not configured")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	return &LocalSink{dir: dir, compression: compression, log: logger.GetLogger()}, nil
}

func (s *LocalSink) Name() string { return "local" }

func (s *LocalSink) Publish(ctx context.Context, run RunInfo, tables []*models.Table) ([]PublishedTable, error) {
	log := s.log.WithComponent("local_writer").WithFields(logger.Fields{"run_id": run.ID, "dir": s.dir})
	start := time.Now()
	out := make([]PublishedTable, 0, len(tables))
	for _, t := range tables {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		data, err := EncodeParquet(t, s.compression)
		if err != nil {
			return out, err
		}
		target := filepath.Join(s.dir, filepath.FromSlash(objectKey("", t.Name)))
		if err := writeAtomic(target, data); err != nil {
			return out, fmt.Errorf("failed to write %s: %w", t.Name, err)
		}
		out = append(out, PublishedTable{Sink: s.Name(), Table: t.Name, Location: target, Rows: len(t.Rows), Bytes: int64(len(data))})
		logger.LogDataFlowEntry(log, t.Name, target, len(t.Rows), "parquet")
	}
	logger.LogPerformanceEntry(log, "local_writer", "publish", time.Since(start), logger.Fields{"tables": len(out)})
	return out, nil
}

func (s *LocalSink) Close() error { return nil }

// writeAtomic writes data to a temp file in the target's directory and
// renames it over the target.
func writeAtomic(target string, data []byte) error {
	dir := filepath.Dir(target)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, target); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}
