package writer

import (
	"context"
	"fmt"
	"path"
	"time"

	"salesflow/models"
)

// RunInfo identifies the run whose tables are being published.
type RunInfo struct {
	ID        string
	Timestamp time.Time
	Version   string
}

// PublishedTable describes one table written by a sink.
type PublishedTable struct {
	Sink     string `json:"sink"`
	Table    string `json:"table"`
	Location string `json:"location"`
	Rows     int    `json:"rows"`
	Bytes    int64  `json:"bytes,omitempty"`
}

// Sink publishes the tables of a run. Every table replaces the sink's
// previous copy as a whole, so a reader sees either the old or the new
// table, never a mix.
type Sink interface {
	Name() string
	Publish(ctx context.Context, run RunInfo, tables []*models.Table) ([]PublishedTable, error)
	Close() error
}

// objectKey is the object path of a table under prefix.
func objectKey(prefix, table string) string {
	return path.Join(prefix, table, "data.parquet")
}

func objectURI(scheme, bucket, key string) string {
	return fmt.Sprintf("%s://%s/%s", scheme, bucket, key)
}
