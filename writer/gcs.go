package writer

import (
	"context"
	"fmt"
	"io"
	"time"

	"cloud.google.com/go/storage"

	appconfig "salesflow/config"
	"salesflow/logger"
	"salesflow/models"
)

// GCSSink uploads each table as a single parquet object to Cloud Storage.
type GCSSink struct {
	client      *storage.Client
	bucket      string
	prefix      string
	compression string
	newWriter   func(ctx context.Context, object string) io.WriteCloser
	log         *logger.Log
}

// NewGCSSink creates the storage client using application default credentials.
func NewGCSSink(ctx context.Context, cfg appconfig.GCSConfig, compression string) (*GCSSink, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS client: %w", err)
	}
	s := &GCSSink{
		client:      client,
		bucket:      cfg.Bucket,
		prefix:      cfg.Prefix,
		compression: compression,
		log:         logger.GetLogger(),
	}
	s.newWriter = func(ctx context.Context, object string) io.WriteCloser {
		w := client.Bucket(cfg.Bucket).Object(object).NewWriter(ctx)
		w.ContentType = "application/octet-stream"
		return w
	}
	s.log.WithComponent("gcs_writer").WithFields(logger.Fields{"bucket": cfg.Bucket, "prefix": cfg.Prefix}).Info("gcs writer initialized")
	return s, nil
}

func (s *GCSSink) Name() string { return "gcs" }

func (s *GCSSink) Publish(ctx context.Context, run RunInfo, tables []*models.Table) ([]PublishedTable, error) {
	log := s.log.WithComponent("gcs_writer").WithFields(logger.Fields{"run_id": run.ID, "bucket": s.bucket})
	start := time.Now()
	out := make([]PublishedTable, 0, len(tables))
	for _, t := range tables {
		data, err := EncodeParquet(t, s.compression)
		if err != nil {
			return out, err
		}
		key := objectKey(s.prefix, t.Name)
		w := s.newWriter(ctx, key)
		if _, err := w.Write(data); err != nil {
			_ = w.Close()
			return out, fmt.Errorf("gcs write failed for %s: %w", t.Name, err)
		}
		// The object only becomes visible once Close succeeds.
		if err := w.Close(); err != nil {
			return out, fmt.Errorf("gcs close failed for %s: %w", t.Name, err)
		}
		location := objectURI("gs", s.bucket, key)
		out = append(out, PublishedTable{Sink: s.Name(), Table: t.Name, Location: location, Rows: len(t.Rows), Bytes: int64(len(data))})
		logger.LogDataFlowEntry(log, t.Name, location, len(t.Rows), "parquet")
	}
	logger.LogPerformanceEntry(log, "gcs_writer", "publish", time.Since(start), logger.Fields{"tables": len(out)})
	return out, nil
}

func (s *GCSSink) Close() error {
	if s.client == nil {
		return nil
	}
	return s.client.Close()
}
