package writer

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"

	appconfig "salesflow/config"
	"salesflow/logger"
	"salesflow/models"
)

// BigQuerySink loads each table into a BigQuery dataset with a parquet
// load job. WRITE_TRUNCATE replaces the table contents atomically.
type BigQuerySink struct {
	client      *bigquery.Client
	dataset     string
	compression string
	log         *logger.Log
}

func NewBigQuerySink(ctx context.Context, cfg appconfig.BigQueryConfig, compression string) (*BigQuerySink, error) {
	client, err := bigquery.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create BigQuery client: %w", err)
	}
	client.Location = cfg.Location
	s := &BigQuerySink{
		client:      client,
		dataset:     cfg.Dataset,
		compression: compression,
		log:         logger.GetLogger(),
	}
	s.log.WithComponent("bigquery_writer").WithFields(logger.Fields{
		"project":  cfg.ProjectID,
		"dataset":  cfg.Dataset,
		"location": cfg.Location,
	}).Info("bigquery writer initialized")
	return s, nil
}

func (s *BigQuerySink) Name() string { return "bigquery" }

func (s *BigQuerySink) Publish(ctx context.Context, run RunInfo, tables []*models.Table) ([]PublishedTable, error) {
	log := s.log.WithComponent("bigquery_writer").WithFields(logger.Fields{"run_id": run.ID, "dataset": s.dataset})
	start := time.Now()
	out := make([]PublishedTable, 0, len(tables))
	for _, t := range tables {
		data, err := EncodeParquet(t, s.compression)
		if err != nil {
			return out, err
		}
		src := bigquery.NewReaderSource(bytes.NewReader(data))
		src.SourceFormat = bigquery.Parquet

		loader := s.client.Dataset(s.dataset).Table(t.Name).LoaderFrom(src)
		loader.WriteDisposition = bigquery.WriteTruncate
		loader.CreateDisposition = bigquery.CreateIfNeeded
		loader.Labels = map[string]string{"pipeline": "salesflow"}

		job, err := loader.Run(ctx)
		if err != nil {
			return out, fmt.Errorf("failed to start load job for %s: %w", t.Name, err)
		}
		status, err := job.Wait(ctx)
		if err != nil {
			return out, fmt.Errorf("load job for %s: %w", t.Name, err)
		}
		if err := status.Err(); err != nil {
			return out, fmt.Errorf("load job for %s failed: %w", t.Name, err)
		}
		location := fmt.Sprintf("bq://%s.%s.%s", s.client.Project(), s.dataset, t.Name)
		out = append(out, PublishedTable{Sink: s.Name(), Table: t.Name, Location: location, Rows: len(t.Rows), Bytes: int64(len(data))})
		logger.LogDataFlowEntry(log.WithFields(logger.Fields{"job_id": job.ID()}), t.Name, location, len(t.Rows), "parquet")
	}
	logger.LogPerformanceEntry(log, "bigquery_writer", "publish", time.Since(start), logger.Fields{"tables": len(out)})
	return out, nil
}

func (s *BigQuerySink) Close() error {
	return s.client.Close()
}
