package pipeline

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"

	"salesflow/config"
	"salesflow/internal/metadata"
	"salesflow/internal/warehouse"
	"salesflow/logger"
	"salesflow/reader"
	"salesflow/writer"
)

// Components are the collaborators built from configuration. Close
// releases every sink, notifier and database handle.
type Components struct {
	Options
	dbs map[string]*sql.DB
}

// Build creates the sources, sinks and notifiers enabled in cfg.
func Build(ctx context.Context, cfg *config.Config) (*Components, error) {
	c := &Components{dbs: make(map[string]*sql.DB)}
	log := logger.GetLogger().WithComponent("pipeline")

	if err := c.buildSources(ctx, cfg); err != nil {
		c.Close()
		return nil, err
	}
	if err := c.buildSinks(ctx, cfg); err != nil {
		c.Close()
		return nil, err
	}
	if err := c.buildNotifiers(cfg); err != nil {
		c.Close()
		return nil, err
	}

	if cfg.Writer.Local.Enabled {
		c.Manifest = metadata.NewGenerator(cfg.Writer.Local.Dir, cfg.App.Name)
		c.CatalogDir = filepath.Join(cfg.Writer.Local.Dir, "catalog")
	}

	sources := make([]string, len(c.Sources))
	for i, s := range c.Sources {
		sources[i] = s.Name()
	}
	sinks := make([]string, len(c.Sinks))
	for i, s := range c.Sinks {
		sinks[i] = s.Name()
	}
	log.WithFields(logger.Fields{
		"sources":   sources,
		"sinks":     sinks,
		"notifiers": len(c.Notifiers),
	}).Info("pipeline components built")
	return c, nil
}

func (c *Components) buildSources(ctx context.Context, cfg *config.Config) error {
	bcb := cfg.Source.BCB.Enabled
	switch cfg.Source.Kind {
	case config.SourcePostgres:
		db, err := c.open(ctx, cfg.Source.Postgres.DSN)
		if err != nil {
			return fmt.Errorf("open source database: %w", err)
		}
		c.Sources = append(c.Sources, reader.NewPostgresReader(db, cfg.Source.Postgres.Schema, bcb))
	default:
		c.Sources = append(c.Sources, reader.NewCSVReader(cfg.Source.CSV, bcb))
	}
	if bcb {
		client, err := reader.NewBCBClient(cfg.Source.BCB)
		if err != nil {
			return err
		}
		c.Sources = append(c.Sources, client)
	}
	return nil
}

func (c *Components) buildSinks(ctx context.Context, cfg *config.Config) error {
	compression := cfg.Writer.Formats.Parquet.Compression

	if cfg.Writer.Local.Enabled {
		sink, err := writer.NewLocalSink(cfg.Writer.Local.Dir, compression)
		if err != nil {
			return err
		}
		c.Sinks = append(c.Sinks, sink)
	}
	if cfg.Storage.S3.Enabled {
		sink, err := writer.NewS3Sink(ctx, cfg.Storage.S3, compression)
		if err != nil {
			return err
		}
		c.Sinks = append(c.Sinks, sink)
	}
	if cfg.Storage.GCS.Enabled {
		sink, err := writer.NewGCSSink(ctx, cfg.Storage.GCS, compression)
		if err != nil {
			return err
		}
		c.Sinks = append(c.Sinks, sink)
	}
	if cfg.Storage.BigQuery.Enabled {
		sink, err := writer.NewBigQuerySink(ctx, cfg.Storage.BigQuery, compression)
		if err != nil {
			return err
		}
		c.Sinks = append(c.Sinks, sink)
	}
	if pg := cfg.Storage.Postgres; pg.Enabled {
		if pg.Migrate {
			if err := warehouse.Apply(ctx, pg.DSN); err != nil {
				return fmt.Errorf("migrate warehouse: %w", err)
			}
		}
		db, err := c.open(ctx, pg.DSN)
		if err != nil {
			return fmt.Errorf("open warehouse: %w", err)
		}
		c.Sinks = append(c.Sinks, writer.NewPostgresSink(db, pg.Schema, pg.BatchSize))
	}
	return nil
}

func (c *Components) buildNotifiers(cfg *config.Config) error {
	if cfg.Notify.TriggerFile != "" {
		c.Notifiers = append(c.Notifiers, writer.NewTriggerFile(cfg.Notify.TriggerFile))
	}
	if cfg.Notify.Kafka.Enabled {
		kn, err := writer.NewKafkaNotifier(cfg.Notify.Kafka)
		if err != nil {
			return err
		}
		c.Notifiers = append(c.Notifiers, kn)
	}
	return nil
}

// open returns one shared handle per DSN.
func (c *Components) open(ctx context.Context, dsn string) (*sql.DB, error) {
	if db, ok := c.dbs[dsn]; ok {
		return db, nil
	}
	db, err := warehouse.Open(ctx, dsn)
	if err != nil {
		return nil, err
	}
	c.dbs[dsn] = db
	return db, nil
}

func (c *Components) Close() error {
	var errs []error
	for _, s := range c.Sinks {
		if err := s.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close sink %s: %w", s.Name(), err))
		}
	}
	for _, n := range c.Notifiers {
		if err := n.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close notifier %s: %w", n.Name(), err))
		}
	}
	for _, db := range c.dbs {
		if err := db.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
