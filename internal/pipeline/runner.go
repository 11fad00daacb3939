package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"salesflow/config"
	"salesflow/internal/dashboard"
	"salesflow/internal/metadata"
	"salesflow/internal/metrics"
	"salesflow/logger"
	"salesflow/models"
	"salesflow/processor"
	"salesflow/reader"
	"salesflow/writer"
)

// filledSeries are forward filled when pipeline.exchange_rate_fill is "forward".
var filledSeries = []models.Series{models.SeriesExchangeRateUSD, models.SeriesExchangeCommercial}

// RunObserver receives the tables of every successful run.
type RunObserver interface {
	PublishRun(summary dashboard.RunSummary, tables []*models.Table)
}

// Options are the collaborators of a Runner. Only Sources is required.
type Options struct {
	Sources    []reader.Source
	Sinks      []writer.Sink
	Notifiers  []writer.Notifier
	Manifest   *metadata.Generator
	CatalogDir string
	Observer   RunObserver
}

// Result describes one finished run.
type Result struct {
	RunID        string
	RunTimestamp time.Time
	RowCounts    map[string]int
	Checks       []processor.CheckResult
	Published    []writer.PublishedTable
	Stages       []metrics.StageTiming
	Duration     time.Duration
}

// Runner executes the stage graph as a full refresh: every run rebuilds
// every output table and replaces the published copies as a whole.
type Runner struct {
	cfg    *config.Config
	opts   Options
	stages []Stage
	log    *logger.Log
	check  func(*models.Marts, []*models.Table, float64) ([]processor.CheckResult, error)
}

func NewRunner(cfg *config.Config, opts Options) (*Runner, error) {
	if len(opts.Sources) == 0 {
		return nil, errors.New("pipeline requires at least one source")
	}
	stages, err := Order(DefaultStages(cfg.Pipeline.ExchangeRateFill == config.FillForward))
	if err != nil {
		return nil, err
	}
	return &Runner{
		cfg:    cfg,
		opts:   opts,
		stages: stages,
		log:    logger.GetLogger(),
		check:  processor.CheckQuality,
	}, nil
}

// Stages returns the stages in execution order.
func (r *Runner) Stages() []Stage {
	return append([]Stage(nil), r.stages...)
}

// runState carries stage outputs to downstream stages.
type runState struct {
	runTS      time.Time
	asOf       *time.Time
	raw        models.RawDataset
	ds         *models.Dataset
	indicators *processor.IndicatorTable
	enriched   []models.EnrichedOrder
	marts      *models.Marts
	tables     []*models.Table
	checks     []processor.CheckResult
	published  []writer.PublishedTable
}

// Run executes one full refresh. A structural or quality failure stops the
// run before any sink is invoked.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	runTS, err := r.cfg.Pipeline.RunTime(start)
	if err != nil {
		return nil, err
	}
	asOf, err := r.cfg.Pipeline.AsOf()
	if err != nil {
		return nil, err
	}

	res := &Result{RunID: uuid.NewString(), RunTimestamp: runTS}
	log := r.log.WithComponent("pipeline").WithFields(logger.Fields{
		"run_id":        res.RunID,
		"run_timestamp": runTS.Format(time.RFC3339),
	})
	log.Info("pipeline run started")

	st := &runState{runTS: runTS, asOf: asOf}
	var runErr error
	for _, stage := range r.stages {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}
		stageStart := time.Now()
		err := r.execute(ctx, stage, st, res.RunID)
		elapsed := time.Since(stageStart)
		res.Stages = append(res.Stages, metrics.StageTiming{Stage: stage.Name, Duration: elapsed})
		if err != nil {
			runErr = fmt.Errorf("stage %s: %w", stage.Name, err)
			break
		}
		logger.LogPerformanceEntry(log, stage.Name, stage.Kind.String(), elapsed, nil)
	}

	res.Duration = time.Since(start)
	res.RowCounts = rowCounts(st.tables)
	res.Checks = st.checks
	res.Published = st.published

	status := metrics.StatusSuccess
	if runErr != nil {
		status = metrics.StatusFailed
	}
	metrics.ReportRun(r.log, metrics.RunReport{
		RunID:           res.RunID,
		Status:          status,
		Stages:          res.Stages,
		RowCounts:       res.RowCounts,
		QualityFailures: blockingFailures(st.checks),
		Duration:        res.Duration,
	})

	if runErr != nil {
		log.WithError(runErr).Error("pipeline run failed")
		return res, runErr
	}

	r.notify(ctx, res)
	if r.opts.Observer != nil {
		r.opts.Observer.PublishRun(dashboard.RunSummary{
			RunID:     res.RunID,
			Timestamp: res.RunTimestamp,
			Status:    status,
			Duration:  res.Duration,
			RowCounts: res.RowCounts,
			Checks:    res.Checks,
		}, st.tables)
	}
	log.WithFields(logger.Fields{"duration_ms": res.Duration.Milliseconds()}).Info("pipeline run completed")
	return res, nil
}

func (r *Runner) execute(ctx context.Context, stage Stage, st *runState, runID string) error {
	switch stage.Kind {
	case KindLoad:
		return r.load(ctx, st)
	case KindClean:
		ds, _, err := processor.CleanDataset(st.raw)
		if err != nil {
			return err
		}
		st.ds = ds
		st.raw = nil
	case KindFill:
		r.forwardFill(st)
	case KindAlign:
		st.indicators = processor.NewIndicatorTable(st.ds.Indicators)
		r.log.WithComponent(stage.Name).WithFields(logger.Fields{
			"observations":       len(st.ds.Indicators),
			"exchange_rate_days": st.indicators.Coverage(models.SeriesExchangeRateUSD),
		}).Info("indicators aligned")
	case KindEnrich:
		enricher := processor.NewEnricher(st.ds, st.indicators, st.runTS)
		enriched, err := processor.EnrichAll(ctx, st.ds, enricher, r.cfg.Pipeline.Workers)
		if err != nil {
			return err
		}
		st.enriched = enriched
	case KindAggregate:
		st.marts = &models.Marts{
			Orders:     st.enriched,
			Customers:  processor.CustomerProfiles(st.enriched, st.asOf, st.runTS),
			Categories: processor.CategoryPerformanceOf(st.enriched, st.runTS),
			Geographic: processor.GeographicSalesOf(st.enriched, st.runTS),
		}
		st.tables = st.marts.Tables()
		entry := r.log.WithComponent(stage.Name)
		for _, t := range st.tables {
			logger.LogDataFlowEntry(entry, "enrich", t.Name, len(t.Rows), "mart")
		}
	case KindCheck:
		checks, err := r.check(st.marts, st.tables, r.cfg.Pipeline.MinRateCoverage)
		st.checks = checks
		return err
	case KindPublish:
		return r.publish(ctx, st, runID)
	default:
		return fmt.Errorf("unsupported stage kind %s", stage.Kind)
	}
	return nil
}

// load reads every source; a later source replaces tables of an earlier one.
func (r *Runner) load(ctx context.Context, st *runState) error {
	st.raw = make(models.RawDataset)
	for _, src := range r.opts.Sources {
		ds, err := src.Load(ctx)
		if err != nil {
			return fmt.Errorf("source %s: %w", src.Name(), err)
		}
		entry := r.log.WithComponent("load")
		for name, table := range ds {
			st.raw[name] = table
			logger.LogDataFlowEntry(entry, src.Name(), name, len(table.Rows), "raw")
		}
	}
	return nil
}

// forwardFill fills the daily exchange-rate series over the purchase window
// of the run's orders.
func (r *Runner) forwardFill(st *runState) {
	var from, to time.Time
	for _, o := range st.ds.Orders {
		if o.PurchasedAt == nil {
			continue
		}
		if from.IsZero() || o.PurchasedAt.Before(from) {
			from = *o.PurchasedAt
		}
		if o.PurchasedAt.After(to) {
			to = *o.PurchasedAt
		}
	}
	entry := r.log.WithComponent("forward_fill")
	if from.IsZero() {
		entry.Warn("no dated orders; forward fill skipped")
		return
	}
	before := len(st.ds.Indicators)
	for _, series := range filledSeries {
		st.ds.Indicators = processor.ForwardFill(st.ds.Indicators, series, from, to)
	}
	entry.WithFields(logger.Fields{
		"from":  from.Format("2006-01-02"),
		"to":    to.Format("2006-01-02"),
		"added": len(st.ds.Indicators) - before,
	}).Info("exchange rates forward filled")
}

// publish hands the tables to every sink. Each sink replaces its own copy
// atomically; a failing sink does not stop the others.
func (r *Runner) publish(ctx context.Context, st *runState, runID string) error {
	run := writer.RunInfo{ID: runID, Timestamp: st.runTS, Version: r.cfg.App.Version}
	var errs []error
	for _, sink := range r.opts.Sinks {
		published, err := sink.Publish(ctx, run, st.tables)
		st.published = append(st.published, published...)
		if err != nil {
			errs = append(errs, fmt.Errorf("sink %s: %w", sink.Name(), err))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return err
	}

	if r.opts.Manifest == nil {
		return nil
	}
	files := make([]metadata.DataFile, 0, len(st.published))
	for _, p := range st.published {
		files = append(files, metadata.DataFile{
			Path:        p.Location,
			FileSize:    p.Bytes,
			RecordCount: int64(p.Rows),
			Partition:   map[string]any{"sink": p.Sink, "table": p.Table},
		})
	}
	if err := r.opts.Manifest.AddRun(metadata.Run{
		ID:        runID,
		Timestamp: st.runTS,
		Files:     files,
		RowCounts: rowCounts(st.tables),
	}); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	if r.opts.CatalogDir != "" {
		if err := r.opts.Manifest.WriteCatalogEntry(r.opts.CatalogDir, models.OutputTables); err != nil {
			return fmt.Errorf("write catalog: %w", err)
		}
	}
	return nil
}

// notify announces the run. Tables are already published, so a failing
// notifier is logged and does not fail the run.
func (r *Runner) notify(ctx context.Context, res *Result) {
	event := writer.RunEvent{
		Event:        writer.EventRunCompleted,
		RunID:        res.RunID,
		RunTimestamp: res.RunTimestamp,
		Version:      r.cfg.App.Version,
		RowCounts:    res.RowCounts,
		Tables:       res.Published,
	}
	for _, n := range r.opts.Notifiers {
		if err := n.Notify(ctx, event); err != nil {
			r.log.WithComponent(n.Name()).WithError(err).Warn("run notification failed")
		}
	}
}

func rowCounts(tables []*models.Table) map[string]int {
	out := make(map[string]int, len(tables))
	for _, t := range tables {
		out[t.Name] = len(t.Rows)
	}
	return out
}

func blockingFailures(checks []processor.CheckResult) int {
	n := 0
	for _, c := range checks {
		if c.Blocking && !c.Passed {
			n++
		}
	}
	return n
}
