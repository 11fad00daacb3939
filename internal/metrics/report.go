package metrics

import (
	"time"

	"salesflow/logger"
)

const (
	MetricTableRows       = "table_rows"
	MetricStageDuration   = "stage_duration_ms"
	MetricRunCompleted    = "run_completed"
	MetricQualityFailures = "quality_failures"

	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// StageTiming is the duration of one executed stage.
type StageTiming struct {
	Stage    string
	Duration time.Duration
}

// RunReport summarizes one pipeline run for metrics and logs.
type RunReport struct {
	RunID           string
	Status          string
	Stages          []StageTiming
	RowCounts       map[string]int
	QualityFailures int
	Duration        time.Duration
}

// ReportRun emits every metric of a run and logs a summary line.
func ReportRun(log *logger.Log, report RunReport) {
	if log == nil {
		log = logger.GetLogger()
	}
	for _, s := range report.Stages {
		EmitMetric(log, s.Stage, MetricStageDuration, s.Duration.Milliseconds(), "gauge", logger.Fields{"unit": "milliseconds"})
	}
	for table, rows := range report.RowCounts {
		EmitMetric(log, "writer", MetricTableRows, rows, "gauge", logger.Fields{"table": table, "unit": "count"})
	}
	EmitMetric(log, "quality", MetricQualityFailures, report.QualityFailures, "gauge", logger.Fields{"unit": "count"})
	EmitMetric(log, "pipeline", MetricRunCompleted, 1, "counter", logger.Fields{"status": report.Status, "unit": "count"})

	entry := log.WithComponent("pipeline").WithFields(logger.Fields{
		"run_id":           report.RunID,
		"status":           report.Status,
		"duration_ms":      report.Duration.Milliseconds(),
		"tables":           len(report.RowCounts),
		"quality_failures": report.QualityFailures,
	})
	if report.Status != StatusSuccess {
		entry.Warn("pipeline run report")
		return
	}
	entry.Info("pipeline run report")
}
