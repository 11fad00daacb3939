package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"salesflow/logger"
)

// Prometheus exposes the run metrics:
//
//	salesflow_table_rows{table}
//	salesflow_stage_duration_seconds{stage}
//	salesflow_runs_total{status}
//	salesflow_last_success_timestamp_seconds
//	salesflow_quality_failures
//	go_* and process_* runtime metrics
type Prometheus struct {
	registry        *prometheus.Registry
	tableRows       *prometheus.GaugeVec
	stageDuration   *prometheus.GaugeVec
	runs            *prometheus.CounterVec
	lastSuccess     prometheus.Gauge
	qualityFailures prometheus.Gauge
	handlerID       MetricHandlerID
}

// NewPrometheus registers the collectors on a private registry and
// subscribes them to emitted metrics.
func NewPrometheus() *Prometheus {
	p := &Prometheus{
		registry: prometheus.NewRegistry(),
		tableRows: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "salesflow_table_rows",
			Help: "Rows in each output table after the last run",
		}, []string{"table"}),
		stageDuration: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "salesflow_stage_duration_seconds",
			Help: "Duration of each pipeline stage in the last run",
		}, []string{"stage"}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "salesflow_runs_total",
			Help: "Pipeline runs by outcome",
		}, []string{"status"}),
		lastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "salesflow_last_success_timestamp_seconds",
			Help: "Unix time of the last successful run",
		}),
		qualityFailures: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "salesflow_quality_failures",
			Help: "Failed data quality checks in the last run",
		}),
	}
	p.registry.MustRegister(
		p.tableRows, p.stageDuration, p.runs, p.lastSuccess, p.qualityFailures,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	p.handlerID = RegisterMetricHandler(p.observe)
	return p
}

func (p *Prometheus) observe(m Metric) {
	v, ok := toFloat64(m.Value)
	if !ok {
		return
	}
	switch m.Name {
	case MetricTableRows:
		if table, ok := m.Fields["table"].(string); ok {
			p.tableRows.WithLabelValues(table).Set(v)
		}
	case MetricStageDuration:
		p.stageDuration.WithLabelValues(m.Component).Set(v / 1000)
	case MetricRunCompleted:
		status, _ := m.Fields["status"].(string)
		p.runs.WithLabelValues(status).Inc()
		if status == StatusSuccess {
			p.lastSuccess.Set(float64(m.Timestamp.Unix()))
		}
	case MetricQualityFailures:
		p.qualityFailures.Set(v)
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (p *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is cancelled.
func (p *Prometheus) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", p.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.GetLogger().WithComponent("prometheus").WithFields(logger.Fields{"address": addr}).Info("serving metrics")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Close stops receiving metric events.
func (p *Prometheus) Close() {
	UnregisterMetricHandler(p.handlerID)
	logger.GetLogger().WithComponent("prometheus").Info("metric handler unregistered")
}
