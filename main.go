package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"salesflow/config"
	"salesflow/internal/dashboard"
	"salesflow/internal/metrics"
	"salesflow/internal/pipeline"
	"salesflow/logger"
)

func main() {
	// Load environment variables from .env if present
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logger.GetLogger().WithError(err).Warn("Error loading .env file")
	}

	configPath := flag.String("config", config.DefaultPath, "Path to configuration file")
	once := flag.Bool("once", false, "Run the pipeline once and exit, ignoring pipeline.interval")
	flag.Parse()

	os.Exit(run(config.ResolvePath(*configPath), *once))
}

// run returns the process exit code. Deferred cleanup has completed by the
// time it returns.
func run(path string, once bool) int {
	log := logger.GetLogger()

	cfg, err := config.LoadConfig(path)
	if err != nil {
		log.WithError(err).Error("Failed to load configuration")
		return 1
	}

	if err := log.Configure(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output, cfg.Logging.MaxAge); err != nil {
		log.WithError(err).Error("Failed to configure logger")
		return 1
	}

	env := config.AppEnvironment()
	log.WithFields(logger.Fields{
		"service": cfg.App.Name,
		"version": cfg.App.Version,
		"env":     env,
		"config":  path,
	}).Info("starting salesflow")

	if config.IsProductionLike(env) && cfg.Pipeline.RunTimestamp != "" {
		log.WithComponent("main").Warn("pipeline.run_timestamp is pinned in a production-like environment")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		select {
		case sig := <-sigChan:
			log.WithFields(logger.Fields{"signal": sig.String()}).Info("shutdown signal received")
			cancel()
		case <-ctx.Done():
		}
	}()

	if cfg.Metrics.CloudWatch.Enabled {
		metrics.InitCloudWatch(ctx, cfg.Metrics.CloudWatch.Region, cfg.Metrics.CloudWatch.Namespace)
	}

	var wg sync.WaitGroup

	if cfg.Metrics.Prometheus.Enabled {
		prom := metrics.NewPrometheus()
		defer prom.Close()
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := prom.Serve(ctx, cfg.Metrics.Prometheus.Address); err != nil {
				log.WithComponent("metrics").WithError(err).Warn("prometheus endpoint stopped")
			}
		}()
	}

	dash, err := dashboard.NewServer(cfg.Dashboard, log)
	if err != nil {
		log.WithError(err).Error("failed to create dashboard server")
		return 1
	}
	if dash != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := dash.Run(ctx); err != nil {
				log.WithComponent("dashboard").WithError(err).Warn("dashboard server stopped")
			}
		}()
	}

	components, err := pipeline.Build(ctx, cfg)
	if err != nil {
		log.WithError(err).Error("failed to build pipeline")
		return 1
	}
	defer func() {
		if err := components.Close(); err != nil {
			log.WithError(err).Warn("failed to close pipeline components")
			return
		}
		log.WithComponent("main").Info("pipeline components closed")
	}()

	opts := components.Options
	if dash != nil {
		opts.Observer = dash
	}
	runner, err := pipeline.NewRunner(cfg, opts)
	if err != nil {
		log.WithError(err).Error("failed to create pipeline runner")
		return 1
	}

	failed := runLoop(ctx, runner, cfg.Pipeline.Interval, once, log)

	cancel()
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.Info("graceful shutdown completed")
	case <-time.After(30 * time.Second):
		log.Warn("graceful shutdown timeout exceeded")
	}

	log.Info("salesflow stopped")
	if failed {
		return 1
	}
	return 0
}

// runLoop runs the pipeline once, or every interval until ctx is cancelled.
// It reports whether the last run failed.
func runLoop(ctx context.Context, runner *pipeline.Runner, interval time.Duration, once bool, log *logger.Log) bool {
	failed := runOnce(ctx, runner, log)
	if once || interval <= 0 {
		return failed
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	log.WithComponent("main").WithFields(logger.Fields{"interval": interval.String()}).Info("scheduled runs enabled")
	for {
		select {
		case <-ctx.Done():
			return failed
		case <-ticker.C:
			failed = runOnce(ctx, runner, log)
		}
	}
}

func runOnce(ctx context.Context, runner *pipeline.Runner, log *logger.Log) bool {
	logger.ResetCounts()
	_, err := runner.Run(ctx)
	for _, c := range logger.Counts() {
		if c.Warnings == 0 && c.Errors == 0 {
			continue
		}
		log.WithComponent("main").WithFields(logger.Fields{
			"source":   c.Component,
			"warnings": c.Warnings,
			"errors":   c.Errors,
		}).Info("component log summary")
	}
	return err != nil
}
