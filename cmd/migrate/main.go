package main

import (
	"context"
	"flag"
	"os"

	"github.com/joho/godotenv"

	"salesflow/config"
	"salesflow/internal/warehouse"
	"salesflow/logger"
)

// migrate applies the warehouse schema migrations and exits.
func main() {
	log := logger.GetLogger()

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.WithError(err).Warn("Error loading .env file")
	}

	configPath := flag.String("config", config.DefaultPath, "Path to configuration file")
	dsn := flag.String("dsn", "", "Warehouse DSN; defaults to storage.postgres.dsn")
	flag.Parse()

	target := *dsn
	if target == "" {
		cfg, err := config.LoadConfig(config.ResolvePath(*configPath))
		if err != nil {
			log.WithError(err).Error("Failed to load configuration")
			os.Exit(1)
		}
		target = cfg.Storage.Postgres.DSN
	}
	if target == "" {
		log.Error("no warehouse DSN configured")
		os.Exit(1)
	}

	if err := warehouse.Apply(context.Background(), target); err != nil {
		log.WithComponent("warehouse").WithError(err).Error("apply migrations failed")
		os.Exit(1)
	}
	log.WithComponent("warehouse").Info("migrations applied")
}
