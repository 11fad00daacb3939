package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const minimalConfig = `app:
  name: "salesflow"
  version: "1.0"
pipeline:
  as_of_date: "2018-10-17"
  run_timestamp: "2018-10-18T00:00:00Z"
source:
  kind: csv
  csv:
    dir: "testdata"
storage:
  s3:
    enabled: false
`

// writeTempConfig writes content to a config file in a fresh temp dir and
// returns its path.
func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeTempConfig(t, minimalConfig)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.App.Name != "salesflow" {
		t.Errorf("unexpected name: %s", cfg.App.Name)
	}
	if cfg.Pipeline.Workers != 4 {
		t.Errorf("expected default workers 4, got %d", cfg.Pipeline.Workers)
	}
	if cfg.Pipeline.ExchangeRateFill != FillNone {
		t.Errorf("expected fill %q, got %q", FillNone, cfg.Pipeline.ExchangeRateFill)
	}
	if cfg.Source.CSV.Dir != "testdata" {
		t.Errorf("unexpected csv dir: %s", cfg.Source.CSV.Dir)
	}
	if cfg.Storage.Postgres.BatchSize != 500 {
		t.Errorf("expected default batch size 500, got %d", cfg.Storage.Postgres.BatchSize)
	}

	asOf, err := cfg.Pipeline.AsOf()
	if err != nil || asOf == nil {
		t.Fatalf("AsOf: %v %v", asOf, err)
	}
	if !asOf.Equal(time.Date(2018, 10, 17, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected as_of_date: %v", asOf)
	}
	rt, err := cfg.Pipeline.RunTime(time.Now())
	if err != nil {
		t.Fatalf("RunTime: %v", err)
	}
	if !rt.Equal(time.Date(2018, 10, 18, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected run timestamp: %v", rt)
	}
}

func TestRunTimeDefaultsToNow(t *testing.T) {
	var p PipelineConfig
	now := time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC)
	rt, err := p.RunTime(now)
	if err != nil {
		t.Fatalf("RunTime: %v", err)
	}
	if !rt.Equal(now) {
		t.Errorf("expected %v, got %v", now, rt)
	}
	asOf, err := p.AsOf()
	if err != nil || asOf != nil {
		t.Errorf("expected nil as_of, got %v %v", asOf, err)
	}
}

func TestLoadConfigValidation(t *testing.T) {
	cases := map[string]string{
		"bad source kind": `source:
  kind: mysql
`,
		"bad fill": `pipeline:
  exchange_rate_fill: backward
`,
		"bad as_of": `pipeline:
  as_of_date: "17/10/2018"
`,
		"postgres without dsn": `source:
  kind: postgres
`,
		"s3 without credentials": `storage:
  s3:
    enabled: true
    bucket: marts
    region: us-east-1
`,
		"bigquery without project": `storage:
  bigquery:
    enabled: true
`,
		"kafka without brokers": `notify:
  kafka:
    enabled: true
`,
		"bad compression": `writer:
  formats:
    parquet:
      compression: lz4
`,
		"bad mart schema": `storage:
  postgres:
    enabled: true
    dsn: "postgres://localhost/db"
    schema: "marts; drop table x"
`,
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			t.Setenv("GCP_PROJECT_ID", "")
			t.Setenv("KAFKA_BROKERS", "")
			t.Setenv("WAREHOUSE_DSN", "")
			t.Setenv("AWS_ACCESS_KEY_ID", "")
			t.Setenv("AWS_SECRET_ACCESS_KEY", "")
			if _, err := LoadConfig(writeTempConfig(t, content)); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("AWS_ACCESS_KEY_ID", "AKIA")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "secret")
	t.Setenv("AWS_REGION", "sa-east-1")
	t.Setenv("S3_BUCKET", "olist-marts")
	t.Setenv("GCP_PROJECT_ID", "olist-project")
	t.Setenv("BQ_DATASET_MARTS", "marts_prod")
	t.Setenv("GCS_BUCKET_NAME", "olist-raw")
	t.Setenv("WAREHOUSE_DSN", "postgres://user:pass@db:5432/olist")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092")

	content := `app:
  name: "salesflow"
source:
  kind: csv
storage:
  s3:
    enabled: true
  bigquery:
    enabled: true
`

	cfg, err := LoadConfig(writeTempConfig(t, content))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Storage.S3.Bucket != "olist-marts" || cfg.Storage.S3.Region != "sa-east-1" {
		t.Errorf("s3 overrides not applied: %+v", cfg.Storage.S3)
	}
	if cfg.Storage.BigQuery.ProjectID != "olist-project" || cfg.Storage.BigQuery.Dataset != "marts_prod" {
		t.Errorf("bigquery overrides not applied: %+v", cfg.Storage.BigQuery)
	}
	if cfg.Storage.GCS.Bucket != "olist-raw" {
		t.Errorf("gcs override not applied: %+v", cfg.Storage.GCS)
	}
	if cfg.Source.Postgres.DSN != "postgres://user:pass@db:5432/olist" {
		t.Errorf("warehouse dsn not applied: %s", cfg.Source.Postgres.DSN)
	}
	if len(cfg.Notify.Kafka.Brokers) != 2 || cfg.Notify.Kafka.Brokers[1] != "k2:9092" {
		t.Errorf("kafka brokers not parsed: %v", cfg.Notify.Kafka.Brokers)
	}
}

func TestAppEnvironmentAliases(t *testing.T) {
	cases := map[string]string{
		"":         EnvironmentDevelopment,
		"prod":     EnvironmentProduction,
		"stagging": EnvironmentStaging,
		"QA":       "qa",
	}
	for in, want := range cases {
		t.Setenv("APP_ENV", in)
		if got := AppEnvironment(); got != want {
			t.Errorf("APP_ENV=%q: expected %q, got %q", in, want, got)
		}
	}
	if !IsProductionLike(EnvironmentStaging) || IsProductionLike(EnvironmentDevelopment) {
		t.Errorf("unexpected production-like classification")
	}
}

func TestResolvePath(t *testing.T) {
	if got := ResolvePath("custom.yml"); got != "custom.yml" {
		t.Errorf("explicit path should win, got %s", got)
	}

	dir := t.TempDir()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	defer os.Chdir(wd)

	if err := os.MkdirAll("config", 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile("config/config.production.yml", []byte(minimalConfig), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	t.Setenv("APP_ENV", "prod")
	if got := ResolvePath(""); got != "config/config.production.yml" {
		t.Errorf("expected production config, got %s", got)
	}
	t.Setenv("APP_ENV", "staging")
	if got := ResolvePath(""); got != DefaultPath {
		t.Errorf("expected default config when env file is missing, got %s", got)
	}
}
