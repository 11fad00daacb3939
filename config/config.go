package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	SourceCSV      = "csv"
	SourcePostgres = "postgres"

	FillNone    = "none"
	FillForward = "forward"

	dateLayout = "2006-01-02"
)

type Config struct {
	App       AppConfig       `yaml:"app"`
	Pipeline  PipelineConfig  `yaml:"pipeline"`
	Source    SourceConfig    `yaml:"source"`
	Writer    WriterConfig    `yaml:"writer"`
	Storage   StorageConfig   `yaml:"storage"`
	Notify    NotifyConfig    `yaml:"notify"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Dashboard DashboardConfig `yaml:"dashboard"`
	Logging   LoggingConfig   `yaml:"logging"`
}

type AppConfig struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
}

type PipelineConfig struct {
	// AsOfDate is the recency reference date (YYYY-MM-DD). Empty means the
	// latest eligible purchase date of the run.
	AsOfDate string `yaml:"as_of_date"`
	// RunTimestamp pins the audit timestamp (RFC3339) for reproducible runs.
	RunTimestamp     string        `yaml:"run_timestamp"`
	ExchangeRateFill string        `yaml:"exchange_rate_fill"`
	Workers          int           `yaml:"workers"`
	Interval         time.Duration `yaml:"interval"`
	MinRateCoverage  float64       `yaml:"min_rate_coverage"`
}

type SourceConfig struct {
	Kind     string               `yaml:"kind"`
	CSV      CSVSourceConfig      `yaml:"csv"`
	Postgres PostgresSourceConfig `yaml:"postgres"`
	BCB      BCBConfig            `yaml:"bcb"`
}

type CSVSourceConfig struct {
	Dir             string `yaml:"dir"`
	TranslationFile string `yaml:"translation_file"`
	IndicatorsFile  string `yaml:"indicators_file"`
}

type PostgresSourceConfig struct {
	DSN    string `yaml:"dsn"`
	Schema string `yaml:"schema"`
}

type BCBConfig struct {
	Enabled           bool          `yaml:"enabled"`
	BaseURL           string        `yaml:"base_url"`
	StartDate         string        `yaml:"start_date"`
	EndDate           string        `yaml:"end_date"`
	Series            []string      `yaml:"series"`
	RequestsPerSecond float64       `yaml:"requests_per_second"`
	Burst             int           `yaml:"burst"`
	Timeout           time.Duration `yaml:"timeout"`
}

type WriterConfig struct {
	Formats FormatsConfig     `yaml:"formats"`
	Local   LocalWriterConfig `yaml:"local"`
}

type FormatsConfig struct {
	Parquet ParquetConfig `yaml:"parquet"`
}

type ParquetConfig struct {
	Compression string `yaml:"compression"`
}

type LocalWriterConfig struct {
	Enabled bool   `yaml:"enabled"`
	Dir     string `yaml:"dir"`
}

type StorageConfig struct {
	S3       S3Config       `yaml:"s3"`
	GCS      GCSConfig      `yaml:"gcs"`
	BigQuery BigQueryConfig `yaml:"bigquery"`
	Postgres PostgresConfig `yaml:"postgres"`
}

type S3Config struct {
	Enabled         bool   `yaml:"enabled"`
	Bucket          string `yaml:"bucket"`
	Region          string `yaml:"region"`
	Endpoint        string `yaml:"endpoint"`
	PathStyle       bool   `yaml:"path_style"`
	Prefix          string `yaml:"prefix"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
}

type GCSConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Bucket    string `yaml:"bucket"`
	ProjectID string `yaml:"project_id"`
	Prefix    string `yaml:"prefix"`
}

type BigQueryConfig struct {
	Enabled   bool   `yaml:"enabled"`
	ProjectID string `yaml:"project_id"`
	Dataset   string `yaml:"dataset"`
	Location  string `yaml:"location"`
}

type PostgresConfig struct {
	Enabled   bool   `yaml:"enabled"`
	DSN       string `yaml:"dsn"`
	Schema    string `yaml:"schema"`
	BatchSize int    `yaml:"batch_size"`
	Migrate   bool   `yaml:"migrate"`
}

type NotifyConfig struct {
	TriggerFile string      `yaml:"trigger_file"`
	Kafka       KafkaConfig `yaml:"kafka"`
}

type KafkaConfig struct {
	Enabled bool     `yaml:"enabled"`
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

type MetricsConfig struct {
	CloudWatch CloudWatchConfig `yaml:"cloudwatch"`
	Prometheus PrometheusConfig `yaml:"prometheus"`
}

type CloudWatchConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Region    string `yaml:"region"`
	Namespace string `yaml:"namespace"`
}

type PrometheusConfig struct {
	Enabled bool   `yaml:"enabled"`
	Address string `yaml:"address"`
}

type DashboardConfig struct {
	Enabled        bool   `yaml:"enabled"`
	Address        string `yaml:"address"`
	LogHistory     int    `yaml:"log_history"`
	MetricsHistory int    `yaml:"metrics_history"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
	MaxAge int    `yaml:"max_age"`
}

// AsOf parses pipeline.as_of_date. A nil result means "derive from data".
func (p PipelineConfig) AsOf() (*time.Time, error) {
	if strings.TrimSpace(p.AsOfDate) == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, strings.TrimSpace(p.AsOfDate))
	if err != nil {
		return nil, fmt.Errorf("pipeline.as_of_date: %w", err)
	}
	return &t, nil
}

// RunTime returns the pinned run timestamp, or now when none is configured.
func (p PipelineConfig) RunTime(now time.Time) (time.Time, error) {
	if strings.TrimSpace(p.RunTimestamp) == "" {
		return now.UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, strings.TrimSpace(p.RunTimestamp))
	if err != nil {
		return time.Time{}, fmt.Errorf("pipeline.run_timestamp: %w", err)
	}
	return t.UTC(), nil
}

func defaultConfig() Config {
	return Config{
		App: AppConfig{Name: "salesflow", Version: "dev"},
		Pipeline: PipelineConfig{
			ExchangeRateFill: FillNone,
			Workers:          4,
			MinRateCoverage:  0.5,
		},
		Source: SourceConfig{
			Kind: SourceCSV,
			CSV:  CSVSourceConfig{Dir: "data/raw"},
			Postgres: PostgresSourceConfig{
				Schema: "raw",
			},
			BCB: BCBConfig{
				BaseURL:           "https://api.bcb.gov.br",
				StartDate:         "2016-01-01",
				EndDate:           "2018-12-31",
				Series:            []string{"exchange_rate_usd", "ipca", "selic", "igpm", "exchange_commercial"},
				RequestsPerSecond: 2,
				Burst:             1,
				Timeout:           30 * time.Second,
			},
		},
		Writer: WriterConfig{
			Formats: FormatsConfig{Parquet: ParquetConfig{Compression: "snappy"}},
			Local:   LocalWriterConfig{Enabled: true, Dir: "data/marts"},
		},
		Storage: StorageConfig{
			S3:       S3Config{Prefix: "marts"},
			GCS:      GCSConfig{Prefix: "marts"},
			BigQuery: BigQueryConfig{Dataset: "marts", Location: "US"},
			Postgres: PostgresConfig{Schema: "marts", BatchSize: 500},
		},
		Notify: NotifyConfig{
			Kafka: KafkaConfig{Topic: "salesflow.runs"},
		},
		Metrics: MetricsConfig{
			CloudWatch: CloudWatchConfig{Namespace: "SalesFlow"},
			Prometheus: PrometheusConfig{Address: ":9102"},
		},
		Dashboard: DashboardConfig{
			Address:        ":8080",
			LogHistory:     500,
			MetricsHistory: 500,
		},
		Logging: LoggingConfig{Level: "info", Format: "json", Output: "stdout"},
	}
}

func LoadConfig(path string) (*Config, error) {
	// Read configuration file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := defaultConfig()
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyEnvOverrides(&config)

	config.Storage.S3.Bucket = strings.TrimSpace(config.Storage.S3.Bucket)
	config.Source.Kind = strings.ToLower(strings.TrimSpace(config.Source.Kind))
	config.Pipeline.ExchangeRateFill = strings.ToLower(strings.TrimSpace(config.Pipeline.ExchangeRateFill))

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &config, nil
}

func envValue(key string) (string, bool) {
	v := strings.TrimSpace(os.Getenv(key))
	return v, v != ""
}

func applyEnvOverrides(config *Config) {
	// Override S3 settings from environment variables if available
	if config.Storage.S3.Enabled {
		if v, ok := envValue("AWS_ACCESS_KEY_ID"); ok {
			config.Storage.S3.AccessKeyID = v
		}
		if v, ok := envValue("AWS_SECRET_ACCESS_KEY"); ok {
			config.Storage.S3.SecretAccessKey = v
		}
		if v, ok := envValue("AWS_REGION"); ok {
			config.Storage.S3.Region = v
		}
		if v, ok := envValue("S3_BUCKET"); ok {
			config.Storage.S3.Bucket = v
		}
	}
	if config.Metrics.CloudWatch.Enabled && config.Metrics.CloudWatch.Region == "" {
		if v, ok := envValue("AWS_REGION"); ok {
			config.Metrics.CloudWatch.Region = v
		}
	}

	if v, ok := envValue("GCP_PROJECT_ID"); ok {
		config.Storage.BigQuery.ProjectID = v
		config.Storage.GCS.ProjectID = v
	}
	if v, ok := envValue("BQ_DATASET_MARTS"); ok {
		config.Storage.BigQuery.Dataset = v
	}
	if v, ok := envValue("GCS_BUCKET_NAME"); ok {
		config.Storage.GCS.Bucket = v
	}
	if v, ok := envValue("WAREHOUSE_DSN"); ok {
		config.Storage.Postgres.DSN = v
		config.Source.Postgres.DSN = v
	}
	if v, ok := envValue("KAFKA_BROKERS"); ok {
		var brokers []string
		for _, b := range strings.Split(v, ",") {
			if b = strings.TrimSpace(b); b != "" {
				brokers = append(brokers, b)
			}
		}
		config.Notify.Kafka.Brokers = brokers
	}
}

func validateConfig(cfg *Config) error {
	if cfg.App.Name == "" {
		return fmt.Errorf("app.name is required")
	}

	if cfg.Pipeline.Workers <= 0 {
		return fmt.Errorf("pipeline.workers must be greater than 0")
	}
	if _, err := cfg.Pipeline.AsOf(); err != nil {
		return err
	}
	if _, err := cfg.Pipeline.RunTime(time.Now()); err != nil {
		return err
	}
	switch cfg.Pipeline.ExchangeRateFill {
	case FillNone, FillForward:
	default:
		return fmt.Errorf("pipeline.exchange_rate_fill must be %q or %q", FillNone, FillForward)
	}
	if cfg.Pipeline.MinRateCoverage < 0 || cfg.Pipeline.MinRateCoverage > 1 {
		return fmt.Errorf("pipeline.min_rate_coverage must be between 0 and 1")
	}

	switch cfg.Source.Kind {
	case SourceCSV:
		if cfg.Source.CSV.Dir == "" {
			return fmt.Errorf("source.csv.dir is required for csv source")
		}
	case SourcePostgres:
		if cfg.Source.Postgres.DSN == "" {
			return fmt.Errorf("source.postgres.dsn is required for postgres source")
		}
	default:
		return fmt.Errorf("source.kind '%s' is invalid", cfg.Source.Kind)
	}

	if cfg.Source.BCB.Enabled {
		if cfg.Source.BCB.BaseURL == "" {
			return fmt.Errorf("source.bcb.base_url is required when BCB is enabled")
		}
		if _, err := time.Parse(dateLayout, cfg.Source.BCB.StartDate); err != nil {
			return fmt.Errorf("source.bcb.start_date: %w", err)
		}
		if _, err := time.Parse(dateLayout, cfg.Source.BCB.EndDate); err != nil {
			return fmt.Errorf("source.bcb.end_date: %w", err)
		}
		if cfg.Source.BCB.RequestsPerSecond <= 0 {
			return fmt.Errorf("source.bcb.requests_per_second must be greater than 0")
		}
		if len(cfg.Source.BCB.Series) == 0 {
			return fmt.Errorf("source.bcb.series must not be empty when BCB is enabled")
		}
	}

	switch strings.ToLower(cfg.Writer.Formats.Parquet.Compression) {
	case "", "snappy", "gzip", "zstd", "none", "uncompressed":
	default:
		return fmt.Errorf("writer.formats.parquet.compression '%s' is invalid", cfg.Writer.Formats.Parquet.Compression)
	}

	if cfg.Writer.Local.Enabled && cfg.Writer.Local.Dir == "" {
		return fmt.Errorf("writer.local.dir is required when the local writer is enabled")
	}

	if cfg.Storage.S3.Enabled {
		if cfg.Storage.S3.Bucket == "" {
			return fmt.Errorf("storage.s3.bucket is required when S3 is enabled")
		}
		if cfg.Storage.S3.Region == "" {
			return fmt.Errorf("storage.s3.region is required when S3 is enabled")
		}
		if cfg.Storage.S3.AccessKeyID == "" || cfg.Storage.S3.SecretAccessKey == "" {
			return fmt.Errorf("storage.s3.access_key_id and storage.s3.secret_access_key are required when S3 is enabled")
		}
		if !isValidS3Bucket(cfg.Storage.S3.Bucket) {
			return fmt.Errorf("storage.s3.bucket '%s' is invalid", cfg.Storage.S3.Bucket)
		}
	}

	if cfg.Storage.GCS.Enabled && cfg.Storage.GCS.Bucket == "" {
		return fmt.Errorf("storage.gcs.bucket is required when GCS is enabled")
	}

	if cfg.Storage.BigQuery.Enabled {
		if cfg.Storage.BigQuery.ProjectID == "" {
			return fmt.Errorf("storage.bigquery.project_id is required when BigQuery is enabled")
		}
		if cfg.Storage.BigQuery.Dataset == "" {
			return fmt.Errorf("storage.bigquery.dataset is required when BigQuery is enabled")
		}
	}

	if cfg.Storage.Postgres.Enabled {
		if cfg.Storage.Postgres.DSN == "" {
			return fmt.Errorf("storage.postgres.dsn is required when the Postgres sink is enabled")
		}
		if !isValidIdentifier(cfg.Storage.Postgres.Schema) {
			return fmt.Errorf("storage.postgres.schema '%s' is invalid", cfg.Storage.Postgres.Schema)
		}
		if cfg.Storage.Postgres.BatchSize <= 0 {
			return fmt.Errorf("storage.postgres.batch_size must be greater than 0")
		}
	}
	if cfg.Source.Kind == SourcePostgres && !isValidIdentifier(cfg.Source.Postgres.Schema) {
		return fmt.Errorf("source.postgres.schema '%s' is invalid", cfg.Source.Postgres.Schema)
	}

	if cfg.Notify.Kafka.Enabled {
		if len(cfg.Notify.Kafka.Brokers) == 0 {
			return fmt.Errorf("notify.kafka.brokers is required when Kafka is enabled")
		}
		if cfg.Notify.Kafka.Topic == "" {
			return fmt.Errorf("notify.kafka.topic is required when Kafka is enabled")
		}
	}

	if cfg.Metrics.CloudWatch.Enabled && cfg.Metrics.CloudWatch.Region == "" {
		return fmt.Errorf("metrics.cloudwatch.region is required when CloudWatch is enabled")
	}

	if cfg.Dashboard.Enabled && cfg.Dashboard.Address == "" {
		return fmt.Errorf("dashboard.address is required when the dashboard is enabled")
	}

	return nil
}

var s3BucketRegexp = regexp.MustCompile(`^[a-z0-9][a-z0-9.-]{1,61}[a-z0-9]$`)

func isValidS3Bucket(name string) bool {
	if len(name) < 3 || len(name) > 63 {
		return false
	}
	if strings.Contains(name, "..") || strings.HasPrefix(name, ".") || strings.HasSuffix(name, ".") {
		return false
	}
	return s3BucketRegexp.MatchString(name)
}

var identifierRegexp = regexp.MustCompile(`^[a-z_][a-z0-9_]{0,62}$`)

// isValidIdentifier guards schema names that are interpolated into SQL.
func isValidIdentifier(name string) bool {
	return identifierRegexp.MatchString(name)
}
