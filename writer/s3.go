package writer

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	appconfig "salesflow/config"
	"salesflow/logger"
	"salesflow/models"
)

// putObjectAPI is the part of the S3 client the sink needs.
type putObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Sink uploads each table as a single parquet object. PutObject
// replaces the previous object atomically.
type S3Sink struct {
	client      putObjectAPI
	bucket      string
	prefix      string
	compression string
	log         *logger.Log
}

// NewS3Sink builds the AWS client from cfg. Static keys are used when
// configured, otherwise the default credential chain.
func NewS3Sink(ctx context.Context, cfg appconfig.S3Config, compression string) (*S3Sink, error) {
	log := logger.GetLogger()

	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		log.WithComponent("s3_writer").WithError(err).Warn("failed to load AWS configuration")
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.PathStyle
	})

	log.WithComponent("s3_writer").WithFields(logger.Fields{
		"bucket":     cfg.Bucket,
		"region":     cfg.Region,
		"endpoint":   cfg.Endpoint,
		"path_style": cfg.PathStyle,
	}).Info("s3 writer initialized")

	return newS3Sink(client, cfg.Bucket, cfg.Prefix, compression), nil
}

func newS3Sink(client putObjectAPI, bucket, prefix, compression string) *S3Sink {
	return &S3Sink{client: client, bucket: bucket, prefix: prefix, compression: compression, log: logger.GetLogger()}
}

func (s *S3Sink) Name() string { return "s3" }

func (s *S3Sink) Publish(ctx context.Context, run RunInfo, tables []*models.Table) ([]PublishedTable, error) {
	log := s.log.WithComponent("s3_writer").WithFields(logger.Fields{"run_id": run.ID, "bucket": s.bucket})
	start := time.Now()
	out := make([]PublishedTable, 0, len(tables))
	for _, t := range tables {
		data, err := EncodeParquet(t, s.compression)
		if err != nil {
			return out, err
		}
		key := objectKey(s.prefix, t.Name)
		input := &s3.PutObjectInput{
			Bucket:      aws.String(s.bucket),
			Key:         aws.String(key),
			Body:        bytes.NewReader(data),
			ContentType: aws.String("application/octet-stream"),
			Metadata: map[string]string{
				"content-type":  "parquet",
				"compression":   s.compression,
				"run-id":        run.ID,
				"run-timestamp": run.Timestamp.UTC().Format(time.RFC3339),
			},
		}
		if _, err := s.client.PutObject(ctx, input); err != nil {
			log.WithError(err).WithEnv("S3_BUCKET").WithFields(logger.Fields{"s3_key": key}).Error("failed to upload to S3")
			return out, fmt.Errorf("failed to upload %s to S3 bucket %s: %w", t.Name, s.bucket, err)
		}
		location := objectURI("s3", s.bucket, key)
		out = append(out, PublishedTable{Sink: s.Name(), Table: t.Name, Location: location, Rows: len(t.Rows), Bytes: int64(len(data))})
		logger.LogDataFlowEntry(log, t.Name, location, len(t.Rows), "parquet")
	}
	logger.LogPerformanceEntry(log, "s3_writer", "publish", time.Since(start), logger.Fields{"tables": len(out)})
	return out, nil
}

func (s *S3Sink) Close() error { return nil }
