package writer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	appconfig "heatmapflow/config"
	"heatmapflow/logger"
)

// S3Uploader publishes finished run artifacts to a bucket. It never reads
// anything back.
type S3Uploader struct {
	cfg     appconfig.S3Config
	version string
	client  *s3.Client
	log     *logger.Log
}

func NewS3Uploader(ctx context.Context, cfg appconfig.S3Config, version string) (*S3Uploader, error) {
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
		log.WithComponent("s3_uploader").WithError(err).Warn("failed to load AWS configuration")
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	creds, err := awsCfg.Credentials.Retrieve(ctx)
	if err != nil || !creds.HasKeys() {
		return nil, fmt.Errorf("aws credentials not found")
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.PathStyle
	})

	log.WithComponent("s3_uploader").WithFields(logger.Fields{
		"bucket":     cfg.Bucket,
		"region":     cfg.Region,
		"endpoint":   cfg.Endpoint,
		"path_style": cfg.PathStyle,
	}).Info("s3 uploader initialized")

	return &S3Uploader{cfg: cfg, version: version, client: client, log: log}, nil
}

// KeyPrefix is the folder for one run:
// <prefix>/market=<m>/screener=<s>/<yyyy>/<mm>/<dd>/<run-id>/
func (u *S3Uploader) KeyPrefix(market, screener, runID string, at time.Time) string {
	at = at.UTC()
	parts := []string{}
	if p := strings.Trim(u.cfg.Prefix, "/"); p != "" {
		parts = append(parts, p)
	}
	parts = append(parts,
		fmt.Sprintf("market=%s", market),
		fmt.Sprintf("screener=%s", screener),
		fmt.Sprintf("%04d", at.Year()),
		fmt.Sprintf("%02d", at.Month()),
		fmt.Sprintf("%02d", at.Day()),
		runID,
	)
	return filepath.ToSlash(filepath.Join(parts...)) + "/"
}

func contentType(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".html":
		return "text/html; charset=utf-8"
	case ".csv":
		return "text/csv; charset=utf-8"
	default:
		return "application/octet-stream"
	}
}

// Upload puts the file at path under keyPrefix and returns the object key.
// An empty or missing path yields ErrNoData.
func (u *S3Uploader) Upload(ctx context.Context, keyPrefix, path string) (string, error) {
	if path == "" {
		return "", ErrNoData
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%s: %w", path, ErrNoData)
		}
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}

	key := keyPrefix + filepath.Base(path)
	log := u.log.WithComponent("s3_uploader").WithFields(logger.Fields{
		"operation": "upload_to_s3",
		"key":       key,
		"data_size": len(data),
	})
	log.Info("uploading to S3")

	input := &s3.PutObjectInput{
		Bucket:      aws.String(u.cfg.Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType(path)),
		Metadata: map[string]string{
			"heatmapflow-version": u.version,
		},
	}

	if _, err := u.client.PutObject(ctx, input); err != nil {
		return "", fmt.Errorf("failed to upload to S3 bucket %s: %w", u.cfg.Bucket, err)
	}

	log.Info("successfully uploaded to S3")
	return key, nil
}
