// Package storage archives closed sync log files to S3-compatible storage.
package storage

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"

	"github.com/boodo/silvasync/internal/infrastructure/config"
	"github.com/boodo/silvasync/internal/infrastructure/logger"
)

const logContentType = "application/x-ndjson"

// ObjectPutter is the part of the S3 client the archiver needs
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

var _ ObjectPutter = (*s3.Client)(nil)

// ArchiveResult lists what an archive run did
type ArchiveResult struct {
	Uploaded []string
	Kept     int
}

// S3Archiver uploads per-day channel log files and removes the local copy
type S3Archiver struct {
	client ObjectPutter
	bucket string
	prefix string
	logger *zap.Logger
	now    func() time.Time
}

// S3ArchiverOption configures an S3Archiver
type S3ArchiverOption func(*S3Archiver)

// WithLogger sets the archiver logger
func WithLogger(l *zap.Logger) S3ArchiverOption {
	return func(a *S3Archiver) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithClock overrides the clock used to decide which files are closed
func WithClock(now func() time.Time) S3ArchiverOption {
	return func(a *S3Archiver) {
		a.now = now
	}
}

// NewS3Archiver builds an S3 client from cfg. Any S3-compatible endpoint
// works; an empty endpoint uses AWS.
func NewS3Archiver(ctx context.Context, cfg *config.StorageConfig, opts ...S3ArchiverOption) (*S3Archiver, error) {
	if cfg == nil {
		return nil, errors.New("storage configuration is required")
	}
	if cfg.Bucket == "" {
		return nil, errors.New("storage bucket is required")
	}
	if cfg.AccessKeyID == "" || cfg.SecretAccessKey == "" {
		return nil, errors.New("storage credentials are required")
	}

	var endpoint string
	if cfg.Endpoint != "" {
		endpoint = cfg.Endpoint
		if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
			endpoint = "https://" + endpoint
		}
		if _, err := url.Parse(endpoint); err != nil {
			return nil, fmt.Errorf("invalid storage endpoint: %w", err)
		}
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID, cfg.SecretAccessKey, "",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})
	return NewS3ArchiverWithClient(client, cfg.Bucket, cfg.Prefix, opts...), nil
}

// NewS3ArchiverWithClient wraps an existing client
func NewS3ArchiverWithClient(client ObjectPutter, bucket, prefix string, opts ...S3ArchiverOption) *S3Archiver {
	a := &S3Archiver{
		client: client,
		bucket: bucket,
		prefix: strings.Trim(prefix, "/"),
		logger: zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Bucket returns the target bucket
func (a *S3Archiver) Bucket() string {
	return a.bucket
}

// ObjectKey returns the key a channel file is stored under:
// <prefix>/<channel>/<YYYY>/<MM>/<file>
func (a *S3Archiver) ObjectKey(channel string, day time.Time, fileName string) string {
	return path.Join(a.prefix, channel, day.Format("2006"), day.Format("01"), fileName)
}

// Archive uploads every channel file in dir whose day ended more than
// olderThan ago, then deletes it. Today's file is never touched. Files
// that fail to upload stay in place and their errors are joined.
func (a *S3Archiver) Archive(ctx context.Context, dir string, olderThan time.Duration) (*ArchiveResult, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read log directory: %w", err)
	}

	now := a.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	cutoff := now.Add(-olderThan)

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Type().IsRegular() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	result := &ArchiveResult{}
	var errs []error
	for _, name := range names {
		channel, day, ok := logger.ParseFileName(name)
		if !ok {
			continue
		}
		dayEnd := day.AddDate(0, 0, 1)
		if !day.Before(today) || dayEnd.After(cutoff) {
			result.Kept++
			continue
		}
		if err := ctx.Err(); err != nil {
			return result, err
		}

		key := a.ObjectKey(channel, day, name)
		if err := a.upload(ctx, filepath.Join(dir, name), key); err != nil {
			a.logger.Error("Log archive failed", zap.String("file", name), zap.Error(err))
			errs = append(errs, err)
			continue
		}
		if err := os.Remove(filepath.Join(dir, name)); err != nil {
			errs = append(errs, fmt.Errorf("failed to remove %s: %w", name, err))
			continue
		}
		a.logger.Info("Log archived", zap.String("file", name), zap.String("key", key))
		result.Uploaded = append(result.Uploaded, key)
	}
	return result, errors.Join(errs...)
}

func (a *S3Archiver) upload(ctx context.Context, file, key string) error {
	f, err := os.Open(file)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", file, err)
	}
	defer f.Close()

	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        f,
		ContentType: aws.String(logContentType),
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s: %w", key, err)
	}
	return nil
}
