// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Uploader stores an export object.
type Uploader interface {
	Upload(ctx context.Context, key string, body io.Reader, size int64) error
}

// S3Config configures the S3 uploader.
type S3Config struct {
	Bucket   string
	Region   string
	Endpoint string // optional, for S3-compatible storage
}

// S3Uploader uploads exports with PutObject.
type S3Uploader struct {
	client *s3.Client
	bucket string
}

// NewS3Uploader creates an uploader using the default AWS credential chain.
func NewS3Uploader(ctx context.Context, cfg S3Config) (*S3Uploader, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("export bucket is required")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Uploader{client: client, bucket: cfg.Bucket}, nil
}

// Upload writes body to key in the configured bucket.
func (u *S3Uploader) Upload(ctx context.Context, key string, body io.Reader, size int64) error {
	_, err := u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(u.bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentLength: aws.Int64(size),
		ContentType:   aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("uploading %s: %w", key, err)
	}
	return nil
}

// Job builds an export of every page and uploads it.
type Job struct {
	exporter *Exporter
	uploader Uploader
	prefix   string
	logger   *slog.Logger
}

// NewJob creates an export job writing objects under prefix.
func NewJob(exporter *Exporter, uploader Uploader, prefix string, logger *slog.Logger) *Job {
	return &Job{exporter: exporter, uploader: uploader, prefix: prefix, logger: logger}
}

// Result describes a completed export upload.
type Result struct {
	Key   string
	Pages int
	Bytes int64
}

// Run exports all pages and uploads the snapshot.
func (j *Job) Run(ctx context.Context) (Result, error) {
	data, err := j.exporter.Export(ctx, Options{})
	if err != nil {
		return Result{}, err
	}

	var buf bytes.Buffer
	if err := writeJSON(&buf, data); err != nil {
		return Result{}, fmt.Errorf("encoding export: %w", err)
	}

	res := Result{
		Key:   path.Join(j.prefix, FileName(data.ExportedAt)),
		Pages: len(data.Pages),
		Bytes: int64(buf.Len()),
	}
	if err := j.uploader.Upload(ctx, res.Key, &buf, res.Bytes); err != nil {
		return Result{}, err
	}

	j.logger.Info("export uploaded", "key", res.Key, "pages", res.Pages, "bytes", res.Bytes)
	return res, nil
}
