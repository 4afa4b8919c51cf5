package core

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// S3Client defines the interface needed for uploading.
type S3Client interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Uploader handles uploading generated reports to S3.
type S3Uploader struct {
	Client S3Client
	Bucket string
	Prefix string
}

// NewS3Uploader creates a new uploader.
func NewS3Uploader(cfg aws.Config, bucket, prefix string) *S3Uploader {
	return &S3Uploader{
		Client: s3.NewFromConfig(cfg),
		Bucket: bucket,
		Prefix: prefix,
	}
}

// Key returns the object key for a local file: Prefix joined with the base name.
func (u *S3Uploader) Key(localPath string) string {
	key := path.Join(strings.ReplaceAll(u.Prefix, "\\", "/"), filepath.Base(localPath))
	return strings.TrimPrefix(key, "/")
}

// UploadFiles uploads each file under its Key.
func (u *S3Uploader) UploadFiles(ctx context.Context, localPaths ...string) error {
	for _, p := range localPaths {
		if err := u.UploadFile(ctx, p, u.Key(p)); err != nil {
			return err
		}
	}
	return nil
}

// UploadFile uploads a single file to S3.
func (u *S3Uploader) UploadFile(ctx context.Context, localPath, key string) error {
	file, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("failed to open file %s: %w", localPath, err)
	}
	defer file.Close()

	slog.Info("Uploading to S3", "local", localPath, "bucket", u.Bucket, "key", key)

	input := &s3.PutObjectInput{
		Bucket: aws.String(u.Bucket),
		Key:    aws.String(key),
		Body:   file,
	}
	if strings.EqualFold(filepath.Ext(localPath), ".xlsx") {
		input.ContentType = aws.String(xlsxContentType)
	}
	if _, err = u.Client.PutObject(ctx, input); err != nil {
		return fmt.Errorf("failed to upload to s3: %w", err)
	}
	return nil
}
