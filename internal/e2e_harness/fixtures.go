package e2e_harness

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/lychee-technology/rhizo"
	"github.com/lychee-technology/rhizo/internal"
)

// Credentials of the S3 container started by StartS3.
const (
	S3AccessKey = "minio"
	S3SecretKey = "minio"
)

// S3Config returns sink settings pointing at the harness S3 container.
func (h *TestHarness) S3Config(bucket, prefix string) rhizo.S3Config {
	return rhizo.S3Config{
		Bucket:       bucket,
		Prefix:       prefix,
		Region:       "us-east-1",
		Endpoint:     h.S3Endpoint,
		AccessKey:    S3AccessKey,
		SecretKey:    S3SecretKey,
		UsePathStyle: true,
	}
}

// EnsureBucket creates bucket unless it already exists.
func EnsureBucket(ctx context.Context, client *s3.Client, bucket string) error {
	if _, err := client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(bucket)}); err == nil {
		return nil
	}
	_, err := client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(bucket)})
	if err == nil {
		return nil
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "BucketAlreadyOwnedByYou", "BucketAlreadyExists":
			return nil
		}
	}
	return fmt.Errorf("create bucket: %w", err)
}

// ListObjectKeys returns every key under prefix.
func ListObjectKeys(ctx context.Context, client *s3.Client, bucket, prefix string) ([]string, error) {
	var keys []string
	paginator := s3.NewListObjectsV2Paginator(client, &s3.ListObjectsV2Input{
		Bucket: aws.String(bucket),
		Prefix: aws.String(prefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list objects: %w", err)
		}
		for _, obj := range page.Contents {
			keys = append(keys, aws.ToString(obj.Key))
		}
	}
	return keys, nil
}

// DownloadDataset reads back a dataset document written by the S3 sink.
func DownloadDataset(ctx context.Context, client *s3.Client, bucket, key string) (*rhizo.Dataset, error) {
	out, err := client.GetObject(ctx, &s3.GetObjectInput{Bucket: aws.String(bucket), Key: aws.String(key)})
	if err != nil {
		return nil, fmt.Errorf("get object %s: %w", key, err)
	}
	defer out.Body.Close()

	var ds rhizo.Dataset
	if err := json.NewDecoder(out.Body).Decode(&ds); err != nil {
		return nil, fmt.Errorf("decode dataset %s: %w", key, err)
	}
	return &ds, nil
}

// NewS3Client builds a client for bucket on the harness S3 container.
func (h *TestHarness) NewS3Client(ctx context.Context, bucket string) (*s3.Client, error) {
	return internal.NewS3Client(ctx, h.S3Config(bucket, ""))
}

// CountRows runs a COUNT query and returns its result.
func CountRows(ctx context.Context, db *sql.DB, query string, args ...any) (int, error) {
	var n int
	if err := db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count rows: %w", err)
	}
	return n, nil
}
