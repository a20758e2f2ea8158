package internal

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/lychee-technology/rhizo"
)

// ValidateS3Config performs basic sanity checks on S3 sink settings.
func ValidateS3Config(cfg rhizo.S3Config) error {
	if cfg.Bucket == "" {
		return fmt.Errorf("s3 bucket must not be empty")
	}
	if cfg.AccessKey != "" && cfg.SecretKey == "" {
		return fmt.Errorf("s3AccessKey provided without s3SecretKey")
	}
	if cfg.SecretKey != "" && cfg.AccessKey == "" {
		return fmt.Errorf("s3SecretKey provided without s3AccessKey")
	}
	return nil
}

// NewS3Client builds an S3 client from the default AWS config chain. Static
// credentials and a custom endpoint (e.g. MinIO) override the chain when set.
func NewS3Client(ctx context.Context, cfg rhizo.S3Config) (*s3.Client, error) {
	if err := ValidateS3Config(cfg); err != nil {
		return nil, err
	}
	loadOpts := []func(*config.LoadOptions) error{}
	if cfg.Region != "" {
		loadOpts = append(loadOpts, config.WithRegion(cfg.Region))
	}
	if cfg.AccessKey != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")))
	}
	if cfg.Endpoint != "" {
		loadOpts = append(loadOpts, config.WithBaseEndpoint(cfg.Endpoint))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
	}), nil
}

type bucketHeader interface {
	HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
}

// S3HealthCheck verifies the sink bucket exists and is accessible.
func S3HealthCheck(ctx context.Context, client bucketHeader, bucket string) error {
	_, err := client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(bucket)})
	if err == nil {
		return nil
	}
	storageErr := rhizo.NewStorageError(rhizo.ErrCodeSinkUnavailable, "s3 bucket is not accessible").
		WithField(bucket).WithCause(err)
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		storageErr.WithDetail("awsErrorCode", apiErr.ErrorCode())
	}
	return storageErr
}
