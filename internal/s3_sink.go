package internal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/google/uuid"
	"github.com/lychee-technology/rhizo"
	"go.uber.org/zap"
)

// objectUploader is the subset of manager.Uploader the sink needs.
type objectUploader interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

// S3Sink uploads each dataset chunk as one JSON document under
// <prefix>/<model>/<key>.json, where key is a base32 encoded UUIDv7.
type S3Sink struct {
	uploader  objectUploader
	bucket    string
	prefix    string
	batchSize int
	newKey    func() (uuid.UUID, error)
}

var _ rhizo.RecordSink = (*S3Sink)(nil)

func NewS3Sink(uploader objectUploader, bucket, prefix string, batchSize int) *S3Sink {
	return &S3Sink{
		uploader:  uploader,
		bucket:    bucket,
		prefix:    prefix,
		batchSize: batchSize,
		newKey:    uuid.NewV7,
	}
}

// NewS3SinkFromClient wraps client in a multipart-capable uploader.
func NewS3SinkFromClient(client *s3.Client, bucket, prefix string, batchSize int) *S3Sink {
	return NewS3Sink(manager.NewUploader(client), bucket, prefix, batchSize)
}

func (s *S3Sink) objectKey(modelType string) (string, error) {
	id, err := s.newKey()
	if err != nil {
		return "", fmt.Errorf("generate object key: %w", err)
	}
	return path.Join(s.prefix, modelTypeSlug(modelType), EncodeUUIDToBase32(id)+".json"), nil
}

func (s *S3Sink) Write(ctx context.Context, ds *rhizo.Dataset) error {
	if ds == nil || ds.Len() == 0 {
		return nil
	}
	for _, chunk := range ds.Chunk(s.batchSize) {
		if err := s.upload(ctx, chunk); err != nil {
			return err
		}
	}
	return nil
}

func (s *S3Sink) upload(ctx context.Context, ds *rhizo.Dataset) error {
	body, err := json.Marshal(ds)
	if err != nil {
		return rhizo.NewStorageError(rhizo.ErrCodeSinkWriteFailed, "failed to encode dataset").
			WithModel(ds.ModelType).WithCause(err)
	}
	key, err := s.objectKey(ds.ModelType)
	if err != nil {
		return rhizo.NewStorageError(rhizo.ErrCodeSinkWriteFailed, "failed to build object key").WithCause(err)
	}

	_, err = s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		storageErr := rhizo.NewStorageError(rhizo.ErrCodeSinkWriteFailed, "s3 upload failed").
			WithModel(ds.ModelType).WithField(key).WithCause(err)
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) {
			storageErr.WithDetail("awsErrorCode", apiErr.ErrorCode())
			if apiErr.ErrorCode() == "NoSuchBucket" {
				storageErr.Code = rhizo.ErrCodeSinkUnavailable
			}
		}
		return storageErr
	}

	zap.S().Infow("s3 sink uploaded dataset", "bucket", s.bucket, "key", key, "records", ds.Len())
	return nil
}

func (s *S3Sink) Close() error {
	return nil
}
