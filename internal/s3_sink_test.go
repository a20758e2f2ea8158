package internal

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/google/uuid"
	"github.com/lychee-technology/rhizo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type uploadedObject struct {
	bucket      string
	key         string
	contentType string
	body        []byte
}

type fakeUploader struct {
	objects []uploadedObject
	err     error
}

func (f *fakeUploader) Upload(ctx context.Context, input *s3.PutObjectInput, _ ...func(*manager.Uploader)) (*manager.UploadOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	body, err := io.ReadAll(input.Body)
	if err != nil {
		return nil, err
	}
	f.objects = append(f.objects, uploadedObject{
		bucket:      aws.ToString(input.Bucket),
		key:         aws.ToString(input.Key),
		contentType: aws.ToString(input.ContentType),
		body:        body,
	})
	return &manager.UploadOutput{Key: input.Key}, nil
}

func TestS3Sink_UploadsChunks(t *testing.T) {
	uploader := &fakeUploader{}
	sink := NewS3Sink(uploader, "datasets", "exports/rhizo", 2)

	require.NoError(t, sink.Write(context.Background(), personDataset(3)))
	require.Len(t, uploader.objects, 2)

	for _, obj := range uploader.objects {
		assert.Equal(t, "datasets", obj.bucket)
		assert.Equal(t, "application/json", obj.contentType)
		assert.True(t, strings.HasPrefix(obj.key, "exports/rhizo/person/"), obj.key)
		assert.True(t, strings.HasSuffix(obj.key, ".json"), obj.key)

		name := strings.TrimSuffix(strings.TrimPrefix(obj.key, "exports/rhizo/person/"), ".json")
		_, err := DecodeBase32ToUUID(name)
		assert.NoError(t, err)
	}
	assert.NotEqual(t, uploader.objects[0].key, uploader.objects[1].key)

	var first rhizo.Dataset
	require.NoError(t, json.Unmarshal(uploader.objects[0].body, &first))
	assert.Equal(t, "*sample.Person", first.ModelType)
	require.Len(t, first.Records, 2)
	assert.Equal(t, "p-1", first.Records[0]["id"])
	assert.NotContains(t, string(uploader.objects[0].body), rhizo.ModelRefKey)
	assert.Equal(t, rhizo.KindRange, first.MetaModel["age"].Kind())
}

func TestS3Sink_DeterministicKeys(t *testing.T) {
	uploader := &fakeUploader{}
	sink := NewS3Sink(uploader, "datasets", "", 10)
	id := uuid.MustParse("f81d4fae-7dec-11d0-a765-00a0c91e6bf6")
	sink.newKey = func() (uuid.UUID, error) { return id, nil }

	require.NoError(t, sink.Write(context.Background(), personDataset(1)))
	require.Len(t, uploader.objects, 1)
	assert.Equal(t, "person/9aou9lt77qi7bj5facqmshtl8y.json", uploader.objects[0].key)
}

func TestS3Sink_Errors(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		code    string
		awsCode string
	}{
		{"missing bucket", &smithy.GenericAPIError{Code: "NoSuchBucket", Message: "gone"}, rhizo.ErrCodeSinkUnavailable, "NoSuchBucket"},
		{"access denied", &smithy.GenericAPIError{Code: "AccessDenied", Message: "no"}, rhizo.ErrCodeSinkWriteFailed, "AccessDenied"},
		{"network", errors.New("connection reset"), rhizo.ErrCodeSinkWriteFailed, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sink := NewS3Sink(&fakeUploader{err: tt.err}, "datasets", "rhizo", 10)
			err := sink.Write(context.Background(), personDataset(1))
			require.Error(t, err)

			var rerr *rhizo.RhizoError
			require.ErrorAs(t, err, &rerr)
			assert.Equal(t, tt.code, rerr.Code)
			if tt.awsCode != "" {
				assert.Equal(t, tt.awsCode, rerr.Details["awsErrorCode"])
			} else {
				assert.NotContains(t, rerr.Details, "awsErrorCode")
			}
		})
	}
}

func TestS3Sink_KeyGenerationFailure(t *testing.T) {
	sink := NewS3Sink(&fakeUploader{}, "datasets", "rhizo", 10)
	sink.newKey = func() (uuid.UUID, error) { return uuid.Nil, errors.New("entropy exhausted") }

	err := sink.Write(context.Background(), personDataset(1))
	assert.Equal(t, rhizo.ErrCodeSinkWriteFailed, rhizo.ErrorCode(err))
}

type fakeBucketHeader struct {
	err error
}

func (f fakeBucketHeader) HeadBucket(ctx context.Context, params *s3.HeadBucketInput, _ ...func(*s3.Options)) (*s3.HeadBucketOutput, error) {
	return &s3.HeadBucketOutput{}, f.err
}

func TestS3HealthCheck(t *testing.T) {
	ctx := context.Background()
	require.NoError(t, S3HealthCheck(ctx, fakeBucketHeader{}, "datasets"))

	err := S3HealthCheck(ctx, fakeBucketHeader{err: &smithy.GenericAPIError{Code: "NotFound"}}, "datasets")
	var rerr *rhizo.RhizoError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, rhizo.ErrCodeSinkUnavailable, rerr.Code)
	assert.Equal(t, "datasets", rerr.Field)
	assert.Equal(t, "NotFound", rerr.Details["awsErrorCode"])
}

func TestValidateS3Config(t *testing.T) {
	assert.NoError(t, ValidateS3Config(rhizo.S3Config{Bucket: "b"}))
	assert.NoError(t, ValidateS3Config(rhizo.S3Config{Bucket: "b", AccessKey: "a", SecretKey: "s"}))
	assert.Error(t, ValidateS3Config(rhizo.S3Config{}))
	assert.Error(t, ValidateS3Config(rhizo.S3Config{Bucket: "b", AccessKey: "a"}))
	assert.Error(t, ValidateS3Config(rhizo.S3Config{Bucket: "b", SecretKey: "s"}))
}

func TestNewS3Client_StaticCredentials(t *testing.T) {
	client, err := NewS3Client(context.Background(), rhizo.S3Config{
		Bucket:       "datasets",
		Region:       "eu-west-1",
		Endpoint:     "http://localhost:9000",
		AccessKey:    "minio",
		SecretKey:    "minio123",
		UsePathStyle: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "eu-west-1", client.Options().Region)
	assert.True(t, client.Options().UsePathStyle)
}
