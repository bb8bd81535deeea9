package storage

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"parley/internal/pkg/logx"
)

// downloadURLExpiry is the lifetime of the presigned avatar URL returned by
// Put. Seven days matches the session lifetime; expired URLs refresh on the
// next profile fetch cycle in a real deployment.
const downloadURLExpiry = 7 * 24 * time.Hour

// s3Store implements BlobStore against S3-compatible storage.
type s3Store struct {
	cfg      ServiceConfig
	client   *s3.Client
	uploader *manager.Uploader
}

// newS3Store initializes the client with static credentials and a custom
// endpoint, path-style, so MinIO and friends work.
func newS3Store(cfg ServiceConfig) (*s3Store, error) {
	sdkCfg, err := config.LoadDefaultConfig(context.TODO(),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.S3AccessKeyID,
			cfg.S3SecretAccessKey,
			"",
		)),
		config.WithRegion("auto"),
	)
	if err != nil {
		logx.Error(err, "failed to load AWS SDK config")
		return nil, errors.New("failed to initialize S3 client configuration")
	}

	client := s3.NewFromConfig(sdkCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.S3Endpoint)
		o.UsePathStyle = true
	})

	return &s3Store{
		cfg:      cfg,
		client:   client,
		uploader: manager.NewUploader(client),
	}, nil
}

// Put uploads the blob and returns a presigned download URL for it.
func (s *s3Store) Put(ctx context.Context, key, contentType string, body io.Reader) (string, error) {
	_, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      &s.cfg.S3BucketName,
		Key:         &key,
		ContentType: &contentType,
		Body:        body,
	})
	if err != nil {
		logx.Error(err, "S3 upload failed", "key", key)
		return "", errors.New("failed to store file")
	}

	presignClient := s3.NewPresignClient(s.client)
	resp, err := presignClient.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: &s.cfg.S3BucketName,
		Key:    &key,
	}, s3.WithPresignExpires(downloadURLExpiry))
	if err != nil {
		logx.Error(err, "failed to presign avatar download URL", "key", key)
		return "", errors.New("failed to generate download URL")
	}

	return resp.URL, nil
}

// Open streams a stored blob back, for setups that serve avatars through the
// application instead of the presigned URL.
func (s *s3Store) Open(ctx context.Context, key string) (io.ReadCloser, string, error) {
	resp, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: &s.cfg.S3BucketName,
		Key:    &key,
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, "", errors.New("file not found")
		}
		logx.Error(err, "S3 get failed", "key", key)
		return nil, "", errors.New("failed to fetch file")
	}

	contentType := ""
	if resp.ContentType != nil {
		contentType = *resp.ContentType
	}
	return resp.Body, contentType, nil
}
