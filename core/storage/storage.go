package storage

import (
	"context"
	"fmt"
	"time"

	"go-meeting-sync/core/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

const defaultURLExpiry = 7 * 24 * time.Hour

// URLSigner produces time-boxed download links for stored objects.
type URLSigner interface {
	SignedURL(ctx context.Context, objectKey string) (string, error)
}

type S3Storage struct {
	bucket    string
	expiry    time.Duration
	presigner *s3.PresignClient
}

func newS3Client(cfg config.StorageConfig) *s3.Client {
	opts := s3.Options{
		Region:       cfg.Region,
		Credentials:  credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		UsePathStyle: cfg.Endpoint != "",
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
	}
	return s3.New(opts)
}

func NewS3Storage(cfg config.StorageConfig) (*S3Storage, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("storage bucket not configured")
	}

	expiry := cfg.URLExpiry
	if expiry <= 0 {
		expiry = defaultURLExpiry
	}

	return &S3Storage{
		bucket:    cfg.Bucket,
		expiry:    expiry,
		presigner: s3.NewPresignClient(newS3Client(cfg)),
	}, nil
}

func (s *S3Storage) SignedURL(ctx context.Context, objectKey string) (string, error) {
	req, err := s.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(objectKey),
	}, s3.WithPresignExpires(s.expiry))
	if err != nil {
		return "", fmt.Errorf("presign %s: %w", objectKey, err)
	}
	return req.URL, nil
}
