// Package storage hands out presigned S3 URLs for program and
// material images. The core only ever stores the opaque object key.
package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type S3Storage struct {
	presigner *s3.PresignClient
	bucket    string
	expiry    time.Duration
}

func NewS3Storage(client *s3.Client, bucket string, expiry time.Duration) *S3Storage {
	return &S3Storage{
		presigner: s3.NewPresignClient(client),
		bucket:    bucket,
		expiry:    expiry,
	}
}

// PresignUpload returns a URL the browser can PUT an image to.
func (s *S3Storage) PresignUpload(ctx context.Context, key, contentType string) (string, error) {
	req, err := s.presigner.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, s3.WithPresignExpires(s.expiry))
	if err != nil {
		return "", fmt.Errorf("failed to presign upload for %s: %w", key, err)
	}

	return req.URL, nil
}

// PresignDownload returns a time-limited URL for fetching an image by
// its stored key.
func (s *S3Storage) PresignDownload(ctx context.Context, key string) (string, error) {
	req, err := s.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(s.expiry))
	if err != nil {
		return "", fmt.Errorf("failed to presign download for %s: %w", key, err)
	}

	return req.URL, nil
}
