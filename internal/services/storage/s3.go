package storage

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// s3API is the part of the S3 client the store uses.
type s3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// S3Store keeps uploads in an S3 bucket.
type S3Store struct {
	client  s3API
	bucket  string
	baseURL string
}

// NewS3Store loads AWS credentials from the environment or shared config.
func NewS3Store(ctx context.Context, region, bucket, baseURL string) (*S3Store, error) {
	if bucket == "" {
		return nil, fmt.Errorf("S3 bucket name is required")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, err
	}

	return newS3Store(s3.NewFromConfig(awsCfg), bucket, baseURL), nil
}

func newS3Store(client s3API, bucket, baseURL string) *S3Store {
	if baseURL == "" {
		baseURL = fmt.Sprintf("https://%s.s3.amazonaws.com", bucket)
	}
	return &S3Store{client: client, bucket: bucket, baseURL: strings.TrimSuffix(baseURL, "/")}
}

func (s *S3Store) Save(ctx context.Context, key, contentType string, data []byte) (string, error) {
	key = SanitizeKey(key)
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to S3: %w", err)
	}
	return s.baseURL + "/" + key, nil
}

func (s *S3Store) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(SanitizeKey(key)),
	})
	return err
}

func (s *S3Store) Sweep(ctx context.Context, olderThan time.Duration) (int, error) {
	cutoff := time.Now().Add(-olderThan)
	removed := 0

	var token *string
	for {
		page, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            aws.String(s.bucket),
			Prefix:            aws.String(UploadPrefix),
			ContinuationToken: token,
		})
		if err != nil {
			return removed, err
		}

		for _, obj := range page.Contents {
			if obj.LastModified == nil || !obj.LastModified.Before(cutoff) {
				continue
			}
			if _, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{Bucket: aws.String(s.bucket), Key: obj.Key}); err != nil {
				return removed, err
			}
			removed++
		}

		if !aws.ToBool(page.IsTruncated) {
			return removed, nil
		}
		token = page.NextContinuationToken
	}
}
