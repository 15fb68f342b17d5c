package storage

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockS3 struct {
	mock.Mock
}

func (m *mockS3) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	args := m.Called(ctx, params)
	return &s3.PutObjectOutput{}, args.Error(0)
}

func (m *mockS3) DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	args := m.Called(ctx, params)
	return &s3.DeleteObjectOutput{}, args.Error(0)
}

func (m *mockS3) ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	args := m.Called(ctx, params)
	return args.Get(0).(*s3.ListObjectsV2Output), args.Error(1)
}

func TestS3Store_Save(t *testing.T) {
	client := new(mockS3)
	client.On("PutObject", mock.Anything, mock.MatchedBy(func(in *s3.PutObjectInput) bool {
		body, _ := io.ReadAll(in.Body)
		return aws.ToString(in.Bucket) == "uploads" &&
			aws.ToString(in.Key) == "output_fridge.jpg" &&
			aws.ToString(in.ContentType) == "image/jpeg" &&
			string(body) == "jpeg"
	})).Return(nil)

	store := newS3Store(client, "uploads", "")
	url, err := store.Save(context.Background(), "output_fridge.jpg", "image/jpeg", []byte("jpeg"))

	require.NoError(t, err)
	assert.Equal(t, "https://uploads.s3.amazonaws.com/output_fridge.jpg", url)
	client.AssertExpectations(t)
}

func TestS3Store_Sweep(t *testing.T) {
	client := new(mockS3)
	old := time.Now().Add(-72 * time.Hour)
	fresh := time.Now()

	client.On("ListObjectsV2", mock.Anything, mock.MatchedBy(func(in *s3.ListObjectsV2Input) bool {
		return in.ContinuationToken == nil
	})).Return(&s3.ListObjectsV2Output{
		Contents:              []types.Object{{Key: aws.String("output_a.jpg"), LastModified: &old}},
		IsTruncated:           aws.Bool(true),
		NextContinuationToken: aws.String("page-2"),
	}, nil)
	client.On("ListObjectsV2", mock.Anything, mock.MatchedBy(func(in *s3.ListObjectsV2Input) bool {
		return aws.ToString(in.ContinuationToken) == "page-2"
	})).Return(&s3.ListObjectsV2Output{
		Contents:    []types.Object{{Key: aws.String("output_b.jpg"), LastModified: &fresh}},
		IsTruncated: aws.Bool(false),
	}, nil)
	client.On("DeleteObject", mock.Anything, mock.MatchedBy(func(in *s3.DeleteObjectInput) bool {
		return aws.ToString(in.Key) == "output_a.jpg"
	})).Return(nil).Once()

	removed, err := newS3Store(client, "uploads", "https://cdn.example.com/").Sweep(context.Background(), 24*time.Hour)

	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	client.AssertExpectations(t)
}
