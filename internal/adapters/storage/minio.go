package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/ironforge/raidlake/pkg/logger"
)

// ObjectStore is the storage collaborator every pipeline stage talks
// to. All calls are synchronous; timeouts come from the caller's
// context.
type ObjectStore interface {
	Put(ctx context.Context, bucket, name string, data []byte, contentType string) error
	Get(ctx context.Context, bucket, name string) ([]byte, error)
	List(ctx context.Context, bucket, prefix string) ([]string, error)
	EnsureBucket(ctx context.Context, bucket string) error
}

// MinioStore is the S3-compatible ObjectStore implementation.
type MinioStore struct {
	client *minio.Client
	log    logger.Logger
}

// MinioOptions carries the connection settings for NewMinioStore.
type MinioOptions struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
}

// NewMinioStore connects to an S3-compatible endpoint.
func NewMinioStore(opts MinioOptions) (*MinioStore, error) {
	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("connect to object store at %s: %w", opts.Endpoint, err)
	}
	return &MinioStore{
		client: client,
		log:    logger.Named("storage"),
	}, nil
}

// EnsureBucket creates the bucket when it does not exist yet.
func (s *MinioStore) EnsureBucket(ctx context.Context, bucket string) error {
	exists, err := s.client.BucketExists(ctx, bucket)
	if err != nil {
		return fmt.Errorf("%w: check bucket %s: %v", ErrListFailed, bucket, err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("%w: create bucket %s: %v", ErrWriteFailed, bucket, err)
	}
	s.log.Info(ctx, "bucket created", logger.String("bucket", bucket))
	return nil
}

func (s *MinioStore) Put(ctx context.Context, bucket, name string, data []byte, contentType string) error {
	_, err := s.client.PutObject(ctx, bucket, name, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return fmt.Errorf("%w: %s/%s: %v", ErrWriteFailed, bucket, name, err)
	}
	return nil
}

func (s *MinioStore) Get(ctx context.Context, bucket, name string) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, bucket, name, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("%w: %s/%s: %v", ErrReadFailed, bucket, name, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		resp := minio.ToErrorResponse(err)
		if resp.Code == "NoSuchKey" {
			return nil, fmt.Errorf("%w: %s/%s", ErrNotFound, bucket, name)
		}
		return nil, fmt.Errorf("%w: %s/%s: %v", ErrReadFailed, bucket, name, err)
	}
	return data, nil
}

func (s *MinioStore) List(ctx context.Context, bucket, prefix string) ([]string, error) {
	var names []string
	for info := range s.client.ListObjects(ctx, bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	}) {
		if info.Err != nil {
			return nil, fmt.Errorf("%w: %s/%s: %v", ErrListFailed, bucket, prefix, info.Err)
		}
		names = append(names, info.Key)
	}
	return names, nil
}
