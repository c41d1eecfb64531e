package objectstore

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/gravadigital/residencia-api/internal/logger"
)

type MinioOptions struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// Minio stores blobs in an S3-compatible bucket
type Minio struct {
	client *minio.Client
	bucket string
	log    *log.Logger
}

// NewMinio connects to the endpoint and makes sure the bucket exists
func NewMinio(ctx context.Context, opts MinioOptions) (*Minio, error) {
	l := logger.ObjectStore(DriverMinio)

	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, opts.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket %s: %w", opts.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, opts.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket %s: %w", opts.Bucket, err)
		}
		l.Info("bucket created", "bucket", opts.Bucket)
	}

	l.Info("minio object store ready", "endpoint", opts.Endpoint, "bucket", opts.Bucket)
	return &Minio{client: client, bucket: opts.Bucket, log: l}, nil
}

func (s *Minio) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	info, err := s.client.PutObject(ctx, s.bucket, key, r, size, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		s.log.Error("failed to put object", "key", key, "error", err)
		return fmt.Errorf("failed to put object: %w", err)
	}
	s.log.Debug("object stored", "key", key, "size", info.Size)
	return nil
}

func (s *Minio) Remove(ctx context.Context, key string) error {
	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		if isNoSuchKey(err) {
			return nil
		}
		s.log.Error("failed to remove object", "key", key, "error", err)
		return fmt.Errorf("failed to remove object: %w", err)
	}
	return nil
}

func (s *Minio) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get object: %w", err)
	}
	// GetObject is lazy; Stat surfaces a missing key before streaming starts.
	if _, err := obj.Stat(); err != nil {
		_ = obj.Close()
		if isNoSuchKey(err) {
			return nil, fmt.Errorf("%s: %w", key, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to stat object: %w", err)
	}
	return obj, nil
}

func isNoSuchKey(err error) bool {
	return minio.ToErrorResponse(err).Code == "NoSuchKey"
}
