// Package objectstore persists attachment bytes under opaque string keys.
package objectstore

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/gravadigital/residencia-api/internal/config"
)

// ErrNotFound is returned by Open when no blob exists under the key
var ErrNotFound = errors.New("object not found")

// Store is a flat key/value blob store. There is no listing; the attachment
// metadata rows are the only index.
type Store interface {
	// Put writes the blob, creating any parent structure. Readers never
	// observe a partially written object.
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	// Remove deletes the blob; removing an absent key succeeds
	Remove(ctx context.Context, key string) error
	// Open returns a stream positioned at the start of the blob
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// Driver names accepted by New
const (
	DriverFilesystem = "filesystem"
	DriverMinio      = "minio"
)

// New builds the store selected by configuration
func New(ctx context.Context, cfg *config.Config) (Store, error) {
	switch cfg.Storage.ObjectStore {
	case "", DriverFilesystem:
		return NewFileSystem(cfg.Storage.UploadDir)
	case DriverMinio:
		return NewMinio(ctx, MinioOptions{
			Endpoint:  cfg.Storage.MinioEndpoint,
			AccessKey: cfg.Storage.MinioAccessKey,
			SecretKey: cfg.Storage.MinioSecretKey,
			Bucket:    cfg.Storage.MinioBucket,
			UseSSL:    cfg.Storage.MinioUseSSL,
		})
	default:
		return nil, fmt.Errorf("unsupported object store: %s", cfg.Storage.ObjectStore)
	}
}
