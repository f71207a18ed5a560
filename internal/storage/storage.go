// Package storage provides the object storage run reports are written to.
package storage

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/arkilian/enginecompat/internal/config"
)

// Common errors for storage operations.
var (
	ErrObjectNotFound     = errors.New("object not found")
	ErrPreconditionFailed = errors.New("precondition failed")
	ErrUploadFailed       = errors.New("upload failed")
	ErrDownloadFailed     = errors.New("download failed")
	ErrDeleteFailed       = errors.New("delete failed")
)

// ObjectStorage abstracts object storage operations.
// Implementations are S3 and the local filesystem.
type ObjectStorage interface {
	// Put writes data to objectPath, replacing any existing object.
	Put(ctx context.Context, objectPath string, data []byte) error

	// PutIfAbsent writes data only if nothing exists at objectPath yet.
	// It returns ErrPreconditionFailed otherwise.
	PutIfAbsent(ctx context.Context, objectPath string, data []byte) error

	// Get reads a whole object. A missing object is ErrObjectNotFound.
	Get(ctx context.Context, objectPath string) ([]byte, error)

	// Delete removes an object. Deleting a missing object is not an error.
	Delete(ctx context.Context, objectPath string) error

	// Exists checks if an object exists in storage.
	Exists(ctx context.Context, objectPath string) (bool, error)

	// ListObjects returns all object paths under the given prefix.
	ListObjects(ctx context.Context, prefix string) ([]string, error)
}

// New creates the storage selected by the report configuration.
func New(ctx context.Context, cfg config.StorageConfig) (ObjectStorage, error) {
	switch cfg.Type {
	case "", "local":
		if cfg.Path == "" {
			return nil, fmt.Errorf("local storage needs a path")
		}
		return NewLocalStorage(filepath.Clean(cfg.Path))
	case "s3":
		s3cfg := DefaultS3Config()
		if cfg.S3.Region != "" {
			s3cfg.Region = cfg.S3.Region
		}
		if cfg.S3.Endpoint != "" {
			s3cfg.Endpoint = cfg.S3.Endpoint
			s3cfg.UsePathStyle = true
		}
		s3cfg.Prefix = cfg.S3.Prefix
		return NewS3Storage(ctx, cfg.S3.Bucket, s3cfg)
	default:
		return nil, fmt.Errorf("unknown storage type %q", cfg.Type)
	}
}
