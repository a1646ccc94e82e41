// Package storage keeps uploaded project images in MinIO or Google Cloud
// Storage.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/portfolio-cms/apiserver/config"
)

// ErrDisabled is returned by NewFromConfig when no backend is configured.
var ErrDisabled = errors.New("object storage is not configured")

const (
	// Object keys embed a fresh uuid, so cached copies never go stale.
	immutableCacheControl = "public, max-age=31536000, immutable"
	// Uploads below this size go out in a single request.
	maxSingleRequestUpload = 16 << 20
)

// ObjectStorage defines common object operations across backends.
type ObjectStorage interface {
	EnsureBucket(ctx context.Context) error
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Delete(ctx context.Context, key string) error
	// DeletePrefix removes every object whose key starts with prefix.
	DeletePrefix(ctx context.Context, prefix string) error
	Bucket() string
	// ObjectURL is the backend's own address for key.
	ObjectURL(key string) string
}

// Storage wraps a backend and resolves public object URLs.
type Storage struct {
	backend   ObjectStorage
	publicURL string
}

// NewStorage wraps backend. When publicURL is empty, object URLs come from
// the backend itself.
func NewStorage(backend ObjectStorage, publicURL string) *Storage {
	return &Storage{backend: backend, publicURL: strings.TrimRight(publicURL, "/")}
}

// NewFromConfig builds the backend selected by cfg.Backend and makes sure
// its bucket exists.
func NewFromConfig(ctx context.Context, cfg config.StorageConfig) (*Storage, error) {
	var (
		backend ObjectStorage
		err     error
	)
	switch cfg.Backend {
	case "":
		return nil, ErrDisabled
	case "minio":
		backend, err = NewMinioClient(cfg.Minio)
	case "gcs":
		backend, err = NewGCSClient(ctx, cfg.GCS)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, err
	}
	if err := backend.EnsureBucket(ctx); err != nil {
		return nil, fmt.Errorf("ensure bucket %s: %w", backend.Bucket(), err)
	}
	return NewStorage(backend, cfg.PublicURL), nil
}

// Put uploads an object to the configured bucket.
func (s *Storage) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	return s.backend.Put(ctx, key, r, size, contentType)
}


// Delete removes an object from the configured bucket.
func (s *Storage) Delete(ctx context.Context, key string) error {
	return s.backend.Delete(ctx, key)
}

// DeletePrefix removes every object under prefix. An empty prefix is
// rejected so a bad caller cannot wipe the bucket.
func (s *Storage) DeletePrefix(ctx context.Context, prefix string) error {
	prefix = strings.TrimLeft(prefix, "/")
	if prefix == "" {
		return errors.New("storage: empty delete prefix")
	}
	return s.backend.DeletePrefix(ctx, prefix)
}

// PublicURL is the address clients use to fetch key.
func (s *Storage) PublicURL(key string) string {
	key = strings.TrimLeft(key, "/")
	if s.publicURL != "" {
		return s.publicURL + "/" + key
	}
	return s.backend.ObjectURL(key)
}

// Bucket returns the configured bucket name.
func (s *Storage) Bucket() string {
	return s.backend.Bucket()
}
