// Package storage keeps run artifacts (runner output, rendered configs) on the
// local filesystem or in S3.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"
)

var (
	// ErrFileNotFound is returned when a requested object does not exist.
	ErrFileNotFound = errors.New("file not found")

	// ErrInvalidPath is returned when a key is empty, absolute or escapes its root.
	ErrInvalidPath = errors.New("invalid path")

	// ErrUnsupportedType is returned by New for an unknown storage type.
	ErrUnsupportedType = errors.New("unsupported storage type")
)

// Storage types accepted by New.
const (
	TypeLocal = "local"
	TypeS3    = "s3"
)

// BlobStorage stores artifact bytes under slash-separated keys.
type BlobStorage interface {
	// Upload stores data from the reader under key.
	Upload(ctx context.Context, key string, reader io.Reader) error

	// Download opens the object under key.
	Download(ctx context.Context, key string) (io.ReadCloser, error)

	// Exists checks if an object is stored under key.
	Exists(ctx context.Context, key string) (bool, error)

	// GetURL returns a location a user can fetch the object from.
	GetURL(ctx context.Context, key string) (string, error)
}

// Config selects and configures a BlobStorage implementation.
type Config struct {
	Type            string
	BaseDir         string
	S3Bucket        string
	S3Region        string
	S3Prefix        string
	S3PresignExpiry time.Duration
}

// New creates a BlobStorage implementation based on cfg.Type.
func New(ctx context.Context, cfg Config) (BlobStorage, error) {
	switch strings.ToLower(cfg.Type) {
	case TypeLocal:
		if cfg.BaseDir == "" {
			return nil, fmt.Errorf("base_dir is required for local storage")
		}
		return NewLocalStorage(cfg.BaseDir)

	case TypeS3:
		s3Storage, err := NewS3Storage(ctx, cfg.S3Bucket, cfg.S3Region)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize S3 storage: %w", err)
		}
		s3Storage.prefix = strings.Trim(cfg.S3Prefix, "/")
		if cfg.S3PresignExpiry > 0 {
			s3Storage.presignExpiration = cfg.S3PresignExpiry
		}
		return s3Storage, nil

	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, cfg.Type)
	}
}

// ArtifactKey returns the key under which a run's artifact is stored.
func ArtifactKey(runID, fileName string) string {
	return path.Join("runs", runID, path.Base(fileName))
}

// cleanKey validates key and returns it in canonical slash form.
func cleanKey(key string) (string, error) {
	if key == "" {
		return "", fmt.Errorf("%w: path cannot be empty", ErrInvalidPath)
	}
	key = strings.ReplaceAll(key, "\\", "/")
	if strings.HasPrefix(key, "/") {
		return "", fmt.Errorf("%w: absolute paths not allowed", ErrInvalidPath)
	}
	cleaned := path.Clean(key)
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", fmt.Errorf("%w: path traversal detected", ErrInvalidPath)
	}
	return cleaned, nil
}
