// Package storage provides object storage for run artifacts, either on
// the local filesystem or on Tencent Cloud COS.
package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/voter-segmentation/pkg/config"
)

// Storage is the object store the exporter writes run artifacts to.
type Storage interface {
	// Upload writes data from reader under the given key.
	Upload(ctx context.Context, key string, reader io.Reader) error

	// Download reads the object at the given key.
	Download(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete removes the object at the given key. Deleting a missing
	// object is not an error.
	Delete(ctx context.Context, key string) error

	// Exists reports whether an object exists at the given key.
	Exists(ctx context.Context, key string) (bool, error)

	// GetURL returns the location of the object at the given key.
	GetURL(key string) string
}

// Type selects the storage backend.
type Type string

const (
	TypeLocal Type = "local"
	TypeCOS   Type = "cos"
)

// New creates a Storage from the configuration.
func New(cfg *config.StorageConfig) (Storage, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}

	switch Type(cfg.Type) {
	case TypeCOS:
		return NewCOSStorage(&COSConfig{
			Bucket:    cfg.Bucket,
			Region:    cfg.Region,
			SecretID:  cfg.SecretID,
			SecretKey: cfg.SecretKey,
			Domain:    cfg.Domain,
			Scheme:    cfg.Scheme,
		})
	default:
		return NewLocalStorage(cfg.LocalPath)
	}
}

// ValidateConfig validates the storage configuration.
func ValidateConfig(cfg *config.StorageConfig) error {
	if cfg == nil {
		return fmt.Errorf("storage config is nil")
	}

	t := Type(cfg.Type)
	if t == "" {
		t = TypeLocal
	}

	switch t {
	case TypeCOS:
		if cfg.Bucket == "" || cfg.Region == "" {
			return fmt.Errorf("COS bucket and region are required")
		}
		if cfg.SecretID == "" || cfg.SecretKey == "" {
			return fmt.Errorf("COS credentials are required")
		}
	case TypeLocal:
		if cfg.LocalPath == "" {
			return fmt.Errorf("local storage path is required")
		}
	default:
		return fmt.Errorf("unsupported storage type: %s", cfg.Type)
	}
	return nil
}
