// Package storage archives profiler dumps, exported reports and tag documents
// in an object store.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/mch-analysis/pkg/config"
)

// ErrNotFound is returned when the requested object does not exist.
var ErrNotFound = errors.New("object not found")

// Storage defines the interface for object storage operations.
type Storage interface {
	// Upload uploads data from reader to the specified key.
	Upload(ctx context.Context, key string, reader io.Reader) error

	// Download opens the object at key. Missing objects yield ErrNotFound.
	Download(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete deletes the object at the specified key. Deleting a missing object is not an error.
	Delete(ctx context.Context, key string) error

	// Exists checks if an object exists at the specified key.
	Exists(ctx context.Context, key string) (bool, error)

	// List returns the keys under prefix in lexical order.
	List(ctx context.Context, prefix string) ([]string, error)

	// GetURL returns the URL for the specified key (if applicable).
	GetURL(key string) string
}

// StorageType represents the type of storage backend.
type StorageType string

const (
	StorageTypeLocal StorageType = "local"
	StorageTypeCOS   StorageType = "cos"
)

// Kind groups archived objects by what they hold.
type Kind string

const (
	KindDump   Kind = "dumps"
	KindReport Kind = "reports"
	KindLevel  Kind = "levels"
)

// NewStorage creates a new Storage instance based on the configuration.
func NewStorage(cfg *config.StorageConfig) (Storage, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}

	var (
		s   Storage
		err error
	)
	switch StorageType(cfg.Type) {
	case StorageTypeCOS:
		s, err = NewCOSStorage(&COSConfig{
			Bucket:    cfg.Bucket,
			Region:    cfg.Region,
			SecretID:  cfg.SecretID,
			SecretKey: cfg.SecretKey,
			Domain:    cfg.Domain,
			Scheme:    cfg.Scheme,
		})
	default:
		s, err = NewLocalStorage(cfg.LocalPath)
	}
	if err != nil {
		return nil, err
	}

	if cfg.Prefix != "" {
		return WithPrefix(s, cfg.Prefix), nil
	}
	return s, nil
}

// ValidateConfig validates the storage configuration.
func ValidateConfig(cfg *config.StorageConfig) error {
	if cfg == nil {
		return fmt.Errorf("storage config is nil")
	}

	storageType := StorageType(cfg.Type)

	// Empty type defaults to local
	if storageType == "" {
		storageType = StorageTypeLocal
	}

	switch storageType {
	case StorageTypeCOS:
		if cfg.Bucket == "" {
			return fmt.Errorf("COS bucket is required")
		}
		if cfg.Region == "" {
			return fmt.Errorf("COS region is required")
		}
		if cfg.SecretID == "" || cfg.SecretKey == "" {
			return fmt.Errorf("COS credentials are required")
		}
	case StorageTypeLocal:
		if cfg.LocalPath == "" {
			return fmt.Errorf("local storage path is required")
		}
	default:
		return fmt.Errorf("unsupported storage type: %s", cfg.Type)
	}

	return nil
}

// CleanKey normalizes key into a slash separated relative path. Keys that
// escape the store root are rejected.
func CleanKey(key string) (string, error) {
	key = strings.ReplaceAll(strings.TrimSpace(key), "\\", "/")
	cleaned := path.Clean("/" + key)
	cleaned = strings.TrimPrefix(cleaned, "/")
	if cleaned == "" || cleaned == "." {
		return "", fmt.Errorf("invalid object key: %q", key)
	}
	for _, part := range strings.Split(key, "/") {
		if part == ".." {
			return "", fmt.Errorf("invalid object key: %q", key)
		}
	}
	return cleaned, nil
}

// ObjectKey builds the archive key for an object of the given kind, e.g.
// "reports/2026/10/18/3f2a9c.txt". The name is reduced to its base element.
func ObjectKey(kind Kind, at time.Time, name string) string {
	base := path.Base(strings.ReplaceAll(name, "\\", "/"))
	return path.Join(string(kind), at.UTC().Format("2006/01/02"), base)
}

type prefixed struct {
	Storage
	prefix string
}

// WithPrefix returns a Storage that stores every key under prefix.
func WithPrefix(s Storage, prefix string) Storage {
	return &prefixed{Storage: s, prefix: strings.Trim(prefix, "/")}
}

func (p *prefixed) key(k string) string { return path.Join(p.prefix, k) }

func (p *prefixed) Upload(ctx context.Context, key string, reader io.Reader) error {
	return p.Storage.Upload(ctx, p.key(key), reader)
}

func (p *prefixed) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	return p.Storage.Download(ctx, p.key(key))
}

func (p *prefixed) Delete(ctx context.Context, key string) error {
	return p.Storage.Delete(ctx, p.key(key))
}

func (p *prefixed) Exists(ctx context.Context, key string) (bool, error) {
	return p.Storage.Exists(ctx, p.key(key))
}

func (p *prefixed) List(ctx context.Context, prefix string) ([]string, error) {
	keys, err := p.Storage.List(ctx, p.key(prefix))
	if err != nil {
		return nil, err
	}
	for i, k := range keys {
		keys[i] = strings.TrimPrefix(strings.TrimPrefix(k, p.prefix), "/")
	}
	return keys, nil
}

func (p *prefixed) GetURL(key string) string {
	return p.Storage.GetURL(p.key(key))
}
