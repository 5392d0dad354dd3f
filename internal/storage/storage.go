// Package storage keeps uploaded report PDFs.
package storage

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound   = errors.New("object not found")
	ErrInvalidKey = errors.New("invalid object key")
)

// FileStore persists attachment bodies under opaque keys.
type FileStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

// Presigner is implemented by stores that can hand out time-limited direct
// download links.
type Presigner interface {
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)
}

// NewKey builds the storage key for a freshly uploaded PDF.
func NewKey() string {
	return "reports/" + uuid.NewString() + ".pdf"
}

// CleanKey normalizes key and rejects anything that would escape the store.
func CleanKey(key string) (string, error) {
	key = strings.TrimLeft(key, "/")
	if key == "" || strings.Contains(key, "\\") {
		return "", ErrInvalidKey
	}
	cleaned := path.Clean(key)
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") || cleaned != key {
		return "", ErrInvalidKey
	}
	return cleaned, nil
}

// PublicURL returns the link stored on a report for key. Without a base the
// link is relative to the API root.
func PublicURL(base, key string) string {
	rel := "/files/" + key
	if base == "" {
		return rel
	}
	return strings.TrimRight(base, "/") + rel
}
