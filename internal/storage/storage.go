package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

// Package storage contains blob storage backends for uploaded property images.
// A backend maps opaque keys to objects and owns the public URL scheme for them.

// ErrInvalidKey is returned when a key would escape the backend's namespace.
var ErrInvalidKey = errors.New("invalid object key")

// PutObjectOptions define optional parameters for uploading objects.
// Size should be the exact number of bytes if known; if unknown, set to -1.
type PutObjectOptions struct {
	Size        int64
	ContentType string
	Metadata    map[string]string
}

// ObjectInfo contains basic information about an object in storage.
type ObjectInfo struct {
	Key          string
	Size         int64
	ETag         string
	ContentType  string
	LastModified time.Time
	Metadata     map[string]string
}

// Storage is a blob store addressed by key whose objects are publicly reachable by URL.
type Storage interface {
	// Put uploads an object under the given key using the provided reader and options.
	Put(ctx context.Context, key string, r io.Reader, opt PutObjectOptions) (ObjectInfo, error)
	// Delete removes an object by key. Deleting a missing object is not an error.
	Delete(ctx context.Context, key string) error
	// List returns every object whose key starts with prefix.
	List(ctx context.Context, prefix string) ([]ObjectInfo, error)
	// URL returns the public URL of the object stored under key.
	URL(key string) string
	// KeyFromURL is the inverse of URL. It reports false for URLs this backend did not issue.
	KeyFromURL(rawURL string) (string, bool)
}
