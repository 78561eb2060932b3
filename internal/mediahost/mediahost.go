// Package mediahost abstracts the external service that stores and delivers video and image binaries.
package mediahost

import (
	"context"
	"errors"
	"io"

	"github.com/jon4hz/indiflix/internal/streamurl"
)

// ErrNotConfigured is returned by hosts without credentials.
var ErrNotConfigured = errors.New("media host is not configured")

// File is a binary to upload.
type File struct {
	Reader   io.Reader
	Filename string
	Size     int64
}

// Asset is a stored binary as reported by the host.
type Asset struct {
	// URL is the direct delivery URL.
	URL          string
	PublicID     string
	Version      string
	ResourceType streamurl.ResourceType
	Bytes        int64
}

// Host stores and deletes binaries.
type Host interface {
	// Upload stores the file synchronously and returns once the asset is deliverable.
	Upload(ctx context.Context, resourceType streamurl.ResourceType, file File) (*Asset, error)
	// Destroy removes an asset.
	Destroy(ctx context.Context, publicID string, resourceType streamurl.ResourceType) error
}

var _ Host = Unconfigured{}

// Unconfigured is used when no credentials are set. Every call fails with ErrNotConfigured.
type Unconfigured struct{}

func (Unconfigured) Upload(context.Context, streamurl.ResourceType, File) (*Asset, error) {
	return nil, ErrNotConfigured
}

func (Unconfigured) Destroy(context.Context, string, streamurl.ResourceType) error {
	return ErrNotConfigured
}
