package mock

import (
	"context"
	"fmt"
	"io"
	"path"
	"sync"

	"github.com/jon4hz/indiflix/internal/mediahost"
	"github.com/jon4hz/indiflix/internal/streamurl"
)

var _ mediahost.Host = (*MockHost)(nil)

// Destroyed records a Destroy call.
type Destroyed struct {
	PublicID     string
	ResourceType streamurl.ResourceType
}

// MockHost is an in-memory mediahost.Host for tests.
type MockHost struct {
	mu sync.Mutex

	CloudName string
	Uploads   []mediahost.Asset
	Destroyed []Destroyed
	version   int

	// Error simulation
	UploadError      error
	UploadErrorAfter int // fail uploads after this many succeeded, 0 means fail every upload
	DestroyError     error
}

// NewMockHost creates a MockHost for the given cloud name.
func NewMockHost(cloudName string) *MockHost {
	return &MockHost{CloudName: cloudName, version: 1700000000}
}

func (m *MockHost) Upload(_ context.Context, resourceType streamurl.ResourceType, file mediahost.File) (*mediahost.Asset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.UploadError != nil && len(m.Uploads) >= m.UploadErrorAfter {
		return nil, m.UploadError
	}

	if file.Reader != nil {
		if _, err := io.Copy(io.Discard, file.Reader); err != nil {
			return nil, err
		}
	}

	m.version++
	ext := path.Ext(file.Filename)
	if ext == "" {
		ext = ".bin"
	}
	publicID := fmt.Sprintf("indiflix/%s-%d", resourceType, len(m.Uploads)+1)
	asset := mediahost.Asset{
		URL:          fmt.Sprintf("https://res.cloudinary.com/%s/%s/upload/v%d/%s%s", m.CloudName, resourceType, m.version, publicID, ext),
		PublicID:     publicID,
		Version:      fmt.Sprint(m.version),
		ResourceType: resourceType,
		Bytes:        file.Size,
	}
	m.Uploads = append(m.Uploads, asset)
	return &asset, nil
}

func (m *MockHost) Destroy(_ context.Context, publicID string, resourceType streamurl.ResourceType) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.DestroyError != nil {
		return m.DestroyError
	}
	m.Destroyed = append(m.Destroyed, Destroyed{PublicID: publicID, ResourceType: resourceType})
	return nil
}

// DestroyedIDs returns the public ids passed to Destroy.
func (m *MockHost) DestroyedIDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	ids := make([]string, 0, len(m.Destroyed))
	for _, d := range m.Destroyed {
		ids = append(ids, d.PublicID)
	}
	return ids
}
