// Package cloudinary implements mediahost.Host on top of the Cloudinary upload API.
package cloudinary

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/ccoveille/go-safecast"
	"github.com/charmbracelet/log"
	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/jon4hz/indiflix/internal/config"
	"github.com/jon4hz/indiflix/internal/mediahost"
	"github.com/jon4hz/indiflix/internal/streamurl"
)

var _ mediahost.Host = (*Client)(nil)

// assetAPI is the subset of the SDK upload API used here.
type assetAPI interface {
	Upload(ctx context.Context, file interface{}, uploadParams uploader.UploadParams) (*uploader.UploadResult, error)
	Destroy(ctx context.Context, params uploader.DestroyParams) (*uploader.DestroyResult, error)
}

// Client uploads to a single Cloudinary account.
type Client struct {
	api    assetAPI
	folder string
}

// New creates a Cloudinary backed host.
func New(cfg *config.CloudinaryConfig) (*Client, error) {
	if !cfg.Configured() {
		return nil, mediahost.ErrNotConfigured
	}
	cld, err := cloudinary.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	if err != nil {
		return nil, fmt.Errorf("failed to create cloudinary client: %w", err)
	}
	return &Client{api: &cld.Upload, folder: cfg.Folder}, nil
}

// Upload stores a file under a random public id inside the configured folder.
func (c *Client) Upload(ctx context.Context, resourceType streamurl.ResourceType, file mediahost.File) (*mediahost.Asset, error) {
	if file.Reader == nil {
		return nil, errors.New("no file to upload")
	}

	params := uploader.UploadParams{
		PublicID:       uuid.NewString(),
		Folder:         c.folder,
		ResourceType:   string(resourceType),
		Overwrite:      api.Bool(false),
		UniqueFilename: api.Bool(false),
	}

	log.Debug("uploading asset", "type", resourceType, "filename", file.Filename, "size", sizeOf(file.Size))

	res, err := c.api.Upload(ctx, file.Reader, params)
	if err != nil {
		return nil, fmt.Errorf("failed to upload %s: %w", resourceType, err)
	}
	if res.Error.Message != "" {
		return nil, fmt.Errorf("cloudinary rejected %s upload: %s", resourceType, res.Error.Message)
	}
	if res.SecureURL == "" {
		return nil, fmt.Errorf("cloudinary returned no URL for %s upload", resourceType)
	}

	asset := &mediahost.Asset{
		URL:          res.SecureURL,
		PublicID:     res.PublicID,
		ResourceType: resourceType,
		Bytes:        int64(res.Bytes),
	}
	if res.Version > 0 {
		asset.Version = strconv.Itoa(res.Version)
	}

	log.Info("uploaded asset", "type", resourceType, "public_id", asset.PublicID, "size", sizeOf(asset.Bytes))
	return asset, nil
}

// Destroy deletes an asset. A missing asset is not an error.
func (c *Client) Destroy(ctx context.Context, publicID string, resourceType streamurl.ResourceType) error {
	res, err := c.api.Destroy(ctx, uploader.DestroyParams{
		PublicID:     publicID,
		ResourceType: string(resourceType),
		Invalidate:   api.Bool(true),
	})
	if err != nil {
		return fmt.Errorf("failed to destroy %s %s: %w", resourceType, publicID, err)
	}
	if res.Error.Message != "" {
		return fmt.Errorf("cloudinary rejected destroy of %s: %s", publicID, res.Error.Message)
	}
	if res.Result != "ok" && res.Result != "not found" {
		return fmt.Errorf("unexpected destroy result for %s: %s", publicID, res.Result)
	}
	log.Info("destroyed asset", "type", resourceType, "public_id", publicID, "result", res.Result)
	return nil
}

func sizeOf(n int64) string {
	size, err := safecast.Convert[uint64](n)
	if err != nil {
		return "unknown"
	}
	return humanize.Bytes(size)
}
