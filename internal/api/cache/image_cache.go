// Package cache keeps resized copies of remote artwork on disk.
package cache

import (
	"context"
	"crypto/md5"
	"errors"
	"fmt"
	"image"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/ccoveille/go-safecast"
	"github.com/charmbracelet/log"
	"github.com/disintegration/imaging"
	"github.com/dustin/go-humanize"
	"github.com/jon4hz/indiflix/internal/config"
)

var (
	// ErrInvalidURL is returned for URLs that are not absolute http(s) URLs.
	ErrInvalidURL = errors.New("invalid image url")
	// ErrHostNotAllowed is returned for hosts outside the allow-list.
	ErrHostNotAllowed = errors.New("image host is not allowed")
)

// ImageCache downloads, scales and stores images.
type ImageCache struct {
	cacheDir     string
	client       *http.Client
	maxWidth     int
	maxHeight    int
	quality      int
	allowedHosts []string
}

// NewImageCache creates the cache directory and returns an ImageCache.
func NewImageCache(cfg *config.ImagesConfig) *ImageCache {
	if err := os.MkdirAll(cfg.CacheDir, 0o755); err != nil {
		log.Error("failed to create image cache directory", "dir", cfg.CacheDir, "error", err)
	}

	hosts := make([]string, 0, len(cfg.AllowedHosts))
	for _, h := range cfg.AllowedHosts {
		hosts = append(hosts, strings.ToLower(strings.TrimSpace(h)))
	}

	return &ImageCache{
		cacheDir:     cfg.CacheDir,
		maxWidth:     cfg.MaxWidth,
		maxHeight:    cfg.MaxHeight,
		quality:      cfg.Quality,
		allowedHosts: hosts,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// validate checks the scheme and host of imageURL.
func (ic *ImageCache) validate(imageURL string) error {
	u, err := url.Parse(imageURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ErrInvalidURL
	}
	if len(ic.allowedHosts) > 0 && !slices.Contains(ic.allowedHosts, strings.ToLower(u.Hostname())) {
		return fmt.Errorf("%w: %s", ErrHostNotAllowed, u.Hostname())
	}
	return nil
}

func (ic *ImageCache) cacheKey(imageURL string) string {
	return fmt.Sprintf("%x", md5.Sum([]byte(imageURL)))
}

// cacheFilePath keeps the original extension when it is a format we can encode.
func (ic *ImageCache) cacheFilePath(imageURL string) string {
	ext := ".jpg"
	if u, err := url.Parse(imageURL); err == nil {
		if e := strings.ToLower(path.Ext(u.Path)); e != "" {
			if _, err := imaging.FormatFromExtension(e); err == nil {
				ext = e
			}
		}
	}
	return filepath.Join(ic.cacheDir, ic.cacheKey(imageURL)+ext)
}

// CachedImagePath returns the local path for an image, downloading it if necessary.
func (ic *ImageCache) CachedImagePath(ctx context.Context, imageURL string) (string, error) {
	if err := ic.validate(imageURL); err != nil {
		return "", err
	}

	cacheFilePath := ic.cacheFilePath(imageURL)
	if _, err := os.Stat(cacheFilePath); err == nil {
		log.Debug("using cached image", "path", cacheFilePath)
		return cacheFilePath, nil
	}

	log.Debug("downloading image", "url", imageURL)
	return ic.downloadAndCache(ctx, imageURL, cacheFilePath)
}

func (ic *ImageCache) downloadAndCache(ctx context.Context, imageURL, cacheFilePath string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := ic.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to download image: HTTP %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "image/") {
		return "", fmt.Errorf("invalid content type: %s", ct)
	}

	img, err := imaging.Decode(resp.Body, imaging.AutoOrientation(true))
	if err != nil {
		return "", fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	newWidth, newHeight := ic.calculateScaledDimensions(width, height)
	if newWidth != width || newHeight != height {
		img = imaging.Resize(img, newWidth, newHeight, imaging.Lanczos)
		log.Debug("resized image", "url", imageURL, "from", fmt.Sprintf("%dx%d", width, height), "to", fmt.Sprintf("%dx%d", newWidth, newHeight))
	}

	tempFilePath := filepath.Join(filepath.Dir(cacheFilePath), "tmp_"+filepath.Base(cacheFilePath))
	defer os.Remove(tempFilePath) //nolint:errcheck

	if err := ic.saveImage(img, tempFilePath, cacheFilePath); err != nil {
		return "", fmt.Errorf("failed to save image: %w", err)
	}
	if err := os.Rename(tempFilePath, cacheFilePath); err != nil {
		return "", fmt.Errorf("failed to move temp file: %w", err)
	}

	if info, err := os.Stat(cacheFilePath); err == nil {
		size, _ := safecast.Convert[uint64](info.Size())
		log.Info("cached image", "url", imageURL, "size", humanize.Bytes(size))
	}
	return cacheFilePath, nil
}

func (ic *ImageCache) saveImage(img image.Image, tempPath, finalPath string) error {
	format, err := imaging.FormatFromFilename(finalPath)
	if err != nil {
		format = imaging.JPEG
	}

	f, err := os.Create(tempPath)
	if err != nil {
		return err
	}
	defer f.Close() //nolint:errcheck

	switch format {
	case imaging.JPEG:
		err = imaging.Encode(f, img, format, imaging.JPEGQuality(ic.quality))
	case imaging.PNG:
		err = imaging.Encode(f, img, format, imaging.PNGCompressionLevel(6))
	default:
		err = imaging.Encode(f, img, format)
	}
	if err != nil {
		return err
	}
	return f.Close()
}

// ServeImage writes the cached image for imageURL, downloading it first if needed.
func (ic *ImageCache) ServeImage(ctx context.Context, imageURL string, w http.ResponseWriter, r *http.Request) error {
	cacheFilePath, err := ic.CachedImagePath(ctx, imageURL)
	if err != nil {
		return err
	}

	file, err := os.Open(cacheFilePath)
	if err != nil {
		return fmt.Errorf("failed to open cached image: %w", err)
	}
	defer file.Close() //nolint:errcheck

	info, err := file.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat cached image: %w", err)
	}

	switch filepath.Ext(cacheFilePath) {
	case ".jpg", ".jpeg":
		w.Header().Set("Content-Type", "image/jpeg")
	case ".png":
		w.Header().Set("Content-Type", "image/png")
	case ".gif":
		w.Header().Set("Content-Type", "image/gif")
	default:
		w.Header().Set("Content-Type", "application/octet-stream")
	}
	w.Header().Set("Cache-Control", "public, max-age=86400")

	http.ServeContent(w, r, info.Name(), info.ModTime(), file)
	return nil
}

// CleanupOldImages removes cached images older than maxAge and returns how many were removed.
func (ic *ImageCache) CleanupOldImages(maxAge time.Duration) (int, error) {
	cutoff := time.Now().Add(-maxAge)
	removed := 0

	err := filepath.WalkDir(ic.cacheDir, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		if info.ModTime().Before(cutoff) {
			log.Debug("removing old cached image", "path", p)
			if err := os.Remove(p); err != nil {
				return err
			}
			removed++
		}
		return nil
	})
	return removed, err
}

// calculateScaledDimensions fits the image into the configured bounds keeping its aspect ratio.
func (ic *ImageCache) calculateScaledDimensions(width, height int) (int, int) {
	if (ic.maxWidth <= 0 || width <= ic.maxWidth) && (ic.maxHeight <= 0 || height <= ic.maxHeight) {
		return width, height
	}

	ratio := 1.0
	if ic.maxWidth > 0 {
		ratio = min(ratio, float64(ic.maxWidth)/float64(width))
	}
	if ic.maxHeight > 0 {
		ratio = min(ratio, float64(ic.maxHeight)/float64(height))
	}

	return max(int(float64(width)*ratio), 1), max(int(float64(height)*ratio), 1)
}
