// Package handler contains the JSON handlers of the catalog API.
package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/ccoveille/go-safecast"
	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/jon4hz/indiflix/internal/api/cache"
	"github.com/jon4hz/indiflix/internal/catalog"
	"github.com/jon4hz/indiflix/internal/database"
	"github.com/jon4hz/indiflix/internal/metadata"
	"github.com/jon4hz/indiflix/internal/version"
)

// MetadataLookup is the provider sub-API exposed to the upload UI.
type MetadataLookup interface {
	IsConfigured() bool
	Search(ctx context.Context, kind metadata.Kind, query, year string) ([]metadata.Record, error)
	Details(ctx context.Context, id string, kind metadata.Kind) (*metadata.Record, error)
	EpisodeDetails(ctx context.Context, parentID string, season, episode int) (*metadata.Episode, error)
	SeasonEpisodes(ctx context.Context, parentID string, season int) ([]metadata.Episode, error)
	ClearCache(ctx context.Context) error
}

// Handler serves the catalog, engagement and metadata routes.
type Handler struct {
	catalog  *catalog.Service
	db       database.DB
	metadata MetadataLookup
	images   *cache.ImageCache
}

// New creates a Handler.
func New(svc *catalog.Service, db database.DB, lookup MetadataLookup, images *cache.ImageCache) *Handler {
	return &Handler{
		catalog:  svc,
		db:       db,
		metadata: lookup,
		images:   images,
	}
}

// respondError maps catalog errors to HTTP statuses.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, catalog.ErrValidation):
		msg := strings.TrimPrefix(err.Error(), catalog.ErrValidation.Error()+": ")
		c.JSON(http.StatusBadRequest, gin.H{"error": msg})
	case errors.Is(err, catalog.ErrNotFound), errors.Is(err, database.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Media not found"})
	case errors.Is(err, catalog.ErrUpstream):
		log.Error("media host request failed", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Media host unavailable"})
	default:
		log.Error("request failed", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

func parseUintParam(s string) (uint, error) {
	id, err := strconv.ParseUint(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, err
	}
	if id == 0 {
		return 0, errors.New("id must be positive")
	}
	return safecast.Convert[uint](id)
}

// parseIntField parses an optional integer form or query value. Empty is zero.
func parseIntField(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	return strconv.Atoi(s)
}

// Health reports liveness and the running version.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"version": version.Version,
	})
}

// ClearCache drops the cached poster lookups.
func (h *Handler) ClearCache(c *gin.Context) {
	if err := h.metadata.ClearCache(c.Request.Context()); err != nil {
		log.Error("failed to clear poster cache", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to clear cache"})
		return
	}
	log.Info("poster cache cleared")
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ImageProxy serves a resized, disk cached copy of a remote image.
func (h *Handler) ImageProxy(c *gin.Context) {
	imageURL := c.Query("url")
	if imageURL == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "url is required"})
		return
	}

	err := h.images.ServeImage(c.Request.Context(), imageURL, c.Writer, c.Request)
	switch {
	case err == nil:
	case errors.Is(err, cache.ErrInvalidURL):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid image url"})
	case errors.Is(err, cache.ErrHostNotAllowed):
		c.JSON(http.StatusForbidden, gin.H{"error": "Image host is not allowed"})
	default:
		log.Warn("failed to proxy image", "url", imageURL, "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to fetch image"})
	}
}
