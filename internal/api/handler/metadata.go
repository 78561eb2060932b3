package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/jon4hz/indiflix/internal/api/models"
	"github.com/jon4hz/indiflix/internal/metadata"
	"github.com/samber/lo"
)

func kindParam(c *gin.Context) metadata.Kind {
	kind, ok := metadata.KindOf(strings.ToLower(c.DefaultQuery("type", "movie")))
	if !ok {
		return metadata.KindMovie
	}
	return kind
}

// metadataReady answers 503 when no provider has an API key.
func (h *Handler) metadataReady(c *gin.Context) bool {
	if !h.metadata.IsConfigured() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "No metadata provider configured"})
		return false
	}
	return true
}

func respondMetadataError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, metadata.ErrNotConfigured):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "No metadata provider configured"})
	case errors.Is(err, metadata.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	default:
		log.Warn("metadata lookup failed", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Metadata providers unavailable"})
	}
}

// SearchMetadata returns provider candidates for a title.
func (h *Handler) SearchMetadata(c *gin.Context) {
	query := strings.TrimSpace(c.Query("query"))
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query is required"})
		return
	}
	if !h.metadataReady(c) {
		return
	}

	results, err := h.metadata.Search(c.Request.Context(), kindParam(c), query, metadata.NormalizeYear(c.Query("year")))
	if err != nil {
		respondMetadataError(c, err)
		return
	}
	c.JSON(http.StatusOK, lo.Ternary(results == nil, []metadata.Record{}, results))
}

// MetadataDetails returns a normalized record by provider id.
func (h *Handler) MetadataDetails(c *gin.Context) {
	id := strings.TrimSpace(c.Query("id"))
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id is required"})
		return
	}
	if !h.metadataReady(c) {
		return
	}

	record, err := h.metadata.Details(c.Request.Context(), id, kindParam(c))
	if err != nil {
		respondMetadataError(c, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

// MetadataEpisode returns a single episode of a series.
func (h *Handler) MetadataEpisode(c *gin.Context) {
	tvID := strings.TrimSpace(c.Query("tv_id"))
	// season 0 holds the specials
	season, serr := parseIntField(c.Query("season"))
	episode, eerr := parseIntField(c.Query("episode"))
	if tvID == "" || c.Query("season") == "" || serr != nil || eerr != nil || season < 0 || episode < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "tv_id, season and episode are required"})
		return
	}
	if !h.metadataReady(c) {
		return
	}

	ep, err := h.metadata.EpisodeDetails(c.Request.Context(), tvID, season, episode)
	if err != nil {
		respondMetadataError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.ToEpisodeInfo(*ep))
}

// MetadataSeason returns the episode list of a season.
func (h *Handler) MetadataSeason(c *gin.Context) {
	tvID := strings.TrimSpace(c.Query("tv_id"))
	season, err := parseIntField(c.Query("season"))
	if tvID == "" || c.Query("season") == "" || err != nil || season < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "tv_id and season are required"})
		return
	}
	if !h.metadataReady(c) {
		return
	}

	episodes, err := h.metadata.SeasonEpisodes(c.Request.Context(), tvID, season)
	if err != nil {
		respondMetadataError(c, err)
		return
	}
	c.JSON(http.StatusOK, lo.Map(episodes, func(ep metadata.Episode, _ int) models.EpisodeInfo {
		return models.ToEpisodeInfo(ep)
	}))
}
