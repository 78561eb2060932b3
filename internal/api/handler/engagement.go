package handler

import (
	"errors"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"github.com/jon4hz/indiflix/internal/api/auth"
	"github.com/jon4hz/indiflix/internal/api/models"
	"github.com/jon4hz/indiflix/internal/database"
)

const maxCommentLength = 2000

type rateRequest struct {
	MediaID uint `json:"media_id"`
	Rating  int  `json:"rating"`
}

type watchlistRequest struct {
	MediaID uint `json:"media_id"`
}

type commentRequest struct {
	MediaID uint   `json:"media_id"`
	Text    string `json:"text"`
}

// mediaExists writes the error response itself and reports whether the handler may continue.
func (h *Handler) mediaExists(c *gin.Context, id uint) bool {
	if id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "media_id is required"})
		return false
	}
	_, err := h.db.GetMediaByID(c.Request.Context(), id)
	switch {
	case err == nil:
		return true
	case errors.Is(err, database.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Media not found"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
	}
	return false
}

func mustUser(c *gin.Context) *database.User {
	user, _ := auth.CurrentUser(c)
	return user
}

// Rate stores the caller's rating of a media entry.
func (h *Handler) Rate(c *gin.Context) {
	var req rateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if req.Rating < 1 || req.Rating > 5 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "rating must be between 1 and 5"})
		return
	}
	if !h.mediaExists(c, req.MediaID) {
		return
	}

	user := mustUser(c)
	if err := h.db.UpsertRating(c.Request.Context(), &database.Rating{
		UserID:  user.ID,
		MediaID: req.MediaID,
		Rating:  req.Rating,
	}); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save rating"})
		return
	}

	h.respondRating(c, req.MediaID, user.ID)
}

// GetRating returns the rating summary of a media entry.
func (h *Handler) GetRating(c *gin.Context) {
	id, err := parseUintParam(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid media ID"})
		return
	}
	h.respondRating(c, id, mustUser(c).ID)
}

func (h *Handler) respondRating(c *gin.Context, mediaID, userID uint) {
	summary, err := h.db.GetRatingSummary(c.Request.Context(), mediaID, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load rating"})
		return
	}
	c.JSON(http.StatusOK, models.ToRatingSummary(summary))
}

// AddToWatchlist saves a media entry for the caller.
func (h *Handler) AddToWatchlist(c *gin.Context) {
	var req watchlistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if !h.mediaExists(c, req.MediaID) {
		return
	}

	added, err := h.db.AddToWatchlist(c.Request.Context(), mustUser(c).ID, req.MediaID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update watchlist"})
		return
	}
	if !added {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Already in watchlist"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true})
}

// Watchlist returns the caller's saved media entries.
func (h *Handler) Watchlist(c *gin.Context) {
	views, err := h.catalog.Watchlist(c.Request.Context(), mustUser(c).ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.ToMediaList(views))
}

// RemoveFromWatchlist drops a media entry from the caller's watchlist.
func (h *Handler) RemoveFromWatchlist(c *gin.Context) {
	id, err := parseUintParam(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid media ID"})
		return
	}

	removed, err := h.db.RemoveFromWatchlist(c.Request.Context(), mustUser(c).ID, id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update watchlist"})
		return
	}
	if !removed {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not in watchlist"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// AddComment stores a comment by the caller.
func (h *Handler) AddComment(c *gin.Context) {
	var req commentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	req.Text = strings.TrimSpace(req.Text)
	if req.Text == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "text is required"})
		return
	}
	if utf8.RuneCountInString(req.Text) > maxCommentLength {
		c.JSON(http.StatusBadRequest, gin.H{"error": "comment must be at most 2000 characters"})
		return
	}
	if !h.mediaExists(c, req.MediaID) {
		return
	}

	user := mustUser(c)
	comment := &database.Comment{UserID: user.ID, MediaID: req.MediaID, Text: req.Text}
	if err := h.db.CreateComment(c.Request.Context(), comment); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save comment"})
		return
	}
	comment.User = *user

	c.JSON(http.StatusCreated, models.ToComments([]database.Comment{*comment})[0])
}

// Comments returns the comments of a media entry, newest first.
func (h *Handler) Comments(c *gin.Context) {
	id, err := parseUintParam(c.Query("media_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "media_id is required"})
		return
	}

	comments, err := h.db.ListComments(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load comments"})
		return
	}
	c.JSON(http.StatusOK, models.ToComments(comments))
}
