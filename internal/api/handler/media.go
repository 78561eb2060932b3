package handler

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/jon4hz/indiflix/internal/api/models"
	"github.com/jon4hz/indiflix/internal/catalog"
	"github.com/jon4hz/indiflix/internal/mediahost"
)

// uploadFiles keeps the opened multipart parts of one request.
type uploadFiles struct {
	open []io.Closer
}

// get returns the named file part, or nil when the request has none.
func (u *uploadFiles) get(c *gin.Context, field string) (*mediahost.File, error) {
	fh, err := c.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return u.openPart(fh)
}

func (u *uploadFiles) openPart(fh *multipart.FileHeader) (*mediahost.File, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	u.open = append(u.open, f)
	return &mediahost.File{Reader: f, Filename: fh.Filename, Size: fh.Size}, nil
}

func (u *uploadFiles) Close() {
	for _, f := range u.open {
		_ = f.Close()
	}
}

func badForm(c *gin.Context, err error) {
	log.Debug("rejected multipart form", "error", err)
	c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid form data"})
}

// ListMedia returns a page of catalog entries.
func (h *Handler) ListMedia(c *gin.Context) {
	page, err := parseIntField(c.Query("page"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid page"})
		return
	}
	limit, err := parseIntField(c.Query("limit"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit"})
		return
	}

	views, err := h.catalog.ListMedia(c.Request.Context(), catalog.ListQuery{
		Type:  c.Query("type"),
		Query: strings.TrimSpace(c.Query("q")),
		Page:  page,
		Limit: limit,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.ToMediaList(views))
}

// GetMedia returns one catalog entry.
func (h *Handler) GetMedia(c *gin.Context) {
	id, err := parseUintParam(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid media ID"})
		return
	}

	view, err := h.catalog.GetMedia(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.ToMedia(*view))
}

// ListEpisodes returns the episodes of a series.
func (h *Handler) ListEpisodes(c *gin.Context) {
	id, err := parseUintParam(c.Query("media_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "media_id is required"})
		return
	}

	views, err := h.catalog.ListEpisodes(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.ToEpisodeList(views))
}

// Upload creates a catalog entry from a multipart form.
func (h *Handler) Upload(c *gin.Context) {
	files := &uploadFiles{}
	defer files.Close()

	req := catalog.UploadRequest{
		Title:        c.PostForm("title"),
		Description:  c.PostForm("description"),
		Type:         strings.ToLower(strings.TrimSpace(c.PostForm("type"))),
		ReleaseYear:  c.PostForm("release_year"),
		Genre:        c.PostForm("genre"),
		ExternalID:   strings.TrimSpace(c.PostForm("tmdb_id")),
		ExternalType: strings.ToLower(strings.TrimSpace(c.PostForm("tmdb_type"))),
		PosterURL:    strings.TrimSpace(c.PostForm("poster_url")),
		BackdropURL:  strings.TrimSpace(c.PostForm("backdrop_url")),
	}

	var err error
	if req.Season, err = parseIntField(c.PostForm("season")); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "season must be a number"})
		return
	}
	if req.Episode, err = parseIntField(c.PostForm("episode")); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "episode must be a number"})
		return
	}
	if req.Video, err = files.get(c, "file"); err != nil {
		badForm(c, err)
		return
	}
	if req.Thumbnail, err = files.get(c, "thumbnail"); err != nil {
		badForm(c, err)
		return
	}
	if req.Backdrop, err = files.get(c, "backdrop"); err != nil {
		badForm(c, err)
		return
	}

	result, err := h.catalog.Upload(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, models.ToUploadResponse(result))
}

// UploadEpisode adds an episode to an existing series.
func (h *Handler) UploadEpisode(c *gin.Context) {
	files := &uploadFiles{}
	defer files.Close()

	mediaID, err := parseUintParam(c.PostForm("media_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "media_id is required"})
		return
	}

	req := catalog.EpisodeUploadRequest{
		MediaID:     mediaID,
		Title:       c.PostForm("title"),
		Description: c.PostForm("description"),
		ExternalID:  strings.TrimSpace(c.PostForm("tmdb_tv_id")),
	}
	if req.Season, err = parseIntField(c.PostForm("season")); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "season must be a number"})
		return
	}
	if req.Episode, err = parseIntField(c.PostForm("episode")); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "episode must be a number"})
		return
	}
	if req.Video, err = files.get(c, "file"); err != nil {
		badForm(c, err)
		return
	}
	if req.Thumbnail, err = files.get(c, "thumbnail"); err != nil {
		badForm(c, err)
		return
	}

	result, err := h.catalog.UploadEpisode(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, models.ToEpisodeUploadResponse(result))
}

// SetBackdrop replaces the hero image of a catalog entry.
func (h *Handler) SetBackdrop(c *gin.Context) {
	files := &uploadFiles{}
	defer files.Close()

	id, err := parseUintParam(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid media ID"})
		return
	}
	image, err := files.get(c, "backdrop")
	if err != nil {
		badForm(c, err)
		return
	}

	view, err := h.catalog.SetBackdrop(c.Request.Context(), id, image, c.PostForm("backdrop_url"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.ToMedia(*view))
}

// DeleteMedia removes a catalog entry and its hosted files.
func (h *Handler) DeleteMedia(c *gin.Context) {
	id, err := parseUintParam(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid media ID"})
		return
	}

	if err := h.catalog.DeleteMedia(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Media deleted",
	})
}
