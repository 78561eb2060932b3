package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/jon4hz/indiflix/internal/database"
	"github.com/jon4hz/indiflix/internal/mediahost"
	"github.com/jon4hz/indiflix/internal/metadata"
	"github.com/jon4hz/indiflix/internal/streamurl"
	"github.com/samber/lo"
)

// UploadRequest is a media creation request. Nil files are absent.
type UploadRequest struct {
	Title       string
	Description string
	Type        string
	ReleaseYear string
	Genre       string
	// Season and Episode are zero when absent.
	Season  int
	Episode int
	// ExternalID skips the title search. ExternalType overrides the lookup kind.
	ExternalID   string
	ExternalType string
	PosterURL    string
	BackdropURL  string

	Video     *mediahost.File
	Thumbnail *mediahost.File
	Backdrop  *mediahost.File
}

// UploadResult is the persisted outcome of an upload.
type UploadResult struct {
	Media *database.Media
	// Episode is set when a series upload also created its first episode.
	Episode *database.Episode
	HLSURL  *string
}

// EpisodeUploadRequest adds an episode to an existing series or anime.
type EpisodeUploadRequest struct {
	MediaID     uint
	Season      int
	Episode     int
	Title       string
	Description string
	ExternalID  string

	Video     *mediahost.File
	Thumbnail *mediahost.File
}

// EpisodeUploadResult is the persisted outcome of an episode upload.
type EpisodeUploadResult struct {
	Episode *database.Episode
	HLSURL  *string
}

// uploadBatch tracks the assets stored by one request.
type uploadBatch struct {
	host   mediahost.Host
	assets []*mediahost.Asset
}

func (b *uploadBatch) upload(ctx context.Context, resourceType streamurl.ResourceType, file *mediahost.File) (*mediahost.Asset, error) {
	if file == nil {
		return nil, nil
	}
	asset, err := b.host.Upload(ctx, resourceType, *file)
	if err != nil {
		log.Error("failed to upload asset", "type", resourceType, "filename", file.Filename, "error", err)
		return nil, fmt.Errorf("%w: uploading %s: %w", ErrUpstream, resourceType, err)
	}
	b.assets = append(b.assets, asset)
	return asset, nil
}

func assetURL(a *mediahost.Asset) string {
	if a == nil {
		return ""
	}
	return a.URL
}

func validateUpload(req *UploadRequest) (database.MediaType, error) {
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		return "", validationError("title is required")
	}

	mediaType := database.MediaType(strings.ToLower(strings.TrimSpace(req.Type)))
	if mediaType == "" {
		mediaType = database.MediaTypeMovie
	}
	if !mediaType.Valid() {
		return "", validationError("invalid type %q", req.Type)
	}

	if req.Video == nil && !mediaType.Episodic() {
		return "", validationError("video file is required")
	}
	if req.Season < 0 || req.Episode < 0 {
		return "", validationError("season and episode must be positive")
	}
	return mediaType, nil
}

// Upload validates the request, stores the binaries, backfills missing fields from the
// metadata providers and persists the media entry. A series or anime without a video is
// created as a shell whose direct URL is its poster.
func (s *Service) Upload(ctx context.Context, req UploadRequest) (*UploadResult, error) {
	mediaType, err := validateUpload(&req)
	if err != nil {
		return nil, err
	}
	shell := req.Video == nil

	batch := &uploadBatch{host: s.host}
	video, err := batch.upload(ctx, streamurl.ResourceTypeVideo, req.Video)
	if err != nil {
		return nil, err
	}
	thumbnail, err := batch.upload(ctx, streamurl.ResourceTypeImage, req.Thumbnail)
	if err != nil {
		return nil, err
	}
	backdrop, err := batch.upload(ctx, streamurl.ResourceTypeImage, req.Backdrop)
	if err != nil {
		return nil, err
	}

	description := strings.TrimSpace(req.Description)
	genre := strings.TrimSpace(req.Genre)
	year := metadata.NormalizeYear(req.ReleaseYear)

	var rec *metadata.Record
	if description == "" || genre == "" || year == "" || req.ExternalID != "" {
		rec = s.enrichUpload(ctx, req, mediaType, year)
	}
	if rec == nil {
		rec = &metadata.Record{}
	}

	thumbnailURL := lo.CoalesceOrEmpty(assetURL(thumbnail), strings.TrimSpace(req.PosterURL), rec.PosterURL)
	media := &database.Media{
		Title:        req.Title,
		Description:  lo.CoalesceOrEmpty(description, rec.Overview),
		Type:         mediaType,
		ThumbnailURL: thumbnailURL,
		BackdropURL:  lo.CoalesceOrEmpty(assetURL(backdrop), strings.TrimSpace(req.BackdropURL), rec.BackdropURL),
		ReleaseYear:  lo.EmptyableToPtr(lo.CoalesceOrEmpty(year, metadata.NormalizeYear(rec.Year))),
		Genre:        lo.CoalesceOrEmpty(genre, rec.Genre),
	}

	var hls *string
	if shell {
		media.DirectURL = lo.EmptyableToPtr(thumbnailURL)
	} else {
		media.DirectURL = lo.ToPtr(video.URL)
		if manifest, ok := s.deriver.Derive(video.URL, video.PublicID, video.Version); ok {
			hls = &manifest
		}
	}

	if err := s.db.CreateMedia(ctx, media); err != nil {
		s.discard(ctx, batch.assets)
		return nil, storeError("create media", err)
	}
	log.Info("media created", "id", media.ID, "title", media.Title, "type", media.Type, "shell", shell)

	result := &UploadResult{Media: media, HLSURL: hls}

	if !shell && mediaType.Episodic() && req.Season > 0 && req.Episode > 0 {
		episode := &database.Episode{
			MediaID:      media.ID,
			Season:       req.Season,
			Number:       req.Episode,
			Title:        lo.CoalesceOrEmpty(rec.EpisodeTitle, fmt.Sprintf("Episode %d", req.Episode)),
			Description:  rec.EpisodeOverview,
			DirectURL:    video.URL,
			ThumbnailURL: lo.CoalesceOrEmpty(rec.EpisodeStillURL, thumbnailURL),
		}
		if err := s.db.CreateEpisode(ctx, episode); err != nil {
			if delErr := s.db.DeleteMedia(ctx, media.ID); delErr != nil {
				log.Error("failed to remove media after episode failure", "id", media.ID, "error", delErr)
			}
			s.discard(ctx, batch.assets)
			return nil, storeError("create episode", err)
		}
		result.Episode = episode
	}

	return result, nil
}

func (s *Service) enrichUpload(ctx context.Context, req UploadRequest, mediaType database.MediaType, year string) *metadata.Record {
	kind, _ := metadata.KindOf(string(mediaType))
	if req.ExternalType != "" {
		if k, ok := metadata.KindOf(req.ExternalType); ok {
			kind = k
		}
	}
	return s.enricher.Enrich(ctx, metadata.Query{
		Title:      req.Title,
		Kind:       kind,
		Year:       year,
		Season:     req.Season,
		Episode:    req.Episode,
		ExternalID: strings.TrimSpace(req.ExternalID),
	})
}

// UploadEpisode stores an episode of an existing series or anime.
func (s *Service) UploadEpisode(ctx context.Context, req EpisodeUploadRequest) (*EpisodeUploadResult, error) {
	switch {
	case req.MediaID == 0:
		return nil, validationError("media_id is required")
	case req.Season <= 0 || req.Episode <= 0:
		return nil, validationError("season and episode must be positive")
	case req.Video == nil:
		return nil, validationError("video file is required")
	}

	parent, err := s.db.GetMediaByID(ctx, req.MediaID)
	if err != nil {
		return nil, storeError("get media", err)
	}
	if !parent.Type.Episodic() {
		return nil, validationError("episodes can only be added to series or anime")
	}

	batch := &uploadBatch{host: s.host}
	video, err := batch.upload(ctx, streamurl.ResourceTypeVideo, req.Video)
	if err != nil {
		return nil, err
	}
	thumbnail, err := batch.upload(ctx, streamurl.ResourceTypeImage, req.Thumbnail)
	if err != nil {
		return nil, err
	}

	title := strings.TrimSpace(req.Title)
	description := strings.TrimSpace(req.Description)
	rec := &metadata.Record{}
	if title == "" || description == "" {
		if r := s.enricher.Enrich(ctx, metadata.Query{
			Title:      parent.Title,
			Kind:       metadata.KindSeries,
			Year:       lo.FromPtr(parent.ReleaseYear),
			Season:     req.Season,
			Episode:    req.Episode,
			ExternalID: strings.TrimSpace(req.ExternalID),
		}); r != nil {
			rec = r
		}
	}

	episode := &database.Episode{
		MediaID:      parent.ID,
		Season:       req.Season,
		Number:       req.Episode,
		Title:        lo.CoalesceOrEmpty(title, rec.EpisodeTitle, fmt.Sprintf("Episode %d", req.Episode)),
		Description:  lo.CoalesceOrEmpty(description, rec.EpisodeOverview),
		DirectURL:    video.URL,
		ThumbnailURL: lo.CoalesceOrEmpty(assetURL(thumbnail), rec.EpisodeStillURL),
	}

	var hls *string
	if manifest, ok := s.deriver.Derive(video.URL, video.PublicID, video.Version); ok {
		hls = &manifest
	}

	if err := s.db.CreateEpisode(ctx, episode); err != nil {
		s.discard(ctx, batch.assets)
		return nil, storeError("create episode", err)
	}
	log.Info("episode created", "id", episode.ID, "media_id", parent.ID, "season", episode.Season, "episode", episode.Number)

	return &EpisodeUploadResult{Episode: episode, HLSURL: hls}, nil
}

// discard removes assets stored by a request that failed to persist.
func (s *Service) discard(ctx context.Context, assets []*mediahost.Asset) {
	ctx = context.WithoutCancel(ctx)
	for _, a := range assets {
		if err := s.host.Destroy(ctx, a.PublicID, a.ResourceType); err != nil {
			log.Warn("failed to remove orphaned asset", "public_id", a.PublicID, "error", err)
		}
	}
}
