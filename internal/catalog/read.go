package catalog

import (
	"context"

	"github.com/jon4hz/indiflix/internal/database"
	"github.com/jon4hz/indiflix/internal/metadata"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultLimit is used when a listing does not ask for a page size.
	DefaultLimit = 50
	// MaxLimit caps the page size of a listing.
	MaxLimit = 100

	posterLookupConcurrency = 8
)

// MediaView is a media entry as returned to readers.
type MediaView struct {
	database.Media
	// HLSURL is nil when no manifest can be derived.
	HLSURL *string
	// Poster is the stored thumbnail or a looked up poster, nil when neither exists.
	Poster *string
}

// EpisodeView is an episode as returned to readers.
type EpisodeView struct {
	database.Episode
	HLSURL *string
}

// ListQuery is a paged listing request. Page starts at 1.
type ListQuery struct {
	Type  string
	Query string
	Page  int
	Limit int
}

func (q ListQuery) filter() database.MediaFilter {
	limit := q.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	limit = min(limit, MaxLimit)
	page := max(q.Page, 1)

	f := database.MediaFilter{
		Query:  q.Query,
		Limit:  limit,
		Offset: (page - 1) * limit,
	}
	// an unknown type is ignored rather than rejected
	if t := database.MediaType(q.Type); t.Valid() {
		f.Type = t
	}
	return f
}

// ListMedia returns a page of enriched media entries, newest first.
func (s *Service) ListMedia(ctx context.Context, q ListQuery) ([]MediaView, error) {
	rows, err := s.db.ListMedia(ctx, q.filter())
	if err != nil {
		return nil, storeError("list media", err)
	}
	return s.enrichRows(ctx, rows), nil
}

// GetMedia returns one enriched media entry.
func (s *Service) GetMedia(ctx context.Context, id uint) (*MediaView, error) {
	row, err := s.db.GetMediaByID(ctx, id)
	if err != nil {
		return nil, storeError("get media", err)
	}
	view := s.enrichRow(ctx, *row)
	return &view, nil
}

// ListEpisodes returns the episodes of a media entry ordered by season and number.
func (s *Service) ListEpisodes(ctx context.Context, mediaID uint) ([]EpisodeView, error) {
	episodes, err := s.db.ListEpisodes(ctx, mediaID)
	if err != nil {
		return nil, storeError("list episodes", err)
	}
	return lo.Map(episodes, func(ep database.Episode, _ int) EpisodeView {
		return EpisodeView{
			Episode: ep,
			HLSURL:  s.streamURL(&ep.DirectURL),
		}
	}), nil
}

// Watchlist returns the enriched watchlist of a user, newest first.
func (s *Service) Watchlist(ctx context.Context, userID uint) ([]MediaView, error) {
	rows, err := s.db.GetWatchlist(ctx, userID)
	if err != nil {
		return nil, storeError("get watchlist", err)
	}
	return s.enrichRows(ctx, rows), nil
}

func (s *Service) enrichRows(ctx context.Context, rows []database.Media) []MediaView {
	views := make([]MediaView, len(rows))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(posterLookupConcurrency)
	for i, row := range rows {
		g.Go(func() error {
			views[i] = s.enrichRow(gctx, row)
			return nil
		})
	}
	_ = g.Wait()
	return views
}

// enrichRow recomputes the manifest and fills a missing poster. It never fails.
func (s *Service) enrichRow(ctx context.Context, row database.Media) MediaView {
	view := MediaView{
		Media:  row,
		HLSURL: s.streamURL(row.DirectURL),
		Poster: lo.EmptyableToPtr(row.ThumbnailURL),
	}
	if view.Poster == nil {
		kind, _ := metadata.KindOf(string(row.Type))
		view.Poster = lo.EmptyableToPtr(s.enricher.LookupPoster(ctx, row.Title, lo.FromPtr(row.ReleaseYear), kind))
	}
	return view
}
