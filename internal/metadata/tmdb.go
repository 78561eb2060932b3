package metadata

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jon4hz/indiflix/pkg/tmdb"
	"github.com/samber/lo"
)

// TMDB adapts the TMDB client to the Provider interface.
type TMDB struct {
	client *tmdb.Client
}

var _ Provider = (*TMDB)(nil)

// NewTMDB creates a TMDB provider.
func NewTMDB(client *tmdb.Client) *TMDB {
	return &TMDB{client: client}
}

func (t *TMDB) Name() string { return "tmdb" }

func (t *TMDB) IsConfigured() bool {
	return t.client.IsConfigured()
}

func (t *TMDB) Search(ctx context.Context, kind Kind, query, year string) ([]Record, error) {
	if kind == KindSeries {
		shows, err := t.client.SearchTV(ctx, query, year)
		if err != nil {
			return nil, tmdbErr(err)
		}
		return lo.Map(shows, func(s tmdb.TV, _ int) Record { return t.tvRecord(&s) }), nil
	}

	movies, err := t.client.SearchMovies(ctx, query, year)
	if err != nil {
		return nil, tmdbErr(err)
	}
	return lo.Map(movies, func(m tmdb.Movie, _ int) Record { return t.movieRecord(&m) }), nil
}

func (t *TMDB) Details(ctx context.Context, id string, kind Kind) (*Record, error) {
	if kind == KindSeries {
		show, err := t.client.GetTV(ctx, id)
		if err != nil {
			return nil, tmdbErr(err)
		}
		rec := t.tvRecord(show)
		return &rec, nil
	}

	movie, err := t.client.GetMovie(ctx, id)
	if err != nil {
		return nil, tmdbErr(err)
	}
	rec := t.movieRecord(movie)
	return &rec, nil
}

func (t *TMDB) EpisodeDetails(ctx context.Context, parentID string, season, episode int) (*Episode, error) {
	ep, err := t.client.GetEpisode(ctx, parentID, season, episode)
	if err != nil {
		return nil, tmdbErr(err)
	}
	out := t.episode(ep)
	return &out, nil
}

func (t *TMDB) SeasonEpisodes(ctx context.Context, parentID string, season int) ([]Episode, error) {
	s, err := t.client.GetSeason(ctx, parentID, season)
	if err != nil {
		return nil, tmdbErr(err)
	}
	return lo.Map(s.Episodes, func(ep tmdb.Episode, _ int) Episode { return t.episode(&ep) }), nil
}

func (t *TMDB) movieRecord(m *tmdb.Movie) Record {
	return Record{
		ExternalID:  strconv.Itoa(m.ID),
		Title:       m.Title,
		Overview:    m.Overview,
		PosterURL:   t.client.ImageURL(m.PosterPath),
		BackdropURL: t.client.ImageURL(m.BackdropPath),
		Year:        NormalizeYear(m.ReleaseDate),
		Genre:       genreList(m.Genres),
		Source:      t.Name(),
	}
}

func (t *TMDB) tvRecord(s *tmdb.TV) Record {
	return Record{
		ExternalID:  strconv.Itoa(s.ID),
		Title:       s.Name,
		Overview:    s.Overview,
		PosterURL:   t.client.ImageURL(s.PosterPath),
		BackdropURL: t.client.ImageURL(s.BackdropPath),
		Year:        NormalizeYear(s.FirstAirDate),
		Genre:       genreList(s.Genres),
		Source:      t.Name(),
	}
}

func (t *TMDB) episode(ep *tmdb.Episode) Episode {
	return Episode{
		Season:   ep.SeasonNumber,
		Number:   ep.EpisodeNumber,
		Title:    ep.Name,
		Overview: ep.Overview,
		StillURL: t.client.ImageURL(ep.StillPath),
		AirDate:  ep.AirDate,
	}
}

func genreList(genres []tmdb.Genre) string {
	return strings.Join(lo.Map(genres, func(g tmdb.Genre, _ int) string { return g.Name }), ", ")
}

func tmdbErr(err error) error {
	if errors.Is(err, tmdb.ErrNotFound) {
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	return err
}
