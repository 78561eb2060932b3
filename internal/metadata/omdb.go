package metadata

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/jon4hz/indiflix/pkg/omdb"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
)

// omdbDetailConcurrency bounds the per-hit detail lookups of a search.
const omdbDetailConcurrency = 4

// OMDb adapts the OMDb client to the Provider interface.
type OMDb struct {
	client *omdb.Client
}

var _ Provider = (*OMDb)(nil)

// NewOMDb creates an OMDb provider.
func NewOMDb(client *omdb.Client) *OMDb {
	return &OMDb{client: client}
}

func (o *OMDb) Name() string { return "omdb" }

func (o *OMDb) IsConfigured() bool {
	return o.client.IsConfigured()
}

// Search returns the hits of an OMDb search. OMDb search results carry no plot or genre,
// so every hit is completed with a detail lookup.
func (o *OMDb) Search(ctx context.Context, kind Kind, query, year string) ([]Record, error) {
	typ := omdb.TypeMovie
	if kind == KindSeries {
		typ = omdb.TypeSeries
	}
	items, err := o.client.Search(ctx, query, typ, year)
	if err != nil {
		return nil, omdbErr(err)
	}

	records := make([]Record, len(items))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(omdbDetailConcurrency)
	for i, item := range items {
		records[i] = Record{
			ExternalID:  item.ImdbID,
			Title:       omdb.Clean(item.Title),
			PosterURL:   omdb.Clean(item.Poster),
			BackdropURL: omdb.Clean(item.Poster),
			Year:        NormalizeYear(item.Year),
			Source:      o.Name(),
		}
		g.Go(func() error {
			t, err := o.client.GetTitle(gctx, item.ImdbID)
			if err != nil {
				log.Debug("omdb detail lookup failed", "id", item.ImdbID, "error", err)
				return nil
			}
			detailed := o.titleRecord(t)
			detailed.fillFrom(&records[i])
			records[i] = detailed
			return nil
		})
	}
	_ = g.Wait()

	return records, nil
}

func (o *OMDb) Details(ctx context.Context, id string, _ Kind) (*Record, error) {
	t, err := o.client.GetTitle(ctx, id)
	if err != nil {
		return nil, omdbErr(err)
	}
	rec := o.titleRecord(t)
	return &rec, nil
}

func (o *OMDb) EpisodeDetails(ctx context.Context, parentID string, season, episode int) (*Episode, error) {
	t, err := o.client.GetEpisode(ctx, parentID, season, episode)
	if err != nil {
		return nil, omdbErr(err)
	}
	return &Episode{
		Season:   atoiOr(t.Season, season),
		Number:   atoiOr(t.Episode, episode),
		Title:    omdb.Clean(t.Title),
		Overview: omdb.Clean(t.Plot),
		StillURL: omdb.Clean(t.Poster),
		AirDate:  omdb.Clean(t.Released),
	}, nil
}

func (o *OMDb) SeasonEpisodes(ctx context.Context, parentID string, season int) ([]Episode, error) {
	s, err := o.client.GetSeason(ctx, parentID, season)
	if err != nil {
		return nil, omdbErr(err)
	}
	return lo.Map(s.Episodes, func(ep omdb.SeasonEpisode, _ int) Episode {
		return Episode{
			Season:  season,
			Number:  atoiOr(ep.Episode, 0),
			Title:   omdb.Clean(ep.Title),
			AirDate: omdb.Clean(ep.Released),
		}
	}), nil
}

func (o *OMDb) titleRecord(t *omdb.Title) Record {
	poster := omdb.Clean(t.Poster)
	return Record{
		ExternalID:  t.ImdbID,
		Title:       omdb.Clean(t.Title),
		Overview:    omdb.Clean(t.Plot),
		PosterURL:   poster,
		BackdropURL: poster,
		Year:        NormalizeYear(t.Year),
		Genre:       omdb.Clean(t.Genre),
		Source:      o.Name(),
	}
}

func atoiOr(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return n
}

func omdbErr(err error) error {
	if errors.Is(err, omdb.ErrNotFound) {
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	return err
}
