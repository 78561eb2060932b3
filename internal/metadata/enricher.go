package metadata

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/jon4hz/indiflix/internal/cache"
)

// PosterEntry is the cached result of a poster lookup. An empty URL records a miss.
type PosterEntry struct {
	URL string `json:"url"`
}

// Enricher queries providers in order, falling back to the next one on failure.
type Enricher struct {
	providers []Provider
	posters   *cache.PrefixedCache[PosterEntry]
}

// NewEnricher creates an Enricher. Providers are tried in the given order. posters may be nil.
func NewEnricher(posters *cache.PrefixedCache[PosterEntry], providers ...Provider) *Enricher {
	return &Enricher{
		providers: providers,
		posters:   posters,
	}
}

func (e *Enricher) configured() []Provider {
	var out []Provider
	for _, p := range e.providers {
		if p != nil && p.IsConfigured() {
			out = append(out, p)
		}
	}
	return out
}

// IsConfigured reports whether at least one provider can be queried.
func (e *Enricher) IsConfigured() bool {
	return len(e.configured()) > 0
}

// Enrich resolves a record for q. It returns nil when no provider is configured,
// nothing matched, or every provider failed.
func (e *Enricher) Enrich(ctx context.Context, q Query) *Record {
	q.Title = strings.TrimSpace(q.Title)
	q.ExternalID = strings.TrimSpace(q.ExternalID)
	if q.Title == "" && q.ExternalID == "" {
		return nil
	}
	if q.Kind == "" {
		q.Kind = KindMovie
	}

	for _, p := range e.configured() {
		rec, err := e.enrichWith(ctx, p, q)
		if err != nil {
			log.Warn("metadata provider failed", "provider", p.Name(), "title", q.Title, "error", err)
			continue
		}
		if rec == nil {
			log.Debug("no metadata match", "provider", p.Name(), "title", q.Title, "year", q.Year)
		}
		return rec
	}
	return nil
}

func (e *Enricher) enrichWith(ctx context.Context, p Provider, q Query) (*Record, error) {
	var rec *Record

	if q.ExternalID != "" {
		detailed, err := p.Details(ctx, q.ExternalID, q.Kind)
		switch {
		case err == nil:
			rec = detailed
		case q.Title == "":
			return nil, err
		default:
			log.Debug("lookup by id failed, searching by title", "provider", p.Name(), "id", q.ExternalID, "error", err)
		}
	}

	if rec == nil {
		results, err := p.Search(ctx, q.Kind, q.Title, q.Year)
		if err != nil {
			return nil, err
		}
		if len(results) == 0 {
			return nil, nil
		}
		candidate := results[0]
		rec = &candidate

		if candidate.ExternalID != "" {
			detailed, err := p.Details(ctx, candidate.ExternalID, q.Kind)
			if err != nil {
				log.Debug("detail lookup failed, using search result", "provider", p.Name(), "id", candidate.ExternalID, "error", err)
			} else {
				detailed.fillFrom(&candidate)
				rec = detailed
			}
		}
	}

	if rec.Source == "" {
		rec.Source = p.Name()
	}

	if q.Kind == KindSeries && q.Season > 0 && q.Episode > 0 && rec.ExternalID != "" {
		ep, err := p.EpisodeDetails(ctx, rec.ExternalID, q.Season, q.Episode)
		if err != nil {
			log.Debug("episode lookup failed", "provider", p.Name(), "id", rec.ExternalID, "season", q.Season, "episode", q.Episode, "error", err)
		} else {
			rec.EpisodeTitle = ep.Title
			rec.EpisodeOverview = ep.Overview
			rec.EpisodeStillURL = ep.StillURL
		}
	}

	return rec, nil
}

// LookupPoster returns the poster of the first search hit, or "" when none is found.
// Results are cached, misses included, unless every provider failed.
func (e *Enricher) LookupPoster(ctx context.Context, title, year string, kind Kind) string {
	title = strings.TrimSpace(title)
	if title == "" {
		return ""
	}
	key := fmt.Sprintf("%s|%s|%s", kind, strings.ToLower(title), year)

	if e.posters != nil {
		if entry, err := e.posters.Get(ctx, key); err == nil {
			return entry.URL
		}
	}

	var (
		url      string
		answered bool
	)
	for _, p := range e.configured() {
		results, err := p.Search(ctx, kind, title, year)
		if err != nil {
			log.Debug("poster lookup failed", "provider", p.Name(), "title", title, "error", err)
			continue
		}
		answered = true
		if len(results) > 0 {
			url = results[0].PosterURL
		}
		break
	}

	if answered && e.posters != nil {
		if err := e.posters.Set(ctx, key, PosterEntry{URL: url}); err != nil {
			log.Warn("failed to cache poster", "title", title, "error", err)
		}
	}
	return url
}

// ClearCache drops all cached poster lookups.
func (e *Enricher) ClearCache(ctx context.Context) error {
	if e.posters == nil {
		return nil
	}
	return e.posters.Clear(ctx)
}

// Search returns the candidate list of the first provider that answers.
func (e *Enricher) Search(ctx context.Context, kind Kind, query, year string) ([]Record, error) {
	return firstAnswer(e, func(p Provider) ([]Record, error) {
		return p.Search(ctx, kind, query, year)
	})
}

// Details returns a normalized record by provider id.
func (e *Enricher) Details(ctx context.Context, id string, kind Kind) (*Record, error) {
	return firstAnswer(e, func(p Provider) (*Record, error) {
		return p.Details(ctx, id, kind)
	})
}

// EpisodeDetails returns a single episode of a series.
func (e *Enricher) EpisodeDetails(ctx context.Context, parentID string, season, episode int) (*Episode, error) {
	return firstAnswer(e, func(p Provider) (*Episode, error) {
		return p.EpisodeDetails(ctx, parentID, season, episode)
	})
}

// SeasonEpisodes returns the episodes of a season.
func (e *Enricher) SeasonEpisodes(ctx context.Context, parentID string, season int) ([]Episode, error) {
	return firstAnswer(e, func(p Provider) ([]Episode, error) {
		return p.SeasonEpisodes(ctx, parentID, season)
	})
}

func firstAnswer[T any](e *Enricher, call func(Provider) (T, error)) (T, error) {
	providers := e.configured()
	if len(providers) == 0 {
		return *new(T), ErrNotConfigured
	}

	var errs []error
	for _, p := range providers {
		v, err := call(p)
		if err == nil {
			return v, nil
		}
		errs = append(errs, fmt.Errorf("%s: %w", p.Name(), err))
	}
	return *new(T), errors.Join(errs...)
}
