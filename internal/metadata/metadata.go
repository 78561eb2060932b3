// Package metadata resolves descriptive data for catalog entries from external providers.
package metadata

import (
	"context"
	"errors"
	"regexp"
	"strings"
)

var (
	// ErrNotFound is returned when a provider has no record for a lookup.
	ErrNotFound = errors.New("metadata not found")
	// ErrNotConfigured is returned when no provider has credentials.
	ErrNotConfigured = errors.New("no metadata provider configured")
)

// Kind selects the provider endpoint family.
type Kind string

const (
	KindMovie  Kind = "movie"
	KindSeries Kind = "series"
)

// KindOf maps a media type to a provider kind. Anime shares the series endpoints.
func KindOf(mediaType string) (Kind, bool) {
	switch strings.ToLower(strings.TrimSpace(mediaType)) {
	case "movie":
		return KindMovie, true
	case "series", "anime", "tv":
		return KindSeries, true
	}
	return "", false
}

// Query describes what to enrich. Title or ExternalID must be set.
type Query struct {
	Title      string
	Kind       Kind
	Year       string
	Season     int
	Episode    int
	ExternalID string
}

// Record is a provider result normalized to one shape.
type Record struct {
	ExternalID  string `json:"id"`
	Title       string `json:"title"`
	Overview    string `json:"overview"`
	PosterURL   string `json:"poster"`
	BackdropURL string `json:"backdrop"`
	// Year is a four digit year or empty.
	Year  string `json:"year"`
	Genre string `json:"genres"`

	EpisodeTitle    string `json:"episode_title,omitempty"`
	EpisodeOverview string `json:"episode_overview,omitempty"`
	EpisodeStillURL string `json:"episode_still,omitempty"`

	// Source names the provider that produced the record.
	Source string `json:"source"`
}

// fillFrom copies fields that are empty on r from other.
func (r *Record) fillFrom(other *Record) {
	if other == nil {
		return
	}
	fill := func(dst *string, v string) {
		if *dst == "" {
			*dst = v
		}
	}
	fill(&r.ExternalID, other.ExternalID)
	fill(&r.Title, other.Title)
	fill(&r.Overview, other.Overview)
	fill(&r.PosterURL, other.PosterURL)
	fill(&r.BackdropURL, other.BackdropURL)
	fill(&r.Year, other.Year)
	fill(&r.Genre, other.Genre)
	fill(&r.Source, other.Source)
}

// Episode is a normalized episode record.
type Episode struct {
	Season   int    `json:"season"`
	Number   int    `json:"episode"`
	Title    string `json:"title"`
	Overview string `json:"overview"`
	StillURL string `json:"still"`
	AirDate  string `json:"air_date"`
}

// Provider is implemented by every metadata backend.
type Provider interface {
	Name() string
	// IsConfigured reports whether the provider has credentials.
	IsConfigured() bool
	Search(ctx context.Context, kind Kind, query, year string) ([]Record, error)
	Details(ctx context.Context, id string, kind Kind) (*Record, error)
	EpisodeDetails(ctx context.Context, parentID string, season, episode int) (*Episode, error)
	SeasonEpisodes(ctx context.Context, parentID string, season int) ([]Episode, error)
}

var yearPattern = regexp.MustCompile(`\d{4}`)

// NormalizeYear returns the first four digit run in s, or "" when there is none.
func NormalizeYear(s string) string {
	return yearPattern.FindString(s)
}
