package mock

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/jon4hz/indiflix/internal/metadata"
)

// MockProvider is an in-memory metadata provider for testing.
type MockProvider struct {
	mu sync.Mutex

	ProviderName string
	Configured   bool

	// SearchResults is keyed by lowercased query.
	SearchResults map[string][]metadata.Record
	// Records is keyed by external id.
	Records map[string]*metadata.Record
	// Episodes is keyed by "<id>/<season>/<episode>".
	Episodes map[string]*metadata.Episode
	// Seasons is keyed by "<id>/<season>".
	Seasons map[string][]metadata.Episode

	SearchError  error
	DetailsError error
	EpisodeError error

	SearchCalls  int
	DetailsCalls int
}

var _ metadata.Provider = (*MockProvider)(nil)

// NewMockProvider creates a configured provider without any data.
func NewMockProvider(name string) *MockProvider {
	return &MockProvider{
		ProviderName:  name,
		Configured:    true,
		SearchResults: make(map[string][]metadata.Record),
		Records:       make(map[string]*metadata.Record),
		Episodes:      make(map[string]*metadata.Episode),
		Seasons:       make(map[string][]metadata.Episode),
	}
}

// AddTitle registers rec as the only search hit for its title and as a detail record.
func (m *MockProvider) AddTitle(rec metadata.Record) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if rec.Source == "" {
		rec.Source = m.ProviderName
	}
	key := strings.ToLower(rec.Title)
	m.SearchResults[key] = append(m.SearchResults[key], rec)
	if rec.ExternalID != "" {
		detail := rec
		m.Records[rec.ExternalID] = &detail
	}
}

// AddEpisode registers an episode of the series with the given id.
func (m *MockProvider) AddEpisode(parentID string, ep metadata.Episode) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Episodes[fmt.Sprintf("%s/%d/%d", parentID, ep.Season, ep.Number)] = &ep
	seasonKey := fmt.Sprintf("%s/%d", parentID, ep.Season)
	m.Seasons[seasonKey] = append(m.Seasons[seasonKey], ep)
}

func (m *MockProvider) Name() string { return m.ProviderName }

func (m *MockProvider) IsConfigured() bool { return m.Configured }

func (m *MockProvider) Search(_ context.Context, _ metadata.Kind, query, _ string) ([]metadata.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SearchCalls++
	if m.SearchError != nil {
		return nil, m.SearchError
	}
	results := m.SearchResults[strings.ToLower(strings.TrimSpace(query))]
	return append([]metadata.Record(nil), results...), nil
}

func (m *MockProvider) Details(_ context.Context, id string, _ metadata.Kind) (*metadata.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DetailsCalls++
	if m.DetailsError != nil {
		return nil, m.DetailsError
	}
	rec, ok := m.Records[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", metadata.ErrNotFound, id)
	}
	out := *rec
	return &out, nil
}

func (m *MockProvider) EpisodeDetails(_ context.Context, parentID string, season, episode int) (*metadata.Episode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.EpisodeError != nil {
		return nil, m.EpisodeError
	}
	ep, ok := m.Episodes[fmt.Sprintf("%s/%d/%d", parentID, season, episode)]
	if !ok {
		return nil, metadata.ErrNotFound
	}
	out := *ep
	return &out, nil
}

func (m *MockProvider) SeasonEpisodes(_ context.Context, parentID string, season int) ([]metadata.Episode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.EpisodeError != nil {
		return nil, m.EpisodeError
	}
	eps, ok := m.Seasons[fmt.Sprintf("%s/%d", parentID, season)]
	if !ok {
		return nil, metadata.ErrNotFound
	}
	return append([]metadata.Episode(nil), eps...), nil
}
