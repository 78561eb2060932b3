package metadata_test

import (
	"context"
	"errors"
	"testing"

	"github.com/jon4hz/indiflix/internal/cache"
	"github.com/jon4hz/indiflix/internal/config"
	"github.com/jon4hz/indiflix/internal/metadata"
	"github.com/jon4hz/indiflix/internal/metadata/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func arrival(source string) metadata.Record {
	return metadata.Record{
		ExternalID:  "329865",
		Title:       "Arrival",
		Overview:    "A linguist works with the military.",
		PosterURL:   "https://image.tmdb.org/t/p/w780/arrival.jpg",
		BackdropURL: "https://image.tmdb.org/t/p/w780/arrival-bg.jpg",
		Year:        "2016",
		Genre:       "Drama, Science Fiction",
		Source:      source,
	}
}

func TestEnrichUsesPrimary(t *testing.T) {
	primary := mock.NewMockProvider("tmdb")
	primary.AddTitle(arrival("tmdb"))
	secondary := mock.NewMockProvider("omdb")

	e := metadata.NewEnricher(nil, primary, secondary)
	rec := e.Enrich(context.Background(), metadata.Query{Title: "Arrival", Kind: metadata.KindMovie})

	require.NotNil(t, rec)
	assert.Equal(t, "tmdb", rec.Source)
	assert.Equal(t, "2016", rec.Year)
	assert.Equal(t, 0, secondary.SearchCalls)
}

func TestEnrichFallsBackOnProviderFailure(t *testing.T) {
	primary := mock.NewMockProvider("tmdb")
	primary.SearchError = errors.New("API request failed with status 500: boom")
	secondary := mock.NewMockProvider("omdb")
	secondary.AddTitle(arrival("omdb"))

	e := metadata.NewEnricher(nil, primary, secondary)
	rec := e.Enrich(context.Background(), metadata.Query{Title: "Arrival", Kind: metadata.KindMovie})

	require.NotNil(t, rec)
	assert.Equal(t, "omdb", rec.Source)
}

func TestEnrichNoMatchDoesNotFallBack(t *testing.T) {
	primary := mock.NewMockProvider("tmdb")
	secondary := mock.NewMockProvider("omdb")
	secondary.AddTitle(arrival("omdb"))

	e := metadata.NewEnricher(nil, primary, secondary)
	rec := e.Enrich(context.Background(), metadata.Query{Title: "Arrival", Kind: metadata.KindMovie})

	assert.Nil(t, rec)
	assert.Equal(t, 0, secondary.SearchCalls)
}

func TestEnrichSkipsUnconfigured(t *testing.T) {
	primary := mock.NewMockProvider("tmdb")
	primary.Configured = false
	primary.AddTitle(arrival("tmdb"))
	secondary := mock.NewMockProvider("omdb")
	secondary.AddTitle(arrival("omdb"))

	e := metadata.NewEnricher(nil, primary, secondary)
	rec := e.Enrich(context.Background(), metadata.Query{Title: "Arrival"})

	require.NotNil(t, rec)
	assert.Equal(t, "omdb", rec.Source)
	assert.Equal(t, 0, primary.SearchCalls)
}

func TestEnrichWithoutProviders(t *testing.T) {
	e := metadata.NewEnricher(nil)
	assert.False(t, e.IsConfigured())
	assert.Nil(t, e.Enrich(context.Background(), metadata.Query{Title: "Arrival"}))
}

func TestEnrichAllProvidersFail(t *testing.T) {
	primary := mock.NewMockProvider("tmdb")
	primary.SearchError = errors.New("down")
	secondary := mock.NewMockProvider("omdb")
	secondary.SearchError = errors.New("down")

	e := metadata.NewEnricher(nil, primary, secondary)
	assert.Nil(t, e.Enrich(context.Background(), metadata.Query{Title: "Arrival"}))
}

func TestEnrichBlankQuery(t *testing.T) {
	primary := mock.NewMockProvider("tmdb")
	e := metadata.NewEnricher(nil, primary)

	assert.Nil(t, e.Enrich(context.Background(), metadata.Query{Title: "   "}))
	assert.Equal(t, 0, primary.SearchCalls)
}

func TestEnrichMergesSearchResultIntoDetails(t *testing.T) {
	primary := mock.NewMockProvider("tmdb")
	hit := arrival("tmdb")
	primary.SearchResults["arrival"] = []metadata.Record{hit}
	primary.Records[hit.ExternalID] = &metadata.Record{ExternalID: hit.ExternalID, Title: "Arrival", Genre: "Drama"}

	e := metadata.NewEnricher(nil, primary)
	rec := e.Enrich(context.Background(), metadata.Query{Title: "Arrival"})

	require.NotNil(t, rec)
	assert.Equal(t, "Drama", rec.Genre)
	assert.Equal(t, hit.PosterURL, rec.PosterURL)
	assert.Equal(t, hit.Overview, rec.Overview)
}

func TestEnrichByExternalID(t *testing.T) {
	primary := mock.NewMockProvider("tmdb")
	primary.Records["1396"] = &metadata.Record{ExternalID: "1396", Title: "Breaking Bad", Year: "2008"}
	primary.AddEpisode("1396", metadata.Episode{Season: 1, Number: 2, Title: "Cat's in the Bag...", StillURL: "https://image.tmdb.org/s.jpg"})

	e := metadata.NewEnricher(nil, primary)
	rec := e.Enrich(context.Background(), metadata.Query{
		ExternalID: "1396",
		Kind:       metadata.KindSeries,
		Season:     1,
		Episode:    2,
	})

	require.NotNil(t, rec)
	assert.Equal(t, "Breaking Bad", rec.Title)
	assert.Equal(t, "Cat's in the Bag...", rec.EpisodeTitle)
	assert.Equal(t, "https://image.tmdb.org/s.jpg", rec.EpisodeStillURL)
	assert.Equal(t, 0, primary.SearchCalls)
}

func TestEnrichExternalIDFallsBackToTitle(t *testing.T) {
	primary := mock.NewMockProvider("tmdb")
	primary.AddTitle(arrival("tmdb"))

	e := metadata.NewEnricher(nil, primary)
	rec := e.Enrich(context.Background(), metadata.Query{ExternalID: "missing", Title: "Arrival"})

	require.NotNil(t, rec)
	assert.Equal(t, "329865", rec.ExternalID)
}

func TestEnrichMissingEpisodeKeepsSeries(t *testing.T) {
	primary := mock.NewMockProvider("tmdb")
	primary.AddTitle(metadata.Record{ExternalID: "1", Title: "Show", Year: "2020"})

	e := metadata.NewEnricher(nil, primary)
	rec := e.Enrich(context.Background(), metadata.Query{Title: "Show", Kind: metadata.KindSeries, Season: 9, Episode: 9})

	require.NotNil(t, rec)
	assert.Equal(t, "Show", rec.Title)
	assert.Empty(t, rec.EpisodeTitle)
}

func TestLookupPosterIsCached(t *testing.T) {
	ctx := context.Background()
	primary := mock.NewMockProvider("tmdb")
	primary.AddTitle(arrival("tmdb"))
	posters := cache.New[metadata.PosterEntry](&config.CacheConfig{Type: config.CacheTypeMemory}, "posters-", 0)

	e := metadata.NewEnricher(posters, primary)

	first := e.LookupPoster(ctx, "Arrival", "", metadata.KindMovie)
	second := e.LookupPoster(ctx, "arrival", "", metadata.KindMovie)
	assert.Equal(t, "https://image.tmdb.org/t/p/w780/arrival.jpg", first)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, primary.SearchCalls)

	miss := e.LookupPoster(ctx, "Nothing", "", metadata.KindMovie)
	assert.Empty(t, miss)
	_ = e.LookupPoster(ctx, "Nothing", "", metadata.KindMovie)
	assert.Equal(t, 2, primary.SearchCalls)

	require.NoError(t, e.ClearCache(ctx))
	_ = e.LookupPoster(ctx, "Arrival", "", metadata.KindMovie)
	assert.Equal(t, 3, primary.SearchCalls)
}

func TestLookupPosterDoesNotCacheFailures(t *testing.T) {
	ctx := context.Background()
	primary := mock.NewMockProvider("tmdb")
	primary.SearchError = errors.New("down")
	posters := cache.New[metadata.PosterEntry](&config.CacheConfig{Type: config.CacheTypeMemory}, "posters-", 0)

	e := metadata.NewEnricher(posters, primary)
	assert.Empty(t, e.LookupPoster(ctx, "Arrival", "", metadata.KindMovie))

	primary.SearchError = nil
	primary.AddTitle(arrival("tmdb"))
	assert.NotEmpty(t, e.LookupPoster(ctx, "Arrival", "", metadata.KindMovie))
}

func TestProxyLookups(t *testing.T) {
	ctx := context.Background()

	_, err := metadata.NewEnricher(nil).Search(ctx, metadata.KindMovie, "x", "")
	require.ErrorIs(t, err, metadata.ErrNotConfigured)

	primary := mock.NewMockProvider("tmdb")
	primary.DetailsError = errors.New("down")
	secondary := mock.NewMockProvider("omdb")
	secondary.Records["tt2543164"] = &metadata.Record{ExternalID: "tt2543164", Title: "Arrival"}

	e := metadata.NewEnricher(nil, primary, secondary)
	rec, err := e.Details(ctx, "tt2543164", metadata.KindMovie)
	require.NoError(t, err)
	assert.Equal(t, "Arrival", rec.Title)

	_, err = e.EpisodeDetails(ctx, "tt2543164", 1, 1)
	assert.ErrorIs(t, err, metadata.ErrNotFound)

	secondary.AddEpisode("tt0903747", metadata.Episode{Season: 1, Number: 1, Title: "Pilot"})
	eps, err := e.SeasonEpisodes(ctx, "tt0903747", 1)
	require.NoError(t, err)
	require.Len(t, eps, 1)
	assert.Equal(t, "Pilot", eps[0].Title)
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		in   string
		want metadata.Kind
		ok   bool
	}{
		{"movie", metadata.KindMovie, true},
		{"Series", metadata.KindSeries, true},
		{"anime", metadata.KindSeries, true},
		{"documentary", "", false},
	}
	for _, tt := range tests {
		got, ok := metadata.KindOf(tt.in)
		assert.Equal(t, tt.want, got, tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
	}
}

func TestNormalizeYear(t *testing.T) {
	assert.Equal(t, "2020", metadata.NormalizeYear("2020-05-01"))
	assert.Equal(t, "2008", metadata.NormalizeYear("2008–2013"))
	assert.Equal(t, "", metadata.NormalizeYear("unknown"))
	assert.Equal(t, "", metadata.NormalizeYear(""))
}
