package metadata_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jon4hz/indiflix/internal/config"
	"github.com/jon4hz/indiflix/internal/metadata"
	"github.com/jon4hz/indiflix/pkg/omdb"
	"github.com/jon4hz/indiflix/pkg/tmdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTMDB(t *testing.T, handler http.HandlerFunc) *metadata.TMDB {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return metadata.NewTMDB(tmdb.New(&config.TMDBConfig{
		APIKey:   "key",
		URL:      server.URL,
		ImageURL: "https://image.tmdb.org/t/p/w780",
	}))
}

func newOMDb(t *testing.T, handler http.HandlerFunc) *metadata.OMDb {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return metadata.NewOMDb(omdb.New(&config.OMDBConfig{
		APIKey: "key",
		URL:    server.URL,
	}))
}

func TestTMDBProvider(t *testing.T) {
	p := newTMDB(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/search/tv":
			fmt.Fprint(w, `{"results":[{"id":1396,"name":"Breaking Bad","overview":"Chemistry","poster_path":"/p.jpg","backdrop_path":"/b.jpg","first_air_date":"2008-01-20"}]}`)
		case "/tv/1396":
			fmt.Fprint(w, `{"id":1396,"name":"Breaking Bad","first_air_date":"2008-01-20","genres":[{"id":18,"name":"Drama"},{"id":80,"name":"Crime"}]}`)
		case "/tv/1396/season/1/episode/1":
			fmt.Fprint(w, `{"name":"Pilot","overview":"Walt","still_path":"/s.jpg","season_number":1,"episode_number":1}`)
		default:
			http.NotFound(w, r)
		}
	})
	ctx := context.Background()
	assert.True(t, p.IsConfigured())
	assert.Equal(t, "tmdb", p.Name())

	results, err := p.Search(ctx, metadata.KindSeries, "Breaking Bad", "")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "1396", results[0].ExternalID)
	assert.Equal(t, "2008", results[0].Year)
	assert.Equal(t, "https://image.tmdb.org/t/p/w780/p.jpg", results[0].PosterURL)
	assert.Equal(t, "https://image.tmdb.org/t/p/w780/b.jpg", results[0].BackdropURL)

	rec, err := p.Details(ctx, "1396", metadata.KindSeries)
	require.NoError(t, err)
	assert.Equal(t, "Drama, Crime", rec.Genre)

	ep, err := p.EpisodeDetails(ctx, "1396", 1, 1)
	require.NoError(t, err)
	assert.Equal(t, "Pilot", ep.Title)
	assert.Equal(t, "https://image.tmdb.org/t/p/w780/s.jpg", ep.StillURL)

	_, err = p.Details(ctx, "0", metadata.KindMovie)
	assert.ErrorIs(t, err, metadata.ErrNotFound)
}

func TestOMDbProvider(t *testing.T) {
	p := newOMDb(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		switch {
		case q.Get("s") == "Arrival":
			fmt.Fprint(w, `{"Response":"True","Search":[{"Title":"Arrival","Year":"2016","imdbID":"tt2543164","Type":"movie","Poster":"https://m.media-amazon.com/a.jpg"}]}`)
		case q.Get("s") != "":
			fmt.Fprint(w, `{"Response":"False","Error":"Movie not found!"}`)
		case q.Get("i") == "tt2543164":
			fmt.Fprint(w, `{"Response":"True","Title":"Arrival","Year":"2016","Genre":"Drama, Sci-Fi","Plot":"A linguist.","Poster":"https://m.media-amazon.com/a.jpg","imdbID":"tt2543164"}`)
		case q.Get("i") == "tt0903747" && q.Get("Episode") != "":
			fmt.Fprint(w, `{"Response":"True","Title":"Pilot","Plot":"N/A","Poster":"N/A","Season":"1","Episode":"1","Released":"20 Jan 2008"}`)
		case q.Get("i") == "tt0903747" && q.Get("Season") != "":
			fmt.Fprint(w, `{"Response":"True","Season":"1","Episodes":[{"Title":"Pilot","Episode":"1","Released":"2008-01-20"}]}`)
		default:
			fmt.Fprint(w, `{"Response":"False","Error":"Incorrect IMDb ID."}`)
		}
	})
	ctx := context.Background()

	results, err := p.Search(ctx, metadata.KindMovie, "Arrival", "")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "tt2543164", results[0].ExternalID)
	assert.Equal(t, "Drama, Sci-Fi", results[0].Genre)
	assert.Equal(t, "A linguist.", results[0].Overview)
	assert.Equal(t, "omdb", results[0].Source)

	none, err := p.Search(ctx, metadata.KindMovie, "zzz", "")
	require.NoError(t, err)
	assert.Empty(t, none)

	ep, err := p.EpisodeDetails(ctx, "tt0903747", 1, 1)
	require.NoError(t, err)
	assert.Equal(t, "Pilot", ep.Title)
	assert.Empty(t, ep.Overview)
	assert.Empty(t, ep.StillURL)

	eps, err := p.SeasonEpisodes(ctx, "tt0903747", 1)
	require.NoError(t, err)
	require.Len(t, eps, 1)
	assert.Equal(t, 1, eps[0].Number)

	_, err = p.Details(ctx, "tt0000000", metadata.KindMovie)
	assert.ErrorIs(t, err, metadata.ErrNotFound)
}
