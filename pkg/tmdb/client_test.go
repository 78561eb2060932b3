package tmdb

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jon4hz/indiflix/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return New(&config.TMDBConfig{
		URL:      server.URL,
		ImageURL: "https://image.tmdb.org/t/p/w780",
		APIKey:   "test-api-key",
	})
}

func TestSearchMovies(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search/movie", r.URL.Path)
		assert.Equal(t, "test-api-key", r.URL.Query().Get("api_key"))
		assert.Equal(t, "Arrival", r.URL.Query().Get("query"))
		assert.Equal(t, "2016", r.URL.Query().Get("year"))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"page":1,"total_results":1,"results":[{"id":329865,"title":"Arrival","overview":"Linguist","poster_path":"/a.jpg","backdrop_path":"/b.jpg","release_date":"2016-11-10"}]}`)
	})

	movies, err := client.SearchMovies(context.Background(), "Arrival", "2016")
	require.NoError(t, err)
	require.Len(t, movies, 1)
	assert.Equal(t, 329865, movies[0].ID)
	assert.Equal(t, "2016-11-10", movies[0].ReleaseDate)
	assert.Equal(t, "https://image.tmdb.org/t/p/w780/a.jpg", client.ImageURL(movies[0].PosterPath))
}

func TestSearchTVUsesFirstAirYear(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search/tv", r.URL.Path)
		assert.Equal(t, "2008", r.URL.Query().Get("first_air_date_year"))
		assert.Empty(t, r.URL.Query().Get("year"))
		fmt.Fprint(w, `{"results":[{"id":1396,"name":"Breaking Bad","first_air_date":"2008-01-20"}]}`)
	})

	shows, err := client.SearchTV(context.Background(), "Breaking Bad", "2008")
	require.NoError(t, err)
	require.Len(t, shows, 1)
	assert.Equal(t, "Breaking Bad", shows[0].Name)
}

func TestGetDetails(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/movie/603":
			fmt.Fprint(w, `{"id":603,"title":"The Matrix","genres":[{"id":28,"name":"Action"},{"id":878,"name":"Science Fiction"}]}`)
		case "/tv/1396":
			fmt.Fprint(w, `{"id":1396,"name":"Breaking Bad","genres":[{"id":18,"name":"Drama"}]}`)
		case "/tv/1396/season/1/episode/2":
			fmt.Fprint(w, `{"id":62086,"name":"Cat's in the Bag...","overview":"Walt and Jesse","still_path":"/s.jpg","season_number":1,"episode_number":2}`)
		case "/tv/1396/season/1":
			fmt.Fprint(w, `{"id":3572,"season_number":1,"episodes":[{"episode_number":1,"name":"Pilot"},{"episode_number":2,"name":"Cat's in the Bag..."}]}`)
		default:
			http.NotFound(w, r)
		}
	})
	ctx := context.Background()

	movie, err := client.GetMovie(ctx, "603")
	require.NoError(t, err)
	assert.Len(t, movie.Genres, 2)

	tv, err := client.GetTV(ctx, "1396")
	require.NoError(t, err)
	assert.Equal(t, "Drama", tv.Genres[0].Name)

	ep, err := client.GetEpisode(ctx, "1396", 1, 2)
	require.NoError(t, err)
	assert.Equal(t, "Cat's in the Bag...", ep.Name)
	assert.Equal(t, 2, ep.EpisodeNumber)

	season, err := client.GetSeason(ctx, "1396", 1)
	require.NoError(t, err)
	assert.Len(t, season.Episodes, 2)

	_, err = client.GetMovie(ctx, "0")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRequestFailure(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"status_message":"Invalid API key"}`)
	})

	_, err := client.SearchMovies(context.Background(), "x", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 401")
}

func TestIsConfigured(t *testing.T) {
	assert.False(t, New(&config.TMDBConfig{}).IsConfigured())
	assert.True(t, New(&config.TMDBConfig{APIKey: "k"}).IsConfigured())

	var nilClient *Client
	assert.False(t, nilClient.IsConfigured())
	assert.Empty(t, New(&config.TMDBConfig{}).ImageURL(""))
}
