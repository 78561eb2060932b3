package omdb

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
	return New(&config.OMDBConfig{URL: server.URL, APIKey: "test-api-key"})
}

func TestSearch(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "test-api-key", q.Get("apikey"))
		assert.Equal(t, "Heat", q.Get("s"))
		assert.Equal(t, "movie", q.Get("type"))
		assert.Equal(t, "1995", q.Get("y"))
		fmt.Fprint(w, `{"Search":[{"Title":"Heat","Year":"1995","imdbID":"tt0113277","Type":"movie","Poster":"https://m.media-amazon.com/heat.jpg"}],"totalResults":"1","Response":"True"}`)
	})

	items, err := client.Search(context.Background(), "Heat", TypeMovie, "1995")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "tt0113277", items[0].ImdbID)
}

func TestSearchWithoutHits(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"Response":"False","Error":"Movie not found!"}`)
	})

	items, err := client.Search(context.Background(), "zzzz", TypeSeries, "")
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestGetTitle(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		switch q.Get("i") {
		case "tt0113277":
			assert.Equal(t, "full", q.Get("plot"))
			fmt.Fprint(w, `{"Title":"Heat","Year":"1995","Released":"15 Dec 1995","Genre":"Action, Crime, Drama","Plot":"A group of high-end professional thieves","Poster":"N/A","imdbID":"tt0113277","Type":"movie","Response":"True"}`)
		default:
			fmt.Fprint(w, `{"Response":"False","Error":"Incorrect IMDb ID."}`)
		}
	})

	title, err := client.GetTitle(context.Background(), "tt0113277")
	require.NoError(t, err)
	assert.Equal(t, "Action, Crime, Drama", title.Genre)
	assert.Empty(t, Clean(title.Poster))

	_, err = client.GetTitle(context.Background(), "tt0")
	require.ErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "Incorrect IMDb ID.")
}

func TestEpisodeAndSeason(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "tt0903747", q.Get("i"))
		assert.Equal(t, "1", q.Get("Season"))
		if q.Get("Episode") != "" {
			assert.Equal(t, "2", q.Get("Episode"))
			fmt.Fprint(w, `{"Title":"Cat's in the Bag...","Season":"1","Episode":"2","Plot":"Walt and Jesse","Response":"True"}`)
			return
		}
		fmt.Fprint(w, `{"Title":"Breaking Bad","Season":"1","Episodes":[{"Title":"Pilot","Episode":"1"},{"Title":"Cat's in the Bag...","Episode":"2"}],"Response":"True"}`)
	})
	ctx := context.Background()

	ep, err := client.GetEpisode(ctx, "tt0903747", 1, 2)
	require.NoError(t, err)
	assert.Equal(t, "Cat's in the Bag...", ep.Title)

	season, err := client.GetSeason(ctx, "tt0903747", 1)
	require.NoError(t, err)
	assert.Len(t, season.Episodes, 2)
}

func TestHTTPError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"Response":"False","Error":"Invalid API key!"}`)
	})

	_, err := client.GetTitle(context.Background(), "tt1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 401")
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestClean(t *testing.T) {
	assert.Equal(t, "", Clean("N/A"))
	assert.Equal(t, "", Clean(" n/a "))
	assert.Equal(t, "Drama", Clean("Drama"))
}
