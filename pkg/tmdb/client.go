package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/jon4hz/indiflix/internal/config"
)

// ErrNotFound is returned when TMDB answers with 404.
var ErrNotFound = errors.New("tmdb: resource not found")

// Client represents a TMDB v3 API client.
type Client struct {
	baseURL    string
	imageURL   string
	apiKey     string
	httpClient *http.Client
}

// New creates a new TMDB API client.
func New(cfg *config.TMDBConfig) *Client {
	return &Client{
		baseURL:    cfg.URL,
		imageURL:   cfg.ImageURL,
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{},
	}
}

// IsConfigured reports whether an API key is set.
func (c *Client) IsConfigured() bool {
	return c != nil && c.apiKey != ""
}

// Genre is a TMDB genre.
type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Movie is a movie search result or detail record.
type Movie struct {
	ID           int     `json:"id"`
	Title        string  `json:"title"`
	Overview     string  `json:"overview"`
	PosterPath   string  `json:"poster_path"`
	BackdropPath string  `json:"backdrop_path"`
	ReleaseDate  string  `json:"release_date"`
	Genres       []Genre `json:"genres,omitempty"`
}

// TV is a TV show search result or detail record.
type TV struct {
	ID           int     `json:"id"`
	Name         string  `json:"name"`
	Overview     string  `json:"overview"`
	PosterPath   string  `json:"poster_path"`
	BackdropPath string  `json:"backdrop_path"`
	FirstAirDate string  `json:"first_air_date"`
	Genres       []Genre `json:"genres,omitempty"`
}

// Episode is a single TV episode.
type Episode struct {
	ID            int    `json:"id"`
	Name          string `json:"name"`
	Overview      string `json:"overview"`
	StillPath     string `json:"still_path"`
	AirDate       string `json:"air_date"`
	SeasonNumber  int    `json:"season_number"`
	EpisodeNumber int    `json:"episode_number"`
}

// Season is a TV season with its episodes.
type Season struct {
	ID           int       `json:"id"`
	Name         string    `json:"name"`
	SeasonNumber int       `json:"season_number"`
	Episodes     []Episode `json:"episodes"`
}

type searchResponse[T any] struct {
	Page         int `json:"page"`
	Results      []T `json:"results"`
	TotalResults int `json:"total_results"`
}

// ImageURL returns the absolute URL of an image path, or "" for an empty path.
func (c *Client) ImageURL(path string) string {
	if path == "" {
		return ""
	}
	return c.imageURL + path
}

// doRequest performs a GET request against the TMDB API and decodes the JSON response into out.
func (c *Client) doRequest(ctx context.Context, endpoint string, queryParams url.Values, out any) error {
	if queryParams == nil {
		queryParams = url.Values{}
	}
	queryParams.Set("api_key", c.apiKey)

	reqURL := c.baseURL + endpoint + "?" + queryParams.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("error performing request: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("error decoding response: %w", err)
	}
	return nil
}

// SearchMovies searches movies by title, optionally restricted to a release year.
func (c *Client) SearchMovies(ctx context.Context, query, year string) ([]Movie, error) {
	params := url.Values{"query": {query}}
	if year != "" {
		params.Set("year", year)
	}
	var resp searchResponse[Movie]
	if err := c.doRequest(ctx, "/search/movie", params, &resp); err != nil {
		return nil, err
	}
	return resp.Results, nil
}

// SearchTV searches TV shows by name, optionally restricted to a first air year.
func (c *Client) SearchTV(ctx context.Context, query, year string) ([]TV, error) {
	params := url.Values{"query": {query}}
	if year != "" {
		params.Set("first_air_date_year", year)
	}
	var resp searchResponse[TV]
	if err := c.doRequest(ctx, "/search/tv", params, &resp); err != nil {
		return nil, err
	}
	return resp.Results, nil
}

// GetMovie retrieves the details of a movie.
func (c *Client) GetMovie(ctx context.Context, id string) (*Movie, error) {
	var movie Movie
	if err := c.doRequest(ctx, "/movie/"+url.PathEscape(id), nil, &movie); err != nil {
		return nil, err
	}
	return &movie, nil
}

// GetTV retrieves the details of a TV show.
func (c *Client) GetTV(ctx context.Context, id string) (*TV, error) {
	var tv TV
	if err := c.doRequest(ctx, "/tv/"+url.PathEscape(id), nil, &tv); err != nil {
		return nil, err
	}
	return &tv, nil
}

// GetEpisode retrieves a single episode of a TV show.
func (c *Client) GetEpisode(ctx context.Context, tvID string, season, episode int) (*Episode, error) {
	endpoint := fmt.Sprintf("/tv/%s/season/%s/episode/%s", url.PathEscape(tvID), strconv.Itoa(season), strconv.Itoa(episode))
	var ep Episode
	if err := c.doRequest(ctx, endpoint, nil, &ep); err != nil {
		return nil, err
	}
	return &ep, nil
}

// GetSeason retrieves a season of a TV show including its episodes.
func (c *Client) GetSeason(ctx context.Context, tvID string, season int) (*Season, error) {
	endpoint := fmt.Sprintf("/tv/%s/season/%s", url.PathEscape(tvID), strconv.Itoa(season))
	var s Season
	if err := c.doRequest(ctx, endpoint, nil, &s); err != nil {
		return nil, err
	}
	return &s, nil
}
