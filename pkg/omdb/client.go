package omdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/jon4hz/indiflix/internal/config"
)

// ErrNotFound is returned when OMDb answers with Response "False".
var ErrNotFound = errors.New("omdb: resource not found")

// Client represents an OMDb API client.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// New creates a new OMDb API client.
func New(cfg *config.OMDBConfig) *Client {
	return &Client{
		baseURL:    cfg.URL,
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{},
	}
}

// IsConfigured reports whether an API key is set.
func (c *Client) IsConfigured() bool {
	return c != nil && c.apiKey != ""
}

// Type restricts searches to movies or series.
type Type string

const (
	TypeMovie  Type = "movie"
	TypeSeries Type = "series"
)

// status is embedded in every OMDb response.
type status struct {
	Response string `json:"Response"`
	Error    string `json:"Error"`
}

func (s status) err() error {
	if strings.EqualFold(s.Response, "False") {
		if s.Error != "" {
			return fmt.Errorf("%w: %s", ErrNotFound, s.Error)
		}
		return ErrNotFound
	}
	return nil
}

// SearchItem is a single search hit.
type SearchItem struct {
	Title  string `json:"Title"`
	Year   string `json:"Year"`
	ImdbID string `json:"imdbID"`
	Type   string `json:"Type"`
	Poster string `json:"Poster"`
}

type searchResponse struct {
	status
	Search       []SearchItem `json:"Search"`
	TotalResults string       `json:"totalResults"`
}

// Title is the full record of a movie, series or episode.
type Title struct {
	status
	Title        string `json:"Title"`
	Year         string `json:"Year"`
	Released     string `json:"Released"`
	Genre        string `json:"Genre"`
	Plot         string `json:"Plot"`
	Poster       string `json:"Poster"`
	ImdbID       string `json:"imdbID"`
	Type         string `json:"Type"`
	TotalSeasons string `json:"totalSeasons"`
	Season       string `json:"Season"`
	Episode      string `json:"Episode"`
	SeriesID     string `json:"seriesID"`
}

// SeasonEpisode is an entry in a season listing.
type SeasonEpisode struct {
	Title    string `json:"Title"`
	Released string `json:"Released"`
	Episode  string `json:"Episode"`
	ImdbID   string `json:"imdbID"`
}

// Season lists the episodes of one season.
type Season struct {
	status
	Title        string          `json:"Title"`
	Season       string          `json:"Season"`
	TotalSeasons string          `json:"totalSeasons"`
	Episodes     []SeasonEpisode `json:"Episodes"`
}

// Clean maps OMDb's "N/A" placeholder to an empty string.
func Clean(s string) string {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, "N/A") {
		return ""
	}
	return s
}

// doRequest performs a GET request against the OMDb API and decodes the JSON response into out.
func (c *Client) doRequest(ctx context.Context, queryParams url.Values, out any) error {
	queryParams.Set("apikey", c.apiKey)
	reqURL := c.baseURL + "/?" + queryParams.Encode()

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

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("error decoding response: %w", err)
	}
	return nil
}

// Search searches titles of the given type, optionally restricted to a year.
func (c *Client) Search(ctx context.Context, query string, typ Type, year string) ([]SearchItem, error) {
	params := url.Values{"s": {query}, "type": {string(typ)}}
	if year != "" {
		params.Set("y", year)
	}
	var resp searchResponse
	if err := c.doRequest(ctx, params, &resp); err != nil {
		return nil, err
	}
	if err := resp.err(); err != nil {
		// a search without hits is reported as an error by OMDb
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return resp.Search, nil
}

// GetTitle retrieves a movie or series by IMDb id with the full plot.
func (c *Client) GetTitle(ctx context.Context, imdbID string) (*Title, error) {
	var t Title
	if err := c.doRequest(ctx, url.Values{"i": {imdbID}, "plot": {"full"}}, &t); err != nil {
		return nil, err
	}
	if err := t.err(); err != nil {
		return nil, err
	}
	return &t, nil
}

// GetEpisode retrieves a single episode of a series.
func (c *Client) GetEpisode(ctx context.Context, seriesID string, season, episode int) (*Title, error) {
	params := url.Values{
		"i":       {seriesID},
		"Season":  {strconv.Itoa(season)},
		"Episode": {strconv.Itoa(episode)},
	}
	var t Title
	if err := c.doRequest(ctx, params, &t); err != nil {
		return nil, err
	}
	if err := t.err(); err != nil {
		return nil, err
	}
	return &t, nil
}

// GetSeason retrieves the episode list of a season.
func (c *Client) GetSeason(ctx context.Context, seriesID string, season int) (*Season, error) {
	var s Season
	if err := c.doRequest(ctx, url.Values{"i": {seriesID}, "Season": {strconv.Itoa(season)}}, &s); err != nil {
		return nil, err
	}
	if err := s.err(); err != nil {
		return nil, err
	}
	return &s, nil
}
