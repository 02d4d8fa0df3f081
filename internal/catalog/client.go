// Package catalog implements the HTTP client for the external title catalog
// (a PoiskKino-compatible API).  Upstream payloads are duck-typed JSON; this
// client validates them into explicit structures and rejects entries missing
// required identity fields instead of coercing them.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const defaultBaseURL = "https://api.poiskkino.dev"

// Distinguishable upstream conditions.  Rate limiting gets its own sentinel
// because the client-facing handling differs: the user is told to retry
// later or add the title manually.
var (
	ErrRateLimited = errors.New("catalog rate limit exceeded")
	ErrNotFound    = errors.New("catalog title not found")
)

// Client talks to the catalog API.  The API key stays server-side; the
// front end only ever sees the proxy endpoints.
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewClient builds a catalog client.  An empty baseURL selects the public
// catalog endpoint.
func NewClient(baseURL, apiKey string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// SeasonInfo is one validated season declaration from the catalog.
type SeasonInfo struct {
	Number        int `json:"number"`
	EpisodesCount int `json:"episodesCount"`
}

// Title is the normalized detail payload for one catalog entry.
type Title struct {
	ID          int64        `json:"id"`
	Name        string       `json:"name"`
	Year        *int         `json:"year"`
	PosterURL   *string      `json:"posterUrl"`
	Type        *string      `json:"type"`
	SeasonsInfo []SeasonInfo `json:"seasonsInfo"`
}

// IsSeries reports whether the entry should be tracked with seasons and
// episodes: either the catalog types it as a tv-series or it declares at
// least one season.
func (t *Title) IsSeries() bool {
	if t.Type != nil && *t.Type == "tv-series" {
		return true
	}
	return len(t.SeasonsInfo) > 0
}

// SearchItem is one normalized search result.
type SearchItem struct {
	ID            int64   `json:"id"`
	Name          string  `json:"name"`
	Year          *int    `json:"year"`
	PosterURL     *string `json:"posterUrl"`
	Type          *string `json:"type"`
	SeasonsCount  *int    `json:"seasonsCount"`
	EpisodesCount *int    `json:"episodesCount"`
}

// SearchPage wraps search results with upstream paging metadata.
type SearchPage struct {
	Items []SearchItem `json:"items"`
	Page  int          `json:"page"`
	Limit int          `json:"limit"`
	Pages *int         `json:"pages"`
	Total *int         `json:"total"`
}

// Raw upstream shapes.  Optional fields are pointers so absence is
// distinguishable from zero values.
type rawMovie struct {
	ID              int64   `json:"id"`
	Name            string  `json:"name"`
	AlternativeName string  `json:"alternativeName"`
	Year            *int    `json:"year"`
	Type            *string `json:"type"`
	Poster          struct {
		URL *string `json:"url"`
	} `json:"poster"`
	SeasonsInfo []rawSeasonInfo `json:"seasonsInfo"`
}

type rawSeasonInfo struct {
	Number        *int `json:"number"`
	EpisodesCount *int `json:"episodesCount"`
}

// validSeasons filters a declaration list down to usable entries: a season
// needs a positive number; a missing or non-positive episode count is
// treated as zero episodes declared.
func validSeasons(raw []rawSeasonInfo) []SeasonInfo {
	var out []SeasonInfo
	for _, s := range raw {
		if s.Number == nil || *s.Number < 1 {
			continue
		}
		n := 0
		if s.EpisodesCount != nil && *s.EpisodesCount > 0 {
			n = *s.EpisodesCount
		}
		out = append(out, SeasonInfo{Number: *s.Number, EpisodesCount: n})
	}
	return out
}

func (c *Client) get(ctx context.Context, path string, query url.Values) (*http.Response, error) {
	u, err := url.Parse(c.baseURL + path)
	if err != nil {
		return nil, err
	}
	if query != nil {
		u.RawQuery = query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-API-KEY", c.apiKey)
	return c.client.Do(req)
}

// statusErr maps an upstream status code to a sentinel or wrapped error.
func statusErr(code int) error {
	switch code {
	case http.StatusOK:
		return nil
	case http.StatusTooManyRequests:
		return ErrRateLimited
	case http.StatusNotFound:
		return ErrNotFound
	default:
		return fmt.Errorf("catalog returned %d", code)
	}
}

// Search queries the catalog and normalizes the result page.  Entries
// without a numeric id are dropped rather than passed through half-formed.
func (c *Client) Search(ctx context.Context, query string, page, limit int) (*SearchPage, error) {
	q := url.Values{}
	q.Set("query", query)
	q.Set("page", strconv.Itoa(page))
	q.Set("limit", strconv.Itoa(limit))

	resp, err := c.get(ctx, "/v1.4/movie/search", q)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if err := statusErr(resp.StatusCode); err != nil {
		return nil, err
	}

	var body struct {
		Docs  []rawMovie `json:"docs"`
		Page  *int       `json:"page"`
		Limit *int       `json:"limit"`
		Pages *int       `json:"pages"`
		Total *int       `json:"total"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("catalog search decode: %w", err)
	}

	out := &SearchPage{Items: []SearchItem{}, Page: page, Limit: limit, Pages: body.Pages, Total: body.Total}
	if body.Page != nil {
		out.Page = *body.Page
	}
	if body.Limit != nil {
		out.Limit = *body.Limit
	}
	for _, m := range body.Docs {
		if m.ID == 0 {
			continue
		}
		item := SearchItem{
			ID:        m.ID,
			Name:      m.Name,
			Year:      m.Year,
			PosterURL: m.Poster.URL,
			Type:      m.Type,
		}
		if item.Name == "" {
			item.Name = m.AlternativeName
		}
		seasons := validSeasons(m.SeasonsInfo)
		if len(seasons) > 0 {
			sc := len(seasons)
			ec := 0
			for _, s := range seasons {
				ec += s.EpisodesCount
			}
			item.SeasonsCount = &sc
			if ec > 0 {
				item.EpisodesCount = &ec
			}
		}
		out.Items = append(out.Items, item)
	}
	return out, nil
}

// Details fetches and normalizes one catalog entry by its external id.
func (c *Client) Details(ctx context.Context, id int64) (*Title, error) {
	resp, err := c.get(ctx, fmt.Sprintf("/v1.4/movie/%d", id), nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if err := statusErr(resp.StatusCode); err != nil {
		return nil, err
	}

	var m rawMovie
	if err := json.NewDecoder(resp.Body).Decode(&m); err != nil {
		return nil, fmt.Errorf("catalog detail decode: %w", err)
	}
	if m.ID == 0 {
		return nil, fmt.Errorf("catalog detail payload missing id")
	}

	t := &Title{
		ID:          m.ID,
		Name:        m.Name,
		Year:        m.Year,
		PosterURL:   m.Poster.URL,
		Type:        m.Type,
		SeasonsInfo: validSeasons(m.SeasonsInfo),
	}
	if t.Name == "" {
		t.Name = m.AlternativeName
	}
	return t, nil
}
