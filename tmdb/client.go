/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package tmdb implements the game's media directory on top of The Movie
// Database v3 API.
package tmdb

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Seednode/moviechain/chain"
)

const (
	DefaultBaseURL = "https://api.themoviedb.org/3"
	DefaultTimeout = 10 * time.Second

	maxBodySize = 8 << 20
)

// Client talks to TMDB. It is safe for concurrent use.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	cache   *Cache
	logf    chain.Logf
}

type Option func(*Client)

func WithBaseURL(u string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimSuffix(u, "/")
	}
}

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		c.http = h
	}
}

func WithCache(cache *Cache) Option {
	return func(c *Client) {
		c.cache = cache
	}
}

func WithLogf(logf chain.Logf) Option {
	return func(c *Client) {
		c.logf = logf
	}
}

// New returns a client authenticating with apiKey, which may be either a v3
// API key or a v4 read access token.
func New(apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: DefaultTimeout},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Access tokens are JWTs; v3 keys are 32 hex characters.
func (c *Client) bearer() bool {
	return strings.HasPrefix(c.apiKey, "eyJ")
}

func (c *Client) printf(format string, args ...any) {
	if c.logf != nil {
		c.logf(format, args...)
	}
}

func (c *Client) fetch(ctx context.Context, path string, params url.Values) ([]byte, error) {
	query := url.Values{}
	for k, v := range params {
		query[k] = v
	}
	if !c.bearer() {
		query.Set("api_key", c.apiKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+query.Encode(), nil)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Accept", "application/json")
	if c.bearer() {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}

	return body, nil
}

// get decodes the response for path into out, consulting the cache first.
func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	key := path + "?" + params.Encode()

	if c.cache != nil {
		body, ok, err := c.cache.Get(ctx, key)
		if err != nil {
			c.printf("CACHE: %v", err)
		}

		if ok && json.Unmarshal(body, out) == nil {
			return nil
		}
	}

	startTime := time.Now()

	body, err := c.fetch(ctx, path, params)
	if err != nil {
		return fmt.Errorf("tmdb: %s: %w", path, err)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("tmdb: %s: malformed response: %w", path, err)
	}

	c.printf("TMDB: Fetched %s in %s", key, time.Since(startTime).Round(time.Microsecond))

	if c.cache != nil {
		if err := c.cache.Put(ctx, key, body); err != nil {
			c.printf("CACHE: %v", err)
		}
	}

	return nil
}

type result struct {
	ID            int     `json:"id"`
	MediaType     string  `json:"media_type"`
	Title         string  `json:"title"`
	OriginalTitle string  `json:"original_title"`
	Name          string  `json:"name"`
	OriginalName  string  `json:"original_name"`
	Overview      string  `json:"overview"`
	ReleaseDate   string  `json:"release_date"`
	Popularity    float64 `json:"popularity"`
	VoteCount     int     `json:"vote_count"`
	VoteAverage   float64 `json:"vote_average"`
	PosterPath    string  `json:"poster_path"`
	ProfilePath   string  `json:"profile_path"`
	Adult         bool    `json:"adult"`
}

func (r result) entity(kind chain.Kind) chain.Entity {
	e := chain.Entity{
		ID:          r.ID,
		Kind:        kind,
		Overview:    r.Overview,
		ReleaseDate: r.ReleaseDate,
		Popularity:  r.Popularity,
		VoteCount:   r.VoteCount,
		VoteAverage: r.VoteAverage,
	}

	switch {
	case r.Title != "" || kind == chain.KindMovie:
		e.Name = r.Title
		e.OriginalName = r.OriginalTitle
		e.ImagePath = r.PosterPath
	default:
		e.Name = r.Name
		e.OriginalName = r.OriginalName
		e.ImagePath = r.ProfilePath
	}

	if e.Name == "" {
		e.Name = r.Name
	}

	return e
}

type page struct {
	Results []result `json:"results"`
}

type credits struct {
	Cast []result `json:"cast"`
}

func entities(rows []result, kind func(result) chain.Kind) []chain.Entity {
	out := make([]chain.Entity, 0, len(rows))

	for _, r := range rows {
		if r.Adult {
			continue
		}

		out = append(out, r.entity(kind(r)))
	}

	return out
}

func searchParams(text string) url.Values {
	return url.Values{
		"query":         {text},
		"include_adult": {"false"},
		"page":          {"1"},
	}
}

func (c *Client) SearchCombined(ctx context.Context, text string) ([]chain.Entity, error) {
	var p page
	if err := c.get(ctx, "/search/multi", searchParams(text), &p); err != nil {
		return nil, err
	}

	return entities(p.Results, func(r result) chain.Kind {
		return chain.ParseKind(r.MediaType)
	}), nil
}

// SearchByKind returns untagged results, like the kind-specific endpoints.
func (c *Client) SearchByKind(ctx context.Context, text string, kind chain.Kind) ([]chain.Entity, error) {
	if kind != chain.KindMovie && kind != chain.KindPerson {
		return nil, fmt.Errorf("tmdb: cannot search for kind %q", kind)
	}

	var p page
	if err := c.get(ctx, "/search/"+kind.String(), searchParams(text), &p); err != nil {
		return nil, err
	}

	rows := entities(p.Results, func(result) chain.Kind { return kind })
	for i := range rows {
		rows[i].Kind = chain.KindUnknown
	}

	return rows, nil
}

func (c *Client) MovieCredits(ctx context.Context, personID int) ([]chain.Entity, error) {
	var cr credits
	if err := c.get(ctx, "/person/"+strconv.Itoa(personID)+"/movie_credits", url.Values{}, &cr); err != nil {
		return nil, err
	}

	return entities(cr.Cast, func(result) chain.Kind { return chain.KindMovie }), nil
}

func (c *Client) MovieCast(ctx context.Context, movieID int) ([]chain.Entity, error) {
	var cr credits
	if err := c.get(ctx, "/movie/"+strconv.Itoa(movieID)+"/credits", url.Values{}, &cr); err != nil {
		return nil, err
	}

	return entities(cr.Cast, func(result) chain.Kind { return chain.KindPerson }), nil
}

var _ chain.Directory = (*Client)(nil)
