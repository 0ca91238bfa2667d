package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"
)

// Client fetches playlist pages from the provider over HTTP, throttled to a
// fixed request rate.
type Client struct {
	name       string
	pageURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

type playlistResponse struct {
	PlaylistClips []struct {
		Clip json.RawMessage `json:"clip"`
	} `json:"playlist_clips"`
}

// NewClient builds a client for the playlist at pageURL. The page number is
// sent as the "page" query parameter. A non-positive rps disables throttling.
func NewClient(name, pageURL string, rps float64) *Client {
	limit := rate.Inf
	if rps > 0 {
		limit = rate.Limit(rps)
	}
	return &Client{
		name:    name,
		pageURL: pageURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		limiter: rate.NewLimiter(limit, 1),
	}
}

// Name identifies the source in logs.
func (c *Client) Name() string {
	return c.name
}

// Fetch downloads one playlist page and unwraps its clips.
func (c *Client) Fetch(ctx context.Context, page int) ([]Item, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("wait for rate limiter: %w", err)
	}

	endpoint, err := url.Parse(c.pageURL)
	if err != nil {
		return nil, fmt.Errorf("parse feed url: %w", err)
	}
	if page > 0 {
		query := endpoint.Query()
		query.Set("page", strconv.Itoa(page))
		endpoint.RawQuery = query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("feed %s error: %s - %s", c.name, resp.Status, string(body))
	}

	var payload playlistResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	clips := make([]json.RawMessage, 0, len(payload.PlaylistClips))
	for _, entry := range payload.PlaylistClips {
		clips = append(clips, entry.Clip)
	}
	return decodeItems(clips), nil
}
