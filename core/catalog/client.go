package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"NovaFM/logger"
	"NovaFM/model"
)

// Client is a stateless accessor for the remote catalog API. It returns
// track metadata only and persists nothing.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewClient creates a catalog client for the given base URL.
func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// rawMeta is the catalog's wire shape. Artists arrive as objects and the
// duration as seconds; both are normalized into model.TrackMeta.
type rawMeta struct {
	VideoID string `json:"videoId"`
	Title   string `json:"title"`
	Artists []struct {
		Name string `json:"name"`
	} `json:"artists"`
	Album struct {
		Name string `json:"name"`
	} `json:"album"`
	Thumbnails      []model.Thumbnail `json:"thumbnails"`
	DurationSeconds int               `json:"duration_seconds"`
}

func (r rawMeta) toMeta() model.TrackMeta {
	artists := make([]string, 0, len(r.Artists))
	for _, a := range r.Artists {
		artists = append(artists, a.Name)
	}
	return model.TrackMeta{
		ID:          r.VideoID,
		Title:       r.Title,
		Artists:     artists,
		Album:       r.Album.Name,
		Thumbnails:  r.Thumbnails,
		DurationSec: r.DurationSeconds,
	}
}

// Search queries the catalog. Results longer than the surfacing cap are
// filtered out before they reach any caller.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]model.TrackMeta, error) {
	params := url.Values{}
	params.Set("query", query)
	params.Set("limit", strconv.Itoa(limit))
	return c.fetchList(ctx, "/search", params)
}

// Trending returns the catalog's trending tracks.
func (c *Client) Trending(ctx context.Context, limit int) ([]model.TrackMeta, error) {
	params := url.Values{}
	params.Set("limit", strconv.Itoa(limit))
	return c.fetchList(ctx, "/trending", params)
}

// Recommended returns recommendations biased by the given preferences.
// cacheBust forces the backend to skip its response cache.
func (c *Client) Recommended(ctx context.Context, genres, languages, artists []string, cacheBust bool) ([]model.TrackMeta, error) {
	params := url.Values{}
	if len(genres) > 0 {
		params.Set("genres", strings.Join(genres, ","))
	}
	if len(languages) > 0 {
		params.Set("languages", strings.Join(languages, ","))
	}
	if len(artists) > 0 {
		params.Set("artists", strings.Join(artists, ","))
	}
	if cacheBust {
		params.Set("cache_bust", strconv.FormatInt(time.Now().UnixMilli(), 10))
	}
	return c.fetchList(ctx, "/recommended", params)
}

// Featured returns the catalog's featured playlists as plain metadata lists.
func (c *Client) Featured(ctx context.Context, limit int) ([]model.TrackMeta, error) {
	params := url.Values{}
	params.Set("limit", strconv.Itoa(limit))
	return c.fetchList(ctx, "/featured", params)
}

// Prefetch asks the backend to warm its caches for the given ids.
func (c *Client) Prefetch(ctx context.Context, ids []string) error {
	params := url.Values{}
	params.Set("ids", strings.Join(ids, ","))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/prefetch?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("failed to create prefetch request: %w", err)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("prefetch request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("catalog returned status %d for prefetch", resp.StatusCode)
	}
	return nil
}

// StreamURL resolves the playable stream locator for a track. Resolved
// lazily at play time and never cached at search time.
func (c *Client) StreamURL(ctx context.Context, id string) (string, error) {
	params := url.Values{}
	params.Set("video_id", strings.TrimPrefix(id, model.RemoteIDPrefix))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/yt_audio?"+params.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("failed to create stream request: %w", err)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("stream request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("catalog returned status %d for stream url", resp.StatusCode)
	}

	var result struct {
		URL   string `json:"url"`
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode stream response: %w", err)
	}
	if result.Error != "" {
		return "", fmt.Errorf("catalog error resolving stream: %s", result.Error)
	}
	if result.URL == "" {
		return "", fmt.Errorf("catalog returned empty stream url for %s", id)
	}
	return result.URL, nil
}

func (c *Client) fetchList(ctx context.Context, path string, params url.Values) ([]model.TrackMeta, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create catalog request: %w", err)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("catalog request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("catalog returned status %d for %s", resp.StatusCode, path)
	}

	var raw []rawMeta
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode catalog response: %w", err)
	}

	metas := make([]model.TrackMeta, 0, len(raw))
	dropped := 0
	for _, r := range raw {
		meta := r.toMeta()
		if !meta.Eligible() {
			dropped++
			continue
		}
		metas = append(metas, meta)
	}
	if dropped > 0 {
		logger.Debug("catalog results filtered by duration",
			logger.String("path", path), logger.Int("dropped", dropped))
	}
	return metas, nil
}
