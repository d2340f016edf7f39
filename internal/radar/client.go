// Package radar tracks the public precipitation radar frame index so the
// API can hand out tile paths without hitting the upstream per request.
package radar

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/lox/powderline/internal/httputil"
	"github.com/lox/powderline/internal/models"
	"github.com/lox/powderline/internal/snapcache"
	"github.com/lox/powderline/internal/store"
)

const DefaultIndexURL = "https://api.rainviewer.com/public/weather-maps.json"

// Radar is global, not per resort; the shared snapshot cache needs a key so
// frames are filed under this sentinel id.
const cacheResortID = 0

type Client struct {
	httpClient *http.Client
	store      *store.Store
	cache      *snapcache.Cache
	indexURL   string
}

func New(st *store.Store, cache *snapcache.Cache) *Client {
	return NewWithIndexURL(st, cache, DefaultIndexURL)
}

// NewWithIndexURL builds a client against a custom frame index; tests point
// this at local servers.
func NewWithIndexURL(st *store.Store, cache *snapcache.Cache, indexURL string) *Client {
	return &Client{
		httpClient: httputil.NewClient(),
		store:      st,
		cache:      cache,
		indexURL:   indexURL,
	}
}

type frameIndex struct {
	Host  string `json:"host"`
	Radar struct {
		Past []struct {
			Time int64  `json:"time"`
			Path string `json:"path"`
		} `json:"past"`
	} `json:"radar"`
}

// Frames returns the recent radar frames, refreshing the upstream index at
// most every five minutes. New frames are upserted so replays survive a
// cache miss upstream.
func (c *Client) Frames(ctx context.Context) ([]models.RadarFrame, error) {
	payload, err := c.cache.GetOrFetch(ctx, cacheResortID, "radar", snapcache.RadarTTL, c.fetchIndex)
	if err != nil {
		return nil, err
	}

	var idx frameIndex
	if err := json.Unmarshal(payload, &idx); err != nil {
		return nil, fmt.Errorf("unmarshal radar index: %w", err)
	}

	frames := make([]models.RadarFrame, 0, len(idx.Radar.Past))
	for _, f := range idx.Radar.Past {
		frame := models.RadarFrame{
			FrameTime: time.Unix(f.Time, 0).UTC(),
			Path:      idx.Host + f.Path,
		}
		if err := c.store.UpsertRadarFrame(frame); err != nil {
			return nil, fmt.Errorf("store radar frame: %w", err)
		}
		frames = append(frames, frame)
	}
	return frames, nil
}

func (c *Client) fetchIndex(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.indexURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch radar index: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch radar index: status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
