// Package photos finds a representative image per resort via the Wikipedia
// page-image API. Lookups are cached for a week; resorts change their hero
// photo about never.
package photos

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/lox/powderline/internal/httputil"
	"github.com/lox/powderline/internal/models"
	"github.com/lox/powderline/internal/snapcache"
	"github.com/lox/powderline/internal/store"
)

const DefaultAPIURL = "https://en.wikipedia.org/w/api.php"

type Client struct {
	httpClient *http.Client
	store      *store.Store
	cache      *snapcache.Cache
	apiURL     string
}

func New(st *store.Store, cache *snapcache.Cache) *Client {
	return NewWithAPIURL(st, cache, DefaultAPIURL)
}

// NewWithAPIURL builds a client against a custom endpoint; tests point this
// at local servers.
func NewWithAPIURL(st *store.Store, cache *snapcache.Cache, apiURL string) *Client {
	return &Client{
		httpClient: httputil.NewClient(),
		store:      st,
		cache:      cache,
		apiURL:     apiURL,
	}
}

type pageImageResponse struct {
	Query struct {
		Pages map[string]struct {
			Title    string `json:"title"`
			Original *struct {
				Source string `json:"source"`
			} `json:"original"`
		} `json:"pages"`
	} `json:"query"`
}

// Photo returns the resort's page image, fetching from Wikipedia at most
// once per week. A resort whose article has no image returns nil without
// error.
func (c *Client) Photo(ctx context.Context, resort models.Resort) (*models.ResortPhoto, error) {
	payload, err := c.cache.GetOrFetch(ctx, resort.ID, "photo", snapcache.PhotoTTL, func(ctx context.Context) ([]byte, error) {
		return c.fetchPageImage(ctx, resort.Name)
	})
	if err != nil {
		return nil, err
	}

	var resp pageImageResponse
	if err := json.Unmarshal(payload, &resp); err != nil {
		return nil, fmt.Errorf("unmarshal page image: %w", err)
	}

	for _, page := range resp.Query.Pages {
		if page.Original == nil || page.Original.Source == "" {
			continue
		}
		photo := models.ResortPhoto{
			ResortID:  resort.ID,
			URL:       page.Original.Source,
			Credit:    sql.NullString{String: "Wikipedia: " + page.Title, Valid: true},
			UpdatedAt: time.Now().UTC(),
		}
		if err := c.store.UpsertResortPhoto(photo); err != nil {
			return nil, fmt.Errorf("store resort photo: %w", err)
		}
		return &photo, nil
	}
	return nil, nil
}

func (c *Client) fetchPageImage(ctx context.Context, title string) ([]byte, error) {
	params := url.Values{}
	params.Set("action", "query")
	params.Set("titles", title)
	params.Set("prop", "pageimages")
	params.Set("piprop", "original")
	params.Set("format", "json")
	params.Set("redirects", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch page image: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch page image: status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
