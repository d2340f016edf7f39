// Package snowdepth resolves a current snow depth per resort from telemetry
// when a SNOTEL station is mapped to it, falling back to modeled depth from
// the forecast API otherwise.
package snowdepth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/lox/powderline/internal/httputil"
	"github.com/lox/powderline/internal/models"
)

const (
	awdbBaseURL      = "https://wcc.sc.egov.usda.gov/awdbRestApi/services/v1/data"
	openMeteoBaseURL = "https://api.open-meteo.com/v1/gfs"

	SourceSnotel    = "snotel"
	SourceOpenMeteo = "open-meteo"
)

// Stations maps resort slugs to SNOTEL station triplets
// ("366:UT:SNTL"). Resorts without an entry go straight to the fallback.
type Stations map[string]string

type Resolver struct {
	client      *http.Client
	stations    Stations
	awdbURL     string
	fallbackURL string
}

func New(stations Stations) *Resolver {
	return &Resolver{
		client:      httputil.NewClient(),
		stations:    stations,
		awdbURL:     awdbBaseURL,
		fallbackURL: openMeteoBaseURL,
	}
}

// Resolve produces the best available snow depth reading for a resort.
// Telemetry wins over modeled depth; a resort with neither returns an error
// and keeps whatever reading was stored before.
func (r *Resolver) Resolve(ctx context.Context, resort models.Resort) (*models.SnowDepthReading, error) {
	if triplet, ok := r.stations[resort.Slug]; ok {
		reading, err := r.fromSnotel(ctx, resort, triplet)
		if err == nil {
			return reading, nil
		}
		log.Printf("snowdepth: snotel %s for %s: %v, trying modeled depth", triplet, resort.Slug, err)
	}
	return r.fromOpenMeteo(ctx, resort)
}

type awdbResponse []struct {
	StationTriplet string `json:"stationTriplet"`
	Data           []struct {
		Values []struct {
			Date  string   `json:"date"`
			Value *float64 `json:"value"`
		} `json:"values"`
	} `json:"data"`
}

func (r *Resolver) fromSnotel(ctx context.Context, resort models.Resort, triplet string) (*models.SnowDepthReading, error) {
	params := url.Values{}
	params.Set("stationTriplets", triplet)
	params.Set("elements", "SNWD")
	params.Set("duration", "DAILY")
	params.Set("beginDate", time.Now().UTC().AddDate(0, 0, -2).Format("2006-01-02"))
	params.Set("endDate", time.Now().UTC().Format("2006-01-02"))

	body, err := r.get(ctx, r.awdbURL+"?"+params.Encode())
	if err != nil {
		return nil, err
	}

	var resp awdbResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("unmarshal awdb: %w", err)
	}

	// Latest non-null daily value wins. SNWD is reported in inches.
	for _, station := range resp {
		for _, series := range station.Data {
			for i := len(series.Values) - 1; i >= 0; i-- {
				v := series.Values[i]
				if v.Value == nil {
					continue
				}
				return &models.SnowDepthReading{
					ResortID:     resort.ID,
					DepthIn:      *v.Value,
					Source:       SourceSnotel,
					SourceDetail: fmt.Sprintf("station %s, %s", triplet, v.Date),
					UpdatedAt:    time.Now().UTC(),
				}, nil
			}
		}
	}
	return nil, fmt.Errorf("no snow depth values for %s", triplet)
}

type openMeteoDepthResponse struct {
	Hourly struct {
		Time      []string   `json:"time"`
		SnowDepth []*float64 `json:"snow_depth"`
	} `json:"hourly"`
}

func (r *Resolver) fromOpenMeteo(ctx context.Context, resort models.Resort) (*models.SnowDepthReading, error) {
	params := url.Values{}
	params.Set("latitude", strconv.FormatFloat(resort.Latitude, 'f', 4, 64))
	params.Set("longitude", strconv.FormatFloat(resort.Longitude, 'f', 4, 64))
	params.Set("hourly", "snow_depth")
	params.Set("forecast_days", "1")
	params.Set("timezone", resort.Timezone)

	body, err := r.get(ctx, r.fallbackURL+"?"+params.Encode())
	if err != nil {
		return nil, err
	}

	var resp openMeteoDepthResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("unmarshal snow depth: %w", err)
	}

	// Depth comes back in meters; take the most recent non-null hour.
	for i := len(resp.Hourly.SnowDepth) - 1; i >= 0; i-- {
		v := resp.Hourly.SnowDepth[i]
		if v == nil {
			continue
		}
		return &models.SnowDepthReading{
			ResortID:     resort.ID,
			DepthIn:      *v * 39.3701,
			Source:       SourceOpenMeteo,
			SourceDetail: fmt.Sprintf("modeled, %s", resp.Hourly.Time[i]),
			UpdatedAt:    time.Now().UTC(),
		}, nil
	}
	return nil, fmt.Errorf("no modeled snow depth for %s", resort.Slug)
}

func (r *Resolver) get(ctx context.Context, fullURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
