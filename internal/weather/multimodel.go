package weather

import (
	"context"
	"log"
	"sync"
	"time"
)

// ModelForecast is one slot of a multi-model response. A failed model shows
// up as available=false with an error message and an empty data array; it
// never fails the fetch as a whole.
type ModelForecast struct {
	Model     string       `json:"model"`
	Available bool         `json:"available"`
	Error     string       `json:"error,omitempty"`
	Daily     []DailyPoint `json:"data"`
}

// ModelHourlyForecast is the hourly-granularity equivalent.
type ModelHourlyForecast struct {
	Model     string        `json:"model"`
	Available bool          `json:"available"`
	Error     string        `json:"error,omitempty"`
	Hourly    []HourlyPoint `json:"data"`
}

// MultiModelResponse always carries one slot per configured model plus the
// supplementary trailing snowfall history (empty on failure, never gated).
type MultiModelResponse struct {
	Models  []ModelForecast `json:"models"`
	History []DailySnow     `json:"history"`
}

type MultiModelHourlyResponse struct {
	Models []ModelHourlyForecast `json:"models"`
}

// FetchAllModels requests every model concurrently and aggregates to daily
// granularity. Models without native daily arrays get their days derived
// from hourly samples. The call never fails: each slot reports its own
// availability.
func (c *Client) FetchAllModels(ctx context.Context, lat, lon float64, tz string) *MultiModelResponse {
	resp := &MultiModelResponse{
		Models: make([]ModelForecast, len(c.models)),
	}

	var wg sync.WaitGroup
	for i, spec := range c.models {
		wg.Add(1)
		go func(i int, spec ModelSpec) {
			defer wg.Done()
			slot := ModelForecast{Model: spec.Name, Daily: []DailyPoint{}}
			data, err := c.FetchModel(ctx, spec, lat, lon, tz)
			if err != nil {
				slot.Error = err.Error()
				resp.Models[i] = slot
				return
			}
			slot.Available = true
			if spec.HasDaily && len(data.Daily) > 0 {
				slot.Daily = data.Daily
			} else {
				slot.Daily = DailyFromHourly(data.Hourly)
			}
			resp.Models[i] = slot
		}(i, spec)
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		end := time.Now().UTC().AddDate(0, 0, -1)
		start := end.AddDate(0, 0, -6)
		history, err := c.FetchArchiveSnowfall(ctx, lat, lon, start, end)
		if err != nil {
			// Supplementary data: report empty rather than unavailable.
			log.Printf("weather: trailing snowfall history: %v", err)
			history = []DailySnow{}
		}
		resp.History = history
	}()

	wg.Wait()
	return resp
}

// FetchAllModelsHourly requests hourly forecasts from every model
// concurrently, one independently-available slot per model.
func (c *Client) FetchAllModelsHourly(ctx context.Context, lat, lon float64, tz string) *MultiModelHourlyResponse {
	resp := &MultiModelHourlyResponse{
		Models: make([]ModelHourlyForecast, len(c.models)),
	}

	var wg sync.WaitGroup
	for i, spec := range c.models {
		wg.Add(1)
		go func(i int, spec ModelSpec) {
			defer wg.Done()
			slot := ModelHourlyForecast{Model: spec.Name, Hourly: []HourlyPoint{}}
			data, err := c.FetchModel(ctx, spec, lat, lon, tz)
			if err != nil {
				slot.Error = err.Error()
				resp.Models[i] = slot
				return
			}
			slot.Available = true
			slot.Hourly = data.Hourly
			resp.Models[i] = slot
		}(i, spec)
	}
	wg.Wait()
	return resp
}
