package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sony/gobreaker"

	"github.com/lox/powderline/internal/httputil"
	"github.com/lox/powderline/internal/metrics"
)

// HourlyPoint is one normalized hourly sample: Fahrenheit, mph, inches, feet.
type HourlyPoint struct {
	Time                string   `json:"time"`
	Temperature         *float64 `json:"temperature"`
	ApparentTemperature *float64 `json:"apparentTemperature"`
	Snowfall            *float64 `json:"snowfall"`
	Precipitation       *float64 `json:"precipitation"`
	WindSpeed           *float64 `json:"windSpeed"`
	WindGusts           *float64 `json:"windGusts"`
	Humidity            *int     `json:"humidity"`
	WeatherCode         *int     `json:"weatherCode"`
	WeatherText         string   `json:"weatherText"`
	FreezingLevel       *float64 `json:"freezingLevel,omitempty"`
}

// DailyPoint is one normalized forecast day.
type DailyPoint struct {
	Date        string   `json:"date"`
	TempMax     *float64 `json:"tempMax"`
	TempMin     *float64 `json:"tempMin"`
	Snowfall    *float64 `json:"snowfall"`
	WindMax     *float64 `json:"windMax"`
	WeatherCode *int     `json:"weatherCode"`
	WeatherText string   `json:"weatherText"`
}

// ModelData is a successful fetch from one model.
type ModelData struct {
	Hourly []HourlyPoint
	Daily  []DailyPoint
	Raw    []byte
}

type Client struct {
	httpClient *http.Client
	models     []ModelSpec
	archiveURL string
	breakers   map[string]*gobreaker.CircuitBreaker
}

func NewClient() *Client {
	return NewClientWithModels(Models, ArchiveBaseURL)
}

// NewClientWithModels builds a client over a custom model list and archive
// endpoint; tests point this at local servers.
func NewClientWithModels(models []ModelSpec, archiveURL string) *Client {
	breakers := make(map[string]*gobreaker.CircuitBreaker, len(models))
	for _, spec := range models {
		breakers[spec.Name] = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        spec.Name,
			MaxRequests: 3,
			Interval:    time.Minute,
			Timeout:     2 * time.Minute,
		})
	}
	return &Client{
		httpClient: httputil.NewClient(),
		models:     models,
		archiveURL: archiveURL,
		breakers:   breakers,
	}
}

// apiResponse covers the shared parallel-array shape of all model endpoints.
type apiResponse struct {
	Hourly struct {
		Time                []string   `json:"time"`
		Temperature         []*float64 `json:"temperature_2m"`
		ApparentTemperature []*float64 `json:"apparent_temperature"`
		Snowfall            []*float64 `json:"snowfall"`
		Precipitation       []*float64 `json:"precipitation"`
		WindSpeed           []*float64 `json:"wind_speed_10m"`
		WindGusts           []*float64 `json:"wind_gusts_10m"`
		Humidity            []*int     `json:"relative_humidity_2m"`
		WeatherCode         []*int     `json:"weather_code"`
		FreezingLevel       []*float64 `json:"freezing_level_height"`
	} `json:"hourly"`
	Daily struct {
		Time        []string   `json:"time"`
		TempMax     []*float64 `json:"temperature_2m_max"`
		TempMin     []*float64 `json:"temperature_2m_min"`
		SnowfallSum []*float64 `json:"snowfall_sum"`
		WindMax     []*float64 `json:"wind_speed_10m_max"`
		WeatherCode []*int     `json:"weather_code"`
	} `json:"daily"`
}

// FetchModel fetches one model's forecast for the given coordinates. The
// result is unit-normalized regardless of whether the endpoint honors unit
// parameters.
func (c *Client) FetchModel(ctx context.Context, spec ModelSpec, lat, lon float64, tz string) (*ModelData, error) {
	params := url.Values{}
	params.Set("latitude", strconv.FormatFloat(lat, 'f', 4, 64))
	params.Set("longitude", strconv.FormatFloat(lon, 'f', 4, 64))
	params.Set("timezone", tz)
	params.Set("forecast_days", strconv.Itoa(spec.HorizonDays))

	hourlyVars := "temperature_2m,apparent_temperature,snowfall,precipitation,wind_speed_10m,wind_gusts_10m,relative_humidity_2m,weather_code"
	if spec.HasFreezingLevel {
		hourlyVars += ",freezing_level_height"
	}
	params.Set("hourly", hourlyVars)
	if spec.HasDaily {
		params.Set("daily", "temperature_2m_max,temperature_2m_min,snowfall_sum,wind_speed_10m_max,weather_code")
	}
	if spec.SupportsUnitParams {
		params.Set("temperature_unit", "fahrenheit")
		params.Set("wind_speed_unit", "mph")
		params.Set("precipitation_unit", "inch")
	}
	for k, v := range spec.ExtraParams {
		params.Set(k, v)
	}

	body, err := c.get(ctx, spec.Name, spec.BaseURL+"?"+params.Encode())
	if err != nil {
		return nil, err
	}

	var resp apiResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("unmarshal %s: %w", spec.Name, err)
	}
	if len(resp.Hourly.Time) == 0 {
		return nil, fmt.Errorf("%s: response missing hourly data", spec.Name)
	}

	data := &ModelData{Raw: body}
	for i, ts := range resp.Hourly.Time {
		p := HourlyPoint{
			Time:                ts,
			Temperature:         at(resp.Hourly.Temperature, i),
			ApparentTemperature: at(resp.Hourly.ApparentTemperature, i),
			Snowfall:            at(resp.Hourly.Snowfall, i),
			Precipitation:       at(resp.Hourly.Precipitation, i),
			WindSpeed:           at(resp.Hourly.WindSpeed, i),
			WindGusts:           at(resp.Hourly.WindGusts, i),
			Humidity:            atInt(resp.Hourly.Humidity, i),
			WeatherCode:         atInt(resp.Hourly.WeatherCode, i),
		}
		if spec.HasFreezingLevel {
			p.FreezingLevel = at(resp.Hourly.FreezingLevel, i)
		}
		if !spec.SupportsUnitParams {
			convertHourlyMetric(&p)
		}
		if p.WeatherCode != nil {
			p.WeatherText = WeatherCodeText(*p.WeatherCode)
		}
		data.Hourly = append(data.Hourly, p)
	}

	for i, ts := range resp.Daily.Time {
		d := DailyPoint{
			Date:        ts,
			TempMax:     at(resp.Daily.TempMax, i),
			TempMin:     at(resp.Daily.TempMin, i),
			Snowfall:    at(resp.Daily.SnowfallSum, i),
			WindMax:     at(resp.Daily.WindMax, i),
			WeatherCode: atInt(resp.Daily.WeatherCode, i),
		}
		if !spec.SupportsUnitParams {
			convertDailyMetric(&d)
		}
		if d.WeatherCode != nil {
			d.WeatherText = WeatherCodeText(*d.WeatherCode)
		}
		data.Daily = append(data.Daily, d)
	}

	return data, nil
}

func (c *Client) get(ctx context.Context, model, fullURL string) ([]byte, error) {
	breaker := c.breakers[model]
	fetch := func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("fetch %s: %w", model, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			b, _ := io.ReadAll(resp.Body)
			return nil, fmt.Errorf("fetch %s: status %d: %s", model, resp.StatusCode, string(b))
		}

		return io.ReadAll(resp.Body)
	}

	var body interface{}
	var err error
	if breaker != nil {
		body, err = breaker.Execute(fetch)
	} else {
		body, err = fetch()
	}
	if err != nil {
		metrics.ModelFetchesTotal.WithLabelValues(model, "error").Inc()
		return nil, err
	}
	metrics.ModelFetchesTotal.WithLabelValues(model, "ok").Inc()
	return body.([]byte), nil
}

func at(vs []*float64, i int) *float64 {
	if i < len(vs) {
		return vs[i]
	}
	return nil
}

func atInt(vs []*int, i int) *int {
	if i < len(vs) {
		return vs[i]
	}
	return nil
}

// convertHourlyMetric normalizes a metric-unit sample in place: Celsius to
// Fahrenheit, km/h to mph, cm snowfall to inches, mm precipitation to inches.
func convertHourlyMetric(p *HourlyPoint) {
	p.Temperature = cToF(p.Temperature)
	p.ApparentTemperature = cToF(p.ApparentTemperature)
	p.Snowfall = scale(p.Snowfall, 1/2.54)
	p.Precipitation = scale(p.Precipitation, 1/25.4)
	p.WindSpeed = scale(p.WindSpeed, 0.621371)
	p.WindGusts = scale(p.WindGusts, 0.621371)
}

func convertDailyMetric(d *DailyPoint) {
	d.TempMax = cToF(d.TempMax)
	d.TempMin = cToF(d.TempMin)
	d.Snowfall = scale(d.Snowfall, 1/2.54)
	d.WindMax = scale(d.WindMax, 0.621371)
}

func cToF(v *float64) *float64 {
	if v == nil {
		return nil
	}
	f := *v*9/5 + 32
	return &f
}

func scale(v *float64, factor float64) *float64 {
	if v == nil {
		return nil
	}
	s := *v * factor
	return &s
}
