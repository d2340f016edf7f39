package weather

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

const hourlyBody = `{
	"hourly": {
		"time": ["2026-01-10T00:00", "2026-01-10T01:00", "2026-01-11T00:00"],
		"temperature_2m": [20.0, 24.0, 18.0],
		"apparent_temperature": [15.0, 19.0, 12.0],
		"snowfall": [1.0, null, 0.5],
		"precipitation": [0.1, 0.0, 0.05],
		"wind_speed_10m": [10.0, 14.0, 8.0],
		"wind_gusts_10m": [18.0, 22.0, 12.0],
		"relative_humidity_2m": [80, 85, 90],
		"weather_code": [71, 73, 3],
		"freezing_level_height": [1200.0, 1250.0, 1100.0]
	},
	"daily": {
		"time": ["2026-01-10", "2026-01-11"],
		"temperature_2m_max": [24.0, 18.0],
		"temperature_2m_min": [20.0, 18.0],
		"snowfall_sum": [1.0, 0.5],
		"wind_speed_10m_max": [14.0, 8.0],
		"weather_code": [71, 3]
	}
}`

func jsonHandler(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}
}

func testSpec(name, baseURL string, unitParams bool) ModelSpec {
	return ModelSpec{
		Name:               name,
		BaseURL:            baseURL,
		HorizonDays:        2,
		HasDaily:           true,
		HasFreezingLevel:   true,
		SupportsUnitParams: unitParams,
	}
}

func TestFetchModel(t *testing.T) {
	srv := httptest.NewServer(jsonHandler(hourlyBody))
	defer srv.Close()

	c := NewClientWithModels([]ModelSpec{testSpec("gfs", srv.URL, true)}, srv.URL)
	data, err := c.FetchModel(context.Background(), c.models[0], 44.5, -110.8, "America/Denver")
	if err != nil {
		t.Fatalf("FetchModel: %v", err)
	}

	if len(data.Hourly) != 3 {
		t.Fatalf("hourly points = %d, want 3", len(data.Hourly))
	}
	p := data.Hourly[0]
	if p.Temperature == nil || *p.Temperature != 20.0 {
		t.Errorf("temperature = %v, want 20.0 untouched with unit params", p.Temperature)
	}
	if p.WeatherText != "Slight snow" {
		t.Errorf("weather text = %q, want Slight snow", p.WeatherText)
	}
	if data.Hourly[1].Snowfall != nil {
		t.Errorf("null snowfall sample should stay null, got %v", *data.Hourly[1].Snowfall)
	}
	if len(data.Daily) != 2 {
		t.Fatalf("daily points = %d, want 2", len(data.Daily))
	}
}

func TestFetchModelMetricConversion(t *testing.T) {
	srv := httptest.NewServer(jsonHandler(hourlyBody))
	defer srv.Close()

	spec := testSpec("ecmwf", srv.URL, false)
	spec.HasFreezingLevel = false
	c := NewClientWithModels([]ModelSpec{spec}, srv.URL)
	data, err := c.FetchModel(context.Background(), spec, 44.5, -110.8, "America/Denver")
	if err != nil {
		t.Fatalf("FetchModel: %v", err)
	}

	p := data.Hourly[0]
	if p.Temperature == nil || *p.Temperature != 68.0 {
		t.Errorf("temperature = %v, want 68.0 (20C)", p.Temperature)
	}
	if p.Snowfall == nil || *p.Snowfall < 0.393 || *p.Snowfall > 0.394 {
		t.Errorf("snowfall = %v, want ~0.3937 in (1cm)", p.Snowfall)
	}
	if p.WindSpeed == nil || *p.WindSpeed < 6.21 || *p.WindSpeed > 6.22 {
		t.Errorf("wind = %v, want ~6.21 mph (10km/h)", p.WindSpeed)
	}
	if p.FreezingLevel != nil {
		t.Errorf("freezing level should be absent for this model, got %v", *p.FreezingLevel)
	}
	d := data.Daily[0]
	if d.TempMax == nil || *d.TempMax != 75.2 {
		t.Errorf("daily max = %v, want 75.2 (24C)", d.TempMax)
	}
}

func TestFetchModelNoHourlyData(t *testing.T) {
	srv := httptest.NewServer(jsonHandler(`{"hourly": {"time": []}}`))
	defer srv.Close()

	c := NewClientWithModels([]ModelSpec{testSpec("gfs", srv.URL, true)}, srv.URL)
	if _, err := c.FetchModel(context.Background(), c.models[0], 44.5, -110.8, "UTC"); err == nil {
		t.Fatal("expected error for response without hourly data")
	}
}

func TestFetchAllModelsIsolatesFailures(t *testing.T) {
	good := httptest.NewServer(jsonHandler(hourlyBody))
	defer good.Close()
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusInternalServerError)
	}))
	defer bad.Close()
	archive := httptest.NewServer(jsonHandler(`{"daily": {"time": [], "snowfall_sum": []}}`))
	defer archive.Close()

	specs := []ModelSpec{
		testSpec("hrrr", good.URL, true),
		testSpec("gfs", bad.URL, true),
		testSpec("ecmwf", good.URL, false),
	}
	c := NewClientWithModels(specs, archive.URL)
	resp := c.FetchAllModels(context.Background(), 44.5, -110.8, "America/Denver")

	if len(resp.Models) != 3 {
		t.Fatalf("model slots = %d, want 3", len(resp.Models))
	}
	for _, slot := range resp.Models {
		switch slot.Model {
		case "gfs":
			if slot.Available {
				t.Error("failed model reported available")
			}
			if slot.Error == "" {
				t.Error("failed model slot missing error message")
			}
			if slot.Daily == nil {
				t.Error("failed model data should be an empty array, not null")
			}
		default:
			if !slot.Available {
				t.Errorf("%s unavailable: %s", slot.Model, slot.Error)
			}
			if len(slot.Daily) == 0 {
				t.Errorf("%s returned no days", slot.Model)
			}
		}
	}
	if resp.History == nil {
		t.Error("history should never be null")
	}
}

func TestFetchAllModelsHourly(t *testing.T) {
	good := httptest.NewServer(jsonHandler(hourlyBody))
	defer good.Close()

	c := NewClientWithModels([]ModelSpec{testSpec("hrrr", good.URL, true)}, good.URL)
	resp := c.FetchAllModelsHourly(context.Background(), 44.5, -110.8, "America/Denver")
	if len(resp.Models) != 1 || !resp.Models[0].Available {
		t.Fatalf("unexpected response: %+v", resp.Models)
	}
	if len(resp.Models[0].Hourly) != 3 {
		t.Errorf("hourly points = %d, want 3", len(resp.Models[0].Hourly))
	}
}

func TestDailyFromHourly(t *testing.T) {
	f := func(v float64) *float64 { return &v }
	points := []HourlyPoint{
		{Time: "2026-01-10T00:00", Snowfall: f(1.0), Temperature: f(20), WindSpeed: f(10)},
		{Time: "2026-01-10T01:00", Snowfall: f(0.5), Temperature: f(24), WindSpeed: f(14)},
		{Time: "2026-01-10T02:00", Snowfall: nil, Temperature: f(18), WindSpeed: nil},
		{Time: "2026-01-10T03:00", Snowfall: f(2.0), Temperature: nil, WindSpeed: f(8)},
		{Time: "2026-01-11T00:00", Snowfall: nil, Temperature: f(30)},
	}

	days := DailyFromHourly(points)
	if len(days) != 2 {
		t.Fatalf("days = %d, want 2", len(days))
	}
	d := days[0]
	if d.Date != "2026-01-10" {
		t.Errorf("date = %q", d.Date)
	}
	if d.Snowfall == nil || *d.Snowfall != 3.5 {
		t.Errorf("snowfall = %v, want 3.5 with nulls counted as zero", d.Snowfall)
	}
	if d.TempMax == nil || *d.TempMax != 24 || d.TempMin == nil || *d.TempMin != 18 {
		t.Errorf("temp range = %v..%v, want 18..24", d.TempMin, d.TempMax)
	}
	if d.WindMax == nil || *d.WindMax != 14 {
		t.Errorf("wind max = %v, want 14", d.WindMax)
	}
	if days[1].Snowfall != nil {
		t.Errorf("all-null day snowfall should stay null, got %v", *days[1].Snowfall)
	}

	// Summation is order-independent.
	reversed := make([]HourlyPoint, len(points))
	for i, p := range points {
		reversed[len(points)-1-i] = p
	}
	again := DailyFromHourly(reversed)
	if *again[0].Snowfall != 3.5 || *again[0].TempMax != 24 {
		t.Error("aggregation depends on input order")
	}
}

func TestWeatherCodeText(t *testing.T) {
	tests := []struct {
		code int
		want string
	}{
		{0, "Clear sky"},
		{71, "Slight snow"},
		{75, "Heavy snow"},
		{42, "Unknown"},
	}
	for _, tt := range tests {
		if got := WeatherCodeText(tt.code); got != tt.want {
			t.Errorf("WeatherCodeText(%d) = %q, want %q", tt.code, got, tt.want)
		}
	}
}
