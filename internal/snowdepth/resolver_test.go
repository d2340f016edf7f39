package snowdepth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/lox/powderline/internal/models"
)

const awdbBody = `[{
	"stationTriplet": "366:UT:SNTL",
	"data": [{
		"values": [
			{"date": "2026-01-08", "value": 40.0},
			{"date": "2026-01-09", "value": 42.0},
			{"date": "2026-01-10", "value": null}
		]
	}]
}]`

const depthBody = `{
	"hourly": {
		"time": ["2026-01-10T00:00", "2026-01-10T01:00", "2026-01-10T02:00"],
		"snow_depth": [1.0, 1.05, null]
	}
}`

func testResort() models.Resort {
	return models.Resort{
		ID:        1,
		Slug:      "alta",
		Latitude:  40.58,
		Longitude: -111.63,
		Timezone:  "America/Denver",
	}
}

func TestResolveSnotel(t *testing.T) {
	awdb := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("elements"); got != "SNWD" {
			t.Errorf("elements = %q, want SNWD", got)
		}
		w.Write([]byte(awdbBody))
	}))
	defer awdb.Close()

	r := New(Stations{"alta": "366:UT:SNTL"})
	r.awdbURL = awdb.URL

	reading, err := r.Resolve(context.Background(), testResort())
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if reading.Source != SourceSnotel {
		t.Errorf("source = %q, want snotel", reading.Source)
	}
	if reading.DepthIn != 42.0 {
		t.Errorf("depth = %v, want latest non-null 42.0", reading.DepthIn)
	}
	if !strings.Contains(reading.SourceDetail, "366:UT:SNTL") {
		t.Errorf("detail = %q, want station triplet", reading.SourceDetail)
	}
}

func TestResolveFallsBackToModeled(t *testing.T) {
	awdb := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer awdb.Close()
	meteo := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(depthBody))
	}))
	defer meteo.Close()

	r := New(Stations{"alta": "366:UT:SNTL"})
	r.awdbURL = awdb.URL
	r.fallbackURL = meteo.URL

	reading, err := r.Resolve(context.Background(), testResort())
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if reading.Source != SourceOpenMeteo {
		t.Errorf("source = %q, want open-meteo fallback", reading.Source)
	}
	// 1.05 m is roughly 41.3 inches.
	if reading.DepthIn < 41.3 || reading.DepthIn > 41.4 {
		t.Errorf("depth = %v, want ~41.34", reading.DepthIn)
	}
}

func TestResolveUnmappedResortSkipsSnotel(t *testing.T) {
	meteo := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(depthBody))
	}))
	defer meteo.Close()

	r := New(Stations{})
	r.awdbURL = "http://127.0.0.1:0" // would fail if contacted
	r.fallbackURL = meteo.URL

	reading, err := r.Resolve(context.Background(), testResort())
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if reading.Source != SourceOpenMeteo {
		t.Errorf("source = %q, want open-meteo for unmapped resort", reading.Source)
	}
}

func TestResolveNothingAvailable(t *testing.T) {
	empty := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"hourly": {"time": [], "snow_depth": []}}`))
	}))
	defer empty.Close()

	r := New(Stations{})
	r.fallbackURL = empty.URL
	if _, err := r.Resolve(context.Background(), testResort()); err == nil {
		t.Fatal("want error when no depth is available from any source")
	}
}
