package weather

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestSeasonFor(t *testing.T) {
	tests := []struct {
		ref       time.Time
		wantYear  int
		wantStart string
		wantEnd   string
	}{
		{date(2026, time.January, 15), 2025, "2025-11-01", "2026-04-30"},
		{date(2025, time.November, 1), 2025, "2025-11-01", "2026-04-30"},
		{date(2025, time.October, 31), 2024, "2024-11-01", "2025-04-30"},
		{date(2026, time.December, 25), 2026, "2026-11-01", "2027-04-30"},
	}
	for _, tt := range tests {
		w := SeasonFor(tt.ref)
		if w.StartYear != tt.wantYear {
			t.Errorf("SeasonFor(%s).StartYear = %d, want %d", tt.ref.Format("2006-01-02"), w.StartYear, tt.wantYear)
		}
		if got := w.Start.Format("2006-01-02"); got != tt.wantStart {
			t.Errorf("SeasonFor(%s).Start = %s, want %s", tt.ref.Format("2006-01-02"), got, tt.wantStart)
		}
		if got := w.End.Format("2006-01-02"); got != tt.wantEnd {
			t.Errorf("SeasonFor(%s).End = %s, want %s", tt.ref.Format("2006-01-02"), got, tt.wantEnd)
		}
	}
}

func TestDayOfSeason(t *testing.T) {
	w := SeasonFor(date(2026, time.January, 15))
	tests := []struct {
		d    time.Time
		want int
	}{
		{date(2025, time.November, 1), 0},
		{date(2025, time.December, 1), 30},
		{date(2026, time.January, 1), 61},
	}
	for _, tt := range tests {
		if got := w.DayOfSeason(tt.d); got != tt.want {
			t.Errorf("DayOfSeason(%s) = %d, want %d", tt.d.Format("2006-01-02"), got, tt.want)
		}
	}
}

func TestCumulativeSeries(t *testing.T) {
	f := func(v float64) *float64 { return &v }
	w := SeasonFor(date(2025, time.December, 5))
	days := []DailySnow{
		{Date: "2025-11-01", SnowfallCm: f(10.0)},
		{Date: "2025-11-02", SnowfallCm: nil},
		{Date: "2025-11-03", SnowfallCm: f(25.4)},
	}

	points := CumulativeSeries(days, w)
	if len(points) != 3 {
		t.Fatalf("points = %d, want 3 with null days still emitted", len(points))
	}
	if points[0].DayOfSeason != 0 || points[0].CumulativeIn != 3.9 {
		t.Errorf("day 0 = %+v, want offset 0, 3.9 in", points[0])
	}
	if points[1].CumulativeIn != 3.9 {
		t.Errorf("null day should carry total forward, got %v", points[1].CumulativeIn)
	}
	if points[2].DayOfSeason != 2 || points[2].CumulativeIn != 13.9 {
		t.Errorf("day 2 = %+v, want offset 2, 13.9 in", points[2])
	}
}

func TestPercentOf(t *testing.T) {
	if got := percentOf(10, 0); got != 0 {
		t.Errorf("zero denominator = %d, want 0", got)
	}
	if got := percentOf(0, 0); got != 0 {
		t.Errorf("zero over zero = %d, want 0", got)
	}
	if got := percentOf(15, 10); got != 150 {
		t.Errorf("percentOf(15, 10) = %d, want 150", got)
	}
}

// archiveStub serves a fixed daily snowfall per day for whatever range the
// client asks for, so all three season fetches get consistent data.
func archiveStub(t *testing.T, cmPerDay float64) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start, err := time.Parse("2006-01-02", r.URL.Query().Get("start_date"))
		if err != nil {
			t.Errorf("bad start_date: %v", err)
		}
		end, err := time.Parse("2006-01-02", r.URL.Query().Get("end_date"))
		if err != nil {
			t.Errorf("bad end_date: %v", err)
		}
		times := "["
		sums := "["
		for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
			if times != "[" {
				times += ","
				sums += ","
			}
			times += fmt.Sprintf("%q", d.Format("2006-01-02"))
			sums += fmt.Sprintf("%g", cmPerDay)
		}
		times += "]"
		sums += "]"
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"daily": {"time": %s, "snowfall_sum": %s}}`, times, sums)
	}))
}

func TestCompareSeasons(t *testing.T) {
	srv := archiveStub(t, 2.54)
	defer srv.Close()

	c := NewClientWithModels(nil, srv.URL)
	today := date(2025, time.December, 1)
	cmp, err := c.CompareSeasons(context.Background(), 44.5, -110.8, today)
	if err != nil {
		t.Fatalf("CompareSeasons: %v", err)
	}

	if cmp.SeasonStartYear != 2025 {
		t.Errorf("season start year = %d, want 2025", cmp.SeasonStartYear)
	}
	// Nov 1 through Dec 1 inclusive is 31 days at 1 in/day.
	if len(cmp.Current) != 31 {
		t.Errorf("current points = %d, want 31", len(cmp.Current))
	}
	if cmp.CurrentTotalIn != 31 {
		t.Errorf("current total = %v, want 31", cmp.CurrentTotalIn)
	}
	if len(cmp.LastToDate) != 31 {
		t.Errorf("last-to-date points = %d, want 31", len(cmp.LastToDate))
	}
	if cmp.PercentOfLastSeason != 100 {
		t.Errorf("percent = %d, want 100", cmp.PercentOfLastSeason)
	}
	// Full prior season is Nov 1 2024 through Apr 30 2025.
	if len(cmp.LastFull) != 181 {
		t.Errorf("last full points = %d, want 181", len(cmp.LastFull))
	}
	if cmp.Current[len(cmp.Current)-1].DayOfSeason != 30 {
		t.Errorf("final current offset = %d, want 30 for Dec 1", cmp.Current[len(cmp.Current)-1].DayOfSeason)
	}
}
