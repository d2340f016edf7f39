package weather

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/lox/powderline/internal/extract"
)

// SeasonWindow is the canonical Nov 1 → Apr 30 range for a season-start
// year. It is derived from a reference date, never stored.
type SeasonWindow struct {
	StartYear int
	Start     time.Time
	End       time.Time
}

// SeasonFor maps a reference date to its season window: the season-start
// year is the reference year when the month is November or later, otherwise
// the previous year. Pure so the Nov boundary is testable without a clock.
func SeasonFor(ref time.Time) SeasonWindow {
	year := ref.Year()
	if ref.Month() < time.November {
		year--
	}
	return SeasonWindow{
		StartYear: year,
		Start:     time.Date(year, time.November, 1, 0, 0, 0, 0, time.UTC),
		End:       time.Date(year+1, time.April, 30, 0, 0, 0, 0, time.UTC),
	}
}

// Previous returns the same calendar window one year earlier.
func (w SeasonWindow) Previous() SeasonWindow {
	return SeasonWindow{
		StartYear: w.StartYear - 1,
		Start:     w.Start.AddDate(-1, 0, 0),
		End:       w.End.AddDate(-1, 0, 0),
	}
}

// DayOfSeason is the integer offset of date from the window start, so Dec 1
// is day 30 for a Nov 1 start regardless of calendar year.
func (w SeasonWindow) DayOfSeason(date time.Time) int {
	d := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	return int(d.Sub(w.Start).Hours() / 24)
}

// SeasonPoint is one day of a cumulative snowfall series on the shared
// day-of-season axis.
type SeasonPoint struct {
	DayOfSeason  int     `json:"dayOfSeason"`
	Date         string  `json:"date"`
	CumulativeIn float64 `json:"cumulativeIn"`
}

// CumulativeSeries converts a daily snowfall series (cm) into a cumulative
// running total in inches indexed by day offset from seasonStart. Null days
// contribute zero but still emit a point so the axis has no gaps.
func CumulativeSeries(days []DailySnow, window SeasonWindow) []SeasonPoint {
	var total float64
	points := make([]SeasonPoint, 0, len(days))
	for _, d := range days {
		if d.SnowfallCm != nil {
			total += extract.CmToInches(*d.SnowfallCm)
		}
		date, err := time.Parse("2006-01-02", d.Date)
		if err != nil {
			continue
		}
		points = append(points, SeasonPoint{
			DayOfSeason:  window.DayOfSeason(date),
			Date:         d.Date,
			CumulativeIn: math.Round(total*10) / 10,
		})
	}
	return points
}

// SeasonComparison overlays the in-progress season on the prior one using
// the shared day-of-season axis.
type SeasonComparison struct {
	SeasonStartYear     int           `json:"seasonStartYear"`
	Current             []SeasonPoint `json:"current"`
	LastToDate          []SeasonPoint `json:"lastToDate"`
	LastFull            []SeasonPoint `json:"lastFull"`
	CurrentTotalIn      float64       `json:"currentTotalIn"`
	LastToDateTotalIn   float64       `json:"lastToDateTotalIn"`
	PercentOfLastSeason int           `json:"percentOfLastSeason"`
}

// CompareSeasons fetches current-to-date, last-season-to-equivalent-date and
// last-season-full snowfall in parallel and builds the overlay. The
// equivalent date is last season's start plus the current season's elapsed
// day count.
func (c *Client) CompareSeasons(ctx context.Context, lat, lon float64, today time.Time) (*SeasonComparison, error) {
	current := SeasonFor(today)
	last := current.Previous()

	currentEnd := current.End
	todayDate := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
	if todayDate.Before(currentEnd) {
		currentEnd = todayDate
	}
	elapsed := current.DayOfSeason(currentEnd)
	lastEquivalent := last.Start.AddDate(0, 0, elapsed)

	var wg sync.WaitGroup
	var curDays, lastToDateDays, lastFullDays []DailySnow
	var curErr, lastToDateErr, lastFullErr error

	wg.Add(3)
	go func() {
		defer wg.Done()
		curDays, curErr = c.FetchArchiveSnowfall(ctx, lat, lon, current.Start, currentEnd)
	}()
	go func() {
		defer wg.Done()
		lastToDateDays, lastToDateErr = c.FetchArchiveSnowfall(ctx, lat, lon, last.Start, lastEquivalent)
	}()
	go func() {
		defer wg.Done()
		lastFullDays, lastFullErr = c.FetchArchiveSnowfall(ctx, lat, lon, last.Start, last.End)
	}()
	wg.Wait()

	// The comparison is meaningless without the current season; the
	// last-season series degrade to empty overlays.
	if curErr != nil {
		return nil, fmt.Errorf("fetch current season: %w", curErr)
	}
	if lastToDateErr != nil {
		lastToDateDays = nil
	}
	if lastFullErr != nil {
		lastFullDays = nil
	}

	cmp := &SeasonComparison{
		SeasonStartYear: current.StartYear,
		Current:         CumulativeSeries(curDays, current),
		LastToDate:      CumulativeSeries(lastToDateDays, last),
		LastFull:        CumulativeSeries(lastFullDays, last),
	}
	if n := len(cmp.Current); n > 0 {
		cmp.CurrentTotalIn = cmp.Current[n-1].CumulativeIn
	}
	if n := len(cmp.LastToDate); n > 0 {
		cmp.LastToDateTotalIn = cmp.LastToDate[n-1].CumulativeIn
	}
	cmp.PercentOfLastSeason = percentOf(cmp.CurrentTotalIn, cmp.LastToDateTotalIn)
	return cmp, nil
}

// percentOf is 0 when the denominator is 0, never NaN or infinite.
func percentOf(current, lastToDate float64) int {
	if lastToDate == 0 {
		return 0
	}
	return int(math.Round(current / lastToDate * 100))
}
