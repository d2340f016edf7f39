package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"
)

// DailySnow is one archived day of snowfall, upstream-native centimeters.
type DailySnow struct {
	Date       string   `json:"date"`
	SnowfallCm *float64 `json:"snowfallCm"`
}

type archiveResponse struct {
	Daily struct {
		Time        []string   `json:"time"`
		SnowfallSum []*float64 `json:"snowfall_sum"`
	} `json:"daily"`
}

// FetchArchiveSnowfall fetches day-by-day historical snowfall for an
// arbitrary date range from the archive endpoint. Values stay in
// centimeters; season aggregation owns the inch conversion.
func (c *Client) FetchArchiveSnowfall(ctx context.Context, lat, lon float64, start, end time.Time) ([]DailySnow, error) {
	params := url.Values{}
	params.Set("latitude", strconv.FormatFloat(lat, 'f', 4, 64))
	params.Set("longitude", strconv.FormatFloat(lon, 'f', 4, 64))
	params.Set("start_date", start.Format("2006-01-02"))
	params.Set("end_date", end.Format("2006-01-02"))
	params.Set("daily", "snowfall_sum")
	params.Set("timezone", "auto")

	base := c.archiveURL
	if base == "" {
		base = ArchiveBaseURL
	}
	body, err := c.get(ctx, "archive", base+"?"+params.Encode())
	if err != nil {
		return nil, err
	}

	var resp archiveResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("unmarshal archive: %w", err)
	}

	days := make([]DailySnow, 0, len(resp.Daily.Time))
	for i, ts := range resp.Daily.Time {
		days = append(days, DailySnow{
			Date:       ts,
			SnowfallCm: at(resp.Daily.SnowfallSum, i),
		})
	}
	return days, nil
}
