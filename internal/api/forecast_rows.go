package api

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/lox/powderline/internal/models"
	"github.com/lox/powderline/internal/weather"
)

// storeDailyRows regenerates the daily forecast rows derived from a freshly
// stored snapshot payload. Rows come from the available model with the
// widest coverage; ties go to configured model order.
func (s *Server) storeDailyRows(snap *models.ForecastSnapshot) error {
	var resp weather.MultiModelResponse
	if err := json.Unmarshal(snap.Payload, &resp); err != nil {
		return fmt.Errorf("unmarshal forecast payload: %w", err)
	}

	var pts []weather.DailyPoint
	for _, m := range resp.Models {
		if m.Available && len(m.Daily) > len(pts) {
			pts = m.Daily
		}
	}

	daily := make([]models.DailyForecast, 0, len(pts))
	for _, p := range pts {
		daily = append(daily, models.DailyForecast{
			SnapshotID:  snap.ID,
			Date:        p.Date,
			TempMaxF:    toNullFloat(p.TempMax),
			TempMinF:    toNullFloat(p.TempMin),
			SnowfallIn:  toNullFloat(p.Snowfall),
			WindMaxMph:  toNullFloat(p.WindMax),
			WeatherCode: toNullInt(p.WeatherCode),
		})
	}
	return s.store.ReplaceForecastRows(snap, nil, daily)
}

func (s *Server) storeHourlyRows(snap *models.ForecastSnapshot) error {
	var resp weather.MultiModelHourlyResponse
	if err := json.Unmarshal(snap.Payload, &resp); err != nil {
		return fmt.Errorf("unmarshal hourly forecast payload: %w", err)
	}

	var pts []weather.HourlyPoint
	for _, m := range resp.Models {
		if m.Available && len(m.Hourly) > len(pts) {
			pts = m.Hourly
		}
	}

	hourly := make([]models.HourlyForecast, 0, len(pts))
	for _, p := range pts {
		hourly = append(hourly, models.HourlyForecast{
			SnapshotID:     snap.ID,
			Time:           p.Time,
			TempF:          toNullFloat(p.Temperature),
			FeelsLikeF:     toNullFloat(p.ApparentTemperature),
			SnowfallIn:     toNullFloat(p.Snowfall),
			PrecipIn:       toNullFloat(p.Precipitation),
			WindMph:        toNullFloat(p.WindSpeed),
			GustMph:        toNullFloat(p.WindGusts),
			HumidityPct:    toNullInt(p.Humidity),
			WeatherCode:    toNullInt(p.WeatherCode),
			FreezingLevelF: toNullFloat(p.FreezingLevel),
		})
	}
	return s.store.ReplaceForecastRows(snap, hourly, nil)
}

func toNullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func toNullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}
