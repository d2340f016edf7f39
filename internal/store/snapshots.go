package store

import (
	"database/sql"
	"fmt"

	"github.com/lox/powderline/internal/models"
)

// InsertSnapshot stores a fresh upstream payload and fills in its ID.
func (s *Store) InsertSnapshot(snap *models.ForecastSnapshot) error {
	result, err := s.db.Exec(`
		INSERT INTO forecast_snapshots (resort_id, source, payload, fetched_at, expires_at)
		VALUES (?, ?, ?, ?, ?)
	`, snap.ResortID, snap.Source, snap.Payload, snap.FetchedAt.UTC(), snap.ExpiresAt.UTC())
	if err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}
	snap.ID, err = result.LastInsertId()
	return err
}

// LatestSnapshot returns the most recently fetched snapshot for the resort
// and source, expired or not, or nil when none exists.
func (s *Store) LatestSnapshot(resortID int64, source string) (*models.ForecastSnapshot, error) {
	row := s.db.QueryRow(`
		SELECT id, resort_id, source, payload, fetched_at, expires_at
		FROM forecast_snapshots
		WHERE resort_id = ? AND source = ?
		ORDER BY fetched_at DESC
		LIMIT 1
	`, resortID, source)

	var snap models.ForecastSnapshot
	err := row.Scan(&snap.ID, &snap.ResortID, &snap.Source, &snap.Payload, &snap.FetchedAt, &snap.ExpiresAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &snap, nil
}

// ReplaceForecastRows regenerates the derived hourly and daily rows for a
// snapshot in one transaction. Rows for superseded snapshots of the same
// resort and source are removed along the way.
func (s *Store) ReplaceForecastRows(snap *models.ForecastSnapshot, hourly []models.HourlyForecast, daily []models.DailyForecast) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stale := `
		SELECT id FROM forecast_snapshots
		WHERE resort_id = ? AND source = ? AND id != ?`
	if _, err := tx.Exec(`DELETE FROM hourly_forecasts WHERE snapshot_id IN (`+stale+`)`,
		snap.ResortID, snap.Source, snap.ID); err != nil {
		return fmt.Errorf("delete stale hourly rows: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM daily_forecasts WHERE snapshot_id IN (`+stale+`)`,
		snap.ResortID, snap.Source, snap.ID); err != nil {
		return fmt.Errorf("delete stale daily rows: %w", err)
	}

	for _, h := range hourly {
		if _, err := tx.Exec(`
			INSERT INTO hourly_forecasts (snapshot_id, time, temp_f, feels_like_f, snowfall_in,
				precip_in, wind_mph, gust_mph, humidity_pct, weather_code, freezing_level_f)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, snap.ID, h.Time, h.TempF, h.FeelsLikeF, h.SnowfallIn,
			h.PrecipIn, h.WindMph, h.GustMph, h.HumidityPct, h.WeatherCode, h.FreezingLevelF); err != nil {
			return fmt.Errorf("insert hourly row: %w", err)
		}
	}
	for _, d := range daily {
		if _, err := tx.Exec(`
			INSERT INTO daily_forecasts (snapshot_id, date, temp_max_f, temp_min_f, snowfall_in, wind_max_mph, weather_code)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, snap.ID, d.Date, d.TempMaxF, d.TempMinF, d.SnowfallIn, d.WindMaxMph, d.WeatherCode); err != nil {
			return fmt.Errorf("insert daily row: %w", err)
		}
	}

	return tx.Commit()
}

// GetHourlyForecasts returns the derived hourly rows for a snapshot in time
// order.
func (s *Store) GetHourlyForecasts(snapshotID int64) ([]models.HourlyForecast, error) {
	rows, err := s.db.Query(`
		SELECT id, snapshot_id, time, temp_f, feels_like_f, snowfall_in,
			precip_in, wind_mph, gust_mph, humidity_pct, weather_code, freezing_level_f
		FROM hourly_forecasts
		WHERE snapshot_id = ?
		ORDER BY time
	`, snapshotID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.HourlyForecast
	for rows.Next() {
		var h models.HourlyForecast
		if err := rows.Scan(&h.ID, &h.SnapshotID, &h.Time, &h.TempF, &h.FeelsLikeF, &h.SnowfallIn,
			&h.PrecipIn, &h.WindMph, &h.GustMph, &h.HumidityPct, &h.WeatherCode, &h.FreezingLevelF); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

// GetDailyForecasts returns the derived daily rows for a snapshot in date
// order.
func (s *Store) GetDailyForecasts(snapshotID int64) ([]models.DailyForecast, error) {
	rows, err := s.db.Query(`
		SELECT id, snapshot_id, date, temp_max_f, temp_min_f, snowfall_in, wind_max_mph, weather_code
		FROM daily_forecasts
		WHERE snapshot_id = ?
		ORDER BY date
	`, snapshotID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.DailyForecast
	for rows.Next() {
		var d models.DailyForecast
		if err := rows.Scan(&d.ID, &d.SnapshotID, &d.Date, &d.TempMaxF, &d.TempMinF, &d.SnowfallIn, &d.WindMaxMph, &d.WeatherCode); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// CleanupExpiredSnapshots deletes snapshots whose TTL lapsed more than
// retentionDays ago, along with their derived forecast rows. The latest
// snapshot per resort and source survives regardless so stale fallback
// always has something to serve.
func (s *Store) CleanupExpiredSnapshots(retentionDays int) (int64, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	doomed := `
		SELECT id FROM forecast_snapshots
		WHERE expires_at < DATETIME('now', '-' || ? || ' days')
		AND id NOT IN (
			SELECT MAX(id) FROM forecast_snapshots GROUP BY resort_id, source
		)`
	if _, err := tx.Exec(`DELETE FROM hourly_forecasts WHERE snapshot_id IN (`+doomed+`)`, retentionDays); err != nil {
		return 0, err
	}
	if _, err := tx.Exec(`DELETE FROM daily_forecasts WHERE snapshot_id IN (`+doomed+`)`, retentionDays); err != nil {
		return 0, err
	}
	result, err := tx.Exec(`
		DELETE FROM forecast_snapshots
		WHERE expires_at < DATETIME('now', '-' || ? || ' days')
		AND id NOT IN (
			SELECT MAX(id) FROM forecast_snapshots GROUP BY resort_id, source
		)
	`, retentionDays)
	if err != nil {
		return 0, err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	return n, tx.Commit()
}
