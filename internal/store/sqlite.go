package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/lox/powderline/internal/models"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) UpsertResort(r models.Resort) error {
	_, err := s.db.Exec(`
		INSERT INTO resorts (slug, name, upstream_id, latitude, longitude, timezone, state, active)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(slug) DO UPDATE SET
			name = excluded.name,
			upstream_id = excluded.upstream_id,
			latitude = excluded.latitude,
			longitude = excluded.longitude,
			timezone = excluded.timezone,
			state = excluded.state,
			active = excluded.active
	`, r.Slug, r.Name, r.UpstreamID, r.Latitude, r.Longitude, r.Timezone, r.State, r.Active)
	return err
}

func (s *Store) GetActiveResorts() ([]models.Resort, error) {
	rows, err := s.db.Query(`
		SELECT id, slug, name, upstream_id, latitude, longitude, timezone, state, active
		FROM resorts WHERE active = TRUE ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var resorts []models.Resort
	for rows.Next() {
		var r models.Resort
		if err := rows.Scan(&r.ID, &r.Slug, &r.Name, &r.UpstreamID, &r.Latitude, &r.Longitude, &r.Timezone, &r.State, &r.Active); err != nil {
			return nil, err
		}
		resorts = append(resorts, r)
	}
	return resorts, rows.Err()
}

// GetResortBySlug returns nil without error when the slug is unknown.
func (s *Store) GetResortBySlug(slug string) (*models.Resort, error) {
	row := s.db.QueryRow(`
		SELECT id, slug, name, upstream_id, latitude, longitude, timezone, state, active
		FROM resorts WHERE slug = ?
	`, slug)

	var r models.Resort
	err := row.Scan(&r.ID, &r.Slug, &r.Name, &r.UpstreamID, &r.Latitude, &r.Longitude, &r.Timezone, &r.State, &r.Active)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// InsertConditions appends one day of scraped conditions. A second scrape on
// the same date is silently skipped so the first reading of the day wins;
// the bool reports whether a row was written.
func (s *Store) InsertConditions(c models.ResortConditions) (bool, error) {
	result, err := s.db.Exec(`
		INSERT INTO resort_conditions (
			resort_id, scraped_on,
			snow_depth_summit_cm, snow_depth_base_cm,
			new_snow_24h_cm, new_snow_48h_cm, new_snow_7d_cm,
			lifts_open, lifts_total, runs_open, runs_total,
			terrain_open_km, terrain_total_km, terrain_open_pct,
			is_open, season_start, season_end, last_snowfall,
			conditions_label, first_chair, last_chair
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(resort_id, scraped_on) DO NOTHING
	`, c.ResortID, c.ScrapedOn.Format("2006-01-02"),
		c.SnowDepthSummitCm, c.SnowDepthBaseCm,
		c.NewSnow24hCm, c.NewSnow48hCm, c.NewSnow7dCm,
		c.LiftsOpen, c.LiftsTotal, c.RunsOpen, c.RunsTotal,
		c.TerrainOpenKm, c.TerrainTotalKm, c.TerrainOpenPct,
		c.IsOpen, c.SeasonStart, c.SeasonEnd, c.LastSnowfall,
		c.ConditionsLabel, c.FirstChair, c.LastChair)
	if err != nil {
		return false, fmt.Errorf("insert conditions: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// GetLatestConditions returns nil without error when no scrape has stored
// conditions for the resort yet.
func (s *Store) GetLatestConditions(resortID int64) (*models.ResortConditions, error) {
	row := s.db.QueryRow(`
		SELECT id, resort_id, scraped_on,
			snow_depth_summit_cm, snow_depth_base_cm,
			new_snow_24h_cm, new_snow_48h_cm, new_snow_7d_cm,
			lifts_open, lifts_total, runs_open, runs_total,
			terrain_open_km, terrain_total_km, terrain_open_pct,
			is_open, season_start, season_end, last_snowfall,
			conditions_label, first_chair, last_chair, created_at
		FROM resort_conditions
		WHERE resort_id = ?
		ORDER BY scraped_on DESC
		LIMIT 1
	`, resortID)

	var c models.ResortConditions
	var scrapedOn string
	err := row.Scan(&c.ID, &c.ResortID, &scrapedOn,
		&c.SnowDepthSummitCm, &c.SnowDepthBaseCm,
		&c.NewSnow24hCm, &c.NewSnow48hCm, &c.NewSnow7dCm,
		&c.LiftsOpen, &c.LiftsTotal, &c.RunsOpen, &c.RunsTotal,
		&c.TerrainOpenKm, &c.TerrainTotalKm, &c.TerrainOpenPct,
		&c.IsOpen, &c.SeasonStart, &c.SeasonEnd, &c.LastSnowfall,
		&c.ConditionsLabel, &c.FirstChair, &c.LastChair, &c.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	c.ScrapedOn, err = time.Parse("2006-01-02", scrapedOn[:10])
	if err != nil {
		return nil, fmt.Errorf("parse scraped_on %q: %w", scrapedOn, err)
	}
	return &c, nil
}

func (s *Store) GetConditionsHistory(resortID int64, days int) ([]models.ResortConditions, error) {
	rows, err := s.db.Query(`
		SELECT id, resort_id, scraped_on,
			snow_depth_summit_cm, snow_depth_base_cm,
			new_snow_24h_cm, new_snow_48h_cm, new_snow_7d_cm,
			lifts_open, lifts_total, runs_open, runs_total,
			terrain_open_km, terrain_total_km, terrain_open_pct,
			is_open, season_start, season_end, last_snowfall,
			conditions_label, first_chair, last_chair, created_at
		FROM resort_conditions
		WHERE resort_id = ? AND scraped_on >= DATE('now', '-' || ? || ' days')
		ORDER BY scraped_on
	`, resortID, days)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var history []models.ResortConditions
	for rows.Next() {
		var c models.ResortConditions
		var scrapedOn string
		if err := rows.Scan(&c.ID, &c.ResortID, &scrapedOn,
			&c.SnowDepthSummitCm, &c.SnowDepthBaseCm,
			&c.NewSnow24hCm, &c.NewSnow48hCm, &c.NewSnow7dCm,
			&c.LiftsOpen, &c.LiftsTotal, &c.RunsOpen, &c.RunsTotal,
			&c.TerrainOpenKm, &c.TerrainTotalKm, &c.TerrainOpenPct,
			&c.IsOpen, &c.SeasonStart, &c.SeasonEnd, &c.LastSnowfall,
			&c.ConditionsLabel, &c.FirstChair, &c.LastChair, &c.CreatedAt); err != nil {
			return nil, err
		}
		c.ScrapedOn, _ = time.Parse("2006-01-02", scrapedOn[:10])
		history = append(history, c)
	}
	return history, rows.Err()
}

func (s *Store) UpsertResortInfo(info models.ResortInfo) error {
	_, err := s.db.Exec(`
		INSERT INTO resort_info (
			resort_id, elevation_base_m, elevation_summit_m, vertical_drop_m,
			terrain_total_km, terrain_easy_km, terrain_easy_pct,
			terrain_interm_km, terrain_interm_pct,
			terrain_difficult_km, terrain_difficult_pct,
			lifts_gondola, lifts_high_speed_chair, lifts_fixed_chair,
			lifts_surface, lifts_carpet, lifts_total, runs_total, updated_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(resort_id) DO UPDATE SET
			elevation_base_m = excluded.elevation_base_m,
			elevation_summit_m = excluded.elevation_summit_m,
			vertical_drop_m = excluded.vertical_drop_m,
			terrain_total_km = excluded.terrain_total_km,
			terrain_easy_km = excluded.terrain_easy_km,
			terrain_easy_pct = excluded.terrain_easy_pct,
			terrain_interm_km = excluded.terrain_interm_km,
			terrain_interm_pct = excluded.terrain_interm_pct,
			terrain_difficult_km = excluded.terrain_difficult_km,
			terrain_difficult_pct = excluded.terrain_difficult_pct,
			lifts_gondola = excluded.lifts_gondola,
			lifts_high_speed_chair = excluded.lifts_high_speed_chair,
			lifts_fixed_chair = excluded.lifts_fixed_chair,
			lifts_surface = excluded.lifts_surface,
			lifts_carpet = excluded.lifts_carpet,
			lifts_total = excluded.lifts_total,
			runs_total = excluded.runs_total,
			updated_at = excluded.updated_at
	`, info.ResortID, info.ElevationBaseM, info.ElevationSummitM, info.VerticalDropM,
		info.TerrainTotalKm, info.TerrainEasyKm, info.TerrainEasyPct,
		info.TerrainIntermKm, info.TerrainIntermPct,
		info.TerrainDifficultKm, info.TerrainDifficultPct,
		info.LiftsGondola, info.LiftsHighSpeedChair, info.LiftsFixedChair,
		info.LiftsSurface, info.LiftsCarpet, info.LiftsTotal, info.RunsTotal,
		info.UpdatedAt)
	return err
}

func (s *Store) GetResortInfo(resortID int64) (*models.ResortInfo, error) {
	row := s.db.QueryRow(`
		SELECT resort_id, elevation_base_m, elevation_summit_m, vertical_drop_m,
			terrain_total_km, terrain_easy_km, terrain_easy_pct,
			terrain_interm_km, terrain_interm_pct,
			terrain_difficult_km, terrain_difficult_pct,
			lifts_gondola, lifts_high_speed_chair, lifts_fixed_chair,
			lifts_surface, lifts_carpet, lifts_total, runs_total, updated_at
		FROM resort_info WHERE resort_id = ?
	`, resortID)

	var info models.ResortInfo
	err := row.Scan(&info.ResortID, &info.ElevationBaseM, &info.ElevationSummitM, &info.VerticalDropM,
		&info.TerrainTotalKm, &info.TerrainEasyKm, &info.TerrainEasyPct,
		&info.TerrainIntermKm, &info.TerrainIntermPct,
		&info.TerrainDifficultKm, &info.TerrainDifficultPct,
		&info.LiftsGondola, &info.LiftsHighSpeedChair, &info.LiftsFixedChair,
		&info.LiftsSurface, &info.LiftsCarpet, &info.LiftsTotal, &info.RunsTotal,
		&info.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &info, nil
}

func (s *Store) UpsertSnowDepth(r models.SnowDepthReading) error {
	_, err := s.db.Exec(`
		INSERT INTO snow_depth_readings (resort_id, depth_in, source, source_detail, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(resort_id) DO UPDATE SET
			depth_in = excluded.depth_in,
			source = excluded.source,
			source_detail = excluded.source_detail,
			updated_at = excluded.updated_at
	`, r.ResortID, r.DepthIn, r.Source, r.SourceDetail, r.UpdatedAt)
	return err
}

func (s *Store) GetSnowDepth(resortID int64) (*models.SnowDepthReading, error) {
	row := s.db.QueryRow(`
		SELECT resort_id, depth_in, source, source_detail, updated_at
		FROM snow_depth_readings WHERE resort_id = ?
	`, resortID)

	var r models.SnowDepthReading
	var detail sql.NullString
	err := row.Scan(&r.ResortID, &r.DepthIn, &r.Source, &detail, &r.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	r.SourceDetail = detail.String
	return &r, nil
}

func (s *Store) UpsertRadarFrame(f models.RadarFrame) error {
	_, err := s.db.Exec(`
		INSERT INTO radar_frames (frame_time, path)
		VALUES (?, ?)
		ON CONFLICT(frame_time) DO UPDATE SET path = excluded.path
	`, f.FrameTime.UTC(), f.Path)
	return err
}

func (s *Store) GetRecentRadarFrames(limit int) ([]models.RadarFrame, error) {
	rows, err := s.db.Query(`
		SELECT frame_time, path, created_at
		FROM radar_frames ORDER BY frame_time DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var frames []models.RadarFrame
	for rows.Next() {
		var f models.RadarFrame
		if err := rows.Scan(&f.FrameTime, &f.Path, &f.CreatedAt); err != nil {
			return nil, err
		}
		frames = append(frames, f)
	}
	return frames, rows.Err()
}

func (s *Store) UpsertResortPhoto(p models.ResortPhoto) error {
	_, err := s.db.Exec(`
		INSERT INTO resort_photos (resort_id, url, credit, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(resort_id) DO UPDATE SET
			url = excluded.url,
			credit = excluded.credit,
			updated_at = excluded.updated_at
	`, p.ResortID, p.URL, p.Credit, p.UpdatedAt)
	return err
}

func (s *Store) GetResortPhoto(resortID int64) (*models.ResortPhoto, error) {
	row := s.db.QueryRow(`
		SELECT resort_id, url, credit, updated_at
		FROM resort_photos WHERE resort_id = ?
	`, resortID)

	var p models.ResortPhoto
	err := row.Scan(&p.ResortID, &p.URL, &p.Credit, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}
