package store

import (
	"database/sql"
	"fmt"
	"log"
	"time"
)

type migration struct {
	Version     int
	Description string
	SQL         string
}

var migrations = []migration{
	{
		Version:     1,
		Description: "Initial schema",
		SQL: `
CREATE TABLE IF NOT EXISTS resorts (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    slug TEXT NOT NULL UNIQUE,
    name TEXT NOT NULL,
    upstream_id TEXT,
    latitude REAL NOT NULL,
    longitude REAL NOT NULL,
    timezone TEXT NOT NULL,
    state TEXT,
    active BOOLEAN DEFAULT TRUE
);

CREATE TABLE IF NOT EXISTS resort_conditions (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    resort_id INTEGER NOT NULL REFERENCES resorts(id),
    scraped_on DATE NOT NULL,
    snow_depth_summit_cm REAL,
    snow_depth_base_cm REAL,
    new_snow_24h_cm REAL,
    new_snow_48h_cm REAL,
    new_snow_7d_cm REAL,
    lifts_open INTEGER,
    lifts_total INTEGER,
    runs_open INTEGER,
    runs_total INTEGER,
    terrain_open_km REAL,
    terrain_total_km REAL,
    terrain_open_pct INTEGER,
    is_open BOOLEAN DEFAULT FALSE,
    season_start TEXT,
    season_end TEXT,
    last_snowfall TEXT,
    conditions_label TEXT,
    first_chair TEXT,
    last_chair TEXT,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
    UNIQUE(resort_id, scraped_on)
);

CREATE TABLE IF NOT EXISTS resort_info (
    resort_id INTEGER PRIMARY KEY REFERENCES resorts(id),
    elevation_base_m INTEGER,
    elevation_summit_m INTEGER,
    vertical_drop_m INTEGER,
    terrain_total_km REAL,
    terrain_easy_km REAL,
    terrain_easy_pct INTEGER,
    terrain_interm_km REAL,
    terrain_interm_pct INTEGER,
    terrain_difficult_km REAL,
    terrain_difficult_pct INTEGER,
    lifts_gondola INTEGER,
    lifts_high_speed_chair INTEGER,
    lifts_fixed_chair INTEGER,
    lifts_surface INTEGER,
    lifts_carpet INTEGER,
    lifts_total INTEGER,
    runs_total INTEGER,
    updated_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS forecast_snapshots (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    resort_id INTEGER NOT NULL REFERENCES resorts(id),
    source TEXT NOT NULL,
    payload BLOB NOT NULL,
    fetched_at DATETIME NOT NULL,
    expires_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS hourly_forecasts (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    snapshot_id INTEGER NOT NULL REFERENCES forecast_snapshots(id),
    time TEXT NOT NULL,
    temp_f REAL,
    feels_like_f REAL,
    snowfall_in REAL,
    precip_in REAL,
    wind_mph REAL,
    gust_mph REAL,
    humidity_pct INTEGER,
    weather_code INTEGER,
    freezing_level_f REAL
);

CREATE TABLE IF NOT EXISTS daily_forecasts (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    snapshot_id INTEGER NOT NULL REFERENCES forecast_snapshots(id),
    date TEXT NOT NULL,
    temp_max_f REAL,
    temp_min_f REAL,
    snowfall_in REAL,
    wind_max_mph REAL,
    weather_code INTEGER
);

CREATE TABLE IF NOT EXISTS snow_depth_readings (
    resort_id INTEGER PRIMARY KEY REFERENCES resorts(id),
    depth_in REAL NOT NULL,
    source TEXT NOT NULL,
    source_detail TEXT,
    updated_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS radar_frames (
    frame_time DATETIME PRIMARY KEY,
    path TEXT NOT NULL,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS resort_photos (
    resort_id INTEGER PRIMARY KEY REFERENCES resorts(id),
    url TEXT NOT NULL,
    credit TEXT,
    updated_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS scrape_runs (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    started_at DATETIME NOT NULL,
    finished_at DATETIME,
    resort_id INTEGER REFERENCES resorts(id),
    page TEXT,
    http_status INTEGER,
    response_size_bytes INTEGER,
    fields_parsed INTEGER,
    success BOOLEAN DEFAULT FALSE,
    error_message TEXT
);

CREATE TABLE IF NOT EXISTS raw_payloads (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    scrape_run_id INTEGER REFERENCES scrape_runs(id),
    fetched_at DATETIME NOT NULL,
    source TEXT NOT NULL,
    resort_id INTEGER,
    payload_compressed BLOB NOT NULL,
    payload_hash TEXT UNIQUE,
    schema_version INTEGER DEFAULT 1
);

CREATE INDEX IF NOT EXISTS idx_conditions_resort_date ON resort_conditions(resort_id, scraped_on);
CREATE INDEX IF NOT EXISTS idx_snapshots_resort_source ON forecast_snapshots(resort_id, source, fetched_at);
CREATE INDEX IF NOT EXISTS idx_hourly_snapshot ON hourly_forecasts(snapshot_id);
CREATE INDEX IF NOT EXISTS idx_daily_snapshot ON daily_forecasts(snapshot_id);
CREATE INDEX IF NOT EXISTS idx_runs_started ON scrape_runs(started_at);
`,
	},
}

func (s *Store) Migrate() error {
	if err := s.ensureMigrationsTable(); err != nil {
		return fmt.Errorf("create migrations table: %w", err)
	}

	applied, err := s.getAppliedMigrations()
	if err != nil {
		return fmt.Errorf("read applied migrations: %w", err)
	}

	for _, m := range migrations {
		if applied[m.Version] {
			continue
		}

		log.Printf("migrations: applying %d: %s", m.Version, m.Description)

		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", m.Version, err)
		}

		if _, err := tx.Exec(m.SQL); err != nil {
			tx.Rollback()
			return fmt.Errorf("apply migration %d: %w", m.Version, err)
		}

		if _, err := tx.Exec(
			"INSERT INTO schema_migrations (version, description, applied_at) VALUES (?, ?, ?)",
			m.Version, m.Description, time.Now().UTC(),
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("record migration %d: %w", m.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", m.Version, err)
		}

		log.Printf("migrations: completed %d", m.Version)
	}

	return nil
}

func (s *Store) ensureMigrationsTable() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			description TEXT,
			applied_at DATETIME
		)
	`)
	return err
}

func (s *Store) getAppliedMigrations() (map[int]bool, error) {
	rows, err := s.db.Query("SELECT version FROM schema_migrations")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	applied := make(map[int]bool)
	for rows.Next() {
		var version int
		if err := rows.Scan(&version); err != nil {
			return nil, err
		}
		applied[version] = true
	}
	return applied, rows.Err()
}

func (s *Store) MigrationVersion() (int, error) {
	var version sql.NullInt64
	err := s.db.QueryRow("SELECT MAX(version) FROM schema_migrations").Scan(&version)
	if err != nil {
		return 0, err
	}
	if !version.Valid {
		return 0, nil
	}
	return int(version.Int64), nil
}
