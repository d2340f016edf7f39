package models

import (
	"database/sql"
	"time"
)

type Resort struct {
	ID         int64
	Slug       string
	Name       string
	UpstreamID string // skiresort.info path segment; empty when the resort has no scrape source
	Latitude   float64
	Longitude  float64
	Timezone   string
	State      string
	Active     bool
}

// ResortConditions is one scrape of the daily-changing numbers. Rows are
// append-only: every scrape inserts, nothing is ever updated.
type ResortConditions struct {
	ID                int64
	ResortID          int64
	ScrapedOn         time.Time // date component only, UTC
	SnowDepthSummitCm sql.NullFloat64
	SnowDepthBaseCm   sql.NullFloat64
	NewSnow24hCm      sql.NullFloat64
	NewSnow48hCm      sql.NullFloat64
	NewSnow7dCm       sql.NullFloat64
	LiftsOpen         sql.NullInt64
	LiftsTotal        sql.NullInt64
	RunsOpen          sql.NullInt64
	RunsTotal         sql.NullInt64
	TerrainOpenKm     sql.NullFloat64
	TerrainTotalKm    sql.NullFloat64
	TerrainOpenPct    sql.NullInt64
	IsOpen            bool
	SeasonStart       sql.NullString // YYYY-MM-DD
	SeasonEnd         sql.NullString
	LastSnowfall      sql.NullString
	ConditionsLabel   sql.NullString
	FirstChair        sql.NullString // e.g. "08:30"
	LastChair         sql.NullString
	CreatedAt         time.Time
}

// ResortInfo holds the static resort numbers. One row per resort, upserted
// in place on every successful scrape.
type ResortInfo struct {
	ResortID            int64
	ElevationBaseM      sql.NullInt64
	ElevationSummitM    sql.NullInt64
	VerticalDropM       sql.NullInt64
	TerrainTotalKm      sql.NullFloat64
	TerrainEasyKm       sql.NullFloat64
	TerrainEasyPct      sql.NullInt64
	TerrainIntermKm     sql.NullFloat64
	TerrainIntermPct    sql.NullInt64
	TerrainDifficultKm  sql.NullFloat64
	TerrainDifficultPct sql.NullInt64
	LiftsGondola        sql.NullInt64
	LiftsHighSpeedChair sql.NullInt64
	LiftsFixedChair     sql.NullInt64
	LiftsSurface        sql.NullInt64
	LiftsCarpet         sql.NullInt64
	LiftsTotal          sql.NullInt64
	RunsTotal           sql.NullInt64
	UpdatedAt           time.Time
}

// ForecastSnapshot is one cached upstream fetch per (resort, source).
type ForecastSnapshot struct {
	ID        int64
	ResortID  int64
	Source    string // model name or "radar", "photo", ...
	Payload   []byte
	FetchedAt time.Time
	ExpiresAt time.Time
}

// HourlyForecast rows are derived from a snapshot payload and regenerated
// whenever a new snapshot replaces it; never mutated.
type HourlyForecast struct {
	ID             int64
	SnapshotID     int64
	Time           string // upstream local timestamp, "2006-01-02T15:04"
	TempF          sql.NullFloat64
	FeelsLikeF     sql.NullFloat64
	SnowfallIn     sql.NullFloat64
	PrecipIn       sql.NullFloat64
	WindMph        sql.NullFloat64
	GustMph        sql.NullFloat64
	HumidityPct    sql.NullInt64
	WeatherCode    sql.NullInt64
	FreezingLevelF sql.NullFloat64
}

type DailyForecast struct {
	ID          int64
	SnapshotID  int64
	Date        string // YYYY-MM-DD
	TempMaxF    sql.NullFloat64
	TempMinF    sql.NullFloat64
	SnowfallIn  sql.NullFloat64
	WindMaxMph  sql.NullFloat64
	WeatherCode sql.NullInt64
}

// SnowDepthReading is the latest resolved snow-depth fallback value for a
// resort, upserted in place.
type SnowDepthReading struct {
	ResortID     int64
	DepthIn      float64
	Source       string // "snotel" or "open-meteo"
	SourceDetail string
	UpdatedAt    time.Time
}

type RadarFrame struct {
	FrameTime time.Time
	Path      string
	CreatedAt time.Time
}

type ResortPhoto struct {
	ResortID  int64
	URL       string
	Credit    sql.NullString
	UpdatedAt time.Time
}
