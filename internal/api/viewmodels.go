package api

import (
	"database/sql"
	"time"

	"github.com/lox/powderline/internal/extract"
	"github.com/lox/powderline/internal/models"
)

type resortView struct {
	Slug      string  `json:"slug"`
	Name      string  `json:"name"`
	State     string  `json:"state,omitempty"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Timezone  string  `json:"timezone"`
}

func newResortView(r models.Resort) resortView {
	return resortView{
		Slug:      r.Slug,
		Name:      r.Name,
		State:     r.State,
		Latitude:  r.Latitude,
		Longitude: r.Longitude,
		Timezone:  r.Timezone,
	}
}

// conditionsView merges the latest scrape, the static info row and the
// fallback snow depth into one payload. Snow amounts are reported in inches
// alongside the upstream centimeters.
type conditionsView struct {
	Resort     resortView      `json:"resort"`
	Conditions *conditionsBody `json:"conditions"`
	Info       *infoBody       `json:"info"`
	SnowDepth  *snowDepthBody  `json:"snowDepth"`
	PhotoURL   string          `json:"photoUrl,omitempty"`
}

type conditionsBody struct {
	ScrapedOn         string   `json:"scrapedOn"`
	SnowDepthSummitCm *float64 `json:"snowDepthSummitCm"`
	SnowDepthSummitIn *float64 `json:"snowDepthSummitIn"`
	SnowDepthBaseCm   *float64 `json:"snowDepthBaseCm"`
	SnowDepthBaseIn   *float64 `json:"snowDepthBaseIn"`
	NewSnow24hIn      *float64 `json:"newSnow24hIn"`
	NewSnow48hIn      *float64 `json:"newSnow48hIn"`
	NewSnow7dIn       *float64 `json:"newSnow7dIn"`
	LiftsOpen         *int64   `json:"liftsOpen"`
	LiftsTotal        *int64   `json:"liftsTotal"`
	RunsOpen          *int64   `json:"runsOpen"`
	RunsTotal         *int64   `json:"runsTotal"`
	TerrainOpenKm     *float64 `json:"terrainOpenKm"`
	TerrainTotalKm    *float64 `json:"terrainTotalKm"`
	TerrainOpenPct    *int64   `json:"terrainOpenPct"`
	IsOpen            bool     `json:"isOpen"`
	SeasonStart       *string  `json:"seasonStart"`
	SeasonEnd         *string  `json:"seasonEnd"`
	LastSnowfall      *string  `json:"lastSnowfall"`
	ConditionsLabel   *string  `json:"conditionsLabel"`
	FirstChair        *string  `json:"firstChair"`
	LastChair         *string  `json:"lastChair"`
}

type infoBody struct {
	ElevationBaseM      *int64   `json:"elevationBaseM"`
	ElevationBaseFt     *int64   `json:"elevationBaseFt"`
	ElevationSummitM    *int64   `json:"elevationSummitM"`
	ElevationSummitFt   *int64   `json:"elevationSummitFt"`
	VerticalDropM       *int64   `json:"verticalDropM"`
	VerticalDropFt      *int64   `json:"verticalDropFt"`
	TerrainTotalKm      *float64 `json:"terrainTotalKm"`
	TerrainEasyKm       *float64 `json:"terrainEasyKm"`
	TerrainEasyPct      *int64   `json:"terrainEasyPct"`
	TerrainIntermKm     *float64 `json:"terrainIntermKm"`
	TerrainIntermPct    *int64   `json:"terrainIntermPct"`
	TerrainDifficultKm  *float64 `json:"terrainDifficultKm"`
	TerrainDifficultPct *int64   `json:"terrainDifficultPct"`
	LiftsGondola        *int64   `json:"liftsGondola"`
	LiftsHighSpeedChair *int64   `json:"liftsHighSpeedChair"`
	LiftsFixedChair     *int64   `json:"liftsFixedChair"`
	LiftsSurface        *int64   `json:"liftsSurface"`
	LiftsCarpet         *int64   `json:"liftsCarpet"`
	LiftsTotal          *int64   `json:"liftsTotal"`
	RunsTotal           *int64   `json:"runsTotal"`
	UpdatedAt           string   `json:"updatedAt"`
}

type snowDepthBody struct {
	DepthIn   float64 `json:"depthIn"`
	Source    string  `json:"source"`
	Detail    string  `json:"detail,omitempty"`
	UpdatedAt string  `json:"updatedAt"`
}

type radarFrameView struct {
	Time int64  `json:"time"`
	Path string `json:"path"`
}

func newConditionsView(r models.Resort, c *models.ResortConditions, info *models.ResortInfo, depth *models.SnowDepthReading, photo *models.ResortPhoto) conditionsView {
	view := conditionsView{Resort: newResortView(r)}

	if c != nil {
		view.Conditions = &conditionsBody{
			ScrapedOn:         c.ScrapedOn.Format("2006-01-02"),
			SnowDepthSummitCm: nullFloat(c.SnowDepthSummitCm),
			SnowDepthSummitIn: cmToIn(c.SnowDepthSummitCm),
			SnowDepthBaseCm:   nullFloat(c.SnowDepthBaseCm),
			SnowDepthBaseIn:   cmToIn(c.SnowDepthBaseCm),
			NewSnow24hIn:      cmToIn(c.NewSnow24hCm),
			NewSnow48hIn:      cmToIn(c.NewSnow48hCm),
			NewSnow7dIn:       cmToIn(c.NewSnow7dCm),
			LiftsOpen:         nullInt(c.LiftsOpen),
			LiftsTotal:        nullInt(c.LiftsTotal),
			RunsOpen:          nullInt(c.RunsOpen),
			RunsTotal:         nullInt(c.RunsTotal),
			TerrainOpenKm:     nullFloat(c.TerrainOpenKm),
			TerrainTotalKm:    nullFloat(c.TerrainTotalKm),
			TerrainOpenPct:    nullInt(c.TerrainOpenPct),
			IsOpen:            c.IsOpen,
			SeasonStart:       nullString(c.SeasonStart),
			SeasonEnd:         nullString(c.SeasonEnd),
			LastSnowfall:      nullString(c.LastSnowfall),
			ConditionsLabel:   nullString(c.ConditionsLabel),
			FirstChair:        nullString(c.FirstChair),
			LastChair:         nullString(c.LastChair),
		}
	}

	if info != nil {
		view.Info = &infoBody{
			ElevationBaseM:      nullInt(info.ElevationBaseM),
			ElevationBaseFt:     mToFt(info.ElevationBaseM),
			ElevationSummitM:    nullInt(info.ElevationSummitM),
			ElevationSummitFt:   mToFt(info.ElevationSummitM),
			VerticalDropM:       nullInt(info.VerticalDropM),
			VerticalDropFt:      mToFt(info.VerticalDropM),
			TerrainTotalKm:      nullFloat(info.TerrainTotalKm),
			TerrainEasyKm:       nullFloat(info.TerrainEasyKm),
			TerrainEasyPct:      nullInt(info.TerrainEasyPct),
			TerrainIntermKm:     nullFloat(info.TerrainIntermKm),
			TerrainIntermPct:    nullInt(info.TerrainIntermPct),
			TerrainDifficultKm:  nullFloat(info.TerrainDifficultKm),
			TerrainDifficultPct: nullInt(info.TerrainDifficultPct),
			LiftsGondola:        nullInt(info.LiftsGondola),
			LiftsHighSpeedChair: nullInt(info.LiftsHighSpeedChair),
			LiftsFixedChair:     nullInt(info.LiftsFixedChair),
			LiftsSurface:        nullInt(info.LiftsSurface),
			LiftsCarpet:         nullInt(info.LiftsCarpet),
			LiftsTotal:          nullInt(info.LiftsTotal),
			RunsTotal:           nullInt(info.RunsTotal),
			UpdatedAt:           info.UpdatedAt.UTC().Format(time.RFC3339),
		}
	}

	if depth != nil {
		view.SnowDepth = &snowDepthBody{
			DepthIn:   depth.DepthIn,
			Source:    depth.Source,
			Detail:    depth.SourceDetail,
			UpdatedAt: depth.UpdatedAt.UTC().Format(time.RFC3339),
		}
	}

	if photo != nil {
		view.PhotoURL = photo.URL
	}

	return view
}

func nullFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func nullInt(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	i := v.Int64
	return &i
}

func nullString(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}

func cmToIn(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	in := extract.CmToInches(v.Float64)
	return &in
}

func mToFt(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	ft := extract.MetersToFeet(float64(v.Int64))
	return &ft
}
