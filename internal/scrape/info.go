package scrape

import (
	"database/sql"
	"strconv"

	"github.com/lox/powderline/internal/extract"
	"github.com/lox/powderline/internal/models"
)

func parseInfo(text string) models.ResortInfo {
	var info models.ResortInfo

	if m := firstMatch(text, elevationRangePatterns); m != nil {
		lo, okLo := extract.Number(m[1])
		hi, okHi := extract.Number(m[2])
		if okLo && okHi {
			if lo > hi {
				lo, hi = hi, lo
			}
			info.ElevationBaseM = sql.NullInt64{Int64: int64(lo), Valid: true}
			info.ElevationSummitM = sql.NullInt64{Int64: int64(hi), Valid: true}
		}
	}

	if m := firstMatch(text, verticalDropPatterns); m != nil {
		if v, ok := extract.Number(m[1]); ok {
			info.VerticalDropM = sql.NullInt64{Int64: int64(v), Valid: true}
		}
	}
	if !info.VerticalDropM.Valid && info.ElevationBaseM.Valid && info.ElevationSummitM.Valid {
		info.VerticalDropM = sql.NullInt64{
			Int64: info.ElevationSummitM.Int64 - info.ElevationBaseM.Int64,
			Valid: true,
		}
	}

	if m := firstMatch(text, terrainTotalPatterns); m != nil {
		if v, ok := extract.Number(m[1]); ok {
			info.TerrainTotalKm = sql.NullFloat64{Float64: v, Valid: true}
		}
	}

	// Both-or-nothing per tier: the pattern itself requires km and (%) to
	// co-occur, so a lone distance or lone percentage sets neither field.
	for tier, battery := range terrainTierPatterns {
		m := firstMatch(text, battery)
		if m == nil {
			continue
		}
		km, okKm := extract.Number(m[1])
		pct, errPct := strconv.ParseInt(m[2], 10, 64)
		if !okKm || errPct != nil {
			continue
		}
		switch tier {
		case "easy":
			info.TerrainEasyKm = sql.NullFloat64{Float64: km, Valid: true}
			info.TerrainEasyPct = sql.NullInt64{Int64: pct, Valid: true}
		case "intermediate":
			info.TerrainIntermKm = sql.NullFloat64{Float64: km, Valid: true}
			info.TerrainIntermPct = sql.NullInt64{Int64: pct, Valid: true}
		case "difficult":
			info.TerrainDifficultKm = sql.NullFloat64{Float64: km, Valid: true}
			info.TerrainDifficultPct = sql.NullInt64{Int64: pct, Valid: true}
		}
	}

	if m := firstMatch(text, runsTotalPatterns); m != nil {
		if v, ok := extract.Number(m[1]); ok {
			info.RunsTotal = sql.NullInt64{Int64: int64(v), Valid: true}
		}
	}

	// Labeled lift total; sits below the "X of Y" pair in the precedence
	// order resolved by applyLiftTotalFallback.
	if m := firstMatch(text, liftsTotalPatterns); m != nil {
		if v, ok := extract.Number(m[1]); ok {
			info.LiftsTotal = sql.NullInt64{Int64: int64(v), Valid: true}
		}
	}

	return info
}

// applyLiftTotalFallback resolves liftsTotal with the precedence order:
// parsed "X of Y" pair, then a labeled total, then the sum of lift-type
// counts. When all three are absent the field stays null, never zero.
func applyLiftTotalFallback(c *models.ResortConditions, info *models.ResortInfo) {
	if c.LiftsTotal.Valid {
		info.LiftsTotal = c.LiftsTotal
		return
	}
	if info.LiftsTotal.Valid {
		c.LiftsTotal = info.LiftsTotal
		return
	}
	var sum int64
	var any bool
	for _, n := range []sql.NullInt64{
		info.LiftsGondola, info.LiftsHighSpeedChair, info.LiftsFixedChair,
		info.LiftsSurface, info.LiftsCarpet,
	} {
		if n.Valid {
			sum += n.Int64
			any = true
		}
	}
	if any {
		info.LiftsTotal = sql.NullInt64{Int64: sum, Valid: true}
		c.LiftsTotal = info.LiftsTotal
	}
}
