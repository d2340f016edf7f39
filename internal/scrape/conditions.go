package scrape

import (
	"database/sql"
	"regexp"
	"strings"

	"github.com/lox/powderline/internal/extract"
	"github.com/lox/powderline/internal/models"
)

func parseConditions(text string) models.ResortConditions {
	var c models.ResortConditions

	c.SnowDepthSummitCm = matchFloat(text, snowSummitPatterns)
	c.SnowDepthBaseCm = matchFloat(text, snowBasePatterns)
	c.NewSnow24hCm = matchFloat(text, newSnow24hPatterns)
	c.NewSnow48hCm = matchFloat(text, newSnow48hPatterns)
	c.NewSnow7dCm = matchFloat(text, newSnow7dPatterns)

	if m := firstMatch(text, liftsOfPatterns); m != nil {
		if open, total := extract.OfPattern(m[0]); open != nil {
			c.LiftsOpen = sql.NullInt64{Int64: *open, Valid: true}
			c.LiftsTotal = sql.NullInt64{Int64: *total, Valid: true}
		}
	}
	if m := firstMatch(text, runsOfPatterns); m != nil {
		if open, total := extract.OfPattern(m[0]); open != nil {
			c.RunsOpen = sql.NullInt64{Int64: *open, Valid: true}
			c.RunsTotal = sql.NullInt64{Int64: *total, Valid: true}
		}
	}

	if m := firstMatch(text, terrainOpenPatterns); m != nil {
		if open, ok := extract.Number(m[1]); ok {
			c.TerrainOpenKm = sql.NullFloat64{Float64: open, Valid: true}
		}
		if total, ok := extract.Number(m[2]); ok {
			c.TerrainTotalKm = sql.NullFloat64{Float64: total, Valid: true}
		}
	}
	if m := firstMatch(text, terrainOpenPctPatterns); m != nil {
		if pct, ok := extract.Percentage(m[0]); ok {
			c.TerrainOpenPct = sql.NullInt64{Int64: pct, Valid: true}
		}
	}

	if m := firstMatch(text, seasonPatterns); m != nil {
		if d := extract.Date(m[1]); d != "" {
			c.SeasonStart = sql.NullString{String: d, Valid: true}
		}
		if d := extract.Date(m[2]); d != "" {
			c.SeasonEnd = sql.NullString{String: d, Valid: true}
		}
	}

	if m := firstMatch(text, lastSnowfallPatterns); m != nil {
		if d := extract.Date(m[1]); d != "" {
			c.LastSnowfall = sql.NullString{String: d, Valid: true}
		}
	}

	if m := firstMatch(text, conditionsLabelPatterns); m != nil {
		label := collapseWhitespace(m[1])
		if label != "" {
			c.ConditionsLabel = sql.NullString{String: label, Valid: true}
		}
	}

	if m := firstMatch(text, chairTimesPatterns); m != nil {
		c.FirstChair = sql.NullString{String: m[1], Valid: true}
		c.LastChair = sql.NullString{String: m[2], Valid: true}
	}

	c.IsOpen = resortLooksOpen(text)
	return c
}

// resortLooksOpen is a best-effort heuristic, not ground truth: either the
// page says so outright, or free text implies a nonzero open-lift fraction
// ("lifts" near an " of " pair with no "0 of"). It can false-positive on
// unrelated page text; the upstream documents nothing more precise.
func resortLooksOpen(text string) bool {
	if resortOpenPhraseRe.MatchString(text) {
		return true
	}
	lower := strings.ToLower(text)
	return strings.Contains(lower, "lifts") &&
		strings.Contains(lower, " of ") &&
		!zeroOfRe.MatchString(text)
}

func matchFloat(text string, battery []*regexp.Regexp) sql.NullFloat64 {
	if m := firstMatch(text, battery); m != nil {
		if v, ok := extract.Number(m[1]); ok {
			return sql.NullFloat64{Float64: v, Valid: true}
		}
	}
	return sql.NullFloat64{}
}
