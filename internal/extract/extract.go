// Package extract holds the pure text-to-value helpers the scraper is built
// on. Every function is total: bad input yields a null result, never an error.
package extract

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	numberRe     = regexp.MustCompile(`-?\d{1,3}(?:,\d{3})+(?:\.\d+)?|-?\d+(?:\.\d+)?`)
	ofPatternRe  = regexp.MustCompile(`(\d+)\s*(?:of|/)\s*(\d+)`)
	percentRe    = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*%`)
	isoDateRe    = regexp.MustCompile(`(\d{4})-(\d{2})-(\d{2})`)
	dayMonYearRe = regexp.MustCompile(`(\d{1,2})\s+([A-Za-z]{3,9})\.?\s+(\d{4})`)
	monDayYearRe = regexp.MustCompile(`([A-Za-z]{3,9})\.?\s+(\d{1,2}),?\s+(\d{4})`)
)

var months = map[string]int{
	"jan": 1, "feb": 2, "mar": 3, "apr": 4, "may": 5, "jun": 6,
	"jul": 7, "aug": 8, "sep": 9, "oct": 10, "nov": 11, "dec": 12,
}

// Number returns the first numeric token in s, tolerating thousands
// separators. The second return is false when no number is present.
func Number(s string) (float64, bool) {
	m := numberRe.FindString(s)
	if m == "" {
		return 0, false
	}
	m = strings.ReplaceAll(m, ",", "")
	v, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// OfPattern matches "<a> of <b>" or "<a>/<b>" pairs like "18 of 34 lifts".
// Both returns are nil when no pair is present.
func OfPattern(s string) (open, total *int64) {
	m := ofPatternRe.FindStringSubmatch(s)
	if m == nil {
		return nil, nil
	}
	a, err1 := strconv.ParseInt(m[1], 10, 64)
	b, err2 := strconv.ParseInt(m[2], 10, 64)
	if err1 != nil || err2 != nil {
		return nil, nil
	}
	return &a, &b
}

// Percentage matches "<n> %" and returns the integer percentage.
func Percentage(s string) (int64, bool) {
	m := percentRe.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	return int64(math.Round(v)), true
}

// Date normalizes the first recognizable date in s to YYYY-MM-DD.
// ISO dates win; "14 Nov 2025" and "Nov 14, 2025" forms are tried next.
// Returns "" when nothing matches.
func Date(s string) string {
	if m := isoDateRe.FindStringSubmatch(s); m != nil {
		return fmt.Sprintf("%s-%s-%s", m[1], m[2], m[3])
	}
	if m := dayMonYearRe.FindStringSubmatch(s); m != nil {
		if mo, ok := monthNumber(m[2]); ok {
			day, _ := strconv.Atoi(m[1])
			if day >= 1 && day <= 31 {
				return fmt.Sprintf("%s-%02d-%02d", m[3], mo, day)
			}
		}
	}
	if m := monDayYearRe.FindStringSubmatch(s); m != nil {
		if mo, ok := monthNumber(m[1]); ok {
			day, _ := strconv.Atoi(m[2])
			if day >= 1 && day <= 31 {
				return fmt.Sprintf("%s-%02d-%02d", m[3], mo, day)
			}
		}
	}
	return ""
}

func monthNumber(name string) (int, bool) {
	key := strings.ToLower(name)
	if len(key) > 3 {
		key = key[:3]
	}
	mo, ok := months[key]
	return mo, ok
}

// CmToInches converts with one-decimal rounding. Callers that want whole
// inches must use CmToInchesWhole; the precision is part of the contract.
func CmToInches(cm float64) float64 {
	return math.Round(cm/2.54*10) / 10
}

// CmToInchesWhole converts with whole-inch rounding.
func CmToInchesWhole(cm float64) int64 {
	return int64(math.Round(cm / 2.54))
}

// MetersToFeet converts with whole-foot rounding.
func MetersToFeet(m float64) int64 {
	return int64(math.Round(m * 3.281))
}

// KmToMiles converts with whole-mile rounding.
func KmToMiles(km float64) int64 {
	return int64(math.Round(km * 0.621))
}
