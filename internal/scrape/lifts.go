package scrape

import (
	"database/sql"
	"strconv"

	"github.com/lox/powderline/internal/models"
)

// parseLiftTypes fills the five lift-type counts from the ski-lifts page
// text. Each vocabulary entry can match several times (several distinct
// models of one type) and the counts are summed. Matches are stripped as we
// go so the generic "chairlift" entry cannot re-count high-speed chairs.
func parseLiftTypes(text string, info *models.ResortInfo) {
	for _, lt := range liftTypePatterns {
		var sum int64
		var found bool
		for _, m := range lt.Re.FindAllStringSubmatch(text, -1) {
			n, err := strconv.ParseInt(m[1], 10, 64)
			if err != nil {
				continue
			}
			sum += n
			found = true
		}
		if found {
			count := sql.NullInt64{Int64: sum, Valid: true}
			switch lt.Kind {
			case "gondola":
				info.LiftsGondola = count
			case "high_speed_chair":
				info.LiftsHighSpeedChair = count
			case "fixed_chair":
				info.LiftsFixedChair = count
			case "surface":
				info.LiftsSurface = count
			case "carpet":
				info.LiftsCarpet = count
			}
		}
		text = lt.Re.ReplaceAllString(text, "")
	}
}
