package weather

import "sort"

// DailyFromHourly derives daily totals from hourly samples by grouping on
// the date portion of each timestamp. Snowfall and precipitation sum over
// non-null values (null counts as zero); temperature takes the max/min and
// wind the max seen that date. Summation is commutative, so input order does
// not matter, and a partial final day is just a smaller group.
func DailyFromHourly(points []HourlyPoint) []DailyPoint {
	byDate := make(map[string]*DailyPoint)
	for _, p := range points {
		if len(p.Time) < 10 {
			continue
		}
		date := p.Time[:10]
		d, ok := byDate[date]
		if !ok {
			d = &DailyPoint{Date: date}
			byDate[date] = d
		}
		d.Snowfall = addTo(d.Snowfall, p.Snowfall)
		if p.Temperature != nil {
			if d.TempMax == nil || *p.Temperature > *d.TempMax {
				d.TempMax = copyFloat(p.Temperature)
			}
			if d.TempMin == nil || *p.Temperature < *d.TempMin {
				d.TempMin = copyFloat(p.Temperature)
			}
		}
		if p.WindSpeed != nil && (d.WindMax == nil || *p.WindSpeed > *d.WindMax) {
			d.WindMax = copyFloat(p.WindSpeed)
		}
		if p.WeatherCode != nil && d.WeatherCode == nil {
			d.WeatherCode = copyInt(p.WeatherCode)
			d.WeatherText = WeatherCodeText(*p.WeatherCode)
		}
	}

	dates := make([]string, 0, len(byDate))
	for date := range byDate {
		dates = append(dates, date)
	}
	sort.Strings(dates)

	days := make([]DailyPoint, 0, len(dates))
	for _, date := range dates {
		days = append(days, *byDate[date])
	}
	return days
}

// addTo accumulates b into a treating null as zero; the sum is null only
// when every contribution was null.
func addTo(a, b *float64) *float64 {
	if b == nil {
		return a
	}
	if a == nil {
		return copyFloat(b)
	}
	sum := *a + *b
	return &sum
}

func copyFloat(v *float64) *float64 {
	c := *v
	return &c
}

func copyInt(v *int) *int {
	c := *v
	return &c
}
