package processor

import (
	"sort"
	"time"

	"salesflow/models"
)

// ForwardFill returns indicators with one observation of series per calendar
// day in [from, to]. Days without a non-null observation carry the last
// earlier non-null value forward and are flagged Filled; days before the
// first observation stay empty. Other series pass through unchanged.
func ForwardFill(indicators []models.Indicator, series models.Series, from, to time.Time) []models.Indicator {
	from, to = TruncateDay(from), TruncateDay(to)

	var target, out []models.Indicator
	for _, ind := range indicators {
		if ind.Series == series {
			target = append(target, ind)
		} else {
			out = append(out, ind)
		}
	}
	sort.SliceStable(target, func(i, j int) bool { return target[i].Date.Before(target[j].Date) })

	byDay := make(map[time.Time]models.Indicator, len(target))
	for _, ind := range target {
		byDay[TruncateDay(ind.Date)] = ind
	}

	var last *models.Indicator
	i := 0
	for day := from; !day.After(to); day = day.AddDate(0, 0, 1) {
		// Advance the carry over every observation up to and including day.
		for ; i < len(target) && !TruncateDay(target[i].Date).After(day); i++ {
			if target[i].Value.Valid {
				obs := target[i]
				last = &obs
			}
		}
		if obs, ok := byDay[day]; ok && obs.Value.Valid {
			out = append(out, obs)
			continue
		}
		if last == nil {
			continue
		}
		out = append(out, models.Indicator{Series: series, Date: day, Value: last.Value, Filled: true})
	}

	// Observations outside the window are kept as they were.
	for _, ind := range target {
		day := TruncateDay(ind.Date)
		if day.Before(from) || day.After(to) {
			out = append(out, ind)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Series != out[j].Series {
			return out[i].Series < out[j].Series
		}
		return out[i].Date.Before(out[j].Date)
	})
	return out
}
