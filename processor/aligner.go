package processor

import (
	"time"

	"github.com/shopspring/decimal"

	"salesflow/models"
)

// Granularity is the natural grain of an indicator series.
type Granularity int

const (
	Daily Granularity = iota
	Monthly
)

var seriesGranularity = map[models.Series]Granularity{
	models.SeriesExchangeRateUSD:    Daily,
	models.SeriesExchangeCommercial: Daily,
	models.SeriesIPCA:               Monthly,
	models.SeriesSelic:              Monthly,
	models.SeriesIGPM:               Monthly,
}

// GranularityOf returns the grain of a series; unknown series join daily.
func GranularityOf(s models.Series) Granularity {
	if g, ok := seriesGranularity[s]; ok {
		return g
	}
	return Daily
}

var (
	strongBelow = decimal.RequireFromString("3.5")
	weakAbove   = decimal.RequireFromString("4.5")
)

// ClassifyRegime buckets an exchange rate: below 3.5 is Strong, 3.5 to 4.5
// inclusive is Moderate, above 4.5 is Weak. A null rate has no regime.
func ClassifyRegime(rate decimal.NullDecimal) models.Regime {
	if !rate.Valid {
		return ""
	}
	switch {
	case rate.Decimal.LessThan(strongBelow):
		return models.RegimeStrong
	case rate.Decimal.GreaterThan(weakAbove):
		return models.RegimeWeak
	default:
		return models.RegimeModerate
	}
}

func TruncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func TruncateMonth(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

type monthObservation struct {
	date  time.Time
	value decimal.NullDecimal
}

// IndicatorTable indexes observations for point lookups by transaction date.
type IndicatorTable struct {
	daily   map[models.Series]map[time.Time]decimal.NullDecimal
	monthly map[models.Series]map[time.Time]monthObservation
}

// NewIndicatorTable indexes daily series by exact date and monthly series
// by month, keeping the observation with the latest date in each month
// even when its value is null.
func NewIndicatorTable(indicators []models.Indicator) *IndicatorTable {
	t := &IndicatorTable{
		daily:   make(map[models.Series]map[time.Time]decimal.NullDecimal),
		monthly: make(map[models.Series]map[time.Time]monthObservation),
	}
	for _, ind := range indicators {
		switch GranularityOf(ind.Series) {
		case Monthly:
			m := t.monthly[ind.Series]
			if m == nil {
				m = make(map[time.Time]monthObservation)
				t.monthly[ind.Series] = m
			}
			month := TruncateMonth(ind.Date)
			day := TruncateDay(ind.Date)
			if cur, ok := m[month]; !ok || day.After(cur.date) {
				m[month] = monthObservation{date: day, value: ind.Value}
			}
		default:
			d := t.daily[ind.Series]
			if d == nil {
				d = make(map[time.Time]decimal.NullDecimal)
				t.daily[ind.Series] = d
			}
			d[TruncateDay(ind.Date)] = ind.Value
		}
	}
	return t
}

// Resolve returns the value of series applicable on date. Daily series
// match the exact date only; a gap (weekend, holiday) resolves to null.
func (t *IndicatorTable) Resolve(series models.Series, date time.Time) decimal.NullDecimal {
	if GranularityOf(series) == Monthly {
		return t.monthly[series][TruncateMonth(date)].value
	}
	return t.daily[series][TruncateDay(date)]
}

// Coverage returns the number of dates with a non-null daily observation.
func (t *IndicatorTable) Coverage(series models.Series) int {
	n := 0
	for _, v := range t.daily[series] {
		if v.Valid {
			n++
		}
	}
	return n
}
