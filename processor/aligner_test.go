package processor

import (
	"testing"

	"github.com/shopspring/decimal"

	"salesflow/models"
)

func TestClassifyRegimeBoundaries(t *testing.T) {
	cases := []struct {
		rate string
		want models.Regime
	}{
		{"3.5", models.RegimeModerate},
		{"3.49999", models.RegimeStrong},
		{"4.5", models.RegimeModerate},
		{"4.50001", models.RegimeWeak},
		{"3.20", models.RegimeStrong},
	}
	for _, c := range cases {
		if got := ClassifyRegime(ndec(c.rate)); got != c.want {
			t.Errorf("ClassifyRegime(%s) = %q, want %q", c.rate, got, c.want)
		}
	}
	if got := ClassifyRegime(decimal.NullDecimal{}); got != "" {
		t.Errorf("null rate should have no regime, got %q", got)
	}
}

func TestResolveDailyExactMatch(t *testing.T) {
	table := NewIndicatorTable([]models.Indicator{
		{Series: models.SeriesExchangeRateUSD, Date: day(2017, 9, 29), Value: ndec("3.17")},
		{Series: models.SeriesExchangeRateUSD, Date: day(2017, 10, 2), Value: ndec("3.20")},
	})
	assertDecimal(t, "2017-10-02", table.Resolve(models.SeriesExchangeRateUSD, *at(2017, 10, 2, 15)), "3.20")
	// Saturday: no observation and no fill.
	assertDecimal(t, "2017-09-30", table.Resolve(models.SeriesExchangeRateUSD, day(2017, 9, 30)), "")
	assertDecimal(t, "unknown series", table.Resolve("exchange_rate_eur", day(2017, 10, 2)), "")
}

func TestResolveMonthly(t *testing.T) {
	table := NewIndicatorTable([]models.Indicator{
		{Series: models.SeriesIPCA, Date: day(2017, 9, 1), Value: ndec("0.16")},
		{Series: models.SeriesIPCA, Date: day(2017, 10, 1), Value: ndec("0.42")},
		{Series: models.SeriesSelic, Date: day(2017, 10, 5), Value: ndec("8.25")},
		{Series: models.SeriesSelic, Date: day(2017, 10, 26), Value: ndec("7.50")},
	})
	assertDecimal(t, "ipca", table.Resolve(models.SeriesIPCA, *at(2017, 10, 15, 9)), "0.42")
	assertDecimal(t, "selic latest in month", table.Resolve(models.SeriesSelic, day(2017, 10, 15)), "7.50")
	assertDecimal(t, "igpm missing", table.Resolve(models.SeriesIGPM, day(2017, 10, 15)), "")
}

func TestResolveMonthlyLatestDateWinsEvenIfNull(t *testing.T) {
	table := NewIndicatorTable([]models.Indicator{
		{Series: models.SeriesIPCA, Date: day(2017, 10, 20), Value: decimal.NullDecimal{}},
		{Series: models.SeriesIPCA, Date: day(2017, 10, 1), Value: ndec("0.42")},
		{Series: models.SeriesIGPM, Date: day(2017, 10, 1), Value: decimal.NullDecimal{}},
		{Series: models.SeriesIGPM, Date: day(2017, 10, 20), Value: ndec("0.10")},
	})
	assertDecimal(t, "ipca null on latest date", table.Resolve(models.SeriesIPCA, day(2017, 10, 15)), "")
	assertDecimal(t, "igpm latest date", table.Resolve(models.SeriesIGPM, day(2017, 10, 2)), "0.10")
}

func TestResolveMonthlyIgnoresDayOfMonth(t *testing.T) {
	for _, obsDay := range []int{1, 15, 31} {
		table := NewIndicatorTable([]models.Indicator{
			{Series: models.SeriesIPCA, Date: day(2017, 10, obsDay), Value: ndec("0.42")},
		})
		assertDecimal(t, "ipca", table.Resolve(models.SeriesIPCA, day(2017, 10, 15)), "0.42")
	}
}

func TestGranularity(t *testing.T) {
	if GranularityOf(models.SeriesExchangeRateUSD) != Daily || GranularityOf(models.SeriesIGPM) != Monthly {
		t.Fatalf("unexpected granularity mapping")
	}
}
