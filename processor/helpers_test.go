package processor

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"salesflow/models"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func ndec(s string) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.RequireFromString(s))
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func at(y int, m time.Month, d, h int) *time.Time {
	t := time.Date(y, m, d, h, 0, 0, 0, time.UTC)
	return &t
}

func str(s string) *string {
	return &s
}

func assertDecimal(t *testing.T, name string, got decimal.NullDecimal, want string) {
	t.Helper()
	if want == "" {
		if got.Valid {
			t.Errorf("%s: expected null, got %s", name, got.Decimal)
		}
		return
	}
	if !got.Valid {
		t.Errorf("%s: expected %s, got null", name, want)
		return
	}
	if !got.Decimal.Equal(dec(want)) {
		t.Errorf("%s: expected %s, got %s", name, want, got.Decimal)
	}
}

var runTS = time.Date(2018, 10, 18, 12, 0, 0, 0, time.UTC)

// testEnricher builds an enricher over a small catalog and the given indicators.
func testEnricher(indicators ...models.Indicator) *Enricher {
	ds := &models.Dataset{
		Products: []models.Product{
			{ProductID: "p1", Category: str("beleza_saude")},
			{ProductID: "p2", Category: str("categoria_x")},
			{ProductID: "p3"},
		},
		Translation: map[string]string{"beleza_saude": "health_beauty"},
	}
	return NewEnricher(ds, NewIndicatorTable(indicators), runTS)
}
