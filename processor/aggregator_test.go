package processor

import (
	"testing"

	"github.com/shopspring/decimal"

	"salesflow/models"
)

func enriched(id, customer, state string, status models.OrderStatus, rate decimal.NullDecimal, items ...models.EnrichedItem) models.EnrichedOrder {
	month := day(2017, 10, 1)
	purchased := day(2017, 10, 2)
	o := models.EnrichedOrder{
		OrderID:          id,
		CustomerID:       customer,
		CustomerUniqueID: customer,
		CustomerState:    state,
		CustomerCity:     "city-" + state,
		Status:           status,
		PurchasedAt:      &purchased,
		PurchaseDate:     &purchased,
		OrderMonth:       &month,
		ExchangeRate:     rate,
		Regime:           ClassifyRegime(rate),
		Items:            items,
		RunTimestamp:     runTS,
	}
	var value nullSum
	for i := range o.Items {
		if o.Items[i].Price.Valid {
			o.Items[i].PriceUSD = divide(o.Items[i].Price.Decimal, rate)
		}
		value.Add(o.Items[i].Price)
	}
	o.OrderValue = value.Value()
	o.TotalValue = o.OrderValue
	if o.TotalValue.Valid {
		o.TotalUSD = divide(o.TotalValue.Decimal, rate)
	}
	return o
}

func item(seq int, category *string, price string) models.EnrichedItem {
	it := models.EnrichedItem{ItemSeq: seq, Category: category, Price: ndec(price), Freight: ndec("1")}
	if category != nil {
		pt := "pt_" + *category
		it.CategoryPT = &pt
	}
	return it
}

func TestCategoryPerformance(t *testing.T) {
	health := str("health_beauty")
	orders := []models.EnrichedOrder{
		enriched("o1", "c1", "SP", models.StatusDelivered, ndec("3.20"), item(1, health, "100"), item(2, nil, "10")),
		enriched("o2", "c2", "RJ", models.StatusShipped, ndec("4.00"), item(1, health, "60")),
		// Excluded: processing is not in the sales status set.
		enriched("o3", "c3", "SP", models.StatusProcessing, ndec("3.20"), item(1, health, "999")),
	}

	got := CategoryPerformanceOf(orders, runTS)
	if len(got) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(got))
	}
	if got[0].Category != nil {
		t.Fatalf("null category should sort first, got %v", *got[0].Category)
	}
	h := got[1]
	if h.Category == nil || *h.Category != "health_beauty" || *h.CategoryPT != "pt_health_beauty" {
		t.Fatalf("unexpected category row: %+v", h)
	}
	if h.OrderCount != 2 || h.ItemCount != 2 {
		t.Errorf("unexpected counts: orders=%d items=%d", h.OrderCount, h.ItemCount)
	}
	if !h.RevenueBRL.Equal(dec("160")) || !h.AvgOrderValueBRL.Equal(dec("80")) {
		t.Errorf("unexpected revenue %s / aov %s", h.RevenueBRL, h.AvgOrderValueBRL)
	}
	assertDecimal(t, "usd", h.RevenueUSD, "46.25")
	assertDecimal(t, "avg rate", h.AvgExchangeRate, "3.6")
	if h.Regime != models.RegimeModerate {
		t.Errorf("expected Moderate, got %q", h.Regime)
	}
	if !h.RunTimestamp.Equal(runTS) {
		t.Errorf("run timestamp not set")
	}
}

func TestNullRateSkippedInUSDSum(t *testing.T) {
	health := str("health_beauty")
	base := []models.EnrichedOrder{
		enriched("o1", "c1", "SP", models.StatusDelivered, ndec("3.20"), item(1, health, "100")),
	}
	withGap := append(append([]models.EnrichedOrder(nil), base...),
		enriched("o2", "c2", "SP", models.StatusDelivered, decimal.NullDecimal{}, item(1, health, "50")))

	a := CategoryPerformanceOf(base, runTS)[0]
	b := CategoryPerformanceOf(withGap, runTS)[0]
	assertDecimal(t, "base usd", a.RevenueUSD, "31.25")
	assertDecimal(t, "gap usd", b.RevenueUSD, "31.25")
	if !b.RevenueBRL.Equal(dec("150")) {
		t.Errorf("BRL revenue should include the unrated order, got %s", b.RevenueBRL)
	}
	assertDecimal(t, "avg rate", b.AvgExchangeRate, "3.20")

	onlyGap := CategoryPerformanceOf(withGap[1:], runTS)[0]
	assertDecimal(t, "all-null usd", onlyGap.RevenueUSD, "")
	if onlyGap.Regime != "" {
		t.Errorf("all-null rate should have no regime, got %q", onlyGap.Regime)
	}
}

func TestGeographicSales(t *testing.T) {
	health := str("health_beauty")
	orders := []models.EnrichedOrder{
		enriched("o1", "c1", "SP", models.StatusDelivered, ndec("3.20"), item(1, health, "100"), item(2, nil, "20")),
		enriched("o2", "c1", "SP", models.StatusApproved, ndec("3.20"), item(1, health, "40")),
		enriched("o3", "c2", "RJ", models.StatusDelivered, ndec("4.80"), item(1, health, "48")),
		enriched("o4", "c4", "MG", models.StatusCanceled, ndec("3.20"), item(1, health, "10")),
		// Eligible but without items: no item rows, so no group.
		enriched("o5", "c5", "BA", models.StatusDelivered, ndec("3.20")),
	}
	got := GeographicSalesOf(orders, runTS)
	if len(got) != 2 {
		t.Fatalf("expected 2 groups, got %d: %+v", len(got), got)
	}
	rj, sp := got[0], got[1]
	if rj.State != "RJ" || sp.State != "SP" {
		t.Fatalf("unexpected ordering: %s, %s", rj.State, sp.State)
	}
	if sp.OrderCount != 2 || sp.ItemCount != 3 || sp.UniqueCustomers != 1 {
		t.Errorf("unexpected SP counts: %+v", sp)
	}
	if !sp.RevenueBRL.Equal(dec("160")) || !sp.AvgOrderValueBRL.Equal(dec("80")) {
		t.Errorf("unexpected SP revenue %s aov %s", sp.RevenueBRL, sp.AvgOrderValueBRL)
	}
	assertDecimal(t, "sp usd", sp.RevenueUSD, "50")
	if rj.Regime != models.RegimeWeak {
		t.Errorf("expected Weak for RJ, got %q", rj.Regime)
	}
}
