package processor

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"salesflow/models"
)

func buildMarts(orders []models.EnrichedOrder) *models.Marts {
	return &models.Marts{
		Orders:     orders,
		Customers:  CustomerProfiles(orders, nil, runTS),
		Categories: CategoryPerformanceOf(orders, runTS),
		Geographic: GeographicSalesOf(orders, runTS),
	}
}

func TestCheckQualityPasses(t *testing.T) {
	health := str("health_beauty")
	m := buildMarts([]models.EnrichedOrder{
		enriched("o1", "c1", "SP", models.StatusDelivered, ndec("3.20"), item(1, health, "100")),
		enriched("o2", "c2", "RJ", models.StatusDelivered, ndec("3.20"), item(1, nil, "50")),
	})
	results, err := CheckQuality(m, m.Tables(), 0.5)
	if err != nil {
		t.Fatalf("unexpected quality error: %v", err)
	}
	for _, r := range results {
		if !r.Passed {
			t.Errorf("check %s on %s failed: %s", r.Name, r.Table, r.Detail)
		}
	}
}

func TestCheckQualityDuplicateKey(t *testing.T) {
	health := str("health_beauty")
	o := enriched("o1", "c1", "SP", models.StatusDelivered, ndec("3.20"), item(1, health, "100"))
	m := buildMarts([]models.EnrichedOrder{o})
	m.Orders = append(m.Orders, o)

	_, err := CheckQuality(m, m.Tables(), 0.5)
	var qe *models.QualityError
	if !errors.As(err, &qe) {
		t.Fatalf("expected QualityError, got %v", err)
	}
}

func TestCheckQualityCoverageIsWarning(t *testing.T) {
	health := str("health_beauty")
	m := buildMarts([]models.EnrichedOrder{
		enriched("o1", "c1", "SP", models.StatusDelivered, decimal.NullDecimal{}, item(1, health, "100")),
	})
	results, err := CheckQuality(m, m.Tables(), 0.5)
	if err != nil {
		t.Fatalf("coverage should not block: %v", err)
	}
	found := false
	for _, r := range results {
		if r.Name == "exchange_rate_coverage" {
			found = true
			if r.Passed || r.Blocking {
				t.Errorf("expected a failed non-blocking coverage check, got %+v", r)
			}
		}
	}
	if !found {
		t.Fatalf("coverage check missing")
	}
}

func TestCheckQualityBadScore(t *testing.T) {
	m := buildMarts(population(3))
	m.Customers[0].RecencyScore = 0
	if _, err := CheckQuality(m, m.Tables(), 0); err == nil {
		t.Fatalf("expected failure on out of range score")
	}
}

func TestCheckQualityNegativeTotalBlocks(t *testing.T) {
	health := str("health_beauty")
	itemless := enriched("o2", "c2", "RJ", models.StatusDelivered, ndec("3.20"))
	m := buildMarts([]models.EnrichedOrder{
		enriched("o1", "c1", "SP", models.StatusDelivered, ndec("3.20"), item(1, health, "100")),
		itemless,
	})
	if _, err := CheckQuality(m, m.Tables(), 0.5); err != nil {
		t.Fatalf("null total should pass: %v", err)
	}

	m.Orders[0].TotalValue = ndec("-1")
	results, err := CheckQuality(m, m.Tables(), 0.5)
	var qe *models.QualityError
	if !errors.As(err, &qe) {
		t.Fatalf("expected QualityError, got %v", err)
	}
	for _, r := range results {
		if r.Name == "non_negative_revenue" && r.Passed {
			t.Fatal("negative total should fail non_negative_revenue")
		}
	}
}
