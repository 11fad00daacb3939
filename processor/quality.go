package processor

import (
	"fmt"
	"strings"

	"salesflow/logger"
	"salesflow/models"
)

// CheckResult is the outcome of one data-quality check.
type CheckResult struct {
	Name     string `json:"name"`
	Table    string `json:"table"`
	Blocking bool   `json:"blocking"`
	Passed   bool   `json:"passed"`
	Detail   string `json:"detail,omitempty"`
}

// CheckQuality runs the post-aggregation checks. Blocking failures are
// returned as a *models.QualityError; warnings are only logged.
func CheckQuality(marts *models.Marts, tables []*models.Table, minRateCoverage float64) ([]CheckResult, error) {
	log := logger.GetLogger().WithComponent("quality")
	var results []CheckResult

	for _, t := range tables {
		results = append(results, checkUniqueKey(t), checkKeysNotNull(t))
	}
	results = append(results,
		checkScores(marts.Customers),
		checkLabels(marts.Customers),
		checkNonNegative(marts),
		checkItemGrain(marts),
		checkCustomerReferences(marts),
		checkRateCoverage(marts.Orders, minRateCoverage),
	)

	var failures []string
	for _, r := range results {
		if r.Passed {
			continue
		}
		entry := log.WithFields(logger.Fields{"check": r.Name, "table": r.Table, "detail": r.Detail})
		if r.Blocking {
			entry.Error("data quality check failed")
			failures = append(failures, fmt.Sprintf("%s(%s): %s", r.Name, r.Table, r.Detail))
		} else {
			entry.Warn("data quality warning")
		}
	}
	if len(failures) > 0 {
		return results, &models.QualityError{Failures: failures}
	}
	log.WithFields(logger.Fields{"checks": len(results)}).Info("data quality checks passed")
	return results, nil
}

func keyIndexes(t *models.Table) []int {
	var idx []int
	for i, c := range t.Columns {
		if c.Key {
			idx = append(idx, i)
		}
	}
	return idx
}

func checkUniqueKey(t *models.Table) CheckResult {
	res := CheckResult{Name: "unique_key", Table: t.Name, Blocking: true, Passed: true}
	idx := keyIndexes(t)
	seen := make(map[string]bool, len(t.Rows))
	for _, row := range t.Rows {
		vals := row.Values()
		parts := make([]string, len(idx))
		for i, k := range idx {
			if vals[k] == nil {
				parts[i] = "\x00null"
			} else {
				parts[i] = fmt.Sprint(vals[k])
			}
		}
		key := strings.Join(parts, "\x1f")
		if seen[key] {
			res.Passed = false
			res.Detail = fmt.Sprintf("duplicate key %q", strings.ReplaceAll(key, "\x1f", "|"))
			return res
		}
		seen[key] = true
	}
	return res
}

func checkKeysNotNull(t *models.Table) CheckResult {
	res := CheckResult{Name: "not_null_key", Table: t.Name, Blocking: true, Passed: true}
	for _, row := range t.Rows {
		vals := row.Values()
		for i, c := range t.Columns {
			if c.Key && !c.Nullable && vals[i] == nil {
				res.Passed = false
				res.Detail = fmt.Sprintf("null value in key column %s", c.Name)
				return res
			}
		}
	}
	return res
}

func checkScores(profiles []models.CustomerProfile) CheckResult {
	res := CheckResult{Name: "rfm_score_range", Table: models.TableFctCustomers, Blocking: true, Passed: true}
	for _, p := range profiles {
		for _, s := range []int{p.RecencyScore, p.FrequencyScore, p.MonetaryScore} {
			if s < 1 || s > rfmBuckets {
				res.Passed = false
				res.Detail = fmt.Sprintf("customer %s has score %d", p.CustomerKey, s)
				return res
			}
		}
	}
	return res
}

func checkLabels(profiles []models.CustomerProfile) CheckResult {
	res := CheckResult{Name: "accepted_values", Table: models.TableFctCustomers, Blocking: true, Passed: true}
	segments := make(map[models.Segment]bool, len(Segments))
	for _, s := range Segments {
		segments[s] = true
	}
	types := map[models.CustomerType]bool{
		models.CustomerOneTime: true, models.CustomerOccasional: true, models.CustomerRegular: true, models.CustomerVIP: true,
	}
	statuses := map[models.CustomerStatus]bool{
		models.StatusActive: true, models.StatusAtRisk: true, models.StatusDormant: true, models.StatusChurned: true,
	}
	for _, p := range profiles {
		if !segments[p.Segment] || !types[p.Type] || !statuses[p.Status] {
			res.Passed = false
			res.Detail = fmt.Sprintf("customer %s has labels %q/%q/%q", p.CustomerKey, p.Segment, p.Type, p.Status)
			return res
		}
	}
	return res
}

func checkNonNegative(m *models.Marts) CheckResult {
	res := CheckResult{Name: "non_negative_revenue", Blocking: true, Passed: true}
	for _, o := range m.Orders {
		if o.TotalValue.Valid && o.TotalValue.Decimal.IsNegative() {
			res.Passed, res.Table = false, models.TableFctOrders
			res.Detail = fmt.Sprintf("order %s has negative total", o.OrderID)
			return res
		}
	}
	for _, c := range m.Categories {
		if c.RevenueBRL.IsNegative() {
			res.Passed, res.Table = false, models.TableFctCategories
			res.Detail = fmt.Sprintf("category month %s has negative revenue", c.OrderMonth.Format(dateLayout))
			return res
		}
	}
	for _, g := range m.Geographic {
		if g.RevenueBRL.IsNegative() {
			res.Passed, res.Table = false, models.TableFctGeographic
			res.Detail = fmt.Sprintf("%s/%s has negative revenue", g.State, g.City)
			return res
		}
	}
	return res
}

// checkItemGrain verifies both item-grain aggregates account for exactly
// the eligible items of the order table.
func checkItemGrain(m *models.Marts) CheckResult {
	res := CheckResult{Name: "item_grain", Table: models.TableFctCategories, Blocking: true, Passed: true}
	eligible := 0
	for i := range m.Orders {
		if salesEligible(&m.Orders[i]) {
			eligible += len(m.Orders[i].Items)
		}
	}
	var cat, geo int
	for _, c := range m.Categories {
		cat += c.ItemCount
	}
	for _, g := range m.Geographic {
		geo += g.ItemCount
	}
	if cat != eligible || geo != eligible {
		res.Passed = false
		res.Detail = fmt.Sprintf("eligible items %d, category items %d, geographic items %d", eligible, cat, geo)
	}
	return res
}

func checkCustomerReferences(m *models.Marts) CheckResult {
	res := CheckResult{Name: "relationships", Table: models.TableFctCustomers, Blocking: true, Passed: true}
	keys := make(map[string]bool, len(m.Orders))
	for _, o := range m.Orders {
		keys[o.CustomerKey()] = true
	}
	for _, p := range m.Customers {
		if !keys[p.CustomerKey] {
			res.Passed = false
			res.Detail = fmt.Sprintf("customer %s has no orders", p.CustomerKey)
			return res
		}
	}
	return res
}

// checkRateCoverage warns when too few dated orders resolved an exchange rate.
func checkRateCoverage(orders []models.EnrichedOrder, min float64) CheckResult {
	res := CheckResult{Name: "exchange_rate_coverage", Table: models.TableFctOrders, Passed: true}
	var dated, resolved int
	for _, o := range orders {
		if o.PurchasedAt == nil {
			continue
		}
		dated++
		if o.ExchangeRate.Valid {
			resolved++
		}
	}
	if dated == 0 {
		return res
	}
	coverage := float64(resolved) / float64(dated)
	res.Detail = fmt.Sprintf("%.1f%% of dated orders have an exchange rate", coverage*100)
	if coverage < min {
		res.Passed = false
	}
	return res
}
