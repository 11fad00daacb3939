package processor

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"salesflow/models"
)

type categoryKey struct {
	category string
	null     bool
	month    time.Time
}

type salesAcc struct {
	orders    map[string]bool
	customers map[string]bool
	items     int
	revenue   decimal.Decimal
	freight   decimal.Decimal
	usd       nullSum
	rate      nullSum
	ipca      nullSum
	selic     nullSum
	// categoryPT is the smallest local label seen in the group.
	categoryPT *string
}

func newSalesAcc() *salesAcc {
	return &salesAcc{orders: make(map[string]bool), customers: make(map[string]bool)}
}

func (a *salesAcc) add(o *models.EnrichedOrder, it *models.EnrichedItem) {
	a.orders[o.OrderID] = true
	a.customers[o.CustomerKey()] = true
	a.items++
	a.revenue = a.revenue.Add(orZero(it.Price))
	a.freight = a.freight.Add(orZero(it.Freight))
	a.usd.Add(it.PriceUSD)
	a.rate.Add(o.ExchangeRate)
	a.ipca.Add(o.IPCA)
	a.selic.Add(o.Selic)
	if it.CategoryPT != nil && (a.categoryPT == nil || *it.CategoryPT < *a.categoryPT) {
		pt := *it.CategoryPT
		a.categoryPT = &pt
	}
}

func (a *salesAcc) avgOrderValue() decimal.Decimal {
	return a.revenue.Div(decimal.NewFromInt(int64(len(a.orders))))
}

// salesEligible reports whether an order takes part in the item-grain aggregates.
func salesEligible(o *models.EnrichedOrder) bool {
	return SalesEligibleStatuses[o.Status] && o.OrderMonth != nil
}

// CategoryPerformanceOf groups eligible order items by (display category,
// month). A null category forms its own group. Revenue is the item price;
// USD revenue skips items whose rate was unresolved.
func CategoryPerformanceOf(orders []models.EnrichedOrder, runTS time.Time) []models.CategoryPerformance {
	groups := make(map[categoryKey]*salesAcc)
	for i := range orders {
		o := &orders[i]
		if !salesEligible(o) {
			continue
		}
		for j := range o.Items {
			it := &o.Items[j]
			key := categoryKey{null: it.Category == nil, month: *o.OrderMonth}
			if it.Category != nil {
				key.category = *it.Category
			}
			acc := groups[key]
			if acc == nil {
				acc = newSalesAcc()
				groups[key] = acc
			}
			acc.add(o, it)
		}
	}

	keys := make([]categoryKey, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if !a.month.Equal(b.month) {
			return a.month.Before(b.month)
		}
		if a.null != b.null {
			return a.null
		}
		return a.category < b.category
	})

	out := make([]models.CategoryPerformance, 0, len(keys))
	for _, k := range keys {
		acc := groups[k]
		row := models.CategoryPerformance{
			CategoryPT:       acc.categoryPT,
			OrderMonth:       k.month,
			OrderCount:       len(acc.orders),
			ItemCount:        acc.items,
			RevenueBRL:       acc.revenue,
			FreightBRL:       acc.freight,
			RevenueUSD:       acc.usd.Value(),
			AvgOrderValueBRL: acc.avgOrderValue(),
			AvgExchangeRate:  acc.rate.Avg(),
			AvgIPCA:          acc.ipca.Avg(),
			AvgSelic:         acc.selic.Avg(),
			RunTimestamp:     runTS,
		}
		if !k.null {
			c := k.category
			row.Category = &c
		}
		row.Regime = ClassifyRegime(row.AvgExchangeRate)
		out = append(out, row)
	}
	return out
}

type geoKey struct {
	state string
	city  string
	month time.Time
}

// GeographicSalesOf groups eligible order items by (state, city, month).
func GeographicSalesOf(orders []models.EnrichedOrder, runTS time.Time) []models.GeographicSales {
	groups := make(map[geoKey]*salesAcc)
	for i := range orders {
		o := &orders[i]
		if !salesEligible(o) {
			continue
		}
		key := geoKey{state: o.CustomerState, city: o.CustomerCity, month: *o.OrderMonth}
		for j := range o.Items {
			acc := groups[key]
			if acc == nil {
				acc = newSalesAcc()
				groups[key] = acc
			}
			acc.add(o, &o.Items[j])
		}
	}

	keys := make([]geoKey, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if !a.month.Equal(b.month) {
			return a.month.Before(b.month)
		}
		if a.state != b.state {
			return a.state < b.state
		}
		return a.city < b.city
	})

	out := make([]models.GeographicSales, 0, len(keys))
	for _, k := range keys {
		acc := groups[k]
		row := models.GeographicSales{
			State:            k.state,
			City:             k.city,
			OrderMonth:       k.month,
			OrderCount:       len(acc.orders),
			ItemCount:        acc.items,
			UniqueCustomers:  len(acc.customers),
			RevenueBRL:       acc.revenue,
			FreightBRL:       acc.freight,
			RevenueUSD:       acc.usd.Value(),
			AvgOrderValueBRL: acc.avgOrderValue(),
			AvgExchangeRate:  acc.rate.Avg(),
			RunTimestamp:     runTS,
		}
		row.Regime = ClassifyRegime(row.AvgExchangeRate)
		out = append(out, row)
	}
	return out
}
