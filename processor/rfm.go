package processor

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"salesflow/models"
)

const rfmBuckets = 5

type customerAcc struct {
	key         string
	orders      int
	first, last time.Time
	lastOrderID string
	city, state string
	spend       nullSum
	usd         nullSum
	rate        nullSum
}

// CustomerProfiles builds one profile per customer from the eligible orders.
// asOf is the recency reference date; nil uses the latest purchase date.
// Scores need the whole population, so they are assigned after every
// customer total is known.
func CustomerProfiles(orders []models.EnrichedOrder, asOf *time.Time, runTS time.Time) []models.CustomerProfile {
	groups := make(map[string]*customerAcc)
	var latest time.Time
	for i := range orders {
		o := &orders[i]
		if !CustomerEligibleStatuses[o.Status] || o.PurchasedAt == nil {
			continue
		}
		key := o.CustomerKey()
		acc := groups[key]
		if acc == nil {
			acc = &customerAcc{key: key, first: *o.PurchasedAt, last: *o.PurchasedAt}
			groups[key] = acc
		}
		acc.orders++
		if o.PurchasedAt.Before(acc.first) {
			acc.first = *o.PurchasedAt
		}
		if !o.PurchasedAt.Before(acc.last) {
			// Location follows the latest order; equal timestamps break on order id.
			if o.PurchasedAt.After(acc.last) || o.OrderID > acc.lastOrderID {
				acc.city, acc.state, acc.lastOrderID = o.CustomerCity, o.CustomerState, o.OrderID
			}
			acc.last = *o.PurchasedAt
		}
		acc.spend.Add(o.TotalValue)
		acc.usd.Add(o.TotalUSD)
		acc.rate.Add(o.ExchangeRate)
		if o.PurchasedAt.After(latest) {
			latest = *o.PurchasedAt
		}
	}
	if len(groups) == 0 {
		return nil
	}

	ref := TruncateDay(latest)
	if asOf != nil {
		ref = TruncateDay(*asOf)
	}

	profiles := make([]models.CustomerProfile, 0, len(groups))
	for _, acc := range groups {
		p := models.CustomerProfile{
			CustomerKey:        acc.key,
			CustomerCity:       acc.city,
			CustomerState:      acc.state,
			OrderCount:         acc.orders,
			FirstOrderDate:     TruncateDay(acc.first),
			LastOrderDate:      TruncateDay(acc.last),
			TotalSpendBRL:      acc.spend.Value(),
			TotalSpendUSD:      acc.usd.Value(),
			AvgOrderValueBRL:   acc.spend.Avg(),
			AvgExchangeRate:    acc.rate.Avg(),
			DaysSinceLastOrder: daysBetween(acc.last, ref),
			TenureDays:         daysBetween(acc.first, acc.last),
			RunTimestamp:       runTS,
		}
		if acc.orders > 1 {
			p.AvgDaysBetweenOrders = decimal.NewNullDecimal(
				decimal.NewFromInt(int64(p.TenureDays)).Div(decimal.NewFromInt(int64(acc.orders - 1))))
		}
		p.AnnualizedValueBRL = annualize(p.TotalSpendBRL, p.TenureDays)
		p.Type = ClassifyCustomerType(p.OrderCount)
		p.Status = ClassifyCustomerStatus(p.DaysSinceLastOrder)
		profiles = append(profiles, p)
	}

	ScoreRFM(profiles)

	sort.Slice(profiles, func(i, j int) bool { return profiles[i].CustomerKey < profiles[j].CustomerKey })
	return profiles
}

// annualize scales spend to a yearly figure; tenures under a year count as one year.
func annualize(spend decimal.NullDecimal, tenureDays int) decimal.NullDecimal {
	if !spend.Valid {
		return spend
	}
	days := int64(tenureDays)
	if days < 365 {
		days = 365
	}
	return decimal.NewNullDecimal(spend.Decimal.Mul(decimal.NewFromInt(365)).Div(decimal.NewFromInt(days)))
}

// ScoreRFM assigns recency, frequency and monetary quintiles, the combined
// score string and the segment to every profile.
func ScoreRFM(profiles []models.CustomerProfile) {
	idx := make([]int, len(profiles))
	for i := range idx {
		idx[i] = i
	}

	// Recency: the longest-idle customers rank first and score 1.
	ntile(idx, func(a, b int) int {
		return compareInt(profiles[b].DaysSinceLastOrder, profiles[a].DaysSinceLastOrder)
	}, profiles, func(p *models.CustomerProfile, s int) { p.RecencyScore = s })

	ntile(idx, func(a, b int) int {
		return compareInt(profiles[a].OrderCount, profiles[b].OrderCount)
	}, profiles, func(p *models.CustomerProfile, s int) { p.FrequencyScore = s })

	// Monetary: null USD spend ranks lowest.
	ntile(idx, func(a, b int) int {
		x, y := profiles[a].TotalSpendUSD, profiles[b].TotalSpendUSD
		switch {
		case !x.Valid && !y.Valid:
			return 0
		case !x.Valid:
			return -1
		case !y.Valid:
			return 1
		}
		return x.Decimal.Cmp(y.Decimal)
	}, profiles, func(p *models.CustomerProfile, s int) { p.MonetaryScore = s })

	for i := range profiles {
		p := &profiles[i]
		p.RFMScore = fmt.Sprintf("%d%d%d", p.RecencyScore, p.FrequencyScore, p.MonetaryScore)
		p.Segment = ClassifySegment(p.RecencyScore, p.FrequencyScore, p.MonetaryScore)
	}
}

// ntile sorts idx ascending by cmp, breaking ties on customer key, and
// assigns NTILE(5) buckets: each bucket holds n/5 members and the first
// n%5 buckets hold one extra.
func ntile(idx []int, cmp func(a, b int) int, profiles []models.CustomerProfile, set func(*models.CustomerProfile, int)) {
	sort.Slice(idx, func(i, j int) bool {
		if c := cmp(idx[i], idx[j]); c != 0 {
			return c < 0
		}
		return profiles[idx[i]].CustomerKey < profiles[idx[j]].CustomerKey
	})
	for pos, i := range idx {
		set(&profiles[i], Bucket(pos, len(idx), rfmBuckets))
	}
}

// Bucket returns the 1-based NTILE bucket of the row at pos among n rows.
func Bucket(pos, n, buckets int) int {
	size := n / buckets
	rem := n % buckets
	// The first rem buckets have size+1 rows.
	big := rem * (size + 1)
	if pos < big {
		return pos/(size+1) + 1
	}
	return rem + (pos-big)/size + 1
}

func compareInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
