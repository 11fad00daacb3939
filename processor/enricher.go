package processor

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"salesflow/logger"
	"salesflow/models"
)

// CustomerEligibleStatuses is the status set used by the customer profile.
var CustomerEligibleStatuses = map[models.OrderStatus]bool{
	models.StatusApproved:   true,
	models.StatusProcessing: true,
	models.StatusInvoiced:   true,
	models.StatusShipped:    true,
	models.StatusDelivered:  true,
}

// SalesEligibleStatuses is the narrower status set used by the category
// and geographic aggregates. It must stay distinct from
// CustomerEligibleStatuses; reported totals depend on the difference.
var SalesEligibleStatuses = map[models.OrderStatus]bool{
	models.StatusDelivered: true,
	models.StatusShipped:   true,
	models.StatusApproved:  true,
}

// Enricher joins orders to their items, products and economic context.
type Enricher struct {
	Products     map[string]models.Product
	Translation  map[string]string
	Indicators   *IndicatorTable
	RunTimestamp time.Time
}

func NewEnricher(ds *models.Dataset, indicators *IndicatorTable, runTimestamp time.Time) *Enricher {
	products := make(map[string]models.Product, len(ds.Products))
	for _, p := range ds.Products {
		products[p.ProductID] = p
	}
	return &Enricher{
		Products:     products,
		Translation:  ds.Translation,
		Indicators:   indicators,
		RunTimestamp: runTimestamp.UTC(),
	}
}

// Enrich builds one enriched order. Unresolved joins leave the dependent
// fields null; the order itself is always produced.
func (e *Enricher) Enrich(order models.Order, items []models.OrderItem, customer *models.Customer, reviews []models.Review) models.EnrichedOrder {
	out := models.EnrichedOrder{
		OrderID:      order.OrderID,
		CustomerID:   order.CustomerID,
		Status:       order.Status,
		PurchasedAt:  order.PurchasedAt,
		RunTimestamp: e.RunTimestamp,
	}
	if customer != nil {
		out.CustomerUniqueID = customer.UniqueID
		out.CustomerCity = customer.City
		out.CustomerState = customer.State
	}

	if order.PurchasedAt != nil {
		day := TruncateDay(*order.PurchasedAt)
		month := TruncateMonth(day)
		out.PurchaseDate = &day
		out.OrderMonth = &month

		out.ExchangeRate = e.Indicators.Resolve(models.SeriesExchangeRateUSD, day)
		out.ExchangeCommercial = e.Indicators.Resolve(models.SeriesExchangeCommercial, day)
		out.IPCA = e.Indicators.Resolve(models.SeriesIPCA, day)
		out.Selic = e.Indicators.Resolve(models.SeriesSelic, day)
		out.IGPM = e.Indicators.Resolve(models.SeriesIGPM, day)
	}
	out.Regime = ClassifyRegime(out.ExchangeRate)

	sorted := append([]models.OrderItem(nil), items...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ItemSeq < sorted[j].ItemSeq })

	var price, freight nullSum
	out.Items = make([]models.EnrichedItem, 0, len(sorted))
	for _, it := range sorted {
		ei := models.EnrichedItem{
			ItemSeq:   it.ItemSeq,
			ProductID: it.ProductID,
			SellerID:  it.SellerID,
			Price:     it.Price,
			Freight:   it.Freight,
		}
		if p, ok := e.Products[it.ProductID]; ok {
			ei.CategoryPT = p.Category
			ei.Category = Translate(p.Category, e.Translation)
		}
		if it.Price.Valid {
			ei.PriceUSD = divide(it.Price.Decimal, out.ExchangeRate)
		}
		price.Add(it.Price)
		freight.Add(it.Freight)
		out.Items = append(out.Items, ei)
	}
	out.OrderValue = price.Value()
	out.FreightValue = freight.Value()
	// No priced item means no total, not a zero one.
	if out.OrderValue.Valid {
		total := out.OrderValue.Decimal.Add(orZero(out.FreightValue))
		out.TotalValue = decimal.NewNullDecimal(total)
		out.TotalUSD = divide(total, out.ExchangeRate)
	}

	var scores nullSum
	for _, r := range reviews {
		if r.Score != nil {
			scores.Add(decimal.NewNullDecimal(decimal.NewFromInt(int64(*r.Score))))
		}
	}
	if avg := scores.Avg(); avg.Valid {
		out.AvgReviewScore = decimal.NewNullDecimal(avg.Decimal.Round(2))
	}

	if order.PurchasedAt != nil && order.DeliveredCustomerAt != nil {
		days := daysBetween(*order.PurchasedAt, *order.DeliveredCustomerAt)
		out.DeliveryDays = &days
	}
	if order.DeliveredCustomerAt != nil && order.EstimatedDeliveryAt != nil {
		late := TruncateDay(*order.DeliveredCustomerAt).After(TruncateDay(*order.EstimatedDeliveryAt))
		out.DeliveredLate = &late
	}
	return out
}

// daysBetween counts calendar days from a to b.
func daysBetween(a, b time.Time) int {
	return int(TruncateDay(b).Sub(TruncateDay(a)).Hours() / 24)
}

// EnrichAll enriches every order using a pool of workers. Output keeps the
// input order so repeated runs produce identical tables.
func EnrichAll(ctx context.Context, ds *models.Dataset, e *Enricher, workers int) ([]models.EnrichedOrder, error) {
	log := logger.GetLogger().WithComponent("enricher")
	start := time.Now()

	itemsByOrder := make(map[string][]models.OrderItem, len(ds.Orders))
	for _, it := range ds.Items {
		itemsByOrder[it.OrderID] = append(itemsByOrder[it.OrderID], it)
	}
	customers := make(map[string]*models.Customer, len(ds.Customers))
	for i := range ds.Customers {
		customers[ds.Customers[i].CustomerID] = &ds.Customers[i]
	}
	reviewsByOrder := make(map[string][]models.Review)
	for _, r := range ds.Reviews {
		reviewsByOrder[r.OrderID] = append(reviewsByOrder[r.OrderID], r)
	}

	if workers < 1 {
		workers = 1
	}
	out := make([]models.EnrichedOrder, len(ds.Orders))
	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				o := ds.Orders[i]
				out[i] = e.Enrich(o, itemsByOrder[o.OrderID], customers[o.CustomerID], reviewsByOrder[o.OrderID])
			}
		}()
	}

	var err error
feed:
	for i := range ds.Orders {
		if err = ctx.Err(); err != nil {
			break
		}
		select {
		case <-ctx.Done():
			err = ctx.Err()
			break feed
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()
	if err != nil {
		return nil, err
	}

	var missingCustomer, missingRate int
	for _, o := range out {
		if _, ok := customers[o.CustomerID]; !ok {
			missingCustomer++
		}
		if o.PurchasedAt != nil && !o.ExchangeRate.Valid {
			missingRate++
		}
	}
	log.WithFields(logger.Fields{
		"orders":           len(out),
		"workers":          workers,
		"missing_customer": missingCustomer,
		"missing_rate":     missingRate,
	}).Info("orders enriched")
	logger.LogPerformanceEntry(log, "enricher", "enrich_all", time.Since(start), nil)
	return out, nil
}
