package processor

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"salesflow/logger"
	"salesflow/models"
)

const (
	timestampLayout = "2006-01-02 15:04:05"
	dateLayout      = "2006-01-02"
	bcbDateLayout   = "02/01/2006"
)

var timeLayouts = []string{timestampLayout, time.RFC3339, dateLayout, bcbDateLayout}

// CleanRecord is a raw record coerced to its schema. Fields that fail
// coercion are null; the record is invalid only when a required field is null.
type CleanRecord struct {
	Table   string
	Valid   bool
	Coerced int
	values  map[string]any
}

// Clean coerces one raw record into the typed shape of schema. It never
// fails: unparseable or out-of-range values become null and empty dates
// stay null.
func Clean(raw models.RawRecord, schema models.Schema) CleanRecord {
	rec := CleanRecord{Table: schema.Table, Valid: true, values: make(map[string]any, len(schema.Fields))}
	for _, f := range schema.Fields {
		s := strings.TrimSpace(raw[f.Name])
		if s == "" {
			if f.Required {
				rec.Valid = false
			}
			continue
		}
		v, ok := coerce(s, f.Type)
		if ok && f.NonNegative {
			if d, isDec := v.(decimal.Decimal); isDec && d.IsNegative() {
				ok = false
			}
		}
		if !ok {
			rec.Coerced++
			if f.Required {
				rec.Valid = false
			}
			continue
		}
		rec.values[f.Name] = v
	}
	return rec
}

func coerce(s string, t models.FieldType) (any, bool) {
	switch t {
	case models.FieldString:
		return s, true
	case models.FieldInt:
		if n, err := strconv.Atoi(s); err == nil {
			return n, true
		}
		// Exports occasionally render integers as "5.0".
		d, err := decimal.NewFromString(s)
		if err != nil || !d.Equal(d.Truncate(0)) {
			return nil, false
		}
		return int(d.IntPart()), true
	case models.FieldDecimal:
		d, err := decimal.NewFromString(s)
		if err != nil {
			return nil, false
		}
		return d, true
	case models.FieldTimestamp:
		return parseTime(s)
	case models.FieldDate:
		t, ok := parseTime(s)
		if !ok {
			return nil, false
		}
		return TruncateDay(t), true
	}
	return nil, false
}

func parseTime(s string) (time.Time, bool) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// String returns the field or "" when null.
func (r CleanRecord) String(name string) string {
	s, _ := r.values[name].(string)
	return s
}

// OptString returns the field or nil when null.
func (r CleanRecord) OptString(name string) *string {
	s, ok := r.values[name].(string)
	if !ok {
		return nil
	}
	return &s
}

func (r CleanRecord) Int(name string) *int {
	n, ok := r.values[name].(int)
	if !ok {
		return nil
	}
	return &n
}

func (r CleanRecord) Decimal(name string) decimal.NullDecimal {
	d, ok := r.values[name].(decimal.Decimal)
	if !ok {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(d)
}

func (r CleanRecord) Time(name string) *time.Time {
	t, ok := r.values[name].(time.Time)
	if !ok {
		return nil
	}
	return &t
}

func ToOrder(r CleanRecord) models.Order {
	return models.Order{
		OrderID:             r.String("order_id"),
		CustomerID:          r.String("customer_id"),
		Status:              models.OrderStatus(strings.ToLower(r.String("order_status"))),
		PurchasedAt:         r.Time("order_purchase_timestamp"),
		ApprovedAt:          r.Time("order_approved_at"),
		DeliveredCarrierAt:  r.Time("order_delivered_carrier_date"),
		DeliveredCustomerAt: r.Time("order_delivered_customer_date"),
		EstimatedDeliveryAt: r.Time("order_estimated_delivery_date"),
	}
}

func ToOrderItem(r CleanRecord) models.OrderItem {
	item := models.OrderItem{
		OrderID:         r.String("order_id"),
		ProductID:       r.String("product_id"),
		SellerID:        r.String("seller_id"),
		Price:           r.Decimal("price"),
		Freight:         r.Decimal("freight_value"),
		ShippingLimitAt: r.Time("shipping_limit_date"),
	}
	if seq := r.Int("order_item_id"); seq != nil {
		item.ItemSeq = *seq
	}
	return item
}

func ToProduct(r CleanRecord) models.Product {
	return models.Product{
		ProductID: r.String("product_id"),
		Category:  r.OptString("product_category_name"),
		WeightG:   r.Decimal("product_weight_g"),
		LengthCm:  r.Decimal("product_length_cm"),
		HeightCm:  r.Decimal("product_height_cm"),
		WidthCm:   r.Decimal("product_width_cm"),
	}
}

func ToCustomer(r CleanRecord) models.Customer {
	return models.Customer{
		CustomerID: r.String("customer_id"),
		UniqueID:   r.String("customer_unique_id"),
		ZipPrefix:  r.String("customer_zip_code_prefix"),
		City:       r.String("customer_city"),
		State:      strings.ToUpper(r.String("customer_state")),
	}
}

func ToReview(r CleanRecord) models.Review {
	review := models.Review{
		ReviewID:  r.String("review_id"),
		OrderID:   r.String("order_id"),
		Score:     r.Int("review_score"),
		CreatedAt: r.Time("review_creation_date"),
	}
	if review.Score != nil && (*review.Score < 1 || *review.Score > 5) {
		review.Score = nil
	}
	return review
}

func ToIndicator(r CleanRecord) models.Indicator {
	ind := models.Indicator{
		Series: models.Series(strings.ToLower(r.String("series_name"))),
		Value:  r.Decimal("valor"),
	}
	if d := r.Time("data"); d != nil {
		ind.Date = *d
	}
	return ind
}

// CleanStats counts what the cleaner recovered from or dropped, per table.
type CleanStats struct {
	Rows      map[string]int
	Invalid   map[string]int
	Coerced   map[string]int
	Duplicate map[string]int
}

func newCleanStats() CleanStats {
	return CleanStats{
		Rows:      make(map[string]int),
		Invalid:   make(map[string]int),
		Coerced:   make(map[string]int),
		Duplicate: make(map[string]int),
	}
}

// cleanTable validates the table's structure and returns its valid records.
func cleanTable(raw models.RawDataset, schema models.Schema, stats *CleanStats) ([]CleanRecord, error) {
	tbl, err := raw.Table(schema.Table)
	if err != nil {
		return nil, err
	}
	if err := schema.Validate(tbl); err != nil {
		return nil, err
	}
	records := tbl.Records()
	out := make([]CleanRecord, 0, len(records))
	for _, rr := range records {
		rec := Clean(rr, schema)
		stats.Coerced[schema.Table] += rec.Coerced
		if !rec.Valid {
			stats.Invalid[schema.Table]++
			continue
		}
		out = append(out, rec)
	}
	stats.Rows[schema.Table] = len(out)
	return out, nil
}

// CleanDataset cleans every input table. Missing required tables and
// missing join-key columns are structural errors; the reviews table is
// optional. Duplicate keys keep their first occurrence.
func CleanDataset(raw models.RawDataset) (*models.Dataset, CleanStats, error) {
	log := logger.GetLogger().WithComponent("cleaner")
	stats := newCleanStats()
	ds := &models.Dataset{Translation: make(map[string]string)}

	orders, err := cleanTable(raw, models.OrdersSchema, &stats)
	if err != nil {
		return nil, stats, err
	}
	seenOrders := make(map[string]bool, len(orders))
	for _, r := range orders {
		o := ToOrder(r)
		if seenOrders[o.OrderID] {
			stats.Duplicate[models.TableOrders]++
			continue
		}
		seenOrders[o.OrderID] = true
		ds.Orders = append(ds.Orders, o)
	}

	items, err := cleanTable(raw, models.OrderItemsSchema, &stats)
	if err != nil {
		return nil, stats, err
	}
	seenItems := make(map[string]bool, len(items))
	for _, r := range items {
		it := ToOrderItem(r)
		key := it.OrderID + "\x00" + strconv.Itoa(it.ItemSeq)
		if seenItems[key] {
			stats.Duplicate[models.TableOrderItems]++
			continue
		}
		seenItems[key] = true
		ds.Items = append(ds.Items, it)
	}

	customers, err := cleanTable(raw, models.CustomersSchema, &stats)
	if err != nil {
		return nil, stats, err
	}
	seenCustomers := make(map[string]bool, len(customers))
	for _, r := range customers {
		c := ToCustomer(r)
		if seenCustomers[c.CustomerID] {
			stats.Duplicate[models.TableCustomers]++
			continue
		}
		seenCustomers[c.CustomerID] = true
		ds.Customers = append(ds.Customers, c)
	}

	products, err := cleanTable(raw, models.ProductsSchema, &stats)
	if err != nil {
		return nil, stats, err
	}
	seenProducts := make(map[string]bool, len(products))
	for _, r := range products {
		p := ToProduct(r)
		if seenProducts[p.ProductID] {
			stats.Duplicate[models.TableProducts]++
			continue
		}
		seenProducts[p.ProductID] = true
		ds.Products = append(ds.Products, p)
	}

	if _, ok := raw[models.TableReviews]; ok {
		reviews, err := cleanTable(raw, models.ReviewsSchema, &stats)
		if err != nil {
			return nil, stats, err
		}
		for _, r := range reviews {
			ds.Reviews = append(ds.Reviews, ToReview(r))
		}
	} else {
		log.Warn("reviews table not provided; review scores will be null")
	}

	translation, err := cleanTable(raw, models.TranslationSchema, &stats)
	if err != nil {
		return nil, stats, err
	}
	ds.Translation = BuildTranslation(translation)

	indicators, err := cleanTable(raw, models.IndicatorsSchema, &stats)
	if err != nil {
		return nil, stats, err
	}
	seenObs := make(map[string]int, len(indicators))
	for _, r := range indicators {
		ind := ToIndicator(r)
		key := string(ind.Series) + "\x00" + ind.Date.Format(dateLayout)
		if i, ok := seenObs[key]; ok {
			// At most one observation per (series, date): a later row replaces
			// a null earlier one, otherwise the first one wins.
			stats.Duplicate[models.TableIndicators]++
			if !ds.Indicators[i].Value.Valid && ind.Value.Valid {
				ds.Indicators[i] = ind
			}
			continue
		}
		seenObs[key] = len(ds.Indicators)
		ds.Indicators = append(ds.Indicators, ind)
	}

	for _, table := range models.InputTables {
		fields := logger.Fields{
			"table":     table,
			"rows":      stats.Rows[table],
			"invalid":   stats.Invalid[table],
			"coerced":   stats.Coerced[table],
			"duplicate": stats.Duplicate[table],
		}
		log.WithFields(fields).Info("table cleaned")
	}
	return ds, stats, nil
}
