package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	TableFctOrders     = "fct_orders_with_economics"
	TableFctCustomers  = "fct_customer_purchases_economics"
	TableFctCategories = "fct_category_performance_economics"
	TableFctGeographic = "fct_geographic_sales_economics"

	dateLayout = "2006-01-02"
)

// OutputTables lists the mart tables in publish order.
var OutputTables = []string{TableFctOrders, TableFctCustomers, TableFctCategories, TableFctGeographic}

// Column describes one output column. Key columns form the table's grain.
type Column struct {
	Name     string
	Key      bool
	Nullable bool
}

// Row is one output row; Values are in column order and use nil for null.
type Row interface {
	Values() []any
}

// Table is a materialized mart table ready for the sinks.
type Table struct {
	Name    string
	Columns []Column
	Rows    []Row
	// Schema is a pointer to a zero row, used as the parquet schema.
	Schema any
}

// ColumnNames returns the column names in order.
func (t *Table) ColumnNames() []string {
	out := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		out[i] = c.Name
	}
	return out
}

// Marts is the complete output of one run.
type Marts struct {
	Orders     []EnrichedOrder
	Customers  []CustomerProfile
	Categories []CategoryPerformance
	Geographic []GeographicSales
}

// Tables converts the marts into sink-ready tables in publish order.
func (m *Marts) Tables() []*Table {
	return []*Table{
		OrdersTable(m.Orders),
		CustomersTable(m.Customers),
		CategoriesTable(m.Categories),
		GeographicTable(m.Geographic),
	}
}

type OrderRow struct {
	OrderID            string   `parquet:"name=order_id, type=BYTE_ARRAY, convertedtype=UTF8" json:"order_id"`
	CustomerID         string   `parquet:"name=customer_id, type=BYTE_ARRAY, convertedtype=UTF8" json:"customer_id"`
	CustomerUniqueID   string   `parquet:"name=customer_unique_id, type=BYTE_ARRAY, convertedtype=UTF8" json:"customer_unique_id"`
	CustomerCity       string   `parquet:"name=customer_city, type=BYTE_ARRAY, convertedtype=UTF8" json:"customer_city"`
	CustomerState      string   `parquet:"name=customer_state, type=BYTE_ARRAY, convertedtype=UTF8" json:"customer_state"`
	OrderStatus        string   `parquet:"name=order_status, type=BYTE_ARRAY, convertedtype=UTF8" json:"order_status"`
	PurchaseTimestamp  *int64   `parquet:"name=order_purchase_timestamp, type=INT64, convertedtype=TIMESTAMP_MILLIS, repetitiontype=OPTIONAL" json:"order_purchase_timestamp"`
	OrderDate          *string  `parquet:"name=order_date, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL" json:"order_date"`
	OrderMonth         *string  `parquet:"name=order_month, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL" json:"order_month"`
	CategoryName       *string  `parquet:"name=category_name, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL" json:"category_name"`
	ItemCount          int64    `parquet:"name=item_count, type=INT64" json:"item_count"`
	OrderValueBRL      *float64 `parquet:"name=order_value_brl, type=DOUBLE, repetitiontype=OPTIONAL" json:"order_value_brl"`
	FreightValueBRL    *float64 `parquet:"name=freight_value_brl, type=DOUBLE, repetitiontype=OPTIONAL" json:"freight_value_brl"`
	TotalValueBRL      *float64 `parquet:"name=total_value_brl, type=DOUBLE, repetitiontype=OPTIONAL" json:"total_value_brl"`
	TotalValueUSD      *float64 `parquet:"name=total_value_usd, type=DOUBLE, repetitiontype=OPTIONAL" json:"total_value_usd"`
	ExchangeRate       *float64 `parquet:"name=exchange_rate, type=DOUBLE, repetitiontype=OPTIONAL" json:"exchange_rate"`
	CurrencyStrength   *string  `parquet:"name=currency_strength, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL" json:"currency_strength"`
	ExchangeCommercial *float64 `parquet:"name=exchange_commercial, type=DOUBLE, repetitiontype=OPTIONAL" json:"exchange_commercial"`
	IPCA               *float64 `parquet:"name=ipca, type=DOUBLE, repetitiontype=OPTIONAL" json:"ipca"`
	Selic              *float64 `parquet:"name=selic, type=DOUBLE, repetitiontype=OPTIONAL" json:"selic"`
	IGPM               *float64 `parquet:"name=igpm, type=DOUBLE, repetitiontype=OPTIONAL" json:"igpm"`
	AvgReviewScore     *float64 `parquet:"name=avg_review_score, type=DOUBLE, repetitiontype=OPTIONAL" json:"avg_review_score"`
	DeliveryDays       *int64   `parquet:"name=delivery_days, type=INT64, repetitiontype=OPTIONAL" json:"delivery_days"`
	DeliveredLate      *bool    `parquet:"name=delivered_late, type=BOOLEAN, repetitiontype=OPTIONAL" json:"delivered_late"`
	RunTimestamp       int64    `parquet:"name=run_timestamp, type=INT64, convertedtype=TIMESTAMP_MILLIS" json:"run_timestamp"`
}

var orderColumns = []Column{
	{Name: "order_id", Key: true},
	{Name: "customer_id"},
	{Name: "customer_unique_id"},
	{Name: "customer_city"},
	{Name: "customer_state"},
	{Name: "order_status"},
	{Name: "order_purchase_timestamp", Nullable: true},
	{Name: "order_date", Nullable: true},
	{Name: "order_month", Nullable: true},
	{Name: "category_name", Nullable: true},
	{Name: "item_count"},
	{Name: "order_value_brl", Nullable: true},
	{Name: "freight_value_brl", Nullable: true},
	{Name: "total_value_brl", Nullable: true},
	{Name: "total_value_usd", Nullable: true},
	{Name: "exchange_rate", Nullable: true},
	{Name: "currency_strength", Nullable: true},
	{Name: "exchange_commercial", Nullable: true},
	{Name: "ipca", Nullable: true},
	{Name: "selic", Nullable: true},
	{Name: "igpm", Nullable: true},
	{Name: "avg_review_score", Nullable: true},
	{Name: "delivery_days", Nullable: true},
	{Name: "delivered_late", Nullable: true},
	{Name: "run_timestamp"},
}

func (r OrderRow) Values() []any {
	return []any{
		r.OrderID, r.CustomerID, r.CustomerUniqueID, r.CustomerCity, r.CustomerState, r.OrderStatus,
		optMillis(r.PurchaseTimestamp), optDate(r.OrderDate), optDate(r.OrderMonth), optString(r.CategoryName),
		r.ItemCount, optFloat(r.OrderValueBRL), optFloat(r.FreightValueBRL), optFloat(r.TotalValueBRL), optFloat(r.TotalValueUSD),
		optFloat(r.ExchangeRate), optString(r.CurrencyStrength), optFloat(r.ExchangeCommercial),
		optFloat(r.IPCA), optFloat(r.Selic), optFloat(r.IGPM), optFloat(r.AvgReviewScore),
		optInt(r.DeliveryDays), optBool(r.DeliveredLate), time.UnixMilli(r.RunTimestamp).UTC(),
	}
}

// NewOrderRow flattens an enriched order. The order's category is the
// translated category of its first item.
func NewOrderRow(o EnrichedOrder) OrderRow {
	row := OrderRow{
		OrderID:            o.OrderID,
		CustomerID:         o.CustomerID,
		CustomerUniqueID:   o.CustomerUniqueID,
		CustomerCity:       o.CustomerCity,
		CustomerState:      o.CustomerState,
		OrderStatus:        string(o.Status),
		OrderDate:          dateString(o.PurchaseDate),
		OrderMonth:         dateString(o.OrderMonth),
		ItemCount:          int64(len(o.Items)),
		OrderValueBRL:      nullFloat(o.OrderValue),
		FreightValueBRL:    nullFloat(o.FreightValue),
		TotalValueBRL:      nullFloat(o.TotalValue),
		TotalValueUSD:      nullFloat(o.TotalUSD),
		ExchangeRate:       nullFloat(o.ExchangeRate),
		CurrencyStrength:   regimeString(o.Regime),
		ExchangeCommercial: nullFloat(o.ExchangeCommercial),
		IPCA:               nullFloat(o.IPCA),
		Selic:              nullFloat(o.Selic),
		IGPM:               nullFloat(o.IGPM),
		AvgReviewScore:     nullFloat(o.AvgReviewScore),
		DeliveredLate:      o.DeliveredLate,
		RunTimestamp:       o.RunTimestamp.UnixMilli(),
	}
	if o.PurchasedAt != nil {
		ms := o.PurchasedAt.UnixMilli()
		row.PurchaseTimestamp = &ms
	}
	if len(o.Items) > 0 {
		row.CategoryName = o.Items[0].Category
	}
	if o.DeliveryDays != nil {
		d := int64(*o.DeliveryDays)
		row.DeliveryDays = &d
	}
	return row
}

func OrdersTable(orders []EnrichedOrder) *Table {
	rows := make([]Row, len(orders))
	for i, o := range orders {
		rows[i] = NewOrderRow(o)
	}
	return &Table{Name: TableFctOrders, Columns: orderColumns, Rows: rows, Schema: new(OrderRow)}
}

type CustomerRow struct {
	CustomerUniqueID     string   `parquet:"name=customer_unique_id, type=BYTE_ARRAY, convertedtype=UTF8" json:"customer_unique_id"`
	CustomerCity         string   `parquet:"name=customer_city, type=BYTE_ARRAY, convertedtype=UTF8" json:"customer_city"`
	CustomerState        string   `parquet:"name=customer_state, type=BYTE_ARRAY, convertedtype=UTF8" json:"customer_state"`
	TotalOrders          int64    `parquet:"name=total_orders, type=INT64" json:"total_orders"`
	FirstOrderDate       string   `parquet:"name=first_order_date, type=BYTE_ARRAY, convertedtype=UTF8" json:"first_order_date"`
	LastOrderDate        string   `parquet:"name=last_order_date, type=BYTE_ARRAY, convertedtype=UTF8" json:"last_order_date"`
	TotalSpentBRL        *float64 `parquet:"name=total_spent_brl, type=DOUBLE, repetitiontype=OPTIONAL" json:"total_spent_brl"`
	TotalSpentUSD        *float64 `parquet:"name=total_spent_usd, type=DOUBLE, repetitiontype=OPTIONAL" json:"total_spent_usd"`
	AvgOrderValueBRL     *float64 `parquet:"name=avg_order_value_brl, type=DOUBLE, repetitiontype=OPTIONAL" json:"avg_order_value_brl"`
	AvgDaysBetweenOrders *float64 `parquet:"name=avg_days_between_orders, type=DOUBLE, repetitiontype=OPTIONAL" json:"avg_days_between_orders"`
	AvgExchangeRate      *float64 `parquet:"name=avg_exchange_rate, type=DOUBLE, repetitiontype=OPTIONAL" json:"avg_exchange_rate"`
	DaysSinceLastOrder   int64    `parquet:"name=days_since_last_order, type=INT64" json:"days_since_last_order"`
	TenureDays           int64    `parquet:"name=customer_tenure_days, type=INT64" json:"customer_tenure_days"`
	RecencyScore         int64    `parquet:"name=recency_score, type=INT64" json:"recency_score"`
	FrequencyScore       int64    `parquet:"name=frequency_score, type=INT64" json:"frequency_score"`
	MonetaryScore        int64    `parquet:"name=monetary_score, type=INT64" json:"monetary_score"`
	RFMScore             string   `parquet:"name=rfm_score, type=BYTE_ARRAY, convertedtype=UTF8" json:"rfm_score"`
	CustomerSegment      string   `parquet:"name=customer_segment, type=BYTE_ARRAY, convertedtype=UTF8" json:"customer_segment"`
	CustomerType         string   `parquet:"name=customer_type, type=BYTE_ARRAY, convertedtype=UTF8" json:"customer_type"`
	CustomerStatus       string   `parquet:"name=customer_status, type=BYTE_ARRAY, convertedtype=UTF8" json:"customer_status"`
	AnnualizedValueBRL   *float64 `parquet:"name=annualized_value_brl, type=DOUBLE, repetitiontype=OPTIONAL" json:"annualized_value_brl"`
	RunTimestamp         int64    `parquet:"name=run_timestamp, type=INT64, convertedtype=TIMESTAMP_MILLIS" json:"run_timestamp"`
}

var customerColumns = []Column{
	{Name: "customer_unique_id", Key: true},
	{Name: "customer_city"},
	{Name: "customer_state"},
	{Name: "total_orders"},
	{Name: "first_order_date"},
	{Name: "last_order_date"},
	{Name: "total_spent_brl", Nullable: true},
	{Name: "total_spent_usd", Nullable: true},
	{Name: "avg_order_value_brl", Nullable: true},
	{Name: "avg_days_between_orders", Nullable: true},
	{Name: "avg_exchange_rate", Nullable: true},
	{Name: "days_since_last_order"},
	{Name: "customer_tenure_days"},
	{Name: "recency_score"},
	{Name: "frequency_score"},
	{Name: "monetary_score"},
	{Name: "rfm_score"},
	{Name: "customer_segment"},
	{Name: "customer_type"},
	{Name: "customer_status"},
	{Name: "annualized_value_brl", Nullable: true},
	{Name: "run_timestamp"},
}

func (r CustomerRow) Values() []any {
	return []any{
		r.CustomerUniqueID, r.CustomerCity, r.CustomerState, r.TotalOrders,
		dateValue(r.FirstOrderDate), dateValue(r.LastOrderDate), optFloat(r.TotalSpentBRL), optFloat(r.TotalSpentUSD),
		optFloat(r.AvgOrderValueBRL), optFloat(r.AvgDaysBetweenOrders), optFloat(r.AvgExchangeRate),
		r.DaysSinceLastOrder, r.TenureDays, r.RecencyScore, r.FrequencyScore, r.MonetaryScore,
		r.RFMScore, r.CustomerSegment, r.CustomerType, r.CustomerStatus, optFloat(r.AnnualizedValueBRL),
		time.UnixMilli(r.RunTimestamp).UTC(),
	}
}

func NewCustomerRow(p CustomerProfile) CustomerRow {
	return CustomerRow{
		CustomerUniqueID:     p.CustomerKey,
		CustomerCity:         p.CustomerCity,
		CustomerState:        p.CustomerState,
		TotalOrders:          int64(p.OrderCount),
		FirstOrderDate:       p.FirstOrderDate.Format(dateLayout),
		LastOrderDate:        p.LastOrderDate.Format(dateLayout),
		TotalSpentBRL:        nullFloat(p.TotalSpendBRL),
		TotalSpentUSD:        nullFloat(p.TotalSpendUSD),
		AvgOrderValueBRL:     nullFloat(p.AvgOrderValueBRL),
		AvgDaysBetweenOrders: nullFloat(p.AvgDaysBetweenOrders),
		AvgExchangeRate:      nullFloat(p.AvgExchangeRate),
		DaysSinceLastOrder:   int64(p.DaysSinceLastOrder),
		TenureDays:           int64(p.TenureDays),
		RecencyScore:         int64(p.RecencyScore),
		FrequencyScore:       int64(p.FrequencyScore),
		MonetaryScore:        int64(p.MonetaryScore),
		RFMScore:             p.RFMScore,
		CustomerSegment:      string(p.Segment),
		CustomerType:         string(p.Type),
		CustomerStatus:       string(p.Status),
		AnnualizedValueBRL:   nullFloat(p.AnnualizedValueBRL),
		RunTimestamp:         p.RunTimestamp.UnixMilli(),
	}
}

func CustomersTable(profiles []CustomerProfile) *Table {
	rows := make([]Row, len(profiles))
	for i, p := range profiles {
		rows[i] = NewCustomerRow(p)
	}
	return &Table{Name: TableFctCustomers, Columns: customerColumns, Rows: rows, Schema: new(CustomerRow)}
}

type CategoryRow struct {
	CategoryName       *string  `parquet:"name=category_name, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL" json:"category_name"`
	CategoryNamePT     *string  `parquet:"name=category_name_pt, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL" json:"category_name_pt"`
	OrderMonth         string   `parquet:"name=order_month, type=BYTE_ARRAY, convertedtype=UTF8" json:"order_month"`
	OrderCount         int64    `parquet:"name=order_count, type=INT64" json:"order_count"`
	ItemCount          int64    `parquet:"name=item_count, type=INT64" json:"item_count"`
	TotalRevenueBRL    float64  `parquet:"name=total_revenue_brl, type=DOUBLE" json:"total_revenue_brl"`
	TotalFreightBRL    float64  `parquet:"name=total_freight_brl, type=DOUBLE" json:"total_freight_brl"`
	TotalRevenueUSD    *float64 `parquet:"name=total_revenue_usd, type=DOUBLE, repetitiontype=OPTIONAL" json:"total_revenue_usd"`
	AvgOrderValueBRL   float64  `parquet:"name=avg_order_value_brl, type=DOUBLE" json:"avg_order_value_brl"`
	AvgExchangeRate    *float64 `parquet:"name=avg_exchange_rate, type=DOUBLE, repetitiontype=OPTIONAL" json:"avg_exchange_rate"`
	ExchangeRatePeriod *string  `parquet:"name=exchange_rate_period, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL" json:"exchange_rate_period"`
	AvgIPCA            *float64 `parquet:"name=avg_ipca, type=DOUBLE, repetitiontype=OPTIONAL" json:"avg_ipca"`
	AvgSelic           *float64 `parquet:"name=avg_selic, type=DOUBLE, repetitiontype=OPTIONAL" json:"avg_selic"`
	RunTimestamp       int64    `parquet:"name=run_timestamp, type=INT64, convertedtype=TIMESTAMP_MILLIS" json:"run_timestamp"`
}

var categoryColumns = []Column{
	{Name: "category_name", Key: true, Nullable: true},
	{Name: "category_name_pt", Nullable: true},
	{Name: "order_month", Key: true},
	{Name: "order_count"},
	{Name: "item_count"},
	{Name: "total_revenue_brl"},
	{Name: "total_freight_brl"},
	{Name: "total_revenue_usd", Nullable: true},
	{Name: "avg_order_value_brl"},
	{Name: "avg_exchange_rate", Nullable: true},
	{Name: "exchange_rate_period", Nullable: true},
	{Name: "avg_ipca", Nullable: true},
	{Name: "avg_selic", Nullable: true},
	{Name: "run_timestamp"},
}

func (r CategoryRow) Values() []any {
	return []any{
		optString(r.CategoryName), optString(r.CategoryNamePT), dateValue(r.OrderMonth),
		r.OrderCount, r.ItemCount, r.TotalRevenueBRL, r.TotalFreightBRL, optFloat(r.TotalRevenueUSD),
		r.AvgOrderValueBRL, optFloat(r.AvgExchangeRate), optString(r.ExchangeRatePeriod),
		optFloat(r.AvgIPCA), optFloat(r.AvgSelic), time.UnixMilli(r.RunTimestamp).UTC(),
	}
}

func NewCategoryRow(c CategoryPerformance) CategoryRow {
	return CategoryRow{
		CategoryName:       c.Category,
		CategoryNamePT:     c.CategoryPT,
		OrderMonth:         c.OrderMonth.Format(dateLayout),
		OrderCount:         int64(c.OrderCount),
		ItemCount:          int64(c.ItemCount),
		TotalRevenueBRL:    c.RevenueBRL.InexactFloat64(),
		TotalFreightBRL:    c.FreightBRL.InexactFloat64(),
		TotalRevenueUSD:    nullFloat(c.RevenueUSD),
		AvgOrderValueBRL:   c.AvgOrderValueBRL.InexactFloat64(),
		AvgExchangeRate:    nullFloat(c.AvgExchangeRate),
		ExchangeRatePeriod: regimeString(c.Regime),
		AvgIPCA:            nullFloat(c.AvgIPCA),
		AvgSelic:           nullFloat(c.AvgSelic),
		RunTimestamp:       c.RunTimestamp.UnixMilli(),
	}
}

func CategoriesTable(rowsIn []CategoryPerformance) *Table {
	rows := make([]Row, len(rowsIn))
	for i, c := range rowsIn {
		rows[i] = NewCategoryRow(c)
	}
	return &Table{Name: TableFctCategories, Columns: categoryColumns, Rows: rows, Schema: new(CategoryRow)}
}

type GeographicRow struct {
	CustomerState    string   `parquet:"name=customer_state, type=BYTE_ARRAY, convertedtype=UTF8" json:"customer_state"`
	CustomerCity     string   `parquet:"name=customer_city, type=BYTE_ARRAY, convertedtype=UTF8" json:"customer_city"`
	OrderMonth       string   `parquet:"name=order_month, type=BYTE_ARRAY, convertedtype=UTF8" json:"order_month"`
	OrderCount       int64    `parquet:"name=order_count, type=INT64" json:"order_count"`
	ItemCount        int64    `parquet:"name=item_count, type=INT64" json:"item_count"`
	UniqueCustomers  int64    `parquet:"name=unique_customers, type=INT64" json:"unique_customers"`
	TotalRevenueBRL  float64  `parquet:"name=total_revenue_brl, type=DOUBLE" json:"total_revenue_brl"`
	TotalFreightBRL  float64  `parquet:"name=total_freight_brl, type=DOUBLE" json:"total_freight_brl"`
	TotalRevenueUSD  *float64 `parquet:"name=total_revenue_usd, type=DOUBLE, repetitiontype=OPTIONAL" json:"total_revenue_usd"`
	AvgOrderValueBRL float64  `parquet:"name=avg_order_value_brl, type=DOUBLE" json:"avg_order_value_brl"`
	AvgExchangeRate  *float64 `parquet:"name=avg_exchange_rate, type=DOUBLE, repetitiontype=OPTIONAL" json:"avg_exchange_rate"`
	CurrencyStrength *string  `parquet:"name=currency_strength, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL" json:"currency_strength"`
	RunTimestamp     int64    `parquet:"name=run_timestamp, type=INT64, convertedtype=TIMESTAMP_MILLIS" json:"run_timestamp"`
}

var geographicColumns = []Column{
	{Name: "customer_state", Key: true},
	{Name: "customer_city", Key: true},
	{Name: "order_month", Key: true},
	{Name: "order_count"},
	{Name: "item_count"},
	{Name: "unique_customers"},
	{Name: "total_revenue_brl"},
	{Name: "total_freight_brl"},
	{Name: "total_revenue_usd", Nullable: true},
	{Name: "avg_order_value_brl"},
	{Name: "avg_exchange_rate", Nullable: true},
	{Name: "currency_strength", Nullable: true},
	{Name: "run_timestamp"},
}

func (r GeographicRow) Values() []any {
	return []any{
		r.CustomerState, r.CustomerCity, dateValue(r.OrderMonth), r.OrderCount, r.ItemCount,
		r.UniqueCustomers, r.TotalRevenueBRL, r.TotalFreightBRL, optFloat(r.TotalRevenueUSD),
		r.AvgOrderValueBRL, optFloat(r.AvgExchangeRate), optString(r.CurrencyStrength),
		time.UnixMilli(r.RunTimestamp).UTC(),
	}
}

func NewGeographicRow(g GeographicSales) GeographicRow {
	return GeographicRow{
		CustomerState:    g.State,
		CustomerCity:     g.City,
		OrderMonth:       g.OrderMonth.Format(dateLayout),
		OrderCount:       int64(g.OrderCount),
		ItemCount:        int64(g.ItemCount),
		UniqueCustomers:  int64(g.UniqueCustomers),
		TotalRevenueBRL:  g.RevenueBRL.InexactFloat64(),
		TotalFreightBRL:  g.FreightBRL.InexactFloat64(),
		TotalRevenueUSD:  nullFloat(g.RevenueUSD),
		AvgOrderValueBRL: g.AvgOrderValueBRL.InexactFloat64(),
		AvgExchangeRate:  nullFloat(g.AvgExchangeRate),
		CurrencyStrength: regimeString(g.Regime),
		RunTimestamp:     g.RunTimestamp.UnixMilli(),
	}
}

func GeographicTable(rowsIn []GeographicSales) *Table {
	rows := make([]Row, len(rowsIn))
	for i, g := range rowsIn {
		rows[i] = NewGeographicRow(g)
	}
	return &Table{Name: TableFctGeographic, Columns: geographicColumns, Rows: rows, Schema: new(GeographicRow)}
}

func nullFloat(d decimal.NullDecimal) *float64 {
	if !d.Valid {
		return nil
	}
	f := d.Decimal.InexactFloat64()
	return &f
}

func regimeString(r Regime) *string {
	if r == "" {
		return nil
	}
	s := string(r)
	return &s
}

func dateString(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(dateLayout)
	return &s
}

func dateValue(s string) any {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return nil
	}
	return t
}

func optDate(s *string) any {
	if s == nil {
		return nil
	}
	return dateValue(*s)
}

func optMillis(ms *int64) any {
	if ms == nil {
		return nil
	}
	return time.UnixMilli(*ms).UTC()
}

func optString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func optFloat(f *float64) any {
	if f == nil {
		return nil
	}
	return *f
}

func optInt(i *int64) any {
	if i == nil {
		return nil
	}
	return *i
}

func optBool(b *bool) any {
	if b == nil {
		return nil
	}
	return *b
}
