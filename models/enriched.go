package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Regime is the qualitative currency bucket of an exchange rate.
// The empty value means the rate was unresolved.
type Regime string

const (
	RegimeStrong   Regime = "Strong"
	RegimeModerate Regime = "Moderate"
	RegimeWeak     Regime = "Weak"
)

// EnrichedItem is an order item joined with its product and the order's rate.
type EnrichedItem struct {
	ItemSeq    int
	ProductID  string
	SellerID   string
	Category   *string
	CategoryPT *string
	Price      decimal.NullDecimal
	Freight    decimal.NullDecimal
	PriceUSD   decimal.NullDecimal
}

// EnrichedOrder is an order with its items, customer and economic context.
type EnrichedOrder struct {
	OrderID          string
	CustomerID       string
	CustomerUniqueID string
	CustomerCity     string
	CustomerState    string
	Status           OrderStatus
	PurchasedAt      *time.Time
	PurchaseDate     *time.Time
	OrderMonth       *time.Time

	Items        []EnrichedItem
	OrderValue   decimal.NullDecimal
	FreightValue decimal.NullDecimal
	TotalValue   decimal.NullDecimal
	TotalUSD     decimal.NullDecimal

	ExchangeRate       decimal.NullDecimal
	Regime             Regime
	ExchangeCommercial decimal.NullDecimal
	IPCA               decimal.NullDecimal
	Selic              decimal.NullDecimal
	IGPM               decimal.NullDecimal

	AvgReviewScore decimal.NullDecimal
	DeliveryDays   *int
	DeliveredLate  *bool

	RunTimestamp time.Time
}

// CustomerKey is the grain of the customer profile.
func (o EnrichedOrder) CustomerKey() string {
	if o.CustomerUniqueID != "" {
		return o.CustomerUniqueID
	}
	return o.CustomerID
}

type Segment string

const (
	SegmentChampions     Segment = "Champions"
	SegmentLoyal         Segment = "Loyal"
	SegmentAtRisk        Segment = "At Risk"
	SegmentBigSpenders   Segment = "Big Spenders"
	SegmentNew           Segment = "New"
	SegmentPromising     Segment = "Promising"
	SegmentLost          Segment = "Lost"
	SegmentNeedAttention Segment = "Need Attention"
)

type CustomerType string

const (
	CustomerOneTime    CustomerType = "One-time"
	CustomerOccasional CustomerType = "Occasional"
	CustomerRegular    CustomerType = "Regular"
	CustomerVIP        CustomerType = "VIP"
)

type CustomerStatus string

const (
	StatusActive  CustomerStatus = "Active"
	StatusAtRisk  CustomerStatus = "At Risk"
	StatusDormant CustomerStatus = "Dormant"
	StatusChurned CustomerStatus = "Churned"
)

// CustomerProfile is one row per customer, recomputed on every run.
type CustomerProfile struct {
	CustomerKey   string
	CustomerCity  string
	CustomerState string

	OrderCount     int
	FirstOrderDate time.Time
	LastOrderDate  time.Time

	TotalSpendBRL        decimal.NullDecimal
	TotalSpendUSD        decimal.NullDecimal
	AvgOrderValueBRL     decimal.NullDecimal
	AvgDaysBetweenOrders decimal.NullDecimal
	AvgExchangeRate      decimal.NullDecimal
	DaysSinceLastOrder   int
	TenureDays           int

	RecencyScore   int
	FrequencyScore int
	MonetaryScore  int
	RFMScore       string
	Segment        Segment
	Type           CustomerType
	Status         CustomerStatus

	AnnualizedValueBRL decimal.NullDecimal

	RunTimestamp time.Time
}

// CategoryPerformance is one row per (category, month), at item grain.
type CategoryPerformance struct {
	Category   *string
	CategoryPT *string
	OrderMonth time.Time

	OrderCount       int
	ItemCount        int
	RevenueBRL       decimal.Decimal
	FreightBRL       decimal.Decimal
	RevenueUSD       decimal.NullDecimal
	AvgOrderValueBRL decimal.Decimal
	AvgExchangeRate  decimal.NullDecimal
	Regime           Regime
	AvgIPCA          decimal.NullDecimal
	AvgSelic         decimal.NullDecimal

	RunTimestamp time.Time
}

// GeographicSales is one row per (state, city, month), at item grain.
type GeographicSales struct {
	State      string
	City       string
	OrderMonth time.Time

	OrderCount       int
	ItemCount        int
	UniqueCustomers  int
	RevenueBRL       decimal.Decimal
	FreightBRL       decimal.Decimal
	RevenueUSD       decimal.NullDecimal
	AvgOrderValueBRL decimal.Decimal
	AvgExchangeRate  decimal.NullDecimal
	Regime           Regime

	RunTimestamp time.Time
}
