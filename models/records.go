package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	StatusCreated     OrderStatus = "created"
	StatusApproved    OrderStatus = "approved"
	StatusInvoiced    OrderStatus = "invoiced"
	StatusProcessing  OrderStatus = "processing"
	StatusShipped     OrderStatus = "shipped"
	StatusDelivered   OrderStatus = "delivered"
	StatusCanceled    OrderStatus = "canceled"
	StatusUnavailable OrderStatus = "unavailable"
)

// Order is one e-commerce transaction header.
type Order struct {
	OrderID             string
	CustomerID          string
	Status              OrderStatus
	PurchasedAt         *time.Time
	ApprovedAt          *time.Time
	DeliveredCarrierAt  *time.Time
	DeliveredCustomerAt *time.Time
	EstimatedDeliveryAt *time.Time
}

// OrderItem is one line of an order; (OrderID, ItemSeq) is unique.
type OrderItem struct {
	OrderID         string
	ItemSeq         int
	ProductID       string
	SellerID        string
	Price           decimal.NullDecimal
	Freight         decimal.NullDecimal
	ShippingLimitAt *time.Time
}

type Product struct {
	ProductID string
	// Category is the Portuguese category label; nil when absent.
	Category *string
	WeightG  decimal.NullDecimal
	LengthCm decimal.NullDecimal
	HeightCm decimal.NullDecimal
	WidthCm  decimal.NullDecimal
}

type Customer struct {
	CustomerID string
	// UniqueID identifies the natural person across orders.
	UniqueID  string
	ZipPrefix string
	City      string
	State     string
}

type Review struct {
	ReviewID  string
	OrderID   string
	Score     *int
	CreatedAt *time.Time
}

type Series string

const (
	SeriesExchangeRateUSD    Series = "exchange_rate_usd"
	SeriesIPCA               Series = "ipca"
	SeriesSelic              Series = "selic"
	SeriesIGPM               Series = "igpm"
	SeriesExchangeCommercial Series = "exchange_commercial"
)

// Indicator is one observation of one series on one date.
type Indicator struct {
	Series Series
	Date   time.Time
	Value  decimal.NullDecimal
	// Filled marks observations synthesized by forward fill.
	Filled bool
}

// Dataset is the cleaned, typed input of one run.
type Dataset struct {
	Orders      []Order
	Items       []OrderItem
	Customers   []Customer
	Products    []Product
	Reviews     []Review
	Indicators  []Indicator
	Translation map[string]string
}
