package models

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestTableValuesMatchColumns(t *testing.T) {
	run := time.Date(2018, 10, 18, 0, 0, 0, 0, time.UTC)
	month := time.Date(2017, 10, 1, 0, 0, 0, 0, time.UTC)
	cat := "health_beauty"

	m := &Marts{
		Orders:     []EnrichedOrder{{OrderID: "o1", RunTimestamp: run, Items: []EnrichedItem{{ItemSeq: 1, Category: &cat}}}},
		Customers:  []CustomerProfile{{CustomerKey: "c1", FirstOrderDate: month, LastOrderDate: month, RunTimestamp: run}},
		Categories: []CategoryPerformance{{Category: &cat, OrderMonth: month, RunTimestamp: run}},
		Geographic: []GeographicSales{{State: "SP", City: "sao paulo", OrderMonth: month, RunTimestamp: run}},
	}

	tables := m.Tables()
	if len(tables) != len(OutputTables) {
		t.Fatalf("expected %d tables, got %d", len(OutputTables), len(tables))
	}
	for i, tbl := range tables {
		if tbl.Name != OutputTables[i] {
			t.Errorf("table %d: expected %s, got %s", i, OutputTables[i], tbl.Name)
		}
		if len(tbl.Rows) != 1 {
			t.Fatalf("%s: expected 1 row, got %d", tbl.Name, len(tbl.Rows))
		}
		if got := len(tbl.Rows[0].Values()); got != len(tbl.Columns) {
			t.Errorf("%s: %d values for %d columns", tbl.Name, got, len(tbl.Columns))
		}
	}
}

func TestNewOrderRowNulls(t *testing.T) {
	o := EnrichedOrder{
		OrderID:    "o1",
		TotalValue: decimal.NewNullDecimal(decimal.RequireFromString("100.00")),
	}
	row := NewOrderRow(o)
	if row.TotalValueUSD != nil || row.ExchangeRate != nil || row.CurrencyStrength != nil {
		t.Fatalf("expected null economics, got %+v", row)
	}
	if row.CategoryName != nil || row.OrderMonth != nil {
		t.Fatalf("expected null category and month")
	}
	vals := row.Values()
	if vals[14] != nil {
		t.Errorf("total_value_usd should be nil, got %v", vals[14])
	}
	if row.TotalValueBRL == nil || *row.TotalValueBRL != 100 {
		t.Errorf("unexpected total: %v", row.TotalValueBRL)
	}
	if row.OrderValueBRL != nil || vals[11] != nil {
		t.Errorf("order value without items should be null, got %v", row.OrderValueBRL)
	}
}

func TestNewOrderRowWithoutTotal(t *testing.T) {
	row := NewOrderRow(EnrichedOrder{OrderID: "o1"})
	if row.TotalValueBRL != nil || row.FreightValueBRL != nil {
		t.Fatalf("expected null totals, got %+v", row)
	}
	vals := row.Values()
	for _, i := range []int{11, 12, 13} {
		if vals[i] != nil {
			t.Errorf("column %s should be nil, got %v", orderColumns[i].Name, vals[i])
		}
	}
}

func TestNewOrderRowEconomics(t *testing.T) {
	day := time.Date(2017, 10, 2, 0, 0, 0, 0, time.UTC)
	o := EnrichedOrder{
		OrderID:      "o1",
		PurchaseDate: &day,
		TotalValue:   decimal.NewNullDecimal(decimal.RequireFromString("100.00")),
		TotalUSD:     decimal.NewNullDecimal(decimal.RequireFromString("31.25")),
		ExchangeRate: decimal.NewNullDecimal(decimal.RequireFromString("3.20")),
		Regime:       RegimeStrong,
	}
	row := NewOrderRow(o)
	if row.TotalValueUSD == nil || *row.TotalValueUSD != 31.25 {
		t.Fatalf("unexpected usd: %v", row.TotalValueUSD)
	}
	if row.CurrencyStrength == nil || *row.CurrencyStrength != "Strong" {
		t.Fatalf("unexpected regime: %v", row.CurrencyStrength)
	}
	if row.OrderDate == nil || *row.OrderDate != "2017-10-02" {
		t.Fatalf("unexpected order date: %v", row.OrderDate)
	}
}

func TestSchemaValidate(t *testing.T) {
	tbl := &RawTable{Name: TableOrders, Columns: []string{"order_id", "order_status"}}
	err := OrdersSchema.Validate(tbl)
	var se *SchemaError
	if !errors.As(err, &se) {
		t.Fatalf("expected SchemaError, got %v", err)
	}
	if se.Column != "customer_id" {
		t.Errorf("unexpected column: %s", se.Column)
	}

	if err := OrdersSchema.Validate(nil); !errors.Is(err, ErrMissingTable) {
		t.Fatalf("expected ErrMissingTable, got %v", err)
	}
}

func TestRawTableRecords(t *testing.T) {
	tbl := &RawTable{Columns: []string{"a", "b", "c"}, Rows: [][]string{{"1", "2"}}}
	recs := tbl.Records()
	if len(recs) != 1 || recs[0]["a"] != "1" || recs[0]["c"] != "" {
		t.Fatalf("unexpected records: %v", recs)
	}
	tbl.Append(RawRecord{"c": "9"})
	if tbl.Rows[1][2] != "9" || tbl.Rows[1][0] != "" {
		t.Fatalf("unexpected appended row: %v", tbl.Rows[1])
	}
}
