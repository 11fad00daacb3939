package models

import "fmt"

// FieldType is the canonical type a raw string column is coerced into.
type FieldType int

const (
	FieldString FieldType = iota
	FieldInt
	FieldDecimal
	FieldTimestamp
	FieldDate
)

func (t FieldType) String() string {
	switch t {
	case FieldString:
		return "string"
	case FieldInt:
		return "int"
	case FieldDecimal:
		return "decimal"
	case FieldTimestamp:
		return "timestamp"
	case FieldDate:
		return "date"
	default:
		return fmt.Sprintf("FieldType(%d)", int(t))
	}
}

// Field describes one column. Required fields are join keys: a record
// without them cannot take part in any join and is marked invalid.
// NonNegative decimals below zero fail coercion like unparseable ones.
type Field struct {
	Name        string
	Type        FieldType
	Required    bool
	NonNegative bool
}

// Schema is the typed shape of one raw input table.
type Schema struct {
	Table  string
	Fields []Field
}

// Required returns the names of the join-key fields.
func (s Schema) Required() []string {
	var out []string
	for _, f := range s.Fields {
		if f.Required {
			out = append(out, f.Name)
		}
	}
	return out
}

// Validate checks that every required column is present on the table.
// Optional columns may be missing; their values clean to null.
func (s Schema) Validate(t *RawTable) error {
	if t == nil {
		return MissingTable(s.Table)
	}
	for _, name := range s.Required() {
		if t.ColumnIndex(name) < 0 {
			return &SchemaError{Table: s.Table, Column: name, Reason: "required column not found"}
		}
	}
	return nil
}

var (
	OrdersSchema = Schema{Table: TableOrders, Fields: []Field{
		{Name: "order_id", Type: FieldString, Required: true},
		{Name: "customer_id", Type: FieldString, Required: true},
		{Name: "order_status", Type: FieldString},
		{Name: "order_purchase_timestamp", Type: FieldTimestamp},
		{Name: "order_approved_at", Type: FieldTimestamp},
		{Name: "order_delivered_carrier_date", Type: FieldTimestamp},
		{Name: "order_delivered_customer_date", Type: FieldTimestamp},
		{Name: "order_estimated_delivery_date", Type: FieldTimestamp},
	}}

	OrderItemsSchema = Schema{Table: TableOrderItems, Fields: []Field{
		{Name: "order_id", Type: FieldString, Required: true},
		{Name: "order_item_id", Type: FieldInt, Required: true},
		{Name: "product_id", Type: FieldString},
		{Name: "seller_id", Type: FieldString},
		{Name: "shipping_limit_date", Type: FieldTimestamp},
		{Name: "price", Type: FieldDecimal, NonNegative: true},
		{Name: "freight_value", Type: FieldDecimal, NonNegative: true},
	}}

	CustomersSchema = Schema{Table: TableCustomers, Fields: []Field{
		{Name: "customer_id", Type: FieldString, Required: true},
		{Name: "customer_unique_id", Type: FieldString},
		{Name: "customer_zip_code_prefix", Type: FieldString},
		{Name: "customer_city", Type: FieldString},
		{Name: "customer_state", Type: FieldString},
	}}

	ProductsSchema = Schema{Table: TableProducts, Fields: []Field{
		{Name: "product_id", Type: FieldString, Required: true},
		{Name: "product_category_name", Type: FieldString},
		{Name: "product_weight_g", Type: FieldDecimal, NonNegative: true},
		{Name: "product_length_cm", Type: FieldDecimal, NonNegative: true},
		{Name: "product_height_cm", Type: FieldDecimal, NonNegative: true},
		{Name: "product_width_cm", Type: FieldDecimal, NonNegative: true},
	}}

	ReviewsSchema = Schema{Table: TableReviews, Fields: []Field{
		{Name: "review_id", Type: FieldString, Required: true},
		{Name: "order_id", Type: FieldString, Required: true},
		{Name: "review_score", Type: FieldInt},
		{Name: "review_creation_date", Type: FieldTimestamp},
	}}

	TranslationSchema = Schema{Table: TableCategoryTranslation, Fields: []Field{
		{Name: "product_category_name", Type: FieldString, Required: true},
		{Name: "product_category_name_english", Type: FieldString},
	}}

	IndicatorsSchema = Schema{Table: TableIndicators, Fields: []Field{
		{Name: "series_name", Type: FieldString, Required: true},
		{Name: "data", Type: FieldDate, Required: true},
		{Name: "valor", Type: FieldDecimal},
	}}
)

// Schemas lists every input schema keyed by table name.
var Schemas = map[string]Schema{
	TableOrders:              OrdersSchema,
	TableOrderItems:          OrderItemsSchema,
	TableCustomers:           CustomersSchema,
	TableProducts:            ProductsSchema,
	TableReviews:             ReviewsSchema,
	TableCategoryTranslation: TranslationSchema,
	TableIndicators:          IndicatorsSchema,
}
