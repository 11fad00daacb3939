package models

const (
	TableOrders              = "orders"
	TableOrderItems          = "order_items"
	TableCustomers           = "customers"
	TableProducts            = "products"
	TableReviews             = "reviews"
	TableCategoryTranslation = "category_translation"
	TableIndicators          = "economic_indicators"
)

// InputTables lists the tables a run needs, in load order.
var InputTables = []string{
	TableOrders,
	TableOrderItems,
	TableCustomers,
	TableProducts,
	TableReviews,
	TableCategoryTranslation,
	TableIndicators,
}

// RawRecord is one untyped source row keyed by column name.
type RawRecord map[string]string

// RawTable is a source table as loaded, before any type coercion.
type RawTable struct {
	Name    string
	Columns []string
	Rows    [][]string
}

// ColumnIndex returns the position of a column or -1.
func (t *RawTable) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Records returns the rows keyed by column name. Short rows yield
// empty strings for the missing trailing columns.
func (t *RawTable) Records() []RawRecord {
	out := make([]RawRecord, 0, len(t.Rows))
	for _, row := range t.Rows {
		rec := make(RawRecord, len(t.Columns))
		for i, c := range t.Columns {
			if i < len(row) {
				rec[c] = row[i]
			} else {
				rec[c] = ""
			}
		}
		out = append(out, rec)
	}
	return out
}

// Append adds a row built from a record, in column order.
func (t *RawTable) Append(rec RawRecord) {
	row := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		row[i] = rec[c]
	}
	t.Rows = append(t.Rows, row)
}

// RawDataset holds every input table of one run.
type RawDataset map[string]*RawTable

// Table returns the named table or ErrMissingTable.
func (d RawDataset) Table(name string) (*RawTable, error) {
	t, ok := d[name]
	if !ok || t == nil {
		return nil, MissingTable(name)
	}
	return t, nil
}
