package reader

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"salesflow/models"
)

func TestPostgresLoadTable(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT column_name, data_type FROM information_schema.columns")).
		WithArgs("raw", "products").
		WillReturnRows(sqlmock.NewRows([]string{"column_name", "data_type"}).
			AddRow("product_id", "text").
			AddRow("product_category_name", "character varying").
			AddRow("product_weight_g", "numeric"))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT "product_id"::text, "product_category_name"::text, "product_weight_g"::text FROM "raw"."products"`)).
		WillReturnRows(sqlmock.NewRows([]string{"product_id", "product_category_name", "product_weight_g"}).
			AddRow("p1", "beleza_saude", "500").
			AddRow("p2", nil, nil))

	r := NewPostgresReader(db, "raw", false)
	tbl, err := r.LoadTable(context.Background(), models.TableProducts)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(tbl.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(tbl.Rows))
	}
	if tbl.Rows[1][1] != "" {
		t.Errorf("null should load as empty string, got %q", tbl.Rows[1][1])
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPostgresKeyColumnType(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT column_name, data_type")).
		WithArgs("raw", "orders").
		WillReturnRows(sqlmock.NewRows([]string{"column_name", "data_type"}).
			AddRow("order_id", "bigint").
			AddRow("customer_id", "text"))

	_, err = NewPostgresReader(db, "raw", false).LoadTable(context.Background(), models.TableOrders)
	var se *models.SchemaError
	if !errors.As(err, &se) || se.Column != "order_id" {
		t.Fatalf("expected SchemaError on order_id, got %v", err)
	}
}

func TestPostgresMissingTable(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT column_name, data_type")).
		WithArgs("raw", "orders").
		WillReturnRows(sqlmock.NewRows([]string{"column_name", "data_type"}))

	_, err = NewPostgresReader(db, "raw", false).Load(context.Background())
	if !errors.Is(err, models.ErrMissingTable) {
		t.Fatalf("expected ErrMissingTable, got %v", err)
	}
}
