package reader

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"salesflow/logger"
	"salesflow/models"
)

var textTypes = map[string]bool{
	"text":              true,
	"character varying": true,
	"character":         true,
}

const columnsQuery = `SELECT column_name, data_type FROM information_schema.columns
WHERE table_schema = $1 AND table_name = $2 ORDER BY ordinal_position`

// PostgresReader loads the raw input tables from a Postgres schema.
type PostgresReader struct {
	db     *sql.DB
	schema string
	tables []string
	log    *logger.Log
}

func NewPostgresReader(db *sql.DB, schema string, skipIndicators bool) *PostgresReader {
	var tables []string
	for _, t := range models.InputTables {
		if skipIndicators && t == models.TableIndicators {
			continue
		}
		tables = append(tables, t)
	}
	return &PostgresReader{db: db, schema: schema, tables: tables, log: logger.GetLogger()}
}

func (r *PostgresReader) Name() string { return "postgres" }

func (r *PostgresReader) Load(ctx context.Context) (models.RawDataset, error) {
	log := r.log.WithComponent("postgres_reader").WithFields(logger.Fields{"schema": r.schema})
	start := time.Now()
	ds := make(models.RawDataset, len(r.tables))
	for _, table := range r.tables {
		tbl, err := r.LoadTable(ctx, table)
		if err != nil {
			if optionalTables[table] && isMissing(err) {
				log.WithFields(logger.Fields{"table": table}).Warn("optional input table not found")
				continue
			}
			return nil, err
		}
		ds[table] = tbl
		logger.LogDataFlowEntry(log, r.schema+"."+table, table, len(tbl.Rows), "postgres")
	}
	logger.LogPerformanceEntry(log, "postgres_reader", "load", time.Since(start), logger.Fields{"tables": len(ds)})
	return ds, nil
}

// LoadTable reads one table with every column rendered as text. Join-key
// columns must be stored as text; anything else is a *models.SchemaError.
func (r *PostgresReader) LoadTable(ctx context.Context, table string) (*models.RawTable, error) {
	names, types, err := r.describe(ctx, table)
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return nil, models.MissingTable(table)
	}
	if schema, ok := models.Schemas[table]; ok {
		for _, f := range schema.Fields {
			if !f.Required || f.Type != models.FieldString {
				continue
			}
			if typ, ok := types[f.Name]; ok && !textTypes[typ] {
				return nil, &models.SchemaError{Table: table, Column: f.Name, Reason: fmt.Sprintf("key column has type %s, want text", typ)}
			}
		}
	}

	selects := make([]string, len(names))
	for i, n := range names {
		selects[i] = pgx.Identifier{n}.Sanitize() + "::text"
	}
	query := fmt.Sprintf("SELECT %s FROM %s", strings.Join(selects, ", "), pgx.Identifier{r.schema, table}.Sanitize())

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", table, err)
	}
	defer rows.Close()

	tbl := &models.RawTable{Name: table, Columns: names}
	for rows.Next() {
		vals := make([]sql.NullString, len(names))
		dest := make([]any, len(names))
		for i := range vals {
			dest[i] = &vals[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan %s: %w", table, err)
		}
		row := make([]string, len(names))
		for i, v := range vals {
			if v.Valid {
				row[i] = v.String
			}
		}
		tbl.Rows = append(tbl.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", table, err)
	}
	return tbl, nil
}

// describe returns the column names in ordinal order and their types.
func (r *PostgresReader) describe(ctx context.Context, table string) ([]string, map[string]string, error) {
	rows, err := r.db.QueryContext(ctx, columnsQuery, r.schema, table)
	if err != nil {
		return nil, nil, fmt.Errorf("describe %s: %w", table, err)
	}
	defer rows.Close()

	var names []string
	types := make(map[string]string)
	for rows.Next() {
		var name, typ string
		if err := rows.Scan(&name, &typ); err != nil {
			return nil, nil, fmt.Errorf("describe %s: %w", table, err)
		}
		names = append(names, name)
		types[name] = typ
	}
	return names, types, rows.Err()
}

func isMissing(err error) bool {
	return errors.Is(err, models.ErrMissingTable)
}
