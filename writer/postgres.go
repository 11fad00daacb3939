package writer

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"salesflow/logger"
	"salesflow/models"
)

// maxBindParams is the Postgres limit on parameters in one statement.
const maxBindParams = 65535

// PostgresSink replaces the mart tables in a Postgres schema. All tables
// of a run are replaced inside one transaction.
type PostgresSink struct {
	db        *sql.DB
	schema    string
	batchSize int
	log       *logger.Log
}

func NewPostgresSink(db *sql.DB, schema string, batchSize int) *PostgresSink {
	if batchSize < 1 {
		batchSize = 500
	}
	return &PostgresSink{db: db, schema: schema, batchSize: batchSize, log: logger.GetLogger()}
}

func (s *PostgresSink) Name() string { return "postgres" }

func (s *PostgresSink) Publish(ctx context.Context, run RunInfo, tables []*models.Table) ([]PublishedTable, error) {
	log := s.log.WithComponent("postgres_writer").WithFields(logger.Fields{"run_id": run.ID, "schema": s.schema})
	start := time.Now()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	out := make([]PublishedTable, 0, len(tables))
	for _, t := range tables {
		ident := pgx.Identifier{s.schema, t.Name}.Sanitize()
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+ident); err != nil {
			return nil, fmt.Errorf("clear %s: %w", t.Name, err)
		}
		batch := rowsPerStatement(s.batchSize, len(t.Columns))
		for i := 0; i < len(t.Rows); i += batch {
			end := i + batch
			if end > len(t.Rows) {
				end = len(t.Rows)
			}
			query, args := insertStatement(ident, t.ColumnNames(), t.Rows[i:end])
			if _, err := tx.ExecContext(ctx, query, args...); err != nil {
				return nil, fmt.Errorf("insert into %s: %w", t.Name, err)
			}
		}
		out = append(out, PublishedTable{Sink: s.Name(), Table: t.Name, Location: s.schema + "." + t.Name, Rows: len(t.Rows)})
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	for _, p := range out {
		logger.LogDataFlowEntry(log, p.Table, p.Location, p.Rows, "rows")
	}
	logger.LogPerformanceEntry(log, "postgres_writer", "publish", time.Since(start), logger.Fields{"tables": len(out)})
	return out, nil
}

// rowsPerStatement caps the configured batch so a multi-row INSERT stays
// within maxBindParams.
func rowsPerStatement(batchSize, columns int) int {
	if columns < 1 {
		return batchSize
	}
	if limit := maxBindParams / columns; batchSize > limit {
		return limit
	}
	return batchSize
}

// insertStatement builds one multi-row INSERT with positional parameters.
func insertStatement(table string, columns []string, rows []models.Row) (string, []any) {
	quoted := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = pgx.Identifier{c}.Sanitize()
	}

	var b strings.Builder
	fmt.Fprintf(&b, "INSERT INTO %s (%s) VALUES ", table, strings.Join(quoted, ", "))
	args := make([]any, 0, len(rows)*len(columns))
	for r, row := range rows {
		if r > 0 {
			b.WriteString(", ")
		}
		b.WriteByte('(')
		for c, v := range row.Values() {
			if c > 0 {
				b.WriteString(", ")
			}
			args = append(args, v)
			fmt.Fprintf(&b, "$%d", len(args))
		}
		b.WriteByte(')')
	}
	return b.String(), args
}

func (s *PostgresSink) Close() error { return nil }
