package models

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMissingTable is returned when a required input table is absent.
var ErrMissingTable = errors.New("missing required table")

// ErrCycle is returned when the stage graph cannot be ordered.
var ErrCycle = errors.New("stage graph contains a cycle")

// MissingTable wraps ErrMissingTable with the table name.
func MissingTable(table string) error {
	return fmt.Errorf("%w: %s", ErrMissingTable, table)
}

// SchemaError reports a structural mismatch on an input table.
type SchemaError struct {
	Table  string
	Column string
	Reason string
}

func (e *SchemaError) Error() string {
	if e.Column == "" {
		return fmt.Sprintf("schema mismatch on table %s: %s", e.Table, e.Reason)
	}
	return fmt.Sprintf("schema mismatch on %s.%s: %s", e.Table, e.Column, e.Reason)
}

// QualityError lists the blocking data-quality checks that failed for a run.
type QualityError struct {
	Failures []string
}

func (e *QualityError) Error() string {
	return fmt.Sprintf("%d data quality check(s) failed: %s", len(e.Failures), strings.Join(e.Failures, "; "))
}
