package reader

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"salesflow/config"
	"salesflow/logger"
	"salesflow/models"
)

// DefaultFiles maps each input table to its file name in the olist export.
var DefaultFiles = map[string]string{
	models.TableOrders:              "olist_orders_dataset.csv",
	models.TableOrderItems:          "olist_order_items_dataset.csv",
	models.TableCustomers:           "olist_customers_dataset.csv",
	models.TableProducts:            "olist_products_dataset.csv",
	models.TableReviews:             "olist_order_reviews_dataset.csv",
	models.TableCategoryTranslation: "product_category_name_translation.csv",
	models.TableIndicators:          "bcb_economic_indicators.csv",
}

// CSVReader loads the input tables from a directory of CSV exports.
type CSVReader struct {
	dir    string
	files  map[string]string
	tables []string
	log    *logger.Log
}

// NewCSVReader builds a reader over cfg.Dir. When skipIndicators is set the
// indicator file is not read; indicators then come from another source.
func NewCSVReader(cfg config.CSVSourceConfig, skipIndicators bool) *CSVReader {
	files := make(map[string]string, len(DefaultFiles))
	for table, name := range DefaultFiles {
		files[table] = name
	}
	if cfg.TranslationFile != "" {
		files[models.TableCategoryTranslation] = cfg.TranslationFile
	}
	if cfg.IndicatorsFile != "" {
		files[models.TableIndicators] = cfg.IndicatorsFile
	}

	var tables []string
	for _, t := range models.InputTables {
		if skipIndicators && t == models.TableIndicators {
			continue
		}
		tables = append(tables, t)
	}
	return &CSVReader{dir: cfg.Dir, files: files, tables: tables, log: logger.GetLogger()}
}

func (r *CSVReader) Name() string { return "csv" }

func (r *CSVReader) path(table string) string {
	name := r.files[table]
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(r.dir, name)
}

// Load reads every configured table. A missing required file is
// reported as models.ErrMissingTable.
func (r *CSVReader) Load(ctx context.Context) (models.RawDataset, error) {
	log := r.log.WithComponent("csv_reader").WithFields(logger.Fields{"dir": r.dir})
	start := time.Now()
	ds := make(models.RawDataset, len(r.tables))
	for _, table := range r.tables {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		path := r.path(table)
		f, err := os.Open(path)
		if errors.Is(err, os.ErrNotExist) {
			if optionalTables[table] {
				log.WithFields(logger.Fields{"table": table, "file": path}).Warn("optional input file not found")
				continue
			}
			return nil, models.MissingTable(table)
		}
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", path, err)
		}
		tbl, err := ReadCSV(table, f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		ds[table] = tbl
		logger.LogDataFlowEntry(log, path, table, len(tbl.Rows), "csv")
	}
	logger.LogPerformanceEntry(log, "csv_reader", "load", time.Since(start), logger.Fields{"tables": len(ds)})
	return ds, nil
}

// ReadCSV parses one CSV stream into a raw table. The first row is the
// header; column names are trimmed and lowercased.
func ReadCSV(table string, in io.Reader) (*models.RawTable, error) {
	cr := csv.NewReader(in)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, &models.SchemaError{Table: table, Reason: "file is empty"}
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	tbl := &models.RawTable{Name: table, Columns: normalizeHeader(header)}
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		tbl.Rows = append(tbl.Rows, record)
	}
	return tbl, nil
}

func normalizeHeader(header []string) []string {
	out := make([]string, len(header))
	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}
		out[i] = strings.ToLower(strings.TrimSpace(h))
	}
	return out
}
