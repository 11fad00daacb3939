package warehouse

import (
	"io/fs"
	"strings"
	"testing"

	"salesflow/models"
)

func TestMigrationsArePaired(t *testing.T) {
	ups, err := fs.Glob(migrationsFS, "sql/*.up.sql")
	if err != nil {
		t.Fatalf("glob: %v", err)
	}
	if len(ups) == 0 {
		t.Fatal("no up migrations embedded")
	}
	for _, up := range ups {
		down := strings.TrimSuffix(up, ".up.sql") + ".down.sql"
		if _, err := fs.Stat(migrationsFS, down); err != nil {
			t.Errorf("%s has no matching down migration: %v", up, err)
		}
	}
}

func readMigrations(t *testing.T, pattern string) string {
	t.Helper()
	files, err := fs.Glob(migrationsFS, pattern)
	if err != nil {
		t.Fatalf("glob: %v", err)
	}
	var b strings.Builder
	for _, f := range files {
		data, err := fs.ReadFile(migrationsFS, f)
		if err != nil {
			t.Fatalf("read %s: %v", f, err)
		}
		b.Write(data)
	}
	return b.String()
}

// tableBlock returns the column list of one CREATE TABLE statement.
func tableBlock(t *testing.T, ddl, qualified string) string {
	t.Helper()
	start := strings.Index(ddl, "CREATE TABLE IF NOT EXISTS "+qualified+" (")
	if start < 0 {
		t.Fatalf("no CREATE TABLE for %s", qualified)
	}
	end := strings.Index(ddl[start:], ");")
	if end < 0 {
		t.Fatalf("unterminated CREATE TABLE for %s", qualified)
	}
	return ddl[start : start+end]
}

func TestMartMigrationsMatchOutputColumns(t *testing.T) {
	ddl := readMigrations(t, "sql/*.up.sql")
	marts := &models.Marts{}
	for _, table := range marts.Tables() {
		block := tableBlock(t, ddl, MartsSchema+"."+table.Name)
		for _, col := range table.Columns {
			if !strings.Contains(block, "\n    "+col.Name+" ") {
				t.Errorf("%s: column %s missing from migration", table.Name, col.Name)
			}
		}
	}
}

func TestRawMigrationsCoverInputSchemas(t *testing.T) {
	ddl := readMigrations(t, "sql/*.up.sql")
	for _, name := range models.InputTables {
		schema := models.Schemas[name]
		block := tableBlock(t, ddl, RawSchema+"."+name)
		for _, f := range schema.Fields {
			if !strings.Contains(block, "\n    "+f.Name+" ") {
				t.Errorf("%s: column %s missing from migration", name, f.Name)
			}
		}
	}
}
