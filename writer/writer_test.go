package writer

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"

	"salesflow/logger"
	"salesflow/models"
)

type testRow struct {
	ID    string   `parquet:"name=id, type=BYTE_ARRAY, convertedtype=UTF8"`
	Value *float64 `parquet:"name=value, type=DOUBLE, repetitiontype=OPTIONAL"`
}

func (r testRow) Values() []any {
	if r.Value == nil {
		return []any{r.ID, nil}
	}
	return []any{r.ID, *r.Value}
}

func testTable(name string, n int) *models.Table {
	rows := make([]models.Row, n)
	for i := range rows {
		v := float64(i) * 1.5
		rows[i] = testRow{ID: string(rune('a' + i)), Value: &v}
	}
	return &models.Table{
		Name:    name,
		Columns: []models.Column{{Name: "id", Key: true}, {Name: "value", Nullable: true}},
		Rows:    rows,
		Schema:  new(testRow),
	}
}

var testRun = RunInfo{ID: "run-1", Timestamp: time.Date(2018, 10, 18, 12, 0, 0, 0, time.UTC)}

func TestEncodeParquet(t *testing.T) {
	data, err := EncodeParquet(testTable("t", 3), "snappy")
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("PAR1")) || !bytes.HasSuffix(data, []byte("PAR1")) {
		t.Fatalf("output is not a parquet file")
	}

	tbl := testTable("t", 1)
	tbl.Schema = nil
	if _, err := EncodeParquet(tbl, ""); err == nil {
		t.Fatal("expected error without schema")
	}
}

func TestEncodeMartTables(t *testing.T) {
	m := &models.Marts{Orders: []models.EnrichedOrder{{OrderID: "o1", CustomerID: "c1", Status: models.StatusDelivered, RunTimestamp: testRun.Timestamp}}}
	for _, tbl := range m.Tables() {
		if _, err := EncodeParquet(tbl, "gzip"); err != nil {
			t.Fatalf("encode %s: %v", tbl.Name, err)
		}
	}
}

func TestLocalSinkPublish(t *testing.T) {
	dir := t.TempDir()
	sink, err := NewLocalSink(dir, "snappy")
	if err != nil {
		t.Fatalf("new sink: %v", err)
	}
	for i := 0; i < 2; i++ {
		published, err := sink.Publish(context.Background(), testRun, []*models.Table{testTable("fct_a", 2), testTable("fct_b", 1)})
		if err != nil {
			t.Fatalf("publish: %v", err)
		}
		if len(published) != 2 || published[0].Rows != 2 {
			t.Fatalf("unexpected result: %+v", published)
		}
	}
	if _, err := os.Stat(filepath.Join(dir, "fct_a", "data.parquet")); err != nil {
		t.Fatalf("expected table file: %v", err)
	}
	entries, _ := os.ReadDir(filepath.Join(dir, "fct_a"))
	if len(entries) != 1 {
		t.Errorf("expected only data.parquet, got %d entries", len(entries))
	}
}

type fakeS3 struct {
	keys []string
	fail bool
}

func (f *fakeS3) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.fail {
		return nil, errors.New("access denied")
	}
	f.keys = append(f.keys, *in.Key)
	return &s3.PutObjectOutput{}, nil
}

func TestS3SinkPublish(t *testing.T) {
	client := &fakeS3{}
	sink := newS3Sink(client, "bucket", "marts", "snappy")
	published, err := sink.Publish(context.Background(), testRun, []*models.Table{testTable("fct_a", 1)})
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if len(client.keys) != 1 || client.keys[0] != "marts/fct_a/data.parquet" {
		t.Fatalf("unexpected keys: %v", client.keys)
	}
	if published[0].Location != "s3://bucket/marts/fct_a/data.parquet" {
		t.Errorf("unexpected location %s", published[0].Location)
	}

	failing := newS3Sink(&fakeS3{fail: true}, "bucket", "", "")
	if _, err := failing.Publish(context.Background(), testRun, []*models.Table{testTable("fct_a", 1)}); err == nil {
		t.Fatal("expected upload error")
	}
}

type bufferObject struct {
	bytes.Buffer
	closed bool
}

func (b *bufferObject) Close() error {
	b.closed = true
	return nil
}

func TestGCSSinkPublish(t *testing.T) {
	objects := make(map[string]*bufferObject)
	sink := &GCSSink{bucket: "bucket", prefix: "marts", log: logger.GetLogger()}
	sink.newWriter = func(ctx context.Context, object string) io.WriteCloser {
		b := &bufferObject{}
		objects[object] = b
		return b
	}
	published, err := sink.Publish(context.Background(), testRun, []*models.Table{testTable("fct_a", 2)})
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	obj, ok := objects["marts/fct_a/data.parquet"]
	if !ok || !obj.closed || obj.Len() == 0 {
		t.Fatalf("object not written: %+v", objects)
	}
	if !strings.HasPrefix(published[0].Location, "gs://bucket/") {
		t.Errorf("unexpected location %s", published[0].Location)
	}
	if err := sink.Close(); err != nil {
		t.Errorf("close: %v", err)
	}
}
