package writer

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	kafka "github.com/segmentio/kafka-go"

	appconfig "salesflow/config"
	"salesflow/logger"
)

func testEvent() RunEvent {
	return RunEvent{
		Event:        EventRunCompleted,
		RunID:        testRun.ID,
		RunTimestamp: testRun.Timestamp,
		RowCounts:    map[string]int{"fct_a": 2},
	}
}

func TestTriggerFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache", "refresh.trigger")
	if err := NewTriggerFile(path).Notify(context.Background(), testEvent()); err != nil {
		t.Fatalf("notify: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if strings.TrimSpace(string(data)) != "2018-10-18T12:00:00Z" {
		t.Errorf("unexpected trigger content %q", data)
	}
}

type fakeMessageWriter struct {
	msgs []kafka.Message
}

func (f *fakeMessageWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeMessageWriter) Close() error { return nil }

func TestKafkaNotifier(t *testing.T) {
	fw := &fakeMessageWriter{}
	kn := &KafkaNotifier{writer: fw, topic: "salesflow.runs", log: logger.GetLogger()}
	if err := kn.Notify(context.Background(), testEvent()); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if len(fw.msgs) != 1 || string(fw.msgs[0].Key) != "run-1" {
		t.Fatalf("unexpected messages: %+v", fw.msgs)
	}
	var ev RunEvent
	if err := json.Unmarshal(fw.msgs[0].Value, &ev); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if ev.Event != EventRunCompleted || ev.RowCounts["fct_a"] != 2 {
		t.Errorf("unexpected event: %+v", ev)
	}
}

func TestKafkaNotifierRequiresBrokers(t *testing.T) {
	if _, err := NewKafkaNotifier(appconfig.KafkaConfig{Topic: "salesflow.runs"}); err == nil {
		t.Fatal("expected error without brokers")
	}
}
