package writer

import (
	"context"
	"fmt"
	"time"

	"salesflow/logger"
)

// TriggerFile writes the run timestamp to a file that dashboard caches
// watch to know when to refresh.
type TriggerFile struct {
	path string
	log  *logger.Log
}

func NewTriggerFile(path string) *TriggerFile {
	return &TriggerFile{path: path, log: logger.GetLogger()}
}

func (t *TriggerFile) Name() string { return "trigger_file" }

func (t *TriggerFile) Notify(ctx context.Context, event RunEvent) error {
	content := event.RunTimestamp.UTC().Format(time.RFC3339) + "\n"
	if err := writeAtomic(t.path, []byte(content)); err != nil {
		return fmt.Errorf("failed to write trigger file %s: %w", t.path, err)
	}
	t.log.WithComponent("trigger_file").WithFields(logger.Fields{"path": t.path, "run_id": event.RunID}).Info("dashboard refresh triggered")
	return nil
}

func (t *TriggerFile) Close() error { return nil }
