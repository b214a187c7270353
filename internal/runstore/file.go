package runstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joelkehle/biograph/internal/kgextract"
)

func timeString(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

// SaveRecordFile writes a run record as indented JSON, atomically via a
// temp-file rename so a crash never leaves a half-written record.
func SaveRecordFile(path string, rec kgextract.RunRecord) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	blob, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, blob, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// LoadRecordFile reads a run record saved by SaveRecordFile. A missing file is
// an error here, unlike the store's listing paths: replay needs the record.
func LoadRecordFile(path string) (kgextract.RunRecord, error) {
	blob, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return kgextract.RunRecord{}, fmt.Errorf("run record %s: %w", path, err)
		}
		return kgextract.RunRecord{}, err
	}
	return kgextract.RunRecordFromJSON(blob)
}

// SaveGraphFile writes the exported knowledge graph next to the run record.
func SaveGraphFile(path string, graph kgextract.KnowledgeGraph) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	blob, err := json.MarshalIndent(graph, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, blob, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
