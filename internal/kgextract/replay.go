package kgextract

import (
	"encoding/json"
	"fmt"
	"strings"
)

// RunRecordFromJSON reconstructs a run record from its persisted form so the
// graph and report can be re-derived without rerunning LLM stages.
func RunRecordFromJSON(data []byte) (RunRecord, error) {
	var rec RunRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return RunRecord{}, fmt.Errorf("run record decode: %w", err)
	}
	if strings.TrimSpace(rec.RunID) == "" {
		return RunRecord{}, fmt.Errorf("run record has no run_id")
	}
	return rec, nil
}

// ReplayGraph re-derives the knowledge graph projection from a reconstructed
// run record. A record replayed through this function yields the same graph
// as the live run that produced it.
func ReplayGraph(rec RunRecord) KnowledgeGraph {
	return BuildGraph(rec.AlignedEntities, rec.IntegratedTriples)
}

// ReplayReport regenerates the markdown report from a persisted run record.
func ReplayReport(data []byte) (string, error) {
	rec, err := RunRecordFromJSON(data)
	if err != nil {
		return "", err
	}
	return BuildReport(rec, ReplayGraph(rec)), nil
}
