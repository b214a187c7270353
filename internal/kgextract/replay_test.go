package kgextract

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"
	"time"
)

func sampleRecord() RunRecord {
	return RunRecord{
		RunID:    "run-1",
		Metadata: &DocumentMetadata{Title: "Aspirin study", DOI: "10.1000/xyz"},
		RawText:  "Aspirin treats headache.",
		Segments: []Segment{
			{Text: "Aspirin treats headache.", Score: 0.9, Section: SectionContent, WordCount: 3},
		},
		RelevantSegments: []Segment{
			{Text: "Aspirin treats headache.", Score: 0.9, Section: SectionContent, WordCount: 3},
		},
		Summaries: []string{"Aspirin treats headache."},
		Entities: []Entity{
			{ID: "aspirin", Name: "aspirin", Type: TypeDrug, NormalizedID: "MESH:D001241"},
			{ID: "headache", Name: "headache", Type: UnknownType, NormalizedID: UnsetOntologyRef},
		},
		AlignedEntities: []Entity{
			{ID: "aspirin", Name: "aspirin", Type: TypeDrug, NormalizedID: "MESH:D001241"},
			{ID: "headache", Name: "headache", Type: TypeChemical, NormalizedID: UnsetOntologyRef},
		},
		Relations: []Triple{
			{Head: "aspirin", Relation: "treated", Tail: "headache", Confidence: 0.9, Clarity: 0.8, Relevance: 0.8, Source: StageRelations},
		},
		AlignedTriples: []Triple{
			{Head: "aspirin", Relation: "treats", Tail: "headache", Confidence: 0.9, Clarity: 0.8, Relevance: 0.8, Source: StageRelations},
		},
		FinalTriples: []Triple{
			{Head: "aspirin", Relation: "treats", Tail: "headache", Confidence: 0.9, Clarity: 0.8, Relevance: 0.8, Source: StageRelations},
		},
		IntegratedTriples: []Triple{
			{Head: "aspirin", Relation: "treats", Tail: "headache", Confidence: 0.9, Clarity: 0.8, Relevance: 0.8, Source: StageRelations},
		},
		Metrics: RunMetrics{
			CallCount:        4,
			PromptTokens:     100,
			CompletionTokens: 50,
			StageSeconds:     map[string]float64{StageRelevance: 0.2},
		},
		StartedAt:   time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		CompletedAt: time.Date(2026, 3, 1, 12, 0, 5, 0, time.UTC),
	}
}

func TestRunRecordJSONRoundTrip(t *testing.T) {
	rec := sampleRecord()
	data, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	got, err := RunRecordFromJSON(data)
	if err != nil {
		t.Fatalf("RunRecordFromJSON: %v", err)
	}
	if !reflect.DeepEqual(got, rec) {
		t.Fatalf("round trip mismatch:\ngot:  %+v\nwant: %+v", got, rec)
	}
}

func TestRunRecordFromJSONRejectsBadInput(t *testing.T) {
	if _, err := RunRecordFromJSON([]byte("not json")); err == nil {
		t.Fatal("expected decode error")
	}
	if _, err := RunRecordFromJSON([]byte(`{"raw_text": "x"}`)); err == nil {
		t.Fatal("expected error for missing run_id")
	}
}

func TestReplayGraphMatchesLiveProjection(t *testing.T) {
	rec := sampleRecord()
	live := BuildGraph(rec.AlignedEntities, rec.IntegratedTriples)

	data, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	restored, err := RunRecordFromJSON(data)
	if err != nil {
		t.Fatalf("RunRecordFromJSON: %v", err)
	}
	replayed := ReplayGraph(restored)

	if !reflect.DeepEqual(replayed.Entities, live.Entities) {
		t.Fatalf("entities differ: %v vs %v", replayed.Entities, live.Entities)
	}
	if !reflect.DeepEqual(replayed.Triples, live.Triples) {
		t.Fatalf("triples differ: %+v vs %+v", replayed.Triples, live.Triples)
	}
	if !reflect.DeepEqual(replayed.Statistics, live.Statistics) {
		t.Fatalf("statistics differ: %+v vs %+v", replayed.Statistics, live.Statistics)
	}
}

func TestReplayReport(t *testing.T) {
	data, err := json.Marshal(sampleRecord())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	report, err := ReplayReport(data)
	if err != nil {
		t.Fatalf("ReplayReport: %v", err)
	}
	for _, want := range []string{"run-1", "Aspirin study", "treats"} {
		if !strings.Contains(report, want) {
			t.Fatalf("report missing %q", want)
		}
	}
	if _, err := ReplayReport([]byte("nope")); err == nil {
		t.Fatal("expected error for bad input")
	}
}
