package kgextract

import (
	"strings"
	"testing"
)

func TestBuildReport(t *testing.T) {
	rec := sampleRecord()
	rec.DegradedStages = []string{StageEntities}
	graph := BuildGraph(rec.AlignedEntities, rec.IntegratedTriples)
	report := BuildReport(rec, graph)

	for _, want := range []string{
		"# Knowledge Graph Extraction Report",
		"Run ID: run-1",
		"Document: Aspirin study",
		"DOI: 10.1000/xyz",
		"Degraded stages",
		StageEntities,
		"## Entity Types",
		"- Chemical: 1",
		"- Drug: 1",
		"## Top Triples",
		"| aspirin | `treats` | headache |",
		"## Relation Distribution",
		"- `treats`: 1",
		"### Run Metrics (JSON)",
		`"call_count": 4`,
	} {
		if !strings.Contains(report, want) {
			t.Errorf("report missing %q", want)
		}
	}
}

func TestBuildReportEmptyRun(t *testing.T) {
	rec := RunRecord{RunID: "run-2"}
	report := BuildReport(rec, BuildGraph(nil, nil))
	for _, want := range []string{
		"No entities were extracted.",
		"No triples passed the quality gate.",
		"No triples were integrated.",
	} {
		if !strings.Contains(report, want) {
			t.Errorf("report missing %q", want)
		}
	}
}

func TestSanitizeLine(t *testing.T) {
	if got := sanitizeLine("a\nb | c"); got != "a b \\| c" {
		t.Fatalf("sanitizeLine = %q", got)
	}
	if got := sanitizeLine("  "); got != "-" {
		t.Fatalf("sanitizeLine = %q", got)
	}
}
