package kgextract

import "testing"

func TestBuildGraph(t *testing.T) {
	entities := []Entity{
		{Name: "aspirin", Type: TypeDrug},
		{Name: "headache", Type: TypeChemical},
		{Name: "unreferenced", Type: TypeGene},
	}
	triples := []Triple{
		{Head: "aspirin", Relation: "treats", Tail: "headache", Confidence: 0.9},
		{Head: "Aspirin", Relation: "inhibits", Tail: "COX-2", Confidence: 0.7},
	}
	graph := BuildGraph(entities, triples)

	want := []string{"aspirin", "headache", "COX-2"}
	if len(graph.Entities) != len(want) {
		t.Fatalf("entities = %v, want %v", graph.Entities, want)
	}
	for i, name := range want {
		if graph.Entities[i] != name {
			t.Fatalf("entities = %v, want %v", graph.Entities, want)
		}
	}
	if len(graph.Triples) != 2 {
		t.Fatalf("triples = %d", len(graph.Triples))
	}

	stats := graph.Statistics
	if stats.EntityCount != 3 || stats.TripleCount != 2 || stats.UniqueRelations != 2 {
		t.Fatalf("stats = %+v", stats)
	}
	if stats.RelationDistribution["treats"] != 1 || stats.RelationDistribution["inhibits"] != 1 {
		t.Fatalf("distribution = %v", stats.RelationDistribution)
	}
	if !almostEqual(stats.AvgConfidence, 0.8) {
		t.Fatalf("avg confidence = %v", stats.AvgConfidence)
	}
}

func TestBuildGraphEmpty(t *testing.T) {
	graph := BuildGraph(nil, nil)
	if len(graph.Entities) != 0 || len(graph.Triples) != 0 {
		t.Fatalf("graph = %+v", graph)
	}
	if graph.Statistics.AvgConfidence != 0 || graph.Statistics.UniqueRelations != 0 {
		t.Fatalf("stats = %+v", graph.Statistics)
	}
}

func TestBuildGraphCopiesTriples(t *testing.T) {
	triples := []Triple{{Head: "a", Relation: "treats", Tail: "b", Confidence: 0.9}}
	graph := BuildGraph(nil, triples)
	triples[0].Confidence = 0.1
	if !almostEqual(graph.Triples[0].Confidence, 0.9) {
		t.Fatal("graph must not alias the caller's slice")
	}
}
