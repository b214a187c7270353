package kgextract

import "testing"

func TestContradicts(t *testing.T) {
	tests := []struct {
		name string
		a, b Triple
		want bool
	}{
		{
			"treats vs causes same pair",
			Triple{Head: "aspirin", Relation: "treats", Tail: "headache"},
			Triple{Head: "aspirin", Relation: "causes", Tail: "headache"},
			true,
		},
		{
			"case-insensitive endpoints",
			Triple{Head: "Aspirin", Relation: "inhibits", Tail: "COX-2"},
			Triple{Head: "aspirin", Relation: "activates", Tail: "cox-2"},
			true,
		},
		{
			"different tail",
			Triple{Head: "aspirin", Relation: "treats", Tail: "headache"},
			Triple{Head: "aspirin", Relation: "causes", Tail: "ulcer"},
			false,
		},
		{
			"non-opposed relations",
			Triple{Head: "aspirin", Relation: "treats", Tail: "headache"},
			Triple{Head: "aspirin", Relation: "associated_with", Tail: "headache"},
			false,
		},
		{
			"same relation is not a conflict",
			Triple{Head: "aspirin", Relation: "treats", Tail: "headache"},
			Triple{Head: "aspirin", Relation: "treats", Tail: "headache"},
			false,
		},
		{
			"increases vs decreases",
			Triple{Head: "TNF", Relation: "increases", Tail: "inflammation"},
			Triple{Head: "TNF", Relation: "decreases", Tail: "inflammation"},
			true,
		},
		{
			"upregulates vs downregulates",
			Triple{Head: "MYC", Relation: "upregulates", Tail: "CDK4"},
			Triple{Head: "MYC", Relation: "downregulates", Tail: "CDK4"},
			true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Contradicts(tt.a, tt.b); got != tt.want {
				t.Fatalf("Contradicts = %v, want %v", got, tt.want)
			}
			if got := Contradicts(tt.b, tt.a); got != tt.want {
				t.Fatalf("Contradicts not symmetric: reversed = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestResolveConflicts(t *testing.T) {
	existing := []Triple{
		{Head: "aspirin", Relation: "treats", Tail: "headache", Confidence: 0.8},
	}
	tests := []struct {
		name     string
		new      Triple
		survives bool
	}{
		{"lower confidence drops", Triple{Head: "aspirin", Relation: "causes", Tail: "headache", Confidence: 0.7}, false},
		{"equal confidence drops", Triple{Head: "aspirin", Relation: "causes", Tail: "headache", Confidence: 0.8}, false},
		{"strictly higher survives", Triple{Head: "aspirin", Relation: "causes", Tail: "headache", Confidence: 0.9}, true},
		{"non-conflicting survives", Triple{Head: "aspirin", Relation: "inhibits", Tail: "COX-2", Confidence: 0.1}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolveConflicts([]Triple{tt.new}, existing)
			if survived := len(got) == 1; survived != tt.survives {
				t.Fatalf("survived = %v, want %v", survived, tt.survives)
			}
			if existing[0].Confidence != 0.8 {
				t.Fatal("existing set must never be modified")
			}
		})
	}
}

func TestResolveConflictsFirstMatchDecides(t *testing.T) {
	// Two accepted triples both contradict the candidate; only the first one
	// found is compared against.
	existing := []Triple{
		{Head: "aspirin", Relation: "treats", Tail: "headache", Confidence: 0.9},
		{Head: "aspirin", Relation: "treats", Tail: "HEADACHE", Confidence: 0.3},
	}
	candidate := Triple{Head: "aspirin", Relation: "causes", Tail: "headache", Confidence: 0.5}
	if got := ResolveConflicts([]Triple{candidate}, existing); len(got) != 0 {
		t.Fatalf("candidate must lose against the first match (0.9), got %+v", got)
	}
}

func TestResolveConflictsEmptyExisting(t *testing.T) {
	candidates := []Triple{
		{Head: "aspirin", Relation: "treats", Tail: "headache", Confidence: 0.5},
		{Head: "aspirin", Relation: "causes", Tail: "headache", Confidence: 0.4},
	}
	// Candidates are only checked against the accepted set, not each other.
	if got := ResolveConflicts(candidates, nil); len(got) != 2 {
		t.Fatalf("expected both candidates to survive, got %+v", got)
	}
}
