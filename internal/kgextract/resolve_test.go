package kgextract

import (
	"reflect"
	"testing"
)

func TestResolveEntitiesMergesCaseInsensitive(t *testing.T) {
	in := []Entity{
		{ID: "TP53", Name: "TP53", Type: UnknownType, NormalizedID: UnsetOntologyRef},
		{ID: "tp53", Name: "tp53", Type: TypeGene, NormalizedID: "HGNC:11998", Aliases: []string{"p53"}},
	}
	got := ResolveEntities(in)
	if len(got) != 1 {
		t.Fatalf("expected single merged entity, got %d", len(got))
	}
	e := got[0]
	if e.Name != "TP53" {
		t.Fatalf("first-seen name must survive, got %q", e.Name)
	}
	if e.Type != TypeGene {
		t.Fatalf("Unknown type must upgrade to %q, got %q", TypeGene, e.Type)
	}
	if e.NormalizedID != "HGNC:11998" {
		t.Fatalf("first non-sentinel normalized id must win, got %q", e.NormalizedID)
	}
	if !reflect.DeepEqual(e.Aliases, []string{"p53"}) {
		t.Fatalf("aliases = %v", e.Aliases)
	}
}

func TestResolveEntitiesEmptyOntologyRefUpgrades(t *testing.T) {
	// Partial records leave NormalizedID as the zero value rather than the
	// sentinel; a later real reference must still attach.
	in := []Entity{
		{Name: "TP53", Type: TypeGene, NormalizedID: ""},
		{Name: "tp53", Type: TypeGene, NormalizedID: "HGNC:11998"},
	}
	got := ResolveEntities(in)
	if len(got) != 1 {
		t.Fatalf("expected merge, got %d entities", len(got))
	}
	if got[0].NormalizedID != "HGNC:11998" {
		t.Fatalf("first non-empty ontology ref must win, got %q", got[0].NormalizedID)
	}
}

func TestResolveEntitiesNoTypeDowngrade(t *testing.T) {
	in := []Entity{
		{ID: "aspirin", Name: "aspirin", Type: TypeDrug, NormalizedID: "MESH:D001241"},
		{ID: "Aspirin", Name: "Aspirin", Type: TypeChemical, NormalizedID: "CHEBI:15365"},
	}
	got := ResolveEntities(in)
	if len(got) != 1 || got[0].Type != TypeDrug {
		t.Fatalf("established type must not change, got %+v", got)
	}
	if got[0].NormalizedID != "MESH:D001241" {
		t.Fatalf("established normalized id must not change, got %q", got[0].NormalizedID)
	}
}

func TestResolveEntitiesAliasUnion(t *testing.T) {
	in := []Entity{
		{Name: "acetylsalicylic acid", Type: TypeDrug, NormalizedID: UnsetOntologyRef, Aliases: []string{"aspirin", "ASA"}},
		{Name: "Acetylsalicylic Acid", Type: TypeDrug, NormalizedID: UnsetOntologyRef, Aliases: []string{"asa", "Aspirin", "2-acetoxybenzoic acid"}},
	}
	got := ResolveEntities(in)
	if len(got) != 1 {
		t.Fatalf("expected merge, got %d entities", len(got))
	}
	want := []string{"aspirin", "ASA", "2-acetoxybenzoic acid"}
	if !reflect.DeepEqual(got[0].Aliases, want) {
		t.Fatalf("aliases = %v, want %v", got[0].Aliases, want)
	}
}

func TestResolveEntitiesOrderPreserving(t *testing.T) {
	in := []Entity{
		{Name: "aspirin", Type: TypeDrug},
		{Name: "headache", Type: TypeDisease},
		{Name: "Aspirin", Type: TypeDrug},
		{Name: "TP53", Type: TypeGene},
	}
	got := ResolveEntities(in)
	names := make([]string, len(got))
	for i, e := range got {
		names[i] = e.Name
	}
	want := []string{"aspirin", "headache", "TP53"}
	if !reflect.DeepEqual(names, want) {
		t.Fatalf("order = %v, want %v", names, want)
	}
}

func TestResolveEntitiesIdempotent(t *testing.T) {
	in := []Entity{
		{Name: "TP53", Type: UnknownType, NormalizedID: UnsetOntologyRef},
		{Name: "tp53", Type: TypeGene, NormalizedID: "HGNC:11998", Aliases: []string{"p53"}},
		{Name: "aspirin", Type: TypeDrug, NormalizedID: UnsetOntologyRef},
	}
	once := ResolveEntities(in)
	twice := ResolveEntities(once)
	if !reflect.DeepEqual(once, twice) {
		t.Fatalf("resolve not idempotent:\nonce:  %+v\ntwice: %+v", once, twice)
	}
}
