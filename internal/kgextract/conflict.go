package kgextract

import "strings"

// contradictionPairs lists relation label pairs considered mutually exclusive
// when two triples share head and tail. The table stores one ordering; the
// test checks both.
var contradictionPairs = map[[2]string]bool{
	{"treats", "causes"}:             true,
	{"inhibits", "activates"}:        true,
	{"increases", "decreases"}:       true,
	{"upregulates", "downregulates"}: true,
}

func opposedRelations(a, b string) bool {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))
	return contradictionPairs[[2]string{a, b}] || contradictionPairs[[2]string{b, a}]
}

// Contradicts reports whether two triples assert semantically opposed
// relations over the same head and tail (case-insensitive). The test is
// symmetric: Contradicts(a, b) == Contradicts(b, a).
func Contradicts(a, b Triple) bool {
	if !strings.EqualFold(a.Head, b.Head) || !strings.EqualFold(a.Tail, b.Tail) {
		return false
	}
	return opposedRelations(a.Relation, b.Relation)
}

// findContradiction returns the first accepted triple contradicting t, or
// nil. Only the first match is considered; multiple conflicting partners for
// one new triple are not specially handled.
func findContradiction(t Triple, existing []Triple) *Triple {
	for i := range existing {
		if Contradicts(t, existing[i]) {
			return &existing[i]
		}
	}
	return nil
}

// ResolveConflicts decides, per new triple, whether it survives against the
// already-accepted set. A new triple that contradicts an accepted one is kept
// only if its confidence strictly exceeds the accepted triple's confidence;
// otherwise it is dropped. Non-conflicting triples always survive. The
// accepted set is only read, never modified.
func ResolveConflicts(newTriples, existing []Triple) []Triple {
	final := make([]Triple, 0, len(newTriples))
	for _, t := range newTriples {
		conflicting := findContradiction(t, existing)
		if conflicting == nil {
			final = append(final, t)
			continue
		}
		if t.Confidence > conflicting.Confidence {
			final = append(final, t)
		}
	}
	return final
}
