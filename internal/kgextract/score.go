package kgextract

// Integration score weights: confidence dominates, clarity and relevance
// split the remainder evenly.
const (
	confidenceWeight = 0.5
	clarityWeight    = 0.25
	relevanceWeight  = 0.25
)

// NormalizeScores returns a copy of t with any sub-score ≤ 0 replaced by the
// neutral 0.5. A missing score must not zero out an otherwise valid triple.
func NormalizeScores(t Triple) Triple {
	if t.Confidence <= 0 {
		t.Confidence = 0.5
	}
	if t.Clarity <= 0 {
		t.Clarity = 0.5
	}
	if t.Relevance <= 0 {
		t.Relevance = 0.5
	}
	return t
}

// IntegrationScore combines the three quality sub-scores into the admission
// criterion. Callers normalize unset scores first; see NormalizeScores.
func IntegrationScore(t Triple) float64 {
	return confidenceWeight*t.Confidence + clarityWeight*t.Clarity + relevanceWeight*t.Relevance
}

// QualityGate admits candidate triples whose integration score meets the
// threshold. Sub-scores ≤ 0 are normalized to 0.5 before scoring; surviving
// triples keep those normalized scores but are otherwise unchanged.
func QualityGate(candidates []Triple, threshold float64) []Triple {
	integrated := make([]Triple, 0, len(candidates))
	for _, t := range candidates {
		t = NormalizeScores(t)
		if IntegrationScore(t) >= threshold {
			integrated = append(integrated, t)
		}
	}
	return integrated
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
