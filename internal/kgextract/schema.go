package kgextract

import "strings"

// relationSynonyms maps inflected and variant relation labels to canonical
// verb forms. Labels absent from the table pass through lowercased and
// trimmed; normalization never rejects a label.
var relationSynonyms = map[string]string{
	"inhibit":    "inhibits",
	"inhibited":  "inhibits",
	"inhibiting": "inhibits",

	"treat":       "treats",
	"treated":     "treats",
	"treating":    "treats",
	"therapeutic": "treats",

	"cause":   "causes",
	"caused":  "causes",
	"causing": "causes",

	"activate":   "activates",
	"activated":  "activates",
	"activating": "activates",
	"stimulate":  "activates",
	"stimulates": "activates",

	"regulate":   "regulates",
	"regulated":  "regulates",
	"regulating": "regulates",
	"control":    "regulates",
	"modulates":  "regulates",

	"associate":       "associated_with",
	"associated":      "associated_with",
	"associated with": "associated_with",
	"correlated":      "associated_with",
	"correlated with": "associated_with",
	"linked to":       "associated_with",

	"interact":       "interacts_with",
	"interacted":     "interacts_with",
	"interacts with": "interacts_with",
	"bind":           "interacts_with",
	"binds":          "interacts_with",
	"binding":        "interacts_with",
	"binds to":       "interacts_with",

	"increase":    "increases",
	"increased":   "increases",
	"elevate":     "increases",
	"elevates":    "increases",
	"upregulate":  "upregulates",
	"upregulated": "upregulates",

	"decrease":      "decreases",
	"decreased":     "decreases",
	"reduce":        "decreases",
	"reduces":       "decreases",
	"downregulate":  "downregulates",
	"downregulated": "downregulates",
}

// NormalizeRelation maps a relation label surface form to its canonical form.
func NormalizeRelation(label string) string {
	label = strings.ToLower(strings.TrimSpace(label))
	if canonical, ok := relationSynonyms[label]; ok {
		return canonical
	}
	return label
}

var (
	drugSuffixes    = []string{"mycin", "cillin", "statin", "inhibitor"}
	proteinSuffixes = []string{"ase", "receptor", "protein"}
	diseaseKeywords = []string{"cancer", "disease", "syndrome", "disorder"}
)

// ClassifyEntityType infers a semantic category from an entity name using a
// fixed-priority rule cascade. The first matching rule wins: drug suffixes,
// then the all-caps short-token gene pattern, then protein suffixes, then
// disease keywords. Anything else defaults to Chemical.
func ClassifyEntityType(name string) string {
	lower := strings.ToLower(name)

	for _, suffix := range drugSuffixes {
		if strings.Contains(lower, suffix) {
			return TypeDrug
		}
	}
	if name != "" && name == strings.ToUpper(name) && name != strings.ToLower(name) && len(name) <= 10 {
		return TypeGene
	}
	for _, suffix := range proteinSuffixes {
		if strings.Contains(lower, suffix) {
			return TypeProtein
		}
	}
	for _, keyword := range diseaseKeywords {
		if strings.Contains(lower, keyword) {
			return TypeDisease
		}
	}
	return TypeChemical
}

// AlignSchema standardizes a run's extracted entities and triples: entity
// types still Unknown are classified from their names, and every relation
// label is mapped to the canonical vocabulary. Quality scores pass through
// untouched.
func AlignSchema(entities []Entity, triples []Triple) ([]Entity, []Triple) {
	alignedEntities := make([]Entity, len(entities))
	for i, e := range entities {
		if e.Type == UnknownType || e.Type == "" {
			e.Type = ClassifyEntityType(e.Name)
		}
		alignedEntities[i] = e
	}

	alignedTriples := make([]Triple, len(triples))
	for i, t := range triples {
		t.Relation = NormalizeRelation(t.Relation)
		alignedTriples[i] = t
	}
	return alignedEntities, alignedTriples
}
