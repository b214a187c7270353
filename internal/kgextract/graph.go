package kgextract

import (
	"strings"
	"time"
)

// BuildGraph projects resolved entities and integrated triples into the
// exported knowledge graph. Only entities referenced by at least one triple
// appear; endpoints with no resolved entity are carried through under their
// triple spelling so the graph is always self-contained.
func BuildGraph(entities []Entity, triples []Triple) KnowledgeGraph {
	referenced := make(map[string]bool, len(triples)*2)
	for _, t := range triples {
		referenced[strings.ToLower(t.Head)] = true
		referenced[strings.ToLower(t.Tail)] = true
	}

	var names []string
	seen := make(map[string]bool, len(referenced))
	for _, e := range entities {
		key := strings.ToLower(e.Name)
		if referenced[key] && !seen[key] {
			names = append(names, e.Name)
			seen[key] = true
		}
	}
	for _, t := range triples {
		for _, endpoint := range []string{t.Head, t.Tail} {
			key := strings.ToLower(endpoint)
			if !seen[key] {
				names = append(names, endpoint)
				seen[key] = true
			}
		}
	}

	out := make([]Triple, len(triples))
	copy(out, triples)
	return KnowledgeGraph{
		Entities: names,
		Triples:  out,
		Metadata: map[string]any{
			"generated_at": time.Now().UTC().Format(time.RFC3339),
		},
		Statistics: ComputeStatistics(names, out),
	}
}

// ComputeStatistics summarizes a graph's shape and quality.
func ComputeStatistics(entityNames []string, triples []Triple) GraphStatistics {
	stats := GraphStatistics{
		EntityCount:          len(entityNames),
		TripleCount:          len(triples),
		RelationDistribution: map[string]int{},
	}
	if len(triples) == 0 {
		return stats
	}
	total := 0.0
	for _, t := range triples {
		stats.RelationDistribution[t.Relation]++
		total += t.Confidence
	}
	stats.UniqueRelations = len(stats.RelationDistribution)
	stats.AvgConfidence = total / float64(len(triples))
	return stats
}
