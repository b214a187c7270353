package kgextract

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
)

// BuildReport renders a run record and its graph projection as markdown.
func BuildReport(rec RunRecord, graph KnowledgeGraph) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Knowledge Graph Extraction Report\n\n")
	fmt.Fprintf(&b, "- Run ID: %s\n", rec.RunID)
	if rec.Metadata != nil && rec.Metadata.Title != "" {
		fmt.Fprintf(&b, "- Document: %s\n", sanitizeLine(rec.Metadata.Title))
	}
	if rec.Metadata != nil && rec.Metadata.DOI != "" {
		fmt.Fprintf(&b, "- DOI: %s\n", rec.Metadata.DOI)
	}
	fmt.Fprintf(&b, "- Date: %s\n\n", time.Now().Format(time.RFC3339))

	fmt.Fprintf(&b, "## Summary\n\n")
	fmt.Fprintf(&b, "- Segments: %d (%d above relevance threshold)\n", len(rec.Segments), len(rec.RelevantSegments))
	fmt.Fprintf(&b, "- Entities extracted: %d\n", len(rec.Entities))
	fmt.Fprintf(&b, "- Candidate triples: %d\n", len(rec.Relations))
	fmt.Fprintf(&b, "- Survived conflict resolution: %d\n", len(rec.FinalTriples))
	fmt.Fprintf(&b, "- Integrated into graph: %d\n", len(rec.IntegratedTriples))
	if len(rec.DegradedStages) > 0 {
		fmt.Fprintf(&b, "- Degraded stages (heuristic fallback used): %s\n", strings.Join(rec.DegradedStages, ", "))
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "## Entity Types\n\n")
	appendTypeDistribution(&b, rec.AlignedEntities)

	fmt.Fprintf(&b, "## Top Triples\n\n")
	appendTopTriples(&b, rec.IntegratedTriples, 20)

	fmt.Fprintf(&b, "## Relation Distribution\n\n")
	if graph.Statistics.TripleCount == 0 {
		fmt.Fprintf(&b, "No triples were integrated.\n\n")
	} else {
		for _, relation := range sortedKeys(graph.Statistics.RelationDistribution) {
			fmt.Fprintf(&b, "- `%s`: %d\n", relation, graph.Statistics.RelationDistribution[relation])
		}
		fmt.Fprintf(&b, "\nAverage confidence: %.3f\n\n", graph.Statistics.AvgConfidence)
	}

	fmt.Fprintf(&b, "## Appendix\n\n")
	fmt.Fprintf(&b, "### Run Metrics (JSON)\n\n```json\n%s\n```\n", prettyJSON(rec.Metrics))
	fmt.Fprintf(&b, "\n### Graph Statistics (JSON)\n\n```json\n%s\n```\n", prettyJSON(graph.Statistics))
	return b.String()
}

func appendTypeDistribution(b *strings.Builder, entities []Entity) {
	if len(entities) == 0 {
		fmt.Fprintf(b, "No entities were extracted.\n\n")
		return
	}
	counts := map[string]int{}
	for _, e := range entities {
		counts[e.Type]++
	}
	for _, t := range sortedKeys(counts) {
		fmt.Fprintf(b, "- %s: %d\n", t, counts[t])
	}
	b.WriteString("\n")
}

func appendTopTriples(b *strings.Builder, triples []Triple, limit int) {
	if len(triples) == 0 {
		fmt.Fprintf(b, "No triples passed the quality gate.\n\n")
		return
	}
	ranked := make([]Triple, len(triples))
	copy(ranked, triples)
	sort.SliceStable(ranked, func(i, j int) bool {
		return IntegrationScore(ranked[i]) > IntegrationScore(ranked[j])
	})
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	fmt.Fprintf(b, "| Head | Relation | Tail | Confidence | Score |\n")
	fmt.Fprintf(b, "|------|----------|------|------------|-------|\n")
	for _, t := range ranked {
		fmt.Fprintf(b, "| %s | `%s` | %s | %.2f | %.3f |\n",
			sanitizeLine(t.Head), t.Relation, sanitizeLine(t.Tail), t.Confidence, IntegrationScore(t))
	}
	b.WriteString("\n")
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func prettyJSON(v any) string {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(b)
}

func sanitizeLine(s string) string {
	s = strings.TrimSpace(strings.ReplaceAll(s, "\n", " "))
	s = strings.ReplaceAll(s, "|", "\\|")
	if s == "" {
		return "-"
	}
	return s
}
