package kgextract

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/tidwall/gjson"
)

const readerSystemPrompt = "You are a reader for biomedical literature. Score text segments from 0.0 to 1.0 by how likely they are to contain extractable relationships between biomedical entities (drugs, diseases, genes, proteins, chemicals). Results and discussion score high; methods, references, and acknowledgments score low. Respond with scores only."

const summarizerSystemPrompt = "You are a summarizer for biomedical literature. Produce concise summaries (at most 100 words) that preserve every entity name, relationship indicator, and numeric measurement exactly as written. Never invent or alter entity names or values."

const entitySystemPrompt = "You are an entity extractor for biomedical knowledge graphs. Identify every biomedical entity (Drug, Disease, Gene, Protein, Chemical, Pathway, Anatomy) with its exact mention, most specific type, ontology identifier when known (e.g. MESH:D001241), and common aliases. Respond with strict JSON only."

const relationSystemPrompt = "You are a relationship extractor for biomedical knowledge graphs. Extract explicit relationships between the provided entities, with a confidence score in [0,1] reflecting the strength of textual evidence. Ignore negated relationships. Respond with strict JSON only."

const entitySchemaPrompt = `Required JSON schema (array):
[
  {
    "mention": "exact text from source",
    "type": "Drug | Disease | Gene | Protein | Chemical | Pathway | Anatomy | Unknown",
    "normalized_id": "ontology:identifier or N/A",
    "aliases": ["synonym", "..."]
  }
]`

const relationSchemaPrompt = `Required JSON schema (array):
[
  {
    "head": "entity name from the provided list",
    "relation": "treats | inhibits | activates | causes | regulates | associated_with | interacts_with | increases | decreases | upregulates | downregulates",
    "tail": "entity name from the provided list",
    "confidence": "float (0.0-1.0)",
    "evidence": "direct quote supporting the relationship"
  }
]`

// StageRunner produces each LLM-backed stage's output. Implementations must
// degrade to deterministic heuristics on capability failure rather than
// returning an error: a single document stage never hard-fails, it reports
// failures through StageUsage.Errors.
type StageRunner interface {
	ScoreSegments(ctx context.Context, segments []Segment) ([]Segment, StageUsage)
	Summarize(ctx context.Context, segments []Segment, relevanceThreshold float64) ([]string, StageUsage)
	ExtractEntities(ctx context.Context, summaries []string) ([]Entity, StageUsage)
	ExtractRelations(ctx context.Context, summaries []string, entities []Entity) ([]Triple, StageUsage)
}

// LLMStageRunner backs each stage with the text-completion capability, one
// capability client per stage so each carries its own system prompt.
type LLMStageRunner struct {
	reader     *CapabilityClient
	summarizer *CapabilityClient
	extractor  *CapabilityClient
	relater    *CapabilityClient
}

func NewLLMStageRunner(completer Completer) *LLMStageRunner {
	return &LLMStageRunner{
		reader:     NewCapabilityClient(completer, readerSystemPrompt),
		summarizer: NewCapabilityClient(completer, summarizerSystemPrompt),
		extractor:  NewCapabilityClient(completer, entitySystemPrompt),
		relater:    NewCapabilityClient(completer, relationSystemPrompt),
	}
}

// ScoreSegments assigns a relevance score to every segment, batching
// ScoreBatchSize segments per call. A failed batch falls back to the
// section-prior default scores.
func (r *LLMStageRunner) ScoreSegments(ctx context.Context, segments []Segment) ([]Segment, StageUsage) {
	scored := make([]Segment, 0, len(segments))
	var usage StageUsage
	for i := 0; i < len(segments); i += ScoreBatchSize {
		end := i + ScoreBatchSize
		if end > len(segments) {
			end = len(segments)
		}
		batch := segments[i:end]
		scores := r.scoreBatch(ctx, batch)
		for j, seg := range batch {
			if j < len(scores) {
				seg.Score = scores[j]
			} else {
				seg.Score = DefaultSegmentScore(seg)
			}
			scored = append(scored, seg)
		}
		usage.add(r.reader.Drain())
	}
	return scored, usage
}

func (r *LLMStageRunner) scoreBatch(ctx context.Context, batch []Segment) []float64 {
	if len(batch) == 0 {
		return nil
	}
	var sb strings.Builder
	for i, seg := range batch {
		sectionInfo := ""
		if seg.Section != SectionContent {
			sectionInfo = fmt.Sprintf(" [Section: %s]", seg.Section)
		}
		fmt.Fprintf(&sb, "Segment %d%s:\n%s\n\n", i+1, sectionInfo, truncate(seg.Text, 500))
	}
	prompt := fmt.Sprintf(
		"Rate how relevant each segment below is (0.0 to 1.0) for extracting biomedical knowledge relationships.\n\n%sReturn one score per line, no labels, no other text.",
		sb.String(),
	)
	raw, err := r.reader.Complete(ctx, prompt, 0.1)
	if err != nil {
		scores := make([]float64, len(batch))
		for i, seg := range batch {
			scores[i] = DefaultSegmentScore(seg)
		}
		return scores
	}
	lines := strings.Split(strings.TrimSpace(raw), "\n")
	scores := make([]float64, 0, len(batch))
	for _, line := range lines {
		scores = append(scores, extractFloat(strings.TrimSpace(line), 0.5))
	}
	for len(scores) < len(batch) {
		scores = append(scores, 0.5)
	}
	return scores[:len(batch)]
}

// Summarize produces one summary per segment, in order. Segments below the
// relevance threshold get the OmittedSummary sentinel so the record stays
// aligned while downstream extraction skips them. A failed summarization
// call falls back to key-sentence extraction.
func (r *LLMStageRunner) Summarize(ctx context.Context, segments []Segment, relevanceThreshold float64) ([]string, StageUsage) {
	summaries := make([]string, 0, len(segments))
	var usage StageUsage
	for _, seg := range segments {
		if seg.Score < relevanceThreshold {
			summaries = append(summaries, OmittedSummary)
			continue
		}
		summaries = append(summaries, r.summarizeSegment(ctx, seg.Text))
		usage.add(r.summarizer.Drain())
	}
	return summaries, usage
}

func (r *LLMStageRunner) summarizeSegment(ctx context.Context, text string) string {
	if len(strings.Fields(text)) < 15 {
		return text
	}
	prompt := fmt.Sprintf(
		"Summarize the following biomedical text in 2-4 sentences, under 100 words. Retain all technical terms, numeric data, and relationship indicators (inhibits, activates, treats, causes, ...). Provide only the summary.\n\nText to summarize:\n%s",
		text,
	)
	summary, err := r.summarizer.Complete(ctx, prompt, 0.2)
	if err != nil {
		return keySentences(text)
	}
	summary = strings.TrimSpace(summary)
	if summary == "" || strings.EqualFold(summary, "[low content]") {
		return keySentences(text)
	}
	return truncateWords(summary, 100)
}

// ExtractEntities runs entity extraction over every non-sentinel summary and
// returns the resolved (deduplicated) entity list. A failed call falls back
// to pattern-based extraction for that summary.
func (r *LLMStageRunner) ExtractEntities(ctx context.Context, summaries []string) ([]Entity, StageUsage) {
	var all []Entity
	var usage StageUsage
	for _, summary := range summaries {
		if skipSummary(summary) {
			continue
		}
		prompt := fmt.Sprintf(
			"Extract all biomedical entities from the text below.\n\n%s\n\nText to analyze:\n%s\n\nReturn only the JSON array, no other text.",
			entitySchemaPrompt,
			summary,
		)
		raw, err := r.extractor.Complete(ctx, prompt, 0.1)
		usage.add(r.extractor.Drain())
		if err != nil {
			all = append(all, patternEntities(summary)...)
			continue
		}
		all = append(all, decodeEntities(ParseJSONArray(raw))...)
	}
	return ResolveEntities(all), usage
}

// decodeEntities validates the structured output at the parse boundary:
// records without a non-empty mention are dropped, missing fields take their
// documented defaults. Untyped JSON never leaves this function.
func decodeEntities(items []gjson.Result) []Entity {
	var entities []Entity
	for _, item := range items {
		if !item.IsObject() {
			continue
		}
		mention := strings.TrimSpace(item.Get("mention").String())
		if mention == "" {
			continue
		}
		entityType := strings.TrimSpace(item.Get("type").String())
		if entityType == "" {
			entityType = UnknownType
		}
		normalizedID := strings.TrimSpace(item.Get("normalized_id").String())
		if normalizedID == "" {
			normalizedID = UnsetOntologyRef
		}
		var aliases []string
		for _, a := range item.Get("aliases").Array() {
			if s := strings.TrimSpace(a.String()); s != "" {
				aliases = append(aliases, s)
			}
		}
		entities = append(entities, Entity{
			ID:           mention,
			Type:         entityType,
			Name:         mention,
			NormalizedID: normalizedID,
			Aliases:      aliases,
		})
	}
	return entities
}

// ExtractRelations extracts triples between the provided entities from every
// non-sentinel summary. Heads and tails must name entities from the provided
// set; anything else is dropped at the parse boundary. A failed call yields
// no triples for that summary (empty means "no results", not an error).
func (r *LLMStageRunner) ExtractRelations(ctx context.Context, summaries []string, entities []Entity) ([]Triple, StageUsage) {
	var usage StageUsage
	if len(entities) < 2 {
		return nil, usage
	}
	names := make([]string, len(entities))
	for i, e := range entities {
		names[i] = e.Name
	}
	var bullets strings.Builder
	for _, n := range names {
		fmt.Fprintf(&bullets, "- %s\n", n)
	}

	var all []Triple
	for _, summary := range summaries {
		if skipSummary(summary) {
			continue
		}
		prompt := fmt.Sprintf(
			"Entities of interest:\n%s\n%s\n\nFrom the text below, identify direct relationships between these entities. Only extract relationships explicitly stated or clearly implied.\n\nText to analyze:\n%s\n\nReturn only the JSON array.",
			bullets.String(),
			relationSchemaPrompt,
			summary,
		)
		raw, err := r.relater.Complete(ctx, prompt, 0.1)
		usage.add(r.relater.Drain())
		if err != nil {
			continue
		}
		all = append(all, decodeRelations(ParseJSONArray(raw), names)...)
	}
	return dedupeTriples(all), usage
}

func decodeRelations(items []gjson.Result, entityNames []string) []Triple {
	var triples []Triple
	for _, item := range items {
		if !item.IsObject() {
			continue
		}
		head := strings.TrimSpace(item.Get("head").String())
		relation := strings.TrimSpace(item.Get("relation").String())
		tail := strings.TrimSpace(item.Get("tail").String())
		if head == "" || relation == "" || tail == "" {
			continue
		}
		if !entityExists(head, entityNames) || !entityExists(tail, entityNames) {
			continue
		}
		confidence := item.Get("confidence").Float()
		if confidence <= 0 {
			confidence = 0.5
		}
		triples = append(triples, Triple{
			Head:       head,
			Relation:   relation,
			Tail:       tail,
			Confidence: clamp01(confidence),
			Clarity:    estimateClarity(head, relation, tail),
			Relevance:  estimateRelevance(head, relation, tail),
			Source:     StageRelations,
		})
	}
	return triples
}

func entityExists(name string, names []string) bool {
	for _, n := range names {
		if strings.EqualFold(n, name) {
			return true
		}
	}
	return false
}

func skipSummary(summary string) bool {
	return summary == "" || summary == OmittedSummary || strings.EqualFold(summary, "[LOW CONTENT]")
}

// dedupeTriples keeps one triple per (head, relation, tail) identity key,
// preferring the highest confidence. First-seen order is preserved.
func dedupeTriples(triples []Triple) []Triple {
	if len(triples) == 0 {
		return nil
	}
	index := make(map[string]int, len(triples))
	out := make([]Triple, 0, len(triples))
	for _, t := range triples {
		key := strings.ToLower(t.Head) + "__" + strings.ToLower(t.Relation) + "__" + strings.ToLower(t.Tail)
		if i, ok := index[key]; ok {
			if t.Confidence > out[i].Confidence {
				out[i] = t
			}
			continue
		}
		index[key] = len(out)
		out = append(out, t)
	}
	return out
}

var specificRelations = map[string]bool{
	"treats": true, "inhibits": true, "activates": true, "causes": true, "regulates": true,
}

var genericEntityTerms = map[string]bool{
	"protein": true, "gene": true, "drug": true, "disease": true, "chemical": true,
}

// estimateClarity scores how unambiguous a triple's phrasing is: specific
// verbs and non-generic entity names read clearer than loose associations.
func estimateClarity(head, relation, tail string) float64 {
	clarity := 0.5
	rel := strings.ToLower(relation)
	if specificRelations[rel] {
		clarity += 0.2
	}
	if !genericEntityTerms[strings.ToLower(head)] {
		clarity += 0.1
	}
	if !genericEntityTerms[strings.ToLower(tail)] {
		clarity += 0.1
	}
	if rel == "associated_with" || rel == "interacts_with" {
		clarity -= 0.1
	}
	return boundScore(clarity)
}

var therapeuticRelations = map[string]bool{
	"treats": true, "prevents": true, "causes": true, "inhibits": true, "activates": true,
}

var diseaseTermHints = []string{"cancer", "disease", "disorder", "syndrome", "infection"}
var drugTermHints = []string{"drug", "medication", "inhibitor", "agonist", "antagonist", "therapy"}

// estimateRelevance scores biomedical significance: therapeutic verbs and
// disease- or drug-flavored endpoints matter more.
func estimateRelevance(head, relation, tail string) float64 {
	relevance := 0.5
	if therapeuticRelations[strings.ToLower(relation)] {
		relevance += 0.2
	}
	lowerHead, lowerTail := strings.ToLower(head), strings.ToLower(tail)
	if containsAny(lowerHead, diseaseTermHints) || containsAny(lowerTail, diseaseTermHints) {
		relevance += 0.1
	}
	if containsAny(lowerHead, drugTermHints) || containsAny(lowerTail, drugTermHints) {
		relevance += 0.1
	}
	return boundScore(relevance)
}

func containsAny(s string, hints []string) bool {
	for _, h := range hints {
		if strings.Contains(s, h) {
			return true
		}
	}
	return false
}

// boundScore keeps heuristic estimates inside [0.1, 1.0] so they never read
// as "unset".
func boundScore(v float64) float64 {
	if v < 0.1 {
		return 0.1
	}
	if v > 1 {
		return 1
	}
	return v
}

var fallbackEntityPatterns = []struct {
	entityType string
	patterns   []*regexp.Regexp
}{
	{TypeGene, compileAll(`\b[A-Z][A-Z0-9]{2,}[a-z]?\b`, `\b[A-Z]{1,2}[0-9]+[A-Z]?\b`)},
	{TypeProtein, compileAll(`\b[A-Z][a-z]+[0-9]*\s*receptor\b`, `\b[A-Z][a-z]+ase\b`)},
	{TypeDrug, compileAll(`(?i)\b[a-z]+mycin\b`, `(?i)\b[a-z]+cillin\b`, `(?i)\b[a-z]+statin\b`)},
	{TypeDisease, compileAll(`(?i)\b[a-z]+\s+cancer\b`, `(?i)\b[a-z]+\s+disease\b`, `(?i)\b[a-z]+\s+syndrome\b`)},
}

// patternEntities is the deterministic fallback used when the extraction
// capability fails: surface patterns for gene symbols, enzyme and receptor
// names, drug suffixes, and disease phrases.
func patternEntities(text string) []Entity {
	var entities []Entity
	for _, group := range fallbackEntityPatterns {
		for _, p := range group.patterns {
			for _, mention := range p.FindAllString(text, -1) {
				mention = strings.TrimSpace(mention)
				if len(mention) <= 2 {
					continue
				}
				entities = append(entities, Entity{
					ID:           mention,
					Type:         group.entityType,
					Name:         mention,
					NormalizedID: UnsetOntologyRef,
				})
			}
		}
	}
	return entities
}

var sentenceTermHints = []string{
	"inhibit", "activate", "regulate", "express", "bind", "interact",
	"cause", "treat", "prevent", "induce", "suppress", "enhance",
	"protein", "gene", "enzyme", "receptor", "pathway", "mechanism",
	"disease", "cancer", "tumor", "therapy", "treatment", "drug",
	"significant", "increase", "decrease", "effect", "response",
}

var measurementPattern = regexp.MustCompile(`\d+\.?\d*\s*(%|mg|μg|ng|mM|μM|nM|p\s*[<>=])`)
var capitalizedToken = regexp.MustCompile(`\b[A-Z][A-Za-z0-9-]+\b`)

// keySentences is the deterministic summarization fallback: rank sentences by
// biomedical term density and measurement content, keep the best within the
// 100-word budget.
func keySentences(text string) string {
	sentences := strings.Split(text, ". ")
	type scored struct {
		sentence string
		score    float64
	}
	ranked := make([]scored, 0, len(sentences))
	for _, s := range sentences {
		ranked = append(ranked, scored{s, scoreSentence(s)})
	}
	for i := 1; i < len(ranked); i++ {
		for j := i; j > 0 && ranked[j].score > ranked[j-1].score; j-- {
			ranked[j], ranked[j-1] = ranked[j-1], ranked[j]
		}
	}

	var selected []string
	wordCount := 0
	for _, r := range ranked {
		n := len(strings.Fields(r.sentence))
		if wordCount+n <= 100 && r.score > 0.3 {
			selected = append(selected, r.sentence)
			wordCount += n
		}
	}
	if len(selected) > 0 {
		return strings.Join(selected, ". ") + "."
	}
	words := strings.Fields(text)
	if len(words) > 100 {
		words = words[:100]
	}
	return strings.Join(words, " ") + "..."
}

func scoreSentence(sentence string) float64 {
	lower := strings.ToLower(sentence)
	score := 0.0
	for _, term := range sentenceTermHints {
		if strings.Contains(lower, term) {
			score += 0.1
		}
	}
	if measurementPattern.MatchString(sentence) {
		score += 0.3
	}
	score += float64(len(capitalizedToken.FindAllString(sentence, -1))) * 0.05

	n := len(strings.Fields(sentence))
	if n < 5 {
		score *= 0.5
	} else if n > 50 {
		score *= 0.8
	}
	if score > 1 {
		return 1
	}
	return score
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}

// truncateWords trims s to at most max words on a sentence boundary. Texts up
// to 20 words over the limit pass through untouched; trimming kicks in only
// past that tolerance.
func truncateWords(s string, max int) string {
	if len(strings.Fields(s)) <= max+20 {
		return s
	}
	sentences := strings.Split(s, ". ")
	var out []string
	count := 0
	for _, sentence := range sentences {
		n := len(strings.Fields(sentence))
		if count+n > max {
			break
		}
		out = append(out, sentence)
		count += n
	}
	if len(out) == 0 {
		words := strings.Fields(s)
		return strings.Join(words[:max], " ")
	}
	return strings.TrimSuffix(strings.Join(out, ". "), ".") + "."
}
