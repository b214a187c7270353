package kgextract

import "time"

const (
	// DefaultRelevanceThreshold is the minimum segment relevance score for a
	// segment to reach summarization and extraction.
	DefaultRelevanceThreshold = 0.2
	// DefaultIntegrationThreshold is the minimum integration score for a
	// triple to be admitted into the exported knowledge graph.
	DefaultIntegrationThreshold = 0.6

	// UnsetOntologyRef marks an entity with no known ontology identifier.
	UnsetOntologyRef = "N/A"
	// UnknownType marks an entity whose semantic category is undetermined.
	UnknownType = "Unknown"

	// OmittedSummary replaces summaries for segments below the relevance
	// threshold. Downstream extraction skips it; the run record keeps it.
	OmittedSummary = "[OMITTED - Low Relevance]"

	// ScoreBatchSize is how many segments are scored per completion call.
	ScoreBatchSize = 5
)

// Entity category names used by the schema alignment cascade.
const (
	TypeDrug     = "Drug"
	TypeDisease  = "Disease"
	TypeGene     = "Gene"
	TypeProtein  = "Protein"
	TypeChemical = "Chemical"
	TypePathway  = "Pathway"
	TypeAnatomy  = "Anatomy"
)

// Stage names in pipeline order. These tag metrics, spans, and degraded-stage
// entries in the run record.
const (
	StageSegment     = "segment"
	StageRelevance   = "relevance_filter"
	StageSummarize   = "summarize"
	StageEntities    = "entity_extraction"
	StageRelations   = "relation_extraction"
	StageAlignment   = "schema_alignment"
	StageConflicts   = "conflict_resolution"
	StageIntegration = "integration"
)

// Entity is a canonical node candidate in the knowledge graph.
type Entity struct {
	ID           string   `json:"entity_id"`
	Type         string   `json:"entity_type"`
	Name         string   `json:"name"`
	NormalizedID string   `json:"normalized_id"`
	Aliases      []string `json:"aliases,omitempty"`
}

// Triple is a (head, relation, tail) assertion with quality sub-scores.
// Confidence, clarity, and relevance are in [0,1]; values ≤ 0 are treated as
// unset and normalized to 0.5 before scoring.
type Triple struct {
	Head       string  `json:"head"`
	Relation   string  `json:"relation"`
	Tail       string  `json:"tail"`
	Confidence float64 `json:"confidence"`
	Clarity    float64 `json:"clarity"`
	Relevance  float64 `json:"relevance"`
	Source     string  `json:"source"`
}

// Segment is one logical chunk of a document with its relevance score and the
// structural section it was classified into. Section is a scoring prior only
// and is never mutated after segmentation.
type Segment struct {
	Text      string  `json:"text"`
	Score     float64 `json:"score"`
	Section   string  `json:"section"`
	Position  int     `json:"position"`
	WordCount int     `json:"word_count"`
}

// DocumentMetadata holds bibliographic metadata extracted during ingestion.
type DocumentMetadata struct {
	Title        string   `json:"title"`
	Authors      []string `json:"authors,omitempty"`
	Journal      string   `json:"journal"`
	PubDate      string   `json:"pub_date"`
	DOI          string   `json:"doi"`
	PMID         string   `json:"pmid"`
	DocumentType string   `json:"document_type"`
}

// RunMetrics accumulates external-capability usage over one run. Counters are
// additive per invocation and never reset mid-run.
type RunMetrics struct {
	CallCount         int                `json:"call_count"`
	PromptTokens      int                `json:"prompt_tokens"`
	CompletionTokens  int                `json:"completion_tokens"`
	ProcessingSeconds float64            `json:"processing_seconds"`
	StageSeconds      map[string]float64 `json:"stage_seconds,omitempty"`
	ErrorCount        int                `json:"error_count"`
}

// AddStageTime records elapsed seconds for a named stage and folds it into
// the run total.
func (m *RunMetrics) AddStageTime(stage string, seconds float64) {
	if m.StageSeconds == nil {
		m.StageSeconds = map[string]float64{}
	}
	m.StageSeconds[stage] += seconds
	m.ProcessingSeconds += seconds
}

// Add folds per-stage usage counters into the run totals.
func (m *RunMetrics) Add(u StageUsage) {
	m.CallCount += u.Calls
	m.PromptTokens += u.PromptTokens
	m.CompletionTokens += u.CompletionTokens
	m.ErrorCount += u.Errors
}

// StageUsage is the usage a single stage reports back to the orchestrator.
type StageUsage struct {
	Calls            int
	PromptTokens     int
	CompletionTokens int
	Errors           int
}

func (u *StageUsage) add(o StageUsage) {
	u.Calls += o.Calls
	u.PromptTokens += o.PromptTokens
	u.CompletionTokens += o.CompletionTokens
	u.Errors += o.Errors
}

// RunRecord is the append-only per-document state threaded through the
// pipeline. Each stage appends its output field; earlier fields are never
// replaced, preserving full provenance for audit and replay. The orchestrator
// is the only writer.
type RunRecord struct {
	RunID    string            `json:"run_id"`
	Metadata *DocumentMetadata `json:"metadata,omitempty"`
	RawText  string            `json:"raw_text"`

	Segments          []Segment `json:"segments"`
	RelevantSegments  []Segment `json:"relevant_segments"`
	Summaries         []string  `json:"summaries"`
	Entities          []Entity  `json:"entities"`
	Relations         []Triple  `json:"relations"`
	AlignedEntities   []Entity  `json:"aligned_entities"`
	AlignedTriples    []Triple  `json:"aligned_triples"`
	FinalTriples      []Triple  `json:"final_triples"`
	IntegratedTriples []Triple  `json:"integrated_triples"`

	Metrics        RunMetrics `json:"metrics"`
	DegradedStages []string   `json:"degraded_stages,omitempty"`
	StartedAt      time.Time  `json:"started_at"`
	CompletedAt    time.Time  `json:"completed_at"`
}

// GraphStatistics summarizes an exported knowledge graph.
type GraphStatistics struct {
	EntityCount          int            `json:"entity_count"`
	TripleCount          int            `json:"triple_count"`
	UniqueRelations      int            `json:"unique_relations"`
	RelationDistribution map[string]int `json:"relation_distribution"`
	AvgConfidence        float64        `json:"avg_confidence"`
}

// KnowledgeGraph is the terminal projection of a run: the integrated triples
// and the entity names they reference. It is owned by the caller after export
// and lives independently of the run record.
type KnowledgeGraph struct {
	Entities   []string        `json:"entities"`
	Triples    []Triple        `json:"triples"`
	Metadata   map[string]any  `json:"metadata,omitempty"`
	Statistics GraphStatistics `json:"statistics"`
}

// Config carries the two tunables the core reads.
type Config struct {
	RelevanceThreshold   float64
	IntegrationThreshold float64
}

// DefaultConfig returns the thresholds used when none are supplied.
func DefaultConfig() Config {
	return Config{
		RelevanceThreshold:   DefaultRelevanceThreshold,
		IntegrationThreshold: DefaultIntegrationThreshold,
	}
}
