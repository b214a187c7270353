package kgextract

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

func StageNameFromError(err error) string {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage
	}
	return "pipeline"
}

type StageProgressFn func(stage, message string)

// Pipeline runs the fixed extraction sequence over documents and accumulates
// the integrated knowledge graph across runs. The accumulated triple set is
// what conflict resolution checks new candidates against, so document order
// matters: an earlier accepted triple can only be displaced by a later one
// with strictly higher confidence.
//
// A Pipeline is not safe for concurrent use; documents are processed one at a
// time.
type Pipeline struct {
	runner StageRunner
	cfg    Config
	tracer trace.Tracer

	entities []Entity
	accepted []Triple
}

func NewPipeline(runner StageRunner, cfg Config) *Pipeline {
	return &Pipeline{
		runner: runner,
		cfg:    cfg,
		tracer: otel.Tracer("github.com/joelkehle/biograph/internal/kgextract"),
	}
}

func (p *Pipeline) Run(ctx context.Context, text string, meta *DocumentMetadata) (RunRecord, error) {
	return p.runWithProgress(ctx, text, meta, nil)
}

func (p *Pipeline) RunWithProgress(ctx context.Context, text string, meta *DocumentMetadata, progress StageProgressFn) (RunRecord, error) {
	return p.runWithProgress(ctx, text, meta, progress)
}

// runWithProgress threads the run record through the stage sequence. Each
// stage only appends its own field; once a stage has failed over to its
// heuristic the record notes it in DegradedStages and the sequence continues.
// Only empty input aborts before the sequence starts.
func (p *Pipeline) runWithProgress(ctx context.Context, text string, meta *DocumentMetadata, progress StageProgressFn) (RunRecord, error) {
	rec := RunRecord{
		RunID:     uuid.NewString(),
		Metadata:  meta,
		RawText:   text,
		StartedAt: time.Now().UTC(),
	}

	if strings.TrimSpace(text) == "" {
		return rec, &StageError{Stage: StageSegment, Err: errors.New("document text is empty")}
	}

	ctx, runSpan := p.tracer.Start(ctx, "kgextract.run",
		trace.WithAttributes(attribute.String("run.id", rec.RunID)))
	defer runSpan.End()

	// Segmentation is deterministic and never degrades.
	emit(progress, StageSegment, "Splitting document into segments...")
	p.timed(ctx, &rec, StageSegment, func(ctx context.Context) StageUsage {
		rec.Segments = SplitSegments(text)
		return StageUsage{}
	})
	if len(rec.Segments) == 0 {
		rec.CompletedAt = time.Now().UTC()
		return rec, nil
	}
	emit(progress, StageSegment, fmt.Sprintf("%d segments", len(rec.Segments)))

	emit(progress, StageRelevance, "Scoring segment relevance...")
	p.timed(ctx, &rec, StageRelevance, func(ctx context.Context) StageUsage {
		scored, usage := p.runner.ScoreSegments(ctx, rec.Segments)
		rec.Segments = scored
		for _, seg := range scored {
			if seg.Score >= p.cfg.RelevanceThreshold {
				rec.RelevantSegments = append(rec.RelevantSegments, seg)
			}
		}
		return usage
	})
	emit(progress, StageRelevance, fmt.Sprintf("%d of %d segments relevant", len(rec.RelevantSegments), len(rec.Segments)))

	emit(progress, StageSummarize, "Summarizing relevant segments...")
	p.timed(ctx, &rec, StageSummarize, func(ctx context.Context) StageUsage {
		summaries, usage := p.runner.Summarize(ctx, rec.Segments, p.cfg.RelevanceThreshold)
		rec.Summaries = summaries
		return usage
	})

	emit(progress, StageEntities, "Extracting entities...")
	p.timed(ctx, &rec, StageEntities, func(ctx context.Context) StageUsage {
		entities, usage := p.runner.ExtractEntities(ctx, rec.Summaries)
		rec.Entities = entities
		return usage
	})
	emit(progress, StageEntities, fmt.Sprintf("%d entities", len(rec.Entities)))

	emit(progress, StageRelations, "Extracting relationships...")
	p.timed(ctx, &rec, StageRelations, func(ctx context.Context) StageUsage {
		relations, usage := p.runner.ExtractRelations(ctx, rec.Summaries, rec.Entities)
		rec.Relations = relations
		return usage
	})
	emit(progress, StageRelations, fmt.Sprintf("%d candidate triples", len(rec.Relations)))

	emit(progress, StageAlignment, "Aligning schema...")
	p.timed(ctx, &rec, StageAlignment, func(ctx context.Context) StageUsage {
		rec.AlignedEntities, rec.AlignedTriples = AlignSchema(rec.Entities, rec.Relations)
		return StageUsage{}
	})

	emit(progress, StageConflicts, "Resolving conflicts...")
	p.timed(ctx, &rec, StageConflicts, func(ctx context.Context) StageUsage {
		rec.FinalTriples = ResolveConflicts(rec.AlignedTriples, p.accepted)
		return StageUsage{}
	})

	emit(progress, StageIntegration, "Applying quality gate...")
	p.timed(ctx, &rec, StageIntegration, func(ctx context.Context) StageUsage {
		rec.IntegratedTriples = QualityGate(rec.FinalTriples, p.cfg.IntegrationThreshold)
		return StageUsage{}
	})
	emit(progress, StageIntegration, fmt.Sprintf("%d triples integrated", len(rec.IntegratedTriples)))

	p.entities = ResolveEntities(append(p.entities, rec.AlignedEntities...))
	p.accepted = append(p.accepted, rec.IntegratedTriples...)

	rec.CompletedAt = time.Now().UTC()
	runSpan.SetAttributes(
		attribute.Int("run.integrated_triples", len(rec.IntegratedTriples)),
		attribute.Int("run.llm_calls", rec.Metrics.CallCount),
		attribute.Int("run.llm_errors", rec.Metrics.ErrorCount),
	)
	return rec, nil
}

// timed wraps one stage invocation with a span, wall-clock accounting, usage
// accumulation, and degraded-stage tracking.
func (p *Pipeline) timed(ctx context.Context, rec *RunRecord, stage string, fn func(ctx context.Context) StageUsage) {
	ctx, span := p.tracer.Start(ctx, "kgextract."+stage)
	started := time.Now()
	usage := fn(ctx)
	elapsed := time.Since(started)

	rec.Metrics.AddStageTime(stage, elapsed.Seconds())
	rec.Metrics.Add(usage)
	if usage.Errors > 0 {
		rec.DegradedStages = append(rec.DegradedStages, stage)
	}
	span.SetAttributes(
		attribute.Int("llm.calls", usage.Calls),
		attribute.Int("llm.errors", usage.Errors),
		attribute.Int("llm.prompt_tokens", usage.PromptTokens),
		attribute.Int("llm.completion_tokens", usage.CompletionTokens),
	)
	span.End()
}

func emit(progress StageProgressFn, stage, message string) {
	if progress != nil {
		progress(stage, message)
	}
}

// Graph projects the triples accepted across all runs so far into a
// knowledge graph. The projection is a copy; later runs do not mutate it.
func (p *Pipeline) Graph() KnowledgeGraph {
	return BuildGraph(p.entities, p.accepted)
}

// Accepted returns the accumulated integrated triples, for callers that need
// the raw set rather than the graph projection.
func (p *Pipeline) Accepted() []Triple {
	out := make([]Triple, len(p.accepted))
	copy(out, p.accepted)
	return out
}
