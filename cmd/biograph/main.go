package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"

	"github.com/joelkehle/biograph/internal/ingest"
	"github.com/joelkehle/biograph/internal/kgextract"
	"github.com/joelkehle/biograph/internal/report"
	"github.com/joelkehle/biograph/internal/runstore"
	"github.com/joelkehle/biograph/internal/telemetry"
)

func main() {
	input := flag.String("input", "", "Path to a plain-text document to process")
	replay := flag.String("replay", "", "Path to a saved run record JSON; rebuilds outputs without LLM calls")
	outDir := flag.String("out", "out", "Output directory")
	dbPath := flag.String("db", "", "SQLite run store path (empty disables the store)")
	relevance := flag.Float64("relevance", kgextract.DefaultRelevanceThreshold, "Segment relevance threshold")
	integration := flag.Float64("integration", kgextract.DefaultIntegrationThreshold, "Triple integration threshold")
	otlpEndpoint := flag.String("otlp-endpoint", "", "OTLP trace collector endpoint (empty disables export)")
	pdf := flag.Bool("pdf", false, "Also render the report as PDF")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	shutdown, err := telemetry.Setup(ctx, *otlpEndpoint, "biograph")
	if err != nil {
		log.Fatalf("telemetry: %v", err)
	}
	defer shutdown(context.Background())

	switch {
	case *replay != "":
		if err := runReplay(ctx, *replay, *outDir, *pdf); err != nil {
			log.Fatalf("replay: %v", err)
		}
	case *input != "":
		cfg := kgextract.Config{RelevanceThreshold: *relevance, IntegrationThreshold: *integration}
		if err := runExtraction(ctx, *input, *outDir, *dbPath, cfg, *pdf); err != nil {
			log.Fatalf("extract: %v", err)
		}
	default:
		log.Fatal("either -input or -replay is required")
	}
}

func runExtraction(ctx context.Context, inputPath, outDir, dbPath string, cfg kgextract.Config, renderPDF bool) error {
	raw, err := os.ReadFile(inputPath)
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	text := ingest.NormalizeText(string(raw))

	completer, err := kgextract.NewAnthropicCompleterFromEnv()
	if err != nil {
		return err
	}

	log.Printf("extracting metadata from %s", filepath.Base(inputPath))
	meta, _ := ingest.NewMetadataExtractor(completer).Extract(ctx, text)

	pipeline := kgextract.NewPipeline(kgextract.NewLLMStageRunner(completer), cfg)
	rec, err := pipeline.RunWithProgress(ctx, text, &meta, func(stage, message string) {
		log.Printf("[%s] %s", stage, message)
	})
	if err != nil {
		return err
	}
	graph := pipeline.Graph()
	log.Printf("run %s: %d entities, %d triples integrated (%d LLM calls, %d errors)",
		rec.RunID, graph.Statistics.EntityCount, graph.Statistics.TripleCount,
		rec.Metrics.CallCount, rec.Metrics.ErrorCount)

	if dbPath != "" {
		store, err := runstore.Open(dbPath)
		if err != nil {
			return err
		}
		defer store.Close()
		if err := store.SaveRun(rec); err != nil {
			return err
		}
	}
	return writeOutputs(ctx, outDir, rec, graph, renderPDF)
}

func runReplay(ctx context.Context, recordPath, outDir string, renderPDF bool) error {
	rec, err := runstore.LoadRecordFile(recordPath)
	if err != nil {
		return err
	}
	graph := kgextract.ReplayGraph(rec)
	log.Printf("replaying run %s: %d triples", rec.RunID, graph.Statistics.TripleCount)
	return writeOutputs(ctx, outDir, rec, graph, renderPDF)
}

func writeOutputs(ctx context.Context, outDir string, rec kgextract.RunRecord, graph kgextract.KnowledgeGraph, renderPDF bool) error {
	if err := runstore.SaveRecordFile(filepath.Join(outDir, "run-"+rec.RunID+".json"), rec); err != nil {
		return fmt.Errorf("save run record: %w", err)
	}
	if err := runstore.SaveGraphFile(filepath.Join(outDir, "graph-"+rec.RunID+".json"), graph); err != nil {
		return fmt.Errorf("save graph: %w", err)
	}

	markdown := kgextract.BuildReport(rec, graph)
	if err := os.WriteFile(filepath.Join(outDir, "report-"+rec.RunID+".md"), []byte(markdown), 0o644); err != nil {
		return fmt.Errorf("save report: %w", err)
	}
	html, err := report.BuildHTML(markdown, rec.Metadata)
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(outDir, "report-"+rec.RunID+".html"), []byte(html), 0o644); err != nil {
		return fmt.Errorf("save html: %w", err)
	}
	if renderPDF {
		blob, err := report.NewPDFRenderer().Render(ctx, markdown, rec.Metadata)
		if err != nil {
			return fmt.Errorf("render pdf: %w", err)
		}
		if err := os.WriteFile(filepath.Join(outDir, "report-"+rec.RunID+".pdf"), blob, 0o644); err != nil {
			return fmt.Errorf("save pdf: %w", err)
		}
	}
	if err := writeRelationshipsCSV(filepath.Join(outDir, "relationships-"+rec.RunID+".csv"), rec); err != nil {
		return fmt.Errorf("save csv: %w", err)
	}
	log.Printf("outputs written to %s", outDir)
	return nil
}

// writeRelationshipsCSV exports every aligned triple with its scores and
// whether it survived conflict resolution and the quality gate.
func writeRelationshipsCSV(path string, rec kgextract.RunRecord) error {
	integrated := make(map[string]bool, len(rec.IntegratedTriples))
	for _, t := range rec.IntegratedTriples {
		integrated[tripleKey(t)] = true
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"head", "relation", "tail", "confidence", "clarity", "relevance", "source", "integration_score", "status"}); err != nil {
		return err
	}
	for _, t := range rec.AlignedTriples {
		status := "filtered"
		if integrated[tripleKey(t)] {
			status = "integrated"
		}
		scored := kgextract.NormalizeScores(t)
		row := []string{
			t.Head, t.Relation, t.Tail,
			formatFloat(t.Confidence), formatFloat(t.Clarity), formatFloat(t.Relevance),
			t.Source,
			formatFloat(kgextract.IntegrationScore(scored)),
			status,
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func tripleKey(t kgextract.Triple) string {
	return t.Head + "\x1f" + t.Relation + "\x1f" + t.Tail
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}
