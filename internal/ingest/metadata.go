package ingest

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/joelkehle/biograph/internal/kgextract"
)

const metadataSystemPrompt = "You are a bibliographic metadata extractor for scientific literature. Extract the title, authors, journal, publication date (YYYY-MM-DD), DOI, PMID, and document type from document text. Use \"Unknown\" for indeterminate fields and \"N/A\" for a missing DOI or PMID. Never invent information. Respond with strict JSON only."

// metadataSampleChars bounds how much of the document is sent for metadata
// extraction; bibliographic information sits at the top.
const metadataSampleChars = 5000

// MetadataExtractor extracts bibliographic metadata, preferring the
// completion capability and degrading to pattern matching on failure.
type MetadataExtractor struct {
	client *kgextract.CapabilityClient
}

func NewMetadataExtractor(completer kgextract.Completer) *MetadataExtractor {
	return &MetadataExtractor{client: kgextract.NewCapabilityClient(completer, metadataSystemPrompt)}
}

func (e *MetadataExtractor) Extract(ctx context.Context, text string) (kgextract.DocumentMetadata, kgextract.StageUsage) {
	sample := text
	if len(sample) > metadataSampleChars {
		sample = sample[:metadataSampleChars]
	}
	prompt := fmt.Sprintf(`Extract the bibliographic metadata from this document.

Required JSON schema (object):
{
  "title": "...",
  "authors": ["...", "..."],
  "journal": "...",
  "pub_date": "YYYY-MM-DD",
  "doi": "10.xxxx/xxxxx or N/A",
  "pmid": "digits or N/A",
  "document_type": "article | review | case_study | editorial | other"
}

Document sample:
%s

Return only the JSON object.`, sample)

	raw, err := e.client.Complete(ctx, prompt, 0.1)
	usage := e.client.Drain()
	if err != nil {
		return FallbackMetadata(text), usage
	}
	meta, ok := decodeMetadata(raw)
	if !ok {
		return FallbackMetadata(text), usage
	}
	return meta, usage
}

func decodeMetadata(raw string) (kgextract.DocumentMetadata, bool) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return kgextract.DocumentMetadata{}, false
	}
	candidate := raw[start : end+1]
	if !gjson.Valid(candidate) {
		return kgextract.DocumentMetadata{}, false
	}
	obj := gjson.Parse(candidate)
	if !obj.IsObject() {
		return kgextract.DocumentMetadata{}, false
	}

	meta := kgextract.DocumentMetadata{
		Title:        fieldOr(obj, "title", "Unknown Title"),
		Journal:      fieldOr(obj, "journal", "Unknown Journal"),
		PubDate:      fieldOr(obj, "pub_date", kgextract.UnsetOntologyRef),
		DOI:          fieldOr(obj, "doi", kgextract.UnsetOntologyRef),
		PMID:         fieldOr(obj, "pmid", kgextract.UnsetOntologyRef),
		DocumentType: fieldOr(obj, "document_type", "article"),
	}
	for _, a := range obj.Get("authors").Array() {
		if s := strings.TrimSpace(a.String()); s != "" {
			meta.Authors = append(meta.Authors, s)
		}
	}
	return meta, true
}

func fieldOr(obj gjson.Result, key, fallback string) string {
	if s := strings.TrimSpace(obj.Get(key).String()); s != "" {
		return s
	}
	return fallback
}

var (
	doiPattern     = regexp.MustCompile(`10\.\d{4,}(?:\.\d+)?/[^\s]+`)
	pmidPattern    = regexp.MustCompile(`(?i)PMID:?\s*(\d{7,})`)
	authorsPattern = regexp.MustCompile(`(?im)^(?:authors?:?|by)\s+([A-Za-z][A-Za-z\s,.-]+?)$`)
)

// FallbackMetadata extracts what it can with patterns: the first line of
// plausible title length, a DOI, a PMID, and an author line near the top.
func FallbackMetadata(text string) kgextract.DocumentMetadata {
	meta := kgextract.DocumentMetadata{
		Title:        "Unknown Title",
		Journal:      "Unknown Journal",
		PubDate:      kgextract.UnsetOntologyRef,
		DOI:          kgextract.UnsetOntologyRef,
		PMID:         kgextract.UnsetOntologyRef,
		DocumentType: "article",
	}

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if len(line) > 10 && len(line) < 200 {
			meta.Title = line
			break
		}
	}
	if m := doiPattern.FindString(text); m != "" {
		meta.DOI = m
	}
	if m := pmidPattern.FindStringSubmatch(text); m != nil {
		meta.PMID = m[1]
	}

	head := text
	if len(head) > 1000 {
		head = head[:1000]
	}
	if m := authorsPattern.FindStringSubmatch(head); m != nil {
		for _, author := range regexp.MustCompile(`[,;]`).Split(m[1], -1) {
			author = strings.TrimSpace(author)
			if len(author) > 2 {
				meta.Authors = append(meta.Authors, author)
			}
		}
	}
	return meta
}
