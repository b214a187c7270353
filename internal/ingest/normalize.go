// Package ingest prepares raw document text for extraction: character-level
// normalization and bibliographic metadata extraction with a pattern-based
// fallback.
package ingest

import (
	"regexp"
	"strings"
)

var (
	spaceRun       = regexp.MustCompile(`[ \t]+`)
	newlinePadding = regexp.MustCompile(` ?\n ?`)
	blankRun       = regexp.MustCompile(`\n{3,}`)

	// OCR scanners drop the l in the middle of words as a 1.
	midWordOne = regexp.MustCompile(`([a-z])1([a-z])`)
)

// symbolReplacer transliterates characters that trip up downstream matching:
// PDF ligatures, Greek letters common in biomedical nomenclature, and unit
// symbols.
var symbolReplacer = strings.NewReplacer(
	"ﬁ", "fi",
	"ﬂ", "fl",
	"α", "alpha",
	"β", "beta",
	"γ", "gamma",
	"δ", "delta",
	"ε", "epsilon",
	"μ", "mu",
	"°", " degrees",
	"±", "+/-",
	"→", " -> ",
	"←", " <- ",
	"↑", " up ",
	"↓", " down ",
)

// NormalizeText cleans raw document text while preserving paragraph
// boundaries, which segmentation depends on. Runs of spaces collapse to one,
// three or more newlines collapse to a paragraph break, and OCR and symbol
// artifacts are transliterated in place.
func NormalizeText(text string) string {
	if strings.TrimSpace(text) == "" {
		return ""
	}
	text = symbolReplacer.Replace(text)
	text = midWordOne.ReplaceAllString(text, "${1}l${2}")
	text = spaceRun.ReplaceAllString(text, " ")
	text = newlinePadding.ReplaceAllString(text, "\n")
	text = blankRun.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}
