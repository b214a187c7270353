package kgextract

import (
	"regexp"
	"strings"
)

// Section category identifiers assigned at segmentation time.
const (
	SectionAbstract      = "abstract"
	SectionIntroduction  = "introduction"
	SectionMethods       = "methods"
	SectionResults       = "results"
	SectionDiscussion    = "discussion"
	SectionReferences    = "references"
	SectionAcknowledge   = "acknowledgments"
	SectionFunding       = "funding"
	SectionSupplementary = "supplementary"
	SectionHeader        = "header"
	SectionFigureCaption = "figure_caption"
	SectionContent       = "content"
)

var sectionPatterns = []struct {
	section  string
	patterns []*regexp.Regexp
}{
	{SectionAbstract, compileAll(`^abstract\b`, `summary\b`)},
	{SectionIntroduction, compileAll(`^introduction\b`, `^background\b`)},
	{SectionMethods, compileAll(`^methods?\b`, `^methodology\b`, `^materials\b`, `^experimental\b`)},
	{SectionResults, compileAll(`^results?\b`, `^findings\b`, `^outcomes?\b`)},
	{SectionDiscussion, compileAll(`^discussion\b`, `^conclusion\b`, `^implications\b`)},
	{SectionReferences, compileAll(`^references?\b`, `^bibliography\b`, `^\d+\.\s+\w+.*et al`)},
	{SectionAcknowledge, compileAll(`^acknowledgments?\b`, `^acknowledgements?\b`)},
	{SectionFunding, compileAll(`^funding\b`, `^grants?\b`, `^financial\b`)},
	{SectionSupplementary, compileAll(`^supplement`, `^appendix\b`, `^additional\b`)},
}

var citationLine = regexp.MustCompile(`\d+\.\s+\w+.*\(\d{4}\)`)

func compileAll(exprs ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(exprs))
	for i, e := range exprs {
		out[i] = regexp.MustCompile(e)
	}
	return out
}

// SplitSegments splits normalized document text into paragraph-level segments
// and classifies each into a section category from structural cues. Scores
// are left at zero for the reader stage to fill.
func SplitSegments(text string) []Segment {
	var segments []Segment
	position := 0
	for _, raw := range strings.Split(text, "\n\n") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		segments = append(segments, Segment{
			Text:      raw,
			Section:   classifySection(raw),
			Position:  position,
			WordCount: len(strings.Fields(raw)),
		})
		position++
	}
	return segments
}

func classifySection(text string) string {
	lower := strings.ToLower(text)
	for _, sp := range sectionPatterns {
		for _, p := range sp.patterns {
			if p.MatchString(lower) {
				return sp.section
			}
		}
	}
	switch {
	case len(strings.Fields(text)) < 10:
		return SectionHeader
	case citationLine.MatchString(text):
		return SectionReferences
	case strings.HasPrefix(text, "Figure") || strings.HasPrefix(text, "Table") || strings.HasPrefix(text, "Fig."):
		return SectionFigureCaption
	default:
		return SectionContent
	}
}

// sectionPriorScores are the fallback relevance scores used when the scoring
// capability is unavailable. The section category acts as a prior on how
// likely a segment is to yield extractable relationships.
var sectionPriorScores = map[string]float64{
	SectionResults:       0.8,
	SectionDiscussion:    0.7,
	SectionAbstract:      0.6,
	SectionIntroduction:  0.5,
	SectionContent:       0.5,
	SectionFigureCaption: 0.4,
	SectionMethods:       0.3,
	SectionSupplementary: 0.2,
	SectionHeader:        0.2,
	SectionReferences:    0.1,
	SectionAcknowledge:   0.1,
	SectionFunding:       0.1,
}

// DefaultSegmentScore returns the heuristic relevance score for a segment,
// derived from its section prior adjusted for length.
func DefaultSegmentScore(seg Segment) float64 {
	score, ok := sectionPriorScores[seg.Section]
	if !ok {
		score = 0.5
	}
	if seg.WordCount < 10 {
		score *= 0.5
	} else if seg.WordCount > 100 {
		score *= 1.1
	}
	return clamp01(score)
}
