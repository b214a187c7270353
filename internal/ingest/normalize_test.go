package ingest

import "testing"

func TestNormalizeText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "   \n\t ", ""},
		{"ligatures", "the ﬁrst ﬂow", "the first flow"},
		{"greek letters", "TNF-α activates NF-κB at 37°C", "TNF-alpha activates NF-κB at 37 degreesC"},
		{"ocr mid-word one", "signa1ing pathway", "signaling pathway"},
		{"space runs", "too   many\t\tspaces", "too many spaces"},
		{"paragraph breaks kept", "first paragraph\n\nsecond paragraph", "first paragraph\n\nsecond paragraph"},
		{"blank runs collapse", "first\n\n\n\nsecond", "first\n\nsecond"},
		{"padded newlines", "line one \n line two", "line one\nline two"},
		{"arrows", "dose↑ response↓", "dose up response down"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeText(tt.in); got != tt.want {
				t.Fatalf("NormalizeText(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
