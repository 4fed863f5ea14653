package textutil

import (
	"strings"
	"testing"
)

func TestCleanTranscript(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "removes cue markers",
			in:   "[Music] grace is not earned [Applause] it is given",
			want: "grace is not earned it is given",
		},
		{
			name: "decodes entities",
			in:   "God&#39;s love &amp; mercy",
			want: "God's love & mercy",
		},
		{
			name: "collapses whitespace",
			in:   "hold  on\n\nto hope\t\talways",
			want: "hold on to hope always",
		},
		{
			name: "inaudible marker with timestamp",
			in:   "we believe [inaudible 00:12:34] in restoration",
			want: "we believe in restoration",
		},
		{
			name: "plain text unchanged",
			in:   "walk by faith not by sight",
			want: "walk by faith not by sight",
		},
		{
			name: "collapses stutter repeats",
			in:   "the the Lord is is my shepherd",
			want: "the Lord is my shepherd",
		},
		{
			name: "stutter across case and punctuation",
			in:   "The the storm passed. Passed quickly",
			want: "The storm passed. quickly",
		},
		{
			name: "drops filler tokens",
			in:   "so um we need uh to trust Him",
			want: "so we need to trust Him",
		},
		{
			name: "empty input",
			in:   "",
			want: "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanTranscript(tt.in); got != tt.want {
				t.Fatalf("CleanTranscript(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestWordCount(t *testing.T) {
	if got := WordCount("one two  three\nfour"); got != 4 {
		t.Fatalf("WordCount() = %d, want 4", got)
	}
	if got := WordCount("   "); got != 0 {
		t.Fatalf("WordCount(blank) = %d, want 0", got)
	}
}

func TestExcerptShortTextUnchanged(t *testing.T) {
	in := "short enough already"
	if got := Excerpt(in, 300); got != in {
		t.Fatalf("Excerpt() = %q, want %q", got, in)
	}
}

func TestExcerptCutsAtWordBoundary(t *testing.T) {
	in := strings.Repeat("word ", 100)
	got := Excerpt(in, 52)
	if !strings.HasSuffix(got, "...") {
		t.Fatalf("Excerpt() = %q, want ellipsis suffix", got)
	}
	trimmed := strings.TrimSuffix(got, "...")
	if strings.HasSuffix(trimmed, "wor") || strings.HasSuffix(trimmed, "w") {
		t.Fatalf("Excerpt() = %q, cut mid-word", got)
	}
	if len([]rune(trimmed)) > 52 {
		t.Fatalf("Excerpt() kept %d runes, want at most 52", len([]rune(trimmed)))
	}
}

func TestExcerptUnbrokenRun(t *testing.T) {
	in := strings.Repeat("a", 400)
	got := Excerpt(in, 300)
	if want := strings.Repeat("a", 300) + "..."; got != want {
		t.Fatalf("Excerpt() length = %d, want hard cut at 300", len(got))
	}
}

func TestExcerptZeroLimit(t *testing.T) {
	if got := Excerpt("anything", 0); got != "" {
		t.Fatalf("Excerpt(0) = %q, want empty", got)
	}
}
