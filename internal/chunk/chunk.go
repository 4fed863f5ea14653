// Package chunk splits cleaned transcripts into overlapping word windows
// for embedding. Overlap keeps thoughts that straddle a window boundary
// retrievable from either side.
package chunk

import (
	"fmt"
	"strings"
)

// Chunk is one embeddable slice of a transcript.
type Chunk struct {
	// Index is the zero-based position of the chunk within its transcript.
	Index int
	// StartWord is the offset, in words, of the chunk's first word.
	StartWord int
	// EndWord is the exclusive word offset where the chunk stops.
	EndWord int
	// Text is the chunk content with single-space word separation.
	Text string
}

// WordCount reports the number of words in the chunk.
func (c Chunk) WordCount() int { return c.EndWord - c.StartWord }

// Splitter produces fixed-geometry overlapping chunks.
type Splitter struct {
	window  int
	overlap int
}

// NewSplitter validates the chunk geometry. The overlap must leave room for
// the window to advance.
func NewSplitter(window, overlap int) (*Splitter, error) {
	if window <= 0 {
		return nil, fmt.Errorf("chunk window must be positive, got %d", window)
	}
	if overlap < 0 {
		return nil, fmt.Errorf("chunk overlap must not be negative, got %d", overlap)
	}
	if overlap >= window {
		return nil, fmt.Errorf("chunk overlap %d must be smaller than window %d", overlap, window)
	}
	return &Splitter{window: window, overlap: overlap}, nil
}

// Split tokenizes text on whitespace and emits windows of up to
// s.window words, each starting s.window-s.overlap words after the previous
// one. A transcript that fits in one window comes back as a single chunk,
// and a trailing fragment shorter than the overlap is absorbed into the
// final window rather than emitted on its own. Empty or whitespace-only
// input yields no chunks.
func (s *Splitter) Split(text string) []Chunk {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	if len(words) <= s.window {
		return []Chunk{{
			Index:     0,
			StartWord: 0,
			EndWord:   len(words),
			Text:      strings.Join(words, " "),
		}}
	}

	step := s.window - s.overlap
	chunks := make([]Chunk, 0, (len(words)+step-1)/step)
	for start := 0; start < len(words)-s.overlap; start += step {
		end := min(start+s.window, len(words))
		chunks = append(chunks, Chunk{
			Index:     len(chunks),
			StartWord: start,
			EndWord:   end,
			Text:      strings.Join(words[start:end], " "),
		})
	}
	return chunks
}

// Window reports the configured window size in words.
func (s *Splitter) Window() int { return s.window }

// Overlap reports the configured overlap in words.
func (s *Splitter) Overlap() int { return s.overlap }
