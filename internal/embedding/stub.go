package embedding

import (
	"context"
	"hash/fnv"
	"sync"
)

// Stub is a deterministic in-process Embedder for tests. The same text
// always yields the same unit vector, and distinct texts almost always
// yield distinct vectors.
type Stub struct {
	dim int

	mu    sync.Mutex
	calls int
	err   error
}

var _ Embedder = (*Stub)(nil)

// NewStub returns a stub embedder producing vectors of the given dimension.
func NewStub(dim int) *Stub {
	return &Stub{dim: dim}
}

// FailWith makes every subsequent EmbedTexts call return err. Passing nil
// restores normal behavior.
func (s *Stub) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

// Calls reports how many times EmbedTexts has been invoked.
func (s *Stub) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// Dimensions returns the stub's vector dimensionality.
func (s *Stub) Dimensions() int {
	return s.dim
}

// EmbedTexts hashes each text into a deterministic unit vector.
func (s *Stub) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	s.mu.Lock()
	s.calls++
	err := s.err
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vectors[i] = deterministicVector(text, s.dim)
	}
	return vectors, nil
}

// deterministicVector seeds a small linear congruential generator with the
// FNV hash of the text.
func deterministicVector(text string, dim int) []float32 {
	h := fnv.New32a()
	h.Write([]byte(text))
	seed := h.Sum32()

	vector := make([]float32, dim)
	for i := 0; i < dim; i++ {
		seed = seed*1664525 + 1013904223
		vector[i] = float32(seed%1000)/1000.0 - 0.5
	}
	return Normalize(vector)
}
