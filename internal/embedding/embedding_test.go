package embedding_test

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/chukwujekwu-code/sermon-hub/internal/embedding"
)

func magnitude(v []float32) float64 {
	var sum float64
	for _, val := range v {
		sum += float64(val) * float64(val)
	}
	return math.Sqrt(sum)
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input []float32
	}{
		{"already unit", []float32{1, 0, 0}},
		{"needs scaling", []float32{3, 4, 0}},
		{"negative components", []float32{-2, 2, -2}},
		{"tiny components", []float32{0.001, 0.002, 0.003}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := embedding.Normalize(tt.input)
			if len(got) != len(tt.input) {
				t.Fatalf("length changed: %d != %d", len(got), len(tt.input))
			}
			if m := magnitude(got); math.Abs(m-1) > 1e-5 {
				t.Fatalf("magnitude = %f, want 1", m)
			}
		})
	}
}

func TestNormalizeZeroVector(t *testing.T) {
	got := embedding.Normalize([]float32{0, 0, 0})
	for i, val := range got {
		if val != 0 {
			t.Fatalf("component %d = %f, want 0", i, val)
		}
	}
	if got := embedding.Normalize(nil); len(got) != 0 {
		t.Fatalf("expected empty result for empty input, got %v", got)
	}
}

func TestStubDeterministic(t *testing.T) {
	stub := embedding.NewStub(32)
	ctx := context.Background()

	first, err := stub.EmbedTexts(ctx, []string{"peace in the storm", "carrying grief"})
	if err != nil {
		t.Fatalf("EmbedTexts failed: %v", err)
	}
	second, err := stub.EmbedTexts(ctx, []string{"peace in the storm", "carrying grief"})
	if err != nil {
		t.Fatalf("EmbedTexts failed: %v", err)
	}

	if len(first) != 2 || len(second) != 2 {
		t.Fatalf("expected 2 vectors per call, got %d and %d", len(first), len(second))
	}
	for i := range first {
		if len(first[i]) != 32 {
			t.Fatalf("vector %d has %d dimensions, want 32", i, len(first[i]))
		}
		if m := magnitude(first[i]); math.Abs(m-1) > 1e-5 {
			t.Fatalf("vector %d magnitude = %f, want 1", i, m)
		}
		for j := range first[i] {
			if first[i][j] != second[i][j] {
				t.Fatalf("vector %d differs between calls at component %d", i, j)
			}
		}
	}

	same := true
	for j := range first[0] {
		if first[0][j] != first[1][j] {
			same = false
			break
		}
	}
	if same {
		t.Fatal("distinct texts produced identical vectors")
	}

	if stub.Dimensions() != 32 {
		t.Fatalf("Dimensions() = %d, want 32", stub.Dimensions())
	}
	if stub.Calls() != 2 {
		t.Fatalf("Calls() = %d, want 2", stub.Calls())
	}
}

func TestStubFailWith(t *testing.T) {
	stub := embedding.NewStub(8)
	boom := errors.New("endpoint exploded")

	stub.FailWith(boom)
	if _, err := stub.EmbedTexts(context.Background(), []string{"text"}); !errors.Is(err, boom) {
		t.Fatalf("expected injected error, got %v", err)
	}

	stub.FailWith(nil)
	vectors, err := stub.EmbedTexts(context.Background(), []string{"text"})
	if err != nil {
		t.Fatalf("EmbedTexts failed after clearing error: %v", err)
	}
	if len(vectors) != 1 {
		t.Fatalf("expected 1 vector, got %d", len(vectors))
	}
}
