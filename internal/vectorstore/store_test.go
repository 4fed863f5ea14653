package vectorstore_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/chukwujekwu-code/sermon-hub/internal/services"
	"github.com/chukwujekwu-code/sermon-hub/internal/vectorstore"
)

var published = time.Date(2025, 5, 4, 9, 0, 0, 0, time.UTC)

func mustStore(t *testing.T) *vectorstore.Store {
	t.Helper()
	store, err := vectorstore.OpenInMemory(3)
	if err != nil {
		t.Fatalf("OpenInMemory failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func record(videoID string, index int, vector []float32, text string) vectorstore.EmbeddingRecord {
	return vectorstore.EmbeddingRecord{
		VideoID:     videoID,
		ChunkIndex:  index,
		Vector:      vector,
		Text:        text,
		StartWord:   index * 450,
		EndWord:     index*450 + 500,
		PublishedAt: published,
	}
}

func TestUpsertAndSearch(t *testing.T) {
	store := mustStore(t)
	ctx := context.Background()

	err := store.UpsertBatch(ctx, []vectorstore.EmbeddingRecord{
		record("vid-a", 0, []float32{1, 0, 0}, "peace in the storm"),
		record("vid-a", 1, []float32{0.6, 0.8, 0}, "walking through grief"),
		record("vid-b", 0, []float32{0, 0, 1}, "stewardship of time"),
	})
	if err != nil {
		t.Fatalf("UpsertBatch failed: %v", err)
	}

	hits, err := store.Search(ctx, []float32{1, 0, 0}, 0.5, 10)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("expected 2 hits above 0.5, got %d", len(hits))
	}
	if hits[0].VideoID != "vid-a" || hits[0].ChunkIndex != 0 {
		t.Fatalf("expected vid-a/0 first, got %s/%d", hits[0].VideoID, hits[0].ChunkIndex)
	}
	if hits[0].Score < hits[1].Score {
		t.Fatalf("hits out of order: %f before %f", hits[0].Score, hits[1].Score)
	}
	if hits[0].Text != "peace in the storm" {
		t.Fatalf("unexpected text %q", hits[0].Text)
	}
	if hits[0].StartWord != 0 || hits[0].EndWord != 500 {
		t.Fatalf("unexpected word range %d..%d", hits[0].StartWord, hits[0].EndWord)
	}
	if !hits[0].PublishedAt.Equal(published) {
		t.Fatalf("unexpected published time %v", hits[0].PublishedAt)
	}
}

func TestSearchThresholdAndLimit(t *testing.T) {
	store := mustStore(t)
	ctx := context.Background()

	records := []vectorstore.EmbeddingRecord{
		record("vid-a", 0, []float32{1, 0, 0}, "exact"),
		record("vid-a", 1, []float32{0.8, 0.6, 0}, "close"),
		record("vid-a", 2, []float32{0.6, 0.8, 0}, "farther"),
		record("vid-a", 3, []float32{0, 1, 0}, "orthogonal"),
	}
	if err := store.UpsertBatch(ctx, records); err != nil {
		t.Fatalf("UpsertBatch failed: %v", err)
	}

	query := []float32{1, 0, 0}

	strict, err := store.Search(ctx, query, 0.95, 10)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(strict) != 1 {
		t.Fatalf("expected 1 hit above 0.95, got %d", len(strict))
	}

	loose, err := store.Search(ctx, query, 0.5, 10)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(loose) != 3 {
		t.Fatalf("expected 3 hits above 0.5, got %d", len(loose))
	}

	capped, err := store.Search(ctx, query, 0.5, 2)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(capped) != 2 {
		t.Fatalf("expected limit of 2 to apply, got %d", len(capped))
	}
	if capped[0].ChunkIndex != 0 || capped[1].ChunkIndex != 1 {
		t.Fatalf("limit must keep the best hits, got %d and %d", capped[0].ChunkIndex, capped[1].ChunkIndex)
	}
}

func TestSearchEmptyStore(t *testing.T) {
	store := mustStore(t)

	hits, err := store.Search(context.Background(), []float32{1, 0, 0}, 0.1, 10)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(hits) != 0 {
		t.Fatalf("expected no hits, got %d", len(hits))
	}
}

func TestSearchRejectsWrongDimensions(t *testing.T) {
	store := mustStore(t)

	_, err := store.Search(context.Background(), []float32{1, 0}, 0.1, 10)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestUpsertRejectsWrongDimensions(t *testing.T) {
	store := mustStore(t)

	err := store.UpsertBatch(context.Background(), []vectorstore.EmbeddingRecord{
		record("vid-a", 0, []float32{1, 0, 0, 0}, "too wide"),
	})
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestUpsertOverwritesExisting(t *testing.T) {
	store := mustStore(t)
	ctx := context.Background()

	first := record("vid-a", 0, []float32{1, 0, 0}, "first pass")
	if err := store.UpsertBatch(ctx, []vectorstore.EmbeddingRecord{first}); err != nil {
		t.Fatalf("UpsertBatch failed: %v", err)
	}
	second := record("vid-a", 0, []float32{1, 0, 0}, "second pass")
	if err := store.UpsertBatch(ctx, []vectorstore.EmbeddingRecord{second}); err != nil {
		t.Fatalf("UpsertBatch failed: %v", err)
	}

	total, err := store.Len(ctx)
	if err != nil {
		t.Fatalf("Len failed: %v", err)
	}
	if total != 1 {
		t.Fatalf("expected 1 stored chunk after overwrite, got %d", total)
	}

	hits, err := store.Search(ctx, []float32{1, 0, 0}, 0.9, 1)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(hits) != 1 || hits[0].Text != "second pass" {
		t.Fatalf("expected overwritten text, got %#v", hits)
	}
}

func TestDeleteVideoRemovesAllChunks(t *testing.T) {
	store := mustStore(t)
	ctx := context.Background()

	err := store.UpsertBatch(ctx, []vectorstore.EmbeddingRecord{
		record("vid-a", 0, []float32{1, 0, 0}, "a0"),
		record("vid-a", 1, []float32{0, 1, 0}, "a1"),
		record("vid-b", 0, []float32{0, 0, 1}, "b0"),
	})
	if err != nil {
		t.Fatalf("UpsertBatch failed: %v", err)
	}

	deleted, err := store.DeleteVideo(ctx, "vid-a")
	if err != nil {
		t.Fatalf("DeleteVideo failed: %v", err)
	}
	if deleted != 2 {
		t.Fatalf("expected 2 deleted chunks, got %d", deleted)
	}

	count, err := store.CountVideo(ctx, "vid-a")
	if err != nil {
		t.Fatalf("CountVideo failed: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected vid-a emptied, got %d chunks", count)
	}
	total, err := store.Len(ctx)
	if err != nil {
		t.Fatalf("Len failed: %v", err)
	}
	if total != 1 {
		t.Fatalf("expected the other video untouched, got %d chunks", total)
	}
}

func TestDeleteFromPrunesTail(t *testing.T) {
	store := mustStore(t)
	ctx := context.Background()

	var records []vectorstore.EmbeddingRecord
	for i := 0; i < 5; i++ {
		records = append(records, record("vid-a", i, []float32{1, 0, 0}, "chunk"))
	}
	if err := store.UpsertBatch(ctx, records); err != nil {
		t.Fatalf("UpsertBatch failed: %v", err)
	}

	deleted, err := store.DeleteFrom(ctx, "vid-a", 3)
	if err != nil {
		t.Fatalf("DeleteFrom failed: %v", err)
	}
	if deleted != 2 {
		t.Fatalf("expected 2 stale chunks deleted, got %d", deleted)
	}

	count, err := store.CountVideo(ctx, "vid-a")
	if err != nil {
		t.Fatalf("CountVideo failed: %v", err)
	}
	if count != 3 {
		t.Fatalf("expected 3 chunks remaining, got %d", count)
	}

	hits, err := store.Search(ctx, []float32{1, 0, 0}, 0.9, 10)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	for _, hit := range hits {
		if hit.ChunkIndex >= 3 {
			t.Fatalf("chunk %d should have been pruned", hit.ChunkIndex)
		}
	}
}

func TestOpenRejectsDimensionChange(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "vectors")

	store, err := vectorstore.Open(dir, 3, nil)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	err = store.UpsertBatch(context.Background(), []vectorstore.EmbeddingRecord{
		record("vid-a", 0, []float32{1, 0, 0}, "seed"),
	})
	if err != nil {
		t.Fatalf("UpsertBatch failed: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	if _, err := vectorstore.Open(dir, 4, nil); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error on dimension change, got %v", err)
	}

	reopened, err := vectorstore.Open(dir, 3, nil)
	if err != nil {
		t.Fatalf("reopen with matching dimensions failed: %v", err)
	}
	defer reopened.Close()

	count, err := reopened.CountVideo(context.Background(), "vid-a")
	if err != nil {
		t.Fatalf("CountVideo failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected persisted chunk after reopen, got %d", count)
	}
}

func TestCheckHealthAfterClose(t *testing.T) {
	store, err := vectorstore.OpenInMemory(3)
	if err != nil {
		t.Fatalf("OpenInMemory failed: %v", err)
	}

	if err := store.CheckHealth(context.Background()); err != nil {
		t.Fatalf("CheckHealth on open store failed: %v", err)
	}

	if err := store.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := store.CheckHealth(context.Background()); !services.IsUnavailable(err) {
		t.Fatalf("expected unavailable after close, got %v", err)
	}
}
