package stages_test

import (
	"context"
	"errors"
	"testing"

	"github.com/chukwujekwu-code/sermon-hub/internal/catalog"
	"github.com/chukwujekwu-code/sermon-hub/internal/logging"
	"github.com/chukwujekwu-code/sermon-hub/internal/services"
	"github.com/chukwujekwu-code/sermon-hub/internal/stages"
	"github.com/chukwujekwu-code/sermon-hub/internal/testsupport"
)

type fakeIndexer struct {
	chunks   int
	err      error
	calls    int
	gotVideo *catalog.Video
	gotText  string
}

func (f *fakeIndexer) Index(ctx context.Context, video *catalog.Video, transcript string) (int, error) {
	f.calls++
	f.gotVideo = video
	f.gotText = transcript
	if f.err != nil {
		return 0, f.err
	}
	return f.chunks, nil
}

func TestEmbedIndexesTranscript(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	indexer := &fakeIndexer{chunks: 7}
	handler := stages.NewEmbed(cfg, store, indexer, logging.NewNop())

	record := testsupport.Enqueue(t, store, "vid-embed")
	record.Status = catalog.StatusEmbedding
	record.TranscriptText = "grace upon grace upon grace"

	if err := handler.Execute(context.Background(), record); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if indexer.calls != 1 {
		t.Fatalf("indexer called %d times, want 1", indexer.calls)
	}
	if indexer.gotVideo == nil || indexer.gotVideo.VideoID != "vid-embed" {
		t.Fatalf("indexer video = %+v", indexer.gotVideo)
	}
	if indexer.gotText != "grace upon grace upon grace" {
		t.Fatalf("indexer text = %q", indexer.gotText)
	}
}

func TestEmbedRequiresTranscript(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	indexer := &fakeIndexer{}
	handler := stages.NewEmbed(cfg, store, indexer, logging.NewNop())

	record := &catalog.Record{VideoID: "vid-bare", Status: catalog.StatusEmbedding}
	err := handler.Execute(context.Background(), record)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("error = %v, want ErrValidation", err)
	}
	if indexer.calls != 0 {
		t.Fatalf("indexer called %d times, want 0", indexer.calls)
	}
}

func TestEmbedMissingCatalogVideo(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	handler := stages.NewEmbed(cfg, store, &fakeIndexer{}, logging.NewNop())

	record := &catalog.Record{
		VideoID:        "vid-ghost",
		Status:         catalog.StatusEmbedding,
		TranscriptText: "some transcript",
	}
	err := handler.Execute(context.Background(), record)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("error = %v, want ErrValidation", err)
	}
}

func TestEmbedPropagatesIndexerError(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	indexer := &fakeIndexer{
		err: services.Wrap(services.ErrUnavailable, "embedding", "embed texts", "endpoint down", nil),
	}
	handler := stages.NewEmbed(cfg, store, indexer, logging.NewNop())

	record := testsupport.Enqueue(t, store, "vid-down")
	record.Status = catalog.StatusEmbedding
	record.TranscriptText = "some transcript"

	if err := handler.Execute(context.Background(), record); !errors.Is(err, services.ErrUnavailable) {
		t.Fatalf("error = %v, want ErrUnavailable", err)
	}
}

func TestEmbedHealthCheck(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	handler := stages.NewEmbed(cfg, store, &fakeIndexer{}, logging.NewNop())

	if health := handler.HealthCheck(context.Background()); !health.Ready {
		t.Fatalf("expected healthy, got %+v", health)
	}

	cfg.Embeddings.BaseURL = ""
	if health := handler.HealthCheck(context.Background()); health.Ready {
		t.Fatal("expected unhealthy without embeddings endpoint")
	}
}
