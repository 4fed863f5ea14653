package testsupport

import (
	"context"
	"testing"
	"time"

	"github.com/chukwujekwu-code/sermon-hub/internal/catalog"
	"github.com/chukwujekwu-code/sermon-hub/internal/config"
	"github.com/chukwujekwu-code/sermon-hub/internal/vectorstore"
)

// MustOpenVectorStore opens an in-memory embedding index sized to the
// config's embedding dimensions and registers cleanup.
func MustOpenVectorStore(t testing.TB, cfg *config.Config) *vectorstore.Store {
	t.Helper()

	store, err := vectorstore.OpenInMemory(cfg.Embeddings.Dimensions)
	if err != nil {
		t.Fatalf("vectorstore.OpenInMemory: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// MustOpenStore opens a catalog.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *catalog.Store {
	t.Helper()

	store, err := catalog.Open(cfg)
	if err != nil {
		t.Fatalf("catalog.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// SeedChannel creates a channel row for tests.
func SeedChannel(t testing.TB, store *catalog.Store, channelID, name string) *catalog.Channel {
	t.Helper()

	channel, err := store.UpsertChannel(context.Background(), channelID, name, "https://www.youtube.com/channel/"+channelID)
	if err != nil {
		t.Fatalf("store.UpsertChannel: %v", err)
	}
	return channel
}

// SeedVideo creates a video row under the channel for tests.
func SeedVideo(t testing.TB, store *catalog.Store, channelID, videoID, title string) *catalog.Video {
	t.Helper()

	video, err := store.UpsertVideo(context.Background(), &catalog.Video{
		VideoID:         videoID,
		ChannelID:       channelID,
		Title:           title,
		DurationSeconds: 1800,
		PublishedAt:     time.Date(2025, 3, 9, 10, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("store.UpsertVideo: %v", err)
	}
	return video
}

// Enqueue creates a pending ingestion record for the video, seeding the
// channel and video rows first so foreign keys hold.
func Enqueue(t testing.TB, store *catalog.Store, videoID string) *catalog.Record {
	t.Helper()

	SeedChannel(t, store, "chan-"+videoID, "Channel for "+videoID)
	SeedVideo(t, store, "chan-"+videoID, videoID, "Video "+videoID)
	record, err := store.EnqueueVideo(context.Background(), videoID)
	if err != nil {
		t.Fatalf("store.EnqueueVideo: %v", err)
	}
	return record
}
