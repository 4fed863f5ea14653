package youtube_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/chukwujekwu-code/sermon-hub/internal/catalog"
	"github.com/chukwujekwu-code/sermon-hub/internal/config"
	"github.com/chukwujekwu-code/sermon-hub/internal/logging"
	"github.com/chukwujekwu-code/sermon-hub/internal/services"
	"github.com/chukwujekwu-code/sermon-hub/internal/testsupport"
	"github.com/chukwujekwu-code/sermon-hub/internal/youtube"
)

func newAdminFixture(t *testing.T) (*catalog.Store, *youtube.Client) {
	t.Helper()

	mux := http.NewServeMux()
	serveChannel := func(w http.ResponseWriter, _ *http.Request) {
		io.WriteString(w, channelPageHTML)
	}
	mux.HandleFunc("/channel/UCgrace/videos", serveChannel)
	mux.HandleFunc("/@gracechapel/videos", serveChannel)
	mux.HandleFunc("/watch", func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("v") {
		case "vid-full":
			origin := "http://" + r.Host
			fmt.Fprintf(w, watchPageTemplate, origin, origin)
		case "vid-gone":
			io.WriteString(w, unavailablePageHTML)
		default:
			io.WriteString(w, "<!DOCTYPE html><html><body>nothing here</body></html>")
		}
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	client := youtube.NewClient(config.YouTubeConfig{RequestTimeoutSeconds: 5}, logging.NewNop(), youtube.WithBaseURL(server.URL))
	return store, client
}

func TestRegisterChannelByHandle(t *testing.T) {
	store, client := newAdminFixture(t)
	ctx := context.Background()

	channel, err := youtube.RegisterChannel(ctx, store, client, "@gracechapel", logging.NewNop())
	if err != nil {
		t.Fatalf("RegisterChannel: %v", err)
	}
	if channel.ChannelID != "UCgrace" {
		t.Errorf("channel id = %q, want canonical UCgrace", channel.ChannelID)
	}
	if channel.Name != "Grace Chapel" {
		t.Errorf("channel name = %q", channel.Name)
	}

	stored, err := store.ChannelByID(ctx, "UCgrace")
	if err != nil {
		t.Fatalf("ChannelByID: %v", err)
	}
	if stored == nil || !stored.Active {
		t.Fatalf("stored channel = %+v, want active row", stored)
	}
}

func TestRegisterChannelByURL(t *testing.T) {
	store, client := newAdminFixture(t)

	channel, err := youtube.RegisterChannel(context.Background(), store, client,
		"https://www.youtube.com/channel/UCgrace/videos", logging.NewNop())
	if err != nil {
		t.Fatalf("RegisterChannel: %v", err)
	}
	if channel.ChannelID != "UCgrace" {
		t.Errorf("channel id = %q", channel.ChannelID)
	}
}

func TestRegisterChannelRejectsEmptyRef(t *testing.T) {
	store, client := newAdminFixture(t)

	_, err := youtube.RegisterChannel(context.Background(), store, client, "  ", logging.NewNop())
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("err = %v, want validation error", err)
	}
}

func TestRegisterChannelRejectsUnparseableRef(t *testing.T) {
	store, client := newAdminFixture(t)

	_, err := youtube.RegisterChannel(context.Background(), store, client, "watch/extra/segments", logging.NewNop())
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("err = %v, want validation error", err)
	}
}

func TestAddVideoFetchesMetadataAndEnqueues(t *testing.T) {
	store, client := newAdminFixture(t)
	ctx := context.Background()

	record, created, err := youtube.AddVideo(ctx, store, client, "vid-full", logging.NewNop())
	if err != nil {
		t.Fatalf("AddVideo: %v", err)
	}
	if !created {
		t.Fatal("expected a new record")
	}
	if record.Status != catalog.StatusPending {
		t.Errorf("record status = %s, want pending", record.Status)
	}

	video, err := store.VideoByID(ctx, "vid-full")
	if err != nil {
		t.Fatalf("VideoByID: %v", err)
	}
	if video == nil || video.Title != "Walking Through Grief" || video.ChannelID != "UCgrace" {
		t.Fatalf("video = %+v, want scraped metadata stored", video)
	}

	channel, err := store.ChannelByID(ctx, "UCgrace")
	if err != nil {
		t.Fatalf("ChannelByID: %v", err)
	}
	if channel == nil || channel.Name != "Grace Chapel" {
		t.Fatalf("channel = %+v, want auto-registered channel", channel)
	}
}

func TestAddVideoIsIdempotent(t *testing.T) {
	store, client := newAdminFixture(t)
	ctx := context.Background()

	first, created, err := youtube.AddVideo(ctx, store, client, "vid-full", logging.NewNop())
	if err != nil || !created {
		t.Fatalf("first AddVideo: created=%v err=%v", created, err)
	}

	if err := store.Transition(ctx, first, catalog.StatusDownloading); err != nil {
		t.Fatalf("Transition: %v", err)
	}

	again, created, err := youtube.AddVideo(ctx, store, client, "vid-full", logging.NewNop())
	if err != nil {
		t.Fatalf("second AddVideo: %v", err)
	}
	if created {
		t.Fatal("re-adding a known video must not create a record")
	}
	if again.ID != first.ID {
		t.Errorf("record id = %d, want existing %d", again.ID, first.ID)
	}
	if again.Status != catalog.StatusDownloading {
		t.Errorf("record status = %s, want in-flight state untouched", again.Status)
	}
}

func TestAddVideoUnknownVideo(t *testing.T) {
	store, client := newAdminFixture(t)

	_, _, err := youtube.AddVideo(context.Background(), store, client, "vid-gone", logging.NewNop())
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("err = %v, want not-found error", err)
	}
}

func TestAddVideoRejectsEmptyID(t *testing.T) {
	store, client := newAdminFixture(t)

	_, _, err := youtube.AddVideo(context.Background(), store, client, "", logging.NewNop())
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("err = %v, want validation error", err)
	}
}
