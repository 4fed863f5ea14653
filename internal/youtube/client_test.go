package youtube_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/chukwujekwu-code/sermon-hub/internal/config"
	"github.com/chukwujekwu-code/sermon-hub/internal/logging"
	"github.com/chukwujekwu-code/sermon-hub/internal/services"
	"github.com/chukwujekwu-code/sermon-hub/internal/youtube"
)

const channelPageHTML = `<!DOCTYPE html><html><head>
<meta property="og:title" content="Grace Chapel">
</head><body>
<script>var ytInitialData = {
  "metadata": {"channelMetadataRenderer": {
    "externalId": "UCgrace",
    "title": "Grace Chapel",
    "channelUrl": "https://www.youtube.com/channel/UCgrace"
  }},
  "contents": {"twoColumnBrowseResultsRenderer": {"tabs": [
    {"tabRenderer": {"title": "Home"}},
    {"tabRenderer": {"content": {"richGridRenderer": {"contents": [
      {"richItemRenderer": {"content": {"videoRenderer": {
        "videoId": "vid-full",
        "title": {"runs": [{"text": "Walking Through Grief"}]},
        "lengthText": {"simpleText": "45:12"},
        "viewCountText": {"simpleText": "12,345 views"},
        "publishedTimeText": {"simpleText": "2 weeks ago"},
        "thumbnail": {"thumbnails": [
          {"url": "https://i.ytimg.com/vi/vid-full/hqdefault.jpg"},
          {"url": "https://i.ytimg.com/vi/vid-full/maxresdefault.jpg"}
        ]}
      }}}},
      {"richItemRenderer": {"content": {"videoRenderer": {
        "videoId": "vid-short",
        "title": {"simpleText": "Midweek Clip"},
        "lengthText": {"simpleText": "4:30"},
        "viewCountText": {"simpleText": "890 views"},
        "publishedTimeText": {"simpleText": "3 days ago"}
      }}}},
      {"richItemRenderer": {"content": {"continuationItemRenderer": {}}}}
    ]}}}}
  ]}}
};</script>
</body></html>`

// watchPageTemplate needs the test server origin twice, once per caption
// track base URL.
const watchPageTemplate = `<!DOCTYPE html><html><head></head><body>
<script>var ytInitialPlayerResponse = {
  "videoDetails": {
    "videoId": "vid-full",
    "channelId": "UCgrace",
    "author": "Grace Chapel",
    "title": "Walking Through Grief",
    "shortDescription": "A sermon about loss.",
    "lengthSeconds": "2712",
    "viewCount": "12345",
    "thumbnail": {"thumbnails": [
      {"url": "https://i.ytimg.com/vi/vid-full/hqdefault.jpg"},
      {"url": "https://i.ytimg.com/vi/vid-full/maxresdefault.jpg"}
    ]}
  },
  "microformat": {"playerMicroformatRenderer": {
    "publishDate": "2025-03-09",
    "uploadDate": "2025-03-08"
  }},
  "captions": {"playerCaptionsTracklistRenderer": {"captionTracks": [
    {
      "baseUrl": "%s/api/timedtext?v=vid-full&lang=en&kind=asr",
      "languageCode": "en",
      "kind": "asr",
      "name": {"simpleText": "English (auto-generated)"}
    },
    {
      "baseUrl": "%s/api/timedtext?v=vid-full&lang=en",
      "languageCode": "en",
      "name": {"simpleText": "English"}
    }
  ]}}
};</script>
</body></html>`

const unavailablePageHTML = `<!DOCTYPE html><html><body>
<script>var ytInitialPlayerResponse = {"playabilityStatus": {"status": "ERROR"}};</script>
</body></html>`

const captionJSON3 = `{"events": [
  {"tStartMs": 0, "dDurationMs": 4000, "segs": [{"utf8": "Grief "}, {"utf8": "is "}, {"utf8": "not "}, {"utf8": "the "}, {"utf8": "end."}]},
  {"tStartMs": 4000, "segs": [{"utf8": "\n"}]},
  {"tStartMs": 5000, "segs": [{"utf8": "God "}, {"utf8": "stays "}, {"utf8": "close."}]}
]}`

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/channel/UCgrace/videos", func(w http.ResponseWriter, _ *http.Request) {
		io.WriteString(w, channelPageHTML)
	})
	mux.HandleFunc("/channel/UCboom/videos", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
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
	mux.HandleFunc("/api/timedtext", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("fmt") != "json3" {
			http.Error(w, "expected fmt=json3", http.StatusBadRequest)
			return
		}
		io.WriteString(w, captionJSON3)
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func newTestClient(t *testing.T) *youtube.Client {
	t.Helper()
	server := newTestServer(t)
	cfg := config.YouTubeConfig{RequestTimeoutSeconds: 5}
	return youtube.NewClient(cfg, logging.NewNop(), youtube.WithBaseURL(server.URL))
}

func TestChannelVideos(t *testing.T) {
	client := newTestClient(t)

	page, err := client.ChannelVideos(context.Background(), "UCgrace")
	if err != nil {
		t.Fatalf("ChannelVideos: %v", err)
	}

	if page.ChannelID != "UCgrace" || page.Title != "Grace Chapel" {
		t.Errorf("channel = %s/%q", page.ChannelID, page.Title)
	}
	if page.URL != "https://www.youtube.com/channel/UCgrace" {
		t.Errorf("channel url = %q", page.URL)
	}
	if len(page.Videos) != 2 {
		t.Fatalf("got %d videos, want 2", len(page.Videos))
	}

	full := page.Videos[0]
	if full.ID != "vid-full" || full.Title != "Walking Through Grief" {
		t.Errorf("first video = %s/%q", full.ID, full.Title)
	}
	if full.DurationSeconds != 2712 {
		t.Errorf("duration = %d, want 2712", full.DurationSeconds)
	}
	if full.ViewCount != 12345 {
		t.Errorf("views = %d, want 12345", full.ViewCount)
	}
	if full.ThumbnailURL != "https://i.ytimg.com/vi/vid-full/maxresdefault.jpg" {
		t.Errorf("thumbnail = %q, want the largest", full.ThumbnailURL)
	}
	age := time.Since(full.Published)
	if age < 13*24*time.Hour || age > 15*24*time.Hour {
		t.Errorf("published %v ago, want roughly two weeks", age)
	}

	clip := page.Videos[1]
	if clip.ID != "vid-short" || clip.Title != "Midweek Clip" || clip.DurationSeconds != 270 {
		t.Errorf("second video = %s/%q/%d", clip.ID, clip.Title, clip.DurationSeconds)
	}
}

func TestVideoDetails(t *testing.T) {
	client := newTestClient(t)

	details, err := client.VideoDetails(context.Background(), "vid-full")
	if err != nil {
		t.Fatalf("VideoDetails: %v", err)
	}

	if details.ID != "vid-full" || details.ChannelID != "UCgrace" || details.ChannelName != "Grace Chapel" {
		t.Errorf("identity = %s/%s/%q", details.ID, details.ChannelID, details.ChannelName)
	}
	if details.Title != "Walking Through Grief" || details.Description != "A sermon about loss." {
		t.Errorf("title/description = %q/%q", details.Title, details.Description)
	}
	if details.DurationSeconds != 2712 || details.ViewCount != 12345 {
		t.Errorf("duration/views = %d/%d", details.DurationSeconds, details.ViewCount)
	}
	if !details.Published.Equal(time.Date(2025, 3, 9, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("published = %v", details.Published)
	}
	if details.ThumbnailURL != "https://i.ytimg.com/vi/vid-full/maxresdefault.jpg" {
		t.Errorf("thumbnail = %q", details.ThumbnailURL)
	}

	if len(details.CaptionTracks) != 2 {
		t.Fatalf("got %d caption tracks, want 2", len(details.CaptionTracks))
	}
	if !details.CaptionTracks[0].AutoGenerated || details.CaptionTracks[1].AutoGenerated {
		t.Errorf("caption kinds = %v/%v, want auto then manual",
			details.CaptionTracks[0].AutoGenerated, details.CaptionTracks[1].AutoGenerated)
	}

	picked := youtube.PickCaptionTrack(details.CaptionTracks, "en")
	if picked == nil || picked.AutoGenerated {
		t.Errorf("picked %+v, want the manual track", picked)
	}
}

func TestVideoDetailsUnavailableVideo(t *testing.T) {
	client := newTestClient(t)

	_, err := client.VideoDetails(context.Background(), "vid-gone")
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("got %v, want not-found error", err)
	}
}

func TestVideoDetailsMissingPayload(t *testing.T) {
	client := newTestClient(t)

	_, err := client.VideoDetails(context.Background(), "vid-plain")
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("got %v, want transient error for a page without player data", err)
	}
}

func TestChannelVideosHTTPStatusClassification(t *testing.T) {
	client := newTestClient(t)

	_, err := client.ChannelVideos(context.Background(), "UCmissing")
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("404 page: got %v, want not-found error", err)
	}

	_, err = client.ChannelVideos(context.Background(), "UCboom")
	if !errors.Is(err, services.ErrUnavailable) {
		t.Fatalf("500 page: got %v, want unavailable error", err)
	}
}

func TestDownloadCaptions(t *testing.T) {
	server := newTestServer(t)
	cfg := config.YouTubeConfig{RequestTimeoutSeconds: 5}
	client := youtube.NewClient(cfg, logging.NewNop(), youtube.WithBaseURL(server.URL))

	track := youtube.CaptionTrack{
		URL:          server.URL + "/api/timedtext?v=vid-full&lang=en",
		LanguageCode: "en",
	}
	text, err := client.DownloadCaptions(context.Background(), track)
	if err != nil {
		t.Fatalf("DownloadCaptions: %v", err)
	}
	if text != "Grief is not the end. God stays close." {
		t.Errorf("caption text = %q", text)
	}
}

func TestDownloadCaptionsBadURL(t *testing.T) {
	client := newTestClient(t)

	_, err := client.DownloadCaptions(context.Background(), youtube.CaptionTrack{URL: "://not-a-url"})
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("got %v, want validation error", err)
	}
}
