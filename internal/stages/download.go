package stages

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"github.com/chukwujekwu-code/sermon-hub/internal/catalog"
	"github.com/chukwujekwu-code/sermon-hub/internal/config"
	"github.com/chukwujekwu-code/sermon-hub/internal/logging"
	"github.com/chukwujekwu-code/sermon-hub/internal/services"
	"github.com/chukwujekwu-code/sermon-hub/internal/stage"
	"github.com/chukwujekwu-code/sermon-hub/internal/youtube"
)

// MediaSource provides watch-page metadata and caption text.
type MediaSource interface {
	VideoDetails(ctx context.Context, videoID string) (*youtube.VideoDetails, error)
	DownloadCaptions(ctx context.Context, track youtube.CaptionTrack) (string, error)
}

// AudioFetcher downloads the audio stream of a video.
type AudioFetcher interface {
	DownloadAudio(ctx context.Context, videoID, destDir string) (*youtube.AudioResult, error)
}

// Download acquires sermon media. It refreshes the catalog entry from the
// watch page, prefers caption tracks over audio, and falls back to a yt-dlp
// audio download for whisper. Caption text rides on the record so the
// transcribe stage can skip whisper entirely.
type Download struct {
	cfg     *config.Config
	cat     *catalog.Store
	source  MediaSource
	fetcher AudioFetcher
	logger  *slog.Logger
}

// NewDownload constructs the download handler using default dependencies.
func NewDownload(cfg *config.Config, cat *catalog.Store, logger *slog.Logger) *Download {
	client := youtube.NewClient(cfg.YouTube, logger)
	downloader := youtube.NewDownloader(cfg.YouTube, logger)
	return NewDownloadWithDependencies(cfg, cat, logger, client, downloader)
}

// NewDownloadWithDependencies allows injecting all collaborators (used in tests).
func NewDownloadWithDependencies(cfg *config.Config, cat *catalog.Store, logger *slog.Logger, source MediaSource, fetcher AudioFetcher) *Download {
	if logger == nil {
		logger = slog.Default()
	}
	return &Download{
		cfg:     cfg,
		cat:     cat,
		source:  source,
		fetcher: fetcher,
		logger:  logger.With(logging.FieldComponent, "download-stage"),
	}
}

func (d *Download) Prepare(ctx context.Context, record *catalog.Record) error {
	logger := logging.WithContext(ctx, d.logger)
	record.ErrorMessage = ""
	record.FailedStage = ""
	logger.Info("starting media acquisition")
	return nil
}

func (d *Download) Execute(ctx context.Context, record *catalog.Record) error {
	logger := logging.WithContext(ctx, d.logger)

	// Politeness delay keeps channel-wide ingests from hammering YouTube.
	if err := d.wait(ctx); err != nil {
		return err
	}

	details, err := d.source.VideoDetails(ctx, record.VideoID)
	if err != nil {
		return err
	}
	if err := d.refreshCatalog(ctx, details); err != nil {
		return err
	}

	if text, track, ok := d.tryCaptions(ctx, logger, details); ok {
		record.TranscriptText = text
		record.TranscriptSource = catalog.TranscriptSourceCaptions
		logger.Info("captions acquired, audio download skipped",
			"language", track.LanguageCode,
			"auto_generated", track.AutoGenerated,
			"chars", len(text))
		return nil
	}

	audio, err := d.fetcher.DownloadAudio(ctx, record.VideoID, d.cfg.Paths.AudioDir)
	if err != nil {
		return err
	}
	record.AudioPath = audio.Path
	record.AudioFormat = audio.Format
	record.AudioSizeBytes = audio.SizeBytes
	logger.Info("audio acquired", "path", audio.Path, "size_bytes", audio.SizeBytes)
	return nil
}

// HealthCheck verifies download stage dependencies.
func (d *Download) HealthCheck(ctx context.Context) stage.Health {
	const name = "download"
	if d.cfg == nil {
		return stage.Unhealthy(name, "configuration unavailable")
	}
	if strings.TrimSpace(d.cfg.Paths.AudioDir) == "" {
		return stage.Unhealthy(name, "audio directory not configured")
	}
	if d.source == nil || d.fetcher == nil {
		return stage.Unhealthy(name, "youtube client unavailable")
	}
	binary := strings.TrimSpace(d.cfg.YouTube.YtDlpBinary)
	if binary == "" {
		binary = "yt-dlp"
	}
	if _, err := exec.LookPath(binary); err != nil {
		return stage.Unhealthy(name, fmt.Sprintf("yt-dlp binary %q not found", binary))
	}
	return stage.Healthy(name)
}

// refreshCatalog replaces the approximate metadata captured during channel
// sync with exact watch-page values, and guarantees the channel row exists
// for videos enqueued by hand.
func (d *Download) refreshCatalog(ctx context.Context, details *youtube.VideoDetails) error {
	channelName := details.ChannelName
	if strings.TrimSpace(channelName) == "" {
		channelName = details.ChannelID
	}
	channelURL := youtube.ChannelURL(details.ChannelID)
	if _, err := d.cat.UpsertChannel(ctx, details.ChannelID, channelName, channelURL); err != nil {
		return services.Wrap(services.ErrTransient, "download", "upsert channel",
			fmt.Sprintf("persist channel %s", details.ChannelID), err)
	}

	published := details.Published
	if published.IsZero() {
		// Keep the sync-time approximation rather than erasing it.
		if existing, err := d.cat.VideoByID(ctx, details.ID); err == nil && existing != nil {
			published = existing.PublishedAt
		}
	}
	video := &catalog.Video{
		VideoID:         details.ID,
		ChannelID:       details.ChannelID,
		Title:           details.Title,
		Description:     details.Description,
		DurationSeconds: details.DurationSeconds,
		PublishedAt:     published,
		ThumbnailURL:    details.ThumbnailURL,
		ViewCount:       details.ViewCount,
	}
	if _, err := d.cat.UpsertVideo(ctx, video); err != nil {
		return services.Wrap(services.ErrTransient, "download", "refresh video metadata",
			fmt.Sprintf("persist video %s", details.ID), err)
	}
	return nil
}

// tryCaptions downloads the preferred caption track when one exists.
// Failures fall back to the audio path rather than failing the stage.
func (d *Download) tryCaptions(ctx context.Context, logger *slog.Logger, details *youtube.VideoDetails) (string, *youtube.CaptionTrack, bool) {
	track := youtube.PickCaptionTrack(details.CaptionTracks, d.cfg.Whisper.Language)
	if track == nil {
		return "", nil, false
	}
	text, err := d.source.DownloadCaptions(ctx, *track)
	if err != nil {
		logger.Warn("caption download failed, falling back to audio", logging.Error(err))
		return "", nil, false
	}
	if strings.TrimSpace(text) == "" {
		logger.Debug("caption track carries no speech, falling back to audio",
			"language", track.LanguageCode)
		return "", nil, false
	}
	return text, track, true
}

func (d *Download) wait(ctx context.Context) error {
	delay := time.Duration(d.cfg.YouTube.DownloadDelaySeconds) * time.Second
	if delay <= 0 {
		return nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
