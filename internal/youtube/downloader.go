package youtube

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/chukwujekwu-code/sermon-hub/internal/config"
	"github.com/chukwujekwu-code/sermon-hub/internal/services"
)

// audioExtensions are the output extensions yt-dlp may produce when the
// requested m4a remux is not possible.
var audioExtensions = []string{".m4a", ".mp3", ".opus", ".webm", ".wav"}

// AudioResult describes a downloaded audio file.
type AudioResult struct {
	Path      string
	Format    string
	SizeBytes int64
}

// Downloader fetches sermon audio with yt-dlp.
type Downloader struct {
	binary        string
	logger        *slog.Logger
	commandRunner func(ctx context.Context, name string, args ...string) error
}

// NewDownloader builds a Downloader around the configured yt-dlp binary.
func NewDownloader(cfg config.YouTubeConfig, logger *slog.Logger) *Downloader {
	if logger == nil {
		logger = slog.Default()
	}
	binary := cfg.YtDlpBinary
	if binary == "" {
		binary = "yt-dlp"
	}
	return &Downloader{
		binary: binary,
		logger: logger.With("component", "downloader"),
	}
}

// WithCommandRunner sets a custom command runner (for testing).
func (d *Downloader) WithCommandRunner(runner func(ctx context.Context, name string, args ...string) error) {
	d.commandRunner = runner
}

// DownloadAudio downloads the best audio stream for a video into destDir as
// m4a and reports where it landed. Partial downloads resume on retry.
func (d *Downloader) DownloadAudio(ctx context.Context, videoID, destDir string) (*AudioResult, error) {
	if strings.TrimSpace(videoID) == "" {
		return nil, services.Wrap(services.ErrValidation, "youtube", "download audio", "video id is required", nil)
	}
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "youtube", "download audio",
			fmt.Sprintf("create audio dir %s", destDir), err)
	}

	args := buildDownloadArgs(videoID, destDir)
	d.logger.Debug("starting audio download", "video_id", videoID, "dest_dir", destDir)
	if err := d.run(ctx, d.binary, args...); err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, services.Wrap(services.ErrTimeout, "youtube", "download audio",
				fmt.Sprintf("download of video %s timed out", videoID), err)
		}
		return nil, services.Wrap(services.ErrExternalTool, "youtube", "download audio",
			fmt.Sprintf("yt-dlp failed for video %s", videoID), err)
	}

	path, info, err := findAudioFile(destDir, videoID)
	if err != nil {
		return nil, err
	}

	result := &AudioResult{
		Path:      path,
		Format:    strings.TrimPrefix(filepath.Ext(path), "."),
		SizeBytes: info.Size(),
	}
	d.logger.Info("downloaded audio",
		"video_id", videoID,
		"path", result.Path,
		"size_bytes", result.SizeBytes)
	return result, nil
}

// findAudioFile locates the downloaded file, preferring the requested m4a
// and falling back to whatever audio extension yt-dlp produced.
func findAudioFile(destDir, videoID string) (string, os.FileInfo, error) {
	for _, ext := range audioExtensions {
		path := filepath.Join(destDir, videoID+ext)
		if info, err := os.Stat(path); err == nil {
			return path, info, nil
		}
	}
	return "", nil, services.Wrap(services.ErrExternalTool, "youtube", "download audio",
		fmt.Sprintf("yt-dlp reported success but produced no audio file for video %s", videoID), nil)
}

func buildDownloadArgs(videoID, destDir string) []string {
	return []string{
		"--format", "bestaudio[ext=m4a]/bestaudio/best",
		"--extract-audio",
		"--audio-format", "m4a",
		"--output", filepath.Join(destDir, "%(id)s.%(ext)s"),
		"--retries", "3",
		"--fragment-retries", "3",
		"--continue",
		"--no-progress",
		"--no-warnings",
		"--quiet",
		defaultBaseURL + "/watch?v=" + videoID,
	}
}

// run executes a command, using the custom runner if set.
func (d *Downloader) run(ctx context.Context, name string, args ...string) error {
	if d.commandRunner != nil {
		return d.commandRunner(ctx, name, args...)
	}
	cmd := exec.CommandContext(ctx, name, args...)
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(output)))
	}
	return nil
}
