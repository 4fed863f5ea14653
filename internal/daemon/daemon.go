package daemon

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"log/slog"

	"github.com/gofrs/flock"

	"github.com/chukwujekwu-code/sermon-hub/internal/api"
	"github.com/chukwujekwu-code/sermon-hub/internal/catalog"
	"github.com/chukwujekwu-code/sermon-hub/internal/config"
	"github.com/chukwujekwu-code/sermon-hub/internal/logging"
	"github.com/chukwujekwu-code/sermon-hub/internal/preflight"
	"github.com/chukwujekwu-code/sermon-hub/internal/search"
	"github.com/chukwujekwu-code/sermon-hub/internal/vectorstore"
	"github.com/chukwujekwu-code/sermon-hub/internal/workflow"
	"github.com/chukwujekwu-code/sermon-hub/internal/youtube"
)

const (
	lockFileName = "sermonhubd.lock"
	pidFileName  = "sermonhubd.pid"
)

// Deps bundles the services the daemon coordinates. Store and Workflow are
// required; the rest degrade into explicit errors on the operations that
// need them.
type Deps struct {
	Store    *catalog.Store
	Vectors  *vectorstore.Store
	Workflow *workflow.Manager
	Search   *search.Engine
	YouTube  *youtube.Client
}

// Daemon coordinates the background ingestion services and enforces
// single-instance execution.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *catalog.Store
	vectors  *vectorstore.Store
	workflow *workflow.Manager
	search   *search.Engine
	youtube  *youtube.Client

	logPath  string
	lockPath string
	pidPath  string
	lock     *flock.Flock

	api      *apiServer
	findings []preflight.Result

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running       bool
	PID           int
	Workflow      workflow.StatusSummary
	DatabasePath  string
	VectorDirPath string
	LockFilePath  string
	LogFilePath   string
	Preflight     []preflight.Result
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, deps Deps, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || deps.Store == nil || logger == nil || deps.Workflow == nil {
		return nil, errors.New("daemon requires config, store, logger, and workflow manager")
	}

	lockPath := filepath.Join(cfg.Paths.LogDir, lockFileName)
	return &Daemon{
		cfg:      cfg,
		logger:   logger,
		store:    deps.Store,
		vectors:  deps.Vectors,
		workflow: deps.Workflow,
		search:   deps.Search,
		youtube:  deps.YouTube,
		logPath:  filepath.Join(cfg.Paths.LogDir, logging.LogFileName),
		lockPath: lockPath,
		pidPath:  PIDFilePath(cfg),
		lock:     flock.New(lockPath),
	}, nil
}

// PIDFilePath returns where the daemon records its process id for the
// given configuration.
func PIDFilePath(cfg *config.Config) string {
	return filepath.Join(cfg.Paths.LogDir, pidFileName)
}

// Start runs preflight checks, acquires the single-instance lock, and
// launches the workflow manager and the HTTP API.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	if err := d.cfg.EnsureDirectories(); err != nil {
		return fmt.Errorf("ensure directories: %w", err)
	}

	findings := preflight.RunAll(ctx, d.cfg)
	var fatal []string
	for _, check := range findings {
		switch {
		case check.Passed:
			d.logger.Debug("preflight check passed",
				logging.String("check", check.Name), logging.String("detail", check.Detail))
		case check.Optional:
			d.logger.Warn("preflight check failed; continuing",
				logging.String("check", check.Name), logging.String("detail", check.Detail))
		default:
			d.logger.Error("preflight check failed",
				logging.String("check", check.Name), logging.String("detail", check.Detail))
			fatal = append(fatal, check.Name)
		}
	}
	if len(fatal) > 0 {
		return fmt.Errorf("preflight failed: %s", strings.Join(fatal, ", "))
	}
	d.findings = findings

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another sermon-hub daemon instance is already running")
	}

	if err := d.writePIDFile(); err != nil {
		_ = d.lock.Unlock()
		return err
	}

	d.ctx, d.cancel = context.WithCancel(ctx)
	if err := d.workflow.Start(d.ctx); err != nil {
		d.cancel()
		d.ctx = nil
		d.cancel = nil
		d.removePIDFile()
		_ = d.lock.Unlock()
		return fmt.Errorf("start workflow: %w", err)
	}

	d.api = newAPIServer(d.cfg, d, d.logger)
	if err := d.api.start(d.ctx); err != nil {
		d.workflow.Stop()
		d.cancel()
		d.ctx = nil
		d.cancel = nil
		d.api = nil
		d.removePIDFile()
		_ = d.lock.Unlock()
		return err
	}

	d.running.Store(true)
	d.logger.Info("sermon-hub daemon started", logging.String("lock", d.lockPath))
	return nil
}

// Stop stops background processing and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	d.api.stop()
	d.api = nil
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.workflow.Stop()
	d.removePIDFile()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.ctx = nil
	d.running.Store(false)
	d.logger.Info("sermon-hub daemon stopped")
}

// Close stops the daemon and releases its storage handles.
func (d *Daemon) Close() error {
	d.Stop()
	var errs []error
	if d.vectors != nil {
		if err := d.vectors.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close vector store: %w", err))
		}
	}
	if d.store != nil {
		if err := d.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close catalog: %w", err))
		}
	}
	return errors.Join(errs...)
}

// APIAddr reports the bound API listener address, or empty when the
// listener is not running. With a ":0" bind this is how callers learn the
// actual port.
func (d *Daemon) APIAddr() string {
	return d.api.addr()
}

// Status returns the current daemon status. Preflight carries the findings
// recorded at startup.
func (d *Daemon) Status(ctx context.Context) Status {
	summary := d.workflow.Status(ctx)
	return Status{
		Running:       d.running.Load(),
		PID:           os.Getpid(),
		Workflow:      summary,
		DatabasePath:  d.cfg.DatabasePath(),
		VectorDirPath: d.cfg.Paths.VectorDir,
		LockFilePath:  d.lockPath,
		LogFilePath:   d.logPath,
		Preflight:     d.findings,
	}
}

// Health probes the catalog database and the vector store.
func (d *Daemon) Health(ctx context.Context) (database, vectors bool) {
	if d.store != nil {
		if health, err := d.store.CheckHealth(ctx); err == nil && health.DatabaseExists && health.IntegrityCheck {
			database = true
		}
	}
	if d.vectors != nil && d.vectors.CheckHealth(ctx) == nil {
		vectors = true
	}
	return database, vectors
}

// Search runs an emotional-state search against the chunk index.
func (d *Daemon) Search(ctx context.Context, query string, opts search.Options) (*search.Results, error) {
	if d.search == nil {
		return nil, errors.New("search engine unavailable")
	}
	return d.search.Search(ctx, query, opts)
}

// ListChannels returns tracked channels, optionally only active ones.
func (d *Daemon) ListChannels(ctx context.Context, activeOnly bool) ([]*catalog.Channel, error) {
	if d.store == nil {
		return nil, errors.New("catalog store unavailable")
	}
	return d.store.ListChannels(ctx, activeOnly)
}

// AddChannel registers a channel from a URL, @handle, or canonical id.
func (d *Daemon) AddChannel(ctx context.Context, ref string) (*catalog.Channel, error) {
	if d.store == nil {
		return nil, errors.New("catalog store unavailable")
	}
	if d.youtube == nil {
		return nil, errors.New("youtube client unavailable")
	}
	return youtube.RegisterChannel(ctx, d.store, d.youtube, ref, d.logger)
}

// RemoveChannel deletes a channel along with its videos and ingestion
// records. Indexed vectors stay in place.
func (d *Daemon) RemoveChannel(ctx context.Context, channelID string) (bool, error) {
	if d.store == nil {
		return false, errors.New("catalog store unavailable")
	}
	return d.store.RemoveChannel(ctx, channelID)
}

// SetChannelActive pauses or resumes a channel. A nil channel with a nil
// error means the channel is unknown.
func (d *Daemon) SetChannelActive(ctx context.Context, channelID string, active bool) (*catalog.Channel, error) {
	if d.store == nil {
		return nil, errors.New("catalog store unavailable")
	}
	found, err := d.store.SetChannelActive(ctx, channelID, active)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return d.store.ChannelByID(ctx, channelID)
}

// SyncChannel scrapes a channel's videos tab now and enqueues new uploads.
func (d *Daemon) SyncChannel(ctx context.Context, channelID string) (*youtube.SyncResult, error) {
	if d.store == nil {
		return nil, errors.New("catalog store unavailable")
	}
	if d.youtube == nil {
		return nil, errors.New("youtube client unavailable")
	}
	minDuration := time.Duration(d.cfg.YouTube.MinVideoDurationMinutes) * time.Minute
	return youtube.SyncChannel(ctx, d.store, d.youtube, channelID, minDuration, d.logger)
}

// EnqueueVideo adds a single video to the ingestion queue.
func (d *Daemon) EnqueueVideo(ctx context.Context, videoID string) (*catalog.Record, bool, error) {
	if d.store == nil {
		return nil, false, errors.New("catalog store unavailable")
	}
	if d.youtube == nil {
		return nil, false, errors.New("youtube client unavailable")
	}
	return youtube.AddVideo(ctx, d.store, d.youtube, videoID, d.logger)
}

// RetryRecords resets failed records for immediate retry; with no ids,
// every failed record.
func (d *Daemon) RetryRecords(ctx context.Context, ids ...int64) (api.RetryRecordsResult, error) {
	if d.store == nil {
		return api.RetryRecordsResult{}, errors.New("catalog store unavailable")
	}
	if len(ids) == 0 {
		return api.RetryAllFailed(ctx, d.store)
	}
	return api.RetryRecordsByID(ctx, d.store, ids)
}

// ClearCompleted removes completed ingestion records.
func (d *Daemon) ClearCompleted(ctx context.Context) (int64, error) {
	if d.store == nil {
		return 0, errors.New("catalog store unavailable")
	}
	return d.store.ClearCompleted(ctx)
}

// ClearFailed removes failed ingestion records.
func (d *Daemon) ClearFailed(ctx context.Context) (int64, error) {
	if d.store == nil {
		return 0, errors.New("catalog store unavailable")
	}
	return d.store.ClearFailed(ctx)
}

func (d *Daemon) writePIDFile() error {
	if err := os.WriteFile(d.pidPath, []byte(strconv.Itoa(os.Getpid())+"\n"), 0o644); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	return nil
}

func (d *Daemon) removePIDFile() {
	if err := os.Remove(d.pidPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		d.logger.Warn("failed to remove pid file", logging.Error(err))
	}
}
