package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/chukwujekwu-code/sermon-hub/internal/catalog"
	"github.com/chukwujekwu-code/sermon-hub/internal/config"
	"github.com/chukwujekwu-code/sermon-hub/internal/logging"
	"github.com/chukwujekwu-code/sermon-hub/internal/stage"
)

// StageSet bundles the handlers for the three pipeline stages.
type StageSet struct {
	Download   stage.Handler
	Transcribe stage.Handler
	Embed      stage.Handler
}

// pipelineStage binds a handler to the status it starts from and the status
// it holds while running. The completed status is derived by the store.
type pipelineStage struct {
	name       string
	handler    stage.Handler
	start      catalog.Status
	processing catalog.Status
}

// Manager coordinates background processing of ingestion records.
type Manager struct {
	cfg       *config.Config
	store     *catalog.Store
	logger    *slog.Logger
	heartbeat *HeartbeatMonitor

	pollInterval  time.Duration
	retryInterval time.Duration

	mu           sync.RWMutex
	running      bool
	cancel       context.CancelFunc
	pool         *ants.Pool
	pipeline     []pipelineStage
	stageByStart map[catalog.Status]pipelineStage
	startOrder   []catalog.Status
	lastErr      error
	lastRecord   *catalog.Record

	loops    sync.WaitGroup
	inFlight sync.WaitGroup
}

// NewManager creates a workflow manager. Stages are installed separately
// through ConfigureStages so callers can inject test handlers.
func NewManager(cfg *config.Config, store *catalog.Store, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	base := logger.With(logging.FieldComponent, "workflow-manager")

	wf := cfg.Workflow
	pollInterval := time.Duration(wf.QueuePollIntervalSeconds) * time.Second
	if pollInterval <= 0 {
		pollInterval = time.Second
	}
	retryInterval := time.Duration(wf.RetryCheckSeconds) * time.Second
	if retryInterval <= 0 {
		retryInterval = time.Minute
	}
	staleTimeout := time.Duration(wf.StaleReclaimMinutes) * time.Minute

	return &Manager{
		cfg:           cfg,
		store:         store,
		logger:        base,
		heartbeat:     NewHeartbeatMonitor(store, logger, defaultHeartbeatInterval, staleTimeout),
		pollInterval:  pollInterval,
		retryInterval: retryInterval,
	}
}

// ConfigureStages installs the pipeline handlers. All three stages are
// required; the dispatcher has nothing to claim until they are set.
func (m *Manager) ConfigureStages(set StageSet) error {
	entries := []pipelineStage{
		{name: "download", handler: set.Download, start: catalog.StatusPending, processing: catalog.StatusDownloading},
		{name: "transcribe", handler: set.Transcribe, start: catalog.StatusDownloaded, processing: catalog.StatusTranscribing},
		{name: "embed", handler: set.Embed, start: catalog.StatusTranscribed, processing: catalog.StatusEmbedding},
	}
	for _, entry := range entries {
		if entry.handler == nil {
			return fmt.Errorf("%s stage handler is required", entry.name)
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		return errors.New("cannot configure stages while workflow is running")
	}
	m.pipeline = entries
	m.stageByStart = make(map[catalog.Status]pipelineStage, len(entries))
	m.startOrder = make([]catalog.Status, 0, len(entries))
	for _, entry := range entries {
		m.stageByStart[entry.start] = entry
		m.startOrder = append(m.startOrder, entry.start)
	}
	return nil
}

func (m *Manager) stageForStatus(status catalog.Status) (pipelineStage, bool) {
	stg, ok := m.stageByStart[status]
	return stg, ok
}

func (m *Manager) maxErrorCount() int {
	if m.cfg.Workflow.MaxErrorCount < 1 {
		return 1
	}
	return m.cfg.Workflow.MaxErrorCount
}
