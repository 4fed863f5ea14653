package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/chukwujekwu-code/sermon-hub/internal/catalog"
	"github.com/chukwujekwu-code/sermon-hub/internal/logging"
	"github.com/chukwujekwu-code/sermon-hub/internal/services"
	"github.com/chukwujekwu-code/sermon-hub/internal/stage"
)

// runStage executes one stage for a claimed record. The record is already in
// the stage's processing status; on success the store advances it to the
// stage's completed status in a single optimistic write.
func (m *Manager) runStage(ctx context.Context, stg pipelineStage, record *catalog.Record) {
	ctx = services.WithRequestID(ctx, uuid.NewString())
	ctx = services.WithRecordID(ctx, record.ID)
	ctx = services.WithVideoID(ctx, record.VideoID)
	ctx = services.WithStage(ctx, stg.name)
	logger := logging.WithContext(ctx, m.logger)

	stageStart := time.Now()
	logger.Info("stage started", "processing_status", string(stg.processing))

	if err := stg.handler.Prepare(ctx, record); err != nil {
		m.handleStageFailure(ctx, stg, record, err)
		return
	}
	if err := m.store.UpdateRecord(ctx, record); err != nil {
		m.handlePersistFailure(logger, fmt.Errorf("persist stage preparation: %w", err))
		return
	}

	if err := m.executeWithHeartbeat(ctx, stg.handler, record); err != nil {
		if errors.Is(err, context.Canceled) {
			// Shutdown mid-stage. The record stays in its processing status
			// and is returned to a waiting status on the next startup reset
			// or stale reclaim.
			logger.Debug("stage interrupted by shutdown")
			return
		}
		m.handleStageFailure(ctx, stg, record, err)
		return
	}

	if err := m.store.CompleteStage(ctx, record); err != nil {
		m.handlePersistFailure(logger, fmt.Errorf("persist stage completion: %w", err))
		return
	}

	m.setLastRecord(record)
	logger.Info("stage completed",
		"next_status", string(record.Status),
		"stage_duration", time.Since(stageStart).Round(time.Millisecond),
	)
}

func (m *Manager) executeWithHeartbeat(ctx context.Context, handler stage.Handler, record *catalog.Record) error {
	hbCtx, hbCancel := context.WithCancel(ctx)
	var hbWG sync.WaitGroup
	hbWG.Add(1)
	go m.heartbeat.StartLoop(hbCtx, &hbWG, record.ID)

	execErr := handler.Execute(ctx, record)
	hbCancel()
	hbWG.Wait()
	return execErr
}

func (m *Manager) handlePersistFailure(logger *slog.Logger, err error) {
	switch {
	case errors.Is(err, context.Canceled):
		logger.Debug("shutdown interrupted persistence; record will be reclaimed")
	case errors.Is(err, catalog.ErrStaleRecord):
		m.setLastError(err)
		logger.Warn("lost optimistic race persisting stage progress", logging.Error(err))
	default:
		m.setLastError(err)
		logger.Error("failed to persist stage progress", logging.Error(err))
	}
}
