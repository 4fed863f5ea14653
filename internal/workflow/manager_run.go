package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/chukwujekwu-code/sermon-hub/internal/catalog"
	"github.com/chukwujekwu-code/sermon-hub/internal/logging"
)

// Start begins background processing.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return errors.New("workflow already running")
	}
	if len(m.pipeline) == 0 {
		m.mu.Unlock()
		return errors.New("workflow stages not configured")
	}

	workers := m.cfg.Workflow.Workers
	if workers < 1 {
		workers = 1
	}
	pool, err := ants.NewPool(workers)
	if err != nil {
		m.mu.Unlock()
		return fmt.Errorf("create worker pool: %w", err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.pool = pool
	m.running = true
	m.loops.Add(2)
	m.mu.Unlock()

	// Records stranded in a processing status by a crash go back to their
	// resume status before the dispatcher starts claiming.
	if reset, err := m.store.ResetStuckProcessing(runCtx); err != nil {
		m.logger.Warn("reset stuck processing failed; stale records wait for reclaim", logging.Error(err))
	} else if reset > 0 {
		m.logger.Info("returned stuck records to their resume status", "count", reset)
	}

	go m.runDispatcher(runCtx, pool)
	go m.runRetryScheduler(runCtx)

	return nil
}

// Stop terminates background processing and waits for in-flight stages to
// finish.
func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	cancel := m.cancel
	pool := m.pool
	m.running = false
	m.cancel = nil
	m.pool = nil
	m.mu.Unlock()

	cancel()
	m.loops.Wait()
	m.inFlight.Wait()
	pool.Release()
}

func (m *Manager) runDispatcher(ctx context.Context, pool *ants.Pool) {
	defer m.loops.Done()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		record, err := m.store.NextForStatuses(ctx, m.startOrder...)
		if err != nil {
			m.handleDispatchError(ctx, err)
			continue
		}
		if record == nil {
			m.waitForRecordOrShutdown(ctx)
			continue
		}

		stg, ok := m.stageForStatus(record.Status)
		if !ok {
			m.logger.Warn("no stage configured for status", "status", string(record.Status))
			m.waitForRecordOrShutdown(ctx)
			continue
		}

		if err := m.claimRecord(ctx, stg, record); err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			// A stale claim means the record moved on; refetch right away.
			// Anything else would refetch the same record, so back off.
			if !errors.Is(err, catalog.ErrStaleRecord) {
				m.waitForRecordOrShutdown(ctx)
			}
			continue
		}

		m.inFlight.Add(1)
		submitErr := pool.Submit(func() {
			defer m.inFlight.Done()
			m.runStage(ctx, stg, record)
		})
		if submitErr != nil {
			m.inFlight.Done()
			if errors.Is(submitErr, ants.ErrPoolClosed) {
				return
			}
			m.setLastError(submitErr)
			m.logger.Error("failed to submit record to worker pool", logging.Error(submitErr), "record_id", record.ID)
			m.waitForRecordOrShutdown(ctx)
		}
	}
}

// claimRecord moves the record into the stage's processing status. The
// optimistic transition is the claim; a stale token means someone else got
// there first and the dispatcher simply moves on.
func (m *Manager) claimRecord(ctx context.Context, stg pipelineStage, record *catalog.Record) error {
	if err := m.store.Transition(ctx, record, stg.processing); err != nil {
		switch {
		case errors.Is(err, context.Canceled):
		case errors.Is(err, catalog.ErrStaleRecord), errors.Is(err, catalog.ErrInvalidTransition):
			m.logger.Debug("record claimed elsewhere", "record_id", record.ID, "status", string(record.Status))
		default:
			m.setLastError(err)
			m.logger.Error("failed to claim record", logging.Error(err), "record_id", record.ID)
		}
		return err
	}
	m.setLastRecord(record)
	return nil
}

func (m *Manager) handleDispatchError(ctx context.Context, err error) {
	if errors.Is(err, context.Canceled) {
		return
	}
	m.setLastError(err)
	m.logger.Error("failed to fetch next record", logging.Error(err))
	m.waitForRecordOrShutdown(ctx)
}

func (m *Manager) waitForRecordOrShutdown(ctx context.Context) {
	select {
	case <-ctx.Done():
	case <-time.After(m.pollInterval):
	}
}
