package workflow

import (
	"context"
	"errors"
	"time"

	"github.com/chukwujekwu-code/sermon-hub/internal/catalog"
	"github.com/chukwujekwu-code/sermon-hub/internal/logging"
)

// runRetryScheduler periodically reclaims stale processing records and
// resumes failed records whose backoff window has elapsed.
func (m *Manager) runRetryScheduler(ctx context.Context) {
	defer m.loops.Done()
	ticker := time.NewTicker(m.retryInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := m.heartbeat.ReclaimStale(ctx); err != nil && !errors.Is(err, context.Canceled) {
				m.logger.Warn("reclaim stale processing failed; stuck records may remain", logging.Error(err))
			}
			m.resumeRetryCandidates(ctx)
		}
	}
}

func (m *Manager) resumeRetryCandidates(ctx context.Context) {
	wf := m.cfg.Workflow
	base := time.Duration(wf.RetryBaseDelaySeconds) * time.Second
	max := time.Duration(wf.RetryMaxDelaySeconds) * time.Second

	candidates, err := m.store.RetryCandidates(ctx, time.Now(), m.maxErrorCount(), base, max)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			m.setLastError(err)
			m.logger.Error("failed to list retry candidates", logging.Error(err))
		}
		return
	}

	for _, record := range candidates {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if err := m.store.ResumeForRetry(ctx, record); err != nil {
			switch {
			case errors.Is(err, context.Canceled):
				return
			case errors.Is(err, catalog.ErrStaleRecord):
				m.logger.Debug("retry candidate changed concurrently", "record_id", record.ID)
			default:
				m.setLastError(err)
				m.logger.Error("failed to resume record for retry", logging.Error(err), "record_id", record.ID)
			}
			continue
		}

		m.logger.Info("failed record resumed for retry",
			"record_id", record.ID,
			"video_id", record.VideoID,
			"resume_status", string(record.Status),
			"error_count", record.ErrorCount,
		)
	}
}
