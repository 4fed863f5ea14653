package workflow

import (
	"context"
	"errors"
	"strings"

	"github.com/chukwujekwu-code/sermon-hub/internal/catalog"
	"github.com/chukwujekwu-code/sermon-hub/internal/logging"
	"github.com/chukwujekwu-code/sermon-hub/internal/services"
)

func (m *Manager) handleStageFailure(ctx context.Context, stg pipelineStage, record *catalog.Record, stageErr error) {
	logger := logging.WithContext(ctx, m.logger)

	message := failureMessage(stg.name, stageErr)
	permanent := services.IsPermanent(stageErr)

	logger.Error("stage failed",
		logging.Error(stageErr),
		"error_message", message,
		"permanent", permanent,
	)

	if err := m.store.MarkFailed(ctx, record, stg.name, message, permanent, m.maxErrorCount()); err != nil {
		switch {
		case errors.Is(err, context.Canceled):
			logger.Debug("shutdown interrupted failure persistence; record will be reclaimed")
		case errors.Is(err, catalog.ErrStaleRecord):
			logger.Warn("lost optimistic race recording stage failure", logging.Error(err))
		default:
			logger.Error("failed to persist stage failure", logging.Error(err))
		}
	}

	m.setLastError(stageErr)
	m.setLastRecord(record)
}

func failureMessage(stageName string, stageErr error) string {
	if stageErr == nil {
		return stageName + " failed without error detail"
	}
	message := strings.TrimSpace(stageErr.Error())
	if message == "" {
		return stageName + " failed"
	}
	return message
}
