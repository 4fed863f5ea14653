package api

import (
	"context"

	"github.com/chukwujekwu-code/sermon-hub/internal/catalog"
)

// QueueRetryer captures the catalog operations the manual retry path needs.
type QueueRetryer interface {
	RecordByID(ctx context.Context, id int64) (*catalog.Record, error)
	ResetFailed(ctx context.Context, ids ...int64) (int64, error)
}

type RetryOutcome string

const (
	RetryOutcomeReset     RetryOutcome = "reset"
	RetryOutcomeNotFound  RetryOutcome = "not_found"
	RetryOutcomeNotFailed RetryOutcome = "not_failed"
)

type RetryRecordResult struct {
	ID        int64        `json:"id"`
	Outcome   RetryOutcome `json:"outcome"`
	NewStatus string       `json:"new_status,omitempty"`
}

type RetryRecordsResult struct {
	ResetCount int64               `json:"reset_count"`
	Records    []RetryRecordResult `json:"records,omitempty"`
}

// RetryRecordsByID validates ids and resets only failed records. The reset
// skips the backoff window and restores the full retry budget; the record
// still resumes at the stage its timestamps call for.
func RetryRecordsByID(ctx context.Context, store QueueRetryer, ids []int64) (RetryRecordsResult, error) {
	result := RetryRecordsResult{Records: make([]RetryRecordResult, 0, len(ids))}
	for _, id := range ids {
		record, err := store.RecordByID(ctx, id)
		if err != nil {
			return RetryRecordsResult{}, err
		}
		if record == nil {
			result.Records = append(result.Records, RetryRecordResult{ID: id, Outcome: RetryOutcomeNotFound})
			continue
		}
		if record.Status != catalog.StatusFailed {
			result.Records = append(result.Records, RetryRecordResult{ID: id, Outcome: RetryOutcomeNotFailed})
			continue
		}

		reset, err := store.ResetFailed(ctx, id)
		if err != nil {
			return RetryRecordsResult{}, err
		}
		if reset == 0 {
			// Lost a race with the retry scheduler; the record already moved.
			result.Records = append(result.Records, RetryRecordResult{ID: id, Outcome: RetryOutcomeNotFailed})
			continue
		}
		result.ResetCount += reset

		entry := RetryRecordResult{ID: id, Outcome: RetryOutcomeReset}
		if updated, err := store.RecordByID(ctx, id); err == nil && updated != nil {
			entry.NewStatus = string(updated.Status)
		}
		result.Records = append(result.Records, entry)
	}
	return result, nil
}

// RetryAllFailed resets every failed record in one pass.
func RetryAllFailed(ctx context.Context, store QueueRetryer) (RetryRecordsResult, error) {
	reset, err := store.ResetFailed(ctx)
	if err != nil {
		return RetryRecordsResult{}, err
	}
	return RetryRecordsResult{ResetCount: reset}, nil
}
