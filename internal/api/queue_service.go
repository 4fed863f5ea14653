package api

import (
	"context"

	"github.com/chukwujekwu-code/sermon-hub/internal/catalog"
)

// QueueReader abstracts the catalog interactions needed for API queries.
type QueueReader interface {
	ListRecords(ctx context.Context, statuses ...catalog.Status) ([]*catalog.Record, error)
	Stats(ctx context.Context) (map[catalog.Status]int, error)
	RecordByID(ctx context.Context, id int64) (*catalog.Record, error)
	VideosByIDs(ctx context.Context, videoIDs []string) (map[string]*catalog.Video, error)
}

// QueueService exposes read-only queue operations returning API DTOs.
type QueueService struct {
	store QueueReader
}

// NewQueueService constructs a QueueService around the provided reader.
func NewQueueService(store QueueReader) *QueueService {
	if store == nil {
		return nil
	}
	return &QueueService{store: store}
}

// List returns ingestion records filtered by status, decorated with the
// video title and channel when the catalog knows them.
func (s *QueueService) List(ctx context.Context, statuses ...catalog.Status) ([]IngestRecord, error) {
	if s == nil || s.store == nil {
		return nil, nil
	}
	records, err := s.store.ListRecords(ctx, statuses...)
	if err != nil {
		return nil, err
	}
	dtos := FromRecords(records)
	if err := s.decorate(ctx, dtos); err != nil {
		return nil, err
	}
	return dtos, nil
}

// Stats returns queue summary counts keyed by status string.
func (s *QueueService) Stats(ctx context.Context) (map[string]int, error) {
	if s == nil || s.store == nil {
		return nil, nil
	}
	stats, err := s.store.Stats(ctx)
	if err != nil {
		return nil, err
	}
	return MergeQueueStats(stats), nil
}

// Describe fetches a single ingestion record.
func (s *QueueService) Describe(ctx context.Context, id int64) (*IngestRecord, error) {
	if s == nil || s.store == nil {
		return nil, nil
	}
	record, err := s.store.RecordByID(ctx, id)
	if err != nil || record == nil {
		return nil, err
	}
	dto := FromRecord(record)
	dtos := []IngestRecord{dto}
	if err := s.decorate(ctx, dtos); err != nil {
		return nil, err
	}
	return &dtos[0], nil
}

func (s *QueueService) decorate(ctx context.Context, dtos []IngestRecord) error {
	if len(dtos) == 0 {
		return nil
	}
	ids := make([]string, 0, len(dtos))
	for _, dto := range dtos {
		ids = append(ids, dto.VideoID)
	}
	videos, err := s.store.VideosByIDs(ctx, ids)
	if err != nil {
		return err
	}
	for i := range dtos {
		if video := videos[dtos[i].VideoID]; video != nil {
			dtos[i].Title = video.Title
			dtos[i].ChannelID = video.ChannelID
		}
	}
	return nil
}
