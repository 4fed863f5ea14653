package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/chukwujekwu-code/sermon-hub/internal/api"
	"github.com/chukwujekwu-code/sermon-hub/internal/catalog"
	"github.com/chukwujekwu-code/sermon-hub/internal/config"
	"github.com/chukwujekwu-code/sermon-hub/internal/logging"
	"github.com/chukwujekwu-code/sermon-hub/internal/youtube"
)

// ingestAPI is the queue surface shared by the daemon client and the direct
// catalog fallback.
type ingestAPI interface {
	Stats(ctx context.Context) (map[string]int, error)
	List(ctx context.Context, status string) ([]api.IngestRecord, error)
	Describe(ctx context.Context, id int64) (*api.IngestRecord, error)
	Enqueue(ctx context.Context, videoID string) (*api.EnqueueResponse, error)
	Retry(ctx context.Context, ids []int64) (api.RetryRecordsResult, error)
	RetryAll(ctx context.Context) (api.RetryRecordsResult, error)
	ClearCompleted(ctx context.Context) (int64, error)
	ClearFailed(ctx context.Context) (int64, error)
}

// channelAPI is the channel roster surface shared by both paths.
type channelAPI interface {
	List(ctx context.Context, activeOnly bool) ([]api.ChannelSummary, error)
	Add(ctx context.Context, ref string) (*api.ChannelSummary, error)
	Remove(ctx context.Context, channelID string) (bool, error)
	SetActive(ctx context.Context, channelID string, active bool) (*api.ChannelSummary, error)
	Sync(ctx context.Context, channelID string) (*youtube.SyncResult, error)
}

// ingestAPI returns a daemon-backed facade when the daemon responds to a
// health probe and a direct catalog facade otherwise. The returned cleanup
// must run once the facade is no longer needed.
func (c *commandContext) ingestAPI(ctx context.Context) (ingestAPI, func(), error) {
	if client, err := c.dialDaemon(ctx); err == nil {
		return &ingestDaemonAdapter{client: client}, func() {}, nil
	}
	store, cfg, err := c.openCatalog()
	if err != nil {
		return nil, nil, err
	}
	adapter := &ingestStoreAdapter{
		store:   store,
		service: api.NewQueueService(store),
		youtube: youtube.NewClient(cfg.YouTube, logging.NewNop()),
		logger:  logging.NewNop(),
	}
	return adapter, func() { _ = store.Close() }, nil
}

func (c *commandContext) channelAPI(ctx context.Context) (channelAPI, func(), error) {
	if client, err := c.dialDaemon(ctx); err == nil {
		return &channelDaemonAdapter{client: client}, func() {}, nil
	}
	store, cfg, err := c.openCatalog()
	if err != nil {
		return nil, nil, err
	}
	adapter := &channelStoreAdapter{
		cfg:     cfg,
		store:   store,
		youtube: youtube.NewClient(cfg.YouTube, logging.NewNop()),
		logger:  logging.NewNop(),
	}
	return adapter, func() { _ = store.Close() }, nil
}

func (c *commandContext) openCatalog() (*catalog.Store, *config.Config, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, nil, err
	}
	store, err := catalog.Open(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("open catalog: %w", err)
	}
	return store, cfg, nil
}

func isNotFoundErr(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(strings.ToLower(err.Error()), "not found")
}

// --- daemon adapters ---

type ingestDaemonAdapter struct {
	client *api.Client
}

func (a *ingestDaemonAdapter) Stats(ctx context.Context) (map[string]int, error) {
	return a.client.QueueStats(ctx)
}

func (a *ingestDaemonAdapter) List(ctx context.Context, status string) ([]api.IngestRecord, error) {
	return a.client.Queue(ctx, status)
}

func (a *ingestDaemonAdapter) Describe(ctx context.Context, id int64) (*api.IngestRecord, error) {
	record, err := a.client.QueueRecord(ctx, id)
	if err != nil {
		if isNotFoundErr(err) {
			return nil, nil
		}
		return nil, err
	}
	return record, nil
}

func (a *ingestDaemonAdapter) Enqueue(ctx context.Context, videoID string) (*api.EnqueueResponse, error) {
	return a.client.Enqueue(ctx, videoID)
}

func (a *ingestDaemonAdapter) Retry(ctx context.Context, ids []int64) (api.RetryRecordsResult, error) {
	result := api.RetryRecordsResult{Records: make([]api.RetryRecordResult, 0, len(ids))}
	for _, id := range ids {
		partial, err := a.client.RetryRecord(ctx, id)
		if err != nil {
			return api.RetryRecordsResult{}, err
		}
		result.ResetCount += partial.ResetCount
		result.Records = append(result.Records, partial.Records...)
	}
	return result, nil
}

func (a *ingestDaemonAdapter) RetryAll(ctx context.Context) (api.RetryRecordsResult, error) {
	result, err := a.client.RetryAllFailed(ctx)
	if err != nil {
		return api.RetryRecordsResult{}, err
	}
	return *result, nil
}

func (a *ingestDaemonAdapter) ClearCompleted(ctx context.Context) (int64, error) {
	return a.client.ClearQueue(ctx, api.ClearScopeCompleted)
}

func (a *ingestDaemonAdapter) ClearFailed(ctx context.Context) (int64, error) {
	return a.client.ClearQueue(ctx, api.ClearScopeFailed)
}

type channelDaemonAdapter struct {
	client *api.Client
}

func (a *channelDaemonAdapter) List(ctx context.Context, activeOnly bool) ([]api.ChannelSummary, error) {
	return a.client.Channels(ctx, activeOnly)
}

func (a *channelDaemonAdapter) Add(ctx context.Context, ref string) (*api.ChannelSummary, error) {
	return a.client.AddChannel(ctx, ref)
}

func (a *channelDaemonAdapter) Remove(ctx context.Context, channelID string) (bool, error) {
	removed, err := a.client.RemoveChannel(ctx, channelID)
	if err != nil {
		if isNotFoundErr(err) {
			return false, nil
		}
		return false, err
	}
	return removed, nil
}

func (a *channelDaemonAdapter) SetActive(ctx context.Context, channelID string, active bool) (*api.ChannelSummary, error) {
	channel, err := a.client.SetChannelActive(ctx, channelID, active)
	if err != nil {
		if isNotFoundErr(err) {
			return nil, nil
		}
		return nil, err
	}
	return channel, nil
}

func (a *channelDaemonAdapter) Sync(ctx context.Context, channelID string) (*youtube.SyncResult, error) {
	return a.client.SyncChannel(ctx, channelID)
}

// --- store adapters ---

type ingestStoreAdapter struct {
	store   *catalog.Store
	service *api.QueueService
	youtube *youtube.Client
	logger  *slog.Logger
}

func (a *ingestStoreAdapter) Stats(ctx context.Context) (map[string]int, error) {
	return a.service.Stats(ctx)
}

func (a *ingestStoreAdapter) List(ctx context.Context, status string) ([]api.IngestRecord, error) {
	var statuses []catalog.Status
	if trimmed := strings.TrimSpace(status); trimmed != "" {
		parsed, ok := catalog.ParseStatus(trimmed)
		if !ok {
			return nil, fmt.Errorf("unknown status %q", trimmed)
		}
		statuses = append(statuses, parsed)
	}
	return a.service.List(ctx, statuses...)
}

func (a *ingestStoreAdapter) Describe(ctx context.Context, id int64) (*api.IngestRecord, error) {
	return a.service.Describe(ctx, id)
}

func (a *ingestStoreAdapter) Enqueue(ctx context.Context, videoID string) (*api.EnqueueResponse, error) {
	record, created, err := youtube.AddVideo(ctx, a.store, a.youtube, videoID, a.logger)
	if err != nil {
		return nil, err
	}
	resp := &api.EnqueueResponse{Record: api.FromRecord(record), Created: created}
	if dto, descErr := a.service.Describe(ctx, record.ID); descErr == nil && dto != nil {
		resp.Record = *dto
	}
	return resp, nil
}

func (a *ingestStoreAdapter) Retry(ctx context.Context, ids []int64) (api.RetryRecordsResult, error) {
	return api.RetryRecordsByID(ctx, a.store, ids)
}

func (a *ingestStoreAdapter) RetryAll(ctx context.Context) (api.RetryRecordsResult, error) {
	return api.RetryAllFailed(ctx, a.store)
}

func (a *ingestStoreAdapter) ClearCompleted(ctx context.Context) (int64, error) {
	return a.store.ClearCompleted(ctx)
}

func (a *ingestStoreAdapter) ClearFailed(ctx context.Context) (int64, error) {
	return a.store.ClearFailed(ctx)
}

type channelStoreAdapter struct {
	cfg     *config.Config
	store   *catalog.Store
	youtube *youtube.Client
	logger  *slog.Logger
}

func (a *channelStoreAdapter) List(ctx context.Context, activeOnly bool) ([]api.ChannelSummary, error) {
	channels, err := a.store.ListChannels(ctx, activeOnly)
	if err != nil {
		return nil, err
	}
	return api.FromChannels(channels), nil
}

func (a *channelStoreAdapter) Add(ctx context.Context, ref string) (*api.ChannelSummary, error) {
	channel, err := youtube.RegisterChannel(ctx, a.store, a.youtube, ref, a.logger)
	if err != nil {
		return nil, err
	}
	summary := api.FromChannel(channel)
	return &summary, nil
}

func (a *channelStoreAdapter) Remove(ctx context.Context, channelID string) (bool, error) {
	return a.store.RemoveChannel(ctx, channelID)
}

func (a *channelStoreAdapter) SetActive(ctx context.Context, channelID string, active bool) (*api.ChannelSummary, error) {
	found, err := a.store.SetChannelActive(ctx, channelID, active)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	channel, err := a.store.ChannelByID(ctx, channelID)
	if err != nil || channel == nil {
		return nil, err
	}
	summary := api.FromChannel(channel)
	return &summary, nil
}

func (a *channelStoreAdapter) Sync(ctx context.Context, channelID string) (*youtube.SyncResult, error) {
	minDuration := time.Duration(a.cfg.YouTube.MinVideoDurationMinutes) * time.Minute
	return youtube.SyncChannel(ctx, a.store, a.youtube, channelID, minDuration, a.logger)
}
