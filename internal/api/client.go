package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/chukwujekwu-code/sermon-hub/internal/search"
	"github.com/chukwujekwu-code/sermon-hub/internal/youtube"
)

const defaultClientTimeout = 30 * time.Second

// maxResponseBytes bounds daemon responses; queue listings stay far below.
const maxResponseBytes = 8 << 20

// Client talks to a running daemon over its HTTP API.
type Client struct {
	baseURL string
	token   string
	httpc   *http.Client
}

// NewClient builds a client for a bind address ("host:port" or a full URL).
func NewClient(bind string) *Client {
	base := strings.TrimSpace(bind)
	if base == "" {
		base = "127.0.0.1:7710"
	}
	if !strings.Contains(base, "://") {
		base = "http://" + base
	}
	return &Client{
		baseURL: strings.TrimRight(base, "/"),
		httpc:   &http.Client{Timeout: defaultClientTimeout},
	}
}

// WithHTTPClient overrides the underlying HTTP client. Test hook.
func (c *Client) WithHTTPClient(httpc *http.Client) *Client {
	if httpc != nil {
		c.httpc = httpc
	}
	return c
}

// WithToken attaches a bearer token to every request. An empty token sends
// no Authorization header.
func (c *Client) WithToken(token string) *Client {
	c.token = strings.TrimSpace(token)
	return c
}

// BaseURL reports the daemon address the client targets.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Status fetches the daemon runtime summary.
func (c *Client) Status(ctx context.Context) (*DaemonStatus, error) {
	var out DaemonStatus
	if err := c.get(ctx, "/api/status", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Health fetches the liveness payload.
func (c *Client) Health(ctx context.Context) (*HealthResponse, error) {
	var out HealthResponse
	if err := c.get(ctx, "/api/health", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Queue lists ingestion records, optionally filtered to one status.
func (c *Client) Queue(ctx context.Context, status string) ([]IngestRecord, error) {
	query := url.Values{}
	if status != "" {
		query.Set("status", status)
	}
	var out QueueListResponse
	if err := c.get(ctx, "/api/queue", query, &out); err != nil {
		return nil, err
	}
	return out.Records, nil
}

// QueueRecord fetches a single ingestion record by id.
func (c *Client) QueueRecord(ctx context.Context, id int64) (*IngestRecord, error) {
	var out QueueRecordResponse
	if err := c.get(ctx, "/api/queue/"+strconv.FormatInt(id, 10), nil, &out); err != nil {
		return nil, err
	}
	return &out.Record, nil
}

// QueueStats fetches per-status record counts.
func (c *Client) QueueStats(ctx context.Context) (map[string]int, error) {
	var out QueueStatsResponse
	if err := c.get(ctx, "/api/queue/stats", nil, &out); err != nil {
		return nil, err
	}
	return out.Counts, nil
}

// Search runs an emotional-state search. Either query or mood must be set;
// limit and minScore fall back to server defaults when zero.
func (c *Client) Search(ctx context.Context, query, mood string, limit int, minScore float64) (*search.Results, error) {
	params := url.Values{}
	if query != "" {
		params.Set("q", query)
	}
	if mood != "" {
		params.Set("mood", mood)
	}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	if minScore > 0 {
		params.Set("min_score", strconv.FormatFloat(minScore, 'f', -1, 64))
	}
	var out search.Results
	if err := c.get(ctx, "/api/search", params, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Channels lists tracked channels, optionally restricted to active ones.
func (c *Client) Channels(ctx context.Context, activeOnly bool) ([]ChannelSummary, error) {
	query := url.Values{}
	if activeOnly {
		query.Set("active", "true")
	}
	var out ChannelListResponse
	if err := c.get(ctx, "/api/channels", query, &out); err != nil {
		return nil, err
	}
	return out.Channels, nil
}

// AddChannel registers a channel from any reference a user might paste.
func (c *Client) AddChannel(ctx context.Context, ref string) (*ChannelSummary, error) {
	var out ChannelResponse
	if err := c.post(ctx, "/api/channels", AddChannelRequest{Channel: ref}, &out); err != nil {
		return nil, err
	}
	return &out.Channel, nil
}

// RemoveChannel deletes a channel and, through the catalog's cascades, its
// videos and ingestion records. Indexed vectors are left in place.
func (c *Client) RemoveChannel(ctx context.Context, channelID string) (bool, error) {
	var out RemoveChannelResponse
	if err := c.del(ctx, "/api/channels/"+url.PathEscape(channelID), &out); err != nil {
		return false, err
	}
	return out.Removed, nil
}

// SetChannelActive pauses or resumes a channel for bulk syncs.
func (c *Client) SetChannelActive(ctx context.Context, channelID string, active bool) (*ChannelSummary, error) {
	action := "pause"
	if active {
		action = "resume"
	}
	var out ChannelResponse
	if err := c.post(ctx, "/api/channels/"+url.PathEscape(channelID)+"/"+action, nil, &out); err != nil {
		return nil, err
	}
	return &out.Channel, nil
}

// SyncChannel asks the daemon to sync one channel now.
func (c *Client) SyncChannel(ctx context.Context, channelID string) (*youtube.SyncResult, error) {
	var out youtube.SyncResult
	if err := c.post(ctx, "/api/channels/"+url.PathEscape(channelID)+"/sync", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Enqueue adds one video to the ingestion queue.
func (c *Client) Enqueue(ctx context.Context, videoID string) (*EnqueueResponse, error) {
	var out EnqueueResponse
	if err := c.post(ctx, "/api/queue", EnqueueRequest{VideoID: videoID}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RetryRecord resets one failed record for immediate retry.
func (c *Client) RetryRecord(ctx context.Context, id int64) (*RetryRecordsResult, error) {
	var out RetryRecordsResult
	if err := c.post(ctx, "/api/queue/"+strconv.FormatInt(id, 10)+"/retry", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RetryAllFailed resets every failed record for immediate retry.
func (c *Client) RetryAllFailed(ctx context.Context) (*RetryRecordsResult, error) {
	var out RetryRecordsResult
	if err := c.post(ctx, "/api/queue/retry", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ClearQueue drops terminal records in the given scope ("completed" or
// "failed") and reports how many went away.
func (c *Client) ClearQueue(ctx context.Context, scope string) (int64, error) {
	var out ClearQueueResponse
	if err := c.post(ctx, "/api/queue/clear", ClearQueueRequest{Scope: scope}, &out); err != nil {
		return 0, err
	}
	return out.Removed, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	return c.do(req, out)
}

func (c *Client) post(ctx context.Context, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		encoded, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(encoded)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.do(req, out)
}

func (c *Client) del(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("contact daemon at %s: %w", c.baseURL, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("read daemon response: %w", err)
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		var apiErr ErrorResponse
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("daemon returned %d: %s", resp.StatusCode, apiErr.Error)
		}
		return fmt.Errorf("daemon returned %d", resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode daemon response: %w", err)
	}
	return nil
}
