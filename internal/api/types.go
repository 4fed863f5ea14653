package api

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// IngestRecord describes an ingestion record in a transport-friendly format.
type IngestRecord struct {
	ID               int64  `json:"id"`
	VideoID          string `json:"video_id"`
	Title            string `json:"title,omitempty"`
	ChannelID        string `json:"channel_id,omitempty"`
	Status           string `json:"status"`
	TranscriptSource string `json:"transcript_source,omitempty"`
	TranscriptPath   string `json:"transcript_path,omitempty"`
	AudioPath        string `json:"audio_path,omitempty"`
	ErrorMessage     string `json:"error_message,omitempty"`
	ErrorCount       int    `json:"error_count"`
	FailedStage      string `json:"failed_stage,omitempty"`
	CreatedAt        string `json:"created_at,omitempty"`
	UpdatedAt        string `json:"updated_at,omitempty"`

	DownloadCompletedAt      string `json:"download_completed_at,omitempty"`
	TranscriptionCompletedAt string `json:"transcription_completed_at,omitempty"`
	EmbeddingCompletedAt     string `json:"embedding_completed_at,omitempty"`
}

// ChannelSummary describes a tracked channel.
type ChannelSummary struct {
	ChannelID  string `json:"channel_id"`
	Name       string `json:"name"`
	URL        string `json:"url,omitempty"`
	Active     bool   `json:"active"`
	LastSyncAt string `json:"last_sync_at,omitempty"`
	CreatedAt  string `json:"created_at,omitempty"`
}

// WorkflowStatus summarizes workflow execution state.
type WorkflowStatus struct {
	Running     bool           `json:"running"`
	QueueStats  map[string]int `json:"queue_stats"`
	LastError   string         `json:"last_error,omitempty"`
	LastRecord  *IngestRecord  `json:"last_record,omitempty"`
	StageHealth []StageHealth  `json:"stage_health"`
}

// StageHealth mirrors readiness reporting for workflow stages.
type StageHealth struct {
	Name   string `json:"name"`
	Ready  bool   `json:"ready"`
	Detail string `json:"detail,omitempty"`
}

// Finding captures one preflight check result.
type Finding struct {
	Name   string `json:"name"`
	Fatal  bool   `json:"fatal"`
	Detail string `json:"detail,omitempty"`
}

// DaemonStatus aggregates daemon runtime information for API consumers.
type DaemonStatus struct {
	Running       bool           `json:"running"`
	PID           int            `json:"pid"`
	DatabasePath  string         `json:"database_path"`
	VectorDirPath string         `json:"vector_dir_path"`
	LockFilePath  string         `json:"lock_file_path"`
	LogFilePath   string         `json:"log_file_path"`
	Workflow      WorkflowStatus `json:"workflow"`
	Preflight     []Finding      `json:"preflight,omitempty"`
}

// QueueStatsResponse provides a normalized queue stats payload.
type QueueStatsResponse struct {
	Counts map[string]int `json:"counts"`
}

// QueueListResponse wraps a collection of ingestion records.
type QueueListResponse struct {
	Records []IngestRecord `json:"records"`
}

// QueueRecordResponse wraps a single ingestion record.
type QueueRecordResponse struct {
	Record IngestRecord `json:"record"`
}

// ChannelListResponse wraps the tracked channel roster.
type ChannelListResponse struct {
	Channels []ChannelSummary `json:"channels"`
}

// ChannelResponse wraps a single channel.
type ChannelResponse struct {
	Channel ChannelSummary `json:"channel"`
}

// AddChannelRequest registers a channel by URL, @handle, or canonical id.
type AddChannelRequest struct {
	Channel string `json:"channel"`
}

// RemoveChannelResponse reports whether a channel row was deleted.
type RemoveChannelResponse struct {
	Removed bool `json:"removed"`
}

// EnqueueRequest asks for a single video to be ingested.
type EnqueueRequest struct {
	VideoID string `json:"video_id"`
}

// EnqueueResponse carries the ingestion record for an added video. Created
// is false when the video was already queued.
type EnqueueResponse struct {
	Record  IngestRecord `json:"record"`
	Created bool         `json:"created"`
}

// Queue clear scopes.
const (
	ClearScopeCompleted = "completed"
	ClearScopeFailed    = "failed"
)

// ClearQueueRequest selects which terminal records to drop.
type ClearQueueRequest struct {
	Scope string `json:"scope"`
}

// ClearQueueResponse reports how many records were dropped.
type ClearQueueResponse struct {
	Removed int64 `json:"removed"`
}

// HealthResponse is the liveness payload.
type HealthResponse struct {
	Status   string `json:"status"`
	Database bool   `json:"database"`
	Vectors  bool   `json:"vectors"`
}

// ErrorResponse carries a transport-level failure message.
type ErrorResponse struct {
	Error string `json:"error"`
}
