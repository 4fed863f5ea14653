package catalog

import (
	"strings"
	"time"
)

// Status represents the lifecycle of an ingestion record.
type Status string

const (
	StatusPending      Status = "pending"
	StatusDownloading  Status = "downloading"
	StatusDownloaded   Status = "downloaded"
	StatusTranscribing Status = "transcribing"
	StatusTranscribed  Status = "transcribed"
	StatusEmbedding    Status = "embedding"
	StatusCompleted    Status = "completed"
	StatusFailed       Status = "failed"
)

// Transcript provenance values for Record.TranscriptSource.
const (
	TranscriptSourceCaptions = "captions"
	TranscriptSourceWhisper  = "whisper"
)

var allStatuses = []Status{
	StatusPending,
	StatusDownloading,
	StatusDownloaded,
	StatusTranscribing,
	StatusTranscribed,
	StatusEmbedding,
	StatusCompleted,
	StatusFailed,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

var processingStatuses = map[Status]struct{}{
	StatusDownloading:  {},
	StatusTranscribing: {},
	StatusEmbedding:    {},
}

// transitions is the single source of truth for legal status changes.
// Statuses advance strictly forward; failed is reachable from every
// non-terminal status, and leaves only toward a waiting status the
// dispatcher can claim from.
var transitions = map[Status][]Status{
	StatusPending:      {StatusDownloading, StatusFailed},
	StatusDownloading:  {StatusDownloaded, StatusFailed},
	StatusDownloaded:   {StatusTranscribing, StatusFailed},
	StatusTranscribing: {StatusTranscribed, StatusFailed},
	StatusTranscribed:  {StatusEmbedding, StatusFailed},
	StatusEmbedding:    {StatusCompleted, StatusFailed},
	StatusFailed:       {StatusPending, StatusDownloaded, StatusTranscribed},
	StatusCompleted:    nil,
}

// CanTransition reports whether moving from one status to another is legal.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// IsProcessingStatus reports whether a status reflects an in-flight stage.
func IsProcessingStatus(status Status) bool {
	_, ok := processingStatuses[status]
	return ok
}

// IsTerminal reports whether a status never changes again on its own.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted
}

// Channel is a tracked YouTube channel.
type Channel struct {
	ChannelID  string
	Name       string
	URL        string
	Active     bool
	LastSyncAt *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Video is the catalog entry for a discovered sermon video.
type Video struct {
	VideoID         string
	ChannelID       string
	Title           string
	Description     string
	DurationSeconds int
	PublishedAt     time.Time
	ThumbnailURL    string
	ViewCount       int64
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Record tracks one video's trip through the ingestion pipeline.
type Record struct {
	ID               int64
	VideoID          string
	Status           Status
	AudioPath        string
	AudioFormat      string
	AudioSizeBytes   int64
	TranscriptPath   string
	TranscriptText   string
	TranscriptSource string
	ErrorMessage     string
	ErrorCount       int
	FailedStage      string
	LastHeartbeat    *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time

	DownloadStartedAt        *time.Time
	DownloadCompletedAt      *time.Time
	TranscriptionStartedAt   *time.Time
	TranscriptionCompletedAt *time.Time
	EmbeddingStartedAt       *time.Time
	EmbeddingCompletedAt     *time.Time
}

// IsProcessing returns true when the record is inside an in-flight stage.
func (r Record) IsProcessing() bool {
	return IsProcessingStatus(r.Status)
}

// ResumptionStatus derives where a failed record re-enters the pipeline from
// its stage completion timestamps rather than from the failure site: an
// incomplete download restarts the whole pipeline, a completed download with
// no transcript resumes at transcription, and everything else resumes at
// embedding. The returned status is the waiting state before the stage, so
// the dispatcher claims resumed records exactly like fresh ones.
func (r Record) ResumptionStatus() Status {
	switch {
	case r.DownloadCompletedAt == nil:
		return StatusPending
	case r.TranscriptionCompletedAt == nil:
		return StatusDownloaded
	default:
		return StatusTranscribed
	}
}

// HealthSummary describes aggregated record counts per key lifecycle states.
// Exhausted counts failed records that have used up their retry budget.
type HealthSummary struct {
	Total      int
	Pending    int
	Processing int
	Failed     int
	Exhausted  int
	Completed  int
}

// DatabaseHealth captures diagnostic information about the catalog database.
type DatabaseHealth struct {
	DBPath           string
	DatabaseExists   bool
	DatabaseReadable bool
	SchemaVersion    string
	TableExists      bool
	ColumnsPresent   []string
	MissingColumns   []string
	IntegrityCheck   bool
	TotalRecords     int
	Error            string
}
