// Package api defines wire-format types and converters for the HTTP API
// layer, plus the client the CLI uses to talk to a running daemon. It
// translates catalog and workflow models into transport DTOs so consumers
// never couple to internal types.
//
// # Key Types
//
// IngestRecord: transport representation of an ingestion record with stage
// timestamps and failure context.
//
// WorkflowStatus: daemon running state, queue stats, stage health, and the
// last touched record.
//
// DaemonStatus: aggregated runtime information including preflight findings.
//
// # Design Notes
//
// DTOs use snake_case JSON tags matching the public search payload.
// Internal enums (catalog.Status) are exposed as lowercase strings.
// Timestamps use RFC3339 with milliseconds.
package api
