// Package catalog persists channels, videos, and ingestion records in SQLite
// and exposes helpers for driving the ingestion lifecycle.
//
// The Store manages database connections, schema initialization, stats
// queries, status transitions, and retry selection. Ingestion records capture
// audio artifacts, transcripts, failure bookkeeping, and per-stage timestamps
// so pipeline stages can coordinate without additional state.
//
// Every status mutation is guarded by the record's updated_at token: a write
// that matches zero rows means another worker got there first and surfaces as
// ErrStaleRecord. That guard is the only cross-worker coordination.
//
// Treat this package as the single source of truth for lifecycle semantics;
// when you add new statuses or record fields, update schema.sql and bump
// schemaVersion.
package catalog
