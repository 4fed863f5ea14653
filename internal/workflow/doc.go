// Package workflow drives ingestion records through the download,
// transcribe, and embed stages.
//
// A single dispatcher claims the oldest startable record by transitioning
// it into the stage's processing status and hands it to a bounded worker
// pool, so claims are settled by the catalog's optimistic update token
// rather than by locks. A heartbeat loop keeps in-flight records visibly
// alive, and a retry scheduler reclaims stale records and resumes failed
// ones once their backoff window has elapsed.
package workflow
