package catalog

import "errors"

// ErrStaleRecord reports that a guarded update matched no row: the record
// changed (or disappeared) after the caller read it. Re-read and re-evaluate
// before retrying.
var ErrStaleRecord = errors.New("record modified concurrently")

// ErrInvalidTransition reports a status change outside the lifecycle table.
var ErrInvalidTransition = errors.New("invalid status transition")
