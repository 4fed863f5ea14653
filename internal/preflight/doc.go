// Package preflight provides readiness checks for the directories, external
// binaries, and API endpoints the ingest pipeline depends on.
//
// These checks run in two contexts:
//   - The daemon calls RunAll once at startup. A failed required check stops
//     the daemon from starting; a failed optional check is logged and
//     reported through the status API.
//   - The CLI "sermonhub status" command uses individual check functions
//     (CheckSystemDeps, CheckEmbeddingsFromConfig) to display local
//     readiness alongside daemon state.
package preflight
