// Package stages implements the pipeline stage handlers: download acquires
// captions or audio, transcribe produces text, embed indexes it for search.
// Handlers mutate the record in memory; the workflow manager persists status
// advances through the optimistic catalog store.
package stages
