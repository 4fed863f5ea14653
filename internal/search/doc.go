// Package search recommends sermon videos for an emotional state.
//
// A query is expanded into search phrases, every phrase is embedded in one
// call, and each vector runs a similarity search over the chunk index. Hits
// are fused per video by keeping the single best chunk score across all
// phrases, filtered by a relevance threshold, enriched from the catalog,
// and ranked by score with recency breaking ties.
package search
