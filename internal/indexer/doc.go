// Package indexer turns a transcript into indexed embedding chunks.
//
// A transcript is cleaned, split into overlapping word windows, embedded
// batch by batch, and upserted into the vector store under stable
// (video, chunk index) keys. Stale chunks beyond the new chunk count are
// pruned afterwards, so re-indexing a video converges to exactly the new
// chunk set no matter what earlier runs left behind.
package indexer
