// Package vectorstore persists chunk embeddings in an embedded Badger
// database and answers similarity queries over them.
//
// Keys follow chunk/<video_id>/<chunk_index>. Each value holds the raw
// little-endian float32 vector followed by a JSON payload describing the
// chunk. Vectors are unit-normalized before storage, so the dot product of
// a stored vector and a unit query vector equals their cosine similarity.
package vectorstore
