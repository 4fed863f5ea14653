// Package embedding turns text into unit-length vectors through an
// OpenAI-compatible embeddings endpoint. The Embedder interface keeps the
// indexer and the search engine independent of the concrete backend, and a
// deterministic stub stands in for the endpoint in tests.
package embedding
