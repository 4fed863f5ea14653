package vectorstore

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"
)

// Key prefixes for stored data.
const (
	chunkKeyPrefix = "chunk/"
	dimensionsKey  = "meta/dimensions"
)

// EmbeddingRecord is one indexed transcript chunk with its vector.
type EmbeddingRecord struct {
	VideoID     string
	ChunkIndex  int
	Vector      []float32
	Text        string
	StartWord   int
	EndWord     int
	PublishedAt time.Time
}

type chunkPayload struct {
	VideoID     string    `json:"video_id"`
	ChunkIndex  int       `json:"chunk_index"`
	Text        string    `json:"text"`
	StartWord   int       `json:"start_word"`
	EndWord     int       `json:"end_word"`
	PublishedAt time.Time `json:"published_at"`
}

func chunkKey(videoID string, index int) []byte {
	return []byte(chunkKeyPrefix + videoID + "/" + strconv.Itoa(index))
}

// videoKeyPrefix covers every chunk key of one video. YouTube video IDs never
// contain '/', so the separator cannot collide with an ID.
func videoKeyPrefix(videoID string) []byte {
	return []byte(chunkKeyPrefix + videoID + "/")
}

func encodeRecord(record EmbeddingRecord) ([]byte, error) {
	meta, err := json.Marshal(chunkPayload{
		VideoID:     record.VideoID,
		ChunkIndex:  record.ChunkIndex,
		Text:        record.Text,
		StartWord:   record.StartWord,
		EndWord:     record.EndWord,
		PublishedAt: record.PublishedAt,
	})
	if err != nil {
		return nil, fmt.Errorf("encode chunk payload: %w", err)
	}
	buf := make([]byte, len(record.Vector)*4, len(record.Vector)*4+len(meta))
	for i, v := range record.Vector {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return append(buf, meta...), nil
}

func decodeVector(value []byte, dim int) ([]float32, error) {
	if len(value) < dim*4 {
		return nil, fmt.Errorf("value holds %d bytes, want at least %d for a %d-dimension vector", len(value), dim*4, dim)
	}
	vec := make([]float32, dim)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(value[i*4:]))
	}
	return vec, nil
}

func decodePayload(value []byte, dim int) (chunkPayload, error) {
	var meta chunkPayload
	if len(value) < dim*4 {
		return meta, fmt.Errorf("value holds %d bytes, want at least %d for a %d-dimension vector", len(value), dim*4, dim)
	}
	if err := json.Unmarshal(value[dim*4:], &meta); err != nil {
		return meta, fmt.Errorf("decode chunk payload: %w", err)
	}
	return meta, nil
}

func dotProduct(a, b []float32) float32 {
	var sum float32
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		sum += a[i] * b[i]
	}
	return sum
}
