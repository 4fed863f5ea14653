package vectorstore

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/chukwujekwu-code/sermon-hub/internal/services"
)

// Hit is one chunk scored against a query vector.
type Hit struct {
	VideoID     string
	ChunkIndex  int
	Score       float32
	Text        string
	StartWord   int
	EndWord     int
	PublishedAt time.Time
}

// Search scans every stored chunk, scores it with a dot product against the
// unit query vector, and returns up to limit hits at or above minScore,
// best first. The payload is only decoded for chunks that clear the
// threshold.
func (s *Store) Search(ctx context.Context, vector []float32, minScore float32, limit int) ([]Hit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(vector) != s.dim {
		return nil, services.Wrap(
			services.ErrValidation,
			"vectorstore",
			"search",
			fmt.Sprintf("query vector has %d dimensions, store expects %d", len(vector), s.dim),
			nil,
		)
	}
	if limit <= 0 {
		return nil, nil
	}

	var hits []Hit
	err := s.db.View(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(chunkKeyPrefix)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			item := iter.Item()
			err := item.Value(func(value []byte) error {
				stored, err := decodeVector(value, s.dim)
				if err != nil {
					return fmt.Errorf("key %s: %w", item.Key(), err)
				}
				score := dotProduct(vector, stored)
				if score < minScore {
					return nil
				}
				meta, err := decodePayload(value, s.dim)
				if err != nil {
					return fmt.Errorf("key %s: %w", item.Key(), err)
				}
				hits = append(hits, Hit{
					VideoID:     meta.VideoID,
					ChunkIndex:  meta.ChunkIndex,
					Score:       score,
					Text:        meta.Text,
					StartWord:   meta.StartWord,
					EndWord:     meta.EndWord,
					PublishedAt: meta.PublishedAt,
				})
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, s.wrapOp("search", err)
	}

	slices.SortFunc(hits, func(a, b Hit) int {
		if a.Score > b.Score {
			return -1
		}
		if a.Score < b.Score {
			return 1
		}
		return 0
	})
	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}
