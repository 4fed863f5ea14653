package vectorstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"

	"github.com/chukwujekwu-code/sermon-hub/internal/services"
)

// Store wraps a Badger database holding chunk embeddings.
type Store struct {
	db     *badger.DB
	dim    int
	logger *slog.Logger
}

// badgerLoggerAdapter adapts slog.Logger to the badger.Logger interface.
type badgerLoggerAdapter struct {
	logger *slog.Logger
}

var _ badger.Logger = (*badgerLoggerAdapter)(nil)

func (bl *badgerLoggerAdapter) Errorf(msg string, items ...any) {
	bl.logger.Error(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Warningf(msg string, items ...any) {
	bl.logger.Warn(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Infof(msg string, items ...any) {
	bl.logger.Debug(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Debugf(msg string, items ...any) {
	bl.logger.Debug(fmt.Sprintf(msg, items...))
}

// Open opens the embedding index at dir, creating the directory when absent.
// dim is the vector dimensionality every stored record must match.
func Open(dir string, dim int, logger *slog.Logger) (*Store, error) {
	if dim <= 0 {
		return nil, services.Wrap(services.ErrConfiguration, "vectorstore", "open", fmt.Sprintf("invalid vector dimensions %d", dim), nil)
	}
	if logger == nil {
		logger = slog.Default()
	}

	info, err := os.Stat(dir)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, services.Wrap(services.ErrUnavailable, "vectorstore", "open", dir, err)
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, services.Wrap(services.ErrUnavailable, "vectorstore", "open", dir, err)
		}
	} else if !info.IsDir() {
		return nil, services.Wrap(services.ErrConfiguration, "vectorstore", "open", fmt.Sprintf("%s is not a directory", dir), nil)
	}

	opts := badger.DefaultOptions(dir)
	opts.Logger = &badgerLoggerAdapter{logger: logger}
	opts.Compression = options.None

	db, err := badger.Open(opts)
	if err != nil {
		return nil, services.Wrap(services.ErrUnavailable, "vectorstore", "open", dir, err)
	}

	store := &Store{db: db, dim: dim, logger: logger}
	if err := store.ensureDimensions(); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// OpenInMemory opens a throwaway in-memory index, used by tests.
func OpenInMemory(dim int) (*Store, error) {
	if dim <= 0 {
		return nil, services.Wrap(services.ErrConfiguration, "vectorstore", "open", fmt.Sprintf("invalid vector dimensions %d", dim), nil)
	}
	logger := slog.Default()

	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = &badgerLoggerAdapter{logger: logger}
	opts.Compression = options.None

	db, err := badger.Open(opts)
	if err != nil {
		return nil, services.Wrap(services.ErrUnavailable, "vectorstore", "open", "in-memory", err)
	}

	store := &Store{db: db, dim: dim, logger: logger}
	if err := store.ensureDimensions(); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// ensureDimensions records the store's dimensionality on first open and
// rejects reopening with a different embedding model geometry. Changing
// dimensions requires a fresh index and full re-ingestion.
func (s *Store) ensureDimensions() error {
	err := s.db.Update(func(tx *badger.Txn) error {
		item, err := tx.Get([]byte(dimensionsKey))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return tx.Set([]byte(dimensionsKey), []byte(strconv.Itoa(s.dim)))
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			stored, err := strconv.Atoi(string(val))
			if err != nil {
				return fmt.Errorf("corrupt dimensions marker %q", val)
			}
			if stored != s.dim {
				return services.Wrap(
					services.ErrConfiguration,
					"vectorstore",
					"open",
					fmt.Sprintf("index holds %d-dimension vectors, configuration expects %d", stored, s.dim),
					nil,
				)
			}
			return nil
		})
	})
	if err != nil {
		if errors.Is(err, services.ErrConfiguration) {
			return err
		}
		return fmt.Errorf("check index dimensions: %w", err)
	}
	return nil
}

// Dimensions returns the vector dimensionality the store was opened with.
func (s *Store) Dimensions() int {
	return s.dim
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// UpsertBatch writes records in a single transaction. Either every record in
// the batch lands or none do.
func (s *Store) UpsertBatch(ctx context.Context, records []EmbeddingRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(records) == 0 {
		return nil
	}
	for _, record := range records {
		if len(record.Vector) != s.dim {
			return services.Wrap(
				services.ErrValidation,
				"vectorstore",
				"upsert",
				fmt.Sprintf("chunk %s/%d has %d dimensions, store expects %d", record.VideoID, record.ChunkIndex, len(record.Vector), s.dim),
				nil,
			)
		}
	}

	err := s.db.Update(func(tx *badger.Txn) error {
		for _, record := range records {
			value, err := encodeRecord(record)
			if err != nil {
				return err
			}
			if err := tx.Set(chunkKey(record.VideoID, record.ChunkIndex), value); err != nil {
				return err
			}
		}
		return nil
	})
	return s.wrapOp("upsert batch", err)
}

// DeleteVideo removes every chunk stored for a video.
func (s *Store) DeleteVideo(ctx context.Context, videoID string) (int, error) {
	return s.deleteVideoChunks(ctx, videoID, 0)
}

// DeleteFrom removes chunks of a video with index >= fromIndex. Re-indexing
// calls this with the new chunk count so shrunken transcripts leave no
// orphaned tail entries behind.
func (s *Store) DeleteFrom(ctx context.Context, videoID string, fromIndex int) (int, error) {
	return s.deleteVideoChunks(ctx, videoID, fromIndex)
}

func (s *Store) deleteVideoChunks(ctx context.Context, videoID string, fromIndex int) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	prefix := videoKeyPrefix(videoID)
	deleted := 0
	err := s.db.Update(func(tx *badger.Txn) error {
		stale, err := collectStaleKeys(tx, prefix, fromIndex)
		if err != nil {
			return err
		}
		for _, key := range stale {
			if err := tx.Delete(key); err != nil {
				return err
			}
		}
		deleted = len(stale)
		return nil
	})
	if err != nil {
		return 0, s.wrapOp("delete chunks", err)
	}
	return deleted, nil
}

// collectStaleKeys gathers chunk keys under prefix with index >= fromIndex.
// The iterator is closed before the caller issues deletes.
func collectStaleKeys(tx *badger.Txn, prefix []byte, fromIndex int) ([][]byte, error) {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	opts.PrefetchValues = false
	iter := tx.NewIterator(opts)
	defer iter.Close()

	var stale [][]byte
	for iter.Rewind(); iter.Valid(); iter.Next() {
		key := iter.Item().Key()
		index, err := strconv.Atoi(string(key[len(prefix):]))
		if err != nil {
			return nil, fmt.Errorf("malformed chunk key %q: %w", key, err)
		}
		if index >= fromIndex {
			stale = append(stale, iter.Item().KeyCopy(nil))
		}
	}
	return stale, nil
}

// CountVideo reports how many chunks are stored for a video.
func (s *Store) CountVideo(ctx context.Context, videoID string) (int, error) {
	return s.countPrefix(ctx, videoKeyPrefix(videoID))
}

// Len reports the total number of stored chunks.
func (s *Store) Len(ctx context.Context) (int, error) {
	return s.countPrefix(ctx, []byte(chunkKeyPrefix))
}

func (s *Store) countPrefix(ctx context.Context, prefix []byte) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	count := 0
	err := s.db.View(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()
		for iter.Rewind(); iter.Valid(); iter.Next() {
			count++
		}
		return nil
	})
	if err != nil {
		return 0, s.wrapOp("count chunks", err)
	}
	return count, nil
}

// CheckHealth verifies the database still accepts reads.
func (s *Store) CheckHealth(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.db.IsClosed() {
		return services.Wrap(services.ErrUnavailable, "vectorstore", "health", "database closed", nil)
	}
	err := s.db.View(func(tx *badger.Txn) error {
		_, err := tx.Get([]byte(dimensionsKey))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		return err
	})
	return s.wrapOp("health check", err)
}

// wrapOp classifies database errors: a closed database is a dependency
// outage, everything else keeps its cause.
func (s *Store) wrapOp(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, badger.ErrDBClosed) {
		return services.Wrap(services.ErrUnavailable, "vectorstore", op, "database closed", err)
	}
	if errors.Is(err, services.ErrValidation) || errors.Is(err, services.ErrUnavailable) {
		return err
	}
	return fmt.Errorf("%s: %w", op, err)
}
