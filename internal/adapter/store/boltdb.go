package store

import (
	"encoding/binary"
	"encoding/json"
	"fmt"

	"bloxmate/internal/domain"
	"go.etcd.io/bbolt"
)

var (
	bucketRows  = []byte("rows")
	bucketCache = []byte("cache")
	bucketMeta  = []byte("meta")

	keyDimension = []byte("dimension")
	cacheHit     = []byte("true")
)

// BoltStore is the embedding store: append-only chunk rows keyed by sequence
// number, and the content-hash cache of processed files.
type BoltStore struct {
	db *bbolt.DB
}

func NewBoltStore(path string) (*BoltStore, error) {
	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, b := range [][]byte{bucketRows, bucketCache, bucketMeta} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", b, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &BoltStore{db: db}, nil
}

func (s *BoltStore) DB() *bbolt.DB {
	return s.db
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}

// HasCacheEntry reports whether the file identified by key was already embedded.
func (s *BoltStore) HasCacheEntry(key string) (bool, error) {
	var hit bool
	err := s.db.View(func(tx *bbolt.Tx) error {
		hit = tx.Bucket(bucketCache).Get([]byte(key)) != nil
		return nil
	})
	return hit, err
}

// CacheKeys lists every recorded "<path>|<hash>" key.
func (s *BoltStore) CacheKeys() ([]string, error) {
	var keys []string
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketCache).ForEach(func(k, _ []byte) error {
			keys = append(keys, string(k))
			return nil
		})
	})
	return keys, err
}

// CommitFile appends rows and records the cache entry in one transaction, so a
// crash never leaves rows without cache credit or the reverse. An empty key
// appends rows only.
func (s *BoltStore) CommitFile(key string, rows []domain.DocumentChunk) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketRows)
		meta := tx.Bucket(bucketMeta)

		dim := decodeInt(meta.Get(keyDimension))
		for _, row := range rows {
			if dim == 0 {
				dim = len(row.Embedding)
				if err := meta.Put(keyDimension, encodeInt(dim)); err != nil {
					return err
				}
			}
			if len(row.Embedding) != dim {
				return fmt.Errorf("%w: expected %d, got %d (row %s)", domain.ErrDimensionMismatch, dim, len(row.Embedding), row.ID)
			}

			seq, err := b.NextSequence()
			if err != nil {
				return err
			}
			data, err := json.Marshal(row)
			if err != nil {
				return err
			}
			if err := b.Put(encodeInt(int(seq)), data); err != nil {
				return err
			}
		}

		if key == "" {
			return nil
		}
		return tx.Bucket(bucketCache).Put([]byte(key), cacheHit)
	})
}

// Rows returns every row in insertion order.
func (s *BoltStore) Rows() ([]domain.DocumentChunk, error) {
	var rows []domain.DocumentChunk
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketRows).ForEach(func(k, v []byte) error {
			var row domain.DocumentChunk
			if err := json.Unmarshal(v, &row); err != nil {
				return fmt.Errorf("failed to decode row %d: %w", decodeInt(k), err)
			}
			rows = append(rows, row)
			return nil
		})
	})
	return rows, err
}

func (s *BoltStore) Count() (int, error) {
	var n int
	err := s.db.View(func(tx *bbolt.Tx) error {
		n = tx.Bucket(bucketRows).Stats().KeyN
		return nil
	})
	return n, err
}

// Dimension returns the embedding dimension fixed by the first row, or 0.
func (s *BoltStore) Dimension() (int, error) {
	var dim int
	err := s.db.View(func(tx *bbolt.Tx) error {
		dim = decodeInt(tx.Bucket(bucketMeta).Get(keyDimension))
		return nil
	})
	return dim, err
}

func encodeInt(v int) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(v))
	return buf
}

func decodeInt(b []byte) int {
	if len(b) != 8 {
		return 0
	}
	return int(binary.BigEndian.Uint64(b))
}
