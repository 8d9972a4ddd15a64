package store

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"sort"

	"bloxmate/internal/domain"
	"go.etcd.io/bbolt"
)

var (
	bucketVectors = []byte("vectors")
	bucketSchema  = []byte("schema")
	keySchemaInfo = []byte("info")
)

// VectorIndex is an in-memory brute-force cosine index over the embedding
// store rows. Row order is preserved and used to break score ties.
type VectorIndex struct {
	dimension   int
	rows        []domain.DocumentChunk
	norms       []float64
	fingerprint string
}

// BuildIndex builds an index from rows. Every row must have the same dimension.
func BuildIndex(rows []domain.DocumentChunk) (*VectorIndex, error) {
	idx := &VectorIndex{
		rows:  make([]domain.DocumentChunk, 0, len(rows)),
		norms: make([]float64, 0, len(rows)),
	}
	for i, row := range rows {
		if idx.dimension == 0 {
			idx.dimension = len(row.Embedding)
		}
		if len(row.Embedding) != idx.dimension || idx.dimension == 0 {
			return nil, fmt.Errorf("%w: row %d has %d values, index expects %d", domain.ErrDimensionMismatch, i, len(row.Embedding), idx.dimension)
		}
		idx.rows = append(idx.rows, row)
		idx.norms = append(idx.norms, norm(row.Embedding))
	}
	return idx, nil
}

func (idx *VectorIndex) Len() int {
	return len(idx.rows)
}

func (idx *VectorIndex) Dimension() int {
	return idx.dimension
}

// Fingerprint identifies the store contents the index was persisted or loaded
// with. It is empty for an index that was only built in memory.
func (idx *VectorIndex) Fingerprint() string {
	return idx.fingerprint
}

// Search finds the k nearest rows to the query using cosine similarity.
func (idx *VectorIndex) Search(query []float32, k int) ([]domain.ScoredChunk, error) {
	if len(idx.rows) == 0 || k <= 0 {
		return nil, nil
	}
	if len(query) != idx.dimension {
		return nil, fmt.Errorf("%w: query has %d values, index expects %d", domain.ErrDimensionMismatch, len(query), idx.dimension)
	}

	qn := norm(query)
	scores := make([]domain.ScoredChunk, len(idx.rows))
	for i, row := range idx.rows {
		scores[i] = domain.ScoredChunk{
			Chunk: row,
			Row:   i,
			Score: cosine(query, row.Embedding, qn, idx.norms[i]),
		}
	}

	// Stable sort keeps row order for equal scores.
	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].Score > scores[j].Score
	})

	if k > len(scores) {
		k = len(scores)
	}
	return scores[:k], nil
}

// Persist writes the index and the schema info it was built against to path,
// replacing any previous file.
func (idx *VectorIndex) Persist(path string, info *SchemaInfo) error {
	tmp := path + ".tmp"
	os.Remove(tmp)

	db, err := bbolt.Open(tmp, 0600, nil)
	if err != nil {
		return fmt.Errorf("failed to create index file: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		vb, err := tx.CreateBucket(bucketVectors)
		if err != nil {
			return err
		}
		for i, row := range idx.rows {
			data, err := json.Marshal(row)
			if err != nil {
				return err
			}
			if err := vb.Put(encodeInt(i), data); err != nil {
				return err
			}
		}

		sb, err := tx.CreateBucket(bucketSchema)
		if err != nil {
			return err
		}
		data, err := json.Marshal(info)
		if err != nil {
			return err
		}
		return sb.Put(keySchemaInfo, data)
	})
	if cerr := db.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to write index: %w", err)
	}

	if err := os.Rename(tmp, path); err != nil {
		return err
	}
	if info != nil {
		idx.fingerprint = info.Fingerprint
	}
	return nil
}

// LoadIndex reads an index written by Persist along with its schema info.
func LoadIndex(path string) (*VectorIndex, *SchemaInfo, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{ReadOnly: true})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open index file: %w", err)
	}
	defer db.Close()

	var rows []domain.DocumentChunk
	var info SchemaInfo
	err = db.View(func(tx *bbolt.Tx) error {
		sb := tx.Bucket(bucketSchema)
		vb := tx.Bucket(bucketVectors)
		if sb == nil || vb == nil {
			return fmt.Errorf("index file is missing buckets")
		}
		if err := json.Unmarshal(sb.Get(keySchemaInfo), &info); err != nil {
			return fmt.Errorf("failed to decode schema info: %w", err)
		}
		return vb.ForEach(func(_, v []byte) error {
			var row domain.DocumentChunk
			if err := json.Unmarshal(v, &row); err != nil {
				return err
			}
			rows = append(rows, row)
			return nil
		})
	})
	if err != nil {
		return nil, nil, err
	}

	idx, err := BuildIndex(rows)
	if err != nil {
		return nil, nil, err
	}
	idx.fingerprint = info.Fingerprint
	return idx, &info, nil
}

func norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

// cosine calculates the cosine similarity given precomputed norms.
func cosine(a, b []float32, normA, normB float64) float64 {
	if len(a) != len(b) || normA == 0 || normB == 0 {
		return 0
	}

	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot / (normA * normB)
}
