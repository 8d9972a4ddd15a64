package store

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"go.etcd.io/bbolt"
)

// CurrentSchemaVersion is the persisted index format version.
// Increment this when making breaking changes to the index layout.
const CurrentSchemaVersion = 1

// SchemaInfo is stored beside a persisted vector index and identifies the
// embedding store contents it was built from.
type SchemaInfo struct {
	Version     int    `json:"version"`
	Fingerprint string `json:"fingerprint"`
	Rows        int    `json:"rows"`
	Dimension   int    `json:"dimension"`
}

// Fingerprint hashes every row key and value of the store.
func (s *BoltStore) Fingerprint() (string, error) {
	h := sha256.New()
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketRows).ForEach(func(k, v []byte) error {
			h.Write(k)
			h.Write(v)
			return nil
		})
	})
	if err != nil {
		return "", fmt.Errorf("failed to fingerprint store: %w", err)
	}
	sum := h.Sum(nil)
	return hex.EncodeToString(sum[:8]), nil
}

// CurrentSchemaInfo describes the store as it is now.
func (s *BoltStore) CurrentSchemaInfo() (*SchemaInfo, error) {
	fp, err := s.Fingerprint()
	if err != nil {
		return nil, err
	}
	n, err := s.Count()
	if err != nil {
		return nil, err
	}
	dim, err := s.Dimension()
	if err != nil {
		return nil, err
	}
	return &SchemaInfo{
		Version:     CurrentSchemaVersion,
		Fingerprint: fp,
		Rows:        n,
		Dimension:   dim,
	}, nil
}

// MigrationResult describes whether a persisted index can be reused.
type MigrationResult struct {
	NeedsRebuild bool
	Reason       string
}

// CheckIndex compares the schema info saved with an index against the store.
func CheckIndex(saved, current *SchemaInfo) *MigrationResult {
	switch {
	case saved == nil:
		return &MigrationResult{NeedsRebuild: true, Reason: "no persisted index"}
	case saved.Version != current.Version:
		return &MigrationResult{NeedsRebuild: true, Reason: fmt.Sprintf("index format changed (v%d -> v%d)", saved.Version, current.Version)}
	case saved.Fingerprint != current.Fingerprint:
		return &MigrationResult{NeedsRebuild: true, Reason: fmt.Sprintf("embedding store changed (%d -> %d rows)", saved.Rows, current.Rows)}
	}
	return &MigrationResult{}
}
