package usecase

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"bloxmate/internal/adapter/store"
	"bloxmate/internal/logging"
)

// IndexLoader returns the persisted vector index when it still matches the
// embedding store, and rebuilds and persists it otherwise.
type IndexLoader struct {
	store     *store.BoltStore
	indexPath string
	logger    *zap.Logger
}

func NewIndexLoader(st *store.BoltStore, indexPath string, logger *zap.Logger) *IndexLoader {
	return &IndexLoader{store: st, indexPath: indexPath, logger: logging.OrNop(logger)}
}

// Load reports whether the index was rebuilt.
func (l *IndexLoader) Load() (*store.VectorIndex, bool, error) {
	current, err := l.store.CurrentSchemaInfo()
	if err != nil {
		return nil, false, err
	}

	var saved *store.SchemaInfo
	var idx *store.VectorIndex
	if _, statErr := os.Stat(l.indexPath); statErr == nil {
		idx, saved, err = store.LoadIndex(l.indexPath)
		if err != nil {
			l.logger.Warn("persisted index unreadable, rebuilding", zap.Error(err))
			saved = nil
		}
	} else if !errors.Is(statErr, os.ErrNotExist) {
		return nil, false, statErr
	}

	check := store.CheckIndex(saved, current)
	if !check.NeedsRebuild {
		l.logger.Debug("using persisted index", zap.Int("rows", idx.Len()))
		return idx, false, nil
	}
	l.logger.Info("rebuilding vector index", zap.String("reason", check.Reason))

	idx, err = l.Rebuild(current)
	if err != nil {
		return nil, false, err
	}
	return idx, true, nil
}

// LoadOrEmpty is Load for callers that can answer without local knowledge:
// any failure is logged and an empty index is returned instead.
func (l *IndexLoader) LoadOrEmpty() *store.VectorIndex {
	idx, rebuilt, err := l.Load()
	if err != nil {
		l.logger.Warn("vector index unavailable, answering without local knowledge", zap.Error(err))
		idx, _ = store.BuildIndex(nil)
		return idx
	}
	if rebuilt {
		l.logger.Info("vector index rebuilt", zap.Int("rows", idx.Len()))
	}
	return idx
}

// Rebuild builds the index from every store row and persists it with info.
func (l *IndexLoader) Rebuild(info *store.SchemaInfo) (*store.VectorIndex, error) {
	if info == nil {
		var err error
		if info, err = l.store.CurrentSchemaInfo(); err != nil {
			return nil, err
		}
	}

	rows, err := l.store.Rows()
	if err != nil {
		return nil, fmt.Errorf("failed to read embedding store: %w", err)
	}
	idx, err := store.BuildIndex(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to build index: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(l.indexPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create index directory: %w", err)
	}
	if err := idx.Persist(l.indexPath, info); err != nil {
		return nil, err
	}
	return idx, nil
}
