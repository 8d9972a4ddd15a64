package usecase

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"bloxmate/config"
	"bloxmate/internal/adapter/fs"
	"bloxmate/internal/domain"
	"bloxmate/internal/logging"
	"bloxmate/internal/port"
)

// ProgressFunc is called after each file is handled.
type ProgressFunc func(done, total int, path string)

// Pipeline walks a folder and embeds every new or changed document into the
// embedding store. Each file's rows and cache entry are committed together.
type Pipeline struct {
	walker     port.FileWalker
	extractor  port.Extractor
	chunker    port.Chunker
	embedder   port.Embedder
	store      port.EmbeddingStore
	batchSize  int
	batchDelay time.Duration
	sleep      func(ctx context.Context, d time.Duration) error
	logger     *zap.Logger
}

func NewPipeline(
	walker port.FileWalker,
	extractor port.Extractor,
	chunker port.Chunker,
	embedder port.Embedder,
	store port.EmbeddingStore,
	cfg config.IndexConfig,
	logger *zap.Logger,
) *Pipeline {
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 30
	}
	return &Pipeline{
		walker:     walker,
		extractor:  extractor,
		chunker:    chunker,
		embedder:   embedder,
		store:      store,
		batchSize:  batchSize,
		batchDelay: cfg.BatchDelay,
		sleep:      sleepContext,
		logger:     logging.OrNop(logger),
	}
}

// PipelineResult contains the results of a pipeline run.
type PipelineResult struct {
	FilesSeen      int
	FilesEmbedded  int
	FilesCached    int
	FilesSkipped   int
	FilesFailed    int
	ChunksEmbedded int
	BatchesFailed  int
	EmbedCalls     int
	Errors         []string
}

// Run processes folder. Only a dimension mismatch or a store failure stops
// the run; per-file problems are recorded and skipped.
func (p *Pipeline) Run(ctx context.Context, folder string, progress ProgressFunc) (*PipelineResult, error) {
	result := &PipelineResult{}

	files, err := p.walker.Walk(folder)
	if err != nil {
		return nil, fmt.Errorf("failed to walk directory: %w", err)
	}
	result.FilesSeen = len(files)

	for i, file := range files {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if err := p.processFile(ctx, file.Path, result); err != nil {
			return result, err
		}
		if progress != nil {
			progress(i+1, len(files), file.Path)
		}
	}
	return result, nil
}

func (p *Pipeline) processFile(ctx context.Context, path string, result *PipelineResult) error {
	log := p.logger.With(zap.String("file", path))

	hash, err := fs.HashFile(path)
	if err != nil {
		log.Warn("failed to hash file", zap.Error(err))
		result.FilesSkipped++
		result.Errors = append(result.Errors, fmt.Sprintf("failed to hash %s: %v", path, err))
		return nil
	}
	key := domain.CacheKey(path, hash)

	hit, err := p.store.HasCacheEntry(key)
	if err != nil {
		return fmt.Errorf("failed to read cache: %w", err)
	}
	if hit {
		log.Debug("skipping cached file")
		result.FilesCached++
		return nil
	}

	text, err := p.extractor.Extract(path)
	if err != nil {
		if errors.Is(err, domain.ErrUnsupportedFormat) {
			log.Warn("skipping unsupported file")
		} else {
			log.Warn("failed to extract file", zap.Error(err))
			result.Errors = append(result.Errors, fmt.Sprintf("failed to extract %s: %v", path, err))
		}
		result.FilesSkipped++
		return nil
	}

	chunks := p.chunker.Split(cleanText(text))
	rows, failed, err := p.embedChunks(ctx, path, chunks, result)
	if err != nil {
		return err
	}
	if len(chunks) > 0 && failed == batchCount(len(chunks), p.batchSize) {
		// Nothing embedded: leave uncached so the next run retries.
		log.Warn("every batch failed, file will be retried")
		result.FilesFailed++
		return nil
	}

	if err := p.store.CommitFile(key, rows); err != nil {
		return fmt.Errorf("failed to commit %s: %w", path, err)
	}
	result.FilesEmbedded++
	result.ChunksEmbedded += len(rows)
	return nil
}

// embedChunks embeds chunks in batches, dropping batches that fail. It
// returns the number of failed batches, or an error if ctx was cancelled.
func (p *Pipeline) embedChunks(ctx context.Context, path string, chunks []string, result *PipelineResult) ([]domain.DocumentChunk, int, error) {
	base := filepath.Base(path)
	var rows []domain.DocumentChunk
	failed := 0

	for start := 0; start < len(chunks); start += p.batchSize {
		if start > 0 && p.batchDelay > 0 {
			if err := p.sleep(ctx, p.batchDelay); err != nil {
				return nil, 0, err
			}
		}

		end := min(start+p.batchSize, len(chunks))
		batch := chunks[start:end]

		result.EmbedCalls++
		vectors, err := p.embedder.Embed(ctx, batch)
		if err == nil && len(vectors) != len(batch) {
			err = fmt.Errorf("got %d embeddings for %d chunks", len(vectors), len(batch))
		}
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, 0, ctxErr
			}
			p.logger.Warn("embedding batch failed",
				zap.String("file", path), zap.Int("start", start), zap.Int("end", end), zap.Error(err))
			result.BatchesFailed++
			failed++
			continue
		}

		for i, text := range batch {
			rows = append(rows, domain.DocumentChunk{
				ID:                  fmt.Sprintf("%s#%d", base, start+i),
				Content:             text,
				Embedding:           vectors[i],
				SourceURL:           path,
				Title:               base,
				DeepLink:            path,
				DeepLinkDescription: "Local file",
			})
		}
	}
	return rows, failed, nil
}

func batchCount(n, size int) int {
	return (n + size - 1) / size
}

var emphasis = strings.NewReplacer("**", "", "*", "", "_", "")

// cleanText strips markdown emphasis characters.
func cleanText(text string) string {
	return strings.TrimSpace(emphasis.Replace(text))
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
