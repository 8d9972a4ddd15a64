package usecase

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"bloxmate/config"
	"bloxmate/internal/adapter/chunker"
	"bloxmate/internal/adapter/extract"
	"bloxmate/internal/adapter/fs"
	"bloxmate/internal/adapter/store"
	"bloxmate/internal/domain"
)

type pipelineEnv struct {
	input    string
	store    *store.BoltStore
	embedder *fakeEmbedder
	slept    []time.Duration
	pipeline *Pipeline
}

func newPipelineEnv(t *testing.T, dim int) *pipelineEnv {
	t.Helper()

	tmpDir := t.TempDir()
	input := filepath.Join(tmpDir, "input")
	if err := os.MkdirAll(input, 0755); err != nil {
		t.Fatal(err)
	}

	st, err := store.NewBoltStore(filepath.Join(tmpDir, "embeddings.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { st.Close() })

	env := &pipelineEnv{input: input, store: st}
	env.rebuild(dim)
	return env
}

// rebuild swaps in a fresh pipeline and embedder over the same store.
func (e *pipelineEnv) rebuild(dim int) {
	cfg := config.DefaultConfig().Index
	cfg.BatchSize = 2
	cfg.BatchDelay = time.Second

	e.embedder = &fakeEmbedder{dim: dim, failOn: map[int]bool{}}
	e.pipeline = NewPipeline(
		fs.NewWalker([]string{"**/*"}, nil),
		extract.NewDefaultRegistry(),
		chunker.NewTextChunker(40, 10),
		e.embedder,
		e.store,
		cfg,
		nil,
	)
	e.pipeline.sleep = func(_ context.Context, d time.Duration) error {
		e.slept = append(e.slept, d)
		return nil
	}
}

func (e *pipelineEnv) write(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(e.input, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func (e *pipelineEnv) count(t *testing.T) int {
	t.Helper()
	n, err := e.store.Count()
	if err != nil {
		t.Fatal(err)
	}
	return n
}

const longText = "Infoblox NIOS powers the grid. Grid Manager is the web interface. DHCP leases are tracked in IPAM. DNS firewall blocks bad domains."

func TestPipeline_EmbedsAndCaches(t *testing.T) {
	env := newPipelineEnv(t, 4)
	path := env.write(t, "guide.txt", longText)
	env.write(t, "notes.md", "**Bold** _note_ about *DNS*")
	env.write(t, "image.png", "binary")

	result, err := env.pipeline.Run(context.Background(), env.input, nil)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if result.FilesEmbedded != 2 {
		t.Errorf("expected 2 files embedded, got %d", result.FilesEmbedded)
	}
	if result.FilesSkipped != 1 {
		t.Errorf("expected unsupported file skipped, got %d", result.FilesSkipped)
	}
	if result.ChunksEmbedded != env.count(t) {
		t.Errorf("expected %d rows, got %d", result.ChunksEmbedded, env.count(t))
	}

	rows, err := env.store.Rows()
	if err != nil {
		t.Fatal(err)
	}
	first := rows[0]
	if first.ID != "guide.txt#0" || first.Title != "guide.txt" || first.SourceURL != path || first.DeepLink != path || first.DeepLinkDescription != "Local file" {
		t.Errorf("unexpected row metadata: %+v", first)
	}
	last := rows[len(rows)-1]
	if last.Content != "Bold note about DNS" {
		t.Errorf("expected emphasis stripped, got %q", last.Content)
	}

	for _, key := range []string{"guide.txt", "notes.md"} {
		hash, _ := fs.HashFile(filepath.Join(env.input, key))
		hit, _ := env.store.HasCacheEntry(domain.CacheKey(filepath.Join(env.input, key), hash))
		if !hit {
			t.Errorf("expected cache entry for %s", key)
		}
	}
}

func TestPipeline_RerunIsNoop(t *testing.T) {
	env := newPipelineEnv(t, 4)
	env.write(t, "guide.txt", longText)
	env.write(t, "notes.md", "short note")

	if _, err := env.pipeline.Run(context.Background(), env.input, nil); err != nil {
		t.Fatal(err)
	}
	before := env.count(t)

	env.rebuild(4)
	result, err := env.pipeline.Run(context.Background(), env.input, nil)
	if err != nil {
		t.Fatal(err)
	}

	if env.embedder.calls != 0 {
		t.Errorf("expected no embedding calls on rerun, got %d", env.embedder.calls)
	}
	if result.FilesCached != 2 {
		t.Errorf("expected 2 cache hits, got %d", result.FilesCached)
	}
	if env.count(t) != before {
		t.Errorf("expected row count %d, got %d", before, env.count(t))
	}
}

func TestPipeline_ChangedFileIsReembedded(t *testing.T) {
	env := newPipelineEnv(t, 4)
	env.write(t, "guide.txt", longText)
	env.write(t, "notes.md", "short note")

	if _, err := env.pipeline.Run(context.Background(), env.input, nil); err != nil {
		t.Fatal(err)
	}

	env.rebuild(4)
	env.write(t, "notes.md", "short notE")
	result, err := env.pipeline.Run(context.Background(), env.input, nil)
	if err != nil {
		t.Fatal(err)
	}

	if result.FilesEmbedded != 1 || result.FilesCached != 1 {
		t.Errorf("expected exactly one file re-embedded, got embedded=%d cached=%d", result.FilesEmbedded, result.FilesCached)
	}
	if env.embedder.texts != 1 {
		t.Errorf("expected 1 chunk embedded, got %d", env.embedder.texts)
	}
}

func TestPipeline_BatchesAndDelay(t *testing.T) {
	env := newPipelineEnv(t, 4)
	env.write(t, "guide.txt", longText)

	result, err := env.pipeline.Run(context.Background(), env.input, nil)
	if err != nil {
		t.Fatal(err)
	}

	batches := (result.ChunksEmbedded + 1) / 2
	if env.embedder.calls != batches {
		t.Errorf("expected %d embedding calls, got %d", batches, env.embedder.calls)
	}
	if len(env.slept) != batches-1 {
		t.Errorf("expected %d delays between batches, got %d", batches-1, len(env.slept))
	}
	for _, d := range env.slept {
		if d != time.Second {
			t.Errorf("expected 1s delay, got %v", d)
		}
	}
}

func TestPipeline_FailedBatchIsDropped(t *testing.T) {
	env := newPipelineEnv(t, 4)
	env.write(t, "guide.txt", longText)
	env.embedder.failOn[1] = true

	result, err := env.pipeline.Run(context.Background(), env.input, nil)
	if err != nil {
		t.Fatal(err)
	}

	if result.BatchesFailed != 1 {
		t.Errorf("expected 1 failed batch, got %d", result.BatchesFailed)
	}
	if result.FilesEmbedded != 1 {
		t.Errorf("expected partially embedded file to count, got %d", result.FilesEmbedded)
	}
	rows, _ := env.store.Rows()
	if len(rows) == 0 || rows[0].ID != "guide.txt#2" {
		t.Errorf("expected first batch dropped, got %+v", rows)
	}
}

func TestPipeline_AllBatchesFailedIsRetried(t *testing.T) {
	env := newPipelineEnv(t, 4)
	env.write(t, "notes.md", "short note")
	env.embedder.failOn[1] = true

	result, err := env.pipeline.Run(context.Background(), env.input, nil)
	if err != nil {
		t.Fatal(err)
	}
	if result.FilesFailed != 1 || env.count(t) != 0 {
		t.Fatalf("expected failed file with no rows, got failed=%d rows=%d", result.FilesFailed, env.count(t))
	}

	env.rebuild(4)
	result, err = env.pipeline.Run(context.Background(), env.input, nil)
	if err != nil {
		t.Fatal(err)
	}
	if result.FilesEmbedded != 1 || env.count(t) != 1 {
		t.Errorf("expected retry to embed the file, got embedded=%d rows=%d", result.FilesEmbedded, env.count(t))
	}
}

func TestPipeline_InterruptedRunKeepsCommittedFiles(t *testing.T) {
	env := newPipelineEnv(t, 4)
	env.write(t, "a.txt", "first file")
	env.write(t, "b.txt", "second file")

	ctx, cancel := context.WithCancel(context.Background())
	_, err := env.pipeline.Run(ctx, env.input, func(done, total int, path string) {
		if done == 1 {
			cancel()
		}
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}

	env.rebuild(4)
	result, err := env.pipeline.Run(context.Background(), env.input, nil)
	if err != nil {
		t.Fatal(err)
	}
	if result.FilesCached != 1 || result.FilesEmbedded != 1 {
		t.Errorf("expected a.txt cached and b.txt embedded, got cached=%d embedded=%d", result.FilesCached, result.FilesEmbedded)
	}
	if env.count(t) != 2 {
		t.Errorf("expected 2 rows, got %d", env.count(t))
	}
}

func TestPipeline_DimensionMismatchAborts(t *testing.T) {
	env := newPipelineEnv(t, 4)
	env.write(t, "a.txt", "first file")
	if _, err := env.pipeline.Run(context.Background(), env.input, nil); err != nil {
		t.Fatal(err)
	}

	env.rebuild(8)
	env.write(t, "b.txt", "second file")
	_, err := env.pipeline.Run(context.Background(), env.input, nil)
	if !errors.Is(err, domain.ErrDimensionMismatch) {
		t.Fatalf("expected ErrDimensionMismatch, got %v", err)
	}
	if env.count(t) != 1 {
		t.Errorf("expected mismatched rows rolled back, got %d rows", env.count(t))
	}
}

func TestPipeline_Progress(t *testing.T) {
	env := newPipelineEnv(t, 4)
	env.write(t, "a.txt", "one")
	env.write(t, "b.txt", "two")

	var seen []string
	_, err := env.pipeline.Run(context.Background(), env.input, func(done, total int, path string) {
		if total != 2 {
			t.Errorf("expected total 2, got %d", total)
		}
		seen = append(seen, filepath.Base(path))
	})
	if err != nil {
		t.Fatal(err)
	}
	if strings.Join(seen, ",") != "a.txt,b.txt" {
		t.Errorf("unexpected progress order %v", seen)
	}
}

func TestCleanText(t *testing.T) {
	if got := cleanText("  **Bold** and *em* with snake_case  "); got != "Bold and em with snakecase" {
		t.Errorf("unexpected cleaned text %q", got)
	}
}
