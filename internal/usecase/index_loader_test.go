package usecase

import (
	"os"
	"path/filepath"
	"testing"

	"bloxmate/internal/adapter/store"
	"bloxmate/internal/domain"
)

func newLoaderEnv(t *testing.T) (*store.BoltStore, *IndexLoader, string) {
	t.Helper()
	tmpDir := t.TempDir()

	st, err := store.NewBoltStore(filepath.Join(tmpDir, "embeddings.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { st.Close() })

	indexPath := filepath.Join(tmpDir, "index", "vectors.db")
	return st, NewIndexLoader(st, indexPath, nil), indexPath
}

func commitRow(t *testing.T, st *store.BoltStore, key, id string) {
	t.Helper()
	row := domain.DocumentChunk{ID: id, Content: id, Embedding: []float32{1, 0, 1}}
	if err := st.CommitFile(key, []domain.DocumentChunk{row}); err != nil {
		t.Fatal(err)
	}
}

func TestIndexLoader_BuildsThenReuses(t *testing.T) {
	st, loader, indexPath := newLoaderEnv(t)
	commitRow(t, st, "a", "a#0")

	idx, rebuilt, err := loader.Load()
	if err != nil {
		t.Fatalf("first load: %v", err)
	}
	if !rebuilt {
		t.Error("expected first load to build the index")
	}
	if idx.Len() != 1 {
		t.Errorf("expected 1 row, got %d", idx.Len())
	}
	if _, err := os.Stat(indexPath); err != nil {
		t.Errorf("expected persisted index: %v", err)
	}

	idx, rebuilt, err = loader.Load()
	if err != nil {
		t.Fatalf("second load: %v", err)
	}
	if rebuilt {
		t.Error("expected second load to reuse the persisted index")
	}
	if idx.Len() != 1 {
		t.Errorf("expected 1 row, got %d", idx.Len())
	}
}

func TestIndexLoader_RebuildsAfterStoreChange(t *testing.T) {
	st, loader, _ := newLoaderEnv(t)
	commitRow(t, st, "a", "a#0")
	if _, _, err := loader.Load(); err != nil {
		t.Fatal(err)
	}

	commitRow(t, st, "b", "b#0")

	idx, rebuilt, err := loader.Load()
	if err != nil {
		t.Fatal(err)
	}
	if !rebuilt {
		t.Error("expected rebuild after the store changed")
	}
	if idx.Len() != 2 {
		t.Errorf("expected 2 rows, got %d", idx.Len())
	}
}

func TestIndexLoader_UnreadableIndexIsRebuilt(t *testing.T) {
	st, loader, indexPath := newLoaderEnv(t)
	commitRow(t, st, "a", "a#0")

	if err := os.MkdirAll(filepath.Dir(indexPath), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(indexPath, []byte("not a bolt file"), 0644); err != nil {
		t.Fatal(err)
	}

	idx, rebuilt, err := loader.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !rebuilt || idx.Len() != 1 {
		t.Errorf("expected rebuilt index with 1 row, got rebuilt=%v len=%d", rebuilt, idx.Len())
	}
}

func TestIndexLoader_EmptyStore(t *testing.T) {
	_, loader, _ := newLoaderEnv(t)

	idx, _, err := loader.Load()
	if err != nil {
		t.Fatal(err)
	}
	if idx.Len() != 0 {
		t.Errorf("expected empty index, got %d rows", idx.Len())
	}
}

func TestIndexLoader_FingerprintFollowsStore(t *testing.T) {
	st, loader, _ := newLoaderEnv(t)
	commitRow(t, st, "a", "a#0")

	first, _, err := loader.Load()
	if err != nil {
		t.Fatal(err)
	}
	fp, err := st.Fingerprint()
	if err != nil {
		t.Fatal(err)
	}
	if first.Fingerprint() != fp {
		t.Errorf("expected index fingerprint %s, got %s", fp, first.Fingerprint())
	}

	commitRow(t, st, "b", "b#0")
	second, _, err := loader.Load()
	if err != nil {
		t.Fatal(err)
	}
	if second.Fingerprint() == first.Fingerprint() {
		t.Error("expected the fingerprint to change with the store")
	}
}

func TestIndexLoader_LoadOrEmpty(t *testing.T) {
	st, loader, _ := newLoaderEnv(t)
	commitRow(t, st, "a", "a#0")
	if idx := loader.LoadOrEmpty(); idx.Len() != 1 {
		t.Errorf("expected 1 row, got %d", idx.Len())
	}

	// An index path below a regular file can be neither read nor written.
	blocker := filepath.Join(t.TempDir(), "not-a-dir")
	if err := os.WriteFile(blocker, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	broken := NewIndexLoader(st, filepath.Join(blocker, "vectors.db"), nil)
	if _, _, err := broken.Load(); err == nil {
		t.Fatal("expected Load to fail")
	}

	idx := broken.LoadOrEmpty()
	if idx == nil || idx.Len() != 0 {
		t.Errorf("expected an empty index, got %v", idx)
	}
}
