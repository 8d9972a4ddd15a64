package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"bloxmate/internal/adapter/chunker"
	"bloxmate/internal/adapter/extract"
	"bloxmate/internal/adapter/fs"
	"bloxmate/internal/adapter/store"
	"bloxmate/internal/usecase"
)

var indexCmd = &cobra.Command{
	Use:   "index [folder]",
	Short: "Embed local documents into the knowledge base",
	Long: `Extract, chunk, and embed the documents under a folder, then rebuild the
vector index. Files already embedded at the same content hash are skipped.

Examples:
  bloxmate index                 # Index the configured input folder
  bloxmate index ./docs          # Index a specific folder`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIndex,
}

func init() {
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	log := GetLogger()

	path := cfg.Index.InputDir
	if len(args) > 0 {
		var err error
		path, err = filepath.Abs(args[0])
		if err != nil {
			return fmt.Errorf("invalid path: %w", err)
		}
	}

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("path does not exist: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("path is not a directory: %s", path)
	}

	if err := cfg.EnsureDataDir(); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	st, err := store.NewBoltStore(cfg.Index.StorePath)
	if err != nil {
		return fmt.Errorf("failed to open embedding store: %w", err)
	}
	defer st.Close()

	embedder, err := newEmbedder(cmd.Context(), cfg.Embedding)
	if err != nil {
		return fmt.Errorf("failed to create embedder: %w", err)
	}

	pipeline := usecase.NewPipeline(
		fs.NewWalker(cfg.Index.Includes, cfg.Index.Excludes),
		extract.NewDefaultRegistry(),
		chunker.NewTextChunker(cfg.Index.ChunkSize, cfg.Index.ChunkOverlap),
		embedder,
		st,
		cfg.Index,
		log,
	)

	fmt.Printf("Scanning %s...\n", path)

	var bar *progressbar.ProgressBar
	var barMu sync.Mutex
	var startTime time.Time

	progressCallback := func(processed, total int, currentFile string) {
		barMu.Lock()
		defer barMu.Unlock()

		if bar == nil {
			startTime = time.Now()
			bar = progressbar.NewOptions(total,
				progressbar.OptionEnableColorCodes(true),
				progressbar.OptionShowBytes(false),
				progressbar.OptionSetWidth(40),
				progressbar.OptionShowCount(),
				progressbar.OptionSetDescription("[cyan]Embedding[reset]"),
				progressbar.OptionSetTheme(progressbar.Theme{
					Saucer:        "[green]=[reset]",
					SaucerHead:    "[green]>[reset]",
					SaucerPadding: " ",
					BarStart:      "[",
					BarEnd:        "]",
				}),
				progressbar.OptionOnCompletion(func() {
					fmt.Println()
				}),
			)
		}

		bar.Set(processed)

		if processed > 0 {
			elapsed := time.Since(startTime)
			rate := float64(processed) / elapsed.Seconds()
			remaining := total - processed
			if rate > 0 {
				eta := time.Duration(float64(remaining)/rate) * time.Second
				bar.Describe(fmt.Sprintf("[cyan]Embedding[reset] %s ETA: %s", filepath.Base(currentFile), formatDuration(eta)))
			}
		}
	}

	result, err := pipeline.Run(cmd.Context(), path, progressCallback)
	if err != nil {
		return fmt.Errorf("indexing failed: %w", err)
	}

	idx, err := usecase.NewIndexLoader(st, cfg.Index.IndexPath, log).Rebuild(nil)
	if err != nil {
		return fmt.Errorf("failed to rebuild vector index: %w", err)
	}
	log.Debug("vector index persisted", zap.String("path", cfg.Index.IndexPath), zap.Int("rows", idx.Len()))

	fmt.Printf("\nIndexing complete:\n")
	fmt.Printf("  Files seen:      %d\n", result.FilesSeen)
	fmt.Printf("  Files embedded:  %d\n", result.FilesEmbedded)
	fmt.Printf("  Files cached:    %d (unchanged)\n", result.FilesCached)
	fmt.Printf("  Files skipped:   %d\n", result.FilesSkipped)
	fmt.Printf("  Files failed:    %d\n", result.FilesFailed)
	fmt.Printf("  Chunks embedded: %d (%d calls, %d failed batches)\n", result.ChunksEmbedded, result.EmbedCalls, result.BatchesFailed)
	fmt.Printf("  Index rows:      %d\n", idx.Len())

	if len(result.Errors) > 0 {
		fmt.Printf("\nWarnings:\n")
		for _, e := range result.Errors {
			fmt.Printf("  - %s\n", e)
		}
	}

	fmt.Printf("\nIndex stored at: %s\n", cfg.Index.IndexPath)
	return nil
}

func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
}
