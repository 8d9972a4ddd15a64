package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"bloxmate/internal/domain"
)

var (
	searchText string
	searchTopK int
	searchJSON bool
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search the knowledge base",
	Long: `Return the top matching chunks for a query without generating an answer.

Examples:
  bloxmate search -q "grid upgrade"
  bloxmate search -q "dhcp failover" -k 3 --json`,
	RunE: runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)
	searchCmd.Flags().StringVarP(&searchText, "query", "q", "", "search query (required)")
	searchCmd.Flags().IntVarP(&searchTopK, "top-k", "k", 0, "number of results (default from config)")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output as JSON")
	searchCmd.MarkFlagRequired("query")
}

type searchHit struct {
	Rank    int     `json:"rank"`
	Score   float64 `json:"score"`
	ID      string  `json:"id"`
	Title   string  `json:"title"`
	Source  string  `json:"source"`
	Content string  `json:"content"`
}

func runSearch(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	log := GetLogger()

	embedder, err := newEmbedder(cmd.Context(), cfg.Embedding)
	if err != nil {
		return fmt.Errorf("failed to create embedder: %w", err)
	}
	st, _, idx, err := openIndex(cfg, log)
	if err != nil {
		return err
	}
	defer st.Close()

	k := searchTopK
	if k <= 0 {
		k = cfg.Retrieve.TopK
	}

	ret, _ := newRetriever(cfg, idx, embedder)
	results, err := ret.Search(cmd.Context(), searchText, k)
	if err != nil && !errors.Is(err, domain.ErrEmptyIndex) {
		return fmt.Errorf("search failed: %w", err)
	}

	hits := make([]searchHit, 0, len(results))
	for i, r := range results {
		hits = append(hits, searchHit{
			Rank:    i + 1,
			Score:   r.Score,
			ID:      r.Chunk.ID,
			Title:   r.Chunk.Title,
			Source:  r.Chunk.SourceURL,
			Content: r.Chunk.Content,
		})
	}

	if searchJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(hits)
	}

	if len(hits) == 0 {
		fmt.Println("No results found. Run 'bloxmate index' to embed documents.")
		return nil
	}
	total := 0.0
	for _, h := range hits {
		total += h.Score
		fmt.Println(headerStyle.Render(fmt.Sprintf("%d. [%s %.3f] %s", h.Rank, rating(h.Score), h.Score, h.ID)))
		fmt.Println(noteStyle.Render(h.Source))
		fmt.Println(h.Content)
		fmt.Println()
	}

	avg := total / float64(len(hits))
	fmt.Println(strings.Repeat("=", 70))
	fmt.Printf("  Average similarity: %.3f\n", avg)
	fmt.Printf("  Top-1 similarity:   %.3f\n", hits[0].Score)
	switch {
	case avg > 0.5:
		fmt.Println("  Status: GOOD - results are closely related")
	case avg > 0.3:
		fmt.Println("  Status: OK - results are somewhat related")
	default:
		fmt.Println("  Status: POOR - the knowledge base may not cover this")
	}
	return nil
}

func rating(similarity float64) string {
	switch {
	case similarity > 0.7:
		return "HIGH"
	case similarity > 0.5:
		return "GOOD"
	case similarity > 0.3:
		return "OK"
	}
	return "LOW"
}
