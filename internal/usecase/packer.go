package usecase

import (
	"sort"
	"strings"

	"bloxmate/internal/domain"
	"bloxmate/internal/port"
)

// PackedContext is the retrieval context handed to the completion service.
type PackedContext struct {
	Text         string
	Chunks       []domain.ScoredChunk
	UsedTokens   int
	BudgetTokens int
	Dropped      int
}

// ContextPacker fits retrieved chunks into a token budget.
type ContextPacker struct {
	counter port.TokenCounter
	budget  int // 0 = unbounded
}

func NewContextPacker(counter port.TokenCounter, budget int) *ContextPacker {
	return &ContextPacker{counter: counter, budget: budget}
}

// Pack selects chunks greedily by score per token until the budget is spent,
// then joins the selection in retrieval order with blank lines.
func (p *ContextPacker) Pack(chunks []domain.ScoredChunk) PackedContext {
	packed := PackedContext{BudgetTokens: p.budget}
	if len(chunks) == 0 {
		return packed
	}

	type rankedChunk struct {
		pos     int
		utility float64
		tokens  int
	}

	ranked := make([]rankedChunk, 0, len(chunks))
	for i, c := range chunks {
		tokens := p.counter.Count(c.Chunk.Content)
		if tokens == 0 {
			tokens = 1
		}
		ranked = append(ranked, rankedChunk{
			pos:     i,
			utility: c.Score / float64(tokens),
			tokens:  tokens,
		})
	}

	selected := make([]bool, len(chunks))
	if p.budget <= 0 {
		for i := range selected {
			selected[i] = true
			packed.UsedTokens += ranked[i].tokens
		}
	} else {
		// Best value first
		sort.SliceStable(ranked, func(i, j int) bool {
			return ranked[i].utility > ranked[j].utility
		})
		for _, rc := range ranked {
			if packed.UsedTokens+rc.tokens > p.budget {
				continue
			}
			selected[rc.pos] = true
			packed.UsedTokens += rc.tokens
		}
	}

	parts := make([]string, 0, len(chunks))
	for i, c := range chunks {
		if !selected[i] {
			packed.Dropped++
			continue
		}
		packed.Chunks = append(packed.Chunks, c)
		parts = append(parts, c.Chunk.Content)
	}
	packed.Text = strings.Join(parts, "\n\n")
	return packed
}
