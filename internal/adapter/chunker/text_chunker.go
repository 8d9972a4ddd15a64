package chunker

import (
	"strings"
	"unicode/utf8"
)

var defaultSeparators = []string{"\n\n", "\n", " ", ""}

// TextChunker splits text into overlapping chunks of at most size characters,
// preferring paragraph, then line, then word boundaries.
type TextChunker struct {
	size       int
	overlap    int
	separators []string
}

func NewTextChunker(size, overlap int) *TextChunker {
	if size <= 0 {
		size = 500
	}
	if overlap < 0 || overlap >= size {
		overlap = 0
	}
	return &TextChunker{
		size:       size,
		overlap:    overlap,
		separators: defaultSeparators,
	}
}

// Split returns the chunks of text. Whitespace-only input yields no chunks.
func (c *TextChunker) Split(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	return c.split(text, c.separators)
}

func (c *TextChunker) split(text string, separators []string) []string {
	sep := separators[len(separators)-1]
	var rest []string
	for i, s := range separators {
		if s == "" || strings.Contains(text, s) {
			sep = s
			rest = separators[i+1:]
			break
		}
	}

	var pieces []string
	if sep == "" {
		for _, r := range text {
			pieces = append(pieces, string(r))
		}
	} else {
		pieces = strings.Split(text, sep)
	}

	var chunks, pending []string
	for _, p := range pieces {
		if p == "" {
			continue
		}
		if length(p) < c.size {
			pending = append(pending, p)
			continue
		}
		if len(pending) > 0 {
			chunks = append(chunks, c.merge(pending, sep)...)
			pending = nil
		}
		if len(rest) == 0 {
			chunks = append(chunks, p)
		} else {
			chunks = append(chunks, c.split(p, rest)...)
		}
	}
	if len(pending) > 0 {
		chunks = append(chunks, c.merge(pending, sep)...)
	}
	return chunks
}

// merge joins small pieces into chunks no longer than size, carrying up to
// overlap characters of trailing pieces into the next chunk.
func (c *TextChunker) merge(pieces []string, sep string) []string {
	sepLen := length(sep)
	var chunks, current []string
	total := 0

	joinedLen := func(extra int) int {
		if len(current) > 0 {
			return total + extra + sepLen
		}
		return total + extra
	}

	for _, p := range pieces {
		n := length(p)
		if joinedLen(n) > c.size && len(current) > 0 {
			if chunk := strings.TrimSpace(strings.Join(current, sep)); chunk != "" {
				chunks = append(chunks, chunk)
			}
			for total > c.overlap || (total > 0 && joinedLen(n) > c.size) {
				drop := length(current[0])
				if len(current) > 1 {
					drop += sepLen
				}
				total -= drop
				current = current[1:]
			}
		}
		if len(current) > 0 {
			total += sepLen
		}
		current = append(current, p)
		total += n
	}

	if chunk := strings.TrimSpace(strings.Join(current, sep)); chunk != "" {
		chunks = append(chunks, chunk)
	}
	return chunks
}

func length(s string) int {
	return utf8.RuneCountInString(s)
}
