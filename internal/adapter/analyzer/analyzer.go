package analyzer

import (
	"strings"
	"unicode"
)

// Analyzer turns free text into normalized search terms: lowercased words of
// two or more characters, stopwords removed, optionally stemmed.
type Analyzer struct {
	stemmer   *PorterStemmer
	stopwords map[string]struct{}
}

func New(useStemming bool) *Analyzer {
	a := &Analyzer{stopwords: defaultStopwords()}
	if useStemming {
		a.stemmer = NewPorterStemmer()
	}
	return a
}

// Terms returns the terms of text in order, duplicates included.
func (a *Analyzer) Terms(text string) []string {
	words := splitWords(text)
	terms := make([]string, 0, len(words))

	for _, word := range words {
		word = strings.ToLower(word)
		if len([]rune(word)) < 2 {
			continue
		}
		if _, isStop := a.stopwords[word]; isStop {
			continue
		}
		if a.stemmer != nil {
			word = a.stemmer.Stem(word)
		}
		terms = append(terms, word)
	}

	return terms
}

// TermSet returns the distinct terms of text.
func (a *Analyzer) TermSet(text string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, t := range a.Terms(text) {
		set[t] = struct{}{}
	}
	return set
}

// Overlap counts the distinct query terms present in set.
func (a *Analyzer) Overlap(query string, set map[string]struct{}) int {
	n := 0
	for t := range a.TermSet(query) {
		if _, ok := set[t]; ok {
			n++
		}
	}
	return n
}

// splitWords splits on anything that is not a letter or digit.
func splitWords(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func defaultStopwords() map[string]struct{} {
	stops := []string{
		"a", "an", "and", "are", "as", "at", "be", "by", "for",
		"from", "has", "he", "in", "is", "it", "its", "of", "on",
		"that", "the", "to", "was", "were", "will", "with", "this",
		"have", "had", "but", "not", "you", "your", "we", "our",
		"they", "their", "she", "her", "his", "if", "or", "so",
		"no", "can", "do", "does", "did", "been", "being", "would",
		"could", "should", "may", "might", "must", "shall", "which",
		"who", "whom", "what", "when", "where", "why", "how", "all",
		"each", "every", "both", "few", "more", "most", "other",
		"some", "such", "than", "too", "very", "just", "also",
		"me", "my", "am", "there", "any", "about", "need", "tell",
	}
	m := make(map[string]struct{}, len(stops))
	for _, s := range stops {
		m[s] = struct{}{}
	}
	return m
}
