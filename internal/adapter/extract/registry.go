package extract

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"bloxmate/internal/domain"
	"bloxmate/internal/port"
)

// Registry dispatches extraction by file extension.
type Registry struct {
	byExt map[string]port.Extractor
}

func NewRegistry(extractors ...port.Extractor) *Registry {
	r := &Registry{byExt: make(map[string]port.Extractor)}
	for _, e := range extractors {
		for _, ext := range e.Extensions() {
			r.byExt[strings.ToLower(ext)] = e
		}
	}
	return r
}

// NewDefaultRegistry handles PDF, Word, PowerPoint, Excel, CSV, and plain text.
func NewDefaultRegistry() *Registry {
	return NewRegistry(
		NewPDFExtractor(),
		NewDocxExtractor(),
		NewPptxExtractor(),
		NewXlsxExtractor(),
		NewCSVExtractor(),
		NewTextExtractor(),
	)
}

func (r *Registry) Supports(path string) bool {
	_, ok := r.byExt[strings.ToLower(filepath.Ext(path))]
	return ok
}

func (r *Registry) Extract(path string) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	e, ok := r.byExt[ext]
	if !ok {
		return "", fmt.Errorf("%w: %s", domain.ErrUnsupportedFormat, ext)
	}
	return e.Extract(path)
}

func (r *Registry) Extensions() []string {
	exts := make([]string, 0, len(r.byExt))
	for ext := range r.byExt {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}
