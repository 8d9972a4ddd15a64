package extract

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"
)

type TextExtractor struct{}

func NewTextExtractor() *TextExtractor {
	return &TextExtractor{}
}

func (e *TextExtractor) Extensions() []string {
	return []string{".txt", ".md", ".markdown"}
}

func (e *TextExtractor) Extract(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// CSVExtractor renders each record as "header: value" pairs on one line.
type CSVExtractor struct{}

func NewCSVExtractor() *CSVExtractor {
	return &CSVExtractor{}
}

func (e *CSVExtractor) Extensions() []string {
	return []string{".csv"}
}

func (e *CSVExtractor) Extract(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return "", fmt.Errorf("failed to parse csv %s: %w", path, err)
	}
	if len(records) == 0 {
		return "", nil
	}

	header := records[0]
	var sb strings.Builder
	for _, rec := range records[1:] {
		fields := make([]string, 0, len(rec))
		for i, v := range rec {
			v = strings.TrimSpace(v)
			if v == "" {
				continue
			}
			if i < len(header) && header[i] != "" {
				fields = append(fields, strings.TrimSpace(header[i])+": "+v)
			} else {
				fields = append(fields, v)
			}
		}
		if len(fields) > 0 {
			sb.WriteString(strings.Join(fields, ", "))
			sb.WriteString("\n")
		}
	}
	return strings.TrimSpace(sb.String()), nil
}
