package extract

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// PDFExtractor dumps each page's content stream with pdfcpu and reads the
// strings shown by text operators. Fonts with custom CID encodings yield
// unreadable output; such pages are dropped.
type PDFExtractor struct {
	conf *model.Configuration
}

func NewPDFExtractor() *PDFExtractor {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return &PDFExtractor{conf: conf}
}

func (e *PDFExtractor) Extensions() []string {
	return []string{".pdf"}
}

var pageNumber = regexp.MustCompile(`(\d+)\.txt$`)

func (e *PDFExtractor) Extract(path string) (string, error) {
	outDir, err := os.MkdirTemp("", "bloxmate-pdf-*")
	if err != nil {
		return "", err
	}
	defer os.RemoveAll(outDir)

	if err := api.ExtractContentFile(path, outDir, nil, e.conf); err != nil {
		return "", fmt.Errorf("failed to extract pdf content %s: %w", path, err)
	}

	entries, err := os.ReadDir(outDir)
	if err != nil {
		return "", err
	}

	type page struct {
		num  int
		name string
	}
	pages := make([]page, 0, len(entries))
	for _, entry := range entries {
		n := 0
		if m := pageNumber.FindStringSubmatch(entry.Name()); m != nil {
			n, _ = strconv.Atoi(m[1])
		}
		pages = append(pages, page{num: n, name: entry.Name()})
	}
	sort.Slice(pages, func(i, j int) bool {
		if pages[i].num != pages[j].num {
			return pages[i].num < pages[j].num
		}
		return pages[i].name < pages[j].name
	})

	var sb strings.Builder
	for _, p := range pages {
		data, err := os.ReadFile(filepath.Join(outDir, p.name))
		if err != nil {
			return "", err
		}
		text := parseContentStream(data)
		if !readable(text) {
			continue
		}
		sb.WriteString(text)
		sb.WriteString("\n\n")
	}
	return strings.TrimSpace(sb.String()), nil
}

// parseContentStream collects strings shown by Tj, TJ, ' and " operators,
// breaking lines on text positioning and block end operators.
func parseContentStream(data []byte) string {
	var out, line strings.Builder
	var operands []string
	var arrayParts []string
	inArray := false

	flushLine := func() {
		if s := strings.TrimSpace(line.String()); s != "" {
			out.WriteString(s)
			out.WriteString("\n")
		}
		line.Reset()
	}

	i := 0
	for i < len(data) {
		c := data[i]
		switch {
		case c == '(':
			s, next := readLiteral(data, i)
			if inArray {
				arrayParts = append(arrayParts, s)
			} else {
				operands = append(operands, s)
			}
			i = next
		case c == '<' && i+1 < len(data) && data[i+1] != '<':
			s, next := readHex(data, i)
			if inArray {
				arrayParts = append(arrayParts, s)
			} else {
				operands = append(operands, s)
			}
			i = next
		case c == '[':
			inArray = true
			arrayParts = arrayParts[:0]
			i++
		case c == ']':
			inArray = false
			i++
		case c == '%':
			for i < len(data) && data[i] != '\n' && data[i] != '\r' {
				i++
			}
		case isRegular(c):
			start := i
			for i < len(data) && isRegular(data[i]) {
				i++
			}
			tok := string(data[start:i])
			if inArray {
				// Large negative kerning inside TJ arrays marks a word gap.
				if n, err := strconv.ParseFloat(tok, 64); err == nil && n < -200 {
					arrayParts = append(arrayParts, " ")
				}
				continue
			}
			switch tok {
			case "Tj":
				line.WriteString(strings.Join(operands, ""))
			case "TJ":
				line.WriteString(strings.Join(arrayParts, ""))
				arrayParts = arrayParts[:0]
			case "'", "\"":
				flushLine()
				line.WriteString(strings.Join(operands, ""))
			case "Td", "TD", "T*", "ET":
				flushLine()
			}
			if _, err := strconv.ParseFloat(tok, 64); err != nil && !strings.HasPrefix(tok, "/") {
				operands = operands[:0]
			}
		default:
			i++
		}
	}
	flushLine()
	return strings.TrimSpace(out.String())
}

func isRegular(c byte) bool {
	switch c {
	case ' ', '\t', '\r', '\n', '\f', 0, '(', ')', '<', '>', '[', ']', '{', '}', '/', '%':
		return false
	}
	return true
}

// readLiteral reads a balanced PDF literal string starting at data[start] == '('.
func readLiteral(data []byte, start int) (string, int) {
	var sb strings.Builder
	depth := 0
	i := start
	for i < len(data) {
		c := data[i]
		switch c {
		case '\\':
			i++
			if i >= len(data) {
				return sb.String(), i
			}
			switch e := data[i]; e {
			case 'n':
				sb.WriteByte('\n')
			case 'r':
				sb.WriteByte('\r')
			case 't':
				sb.WriteByte('\t')
			case 'b', 'f':
			case '\r', '\n':
			default:
				if e >= '0' && e <= '7' {
					j := i
					for j < len(data) && j < i+3 && data[j] >= '0' && data[j] <= '7' {
						j++
					}
					v, _ := strconv.ParseUint(string(data[i:j]), 8, 8)
					sb.WriteByte(byte(v))
					i = j - 1
				} else {
					sb.WriteByte(e)
				}
			}
		case '(':
			if depth > 0 {
				sb.WriteByte(c)
			}
			depth++
		case ')':
			depth--
			if depth == 0 {
				return sb.String(), i + 1
			}
			sb.WriteByte(c)
		default:
			sb.WriteByte(c)
		}
		i++
	}
	return sb.String(), i
}

// readHex reads a hex string starting at data[start] == '<'.
func readHex(data []byte, start int) (string, int) {
	i := start + 1
	var digits []byte
	for i < len(data) && data[i] != '>' {
		if isHexDigit(data[i]) {
			digits = append(digits, data[i])
		}
		i++
	}
	if len(digits)%2 == 1 {
		digits = append(digits, '0')
	}
	buf := make([]byte, 0, len(digits)/2)
	for j := 0; j < len(digits); j += 2 {
		v, _ := strconv.ParseUint(string(digits[j:j+2]), 16, 8)
		buf = append(buf, byte(v))
	}
	return string(buf), i + 1
}

func isHexDigit(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

// readable reports whether most of text is printable.
func readable(text string) bool {
	if text == "" {
		return false
	}
	printable := 0
	total := 0
	for _, r := range text {
		total++
		if r == '\n' || r == '\t' || (r >= 0x20 && r != 0xFFFD && r < 0x7F) || r > 0xA0 {
			printable++
		}
	}
	return printable*10 >= total*8
}
