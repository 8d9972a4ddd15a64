package extract

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// DocxExtractor reads paragraphs from word/document.xml.
type DocxExtractor struct{}

func NewDocxExtractor() *DocxExtractor {
	return &DocxExtractor{}
}

func (e *DocxExtractor) Extensions() []string {
	return []string{".docx"}
}

func (e *DocxExtractor) Extract(path string) (string, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return "", fmt.Errorf("failed to open docx %s: %w", path, err)
	}
	defer zr.Close()

	data, err := readZipFile(&zr.Reader, "word/document.xml")
	if err != nil {
		return "", err
	}
	return collectText(data, "p", "t"), nil
}

// PptxExtractor reads slide text in slide order.
type PptxExtractor struct{}

func NewPptxExtractor() *PptxExtractor {
	return &PptxExtractor{}
}

func (e *PptxExtractor) Extensions() []string {
	return []string{".pptx"}
}

var slideName = regexp.MustCompile(`^ppt/slides/slide(\d+)\.xml$`)

func (e *PptxExtractor) Extract(path string) (string, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return "", fmt.Errorf("failed to open pptx %s: %w", path, err)
	}
	defer zr.Close()

	type slide struct {
		num  int
		file *zip.File
	}
	var slides []slide
	for _, f := range zr.File {
		if m := slideName.FindStringSubmatch(f.Name); m != nil {
			n, _ := strconv.Atoi(m[1])
			slides = append(slides, slide{num: n, file: f})
		}
	}
	sort.Slice(slides, func(i, j int) bool { return slides[i].num < slides[j].num })

	var sb strings.Builder
	for _, s := range slides {
		data, err := readEntry(s.file)
		if err != nil {
			return "", err
		}
		text := collectText(data, "p", "t")
		if text == "" {
			continue
		}
		fmt.Fprintf(&sb, "### Slide %d\n%s\n\n", s.num, text)
	}
	return strings.TrimSpace(sb.String()), nil
}

// XlsxExtractor renders each worksheet as tab-separated rows under a
// "### Sheet: <name>" heading.
type XlsxExtractor struct{}

func NewXlsxExtractor() *XlsxExtractor {
	return &XlsxExtractor{}
}

func (e *XlsxExtractor) Extensions() []string {
	return []string{".xlsx"}
}

type workbookXML struct {
	Sheets []struct {
		Name string `xml:"name,attr"`
	} `xml:"sheets>sheet"`
}

type worksheetXML struct {
	Rows []struct {
		Cells []struct {
			Type   string `xml:"t,attr"`
			Value  string `xml:"v"`
			Inline string `xml:"is>t"`
		} `xml:"c"`
	} `xml:"sheetData>row"`
}

func (e *XlsxExtractor) Extract(path string) (string, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return "", fmt.Errorf("failed to open xlsx %s: %w", path, err)
	}
	defer zr.Close()

	shared, err := sharedStrings(&zr.Reader)
	if err != nil {
		return "", err
	}

	wbData, err := readZipFile(&zr.Reader, "xl/workbook.xml")
	if err != nil {
		return "", err
	}
	var wb workbookXML
	if err := xml.Unmarshal(wbData, &wb); err != nil {
		return "", fmt.Errorf("failed to parse workbook: %w", err)
	}

	var sb strings.Builder
	for i, sheet := range wb.Sheets {
		data, err := readZipFile(&zr.Reader, fmt.Sprintf("xl/worksheets/sheet%d.xml", i+1))
		if err != nil {
			continue
		}
		var ws worksheetXML
		if err := xml.Unmarshal(data, &ws); err != nil {
			return "", fmt.Errorf("failed to parse sheet %s: %w", sheet.Name, err)
		}

		fmt.Fprintf(&sb, "### Sheet: %s\n", sheet.Name)
		for _, row := range ws.Rows {
			values := make([]string, 0, len(row.Cells))
			for _, c := range row.Cells {
				switch c.Type {
				case "s":
					idx, err := strconv.Atoi(strings.TrimSpace(c.Value))
					if err == nil && idx >= 0 && idx < len(shared) {
						values = append(values, shared[idx])
					}
				case "inlineStr":
					values = append(values, c.Inline)
				default:
					values = append(values, c.Value)
				}
			}
			if line := strings.TrimSpace(strings.Join(values, "\t")); line != "" {
				sb.WriteString(line)
				sb.WriteString("\n")
			}
		}
		sb.WriteString("\n")
	}
	return strings.TrimSpace(sb.String()), nil
}

func sharedStrings(zr *zip.Reader) ([]string, error) {
	data, err := readZipFile(zr, "xl/sharedStrings.xml")
	if err != nil {
		return nil, nil // workbooks without text cells omit the part
	}

	var strs []string
	dec := xml.NewDecoder(strings.NewReader(string(data)))
	var current strings.Builder
	inItem, inText := false, false
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse shared strings: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "si":
				inItem = true
				current.Reset()
			case "t":
				inText = inItem
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "si":
				strs = append(strs, current.String())
				inItem = false
			case "t":
				inText = false
			}
		case xml.CharData:
			if inText {
				current.Write(t)
			}
		}
	}
	return strs, nil
}

// collectText concatenates the character data of every textTag element,
// starting a new line at the end of each blockTag element.
func collectText(data []byte, blockTag, textTag string) string {
	dec := xml.NewDecoder(strings.NewReader(string(data)))
	var sb, line strings.Builder
	inText := false
	for {
		tok, err := dec.Token()
		if err != nil {
			break
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == textTag {
				inText = true
			}
		case xml.EndElement:
			switch t.Name.Local {
			case textTag:
				inText = false
			case blockTag:
				if s := strings.TrimSpace(line.String()); s != "" {
					sb.WriteString(s)
					sb.WriteString("\n")
				}
				line.Reset()
			}
		case xml.CharData:
			if inText {
				line.Write(t)
			}
		}
	}
	if s := strings.TrimSpace(line.String()); s != "" {
		sb.WriteString(s)
	}
	return strings.TrimSpace(sb.String())
}

func readZipFile(zr *zip.Reader, name string) ([]byte, error) {
	for _, f := range zr.File {
		if f.Name == name {
			return readEntry(f)
		}
	}
	return nil, fmt.Errorf("archive entry %s not found", name)
}

func readEntry(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", f.Name, err)
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
