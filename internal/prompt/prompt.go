package prompt

import (
	"bytes"
	"embed"
	"fmt"
	"strings"
	"text/template"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var templates = template.Must(
	template.New("prompts").Funcs(templateFuncs()).ParseFS(templateFS, "templates/*.tmpl"),
)

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"join": strings.Join,
		"inc":  func(i int) int { return i + 1 },
	}
}

// Render executes the named prompt template with data.
func Render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("failed to render prompt %s: %w", name, err)
	}
	return buf.String(), nil
}

// System renders a template that takes no data.
func System(name string) string {
	s, err := Render(name, nil)
	if err != nil {
		panic(err)
	}
	return s
}

type Option struct {
	Tag         string
	Description string
}

type ClassifyData struct {
	Query   string
	Options []Option
}

type RAGData struct {
	Query   string
	Context string
}

type Page struct {
	Title   string
	URL     string
	Content string
}

type EscalationData struct {
	Query       string
	PriorAnswer string
	Pages       []Page
}

type CommsData struct {
	Query      string
	Principles []string
}

type CourseData struct {
	Title string
	Link  string
}

type OrgChartData struct {
	Query string
	Chart string
}

type Section struct {
	Source  string
	Content string
}

type OnboardingData struct {
	Query    string
	Sections []Section
}
