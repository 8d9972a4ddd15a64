package directory

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"bloxmate/internal/domain"
)

// Directory is the organization chart, keyed by lowercase employee name.
// Iteration follows file order.
type Directory struct {
	byKey map[string]domain.Employee
	keys  []string
}

func New(employees []domain.Employee) *Directory {
	d := &Directory{byKey: make(map[string]domain.Employee, len(employees))}
	for _, e := range employees {
		key := strings.ToLower(e.Name)
		if _, ok := d.byKey[key]; !ok {
			d.keys = append(d.keys, key)
		}
		d.byKey[key] = e
	}
	return d
}

// Load reads a CSV with a header row containing name, title and manager columns.
func Load(path string) (*Directory, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open org chart: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

func Parse(r io.Reader) (*Directory, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read org chart header: %w", err)
	}
	col := map[string]int{}
	for i, h := range header {
		col[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, required := range []string{"name", "title", "manager"} {
		if _, ok := col[required]; !ok {
			return nil, fmt.Errorf("org chart is missing column %q", required)
		}
	}

	var employees []domain.Employee
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read org chart: %w", err)
		}
		field := func(name string) string {
			if i := col[name]; i < len(rec) {
				return strings.TrimSpace(rec[i])
			}
			return ""
		}
		if field("name") == "" {
			continue
		}
		employees = append(employees, domain.Employee{
			Name:    field("name"),
			Title:   field("title"),
			Manager: field("manager"),
		})
	}
	return New(employees), nil
}

func (d *Directory) Len() int {
	return len(d.keys)
}

// LookupEmployee describes an employee's title and manager. An exact name
// match wins; otherwise a single partial match is used.
func (d *Directory) LookupEmployee(name string) string {
	key := strings.ToLower(strings.TrimSpace(name))

	if e, ok := d.byKey[key]; ok {
		return d.describe(e)
	}

	var matches []domain.Employee
	for _, k := range d.keys {
		if strings.Contains(k, key) {
			matches = append(matches, d.byKey[k])
		}
	}
	switch len(matches) {
	case 0:
		return fmt.Sprintf("Could not find anyone named '%s' in the organization chart.", name)
	case 1:
		return d.describe(matches[0])
	}

	names := make([]string, len(matches))
	for i, m := range matches {
		names[i] = m.Name
	}
	return fmt.Sprintf("Found multiple people matching '%s': %s. Please specify which one you're looking for.", name, strings.Join(names, ", "))
}

func (d *Directory) describe(e domain.Employee) string {
	s := fmt.Sprintf("%s has the job title: %s", e.Name, e.Title)
	if e.Manager == "" {
		return s + "\nThey do not have a manager (top of organization)"
	}
	title := "Unknown Title"
	if m, ok := d.byKey[strings.ToLower(e.Manager)]; ok {
		title = m.Title
	}
	return s + fmt.Sprintf("\nTheir manager is %s (%s)", e.Manager, title)
}

// DirectReports lists the employees whose manager is the first employee
// matching managerName.
func (d *Directory) DirectReports(managerName string) string {
	key := strings.ToLower(strings.TrimSpace(managerName))

	var manager string
	for _, k := range d.keys {
		if strings.Contains(k, key) {
			manager = d.byKey[k].Name
			break
		}
	}
	if manager == "" {
		return fmt.Sprintf("Could not find a manager named '%s' in the organization chart.", managerName)
	}

	var reports []string
	for _, k := range d.keys {
		if e := d.byKey[k]; e.Manager == manager {
			reports = append(reports, fmt.Sprintf("%s (%s)", e.Name, e.Title))
		}
	}
	if len(reports) == 0 {
		return fmt.Sprintf("%s does not have any direct reports in the organization chart.", manager)
	}
	return fmt.Sprintf("%s manages %d employees:\n%s", manager, len(reports), strings.Join(reports, "\n"))
}

// FindMentioned returns the longest employee name contained in text, or "".
func (d *Directory) FindMentioned(text string) string {
	lower := strings.ToLower(text)
	best := ""
	for _, k := range d.keys {
		if len(k) > len(best) && strings.Contains(lower, k) {
			best = k
		}
	}
	if best == "" {
		return ""
	}
	return d.byKey[best].Name
}

// Summary renders the chart as "name | title | manager" lines.
func (d *Directory) Summary() string {
	var sb strings.Builder
	for _, k := range d.keys {
		e := d.byKey[k]
		manager := e.Manager
		if manager == "" {
			manager = "none"
		}
		fmt.Fprintf(&sb, "%s | %s | %s\n", e.Name, e.Title, manager)
	}
	return strings.TrimSuffix(sb.String(), "\n")
}
