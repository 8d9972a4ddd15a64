package directory

import (
	"regexp"
	"strings"
)

// Update is one person's entry in a weekly status report.
type Update struct {
	Name      string
	Completed string
	Planned   string
	Content   string
}

var (
	// A new entry starts on a line that opens with a two or three word name
	// followed by a colon, a dash, or nothing else.
	updateHeader = regexp.MustCompile(`(?m)^[ \t]*([A-Z][a-z]+(?: [A-Z][a-z'-]+){1,2})[ \t]*(?:[:\-–][ \t]*|$)`)
	plannedLabel = regexp.MustCompile(`(?i)targets? for next week:?`)
)

// ParseUpdates splits report text into per-person entries. Text before the
// first header is dropped. Each entry's work is split at the "Target for next
// week" label when present.
func ParseUpdates(text string) []Update {
	var locs [][]int
	for _, loc := range updateHeader.FindAllStringSubmatchIndex(text, -1) {
		if !isLabel(text[loc[2]:loc[3]]) {
			locs = append(locs, loc)
		}
	}

	var updates []Update
	for i, loc := range locs {
		end := len(text)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		name := text[loc[2]:loc[3]]
		content := strings.TrimSpace(text[loc[1]:end])
		if content == "" {
			continue
		}

		u := Update{Name: name, Content: content, Completed: content}
		if m := plannedLabel.FindStringIndex(content); m != nil {
			u.Completed = strings.TrimSpace(content[:m[0]])
			u.Planned = strings.TrimSpace(content[m[1]:])
		}
		updates = append(updates, u)
	}
	return updates
}

// isLabel rejects section headings that look like names.
func isLabel(name string) bool {
	switch strings.ToLower(name) {
	case "completed work", "target for", "weekly status", "status update", "next steps":
		return true
	}
	return false
}

// Title returns the job title of the employee matching name, exact first and
// then partial, or "" when nobody matches.
func (d *Directory) Title(name string) string {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return ""
	}
	if e, ok := d.byKey[key]; ok {
		return e.Title
	}
	for _, k := range d.keys {
		if strings.Contains(k, key) {
			return d.byKey[k].Title
		}
	}
	return ""
}
