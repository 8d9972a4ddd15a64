package cli

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"

	"bloxmate/internal/domain"
)

var (
	accent  = lipgloss.Color("#8BC34A")
	primary = lipgloss.Color("#2196F3")
	muted   = lipgloss.Color("#9E9E9E")

	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(primary)
	noteStyle   = lipgloss.NewStyle().Foreground(muted)
	promptStyle = lipgloss.NewStyle().Bold(true).Foreground(accent)
)

// printResponse writes the header line styled, the remaining display lines
// muted, and the answer as plain text.
func printResponse(w io.Writer, resp domain.Response) {
	for i, line := range resp.DisplayLines {
		if i == 0 {
			fmt.Fprintln(w, headerStyle.Render(line))
			continue
		}
		fmt.Fprintln(w, noteStyle.Render(line))
	}
	fmt.Fprintln(w, resp.AnswerText)
}
