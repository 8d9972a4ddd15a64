package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"bloxmate/internal/usecase"
)

const welcome = "Welcome to BloxMate! Ask me anything, or type 'exit' to quit."

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive session",
	Long: `Read questions from stdin and answer each one until 'exit', 'quit', or
'bye' is entered or input ends. Enter 'reload' to pick up an index rebuilt by
'bloxmate index' while the session is open.`,
	Args: cobra.NoArgs,
	RunE: runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, args []string) error {
	a, err := newAssistant(cmd.Context(), GetConfig(), GetLogger())
	if err != nil {
		return err
	}
	defer a.Close()

	return chatLoop(cmd, a.router, a.Reload, os.Stdin, os.Stdout)
}

// chatLoop answers lines from in. reload may be nil, in which case 'reload' is
// routed like any other question.
func chatLoop(cmd *cobra.Command, router *usecase.Router, reload func() (int, error), in io.Reader, out io.Writer) error {
	ctx := cmd.Context()
	fmt.Fprintln(out, headerStyle.Render(welcome))

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "\n"+promptStyle.Render("You: "))
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if isExit(line) {
			fmt.Fprintln(out, "Goodbye!")
			return nil
		}
		if reload != nil && strings.EqualFold(line, "reload") {
			if n, err := reload(); err != nil {
				fmt.Fprintln(out, noteStyle.Render("Reload failed: "+err.Error()))
			} else {
				fmt.Fprintf(out, "Index reloaded: %d chunks.\n", n)
			}
			continue
		}

		fmt.Fprintln(out)
		printResponse(out, router.Route(ctx, line))

		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	return scanner.Err()
}

func isExit(line string) bool {
	switch strings.ToLower(line) {
	case "exit", "quit", "bye":
		return true
	}
	return false
}
