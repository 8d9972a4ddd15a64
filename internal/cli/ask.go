package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var askText string

var askCmd = &cobra.Command{
	Use:   "ask",
	Short: "Answer a single question",
	Long: `Classify a question, route it to the matching agent, and print the answer.

Examples:
  bloxmate ask -q "How do I configure DNS firewall?"
  bloxmate ask -q "Who does Jane Doe report to?"`,
	RunE: runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)
	askCmd.Flags().StringVarP(&askText, "query", "q", "", "question to ask (required)")
	askCmd.MarkFlagRequired("query")
}

func runAsk(cmd *cobra.Command, args []string) error {
	a, err := newAssistant(cmd.Context(), GetConfig(), GetLogger())
	if err != nil {
		return err
	}
	defer a.Close()

	fmt.Println()
	printResponse(os.Stdout, a.router.Route(cmd.Context(), askText))
	return nil
}
