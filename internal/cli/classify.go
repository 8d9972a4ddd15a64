package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"bloxmate/internal/usecase"
)

var classifyText string

var classifyCmd = &cobra.Command{
	Use:   "classify",
	Short: "Show how a question would be routed",
	Long: `Classify a question and print the tag, confidence, and routing decision
without answering it.`,
	RunE: runClassify,
}

func init() {
	rootCmd.AddCommand(classifyCmd)
	classifyCmd.Flags().StringVarP(&classifyText, "query", "q", "", "question to classify (required)")
	classifyCmd.MarkFlagRequired("query")
}

func runClassify(cmd *cobra.Command, args []string) error {
	a, err := newAssistant(cmd.Context(), GetConfig(), GetLogger())
	if err != nil {
		return err
	}
	defer a.Close()

	c, d := a.router.Classify(cmd.Context(), classifyText)
	fmt.Println(usecase.DescribeDecision(c, d))
	return nil
}
