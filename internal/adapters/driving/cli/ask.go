package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/paperqa/internal/core/domain"
)

var (
	askSession   string
	askThreshold float64
	askCount     int
	askJSON      bool
)

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Answer a question from the ingested papers",
	Long: `Retrieves the chunks most similar to the question and asks the LLM to
answer from them. Without matching chunks paperqa says so instead of guessing.

The exchange is logged to a chat session; pass --session to continue one.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringVarP(&askSession, "session", "s", "", "chat session to continue")
	askCmd.Flags().Float64VarP(&askThreshold, "threshold", "t", domain.DefaultMatchThreshold, "minimum similarity in [0,1]")
	askCmd.Flags().IntVarP(&askCount, "count", "n", domain.DefaultMatchCount, "maximum chunks used as evidence")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output the answer as JSON")
	rootCmd.AddCommand(askCmd)
}

// answerOutput is the JSON form of an answer.
type answerOutput struct {
	SessionID string                `json:"sessionId"`
	Answer    string                `json:"answer"`
	Found     bool                  `json:"found"`
	Evidence  []domain.EvidenceItem `json:"evidence"`
}

func runAsk(cmd *cobra.Command, args []string) error {
	svc, _, err := requireServices(cmd)
	if err != nil {
		return err
	}

	opts := domain.AskOptions{SessionID: askSession}
	if cmd.Flags().Changed("threshold") {
		opts.Threshold = &askThreshold
	}
	if cmd.Flags().Changed("count") {
		opts.Count = &askCount
	}

	answer, err := svc.Answer.Ask(cmd.Context(), strings.Join(args, " "), opts)
	if err != nil {
		return err
	}

	if askJSON {
		evidence := answer.Evidence
		if evidence == nil {
			evidence = []domain.EvidenceItem{}
		}
		return writeJSON(cmd, answerOutput{
			SessionID: answer.SessionID,
			Answer:    answer.Text,
			Found:     answer.Found,
			Evidence:  evidence,
		})
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, answer.Text)
	if len(answer.Evidence) > 0 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Sources:")
		for i, e := range answer.Evidence {
			fmt.Fprintf(out, "  [%d] %s (chunk %d, similarity %.2f)\n", i+1, e.Title, e.Position, e.Similarity)
		}
	}
	fmt.Fprintf(out, "\nSession: %s\n", answer.SessionID)
	return nil
}

func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding output: %w", err)
	}
	return nil
}
