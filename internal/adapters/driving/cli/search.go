package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/paperqa/internal/core/domain"
)

var (
	searchThreshold float64
	searchCount     int
	searchJSON      bool
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Find the chunks most similar to a query",
	Long: `Embeds the query and lists stored chunks by cosine similarity,
highest first. Only chunks at or above the threshold are shown.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().Float64VarP(&searchThreshold, "threshold", "t", domain.DefaultMatchThreshold, "minimum similarity in [0,1]")
	searchCmd.Flags().IntVarP(&searchCount, "count", "n", domain.DefaultMatchCount, "maximum number of results")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

// searchResultOutput is the JSON form of one search hit.
type searchResultOutput struct {
	ChunkID    string  `json:"chunkId"`
	DocumentID string  `json:"document_id"`
	Title      string  `json:"title"`
	Position   int     `json:"chunk_index"`
	Similarity float64 `json:"similarity"`
	Content    string  `json:"content"`
}

func runSearch(cmd *cobra.Command, args []string) error {
	svc, _, err := requireServices(cmd)
	if err != nil {
		return err
	}

	opts := svc.Search.Defaults()
	if cmd.Flags().Changed("threshold") {
		opts.Threshold = searchThreshold
	}
	if cmd.Flags().Changed("count") {
		opts.Count = searchCount
	}

	query := strings.Join(args, " ")
	results, err := svc.Search.Search(cmd.Context(), query, opts)
	if err != nil {
		return err
	}

	if searchJSON {
		out := make([]searchResultOutput, 0, len(results))
		for _, r := range results {
			out = append(out, searchResultOutput{
				ChunkID:    r.Chunk.ID,
				DocumentID: r.Chunk.DocumentID,
				Title:      r.DocumentTitle,
				Position:   r.Chunk.Position,
				Similarity: r.Similarity,
				Content:    r.Chunk.Content,
			})
		}
		return writeJSON(cmd, out)
	}

	out := cmd.OutOrStdout()
	if len(results) == 0 {
		fmt.Fprintln(out, "No results found.")
		return nil
	}

	for i, r := range results {
		fmt.Fprintf(out, "[%d] %s #%d (%.2f)\n", i+1, r.DocumentTitle, r.Chunk.Position, r.Similarity)
		fmt.Fprintf(out, "    %s\n\n", domain.Preview(oneLine(r.Chunk.Content), 200))
	}
	return nil
}

// oneLine collapses runs of whitespace so previews fit a terminal line.
func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
