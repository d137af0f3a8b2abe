package cli

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/paperqa/internal/core/domain"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <file.pdf>...",
	Short: "Add PDF papers to the index",
	Long: `Extracts the text of each PDF, splits it into overlapping chunks,
embeds every chunk and stores the document. A file that fails is reported
and the remaining files are still ingested.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	svc, _, err := requireServices(cmd)
	if err != nil {
		return err
	}

	failed := 0
	for _, path := range args {
		content, err := os.ReadFile(path)
		if err != nil {
			cmd.PrintErrf("Failed %s: %v\n", path, err)
			failed++
			continue
		}

		result, err := svc.Ingest.Ingest(cmd.Context(), &domain.RawDocument{
			Filename: filepath.Base(path),
			MIMEType: http.DetectContentType(content),
			Content:  content,
			Source:   domain.SourceCLI,
		})
		if err != nil {
			cmd.PrintErrf("Failed %s: %v\n", path, err)
			failed++
			continue
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Ingested %s: %s (%d chunks)\n",
			filepath.Base(path), result.Document.ID, result.ChunkCount)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(args))
	}
	return nil
}
