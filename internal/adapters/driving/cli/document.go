package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/paperqa/internal/core/domain"
)

var documentChunks bool

var documentCmd = &cobra.Command{
	Use:     "document",
	Aliases: []string{"documents", "doc"},
	Short:   "Manage ingested documents",
	Long:    `List, show or delete the PDF papers in the index.`,
}

var documentListCmd = &cobra.Command{
	Use:   "list",
	Short: "List documents, newest first",
	Args:  cobra.NoArgs,
	RunE:  runDocumentList,
}

var documentShowCmd = &cobra.Command{
	Use:   "show <doc-id>",
	Short: "Show document info",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentShow,
}

var documentDeleteCmd = &cobra.Command{
	Use:   "delete <doc-id>",
	Short: "Delete a document and its chunks",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentDelete,
}

func init() {
	documentShowCmd.Flags().BoolVar(&documentChunks, "chunks", false, "print every chunk")

	documentCmd.AddCommand(documentListCmd)
	documentCmd.AddCommand(documentShowCmd)
	documentCmd.AddCommand(documentDeleteCmd)
	rootCmd.AddCommand(documentCmd)
}

func runDocumentList(cmd *cobra.Command, _ []string) error {
	svc, _, err := requireServices(cmd)
	if err != nil {
		return err
	}

	docs, err := svc.Document.List(cmd.Context())
	if err != nil {
		return err
	}
	if len(docs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No documents yet. Run 'paperqa ingest <file.pdf>'.")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tCHUNKS\tSOURCE\tCREATED")
	for _, d := range docs {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n",
			d.ID, d.Title, d.Metadata.ChunkCount, d.Source, d.CreatedAt.Local().Format(timeLayout))
	}
	return w.Flush()
}

func runDocumentShow(cmd *cobra.Command, args []string) error {
	svc, _, err := requireServices(cmd)
	if err != nil {
		return err
	}

	doc, err := svc.Document.Get(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "ID:       %s\n", doc.ID)
	fmt.Fprintf(out, "Title:    %s\n", doc.Title)
	fmt.Fprintf(out, "Source:   %s\n", doc.Source)
	fmt.Fprintf(out, "Size:     %d bytes\n", doc.Metadata.FileSize)
	fmt.Fprintf(out, "Chunks:   %d\n", doc.Metadata.ChunkCount)
	fmt.Fprintf(out, "Created:  %s\n", doc.CreatedAt.Local().Format(timeLayout))

	if !documentChunks {
		fmt.Fprintf(out, "\n%s\n", domain.Preview(oneLine(doc.Content), 300))
		return nil
	}

	chunks, err := svc.Document.Chunks(cmd.Context(), doc.ID)
	if err != nil {
		return err
	}
	for _, c := range chunks {
		fmt.Fprintf(out, "\n--- chunk %d (%s) ---\n%s\n", c.Position, c.ID, c.Content)
	}
	return nil
}

func runDocumentDelete(cmd *cobra.Command, args []string) error {
	svc, _, err := requireServices(cmd)
	if err != nil {
		return err
	}

	if err := svc.Document.Delete(cmd.Context(), args[0]); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Deleted document %s\n", args[0])
	return nil
}
