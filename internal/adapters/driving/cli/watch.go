package cli

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/paperqa/internal/adapters/driving/watcher"
)

var (
	watchDebounce    time.Duration
	watchInitialScan bool
)

var watchCmd = &cobra.Command{
	Use:   "watch <dir>",
	Short: "Ingest PDFs dropped into a directory",
	Long: `Watches a directory and ingests every new or rewritten PDF once it has
stopped changing. Hidden files and other file types are ignored, and
deleting a file does not remove its document.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", 0, "quiet period before ingesting (default watch.debounce_ms)")
	watchCmd.Flags().BoolVar(&watchInitialScan, "initial-scan", false, "ingest PDFs already in the directory first")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	svc, cfg, err := requireServices(cmd)
	if err != nil {
		return err
	}

	debounce := cfg.Watch.Debounce
	if watchDebounce > 0 {
		debounce = watchDebounce
	}
	initialScan := cfg.Watch.InitialScan
	if cmd.Flags().Changed("initial-scan") {
		initialScan = watchInitialScan
	}

	out := cmd.OutOrStdout()
	w, err := watcher.New(args[0], svc.Ingest,
		watcher.WithDebounce(debounce),
		watcher.WithInitialScan(initialScan),
		watcher.WithMaxBytes(cfg.Server.MaxUploadBytes()),
		watcher.WithNotify(func(e watcher.Event) {
			name := filepath.Base(e.Path)
			if e.Err != nil {
				fmt.Fprintf(out, "Failed %s: %v\n", name, e.Err)
				return
			}
			fmt.Fprintf(out, "Ingested %s: %s (%d chunks)\n", name, e.Result.Document.ID, e.Result.ChunkCount)
		}),
	)
	if err != nil {
		return err
	}

	cmd.PrintErrf("Watching %s (Ctrl+C to stop)\n", w.Dir())
	return w.Run(cmd.Context())
}
