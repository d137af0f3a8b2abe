package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/paperqa/internal/adapters/driving/httpapi"
)

var (
	serveAddr    string
	serveOrigins []string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Serves the upload, answer, search, chat and document endpoints and the
/api/ws websocket until interrupted.

The listen address comes from --addr, PAPERQA_ADDR or server.addr.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default server.addr)")
	serveCmd.Flags().StringSliceVar(&serveOrigins, "allow-origin", nil, "extra websocket origins to accept (\"*\" for any)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	svc, cfg, err := requireServices(cmd)
	if err != nil {
		return err
	}

	addr := cfg.Server.Addr
	if serveAddr != "" {
		addr = serveAddr
	}

	server, err := httpapi.NewServer(&httpapi.Ports{
		Ingest:   svc.Ingest,
		Search:   svc.Search,
		Answer:   svc.Answer,
		Document: svc.Document,
		Chat:     svc.Chat,
	}, httpapi.Config{
		Addr:           addr,
		MaxUploadBytes: cfg.Server.MaxUploadBytes(),
		AllowedOrigins: serveOrigins,
	})
	if err != nil {
		return err
	}

	cmd.PrintErrf("paperqa API listening on http://%s\n", addr)
	if err := server.Run(cmd.Context()); err != nil {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}
