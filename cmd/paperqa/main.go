// Command paperqa answers questions about PDF papers.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/custodia-labs/paperqa/internal/adapters/driving/cli"
	"github.com/custodia-labs/paperqa/internal/app"
	"github.com/custodia-labs/paperqa/internal/config"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := config.LoadDotEnv(dotEnvPaths()...); err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v\n", err)
	}

	cli.SetVersion(version)
	cli.SetFactory(build)

	if err := cli.Execute(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

// build adapts the application container to the services the CLI drives.
func build(ctx context.Context, cfg config.Config) (*cli.Services, error) {
	a, err := app.Build(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &cli.Services{
		Ingest:   a.Ingest,
		Search:   a.Search,
		Answer:   a.Answer,
		Chat:     a.Chat,
		Document: a.Document,
		Close:    a.Close,
	}, nil
}

// dotEnvPaths lists .env files in the working directory and the paperqa home.
func dotEnvPaths() []string {
	paths := []string{".env"}
	if home := os.Getenv(config.EnvHome); home != "" {
		return append(paths, filepath.Join(home, ".env"))
	}
	if dir, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(dir, ".paperqa", ".env"))
	}
	return paths
}
