// Package cli implements the paperqa command line.
// It is a driving adapter: each command resolves configuration, builds the
// core services through the injected Factory and drives them.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/paperqa/internal/adapters/driven/config/file"
	"github.com/custodia-labs/paperqa/internal/config"
	"github.com/custodia-labs/paperqa/internal/core/ports/driving"
	"github.com/custodia-labs/paperqa/internal/logger"
)

// ErrNotConfigured is returned when a command needs services but no
// factory was injected.
var ErrNotConfigured = errors.New("services not configured")

// Services are the core ports the commands drive.
type Services struct {
	Ingest   driving.IngestService
	Search   driving.SearchService
	Answer   driving.AnswerService
	Chat     driving.ChatService
	Document driving.DocumentService

	// Close releases stores and clients. May be nil.
	Close func() error
}

// Factory builds the services for a resolved configuration.
type Factory func(ctx context.Context, cfg config.Config) (*Services, error)

var (
	version = "dev"
	verbose bool
	homeDir string

	factory  Factory
	services *Services
	built    bool
)

var rootCmd = &cobra.Command{
	Use:   "paperqa",
	Short: "Ask questions about your PDF papers",
	Long: `paperqa answers questions from the PDF papers you give it.

Ingest PDFs with 'paperqa ingest', then ask with 'paperqa ask', chat in
the terminal with 'paperqa chat', or serve the HTTP API with 'paperqa serve'.

Configuration lives in ~/.paperqa/config.toml (see 'paperqa config').`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
	PersistentPostRunE: func(_ *cobra.Command, _ []string) error {
		return closeServices()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "print diagnostic logs to stderr")
	rootCmd.PersistentFlags().StringVar(&homeDir, "home", "", "config directory (default $PAPERQA_HOME or ~/.paperqa)")
}

// SetFactory injects the service builder. main calls it before Execute.
func SetFactory(f Factory) {
	factory = f
}

// SetVersion sets the version reported by 'paperqa version'.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// Execute runs the root command under ctx.
func Execute(ctx context.Context) error {
	defer closeServices() //nolint:errcheck
	return rootCmd.ExecuteContext(ctx)
}

// resolveHome returns --home, $PAPERQA_HOME or ~/.paperqa, in that order.
func resolveHome() (string, error) {
	if homeDir != "" {
		return homeDir, nil
	}
	if env := os.Getenv(config.EnvHome); env != "" {
		return env, nil
	}
	return file.DefaultDir()
}

// loadConfig reads config.toml from the home directory and applies the
// environment on top.
func loadConfig() (config.Config, *file.ConfigStore, error) {
	home, err := resolveHome()
	if err != nil {
		return config.Config{}, nil, err
	}
	store, err := file.NewConfigStore(home)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("loading config: %w", err)
	}
	cfg := config.FromStore(home, store)
	cfg.ApplyEnv(os.LookupEnv)
	return cfg, store, nil
}

// requireServices resolves the configuration and builds the services on
// first use.
func requireServices(cmd *cobra.Command) (*Services, config.Config, error) {
	cfg, _, err := loadConfig()
	if err != nil {
		return nil, cfg, err
	}
	if services != nil {
		return services, cfg, nil
	}
	if factory == nil {
		return nil, cfg, ErrNotConfigured
	}

	svc, err := factory(cmd.Context(), cfg)
	if err != nil {
		return nil, cfg, err
	}
	services = svc
	built = true
	return svc, cfg, nil
}

// closeServices releases services built by requireServices. Injected
// services are left to their owner.
func closeServices() error {
	if !built || services == nil {
		return nil
	}
	svc := services
	services, built = nil, false
	if svc.Close == nil {
		return nil
	}
	return svc.Close()
}
