package cli

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/paperqa/internal/adapters/driven/ai"
	"github.com/custodia-labs/paperqa/internal/config"
	"github.com/custodia-labs/paperqa/internal/core/domain"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View and change configuration",
	Long: `Reads and writes ~/.paperqa/config.toml (or the file under --home).

Environment variables override the file: PAPERQA_ADDR, PAPERQA_STORAGE,
PAPERQA_DATA_DIR, PAPERQA_EMBEDDING_PROVIDER, PAPERQA_EMBEDDING_MODEL,
PAPERQA_LLM_PROVIDER, PAPERQA_LLM_MODEL and DATABASE_URL. OPENAI_API_KEY
is used when no api_key is configured. A .env file is read at startup.`,
}

var configGetCmd = &cobra.Command{
	Use:   "get [key]",
	Short: "Print effective settings",
	Long:  `Prints every setting, or one key, after environment overrides. Secrets are masked.`,
	Args:  cobra.MaximumNArgs(1),
	RunE:  runConfigGet,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Write a setting to config.toml",
	Example: `  paperqa config set llm.provider ollama
  paperqa config set search.threshold 0.7
  paperqa config set storage.backend postgres`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file path",
	Args:  cobra.NoArgs,
	RunE:  runConfigPath,
}

var configCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate settings and reach the AI providers",
	Args:  cobra.NoArgs,
	RunE:  runConfigCheck,
}

func init() {
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configCheckCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	cfg, store, err := loadConfig()
	if err != nil {
		return err
	}

	if len(args) == 1 {
		key := args[0]
		if v, ok := cfg.Lookup(key); ok {
			fmt.Fprintln(cmd.OutOrStdout(), v)
			return nil
		}
		if v, ok := store.Get(key); ok {
			fmt.Fprintln(cmd.OutOrStdout(), v)
			return nil
		}
		return fmt.Errorf("%w: unknown key %q", domain.ErrInvalidInput, key)
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	for _, key := range config.DisplayKeys() {
		v, _ := cfg.Lookup(key)
		fmt.Fprintf(w, "%s\t%s\n", key, v)
	}
	return w.Flush()
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	_, store, err := loadConfig()
	if err != nil {
		return err
	}

	value, err := config.ParseValue(args[0], args[1])
	if err != nil {
		return err
	}
	if err := store.Set(args[0], value); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Set %s in %s\n", args[0], store.Path())
	return nil
}

func runConfigPath(cmd *cobra.Command, _ []string) error {
	_, store, err := loadConfig()
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), store.Path())
	return nil
}

func runConfigCheck(cmd *cobra.Command, _ []string) error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(out, "config:    FAIL\n%v\n", err)
		return errors.New("configuration is invalid")
	}
	fmt.Fprintln(out, "config:    ok")

	failed := false
	report := func(name string, configured bool, check func() error) {
		if !configured {
			fmt.Fprintf(out, "%-10s not configured (set an api_key or OPENAI_API_KEY)\n", name+":")
			failed = true
			return
		}
		if err := check(); err != nil {
			fmt.Fprintf(out, "%-10s FAIL %v\n", name+":", err)
			failed = true
			return
		}
		fmt.Fprintf(out, "%-10s ok\n", name+":")
	}

	report("embedding", cfg.Embedding.IsConfigured(), func() error {
		return ai.ValidateEmbeddingConfig(cmd.Context(), &cfg.Embedding)
	})
	report("llm", cfg.LLM.IsConfigured(), func() error {
		return ai.ValidateLLMConfig(cmd.Context(), &cfg.LLM)
	})

	if failed {
		return errors.New("some providers are unavailable")
	}
	return nil
}
