package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/paperqa/internal/adapters/driving/tui"
)

// ErrNotTerminal is returned when chat is started without an interactive terminal.
var ErrNotTerminal = errors.New("paperqa chat needs an interactive terminal; use 'paperqa ask' in scripts")

var chatSession string

// isTerminal reports whether stdin and stdout are terminals. Tests replace it.
var isTerminal = func() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with your papers in the terminal",
	Long: `Launches the interactive terminal UI: ask questions, read answers with
their evidence, and browse documents and earlier sessions.

Controls:
  Enter     - Ask
  Ctrl+E    - Show or hide evidence
  Ctrl+N    - New session
  Esc       - Menu
  Ctrl+C    - Quit`,
	Args: cobra.NoArgs,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().StringVarP(&chatSession, "session", "s", "", "continue an existing session")
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, _ []string) error {
	if !isTerminal() {
		return ErrNotTerminal
	}

	svc, _, err := requireServices(cmd)
	if err != nil {
		return err
	}

	app, err := tui.NewApp(&tui.Ports{
		Answer:   svc.Answer,
		Chat:     svc.Chat,
		Document: svc.Document,
	})
	if err != nil {
		return fmt.Errorf("failed to create TUI: %w", err)
	}

	if chatSession != "" {
		session, history, err := svc.Chat.History(cmd.Context(), chatSession, 0)
		if err != nil {
			return err
		}
		app.ChatView().SetSession(session, history)
	}

	if err := app.Run(cmd.Context()); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
