package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/paperqa/internal/core/domain"
)

const timeLayout = "2006-01-02 15:04"

var (
	sessionTitle  string
	sessionUser   string
	sessionLimit  int
	sessionAsJSON bool
)

var sessionCmd = &cobra.Command{
	Use:     "session",
	Aliases: []string{"sessions"},
	Short:   "Manage chat sessions",
	Long:    `List, show, create or delete the chat sessions answers are logged to.`,
}

var sessionListCmd = &cobra.Command{
	Use:   "list",
	Short: "List sessions, most recent first",
	Args:  cobra.NoArgs,
	RunE:  runSessionList,
}

var sessionShowCmd = &cobra.Command{
	Use:   "show <session-id>",
	Short: "Print a session's messages",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionShow,
}

var sessionCreateCmd = &cobra.Command{
	Use:   "create [session-id]",
	Short: "Start a session",
	Long:  `Creates a session. Without an id one is generated.`,
	Args:  cobra.MaximumNArgs(1),
	RunE:  runSessionCreate,
}

var sessionDeleteCmd = &cobra.Command{
	Use:   "delete <session-id>",
	Short: "Delete a session and its messages",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionDelete,
}

func init() {
	sessionShowCmd.Flags().IntVarP(&sessionLimit, "limit", "n", 0, "maximum messages (default 50)")
	sessionShowCmd.Flags().BoolVar(&sessionAsJSON, "json", false, "output the session as JSON")
	sessionCreateCmd.Flags().StringVar(&sessionTitle, "title", "", "session title (default \"New Chat\")")
	sessionCreateCmd.Flags().StringVar(&sessionUser, "user", "", "owning user id")

	sessionCmd.AddCommand(sessionListCmd)
	sessionCmd.AddCommand(sessionShowCmd)
	sessionCmd.AddCommand(sessionCreateCmd)
	sessionCmd.AddCommand(sessionDeleteCmd)
	rootCmd.AddCommand(sessionCmd)
}

func runSessionList(cmd *cobra.Command, _ []string) error {
	svc, _, err := requireServices(cmd)
	if err != nil {
		return err
	}

	sessions, err := svc.Chat.ListSessions(cmd.Context())
	if err != nil {
		return err
	}
	if len(sessions) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No sessions yet.")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tUPDATED")
	for _, s := range sessions {
		fmt.Fprintf(w, "%s\t%s\t%s\n", s.ID, s.Title, s.UpdatedAt.Local().Format(timeLayout))
	}
	return w.Flush()
}

func runSessionShow(cmd *cobra.Command, args []string) error {
	svc, _, err := requireServices(cmd)
	if err != nil {
		return err
	}

	session, messages, err := svc.Chat.History(cmd.Context(), args[0], sessionLimit)
	if err != nil {
		return err
	}

	if sessionAsJSON {
		if messages == nil {
			messages = []domain.ChatMessage{}
		}
		return writeJSON(cmd, struct {
			Session  *domain.ChatSession  `json:"session"`
			Messages []domain.ChatMessage `json:"messages"`
		}{session, messages})
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s (%s)\n\n", session.Title, session.ID)
	for _, m := range messages {
		label := "You"
		if m.Kind == domain.MessageAssistant {
			label = "paperqa"
		}
		fmt.Fprintf(out, "%s [%s]:\n%s\n\n", label, m.CreatedAt.Local().Format(timeLayout), m.Content)
	}
	return nil
}

func runSessionCreate(cmd *cobra.Command, args []string) error {
	svc, _, err := requireServices(cmd)
	if err != nil {
		return err
	}

	var id string
	if len(args) == 1 {
		id = args[0]
	}
	session, err := svc.Chat.CreateSession(cmd.Context(), id, sessionTitle, sessionUser)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Created session %s (%s)\n", session.ID, session.Title)
	return nil
}

func runSessionDelete(cmd *cobra.Command, args []string) error {
	svc, _, err := requireServices(cmd)
	if err != nil {
		return err
	}

	if err := svc.Chat.DeleteSession(cmd.Context(), args[0]); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Deleted session %s\n", args[0])
	return nil
}
