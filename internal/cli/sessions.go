/*
Copyright © 2026 Orkflow Authors
*/
package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"Quill/internal/memory"

	"github.com/spf13/cobra"
)

var showFull bool

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Manage chat sessions",
	Long:  `List, view, search and manage saved chat sessions.`,
}

var sessionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all saved sessions",
	Run: func(cmd *cobra.Command, args []string) {
		sessions, err := memory.NewStore("").List()
		if err != nil {
			fail(err)
		}

		if len(sessions) == 0 {
			fmt.Println("No saved sessions found.")
			fmt.Println("Run 'quill chat' to create a session.")
			return
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tMODEL\tMESSAGES\tFIRST MESSAGE\tLAST UPDATED")
		fmt.Fprintln(w, "--\t-----\t--------\t-------------\t------------")

		for _, s := range sessions {
			ago := time.Since(s.UpdatedAt).Round(time.Minute)
			fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s ago\n", s.ShortID(), s.Model, len(s.Messages), truncateStr(firstUserMessage(&s), 30), ago)
		}
		w.Flush()
	},
}

func firstUserMessage(s *memory.Session) string {
	for _, m := range s.Messages {
		if m.Role == memory.RoleUser {
			return strings.ReplaceAll(m.Content, "\n", " ")
		}
	}
	return ""
}

var sessionsShowCmd = &cobra.Command{
	Use:   "show <session-id>",
	Short: "Show the messages of a session",
	Long: `Show the conversation of a session. The ID may be abbreviated to
any unique prefix.

Use --full to display complete message content instead of truncated.

Examples:
  quill sessions show 3f2a9c1e
  quill sessions show 3f2a --full`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		session, err := memory.NewStore("").Load(args[0])
		if err != nil {
			fail(err)
		}

		fmt.Println(Box(
			titleStyle.Render("📋 Session: "+session.ID),
			"🤖 Model:    "+session.Model,
			"🕐 Created:  "+session.CreatedAt.Format("Jan 02 15:04"),
			fmt.Sprintf("📨 Messages: %d", len(session.Messages)),
		))
		fmt.Println()

		for i, msg := range session.Messages {
			if msg.Role == memory.RoleSystem {
				continue
			}
			icon := "💬"
			who := msg.Role
			switch msg.Role {
			case memory.RoleTool:
				icon, who = ToolEmoji(msg.Tool), msg.Tool
			case memory.RoleAssistant:
				icon = "🤖"
			}

			fmt.Printf("%s %s %s\n", icon, labelStyle.Render(fmt.Sprintf("Message %d: [%s]", i+1, who)),
				dimStyle.Render(msg.Timestamp.Format("15:04:05")))

			content := msg.Content
			if r := []rune(content); !showFull && len(r) > 300 {
				content = string(r[:300]) + "\n... [truncated - use --full to see complete content]"
			}
			for _, line := range strings.Split(content, "\n") {
				for _, w := range wordWrap(line, 72) {
					fmt.Printf("  │ %s\n", w)
				}
			}
			fmt.Println()
		}
	},
}

var sessionsDeleteCmd = &cobra.Command{
	Use:   "delete <session-id>",
	Short: "Delete a session",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		store := memory.NewStore("")
		session, err := store.Load(args[0])
		if err != nil {
			fail(err)
		}
		if err := store.Delete(session.ID); err != nil {
			fail(err)
		}
		fmt.Printf("Session %s deleted.\n", session.ShortID())

		// Drop its search index too, when there is one.
		if cfg, err := loadConfig(); err == nil && cfg.History.Enabled {
			if vs, err := openVectorStore(cfg); err == nil {
				_ = vs.DeleteSession(context.Background(), session.ID)
			}
		}
	},
}

var sessionsCleanCmd = &cobra.Command{
	Use:     "cleanup",
	Aliases: []string{"clean"},
	Short:   "Remove expired and excess sessions",
	Long: fmt.Sprintf(`Cleanup removes sessions older than %d days and keeps at most the
%d most recent ones.`, memory.ExpiryDays, memory.MaxSessions),
	Run: func(cmd *cobra.Command, args []string) {
		n, err := memory.NewStore("").Cleanup(time.Now())
		if err != nil {
			fail(err)
		}
		fmt.Printf("Sessions cleaned up (%d removed).\n", n)
	},
}

func init() {
	rootCmd.AddCommand(sessionsCmd)
	sessionsCmd.AddCommand(sessionsListCmd)
	sessionsCmd.AddCommand(sessionsShowCmd)
	sessionsCmd.AddCommand(sessionsDeleteCmd)
	sessionsCmd.AddCommand(sessionsCleanCmd)

	sessionsShowCmd.Flags().BoolVarP(&showFull, "full", "f", false, "Show complete message content")
}
