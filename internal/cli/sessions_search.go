/*
Copyright © 2026 Orkflow Authors
*/
package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"Quill/internal/memory"
	"Quill/internal/vectorstore"

	"github.com/spf13/cobra"
)

var (
	searchLimit int
	reindexAll  bool
)

var sessionsSearchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search sessions semantically",
	Long: `Search through past session messages using semantic similarity.

Sessions are indexed when they end if history.enabled is set in the
configuration. Use --reindex to index every saved session first.

The default embedder is Ollama running locally with nomic-embed-text;
set history.embedder to "openai" to use the configured OpenAI key.

Examples:
  quill sessions search "compound interest"
  quill sessions search "standard deviation" --limit 5
  quill sessions search "wikipedia" --reindex`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		query := strings.Join(args, " ")
		cfg, err := loadConfig()
		if err != nil {
			fail(err)
		}

		store, err := openVectorStore(cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: Could not open vector store: %v\n", err)
			os.Exit(1)
		}
		ctx := context.Background()

		if reindexAll {
			n, err := reindex(ctx, store)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error indexing sessions: %v\n", err)
				fmt.Println("\n💡 Make sure the embedder is reachable, e.g. for Ollama:")
				fmt.Println("   ollama pull " + cfg.History.Model)
				os.Exit(1)
			}
			fmt.Println(dimStyle.Render(fmt.Sprintf("🧠 Indexed %d messages", n)))
		}

		fmt.Printf("🔍 Searching for: \"%s\"\n\n", query)

		results, err := store.Search(ctx, query, searchLimit)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error searching: %v\n", err)
			os.Exit(1)
		}

		if len(results) == 0 {
			fmt.Println("No matching sessions found.")
			fmt.Println("Enable history.enabled or use --reindex to build the index.")
			return
		}

		for i, r := range results {
			fmt.Println(titleStyle.Render(fmt.Sprintf("─── Result %d (%.1f%% match) ───", i+1, r.Score*100)))
			if sessionID, ok := r.Metadata["session_id"]; ok {
				fmt.Printf("Session: %s\n", sessionID)
			}
			who := r.Metadata["role"]
			if tool := r.Metadata["tool"]; tool != "" {
				who += " (" + tool + ")"
			}
			fmt.Printf("From: %s  %s\n", who, dimStyle.Render(r.Metadata["timestamp"]))
			fmt.Printf("\n%s\n\n", truncateStr(r.Content, 300))
		}
	},
}

// reindex indexes every saved session and returns the number of messages.
func reindex(ctx context.Context, store *vectorstore.ChromemStore) (int, error) {
	sessions, err := memory.NewStore("").List()
	if err != nil {
		return 0, err
	}
	total := 0
	for i := range sessions {
		if err := store.DeleteSession(ctx, sessions[i].ID); err != nil {
			return total, err
		}
		n, err := vectorstore.IndexSession(ctx, store, &sessions[i])
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}

func init() {
	sessionsCmd.AddCommand(sessionsSearchCmd)
	sessionsSearchCmd.Flags().IntVarP(&searchLimit, "limit", "l", 3, "Number of results to return")
	sessionsSearchCmd.Flags().BoolVar(&reindexAll, "reindex", false, "Index every saved session before searching")
}
