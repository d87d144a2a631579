/*
Copyright © 2026 Orkflow Authors
*/
package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var (
	askOpts    sessionOptions
	askActions bool
)

var askCmd = &cobra.Command{
	Use:   "ask <message>",
	Short: "Answer a single message",
	Long: `Ask routes one message to a tool, prints the answer and exits.
The exchange is saved as a session, so it can be continued with
'quill chat --continue'.

Examples:
  quill ask "23 * 36 - (4^7)"
  quill ask "mean of [10, 20, 30]"
  quill ask "who wrote Dune" --actions`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		a, err := newApp(askOpts)
		if err != nil {
			fail(err)
		}
		defer a.close()

		reply := a.agent.Process(context.Background(), strings.Join(args, " "))
		if askActions {
			printActions(os.Stdout, a.agent.Actions())
			fmt.Println()
		}
		fmt.Println(Reply(reply))
	},
}

func init() {
	rootCmd.AddCommand(askCmd)
	addSessionFlags(askCmd, &askOpts)
	askCmd.Flags().BoolVar(&askActions, "actions", false, "Show the tool calls made")
}
