/*
Copyright © 2026 Orkflow Authors
*/
package cli

import (
	"os"
	"strings"

	"Quill/internal/agent"
	"Quill/internal/memory"

	"github.com/spf13/cobra"
)

var completionCmd = &cobra.Command{
	Use:   "completion [bash|zsh|fish|powershell]",
	Short: "Generate shell completion script",
	Long: `Generate a shell completion script for quill. Besides commands and
flags it completes saved session IDs and the values of --context and
--provider.

Bash:
  $ source <(quill completion bash)

Zsh:
  $ quill completion zsh > "${fpath[1]}/_quill"

Fish:
  $ quill completion fish > ~/.config/fish/completions/quill.fish

PowerShell:
  PS> quill completion powershell | Out-String | Invoke-Expression`,
	DisableFlagsInUseLine: true,
	ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
	Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		root := cmd.Root()
		switch args[0] {
		case "bash":
			return root.GenBashCompletionV2(os.Stdout, true)
		case "zsh":
			return root.GenZshCompletion(os.Stdout)
		case "fish":
			return root.GenFishCompletion(os.Stdout, true)
		default:
			return root.GenPowerShellCompletionWithDesc(os.Stdout)
		}
	},
}

// completeSessionIDs offers the short IDs of saved sessions, newest first,
// with the first user message as the description.
func completeSessionIDs(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	sessions, err := memory.NewStore("").List()
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	var out []string
	for i := range sessions {
		id := sessions[i].ShortID()
		if strings.HasPrefix(id, toComplete) {
			out = append(out, id+"\t"+truncateStr(firstUserMessage(&sessions[i]), 40))
		}
	}
	return out, cobra.ShellCompDirectiveNoFileComp
}

func fixedValues(values []string) func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	return cobra.FixedCompletions(values, cobra.ShellCompDirectiveNoFileComp)
}

func init() {
	rootCmd.AddCommand(completionCmd)

	sessionsShowCmd.ValidArgsFunction = completeSessionIDs
	sessionsDeleteCmd.ValidArgsFunction = completeSessionIDs
	for _, cmd := range []*cobra.Command{chatCmd, askCmd} {
		_ = cmd.RegisterFlagCompletionFunc("session", completeSessionIDs)
		_ = cmd.RegisterFlagCompletionFunc("context", fixedValues(agent.Contexts()))
		_ = cmd.RegisterFlagCompletionFunc("provider", fixedValues(agent.Providers()))
	}
}
