/*
Copyright © 2026 Orkflow Authors
*/
package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"Quill/internal/agent"

	"github.com/spf13/cobra"
)

var chatOpts sessionOptions

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive session",
	Long: `Chat reads messages from the terminal and answers each one with a
single tool. Arithmetic and datasets are handled locally; other messages
go to the configured language model, which picks the tool.

Session Options:
  --session <id>    Continue a specific session
  --continue        Continue the most recent session

Model Override:
  --provider        Override the provider (e.g., ollama, groq)
  --model           Override the model name
  --context         System message: default, scientific, code,
                    comparison, financial or search

Logging:
  --log             Enable file-based session logging

Commands inside the session:
  /clear     Forget the conversation and script variables
  /actions   Show the tool calls made so far
  /vars      Show the script variables
  /stats     Show timing and token usage
  /exit      Save the session and quit

Examples:
  quill chat
  quill chat --continue
  quill chat --provider ollama --model llama3`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		a, err := newApp(chatOpts)
		if err != nil {
			fail(err)
		}
		defer a.close()

		if a.resumed {
			fmt.Printf("📚 Continuing session: %s (%d messages)\n", a.session.ShortID(), len(a.session.Messages))
		} else {
			fmt.Printf("📝 New session: %s\n", a.session.ShortID())
		}
		fmt.Println(Box(
			titleStyle.Render("Quill")+"  "+dimStyle.Render(a.cfg.LLM.Provider+"/"+a.cfg.LLM.Model),
			dimStyle.Render("Tools: "+strings.Join(a.agent.Registry().Names(), ", ")),
			dimStyle.Render("Type /exit to quit, /clear to start over"),
		))

		runChat(context.Background(), a.agent, os.Stdin, os.Stdout)

		printStats(os.Stdout, a.agent.Stats())
	},
}

// runChat answers lines from in until /exit or EOF.
func runChat(ctx context.Context, ag *agent.Agent, in io.Reader, out io.Writer) {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for {
		fmt.Fprint(out, labelStyle.Render("You: "))
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return
		}
		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case "/exit", "/quit":
			return
		case "/clear":
			ag.ClearHistory()
			fmt.Fprintln(out, successStyle.Render("✓ Conversation cleared"))
			continue
		case "/actions":
			printActions(out, ag.Actions())
			continue
		case "/stats":
			printStats(out, ag.Stats())
			continue
		case "/vars":
			printVariables(out, ag.Variables())
			continue
		}

		before := len(ag.Actions())
		reply := ag.Process(ctx, line)
		prefix := "🤖"
		if actions := ag.Actions(); len(actions) > before {
			prefix = ToolEmoji(actions[len(actions)-1].Tool)
		}
		fmt.Fprintf(out, "%s %s\n\n", prefix, Reply(reply))
	}
}

func printActions(out io.Writer, actions []agent.Action) {
	if len(actions) == 0 {
		fmt.Fprintln(out, dimStyle.Render("No tool calls yet."))
		return
	}
	for i, act := range actions {
		status := successStyle.Render("ok")
		if act.Failed {
			status = errorStyle.Render("failed")
		}
		fmt.Fprintf(out, "%d. %s %s [%s, %s] %s\n", i+1, ToolEmoji(act.Tool), labelStyle.Render(act.Tool),
			act.Signal, status, dimStyle.Render(act.Duration.Round(time.Millisecond).String()))
		fmt.Fprintf(out, "   in:  %s\n", truncateStr(act.Input, 70))
		fmt.Fprintf(out, "   out: %s\n", truncateStr(strings.ReplaceAll(act.Output, "\n", " "), 70))
	}
}

func printVariables(out io.Writer, vars []agent.Variable) {
	if len(vars) == 0 {
		fmt.Fprintln(out, dimStyle.Render("No script variables."))
		return
	}
	for _, v := range vars {
		fmt.Fprintf(out, "%s = %s\n", labelStyle.Render(v.Name), truncateStr(v.Value, 70))
	}
}

func printStats(out io.Writer, stats *agent.Stats) {
	total, failed := stats.Count()
	if total == 0 {
		return
	}
	lines := []string{
		fmt.Sprintf("⏱️  Time: %s", FormatDuration(stats.Elapsed().Seconds())),
		fmt.Sprintf("💬 Messages: %d (%d failed)", total, failed),
	}

	usage := stats.ToolUsage()
	names := make([]string, 0, len(usage))
	for name := range usage {
		if name != "" {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	for _, name := range names {
		lines = append(lines, fmt.Sprintf("   %s %s: %d", ToolEmoji(name), name, usage[name]))
	}

	if stats.TotalTokens.Input+stats.TotalTokens.Output > 0 {
		lines = append(lines, fmt.Sprintf("🔢 Tokens: %d in / %d out", stats.TotalTokens.Input, stats.TotalTokens.Output))
	}
	if cost := stats.EstimateCost(); cost > 0 {
		lines = append(lines, "💰 Est. Cost: "+warnStyle.Render(fmt.Sprintf("$%.6f", cost)))
	}
	fmt.Fprintln(out, Box(lines...))
}

func addSessionFlags(cmd *cobra.Command, opts *sessionOptions) {
	cmd.Flags().StringVar(&opts.SessionID, "session", "", "Continue a specific session by ID")
	cmd.Flags().BoolVar(&opts.Continue, "continue", false, "Continue the most recent session")
	cmd.Flags().StringVar(&opts.Provider, "provider", "", "Override the model provider (e.g., openai, ollama)")
	cmd.Flags().StringVar(&opts.Model, "model", "", "Override the model (e.g., gpt-4o-mini, llama3)")
	cmd.Flags().StringVar(&opts.Context, "context", agent.DefaultContext, "System message ("+strings.Join(agent.Contexts(), ", ")+")")
	cmd.Flags().BoolVar(&opts.Log, "log", false, "Enable file-based session logging")
}

func init() {
	rootCmd.AddCommand(chatCmd)
	addSessionFlags(chatCmd, &chatOpts)
}
