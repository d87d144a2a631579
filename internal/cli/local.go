/*
Copyright © 2026 Orkflow Authors
*/
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"Quill/internal/calc"
	"Quill/internal/dataset"
	"Quill/internal/router"
	"Quill/internal/sandbox"
	"Quill/internal/validate"
	"Quill/pkg/types"

	"github.com/spf13/cobra"
)

var execFile string

var evalCmd = &cobra.Command{
	Use:   "eval <expression>",
	Short: "Evaluate an arithmetic expression",
	Long: `Eval computes one expression with the calculator.

Supports + - * / ^, pi and e, abs, round, pow, sqrt, sin, cos, tan,
log, log10, exp, floor, ceil, factorial (or n!), compound(p, rate, t)
and simple(p, rate, t) with the rate in percent.

Examples:
  quill eval "2 ^ 10"
  quill eval "compound(1000, 5, 3)"
  quill eval "25!"`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		expr := strings.Join(args, " ")
		if r := validate.MathExpression(expr, validate.MathOptions{}); !r.Valid {
			fail(r.Err("cli.eval"))
		}
		result, err := calc.Evaluate(expr)
		if err != nil {
			fail(err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), result.String())
	},
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze <dataset>",
	Short: "Compute statistics for one or two datasets",
	Long: `Analyze reports count, mean, median, deviation, range and trend
for a dataset, or compares two datasets side by side.

Examples:
  quill analyze "[1, 2, 3, 4, 5]"
  quill analyze "1, 2, ..., 100"
  quill analyze "compare [1, 2, 3] and [4, 5, 6]"`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig()
		if err != nil {
			fail(err)
		}
		exec := sandbox.New(sandbox.Options{Timeout: cfg.Tools.ScriptTimeout, MaxAllocs: cfg.Tools.ScriptMaxAllocs})
		out, err := dataset.NewAnalyzer(exec).Analyze(context.Background(), strings.Join(args, " "))
		if err != nil {
			fail(err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), out)
	},
}

var execCmd = &cobra.Command{
	Use:   "exec [code]",
	Short: "Run a script in the sandbox",
	Long: `Exec runs a Tengo script and prints what it printed. The code can be
given as an argument, read from a file with --file, or piped on stdin.

Examples:
  quill exec 'println(sum([1, 2, 3]))'
  quill exec --file script.tengo
  echo 'x := 6 * 7; output = x' | quill exec`,
	Run: func(cmd *cobra.Command, args []string) {
		code, err := scriptSource(args, execFile, cmd.InOrStdin())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading script: %v\n", err)
			os.Exit(1)
		}
		cfg, err := loadConfig()
		if err != nil {
			fail(err)
		}
		exec := sandbox.New(sandbox.Options{Timeout: cfg.Tools.ScriptTimeout, MaxAllocs: cfg.Tools.ScriptMaxAllocs})
		out, err := exec.Execute(context.Background(), sandbox.NewContext("cli"), code)
		if err != nil {
			fail(err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), out)
	},
}

func scriptSource(args []string, file string, stdin io.Reader) (string, error) {
	switch {
	case file != "":
		data, err := os.ReadFile(file)
		return string(data), err
	case len(args) > 0:
		return strings.Join(args, " "), nil
	default:
		data, err := io.ReadAll(stdin)
		return string(data), err
	}
}

var routeCmd = &cobra.Command{
	Use:   "route <message>",
	Short: "Show which tool would answer a message",
	Long: `Route runs the local routing rules over a message and prints the
decision. Messages no rule matches are left to the language model.

Examples:
  quill route "2 + 2"
  quill route "[1, 2, 3]"
  quill route "who painted the Mona Lisa"`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		d, err := router.New().Route(strings.Join(args, " "))
		if err != nil {
			fail(err)
		}
		printDecision(cmd.OutOrStdout(), d)
	},
}

func printDecision(out io.Writer, d types.RoutingDecision) {
	tool := d.Capability.ToolName()
	if d.Capability == types.FreeForm {
		tool = "(language model decides)"
	}
	rule := d.Rule
	if rule == "" {
		rule = "(none)"
	}
	fmt.Fprintf(out, "%s %s\n", labelStyle.Render("Capability:"), d.Capability)
	fmt.Fprintf(out, "%s %s\n", labelStyle.Render("Tool:      "), tool)
	fmt.Fprintf(out, "%s %s\n", labelStyle.Render("Rule:      "), rule)
	fmt.Fprintf(out, "%s %s\n", labelStyle.Render("Signal:    "), d.Signal)
}

func init() {
	rootCmd.AddCommand(evalCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(execCmd)
	rootCmd.AddCommand(routeCmd)

	execCmd.Flags().StringVarP(&execFile, "file", "f", "", "Read the script from a file")
}
