/*
Copyright © 2026 Orkflow Authors
*/
package cli

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"Quill/internal/validate"

	"github.com/spf13/cobra"
)

var keyProvider string

// validateCmd represents the validate command
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check input without running it",
	Long: `Validate runs the same checks quill applies before calling a tool,
without executing anything.

Examples:
  quill validate url https://go.dev
  quill validate code 'x := 1; println(x)'
  quill validate math "sqrt(16) + 2"
  quill validate search "golang generics"
  quill validate key sk-... --provider openai`,
}

func validateRun(check func(input string) validate.Result) func(cmd *cobra.Command, args []string) {
	return func(cmd *cobra.Command, args []string) {
		r := check(strings.Join(args, " "))
		if !printResult(cmd.OutOrStdout(), r) {
			os.Exit(1)
		}
	}
}

// printResult reports r and whether it was valid.
func printResult(out io.Writer, r validate.Result) bool {
	if r.Valid {
		fmt.Fprintln(out, successStyle.Render("✓ Valid"))
		return true
	}
	fmt.Fprintln(out, errorStyle.Render("✗ "+r.Message))
	keys := make([]string, 0, len(r.Details))
	for k := range r.Details {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(out, "  %s: %v\n", dimStyle.Render(k), r.Details[k])
	}
	return false
}

var validateURLCmd = &cobra.Command{
	Use:   "url <url>",
	Short: "Check that a URL has an http(s) scheme and a host",
	Args:  cobra.ExactArgs(1),
	Run:   validateRun(func(s string) validate.Result { return validate.URL(s) }),
}

var validateCodeCmd = &cobra.Command{
	Use:   "code <code>",
	Short: "Syntax-check a script",
	Args:  cobra.MinimumNArgs(1),
	Run:   validateRun(validate.Code),
}

var validateMathCmd = &cobra.Command{
	Use:   "math <expression>",
	Short: "Check an expression against the calculator's allow-list",
	Args:  cobra.MinimumNArgs(1),
	Run: validateRun(func(s string) validate.Result {
		return validate.MathExpression(s, validate.MathOptions{})
	}),
}

var validateSearchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Check a search query's length and content",
	Args:  cobra.MinimumNArgs(1),
	Run: validateRun(func(s string) validate.Result {
		return validate.SearchQuery(s, validate.SearchOptions{})
	}),
}

var validateKeyCmd = &cobra.Command{
	Use:   "key <api-key>",
	Short: "Check the format of an API key",
	Args:  cobra.ExactArgs(1),
	Run: validateRun(func(s string) validate.Result {
		return validate.APIKey(s, keyProvider)
	}),
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.AddCommand(validateURLCmd)
	validateCmd.AddCommand(validateCodeCmd)
	validateCmd.AddCommand(validateMathCmd)
	validateCmd.AddCommand(validateSearchCmd)
	validateCmd.AddCommand(validateKeyCmd)

	validateKeyCmd.Flags().StringVar(&keyProvider, "provider", "openai", "Key provider ("+strings.Join(validate.APIKeyProviders(), ", ")+")")
}
