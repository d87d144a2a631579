/*
Copyright © 2026 Orkflow Authors
*/
package cli

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "quill",
	Short: "A conversational assistant that routes every request to one tool",
	Long: `Quill answers questions by sending each message to exactly one tool:
a calculator, a statistics engine, a script sandbox, web search,
Wikipedia or a page fetcher. Arithmetic and datasets are recognized
locally; everything else is delegated to a language model that picks
the tool.

Examples:
  quill chat                     Start an interactive session
  quill ask "what is 2^10"       Answer one message and exit
  quill eval "compound(1000, 5, 3)"
  quill route "[1, 2, 3, 4]"     Show which tool would answer
  quill --help                   Show this help message`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	// Global flags available to all commands
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.quill.yaml merged with ./.quill.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
}
