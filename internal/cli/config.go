/*
Copyright © 2026 Orkflow Authors
*/
package cli

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"Quill/internal/agent"
	"Quill/internal/config"
	"Quill/pkg/types"

	"github.com/spf13/cobra"
)

var (
	apiKey       string
	serpKey      string
	model        string
	provider     string
	baseURL      string
	toolProtocol string
	show         bool
	showKeys     bool
	global       bool
	local        bool
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configure quill settings",
	Long: `Configure quill settings like API keys, model, and provider.

Configuration can be stored globally or locally:
  --global    Save to ~/.quill.yaml (user-wide, default)
  --local     Save to ./.quill.yaml (project-specific)

Local config takes precedence over global config. Environment variables
(OPENAI_API_KEY, SERPAPI_API_KEY, QUILL_MODEL, QUILL_PROVIDER,
QUILL_BASE_URL) take precedence over both.

Examples:
  quill config --api "sk-xxx" --global       Set global OpenAI API key
  quill config --serpapi "xxx"               Enable web search
  quill config --model "gpt-4o-mini" --local Set project-specific model
  quill config --provider ollama --model llama3 --protocol text
  quill config --show                        Show current configuration
  quill config --keys                        Check configured API keys`,
	Run: func(cmd *cobra.Command, args []string) {
		configPath := getConfigPathWithScope()

		if show {
			showConfigWithScope()
			return
		}
		if showKeys {
			showKeyStatus()
			return
		}

		values := map[string]string{}
		set := func(key, value, label string, secret bool) {
			if value == "" {
				return
			}
			values[key] = value
			if secret {
				fmt.Println(successStyle.Render("✓ " + label + " set"))
			} else {
				fmt.Println(successStyle.Render(fmt.Sprintf("✓ %s set to: %s", label, value)))
			}
		}
		set("llm.api_key", apiKey, "API key", true)
		set("tools.serpapi_key", serpKey, "SerpAPI key", true)
		set("llm.model", model, "Model", false)
		set("llm.provider", provider, "Provider", false)
		set("llm.base_url", baseURL, "Base URL", false)
		set("llm.tool_protocol", toolProtocol, "Tool protocol", false)

		if len(values) == 0 {
			fmt.Println("Error: No configuration option provided.")
			fmt.Println()
			fmt.Println(cmd.UsageString())
			os.Exit(1)
		}

		if err := config.SetValues(configPath, values); err != nil {
			fail(err)
		}

		scope := "global"
		if local {
			scope = "local"
		}
		fmt.Printf("\nConfiguration saved to: %s (%s)\n", configPath, scope)

		if _, err := loadConfig(); err != nil {
			fmt.Println(warnStyle.Render("⚠️  The configuration is now invalid: " + errText(err)))
		}
	},
}

func init() {
	rootCmd.AddCommand(configCmd)

	configCmd.Flags().StringVar(&apiKey, "api", "", "API key for the model provider")
	configCmd.Flags().StringVar(&serpKey, "serpapi", "", "SerpAPI key for web search")
	configCmd.Flags().StringVar(&model, "model", "", "Default model to use")
	configCmd.Flags().StringVar(&provider, "provider", "", "Model provider (openai, ollama, groq, etc.)")
	configCmd.Flags().StringVar(&baseURL, "base-url", "", "Base URL of an OpenAI-compatible API")
	configCmd.Flags().StringVar(&toolProtocol, "protocol", "", "Tool protocol: functions or text")
	configCmd.Flags().BoolVar(&show, "show", false, "Show current configuration")
	configCmd.Flags().BoolVar(&showKeys, "keys", false, "Show the status of configured API keys")
	configCmd.Flags().BoolVar(&global, "global", false, "Use global config (~/.quill.yaml)")
	configCmd.Flags().BoolVar(&local, "local", false, "Use local config (./.quill.yaml)")

	_ = configCmd.RegisterFlagCompletionFunc("provider", fixedValues(agent.Providers()))
	_ = configCmd.RegisterFlagCompletionFunc("protocol", fixedValues([]string{"functions", "text"}))
}

func getConfigPathWithScope() string {
	if local {
		return config.LocalPath()
	}
	// Default to global
	return config.GlobalPath()
}

func showConfigWithScope() {
	var path string
	switch {
	case local:
		path = config.LocalPath()
		fmt.Println(titleStyle.Render("=== Local Configuration ==="))
	case global:
		path = config.GlobalPath()
		fmt.Println(titleStyle.Render("=== Global Configuration ==="))
	default:
		fmt.Println(titleStyle.Render("=== Effective Configuration ==="))
		fmt.Printf("Global: %s\n", config.GlobalPath())
		fmt.Printf("Local:  %s\n\n", config.LocalPath())
		cfg, err := loadConfig()
		if err != nil {
			fail(err)
		}
		printConfig(cfg)
		return
	}

	fmt.Printf("Config file: %s\n\n", path)
	raw, err := config.ReadRaw(path)
	if err != nil {
		fail(err)
	}
	if len(raw) == 0 {
		fmt.Println(dimStyle.Render("(empty)"))
		return
	}
	for _, line := range flatten("", raw) {
		fmt.Println(line)
	}
}

func printConfig(cfg *types.Config) {
	row := func(label, value string) {
		if value == "" {
			value = dimStyle.Render("(not set)")
		}
		fmt.Printf("%s %s\n", labelStyle.Render(fmt.Sprintf("%-18s", label+":")), value)
	}
	row("Provider", cfg.LLM.Provider)
	row("Model", cfg.LLM.Model)
	row("Base URL", cfg.LLM.BaseURL)
	row("API Key", config.Mask(cfg.LLM.APIKey))
	row("Temperature", fmt.Sprintf("%.2f", cfg.LLM.Temperature))
	row("Tool protocol", cfg.LLM.ToolProtocol)
	row("SerpAPI Key", config.Mask(cfg.Tools.SerpAPIKey))
	row("Max messages", fmt.Sprint(cfg.Memory.MaxMessages))
	row("Save sessions", fmt.Sprint(cfg.Memory.Persist))
	row("Fetch limit", fmt.Sprintf("%d chars, %s", cfg.Tools.FetchMaxLength, cfg.Tools.FetchTimeout))
	row("Script limits", fmt.Sprintf("%s, %d allocs", cfg.Tools.ScriptTimeout, cfg.Tools.ScriptMaxAllocs))
	row("Logging", fmt.Sprintf("%v (%s)", cfg.Logging.Enabled, cfg.Logging.Level))
	row("History search", fmt.Sprintf("%v (%s/%s)", cfg.History.Enabled, cfg.History.Embedder, cfg.History.Model))
}

func showKeyStatus() {
	cfg, err := loadConfig()
	if err != nil {
		fail(err)
	}
	for _, ks := range config.Keys(cfg) {
		status := dimStyle.Render("not set")
		switch {
		case ks.Set && ks.Valid:
			status = successStyle.Render("✓ valid format")
		case ks.Set:
			status = errorStyle.Render("✗ " + ks.Message)
		}
		fmt.Printf("%-8s %-16s %s\n", ks.Provider, ks.Masked, status)
	}
}

// flatten renders nested config keys as sorted "a.b: value" lines, masking
// API keys.
func flatten(prefix string, m map[string]any) []string {
	var lines []string
	for k, v := range m {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if child, ok := v.(map[string]any); ok {
			lines = append(lines, flatten(key, child)...)
			continue
		}
		value := fmt.Sprint(v)
		if strings.HasSuffix(key, "_key") {
			value = config.Mask(value)
		}
		lines = append(lines, fmt.Sprintf("%s: %s", key, value))
	}
	sort.Strings(lines)
	return lines
}
