package agent

import (
	"context"
	"net/http"
	"sort"
	"strings"

	"Quill/internal/errs"
	"Quill/internal/memory"
	"Quill/internal/tools"
	"Quill/pkg/types"
)

// Request is one model turn.
type Request struct {
	System      string
	Messages    []memory.Message
	Tools       []tools.Definition
	Temperature float32
}

// FunctionCall is a structured tool call issued by the model.
type FunctionCall struct {
	Name      string
	Arguments string
}

// Usage counts the tokens of one turn.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
}

// Response is the model's answer: either text or a function call.
type Response struct {
	Content string
	Call    *FunctionCall
	Usage   Usage
}

// Completer is the model boundary.
type Completer interface {
	Complete(ctx context.Context, req Request) (Response, error)
}

// Known OpenAI-compatible API base URLs
var knownBaseURLs = map[string]string{
	"ollama":     "http://localhost:11434/v1",
	"groq":       "https://api.groq.com/openai/v1",
	"mistral":    "https://api.mistral.ai/v1",
	"together":   "https://api.together.xyz/v1",
	"perplexity": "https://api.perplexity.ai",
	"openrouter": "https://openrouter.ai/api/v1",
	"deepseek":   "https://api.deepseek.com/v1",
	"fireworks":  "https://api.fireworks.ai/inference/v1",
}

// Providers lists the provider names NewCompleter accepts without a base URL.
func Providers() []string {
	out := []string{"openai"}
	for p := range knownBaseURLs {
		out = append(out, p)
	}
	sort.Strings(out[1:])
	return out
}

// NewCompleter builds the client for cfg. Every provider is spoken to
// through the OpenAI chat API; providers other than openai need a known or
// configured base URL.
func NewCompleter(cfg types.LLMConfig, hc *http.Client) (Completer, error) {
	const op = "agent.new_completer"
	provider := strings.ToLower(cfg.Provider)
	baseURL := cfg.BaseURL
	if baseURL == "" && provider != "openai" {
		known, ok := knownBaseURLs[provider]
		if !ok {
			return nil, errs.Newf(errs.ConfigurationError, op, "Unknown provider '%s' (set llm.base_url)", cfg.Provider)
		}
		baseURL = known
	}
	if hc == nil {
		hc = &http.Client{Timeout: cfg.Timeout}
	}
	return NewOpenAIClient(cfg.APIKey, cfg.Model, baseURL, hc), nil
}
