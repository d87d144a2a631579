package types

import "time"

// LLMConfig selects the chat model used for free-form routing.
type LLMConfig struct {
	Provider    string        `yaml:"provider" default:"openai" validate:"required"`
	Model       string        `yaml:"model" default:"gpt-3.5-turbo" validate:"required"`
	BaseURL     string        `yaml:"base_url,omitempty" validate:"omitempty,url"`
	APIKey      string        `yaml:"api_key,omitempty"`
	Temperature float32       `yaml:"temperature" default:"0.7" validate:"gte=0,lte=2"`
	Timeout     time.Duration `yaml:"timeout" default:"60s" validate:"gt=0"`
	// ToolProtocol is "functions" for native function calling or "text" for
	// models that can only answer with ```tool:<name> blocks.
	ToolProtocol string `yaml:"tool_protocol" default:"functions" validate:"oneof=functions text"`
}

// MemoryConfig bounds the conversation history.
type MemoryConfig struct {
	MaxMessages   int    `yaml:"max_messages" default:"100" validate:"gte=1"`
	SystemMessage string `yaml:"system_message,omitempty"`
	Persist       bool   `yaml:"persist" default:"true"`
}

// ToolsConfig carries the external endpoints and limits of the capabilities.
type ToolsConfig struct {
	SerpAPIKey        string        `yaml:"serpapi_key,omitempty"`
	SearchEndpoint    string        `yaml:"search_endpoint" default:"https://serpapi.com/search.json" validate:"required,url"`
	WikipediaEndpoint string        `yaml:"wikipedia_endpoint" default:"https://%s.wikipedia.org" validate:"required"`
	FetchTimeout      time.Duration `yaml:"fetch_timeout" default:"10s" validate:"gt=0"`
	FetchMaxLength    int           `yaml:"fetch_max_length" default:"1000" validate:"gte=1"`
	ScriptTimeout     time.Duration `yaml:"script_timeout" default:"10s" validate:"gt=0"`
	ScriptMaxAllocs   int64         `yaml:"script_max_allocs" default:"5000000" validate:"gte=0"`
}

// LoggingConfig controls the per-session log file.
type LoggingConfig struct {
	Enabled bool   `yaml:"enabled"`
	Dir     string `yaml:"dir,omitempty"`
	Level   string `yaml:"level" default:"info" validate:"oneof=debug info warn error"`
}

// HistoryConfig controls indexing of finished sessions for search.
type HistoryConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Embedder string `yaml:"embedder" default:"ollama" validate:"oneof=ollama openai"`
	Model    string `yaml:"model" default:"nomic-embed-text"`
}

// Config is the effective quill configuration.
type Config struct {
	LLM     LLMConfig     `yaml:"llm"`
	Memory  MemoryConfig  `yaml:"memory"`
	Tools   ToolsConfig   `yaml:"tools"`
	Logging LoggingConfig `yaml:"logging"`
	History HistoryConfig `yaml:"history"`
}
