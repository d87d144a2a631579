// Package config loads the effective quill configuration from .env, the
// global and local YAML files and the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"Quill/internal/errs"
	"Quill/internal/validate"
	"Quill/pkg/types"
)

const fileName = ".quill.yaml"

// Environment variables that override file settings.
const (
	EnvOpenAIKey  = "OPENAI_API_KEY"
	EnvSerpAPIKey = "SERPAPI_API_KEY"
	EnvModel      = "QUILL_MODEL"
	EnvProvider   = "QUILL_PROVIDER"
	EnvBaseURL    = "QUILL_BASE_URL"
)

// Options selects the sources Load reads. Empty paths use the defaults.
type Options struct {
	GlobalPath string
	LocalPath  string
	// File replaces both YAML layers when set (the --config flag).
	File    string
	EnvFile string
	// Getenv defaults to os.Getenv.
	Getenv func(string) string
}

// GlobalPath is ~/.quill.yaml.
func GlobalPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, fileName)
}

// LocalPath is ./.quill.yaml.
func LocalPath() string {
	cwd, _ := os.Getwd()
	return filepath.Join(cwd, fileName)
}

// Load builds the effective configuration: defaults, then the global file,
// then the local file (local overrides global), then the environment. The
// result is validated; API key formats are checked separately by CheckKeys.
func Load(opts Options) (*types.Config, error) {
	const op = "config.load"

	envFile := opts.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, errs.Wrap(errs.ConfigurationError, op, err, "Could not read "+envFile)
	}

	cfg := &types.Config{}
	if err := defaults.Set(cfg); err != nil {
		return nil, errs.Wrap(errs.ConfigurationError, op, err, "Could not apply default configuration")
	}

	layers := []string{opts.GlobalPath, opts.LocalPath}
	if layers[0] == "" {
		layers[0] = GlobalPath()
	}
	if layers[1] == "" {
		layers[1] = LocalPath()
	}
	if opts.File != "" {
		layers = []string{opts.File}
	}
	for _, path := range layers {
		if err := mergeFile(cfg, path, opts.File != ""); err != nil {
			return nil, err
		}
	}

	getenv := opts.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}
	applyEnv(cfg, getenv)

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// mergeFile decodes path over cfg. Keys missing from the file keep their
// current values.
func mergeFile(cfg *types.Config, path string, required bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !required {
			return nil
		}
		return errs.Wrap(errs.ConfigurationError, "config.load", err, "Could not read config file "+path)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return errs.Wrap(errs.ConfigurationError, "config.load", err, "Could not parse config file "+path).
			With("path", path)
	}
	return nil
}

func applyEnv(cfg *types.Config, getenv func(string) string) {
	set := func(dst *string, key string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}
	set(&cfg.LLM.APIKey, EnvOpenAIKey)
	set(&cfg.Tools.SerpAPIKey, EnvSerpAPIKey)
	set(&cfg.LLM.Model, EnvModel)
	set(&cfg.LLM.Provider, EnvProvider)
	set(&cfg.LLM.BaseURL, EnvBaseURL)
}

var structValidator = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field constraints and reports the first violation.
func Validate(cfg *types.Config) error {
	err := structValidator.Struct(cfg)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return errs.Wrap(errs.ConfigurationError, "config.validate", err, "Invalid configuration")
	}
	fe := verrs[0]
	msg := fmt.Sprintf("Invalid configuration: %s failed '%s'", fieldPath(fe.Namespace()), fe.Tag())
	if fe.Param() != "" {
		msg = fmt.Sprintf("Invalid configuration: %s failed '%s=%s'", fieldPath(fe.Namespace()), fe.Tag(), fe.Param())
	}
	return errs.New(errs.ConfigurationError, "config.validate", msg).With("field", fe.Namespace())
}

// fieldPath turns "Config.LLM.Temperature" into "llm.temperature".
func fieldPath(ns string) string {
	_, rest, found := strings.Cut(ns, ".")
	if !found {
		rest = ns
	}
	return strings.ToLower(rest)
}

// CheckKeys fails fast on malformed API keys before any network call.
// Keys for OpenAI-compatible servers at a custom base URL are not checked.
func CheckKeys(cfg *types.Config) error {
	const op = "config.keys"
	if cfg.LLM.Provider == "openai" && cfg.LLM.BaseURL == "" {
		if cfg.LLM.APIKey == "" {
			return errs.New(errs.ConfigurationError, op, "OpenAI API key not configured (set "+EnvOpenAIKey+")")
		}
		if r := validate.APIKey(cfg.LLM.APIKey, "openai"); !r.Valid {
			return r.Err(op)
		}
	}
	if cfg.Tools.SerpAPIKey != "" {
		if r := validate.APIKey(cfg.Tools.SerpAPIKey, "serpapi"); !r.Valid {
			return r.Err(op)
		}
	}
	return nil
}

// Mask hides all but the first and last four characters of a key.
func Mask(key string) string {
	switch {
	case key == "":
		return "(not set)"
	case len(key) <= 8:
		return strings.Repeat("*", len(key))
	default:
		return key[:4] + "..." + key[len(key)-4:]
	}
}

// KeyStatus describes one configured API key.
type KeyStatus struct {
	Provider string
	Masked   string
	Set      bool
	Valid    bool
	Message  string
}

// Keys reports the status of every API key quill uses.
func Keys(cfg *types.Config) []KeyStatus {
	status := func(provider, key string) KeyStatus {
		ks := KeyStatus{Provider: provider, Masked: Mask(key), Set: key != ""}
		if ks.Set {
			r := validate.APIKey(key, provider)
			ks.Valid, ks.Message = r.Valid, r.Message
		}
		return ks
	}
	return []KeyStatus{
		status("openai", cfg.LLM.APIKey),
		status("serpapi", cfg.Tools.SerpAPIKey),
	}
}
