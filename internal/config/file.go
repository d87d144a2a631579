package config

import (
	"errors"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"Quill/internal/errs"
)

// ReadRaw returns the keys actually present in a config file, without
// defaults. A missing file is empty.
func ReadRaw(path string) (map[string]any, error) {
	raw := map[string]any{}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return raw, nil
		}
		return nil, errs.Wrap(errs.ConfigurationError, "config.read", err, "Could not read config file "+path)
	}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, errs.Wrap(errs.ConfigurationError, "config.read", err, "Could not parse config file "+path)
	}
	if raw == nil {
		raw = map[string]any{}
	}
	return raw, nil
}

// SetValues writes dotted keys such as "llm.model" into the file at path,
// keeping every other key it already holds.
func SetValues(path string, values map[string]string) error {
	raw, err := ReadRaw(path)
	if err != nil {
		return err
	}
	for key, value := range values {
		setDotted(raw, strings.Split(key, "."), value)
	}

	data, err := yaml.Marshal(raw)
	if err != nil {
		return errs.Wrap(errs.ConfigurationError, "config.write", err, "Could not encode configuration")
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return errs.Wrap(errs.ConfigurationError, "config.write", err, "Could not write config file "+path)
	}
	return nil
}

func setDotted(m map[string]any, keys []string, value string) {
	if len(keys) == 1 {
		m[keys[0]] = value
		return
	}
	child, ok := m[keys[0]].(map[string]any)
	if !ok {
		child = map[string]any{}
		m[keys[0]] = child
	}
	setDotted(child, keys[1:], value)
}
