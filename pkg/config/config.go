package config

import (
	"fmt"
	"os"
	"regexp"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
)

// envVarPattern matches ${VAR} and ${VAR:-default} expressions.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-([^}]*))?\}`)

// Load reads a YAML config file, performs environment variable substitution
// on the raw bytes, then unmarshals over the defaults and validates.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}

	data = substituteEnvVars(data)

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// substituteEnvVars replaces ${VAR} and ${VAR:-default} patterns in content
// with the corresponding environment variable values. If a variable is not
// set and no default is provided, the expression is replaced with an empty
// string.
func substituteEnvVars(content []byte) []byte {
	return envVarPattern.ReplaceAllFunc(content, func(match []byte) []byte {
		groups := envVarPattern.FindSubmatch(match)
		if groups == nil {
			return match
		}

		varName := string(groups[1])
		defaultVal := ""
		hasDefault := len(groups) > 2 && groups[2] != nil
		if hasDefault {
			defaultVal = string(groups[2])
		}

		val, ok := os.LookupEnv(varName)
		if !ok || val == "" {
			if hasDefault {
				return []byte(defaultVal)
			}
			return []byte("")
		}
		return []byte(val)
	})
}

// Validate checks that required fields are set and values are within
// expected ranges.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}

	if cfg.Service.ID == "" {
		return fmt.Errorf("service.id is required")
	}

	if t := cfg.Engine.ConfidenceThreshold; t < 0 || t > 1 {
		return fmt.Errorf("engine.confidence_threshold must be between 0.0 and 1.0, got %f", t)
	}

	if c := cfg.Engine.RedactionChar; c != "" && utf8.RuneCountInString(c) != 1 {
		return fmt.Errorf("engine.redaction_char must be a single character, got %q", c)
	}

	if cfg.Server.HTTP.Port < 0 {
		return fmt.Errorf("server.http.port must be non-negative, got %d", cfg.Server.HTTP.Port)
	}
	if cfg.Server.Metrics.Port < 0 {
		return fmt.Errorf("server.metrics.port must be non-negative, got %d", cfg.Server.Metrics.Port)
	}
	if cfg.Server.MaxContentBytes < 0 {
		return fmt.Errorf("server.max_content_bytes must be non-negative, got %d", cfg.Server.MaxContentBytes)
	}

	if cfg.Streaming.Enabled && len(cfg.Streaming.Brokers) == 0 {
		return fmt.Errorf("streaming.brokers is required when streaming is enabled")
	}
	if mode := cfg.Streaming.Compression; mode != "" {
		validModes := map[string]bool{
			"none": true, "gzip": true, "snappy": true, "lz4": true,
		}
		if !validModes[mode] {
			return fmt.Errorf("streaming.compression %q is not valid; must be one of: none, gzip, snappy, lz4", mode)
		}
	}
	if acks := cfg.Streaming.RequiredAcks; acks != "" {
		validAcks := map[string]bool{
			"none": true, "leader": true, "all": true,
		}
		if !validAcks[acks] {
			return fmt.Errorf("streaming.required_acks %q is not valid; must be one of: none, leader, all", acks)
		}
	}

	if level := cfg.Logging.Level; level != "" {
		validLevels := map[string]bool{
			"debug": true, "info": true, "warn": true, "error": true,
		}
		if !validLevels[level] {
			return fmt.Errorf("logging.level %q is not valid; must be one of: debug, info, warn, error", level)
		}
	}
	if format := cfg.Logging.Format; format != "" && format != "json" && format != "text" {
		return fmt.Errorf("logging.format %q is not valid; must be json or text", format)
	}

	return nil
}

// RedactionRune returns the configured redaction character as a rune,
// falling back to 'X' when unset.
func (c *Config) RedactionRune() rune {
	if c.Engine.RedactionChar == "" {
		return 'X'
	}
	r, _ := utf8.DecodeRuneInString(c.Engine.RedactionChar)
	return r
}
