// Package config loads the client configuration from a YAML or JSON file
// with optional environment overrides (DISPATCH_ prefix, "__" as separator).
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/gridpulse/microgrid-dispatch/core/metrics"
	"github.com/gridpulse/microgrid-dispatch/infra/events"
)

// Config is the root configuration.
type Config struct {
	Server  ServerConfig   `json:"server"`
	Metrics metrics.Config `json:"metrics"`
	Events  events.Config  `json:"events"`
}

// ServerConfig describes the dispatch service endpoint and credential.
type ServerConfig struct {
	// Address is the base URL of the dispatch service.
	Address string `json:"address"`
	// APIKey is attached to every call.
	APIKey string `json:"api_key"`
	// PageSize is the page size hint for list calls; 0 leaves it to the
	// server.
	PageSize int32 `json:"page_size"`
}

// SetDefaults applies sane defaults.
func (c *ServerConfig) SetDefaults() {
	if c.Address == "" {
		c.Address = "http://localhost:50051"
	}
}

// Validate checks mandatory fields.
func (c ServerConfig) Validate() error {
	if c.Address == "" {
		return fmt.Errorf("server address is required")
	}
	if c.PageSize < 0 {
		return fmt.Errorf("page_size must not be negative")
	}
	return nil
}

// Load reads the configuration file and applies environment overrides.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	// Optional environment overrides
	if err := k.Load(env.Provider("DISPATCH_", "__", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "dispatch_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.Server.SetDefaults()
	cfg.Events.SetDefaults()
	if err := cfg.Server.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Events.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
