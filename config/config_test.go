package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := `server:
  address: "https://dispatch.example.com"
  api_key: "secret"
  page_size: 25
metrics:
  sinks:
    - type: "nop"
events:
  enabled: true
  broker: "tcp://localhost:1883"
  client_id: "cli"
  topic: "dispatch/events"
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	checks := []struct {
		name string
		got  any
		want any
	}{
		{"address", cfg.Server.Address, "https://dispatch.example.com"},
		{"api_key", cfg.Server.APIKey, "secret"},
		{"page_size", cfg.Server.PageSize, int32(25)},
		{"metrics_sink", len(cfg.Metrics.Sinks) == 1 && cfg.Metrics.Sinks[0].Type == "nop", true},
		{"events_enabled", cfg.Events.Enabled, true},
		{"events_broker", cfg.Events.Broker, "tcp://localhost:1883"},
		{"events_topic", cfg.Events.Topic, "dispatch/events"},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s = %v, want %v", c.name, c.got, c.want)
		}
	}
}

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("server:\n  api_key: \"k\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	if cfg.Server.Address != "http://localhost:50051" {
		t.Errorf("address default = %q", cfg.Server.Address)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("server:\n  address: \"http://file\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("DISPATCH_SERVER__ADDRESS", "http://env")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	if cfg.Server.Address != "http://env" {
		t.Errorf("address = %q, want env override", cfg.Server.Address)
	}
}

func TestLoadUnsupportedFormat(t *testing.T) {
	if _, err := Load("config.toml"); err == nil {
		t.Fatalf("expected error for unsupported format")
	}
}

func TestServerConfigValidate(t *testing.T) {
	c := ServerConfig{Address: "http://x", PageSize: -1}
	if err := c.Validate(); err == nil {
		t.Errorf("negative page_size must be rejected")
	}
	c = ServerConfig{}
	if err := c.Validate(); err == nil {
		t.Errorf("empty address must be rejected")
	}
}
