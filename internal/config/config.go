package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// ConfigFile is the default config filename looked up in the working directory.
	ConfigFile = "replicant.yaml"

	// MaxHostCount caps simulated fan-out.
	MaxHostCount = 10
)

// reservedNames are device-like names that must never be used as path components.
var reservedNames = map[string]bool{
	"CON":  true,
	"PRN":  true,
	"AUX":  true,
	"NUL":  true,
	"COM1": true,
	"LPT1": true,
}

// Config describes the sandbox layout and replication bounds.
// It is immutable after Validate passes.
type Config struct {
	Sandbox    string `yaml:"sandbox"`
	ReplicaDir string `yaml:"replica_dir"`
	HostsRoot  string `yaml:"hosts_root"`
	Marker     string `yaml:"marker"`
	LogFile    string `yaml:"logfile"`
	Limit      int    `yaml:"limit"`
	HostCount  int    `yaml:"host_count"`
}

// Default returns the demo configuration.
func Default() *Config {
	return &Config{
		Sandbox:    "sandbox_w",
		ReplicaDir: "replicas",
		HostsRoot:  "hosts",
		Marker:     "STOP",
		LogFile:    "replicant.log",
		Limit:      3,
		HostCount:  3,
	}
}

// ValidationError reports a single invalid config field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config: %s %s", e.Field, e.Reason)
}

// Validate checks numeric bounds and name fields. It is pure and must pass
// before any filesystem action.
func (c *Config) Validate() error {
	if c.Limit < 0 {
		return &ValidationError{Field: "limit", Reason: "must be non-negative"}
	}
	if c.HostCount < 0 || c.HostCount > MaxHostCount {
		return &ValidationError{Field: "host_count", Reason: fmt.Sprintf("must be 0..%d", MaxHostCount)}
	}

	names := []struct{ field, value string }{
		{"sandbox", c.Sandbox},
		{"replica_dir", c.ReplicaDir},
		{"hosts_root", c.HostsRoot},
		{"marker", c.Marker},
		{"logfile", c.LogFile},
	}
	for _, n := range names {
		if err := validateName(n.field, n.value); err != nil {
			return err
		}
	}
	return nil
}

func validateName(field, value string) error {
	if value == "" {
		return &ValidationError{Field: field, Reason: "must not be empty"}
	}
	if strings.ContainsAny(value, `/\`) {
		return &ValidationError{Field: field, Reason: "must not contain path separators"}
	}
	if value == "." || value == ".." {
		return &ValidationError{Field: field, Reason: "must not be a dot component"}
	}
	if reservedNames[strings.ToUpper(value)] {
		return &ValidationError{Field: field, Reason: "is a reserved device name"}
	}
	return nil
}

// Load reads a config from path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

// Save writes a config to path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// Exists returns true if a config file exists at path.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
