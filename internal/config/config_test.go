package config

import (
	"path/filepath"
	"testing"
)

func TestValidateDefault(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		wantField string
	}{
		{"negative limit", func(c *Config) { c.Limit = -1 }, "limit"},
		{"negative host count", func(c *Config) { c.HostCount = -2 }, "host_count"},
		{"host count over ceiling", func(c *Config) { c.HostCount = MaxHostCount + 1 }, "host_count"},
		{"empty sandbox", func(c *Config) { c.Sandbox = "" }, "sandbox"},
		{"separator in replica dir", func(c *Config) { c.ReplicaDir = "a/b" }, "replica_dir"},
		{"backslash in marker", func(c *Config) { c.Marker = `a\b` }, "marker"},
		{"traversal component", func(c *Config) { c.Sandbox = ".." }, "sandbox"},
		{"parent traversal in hosts root", func(c *Config) { c.HostsRoot = "../escape" }, "hosts_root"},
		{"reserved name", func(c *Config) { c.LogFile = "NUL" }, "logfile"},
		{"reserved name lowercase", func(c *Config) { c.Marker = "con" }, "marker"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error, got nil")
			}
			ve, ok := err.(*ValidationError)
			if !ok {
				t.Fatalf("expected *ValidationError, got %T", err)
			}
			if ve.Field != tt.wantField {
				t.Errorf("Field = %q, want %q", ve.Field, tt.wantField)
			}
		})
	}
}

func TestZeroBoundsAreValid(t *testing.T) {
	cfg := Default()
	cfg.Limit = 0
	cfg.HostCount = 0
	if err := cfg.Validate(); err != nil {
		t.Fatalf("zero limit/host_count should be valid: %v", err)
	}
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), ConfigFile)

	cfg := Default()
	cfg.Limit = 5
	cfg.HostCount = 2
	cfg.Sandbox = "demo_box"

	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if loaded.Sandbox != "demo_box" {
		t.Errorf("Sandbox = %q, want %q", loaded.Sandbox, "demo_box")
	}
	if loaded.Limit != 5 {
		t.Errorf("Limit = %d, want 5", loaded.Limit)
	}
	if loaded.HostCount != 2 {
		t.Errorf("HostCount = %d, want 2", loaded.HostCount)
	}
	// Fields absent from the file keep their defaults
	if loaded.Marker != "STOP" {
		t.Errorf("Marker = %q, want STOP", loaded.Marker)
	}
}

func TestExists(t *testing.T) {
	path := filepath.Join(t.TempDir(), ConfigFile)
	if Exists(path) {
		t.Error("Exists should be false before save")
	}
	if err := Save(path, Default()); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !Exists(path) {
		t.Error("Exists should be true after save")
	}
}
