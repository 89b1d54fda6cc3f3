package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	def := Default()
	if cfg.Layout.RankSep != def.Layout.RankSep {
		t.Errorf("RankSep = %v, want default %v", cfg.Layout.RankSep, def.Layout.RankSep)
	}
	if cfg.Server.Addr != ":8080" {
		t.Errorf("Server.Addr = %q, want :8080", cfg.Server.Addr)
	}
}

func TestLoadLayersOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "storyflow.toml")
	data := `
[layout]
rank_sep = 200.0
compression = 0.4

[cache]
backend = "redis"
addr = "localhost:6379"
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Layout.RankSep != 200 {
		t.Errorf("RankSep = %v, want 200", cfg.Layout.RankSep)
	}
	if cfg.Layout.Compression != 0.4 {
		t.Errorf("Compression = %v, want 0.4", cfg.Layout.Compression)
	}
	if cfg.Cache.Backend != "redis" || cfg.Cache.Addr != "localhost:6379" {
		t.Errorf("cache config = %+v, want redis backend", cfg.Cache)
	}
	// Untouched sections keep their defaults.
	if cfg.Store.Database != "storyflow" {
		t.Errorf("Store.Database = %q, want storyflow", cfg.Store.Database)
	}
}

func TestLoadRejectsBadTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")
	if err := os.WriteFile(path, []byte("[layout\nrank_sep ="), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("Load of malformed TOML succeeded, want error")
	}
}

func TestLayoutOptionsConversion(t *testing.T) {
	cfg := Default()
	cfg.Layout.RankSep = 180
	cfg.Layout.NodeSep = 0 // zero means keep default
	cfg.Layout.Compression = 0.3

	opts := cfg.LayoutOptions()
	if opts.RankSep != 180 {
		t.Errorf("RankSep = %v, want 180", opts.RankSep)
	}
	if opts.NodeSep != 40 {
		t.Errorf("NodeSep = %v, want default 40", opts.NodeSep)
	}
	if opts.Compression != 0.3 {
		t.Errorf("Compression = %v, want 0.3", opts.Compression)
	}
	if err := opts.Validate(); err != nil {
		t.Errorf("converted options invalid: %v", err)
	}
}
