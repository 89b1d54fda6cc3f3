// Package config loads the storyflow configuration file.
//
// The file is TOML and carries the layout tuning surface: every
// empirically chosen threshold in the engine is overridable here rather
// than hard-coded. Missing file or missing keys fall back to defaults.
package config

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/storyloom/storyflow/pkg/errors"
	"github.com/storyloom/storyflow/pkg/layout"
)

// Config is the full configuration file shape.
type Config struct {
	Layout LayoutConfig `toml:"layout"`
	Cache  CacheConfig  `toml:"cache"`
	Store  StoreConfig  `toml:"store"`
	Server ServerConfig `toml:"server"`
}

// LayoutConfig is the layout tuning section.
type LayoutConfig struct {
	RankSep         float64 `toml:"rank_sep"`
	NodeSep         float64 `toml:"node_sep"`
	FractionalRanks bool    `toml:"fractional_ranks"`
	AdaptiveSpacing bool    `toml:"adaptive_spacing"`
	Clustering      bool    `toml:"clustering"`
	Compression     float64 `toml:"compression"`

	// Adaptive-spacing thresholds. Tuned values, not invariants.
	ElementsPerPuzzle float64 `toml:"elements_per_puzzle"`
	RankSepCap        float64 `toml:"rank_sep_cap"`
	DensityThreshold  float64 `toml:"density_threshold"`
	NodeSepFloor      float64 `toml:"node_sep_floor"`
}

// CacheConfig selects and configures the cache backend.
type CacheConfig struct {
	// Backend is "file", "redis", or "none".
	Backend  string `toml:"backend"`
	Dir      string `toml:"dir"`
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
}

// StoreConfig configures the snapshot store.
type StoreConfig struct {
	URI        string `toml:"uri"`
	Database   string `toml:"database"`
	Collection string `toml:"collection"`
}

// ServerConfig configures serve mode.
type ServerConfig struct {
	Addr string `toml:"addr"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	lo := layout.DefaultOptions()
	return Config{
		Layout: LayoutConfig{
			RankSep:           lo.RankSep,
			NodeSep:           lo.NodeSep,
			FractionalRanks:   lo.FractionalRanks,
			AdaptiveSpacing:   lo.AdaptiveSpacing,
			Clustering:        lo.Clustering,
			Compression:       lo.Compression,
			ElementsPerPuzzle: lo.ElementsPerPuzzle,
			RankSepCap:        lo.RankSepCap,
			DensityThreshold:  lo.DensityThreshold,
			NodeSepFloor:      lo.NodeSepFloor,
		},
		Cache: CacheConfig{
			Backend: "file",
			Dir:     defaultCacheDir(),
		},
		Store: StoreConfig{
			Database:   "storyflow",
			Collection: "snapshots",
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
	}
}

// Load reads a TOML config file, layering it over defaults. An empty path
// or missing file returns the defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, errors.Wrap(errors.ErrCodeInvalidFormat, err, "parse config %s", path)
	}
	return cfg, nil
}

// LayoutOptions converts the layout section into engine options.
func (c Config) LayoutOptions() layout.Options {
	opts := layout.DefaultOptions()
	if c.Layout.RankSep > 0 {
		opts.RankSep = c.Layout.RankSep
	}
	if c.Layout.NodeSep > 0 {
		opts.NodeSep = c.Layout.NodeSep
	}
	opts.FractionalRanks = c.Layout.FractionalRanks
	opts.AdaptiveSpacing = c.Layout.AdaptiveSpacing
	opts.Clustering = c.Layout.Clustering
	if c.Layout.Compression > 0 && c.Layout.Compression <= 1 {
		opts.Compression = c.Layout.Compression
	}
	if c.Layout.ElementsPerPuzzle > 0 {
		opts.ElementsPerPuzzle = c.Layout.ElementsPerPuzzle
	}
	if c.Layout.RankSepCap > 0 {
		opts.RankSepCap = c.Layout.RankSepCap
	}
	if c.Layout.DensityThreshold > 0 {
		opts.DensityThreshold = c.Layout.DensityThreshold
	}
	if c.Layout.NodeSepFloor > 0 {
		opts.NodeSepFloor = c.Layout.NodeSepFloor
	}
	return opts
}

func defaultCacheDir() string {
	base, err := os.UserCacheDir()
	if err != nil {
		return ".storyflow-cache"
	}
	return filepath.Join(base, "storyflow")
}
