// Package config handles configuration loading and validation for
// perchwork. A configuration file path is required; relative directories in
// it are resolved against the file's own location.
package config

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config holds the extractor configuration.
type Config struct {
	// TargetDir is the source tree to analyze, resolved relative to the
	// config file's directory when not absolute.
	TargetDir string `mapstructure:"target_dir" yaml:"target_dir"`
	// Extensions lists file extensions to include (e.g. ".rs").
	Extensions []string `mapstructure:"extensions" yaml:"extensions"`
	// Exclude lists glob patterns to skip; `**/` matches recursively and
	// `*` matches a single path segment.
	Exclude []string `mapstructure:"exclude" yaml:"exclude"`
	// OutputDir is where artifact documents are written.
	OutputDir string `mapstructure:"output_dir" yaml:"output_dir"`
	// SnapshotDir is where the incremental snapshot store lives.
	SnapshotDir string `mapstructure:"snapshot_dir" yaml:"snapshot_dir"`
	// Workers bounds the per-file worker pool. Zero means one worker per CPU.
	Workers int `mapstructure:"workers" yaml:"workers"`
}

// Load reads and validates the configuration file at path. Any failure here
// is fatal: the run aborts before a single source file is touched.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	// Resolve directories relative to the config file's location.
	base := filepath.Dir(path)
	cfg.TargetDir = resolveDir(base, cfg.TargetDir)
	cfg.OutputDir = resolveDir(base, cfg.OutputDir)
	cfg.SnapshotDir = resolveDir(base, cfg.SnapshotDir)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func resolveDir(base, dir string) string {
	if dir == "" || filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(base, dir)
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.TargetDir == "" {
		return fmt.Errorf("target_dir is required")
	}
	if len(c.Extensions) == 0 {
		return fmt.Errorf("at least one extension is required")
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must not be negative, got %d", c.Workers)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("extensions", []string{".rs"})
	v.SetDefault("exclude", []string{
		"**/target/**",
		"**/.git/**",
	})
	v.SetDefault("output_dir", "perchwork-out")
	v.SetDefault("snapshot_dir", "perchwork-out/snapshots")
	v.SetDefault("workers", 0)
}
