// Package config handles modelbake configuration loading and management.
package config

import (
	"fmt"

	"github.com/Faultbox/midgard-modelbake/internal/engine/model"
)

// Config holds all modelbake settings.
type Config struct {
	Assets  AssetsConfig  `yaml:"assets"`
	Bake    BakeConfig    `yaml:"bake"`
	Logging LoggingConfig `yaml:"logging"`
}

// AssetsConfig lists where model definitions and textures are read from.
// Later entries take priority over earlier ones; directories over archives.
type AssetsConfig struct {
	GRFPaths    []string `yaml:"grf_paths"`   // Paths to GRF archives
	Directories []string `yaml:"directories"` // Loose asset roots
}

// BakeConfig holds bake settings.
type BakeConfig struct {
	// Format is a vertex format name. Empty bakes in the loader's own format.
	Format string `yaml:"format"`
	// ManifestDir holds *.mod.hcl extension manifests.
	ManifestDir string `yaml:"manifest_dir"`
	// Override applies manifest texture overrides to every bake.
	Override bool `yaml:"override"`
	// Strict fails the run when special model bootstrap reports a problem.
	Strict bool `yaml:"strict"`
	// AnimTimeMs poses animated RSM meshes at this time.
	AnimTimeMs float32 `yaml:"anim_time_ms"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Assets: AssetsConfig{
			GRFPaths:    []string{"data.grf"},
			Directories: []string{"resources"},
		},
		Bake: BakeConfig{
			ManifestDir: "mods",
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// Validate checks values that cannot be checked by decoding alone.
func (c *Config) Validate() error {
	if c.Bake.Format != "" {
		if _, ok := model.LookupVertexFormat(c.Bake.Format); !ok {
			return fmt.Errorf("unknown vertex format %q", c.Bake.Format)
		}
	}
	if c.Bake.AnimTimeMs < 0 {
		return fmt.Errorf("anim_time_ms must not be negative, got %v", c.Bake.AnimTimeMs)
	}
	return nil
}

// VertexFormat returns the configured format, or nil for the loader default.
func (c *Config) VertexFormat() *model.VertexFormat {
	f, _ := model.LookupVertexFormat(c.Bake.Format)
	return f
}
