package config

import (
	"flag"
	"path/filepath"
	"strings"
)

var (
	flagConfig    = flag.String("config", "", "Path to config file")
	flagDebug     = flag.Bool("debug", false, "Enable debug logging")
	flagAssets    = flag.String("assets", "", "Comma-separated GRF archives and asset directories")
	flagManifests = flag.String("manifests", "", "Directory of *.mod.hcl extension manifests")
	flagFormat    = flag.String("format", "", "Vertex format to bake into")
	flagOverride  = flag.Bool("override", false, "Apply manifest texture overrides")
	flagStrict    = flag.Bool("strict", false, "Fail when special model bootstrap reports a problem")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagAssets != "" {
		cfg.Assets.GRFPaths, cfg.Assets.Directories = splitAssets(*flagAssets)
	}
	if *flagManifests != "" {
		cfg.Bake.ManifestDir = *flagManifests
	}
	if *flagFormat != "" {
		cfg.Bake.Format = *flagFormat
	}
	if *flagOverride {
		cfg.Bake.Override = true
	}
	if *flagStrict {
		cfg.Bake.Strict = true
	}
}

// splitAssets sorts a comma list into archives and directories by extension.
func splitAssets(list string) (grfs, dirs []string) {
	for _, p := range strings.Split(list, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if strings.EqualFold(filepath.Ext(p), ".grf") {
			grfs = append(grfs, p)
		} else {
			dirs = append(dirs, p)
		}
	}
	return grfs, dirs
}
