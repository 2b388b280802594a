// modelbake loads model definitions from GRF archives and asset
// directories, registers extension special models and bakes every
// pending model into vertex data.
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"

	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-modelbake/internal/assets"
	"github.com/Faultbox/midgard-modelbake/internal/config"
	"github.com/Faultbox/midgard-modelbake/internal/engine/model"
	"github.com/Faultbox/midgard-modelbake/internal/engine/texture"
	"github.com/Faultbox/midgard-modelbake/internal/logger"
	"github.com/Faultbox/midgard-modelbake/internal/manifest"
	"github.com/Faultbox/midgard-modelbake/internal/modelid"
	"github.com/Faultbox/midgard-modelbake/internal/patch"
)

func main() {
	// Parse CLI flags first
	config.ParseFlags()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("=== Midgard Model Bake ===")
	logger.Sugar.Debugf("Config: %+v", cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		logger.Error("bake failed", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	mgr, err := openAssets(cfg.Assets)
	if err != nil {
		return err
	}
	defer mgr.Close()

	mods, err := manifest.LoadDir(cfg.Bake.ManifestDir)
	if errors.Is(err, fs.ErrNotExist) {
		logger.Warn("manifest directory not found, no extensions loaded",
			zap.String("dir", cfg.Bake.ManifestDir))
		mods, err = &manifest.Set{}, nil
	}
	if err != nil {
		return err
	}

	atlas := texture.NewAtlas(texture.BlocksAtlasID, mgr)
	source := model.NewAssetSource(mgr)
	source.AnimTimeMs = cfg.Bake.AnimTimeMs

	loader := model.NewLoader(source, atlas)
	adapter := patch.Install(loader, patch.Options{SpecialModels: mods.SpecialModels()})

	if err := loader.Init(ctx); err != nil {
		return fmt.Errorf("initializing model registry: %w", err)
	}
	if diags := adapter.Diagnostics(); len(diags) > 0 && cfg.Bake.Strict {
		return fmt.Errorf("special model bootstrap: %s", diags[0])
	}

	bake := loader.Bake
	if format := cfg.VertexFormat(); format != nil || cfg.Bake.Override {
		textures := model.TextureGetter(atlas.GetSprite)
		if cfg.Bake.Override {
			textures = mods.Retexture(textures)
		}
		bake = func(id modelid.Identifier, settings model.BakeSettings) (*model.BakedModel, error) {
			return adapter.GetBakedModel(id, settings, textures, format)
		}
	}

	pending := loader.ModelsToBake()
	bar := progressbar.Default(int64(len(pending)), "baking")
	defer bar.Close()

	baked, bakeErr := loader.BakeAllWith(ctx, bake, func(modelid.Identifier, error) {
		bar.Add(1)
	})
	bar.Finish()

	printSummary(loader, mgr, adapter, pending, baked)
	if bakeErr != nil {
		return fmt.Errorf("%d of %d models failed: %w", len(pending)-baked, len(pending), bakeErr)
	}
	return nil
}

// openAssets registers archives first so that directories override them.
func openAssets(cfg config.AssetsConfig) (*assets.Manager, error) {
	mgr := assets.NewManager()
	for _, p := range cfg.GRFPaths {
		if err := mgr.AddArchive(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				logger.Warn("GRF archive not found, skipping", zap.String("path", p))
				continue
			}
			mgr.Close()
			return nil, err
		}
		logger.Info("GRF archive loaded", zap.String("path", p))
	}
	for _, d := range cfg.Directories {
		if err := mgr.AddDirectory(d); err != nil {
			logger.Warn("asset directory skipped", zap.String("path", d), zap.Error(err))
		}
	}
	return mgr, nil
}

func printSummary(loader *model.Loader, mgr *assets.Manager, adapter *patch.Adapter, pending []modelid.Identifier, baked int) {
	var quads, vertices int
	for _, id := range pending {
		if m, ok := loader.Baked(id); ok {
			quads += len(m.Quads)
			vertices += m.VertexCount()
		}
	}
	hits, misses := mgr.CacheStats()

	fmt.Printf("\nModels:       %d baked, %d failed\n", baked, len(pending)-baked)
	fmt.Printf("Quads:        %d (%d vertices)\n", quads, vertices)
	fmt.Printf("Textures:     %d\n", len(loader.Atlas().Sprites()))
	fmt.Printf("Asset cache:  %d hits, %d misses\n", hits, misses)
	fmt.Printf("Extensions:   %d special models injected\n", len(adapter.Injected()))
	for _, d := range adapter.Diagnostics() {
		fmt.Printf("  warning: %s\n", d)
	}
}
