package model

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/Faultbox/midgard-modelbake/internal/engine/texture"
	"github.com/Faultbox/midgard-modelbake/internal/logger"
	"github.com/Faultbox/midgard-modelbake/internal/modelid"
)

// ErrBakeCycle is returned when a model is reached again while it is still
// being baked.
var ErrBakeCycle = errors.New("model bake cycle")

// Init phase names, reported to the interceptor in this order.
const (
	PhaseStaticDefinitions = "static_definitions"
	PhaseSpecial           = "special"
	PhaseTextures          = "textures"
	PhaseEnd               = "end"
)

// Special models the Loader registers itself, first to last.
var (
	TridentInventory  = modelid.MustParseModel("minecraft:trident_in_hand#inventory")
	SpyglassInventory = modelid.MustParseModel("minecraft:spyglass_in_hand#inventory")
)

// DefaultSpecialModels is the Loader's own special registration sequence.
var DefaultSpecialModels = []modelid.ModelIdentifier{TridentInventory, SpyglassInventory}

// BakeFunc bakes one model. Loader.Bake is one; an adapter's extended
// entry point bound to fixed parameters is another.
type BakeFunc func(id modelid.Identifier, settings BakeSettings) (*BakedModel, error)

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithSpecialModels replaces the special registration sequence.
func WithSpecialModels(ids ...modelid.ModelIdentifier) LoaderOption {
	return func(l *Loader) {
		l.special = ids
	}
}

// WithInterceptor installs hooks at construction time.
func WithInterceptor(hooks Interceptor) LoaderOption {
	return func(l *Loader) {
		l.SetInterceptor(hooks)
	}
}

// Loader owns the model registries and the recursive bake. Its call graph
// is fixed: Bake takes only an id and settings. Extra parameters reach
// nested bakes only through the installed Interceptor.
//
// A Loader is not safe for concurrent use.
type Loader struct {
	source    ModelSource
	atlas     *texture.Atlas
	hooks     Interceptor
	generator ItemModelGenerator
	special   []modelid.ModelIdentifier
	log       *zap.Logger

	unbakedModels map[modelid.Identifier]UnbakedModel
	modelsToBake  map[modelid.Identifier]UnbakedModel
	bakedModels   map[modelid.Identifier]*BakedModel
	baking        map[modelid.Identifier]bool
}

// NewLoader creates a Loader reading definitions from source and textures
// from atlas. A nil atlas is replaced by an empty blocks atlas.
func NewLoader(source ModelSource, atlas *texture.Atlas, opts ...LoaderOption) *Loader {
	if atlas == nil {
		atlas = texture.NewAtlas(texture.BlocksAtlasID, nil)
	}
	l := &Loader{
		source:        source,
		atlas:         atlas,
		hooks:         NopInterceptor{},
		special:       DefaultSpecialModels,
		log:           logger.Named("loader"),
		unbakedModels: make(map[modelid.Identifier]UnbakedModel),
		modelsToBake:  make(map[modelid.Identifier]UnbakedModel),
		bakedModels:   make(map[modelid.Identifier]*BakedModel),
		baking:        make(map[modelid.Identifier]bool),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// SetInterceptor installs hooks; nil restores the default behaviour.
func (l *Loader) SetInterceptor(hooks Interceptor) {
	if hooks == nil {
		hooks = NopInterceptor{}
	}
	l.hooks = hooks
}

// Interceptor returns the installed hooks.
func (l *Loader) Interceptor() Interceptor {
	return l.hooks
}

// Atlas returns the atlas used for default texture resolution.
func (l *Loader) Atlas() *texture.Atlas {
	return l.atlas
}

// GetOrLoadModel returns the unbaked model for id, loading and recording
// it in the unbaked registry on first use. Unknown ids resolve to the
// missing model.
func (l *Loader) GetOrLoadModel(id modelid.Identifier) UnbakedModel {
	if m, ok := l.unbakedModels[id]; ok {
		return m
	}

	var m UnbakedModel
	switch id {
	case GeneratedMarker:
		m = generatedRoot
	case MissingModelID:
		m = MissingModel()
	default:
		loaded, err := l.source.LoadModel(id)
		if err != nil {
			l.log.Warn("Failed to load model, using missing model",
				zap.Stringer("model", id), zap.Error(err))
			loaded = MissingModel()
		}
		m = loaded
	}
	l.unbakedModels[id] = m
	return m
}

// Init registers models in fixed phases: static definitions from the
// source, then the special sequence, then texture resolution.
func (l *Loader) Init(ctx context.Context) error {
	l.hooks.Phase(PhaseStaticDefinitions)
	for _, id := range l.source.ListModels() {
		if err := ctx.Err(); err != nil {
			return err
		}
		l.addModel(id)
	}

	l.hooks.Phase(PhaseSpecial)
	for _, mid := range l.special {
		l.addModel(mid.Key())
	}

	l.hooks.Phase(PhaseTextures)
	if err := ctx.Err(); err != nil {
		return err
	}
	textures := l.textureDependencies()
	missing := l.atlas.Preload(textures)

	l.hooks.Phase(PhaseEnd)
	l.hooks.InitDone()

	l.log.Info("Model registry initialized",
		zap.Int("models", len(l.modelsToBake)),
		zap.Int("unbaked", len(l.unbakedModels)),
		zap.Int("textures", len(textures)),
		zap.Int("missingTextures", missing))
	return nil
}

func (l *Loader) addModel(id modelid.Identifier) {
	l.hooks.AddModel(id, func() {
		m := l.GetOrLoadModel(id)
		l.unbakedModels[id] = m
		l.modelsToBake[id] = m
	})
}

func (l *Loader) textureDependencies() []modelid.Identifier {
	var ids []modelid.Identifier
	for _, id := range l.ModelsToBake() {
		ids = append(ids, l.modelsToBake[id].TextureDependencies(l.GetOrLoadModel)...)
	}
	return dedupe(ids)
}

// Bake bakes id with the given settings. It is re-entrant: composite
// models call it for their parts. The interceptor chooses the texture
// getter at each site and the vertex format.
func (l *Loader) Bake(id modelid.Identifier, settings BakeSettings) (*BakedModel, error) {
	l.hooks.EnterBake(id)
	defer l.hooks.ExitBake(id)

	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("bake %s: %w", id, err)
	}
	if l.baking[id] {
		return nil, fmt.Errorf("%w: %s", ErrBakeCycle, id)
	}
	l.baking[id] = true
	defer delete(l.baking, id)

	unbaked := l.GetOrLoadModel(id)
	format := l.hooks.VertexFormat(PositionColorTextureLightNormal)

	if bm, ok := unbaked.(*BlockModel); ok {
		if err := bm.link(l.GetOrLoadModel); err != nil {
			return nil, err
		}
		if isGenerated(bm) {
			generated := l.generator.Create(l.hooks.TextureGetter(SiteItemModelGenerator, l.atlas.GetSprite), bm)
			return generated.Bake(l, l.hooks.TextureGetter(SiteBlockModelBake, l.atlas.GetSprite), format, settings, id)
		}
	}
	return unbaked.Bake(l, l.hooks.TextureGetter(SiteUnbakedModelBake, l.atlas.GetSprite), format, settings, id)
}

// GetBakedModel bakes with a caller-supplied texture getter and vertex
// format. The Loader cannot do this alone; it needs an interceptor that
// implements ExtendedBaker.
func (l *Loader) GetBakedModel(id modelid.Identifier, settings BakeSettings, textures TextureGetter, format *VertexFormat) (*BakedModel, error) {
	ext, ok := l.hooks.(ExtendedBaker)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrExtendedBakeUnsupported, id)
	}
	return ext.GetBakedModel(id, settings, textures, format)
}

// BakeAll bakes every pending model with Loader.Bake.
func (l *Loader) BakeAll(ctx context.Context, progress func(modelid.Identifier, error)) (int, error) {
	return l.BakeAllWith(ctx, l.Bake, progress)
}

// BakeAllWith bakes every pending model in id order using bake. Failures
// are collected and do not stop the run; cancellation is checked between
// models. It returns the number of models baked successfully.
func (l *Loader) BakeAllWith(ctx context.Context, bake BakeFunc, progress func(modelid.Identifier, error)) (int, error) {
	var (
		errs []error
		ok   int
	)
	for _, id := range l.ModelsToBake() {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		baked, err := bake(id, Rotate0)
		if err != nil {
			err = fmt.Errorf("bake %s: %w", id, err)
			errs = append(errs, err)
			l.log.Debug("Bake failed", zap.Stringer("model", id), zap.Error(err))
		} else {
			l.bakedModels[id] = baked
			ok++
		}
		if progress != nil {
			progress(id, err)
		}
	}
	return ok, errors.Join(errs...)
}

// ModelsToBake returns the pending registry keys, sorted.
func (l *Loader) ModelsToBake() []modelid.Identifier {
	return sortedKeys(l.modelsToBake)
}

// UnbakedModels returns the resolved registry keys, sorted.
func (l *Loader) UnbakedModels() []modelid.Identifier {
	return sortedKeys(l.unbakedModels)
}

// ModelToBake returns the pending entry for id.
func (l *Loader) ModelToBake(id modelid.Identifier) (UnbakedModel, bool) {
	m, ok := l.modelsToBake[id]
	return m, ok
}

// LookupUnbaked returns the resolved entry for id without loading it.
func (l *Loader) LookupUnbaked(id modelid.Identifier) (UnbakedModel, bool) {
	m, ok := l.unbakedModels[id]
	return m, ok
}

// PutModelToBake records m as pending. An existing entry is replaced.
func (l *Loader) PutModelToBake(id modelid.Identifier, m UnbakedModel) {
	l.modelsToBake[id] = m
}

// PutUnbakedModel records m as resolved. An existing entry is replaced.
func (l *Loader) PutUnbakedModel(id modelid.Identifier, m UnbakedModel) {
	l.unbakedModels[id] = m
}

// Baked returns the result BakeAll stored for id.
func (l *Loader) Baked(id modelid.Identifier) (*BakedModel, bool) {
	m, ok := l.bakedModels[id]
	return m, ok
}

func sortedKeys(m map[modelid.Identifier]UnbakedModel) []modelid.Identifier {
	ids := make([]modelid.Identifier, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].Less(ids[j]) })
	return ids
}
