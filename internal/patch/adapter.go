// Package patch adapts the model Loader to callers that bake with their own
// texture getter and vertex format.
//
// The Loader's Bake takes only an id and settings, and composite models
// call it recursively. The Adapter installs itself as the Loader's
// interceptor: it pushes a bake frame around every Bake, answers every
// texture getter site and the vertex format from the current frame, and
// offers GetBakedModel, which overrides the current frame before
// delegating to Bake. It also injects extension-declared special models
// right after the Loader's first special registration.
package patch

import (
	"slices"

	"go.uber.org/zap"

	"github.com/Faultbox/midgard-modelbake/internal/bakecontext"
	"github.com/Faultbox/midgard-modelbake/internal/engine/model"
	"github.com/Faultbox/midgard-modelbake/internal/engine/texture"
	"github.com/Faultbox/midgard-modelbake/internal/logger"
	"github.com/Faultbox/midgard-modelbake/internal/modelid"
)

// Options configures an Adapter.
type Options struct {
	// SpecialModels are injected into both registries at bootstrap.
	SpecialModels []modelid.Identifier

	// Marker is the registration expected first in the special phase.
	// Zero means model.TridentInventory.
	Marker modelid.Identifier

	// MaxDepth limits bake nesting. Zero means bakecontext.MaxDepth.
	MaxDepth int
}

// Adapter implements model.Interceptor and model.ExtendedBaker.
// Like the Loader it serves, it is not safe for concurrent use.
type Adapter struct {
	loader *model.Loader
	stack  *bakecontext.Stack
	opts   Options
	log    *zap.Logger

	armed       bool
	fired       bool
	injected    []modelid.Identifier
	diagnostics []Diagnostic
}

var (
	_ model.Interceptor   = (*Adapter)(nil)
	_ model.ExtendedBaker = (*Adapter)(nil)
)

// New creates an adapter for loader without installing it.
func New(loader *model.Loader, opts Options) *Adapter {
	if opts.Marker.IsZero() {
		opts.Marker = model.TridentInventory.Key()
	}
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = bakecontext.MaxDepth
	}
	opts.SpecialModels = slices.Clone(opts.SpecialModels)

	return &Adapter{
		loader: loader,
		stack:  bakecontext.NewWithLimit(opts.MaxDepth),
		opts:   opts,
		log:    logger.Named("patch"),
	}
}

// Install creates an adapter and sets it as loader's interceptor.
func Install(loader *model.Loader, opts Options) *Adapter {
	a := New(loader, opts)
	loader.SetInterceptor(a)
	return a
}

// GetSpriteMap returns the atlas used for default texture resolution.
func (a *Adapter) GetSpriteMap() *texture.Atlas {
	return a.loader.Atlas()
}

// GetBakedModel bakes id with textures and format visible to the whole
// nested bake. Called from inside a bake, it sets the override on the
// caller's (outer) frame, the same frame the caller's own lookups read,
// but only for the duration of the call: the frame is restored afterwards,
// so the caller's remaining lookups and sibling bakes keep their own
// parameters instead of inheriting the last override. Called with no bake
// in progress, it pushes a frame of its own and pops it when done.
//
// A nil textures or format keeps the current value.
func (a *Adapter) GetBakedModel(id modelid.Identifier, settings model.BakeSettings, textures model.TextureGetter, format *model.VertexFormat) (*model.BakedModel, error) {
	if a.stack.Depth() == 0 {
		a.pushDefault()
		defer a.stack.Pop()
	} else {
		saved := a.stack.Top()
		defer a.stack.Restore(saved)
	}

	a.stack.SetOverride(textures, format)
	return a.loader.Bake(id, settings)
}

// Depth reports the current bake nesting depth.
func (a *Adapter) Depth() int {
	return a.stack.Depth()
}

// Injected returns the special models injected by the last bootstrap.
func (a *Adapter) Injected() []modelid.Identifier {
	return slices.Clone(a.injected)
}

func (a *Adapter) pushDefault() {
	a.stack.Push(a.loader.Atlas().GetSprite, model.PositionColorTextureLightNormal)
}

// EnterBake implements model.Interceptor.
func (a *Adapter) EnterBake(modelid.Identifier) {
	a.pushDefault()
}

// ExitBake implements model.Interceptor.
func (a *Adapter) ExitBake(modelid.Identifier) {
	a.stack.Pop()
}

// TextureGetter implements model.Interceptor. Every site reads the
// current frame.
func (a *Adapter) TextureGetter(model.Site, model.TextureGetter) model.TextureGetter {
	return a.stack.TextureGetter()
}

// VertexFormat implements model.Interceptor.
func (a *Adapter) VertexFormat(*model.VertexFormat) *model.VertexFormat {
	return a.stack.VertexFormat()
}
