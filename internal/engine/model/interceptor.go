package model

import (
	"fmt"

	"github.com/Faultbox/midgard-modelbake/internal/modelid"
)

// Site identifies a point inside Loader.Bake where a texture getter is
// chosen for a nested operation.
type Site int

// Texture getter selection sites, in the order Bake reaches them.
const (
	// SiteItemModelGenerator feeds pixel data to the item generator.
	SiteItemModelGenerator Site = iota
	// SiteBlockModelBake bakes the model the item generator produced.
	SiteBlockModelBake
	// SiteUnbakedModelBake bakes every other model kind.
	SiteUnbakedModelBake
)

// AllSites lists every texture getter site.
var AllSites = []Site{SiteItemModelGenerator, SiteBlockModelBake, SiteUnbakedModelBake}

func (s Site) String() string {
	switch s {
	case SiteItemModelGenerator:
		return "item_model_generator"
	case SiteBlockModelBake:
		return "block_model_bake"
	case SiteUnbakedModelBake:
		return "unbaked_model_bake"
	default:
		return fmt.Sprintf("site(%d)", int(s))
	}
}

// Interceptor observes and alters the Loader at fixed points. The Loader's
// own call graph does not change; an interceptor can only watch it, wrap
// it, and replace the values chosen at each site.
//
// The Loader calls these hooks from a single goroutine.
type Interceptor interface {
	// Phase is called when Init enters a named phase.
	Phase(name string)

	// AddModel wraps one registration during Init. Implementations must
	// call add exactly once to perform the native registration.
	AddModel(id modelid.Identifier, add func())

	// InitDone is called after the last Init phase.
	InitDone()

	// EnterBake and ExitBake bracket every Bake call. ExitBake is deferred,
	// so it also runs when the bake fails or panics.
	EnterBake(id modelid.Identifier)
	ExitBake(id modelid.Identifier)

	// TextureGetter returns the getter to use at site; def is what the
	// Loader would use on its own.
	TextureGetter(site Site, def TextureGetter) TextureGetter

	// VertexFormat returns the format to bake into; def is the Loader's own.
	VertexFormat(def *VertexFormat) *VertexFormat
}

// ExtendedBaker is implemented by interceptors that can bake with a
// caller-supplied texture getter and vertex format.
type ExtendedBaker interface {
	GetBakedModel(id modelid.Identifier, settings BakeSettings, textures TextureGetter, format *VertexFormat) (*BakedModel, error)
}

// NopInterceptor leaves the Loader's behaviour unchanged.
type NopInterceptor struct{}

// Phase implements Interceptor.
func (NopInterceptor) Phase(string) {}

// AddModel implements Interceptor by registering directly.
func (NopInterceptor) AddModel(_ modelid.Identifier, add func()) {
	add()
}

// InitDone implements Interceptor.
func (NopInterceptor) InitDone() {}

// EnterBake implements Interceptor.
func (NopInterceptor) EnterBake(modelid.Identifier) {}

// ExitBake implements Interceptor.
func (NopInterceptor) ExitBake(modelid.Identifier) {}

// TextureGetter implements Interceptor by returning def.
func (NopInterceptor) TextureGetter(_ Site, def TextureGetter) TextureGetter {
	return def
}

// VertexFormat implements Interceptor by returning def.
func (NopInterceptor) VertexFormat(def *VertexFormat) *VertexFormat {
	return def
}
