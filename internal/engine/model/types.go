// Package model implements the model pipeline: unbaked model kinds, the
// recursive bake into quads, and the Loader that owns the model registries.
package model

import (
	"errors"
	"sort"

	"github.com/Faultbox/midgard-modelbake/internal/engine/texture"
	"github.com/Faultbox/midgard-modelbake/internal/modelid"
)

// ErrExtendedBakeUnsupported is returned by Loader.GetBakedModel when no
// installed interceptor can honour custom bake parameters.
var ErrExtendedBakeUnsupported = errors.New("extended bake parameters not supported")

// TextureGetter resolves a texture identifier to a sprite.
// Implementations must be total: unknown textures map to a placeholder.
type TextureGetter func(modelid.Identifier) *texture.Sprite

// Baker is what unbaked models see of the loader while they bake.
// Bake is re-entrant: composite models bake their parts through it.
type Baker interface {
	Bake(id modelid.Identifier, settings BakeSettings) (*BakedModel, error)
	GetBakedModel(id modelid.Identifier, settings BakeSettings, textures TextureGetter, format *VertexFormat) (*BakedModel, error)
	GetOrLoadModel(id modelid.Identifier) UnbakedModel
}

// UnbakedModel is a declarative model before baking.
type UnbakedModel interface {
	// Dependencies lists models that must be loaded before this one bakes.
	Dependencies() []modelid.Identifier

	// TextureDependencies lists every texture the model will request.
	// lookup resolves parents and parts.
	TextureDependencies(lookup func(modelid.Identifier) UnbakedModel) []modelid.Identifier

	// Bake produces quads in the given vertex format.
	Bake(baker Baker, textures TextureGetter, format *VertexFormat, settings BakeSettings, id modelid.Identifier) (*BakedModel, error)
}

// BakedQuad is one textured quad. Data holds four vertices packed
// according to the model's vertex format.
type BakedQuad struct {
	Face      Direction
	Sprite    *texture.Sprite
	TintIndex int
	Shade     bool
	Data      []float32
}

// BakedModel is the render-ready result of a bake.
type BakedModel struct {
	ID               modelid.Identifier
	Format           *VertexFormat
	Quads            []BakedQuad
	Particle         *texture.Sprite
	AmbientOcclusion bool
}

// QuadsFor returns the quads facing d.
func (m *BakedModel) QuadsFor(d Direction) []BakedQuad {
	var out []BakedQuad
	for _, q := range m.Quads {
		if q.Face == d {
			out = append(out, q)
		}
	}
	return out
}

// Sprites returns the distinct sprite identifiers used by the quads, sorted.
func (m *BakedModel) Sprites() []modelid.Identifier {
	seen := make(map[modelid.Identifier]bool)
	var ids []modelid.Identifier
	for _, q := range m.Quads {
		if q.Sprite == nil || seen[q.Sprite.ID] {
			continue
		}
		seen[q.Sprite.ID] = true
		ids = append(ids, q.Sprite.ID)
	}
	sortIdentifiers(ids)
	return ids
}

// VertexCount returns the number of vertices across all quads.
func (m *BakedModel) VertexCount() int {
	return len(m.Quads) * 4
}

func sortIdentifiers(ids []modelid.Identifier) {
	sort.Slice(ids, func(i, j int) bool { return ids[i].Less(ids[j]) })
}

// dedupe removes duplicates and sorts.
func dedupe(ids []modelid.Identifier) []modelid.Identifier {
	seen := make(map[modelid.Identifier]bool, len(ids))
	out := ids[:0]
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	sortIdentifiers(out)
	return out
}
