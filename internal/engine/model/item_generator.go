package model

import (
	"github.com/Faultbox/midgard-modelbake/internal/engine/texture"
	"github.com/Faultbox/midgard-modelbake/internal/modelid"
)

// GeneratedMarker is the parent that flags a model as a flat item sprite.
// Models whose root parent is this marker are expanded by the
// ItemModelGenerator before baking.
var GeneratedMarker = modelid.MustParse("builtin/generated")

// layerKeys are the texture keys consulted for generated item layers.
var layerKeys = []string{"layer0", "layer1", "layer2", "layer3", "layer4"}

// Item thickness in model space, centred on z=8.
const (
	itemFront = 8.5
	itemBack  = 7.5
)

// ItemModelGenerator turns layered item textures into a thin slab model:
// a front and back face per layer plus one edge face per exposed pixel side.
type ItemModelGenerator struct{}

// Create builds the generated model for bm. textures is consulted for the
// pixel data of each layer; the returned model names its textures by
// concrete identifier so it can bake with a different getter.
func (ItemModelGenerator) Create(textures TextureGetter, bm *BlockModel) *BlockModel {
	out := &BlockModel{
		Name:     bm.Name + "#generated",
		Textures: make(map[string]string),
		AO:       bm.AO,
		GUILight: bm.GUILight,
	}

	for i, key := range layerKeys {
		if !bm.HasTexture(key) {
			break
		}
		id := bm.ResolveTexture(key)
		out.Textures[key] = id.String()
		out.Elements = append(out.Elements, layerElements(i, "#"+key, textures(id))...)
	}

	if bm.HasTexture("particle") {
		out.Textures["particle"] = bm.ResolveTexture("particle").String()
	} else if v, ok := out.Textures["layer0"]; ok {
		out.Textures["particle"] = v
	}
	return out
}

func layerElements(tint int, ref string, sprite *texture.Sprite) []Element {
	full := [4]float32{0, 0, 16, 16}
	elements := []Element{{
		From: [3]float32{0, 0, itemBack},
		To:   [3]float32{16, 16, itemFront},
		Faces: map[Direction]ElementFace{
			South: {UV: &full, Texture: ref, TintIndex: tint},
			North: {UV: &[4]float32{16, 0, 0, 16}, Texture: ref, TintIndex: tint},
		},
	}}
	if sprite == nil || sprite.Width == 0 || sprite.Height == 0 {
		return elements
	}

	pw := float32(16) / float32(sprite.Width)
	ph := float32(16) / float32(sprite.Height)
	for y := 0; y < sprite.Height; y++ {
		for x := 0; x < sprite.Width; x++ {
			if !sprite.Opaque(x, y) {
				continue
			}
			x0, x1 := float32(x)*pw, float32(x+1)*pw
			top, bottom := 16-float32(y)*ph, 16-float32(y+1)*ph
			uv := [4]float32{x0, float32(y) * ph, x1, float32(y+1) * ph}

			edges := []struct {
				d        Direction
				exposed  bool
				from, to [3]float32
			}{
				{Up, !sprite.Opaque(x, y-1), [3]float32{x0, top, itemBack}, [3]float32{x1, top, itemFront}},
				{Down, !sprite.Opaque(x, y+1), [3]float32{x0, bottom, itemBack}, [3]float32{x1, bottom, itemFront}},
				{West, !sprite.Opaque(x-1, y), [3]float32{x0, bottom, itemBack}, [3]float32{x0, top, itemFront}},
				{East, !sprite.Opaque(x+1, y), [3]float32{x1, bottom, itemBack}, [3]float32{x1, top, itemFront}},
			}
			for _, e := range edges {
				if !e.exposed {
					continue
				}
				faceUV := uv
				elements = append(elements, Element{
					From:  e.from,
					To:    e.to,
					Faces: map[Direction]ElementFace{e.d: {UV: &faceUV, Texture: ref, TintIndex: tint}},
				})
			}
		}
	}
	return elements
}

// isGenerated reports whether bm inherits from the generated-item marker.
func isGenerated(bm *BlockModel) bool {
	return bm.RootModel() == generatedRoot
}

// generatedRoot is the shared marker model returned for GeneratedMarker.
var generatedRoot = &BlockModel{
	Name:     GeneratedMarker.String(),
	Textures: map[string]string{},
}
