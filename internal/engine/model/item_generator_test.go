package model

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/Faultbox/midgard-modelbake/internal/engine/texture"
	"github.com/Faultbox/midgard-modelbake/internal/modelid"
)

func TestItemModelGenerator_DeclaredLayersOnly(t *testing.T) {
	lens := modelid.MustParse("examplemod:item/lens")
	rim := modelid.MustParse("examplemod:item/lens_rim")

	tests := []struct {
		name      string
		src       string
		want      []modelid.Identifier
		wantLayer []string
	}{
		{
			name:      "single layer",
			src:       "parent: builtin/generated\ntextures:\n  layer0: examplemod:item/lens\n",
			want:      []modelid.Identifier{lens},
			wantLayer: []string{"layer0", "particle"},
		},
		{
			name:      "two layers",
			src:       "parent: builtin/generated\ntextures:\n  layer0: examplemod:item/lens\n  layer1: examplemod:item/lens_rim\n",
			want:      []modelid.Identifier{lens, rim},
			wantLayer: []string{"layer0", "layer1", "particle"},
		},
		{
			name:      "gap stops at first missing layer",
			src:       "parent: builtin/generated\ntextures:\n  layer0: examplemod:item/lens\n  layer2: examplemod:item/lens_rim\n",
			want:      []modelid.Identifier{lens},
			wantLayer: []string{"layer0", "particle"},
		},
		{
			name:      "layer by reference",
			src:       "parent: builtin/generated\ntextures:\n  base: examplemod:item/lens_rim\n  layer0: \"#base\"\n",
			want:      []modelid.Identifier{rim},
			wantLayer: []string{"layer0", "particle"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bm := mustBlockModel(t, "lens", tt.src)

			var asked []modelid.Identifier
			spy := func(id modelid.Identifier) *texture.Sprite {
				asked = append(asked, id)
				return nil
			}
			out := ItemModelGenerator{}.Create(spy, bm)

			if diff := cmp.Diff(tt.want, asked); diff != "" {
				t.Errorf("getter calls mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tt.wantLayer, out.TextureKeys()); diff != "" {
				t.Errorf("texture keys mismatch (-want +got):\n%s", diff)
			}
			// Nil sprites contribute only the front and back faces.
			if got := len(out.Elements); got != len(tt.want) {
				t.Errorf("elements = %d, want %d", got, len(tt.want))
			}
			if got := out.ResolveTexture("particle"); got != tt.want[0] {
				t.Errorf("particle = %v, want %v", got, tt.want[0])
			}
		})
	}
}

func TestBlockModel_BareTextureKeys(t *testing.T) {
	bm := mustBlockModel(t, "lens", "textures:\n  layer0: examplemod:item/lens\n")

	if !bm.HasTexture("layer0") || !bm.HasTexture("#layer0") {
		t.Error("layer0 should resolve with and without '#'")
	}
	if bm.HasTexture("layer1") {
		t.Error("undeclared layer1 should not resolve")
	}
	if bm.HasTexture("particle") {
		t.Error("undeclared particle should not resolve")
	}
	if got := bm.ResolveTexture("particle"); got != texture.MissingID {
		t.Errorf("particle = %v, want missing", got)
	}
}
