package model

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/Faultbox/midgard-modelbake/internal/engine/texture"
	"github.com/Faultbox/midgard-modelbake/internal/modelid"
)

const cubeYAML = `
textures:
  particle: "#all"
elements:
  - from: [0, 0, 0]
    to: [16, 16, 16]
    faces:
      down:  {texture: "#all", cullface: down}
      up:    {texture: "#all", cullface: up}
      north: {texture: "#all", cullface: north}
      south: {texture: "#all", cullface: south}
      west:  {texture: "#all", cullface: west}
      east:  {texture: "#all", cullface: east, tintindex: 0}
`

const stoneYAML = `
parent: block/cube_all
textures:
  all: examplemod:block/stone
`

func mustBlockModel(t *testing.T, name, src string) *BlockModel {
	t.Helper()
	m, err := ParseBlockModel(name, []byte(src))
	if err != nil {
		t.Fatalf("ParseBlockModel(%s) failed: %v", name, err)
	}
	return m
}

func TestParseBlockModel(t *testing.T) {
	m := mustBlockModel(t, "cube_all", cubeYAML)
	if len(m.Elements) != 1 {
		t.Fatalf("elements = %d, want 1", len(m.Elements))
	}
	el := m.Elements[0]
	if len(el.Faces) != 6 {
		t.Errorf("faces = %d, want 6", len(el.Faces))
	}
	if !el.Shade {
		t.Error("shade should default to true")
	}
	if got := el.Faces[East].TintIndex; got != 0 {
		t.Errorf("east tint = %d, want 0", got)
	}
	if got := el.Faces[Up].TintIndex; got != -1 {
		t.Errorf("up tint = %d, want -1", got)
	}
	if cf := el.Faces[North].CullFace; cf == nil || *cf != North {
		t.Errorf("north cullface = %v", cf)
	}
}

func TestParseBlockModel_Invalid(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"bad yaml", "elements: ["},
		{"bad parent", "parent: 'Bad Parent!'"},
		{"bad direction", "elements:\n  - from: [0,0,0]\n    to: [1,1,1]\n    faces:\n      sideways: {texture: '#a'}\n"},
		{"no texture", "elements:\n  - from: [0,0,0]\n    to: [1,1,1]\n    faces:\n      up: {}\n"},
		{"inverted extent", "elements:\n  - from: [4,0,0]\n    to: [1,1,1]\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseBlockModel(tt.name, []byte(tt.src))
			if !errors.Is(err, ErrInvalidModel) {
				t.Errorf("err = %v, want ErrInvalidModel", err)
			}
		})
	}
}

func TestBlockModel_TextureResolution(t *testing.T) {
	parent := mustBlockModel(t, "cube_all", cubeYAML)
	child := mustBlockModel(t, "stone", stoneYAML)

	lookup := func(id modelid.Identifier) UnbakedModel {
		if id == modelid.MustParse("block/cube_all") {
			return parent
		}
		return MissingModel()
	}
	deps := child.TextureDependencies(lookup)

	want := []modelid.Identifier{modelid.MustParse("examplemod:block/stone")}
	if diff := cmp.Diff(want, deps); diff != "" {
		t.Errorf("TextureDependencies mismatch (-want +got):\n%s", diff)
	}
	if child.Parent() != parent {
		t.Error("parent was not linked")
	}
	if got := child.ResolveTexture("#particle"); got != want[0] {
		t.Errorf("particle = %v, want %v", got, want[0])
	}
	if got := child.ResolveTexture("#nothing"); got != texture.MissingID {
		t.Errorf("unknown ref = %v, want missing", got)
	}
	if diff := cmp.Diff([]string{"all", "particle"}, child.TextureKeys()); diff != "" {
		t.Errorf("TextureKeys mismatch (-want +got):\n%s", diff)
	}
	if len(child.GetElements()) != 1 {
		t.Error("child should inherit the parent's elements")
	}
}

func TestBlockModel_ParentCycle(t *testing.T) {
	a := mustBlockModel(t, "a", "parent: test:b\n")
	b := mustBlockModel(t, "b", "parent: test:a\n")
	lookup := func(id modelid.Identifier) UnbakedModel {
		if id.Path == "a" {
			return a
		}
		return b
	}

	err := a.link(lookup)
	if !errors.Is(err, ErrInvalidModel) {
		t.Fatalf("link err = %v, want ErrInvalidModel", err)
	}
	// A second attempt must still report the cycle.
	if err := a.link(lookup); err == nil {
		t.Error("second link succeeded on a cyclic chain")
	}
	if a.RootModel() == nil {
		t.Error("RootModel must terminate on a cycle")
	}
}

func TestBlockModel_NonBlockParent(t *testing.T) {
	m := mustBlockModel(t, "m", "parent: test:composite\n")
	comp := &CompositeModel{Name: "composite"}
	err := m.link(func(modelid.Identifier) UnbakedModel { return comp })
	if !errors.Is(err, ErrInvalidModel) {
		t.Errorf("err = %v, want ErrInvalidModel", err)
	}
}

func TestBakeSettings(t *testing.T) {
	if err := (BakeSettings{X: 45}).Validate(); !errors.Is(err, ErrInvalidRotation) {
		t.Errorf("Validate(45) = %v, want ErrInvalidRotation", err)
	}
	if err := (BakeSettings{X: 270, Y: 90}).Validate(); err != nil {
		t.Errorf("Validate(270,90) = %v", err)
	}

	s := BakeSettings{Y: 90}
	if got := s.RotateDirection(North); got != East {
		t.Errorf("y=90 north -> %v, want east", got)
	}
	if got := (BakeSettings{X: 90}).RotateDirection(Up); got != South {
		t.Errorf("x=90 up -> %v, want south", got)
	}
	if got := s.RotatePoint([3]float32{8, 8, 8}); got != [3]float32{8, 8, 8} {
		t.Errorf("centre moved to %v", got)
	}
	if got := s.Then(BakeSettings{Y: 270, UVLock: true}); got != (BakeSettings{Y: 0, UVLock: true}) {
		t.Errorf("Then = %+v", got)
	}
}

func TestDirection(t *testing.T) {
	for _, d := range AllDirections {
		parsed, err := ParseDirection(d.String())
		if err != nil || parsed != d {
			t.Errorf("ParseDirection(%q) = %v, %v", d, parsed, err)
		}
		if got := FromNormal(d.Normal()); got != d {
			t.Errorf("FromNormal(%v.Normal()) = %v", d, got)
		}
	}
	if _, err := ParseDirection("sideways"); err == nil {
		t.Error("ParseDirection(sideways) should fail")
	}
}

func TestVertexFormat(t *testing.T) {
	tests := []struct {
		format *VertexFormat
		stride int
		uv     int
	}{
		{PositionColorTextureLightNormal, 15, 7},
		{PositionTextureColorNormal, 13, 3},
		{PositionColorTexture, 9, 7},
	}
	for _, tt := range tests {
		t.Run(tt.format.Name(), func(t *testing.T) {
			if got := tt.format.Stride(); got != tt.stride {
				t.Errorf("Stride = %d, want %d", got, tt.stride)
			}
			if got := tt.format.Offset(ElementUV0); got != tt.uv {
				t.Errorf("Offset(UV0) = %d, want %d", got, tt.uv)
			}
			found, ok := LookupVertexFormat(tt.format.Name())
			if !ok || found != tt.format {
				t.Errorf("LookupVertexFormat(%q) = %v, %v", tt.format.Name(), found, ok)
			}
		})
	}
	if PositionColorTexture.Has(ElementNormal) {
		t.Error("position_color_texture should not carry normals")
	}
}
