package model

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/Faultbox/midgard-modelbake/internal/engine/texture"
	"github.com/Faultbox/midgard-modelbake/internal/modelid"
	"github.com/Faultbox/midgard-modelbake/pkg/formats"
)

func triangleRSM(twoSide int32) *formats.RSM {
	return &formats.RSM{
		Alpha:    1,
		Textures: []string{`나무\Tree.BMP`},
		Nodes: []formats.RSMNode{{
			Name:       "root",
			TextureIDs: []int32{0},
			Matrix:     [9]float32{1, 0, 0, 0, 1, 0, 0, 0, 1},
			Scale:      [3]float32{1, 1, 1},
			Vertices:   [][3]float32{{0, 0, 0}, {10, 0, 0}, {0, -10, 0}},
			TexCoords:  []formats.RSMTexCoord{{U: 0, V: 0}, {U: 1, V: 0}, {U: 0, V: 1}},
			Faces: []formats.RSMFace{{
				VertexIDs:   [3]uint16{0, 1, 2},
				TexCoordIDs: [3]uint16{0, 1, 2},
				TwoSide:     twoSide,
			}},
		}},
	}
}

func TestRSMTextureID(t *testing.T) {
	got := RSMTextureID(`나무\Tree.BMP`)
	want := modelid.New(texture.ROTextureNamespace, "texture/나무/tree.bmp")
	if got != want {
		t.Errorf("RSMTextureID = %v, want %v", got, want)
	}
	if paths := texture.AssetPaths(got); len(paths) != 1 || paths[0] != "data/texture/나무/tree.bmp" {
		t.Errorf("AssetPaths = %v", paths)
	}
}

func TestRSMModel_Bake(t *testing.T) {
	tests := []struct {
		name    string
		twoSide int32
		quads   int
	}{
		{"one sided", 0, 1},
		{"two sided", 1, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &RSMModel{Name: "tri", Mesh: triangleRSM(tt.twoSide)}
			var asked []modelid.Identifier
			getter := func(id modelid.Identifier) *texture.Sprite {
				asked = append(asked, id)
				return solidSprite(id, 4, 4)
			}

			baked, err := m.Bake(nil, getter, PositionColorTexture, Rotate0, modelid.MustParse("ro:model/tri.rsm"))
			if err != nil {
				t.Fatalf("Bake failed: %v", err)
			}
			if len(baked.Quads) != tt.quads {
				t.Fatalf("quads = %d, want %d", len(baked.Quads), tt.quads)
			}
			if len(asked) != 1 {
				t.Errorf("getter called %d times, want once per texture", len(asked))
			}

			stride := PositionColorTexture.Stride()
			for _, q := range baked.Quads {
				for v := 0; v < 4; v++ {
					for k := 0; k < 3; k++ {
						if p := q.Data[v*stride+k]; p < -0.001 || p > 1.001 {
							t.Errorf("vertex %d axis %d = %v, outside the block", v, k, p)
						}
					}
				}
				// The fourth vertex repeats the third.
				if diff := cmp.Diff(q.Data[2*stride:3*stride], q.Data[3*stride:]); diff != "" {
					t.Errorf("degenerate corner mismatch:\n%s", diff)
				}
			}
			if tt.quads == 2 && baked.Quads[0].Face == baked.Quads[1].Face {
				t.Errorf("back face should point the other way, both are %v", baked.Quads[0].Face)
			}
		})
	}
}

func TestRSMModel_NoFaces(t *testing.T) {
	rsm := triangleRSM(0)
	rsm.Nodes[0].Faces[0].VertexIDs = [3]uint16{0, 1, 9}
	m := &RSMModel{Name: "broken", Mesh: rsm}
	_, err := m.Bake(nil, solidGetter, PositionColorTexture, Rotate0, modelid.MustParse("ro:model/broken.rsm"))
	if !errors.Is(err, ErrInvalidModel) {
		t.Errorf("err = %v, want ErrInvalidModel", err)
	}
}

func TestRSMModel_TextureDependencies(t *testing.T) {
	m := &RSMModel{Name: "tri", Mesh: triangleRSM(0)}
	want := []modelid.Identifier{RSMTextureID(`나무\Tree.BMP`)}
	if diff := cmp.Diff(want, m.TextureDependencies(nil)); diff != "" {
		t.Errorf("TextureDependencies mismatch (-want +got):\n%s", diff)
	}
	if m.Dependencies() != nil {
		t.Error("RSM models have no model dependencies")
	}
}

func TestNodeMatrix_Hierarchy(t *testing.T) {
	rsm := &formats.RSM{Nodes: []formats.RSMNode{
		{Name: "root", Position: [3]float32{10, 0, 0}, Scale: [3]float32{1, 1, 1}, Matrix: [9]float32{1, 0, 0, 0, 1, 0, 0, 0, 1}},
		{Name: "child", Parent: "root", Position: [3]float32{0, 5, 0}, Offset: [3]float32{1, 0, 0}, Scale: [3]float32{2, 2, 2}, Matrix: [9]float32{1, 0, 0, 0, 1, 0, 0, 0, 1}},
	}}

	got := nodeMatrix(&rsm.Nodes[1], rsm, 0).TransformPoint([3]float32{1, 1, 1})
	// root translate, child translate, child scale, child offset.
	want := [3]float32{10 + 2*(1+1), 5 + 2*1, 2 * 1}
	if got != want {
		t.Errorf("child vertex = %v, want %v", got, want)
	}
}

func TestScaleKeys(t *testing.T) {
	keys := []formats.RSMScaleKeyframe{
		{Frame: 0, Scale: [3]float32{1, 1, 1}},
		{Frame: 100, Scale: [3]float32{3, 3, 3}},
	}
	if got := scaleAt(keys, 50); got != [3]float32{2, 2, 2} {
		t.Errorf("scaleAt(50) = %v", got)
	}
	if got := scaleAt(keys, 500); got != [3]float32{3, 3, 3} {
		t.Errorf("scaleAt(500) = %v", got)
	}
}

func solidGetter(id modelid.Identifier) *texture.Sprite {
	return solidSprite(id, 1, 1)
}

// memAssets is an AssetReader over a map.
type memAssets map[string]string

func (m memAssets) Load(path string) ([]byte, error) {
	if s, ok := m[path]; ok {
		return []byte(s), nil
	}
	return nil, fmt.Errorf("no %s", path)
}

func (m memAssets) List(prefix string) []string {
	var out []string
	for p := range m {
		if strings.HasPrefix(p, prefix) {
			out = append(out, p)
		}
	}
	sort.Strings(out)
	return out
}

func TestAssetSource(t *testing.T) {
	src := NewAssetSource(memAssets{
		"models/examplemod/block/stone.model.yaml":         stoneYAML,
		"models/examplemod/block/pair.composite.yaml":      "parts:\n  - model: examplemod:block/stone\n",
		"models/minecraft/item/trident_in_hand.model.yaml": "parent: builtin/generated\n",
		"models/examplemod/readme.txt":                     "ignored",
		"data/model/prontera/tree.rsm":                     "not an rsm",
	})

	want := []modelid.Identifier{
		modelid.MustParse("examplemod:block/pair"),
		modelid.MustParse("examplemod:block/stone"),
		modelid.MustParse("minecraft:item/trident_in_hand"),
		modelid.New("ro", "model/prontera/tree.rsm"),
	}
	if diff := cmp.Diff(want, src.ListModels()); diff != "" {
		t.Errorf("ListModels mismatch (-want +got):\n%s", diff)
	}

	if m, err := src.LoadModel(modelid.MustParse("examplemod:block/stone")); err != nil {
		t.Errorf("LoadModel(stone) failed: %v", err)
	} else if _, ok := m.(*BlockModel); !ok {
		t.Errorf("stone is %T, want *BlockModel", m)
	}
	if m, err := src.LoadModel(modelid.MustParse("examplemod:block/pair")); err != nil {
		t.Errorf("LoadModel(pair) failed: %v", err)
	} else if _, ok := m.(*CompositeModel); !ok {
		t.Errorf("pair is %T, want *CompositeModel", m)
	}
	if _, err := src.LoadModel(TridentInventory.Key()); err != nil {
		t.Errorf("inventory variant should map to item/: %v", err)
	}
	if _, err := src.LoadModel(modelid.MustParse("examplemod:block/none")); !errors.Is(err, ErrModelNotFound) {
		t.Errorf("missing err = %v, want ErrModelNotFound", err)
	}
	if _, err := src.LoadModel(modelid.New("ro", "model/prontera/tree.rsm")); !errors.Is(err, ErrInvalidModel) {
		t.Errorf("bad rsm err = %v, want ErrInvalidModel", err)
	}
}
