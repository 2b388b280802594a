package patch

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Faultbox/midgard-modelbake/internal/engine/model"
	"github.com/Faultbox/midgard-modelbake/internal/engine/texture"
	"github.com/Faultbox/midgard-modelbake/internal/logger"
	"github.com/Faultbox/midgard-modelbake/internal/modelid"
)

const cubeYAML = `
textures:
  particle: "#all"
elements:
  - from: [0, 0, 0]
    to: [16, 16, 16]
    faces:
      down:  {texture: "#all"}
      up:    {texture: "#all"}
      north: {texture: "#all"}
      south: {texture: "#all"}
      west:  {texture: "#all"}
      east:  {texture: "#all"}
`

var (
	cubeAllID = modelid.MustParse("block/cube_all")
	stoneID   = modelid.MustParse("examplemod:block/stone")
	pairID    = modelid.MustParse("examplemod:block/pair")
	nestedID  = modelid.MustParse("examplemod:block/nested")
	boomID    = modelid.MustParse("examplemod:block/boom")
	lensID    = modelid.MustParse("examplemod:item/lens")

	stoneTex   = modelid.MustParse("examplemod:block/stone")
	graniteTex = modelid.MustParse("examplemod:block/granite")
	glassTex   = modelid.MustParse("examplemod:block/glass")
)

func sprite(id modelid.Identifier) *texture.Sprite {
	img := image.NewRGBA(image.Rect(0, 0, 16, 16))
	img.SetRGBA(0, 0, color.RGBA{A: 255})
	return texture.NewSprite(id, img)
}

// panicModel blows up mid-bake.
type panicModel struct{}

func (panicModel) Dependencies() []modelid.Identifier { return nil }

func (panicModel) TextureDependencies(func(modelid.Identifier) model.UnbakedModel) []modelid.Identifier {
	return nil
}

func (panicModel) Bake(model.Baker, model.TextureGetter, *model.VertexFormat, model.BakeSettings, modelid.Identifier) (*model.BakedModel, error) {
	panic("boom")
}

func block(t *testing.T, name, src string) *model.BlockModel {
	t.Helper()
	m, err := model.ParseBlockModel(name, []byte(src))
	if err != nil {
		t.Fatalf("ParseBlockModel(%s) failed: %v", name, err)
	}
	return m
}

func composite(t *testing.T, name, src string) *model.CompositeModel {
	t.Helper()
	m, err := model.ParseCompositeModel(name, []byte(src))
	if err != nil {
		t.Fatalf("ParseCompositeModel(%s) failed: %v", name, err)
	}
	return m
}

func testLoader(t *testing.T, opts ...model.LoaderOption) *model.Loader {
	t.Helper()
	src := model.MapSource{
		cubeAllID: block(t, "cube_all", cubeYAML),
		stoneID:   block(t, "stone", "parent: block/cube_all\ntextures:\n  all: examplemod:block/stone\n"),
		lensID:    block(t, "lens", "parent: builtin/generated\ntextures:\n  layer0: examplemod:item/lens\n"),
		pairID: composite(t, "pair", `
parts:
  - model: examplemod:block/stone
    retexture:
      examplemod:block/stone: examplemod:block/granite
  - model: examplemod:block/stone
`),
		nestedID: composite(t, "nested", `
parts:
  - model: examplemod:block/pair
`),
		boomID: panicModel{},
	}

	atlas := texture.NewAtlas(texture.BlocksAtlasID, nil)
	for _, id := range []modelid.Identifier{stoneTex, graniteTex, glassTex, lensID} {
		atlas.Register(sprite(id))
	}
	return model.NewLoader(src, atlas, opts...)
}

// quadSprites returns the sprite of every quad in order.
func quadSprites(m *model.BakedModel) []modelid.Identifier {
	ids := make([]modelid.Identifier, len(m.Quads))
	for i, q := range m.Quads {
		ids[i] = q.Sprite.ID
	}
	return ids
}

func repeat(id modelid.Identifier, n int) []modelid.Identifier {
	out := make([]modelid.Identifier, n)
	for i := range out {
		out[i] = id
	}
	return out
}

func observeLogs(t *testing.T) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(zapcore.WarnLevel)
	logger.Use(zap.New(core))
	t.Cleanup(func() { logger.Use(nil) })
	return logs
}

func TestAdapter_DefaultBakeUnchanged(t *testing.T) {
	plain := testLoader(t)
	want, err := plain.Bake(stoneID, model.Rotate0)
	if err != nil {
		t.Fatalf("plain Bake failed: %v", err)
	}

	l := testLoader(t)
	a := Install(l, Options{})
	got, err := l.Bake(stoneID, model.Rotate0)
	if err != nil {
		t.Fatalf("Bake failed: %v", err)
	}
	if got.Format != want.Format {
		t.Errorf("format = %v, want %v", got.Format.Name(), want.Format.Name())
	}
	if diff := cmp.Diff(quadSprites(want), quadSprites(got)); diff != "" {
		t.Errorf("sprites mismatch (-want +got):\n%s", diff)
	}
	if a.Depth() != 0 {
		t.Errorf("depth after bake = %d", a.Depth())
	}
}

func TestAdapter_GetBakedModelOverride(t *testing.T) {
	l := testLoader(t)
	a := Install(l, Options{})

	glass := func(modelid.Identifier) *texture.Sprite { return l.Atlas().GetSprite(glassTex) }
	baked, err := l.GetBakedModel(stoneID, model.Rotate0, glass, model.PositionColorTexture)
	if err != nil {
		t.Fatalf("GetBakedModel failed: %v", err)
	}
	if baked.Format != model.PositionColorTexture {
		t.Errorf("format = %s, want %s", baked.Format.Name(), model.PositionColorTexture.Name())
	}
	for i, q := range baked.Quads {
		if len(q.Data) != 4*model.PositionColorTexture.Stride() {
			t.Errorf("quad %d has %d floats", i, len(q.Data))
		}
	}
	if diff := cmp.Diff(repeat(glassTex, 6), quadSprites(baked)); diff != "" {
		t.Errorf("sprites mismatch (-want +got):\n%s", diff)
	}
	if a.Depth() != 0 {
		t.Errorf("depth = %d, want 0", a.Depth())
	}
}

func TestAdapter_OverrideReachesNestedBakes(t *testing.T) {
	l := testLoader(t)
	Install(l, Options{})

	glass := func(modelid.Identifier) *texture.Sprite { return l.Atlas().GetSprite(glassTex) }
	baked, err := l.GetBakedModel(nestedID, model.Rotate0, glass, model.PositionTextureColorNormal)
	if err != nil {
		t.Fatalf("GetBakedModel failed: %v", err)
	}
	// Both parts of the inner pair, three levels down, see the override.
	if diff := cmp.Diff(repeat(glassTex, 12), quadSprites(baked)); diff != "" {
		t.Errorf("sprites mismatch (-want +got):\n%s", diff)
	}
	for i, q := range baked.Quads {
		if len(q.Data) != 4*model.PositionTextureColorNormal.Stride() {
			t.Errorf("quad %d not in the override format", i)
		}
	}
}

func TestAdapter_RetextureIsScopedToItsPart(t *testing.T) {
	l := testLoader(t)
	a := Install(l, Options{})

	baked, err := l.Bake(pairID, model.Rotate0)
	if err != nil {
		t.Fatalf("Bake failed: %v", err)
	}
	want := append(repeat(graniteTex, 6), repeat(stoneTex, 6)...)
	if diff := cmp.Diff(want, quadSprites(baked)); diff != "" {
		t.Errorf("sprites mismatch (-want +got):\n%s", diff)
	}
	if a.Depth() != 0 {
		t.Errorf("depth = %d, want 0", a.Depth())
	}
}

func TestAdapter_RetextureInsideOverride(t *testing.T) {
	l := testLoader(t)
	Install(l, Options{})

	// The retexture map wraps the outer override, so every lookup ends in
	// the override getter. Each stone bake asks for its particle first.
	var asked []modelid.Identifier
	spy := func(id modelid.Identifier) *texture.Sprite {
		asked = append(asked, id)
		return l.Atlas().GetSprite(id)
	}
	if _, err := l.GetBakedModel(pairID, model.Rotate0, spy, nil); err != nil {
		t.Fatalf("GetBakedModel failed: %v", err)
	}
	want := append(repeat(graniteTex, 7), repeat(stoneTex, 7)...)
	if diff := cmp.Diff(want, asked); diff != "" {
		t.Errorf("getter calls mismatch (-want +got):\n%s", diff)
	}
}

func TestAdapter_DepthRestored(t *testing.T) {
	tests := []struct {
		name     string
		id       modelid.Identifier
		settings model.BakeSettings
		wantErr  error
		panics   bool
	}{
		{"ok", stoneID, model.Rotate0, nil, false},
		{"bad rotation", stoneID, model.BakeSettings{X: 45}, model.ErrInvalidRotation, false},
		{"unknown model", modelid.MustParse("examplemod:block/none"), model.Rotate0, nil, false},
		{"panic", boomID, model.Rotate0, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := testLoader(t)
			a := Install(l, Options{})

			for _, extended := range []bool{false, true} {
				func() {
					defer func() {
						if r := recover(); (r != nil) != tt.panics {
							t.Errorf("extended=%v panic = %v, want %v", extended, r, tt.panics)
						}
					}()
					var err error
					if extended {
						_, err = a.GetBakedModel(tt.id, tt.settings, nil, model.PositionColorTexture)
					} else {
						_, err = l.Bake(tt.id, tt.settings)
					}
					if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
						t.Errorf("extended=%v err = %v, want %v", extended, err, tt.wantErr)
					}
				}()
				if a.Depth() != 0 {
					t.Errorf("extended=%v depth = %d, want 0", extended, a.Depth())
				}
			}
		})
	}
}

func TestAdapter_GetSpriteMap(t *testing.T) {
	l := testLoader(t)
	a := Install(l, Options{})
	if a.GetSpriteMap() != l.Atlas() {
		t.Error("GetSpriteMap should return the loader's atlas")
	}
	if l.Interceptor() != model.Interceptor(a) {
		t.Error("Install should set the interceptor")
	}
}
