package texture

import (
	"image"
	"image/color"

	"github.com/Faultbox/midgard-modelbake/internal/modelid"
)

// MissingID names the placeholder sprite returned for unknown textures.
var MissingID = modelid.New(modelid.DefaultNamespace, "missingno")

// Sprite is a named texture region. Sprites are not packed into a shared
// sheet, so every sprite covers the full 0..1 UV range of its own image.
type Sprite struct {
	ID     modelid.Identifier
	Image  *image.RGBA
	Width  int
	Height int

	// UV rectangle in texture space.
	MinU, MinV float32
	MaxU, MaxV float32
}

// NewSprite wraps an image as a sprite covering the whole image.
func NewSprite(id modelid.Identifier, img *image.RGBA) *Sprite {
	b := img.Bounds()
	return &Sprite{
		ID:     id,
		Image:  img,
		Width:  b.Dx(),
		Height: b.Dy(),
		MinU:   0,
		MinV:   0,
		MaxU:   1,
		MaxV:   1,
	}
}

// InterpolatedU maps a model-space u in [0,16] into the sprite's UV range.
func (s *Sprite) InterpolatedU(u float32) float32 {
	return s.MinU + (s.MaxU-s.MinU)*u/16
}

// InterpolatedV maps a model-space v in [0,16] into the sprite's UV range.
func (s *Sprite) InterpolatedV(v float32) float32 {
	return s.MinV + (s.MaxV-s.MinV)*v/16
}

// Opaque reports whether the pixel at (x, y) has non-zero alpha.
// Out of range coordinates are transparent.
func (s *Sprite) Opaque(x, y int) bool {
	if s.Image == nil || x < 0 || y < 0 || x >= s.Width || y >= s.Height {
		return false
	}
	b := s.Image.Bounds()
	return s.Image.RGBAAt(b.Min.X+x, b.Min.Y+y).A != 0
}

// IsMissing reports whether s is the missing-texture placeholder.
func (s *Sprite) IsMissing() bool {
	return s != nil && s.ID == MissingID
}

// newMissingSprite builds the 16x16 magenta/black checkerboard.
func newMissingSprite() *Sprite {
	img := image.NewRGBA(image.Rect(0, 0, 16, 16))
	magenta := color.RGBA{R: 248, G: 0, B: 248, A: 255}
	black := color.RGBA{A: 255}
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			if (x < 8) != (y < 8) {
				img.SetRGBA(x, y, magenta)
			} else {
				img.SetRGBA(x, y, black)
			}
		}
	}
	return NewSprite(MissingID, img)
}
