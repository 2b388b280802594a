package model

import (
	gomath "math"

	"github.com/Faultbox/midgard-modelbake/internal/engine/texture"
)

// quadVertex is one corner before packing.
type quadVertex struct {
	Position [3]float32
	UV       [2]float32 // Sprite-space UV, already interpolated
	Color    [4]float32
	Normal   [3]float32
}

var white = [4]float32{1, 1, 1, 1}

// packQuad lays out four vertices according to format.
// Elements the format lacks are dropped; light coordinates are zero.
func packQuad(format *VertexFormat, verts [4]quadVertex) []float32 {
	stride := format.Stride()
	data := make([]float32, 4*stride)
	for i, v := range verts {
		base := i * stride
		off := 0
		for _, e := range format.elements {
			dst := data[base+off:]
			switch e {
			case ElementPosition:
				copy(dst, v.Position[:])
			case ElementColor:
				copy(dst, v.Color[:])
			case ElementUV0:
				copy(dst, v.UV[:])
			case ElementNormal:
				copy(dst, v.Normal[:])
			}
			off += e.Components()
		}
	}
	return data
}

// cuboidFace returns the four corners of a face of the box from..to,
// counter-clockwise when seen from outside.
func cuboidFace(d Direction, from, to [3]float32) [4][3]float32 {
	x0, y0, z0 := from[0], from[1], from[2]
	x1, y1, z1 := to[0], to[1], to[2]
	switch d {
	case Down:
		return [4][3]float32{{x0, y0, z1}, {x0, y0, z0}, {x1, y0, z0}, {x1, y0, z1}}
	case Up:
		return [4][3]float32{{x0, y1, z0}, {x0, y1, z1}, {x1, y1, z1}, {x1, y1, z0}}
	case North:
		return [4][3]float32{{x1, y1, z0}, {x1, y0, z0}, {x0, y0, z0}, {x0, y1, z0}}
	case South:
		return [4][3]float32{{x0, y1, z1}, {x0, y0, z1}, {x1, y0, z1}, {x1, y1, z1}}
	case West:
		return [4][3]float32{{x0, y1, z0}, {x0, y0, z0}, {x0, y0, z1}, {x0, y1, z1}}
	default:
		return [4][3]float32{{x1, y1, z1}, {x1, y0, z1}, {x1, y0, z0}, {x1, y1, z0}}
	}
}

// defaultFaceUV derives a UV rectangle from the face's extent, the way
// declarative models do when a face has no explicit uv.
func defaultFaceUV(d Direction, from, to [3]float32) [4]float32 {
	switch d {
	case Down:
		return [4]float32{from[0], 16 - to[2], to[0], 16 - from[2]}
	case Up:
		return [4]float32{from[0], from[2], to[0], to[2]}
	case North:
		return [4]float32{16 - to[0], 16 - to[1], 16 - from[0], 16 - from[1]}
	case South:
		return [4]float32{from[0], 16 - to[1], to[0], 16 - from[1]}
	case West:
		return [4]float32{from[2], 16 - to[1], to[2], 16 - from[1]}
	default:
		return [4]float32{16 - to[2], 16 - to[1], 16 - from[2], 16 - from[1]}
	}
}

// buildFaceQuad bakes one element face. Corners are rotated by settings;
// with UVLock the UVs are re-derived from the rotated extent so textures
// stay aligned to the world grid.
func buildFaceQuad(format *VertexFormat, sprite *texture.Sprite, d Direction, from, to [3]float32, uv *[4]float32, settings BakeSettings, shade bool, tint int) BakedQuad {
	corners := cuboidFace(d, from, to)
	rect := defaultFaceUV(d, from, to)
	if uv != nil {
		rect = *uv
	}

	face := d
	if !settings.IsIdentity() {
		for i := range corners {
			corners[i] = settings.RotatePoint(corners[i])
		}
		face = settings.RotateDirection(d)
		if settings.UVLock && uv == nil {
			rmin, rmax := boundsOf(corners)
			rect = defaultFaceUV(face, rmin, rmax)
		}
	}

	uvs := [4][2]float32{
		{rect[0], rect[1]},
		{rect[0], rect[3]},
		{rect[2], rect[3]},
		{rect[2], rect[1]},
	}

	var verts [4]quadVertex
	normal := face.Normal()
	for i := range verts {
		verts[i] = quadVertex{
			Position: scaleToUnit(corners[i]),
			UV:       [2]float32{sprite.InterpolatedU(uvs[i][0]), sprite.InterpolatedV(uvs[i][1])},
			Color:    white,
			Normal:   normal,
		}
	}

	return BakedQuad{
		Face:      face,
		Sprite:    sprite,
		TintIndex: tint,
		Shade:     shade,
		Data:      packQuad(format, verts),
	}
}

func boundsOf(pts [4][3]float32) (lo, hi [3]float32) {
	lo, hi = pts[0], pts[0]
	for _, p := range pts[1:] {
		for k := 0; k < 3; k++ {
			lo[k] = float32(gomath.Min(float64(lo[k]), float64(p[k])))
			hi[k] = float32(gomath.Max(float64(hi[k]), float64(p[k])))
		}
	}
	return lo, hi
}

// scaleToUnit maps model space (0..16) to block space (0..1).
func scaleToUnit(p [3]float32) [3]float32 {
	return [3]float32{p[0] / 16, p[1] / 16, p[2] / 16}
}
