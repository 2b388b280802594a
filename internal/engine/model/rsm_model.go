package model

import (
	"fmt"

	"github.com/Faultbox/midgard-modelbake/internal/engine/texture"
	"github.com/Faultbox/midgard-modelbake/internal/modelid"
	"github.com/Faultbox/midgard-modelbake/pkg/encoding"
	"github.com/Faultbox/midgard-modelbake/pkg/formats"
	"github.com/Faultbox/midgard-modelbake/pkg/math"
)

// RSMModel bakes a posed RSM mesh. The mesh is fitted into the unit block:
// centred on X/Z, resting on y=0, scaled uniformly by its largest extent.
// Triangles become quads whose last vertex repeats the third.
type RSMModel struct {
	Name string
	Mesh *formats.RSM

	// AnimTimeMs selects the pose for animated meshes.
	AnimTimeMs float32
}

// RSMTextureID names an RSM texture path in the atlas. The atlas resolves
// the "ro" namespace to data/<path> in the asset manager.
func RSMTextureID(name string) modelid.Identifier {
	return modelid.New(texture.ROTextureNamespace, "texture/"+encoding.NormalizeGRFPath(name))
}

// ParseRSMModel decodes RSM bytes into a model.
func ParseRSMModel(name string, data []byte) (*RSMModel, error) {
	rsm, err := formats.ParseRSM(data)
	if err != nil {
		return nil, fmt.Errorf("%w %s: %v", ErrInvalidModel, name, err)
	}
	return &RSMModel{Name: name, Mesh: rsm}, nil
}

// Dependencies returns nil: RSM meshes are self-contained.
func (m *RSMModel) Dependencies() []modelid.Identifier {
	return nil
}

// TextureDependencies lists the textures referenced by any face.
func (m *RSMModel) TextureDependencies(func(modelid.Identifier) UnbakedModel) []modelid.Identifier {
	var ids []modelid.Identifier
	for i := range m.Mesh.Nodes {
		node := &m.Mesh.Nodes[i]
		for _, face := range node.Faces {
			if name, ok := m.Mesh.TextureForFace(node, face); ok {
				ids = append(ids, RSMTextureID(name))
			}
		}
	}
	return dedupe(ids)
}

// rsmTriangle is a posed triangle before fitting.
type rsmTriangle struct {
	texture modelid.Identifier
	pos     [3][3]float32
	uv      [3][2]float32
	normal  [3][3]float32
}

// Bake poses the mesh, fits it into the block and emits one quad per
// triangle side.
func (m *RSMModel) Bake(_ Baker, textures TextureGetter, format *VertexFormat, settings BakeSettings, id modelid.Identifier) (*BakedModel, error) {
	tris := m.triangles()
	if len(tris) == 0 {
		return nil, fmt.Errorf("%w %s: mesh has no usable faces", ErrInvalidModel, m.Name)
	}
	if m.Mesh.Shading == formats.RSMShadingSmooth {
		smoothNormals(tris)
	}
	fit := fitToBlock(tris)

	baked := &BakedModel{ID: id, Format: format, AmbientOcclusion: true}
	sprites := make(map[modelid.Identifier]*texture.Sprite)
	for _, tri := range tris {
		sprite, ok := sprites[tri.texture]
		if !ok {
			sprite = textures(tri.texture)
			sprites[tri.texture] = sprite
		}
		if baked.Particle == nil {
			baked.Particle = sprite
		}

		var verts [4]quadVertex
		for j := 0; j < 4; j++ {
			k := min(j, 2)
			p := fit(tri.pos[k])
			n := tri.normal[k]
			if !settings.IsIdentity() {
				p = settings.RotatePoint(p)
				n = settings.RotateNormal(n)
			}
			verts[j] = quadVertex{
				Position: scaleToUnit(p),
				UV:       [2]float32{sprite.InterpolatedU(tri.uv[k][0] * 16), sprite.InterpolatedV(tri.uv[k][1] * 16)},
				Color:    [4]float32{1, 1, 1, m.Mesh.Alpha},
				Normal:   n,
			}
		}

		face := FromNormal(faceNormal(tri))
		if !settings.IsIdentity() {
			face = settings.RotateDirection(face)
		}
		baked.Quads = append(baked.Quads, BakedQuad{
			Face:      face,
			Sprite:    sprite,
			TintIndex: -1,
			Shade:     true,
			Data:      packQuad(format, verts),
		})
	}
	return baked, nil
}

// triangles poses every valid face. Two-sided faces produce a second,
// reversed triangle with flipped normals. Y is flipped because RSM meshes
// are authored with Y pointing down.
func (m *RSMModel) triangles() []rsmTriangle {
	var out []rsmTriangle
	for i := range m.Mesh.Nodes {
		node := &m.Mesh.Nodes[i]
		mat := nodeMatrix(node, m.Mesh, m.AnimTimeMs)

		for _, face := range node.Faces {
			name, ok := m.Mesh.TextureForFace(node, face)
			if !ok || !faceInRange(node, face) {
				continue
			}

			var tri rsmTriangle
			tri.texture = RSMTextureID(name)
			for j, vid := range face.VertexIDs {
				p := mat.TransformPoint(node.Vertices[vid])
				p[1] = -p[1]
				tri.pos[j] = p
				if tc := int(face.TexCoordIDs[j]); tc < len(node.TexCoords) {
					tri.uv[j] = [2]float32{node.TexCoords[tc].U, node.TexCoords[tc].V}
				}
			}

			n := math.Cross(math.Sub(tri.pos[1], tri.pos[0]), math.Sub(tri.pos[2], tri.pos[0]))
			if math.Length(n) < 1e-5 {
				continue
			}
			n = math.Normalize(n)
			tri.normal = [3][3]float32{n, n, n}
			out = append(out, tri)

			if face.TwoSide != 0 {
				back := rsmTriangle{texture: tri.texture}
				flipped := [3]float32{-n[0], -n[1], -n[2]}
				for j := 0; j < 3; j++ {
					back.pos[j] = tri.pos[2-j]
					back.uv[j] = tri.uv[2-j]
					back.normal[j] = flipped
				}
				out = append(out, back)
			}
		}
	}
	return out
}

func faceInRange(node *formats.RSMNode, face formats.RSMFace) bool {
	for _, vid := range face.VertexIDs {
		if int(vid) >= len(node.Vertices) {
			return false
		}
	}
	return true
}

func faceNormal(tri rsmTriangle) [3]float32 {
	return math.Normalize(math.Cross(math.Sub(tri.pos[1], tri.pos[0]), math.Sub(tri.pos[2], tri.pos[0])))
}

// fitToBlock returns a mapping from posed mesh space into model space
// (0..16), centred on X/Z with the lowest point at y=0.
func fitToBlock(tris []rsmTriangle) func([3]float32) [3]float32 {
	lo := tris[0].pos[0]
	hi := lo
	for _, tri := range tris {
		for _, p := range tri.pos {
			for k := 0; k < 3; k++ {
				lo[k] = min(lo[k], p[k])
				hi[k] = max(hi[k], p[k])
			}
		}
	}

	extent := max(hi[0]-lo[0], hi[1]-lo[1], hi[2]-lo[2])
	scale := float32(1)
	if extent > 1e-6 {
		scale = 16 / extent
	}
	cx, cz := (lo[0]+hi[0])/2, (lo[2]+hi[2])/2

	return func(p [3]float32) [3]float32 {
		return [3]float32{
			(p[0]-cx)*scale + 8,
			(p[1] - lo[1]) * scale,
			(p[2]-cz)*scale + 8,
		}
	}
}

// smoothNormals averages vertex normals that share a position.
func smoothNormals(tris []rsmTriangle) {
	const epsilon float32 = 0.001
	type ref struct{ tri, vert int }

	groups := make(map[[3]int32][]ref)
	for i := range tris {
		for j, p := range tris[i].pos {
			key := [3]int32{int32(p[0] / epsilon), int32(p[1] / epsilon), int32(p[2] / epsilon)}
			groups[key] = append(groups[key], ref{i, j})
		}
	}

	for _, refs := range groups {
		if len(refs) < 2 {
			continue
		}
		var sum [3]float32
		for _, r := range refs {
			n := tris[r.tri].normal[r.vert]
			sum[0] += n[0]
			sum[1] += n[1]
			sum[2] += n[2]
		}
		avg := math.Normalize(sum)
		for _, r := range refs {
			tris[r.tri].normal[r.vert] = avg
		}
	}
}
