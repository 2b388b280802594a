package model

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Faultbox/midgard-modelbake/internal/engine/texture"
	"github.com/Faultbox/midgard-modelbake/internal/modelid"
)

// ErrInvalidModel is returned for declarative models that fail validation.
var ErrInvalidModel = errors.New("invalid model definition")

// maxParentDepth bounds parent and texture-reference chains.
const maxParentDepth = 64

// BlockModel is a declarative cuboid model. It may inherit textures and
// elements from a parent model.
type BlockModel struct {
	Name     string
	ParentID modelid.Identifier
	Textures map[string]string // key -> "#otherKey" or texture identifier
	Elements []Element
	AO       *bool
	GUILight string

	parent *BlockModel
}

// Element is one axis-aligned box in model space (0..16).
type Element struct {
	From  [3]float32
	To    [3]float32
	Faces map[Direction]ElementFace
	Shade bool
}

// ElementFace is a textured face of an element.
type ElementFace struct {
	UV        *[4]float32
	Texture   string // "#key" or texture identifier
	CullFace  *Direction
	TintIndex int
}

type blockModelYAML struct {
	Parent           string            `yaml:"parent"`
	Textures         map[string]string `yaml:"textures"`
	AmbientOcclusion *bool             `yaml:"ambientocclusion"`
	GUILight         string            `yaml:"gui_light"`
	Elements         []struct {
		From  [3]float32 `yaml:"from"`
		To    [3]float32 `yaml:"to"`
		Shade *bool      `yaml:"shade"`
		Faces map[string]struct {
			UV        *[4]float32 `yaml:"uv"`
			Texture   string      `yaml:"texture"`
			CullFace  string      `yaml:"cullface"`
			TintIndex *int        `yaml:"tintindex"`
		} `yaml:"faces"`
	} `yaml:"elements"`
}

// ParseBlockModel decodes a YAML model definition.
func ParseBlockModel(name string, data []byte) (*BlockModel, error) {
	var raw blockModelYAML
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w %s: %v", ErrInvalidModel, name, err)
	}

	m := &BlockModel{
		Name:     name,
		Textures: raw.Textures,
		AO:       raw.AmbientOcclusion,
		GUILight: raw.GUILight,
	}
	if m.Textures == nil {
		m.Textures = make(map[string]string)
	}
	if raw.Parent != "" {
		id, err := modelid.Parse(raw.Parent)
		if err != nil {
			return nil, fmt.Errorf("%w %s: parent: %v", ErrInvalidModel, name, err)
		}
		m.ParentID = id
	}

	for i, re := range raw.Elements {
		el := Element{From: re.From, To: re.To, Shade: true, Faces: make(map[Direction]ElementFace)}
		if re.Shade != nil {
			el.Shade = *re.Shade
		}
		for k := 0; k < 3; k++ {
			if el.From[k] < -16 || el.To[k] > 32 || el.From[k] > el.To[k] {
				return nil, fmt.Errorf("%w %s: element %d has bad extent %v..%v", ErrInvalidModel, name, i, el.From, el.To)
			}
		}
		for faceName, rf := range re.Faces {
			d, err := ParseDirection(faceName)
			if err != nil {
				return nil, fmt.Errorf("%w %s: element %d: %v", ErrInvalidModel, name, i, err)
			}
			if rf.Texture == "" {
				return nil, fmt.Errorf("%w %s: element %d face %s has no texture", ErrInvalidModel, name, i, faceName)
			}
			face := ElementFace{UV: rf.UV, Texture: rf.Texture, TintIndex: -1}
			if rf.TintIndex != nil {
				face.TintIndex = *rf.TintIndex
			}
			if rf.CullFace != "" {
				cd, err := ParseDirection(rf.CullFace)
				if err != nil {
					return nil, fmt.Errorf("%w %s: element %d: %v", ErrInvalidModel, name, i, err)
				}
				face.CullFace = &cd
			}
			el.Faces[d] = face
		}
		m.Elements = append(m.Elements, el)
	}
	return m, nil
}

// Parent returns the linked parent, if any.
func (m *BlockModel) Parent() *BlockModel {
	return m.parent
}

// RootModel returns the top of the parent chain.
func (m *BlockModel) RootModel() *BlockModel {
	cur := m
	for i := 0; cur.parent != nil && i < maxParentDepth; i++ {
		cur = cur.parent
	}
	return cur
}

// Dependencies returns the parent model, if any.
func (m *BlockModel) Dependencies() []modelid.Identifier {
	if m.ParentID.IsZero() {
		return nil
	}
	return []modelid.Identifier{m.ParentID}
}

// TextureDependencies links the parent chain and lists the resolved face
// and particle textures.
func (m *BlockModel) TextureDependencies(lookup func(modelid.Identifier) UnbakedModel) []modelid.Identifier {
	m.link(lookup)

	var ids []modelid.Identifier
	for _, el := range m.GetElements() {
		for _, face := range el.Faces {
			ids = append(ids, m.ResolveTexture(face.Texture))
		}
	}
	if m.HasTexture("particle") {
		ids = append(ids, m.ResolveTexture("particle"))
	}
	for _, layer := range layerKeys {
		if !m.HasTexture(layer) {
			break
		}
		ids = append(ids, m.ResolveTexture(layer))
	}
	return dedupe(ids)
}

// link resolves ParentID into a pointer, following the chain upwards.
// A parent that is not a BlockModel, or a chain that loops, is an error.
func (m *BlockModel) link(lookup func(modelid.Identifier) UnbakedModel) error {
	visited := map[*BlockModel]bool{}
	for cur := m; cur != nil; cur = cur.parent {
		if len(visited) > maxParentDepth {
			return fmt.Errorf("%w %s: parent chain too deep", ErrInvalidModel, m.Name)
		}
		visited[cur] = true
		if cur.parent == nil && !cur.ParentID.IsZero() {
			parent, ok := lookup(cur.ParentID).(*BlockModel)
			if !ok {
				return fmt.Errorf("%w %s: parent %s is not a block model", ErrInvalidModel, cur.Name, cur.ParentID)
			}
			cur.parent = parent
		}
		if cur.parent != nil && visited[cur.parent] {
			return fmt.Errorf("%w %s: parent cycle through %s", ErrInvalidModel, m.Name, cur.ParentID)
		}
	}
	return nil
}

// GetElements returns the model's own elements or, when it has none,
// the nearest ancestor's.
func (m *BlockModel) GetElements() []Element {
	cur := m
	for i := 0; cur != nil && i < maxParentDepth; i++ {
		if len(cur.Elements) > 0 {
			return cur.Elements
		}
		cur = cur.parent
	}
	return nil
}

// AmbientOcclusion defaults to true unless the model or an ancestor disables it.
func (m *BlockModel) AmbientOcclusion() bool {
	cur := m
	for i := 0; cur != nil && i < maxParentDepth; i++ {
		if cur.AO != nil {
			return *cur.AO
		}
		cur = cur.parent
	}
	return true
}

// HasTexture reports whether the texture key resolves to a concrete
// texture. The key may carry a leading '#'.
func (m *BlockModel) HasTexture(key string) bool {
	_, ok := m.lookupTexture(key)
	return ok
}

// ResolveTexture looks up a texture key, with or without its leading '#',
// and follows "#key" values through the parent chain. Unresolvable keys
// yield the missing texture.
func (m *BlockModel) ResolveTexture(key string) modelid.Identifier {
	if id, ok := m.lookupTexture(key); ok {
		return id
	}
	return texture.MissingID
}

func (m *BlockModel) lookupTexture(key string) (modelid.Identifier, bool) {
	ref := "#" + strings.TrimPrefix(key, "#")
	for i := 0; i < maxParentDepth; i++ {
		key, isRef := strings.CutPrefix(ref, "#")
		if !isRef {
			id, err := modelid.Parse(ref)
			return id, err == nil
		}
		val, ok := m.textureEntry(key)
		if !ok {
			return modelid.Identifier{}, false
		}
		ref = val
	}
	return modelid.Identifier{}, false
}

// textureEntry finds key in this model or the nearest ancestor that defines it.
func (m *BlockModel) textureEntry(key string) (string, bool) {
	cur := m
	for i := 0; cur != nil && i < maxParentDepth; i++ {
		if v, ok := cur.Textures[key]; ok {
			return v, true
		}
		cur = cur.parent
	}
	return "", false
}

// TextureKeys returns the texture keys visible from this model, sorted.
func (m *BlockModel) TextureKeys() []string {
	seen := map[string]bool{}
	cur := m
	for i := 0; cur != nil && i < maxParentDepth; i++ {
		for k := range cur.Textures {
			seen[k] = true
		}
		cur = cur.parent
	}
	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Bake bakes every element face with textures from the getter.
func (m *BlockModel) Bake(baker Baker, textures TextureGetter, format *VertexFormat, settings BakeSettings, id modelid.Identifier) (*BakedModel, error) {
	if err := m.link(baker.GetOrLoadModel); err != nil {
		return nil, err
	}

	baked := &BakedModel{
		ID:               id,
		Format:           format,
		Particle:         textures(m.ResolveTexture("particle")),
		AmbientOcclusion: m.AmbientOcclusion(),
	}
	for _, el := range m.GetElements() {
		for _, d := range AllDirections {
			face, ok := el.Faces[d]
			if !ok {
				continue
			}
			sprite := textures(m.ResolveTexture(face.Texture))
			baked.Quads = append(baked.Quads,
				buildFaceQuad(format, sprite, d, el.From, el.To, face.UV, settings, el.Shade, face.TintIndex))
		}
	}
	return baked, nil
}
