package model

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/Faultbox/midgard-modelbake/internal/engine/texture"
	"github.com/Faultbox/midgard-modelbake/internal/modelid"
)

// CompositeModel assembles other models. Each part is baked re-entrantly
// through the Baker; parts with a retexture map go through the extended
// entry point so the remapped getter reaches every nested bake.
type CompositeModel struct {
	Name     string
	Parts    []CompositePart
	Particle modelid.Identifier

	resolving bool
}

// CompositePart is one embedded model.
type CompositePart struct {
	Model     modelid.Identifier
	Settings  BakeSettings
	Retexture map[modelid.Identifier]modelid.Identifier
}

type compositeYAML struct {
	Particle string `yaml:"particle"`
	Parts    []struct {
		Model        string            `yaml:"model"`
		BakeSettings `yaml:",inline"`
		Retexture    map[string]string `yaml:"retexture"`
	} `yaml:"parts"`
}

// ParseCompositeModel decodes a YAML composite definition.
func ParseCompositeModel(name string, data []byte) (*CompositeModel, error) {
	var raw compositeYAML
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w %s: %v", ErrInvalidModel, name, err)
	}
	if len(raw.Parts) == 0 {
		return nil, fmt.Errorf("%w %s: composite has no parts", ErrInvalidModel, name)
	}

	m := &CompositeModel{Name: name}
	if raw.Particle != "" {
		id, err := modelid.Parse(raw.Particle)
		if err != nil {
			return nil, fmt.Errorf("%w %s: particle: %v", ErrInvalidModel, name, err)
		}
		m.Particle = id
	}

	for i, rp := range raw.Parts {
		model, err := modelid.ParseModel(rp.Model)
		if err != nil {
			return nil, fmt.Errorf("%w %s: part %d: %v", ErrInvalidModel, name, i, err)
		}
		if err := rp.BakeSettings.Validate(); err != nil {
			return nil, fmt.Errorf("%w %s: part %d: %v", ErrInvalidModel, name, i, err)
		}
		part := CompositePart{Model: model.Key(), Settings: rp.BakeSettings}
		for from, to := range rp.Retexture {
			fid, err := modelid.Parse(from)
			if err != nil {
				return nil, fmt.Errorf("%w %s: part %d retexture: %v", ErrInvalidModel, name, i, err)
			}
			tid, err := modelid.Parse(to)
			if err != nil {
				return nil, fmt.Errorf("%w %s: part %d retexture: %v", ErrInvalidModel, name, i, err)
			}
			if part.Retexture == nil {
				part.Retexture = make(map[modelid.Identifier]modelid.Identifier)
			}
			part.Retexture[fid] = tid
		}
		m.Parts = append(m.Parts, part)
	}
	return m, nil
}

// Dependencies returns the part models in declaration order.
func (m *CompositeModel) Dependencies() []modelid.Identifier {
	ids := make([]modelid.Identifier, 0, len(m.Parts))
	for _, p := range m.Parts {
		ids = append(ids, p.Model)
	}
	return ids
}

// TextureDependencies collects the textures of every part after retexturing.
// A composite that reaches itself through its parts contributes nothing
// the second time round.
func (m *CompositeModel) TextureDependencies(lookup func(modelid.Identifier) UnbakedModel) []modelid.Identifier {
	if m.resolving {
		return nil
	}
	m.resolving = true
	defer func() { m.resolving = false }()

	var ids []modelid.Identifier
	if !m.Particle.IsZero() {
		ids = append(ids, m.Particle)
	}
	for _, p := range m.Parts {
		part := lookup(p.Model)
		if part == nil {
			continue
		}
		for _, id := range part.TextureDependencies(lookup) {
			if to, ok := p.Retexture[id]; ok {
				id = to
			}
			ids = append(ids, id)
		}
	}
	return dedupe(ids)
}

// Bake bakes every part and concatenates their quads. The outer settings
// are composed with each part's own rotation.
func (m *CompositeModel) Bake(baker Baker, textures TextureGetter, format *VertexFormat, settings BakeSettings, id modelid.Identifier) (*BakedModel, error) {
	baked := &BakedModel{ID: id, Format: format, AmbientOcclusion: true}
	if !m.Particle.IsZero() {
		baked.Particle = textures(m.Particle)
	}

	for i, p := range m.Parts {
		partSettings := p.Settings.Then(settings)

		var (
			part *BakedModel
			err  error
		)
		if len(p.Retexture) == 0 {
			part, err = baker.Bake(p.Model, partSettings)
		} else {
			part, err = baker.GetBakedModel(p.Model, partSettings, retextured(textures, p.Retexture), format)
		}
		if err != nil {
			return nil, fmt.Errorf("composite %s part %d (%s): %w", m.Name, i, p.Model, err)
		}

		baked.Quads = append(baked.Quads, part.Quads...)
		if baked.Particle == nil {
			baked.Particle = part.Particle
		}
		if i == 0 {
			baked.AmbientOcclusion = part.AmbientOcclusion
		}
	}
	return baked, nil
}

// retextured wraps a getter so that mapped identifiers are swapped first.
func retextured(next TextureGetter, mapping map[modelid.Identifier]modelid.Identifier) TextureGetter {
	return func(id modelid.Identifier) *texture.Sprite {
		if to, ok := mapping[id]; ok {
			id = to
		}
		return next(id)
	}
}
