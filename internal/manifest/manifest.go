// Package manifest loads extension manifests: HCL files that declare which
// extra special models a mod registers and which textures it replaces.
//
//	mod "examplemod" {
//	  version        = "1.0.0"
//	  special_models = ["examplemod:lens#inventory"]
//
//	  texture_override "examplemod:block/glass" {
//	    replacement = "examplemod:block/stained_glass"
//	  }
//	}
package manifest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-modelbake/internal/engine/model"
	"github.com/Faultbox/midgard-modelbake/internal/engine/texture"
	"github.com/Faultbox/midgard-modelbake/internal/logger"
	"github.com/Faultbox/midgard-modelbake/internal/modelid"
)

// Extension is the file suffix LoadDir looks for.
const Extension = ".mod.hcl"

var (
	// ErrInvalidManifest is returned for manifests that parse but do not make sense.
	ErrInvalidManifest = errors.New("invalid manifest")
	// ErrDuplicateMod is returned when two manifests declare the same mod.
	ErrDuplicateMod = errors.New("duplicate mod")
)

// Mod is one decoded mod block.
type Mod struct {
	Name             string
	Version          string
	SpecialModels    []modelid.ModelIdentifier
	TextureOverrides map[modelid.Identifier]modelid.Identifier
	File             string
}

type hclFile struct {
	Mods []*hclMod `hcl:"mod,block"`
}

type hclMod struct {
	Name             string         `hcl:"name,label"`
	Version          string         `hcl:"version,optional"`
	SpecialModels    []string       `hcl:"special_models,optional"`
	TextureOverrides []*hclOverride `hcl:"texture_override,block"`
}

type hclOverride struct {
	Texture     string `hcl:"texture,label"`
	Replacement string `hcl:"replacement"`
}

// Parse decodes the manifest src. filename is used in diagnostics only.
func Parse(filename string, src []byte) ([]*Mod, error) {
	f, diags := hclparse.NewParser().ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse manifest %s: %w", filename, diags)
	}
	return decode(filename, f)
}

// LoadFile reads and decodes one manifest file.
func LoadFile(path string) ([]*Mod, error) {
	f, diags := hclparse.NewParser().ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse manifest %s: %w", path, diags)
	}
	return decode(path, f)
}

func decode(filename string, f *hcl.File) ([]*Mod, error) {
	var raw hclFile
	if diags := gohcl.DecodeBody(f.Body, nil, &raw); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode manifest %s: %w", filename, diags)
	}

	mods := make([]*Mod, 0, len(raw.Mods))
	for _, rm := range raw.Mods {
		m, err := convert(filename, rm)
		if err != nil {
			return nil, err
		}
		mods = append(mods, m)
	}
	return mods, nil
}

func convert(filename string, rm *hclMod) (*Mod, error) {
	if rm.Name == "" {
		return nil, fmt.Errorf("%w %s: mod name is empty", ErrInvalidManifest, filename)
	}
	m := &Mod{Name: rm.Name, Version: rm.Version, File: filename}

	for _, s := range rm.SpecialModels {
		id, err := modelid.ParseModel(s)
		if err != nil {
			return nil, fmt.Errorf("%w %s: mod %s: special model: %v", ErrInvalidManifest, filename, rm.Name, err)
		}
		m.SpecialModels = append(m.SpecialModels, id)
	}

	for _, o := range rm.TextureOverrides {
		from, err := modelid.Parse(o.Texture)
		if err != nil {
			return nil, fmt.Errorf("%w %s: mod %s: texture override: %v", ErrInvalidManifest, filename, rm.Name, err)
		}
		to, err := modelid.Parse(o.Replacement)
		if err != nil {
			return nil, fmt.Errorf("%w %s: mod %s: override of %s: %v", ErrInvalidManifest, filename, rm.Name, from, err)
		}
		if m.TextureOverrides == nil {
			m.TextureOverrides = make(map[modelid.Identifier]modelid.Identifier)
		}
		if _, dup := m.TextureOverrides[from]; dup {
			return nil, fmt.Errorf("%w %s: mod %s overrides %s twice", ErrInvalidManifest, filename, rm.Name, from)
		}
		m.TextureOverrides[from] = to
	}
	return m, nil
}

// Set is every mod loaded for one run, in load order.
type Set struct {
	Mods []*Mod
}

// LoadDir loads every *.mod.hcl file in dir in name order. An empty dir
// yields an empty set.
func LoadDir(dir string) (*Set, error) {
	set := &Set{}
	if dir == "" {
		return set, nil
	}
	if _, err := os.Stat(dir); err != nil {
		return nil, fmt.Errorf("manifest directory: %w", err)
	}

	paths, err := filepath.Glob(filepath.Join(dir, "*"+Extension))
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)

	for _, p := range paths {
		mods, err := LoadFile(p)
		if err != nil {
			return nil, err
		}
		if err := set.Add(mods...); err != nil {
			return nil, err
		}
	}

	logger.Named("manifest").Info("Loaded extension manifests",
		zap.String("dir", dir),
		zap.Int("files", len(paths)),
		zap.Int("mods", len(set.Mods)))
	return set, nil
}

// Add appends mods, rejecting names already in the set.
func (s *Set) Add(mods ...*Mod) error {
	for _, m := range mods {
		for _, have := range s.Mods {
			if have.Name == m.Name {
				return fmt.Errorf("%w %q in %s and %s", ErrDuplicateMod, m.Name, have.File, m.File)
			}
		}
		s.Mods = append(s.Mods, m)
	}
	return nil
}

// SpecialModels returns the registry keys of every declared special model,
// in declaration order without duplicates.
func (s *Set) SpecialModels() []modelid.Identifier {
	seen := make(map[modelid.Identifier]bool)
	var ids []modelid.Identifier
	for _, m := range s.Mods {
		for _, mid := range m.SpecialModels {
			key := mid.Key()
			if seen[key] {
				continue
			}
			seen[key] = true
			ids = append(ids, key)
		}
	}
	return ids
}

// TextureOverrides merges every mod's overrides. When two mods replace the
// same texture the later one wins.
func (s *Set) TextureOverrides() map[modelid.Identifier]modelid.Identifier {
	log := logger.Named("manifest")
	merged := make(map[modelid.Identifier]modelid.Identifier)
	owner := make(map[modelid.Identifier]string)
	for _, m := range s.Mods {
		for from, to := range m.TextureOverrides {
			if prev, ok := owner[from]; ok && merged[from] != to {
				log.Warn("Texture override replaced by a later mod",
					zap.Stringer("texture", from),
					zap.String("previous", prev),
					zap.String("mod", m.Name))
			}
			merged[from] = to
			owner[from] = m.Name
		}
	}
	return merged
}

// Retexture wraps next so that overridden textures resolve to their
// replacement. With no overrides it returns next unchanged.
func (s *Set) Retexture(next model.TextureGetter) model.TextureGetter {
	overrides := s.TextureOverrides()
	if len(overrides) == 0 {
		return next
	}
	return func(id modelid.Identifier) *texture.Sprite {
		if to, ok := overrides[id]; ok {
			id = to
		}
		return next(id)
	}
}
