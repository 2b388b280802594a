package model

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/Faultbox/midgard-modelbake/internal/engine/texture"
	"github.com/Faultbox/midgard-modelbake/internal/modelid"
	"github.com/Faultbox/midgard-modelbake/pkg/encoding"
)

// ErrModelNotFound is returned by a ModelSource that has no definition for an id.
var ErrModelNotFound = errors.New("model not found")

// Model definition file suffixes.
const (
	BlockModelExt     = ".model.yaml"
	CompositeModelExt = ".composite.yaml"
	RSMExt            = ".rsm"
)

// ModelSource supplies unbaked model definitions to the Loader.
type ModelSource interface {
	// LoadModel returns the definition for id, or ErrModelNotFound.
	LoadModel(id modelid.Identifier) (UnbakedModel, error)

	// ListModels returns the ids registered during the static phase.
	ListModels() []modelid.Identifier
}

// AssetReader is the subset of the asset manager an AssetSource needs.
type AssetReader interface {
	Load(path string) ([]byte, error)
	List(prefix string) []string
}

// AssetSource reads model definitions from an asset manager.
//
//	ns:path             -> models/<ns>/<path>{.model.yaml,.composite.yaml}
//	ns:path#inventory   -> models/<ns>/item/<path>...
//	ns:path#<variant>   -> models/<ns>/block/<path>...
//	ro:model/<file>.rsm -> data/model/<file>.rsm
type AssetSource struct {
	assets AssetReader

	// AnimTimeMs is the pose time given to every RSM mesh loaded.
	AnimTimeMs float32
}

// NewAssetSource creates a source over assets.
func NewAssetSource(assets AssetReader) *AssetSource {
	return &AssetSource{assets: assets}
}

// LoadModel implements ModelSource.
func (s *AssetSource) LoadModel(id modelid.Identifier) (UnbakedModel, error) {
	if id.Namespace == texture.ROTextureNamespace {
		path := "data/" + id.Path
		data, err := s.assets.Load(path)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrModelNotFound, id, err)
		}
		m, err := ParseRSMModel(id.String(), data)
		if err != nil {
			return nil, err
		}
		m.AnimTimeMs = s.AnimTimeMs
		return m, nil
	}

	base := definitionBase(id)
	if data, err := s.assets.Load(base + BlockModelExt); err == nil {
		m, err := ParseBlockModel(id.String(), data)
		if err != nil {
			return nil, err
		}
		return m, nil
	}
	if data, err := s.assets.Load(base + CompositeModelExt); err == nil {
		m, err := ParseCompositeModel(id.String(), data)
		if err != nil {
			return nil, err
		}
		return m, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrModelNotFound, id)
}

// ListModels implements ModelSource. Definitions under models/ and RSM
// meshes under data/model/ are listed, sorted.
func (s *AssetSource) ListModels() []modelid.Identifier {
	var ids []modelid.Identifier
	for _, p := range s.assets.List("models/") {
		rest := strings.TrimPrefix(p, "models/")
		var name string
		switch {
		case strings.HasSuffix(rest, BlockModelExt):
			name = strings.TrimSuffix(rest, BlockModelExt)
		case strings.HasSuffix(rest, CompositeModelExt):
			name = strings.TrimSuffix(rest, CompositeModelExt)
		default:
			continue
		}
		ns, path, ok := strings.Cut(name, "/")
		if !ok {
			continue
		}
		id, err := modelid.Parse(ns + ":" + path)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	for _, p := range s.assets.List("data/model/") {
		if strings.HasSuffix(strings.ToLower(p), RSMExt) {
			ids = append(ids, modelid.New(texture.ROTextureNamespace, strings.TrimPrefix(encoding.NormalizeGRFPath(p), "data/")))
		}
	}
	return dedupe(ids)
}

// definitionBase maps an id, possibly carrying a folded variant, to its
// file path without extension.
func definitionBase(id modelid.Identifier) string {
	mid := modelid.SplitKey(id)
	switch mid.Variant {
	case "":
		return "models/" + mid.Namespace + "/" + mid.Path
	case "inventory":
		return "models/" + mid.Namespace + "/item/" + mid.Path
	default:
		return "models/" + mid.Namespace + "/block/" + mid.Path
	}
}

// MapSource is an in-memory ModelSource. Listed ids are the keys in
// sorted order.
type MapSource map[modelid.Identifier]UnbakedModel

// LoadModel implements ModelSource.
func (s MapSource) LoadModel(id modelid.Identifier) (UnbakedModel, error) {
	if m, ok := s[id]; ok {
		return m, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrModelNotFound, id)
}

// ListModels implements ModelSource.
func (s MapSource) ListModels() []modelid.Identifier {
	ids := make([]modelid.Identifier, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].Less(ids[j]) })
	return ids
}
