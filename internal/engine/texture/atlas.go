package texture

import (
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/Faultbox/midgard-modelbake/internal/logger"
	"github.com/Faultbox/midgard-modelbake/internal/modelid"
)

// BlocksAtlasID names the atlas that block and item models bake against.
var BlocksAtlasID = modelid.New(modelid.DefaultNamespace, "textures/atlas/blocks.png")

// ROTextureNamespace marks identifiers that point straight at a file below
// the data/ directory of a GRF archive, such as RSM model textures.
const ROTextureNamespace = "ro"

// Source provides raw texture file contents.
type Source interface {
	Load(path string) ([]byte, error)
}

// Atlas resolves texture identifiers to sprites, loading them on first use.
// GetSprite never returns nil: unknown textures resolve to the missing sprite.
type Atlas struct {
	id      modelid.Identifier
	source  Source
	missing *Sprite

	mu      sync.RWMutex
	sprites map[modelid.Identifier]*Sprite
	failed  map[modelid.Identifier]bool
}

// NewAtlas creates an atlas backed by source. A nil source yields an atlas
// that only knows registered sprites.
func NewAtlas(id modelid.Identifier, source Source) *Atlas {
	missing := newMissingSprite()
	return &Atlas{
		id:      id,
		source:  source,
		missing: missing,
		sprites: map[modelid.Identifier]*Sprite{MissingID: missing},
		failed:  make(map[modelid.Identifier]bool),
	}
}

// ID returns the atlas identifier.
func (a *Atlas) ID() modelid.Identifier {
	return a.id
}

// Missing returns the placeholder sprite.
func (a *Atlas) Missing() *Sprite {
	return a.missing
}

// Register adds or replaces a sprite.
func (a *Atlas) Register(s *Sprite) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.sprites[s.ID] = s
	delete(a.failed, s.ID)
}

// GetSprite returns the sprite for id, loading it from the source if needed.
func (a *Atlas) GetSprite(id modelid.Identifier) *Sprite {
	a.mu.RLock()
	s, ok := a.sprites[id]
	failed := a.failed[id]
	a.mu.RUnlock()
	if ok {
		return s
	}
	if failed || a.source == nil {
		return a.missing
	}

	s = a.load(id)

	a.mu.Lock()
	defer a.mu.Unlock()
	if s == nil {
		a.failed[id] = true
		return a.missing
	}
	a.sprites[id] = s
	return s
}

func (a *Atlas) load(id modelid.Identifier) *Sprite {
	log := logger.Named("atlas")
	for _, p := range AssetPaths(id) {
		data, err := a.source.Load(p)
		if err != nil {
			continue
		}
		img, err := Decode(p, data)
		if err != nil {
			log.Warn("texture decode failed", zap.Stringer("texture", id), zap.String("path", p), zap.Error(err))
			return nil
		}
		return NewSprite(id, img)
	}
	log.Debug("texture not found", zap.Stringer("texture", id))
	return nil
}

// Preload resolves every id and reports how many fell back to the missing sprite.
func (a *Atlas) Preload(ids []modelid.Identifier) (missing int) {
	for _, id := range ids {
		if a.GetSprite(id) == a.missing && id != MissingID {
			missing++
		}
	}
	return missing
}

// Sprites returns the identifiers of all loaded sprites, sorted.
func (a *Atlas) Sprites() []modelid.Identifier {
	a.mu.RLock()
	defer a.mu.RUnlock()
	ids := make([]modelid.Identifier, 0, len(a.sprites))
	for id := range a.sprites {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].Less(ids[j]) })
	return ids
}

// AssetPaths returns the candidate file paths for a texture identifier.
//
//	ro:texture/foo.bmp        -> data/texture/foo.bmp
//	examplemod:block/glass    -> textures/examplemod/block/glass.{png,bmp,tga}
func AssetPaths(id modelid.Identifier) []string {
	if id.Namespace == ROTextureNamespace {
		return []string{"data/" + id.Path}
	}
	base := "textures/" + id.Namespace + "/" + id.Path
	for _, ext := range Extensions {
		if strings.HasSuffix(id.Path, ext) {
			return []string{base}
		}
	}
	paths := make([]string, 0, len(Extensions))
	for _, ext := range Extensions {
		paths = append(paths, base+ext)
	}
	return paths
}
