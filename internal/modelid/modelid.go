// Package modelid defines the namespaced keys that name models and textures.
package modelid

import (
	"errors"
	"fmt"
	"strings"
)

// DefaultNamespace is used when an identifier has no namespace prefix.
const DefaultNamespace = "minecraft"

// ErrInvalidIdentifier is returned for identifiers with illegal characters.
var ErrInvalidIdentifier = errors.New("invalid identifier")

// Identifier names a resource as namespace:path.
// It is a comparable value and may be used as a map key.
type Identifier struct {
	Namespace string
	Path      string
}

// New builds an identifier without validation.
func New(namespace, path string) Identifier {
	return Identifier{Namespace: namespace, Path: path}
}

// Parse parses "namespace:path" or "path".
func Parse(s string) (Identifier, error) {
	ns, path := DefaultNamespace, s
	if i := strings.IndexByte(s, ':'); i >= 0 {
		ns, path = s[:i], s[i+1:]
		if ns == "" {
			ns = DefaultNamespace
		}
	}
	ns = strings.ToLower(ns)
	path = strings.ToLower(path)

	if !validNamespace(ns) {
		return Identifier{}, fmt.Errorf("%w: bad namespace in %q", ErrInvalidIdentifier, s)
	}
	if path == "" || !validPath(path) {
		return Identifier{}, fmt.Errorf("%w: bad path in %q", ErrInvalidIdentifier, s)
	}
	return Identifier{Namespace: ns, Path: path}, nil
}

// MustParse is like Parse but panics on error. Use it for constants.
func MustParse(s string) Identifier {
	id, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return id
}

// String returns "namespace:path".
func (id Identifier) String() string {
	return id.Namespace + ":" + id.Path
}

// IsZero reports whether id is the zero value.
func (id Identifier) IsZero() bool {
	return id.Namespace == "" && id.Path == ""
}

// Less orders identifiers by namespace then path.
func (id Identifier) Less(other Identifier) bool {
	if id.Namespace != other.Namespace {
		return id.Namespace < other.Namespace
	}
	return id.Path < other.Path
}

// ModelIdentifier is an Identifier qualified with a variant, such as
// "minecraft:trident_in_hand#inventory".
type ModelIdentifier struct {
	Identifier
	Variant string
}

// NewModel builds a model identifier without validation.
func NewModel(id Identifier, variant string) ModelIdentifier {
	return ModelIdentifier{Identifier: id, Variant: variant}
}

// ParseModel parses "namespace:path#variant". The variant may be empty.
func ParseModel(s string) (ModelIdentifier, error) {
	base, variant := s, ""
	if i := strings.LastIndexByte(s, '#'); i >= 0 {
		base, variant = s[:i], strings.ToLower(s[i+1:])
	}
	id, err := Parse(base)
	if err != nil {
		return ModelIdentifier{}, err
	}
	for _, r := range variant {
		if !isPathRune(r) && r != '=' && r != ',' {
			return ModelIdentifier{}, fmt.Errorf("%w: bad variant in %q", ErrInvalidIdentifier, s)
		}
	}
	return ModelIdentifier{Identifier: id, Variant: variant}, nil
}

// MustParseModel is like ParseModel but panics on error.
func MustParseModel(s string) ModelIdentifier {
	id, err := ParseModel(s)
	if err != nil {
		panic(err)
	}
	return id
}

// String returns "namespace:path#variant".
func (m ModelIdentifier) String() string {
	if m.Variant == "" {
		return m.Identifier.String()
	}
	return m.Identifier.String() + "#" + m.Variant
}

// Key returns the identifier used as registry key for this model.
// Variants are folded into the path so that each variant gets its own entry.
func (m ModelIdentifier) Key() Identifier {
	if m.Variant == "" {
		return m.Identifier
	}
	return Identifier{Namespace: m.Namespace, Path: m.Path + "#" + m.Variant}
}

// SplitKey reverses Key.
func SplitKey(id Identifier) ModelIdentifier {
	if i := strings.LastIndexByte(id.Path, '#'); i >= 0 {
		return ModelIdentifier{
			Identifier: Identifier{Namespace: id.Namespace, Path: id.Path[:i]},
			Variant:    id.Path[i+1:],
		}
	}
	return ModelIdentifier{Identifier: id}
}

func validNamespace(ns string) bool {
	if ns == "" {
		return false
	}
	for _, r := range ns {
		if !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '_' || r == '-' || r == '.') {
			return false
		}
	}
	return true
}

func validPath(p string) bool {
	for _, r := range p {
		if !isPathRune(r) {
			return false
		}
	}
	return true
}

func isPathRune(r rune) bool {
	return r >= 'a' && r <= 'z' || r >= '0' && r <= '9' ||
		r == '_' || r == '-' || r == '.' || r == '/'
}
