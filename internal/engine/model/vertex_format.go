package model

import (
	"fmt"
	"strings"
)

// VertexElement is one attribute of a baked vertex.
type VertexElement int

// Vertex elements in the order they are usually laid out.
const (
	ElementPosition VertexElement = iota
	ElementColor
	ElementUV0
	ElementUV2 // Lightmap coordinates
	ElementNormal
	ElementPadding
)

// Components returns the number of float32 values the element occupies.
func (e VertexElement) Components() int {
	switch e {
	case ElementPosition, ElementNormal:
		return 3
	case ElementColor:
		return 4
	case ElementUV0, ElementUV2:
		return 2
	case ElementPadding:
		return 1
	default:
		return 0
	}
}

// String returns the element name.
func (e VertexElement) String() string {
	switch e {
	case ElementPosition:
		return "position"
	case ElementColor:
		return "color"
	case ElementUV0:
		return "uv0"
	case ElementUV2:
		return "uv2"
	case ElementNormal:
		return "normal"
	case ElementPadding:
		return "padding"
	default:
		return fmt.Sprintf("element(%d)", int(e))
	}
}

// VertexFormat describes the layout of one baked vertex.
// Formats are compared by pointer; use the predefined values or
// LookupVertexFormat rather than building equal copies.
type VertexFormat struct {
	name     string
	elements []VertexElement
	offsets  map[VertexElement]int
	stride   int
}

// NewVertexFormat builds a format from elements in layout order.
func NewVertexFormat(name string, elements ...VertexElement) *VertexFormat {
	f := &VertexFormat{
		name:     name,
		elements: append([]VertexElement(nil), elements...),
		offsets:  make(map[VertexElement]int, len(elements)),
	}
	for _, e := range elements {
		if _, dup := f.offsets[e]; !dup && e != ElementPadding {
			f.offsets[e] = f.stride
		}
		f.stride += e.Components()
	}
	return f
}

// Standard vertex formats.
var (
	PositionColorTextureLightNormal = NewVertexFormat("position_color_texture_light_normal",
		ElementPosition, ElementColor, ElementUV0, ElementUV2, ElementNormal, ElementPadding)
	PositionTextureColorNormal = NewVertexFormat("position_texture_color_normal",
		ElementPosition, ElementUV0, ElementColor, ElementNormal, ElementPadding)
	PositionColorTexture = NewVertexFormat("position_color_texture",
		ElementPosition, ElementColor, ElementUV0)
)

var vertexFormats = map[string]*VertexFormat{
	PositionColorTextureLightNormal.name: PositionColorTextureLightNormal,
	PositionTextureColorNormal.name:      PositionTextureColorNormal,
	PositionColorTexture.name:            PositionColorTexture,
}

// LookupVertexFormat returns a standard format by name.
func LookupVertexFormat(name string) (*VertexFormat, bool) {
	f, ok := vertexFormats[strings.ToLower(name)]
	return f, ok
}

// VertexFormatNames lists the standard format names.
func VertexFormatNames() []string {
	return []string{
		PositionColorTextureLightNormal.name,
		PositionTextureColorNormal.name,
		PositionColorTexture.name,
	}
}

// Name returns the format name.
func (f *VertexFormat) Name() string { return f.name }

// Stride returns the number of float32 values per vertex.
func (f *VertexFormat) Stride() int { return f.stride }

// Elements returns a copy of the element list.
func (f *VertexFormat) Elements() []VertexElement {
	return append([]VertexElement(nil), f.elements...)
}

// Has reports whether the format contains e.
func (f *VertexFormat) Has(e VertexElement) bool {
	_, ok := f.offsets[e]
	return ok
}

// Offset returns the float offset of e within a vertex, or -1.
func (f *VertexFormat) Offset(e VertexElement) int {
	if off, ok := f.offsets[e]; ok {
		return off
	}
	return -1
}

// String returns the format name.
func (f *VertexFormat) String() string { return f.name }
