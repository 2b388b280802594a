package texture

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"path"
	"strings"

	"golang.org/x/image/bmp"
)

// Decode decodes texture data based on the file extension of name.
// BMP textures get the RO magenta colour key applied.
func Decode(name string, data []byte) (*image.RGBA, error) {
	switch ext := strings.ToLower(path.Ext(name)); ext {
	case ".tga":
		img, err := DecodeTGA(data)
		if err != nil {
			return nil, fmt.Errorf("decoding %s: %w", name, err)
		}
		return ToRGBA(img, false), nil
	case ".bmp":
		img, err := bmp.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("decoding %s: %w", name, err)
		}
		return ToRGBA(img, true), nil
	case ".png":
		img, err := png.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("decoding %s: %w", name, err)
		}
		return ToRGBA(img, false), nil
	default:
		return nil, fmt.Errorf("unsupported texture format %q for %s", ext, name)
	}
}

// Extensions lists the texture file extensions Decode accepts, in lookup order.
var Extensions = []string{".png", ".bmp", ".tga"}
