// Package texture provides image decoding, sprites and the sprite atlas used
// as the default texture source while baking models.
package texture

import (
	"errors"
	"fmt"
	"image"
	"image/color"
)

// TGA image type constants.
const (
	TGATypeUncompressed = 2  // Uncompressed true-color
	TGATypeRLE          = 10 // RLE compressed true-color
)

// ErrTruncatedTGA is returned when pixel data ends early.
var ErrTruncatedTGA = errors.New("TGA data truncated")

// DecodeTGA decodes uncompressed (type 2) and RLE (type 10) true-color TGA
// images with 24 or 32 bits per pixel.
func DecodeTGA(data []byte) (image.Image, error) {
	if len(data) < 18 {
		return nil, ErrTruncatedTGA
	}

	idLength := int(data[0])
	colorMapType := data[1]
	imageType := data[2]
	width := int(data[12]) | int(data[13])<<8
	height := int(data[14]) | int(data[15])<<8
	bpp := int(data[16])
	descriptor := data[17]

	if colorMapType != 0 {
		return nil, fmt.Errorf("color-mapped TGA not supported")
	}
	if imageType != TGATypeUncompressed && imageType != TGATypeRLE {
		return nil, fmt.Errorf("unsupported TGA type %d", imageType)
	}
	if bpp != 24 && bpp != 32 {
		return nil, fmt.Errorf("unsupported TGA bit depth %d", bpp)
	}

	offset := 18 + idLength
	if offset > len(data) {
		return nil, ErrTruncatedTGA
	}

	px := tgaPixels{
		img:         image.NewRGBA(image.Rect(0, 0, width, height)),
		src:         data[offset:],
		width:       width,
		height:      height,
		stride:      bpp / 8,
		topToBottom: descriptor&0x20 != 0,
	}

	if imageType == TGATypeUncompressed {
		if len(px.src) < width*height*px.stride {
			return nil, ErrTruncatedTGA
		}
		for i := 0; i < width*height; i++ {
			px.put(i, px.read())
		}
		return px.img, nil
	}

	px.decodeRLE()
	return px.img, nil
}

// tgaPixels walks BGR(A) source data and writes into an RGBA image.
type tgaPixels struct {
	img         *image.RGBA
	src         []byte
	pos         int
	width       int
	height      int
	stride      int
	topToBottom bool
}

func (p *tgaPixels) remaining() int { return len(p.src) - p.pos }

func (p *tgaPixels) read() color.RGBA {
	s := p.src[p.pos:]
	c := color.RGBA{R: s[2], G: s[1], B: s[0], A: 255}
	if p.stride == 4 {
		c.A = s[3]
	}
	p.pos += p.stride
	return c
}

func (p *tgaPixels) put(i int, c color.RGBA) {
	x, y := i%p.width, i/p.width
	if !p.topToBottom {
		y = p.height - 1 - y
	}
	p.img.SetRGBA(x, y, c)
}

// decodeRLE stops quietly at the end of the source, leaving the rest of
// the image transparent.
func (p *tgaPixels) decodeRLE() {
	total := p.width * p.height
	i := 0
	for i < total && p.remaining() > 0 {
		packet := p.src[p.pos]
		p.pos++
		count := int(packet&0x7F) + 1

		if packet&0x80 != 0 {
			if p.remaining() < p.stride {
				return
			}
			c := p.read()
			for n := 0; n < count && i < total; n++ {
				p.put(i, c)
				i++
			}
			continue
		}

		for n := 0; n < count && i < total; n++ {
			if p.remaining() < p.stride {
				return
			}
			p.put(i, p.read())
			i++
		}
	}
}

// IsMagentaKey checks if an RGB color matches the RO magenta transparency key.
// Uses tolerance (R >= 250, G <= 10, B >= 250) to handle BMP decoding variations.
func IsMagentaKey(r, g, b uint8) bool {
	return r >= 250 && g <= 10 && b >= 250
}

// ToRGBA converts any image to *image.RGBA, optionally turning magenta
// key pixels into transparent black. An *image.RGBA input is keyed in place.
func ToRGBA(img image.Image, magentaKey bool) *image.RGBA {
	bounds := img.Bounds()
	rgba, ok := img.(*image.RGBA)
	if !ok {
		rgba = image.NewRGBA(bounds)
		for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
			for x := bounds.Min.X; x < bounds.Max.X; x++ {
				rgba.Set(x, y, img.At(x, y))
			}
		}
	}
	if !magentaKey {
		return rgba
	}

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			i := rgba.PixOffset(x, y)
			if IsMagentaKey(rgba.Pix[i], rgba.Pix[i+1], rgba.Pix[i+2]) {
				rgba.Pix[i], rgba.Pix[i+1], rgba.Pix[i+2], rgba.Pix[i+3] = 0, 0, 0, 0
			}
		}
	}
	return rgba
}
