// Package palette maps full-color images into the small fixed color set
// an e-paper panel can physically render.
package palette

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
)

// ErrEmptyPalette is returned when quantization is requested without any
// target colors.
var ErrEmptyPalette = errors.New("empty palette")

// Quantize maps every pixel of img to an index into pal. Without
// dithering each pixel takes its nearest palette entry; with dithering
// the quantization error is diffused to unprocessed neighbours in raster
// order (Floyd-Steinberg), which trades banding for grain on the panel's
// few colors. The result is deterministic for fixed inputs.
func Quantize(img image.Image, pal color.Palette, dither bool) (*image.Paletted, error) {
	if len(pal) == 0 {
		return nil, ErrEmptyPalette
	}

	b := img.Bounds()
	out := image.NewPaletted(image.Rect(0, 0, b.Dx(), b.Dy()), pal)

	if dither {
		draw.FloydSteinberg.Draw(out, out.Bounds(), img, b.Min)
	} else {
		draw.Draw(out, out.Bounds(), img, b.Min, draw.Src)
	}
	return out, nil
}

// Validate checks that every pixel of buf maps to a legal palette index.
func Validate(buf *image.Paletted) error {
	n := len(buf.Palette)
	if n == 0 {
		return ErrEmptyPalette
	}
	for i, idx := range buf.Pix {
		if int(idx) >= n {
			return fmt.Errorf("pixel %d holds index %d, palette has %d colors", i, idx, n)
		}
	}
	return nil
}
