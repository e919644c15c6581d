package palette

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/menta2k/eink-frame/pkg/display"
)

func createGradientImage(width, height int) image.Image {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.NRGBA{uint8(x * 255 / width), uint8(y * 255 / height), 96, 255})
		}
	}
	return img
}

func panelPalette(t *testing.T) color.Palette {
	t.Helper()
	pal, err := display.PaletteFor("epd7in3f")
	if err != nil {
		t.Fatalf("PaletteFor failed: %v", err)
	}
	return pal
}

func TestQuantizeAllPixelsLegal(t *testing.T) {
	pal := panelPalette(t)
	img := createGradientImage(120, 80)

	for _, dither := range []bool{false, true} {
		buf, err := Quantize(img, pal, dither)
		if err != nil {
			t.Fatalf("Quantize(dither=%v) failed: %v", dither, err)
		}
		if buf.Bounds().Dx() != 120 || buf.Bounds().Dy() != 80 {
			t.Errorf("buffer = %dx%d, want 120x80", buf.Bounds().Dx(), buf.Bounds().Dy())
		}
		if err := Validate(buf); err != nil {
			t.Errorf("Validate(dither=%v) failed: %v", dither, err)
		}
	}
}

func TestQuantizeRoundTrip(t *testing.T) {
	pal := panelPalette(t)
	buf, err := Quantize(createGradientImage(64, 64), pal, false)
	if err != nil {
		t.Fatalf("Quantize failed: %v", err)
	}

	// every output color must be present in the palette
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			c := buf.At(x, y)
			if pal[pal.Index(c)] != pal.Convert(c) {
				t.Fatalf("pixel (%d, %d) color %v not stable under palette lookup", x, y, c)
			}
		}
	}
}

func TestQuantizeExactColorsUndithered(t *testing.T) {
	pal := panelPalette(t)

	// an image built entirely of palette colors must quantize losslessly
	img := image.NewNRGBA(image.Rect(0, 0, len(pal), 1))
	for i, c := range pal {
		img.Set(i, 0, c)
	}

	buf, err := Quantize(img, pal, false)
	if err != nil {
		t.Fatalf("Quantize failed: %v", err)
	}
	for i := range pal {
		r0, g0, b0, _ := pal[i].RGBA()
		r1, g1, b1, _ := buf.At(i, 0).RGBA()
		if r0 != r1 || g0 != g1 || b0 != b1 {
			t.Errorf("palette color %d changed under quantization", i)
		}
	}
}

func TestQuantizeDeterministic(t *testing.T) {
	pal := panelPalette(t)
	img := createGradientImage(200, 150)

	for _, dither := range []bool{false, true} {
		a, err := Quantize(img, pal, dither)
		if err != nil {
			t.Fatalf("Quantize failed: %v", err)
		}
		b, err := Quantize(img, pal, dither)
		if err != nil {
			t.Fatalf("Quantize failed: %v", err)
		}
		if !bytes.Equal(a.Pix, b.Pix) {
			t.Errorf("dither=%v: two runs produced different buffers", dither)
		}
	}
}

func TestQuantizeOffsetBounds(t *testing.T) {
	pal := panelPalette(t)

	// sub-images have non-zero minimum bounds; output is re-anchored
	img := createGradientImage(100, 100).(*image.NRGBA).SubImage(image.Rect(20, 30, 80, 90))
	buf, err := Quantize(img, pal, false)
	if err != nil {
		t.Fatalf("Quantize failed: %v", err)
	}
	if buf.Bounds() != image.Rect(0, 0, 60, 60) {
		t.Errorf("buffer bounds = %v, want (0,0)-(60,60)", buf.Bounds())
	}
}

func TestQuantizeEmptyPalette(t *testing.T) {
	if _, err := Quantize(createGradientImage(10, 10), color.Palette{}, false); !errors.Is(err, ErrEmptyPalette) {
		t.Errorf("expected ErrEmptyPalette, got %v", err)
	}
}
