// Package epd is the boundary to the physical e-paper panel. The pipeline
// only depends on the Driver interface; the SPI transport lives behind it.
package epd

import (
	"errors"
	"image"
)

// ErrDriverUnavailable is returned when hardware rendering is requested
// but the panel transport cannot be reached.
var ErrDriverUnavailable = errors.New("display driver unavailable")

// Driver renders palette-indexed buffers on a panel. Close releases the
// underlying transport and must be called on every exit path, including
// after a failed Render, so the next invocation can reacquire the bus.
type Driver interface {
	Render(buf *image.Paletted) error
	Close() error
}

// Memory is an in-process Driver that records rendered buffers. It backs
// tests and dry runs that must not touch hardware.
type Memory struct {
	Renders int
	Last    *image.Paletted
}

// Render records the buffer.
func (m *Memory) Render(buf *image.Paletted) error {
	m.Renders++
	m.Last = buf
	return nil
}

// Close is a no-op.
func (m *Memory) Close() error { return nil }

// Rotate90 returns buf rotated a quarter turn counter-clockwise,
// preserving palette indexes. Panels are wired in landscape, so portrait
// buffers are rotated before transfer.
func Rotate90(buf *image.Paletted) *image.Paletted {
	b := buf.Bounds()
	srcW, srcH := b.Dx(), b.Dy()

	out := image.NewPaletted(image.Rect(0, 0, srcH, srcW), buf.Palette)
	for y := 0; y < srcW; y++ {
		for x := 0; x < srcH; x++ {
			idx := buf.ColorIndexAt(b.Min.X+srcW-1-y, b.Min.Y+x)
			out.SetColorIndex(x, y, idx)
		}
	}
	return out
}
