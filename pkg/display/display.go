// Package display describes the target e-paper panel: its resolution,
// orientation and the fixed color palette it can physically render.
package display

import (
	"errors"
	"fmt"
	"image/color"
	"sort"
)

// ErrInvalidGeometry is returned when a requested frame size is not positive.
var ErrInvalidGeometry = errors.New("invalid display geometry")

// ErrUnknownPanel is returned when no panel is registered under a model name.
var ErrUnknownPanel = errors.New("unknown panel model")

// Orientation of the mounted frame.
type Orientation int

const (
	Landscape Orientation = iota
	Portrait
)

func (o Orientation) String() string {
	if o == Portrait {
		return "portrait"
	}
	return "landscape"
}

// Geometry is the normalized target frame size. After Resolve the
// width/height always agree with the orientation: portrait frames have
// Width <= Height, landscape frames Width >= Height.
type Geometry struct {
	Width       int
	Height      int
	Orientation Orientation
}

// AspectRatio returns Width/Height.
func (g Geometry) AspectRatio() float64 {
	return float64(g.Width) / float64(g.Height)
}

// Resolve normalizes a requested frame size against an orientation flag.
// When the requested dimensions contradict the orientation they are
// swapped, so Resolve(w, h, portrait) and Resolve(h, w, landscape)
// describe the same physical frame.
func Resolve(width, height int, portrait bool) (Geometry, error) {
	if width <= 0 || height <= 0 {
		return Geometry{}, fmt.Errorf("%w: %dx%d", ErrInvalidGeometry, width, height)
	}

	g := Geometry{Width: width, Height: height, Orientation: Landscape}
	if portrait {
		g.Orientation = Portrait
	}

	if portrait && width > height || !portrait && width < height {
		g.Width, g.Height = g.Height, g.Width
	}

	return g, nil
}

// Panel is a supported e-paper display model.
type Panel struct {
	Name    string
	Width   int
	Height  int
	Palette color.Palette
}

// Geometry returns the panel's native (landscape) geometry.
func (p Panel) Geometry() Geometry {
	return Geometry{Width: p.Width, Height: p.Height, Orientation: Landscape}
}

// Saturated ACeP palettes as shipped in the vendor drivers. The panel
// hardware maps palette indexes, not colors, so the entries and their
// order must match the driver exactly.
var (
	// 7-color ACeP panels (black, white, green, blue, red, yellow, orange).
	acep7 = color.Palette{
		color.NRGBA{0x00, 0x00, 0x00, 0xff},
		color.NRGBA{0xff, 0xff, 0xff, 0xff},
		color.NRGBA{0x00, 0xff, 0x00, 0xff},
		color.NRGBA{0x00, 0x00, 0xff, 0xff},
		color.NRGBA{0xff, 0x00, 0x00, 0xff},
		color.NRGBA{0xff, 0xff, 0x00, 0xff},
		color.NRGBA{0xff, 0x80, 0x00, 0xff},
	}

	// Pimoroni Inky Impression saturated palette for the same panel family.
	inkySaturated = color.Palette{
		color.NRGBA{0x00, 0x00, 0x00, 0xff},
		color.NRGBA{0xd9, 0xf2, 0xff, 0xff},
		color.NRGBA{0x03, 0x7c, 0x4c, 0xff},
		color.NRGBA{0x1b, 0x2e, 0xc6, 0xff},
		color.NRGBA{0xf5, 0x50, 0x22, 0xff},
		color.NRGBA{0xff, 0xff, 0x44, 0xff},
		color.NRGBA{0xef, 0x79, 0x2c, 0xff},
	}

	// 6-color Spectra panels (no orange).
	spectra6 = color.Palette{
		color.NRGBA{0x00, 0x00, 0x00, 0xff},
		color.NRGBA{0xff, 0xff, 0xff, 0xff},
		color.NRGBA{0xff, 0xff, 0x00, 0xff},
		color.NRGBA{0xff, 0x00, 0x00, 0xff},
		color.NRGBA{0x00, 0x00, 0xff, 0xff},
		color.NRGBA{0x00, 0xff, 0x00, 0xff},
	}
)

var panels = map[string]Panel{
	"epd7in3f":  {Name: "epd7in3f", Width: 800, Height: 480, Palette: acep7},
	"epd5in65f": {Name: "epd5in65f", Width: 600, Height: 448, Palette: acep7},
	"epd7in3e":  {Name: "epd7in3e", Width: 800, Height: 480, Palette: spectra6},
	"ac073tc1a": {Name: "ac073tc1a", Width: 800, Height: 480, Palette: inkySaturated},
}

// Lookup returns the panel registered under model.
func Lookup(model string) (Panel, error) {
	p, ok := panels[model]
	if !ok {
		return Panel{}, fmt.Errorf("%w: %q", ErrUnknownPanel, model)
	}
	return p, nil
}

// PaletteFor returns the color palette of a panel model.
func PaletteFor(model string) (color.Palette, error) {
	p, err := Lookup(model)
	if err != nil {
		return nil, err
	}
	return p.Palette, nil
}

// Models lists the registered panel model names in sorted order.
func Models() []string {
	names := make([]string, 0, len(panels))
	for name := range panels {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
