// Package cropper selects the sub-rectangle of a source image that best
// fills a target frame. Three strategies are supported: a saliency-guided
// crop that keeps the most interesting region in frame, a plain centered
// crop, and a resize-only mode that skips cropping entirely.
package cropper

import (
	"image"

	"github.com/menta2k/eink-frame/pkg/display"
	"github.com/menta2k/eink-frame/pkg/saliency"
)

// Strategy identifies how a source image is adapted to the frame aspect.
type Strategy int

const (
	// StrategySaliency crops to the window with the highest saliency sum.
	StrategySaliency Strategy = iota
	// StrategyCenter crops the centered window.
	StrategyCenter
	// StrategyResize stretches the whole source, ignoring aspect ratio.
	StrategyResize
)

func (s Strategy) String() string {
	switch s {
	case StrategyCenter:
		return "center"
	case StrategyResize:
		return "resize"
	default:
		return "saliency"
	}
}

// Select picks the active strategy from the two CLI flags. Resize-only
// wins over center crop, which wins over the saliency default.
func Select(resizeOnly, centerCrop bool) Strategy {
	switch {
	case resizeOnly:
		return StrategyResize
	case centerCrop:
		return StrategyCenter
	default:
		return StrategySaliency
	}
}

// Rect is a crop window in source image pixel coordinates. Its aspect
// ratio matches the target frame within one pixel of rounding.
type Rect struct {
	X int
	Y int
	W int
	H int
}

// Bounds returns the window as an image.Rectangle.
func (r Rect) Bounds() image.Rectangle {
	return image.Rect(r.X, r.Y, r.X+r.W, r.Y+r.H)
}

// Hint is a normalized subject center, typically supplied by a vision
// model, that pulls the saliency crop toward the detected subject.
type Hint struct {
	CX float64
	CY float64
}

// coverSize computes the largest window of the target aspect ratio that
// fits inside the source. One axis always spans the full source.
func coverSize(srcW, srcH int, g display.Geometry) (int, int) {
	aspect := g.AspectRatio()
	srcAspect := float64(srcW) / float64(srcH)

	if srcAspect > aspect {
		// source is wider than the frame: full height, slide horizontally
		w := int(float64(srcH)*aspect + 0.5)
		if w > srcW {
			w = srcW
		}
		if w < 1 {
			w = 1
		}
		return w, srcH
	}

	// source is taller (or equal): full width, slide vertically
	h := int(float64(srcW)/aspect + 0.5)
	if h > srcH {
		h = srcH
	}
	if h < 1 {
		h = 1
	}
	return srcW, h
}

// CenterRect returns the centered window of the target aspect ratio.
func CenterRect(img image.Image, g display.Geometry) Rect {
	srcW := img.Bounds().Dx()
	srcH := img.Bounds().Dy()
	if srcW == 0 || srcH == 0 {
		return Rect{}
	}

	w, h := coverSize(srcW, srcH, g)
	return Rect{X: (srcW - w) / 2, Y: (srcH - h) / 2, W: w, H: h}
}

// SaliencyRect returns the window of the target aspect ratio with the
// highest enclosed saliency, ties broken toward the image center. A
// degenerate saliency map falls back to the centered window.
func SaliencyRect(img image.Image, g display.Geometry) Rect {
	return SaliencyRectWithHint(img, g, nil)
}

// SaliencyRectWithHint behaves like SaliencyRect, but when hint is set the
// window is centered on the hinted subject instead, clamped to the source
// bounds.
func SaliencyRectWithHint(img image.Image, g display.Geometry, hint *Hint) Rect {
	srcW := img.Bounds().Dx()
	srcH := img.Bounds().Dy()
	if srcW == 0 || srcH == 0 {
		return Rect{}
	}

	w, h := coverSize(srcW, srcH, g)
	if w == srcW && h == srcH {
		// source already matches the frame aspect, nothing to search
		return Rect{W: w, H: h}
	}

	if hint != nil {
		x := clampInt(int(hint.CX*float64(srcW)+0.5)-w/2, 0, srcW-w)
		y := clampInt(int(hint.CY*float64(srcH)+0.5)-h/2, 0, srcH-h)
		return Rect{X: x, Y: y, W: w, H: h}
	}

	m := saliency.Compute(img)
	if m.Degenerate() {
		return CenterRect(img, g)
	}

	if h == srcH {
		x := searchOffset(m, w, srcW, true)
		return Rect{X: x, W: w, H: h}
	}
	y := searchOffset(m, h, srcH, false)
	return Rect{Y: y, W: w, H: h}
}

// searchOffset slides a full-extent window along one axis of the saliency
// map and returns the best offset in source coordinates.
func searchOffset(m *saliency.Map, span, srcSpan int, horizontal bool) int {
	var scale float64
	var mapSpan int
	if horizontal {
		scale = m.ScaleX()
		mapSpan = m.Width()
	} else {
		scale = m.ScaleY()
		mapSpan = m.Height()
	}

	window := int(float64(span)*scale + 0.5)
	if window < 1 {
		window = 1
	}
	if window > mapSpan {
		window = mapSpan
	}

	center := float64(mapSpan-window) / 2
	bestOffset := 0
	bestSum := -1.0
	bestDist := 0.0

	const eps = 1e-9
	for off := 0; off <= mapSpan-window; off++ {
		var sum float64
		if horizontal {
			sum = m.Sum(off, 0, off+window, m.Height())
		} else {
			sum = m.Sum(0, off, m.Width(), off+window)
		}

		dist := float64(off) - center
		if dist < 0 {
			dist = -dist
		}
		if sum > bestSum+eps || (sum > bestSum-eps && dist < bestDist) {
			bestOffset = off
			bestSum = sum
			bestDist = dist
		}
	}

	off := int(float64(bestOffset)/scale + 0.5)
	return clampInt(off, 0, srcSpan-span)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
