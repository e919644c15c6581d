// Package saliency scores visual interest across an image so croppers can
// keep the subject in frame. The score combines local gradient magnitude
// with local luminance variance, favouring edges and high-frequency detail
// over flat background.
package saliency

import (
	"image"
	"math"

	"github.com/disintegration/imaging"
	xdraw "golang.org/x/image/draw"
)

// Config holds the scoring weights and working limits.
type Config struct {
	// EdgeWeight scales the neighbour gradient response.
	EdgeWeight float64
	// VarianceWeight scales the local luminance variance response.
	VarianceWeight float64
	// VarianceRadius is the half-size of the variance window, in pixels.
	VarianceRadius int
	// SmoothRadius is the half-size of the box filter applied to the raw
	// score, so a single hard edge does not dominate the crop search.
	SmoothRadius int
	// WorkingSize bounds the longest side the map is computed at. Larger
	// sources are downscaled first; this only bounds computation, the
	// map still addresses the full source through its scale factors.
	WorkingSize int
}

// DefaultConfig returns the scoring configuration used by the pipeline.
func DefaultConfig() Config {
	return Config{
		EdgeWeight:     0.6,
		VarianceWeight: 0.4,
		VarianceRadius: 2,
		SmoothRadius:   16,
		WorkingSize:    512,
	}
}

// minSignal is the smallest raw score maximum treated as real signal.
// The summed-area tables accumulate sums around 1e8, so their window
// differences carry noise a few orders of magnitude above machine
// epsilon on perfectly flat images.
const minSignal = 1e-6

// Map is a per-pixel interest field over a (possibly downscaled) source
// image, normalized to [0,1], with a summed-area table for O(1) window
// sums.
type Map struct {
	width  int
	height int
	srcW   int
	srcH   int
	vals   []float64
	sat    []float64
	total  float64
}

// Compute builds a saliency map for img with the default configuration.
func Compute(img image.Image) *Map {
	return ComputeWithConfig(img, DefaultConfig())
}

// ComputeWithConfig builds a saliency map for img. The result is fully
// determined by the image pixels and the configuration.
func ComputeWithConfig(img image.Image, cfg Config) *Map {
	srcW := img.Bounds().Dx()
	srcH := img.Bounds().Dy()

	nrgba := imaging.Clone(img)
	if cfg.WorkingSize > 0 && (srcW > cfg.WorkingSize || srcH > cfg.WorkingSize) {
		w, h := srcW, srcH
		if w >= h {
			h = h * cfg.WorkingSize / w
			w = cfg.WorkingSize
		} else {
			w = w * cfg.WorkingSize / h
			h = cfg.WorkingSize
		}
		if w < 1 {
			w = 1
		}
		if h < 1 {
			h = 1
		}
		scaled := image.NewNRGBA(image.Rect(0, 0, w, h))
		xdraw.BiLinear.Scale(scaled, scaled.Bounds(), nrgba, nrgba.Bounds(), xdraw.Src, nil)
		nrgba = scaled
	}

	w := nrgba.Bounds().Dx()
	h := nrgba.Bounds().Dy()

	m := &Map{width: w, height: h, srcW: srcW, srcH: srcH}

	lum := luminance(nrgba)
	edge := edgeResponse(nrgba)
	variance := varianceResponse(lum, w, h, cfg.VarianceRadius)

	raw := make([]float64, w*h)
	for i := range raw {
		raw[i] = cfg.EdgeWeight*edge[i] + cfg.VarianceWeight*variance[i]
	}
	if cfg.SmoothRadius > 0 {
		raw = boxFilter(raw, w, h, cfg.SmoothRadius)
	}

	maxScore := 0.0
	for i, v := range raw {
		if v < 0 {
			// summed-area cancellation can leave tiny negatives
			raw[i] = 0
			continue
		}
		if v > maxScore {
			maxScore = v
		}
	}
	// a maximum this small is cancellation noise, not signal; leave the
	// map empty rather than normalizing noise into a full-scale score
	if maxScore < minSignal {
		for i := range raw {
			raw[i] = 0
		}
	} else {
		for i := range raw {
			raw[i] /= maxScore
		}
	}
	m.vals = raw

	m.sat = integrate(raw, w, h)
	m.total = m.sat[(h+1)*(w+1)-1]

	return m
}

// Width returns the map width in map pixels.
func (m *Map) Width() int { return m.width }

// Height returns the map height in map pixels.
func (m *Map) Height() int { return m.height }

// ScaleX returns map pixels per source pixel horizontally.
func (m *Map) ScaleX() float64 { return float64(m.width) / float64(m.srcW) }

// ScaleY returns map pixels per source pixel vertically.
func (m *Map) ScaleY() float64 { return float64(m.height) / float64(m.srcH) }

// At returns the normalized score at a map coordinate.
func (m *Map) At(x, y int) float64 {
	if x < 0 || y < 0 || x >= m.width || y >= m.height {
		return 0
	}
	return m.vals[y*m.width+x]
}

// Sum returns the total score within the half-open map-space window
// [x0,x1)x[y0,y1), clipped to the map bounds.
func (m *Map) Sum(x0, y0, x1, y1 int) float64 {
	x0 = clampInt(x0, 0, m.width)
	x1 = clampInt(x1, 0, m.width)
	y0 = clampInt(y0, 0, m.height)
	y1 = clampInt(y1, 0, m.height)
	if x1 <= x0 || y1 <= y0 {
		return 0
	}
	stride := m.width + 1
	return m.sat[y1*stride+x1] - m.sat[y0*stride+x1] - m.sat[y1*stride+x0] + m.sat[y0*stride+x0]
}

// Degenerate reports whether the map carries no usable signal, e.g. for a
// uniform image. Callers fall back to a centered crop in that case.
func (m *Map) Degenerate() bool {
	return m.total < 1e-9
}

func luminance(img *image.NRGBA) []float64 {
	w := img.Bounds().Dx()
	h := img.Bounds().Dy()
	lum := make([]float64, w*h)
	for y := 0; y < h; y++ {
		i := y * img.Stride
		for x := 0; x < w; x++ {
			s := img.Pix[i : i+3 : i+3]
			lum[y*w+x] = 0.299*float64(s[0]) + 0.587*float64(s[1]) + 0.114*float64(s[2])
			i += 4
		}
	}
	return lum
}

// edgeResponse measures color difference against the 8 neighbours of each
// pixel, normalized so a hard black/white edge scores 1.
func edgeResponse(img *image.NRGBA) []float64 {
	w := img.Bounds().Dx()
	h := img.Bounds().Dy()
	out := make([]float64, w*h)

	// max euclidean RGB distance, times 8 neighbours
	norm := 8.0 * math.Sqrt(3.0) * 255.0

	neighbors := [8][2]int{{-1, -1}, {-1, 0}, {-1, 1}, {0, -1}, {0, 1}, {1, -1}, {1, 0}, {1, 1}}
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			i := y*img.Stride + x*4
			s := img.Pix[i : i+3 : i+3]

			var strength float64
			for _, off := range neighbors {
				j := (y+off[1])*img.Stride + (x+off[0])*4
				n := img.Pix[j : j+3 : j+3]

				dr := float64(s[0]) - float64(n[0])
				dg := float64(s[1]) - float64(n[1])
				db := float64(s[2]) - float64(n[2])
				strength += math.Sqrt(dr*dr + dg*dg + db*db)
			}
			out[y*w+x] = strength / norm
		}
	}
	return out
}

// varianceResponse computes windowed luminance variance using integral
// images of the luminance and its square.
func varianceResponse(lum []float64, w, h, radius int) []float64 {
	out := make([]float64, w*h)
	if radius <= 0 {
		return out
	}

	sq := make([]float64, len(lum))
	for i, v := range lum {
		sq[i] = v * v
	}
	satL := integrate(lum, w, h)
	satSq := integrate(sq, w, h)
	stride := w + 1

	window := func(sat []float64, x0, y0, x1, y1 int) float64 {
		return sat[y1*stride+x1] - sat[y0*stride+x1] - sat[y1*stride+x0] + sat[y0*stride+x0]
	}

	for y := 0; y < h; y++ {
		y0 := clampInt(y-radius, 0, h)
		y1 := clampInt(y+radius+1, 0, h)
		for x := 0; x < w; x++ {
			x0 := clampInt(x-radius, 0, w)
			x1 := clampInt(x+radius+1, 0, w)
			n := float64((x1 - x0) * (y1 - y0))

			mean := window(satL, x0, y0, x1, y1) / n
			meanSq := window(satSq, x0, y0, x1, y1) / n
			v := meanSq - mean*mean
			// flat windows cancel to noise, not to exactly zero
			if v < 1e-4 {
				v = 0
			}
			// normalize by the maximum possible std deviation (127.5)
			out[y*w+x] = math.Sqrt(v) / 127.5
		}
	}
	return out
}

// boxFilter smooths vals with a (2r+1)-sided box filter via a summed-area
// table, clipping the window at the borders.
func boxFilter(vals []float64, w, h, radius int) []float64 {
	sat := integrate(vals, w, h)
	stride := w + 1
	out := make([]float64, len(vals))

	for y := 0; y < h; y++ {
		y0 := clampInt(y-radius, 0, h)
		y1 := clampInt(y+radius+1, 0, h)
		for x := 0; x < w; x++ {
			x0 := clampInt(x-radius, 0, w)
			x1 := clampInt(x+radius+1, 0, w)
			sum := sat[y1*stride+x1] - sat[y0*stride+x1] - sat[y1*stride+x0] + sat[y0*stride+x0]
			out[y*w+x] = sum / float64((x1-x0)*(y1-y0))
		}
	}
	return out
}

// integrate builds a (w+1)x(h+1) summed-area table over vals.
func integrate(vals []float64, w, h int) []float64 {
	stride := w + 1
	sat := make([]float64, stride*(h+1))
	for y := 0; y < h; y++ {
		var rowSum float64
		for x := 0; x < w; x++ {
			rowSum += vals[y*w+x]
			sat[(y+1)*stride+x+1] = sat[y*stride+x+1] + rowSum
		}
	}
	return sat
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
