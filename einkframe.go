// Package einkframe adapts arbitrary images to a color e-paper picture
// frame: it picks the crop that keeps the subject in view, resamples to
// the panel's exact resolution, quantizes into the panel's palette and
// hands the result to the display driver or writes a preview file.
//
// Basic usage:
//
//	package main
//
//	import (
//		"context"
//		"log"
//
//		einkframe "github.com/menta2k/eink-frame"
//	)
//
//	func main() {
//		pipeline := einkframe.New()
//
//		opts := einkframe.DefaultOptions()
//		opts.Portrait = true
//		opts.Simulate = true
//
//		result, err := pipeline.Process(context.Background(), "photo.jpg", opts)
//		if err != nil {
//			log.Fatal(err)
//		}
//		log.Printf("wrote %s using the %s strategy", result.PreviewPath, result.Strategy)
//	}
//
// The pipeline runs in five stages: geometry resolution (pkg/display),
// crop strategy selection and rectangle search (pkg/cropper with
// pkg/saliency), resampling (pkg/processing), palette quantization
// (pkg/palette) and output assembly (pkg/epd or a preview file). Each
// invocation owns its data; nothing is shared across calls except the
// static panel registry.
package einkframe

import (
	"context"
	"fmt"
	"image"

	"github.com/menta2k/eink-frame/internal/utils"
	"github.com/menta2k/eink-frame/pkg/cropper"
	"github.com/menta2k/eink-frame/pkg/display"
	"github.com/menta2k/eink-frame/pkg/epd"
	"github.com/menta2k/eink-frame/pkg/palette"
	"github.com/menta2k/eink-frame/pkg/processing"
	"github.com/menta2k/eink-frame/pkg/subject"
)

// Version of the eink-frame library
const Version = "1.0.0"

// Options control a single pipeline invocation.
type Options struct {
	// Width and Height are the requested frame dimensions; they are
	// normalized against Portrait before use.
	Width    int
	Height   int
	Portrait bool

	// CenterCrop and ResizeOnly pick the crop strategy; resize-only wins
	// over center crop, saliency crop is the default.
	CenterCrop bool
	ResizeOnly bool

	// Panel selects the e-paper model, which fixes the palette.
	Panel string
	// Dither enables error-diffusion dithering during quantization.
	Dither bool

	// Simulate skips the hardware entirely and writes a preview file.
	Simulate bool
	// OutputPath is where the preview is written. Empty means a default
	// path next to the source image (simulation), or no preview copy
	// (hardware mode).
	OutputPath string

	// Locator, when set, asks a vision model for the subject position
	// and biases the saliency crop toward it.
	Locator *subject.Locator
}

// DefaultOptions returns options for the stock 7.3" panel. Set Portrait
// for a vertically mounted frame.
func DefaultOptions() Options {
	return Options{Width: 480, Height: 800, Panel: "epd7in3f"}
}

// Result reports what a pipeline invocation produced.
type Result struct {
	Geometry    display.Geometry
	Strategy    cropper.Strategy
	Rect        *cropper.Rect
	Buffer      *image.Paletted
	PreviewPath string
	Rendered    bool
}

// Pipeline adapts images for the frame. The zero value is not usable;
// call New.
type Pipeline struct {
	processor *processing.Processor

	// OpenDriver connects to the panel hardware for a model. It exists
	// as a field so tests and dry runs can substitute a fake; nil means
	// no driver is configured and every invocation behaves as simulated.
	OpenDriver func(model string) (epd.Driver, error)
}

// New creates a Pipeline wired to the real display driver.
func New() *Pipeline {
	return &Pipeline{
		processor:  processing.NewProcessor(),
		OpenDriver: epd.Open,
	}
}

// Process runs the full adaptation pipeline for one image.
func (p *Pipeline) Process(ctx context.Context, imagePath string, opts Options) (*Result, error) {
	geom, err := display.Resolve(opts.Width, opts.Height, opts.Portrait)
	if err != nil {
		return nil, err
	}
	pal, err := display.PaletteFor(opts.Panel)
	if err != nil {
		return nil, err
	}

	img, err := p.processor.Load(imagePath)
	if err != nil {
		return nil, err
	}

	strategy := cropper.Select(opts.ResizeOnly, opts.CenterCrop)

	var rect *cropper.Rect
	switch strategy {
	case cropper.StrategyResize:
		// whole source, stretched
	case cropper.StrategyCenter:
		r := cropper.CenterRect(img, geom)
		rect = &r
	default:
		r := cropper.SaliencyRectWithHint(img, geom, p.subjectHint(ctx, img, opts))
		rect = &r
	}

	resampled := p.processor.Resample(img, rect, geom)

	buf, err := palette.Quantize(resampled, pal, opts.Dither)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Geometry: geom,
		Strategy: strategy,
		Rect:     rect,
		Buffer:   buf,
	}

	if opts.Simulate || p.OpenDriver == nil {
		path := opts.OutputPath
		if path == "" {
			path = utils.PreviewPath(imagePath)
		}
		if err := p.processor.Save(buf, path); err != nil {
			return nil, err
		}
		result.PreviewPath = path
		return result, nil
	}

	driver, err := p.OpenDriver(opts.Panel)
	if err != nil {
		return nil, err
	}
	// the bus must be released on every exit path, including a failed
	// transfer, or the next invocation cannot acquire it
	defer driver.Close()

	if err := driver.Render(buf); err != nil {
		return nil, fmt.Errorf("render on %s: %w", opts.Panel, err)
	}
	result.Rendered = true

	if opts.OutputPath != "" {
		if err := p.processor.Save(buf, opts.OutputPath); err != nil {
			return nil, err
		}
		result.PreviewPath = opts.OutputPath
	}
	return result, nil
}

// subjectHint asks the configured vision backend for the subject center.
// Any backend failure falls back to the built-in saliency search, which
// needs no hint.
func (p *Pipeline) subjectHint(ctx context.Context, img image.Image, opts Options) *cropper.Hint {
	if opts.Locator == nil {
		return nil
	}

	b64, err := p.processor.EncodeForModel(img, "jpg", 1536, 85)
	if err != nil {
		return nil
	}
	located, err := opts.Locator.Locate(ctx, b64)
	if err != nil {
		return nil
	}
	hint := located.Hint()
	return &hint
}
