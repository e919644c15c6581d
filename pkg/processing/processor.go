// Package processing handles image loading, resampling and saving for the
// frame pipeline.
package processing

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"

	"github.com/menta2k/eink-frame/pkg/cropper"
	"github.com/menta2k/eink-frame/pkg/display"
)

// ErrUnsupportedImage is returned when a source file cannot be decoded.
var ErrUnsupportedImage = errors.New("unsupported or unreadable image")

// ErrWrite is returned when an output image cannot be persisted.
var ErrWrite = errors.New("cannot write image")

// Processor performs the image processing steps of the pipeline.
type Processor struct {
	quality int
}

// NewProcessor creates a Processor with default JPEG/WebP quality.
func NewProcessor() *Processor {
	return &Processor{quality: 90}
}

// Load reads an image from disk. WebP sources are handled through an
// explicit fallback because not every build registers the decoder.
func (p *Processor) Load(path string) (image.Image, error) {
	if img, err := imaging.Open(path); err == nil {
		return img, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrUnsupportedImage, path, err)
	}
	defer f.Close()

	if img, err := webp.Decode(f); err == nil {
		return img, nil
	}
	if _, err := f.Seek(0, 0); err == nil {
		if img, _, err := image.Decode(f); err == nil {
			return img, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedImage, path)
}

// Resample extracts rect from img and scales it to the exact frame
// dimensions with a Lanczos filter. A nil rect means resize-only: the
// whole source is stretched to the frame, ignoring its aspect ratio.
func (p *Processor) Resample(img image.Image, rect *cropper.Rect, g display.Geometry) *image.NRGBA {
	src := img
	if rect != nil {
		src = imaging.Crop(img, rect.Bounds())
	}

	b := src.Bounds()
	if b.Dx() == g.Width && b.Dy() == g.Height {
		return imaging.Clone(src)
	}
	return imaging.Resize(src, g.Width, g.Height, imaging.Lanczos)
}

// Save writes img to path, choosing the encoder by file extension
// (png, jpg/jpeg or webp). Parent directories are created as needed.
func (p *Processor) Save(img image.Image, path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrWrite, path, err)
		}
	}

	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".webp":
		err = p.saveWebP(img, path)
	case ".jpg", ".jpeg":
		err = imaging.Save(img, path, imaging.JPEGQuality(p.quality))
	default:
		err = imaging.Save(img, path)
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrWrite, path, err)
	}
	return nil
}

func (p *Processor) saveWebP(img image.Image, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return webp.Encode(f, img, &webp.Options{Quality: float32(p.quality)})
}

// EncodeForModel downsizes img to maxDim on its long side and encodes it
// as base64 for transport to a vision model backend. A maxDim of 0 keeps
// the original resolution.
func (p *Processor) EncodeForModel(img image.Image, format string, maxDim, quality int) (string, error) {
	if maxDim > 0 {
		b := img.Bounds()
		if b.Dx() > maxDim || b.Dy() > maxDim {
			if b.Dx() >= b.Dy() {
				img = imaging.Resize(img, maxDim, 0, imaging.Lanczos)
			} else {
				img = imaging.Resize(img, 0, maxDim, imaging.Lanczos)
			}
		}
	}

	var buf bytes.Buffer
	switch strings.ToLower(format) {
	case "png":
		enc := png.Encoder{CompressionLevel: png.BestCompression}
		if err := enc.Encode(&buf, img); err != nil {
			return "", err
		}
	default: // jpg
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
			return "", err
		}
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
