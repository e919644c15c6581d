// Package generate runs the external stable-diffusion binary that paints
// the raw frame images. The inference engine is a pre-built black box; the
// pipeline only cares that an image file appears at the requested path.
package generate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
)

// ErrGeneration is returned when the inference binary exits non-zero or
// produces no output file. Generation is never retried here: re-invoking
// a generative model changes its output, so retries are a caller decision.
var ErrGeneration = errors.New("image generation failed")

// Generator invokes an OnnxStream stable-diffusion build.
type Generator struct {
	// Binary is the path of the sd executable.
	Binary string
	// ModelDir is the directory holding the model weights.
	ModelDir string
	// Stdout and Stderr receive the binary's progress output; nil
	// discards it.
	Stdout io.Writer
	Stderr io.Writer
}

// Request describes one image to generate.
type Request struct {
	Prompt     string
	Seed       int
	Steps      int
	Width      int
	Height     int
	OutputPath string
}

// Generate runs the binary and verifies the output file exists.
func (g *Generator) Generate(ctx context.Context, req Request) error {
	args := []string{
		"--xl", "--turbo",
		"--models-path", g.ModelDir,
		"--rpi-lowmem",
		"--prompt", req.Prompt,
		"--seed", strconv.Itoa(req.Seed),
		"--output", req.OutputPath,
		"--steps", strconv.Itoa(req.Steps),
		"--res", fmt.Sprintf("%dx%d", req.Width, req.Height),
	}

	cmd := exec.CommandContext(ctx, g.Binary, args...)
	cmd.Stdout = g.Stdout
	cmd.Stderr = g.Stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrGeneration, g.Binary, err)
	}

	if _, err := os.Stat(req.OutputPath); err != nil {
		return fmt.Errorf("%w: no output at %s", ErrGeneration, req.OutputPath)
	}
	return nil
}
