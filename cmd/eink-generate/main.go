// Command eink-generate produces a fresh frame image: it combines prompt
// fragments into a prompt and runs the stable-diffusion binary, leaving
// the result in the output directory for the display step to pick up.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/menta2k/eink-frame/internal/config"
	"github.com/menta2k/eink-frame/internal/utils"
	"github.com/menta2k/eink-frame/pkg/generate"
	"github.com/menta2k/eink-frame/pkg/prompt"
)

// sharedName is the fixed name the newest image is copied to, so the
// display step always finds the latest frame at the same path.
const sharedName = "output.png"

var (
	promptsFile  string
	customPrompt string
	seed         int
	steps        int
	width        int
	height       int
	sdPath       string
	modelDir     string
	configPath   string
)

func init() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [options] output_dir\n", filepath.Base(os.Args[0]))
		flag.PrintDefaults()
	}

	flag.StringVar(&promptsFile, "prompts", "prompts/flowers.json", "prompt fragment file to use")
	flag.StringVar(&customPrompt, "prompt", "", "prompt to use (overrides the prompt file)")
	flag.IntVar(&seed, "seed", 0, "seed for image generation (0 picks one at random)")
	flag.IntVar(&steps, "steps", 3, "number of inference steps")
	flag.IntVar(&width, "width", 480, "generated image width")
	flag.IntVar(&height, "height", 800, "generated image height")
	flag.StringVar(&sdPath, "sd", "OnnxStream/src/build/sd", "stable diffusion executable path")
	flag.StringVar(&modelDir, "model", "models/stable-diffusion-xl-turbo-1.0-anyshape-onnxstream", "stable diffusion model directory")
	flag.StringVar(&configPath, "config", "", "path to a JSON config file")
}

func main() {
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(1)
	}
	outputDir := flag.Arg(0)

	applyConfig()

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	if seed == 0 {
		seed = rng.Intn(10000) + 1
	}

	if err := utils.EnsureDir(outputDir); err != nil {
		log.Fatalf("failed to create output directory: %v", err)
	}

	text := customPrompt
	if text == "" {
		sets, err := prompt.Load(promptsFile)
		if err != nil {
			log.Fatal(err)
		}
		text = prompt.Build(sets, rng)
	}

	name := utils.SanitizeFilename(strings.ReplaceAll(text, " ", "_"))
	outputPath := filepath.Join(outputDir, fmt.Sprintf("%s_seed_%d_steps_%d.png", name, seed, steps))

	log.Printf("prompt: %q", text)
	log.Printf("seed: %d", seed)
	log.Printf("output: %s", outputPath)

	gen := &generate.Generator{
		Binary:   sdPath,
		ModelDir: modelDir,
		Stdout:   os.Stdout,
		Stderr:   os.Stderr,
	}
	err := gen.Generate(context.Background(), generate.Request{
		Prompt:     text,
		Seed:       seed,
		Steps:      steps,
		Width:      width,
		Height:     height,
		OutputPath: outputPath,
	})
	if err != nil {
		log.Fatal(err)
	}

	shared := filepath.Join(outputDir, sharedName)
	if err := copyFile(outputPath, shared); err != nil {
		log.Fatalf("failed to copy to %s: %v", shared, err)
	}
	log.Printf("copied to %s", shared)
}

// applyConfig seeds defaults from the config file for flags the user did
// not set explicitly.
func applyConfig() {
	if configPath == "" {
		return
	}

	cfg, err := config.LoadFromFile(configPath)
	if err != nil {
		log.Fatal(err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}

	set := map[string]bool{}
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })

	if !set["prompts"] {
		promptsFile = cfg.Prompts.File
	}
	if !set["steps"] {
		steps = cfg.Generator.Steps
	}
	if !set["sd"] {
		sdPath = cfg.Generator.Binary
	}
	if !set["model"] {
		modelDir = cfg.Generator.ModelDir
	}
	if !set["width"] {
		width = cfg.Display.Width
	}
	if !set["height"] {
		height = cfg.Display.Height
	}
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}
