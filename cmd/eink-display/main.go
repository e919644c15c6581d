// Command eink-display adapts an image to the connected e-paper frame:
// it crops (saliency-guided by default), resamples, quantizes into the
// panel palette and either drives the display or writes a preview file.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand/v2"
	"os"
	"path/filepath"

	einkframe "github.com/menta2k/eink-frame"
	"github.com/menta2k/eink-frame/internal/config"
	"github.com/menta2k/eink-frame/internal/utils"
	"github.com/menta2k/eink-frame/pkg/subject"
)

var (
	output     string
	portrait   bool
	centreCrop bool
	resizeOnly bool
	simulate   bool
	width      int
	height     int
	epdModel   string
	dither     bool
	debug      bool
	configPath string

	visionBackend string
	visionURL     string
	visionModel   string
)

func init() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [options] image\n", filepath.Base(os.Args[0]))
		flag.PrintDefaults()
	}

	flag.StringVar(&output, "output", "", "path to save the processed image")
	flag.StringVar(&output, "o", "", "path to save the processed image (shorthand)")
	flag.BoolVar(&portrait, "portrait", false, "set to portrait mode")
	flag.BoolVar(&portrait, "p", false, "set to portrait mode (shorthand)")
	flag.BoolVar(&centreCrop, "centre_crop", false, "use center crop instead of intelligent crop")
	flag.BoolVar(&centreCrop, "c", false, "use center crop (shorthand)")
	flag.BoolVar(&resizeOnly, "resize_only", false, "simple resize to display dimensions ignoring aspect ratio")
	flag.BoolVar(&resizeOnly, "r", false, "simple resize (shorthand)")
	flag.BoolVar(&simulate, "simulate_display", false, "run without e-paper display interaction")
	flag.BoolVar(&simulate, "s", false, "run without display (shorthand)")
	flag.IntVar(&width, "width", 480, "display width")
	flag.IntVar(&height, "height", 800, "display height")
	flag.StringVar(&epdModel, "epd", "epd7in3f", "e-paper panel model to use")
	flag.BoolVar(&dither, "dither", false, "enable error-diffusion dithering")
	flag.BoolVar(&debug, "debug", false, "enable debug logging")
	flag.StringVar(&configPath, "config", "", "path to a JSON config file")

	flag.StringVar(&visionBackend, "vision-backend", "", "vision model backend for subject detection: ollama or llamacpp")
	flag.StringVar(&visionURL, "vision-url", "", "vision backend server URL")
	flag.StringVar(&visionModel, "vision-model", "openbmb/minicpm-v4.5", "vision model name")
}

func main() {
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(1)
	}

	applyConfig()

	imagePath, err := resolveImagePath(flag.Arg(0))
	if err != nil {
		log.Fatal(err)
	}
	debugf("using %s", imagePath)

	pipeline := einkframe.New()

	opts := einkframe.Options{
		Width:      width,
		Height:     height,
		Portrait:   portrait,
		CenterCrop: centreCrop,
		ResizeOnly: resizeOnly,
		Panel:      epdModel,
		Dither:     dither,
		Simulate:   simulate,
		OutputPath: output,
	}

	if visionBackend != "" {
		locator, err := newLocator()
		if err != nil {
			log.Fatalf("vision backend: %v", err)
		}
		opts.Locator = locator
	}

	result, err := pipeline.Process(context.Background(), imagePath, opts)
	if err != nil {
		log.Fatal(err)
	}

	log.Printf("adapted %s to %dx%d (%s) with the %s strategy",
		filepath.Base(imagePath), result.Geometry.Width, result.Geometry.Height,
		result.Geometry.Orientation, result.Strategy)
	if result.Rect != nil {
		debugf("crop rectangle %dx%d at (%d, %d)", result.Rect.W, result.Rect.H, result.Rect.X, result.Rect.Y)
	}
	if result.Rendered {
		log.Printf("rendered on %s", epdModel)
	}
	if result.PreviewPath != "" {
		log.Printf("wrote %s", result.PreviewPath)
	}
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

	if !set["width"] {
		width = cfg.Display.Width
	}
	if !set["height"] {
		height = cfg.Display.Height
	}
	if !set["epd"] {
		epdModel = cfg.Display.Model
	}
	if !set["portrait"] && !set["p"] {
		portrait = cfg.Display.Portrait
	}
	if !set["dither"] {
		dither = cfg.Display.Dither
	}
	if !set["vision-backend"] {
		visionBackend = cfg.Vision.Backend
	}
	if !set["vision-url"] {
		visionURL = cfg.Vision.URL
	}
	if !set["vision-model"] {
		visionModel = cfg.Vision.Model
	}
}

// resolveImagePath accepts a file, or a directory from which one image is
// picked at random.
func resolveImagePath(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	if !info.IsDir() {
		return path, nil
	}

	images, err := utils.ListImageFiles(path)
	if err != nil {
		return "", err
	}
	if len(images) == 0 {
		return "", fmt.Errorf("no image files in %s", path)
	}
	return images[rand.N(len(images))], nil
}

func newLocator() (*subject.Locator, error) {
	var client subject.Client
	var err error

	switch visionBackend {
	case "ollama":
		url := visionURL
		if url == "" {
			url = "http://localhost:11434"
		}
		client, err = subject.NewOllama(url)
	case "llamacpp":
		url := visionURL
		if url == "" {
			url = "http://localhost:8080"
		}
		client, err = subject.NewLlamaCpp(url)
	default:
		return nil, fmt.Errorf("unknown backend %q (use 'ollama' or 'llamacpp')", visionBackend)
	}
	if err != nil {
		return nil, err
	}
	return subject.NewLocator(client, visionModel), nil
}

func debugf(format string, args ...any) {
	if debug {
		log.Printf(format, args...)
	}
}
