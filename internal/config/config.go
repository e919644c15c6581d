// Package config holds the JSON application configuration shared by the
// frame tools.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/menta2k/eink-frame/pkg/display"
)

// Config holds the application configuration.
type Config struct {
	Display   DisplayConfig   `json:"display"`
	Generator GeneratorConfig `json:"generator"`
	Prompts   PromptConfig    `json:"prompts"`
	Vision    VisionConfig    `json:"vision"`
}

// DisplayConfig describes the connected panel and how images are adapted
// to it.
type DisplayConfig struct {
	Model    string `json:"model"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	Portrait bool   `json:"portrait"`
	Dither   bool   `json:"dither"`
}

// GeneratorConfig locates the stable-diffusion build.
type GeneratorConfig struct {
	Binary   string `json:"binary"`
	ModelDir string `json:"model_dir"`
	Steps    int    `json:"steps"`
}

// PromptConfig locates the prompt fragment file.
type PromptConfig struct {
	File string `json:"file"`
}

// VisionConfig selects an optional vision model backend for subject
// detection. An empty backend disables it.
type VisionConfig struct {
	Backend string `json:"backend"`
	URL     string `json:"url"`
	Model   string `json:"model"`
}

// Default returns a configuration with default values.
func Default() *Config {
	return &Config{
		Display: DisplayConfig{
			Model:  "epd7in3f",
			Width:  480,
			Height: 800,
		},
		Generator: GeneratorConfig{
			Binary:   "OnnxStream/src/build/sd",
			ModelDir: "models/stable-diffusion-xl-turbo-1.0-anyshape-onnxstream",
			Steps:    3,
		},
		Prompts: PromptConfig{
			File: "prompts/flowers.json",
		},
		Vision: VisionConfig{
			Model: "openbmb/minicpm-v4.5",
		},
	}
}

// LoadFromFile loads configuration from a JSON file. Sections the file
// omits keep their default values, so a partial config stays valid.
func LoadFromFile(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return cfg, nil
}

// SaveToFile saves configuration to a JSON file.
func (c *Config) SaveToFile(filename string) error {
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Display.Width <= 0 || c.Display.Height <= 0 {
		return fmt.Errorf("display.width and display.height must be positive")
	}

	if _, err := display.Lookup(c.Display.Model); err != nil {
		return fmt.Errorf("display.model: %w", err)
	}

	if c.Generator.Steps <= 0 {
		return fmt.Errorf("generator.steps must be positive")
	}

	switch c.Vision.Backend {
	case "", "ollama", "llamacpp":
	default:
		return fmt.Errorf("vision.backend must be empty, %q or %q", "ollama", "llamacpp")
	}

	return nil
}

// GetConfigPath returns the default configuration file path.
func GetConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./config.json"
	}
	return filepath.Join(home, ".config", "eink-frame", "config.json")
}
