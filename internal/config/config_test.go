package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero width", func(c *Config) { c.Display.Width = 0 }},
		{"negative height", func(c *Config) { c.Display.Height = -1 }},
		{"unknown panel", func(c *Config) { c.Display.Model = "epd99in9x" }},
		{"zero steps", func(c *Config) { c.Generator.Steps = 0 }},
		{"bad vision backend", func(c *Config) { c.Vision.Backend = "gpt" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.json")

	cfg := Default()
	cfg.Display.Model = "ac073tc1a"
	cfg.Display.Dither = true
	cfg.Vision.Backend = "llamacpp"
	cfg.Vision.URL = "http://localhost:8080"

	if err := cfg.SaveToFile(path); err != nil {
		t.Fatalf("SaveToFile failed: %v", err)
	}

	loaded, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}
	if loaded.Display.Model != "ac073tc1a" || !loaded.Display.Dither {
		t.Errorf("display config not preserved: %+v", loaded.Display)
	}
	if loaded.Vision.Backend != "llamacpp" {
		t.Errorf("vision config not preserved: %+v", loaded.Vision)
	}
	if err := loaded.Validate(); err != nil {
		t.Errorf("round-tripped config invalid: %v", err)
	}
}

func TestLoadFromFilePartialConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	content := `{"display": {"model": "epd7in3e", "width": 800, "height": 480}}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}
	if cfg.Display.Model != "epd7in3e" {
		t.Errorf("display.model = %q, want epd7in3e", cfg.Display.Model)
	}
	if cfg.Generator.Steps != Default().Generator.Steps {
		t.Errorf("omitted generator section lost its defaults: %+v", cfg.Generator)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("display-only config invalid: %v", err)
	}
}

func TestLoadFromFileErrors(t *testing.T) {
	if _, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}
}
