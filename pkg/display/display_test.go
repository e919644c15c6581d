package display

import (
	"errors"
	"testing"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name     string
		w, h     int
		portrait bool
		wantW    int
		wantH    int
	}{
		{"portrait kept", 480, 800, true, 480, 800},
		{"portrait swapped", 800, 480, true, 480, 800},
		{"landscape kept", 800, 480, false, 800, 480},
		{"landscape swapped", 480, 800, false, 800, 480},
		{"square portrait", 600, 600, true, 600, 600},
		{"square landscape", 600, 600, false, 600, 600},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := Resolve(tt.w, tt.h, tt.portrait)
			if err != nil {
				t.Fatalf("Resolve failed: %v", err)
			}
			if g.Width != tt.wantW || g.Height != tt.wantH {
				t.Errorf("Resolve(%d, %d, %v) = %dx%d, want %dx%d",
					tt.w, tt.h, tt.portrait, g.Width, g.Height, tt.wantW, tt.wantH)
			}
		})
	}
}

func TestResolveOrientationMatchesFlag(t *testing.T) {
	for _, dims := range [][2]int{{480, 800}, {800, 480}, {1024, 1024}, {1, 2}} {
		p, err := Resolve(dims[0], dims[1], true)
		if err != nil {
			t.Fatalf("Resolve failed: %v", err)
		}
		if p.Width > p.Height {
			t.Errorf("portrait Resolve(%d, %d) returned %dx%d", dims[0], dims[1], p.Width, p.Height)
		}

		l, err := Resolve(dims[0], dims[1], false)
		if err != nil {
			t.Fatalf("Resolve failed: %v", err)
		}
		if l.Width < l.Height {
			t.Errorf("landscape Resolve(%d, %d) returned %dx%d", dims[0], dims[1], l.Width, l.Height)
		}
	}
}

func TestResolveSwappedArgumentsSameFrame(t *testing.T) {
	// Resolve(w, h, portrait) and Resolve(h, w, landscape) describe the
	// same physical frame, just hung the other way.
	p, err := Resolve(480, 800, true)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	l, err := Resolve(800, 480, false)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if p.Width != l.Height || p.Height != l.Width {
		t.Errorf("expected same frame, got %dx%d and %dx%d", p.Width, p.Height, l.Width, l.Height)
	}
}

func TestResolveInvalid(t *testing.T) {
	for _, dims := range [][2]int{{0, 800}, {480, 0}, {-1, 800}, {480, -1}, {0, 0}} {
		if _, err := Resolve(dims[0], dims[1], false); !errors.Is(err, ErrInvalidGeometry) {
			t.Errorf("Resolve(%d, %d) error = %v, want ErrInvalidGeometry", dims[0], dims[1], err)
		}
	}
}

func TestLookup(t *testing.T) {
	p, err := Lookup("epd7in3f")
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if p.Width != 800 || p.Height != 480 {
		t.Errorf("epd7in3f geometry = %dx%d, want 800x480", p.Width, p.Height)
	}
	if len(p.Palette) != 7 {
		t.Errorf("epd7in3f palette has %d colors, want 7", len(p.Palette))
	}

	if _, err := Lookup("epd99in9x"); !errors.Is(err, ErrUnknownPanel) {
		t.Errorf("expected ErrUnknownPanel, got %v", err)
	}
}

func TestPaletteFor(t *testing.T) {
	pal, err := PaletteFor("epd7in3e")
	if err != nil {
		t.Fatalf("PaletteFor failed: %v", err)
	}
	if len(pal) != 6 {
		t.Errorf("epd7in3e palette has %d colors, want 6", len(pal))
	}
}

func TestModels(t *testing.T) {
	models := Models()
	if len(models) == 0 {
		t.Fatal("no panel models registered")
	}
	for i := 1; i < len(models); i++ {
		if models[i-1] >= models[i] {
			t.Errorf("models not sorted: %v", models)
		}
	}
}
