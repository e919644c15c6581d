package saliency

import (
	"image"
	"image/color"
	"testing"
)

// createTestImage creates a test image with a bright subject region
// against a dark background.
func createTestImage(width, height int, subject image.Rectangle) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if image.Pt(x, y).In(subject) {
				img.Set(x, y, color.RGBA{255, 255, 255, 255})
			} else {
				img.Set(x, y, color.RGBA{32, 32, 32, 255})
			}
		}
	}
	return img
}

func createUniformImage(width, height int, c color.Color) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func TestComputeDimensions(t *testing.T) {
	img := createTestImage(200, 100, image.Rect(50, 25, 150, 75))
	m := Compute(img)

	if m.Width() != 200 || m.Height() != 100 {
		t.Errorf("map size = %dx%d, want 200x100", m.Width(), m.Height())
	}
	if m.ScaleX() != 1 || m.ScaleY() != 1 {
		t.Errorf("unexpected scale factors %f, %f", m.ScaleX(), m.ScaleY())
	}
}

func TestComputeDownscalesLargeSources(t *testing.T) {
	img := createTestImage(2048, 1024, image.Rect(100, 100, 400, 400))
	m := Compute(img)

	if m.Width() > DefaultConfig().WorkingSize || m.Height() > DefaultConfig().WorkingSize {
		t.Errorf("working map %dx%d exceeds working size", m.Width(), m.Height())
	}
	if m.Width() != 512 || m.Height() != 256 {
		t.Errorf("map size = %dx%d, want 512x256", m.Width(), m.Height())
	}
}

func TestSubjectScoresAboveBackground(t *testing.T) {
	subject := image.Rect(120, 40, 180, 90)
	img := createTestImage(300, 150, subject)
	m := Compute(img)

	subjectSum := m.Sum(120, 40, 180, 90)
	backgroundSum := m.Sum(0, 40, 60, 90)

	if subjectSum <= backgroundSum {
		t.Errorf("subject window sum %f not above background sum %f", subjectSum, backgroundSum)
	}
}

func TestSumMatchesAt(t *testing.T) {
	img := createTestImage(64, 64, image.Rect(16, 16, 48, 48))
	m := Compute(img)

	var manual float64
	for y := 10; y < 30; y++ {
		for x := 5; x < 25; x++ {
			manual += m.At(x, y)
		}
	}
	got := m.Sum(5, 10, 25, 30)

	if diff := got - manual; diff > 1e-6 || diff < -1e-6 {
		t.Errorf("Sum = %f, manual accumulation = %f", got, manual)
	}
}

func TestSumClipsToBounds(t *testing.T) {
	img := createTestImage(32, 32, image.Rect(8, 8, 24, 24))
	m := Compute(img)

	full := m.Sum(0, 0, 32, 32)
	clipped := m.Sum(-10, -10, 100, 100)
	if full != clipped {
		t.Errorf("clipped sum %f differs from full sum %f", clipped, full)
	}

	if m.Sum(20, 20, 10, 10) != 0 {
		t.Error("inverted window should sum to zero")
	}
}

func TestDegenerate(t *testing.T) {
	// rounding noise in the summed-area math depends on the pixel value,
	// so a single uniform level is not representative
	for _, v := range []uint8{0, 120, 128, 200, 255} {
		m := Compute(createUniformImage(100, 100, color.RGBA{v, v, v, 255}))
		if !m.Degenerate() {
			t.Errorf("uniform %d image should yield a degenerate map, total %f", v, m.Sum(0, 0, 100, 100))
		}
	}

	m := Compute(createTestImage(100, 100, image.Rect(25, 25, 75, 75)))
	if m.Degenerate() {
		t.Error("structured image should not yield a degenerate map")
	}
}

func TestUniformImageScoresZero(t *testing.T) {
	m := Compute(createUniformImage(120, 90, color.RGBA{128, 128, 128, 255}))
	for y := 0; y < m.Height(); y++ {
		for x := 0; x < m.Width(); x++ {
			if v := m.At(x, y); v != 0 {
				t.Fatalf("uniform image scored %g at (%d, %d)", v, x, y)
			}
		}
	}
}

func TestDeterminism(t *testing.T) {
	img := createTestImage(400, 300, image.Rect(200, 100, 320, 220))

	a := Compute(img)
	b := Compute(img)

	if a.Width() != b.Width() || a.Height() != b.Height() {
		t.Fatal("map dimensions differ between runs")
	}
	for y := 0; y < a.Height(); y++ {
		for x := 0; x < a.Width(); x++ {
			if a.At(x, y) != b.At(x, y) {
				t.Fatalf("score differs at (%d, %d): %f vs %f", x, y, a.At(x, y), b.At(x, y))
			}
		}
	}
}

func TestScoresNormalized(t *testing.T) {
	img := createTestImage(150, 150, image.Rect(50, 50, 100, 100))
	m := Compute(img)

	for y := 0; y < m.Height(); y++ {
		for x := 0; x < m.Width(); x++ {
			if v := m.At(x, y); v < 0 || v > 1 {
				t.Fatalf("score %f at (%d, %d) outside [0,1]", v, x, y)
			}
		}
	}
}
