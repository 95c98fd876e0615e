package loaders

import (
	"image"
	"image/color"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"

	"github.com/KholdStare/qndraytracer/pkg/core"
)

// TestLoadTexture creates a test PNG and verifies loading
func TestLoadTexture(t *testing.T) {
	testFile := filepath.Join(t.TempDir(), "test.png")

	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.NRGBA{R: 255, G: 255, B: 255, A: 255}) // top-left: white
	img.Set(1, 0, color.NRGBA{R: 255, G: 0, B: 0, A: 255})     // top-right: red
	img.Set(0, 1, color.NRGBA{R: 0, G: 255, B: 0, A: 255})     // bottom-left: green
	img.Set(1, 1, color.NRGBA{R: 0, G: 0, B: 255, A: 255})     // bottom-right: blue

	if err := imaging.Save(img, testFile); err != nil {
		t.Fatalf("Failed to write test image: %v", err)
	}

	texture, err := LoadTexture(testFile)
	if err != nil {
		t.Fatalf("LoadTexture failed: %v", err)
	}

	if texture.Width != 2 || texture.Height != 2 {
		t.Fatalf("Expected 2x2 texture, got %dx%d", texture.Width, texture.Height)
	}
	if len(texture.Pixels) != 4 {
		t.Fatalf("Expected 4 pixels, got %d", len(texture.Pixels))
	}

	checkColor := func(name string, got, expected core.Vec3) {
		const tolerance = 0.01
		if got.Subtract(expected).Abs().MaxComponent() > tolerance {
			t.Errorf("%s: expected %v, got %v", name, expected, got)
		}
	}

	// row-major, top row first
	checkColor("Top-left (white)", texture.Pixels[0], core.NewVec3(1, 1, 1))
	checkColor("Top-right (red)", texture.Pixels[1], core.NewVec3(1, 0, 0))
	checkColor("Bottom-left (green)", texture.Pixels[2], core.NewVec3(0, 1, 0))
	checkColor("Bottom-right (blue)", texture.Pixels[3], core.NewVec3(0, 0, 1))

	// v = 0 samples the bottom row
	checkColor("uv (0.25, 0.25)", texture.At(core.NewVec2(0.25, 0.25)), core.NewVec3(0, 1, 0))
	checkColor("uv (0.75, 0.75)", texture.At(core.NewVec2(0.75, 0.75)), core.NewVec3(1, 0, 0))
}

// TestLoadTextureNotFound verifies error handling for missing files
func TestLoadTextureNotFound(t *testing.T) {
	if _, err := LoadTexture("nonexistent.png"); err == nil {
		t.Error("Expected error for non-existent file, got nil")
	}
}
