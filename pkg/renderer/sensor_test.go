package renderer

import (
	"bytes"
	"errors"
	"testing"

	"github.com/KholdStare/qndraytracer/pkg/core"
)

func TestSensor_AddAndColor(t *testing.T) {
	s := NewSensor(3, 2)

	s.Add(1, 2, core.NewVec3(2, 4, 6), 2)
	s.Add(1, 2, core.NewVec3(1, 1, 1), 1)

	expected := core.NewVec3(1, 5.0/3, 7.0/3)
	if got := s.Color(1, 2); got.Subtract(expected).Length() > 1e-12 {
		t.Errorf("Expected %v, got %v", expected, got)
	}
	if got := s.Color(0, 0); !got.IsZero() {
		t.Errorf("Untouched pixel should be black, got %v", got)
	}
	if got := s.TotalSamples(); got != 3 {
		t.Errorf("Expected 3 samples, got %d", got)
	}
}

func TestSensor_Merge(t *testing.T) {
	a := NewSensor(2, 2)
	b := NewSensor(2, 2)
	a.Add(0, 0, core.NewVec3(1, 0, 0), 1)
	b.Add(0, 0, core.NewVec3(0, 1, 0), 1)
	b.Add(1, 1, core.NewVec3(3, 3, 3), 3)

	if err := a.Merge(b); err != nil {
		t.Fatalf("Merge failed: %v", err)
	}
	if got := a.Color(0, 0); got.Subtract(core.NewVec3(0.5, 0.5, 0)).Length() > 1e-12 {
		t.Errorf("Merged pixel (0,0) = %v", got)
	}
	if got := a.Pixel(1, 1).SampleCount; got != 3 {
		t.Errorf("Merged pixel (1,1) has %d samples, want 3", got)
	}

	err := a.Merge(NewSensor(3, 2))
	if !errors.Is(err, ErrSensorMismatch) {
		t.Errorf("Expected ErrSensorMismatch, got %v", err)
	}
}

func TestSensor_ImageFlipsRows(t *testing.T) {
	s := NewSensor(2, 2)
	s.Add(0, 0, core.NewVec3(1, 0, 0), 1) // bottom-left
	s.Add(1, 1, core.NewVec3(0, 0, 1), 1) // top-right

	img := s.Image(1)

	if img.Bounds().Dx() != 2 || img.Bounds().Dy() != 2 {
		t.Fatalf("Unexpected image size %v", img.Bounds())
	}
	if c := img.NRGBAAt(0, 1); c.R != 255 || c.G != 0 || c.B != 0 {
		t.Errorf("Bottom-left pixel should be red, got %v", c)
	}
	if c := img.NRGBAAt(1, 0); c.B != 255 || c.R != 0 {
		t.Errorf("Top-right pixel should be blue, got %v", c)
	}
	if c := img.NRGBAAt(0, 0); c.R != 0 || c.G != 0 || c.B != 0 || c.A != 255 {
		t.Errorf("Empty pixel should be opaque black, got %v", c)
	}
}

func TestVec3ToColor(t *testing.T) {
	tests := []struct {
		name     string
		color    core.Vec3
		gamma    float64
		expected uint8
	}{
		{"Black", core.Splat(0), 2.2, 0},
		{"White", core.Splat(1), 2.2, 255},
		{"Over-exposed clamps", core.Splat(7), 1, 255},
		{"Negative clamps", core.Splat(-1), 1, 0},
		{"Linear half", core.Splat(0.5), 1, 128},
		{"Gamma 2 quarter", core.Splat(0.25), 2, 128},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := vec3ToColor(tt.color, tt.gamma)
			if c.R != tt.expected || c.G != tt.expected || c.B != tt.expected {
				t.Errorf("Expected %d, got %v", tt.expected, c)
			}
		})
	}
}

func TestSensor_SaveLoad(t *testing.T) {
	s := NewSensor(4, 3)
	s.Add(0, 0, core.NewVec3(0.1, 0.2, 0.3), 1)
	s.Add(2, 3, core.NewVec3(5, 6, 7), 12)

	var buf bytes.Buffer
	if err := s.Save(&buf); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := LoadSensor(&buf)
	if err != nil {
		t.Fatalf("LoadSensor failed: %v", err)
	}
	if loaded.Width() != 4 || loaded.Height() != 3 {
		t.Fatalf("Loaded size %dx%d", loaded.Width(), loaded.Height())
	}
	for row := 0; row < 3; row++ {
		for col := 0; col < 4; col++ {
			if *loaded.Pixel(row, col) != *s.Pixel(row, col) {
				t.Errorf("Pixel (%d,%d): got %+v, want %+v", row, col, *loaded.Pixel(row, col), *s.Pixel(row, col))
			}
		}
	}
}

func TestLoadSensor_Errors(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"Empty", nil},
		{"Bad magic", []byte("NOPE\x01\x00\x00\x00\x01\x00\x00\x00")},
		{"Zero size", []byte("QNDS\x00\x00\x00\x00\x01\x00\x00\x00")},
		{"Truncated pixels", []byte("QNDS\x01\x00\x00\x00\x01\x00\x00\x00\x00\x00")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadSensor(bytes.NewReader(tt.data)); err == nil {
				t.Errorf("Expected an error")
			}
		})
	}
}

func TestLoadSensor_RejectsHugeHeader(t *testing.T) {
	// 2^31-1 square with no pixel data following
	data := []byte("QNDS\xff\xff\xff\x7f\xff\xff\xff\x7f")
	if _, err := LoadSensor(bytes.NewReader(data)); !errors.Is(err, ErrSensorTooLarge) {
		t.Errorf("Expected ErrSensorTooLarge, got %v", err)
	}

	// just over the limit
	data = []byte("QNDS\x01\x00\x00\x04\x01\x00\x00\x00")
	if _, err := LoadSensor(bytes.NewReader(data)); !errors.Is(err, ErrSensorTooLarge) {
		t.Errorf("Expected ErrSensorTooLarge, got %v", err)
	}
}
