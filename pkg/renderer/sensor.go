package renderer

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"

	"github.com/disintegration/imaging"

	"github.com/KholdStare/qndraytracer/pkg/core"
)

// sensorMagic identifies a saved sensor stream
const sensorMagic = "QNDS"

// maxSensorPixels bounds the size LoadSensor accepts from a header
const maxSensorPixels = 1 << 26

// ErrSensorMismatch is returned when merging sensors of different sizes
var ErrSensorMismatch = errors.New("sensor size mismatch")

// ErrSensorTooLarge is returned for sensor files claiming more than maxSensorPixels
var ErrSensorTooLarge = errors.New("sensor too large")

// PixelStats accumulates the samples deposited on one pixel
type PixelStats struct {
	ColorAccum  core.Vec3 // Sum of all samples
	SampleCount int       // Number of samples taken
}

// AddSamples deposits the sum of count samples
func (ps *PixelStats) AddSamples(sum core.Vec3, count int) {
	ps.ColorAccum = ps.ColorAccum.Add(sum)
	ps.SampleCount += count
}

// GetColor returns the current average color for this pixel
func (ps *PixelStats) GetColor() core.Vec3 {
	if ps.SampleCount == 0 {
		return core.Vec3{}
	}
	return ps.ColorAccum.Multiply(1.0 / float64(ps.SampleCount))
}

// Sensor is the image plane accumulator. Row 0 is the bottom of the image.
// Rows may be written concurrently as long as no two goroutines share a row.
type Sensor struct {
	width, height int
	pixels        []PixelStats
}

// NewSensor creates an empty sensor
func NewSensor(width, height int) *Sensor {
	return &Sensor{width: width, height: height, pixels: make([]PixelStats, width*height)}
}

func (s *Sensor) Width() int  { return s.width }
func (s *Sensor) Height() int { return s.height }

// Pixel returns the accumulator at (row, col)
func (s *Sensor) Pixel(row, col int) *PixelStats {
	return &s.pixels[row*s.width+col]
}

// Add deposits count samples summing to sum at (row, col)
func (s *Sensor) Add(row, col int, sum core.Vec3, count int) {
	s.Pixel(row, col).AddSamples(sum, count)
}

// Color returns the average color at (row, col)
func (s *Sensor) Color(row, col int) core.Vec3 {
	return s.Pixel(row, col).GetColor()
}

// TotalSamples returns the number of samples deposited over all pixels
func (s *Sensor) TotalSamples() int {
	total := 0
	for i := range s.pixels {
		total += s.pixels[i].SampleCount
	}
	return total
}

// Merge adds another sensor's samples to this one
func (s *Sensor) Merge(other *Sensor) error {
	if other.width != s.width || other.height != s.height {
		return fmt.Errorf("%w: %dx%d into %dx%d", ErrSensorMismatch, other.width, other.height, s.width, s.height)
	}
	for i := range s.pixels {
		s.pixels[i].AddSamples(other.pixels[i].ColorAccum, other.pixels[i].SampleCount)
	}
	return nil
}

// Image converts the averaged colors to an 8-bit image with top row first,
// gamma-encoding linear values with the given gamma.
func (s *Sensor) Image(gamma float64) *image.NRGBA {
	img := image.NewRGBA(image.Rect(0, 0, s.width, s.height))
	for row := 0; row < s.height; row++ {
		for col := 0; col < s.width; col++ {
			img.SetRGBA(col, row, vec3ToColor(s.Color(row, col), gamma))
		}
	}
	// sensor rows grow upward, image rows grow downward
	return imaging.FlipV(img)
}

// vec3ToColor converts a Vec3 color to RGBA with clamping and gamma correction
func vec3ToColor(c core.Vec3, gamma float64) color.RGBA {
	if gamma > 0 && gamma != 1 {
		c = c.Clamp(0, 1).GammaCorrect(gamma)
	}
	c = c.Clamp(0, 1)
	return color.RGBA{
		R: uint8(255*c.X + 0.5),
		G: uint8(255*c.Y + 0.5),
		B: uint8(255*c.Z + 0.5),
		A: 255,
	}
}

// Save writes the raw accumulators so a render can be resumed or merged
// later. The format is little-endian: magic, width, height, then per pixel
// three float64 sums and an int64 count.
func (s *Sensor) Save(w io.Writer) error {
	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(sensorMagic); err != nil {
		return fmt.Errorf("write sensor header: %w", err)
	}
	header := [2]int32{int32(s.width), int32(s.height)}
	if err := binary.Write(bw, binary.LittleEndian, header); err != nil {
		return fmt.Errorf("write sensor header: %w", err)
	}
	for i := range s.pixels {
		p := &s.pixels[i]
		record := struct {
			R, G, B float64
			Count   int64
		}{p.ColorAccum.X, p.ColorAccum.Y, p.ColorAccum.Z, int64(p.SampleCount)}
		if err := binary.Write(bw, binary.LittleEndian, record); err != nil {
			return fmt.Errorf("write sensor pixel %d: %w", i, err)
		}
	}
	return bw.Flush()
}

// LoadSensor reads a sensor written by Save
func LoadSensor(r io.Reader) (*Sensor, error) {
	br := bufio.NewReader(r)
	magic := make([]byte, len(sensorMagic))
	if _, err := io.ReadFull(br, magic); err != nil {
		return nil, fmt.Errorf("read sensor header: %w", err)
	}
	if string(magic) != sensorMagic {
		return nil, fmt.Errorf("read sensor header: bad magic %q", magic)
	}

	var header [2]int32
	if err := binary.Read(br, binary.LittleEndian, &header); err != nil {
		return nil, fmt.Errorf("read sensor header: %w", err)
	}
	if header[0] <= 0 || header[1] <= 0 {
		return nil, fmt.Errorf("read sensor header: invalid size %dx%d", header[0], header[1])
	}
	if int64(header[0])*int64(header[1]) > maxSensorPixels {
		return nil, fmt.Errorf("read sensor header: %w: %dx%d", ErrSensorTooLarge, header[0], header[1])
	}

	s := NewSensor(int(header[0]), int(header[1]))
	for i := range s.pixels {
		var record struct {
			R, G, B float64
			Count   int64
		}
		if err := binary.Read(br, binary.LittleEndian, &record); err != nil {
			return nil, fmt.Errorf("read sensor pixel %d: %w", i, err)
		}
		s.pixels[i] = PixelStats{
			ColorAccum:  core.NewVec3(record.R, record.G, record.B),
			SampleCount: int(record.Count),
		}
	}
	return s, nil
}
