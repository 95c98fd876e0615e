package material

import (
	"math"

	"github.com/KholdStare/qndraytracer/pkg/core"
)

// Texture provides values that vary over a surface's (u, v) parameterization
type Texture[T any] interface {
	// At returns the value at uv, where u and v are nominally in [0, 1]
	At(uv core.Vec2) T
}

// Param is a material parameter holding either a constant or a texture.
// A texture takes precedence over the constant.
type Param[T any] struct {
	Value   T
	Texture Texture[T]
}

// Const creates a parameter with a constant value
func Const[T any](value T) Param[T] {
	return Param[T]{Value: value}
}

// Textured creates a parameter backed by a texture
func Textured[T any](texture Texture[T]) Param[T] {
	return Param[T]{Texture: texture}
}

// At returns the parameter value at uv
func (p Param[T]) At(uv core.Vec2) T {
	if p.Texture != nil {
		return p.Texture.At(uv)
	}
	return p.Value
}

// Checker alternates between two values on a grid of PerSide×PerSide squares
type Checker[T any] struct {
	PerSide int
	First   T
	Second  T
}

// NewChecker creates a checkerboard texture
func NewChecker[T any](perSide int, first, second T) *Checker[T] {
	return &Checker[T]{PerSide: perSide, First: first, Second: second}
}

// At returns First or Second depending on the square containing uv
func (c *Checker[T]) At(uv core.Vec2) T {
	n := float64(c.PerSide)
	if (int(uv.X*n)+int(uv.Y*n))%2 == 0 {
		return c.First
	}
	return c.Second
}

// ImageTexture provides colors from a 2D image with nearest-neighbor lookup
type ImageTexture struct {
	Width  int
	Height int
	Pixels []core.Vec3 // Row-major: Pixels[y*Width + x]
}

// NewImageTexture creates a new image texture
func NewImageTexture(width, height int, pixels []core.Vec3) *ImageTexture {
	return &ImageTexture{Width: width, Height: height, Pixels: pixels}
}

// At wraps uv into [0,1)² and returns the covering pixel. v=0 is the bottom row.
func (t *ImageTexture) At(uv core.Vec2) core.Vec3 {
	if t.Width == 0 || t.Height == 0 {
		return core.Vec3{}
	}
	u := uv.X - math.Floor(uv.X)
	v := uv.Y - math.Floor(uv.Y)

	x := min(max(int(u*float64(t.Width)), 0), t.Width-1)
	y := min(max(int((1-v)*float64(t.Height)), 0), t.Height-1)
	return t.Pixels[y*t.Width+x]
}
