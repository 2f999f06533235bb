package geom

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Point is a 2D position or direction. All vector algebra comes from mgl64.
type Point = mgl64.Vec2

func Pt(x, y float64) Point {
	return Point{x, y}
}

func Distance(one, two Point) float64 {
	return one.Sub(two).Len()
}

// NormalizeSafe returns the unit vector of v, or the zero vector if v has no length.
func NormalizeSafe(v Point) Point {
	l := v.Len()
	if l == 0 {
		return Point{}
	}
	return v.Mul(1 / l)
}

// Orthogonal rotates v by 90 degrees counter-clockwise.
func Orthogonal(v Point) Point {
	return Point{-v.Y(), v.X()}
}

func IsFinitePoint(p Point) bool {
	return !math.IsNaN(p.X()) && !math.IsNaN(p.Y()) && !math.IsInf(p.X(), 0) && !math.IsInf(p.Y(), 0)
}

// ApproxEqual compares component-wise with an absolute tolerance.
func ApproxEqual(one, two Point, tolerance float64) bool {
	return math.Abs(one.X()-two.X()) <= tolerance && math.Abs(one.Y()-two.Y()) <= tolerance
}

type Axis int

const (
	AxisX Axis = iota
	AxisY
)

func (a Axis) Of(p Point) float64 {
	return p[a]
}

func (a Axis) Other() Axis {
	return 1 - a
}

func (a Axis) String() string {
	switch a {
	case AxisX:
		return "X"
	case AxisY:
		return "Y"
	}
	return "Unknown"
}

// with returns p with the coordinate on axis a replaced by value.
func (a Axis) with(p Point, value float64) Point {
	p[a] = value
	return p
}
