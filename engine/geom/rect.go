package geom

import (
	"fmt"
	"math"
)

// Rect is an axis-aligned bounding rectangle.
// EmptyRect is the identity for Merge; Intersect may return an empty rectangle,
// which only means "no overlap".
type Rect struct {
	Min Point
	Max Point
}

var EmptyRect = Rect{
	Min: Point{math.Inf(1), math.Inf(1)},
	Max: Point{math.Inf(-1), math.Inf(-1)},
}

func NewRect(min, max Point) Rect {
	return Rect{Min: min, Max: max}
}

func RectFromPoints(points ...Point) Rect {
	r := EmptyRect
	for _, p := range points {
		r.Min = Point{math.Min(r.Min.X(), p.X()), math.Min(r.Min.Y(), p.Y())}
		r.Max = Point{math.Max(r.Max.X(), p.X()), math.Max(r.Max.Y(), p.Y())}
	}
	return r
}

func (r Rect) Merge(other Rect) Rect {
	return Rect{
		Min: Point{math.Min(r.Min.X(), other.Min.X()), math.Min(r.Min.Y(), other.Min.Y())},
		Max: Point{math.Max(r.Max.X(), other.Max.X()), math.Max(r.Max.Y(), other.Max.Y())},
	}
}

func (r Rect) Intersect(other Rect) Rect {
	return Rect{
		Min: Point{math.Max(r.Min.X(), other.Min.X()), math.Max(r.Min.Y(), other.Min.Y())},
		Max: Point{math.Min(r.Max.X(), other.Max.X()), math.Min(r.Max.Y(), other.Max.Y())},
	}
}

func (r Rect) IsEmpty() bool {
	return r.Min.X() > r.Max.X() || r.Min.Y() > r.Max.Y()
}

func (r Rect) Extent() Point {
	return r.Max.Sub(r.Min)
}

func (r Rect) Mid() Point {
	return r.Min.Add(r.Max).Mul(0.5)
}

func (r Rect) Contains(p Point) bool {
	return p.X() >= r.Min.X() && p.X() <= r.Max.X() &&
		p.Y() >= r.Min.Y() && p.Y() <= r.Max.Y()
}

func (r Rect) ContainsRect(other Rect) bool {
	if other.IsEmpty() {
		return true
	}
	return r.Contains(other.Min) && r.Contains(other.Max)
}

// Perimeter is the 2D stand-in for the surface area used by the SAH cost model.
func (r Rect) Perimeter() float64 {
	if r.IsEmpty() {
		return 0
	}
	e := r.Extent()
	return 2 * (e.X() + e.Y())
}

// IsDegenerateOn reports whether the rectangle has zero width along axis.
func (r Rect) IsDegenerateOn(axis Axis) bool {
	return axis.Of(r.Min) == axis.Of(r.Max)
}

// SplitAt cuts r into the part at or below value and the part at or above value on axis.
func (r Rect) SplitAt(axis Axis, value float64) (Rect, Rect) {
	left, right := r, r
	left.Max = axis.with(left.Max, value)
	right.Min = axis.with(right.Min, value)
	return left, right
}

func (r Rect) IsFinite() bool {
	return IsFinitePoint(r.Min) && IsFinitePoint(r.Max)
}

func (r Rect) String() string {
	if r.IsEmpty() {
		return "Rect(empty)"
	}
	return fmt.Sprintf("Rect(%.4f, %.4f -> %.4f, %.4f)", r.Min.X(), r.Min.Y(), r.Max.X(), r.Max.Y())
}
