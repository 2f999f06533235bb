package geom

import "fmt"

// Triangle is three ordered vertices. Winding is not assumed to be consistent.
type Triangle struct {
	A, B, C Point
}

func NewTriangle(a, b, c Point) Triangle {
	return Triangle{A: a, B: b, C: c}
}

func (t Triangle) Vertices() [3]Point {
	return [3]Point{t.A, t.B, t.C}
}

func (t Triangle) Bounds() Rect {
	return RectFromPoints(t.A, t.B, t.C)
}

func (t Triangle) Centroid() Point {
	return t.A.Add(t.B).Add(t.C).Mul(1.0 / 3.0)
}

// Area2 is twice the signed area.
func (t Triangle) Area2() float64 {
	ab := t.B.Sub(t.A)
	ac := t.C.Sub(t.A)
	return ab.X()*ac.Y() - ab.Y()*ac.X()
}

func (t Triangle) IsDegenerate() bool {
	return t.Area2() == 0
}

// Barycentric returns the coordinates of p with respect to A, B and C, in that order.
// ok is false for a zero-area triangle, where the coordinates are undefined.
func (t Triangle) Barycentric(p Point) (wa, wb, wc float64, ok bool) {
	v0 := t.C.Sub(t.A)
	v1 := t.B.Sub(t.A)
	v2 := p.Sub(t.A)

	dot00 := v0.Dot(v0)
	dot01 := v0.Dot(v1)
	dot02 := v0.Dot(v2)
	dot11 := v1.Dot(v1)
	dot12 := v1.Dot(v2)

	denom := dot00*dot11 - dot01*dot01
	if denom == 0 {
		return 0, 0, 0, false
	}
	invDenom := 1 / denom
	u := (dot11*dot02 - dot01*dot12) * invDenom // weight of C
	v := (dot00*dot12 - dot01*dot02) * invDenom // weight of B
	return 1 - u - v, v, u, true
}

// IsInside reports whether p lies in the triangle or on its boundary.
// Degenerate triangles contain nothing.
func (t Triangle) IsInside(p Point) bool {
	wa, wb, wc, ok := t.Barycentric(p)
	if !ok {
		return false
	}
	return wa >= 0 && wb >= 0 && wc >= 0
}

// ClipBounds returns the bounds of the parts of t on either side of the cut line
// axis=value, each intersected with bounds. Either result may be empty.
func (t Triangle) ClipBounds(axis Axis, value float64, bounds Rect) (Rect, Rect) {
	left := make([]Point, 0, 5)
	right := make([]Point, 0, 5)
	for _, p := range t.Vertices() {
		if axis.Of(p) < value {
			left = append(left, p)
		} else {
			right = append(right, p)
		}
	}

	nleft := len(left)
	nright := len(right)
	other := axis.Other()
	for i := 0; i < nleft; i++ {
		for j := 0; j < nright; j++ {
			p := left[i]
			q := right[j]
			// q is at or beyond the cut, p strictly before it, so the divisor is positive.
			f := (value - axis.Of(p)) / (axis.Of(q) - axis.Of(p))
			var crossing Point
			crossing = axis.with(crossing, value)
			crossing = other.with(crossing, other.Of(p)+f*(other.Of(q)-other.Of(p)))
			left = append(left, crossing)
			right = append(right, crossing)
		}
	}

	return RectFromPoints(left...).Intersect(bounds), RectFromPoints(right...).Intersect(bounds)
}

func (t Triangle) String() string {
	return fmt.Sprintf("Triangle{(%g, %g), (%g, %g), (%g, %g)}", t.A.X(), t.A.Y(), t.B.X(), t.B.Y(), t.C.X(), t.C.Y())
}

// Intersection is a hit on a segment, with the distance from the segment start.
type Intersection struct {
	Point    Point
	Distance float64
}
