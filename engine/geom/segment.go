package geom

import (
	"fmt"
	"math"
)

// Segment is an immutable directed line segment. Splitting produces new values.
type Segment struct {
	start  Point
	end    Point
	dir    Point // unit length, zero for a zero-length segment
	orth   Point
	length float64
	// slope[a] is the change of the other coordinate per unit step along axis a.
	slope [2]float64
}

func NewSegment(start, end Point) Segment {
	delta := end.Sub(start)
	dir := NormalizeSafe(delta)
	s := Segment{
		start:  start,
		end:    end,
		dir:    dir,
		orth:   Orthogonal(dir),
		length: delta.Len(),
	}
	s.slope[AxisX] = inverseSlope(delta.X(), delta.Y())
	s.slope[AxisY] = inverseSlope(delta.Y(), delta.X())
	return s
}

func inverseSlope(along, across float64) float64 {
	if along == 0 {
		return math.Inf(1)
	}
	return across / along
}

func (s Segment) Start() Point       { return s.start }
func (s Segment) End() Point         { return s.end }
func (s Segment) Direction() Point   { return s.dir }
func (s Segment) Orthogonal() Point  { return s.orth }
func (s Segment) Length() float64    { return s.length }
func (s Segment) IsZeroLength() bool { return s.length == 0 }

func (s Segment) Bounds() Rect {
	return RectFromPoints(s.start, s.end)
}

// PointAtDistance walks distance units from the start along the direction.
func (s Segment) PointAtDistance(distance float64) Point {
	return s.start.Add(s.dir.Mul(distance))
}

// IntersectTriangle returns the intersection closest to the segment start.
// A start point inside the triangle is a hit at distance 0. Touching a vertex or
// an edge counts. Zero-length segments never hit anything.
func (s Segment) IntersectTriangle(t Triangle) (Intersection, bool) {
	if s.length == 0 {
		return Intersection{}, false
	}

	ra := t.A.Sub(s.start)
	rb := t.B.Sub(s.start)
	rc := t.C.Sub(s.start)

	oa := ra.Dot(s.orth)
	ob := rb.Dot(s.orth)
	oc := rc.Dot(s.orth)

	ab := straddles(oa, ob)
	bc := straddles(ob, oc)
	ca := straddles(oc, oa)

	if !ab && !bc && !ca {
		return Intersection{}, false
	}

	if t.IsInside(s.start) {
		return Intersection{Point: s.start, Distance: 0}, true
	}

	da := ra.Dot(s.dir)
	db := rb.Dot(s.dir)
	dc := rc.Dot(s.dir)

	var near, far float64
	switch {
	case ab && bc:
		near, far = nearestEdgeCrossing(oa, ob, oc, da, db, dc)
	case ca && ab:
		near, far = nearestEdgeCrossing(oc, oa, ob, dc, da, db)
	case bc && ca:
		near, far = nearestEdgeCrossing(ob, oc, oa, db, dc, da)
	default:
		PanicInvariant("Segment.IntersectTriangle", "exactly one edge of %v crosses the line through %v", t, s)
	}

	if near < 0 && far >= 0 {
		// the line enters before the start and leaves after it
		return Intersection{Point: s.start, Distance: 0}, true
	}
	if near < 0 || near > s.length {
		return Intersection{}, false
	}
	return Intersection{Point: s.PointAtDistance(near), Distance: near}, true
}

// straddles reports whether an edge with end projections p and q meets the
// line: the signs differ or one of them is zero. The product p*q is not usable
// here since it underflows to zero for tiny projections.
func straddles(p, q float64) bool {
	return (p <= 0 && q >= 0) || (p >= 0 && q <= 0)
}

// nearestEdgeCrossing expects the edges (1,2) and (2,3) to cross the line;
// callers rotate the vertices so that vertex 2 is the shared one.
func nearestEdgeCrossing(o1, o2, o3, d1, d2, d3 float64) (float64, float64) {
	first := edgeCrossing(o1, d1, o2, d2)
	second := edgeCrossing(o2, d2, o3, d3)
	if first <= second {
		return first, second
	}
	return second, first
}

// edgeCrossing interpolates the distance along the segment at which the edge
// p->q meets the segment's line, from the orthogonal projections o and the
// projections d onto the direction.
func edgeCrossing(op, dp, oq, dq float64) float64 {
	if op == oq {
		// both ends on the line: the edge overlaps it, use its point nearest to the start
		lo, hi := math.Min(dp, dq), math.Max(dp, dq)
		if lo <= 0 && hi >= 0 {
			return 0
		}
		if lo > 0 {
			return lo
		}
		return hi
	}
	f := op / (op - oq)
	return dp + f*(dq-dp)
}

// Crosses reports whether the endpoints lie strictly on opposite sides of the cut.
func (s Segment) Crosses(axis Axis, value float64) bool {
	sv, ev := axis.Of(s.start), axis.Of(s.end)
	return (sv < value && ev > value) || (sv > value && ev < value)
}

// Touches reports whether an endpoint lies exactly on the cut.
func (s Segment) Touches(axis Axis, value float64) bool {
	return axis.Of(s.start) == value || axis.Of(s.end) == value
}

// CutPoint is where the segment's line meets the cut axis=value.
// The cut coordinate is exact; the other one is interpolated.
func (s Segment) CutPoint(axis Axis, value float64) Point {
	other := axis.Other()
	var p Point
	p = axis.with(p, value)
	p = other.with(p, other.Of(s.start)+(value-axis.Of(s.start))*s.slope[axis])
	return p
}

// SplitAt cuts the segment at axis=value. If both endpoints are on the same side
// the segment itself is returned as near and hasFar is false. Otherwise near
// starts at the segment start, far ends at the segment end and both share the
// cut point. startLeft tells whether the start is on the low side of the cut.
func (s Segment) SplitAt(axis Axis, value float64) (startLeft bool, near, far Segment, hasFar bool) {
	sv, ev := axis.Of(s.start), axis.Of(s.end)
	startLeft = sv < value || (sv == value && ev <= value)
	if !s.Crosses(axis, value) {
		return startLeft, s, Segment{}, false
	}
	cut := s.CutPoint(axis, value)
	return startLeft, NewSegment(s.start, cut), NewSegment(cut, s.end), true
}

func (s Segment) String() string {
	return fmt.Sprintf("Segment{(%g, %g) -> (%g, %g)}", s.start.X(), s.start.Y(), s.end.X(), s.end.Y())
}
