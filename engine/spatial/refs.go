package spatial

import (
	"fmt"

	"github.com/memmaker/visibility/engine/geom"
)

// SplittingPlane is one axis-aligned cut of a voxel.
type SplittingPlane struct {
	Axis  geom.Axis
	Value float64
}

func (p SplittingPlane) String() string {
	return fmt.Sprintf("%s=%g", p.Axis, p.Value)
}

// triangleRef points at a triangle owned by the tree. Its bounds are the
// triangle's bounds clipped to the voxel of the node holding the ref.
// Refs are created per split and never modified.
type triangleRef struct {
	triangle *geom.Triangle
	bounds   geom.Rect
}

// partition distributes refs over the two sides of plane. Refs lying in the
// plane go left when planarLeft is set, right otherwise. Refs straddling the
// plane go to both sides with their bounds refit to each side; a side the
// triangle does not reach within the ref's bounds is skipped.
func partition(refs []triangleRef, plane SplittingPlane, planarLeft bool) (left, right []triangleRef) {
	left = make([]triangleRef, 0, len(refs)/2+1)
	right = make([]triangleRef, 0, len(refs)/2+1)
	axis, v := plane.Axis, plane.Value
	for _, r := range refs {
		lo, hi := axis.Of(r.bounds.Min), axis.Of(r.bounds.Max)
		switch {
		case lo == v && hi == v:
			if planarLeft {
				left = append(left, r)
			} else {
				right = append(right, r)
			}
		case hi <= v:
			left = append(left, r)
		case lo >= v:
			right = append(right, r)
		default:
			lb, rb := r.triangle.ClipBounds(axis, v, r.bounds)
			if !lb.IsEmpty() {
				checkRefit(lb, r, plane)
				left = append(left, triangleRef{triangle: r.triangle, bounds: lb})
			}
			if !rb.IsEmpty() {
				checkRefit(rb, r, plane)
				right = append(right, triangleRef{triangle: r.triangle, bounds: rb})
			}
		}
	}
	return left, right
}

func checkRefit(refit geom.Rect, r triangleRef, plane SplittingPlane) {
	if !refit.IsFinite() {
		geom.PanicInvariant("kdtree.partition", "refitting %v at %v produced non-finite bounds %v", *r.triangle, plane, refit)
	}
}

func boundsOf(refs []triangleRef) geom.Rect {
	bounds := geom.EmptyRect
	for _, r := range refs {
		bounds = bounds.Merge(r.bounds)
	}
	return bounds
}

func nearestRefHit(refs []triangleRef, s geom.Segment) (geom.Intersection, bool) {
	var nearest geom.Intersection
	found := false
	for _, r := range refs {
		hit, ok := s.IntersectTriangle(*r.triangle)
		if ok && (!found || hit.Distance < nearest.Distance) {
			nearest = hit
			found = true
		}
	}
	return nearest, found
}
