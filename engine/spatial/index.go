// Package spatial answers nearest-intersection queries between a segment and
// a static set of triangles. KDTree is the indexed structure, Naive is the
// linear scan it is checked against. Both are immutable once built and safe
// for concurrent queries.
package spatial

import (
	"github.com/memmaker/visibility/engine/geom"
	"github.com/pkg/errors"
)

// Index finds the point on a segment closest to its start where it meets a triangle.
type Index interface {
	Intersect(s geom.Segment) (geom.Point, bool)
}

var (
	_ Index = (*Naive)(nil)
	_ Index = (*KDTree)(nil)
)

// Query runs idx.Intersect and reports a geometry invariant violation as an error
// instead of letting it crash the caller.
func Query(idx Index, s geom.Segment) (p geom.Point, ok bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			p, ok = geom.Point{}, false
			err = errors.Wrapf(geom.RecoverInvariant(r, nil), "query %v", s)
		}
	}()
	p, ok = idx.Intersect(s)
	return p, ok, nil
}

// nearestTriangleHit scans triangles and keeps the hit with the smallest distance.
func nearestTriangleHit(triangles []geom.Triangle, s geom.Segment) (geom.Intersection, bool) {
	var nearest geom.Intersection
	found := false
	for i := range triangles {
		hit, ok := s.IntersectTriangle(triangles[i])
		if ok && (!found || hit.Distance < nearest.Distance) {
			nearest = hit
			found = true
		}
	}
	return nearest, found
}
