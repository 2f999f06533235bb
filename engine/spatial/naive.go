package spatial

import "github.com/memmaker/visibility/engine/geom"

// Naive tests every triangle on every query. It is the reference the k-d tree
// is validated against and the better choice for a handful of triangles.
type Naive struct {
	triangles []geom.Triangle
}

func NewNaive(triangles []geom.Triangle) *Naive {
	return &Naive{triangles: append([]geom.Triangle(nil), triangles...)}
}

func (n *Naive) Intersect(s geom.Segment) (geom.Point, bool) {
	hit, ok := n.IntersectWithDistance(s)
	return hit.Point, ok
}

// IntersectWithDistance is Intersect that also returns the distance from the segment start.
func (n *Naive) IntersectWithDistance(s geom.Segment) (geom.Intersection, bool) {
	if s.IsZeroLength() {
		return geom.Intersection{}, false
	}
	return nearestTriangleHit(n.triangles, s)
}

func (n *Naive) Len() int {
	return len(n.triangles)
}
