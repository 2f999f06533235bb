package scene

import (
	"github.com/memmaker/visibility/engine/geom"
	"github.com/pkg/errors"
)

// Polygon is a closed footprint; the last corner connects back to the first.
type Polygon []geom.Point

func Rectangle(min, max geom.Point) Polygon {
	return Polygon{min, geom.Pt(max.X(), min.Y()), max, geom.Pt(min.X(), max.Y())}
}

// IsConvex accepts collinear corners and either winding order.
func (p Polygon) IsConvex() bool {
	sign := 0.0
	for i := range p {
		a, b, c := p[i], p[(i+1)%len(p)], p[(i+2)%len(p)]
		cross := b.Sub(a).X()*c.Sub(b).Y() - b.Sub(a).Y()*c.Sub(b).X()
		if cross == 0 {
			continue
		}
		if sign != 0 && (cross > 0) != (sign > 0) {
			return false
		}
		sign = cross
	}
	return true
}

// FanTriangulate splits a convex polygon into triangles sharing its first corner.
func FanTriangulate(p Polygon) ([]geom.Triangle, error) {
	if len(p) < 3 {
		return nil, errors.Errorf("polygon needs at least 3 corners, got %d", len(p))
	}
	for i, corner := range p {
		if !geom.IsFinitePoint(corner) {
			return nil, errors.Errorf("corner %d %v is not finite", i, corner)
		}
	}
	if !p.IsConvex() {
		return nil, errors.New("polygon is not convex")
	}
	triangles := make([]geom.Triangle, 0, len(p)-2)
	for i := 1; i < len(p)-1; i++ {
		triangles = append(triangles, geom.NewTriangle(p[0], p[i], p[i+1]))
	}
	return triangles, nil
}
