package spatial

import (
	"fmt"
	"math"

	"github.com/memmaker/visibility/engine/geom"
	"github.com/memmaker/visibility/engine/util"
	"github.com/pkg/errors"
)

// kdNode is either a *kdLeaf or a *kdInner.
type kdNode interface {
	bounds() geom.Rect
}

type kdLeaf struct {
	voxel geom.Rect
	refs  []triangleRef
}

type kdInner struct {
	voxel       geom.Rect
	plane       SplittingPlane
	left, right kdNode
}

func (l *kdLeaf) bounds() geom.Rect  { return l.voxel }
func (n *kdInner) bounds() geom.Rect { return n.voxel }

// KDTree is a k-d tree over triangles. It never changes after NewKDTree returns,
// so any number of goroutines may query it at once.
type KDTree struct {
	triangles []geom.Triangle
	root      kdNode
	voxel     geom.Rect
	config    Config
	stats     Stats
}

// Stats describes the shape of a built tree.
type Stats struct {
	Triangles       int
	Nodes           int
	Leaves          int
	EmptyLeaves     int
	TruncatedLeaves int
	Refs            int
	MaxDepth        int
}

func (s Stats) String() string {
	avg := 0.0
	if s.Leaves > 0 {
		avg = float64(s.Refs) / float64(s.Leaves)
	}
	return fmt.Sprintf("%d triangles, %d nodes, %d leaves (%d empty, %d truncated), %d refs (%.2f per leaf), depth %d",
		s.Triangles, s.Nodes, s.Leaves, s.EmptyLeaves, s.TruncatedLeaves, s.Refs, avg, s.MaxDepth)
}

type builder struct {
	config    Config
	events    []splitEvent
	truncated int
}

func (b *builder) leaf(refs []triangleRef, voxel geom.Rect, depth int, truncated bool) kdNode {
	if truncated {
		b.truncated++
		util.LogSpatialDebug(fmt.Sprintf("[KDTree] depth limit %d reached, leaf keeps %d refs in %v", depth, len(refs), voxel))
	}
	return &kdLeaf{voxel: voxel, refs: refs}
}

// NewKDTree copies the triangles and builds the tree. The build fails on
// non-finite coordinates and on geometry invariant violations.
func NewKDTree(triangles []geom.Triangle, opts ...Option) (tree *KDTree, err error) {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "building k-d tree")
	}

	owned := append([]geom.Triangle(nil), triangles...)
	for i, t := range owned {
		if !t.Bounds().IsFinite() {
			return nil, errors.Errorf("building k-d tree: triangle %d %v has non-finite coordinates", i, t)
		}
	}

	tree = &KDTree{triangles: owned, voxel: geom.EmptyRect, config: cfg}
	if len(owned) == 0 {
		return tree, nil
	}

	defer func() {
		if r := recover(); r != nil {
			tree = nil
			err = errors.Wrap(geom.RecoverInvariant(r, nil), "building k-d tree")
		}
	}()

	refs := make([]triangleRef, len(owned))
	for i := range owned {
		refs[i] = triangleRef{triangle: &owned[i], bounds: owned[i].Bounds()}
	}
	tree.voxel = boundsOf(refs)

	b := &builder{config: cfg}
	switch cfg.Strategy {
	case StrategyMedian:
		tree.root = b.buildMedian(refs, tree.voxel, 0)
	default:
		tree.root = b.buildSAH(refs, tree.voxel, 0, math.Inf(1))
	}

	tree.stats = collectStats(tree.root)
	tree.stats.Triangles = len(owned)
	tree.stats.TruncatedLeaves = b.truncated
	util.LogSpatialInfo(fmt.Sprintf("[KDTree] built (%s): %s", cfg.Strategy, tree.stats))
	return tree, nil
}

func collectStats(root kdNode) Stats {
	var stats Stats
	var walk func(node kdNode, depth int)
	walk = func(node kdNode, depth int) {
		stats.Nodes++
		if depth > stats.MaxDepth {
			stats.MaxDepth = depth
		}
		switch n := node.(type) {
		case *kdLeaf:
			stats.Leaves++
			stats.Refs += len(n.refs)
			if len(n.refs) == 0 {
				stats.EmptyLeaves++
			}
		case *kdInner:
			walk(n.left, depth+1)
			walk(n.right, depth+1)
		}
	}
	walk(root, 0)
	return stats
}

func (t *KDTree) Intersect(s geom.Segment) (geom.Point, bool) {
	hit, ok := t.IntersectWithDistance(s)
	return hit.Point, ok
}

// IntersectWithDistance is Intersect that also returns the distance from the segment start.
func (t *KDTree) IntersectWithDistance(s geom.Segment) (geom.Intersection, bool) {
	if t.root == nil || s.IsZeroLength() {
		return geom.Intersection{}, false
	}
	return intersectNode(t.root, s, s, 0)
}

// intersectNode walks the tree front to back. The sub-segment s only steers the
// traversal; leaves test their triangles against the whole query so that every
// reported distance is measured from the query start. offset is the distance
// from the query start to the start of s.
func intersectNode(node kdNode, s, query geom.Segment, offset float64) (geom.Intersection, bool) {
	switch n := node.(type) {
	case *kdLeaf:
		return nearestRefHit(n.refs, query)
	case *kdInner:
		axis, value := n.plane.Axis, n.plane.Value
		if s.Touches(axis, value) {
			// an endpoint sits on the cut: either side may hold the nearest contact
			left, leftOk := intersectNode(n.left, s, query, offset)
			right, rightOk := intersectNode(n.right, s, query, offset)
			return closer(left, leftOk, right, rightOk)
		}

		startLeft, near, far, hasFar := s.SplitAt(axis, value)
		nearChild, farChild := n.left, n.right
		if !startLeft {
			nearChild, farChild = n.right, n.left
		}
		if !hasFar {
			return intersectNode(nearChild, near, query, offset)
		}
		cut := offset + near.Length()
		nearHit, nearOk := intersectNode(nearChild, near, query, offset)
		if nearOk && nearHit.Distance <= cut {
			return nearHit, true
		}
		// a hit beyond the cut belongs to a triangle reaching into the far side
		farHit, farOk := intersectNode(farChild, far, query, cut)
		return closer(nearHit, nearOk, farHit, farOk)
	}
	return geom.Intersection{}, false
}

func closer(one geom.Intersection, oneOk bool, two geom.Intersection, twoOk bool) (geom.Intersection, bool) {
	switch {
	case oneOk && twoOk:
		if two.Distance < one.Distance {
			return two, true
		}
		return one, true
	case oneOk:
		return one, true
	default:
		return two, twoOk
	}
}

// VisitSplittingPlanes calls visitor for every inner node with its cut clipped
// to the node's voxel and the node's depth (root is 0). Meant for debug drawing.
func (t *KDTree) VisitSplittingPlanes(visitor func(plane geom.Segment, depth int)) {
	if t.root == nil {
		return
	}
	var walk func(node kdNode, depth int)
	walk = func(node kdNode, depth int) {
		inner, ok := node.(*kdInner)
		if !ok {
			return
		}
		visitor(planeSegment(inner), depth)
		walk(inner.left, depth+1)
		walk(inner.right, depth+1)
	}
	walk(t.root, 0)
}

func planeSegment(n *kdInner) geom.Segment {
	v := n.plane.Value
	if n.plane.Axis == geom.AxisX {
		return geom.NewSegment(geom.Pt(v, n.voxel.Min.Y()), geom.Pt(v, n.voxel.Max.Y()))
	}
	return geom.NewSegment(geom.Pt(n.voxel.Min.X(), v), geom.Pt(n.voxel.Max.X(), v))
}

// Bounds is the voxel of the root node, empty for a tree without triangles.
func (t *KDTree) Bounds() geom.Rect {
	return t.voxel
}

func (t *KDTree) Stats() Stats {
	return t.stats
}

func (t *KDTree) Config() Config {
	return t.config
}

func (t *KDTree) Len() int {
	return len(t.triangles)
}
