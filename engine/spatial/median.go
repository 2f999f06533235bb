package spatial

import (
	"sort"

	"github.com/memmaker/visibility/engine/geom"
)

// buildMedian splits the longer side of the voxel at the midpoint of the median
// ref. It stops when a side would keep every ref, since overlaps make that
// split useless.
func (b *builder) buildMedian(refs []triangleRef, voxel geom.Rect, depth int) kdNode {
	if len(refs) <= 1 {
		return b.leaf(refs, voxel, depth, false)
	}
	if depth >= b.config.MaxDepth {
		return b.leaf(refs, voxel, depth, true)
	}

	extent := boundsOf(refs).Extent()
	axis := geom.AxisY
	if extent.X() > extent.Y() {
		axis = geom.AxisX
	}

	sorted := append([]triangleRef(nil), refs...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return axis.Of(sorted[i].bounds.Mid()) < axis.Of(sorted[j].bounds.Mid())
	})
	plane := SplittingPlane{Axis: axis, Value: axis.Of(sorted[len(sorted)/2].bounds.Mid())}

	leftRefs, rightRefs := partition(sorted, plane, true)
	if len(leftRefs) == len(refs) || len(rightRefs) == len(refs) {
		return b.leaf(refs, voxel, depth, false)
	}

	leftVoxel, rightVoxel := voxel.SplitAt(plane.Axis, plane.Value)
	return &kdInner{
		voxel: voxel,
		plane: plane,
		left:  b.buildMedian(leftRefs, leftVoxel, depth+1),
		right: b.buildMedian(rightRefs, rightVoxel, depth+1),
	}
}
