package spatial

import (
	"math"
	"sort"

	"github.com/memmaker/visibility/engine/geom"
)

type eventKind int

// The order matters: at equal positions ends are swept before planar refs,
// and planar refs before starts.
const (
	eventEnd eventKind = iota
	eventPlanar
	eventStart
)

type splitEvent struct {
	position float64
	kind     eventKind
}

// splitCandidate is the cheapest plane found so far.
type splitCandidate struct {
	plane      SplittingPlane
	cost       float64
	planarLeft bool
}

// collectEvents emits one planar event for a ref that is flat along axis,
// a start and an end event otherwise, all clipped to the voxel.
func collectEvents(refs []triangleRef, voxel geom.Rect, axis geom.Axis, events []splitEvent) []splitEvent {
	events = events[:0]
	vmin, vmax := axis.Of(voxel.Min), axis.Of(voxel.Max)
	for _, r := range refs {
		lo := math.Max(axis.Of(r.bounds.Min), vmin)
		hi := math.Min(axis.Of(r.bounds.Max), vmax)
		if lo == hi {
			events = append(events, splitEvent{position: lo, kind: eventPlanar})
			continue
		}
		events = append(events,
			splitEvent{position: lo, kind: eventStart},
			splitEvent{position: hi, kind: eventEnd},
		)
	}
	sort.Slice(events, func(i, j int) bool {
		if events[i].position != events[j].position {
			return events[i].position < events[j].position
		}
		return events[i].kind < events[j].kind
	})
	return events
}

// findPlane sweeps the events of both axes and returns the split with the lowest SAH cost.
// ok is false when the voxel has no extent to split.
func (b *builder) findPlane(refs []triangleRef, voxel geom.Rect) (best splitCandidate, ok bool) {
	if voxel.Perimeter() == 0 {
		return best, false
	}
	best.cost = math.Inf(1)
	for _, axis := range []geom.Axis{geom.AxisX, geom.AxisY} {
		b.events = collectEvents(refs, voxel, axis, b.events)
		events := b.events

		nleft, nright := 0, len(refs)
		for i := 0; i < len(events); {
			position := events[i].position
			ending, planar, starting := 0, 0, 0
			for i < len(events) && events[i].position == position && events[i].kind == eventEnd {
				ending++
				i++
			}
			for i < len(events) && events[i].position == position && events[i].kind == eventPlanar {
				planar++
				i++
			}
			for i < len(events) && events[i].position == position && events[i].kind == eventStart {
				starting++
				i++
			}

			nright -= planar + ending
			plane := SplittingPlane{Axis: axis, Value: position}
			cost, planarLeft := b.splitCost(voxel, plane, nleft, nright, planar)
			if cost < best.cost {
				best = splitCandidate{plane: plane, cost: cost, planarLeft: planarLeft}
				ok = true
			}
			nleft += starting + planar
		}
	}
	return best, ok
}

// splitCost evaluates Kt + Ki*(pL*nL + pR*nR) with the planar refs on either side
// and returns the cheaper placement. Empty sides get no discount.
func (b *builder) splitCost(voxel geom.Rect, plane SplittingPlane, nleft, nright, nplanar int) (float64, bool) {
	left, right := voxel.SplitAt(plane.Axis, plane.Value)
	total := voxel.Perimeter()
	pLeft := left.Perimeter() / total
	pRight := right.Perimeter() / total

	kt, ki := b.config.TraversalCost, b.config.IntersectionCost
	planarLeftCost := kt + ki*(pLeft*float64(nleft+nplanar)+pRight*float64(nright))
	planarRightCost := kt + ki*(pLeft*float64(nleft)+pRight*float64(nright+nplanar))
	if planarLeftCost <= planarRightCost {
		return planarLeftCost, true
	}
	return planarRightCost, false
}

// buildSAH recurses until splitting stops paying off, the depth limit is hit
// or a split is no cheaper than the one that produced this voxel.
func (b *builder) buildSAH(refs []triangleRef, voxel geom.Rect, depth int, parentCost float64) kdNode {
	if depth >= b.config.MaxDepth {
		return b.leaf(refs, voxel, depth, true)
	}
	best, ok := b.findPlane(refs, voxel)
	if !ok || best.cost >= b.config.IntersectionCost*float64(len(refs)) || best.cost >= parentCost {
		return b.leaf(refs, voxel, depth, false)
	}

	leftRefs, rightRefs := partition(refs, best.plane, best.planarLeft)
	leftVoxel, rightVoxel := voxel.SplitAt(best.plane.Axis, best.plane.Value)
	return &kdInner{
		voxel: voxel,
		plane: best.plane,
		left:  b.buildSAH(leftRefs, leftVoxel, depth+1, best.cost),
		right: b.buildSAH(rightRefs, rightVoxel, depth+1, best.cost),
	}
}
