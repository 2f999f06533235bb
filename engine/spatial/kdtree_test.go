package spatial

import (
	"math"
	"math/rand"
	"sync"
	"testing"

	"github.com/memmaker/visibility/engine/geom"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const pointTolerance = 1e-6

// randomTriangles scatters n small triangles over [0, extent]².
func randomTriangles(rng *rand.Rand, n int, size, extent float64) []geom.Triangle {
	triangles := make([]geom.Triangle, n)
	for i := range triangles {
		anchor := geom.Pt(rng.Float64()*extent, rng.Float64()*extent)
		jitter := func() geom.Point {
			return anchor.Add(geom.Pt((rng.Float64()-0.5)*size, (rng.Float64()-0.5)*size))
		}
		triangles[i] = geom.NewTriangle(jitter(), jitter(), jitter())
	}
	return triangles
}

// gridBlocks places axis-aligned squares split into two triangles each, which
// puts many vertices and edges exactly on candidate planes.
func gridBlocks(rows, cols int, spacing, size float64) []geom.Triangle {
	var triangles []geom.Triangle
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			x, y := float64(c)*spacing, float64(r)*spacing
			a, b := geom.Pt(x, y), geom.Pt(x+size, y)
			cc, d := geom.Pt(x+size, y+size), geom.Pt(x, y+size)
			triangles = append(triangles, geom.NewTriangle(a, b, cc), geom.NewTriangle(a, cc, d))
		}
	}
	return triangles
}

func randomSegment(rng *rand.Rand, extent float64) geom.Segment {
	return geom.NewSegment(
		geom.Pt(rng.Float64()*extent, rng.Float64()*extent),
		geom.Pt(rng.Float64()*extent, rng.Float64()*extent),
	)
}

func requireSameAnswer(t *testing.T, expected, actual Index, s geom.Segment) {
	t.Helper()
	want, wantOk := expected.Intersect(s)
	got, gotOk := actual.Intersect(s)
	require.Equal(t, wantOk, gotOk, "hit disagreement for %v: naive %v, tree %v", s, want, got)
	if wantOk {
		require.True(t, geom.ApproxEqual(want, got, pointTolerance), "for %v expected %v, got %v", s, want, got)
	}
}

func TestEmptyTree(t *testing.T) {
	tree, err := NewKDTree(nil)
	require.NoError(t, err)
	naive := NewNaive(nil)

	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 100; i++ {
		s := randomSegment(rng, 10)
		_, ok := tree.Intersect(s)
		assert.False(t, ok)
		_, ok = naive.Intersect(s)
		assert.False(t, ok)
	}
	assert.True(t, tree.Bounds().IsEmpty())
	assert.Equal(t, Stats{}, tree.Stats())
	tree.VisitSplittingPlanes(func(geom.Segment, int) {
		t.Fatal("empty tree has no planes")
	})
}

func TestReferenceTriangleScenario(t *testing.T) {
	triangles := []geom.Triangle{geom.NewTriangle(geom.Pt(0, 5), geom.Pt(2, 1), geom.Pt(5, 0))}
	tree, err := NewKDTree(triangles)
	require.NoError(t, err)

	for _, idx := range []Index{tree, NewNaive(triangles)} {
		p, ok := idx.Intersect(geom.NewSegment(geom.Pt(0, 0), geom.Pt(5, 5)))
		require.True(t, ok)
		assert.True(t, geom.ApproxEqual(geom.Pt(5.0/3.0, 5.0/3.0), p, 1e-9))

		_, ok = idx.Intersect(geom.NewSegment(geom.Pt(0, 0), geom.Pt(-5, 5)))
		assert.False(t, ok)
	}
}

func TestKDTreeMatchesNaive(t *testing.T) {
	scenes := map[string][]geom.Triangle{
		"random":   randomTriangles(rand.New(rand.NewSource(42)), 600, 3, 100),
		"dense":    randomTriangles(rand.New(rand.NewSource(43)), 400, 20, 50),
		"blocks":   gridBlocks(12, 12, 8, 5),
		"touching": gridBlocks(6, 6, 5, 5),
	}
	for _, strategy := range []Strategy{StrategySAH, StrategyMedian} {
		for name, triangles := range scenes {
			t.Run(string(strategy)+"/"+name, func(t *testing.T) {
				tree, err := NewKDTree(triangles, WithStrategy(strategy))
				require.NoError(t, err)
				naive := NewNaive(triangles)
				extent := tree.Bounds().Max.X() + 5

				rng := rand.New(rand.NewSource(99))
				for i := 0; i < 5000; i++ {
					requireSameAnswer(t, naive, tree, randomSegment(rng, extent))
				}
			})
		}
	}
}

func TestKDTreeMatchesNaiveOnGridAlignedSegments(t *testing.T) {
	triangles := gridBlocks(8, 8, 10, 6)
	tree, err := NewKDTree(triangles)
	require.NoError(t, err)
	naive := NewNaive(triangles)

	// endpoints on integer coordinates land exactly on splitting planes
	rng := rand.New(rand.NewSource(5))
	for i := 0; i < 5000; i++ {
		s := geom.NewSegment(
			geom.Pt(float64(rng.Intn(80)), float64(rng.Intn(80))),
			geom.Pt(float64(rng.Intn(80)), float64(rng.Intn(80))),
		)
		requireSameAnswer(t, naive, tree, s)
	}
}

func TestHitIsNearestAndOnItsTriangle(t *testing.T) {
	triangles := randomTriangles(rand.New(rand.NewSource(11)), 300, 6, 60)
	tree, err := NewKDTree(triangles)
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(12))
	for i := 0; i < 2000; i++ {
		s := randomSegment(rng, 60)
		hit, ok := tree.IntersectWithDistance(s)

		minDistance := math.Inf(1)
		var nearest geom.Triangle
		for _, tri := range triangles {
			if h, hitOk := s.IntersectTriangle(tri); hitOk && h.Distance < minDistance {
				minDistance = h.Distance
				nearest = tri
			}
		}
		if math.IsInf(minDistance, 1) {
			require.False(t, ok, "tree reported %v for %v but no triangle is hit", hit.Point, s)
			continue
		}
		require.True(t, ok)
		assert.InDelta(t, minDistance, hit.Distance, pointTolerance)
		assert.InDelta(t, geom.Distance(s.Start(), hit.Point), hit.Distance, pointTolerance)
		if math.Abs(nearest.Area2()) > 1e-3 {
			wa, wb, wc, _ := nearest.Barycentric(hit.Point)
			assert.Greater(t, wa, -1e-6)
			assert.Greater(t, wb, -1e-6)
			assert.Greater(t, wc, -1e-6)
		}
	}
}

func TestZeroLengthSegmentMisses(t *testing.T) {
	triangles := []geom.Triangle{geom.NewTriangle(geom.Pt(0, 0), geom.Pt(10, 0), geom.Pt(0, 10))}
	tree, err := NewKDTree(triangles)
	require.NoError(t, err)
	s := geom.NewSegment(geom.Pt(1, 1), geom.Pt(1, 1))
	_, ok := tree.Intersect(s)
	assert.False(t, ok)
	_, ok = NewNaive(triangles).Intersect(s)
	assert.False(t, ok)
}

func TestDegenerateAndPlanarTriangles(t *testing.T) {
	rng := rand.New(rand.NewSource(21))
	triangles := randomTriangles(rng, 200, 4, 40)
	for i := 0; i < 60; i++ {
		x, y := rng.Float64()*40, rng.Float64()*40
		triangles = append(triangles,
			// flat along Y: a horizontal sliver
			geom.NewTriangle(geom.Pt(x, y), geom.Pt(x+3, y), geom.Pt(x+1, y)),
			// flat along X: a vertical sliver
			geom.NewTriangle(geom.Pt(x, y), geom.Pt(x, y+3), geom.Pt(x, y+2)),
			// a single point
			geom.NewTriangle(geom.Pt(x, y), geom.Pt(x, y), geom.Pt(x, y)),
		)
	}
	naive := NewNaive(triangles)
	for _, strategy := range []Strategy{StrategySAH, StrategyMedian} {
		tree, err := NewKDTree(triangles, WithStrategy(strategy))
		require.NoError(t, err)
		segRng := rand.New(rand.NewSource(22))
		for i := 0; i < 3000; i++ {
			requireSameAnswer(t, naive, tree, randomSegment(segRng, 45))
		}
	}
}

func TestBuildIsDeterministic(t *testing.T) {
	triangles := randomTriangles(rand.New(rand.NewSource(31)), 500, 5, 80)
	first, err := NewKDTree(triangles)
	require.NoError(t, err)
	second, err := NewKDTree(triangles)
	require.NoError(t, err)
	assert.Equal(t, first.Stats(), second.Stats())

	rng := rand.New(rand.NewSource(32))
	for i := 0; i < 2000; i++ {
		s := randomSegment(rng, 80)
		p1, ok1 := first.Intersect(s)
		p2, ok2 := second.Intersect(s)
		require.Equal(t, ok1, ok2)
		require.Equal(t, p1, p2)
	}
}

func TestBuildDoesNotKeepCallerSlice(t *testing.T) {
	triangles := []geom.Triangle{geom.NewTriangle(geom.Pt(0, 0), geom.Pt(4, 0), geom.Pt(0, 4))}
	tree, err := NewKDTree(triangles)
	require.NoError(t, err)
	triangles[0] = geom.NewTriangle(geom.Pt(100, 100), geom.Pt(101, 100), geom.Pt(100, 101))

	_, ok := tree.Intersect(geom.NewSegment(geom.Pt(-1, 1), geom.Pt(5, 1)))
	assert.True(t, ok)
}

func TestMaxDepthZeroIsSingleLeaf(t *testing.T) {
	triangles := randomTriangles(rand.New(rand.NewSource(3)), 100, 2, 30)
	tree, err := NewKDTree(triangles, WithMaxDepth(0))
	require.NoError(t, err)
	stats := tree.Stats()
	assert.Equal(t, 1, stats.Nodes)
	assert.Equal(t, 1, stats.Leaves)
	assert.Equal(t, 1, stats.TruncatedLeaves)
	assert.Equal(t, 100, stats.Refs)
	assert.Equal(t, 0, stats.MaxDepth)

	requireSameAnswer(t, NewNaive(triangles), tree, geom.NewSegment(geom.Pt(0, 0), geom.Pt(30, 30)))
}

func TestDepthLimitIsRespected(t *testing.T) {
	triangles := randomTriangles(rand.New(rand.NewSource(4)), 2000, 1, 200)
	tree, err := NewKDTree(triangles, WithMaxDepth(4))
	require.NoError(t, err)
	assert.LessOrEqual(t, tree.Stats().MaxDepth, 4)
	assert.Greater(t, tree.Stats().TruncatedLeaves, 0)
}

func TestSplitsSeparateClusters(t *testing.T) {
	var triangles []geom.Triangle
	for i := 0; i < 20; i++ {
		triangles = append(triangles,
			geom.NewTriangle(geom.Pt(0, 0), geom.Pt(1, 0), geom.Pt(0, 10)),
			geom.NewTriangle(geom.Pt(9, 0), geom.Pt(10, 0), geom.Pt(10, 10)),
		)
	}
	tree, err := NewKDTree(triangles)
	require.NoError(t, err)
	root, ok := tree.root.(*kdInner)
	require.True(t, ok, "root should be split")
	assert.Equal(t, geom.AxisX, root.plane.Axis)
	assert.GreaterOrEqual(t, root.plane.Value, 1.0)
	assert.LessOrEqual(t, root.plane.Value, 9.0)
}

func TestNodesAtMaxDepthBecomeLeaves(t *testing.T) {
	var triangles []geom.Triangle
	for i := 0; i < 20; i++ {
		triangles = append(triangles,
			geom.NewTriangle(geom.Pt(0, 0), geom.Pt(1, 0), geom.Pt(0, 10)),
			geom.NewTriangle(geom.Pt(9, 0), geom.Pt(10, 0), geom.Pt(10, 10)),
		)
	}
	tree, err := NewKDTree(triangles, WithMaxDepth(1))
	require.NoError(t, err)
	stats := tree.Stats()
	assert.Equal(t, 3, stats.Nodes)
	assert.Equal(t, 2, stats.Leaves)
	assert.Equal(t, 2, stats.TruncatedLeaves)
	assert.Equal(t, 1, stats.MaxDepth)
}

func TestSingleTriangleIsLeaf(t *testing.T) {
	tree, err := NewKDTree([]geom.Triangle{geom.NewTriangle(geom.Pt(0, 0), geom.Pt(1, 0), geom.Pt(0, 1))})
	require.NoError(t, err)
	_, isLeaf := tree.root.(*kdLeaf)
	assert.True(t, isLeaf)
}

func TestNonFiniteTriangleFailsBuild(t *testing.T) {
	triangles := []geom.Triangle{
		geom.NewTriangle(geom.Pt(0, 0), geom.Pt(1, 0), geom.Pt(0, 1)),
		geom.NewTriangle(geom.Pt(0, 0), geom.Pt(math.Inf(1), 0), geom.Pt(0, 1)),
	}
	tree, err := NewKDTree(triangles)
	assert.Error(t, err)
	assert.Nil(t, tree)
	assert.Contains(t, err.Error(), "triangle 1")
}

func TestInvalidConfigFailsBuild(t *testing.T) {
	_, err := NewKDTree(nil, WithStrategy("octree"))
	assert.Error(t, err)
	_, err = NewKDTree(nil, WithCosts(0, 1))
	assert.Error(t, err)
	_, err = NewKDTree(nil, WithMaxDepth(-1))
	assert.Error(t, err)
}

func TestVisitSplittingPlanes(t *testing.T) {
	triangles := randomTriangles(rand.New(rand.NewSource(8)), 400, 3, 100)
	tree, err := NewKDTree(triangles)
	require.NoError(t, err)

	bounds := tree.Bounds()
	visited := 0
	tree.VisitSplittingPlanes(func(plane geom.Segment, depth int) {
		visited++
		assert.GreaterOrEqual(t, depth, 0)
		assert.LessOrEqual(t, depth, tree.Stats().MaxDepth)
		assert.True(t, bounds.Contains(plane.Start()), "plane %v outside %v", plane, bounds)
		assert.True(t, bounds.Contains(plane.End()), "plane %v outside %v", plane, bounds)
		vertical := plane.Start().X() == plane.End().X()
		horizontal := plane.Start().Y() == plane.End().Y()
		assert.True(t, vertical || horizontal)
	})
	stats := tree.Stats()
	assert.Equal(t, stats.Nodes-stats.Leaves, visited)
	assert.Greater(t, visited, 0)
}

func TestTreeInvariants(t *testing.T) {
	triangles := randomTriangles(rand.New(rand.NewSource(9)), 500, 8, 100)
	for _, strategy := range []Strategy{StrategySAH, StrategyMedian} {
		tree, err := NewKDTree(triangles, WithStrategy(strategy))
		require.NoError(t, err)

		var check func(node kdNode)
		check = func(node kdNode) {
			switch n := node.(type) {
			case *kdLeaf:
				for _, r := range n.refs {
					assert.True(t, n.voxel.ContainsRect(r.bounds), "ref %v escapes voxel %v", r.bounds, n.voxel)
				}
			case *kdInner:
				axis, v := n.plane.Axis, n.plane.Value
				assert.Equal(t, v, axis.Of(n.left.bounds().Max))
				assert.Equal(t, v, axis.Of(n.right.bounds().Min))
				assert.True(t, n.voxel.ContainsRect(n.left.bounds()))
				assert.True(t, n.voxel.ContainsRect(n.right.bounds()))
				check(n.left)
				check(n.right)
			}
		}
		check(tree.root)
	}
}

func TestPartitionKeepsOverlappingRefs(t *testing.T) {
	one := geom.NewTriangle(geom.Pt(0, 0), geom.Pt(6, 0), geom.Pt(0, 6))
	two := geom.NewTriangle(geom.Pt(2, 1), geom.Pt(8, 1), geom.Pt(8, 5))
	refs := []triangleRef{
		{triangle: &one, bounds: one.Bounds()},
		{triangle: &two, bounds: two.Bounds()},
	}
	plane := SplittingPlane{Axis: geom.AxisX, Value: 4}
	left, right := partition(refs, plane, true)

	assert.GreaterOrEqual(t, len(left)+len(right), len(refs))
	seen := map[*geom.Triangle]bool{}
	for _, r := range left {
		seen[r.triangle] = true
		assert.LessOrEqual(t, r.bounds.Max.X(), 4.0)
	}
	for _, r := range right {
		seen[r.triangle] = true
		assert.GreaterOrEqual(t, r.bounds.Min.X(), 4.0)
	}
	assert.True(t, seen[&one])
	assert.True(t, seen[&two])

	// both straddle, so both land on both sides with tightened bounds
	require.Len(t, left, 2)
	require.Len(t, right, 2)
	assert.Equal(t, 4.0, right[0].bounds.Min.X())
	assert.InDelta(t, 6.0, right[0].bounds.Max.X(), 1e-12)
	assert.InDelta(t, 0.0, right[0].bounds.Min.Y(), 1e-12)
	assert.InDelta(t, 2.0, right[0].bounds.Max.Y(), 1e-12)
}

func TestPartitionPlanarPlacement(t *testing.T) {
	flat := geom.NewTriangle(geom.Pt(3, 0), geom.Pt(3, 4), geom.Pt(3, 2))
	refs := []triangleRef{{triangle: &flat, bounds: flat.Bounds()}}
	plane := SplittingPlane{Axis: geom.AxisX, Value: 3}

	left, right := partition(refs, plane, true)
	assert.Len(t, left, 1)
	assert.Empty(t, right)

	left, right = partition(refs, plane, false)
	assert.Empty(t, left)
	assert.Len(t, right, 1)
}

func TestCollectEventsOrdering(t *testing.T) {
	a := geom.NewTriangle(geom.Pt(0, 0), geom.Pt(2, 0), geom.Pt(0, 1))
	b := geom.NewTriangle(geom.Pt(2, 0), geom.Pt(2, 1), geom.Pt(2, 3))
	c := geom.NewTriangle(geom.Pt(2, 0), geom.Pt(5, 0), geom.Pt(5, 1))
	refs := []triangleRef{
		{triangle: &c, bounds: c.Bounds()},
		{triangle: &b, bounds: b.Bounds()},
		{triangle: &a, bounds: a.Bounds()},
	}
	voxel := boundsOf(refs)
	events := collectEvents(refs, voxel, geom.AxisX, nil)
	require.Len(t, events, 5)
	assert.Equal(t, []splitEvent{
		{position: 0, kind: eventStart},
		{position: 2, kind: eventEnd},
		{position: 2, kind: eventPlanar},
		{position: 2, kind: eventStart},
		{position: 5, kind: eventEnd},
	}, events)
}

func TestSplitCostPrefersCheaperPlanarSide(t *testing.T) {
	b := &builder{config: DefaultConfig()}
	voxel := geom.NewRect(geom.Pt(0, 0), geom.Pt(10, 10))
	// a cut near the left wall: the planar refs are cheaper in the small left voxel
	cost, planarLeft := b.splitCost(voxel, SplittingPlane{Axis: geom.AxisX, Value: 1}, 0, 10, 4)
	assert.True(t, planarLeft)
	pl, pr := 22.0/40.0, 38.0/40.0
	assert.InDelta(t, 15+20*(pl*4+pr*10), cost, 1e-9)

	_, planarLeft = b.splitCost(voxel, SplittingPlane{Axis: geom.AxisX, Value: 9}, 10, 0, 4)
	assert.False(t, planarLeft)
}

func TestConcurrentQueries(t *testing.T) {
	triangles := randomTriangles(rand.New(rand.NewSource(50)), 800, 4, 120)
	tree, err := NewKDTree(triangles)
	require.NoError(t, err)
	naive := NewNaive(triangles)

	rng := rand.New(rand.NewSource(51))
	segments := make([]geom.Segment, 4000)
	type answer struct {
		p  geom.Point
		ok bool
	}
	expected := make([]answer, len(segments))
	for i := range segments {
		segments[i] = randomSegment(rng, 120)
		p, ok := naive.Intersect(segments[i])
		expected[i] = answer{p, ok}
	}

	const workers = 8
	mismatches := make([]int, workers)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := w; i < len(segments); i += workers {
				p, ok := tree.Intersect(segments[i])
				if ok != expected[i].ok || (ok && !geom.ApproxEqual(p, expected[i].p, pointTolerance)) {
					mismatches[w]++
				}
			}
		}(w)
	}
	wg.Wait()
	for w, m := range mismatches {
		assert.Zero(t, m, "worker %d", w)
	}
}

func BenchmarkBuildSAH(b *testing.B) {
	triangles := randomTriangles(rand.New(rand.NewSource(0)), 5000, 4, 500)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = NewKDTree(triangles)
	}
}

func BenchmarkBuildMedian(b *testing.B) {
	triangles := randomTriangles(rand.New(rand.NewSource(0)), 5000, 4, 500)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = NewKDTree(triangles, WithStrategy(StrategyMedian))
	}
}

func benchmarkQueries(b *testing.B, idx Index, extent float64) {
	rng := rand.New(rand.NewSource(0))
	segments := make([]geom.Segment, 4096)
	for i := range segments {
		segments[i] = randomSegment(rng, extent)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = idx.Intersect(segments[i%len(segments)])
	}
}

func BenchmarkKDTreePseudoRandomly(b *testing.B) {
	tree, err := NewKDTree(randomTriangles(rand.New(rand.NewSource(0)), 5000, 4, 500))
	require.NoError(b, err)
	benchmarkQueries(b, tree, 500)
}

func BenchmarkNaivePseudoRandomly(b *testing.B) {
	benchmarkQueries(b, NewNaive(randomTriangles(rand.New(rand.NewSource(0)), 5000, 4, 500)), 500)
}

func BenchmarkKDTreeNoIntersection(b *testing.B) {
	tree, err := NewKDTree(gridBlocks(40, 40, 10, 4))
	require.NoError(b, err)
	// runs along the empty street between two block rows
	s := geom.NewSegment(geom.Pt(-5, 7), geom.Pt(405, 7))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = tree.Intersect(s)
	}
}
