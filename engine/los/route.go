package los

import (
	"fmt"
	"math"

	"github.com/memmaker/visibility/engine/geom"
	"github.com/memmaker/visibility/engine/path"
	"github.com/memmaker/visibility/engine/util"
	"github.com/pkg/errors"
)

var ErrNoRoute = errors.New("no route between the points")

// visibilityGraph connects nodes that see each other. Node 0 is the start,
// node 1 the goal, the rest are waypoints. Neighbors are computed on demand.
type visibilityGraph struct {
	world     *World
	nodes     []geom.Point
	neighbors map[int][]int
	err       error
}

func (g *visibilityGraph) GetNeighbors(node int) []int {
	if cached, ok := g.neighbors[node]; ok {
		return cached
	}
	var result []int
	for other := range g.nodes {
		if other == node || g.err != nil {
			continue
		}
		visible, err := g.world.CanSee(g.nodes[node], g.nodes[other])
		if err != nil {
			g.err = err
			continue
		}
		if visible {
			result = append(result, other)
		}
	}
	g.neighbors[node] = result
	return result
}

func (g *visibilityGraph) GetCost(current, neighbor int) float64 {
	return geom.Distance(g.nodes[current], g.nodes[neighbor])
}

// Route finds the shortest polyline from start to goal whose legs are all
// clear sight lines, turning only at waypoints. It returns ErrNoRoute when
// the waypoints do not connect the two points.
func (w *World) Route(start, goal geom.Point, waypoints []geom.Point) ([]geom.Point, float64, error) {
	graph := &visibilityGraph{
		world:     w,
		nodes:     append([]geom.Point{start, goal}, waypoints...),
		neighbors: make(map[int][]int),
	}
	dist, prev := path.Dijkstra[int](0, math.Inf(1), graph)
	if graph.err != nil {
		return nil, 0, errors.Wrap(graph.err, "routing")
	}
	nodes := path.ShortestPath(0, 1, prev)
	if nodes == nil {
		return nil, 0, errors.Wrapf(ErrNoRoute, "%v -> %v over %d waypoints", start, goal, len(waypoints))
	}
	route := make([]geom.Point, len(nodes))
	for i, node := range nodes {
		route[i] = graph.nodes[node]
	}
	util.LogSightDebug(fmt.Sprintf("[LOS] route %v -> %v: %d legs, length %.2f", start, goal, len(route)-1, dist[1]))
	return route, dist[1], nil
}
