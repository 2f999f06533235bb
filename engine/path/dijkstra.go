package path

import (
	"math"
)

// DijkstraSource describes a graph lazily: neighbors are produced on demand.
type DijkstraSource[T any] interface {
	GetNeighbors(node T) []T
	GetCost(currentNode T, neighbor T) float64
}

// Dijkstra computes the cheapest cost from source to every node reachable
// within maxCost. prev maps each reached node to its predecessor.
func Dijkstra[T comparable](source T, maxCost float64, dataSource DijkstraSource[T]) (dist map[T]float64, prev map[T]T) {
	dist = make(map[T]float64)
	prev = make(map[T]T)
	nodes := make(map[T]*PqItem[T])
	settled := make(map[T]bool)
	getDist := func(n T) float64 {
		if d, ok := dist[n]; ok {
			return d
		}
		return math.Inf(1)
	}

	start := NewNode(source)
	nodes[source] = start
	dist[source] = 0
	q := NewPriorityQueue([]PathNode[T]{start})
	for !q.IsEmpty() {
		current := q.PopMin().GetValue()
		if settled[current] {
			continue
		}
		settled[current] = true
		for _, neighbor := range dataSource.GetNeighbors(current) {
			if settled[neighbor] {
				continue
			}
			cost := dataSource.GetCost(current, neighbor)
			if cost < 0 || math.IsInf(cost, 1) || math.IsNaN(cost) {
				continue
			}
			neighborDist := dist[current] + cost
			if neighborDist > maxCost || neighborDist >= getDist(neighbor) {
				continue
			}
			dist[neighbor] = neighborDist
			prev[neighbor] = current
			node, ok := nodes[neighbor]
			if !ok {
				node = NewNode(neighbor)
				nodes[neighbor] = node
			}
			q.Update(node, neighborDist)
		}
	}
	return dist, prev
}

// ShortestPath walks prev back from target. It returns nil if target was not reached.
func ShortestPath[T comparable](source, target T, prev map[T]T) []T {
	if source == target {
		return []T{source}
	}
	if _, ok := prev[target]; !ok {
		return nil
	}
	path := []T{target}
	for current := target; current != source; {
		current = prev[current]
		path = append(path, current)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}
