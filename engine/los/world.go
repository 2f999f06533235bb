// Package los answers line-of-sight questions on top of a spatial index:
// single checks, all-pairs visibility matrices and routes that only move
// between mutually visible waypoints.
package los

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"github.com/memmaker/visibility/engine/geom"
	"github.com/memmaker/visibility/engine/spatial"
	"github.com/memmaker/visibility/engine/util"
	"github.com/pkg/errors"
)

// World wraps an index of obstacles. It holds no mutable state, so a World
// may be shared between goroutines as long as its index may.
type World struct {
	index   spatial.Index
	workers int
}

// NewWorld uses workers goroutines for Matrix; zero or less means one per CPU.
func NewWorld(index spatial.Index, workers int) *World {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &World{index: index, workers: workers}
}

// FirstObstacle returns the point closest to from where the sight line to
// target touches an obstacle. An observer standing inside an obstacle is
// blocked at its own position.
func (w *World) FirstObstacle(from, target geom.Point) (geom.Point, bool, error) {
	p, ok, err := spatial.Query(w.index, geom.NewSegment(from, target))
	if err != nil {
		return geom.Point{}, false, errors.Wrapf(err, "line of sight %v -> %v", from, target)
	}
	return p, ok, nil
}

// CanSee reports whether nothing lies between from and target. Touching a
// corner or an edge blocks the view.
func (w *World) CanSee(from, target geom.Point) (bool, error) {
	if from == target {
		return true, nil
	}
	_, blocked, err := w.FirstObstacle(from, target)
	if err != nil {
		return false, err
	}
	return !blocked, nil
}

// Matrix is the pairwise visibility of a fixed list of observers.
type Matrix struct {
	visible [][]bool
}

func (m Matrix) Len() int {
	return len(m.visible)
}

func (m Matrix) CanSee(observer, other int) bool {
	return m.visible[observer][other]
}

// VisibleFrom lists the other observers that observer can see, in index order.
func (m Matrix) VisibleFrom(observer int) []int {
	result := make([]int, 0)
	for other, isVisible := range m.visible[observer] {
		if isVisible && other != observer {
			result = append(result, other)
		}
	}
	return result
}

// PairCount is the number of distinct pairs that see each other.
func (m Matrix) PairCount() int {
	count := 0
	for i := range m.visible {
		for j := i + 1; j < len(m.visible); j++ {
			if m.visible[i][j] {
				count++
			}
		}
	}
	return count
}

// Matrix checks every pair of observers once and mirrors the answer; sight
// lines have no direction in the plane. Rows are spread over the workers.
func (w *World) Matrix(ctx context.Context, observers []geom.Point) (Matrix, error) {
	n := len(observers)
	m := Matrix{visible: make([][]bool, n)}
	for i := range m.visible {
		m.visible[i] = make([]bool, n)
		m.visible[i][i] = true
	}

	rows := make(chan int)
	var wg sync.WaitGroup
	var errOnce sync.Once
	var firstErr error
	parent := ctx
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	for worker := 0; worker < w.workers; worker++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range rows {
				for j := i + 1; j < n; j++ {
					// cell [j][i] with i < j is only written by the owner of row i
					visible, err := w.CanSee(observers[i], observers[j])
					if err != nil {
						errOnce.Do(func() {
							firstErr = errors.Wrapf(err, "observers %d and %d", i, j)
							cancel()
						})
						break
					}
					m.visible[i][j] = visible
					m.visible[j][i] = visible
				}
			}
		}()
	}

feed:
	for i := 0; i < n; i++ {
		select {
		case rows <- i:
		case <-ctx.Done():
			break feed
		}
	}
	close(rows)
	wg.Wait()

	if firstErr != nil {
		util.LogSightError(firstErr.Error())
		return Matrix{}, firstErr
	}
	if err := parent.Err(); err != nil {
		return Matrix{}, errors.Wrap(err, "visibility matrix")
	}
	util.LogSightDebug(fmt.Sprintf("[LOS] matrix of %d observers: %d visible pairs", n, m.PairCount()))
	return m, nil
}
