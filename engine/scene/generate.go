package scene

import (
	"fmt"

	"github.com/memmaker/visibility/engine/geom"
	"github.com/memmaker/visibility/engine/util"
	"github.com/ojrac/opensimplex-go"
	"github.com/pkg/errors"
)

// CityOptions lays out a grid of blocks separated by streets. A block gets a
// building when the noise at its center exceeds Threshold.
type CityOptions struct {
	Rows, Cols int
	// BlockSize is the distance between street centers.
	BlockSize float64
	// Street is the width of the gap left around every block.
	Street    float64
	Threshold float64
	// Frequency scales block indices before sampling the noise.
	Frequency float64
}

func DefaultCityOptions() CityOptions {
	return CityOptions{
		Rows:      32,
		Cols:      32,
		BlockSize: 20,
		Street:    6,
		Threshold: -0.2,
		Frequency: 0.35,
	}
}

func (o CityOptions) Validate() error {
	if o.Rows <= 0 || o.Cols <= 0 {
		return errors.Errorf("city needs at least one block, got %dx%d", o.Cols, o.Rows)
	}
	if !(o.BlockSize > 0) {
		return errors.Errorf("block size must be positive, got %v", o.BlockSize)
	}
	if !(o.Street >= 0) || o.Street >= o.BlockSize {
		return errors.Errorf("street width must be in [0, %v), got %v", o.BlockSize, o.Street)
	}
	return nil
}

// GenerateCity builds a deterministic city for seed: rectangular footprints
// as two triangles each, and a waypoint at every street crossing.
func GenerateCity(seed int64, opts CityOptions) (*Scene, error) {
	if err := opts.Validate(); err != nil {
		return nil, errors.Wrap(err, "generating city")
	}
	noise := opensimplex.New(seed)
	s := &Scene{Name: fmt.Sprintf("city-%d", seed)}

	half := opts.Street / 2
	for row := 0; row < opts.Rows; row++ {
		for col := 0; col < opts.Cols; col++ {
			density := noise.Eval2(float64(col)*opts.Frequency, float64(row)*opts.Frequency)
			if density <= opts.Threshold {
				continue
			}
			x, y := float64(col)*opts.BlockSize, float64(row)*opts.BlockSize
			// a second sample, far away from the first, shrinks some buildings
			inset := (noise.Eval2(float64(col)*opts.Frequency+1000, float64(row)*opts.Frequency+1000) + 1) / 2
			inset *= (opts.BlockSize - opts.Street) / 4
			footprint := Rectangle(
				geom.Pt(x+half+inset, y+half+inset),
				geom.Pt(x+opts.BlockSize-half-inset, y+opts.BlockSize-half-inset),
			)
			triangles, err := FanTriangulate(footprint)
			if err != nil {
				return nil, errors.Wrapf(err, "block %d,%d", col, row)
			}
			s.Triangles = append(s.Triangles, triangles...)
		}
	}
	for row := 0; row <= opts.Rows; row++ {
		for col := 0; col <= opts.Cols; col++ {
			s.Waypoints = append(s.Waypoints, geom.Pt(float64(col)*opts.BlockSize, float64(row)*opts.BlockSize))
		}
	}
	util.LogSceneInfo(fmt.Sprintf("[Scene] generated %s", s))
	return s, nil
}
