// Package scene loads, saves and generates the triangle soups the spatial
// index is built from.
package scene

import (
	"fmt"
	"os"
	"strconv"

	"github.com/memmaker/visibility/engine/geom"
	"github.com/memmaker/visibility/engine/util"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Scene is an immutable list of obstacle triangles plus the points of interest
// placed between them.
type Scene struct {
	Name      string
	Triangles []geom.Triangle
	Waypoints []geom.Point
}

// sceneFile is the on-disk layout. Triangles hold six coordinates, waypoints
// two, polygons an even number listing the corners of a convex footprint.
// Polygons are fan-triangulated on load and written back as triangles.
type sceneFile struct {
	Name      string   `yaml:"name"`
	Triangles []coords `yaml:"triangles"`
	Polygons  []coords `yaml:"polygons,omitempty"`
	Waypoints []coords `yaml:"waypoints,omitempty"`
}

// coords is written as a flow sequence so every shape stays on one line.
type coords []float64

func (c coords) MarshalYAML() (interface{}, error) {
	node := &yaml.Node{Kind: yaml.SequenceNode, Style: yaml.FlowStyle}
	for _, v := range c {
		node.Content = append(node.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: strconv.FormatFloat(v, 'g', -1, 64)})
	}
	return node, nil
}

func (c coords) points() []geom.Point {
	points := make([]geom.Point, len(c)/2)
	for i := range points {
		points[i] = geom.Pt(c[2*i], c[2*i+1])
	}
	return points
}

func (s *Scene) Bounds() geom.Rect {
	bounds := geom.EmptyRect
	for _, t := range s.Triangles {
		bounds = bounds.Merge(t.Bounds())
	}
	for _, p := range s.Waypoints {
		bounds = bounds.Merge(geom.RectFromPoints(p))
	}
	return bounds
}

func (s *Scene) String() string {
	return fmt.Sprintf("scene %q: %d triangles, %d waypoints, bounds %v", s.Name, len(s.Triangles), len(s.Waypoints), s.Bounds())
}

func Load(path string) (*Scene, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading scene %s", path)
	}
	s, err := Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "loading scene %s", path)
	}
	util.LogIOInfo(fmt.Sprintf("[Scene] loaded %s from %s", s, path))
	return s, nil
}

// Parse decodes a scene document. Non-finite coordinates and non-convex
// polygons are rejected; degenerate triangles are kept with a warning.
func Parse(data []byte) (*Scene, error) {
	var file sceneFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, errors.Wrap(err, "parsing scene")
	}

	s := &Scene{Name: file.Name}
	for i, raw := range file.Triangles {
		if len(raw) != 6 {
			return nil, errors.Errorf("triangle %d needs 6 coordinates, got %d", i, len(raw))
		}
		v := raw.points()
		t := geom.NewTriangle(v[0], v[1], v[2])
		if !t.Bounds().IsFinite() {
			return nil, errors.Errorf("triangle %d has non-finite coordinates: %v", i, raw)
		}
		if t.IsDegenerate() {
			util.LogSceneWarning(fmt.Sprintf("[Scene] triangle %d %v is degenerate", i, t))
		}
		s.Triangles = append(s.Triangles, t)
	}
	for i, raw := range file.Polygons {
		if len(raw)%2 != 0 {
			return nil, errors.Errorf("polygon %d has an odd number of coordinates", i)
		}
		triangles, err := FanTriangulate(Polygon(raw.points()))
		if err != nil {
			return nil, errors.Wrapf(err, "polygon %d", i)
		}
		s.Triangles = append(s.Triangles, triangles...)
	}
	for i, raw := range file.Waypoints {
		if len(raw) != 2 {
			return nil, errors.Errorf("waypoint %d needs 2 coordinates, got %d", i, len(raw))
		}
		p := geom.Pt(raw[0], raw[1])
		if !geom.IsFinitePoint(p) {
			return nil, errors.Errorf("waypoint %d has non-finite coordinates: %v", i, raw)
		}
		s.Waypoints = append(s.Waypoints, p)
	}
	util.LogSceneDebug(fmt.Sprintf("[Scene] parsed %d triangles from %d triangles and %d polygons", len(s.Triangles), len(file.Triangles), len(file.Polygons)))
	return s, nil
}

func (s *Scene) Marshal() ([]byte, error) {
	file := sceneFile{
		Name:      s.Name,
		Triangles: make([]coords, len(s.Triangles)),
	}
	for i, t := range s.Triangles {
		file.Triangles[i] = coords{t.A.X(), t.A.Y(), t.B.X(), t.B.Y(), t.C.X(), t.C.Y()}
	}
	for _, p := range s.Waypoints {
		file.Waypoints = append(file.Waypoints, coords{p.X(), p.Y()})
	}
	data, err := yaml.Marshal(&file)
	if err != nil {
		return nil, errors.Wrapf(err, "encoding scene %q", s.Name)
	}
	return data, nil
}

func (s *Scene) Save(path string) error {
	data, err := s.Marshal()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrapf(err, "writing scene %s", path)
	}
	util.LogIOInfo(fmt.Sprintf("[Scene] saved %s to %s", s, path))
	return nil
}
