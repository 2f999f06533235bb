package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"math/rand"
	"os"

	"github.com/memmaker/visibility/engine/geom"
	"github.com/memmaker/visibility/engine/los"
	"github.com/memmaker/visibility/engine/render"
	"github.com/memmaker/visibility/engine/scene"
	"github.com/memmaker/visibility/engine/spatial"
	"github.com/memmaker/visibility/engine/util"
	"github.com/pkg/errors"
)

var errMismatch = errors.New("k-d tree disagrees with the linear scan")

type appOptions struct {
	scenePath  string
	generate   int64
	citySize   int
	configPath string
	strategy   string
	queries    int
	seed       int64
	workers    int
	observers  int
	validate   bool
	renderPath string
	renderSize int
	savePath   string
	verbose    bool
}

func parseFlags(args []string, output io.Writer) (appOptions, error) {
	var opts appOptions
	flags := flag.NewFlagSet("visibility", flag.ContinueOnError)
	flags.SetOutput(output)
	flags.StringVar(&opts.scenePath, "scene", "", "scene yaml to load")
	flags.Int64Var(&opts.generate, "generate", 1, "seed for a generated city, used when -scene is empty")
	flags.IntVar(&opts.citySize, "size", 32, "blocks per side of a generated city")
	flags.StringVar(&opts.configPath, "config", "", "index config yaml")
	flags.StringVar(&opts.strategy, "strategy", "", "build strategy, sah or median (overrides -config)")
	flags.IntVar(&opts.queries, "queries", 100000, "number of pseudo-random segment queries")
	flags.Int64Var(&opts.seed, "seed", 1, "seed for the query segments")
	flags.IntVar(&opts.workers, "workers", 0, "goroutines for the visibility matrix, 0 for one per CPU")
	flags.IntVar(&opts.observers, "observers", 0, "waypoints to put into a visibility matrix")
	flags.BoolVar(&opts.validate, "validate", false, "check every query against the linear scan")
	flags.StringVar(&opts.renderPath, "render", "", "write a png of the scene and the tree")
	flags.IntVar(&opts.renderSize, "render-size", 1024, "png width in pixels")
	flags.StringVar(&opts.savePath, "save", "", "write the scene as yaml")
	flags.BoolVar(&opts.verbose, "v", false, "log everything at debug level")
	if err := flags.Parse(args); err != nil {
		return opts, err
	}
	if opts.queries < 0 {
		return opts, errors.Errorf("-queries must not be negative, got %d", opts.queries)
	}
	return opts, nil
}

func main() {
	opts, err := parseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		os.Exit(2)
	}
	if opts.verbose {
		util.GLOBAL_LOG_LEVEL = util.LogLevelDebug
		util.GLOBAL_LOG_CATEGORIES = util.LogAll
	}
	if err := run(opts, os.Stdout); err != nil {
		util.LogSystemError(fmt.Sprintf("%+v", err))
		if errors.Is(err, errMismatch) {
			os.Exit(3)
		}
		os.Exit(1)
	}
}

func run(opts appOptions, out io.Writer) error {
	timer := util.NewTimer()

	s, err := loadScene(opts)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, s)

	cfg, err := loadIndexConfig(opts)
	if err != nil {
		return err
	}
	util.LogSystemInfo(fmt.Sprintf("[App] index config %+v", cfg))

	var tree *spatial.KDTree
	timer.Measure("build "+string(cfg.Strategy), func() {
		tree, err = spatial.NewKDTree(s.Triangles, spatial.WithConfig(cfg))
	})
	if err != nil {
		return err
	}
	naive := spatial.NewNaive(s.Triangles)
	fmt.Fprintf(out, "tree (%s): %s\n", cfg.Strategy, tree.Stats())

	segments := randomSegments(s.Bounds(), opts.queries, opts.seed)
	report := newProgress(out, "queries", len(segments))
	hits, mismatches := 0, 0
	for i, seg := range segments {
		var got geom.Point
		var ok bool
		timer.Measure("query kd-tree", func() {
			got, ok, err = spatial.Query(tree, seg)
		})
		if err != nil {
			return err
		}
		if ok {
			hits++
		}
		if opts.validate {
			var want geom.Point
			var wantOk bool
			timer.Measure("query naive", func() {
				want, wantOk, err = spatial.Query(naive, seg)
			})
			if err != nil {
				return err
			}
			if ok != wantOk || (ok && !geom.ApproxEqual(got, want, 1e-6)) {
				mismatches++
				util.LogSpatialError(fmt.Sprintf("[Validate] %v: tree %v (%t), naive %v (%t)", seg, got, ok, want, wantOk))
			}
		}
		report.step(i + 1)
	}
	report.done()
	fmt.Fprintf(out, "%d of %d segments hit an obstacle\n", hits, len(segments))
	if opts.validate {
		fmt.Fprintf(out, "%d mismatches against the linear scan\n", mismatches)
	}

	if opts.observers > 0 {
		if err := printMatrix(out, tree, s.Waypoints, opts, timer); err != nil {
			return err
		}
	}
	if opts.renderPath != "" {
		if err := renderScene(s, tree, segments, opts, timer); err != nil {
			return err
		}
	}
	if opts.savePath != "" {
		if err := s.Save(opts.savePath); err != nil {
			return err
		}
	}

	fmt.Fprint(out, timer)
	if mismatches > 0 {
		return errors.Wrapf(errMismatch, "%d of %d queries", mismatches, len(segments))
	}
	return nil
}

func loadScene(opts appOptions) (*scene.Scene, error) {
	if opts.scenePath != "" {
		return scene.Load(opts.scenePath)
	}
	cityOpts := scene.DefaultCityOptions()
	cityOpts.Rows, cityOpts.Cols = opts.citySize, opts.citySize
	return scene.GenerateCity(opts.generate, cityOpts)
}

func loadIndexConfig(opts appOptions) (spatial.Config, error) {
	cfg := spatial.DefaultConfig()
	if opts.configPath != "" {
		loaded, err := spatial.LoadConfig(opts.configPath)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
	}
	if opts.strategy != "" {
		cfg.Strategy = spatial.Strategy(opts.strategy)
	}
	return cfg, errors.Wrap(cfg.Validate(), "index config")
}

// randomSegments spreads segments over bounds grown by a tenth on every side,
// so some of them start or end outside the scene.
func randomSegments(bounds geom.Rect, n int, seed int64) []geom.Segment {
	if bounds.IsEmpty() {
		bounds = geom.NewRect(geom.Pt(0, 0), geom.Pt(1, 1))
	}
	pad := bounds.Extent().Mul(0.1)
	lo, size := bounds.Min.Sub(pad), bounds.Extent().Add(pad.Mul(2))
	rng := rand.New(rand.NewSource(seed))
	point := func() geom.Point {
		return geom.Pt(lo.X()+rng.Float64()*size.X(), lo.Y()+rng.Float64()*size.Y())
	}
	segments := make([]geom.Segment, n)
	for i := range segments {
		segments[i] = geom.NewSegment(point(), point())
	}
	return segments
}

func printMatrix(out io.Writer, tree *spatial.KDTree, waypoints []geom.Point, opts appOptions, timer *util.Timer) error {
	observers := waypoints
	if len(observers) > opts.observers {
		observers = observers[:opts.observers]
	}
	world := los.NewWorld(tree, opts.workers)
	var matrix los.Matrix
	var err error
	timer.Measure("visibility matrix", func() {
		matrix, err = world.Matrix(context.Background(), observers)
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%d observers, %d mutually visible pairs\n", matrix.Len(), matrix.PairCount())
	return nil
}

func renderScene(s *scene.Scene, tree *spatial.KDTree, segments []geom.Segment, opts appOptions, timer *util.Timer) error {
	const drawnSegments = 40
	if len(segments) > drawnSegments {
		segments = segments[:drawnSegments]
	}
	renderOpts := render.DefaultOptions()
	renderOpts.Width = opts.renderSize
	frame := s.Bounds()
	for _, seg := range segments {
		frame = frame.Merge(seg.Bounds())
	}
	stop := timer.Start("render")
	img, err := render.Draw(frame, s.Triangles, tree, tree, segments, renderOpts)
	stop()
	if err != nil {
		return err
	}
	return render.SavePNG(opts.renderPath, img)
}
