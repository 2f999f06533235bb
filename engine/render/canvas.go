// Package render rasterizes scenes, k-d tree planes and sight lines into
// images for debugging.
package render

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"
	"os"

	"github.com/memmaker/visibility/engine/geom"
	"github.com/memmaker/visibility/engine/spatial"
	"github.com/memmaker/visibility/engine/util"
	"github.com/pkg/errors"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"
)

type Options struct {
	// Width is the image width in pixels; the height follows the aspect of the frame.
	Width  int
	Margin int
	// LineWidth is the stroke width in pixels for planes and segments.
	LineWidth float64

	Background color.RGBA
	Obstacle   color.RGBA
	Plane      color.RGBA
	Sight      color.RGBA
	Blocked    color.RGBA
	Hit        color.RGBA
}

func DefaultOptions() Options {
	return Options{
		Width:      1024,
		Margin:     16,
		LineWidth:  1.5,
		Background: color.RGBA{R: 250, G: 250, B: 245, A: 255},
		Obstacle:   color.RGBA{R: 90, G: 90, B: 100, A: 255},
		Plane:      color.RGBA{R: 40, G: 110, B: 220, A: 255},
		Sight:      color.RGBA{R: 40, G: 170, B: 60, A: 255},
		Blocked:    color.RGBA{R: 220, G: 60, B: 40, A: 255},
		Hit:        color.RGBA{R: 200, G: 30, B: 30, A: 255},
	}
}

// Canvas maps a world rectangle onto an image with y pointing up.
type Canvas struct {
	img   *image.RGBA
	opts  Options
	frame geom.Rect
	scale float64
}

func NewCanvas(frame geom.Rect, opts Options) (*Canvas, error) {
	if frame.IsEmpty() || !frame.IsFinite() {
		return nil, errors.Errorf("cannot draw frame %v", frame)
	}
	if opts.Width <= 2*opts.Margin {
		return nil, errors.Errorf("image width %d leaves no room inside margin %d", opts.Width, opts.Margin)
	}
	extent := frame.Extent()
	inner := float64(opts.Width - 2*opts.Margin)
	scale := inner / math.Max(extent.X(), extent.Y())
	if math.IsInf(scale, 1) {
		// a single point: any scale works
		scale = 1
	}
	height := int(math.Ceil(extent.Y()*scale)) + 2*opts.Margin

	img := image.NewRGBA(image.Rect(0, 0, opts.Width, height))
	draw.Draw(img, img.Bounds(), image.NewUniform(opts.Background), image.Point{}, draw.Src)
	util.LogRenderDebug(fmt.Sprintf("[Render] canvas %dx%d for %v, scale %.3f", opts.Width, height, frame, scale))
	return &Canvas{img: img, opts: opts, frame: frame, scale: scale}, nil
}

func (c *Canvas) Image() *image.RGBA {
	return c.img
}

// ToPixel converts a world position into image coordinates.
func (c *Canvas) ToPixel(p geom.Point) (float32, float32) {
	x := float64(c.opts.Margin) + (p.X()-c.frame.Min.X())*c.scale
	y := float64(c.img.Bounds().Dy()-c.opts.Margin) - (p.Y()-c.frame.Min.Y())*c.scale
	return float32(x), float32(y)
}

func (c *Canvas) fill(col color.Color, path func(z *vector.Rasterizer)) {
	bounds := c.img.Bounds()
	z := vector.NewRasterizer(bounds.Dx(), bounds.Dy())
	path(z)
	z.Draw(c.img, bounds, image.NewUniform(col), image.Point{})
}

func (c *Canvas) Triangles(triangles []geom.Triangle) {
	c.fill(c.opts.Obstacle, func(z *vector.Rasterizer) {
		for _, t := range triangles {
			ax, ay := c.ToPixel(t.A)
			bx, by := c.ToPixel(t.B)
			cx, cy := c.ToPixel(t.C)
			z.MoveTo(ax, ay)
			z.LineTo(bx, by)
			z.LineTo(cx, cy)
			z.ClosePath()
		}
	})
}

// Line strokes the segment as a quad of the configured width.
func (c *Canvas) Line(s geom.Segment, col color.Color) {
	sx, sy := c.ToPixel(s.Start())
	ex, ey := c.ToPixel(s.End())
	dx, dy := float64(ex-sx), float64(ey-sy)
	length := math.Hypot(dx, dy)
	if length == 0 {
		c.Dot(s.Start(), c.opts.LineWidth, col)
		return
	}
	half := c.opts.LineWidth / 2
	nx, ny := float32(-dy/length*half), float32(dx/length*half)
	c.fill(col, func(z *vector.Rasterizer) {
		z.MoveTo(sx+nx, sy+ny)
		z.LineTo(ex+nx, ey+ny)
		z.LineTo(ex-nx, ey-ny)
		z.LineTo(sx-nx, sy-ny)
		z.ClosePath()
	})
}

// Dot draws a filled octagon of the given pixel radius.
func (c *Canvas) Dot(p geom.Point, radius float64, col color.Color) {
	px, py := c.ToPixel(p)
	c.fill(col, func(z *vector.Rasterizer) {
		for i := 0; i < 8; i++ {
			angle := float64(i) * math.Pi / 4
			x := px + float32(math.Cos(angle)*radius)
			y := py + float32(math.Sin(angle)*radius)
			if i == 0 {
				z.MoveTo(x, y)
			} else {
				z.LineTo(x, y)
			}
		}
		z.ClosePath()
	})
}

// SplittingPlanes draws every cut of the tree, fading from the root to the deepest level.
func (c *Canvas) SplittingPlanes(tree *spatial.KDTree) {
	maxDepth := float64(tree.Stats().MaxDepth)
	planes := 0
	tree.VisitSplittingPlanes(func(plane geom.Segment, depth int) {
		col := c.opts.Plane
		col.A = uint8(util.Remap(float64(depth), 0, maxDepth, 230, 50))
		c.Line(plane, premultiplied(col))
		planes++
	})
	util.LogRenderDebug(fmt.Sprintf("[Render] drew %d splitting planes", planes))
}

// Sight draws segments in the sight colour up to their first hit and in the
// blocked colour beyond it.
func (c *Canvas) Sight(index spatial.Index, segments []geom.Segment) error {
	for _, s := range segments {
		hit, ok, err := spatial.Query(index, s)
		if err != nil {
			return errors.Wrap(err, "drawing sight lines")
		}
		if !ok {
			c.Line(s, c.opts.Sight)
			continue
		}
		c.Line(geom.NewSegment(s.Start(), hit), c.opts.Sight)
		c.Line(geom.NewSegment(hit, s.End()), c.opts.Blocked)
		c.Dot(hit, 2*c.opts.LineWidth, c.opts.Hit)
	}
	return nil
}

// Caption writes text into the top left margin.
func (c *Canvas) Caption(text string) {
	d := &font.Drawer{
		Dst:  c.img,
		Src:  image.NewUniform(color.Black),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(c.opts.Margin, c.opts.Margin+basicfont.Face7x13.Ascent),
	}
	d.DrawString(text)
}

// premultiplied turns a straight-alpha colour into the premultiplied form color.RGBA expects.
func premultiplied(col color.RGBA) color.RGBA {
	a := uint32(col.A)
	return color.RGBA{
		R: uint8(uint32(col.R) * a / 255),
		G: uint8(uint32(col.G) * a / 255),
		B: uint8(uint32(col.B) * a / 255),
		A: col.A,
	}
}

// Draw renders obstacles, the tree's planes when tree is not nil and the
// segments with their hits against index when index is not nil.
func Draw(frame geom.Rect, triangles []geom.Triangle, tree *spatial.KDTree, index spatial.Index, segments []geom.Segment, opts Options) (*image.RGBA, error) {
	c, err := NewCanvas(frame, opts)
	if err != nil {
		return nil, err
	}
	c.Triangles(triangles)
	if tree != nil {
		c.SplittingPlanes(tree)
		c.Caption(tree.Stats().String())
	}
	if index != nil {
		if err := c.Sight(index, segments); err != nil {
			return nil, err
		}
	}
	return c.Image(), nil
}

func SavePNG(path string, img image.Image) error {
	file, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "creating %s", path)
	}
	if err := png.Encode(file, img); err != nil {
		file.Close()
		return errors.Wrapf(err, "encoding %s", path)
	}
	if err := file.Close(); err != nil {
		return errors.Wrapf(err, "closing %s", path)
	}
	util.LogIOInfo(fmt.Sprintf("[Render] wrote %s", path))
	return nil
}
