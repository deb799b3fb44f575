// Package render rasterizes a world state to an image. It reads the server
// and never mutates it; float math here is for pixels only.
package render

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"math"
	"os"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	xfixed "golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"

	"github.com/lixenwraith/sgphysics/astar"
	"github.com/lixenwraith/sgphysics/fixed"
	"github.com/lixenwraith/sgphysics/physics"
	"github.com/lixenwraith/sgphysics/scene"
	"github.com/lixenwraith/sgphysics/vmath"
)

// roundSegments is the outline resolution of circles and capsule caps
const roundSegments = 32

// Options control the viewport. Scale is pixels per world unit.
type Options struct {
	Width, Height int
	Center        vmath.Vector2
	Scale         fixed.Num
	Labels        bool
	Contacts      bool
	Palette       Palette
}

func DefaultOptions() Options {
	return Options{
		Width:    800,
		Height:   480,
		Scale:    fixed.One,
		Labels:   true,
		Contacts: true,
		Palette:  DefaultPalette,
	}
}

// Fit centers the view on everything in the world with a 10% margin
func (o Options) Fit(w *scene.World) Options {
	b, ok := Bounds(w)
	if !ok || b.Size.X == 0 || b.Size.Y == 0 {
		return o
	}
	o.Center = b.Center()
	ninety, _ := fixed.FromFraction(9, 10)
	sx, errX := fixed.FromInt(int64(o.Width)).Mul(ninety).Div(b.Size.X)
	sy, errY := fixed.FromInt(int64(o.Height)).Mul(ninety).Div(b.Size.Y)
	if errX != nil || errY != nil {
		return o
	}
	o.Scale = fixed.Min2(sx, sy)
	return o
}

// Bounds merges the bounds of every enabled shape, ray and route point
func Bounds(w *scene.World) (vmath.Rect2, bool) {
	var out vmath.Rect2
	ok := false
	add := func(r vmath.Rect2) {
		if !ok {
			out, ok = r, true
			return
		}
		out = out.Merge(r)
	}
	for _, id := range w.Server.ObjectIDs() {
		info, err := w.Server.Object(id)
		if err != nil {
			continue
		}
		for _, ps := range info.Shapes {
			add(ps.Shape.WorldBounds(ps.Transform))
		}
	}
	for _, r := range w.Scene.Rays {
		add(vmath.NewRect(r.From.Vector(), vmath.Zero).Expand(r.To.Vector()))
	}
	for _, p := range w.RoutePoints() {
		add(vmath.NewRect(p, vmath.Zero))
	}
	return out, ok
}

// canvas maps world space onto an image
type canvas struct {
	img  *image.RGBA
	opts Options
	r    *vector.Rasterizer
}

func newCanvas(opts Options) *canvas {
	img := image.NewRGBA(image.Rect(0, 0, opts.Width, opts.Height))
	draw.Draw(img, img.Bounds(), image.NewUniform(opts.Palette.Background), image.Point{}, draw.Src)
	return &canvas{
		img:  img,
		opts: opts,
		r:    vector.NewRasterizer(opts.Width, opts.Height),
	}
}

func (c *canvas) pixel(p vmath.Vector2) (float32, float32) {
	d := p.Sub(c.opts.Center)
	x := d.X.Mul(c.opts.Scale).Float64() + float64(c.opts.Width)/2
	y := d.Y.Mul(c.opts.Scale).Float64() + float64(c.opts.Height)/2
	return float32(x), float32(y)
}

func (c *canvas) flush(col color.Color) {
	c.r.Draw(c.img, c.img.Bounds(), image.NewUniform(col), image.Point{})
	c.r.Reset(c.opts.Width, c.opts.Height)
}

// fill draws a closed polygon given in world space
func (c *canvas) fill(pts []vmath.Vector2, col color.Color) {
	if len(pts) < 3 {
		return
	}
	x, y := c.pixel(pts[0])
	c.r.MoveTo(x, y)
	for _, p := range pts[1:] {
		x, y = c.pixel(p)
		c.r.LineTo(x, y)
	}
	c.r.ClosePath()
	c.flush(col)
}

// line draws a segment as a quad of the given pixel width
func (c *canvas) line(a, b vmath.Vector2, width float32, col color.Color) {
	ax, ay := c.pixel(a)
	bx, by := c.pixel(b)
	dx, dy := bx-ax, by-ay
	n := float32(math.Hypot(float64(dx), float64(dy)))
	if n == 0 {
		c.dot(a, width, col)
		return
	}
	nx, ny := -dy/n*width/2, dx/n*width/2
	c.r.MoveTo(ax+nx, ay+ny)
	c.r.LineTo(bx+nx, by+ny)
	c.r.LineTo(bx-nx, by-ny)
	c.r.LineTo(ax-nx, ay-ny)
	c.r.ClosePath()
	c.flush(col)
}

// dot draws a square marker centered on p
func (c *canvas) dot(p vmath.Vector2, size float32, col color.Color) {
	x, y := c.pixel(p)
	h := size / 2
	c.r.MoveTo(x-h, y-h)
	c.r.LineTo(x+h, y-h)
	c.r.LineTo(x+h, y+h)
	c.r.LineTo(x-h, y+h)
	c.r.ClosePath()
	c.flush(col)
}

func (c *canvas) polyline(pts []vmath.Vector2, width float32, col color.Color) {
	for i := 1; i < len(pts); i++ {
		c.line(pts[i-1], pts[i], width, col)
	}
}

func (c *canvas) label(p vmath.Vector2, text string, col color.Color) {
	x, y := c.pixel(p)
	d := font.Drawer{
		Dst:  c.img,
		Src:  image.NewUniform(col),
		Face: basicfont.Face7x13,
		Dot:  xfixed.P(int(x)+4, int(y)-4),
	}
	d.DrawString(text)
}

// Outline returns a placed shape's world-space boundary. Rounded shapes are
// sampled at fixed angles, so the result is the same on every host.
func Outline(ps physics.PlacedShape) []vmath.Vector2 {
	if !ps.Shape.Rounded() {
		hull, _ := ps.Shape.Hull(ps.Transform)
		return hull
	}
	out := make([]vmath.Vector2, roundSegments)
	step := fixed.Tau.Quo(fixed.FromInt(roundSegments))
	for i := range out {
		dir := vmath.Right.Rotated(step.Mul(fixed.FromInt(int64(i))))
		out[i] = ps.Shape.Support(ps.Transform, dir)
	}
	return out
}

// Snapshot draws the world's current state: grid route, curve, objects,
// contacts, rays and labels, back to front
func Snapshot(w *scene.World, opts Options) *image.RGBA {
	if opts.Width <= 0 || opts.Height <= 0 {
		opts.Width, opts.Height = DefaultOptions().Width, DefaultOptions().Height
	}
	if opts.Scale <= 0 {
		opts.Scale = fixed.One
	}
	c := newCanvas(opts)
	pal := opts.Palette

	if w.Grid != nil && w.Scene.Grid != nil {
		drawGrid(c, w)
	}
	if w.Curve != nil {
		c.polyline(w.Curve.Tessellate(5, fixed.FromInt(4)), 1, pal.Curve)
	}
	route := w.RoutePoints()
	c.polyline(route, 2, pal.Route)
	for _, p := range route {
		c.dot(p, 4, pal.Route)
	}

	for _, id := range w.Server.ObjectIDs() {
		info, err := w.Server.Object(id)
		if err != nil {
			continue
		}
		for _, ps := range info.Shapes {
			pts := Outline(ps)
			c.fill(pts, pal.Body(info))
			closed := append(pts, pts[0])
			c.polyline(closed, 1, pal.Outline)
		}
		if opts.Contacts && info.Kind != physics.Area {
			contacts, _ := w.Server.Contacts(id)
			for _, ct := range contacts {
				c.dot(ct.Point, 5, pal.Contact)
			}
		}
	}

	for _, hit := range w.CastRays() {
		end := hit.Ray.To.Vector()
		if hit.Result != nil {
			end = hit.Result.Point
		}
		c.line(hit.Ray.From.Vector(), end, 1, pal.Ray)
		if hit.Result != nil {
			c.dot(end, 6, pal.RayHit)
		}
	}

	if opts.Labels {
		for _, id := range w.Server.ObjectIDs() {
			xf, err := w.Server.Transform(id)
			if err != nil {
				continue
			}
			c.label(xf.Origin, w.Name(id), pal.Label)
		}
		c.label(opts.Center.Sub(vmath.Vec(
			fixed.FromInt(int64(opts.Width/2-8)).Quo(opts.Scale),
			fixed.FromInt(int64(opts.Height/2-16)).Quo(opts.Scale),
		)), fmt.Sprintf("step %d", w.Server.CurrentStep()), pal.Label)
	}
	return c.img
}

// drawGrid shades blocked cells of the scene's A* grid
func drawGrid(c *canvas, w *scene.World) {
	size := w.Scene.Grid.CellSize
	if size == 0 {
		size = fixed.One
	}
	half := size.Mul(fixed.Half)
	corner := vmath.Vec(half, half)
	for y := 0; y < w.Grid.Height; y++ {
		for x := 0; x < w.Grid.Width; x++ {
			cell := astar.Cell{X: x, Y: y}
			if !w.Grid.Blocked(cell) {
				continue
			}
			center := w.CellCenter(cell)
			lo, hi := center.Sub(corner), center.Add(corner)
			c.fill([]vmath.Vector2{lo, {X: hi.X, Y: lo.Y}, hi, {X: lo.X, Y: hi.Y}}, c.opts.Palette.Grid)
		}
	}
}

// Encode writes img as PNG
func Encode(out io.Writer, img image.Image) error {
	if err := png.Encode(out, img); err != nil {
		return fmt.Errorf("encoding png: %w", err)
	}
	return nil
}

// WriteFile renders the world and saves it as a PNG file
func WriteFile(path string, w *scene.World, opts Options) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating snapshot: %w", err)
	}
	if err := Encode(f, Snapshot(w, opts)); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
