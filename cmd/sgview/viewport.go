package main

import (
	"github.com/lixenwraith/sgphysics/fixed"
	"github.com/lixenwraith/sgphysics/vmath"
)

// cellAspect is how many world units of height one cell covers relative to
// its width; terminal cells are about twice as tall as wide
var cellAspect = fixed.Two

// viewport maps terminal cells to world space. scale is cells per world
// unit along x.
type viewport struct {
	center     vmath.Vector2
	scale      fixed.Num
	cols, rows int
}

// fitViewport frames bounds in a cols x rows area with one cell of margin
func fitViewport(b vmath.Rect2, cols, rows int) viewport {
	vp := viewport{center: b.Center(), scale: fixed.One, cols: cols, rows: rows}
	if cols < 3 || rows < 3 {
		return vp
	}
	sx, errX := fixed.FromInt(int64(cols - 2)).Div(b.Size.X)
	sy, errY := fixed.FromInt(int64(rows - 2)).Mul(cellAspect).Div(b.Size.Y)
	switch {
	case errX == nil && errY == nil:
		vp.scale = fixed.Min2(sx, sy)
	case errX == nil:
		vp.scale = sx
	case errY == nil:
		vp.scale = sy
	}
	return vp
}

// world returns the world point at the center of cell (cx, cy)
func (v viewport) world(cx, cy int) vmath.Vector2 {
	dx := fixed.FromInt(int64(2*cx - v.cols + 1)).Mul(fixed.Half).Quo(v.scale)
	dy := fixed.FromInt(int64(2*cy - v.rows + 1)).Mul(fixed.Half).Mul(cellAspect).Quo(v.scale)
	return v.center.Add(vmath.Vec(dx, dy))
}

// cell returns the cell containing p; ok is false off screen
func (v viewport) cell(p vmath.Vector2) (cx, cy int, ok bool) {
	d := p.Sub(v.center)
	x := d.X.Mul(v.scale).Add(fixed.FromInt(int64(v.cols)).Mul(fixed.Half)).Floor().Int()
	y := d.Y.Mul(v.scale).Quo(cellAspect).Add(fixed.FromInt(int64(v.rows)).Mul(fixed.Half)).Floor().Int()
	cx, cy = int(x), int(y)
	return cx, cy, cx >= 0 && cy >= 0 && cx < v.cols && cy < v.rows
}

// cellRange returns the cells covering r, clipped to the screen
func (v viewport) cellRange(r vmath.Rect2) (x0, y0, x1, y1 int) {
	x0, y0, _ = v.cell(r.Position)
	x1, y1, _ = v.cell(r.End())
	return max(x0, 0), max(y0, 0), min(x1, v.cols-1), min(y1, v.rows-1)
}
