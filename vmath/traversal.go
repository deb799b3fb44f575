package vmath

import (
	"github.com/lixenwraith/sgphysics/fixed"
)

// GridTraverser implements a zero-allocation iterator for Supercover DDA grid traversal.
// Cells are square with side cellSize; cell (i, j) covers [i*size, (i+1)*size).
type GridTraverser struct {
	currX, currY     int64
	targetX, targetY int64
	stepX, stepY     int64

	tMaxX, tMaxY     fixed.Num
	tDeltaX, tDeltaY fixed.Num

	started bool
	done    bool
}

// CellOf returns the cell coordinate containing p
func CellOf(p Vector2, cellSize fixed.Num) (int64, int64) {
	x, _ := p.X.Div(cellSize)
	y, _ := p.Y.Div(cellSize)
	return x.Floor().Int(), y.Floor().Int()
}

// NewGridTraverser creates a new iterator over the cells crossed by the
// segment from a to b
func NewGridTraverser(a, b Vector2, cellSize fixed.Num) GridTraverser {
	// Work in cell units
	x1, _ := a.X.Div(cellSize)
	y1, _ := a.Y.Div(cellSize)
	x2, _ := b.X.Div(cellSize)
	y2, _ := b.Y.Div(cellSize)

	t := GridTraverser{
		currX: x1.Int(), currY: y1.Int(),
		targetX: x2.Int(), targetY: y2.Int(),
	}

	dx := x2.Sub(x1)
	dy := y2.Sub(y1)

	t.stepX, t.stepY = 1, 1
	if dx < 0 {
		t.stepX = -1
		dx = dx.Neg()
	}
	if dy < 0 {
		t.stepY = -1
		dy = dy.Neg()
	}

	if dx == 0 {
		t.tMaxX = fixed.Max
	} else {
		t.tDeltaX = fixed.One.Quo(dx)
		if t.stepX > 0 {
			t.tMaxX = fixed.One.Sub(x1.Frac()).Mul(t.tDeltaX)
		} else {
			t.tMaxX = x1.Frac().Mul(t.tDeltaX)
		}
	}

	if dy == 0 {
		t.tMaxY = fixed.Max
	} else {
		t.tDeltaY = fixed.One.Quo(dy)
		if t.stepY > 0 {
			t.tMaxY = fixed.One.Sub(y1.Frac()).Mul(t.tDeltaY)
		} else {
			t.tMaxY = y1.Frac().Mul(t.tDeltaY)
		}
	}

	return t
}

// Next advances the traverser to the next cell.
// Returns true if a valid cell is available via Pos().
func (t *GridTraverser) Next() bool {
	if t.done {
		return false
	}
	if !t.started {
		t.started = true
		return true
	}

	if t.currX == t.targetX && t.currY == t.targetY {
		t.done = true
		return false
	}

	// Ties step x first so a corner crossing still visits a side neighbour
	if t.tMaxX <= t.tMaxY {
		if t.currX != t.targetX {
			t.currX += t.stepX
			t.tMaxX = t.tMaxX.Add(t.tDeltaX)
		} else {
			t.currY += t.stepY
			t.tMaxY = t.tMaxY.Add(t.tDeltaY)
		}
	} else {
		if t.currY != t.targetY {
			t.currY += t.stepY
			t.tMaxY = t.tMaxY.Add(t.tDeltaY)
		} else {
			t.currX += t.stepX
			t.tMaxX = t.tMaxX.Add(t.tDeltaX)
		}
	}

	return true
}

// Pos returns the current grid coordinates.
func (t *GridTraverser) Pos() (int64, int64) {
	return t.currX, t.currY
}
