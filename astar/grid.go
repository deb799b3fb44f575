package astar

import (
	"fmt"

	"github.com/lixenwraith/sgphysics/fixed"
	"github.com/lixenwraith/sgphysics/vmath"
)

// Cell is a grid coordinate
type Cell struct {
	X, Y int
}

// Grid adapts a 4-connected boolean occupancy grid onto a Graph with
// Manhattan cost. Point IDs are y*Width + x.
type Grid struct {
	Width, Height int

	graph *Graph
}

// NewGrid creates a grid with every cell open
func NewGrid(width, height int) *Grid {
	g := &Grid{Width: width, Height: height, graph: NewGraph()}
	g.graph.Coster = Manhattan{}
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			// Weight one never fails validation
			_ = g.graph.AddPoint(g.id(Cell{x, y}), vmath.VecInt(int64(x), int64(y)), fixed.One)
		}
	}
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			c := Cell{x, y}
			if x+1 < width {
				_ = g.graph.ConnectPoints(g.id(c), g.id(Cell{x + 1, y}), true)
			}
			if y+1 < height {
				_ = g.graph.ConnectPoints(g.id(c), g.id(Cell{x, y + 1}), true)
			}
		}
	}
	return g
}

func (g *Grid) id(c Cell) PointID { return PointID(c.Y*g.Width + c.X) }

func (g *Grid) cell(id PointID) Cell {
	return Cell{X: int(id) % g.Width, Y: int(id) / g.Width}
}

// InBounds reports whether c lies on the grid
func (g *Grid) InBounds(c Cell) bool {
	return c.X >= 0 && c.Y >= 0 && c.X < g.Width && c.Y < g.Height
}

// SetBlocked marks a cell impassable or open
func (g *Grid) SetBlocked(c Cell, blocked bool) error {
	if !g.InBounds(c) {
		return fmt.Errorf("%w: cell %v out of bounds", ErrUnknownPoint, c)
	}
	return g.graph.SetPointDisabled(g.id(c), blocked)
}

// Blocked reports whether c is impassable; out-of-bounds cells are blocked
func (g *Grid) Blocked(c Cell) bool {
	if !g.InBounds(c) {
		return true
	}
	return g.graph.nodes[g.id(c)].Disabled
}

// Graph exposes the underlying point graph
func (g *Grid) Graph() *Graph { return g.graph }

// FindPath returns the cells from start to goal inclusive
func (g *Grid) FindPath(start, goal Cell) ([]Cell, error) {
	if !g.InBounds(start) || !g.InBounds(goal) {
		return nil, fmt.Errorf("%w: %v -> %v out of bounds", ErrUnknownPoint, start, goal)
	}
	if g.Blocked(start) || g.Blocked(goal) {
		return nil, fmt.Errorf("%w: %v -> %v blocked", ErrNoPath, start, goal)
	}
	ids, err := g.graph.FindIDPath(g.id(start), g.id(goal))
	if err != nil {
		return nil, err
	}
	out := make([]Cell, len(ids))
	for i, id := range ids {
		out[i] = g.cell(id)
	}
	return out, nil
}

// Verify checks a cell route against the oracle, as Verify does for graphs
func (g *Grid) Verify(route []Cell, tolerance float64) error {
	ids := make([]PointID, len(route))
	for i, c := range route {
		ids[i] = g.id(c)
	}
	return Verify(g.graph, ids, tolerance)
}
