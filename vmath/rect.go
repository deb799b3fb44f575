package vmath

import (
	"fmt"

	"github.com/lixenwraith/sgphysics/fixed"
)

// Rect2 is an axis-aligned rectangle; Size components are never negative.
// A zero dimension is degenerate but still a valid bounding box.
type Rect2 struct {
	Position Vector2
	Size     Vector2
}

// NewRect normalizes negative sizes into a rect with non-negative extents
func NewRect(pos, size Vector2) Rect2 {
	if size.X < 0 {
		pos.X = pos.X.Add(size.X)
		size.X = size.X.Neg()
	}
	if size.Y < 0 {
		pos.Y = pos.Y.Add(size.Y)
		size.Y = size.Y.Neg()
	}
	return Rect2{Position: pos, Size: size}
}

// RectFromPoints returns the smallest rect enclosing all points
func RectFromPoints(points ...Vector2) Rect2 {
	if len(points) == 0 {
		return Rect2{}
	}
	r := Rect2{Position: points[0]}
	for _, p := range points[1:] {
		r = r.Expand(p)
	}
	return r
}

func (r Rect2) String() string { return fmt.Sprintf("[P: %v, S: %v]", r.Position, r.Size) }

func (r Rect2) End() Vector2 { return r.Position.Add(r.Size) }

func (r Rect2) Center() Vector2 { return r.Position.Add(r.Size.Mul(fixed.Half)) }

func (r Rect2) Area() fixed.Num { return r.Size.X.Mul(r.Size.Y) }

func (r Rect2) IsDegenerate() bool { return r.Size.X == 0 || r.Size.Y == 0 }

// Intersects reports overlap with closed edges: touching rects intersect
func (r Rect2) Intersects(o Rect2) bool {
	re, oe := r.End(), o.End()
	return r.Position.X <= oe.X && o.Position.X <= re.X &&
		r.Position.Y <= oe.Y && o.Position.Y <= re.Y
}

// Encloses reports whether o lies fully inside r
func (r Rect2) Encloses(o Rect2) bool {
	re, oe := r.End(), o.End()
	return o.Position.X >= r.Position.X && o.Position.Y >= r.Position.Y &&
		oe.X <= re.X && oe.Y <= re.Y
}

// HasPoint uses a closed start edge and open end edge
func (r Rect2) HasPoint(p Vector2) bool {
	re := r.End()
	return p.X >= r.Position.X && p.Y >= r.Position.Y && p.X < re.X && p.Y < re.Y
}

func (r Rect2) Merge(o Rect2) Rect2 {
	re, oe := r.End(), o.End()
	pos := Vector2{fixed.Min2(r.Position.X, o.Position.X), fixed.Min2(r.Position.Y, o.Position.Y)}
	end := Vector2{fixed.Max2(re.X, oe.X), fixed.Max2(re.Y, oe.Y)}
	return Rect2{Position: pos, Size: end.Sub(pos)}
}

// Expand grows r to include p
func (r Rect2) Expand(p Vector2) Rect2 {
	return r.Merge(Rect2{Position: p})
}

// Grow pads every side by by; a negative amount shrinks, clamped at zero size
func (r Rect2) Grow(by fixed.Num) Rect2 {
	g := Rect2{
		Position: r.Position.Sub(Vector2{by, by}),
		Size:     r.Size.Add(Vector2{by.Mul(fixed.Two), by.Mul(fixed.Two)}),
	}
	if g.Size.X < 0 {
		g.Position.X = r.Center().X
		g.Size.X = 0
	}
	if g.Size.Y < 0 {
		g.Position.Y = r.Center().Y
		g.Size.Y = 0
	}
	return g
}

// Intersection returns the overlapping region, or false when disjoint
func (r Rect2) Intersection(o Rect2) (Rect2, bool) {
	if !r.Intersects(o) {
		return Rect2{}, false
	}
	re, oe := r.End(), o.End()
	pos := Vector2{fixed.Max2(r.Position.X, o.Position.X), fixed.Max2(r.Position.Y, o.Position.Y)}
	end := Vector2{fixed.Min2(re.X, oe.X), fixed.Min2(re.Y, oe.Y)}
	return Rect2{Position: pos, Size: end.Sub(pos)}, true
}
