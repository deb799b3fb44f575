// Package collision implements the narrow phase: separating-axis overlap
// tests and ray intersection against individual shapes.
package collision

import (
	"log/slog"

	"github.com/lixenwraith/sgphysics/fixed"
	"github.com/lixenwraith/sgphysics/shape"
	"github.com/lixenwraith/sgphysics/vmath"
)

// FallbackNormal is used when two rounded shapes share a center and no axis
// can be derived from geometry
var FallbackNormal = vmath.Up

// Contact describes how shape A penetrates shape B.
// Normal is the unit vector that moves A out of B; Depth is the distance
// along it; Point is A's deepest point inside B.
type Contact struct {
	Normal vmath.Vector2
	Depth  fixed.Num
	Point  vmath.Vector2
}

// Flip returns the contact as seen from B
func (c Contact) Flip(bPoint vmath.Vector2) Contact {
	return Contact{Normal: c.Normal.Neg(), Depth: c.Depth, Point: bPoint}
}

// MTV is the minimum translation vector for A
func (c Contact) MTV() vmath.Vector2 { return c.Normal.Mul(c.Depth) }

func (c Contact) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("normal", c.Normal.String()),
		slog.String("depth", c.Depth.String()),
	)
}

// body is a shape resolved into world space
type body struct {
	hull   []vmath.Vector2
	radius fixed.Num
}

func resolve(s shape.Shape, xform vmath.Transform2D) body {
	h, r := s.Hull(xform)
	return body{hull: h, radius: r}
}

// Overlap tests A against B with the separating axis theorem.
// Touching shapes (zero overlap) do not collide. The result is antisymmetric:
// Overlap(b, a) has the exact negated normal and the same depth whenever the
// two shapes differ in world geometry.
func Overlap(a shape.Shape, ta vmath.Transform2D, b shape.Shape, tb vmath.Transform2D) (Contact, bool) {
	ba, bb := resolve(a, ta), resolve(b, tb)
	if compareBodies(ba, bb) > 0 {
		c, ok := overlap(bb, ba)
		if !ok {
			return Contact{}, false
		}
		return c.Flip(deepestPoint(ba, c.Normal)), true
	}
	c, ok := overlap(ba, bb)
	if !ok {
		return Contact{}, false
	}
	c.Point = deepestPoint(ba, c.Normal.Neg())
	return c, true
}

// overlap runs SAT with a fixed axis enumeration order:
// A edge normals, B edge normals, A vertices to B (if A is rounded),
// B vertices to A (if B is rounded). Equal overlaps keep the earliest axis.
func overlap(a, b body) (Contact, bool) {
	var best Contact
	found := false

	try := func(axis vmath.Vector2) bool {
		minA, maxA := project(a, axis)
		minB, maxB := project(b, axis)
		pushPos := maxB.Sub(minA) // move A along +axis
		pushNeg := maxA.Sub(minB) // move A along -axis
		if pushPos <= 0 || pushNeg <= 0 {
			return false
		}
		depth, normal := pushPos, axis
		if pushNeg < pushPos {
			depth, normal = pushNeg, axis.Neg()
		}
		if !found || depth < best.Depth {
			best = Contact{Normal: normal, Depth: depth}
			found = true
		}
		return true
	}

	axes := 0
	for _, h := range [][]vmath.Vector2{a.hull, b.hull} {
		for i := range edgeCount(h) {
			n, err := shape.EdgeNormal(h, i)
			if err != nil {
				continue
			}
			axes++
			if !try(n) {
				return Contact{}, false
			}
		}
	}

	vertexAxes := func(from, to body) bool {
		if from.radius == 0 {
			return true
		}
		for _, v := range from.hull {
			d := v.Sub(closestOnHull(to.hull, v))
			n, err := d.Normalized()
			if err != nil {
				continue
			}
			axes++
			if !try(n) {
				return false
			}
		}
		return true
	}
	if !vertexAxes(a, b) || !vertexAxes(b, a) {
		return Contact{}, false
	}

	if axes == 0 {
		// Concentric rounded shapes
		if !try(FallbackNormal) {
			return Contact{}, false
		}
	}
	return best, found
}

// edgeCount is the number of distinct edge axes of a hull: none for a point,
// one for a segment, n for a polygon
func edgeCount(h []vmath.Vector2) int {
	switch len(h) {
	case 0, 1:
		return 0
	case 2:
		return 1
	}
	return len(h)
}

func project(b body, axis vmath.Vector2) (lo, hi fixed.Num) {
	lo = b.hull[0].Dot(axis)
	hi = lo
	for _, v := range b.hull[1:] {
		d := v.Dot(axis)
		if d < lo {
			lo = d
		}
		if d > hi {
			hi = d
		}
	}
	return lo.Sub(b.radius), hi.Add(b.radius)
}

// deepestPoint is the support point of b along dir
func deepestPoint(b body, dir vmath.Vector2) vmath.Vector2 {
	best := 0
	bestDot := b.hull[0].Dot(dir)
	for i := 1; i < len(b.hull); i++ {
		if d := b.hull[i].Dot(dir); d > bestDot {
			best, bestDot = i, d
		}
	}
	return b.hull[best].Add(dir.Mul(b.radius))
}

// ClosestOnSegment returns the point on segment [a, b] nearest to p
func ClosestOnSegment(a, b, p vmath.Vector2) vmath.Vector2 {
	ab := b.Sub(a)
	d := ab.LengthSquared()
	if d == 0 {
		return a
	}
	t, err := p.Sub(a).Dot(ab).Div(d)
	if err != nil {
		return a
	}
	t = t.Clamp(0, fixed.One)
	return a.Add(ab.Mul(t))
}

// closestOnHull returns the hull point nearest to p, or p itself when p lies
// inside a polygon hull. Equal distances keep the lowest edge index.
func closestOnHull(h []vmath.Vector2, p vmath.Vector2) vmath.Vector2 {
	switch len(h) {
	case 1:
		return h[0]
	case 2:
		return ClosestOnSegment(h[0], h[1], p)
	}
	if hullContains(h, p) {
		return p
	}
	best := ClosestOnSegment(h[0], h[1], p)
	bestD := best.DistanceSquaredTo(p)
	for i := 1; i < len(h); i++ {
		c := ClosestOnSegment(h[i], h[(i+1)%len(h)], p)
		if d := c.DistanceSquaredTo(p); d < bestD {
			best, bestD = c, d
		}
	}
	return best
}

// hullContains reports whether p is inside or on a polygon hull with positive area
func hullContains(h []vmath.Vector2, p vmath.Vector2) bool {
	for i := range h {
		a, b := h[i], h[(i+1)%len(h)]
		if b.Sub(a).Cross(p.Sub(a)) < 0 {
			return false
		}
	}
	return true
}

// compareBodies orders bodies by world geometry so pair evaluation is
// independent of argument order
func compareBodies(a, b body) int {
	if len(a.hull) != len(b.hull) {
		if len(a.hull) < len(b.hull) {
			return -1
		}
		return 1
	}
	for i := range a.hull {
		if c := compareVec(a.hull[i], b.hull[i]); c != 0 {
			return c
		}
	}
	return compareNum(a.radius, b.radius)
}

func compareVec(a, b vmath.Vector2) int {
	if c := compareNum(a.X, b.X); c != 0 {
		return c
	}
	return compareNum(a.Y, b.Y)
}

func compareNum(a, b fixed.Num) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// PointInside reports whether a world point lies inside the shape, edges included
func PointInside(s shape.Shape, xform vmath.Transform2D, p vmath.Vector2) bool {
	b := resolve(s, xform)
	c := closestOnHull(b.hull, p)
	if c == p {
		return true
	}
	if b.radius == 0 {
		return false
	}
	return c.DistanceSquaredTo(p) <= b.radius.Mul(b.radius)
}
