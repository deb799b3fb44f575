// Package shape defines the closed set of collision shapes.
//
// A Shape holds local geometry only; transforms are supplied per query. Every
// kind reduces to a convex hull plus a rounding radius, which is the form the
// narrow phase consumes:
//
//	Circle     1 vertex  + radius
//	Capsule    2 vertices (cap centers) + radius
//	Rectangle  4 vertices
//	Polygon    n vertices
package shape

import (
	"errors"
	"fmt"

	"github.com/lixenwraith/sgphysics/fixed"
	"github.com/lixenwraith/sgphysics/vmath"
)

var ErrInvalidShape = errors.New("shape: invalid shape")

// Kind tags the shape variant
type Kind uint8

const (
	KindCircle Kind = iota
	KindCapsule
	KindRectangle
	KindPolygon
)

func (k Kind) String() string {
	switch k {
	case KindCircle:
		return "circle"
	case KindCapsule:
		return "capsule"
	case KindRectangle:
		return "rectangle"
	case KindPolygon:
		return "polygon"
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// ParseKind is the inverse of Kind.String
func ParseKind(s string) (Kind, error) {
	switch s {
	case "circle":
		return KindCircle, nil
	case "capsule":
		return KindCapsule, nil
	case "rectangle", "rect":
		return KindRectangle, nil
	case "polygon":
		return KindPolygon, nil
	}
	return 0, fmt.Errorf("%w: unknown kind %q", ErrInvalidShape, s)
}

// Shape is a closed tagged variant; only the fields of Kind are meaningful.
// Construct through the New* functions, which validate once.
type Shape struct {
	Kind    Kind
	Radius  fixed.Num       // circle, capsule
	Height  fixed.Num       // capsule: distance between cap centers along local Y
	Extents vmath.Vector2   // rectangle: half size
	Points  []vmath.Vector2 // polygon: convex, counter-clockwise (positive signed area)

	// hull is the local-space vertex set, built at construction
	hull []vmath.Vector2
}

func NewCircle(radius fixed.Num) (Shape, error) {
	if radius <= 0 {
		return Shape{}, fmt.Errorf("%w: circle radius %v", ErrInvalidShape, radius)
	}
	return Shape{
		Kind:   KindCircle,
		Radius: radius,
		hull:   []vmath.Vector2{vmath.Zero},
	}, nil
}

func NewCapsule(radius, height fixed.Num) (Shape, error) {
	if radius <= 0 || height < 0 {
		return Shape{}, fmt.Errorf("%w: capsule radius %v height %v", ErrInvalidShape, radius, height)
	}
	h := height.Mul(fixed.Half)
	hull := []vmath.Vector2{{Y: h.Neg()}, {Y: h}}
	if height == 0 {
		hull = hull[:1]
		hull[0] = vmath.Zero
	}
	return Shape{
		Kind:   KindCapsule,
		Radius: radius,
		Height: height,
		hull:   hull,
	}, nil
}

func NewRectangle(extents vmath.Vector2) (Shape, error) {
	if extents.X <= 0 || extents.Y <= 0 {
		return Shape{}, fmt.Errorf("%w: rectangle extents %v", ErrInvalidShape, extents)
	}
	ex, ey := extents.X, extents.Y
	return Shape{
		Kind:    KindRectangle,
		Extents: extents,
		hull: []vmath.Vector2{
			{X: ex.Neg(), Y: ey.Neg()},
			{X: ex, Y: ey.Neg()},
			{X: ex, Y: ey},
			{X: ex.Neg(), Y: ey},
		},
	}, nil
}

// NewPolygon validates convexity and simplicity and normalizes winding so
// edge normals computed by EdgeNormal point outward
func NewPolygon(points []vmath.Vector2) (Shape, error) {
	if len(points) < 3 {
		return Shape{}, fmt.Errorf("%w: polygon needs at least 3 points, got %d", ErrInvalidShape, len(points))
	}
	pts := make([]vmath.Vector2, len(points))
	copy(pts, points)

	n := len(pts)
	sign := 0
	for i := 0; i < n; i++ {
		a, b, c := pts[i], pts[(i+1)%n], pts[(i+2)%n]
		if a == b {
			return Shape{}, fmt.Errorf("%w: zero-length edge at %d", ErrInvalidShape, i)
		}
		cross := b.Sub(a).Cross(c.Sub(b))
		if cross == 0 {
			return Shape{}, fmt.Errorf("%w: collinear vertices at %d", ErrInvalidShape, (i+1)%n)
		}
		s := cross.Sign()
		if sign == 0 {
			sign = s
		} else if s != sign {
			return Shape{}, fmt.Errorf("%w: polygon is concave at vertex %d", ErrInvalidShape, (i+1)%n)
		}
	}

	// Consistent turning alone admits star polygons; every vertex must also
	// lie strictly inside every edge it does not touch
	for i := 0; i < n; i++ {
		a, b := pts[i], pts[(i+1)%n]
		for j := 0; j < n; j++ {
			if j == i || j == (i+1)%n {
				continue
			}
			if b.Sub(a).Cross(pts[j].Sub(a)).Sign() != sign {
				return Shape{}, fmt.Errorf("%w: polygon is self-intersecting", ErrInvalidShape)
			}
		}
	}

	if sign < 0 {
		for i, j := 0, n-1; i < j; i, j = i+1, j-1 {
			pts[i], pts[j] = pts[j], pts[i]
		}
	}
	return Shape{Kind: KindPolygon, Points: pts, hull: pts}, nil
}

func (s Shape) String() string {
	switch s.Kind {
	case KindCircle:
		return fmt.Sprintf("circle(r=%v)", s.Radius)
	case KindCapsule:
		return fmt.Sprintf("capsule(r=%v, h=%v)", s.Radius, s.Height)
	case KindRectangle:
		return fmt.Sprintf("rectangle(ext=%v)", s.Extents)
	case KindPolygon:
		return fmt.Sprintf("polygon(%d points)", len(s.Points))
	}
	return s.Kind.String()
}

// Rounded reports whether the shape has a nonzero rounding radius
func (s Shape) Rounded() bool {
	return s.Kind == KindCircle || s.Kind == KindCapsule
}

// RoundingRadius is the radius added around the hull
func (s Shape) RoundingRadius() fixed.Num {
	if s.Rounded() {
		return s.Radius
	}
	return 0
}

// LocalHull returns the local-space hull vertices; callers must not modify it
func (s Shape) LocalHull() []vmath.Vector2 { return s.hull }

// Hull returns the world-space hull and rounding radius under xform
func (s Shape) Hull(xform vmath.Transform2D) ([]vmath.Vector2, fixed.Num) {
	out := make([]vmath.Vector2, len(s.hull))
	for i, p := range s.hull {
		out[i] = xform.Xform(p)
	}
	// Mirroring flips winding; restore it so edge normals stay outward
	if xform.Determinant() < 0 {
		for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
			out[i], out[j] = out[j], out[i]
		}
	}
	return out, s.RoundingRadius()
}

// LocalBounds is the bounding rect in local space
func (s Shape) LocalBounds() vmath.Rect2 {
	return vmath.RectFromPoints(s.hull...).Grow(s.RoundingRadius())
}

// WorldBounds is the bounding rect of the shape under xform
func (s Shape) WorldBounds(xform vmath.Transform2D) vmath.Rect2 {
	hull, r := s.Hull(xform)
	return vmath.RectFromPoints(hull...).Grow(r)
}

// Support returns the world-space point furthest along dir; ties resolve to
// the lowest vertex index. A zero dir returns the first hull vertex.
func (s Shape) Support(xform vmath.Transform2D, dir vmath.Vector2) vmath.Vector2 {
	hull, r := s.Hull(xform)
	best := 0
	bestDot := hull[0].Dot(dir)
	for i := 1; i < len(hull); i++ {
		if d := hull[i].Dot(dir); d > bestDot {
			best, bestDot = i, d
		}
	}
	p := hull[best]
	if r != 0 {
		if n, err := dir.Normalized(); err == nil {
			p = p.Add(n.Mul(r))
		}
	}
	return p
}

// MinExtent is the smallest half-width of the local bounds, used to size
// sweep substeps
func (s Shape) MinExtent() fixed.Num {
	b := s.LocalBounds()
	return fixed.Min2(b.Size.X, b.Size.Y).Mul(fixed.Half)
}

// EdgeNormal returns the outward unit normal of edge i (from vertex i to i+1)
// of a world hull with at least 2 vertices
func EdgeNormal(hull []vmath.Vector2, i int) (vmath.Vector2, error) {
	a := hull[i]
	b := hull[(i+1)%len(hull)]
	e := b.Sub(a)
	// Hulls have positive signed area, so (e.Y, -e.X) points outward
	return vmath.Vector2{X: e.Y, Y: e.X.Neg()}.Normalized()
}
