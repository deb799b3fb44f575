package vmath

import (
	"fmt"

	"github.com/lixenwraith/sgphysics/fixed"
)

// ErrDomain is returned by operations undefined for the given input, such as
// normalizing a zero vector
var ErrDomain = fixed.ErrDomain

// Vector2 is an immutable 2D vector of fixed-point components
type Vector2 struct {
	X, Y fixed.Num
}

var (
	Zero  = Vector2{}
	One   = Vector2{fixed.One, fixed.One}
	Up    = Vector2{0, fixed.NegOne}
	Down  = Vector2{0, fixed.One}
	Left  = Vector2{fixed.NegOne, 0}
	Right = Vector2{fixed.One, 0}
)

func Vec(x, y fixed.Num) Vector2 { return Vector2{x, y} }

// VecInt builds a vector from integer coordinates
func VecInt(x, y int64) Vector2 { return Vector2{fixed.FromInt(x), fixed.FromInt(y)} }

func (v Vector2) String() string { return fmt.Sprintf("(%v, %v)", v.X, v.Y) }

func (v Vector2) Add(o Vector2) Vector2 { return Vector2{v.X.Add(o.X), v.Y.Add(o.Y)} }
func (v Vector2) Sub(o Vector2) Vector2 { return Vector2{v.X.Sub(o.X), v.Y.Sub(o.Y)} }
func (v Vector2) Neg() Vector2          { return Vector2{v.X.Neg(), v.Y.Neg()} }
func (v Vector2) Mul(s fixed.Num) Vector2 {
	return Vector2{v.X.Mul(s), v.Y.Mul(s)}
}

// MulVec multiplies component-wise
func (v Vector2) MulVec(o Vector2) Vector2 { return Vector2{v.X.Mul(o.X), v.Y.Mul(o.Y)} }

func (v Vector2) Div(s fixed.Num) (Vector2, error) {
	x, err := v.X.Div(s)
	if err != nil {
		return Zero, err
	}
	y, err := v.Y.Div(s)
	if err != nil {
		return Zero, err
	}
	return Vector2{x, y}, nil
}

func (v Vector2) Dot(o Vector2) fixed.Num { return v.X.Mul(o.X).Add(v.Y.Mul(o.Y)) }

// Cross returns the z component of the 3D cross product
func (v Vector2) Cross(o Vector2) fixed.Num { return v.X.Mul(o.Y).Sub(v.Y.Mul(o.X)) }

func (v Vector2) LengthSquared() fixed.Num { return v.Dot(v) }

func (v Vector2) Length() fixed.Num { return v.LengthSquared().MustSqrt() }

func (v Vector2) IsZero() bool { return v.X == 0 && v.Y == 0 }

// Saturated reports whether either component hit a fixed-point bound
func (v Vector2) Saturated() bool { return v.X.Saturated() || v.Y.Saturated() }

// Normalized returns the unit vector; zero length fails with ErrDomain
func (v Vector2) Normalized() (Vector2, error) {
	l := v.Length()
	if l == 0 {
		return Zero, ErrDomain
	}
	return Vector2{v.X.Quo(l), v.Y.Quo(l)}, nil
}

func (v Vector2) DistanceTo(o Vector2) fixed.Num        { return o.Sub(v).Length() }
func (v Vector2) DistanceSquaredTo(o Vector2) fixed.Num { return o.Sub(v).LengthSquared() }

func (v Vector2) Abs() Vector2 { return Vector2{v.X.Abs(), v.Y.Abs()} }

// Tangent returns v rotated 90 degrees counter-clockwise in y-down space
func (v Vector2) Tangent() Vector2 { return Vector2{v.Y, v.X.Neg()} }

func (v Vector2) Angle() fixed.Num { return fixed.Atan2(v.Y, v.X) }

func (v Vector2) AngleTo(o Vector2) fixed.Num { return fixed.Atan2(v.Cross(o), v.Dot(o)) }

func (v Vector2) AngleToPoint(p Vector2) fixed.Num { return p.Sub(v).Angle() }

func (v Vector2) Rotated(angle fixed.Num) Vector2 {
	sin, cos := angle.SinCos()
	return Vector2{
		v.X.Mul(cos).Sub(v.Y.Mul(sin)),
		v.X.Mul(sin).Add(v.Y.Mul(cos)),
	}
}

func (v Vector2) Lerp(to Vector2, t fixed.Num) Vector2 {
	return Vector2{v.X.Lerp(to.X, t), v.Y.Lerp(to.Y, t)}
}

// Project returns the projection of v onto on; a zero target fails with ErrDomain
func (v Vector2) Project(on Vector2) (Vector2, error) {
	d := on.LengthSquared()
	if d == 0 {
		return Zero, ErrDomain
	}
	return on.Mul(v.Dot(on).Quo(d)), nil
}

// Slide removes the component of v along unit normal n
func (v Vector2) Slide(n Vector2) Vector2 { return v.Sub(n.Mul(v.Dot(n))) }

// Bounce reflects v off a surface with unit normal n
func (v Vector2) Bounce(n Vector2) Vector2 { return v.Reflect(n).Neg() }

// Reflect mirrors v across the line with unit direction n
func (v Vector2) Reflect(n Vector2) Vector2 {
	return n.Mul(v.Dot(n)).Mul(fixed.Two).Sub(v)
}

// ClampLength limits the length of v to maxLen, preserving direction
func (v Vector2) ClampLength(maxLen fixed.Num) Vector2 {
	l := v.Length()
	if l <= maxLen || l == 0 {
		return v
	}
	r, _ := fixed.MulDiv(v.X, maxLen, l)
	s, _ := fixed.MulDiv(v.Y, maxLen, l)
	return Vector2{r, s}
}

func (v Vector2) MoveToward(to Vector2, delta fixed.Num) Vector2 {
	d := to.Sub(v)
	l := d.Length()
	if l <= delta || l == 0 {
		return to
	}
	step, _ := d.Div(l)
	return v.Add(step.Mul(delta))
}

func (v Vector2) Floor() Vector2 { return Vector2{v.X.Floor(), v.Y.Floor()} }
func (v Vector2) Round() Vector2 { return Vector2{v.X.Round(), v.Y.Round()} }

// CubicInterpolate is Catmull-Rom between v and b with neighbours pre and post
func (v Vector2) CubicInterpolate(b, pre, post Vector2, t fixed.Num) Vector2 {
	t2 := t.Mul(t)
	t3 := t2.Mul(t)
	three, four, five := fixed.FromInt(3), fixed.FromInt(4), fixed.FromInt(5)

	a0 := v.Mul(fixed.Two)
	a1 := b.Sub(pre).Mul(t)
	a2 := pre.Mul(fixed.Two).Sub(v.Mul(five)).Add(b.Mul(four)).Sub(post).Mul(t2)
	a3 := pre.Neg().Add(v.Mul(three)).Sub(b.Mul(three)).Add(post).Mul(t3)
	return a0.Add(a1).Add(a2).Add(a3).Mul(fixed.Half)
}
