package vmath

import (
	"errors"
	"fmt"

	"github.com/lixenwraith/sgphysics/fixed"
)

var ErrSingular = errors.New("vmath: singular transform")

// SingularEpsilon is the smallest determinant magnitude AffineInverse accepts.
// Below it the inverse loses most of its fractional bits.
const SingularEpsilon fixed.Num = 64

// Transform2D is a 2x2 basis (columns X and Y) plus translation
type Transform2D struct {
	X, Y   Vector2
	Origin Vector2
}

var Identity = Transform2D{X: Right, Y: Down}

// NewTransform builds a rotation plus translation
func NewTransform(rotation fixed.Num, origin Vector2) Transform2D {
	sin, cos := rotation.SinCos()
	return Transform2D{
		X:      Vector2{cos, sin},
		Y:      Vector2{sin.Neg(), cos},
		Origin: origin,
	}
}

// Translation returns an identity basis at origin
func Translation(origin Vector2) Transform2D {
	t := Identity
	t.Origin = origin
	return t
}

func (t Transform2D) String() string {
	return fmt.Sprintf("[X: %v, Y: %v, O: %v]", t.X, t.Y, t.Origin)
}

func (t Transform2D) Rotation() fixed.Num { return t.X.Angle() }

func (t Transform2D) Scale() Vector2 {
	s := Vector2{t.X.Length(), t.Y.Length()}
	if t.Determinant() < 0 {
		s.Y = s.Y.Neg()
	}
	return s
}

func (t Transform2D) Determinant() fixed.Num { return t.X.Cross(t.Y) }

// BasisXform applies the basis without translation
func (t Transform2D) BasisXform(v Vector2) Vector2 {
	return t.X.Mul(v.X).Add(t.Y.Mul(v.Y))
}

// BasisXformInv applies the transposed basis, the inverse for orthonormal bases
func (t Transform2D) BasisXformInv(v Vector2) Vector2 {
	return Vector2{t.X.Dot(v), t.Y.Dot(v)}
}

func (t Transform2D) Xform(v Vector2) Vector2 { return t.BasisXform(v).Add(t.Origin) }

// XformInv is the inverse of Xform for orthonormal bases
func (t Transform2D) XformInv(v Vector2) Vector2 { return t.BasisXformInv(v.Sub(t.Origin)) }

// Mul composes t with o: the result applies o first, then t
func (t Transform2D) Mul(o Transform2D) Transform2D {
	return Transform2D{
		X:      t.BasisXform(o.X),
		Y:      t.BasisXform(o.Y),
		Origin: t.Xform(o.Origin),
	}
}

// AffineInverse inverts any non-singular transform
func (t Transform2D) AffineInverse() (Transform2D, error) {
	det := t.Determinant()
	if det.Abs() < SingularEpsilon {
		return Transform2D{}, ErrSingular
	}
	inv := Transform2D{
		X: Vector2{t.Y.Y.Quo(det), t.X.Y.Neg().Quo(det)},
		Y: Vector2{t.Y.X.Neg().Quo(det), t.X.X.Quo(det)},
	}
	inv.Origin = inv.BasisXform(t.Origin).Neg()
	return inv, nil
}

func (t Transform2D) Translated(offset Vector2) Transform2D {
	t.Origin = t.Origin.Add(offset)
	return t
}

// Rotated rotates the whole transform, origin included, about the parent origin
func (t Transform2D) Rotated(angle fixed.Num) Transform2D {
	return NewTransform(angle, Zero).Mul(t)
}

// Scaled scales the whole transform, origin included
func (t Transform2D) Scaled(s Vector2) Transform2D {
	return Transform2D{
		X:      t.X.MulVec(s),
		Y:      t.Y.MulVec(s),
		Origin: t.Origin.MulVec(s),
	}
}

// WithOrigin returns t moved to origin
func (t Transform2D) WithOrigin(origin Vector2) Transform2D {
	t.Origin = origin
	return t
}

// WithRotation keeps origin and scale, replacing the rotation
func (t Transform2D) WithRotation(rotation fixed.Num) Transform2D {
	s := t.Scale()
	sin, cos := rotation.SinCos()
	t.X = Vector2{cos, sin}.Mul(s.X)
	t.Y = Vector2{sin.Neg(), cos}.Mul(s.Y)
	return t
}

// InterpolateWith blends position and rotation toward o by weight
func (t Transform2D) InterpolateWith(o Transform2D, weight fixed.Num) Transform2D {
	r1, r2 := t.Rotation(), o.Rotation()
	d := r2.Sub(r1)
	// Shortest arc
	if d > fixed.Pi {
		d = d.Sub(fixed.Tau)
	} else if d < fixed.Pi.Neg() {
		d = d.Add(fixed.Tau)
	}
	return NewTransform(r1.Add(d.Mul(weight)), t.Origin.Lerp(o.Origin, weight))
}
