package collision

import (
	"github.com/lixenwraith/sgphysics/fixed"
	"github.com/lixenwraith/sgphysics/shape"
	"github.com/lixenwraith/sgphysics/vmath"
)

// RayHit is the nearest intersection of a segment with a shape.
// T is the fraction of the segment travelled, in [0, 1].
type RayHit struct {
	T      fixed.Num
	Point  vmath.Vector2
	Normal vmath.Vector2
}

// RayShape intersects the segment from -> to with a shape.
// A segment starting inside the shape hits at T=0 with the normal opposing
// the cast direction.
func RayShape(s shape.Shape, xform vmath.Transform2D, from, to vmath.Vector2) (RayHit, bool) {
	d := to.Sub(from)
	if PointInside(s, xform, from) {
		n, err := d.Normalized()
		if err != nil {
			n = FallbackNormal
		} else {
			n = n.Neg()
		}
		return RayHit{T: 0, Point: from, Normal: n}, true
	}
	if d.IsZero() {
		return RayHit{}, false
	}

	b := resolve(s, xform)
	var best RayHit
	found := false
	keep := func(h RayHit, ok bool) {
		if ok && (!found || h.T < best.T) {
			best, found = h, true
		}
	}

	if b.radius != 0 {
		for _, c := range b.hull {
			keep(rayCircle(c, b.radius, from, to))
		}
	}

	if len(b.hull) >= 2 {
		// Segment hulls have two faces, polygons one per edge
		faces := len(b.hull)
		for i := 0; i < faces; i++ {
			n, err := shape.EdgeNormal(b.hull, i)
			if err != nil {
				continue
			}
			off := n.Mul(b.radius)
			p0 := b.hull[i].Add(off)
			p1 := b.hull[(i+1)%len(b.hull)].Add(off)
			keep(raySegment(from, to, p0, p1, n))
		}
	}
	return best, found
}

// rayCircle intersects the segment with a circle, entering from outside
func rayCircle(center vmath.Vector2, radius fixed.Num, from, to vmath.Vector2) (RayHit, bool) {
	d := to.Sub(from)
	length := d.Length()
	dir, err := d.Normalized()
	if err != nil {
		return RayHit{}, false
	}

	rel := center.Sub(from)
	tc := rel.Dot(dir)
	dist2 := rel.LengthSquared().Sub(tc.Mul(tc))
	r2 := radius.Mul(radius)
	if dist2 > r2 {
		return RayHit{}, false
	}
	thc := r2.Sub(dist2).MustSqrt()
	t0 := tc.Sub(thc)
	if t0 < 0 || t0 > length {
		return RayHit{}, false
	}

	point := from.Add(dir.Mul(t0))
	normal, err := point.Sub(center).Normalized()
	if err != nil {
		normal = dir.Neg()
	}
	frac, err := t0.Div(length)
	if err != nil {
		return RayHit{}, false
	}
	return RayHit{T: frac, Point: point, Normal: normal}, true
}

// raySegment intersects the cast with a face [a, b] with outward normal n;
// faces seen from behind are ignored
func raySegment(from, to, a, b, n vmath.Vector2) (RayHit, bool) {
	r := to.Sub(from)
	if r.Dot(n) >= 0 {
		return RayHit{}, false
	}
	s := b.Sub(a)
	denom := r.Cross(s)
	if denom == 0 {
		return RayHit{}, false
	}
	qp := a.Sub(from)
	num := qp.Cross(s)
	t, err := num.Div(denom)
	if err != nil || t < 0 || t > fixed.One {
		return RayHit{}, false
	}
	u, err := qp.Cross(r).Div(denom)
	if err != nil || u < 0 || u > fixed.One {
		return RayHit{}, false
	}
	// Scale by num/denom directly so the point is not rounded through t
	dx, _ := fixed.MulDiv(r.X, num, denom)
	dy, _ := fixed.MulDiv(r.Y, num, denom)
	return RayHit{T: t, Point: from.Add(vmath.Vec(dx, dy)), Normal: n}, true
}
