// Package curve implements piecewise cubic Bezier paths with arc-length
// baking, closest-point queries and path following.
//
// Baking samples each segment so consecutive baked points are BakeInterval
// apart; offsets along the curve are measured in that baked length.
package curve

import (
	"errors"
	"fmt"
	"slices"

	"github.com/lixenwraith/sgphysics/fixed"
	"github.com/lixenwraith/sgphysics/vmath"
)

var (
	ErrDomain     = fmt.Errorf("curve: %w", fixed.ErrDomain)
	ErrEmptyCurve = errors.New("curve: fewer than 2 points")
	ErrIndex      = errors.New("curve: point index out of range")
)

// DefaultBakeInterval is the baked point spacing of a new curve
var DefaultBakeInterval = fixed.FromInt(5)

const (
	// bakeStep is the coarse parameter step per segment before bisection
	bakeStep = fixed.Num(6553) // ~0.1
	// bakeBisections refines each baked point along the parameter
	bakeBisections = 10
)

// Point is a control point; In and Out are tangents relative to Position
type Point struct {
	Position vmath.Vector2
	In       vmath.Vector2
	Out      vmath.Vector2
}

// Curve is caller-owned and not safe for concurrent use. Queries bake
// lazily after any edit.
type Curve struct {
	points       []Point
	bakeInterval fixed.Num

	dirty       bool
	baked       []vmath.Vector2
	bakedParam  []fixed.Num // segment index plus local t, per baked point
	bakedLength fixed.Num
}

func New() *Curve {
	return &Curve{bakeInterval: DefaultBakeInterval}
}

func (c *Curve) checkIndex(i int) error {
	if i < 0 || i >= len(c.points) {
		return fmt.Errorf("%w: %d of %d", ErrIndex, i, len(c.points))
	}
	return nil
}

// AddPoint inserts a control point before index at, or appends when at is
// negative or past the end
func (c *Curve) AddPoint(pos, in, out vmath.Vector2, at int) {
	p := Point{Position: pos, In: in, Out: out}
	if at >= 0 && at < len(c.points) {
		c.points = slices.Insert(c.points, at, p)
	} else {
		c.points = append(c.points, p)
	}
	c.dirty = true
}

func (c *Curve) SetPointPosition(i int, pos vmath.Vector2) error {
	if err := c.checkIndex(i); err != nil {
		return err
	}
	c.points[i].Position = pos
	c.dirty = true
	return nil
}

func (c *Curve) SetPointIn(i int, in vmath.Vector2) error {
	if err := c.checkIndex(i); err != nil {
		return err
	}
	c.points[i].In = in
	c.dirty = true
	return nil
}

func (c *Curve) SetPointOut(i int, out vmath.Vector2) error {
	if err := c.checkIndex(i); err != nil {
		return err
	}
	c.points[i].Out = out
	c.dirty = true
	return nil
}

func (c *Curve) RemovePoint(i int) error {
	if err := c.checkIndex(i); err != nil {
		return err
	}
	c.points = slices.Delete(c.points, i, i+1)
	c.dirty = true
	return nil
}

func (c *Curve) Clear() {
	if len(c.points) > 0 {
		c.points = c.points[:0]
		c.dirty = true
	}
}

func (c *Curve) PointCount() int { return len(c.points) }

func (c *Curve) PointPosition(i int) (vmath.Vector2, error) {
	if err := c.checkIndex(i); err != nil {
		return vmath.Zero, err
	}
	return c.points[i].Position, nil
}

func (c *Curve) PointIn(i int) (vmath.Vector2, error) {
	if err := c.checkIndex(i); err != nil {
		return vmath.Zero, err
	}
	return c.points[i].In, nil
}

func (c *Curve) PointOut(i int) (vmath.Vector2, error) {
	if err := c.checkIndex(i); err != nil {
		return vmath.Zero, err
	}
	return c.points[i].Out, nil
}

// Points returns a copy of the control points
func (c *Curve) Points() []Point { return slices.Clone(c.points) }

// Closed reports whether the first and last positions coincide
func (c *Curve) Closed() bool {
	n := len(c.points)
	return n > 1 && c.points[0].Position == c.points[n-1].Position
}

// bezier evaluates one cubic segment at t
func bezier(t fixed.Num, start, c1, c2, end vmath.Vector2) vmath.Vector2 {
	three := fixed.FromInt(3)
	omt := fixed.One.Sub(t)
	omt2 := omt.Mul(omt)
	omt3 := omt2.Mul(omt)
	t2 := t.Mul(t)
	t3 := t2.Mul(t)

	return start.Mul(omt3).
		Add(c1.Mul(omt2.Mul(t).Mul(three))).
		Add(c2.Mul(omt.Mul(t2).Mul(three))).
		Add(end.Mul(t3))
}

// segment evaluates segment i, between points i and i+1, at t
func (c *Curve) segment(i int, t fixed.Num) vmath.Vector2 {
	a, b := c.points[i], c.points[i+1]
	return bezier(t, a.Position, a.Position.Add(a.Out), b.Position.Add(b.In), b.Position)
}

// InterpolateSegment evaluates segment idx at t in [0, 1]
func (c *Curve) InterpolateSegment(idx int, t fixed.Num) (vmath.Vector2, error) {
	if len(c.points) < 2 {
		return vmath.Zero, ErrEmptyCurve
	}
	if idx < 0 || idx >= len(c.points)-1 {
		return vmath.Zero, fmt.Errorf("%w: segment %d of %d", ErrIndex, idx, len(c.points)-1)
	}
	if t < 0 || t > fixed.One {
		return vmath.Zero, fmt.Errorf("%w: t %v outside [0, 1]", ErrDomain, t)
	}
	return c.segment(idx, t), nil
}

// InterpolateF evaluates the curve at a whole-curve parameter: the integer
// part selects the segment and the fraction is its local t. Values are
// clamped to [0, segment count].
func (c *Curve) InterpolateF(f fixed.Num) (vmath.Vector2, error) {
	if len(c.points) < 2 {
		return vmath.Zero, ErrEmptyCurve
	}
	return c.atParam(f), nil
}

func (c *Curve) atParam(f fixed.Num) vmath.Vector2 {
	segs := len(c.points) - 1
	if f <= 0 {
		return c.points[0].Position
	}
	if f >= fixed.FromInt(int64(segs)) {
		return c.points[segs].Position
	}
	return c.segment(int(f.Int()), f.Frac())
}

// Evaluate maps t in [0, 1] onto the whole curve by baked arc position.
// The result lies on the cubic, not on the baked chord.
func (c *Curve) Evaluate(t fixed.Num) (vmath.Vector2, error) {
	if t < 0 || t > fixed.One {
		return vmath.Zero, fmt.Errorf("%w: t %v outside [0, 1]", ErrDomain, t)
	}
	if len(c.points) < 2 {
		return vmath.Zero, ErrEmptyCurve
	}
	c.bake()
	idx, frac := c.locate(c.bakedLength.Mul(t))
	f := c.bakedParam[idx]
	if idx < len(c.bakedParam)-1 {
		f = f.Lerp(c.bakedParam[idx+1], frac)
	}
	return c.atParam(f), nil
}

// --- Baking ---

// SetBakeInterval sets the baked point spacing; it must be positive
func (c *Curve) SetBakeInterval(d fixed.Num) error {
	if d <= 0 {
		return fmt.Errorf("%w: bake interval %v", ErrDomain, d)
	}
	c.bakeInterval = d
	c.dirty = true
	return nil
}

func (c *Curve) BakeInterval() fixed.Num { return c.bakeInterval }

func (c *Curve) BakedLength() fixed.Num {
	c.bake()
	return c.bakedLength
}

// BakedPoints returns a copy of the baked polyline
func (c *Curve) BakedPoints() []vmath.Vector2 {
	c.bake()
	return slices.Clone(c.baked)
}

func (c *Curve) bake() {
	if !c.dirty && c.baked != nil {
		return
	}
	c.dirty = false
	c.bakedLength = 0

	switch len(c.points) {
	case 0:
		c.baked, c.bakedParam = []vmath.Vector2{}, nil
		return
	case 1:
		c.baked, c.bakedParam = []vmath.Vector2{c.points[0].Position}, []fixed.Num{0}
		return
	}

	pos := c.points[0].Position
	baked := []vmath.Vector2{pos}
	params := []fixed.Num{0}

	for i := 0; i < len(c.points)-1; i++ {
		for p := fixed.Num(0); p < fixed.One; {
			np := fixed.Min2(p.Add(bakeStep), fixed.One)
			npp := c.segment(i, np)
			if pos.DistanceTo(npp) <= c.bakeInterval {
				p = np
				continue
			}

			// The interval boundary lies in (p, np]; bisect for it
			lo, hi := p, np
			for range bakeBisections {
				mid := lo.Add(hi.Sub(lo).Mul(fixed.Half))
				if pos.DistanceTo(c.segment(i, mid)) > c.bakeInterval {
					hi = mid
				} else {
					lo = mid
				}
			}
			pos = c.segment(i, hi)
			p = hi
			baked = append(baked, pos)
			params = append(params, fixed.FromInt(int64(i)).Add(hi))
		}
	}

	last := c.points[len(c.points)-1].Position
	rem := pos.DistanceTo(last)
	c.bakedLength = fixed.FromInt(int64(len(baked) - 1)).Mul(c.bakeInterval).Add(rem)
	if pos != last {
		baked = append(baked, last)
		params = append(params, fixed.FromInt(int64(len(c.points)-1)))
	}
	c.baked, c.bakedParam = baked, params
}

// segmentLength is the offset span of baked segment idx; the final segment
// carries the remainder
func (c *Curve) segmentLength(idx int) fixed.Num {
	if idx == len(c.baked)-2 {
		return c.bakedLength.Sub(fixed.FromInt(int64(idx)).Mul(c.bakeInterval))
	}
	return c.bakeInterval
}

// locate finds the baked segment holding offset and the fraction along it,
// clamping offset to [0, length]. idx is the last baked point at the end.
func (c *Curve) locate(offset fixed.Num) (idx int, frac fixed.Num) {
	n := len(c.baked)
	if n == 1 || offset <= 0 {
		return 0, 0
	}
	if offset >= c.bakedLength {
		return n - 1, 0
	}

	q, _ := offset.Div(c.bakeInterval)
	idx = int(q.Int())
	if idx >= n-1 {
		return n - 1, 0
	}
	frac = offset.Sub(fixed.FromInt(int64(idx)).Mul(c.bakeInterval))
	if seg := c.segmentLength(idx); seg > 0 {
		frac, _ = frac.Div(seg)
	}
	return idx, frac.Clamp(0, fixed.One)
}

// bakedAt samples the baked polyline, clamping offset to [0, length]
func (c *Curve) bakedAt(offset fixed.Num, cubic bool) vmath.Vector2 {
	n := len(c.baked)
	idx, frac := c.locate(offset)
	if idx == n-1 {
		return c.baked[idx]
	}

	a, b := c.baked[idx], c.baked[idx+1]
	if !cubic {
		return a.Lerp(b, frac)
	}
	pre, post := a, b
	if idx > 0 {
		pre = c.baked[idx-1]
	}
	if idx < n-2 {
		post = c.baked[idx+2]
	}
	return a.CubicInterpolate(b, pre, post, frac)
}

// InterpolateBaked samples the curve at offset along its baked length.
// Offsets outside [0, BakedLength] fail with ErrDomain.
func (c *Curve) InterpolateBaked(offset fixed.Num, cubic bool) (vmath.Vector2, error) {
	if len(c.points) < 2 {
		return vmath.Zero, ErrEmptyCurve
	}
	c.bake()
	if offset < 0 || offset > c.bakedLength {
		return vmath.Zero, fmt.Errorf("%w: offset %v outside [0, %v]", ErrDomain, offset, c.bakedLength)
	}
	return c.bakedAt(offset, cubic), nil
}

// closest scans the baked polyline; ties keep the earliest segment
func (c *Curve) closest(p vmath.Vector2) (vmath.Vector2, fixed.Num, error) {
	if len(c.points) < 2 {
		return vmath.Zero, 0, ErrEmptyCurve
	}
	c.bake()

	var best vmath.Vector2
	var bestOffset, bestD fixed.Num
	found := false
	var base fixed.Num
	for i := 0; i < len(c.baked)-1; i++ {
		a, b := c.baked[i], c.baked[i+1]
		seg := b.Sub(a)
		var t fixed.Num
		if l2 := seg.LengthSquared(); l2 > 0 {
			t, _ = p.Sub(a).Dot(seg).Div(l2)
			t = t.Clamp(0, fixed.One)
		}
		proj := a.Add(seg.Mul(t))
		if d := proj.DistanceSquaredTo(p); !found || d < bestD {
			best, bestD, found = proj, d, true
			bestOffset = base.Add(c.segmentLength(i).Mul(t))
		}
		base = base.Add(c.bakeInterval)
	}
	return best, bestOffset, nil
}

// ClosestPoint returns the baked curve position nearest p
func (c *Curve) ClosestPoint(p vmath.Vector2) (vmath.Vector2, error) {
	pt, _, err := c.closest(p)
	return pt, err
}

// ClosestOffset returns the baked offset of the curve position nearest p
func (c *Curve) ClosestOffset(p vmath.Vector2) (fixed.Num, error) {
	_, off, err := c.closest(p)
	return off, err
}

// --- Tessellation ---

// Tessellate returns a polyline that subdivides each segment, up to
// maxStages deep, wherever consecutive chords turn by more than
// toleranceDeg degrees. Control point positions are always included.
func (c *Curve) Tessellate(maxStages int, toleranceDeg fixed.Num) []vmath.Vector2 {
	if len(c.points) == 0 {
		return nil
	}
	limit := fixed.Deg2Rad(toleranceDeg).Cos()

	out := []vmath.Vector2{c.points[0].Position}
	for i := 0; i < len(c.points)-1; i++ {
		mids := make(map[fixed.Num]vmath.Vector2)
		c.tessellateSegment(mids, i, 0, fixed.One, 0, maxStages, limit)

		keys := make([]fixed.Num, 0, len(mids))
		for k := range mids {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		for _, k := range keys {
			out = append(out, mids[k])
		}
		out = append(out, c.points[i+1].Position)
	}
	return out
}

func (c *Curve) tessellateSegment(mids map[fixed.Num]vmath.Vector2, i int, begin, end fixed.Num, depth, maxDepth int, limit fixed.Num) {
	mp := begin.Add(end.Sub(begin).Mul(fixed.Half))
	beg := c.segment(i, begin)
	mid := c.segment(i, mp)
	fin := c.segment(i, end)

	na, errA := mid.Sub(beg).Normalized()
	nb, errB := fin.Sub(mid).Normalized()
	if errA == nil && errB == nil && na.Dot(nb) < limit {
		mids[mp] = mid
	}

	if depth < maxDepth {
		c.tessellateSegment(mids, i, begin, mp, depth+1, maxDepth, limit)
		c.tessellateSegment(mids, i, mp, end, depth+1, maxDepth, limit)
	}
}
