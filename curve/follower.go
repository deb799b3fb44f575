package curve

import (
	"github.com/lixenwraith/sgphysics/fixed"
	"github.com/lixenwraith/sgphysics/vmath"
)

// Follower tracks a position along a curve by baked offset
type Follower struct {
	Curve *Curve

	// Offset along the baked length; see SetOffset for wrapping
	Offset fixed.Num
	// HOffset and VOffset displace along the tangent and normal when
	// rotating, or along x and y otherwise
	HOffset fixed.Num
	VOffset fixed.Num

	Loop      bool
	Rotate    bool
	Cubic     bool
	Lookahead fixed.Num
}

// NewFollower returns a looping, rotating follower with a lookahead of 4
func NewFollower(c *Curve) *Follower {
	return &Follower{
		Curve:     c,
		Loop:      true,
		Rotate:    true,
		Cubic:     true,
		Lookahead: fixed.FromInt(4),
	}
}

// SetOffset wraps the offset into the curve when looping and clamps it
// otherwise. A nonzero offset landing exactly on a wrap stays at the end.
func (f *Follower) SetOffset(offset fixed.Num) {
	f.Offset = f.wrap(offset)
}

// Advance moves the follower by delta along the curve
func (f *Follower) Advance(delta fixed.Num) {
	f.SetOffset(f.Offset.Add(delta))
}

func (f *Follower) wrap(offset fixed.Num) fixed.Num {
	if f.Curve == nil {
		return offset
	}
	length := f.Curve.BakedLength()
	if length == 0 {
		return offset
	}
	if !f.Loop {
		return offset.Clamp(0, length)
	}
	w := offset % length
	if w < 0 {
		w = w.Add(length)
	}
	if offset != 0 && w == 0 {
		return length
	}
	return w
}

// UnitOffset is Offset as a fraction of the baked length
func (f *Follower) UnitOffset() fixed.Num {
	if f.Curve == nil {
		return 0
	}
	length := f.Curve.BakedLength()
	u, err := f.Offset.Div(length)
	if err != nil {
		return 0
	}
	return u
}

func (f *Follower) SetUnitOffset(u fixed.Num) {
	if f.Curve == nil {
		return
	}
	f.SetOffset(u.Mul(f.Curve.BakedLength()))
}

// Transform returns the follower's world transform on the curve
func (f *Follower) Transform() (vmath.Transform2D, error) {
	if f.Curve == nil || f.Curve.PointCount() < 2 {
		return vmath.Identity, ErrEmptyCurve
	}
	c := f.Curve
	c.bake()
	length := c.bakedLength
	offset := f.wrap(f.Offset)
	pos := c.bakedAt(offset, f.Cubic)

	if !f.Rotate {
		return vmath.Translation(pos.Add(vmath.Vec(f.HOffset, f.VOffset))), nil
	}

	ahead := offset.Add(f.Lookahead)
	if f.Loop && ahead >= length && c.Closed() {
		// Closed loop: look across the seam instead of stalling at the end
		ahead = ahead % length
	}
	aheadPos := c.bakedAt(ahead, f.Cubic)

	var dir vmath.Vector2
	if aheadPos == pos {
		// End of an open path: look behind instead
		dir = pos.Sub(c.bakedAt(offset.Sub(f.Lookahead), f.Cubic))
	} else {
		dir = aheadPos.Sub(pos)
	}
	tangent, err := dir.Normalized()
	if err != nil {
		tangent = vmath.Right
	}
	normal := tangent.Tangent().Neg()

	pos = pos.Add(tangent.Mul(f.HOffset)).Add(normal.Mul(f.VOffset))
	return vmath.NewTransform(tangent.Angle(), pos), nil
}
