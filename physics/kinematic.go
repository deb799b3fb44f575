package physics

import (
	"fmt"

	"github.com/lixenwraith/sgphysics/collision"
	"github.com/lixenwraith/sgphysics/fixed"
	"github.com/lixenwraith/sgphysics/vmath"
)

// maxSubsteps bounds the sweep of a single move
const maxSubsteps = 4096

func (s *Server) kinematic(id ObjectID) (*object, error) {
	if s.stepping {
		return nil, ErrStepInProgress
	}
	o, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	if o.kind != KinematicBody {
		return nil, fmt.Errorf("%w: %d is %v", ErrNotKinematic, id, o.kind)
	}
	return o, nil
}

// MoveAndCollide moves a kinematic body by motion and stops at the first
// body it hits. It returns nil when the whole motion was applied.
// A body that cannot be freed within the iteration budget is reported as a
// collision with Depth > 0.
func (s *Server) MoveAndCollide(id ObjectID, motion vmath.Vector2) (*Collision, error) {
	o, err := s.kinematic(id)
	if err != nil {
		return nil, err
	}
	c, iters := s.moveAndCollide(o, motion)
	s.mIterations.Add(int64(iters))
	return c, nil
}

func (s *Server) moveAndCollide(o *object, motion vmath.Vector2) (*Collision, int) {
	iters := 0
	res, n := s.pushOut(o, s.cfg.MaxIterations)
	iters += n
	if res.stuck {
		return &Collision{
			Collider:  res.other,
			Normal:    res.contact.Normal,
			Depth:     res.contact.Depth,
			Point:     res.contact.Point,
			Remainder: motion,
		}, iters
	}
	if motion.IsZero() {
		return nil, iters
	}

	start := o.xform.Origin
	steps := s.substeps(o, motion)
	total := fixed.FromInt(steps)
	for i := int64(1); i <= steps; i++ {
		k := fixed.FromInt(i)
		dx, _ := fixed.MulDiv(motion.X, k, total)
		dy, _ := fixed.MulDiv(motion.Y, k, total)
		o.xform.Origin = start.Add(vmath.Vec(dx, dy))
		s.refresh(o)

		first, other, hit := s.deepestContact(o)
		if !hit {
			continue
		}
		res, n := s.pushOut(o, s.cfg.MaxIterations)
		iters += n
		travel := o.xform.Origin.Sub(start)
		col := &Collision{
			Collider:  other,
			Normal:    first.Normal,
			Point:     first.Point,
			Travel:    travel,
			Remainder: motion.Sub(travel).Slide(first.Normal),
		}
		if res.stuck {
			col.Collider = res.other
			col.Normal = res.contact.Normal
			col.Depth = res.contact.Depth
		}
		return col, iters
	}
	return nil, iters
}

// substeps splits motion into pieces no longer than half the body's
// smallest extent, and at least one unit
func (s *Server) substeps(o *object, motion vmath.Vector2) int64 {
	extent := fixed.Max
	for _, p := range s.placed(o) {
		extent = fixed.Min2(extent, p.Shape.MinExtent())
	}
	piece := fixed.Max2(extent.Mul(fixed.Half), fixed.One)
	q, err := motion.Length().Div(piece)
	if err != nil {
		return maxSubsteps
	}
	return min(max(q.Ceil().Int(), 1), maxSubsteps)
}

type pushResult struct {
	stuck   bool
	other   ObjectID
	contact collision.Contact
}

// pushOut separates o from the bodies it penetrates, deepest first, for at
// most budget iterations
func (s *Server) pushOut(o *object, budget int) (pushResult, int) {
	for i := 0; i < budget; i++ {
		c, _, hit := s.deepestContact(o)
		if !hit {
			return pushResult{}, i
		}
		o.xform.Origin = o.xform.Origin.Add(c.Normal.Mul(c.Depth.Add(s.cfg.SafeMargin)))
		s.refresh(o)
	}
	c, other, hit := s.deepestContact(o)
	if !hit {
		return pushResult{}, budget
	}
	return pushResult{stuck: true, other: other, contact: c}, budget
}

// deepestContact finds the body o penetrates most; equal depths keep the
// lowest ID
func (s *Server) deepestContact(o *object) (collision.Contact, ObjectID, bool) {
	r, ok := s.bounds(o)
	if !ok {
		return collision.Contact{}, 0, false
	}
	var (
		best  collision.Contact
		other ObjectID
		found bool
	)
	for _, bid := range s.grid.Query(r, o.mask) {
		id := ObjectID(bid)
		if id == o.id {
			continue
		}
		b := s.objects[id]
		if b == nil || b.kind == Area || b.dying {
			continue
		}
		c, hit := s.contactBetween(o, b)
		if hit && (!found || c.Depth > best.Depth) {
			best, other, found = c, id, true
		}
	}
	return best, other, found
}

// MoveAndSlide moves a kinematic body by velocity, sliding along whatever
// it hits for up to maxSlides collisions, and returns the velocity left
// after sliding. Velocity is motion per call, the way a fixed-tick caller
// uses it.
//
// A collision whose normal is within floorMaxAngle of up marks the body on
// the floor; within floorMaxAngle of -up on the ceiling; anything else, or
// any collision when up is zero, on a wall. The result is kept for
// BodyState.
func (s *Server) MoveAndSlide(id ObjectID, velocity, up vmath.Vector2, maxSlides int, floorMaxAngle fixed.Num) (vmath.Vector2, error) {
	o, err := s.kinematic(id)
	if err != nil {
		return vmath.Zero, err
	}
	if maxSlides <= 0 {
		maxSlides = DefaultMaxSlides
	}

	st := BodyState{}
	motion := velocity
	body := velocity
	iters := 0
	for range maxSlides {
		c, n := s.moveAndCollide(o, motion)
		iters += n
		if c == nil {
			break
		}
		if c.Depth > 0 {
			body = vmath.Zero
			break
		}
		st.SlideCollisions = append(st.SlideCollisions, *c)

		switch {
		case up.IsZero():
			st.OnWall = true
		case angleBetween(c.Normal, up) <= floorMaxAngle:
			st.OnFloor = true
			st.FloorNormal = c.Normal
		case angleBetween(c.Normal, up.Neg()) <= floorMaxAngle:
			st.OnCeiling = true
		default:
			st.OnWall = true
		}

		motion = c.Remainder.Slide(c.Normal)
		body = body.Slide(c.Normal)
		if motion.IsZero() {
			break
		}
	}
	st.Velocity = body
	o.body = st
	s.mIterations.Add(int64(iters))
	return body, nil
}

func angleBetween(n, up vmath.Vector2) fixed.Num {
	a, err := n.Dot(up).Clamp(fixed.NegOne, fixed.One).Acos()
	if err != nil {
		return fixed.Pi
	}
	return a
}

// BodyState returns the result of a body's last MoveAndSlide
func (s *Server) BodyState(id ObjectID) (BodyState, error) {
	o, err := s.lookup(id)
	if err != nil {
		return BodyState{}, err
	}
	if o.kind != KinematicBody {
		return BodyState{}, fmt.Errorf("%w: %d is %v", ErrNotKinematic, id, o.kind)
	}
	return o.body, nil
}

// Unstuck pushes a kinematic body out of the bodies it penetrates, for at
// most maxAttempts iterations, and reports whether it ended up free
func (s *Server) Unstuck(id ObjectID, maxAttempts int) (bool, error) {
	o, err := s.kinematic(id)
	if err != nil {
		return false, err
	}
	res, n := s.pushOut(o, maxAttempts)
	s.mIterations.Add(int64(n))
	return !res.stuck, nil
}

// RotateAndSlide turns a kinematic body by rotation radians and then pushes
// it free, reporting whether it ended up free
func (s *Server) RotateAndSlide(id ObjectID, rotation fixed.Num, maxSlides int) (bool, error) {
	o, err := s.kinematic(id)
	if err != nil {
		return false, err
	}
	if maxSlides <= 0 {
		maxSlides = DefaultMaxSlides
	}
	// Turn the basis in place so scale and origin are kept
	o.xform.X = o.xform.X.Rotated(rotation)
	o.xform.Y = o.xform.Y.Rotated(rotation)
	s.refresh(o)
	res, n := s.pushOut(o, maxSlides)
	s.mIterations.Add(int64(n))
	return !res.stuck, nil
}
