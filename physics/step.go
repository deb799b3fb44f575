package physics

import (
	"cmp"
	"fmt"
	"maps"
	"slices"

	"github.com/lixenwraith/sgphysics/broadphase"
	"github.com/lixenwraith/sgphysics/collision"
	"github.com/lixenwraith/sgphysics/event"
	"github.com/lixenwraith/sgphysics/fixed"
	"github.com/lixenwraith/sgphysics/vmath"
)

// Step advances the world by one fixed tick. dt must equal Config.TimeStep.
//
// Order within a step:
//  1. Created objects become Active, including those created during the last step
//  2. Motion callbacks run and non-static objects move, in creation order
//  3. Moved objects are refreshed in the broad phase
//  4. Candidate pairs are collected
//  5. Narrow phase records body contacts and area overlaps
//  6. Differences from the last step are queued as events
//  7. Mutations requested during the step are applied in request order
func (s *Server) Step(dt fixed.Num) error {
	if dt != s.cfg.TimeStep {
		return fmt.Errorf("%w: got %v, world runs at %v", ErrVariableTimestep, dt, s.cfg.TimeStep)
	}
	if s.stepping {
		return ErrStepInProgress
	}
	s.stepping = true
	s.mStepping.Store(true)
	s.step++
	s.mSteps.Add(1)

	s.activate()
	iters, swept := s.integrate(dt)

	for _, o := range s.order {
		if o.dirty {
			s.refresh(o)
		}
	}

	pairs := s.grid.Pairs()
	contacts, overlaps := s.narrowPhase(pairs)
	// A sweep stops at touching distance, which the narrow phase does not
	// count as overlap
	for k, c := range swept {
		if _, ok := contacts[k]; !ok {
			contacts[k] = c
		}
	}
	s.mPairs.Add(int64(len(pairs)))
	s.mIterations.Add(int64(iters))
	s.mContacts.Store(int64(len(contacts)))
	s.mOverlaps.Store(int64(len(overlaps)))
	var deepest fixed.Num
	for _, c := range contacts {
		deepest = fixed.Max2(deepest, c.Depth)
	}
	s.mMaxDepth.Store(deepest)

	s.diff(contacts, overlaps)

	s.stepping = false
	s.mStepping.Store(false)
	ops := s.deferred
	s.deferred = nil
	for _, op := range ops {
		op()
	}
	return nil
}

// activate moves Created objects to Active and places pending ones
func (s *Server) activate() {
	for _, o := range s.order {
		if o.state != Created || o.dying {
			continue
		}
		if o.pending {
			o.pending = false
			s.refresh(o)
		}
		o.state = Active
	}
}

// integrate runs motion for every awake non-static object and returns the
// number of resolution iterations spent
func (s *Server) integrate(dt fixed.Num) (int, map[pairKey]collision.Contact) {
	iters := 0
	swept := make(map[pairKey]collision.Contact)
	// Objects created by callbacks append to order; they wait for the next step
	n := len(s.order)
	for i := 0; i < n; i++ {
		o := s.order[i]
		if o.state != Active || o.dying || o.kind == StaticBody {
			continue
		}
		if o.motion != nil {
			o.velocity = o.motion(MotionContext{
				Server:    s,
				ID:        o.id,
				Step:      s.step,
				Dt:        dt,
				Transform: o.xform,
				Velocity:  o.velocity,
			})
		}
		if o.maxSpeed > 0 {
			o.velocity = o.velocity.ClampLength(o.maxSpeed)
		}
		if o.velocity.IsZero() {
			continue
		}
		motion := o.velocity.Mul(dt)
		if o.kind == KinematicBody {
			start := o.xform.Origin
			c, k := s.moveAndCollide(o, motion)
			iters += k
			s.resolveStep(o, c, o.xform.Origin.Sub(start), dt, swept)
		} else {
			o.xform.Origin = o.xform.Origin.Add(motion)
			o.dirty = true
		}
		if o.xform.Origin.Saturated() {
			s.mSaturated.Add(1)
			s.log.Debug("position saturated", "id", o.id, "origin", o.xform.Origin.String())
		}
	}
	return iters, swept
}

// resolveStep records a velocity-driven move in the body state and keeps its
// collision as a contact for this step
func (s *Server) resolveStep(o *object, c *Collision, travel vmath.Vector2, dt fixed.Num, swept map[pairKey]collision.Contact) {
	resolved, err := travel.Div(dt)
	if err != nil {
		resolved = vmath.Zero
	}
	o.body = BodyState{Velocity: resolved}
	if c == nil {
		return
	}
	o.body.SlideCollisions = []Collision{*c}
	other := s.objects[c.Collider]
	if other == nil || other.dying {
		return
	}
	contact := collision.Contact{Normal: c.Normal, Depth: c.Depth, Point: c.Point}
	key := pairKey{o.id, other.id}
	if other.id < o.id {
		key = pairKey{other.id, o.id}
		contact.Normal = contact.Normal.Neg()
	}
	swept[key] = contact
}

// narrowPhase tests candidate pairs. Objects awaiting destruction take no
// part, so their previous contacts end this step.
func (s *Server) narrowPhase(pairs []broadphase.Pair) (map[pairKey]collision.Contact, map[overlapKey]struct{}) {
	contacts := make(map[pairKey]collision.Contact)
	overlaps := make(map[overlapKey]struct{})
	for _, p := range pairs {
		a, b := s.objects[ObjectID(p.A)], s.objects[ObjectID(p.B)]
		if a == nil || b == nil || a.dying || b.dying {
			continue
		}
		if a.id > b.id {
			a, b = b, a
		}
		if a.kind.isBody() && b.kind.isBody() {
			if a.kind == StaticBody && b.kind == StaticBody {
				continue
			}
			if a.mask&b.layer == 0 && b.mask&a.layer == 0 {
				continue
			}
			if c, ok := s.contactBetween(a, b); ok {
				contacts[pairKey{a.id, b.id}] = c
			}
			continue
		}

		ab, ba := detects(a, b), detects(b, a)
		if !ab && !ba {
			continue
		}
		if _, ok := s.contactBetween(a, b); !ok {
			continue
		}
		if ab {
			overlaps[overlapKey{a.id, b.id}] = struct{}{}
		}
		if ba {
			overlaps[overlapKey{b.id, a.id}] = struct{}{}
		}
	}
	return contacts, overlaps
}

// diff queues events for the change from the stored contacts and overlaps,
// then stores the new sets
func (s *Server) diff(contacts map[pairKey]collision.Contact, overlaps map[overlapKey]struct{}) {
	keys := slices.Collect(maps.Keys(contacts))
	for k := range s.contacts {
		if _, ok := contacts[k]; !ok {
			keys = append(keys, k)
		}
	}
	slices.SortFunc(keys, func(x, y pairKey) int {
		return cmp.Or(cmp.Compare(x.a, y.a), cmp.Compare(x.b, y.b))
	})
	for _, k := range keys {
		r := event.Record{A: uint64(k.a), B: uint64(k.b)}
		c, now := contacts[k]
		_, before := s.contacts[k]
		switch {
		case now && before:
			r.Type = event.CollisionContinue
		case now:
			r.Type = event.CollisionStart
		default:
			r.Type = event.CollisionEnd
		}
		if now {
			r.Normal, r.Depth = c.Normal, c.Depth
		}
		s.emit(r)
	}

	areaKeys := slices.Collect(maps.Keys(overlaps))
	for k := range s.overlaps {
		if _, ok := overlaps[k]; !ok {
			areaKeys = append(areaKeys, k)
		}
	}
	slices.SortFunc(areaKeys, func(x, y overlapKey) int {
		return cmp.Or(cmp.Compare(x.area, y.area), cmp.Compare(x.other, y.other))
	})
	for _, k := range areaKeys {
		_, now := overlaps[k]
		_, before := s.overlaps[k]
		switch {
		case now && !before:
			s.emit(event.Record{Type: event.AreaEnter, A: uint64(k.area), B: uint64(k.other)})
		case !now && before:
			s.emit(event.Record{Type: event.AreaExit, A: uint64(k.area), B: uint64(k.other)})
		}
	}

	s.contacts = contacts
	s.overlaps = overlaps
}

func (s *Server) emit(r event.Record) {
	r.Step = s.step
	s.events.Push(r)
	s.mEvents.Add(1)
}

// compareRecords puts collision records before area records, then orders
// by object IDs
func compareRecords(x, y event.Record) int {
	rank := func(t event.Type) int {
		if t.IsCollision() {
			return 0
		}
		return 1
	}
	return cmp.Or(
		cmp.Compare(rank(x.Type), rank(y.Type)),
		cmp.Compare(x.A, y.A),
		cmp.Compare(x.B, y.B),
	)
}

// Events drains the records queued since the last call, oldest first.
// It returns nil when nothing happened.
func (s *Server) Events() []event.Record {
	return s.events.Consume()
}

// Stats returns the world's counters
func (s *Server) Stats() Stats {
	return Stats{
		Step:        s.step,
		Objects:     len(s.order),
		PairsTested: s.mPairs.Load(),
		Contacts:    s.mContacts.Load(),
		Overlaps:    s.mOverlaps.Load(),
		Events:      s.mEvents.Load(),
		Iterations:  s.mIterations.Load(),
		Saturated:   s.mSaturated.Load(),
	}
}
