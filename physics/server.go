package physics

import (
	"fmt"
	"log/slog"
	"slices"
	"sync/atomic"

	"github.com/lixenwraith/sgphysics/broadphase"
	"github.com/lixenwraith/sgphysics/collision"
	"github.com/lixenwraith/sgphysics/event"
	"github.com/lixenwraith/sgphysics/fixed"
	"github.com/lixenwraith/sgphysics/shape"
	"github.com/lixenwraith/sgphysics/status"
	"github.com/lixenwraith/sgphysics/vmath"
)

// Counter keys in the status registry
const (
	MetricSteps      = "physics.steps"
	MetricObjects    = "physics.objects"
	MetricPairs      = "physics.pairs_tested"
	MetricContacts   = "physics.contacts"
	MetricOverlaps   = "physics.overlaps"
	MetricEvents     = "physics.events"
	MetricIterations = "physics.iterations"
	MetricMaxDepth   = "physics.max_depth"
	MetricStepping   = "physics.stepping"
	MetricSaturated  = "physics.saturated"
)

type object struct {
	id          ObjectID
	kind        Kind
	state       State
	shapes      []ShapeRef
	xform       vmath.Transform2D
	layer       uint32
	mask        uint32
	monitorable bool
	velocity    vmath.Vector2
	maxSpeed    fixed.Num
	motion      MotionFunc

	pending bool // Created during a step, not yet in the grid
	inGrid  bool
	dying   bool // Destroy requested during a step
	dirty   bool // Moved without a grid refresh
	body    BodyState
}

// pairKey orders a body pair by creation: a < b
type pairKey struct {
	a, b ObjectID
}

type overlapKey struct {
	area, other ObjectID
}

// Server is one simulated world.
// Not safe for concurrent use; drive it from a single goroutine.
type Server struct {
	cfg  Config
	log  *slog.Logger
	grid *broadphase.Grid

	shapes    map[ShapeID]shape.Shape
	shapeRefs map[ShapeID]int
	nextShape ShapeID

	objects   map[ObjectID]*object
	order     []*object // Ascending ID
	destroyed map[ObjectID]struct{}
	nextID    ObjectID

	step     uint64
	stepping bool
	deferred []func()

	contacts map[pairKey]collision.Contact
	overlaps map[overlapKey]struct{}
	events   *event.Queue

	mSteps, mObjects, mPairs, mContacts, mOverlaps, mEvents, mIterations, mSaturated *atomic.Int64

	mMaxDepth *status.AtomicNum
	mStepping *atomic.Bool
}

// New creates an empty world; zero Config fields take their defaults
func New(cfg Config) *Server {
	cfg = cfg.withDefaults()
	reg := cfg.Registry
	return &Server{
		cfg:         cfg,
		log:         cfg.Logger,
		grid:        broadphase.NewGrid(cfg.CellSize),
		shapes:      make(map[ShapeID]shape.Shape),
		shapeRefs:   make(map[ShapeID]int),
		objects:     make(map[ObjectID]*object),
		destroyed:   make(map[ObjectID]struct{}),
		contacts:    make(map[pairKey]collision.Contact),
		overlaps:    make(map[overlapKey]struct{}),
		events:      event.NewQueue(),
		mSteps:      reg.Ints.Get(MetricSteps),
		mObjects:    reg.Ints.Get(MetricObjects),
		mPairs:      reg.Ints.Get(MetricPairs),
		mContacts:   reg.Ints.Get(MetricContacts),
		mOverlaps:   reg.Ints.Get(MetricOverlaps),
		mEvents:     reg.Ints.Get(MetricEvents),
		mIterations: reg.Ints.Get(MetricIterations),
		mSaturated:  reg.Ints.Get(MetricSaturated),
		mMaxDepth:   reg.Nums.Get(MetricMaxDepth),
		mStepping:   reg.Bools.Get(MetricStepping),
	}
}

// Config returns the effective configuration
func (s *Server) Config() Config { return s.cfg }

// CurrentStep is the number of completed steps
func (s *Server) CurrentStep() uint64 { return s.step }

// --- Shapes ---

// CreateShape registers a shape for objects to reference
func (s *Server) CreateShape(sh shape.Shape) ShapeID {
	s.nextShape++
	s.shapes[s.nextShape] = sh
	return s.nextShape
}

// Shape returns a registered shape
func (s *Server) Shape(id ShapeID) (shape.Shape, error) {
	sh, ok := s.shapes[id]
	if !ok {
		return shape.Shape{}, fmt.Errorf("%w: %d", ErrUnknownShape, id)
	}
	return sh, nil
}

// DestroyShape unregisters a shape no live object references
func (s *Server) DestroyShape(id ShapeID) error {
	if _, ok := s.shapes[id]; !ok {
		return fmt.Errorf("%w: %d", ErrUnknownShape, id)
	}
	if s.shapeRefs[id] > 0 {
		return fmt.Errorf("%w: %d", ErrShapeInUse, id)
	}
	delete(s.shapes, id)
	delete(s.shapeRefs, id)
	return nil
}

// --- Objects ---

// CreateObject adds an object in the Created state. Outside a step it is
// queryable at once; during a step it joins the world when the next step
// begins.
func (s *Server) CreateObject(spec ObjectSpec) (ObjectID, error) {
	if spec.Kind > KinematicBody {
		return 0, fmt.Errorf("%w: kind %d", ErrInvalidObject, spec.Kind)
	}
	xform := orIdentity(spec.Transform)
	if xform.Determinant().Abs() < vmath.SingularEpsilon {
		return 0, fmt.Errorf("%w: %w", ErrInvalidObject, vmath.ErrSingular)
	}
	refs := slices.Clone(spec.Shapes)
	for i := range refs {
		if _, ok := s.shapes[refs[i].Shape]; !ok {
			return 0, fmt.Errorf("%w: %d", ErrUnknownShape, refs[i].Shape)
		}
		refs[i].Offset = orIdentity(refs[i].Offset)
	}

	s.nextID++
	o := &object{
		id:          s.nextID,
		kind:        spec.Kind,
		state:       Created,
		shapes:      refs,
		xform:       xform,
		layer:       spec.Layer,
		mask:        spec.Mask,
		monitorable: spec.Monitorable,
		velocity:    spec.Velocity,
		maxSpeed:    spec.MaxSpeed,
		motion:      spec.Motion,
		pending:     s.stepping,
	}
	for _, r := range refs {
		s.shapeRefs[r.Shape]++
	}
	s.objects[o.id] = o
	s.order = append(s.order, o)
	s.mObjects.Add(1)
	if !o.pending {
		s.refresh(o)
	}
	s.log.Debug("object created", "id", o.id, "kind", o.kind.String(), "deferred", o.pending)
	return o.id, nil
}

func orIdentity(t vmath.Transform2D) vmath.Transform2D {
	if t == (vmath.Transform2D{}) {
		return vmath.Identity
	}
	return t
}

// lookup returns a live object
func (s *Server) lookup(id ObjectID) (*object, error) {
	o, ok := s.objects[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownObject, id)
	}
	return o, nil
}

// mutate applies fn now, or at the end of the step in progress
func (s *Server) mutate(id ObjectID, fn func(o *object)) {
	if !s.stepping {
		if o, ok := s.objects[id]; ok {
			fn(o)
		}
		return
	}
	s.deferred = append(s.deferred, func() {
		if o, ok := s.objects[id]; ok {
			fn(o)
		}
	})
}

// Destroy removes an object. Live contacts and overlaps it had end with
// CollisionEnd and AreaExit events. During a step the removal happens when
// the step ends.
func (s *Server) Destroy(id ObjectID) error {
	o, ok := s.objects[id]
	if !ok {
		if _, gone := s.destroyed[id]; gone {
			return fmt.Errorf("%w: %d is %v", ErrInvalidTransition, id, Destroyed)
		}
		return fmt.Errorf("%w: %d", ErrUnknownObject, id)
	}
	if o.dying {
		return fmt.Errorf("%w: %d already destroyed", ErrInvalidTransition, id)
	}
	if s.stepping {
		o.dying = true
		s.deferred = append(s.deferred, func() { s.remove(o) })
		return nil
	}
	s.remove(o)
	return nil
}

func (s *Server) remove(o *object) {
	if _, ok := s.objects[o.id]; !ok {
		return
	}
	var ends []event.Record
	for k := range s.contacts {
		if k.a == o.id || k.b == o.id {
			ends = append(ends, event.Record{Type: event.CollisionEnd, A: uint64(k.a), B: uint64(k.b)})
			delete(s.contacts, k)
		}
	}
	for k := range s.overlaps {
		if k.area == o.id || k.other == o.id {
			ends = append(ends, event.Record{Type: event.AreaExit, A: uint64(k.area), B: uint64(k.other)})
			delete(s.overlaps, k)
		}
	}
	slices.SortFunc(ends, compareRecords)
	for _, r := range ends {
		s.emit(r)
	}

	if o.inGrid {
		s.grid.Remove(broadphase.ID(o.id))
	}
	for _, r := range o.shapes {
		s.shapeRefs[r.Shape]--
	}
	delete(s.objects, o.id)
	s.order = slices.DeleteFunc(s.order, func(x *object) bool { return x == o })
	s.destroyed[o.id] = struct{}{}
	o.state = Destroyed
	s.mObjects.Add(-1)
	s.log.Debug("object destroyed", "id", o.id, "ended", len(ends))
}

// State returns an object's lifecycle state; destroyed IDs report Destroyed
func (s *Server) State(id ObjectID) (State, error) {
	if o, ok := s.objects[id]; ok {
		return o.state, nil
	}
	if _, ok := s.destroyed[id]; ok {
		return Destroyed, nil
	}
	return 0, fmt.Errorf("%w: %d", ErrUnknownObject, id)
}

func (s *Server) transition(id ObjectID, to State) error {
	o, err := s.lookup(id)
	if err != nil {
		return err
	}
	if !canTransition(o.state, to) {
		return fmt.Errorf("%w: %d %v -> %v", ErrInvalidTransition, id, o.state, to)
	}
	s.mutate(id, func(o *object) {
		if canTransition(o.state, to) {
			s.log.Debug("object state", "id", o.id, "from", o.state.String(), "to", to.String())
			o.state = to
		}
	})
	return nil
}

// Sleep stops an Active object from moving during steps. A sleeping object
// still blocks others and keeps its contacts.
func (s *Server) Sleep(id ObjectID) error { return s.transition(id, Sleeping) }

// Wake returns a Sleeping object to Active. Created objects become Active
// only when a step begins.
func (s *Server) Wake(id ObjectID) error {
	o, err := s.lookup(id)
	if err != nil {
		return err
	}
	if o.state != Sleeping {
		return fmt.Errorf("%w: %d %v -> %v", ErrInvalidTransition, id, o.state, Active)
	}
	return s.transition(id, Active)
}

func (s *Server) SetTransform(id ObjectID, xform vmath.Transform2D) error {
	if _, err := s.lookup(id); err != nil {
		return err
	}
	xform = orIdentity(xform)
	if xform.Determinant().Abs() < vmath.SingularEpsilon {
		return fmt.Errorf("%w: %w", ErrInvalidObject, vmath.ErrSingular)
	}
	s.mutate(id, func(o *object) {
		o.xform = xform
		s.refresh(o)
	})
	return nil
}

func (s *Server) Transform(id ObjectID) (vmath.Transform2D, error) {
	o, err := s.lookup(id)
	if err != nil {
		return vmath.Transform2D{}, err
	}
	return o.xform, nil
}

func (s *Server) SetVelocity(id ObjectID, v vmath.Vector2) error {
	if _, err := s.lookup(id); err != nil {
		return err
	}
	s.mutate(id, func(o *object) { o.velocity = v })
	return nil
}

func (s *Server) Velocity(id ObjectID) (vmath.Vector2, error) {
	o, err := s.lookup(id)
	if err != nil {
		return vmath.Zero, err
	}
	return o.velocity, nil
}

// SetMotion replaces the per-step motion callback; nil clears it
func (s *Server) SetMotion(id ObjectID, fn MotionFunc) error {
	if _, err := s.lookup(id); err != nil {
		return err
	}
	s.mutate(id, func(o *object) { o.motion = fn })
	return nil
}

func (s *Server) SetLayer(id ObjectID, layer uint32) error {
	if _, err := s.lookup(id); err != nil {
		return err
	}
	s.mutate(id, func(o *object) {
		o.layer = layer
		if o.inGrid {
			s.grid.SetFilter(broadphase.ID(o.id), o.layer, o.mask)
		}
	})
	return nil
}

func (s *Server) SetMask(id ObjectID, mask uint32) error {
	if _, err := s.lookup(id); err != nil {
		return err
	}
	s.mutate(id, func(o *object) {
		o.mask = mask
		if o.inGrid {
			s.grid.SetFilter(broadphase.ID(o.id), o.layer, o.mask)
		}
	})
	return nil
}

// SetShapeDisabled toggles one attached shape
func (s *Server) SetShapeDisabled(id ObjectID, index int, disabled bool) error {
	o, err := s.lookup(id)
	if err != nil {
		return err
	}
	if index < 0 || index >= len(o.shapes) {
		return fmt.Errorf("%w: shape index %d of %d", ErrInvalidObject, index, len(o.shapes))
	}
	s.mutate(id, func(o *object) {
		o.shapes[index].Disabled = disabled
		s.refresh(o)
	})
	return nil
}

// ObjectIDs lists live objects in creation order
func (s *Server) ObjectIDs() []ObjectID {
	ids := make([]ObjectID, len(s.order))
	for i, o := range s.order {
		ids[i] = o.id
	}
	return ids
}

// Object returns a snapshot of one object
func (s *Server) Object(id ObjectID) (ObjectInfo, error) {
	o, err := s.lookup(id)
	if err != nil {
		return ObjectInfo{}, err
	}
	return ObjectInfo{
		ID:          o.id,
		Kind:        o.kind,
		State:       o.state,
		Transform:   o.xform,
		Velocity:    o.velocity,
		Layer:       o.layer,
		Mask:        o.mask,
		Monitorable: o.monitorable,
		Shapes:      s.placed(o),
	}, nil
}

// --- Geometry helpers ---

// placed resolves the enabled shapes of o into world space
func (s *Server) placed(o *object) []PlacedShape {
	out := make([]PlacedShape, 0, len(o.shapes))
	for _, r := range o.shapes {
		if r.Disabled {
			continue
		}
		out = append(out, PlacedShape{Shape: s.shapes[r.Shape], Transform: o.xform.Mul(r.Offset)})
	}
	return out
}

func (s *Server) bounds(o *object) (vmath.Rect2, bool) {
	var r vmath.Rect2
	found := false
	for _, p := range s.placed(o) {
		b := p.Shape.WorldBounds(p.Transform)
		if !found {
			r, found = b, true
		} else {
			r = r.Merge(b)
		}
	}
	return r, found
}

// refresh syncs the grid entry with the object's shapes and transform
func (s *Server) refresh(o *object) {
	o.dirty = false
	if o.pending {
		return
	}
	id := broadphase.ID(o.id)
	r, ok := s.bounds(o)
	switch {
	case !ok:
		if o.inGrid {
			s.grid.Remove(id)
			o.inGrid = false
		}
	case o.inGrid:
		s.grid.Update(id, r)
	default:
		s.grid.Insert(id, r, o.layer, o.mask)
		o.inGrid = true
	}
}

// contactBetween tests every enabled shape of a against every enabled shape
// of b and keeps the deepest contact; ties keep the first in shape order.
// The normal pushes a out of b.
func (s *Server) contactBetween(a, b *object) (collision.Contact, bool) {
	var best collision.Contact
	found := false
	pb := s.placed(b)
	for _, sa := range s.placed(a) {
		for _, sb := range pb {
			c, ok := collision.Overlap(sa.Shape, sa.Transform, sb.Shape, sb.Transform)
			if ok && (!found || c.Depth > best.Depth) {
				best, found = c, true
			}
		}
	}
	return best, found
}

// detects reports whether area a monitors other
func detects(a, other *object) bool {
	return a.kind == Area && a.mask&other.layer != 0 && (other.kind.isBody() || other.monitorable)
}
