package physics

import (
	"errors"
	"slices"
	"testing"

	"github.com/lixenwraith/sgphysics/astar"
	"github.com/lixenwraith/sgphysics/event"
	"github.com/lixenwraith/sgphysics/fixed"
	"github.com/lixenwraith/sgphysics/shape"
	"github.com/lixenwraith/sgphysics/vmath"
)

var dt = DefaultTimeStep

func near(a, b, tol fixed.Num) bool { return a.Sub(b).Abs() <= tol }

func circleShape(t testing.TB, s *Server, r int64) ShapeID {
	t.Helper()
	sh, err := shape.NewCircle(fixed.FromInt(r))
	if err != nil {
		t.Fatalf("circle: %v", err)
	}
	return s.CreateShape(sh)
}

func rectShape(t testing.TB, s *Server, w, h int64) ShapeID {
	t.Helper()
	sh, err := shape.NewRectangle(vmath.VecInt(w, h))
	if err != nil {
		t.Fatalf("rectangle: %v", err)
	}
	return s.CreateShape(sh)
}

func spawn(t testing.TB, s *Server, kind Kind, sid ShapeID, x, y int64) ObjectID {
	t.Helper()
	id, err := s.CreateObject(ObjectSpec{
		Kind:      kind,
		Shapes:    []ShapeRef{{Shape: sid}},
		Transform: vmath.Translation(vmath.VecInt(x, y)),
		Layer:     1,
		Mask:      1,
	})
	if err != nil {
		t.Fatalf("create %v: %v", kind, err)
	}
	return id
}

func step(t testing.TB, s *Server, n int) {
	t.Helper()
	for range n {
		if err := s.Step(dt); err != nil {
			t.Fatalf("step: %v", err)
		}
	}
}

func origin(t testing.TB, s *Server, id ObjectID) vmath.Vector2 {
	t.Helper()
	xf, err := s.Transform(id)
	if err != nil {
		t.Fatalf("transform %d: %v", id, err)
	}
	return xf.Origin
}

func types(recs []event.Record) []event.Type {
	out := make([]event.Type, len(recs))
	for i, r := range recs {
		out[i] = r.Type
	}
	return out
}

func TestLifecycle(t *testing.T) {
	s := New(Config{})
	id := spawn(t, s, KinematicBody, circleShape(t, s, 5), 0, 0)

	if st, _ := s.State(id); st != Created {
		t.Errorf("Expected created, got %v", st)
	}
	if err := s.Sleep(id); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Expected created -> sleeping to fail, got %v", err)
	}
	if err := s.Wake(id); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Expected wake on a created object to fail, got %v", err)
	}

	step(t, s, 1)
	if st, _ := s.State(id); st != Active {
		t.Errorf("Expected active after a step, got %v", st)
	}
	if err := s.Sleep(id); err != nil {
		t.Fatalf("sleep: %v", err)
	}
	if err := s.Sleep(id); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Expected double sleep to fail, got %v", err)
	}
	if err := s.Wake(id); err != nil {
		t.Fatalf("wake: %v", err)
	}

	if err := s.Destroy(id); err != nil {
		t.Fatalf("destroy: %v", err)
	}
	if st, err := s.State(id); err != nil || st != Destroyed {
		t.Errorf("Expected destroyed, got %v (%v)", st, err)
	}
	if err := s.Destroy(id); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Expected second destroy to fail, got %v", err)
	}
	if _, err := s.State(99); !errors.Is(err, ErrUnknownObject) {
		t.Errorf("Expected ErrUnknownObject, got %v", err)
	}
	if _, err := s.Transform(id); !errors.Is(err, ErrUnknownObject) {
		t.Errorf("Expected destroyed object to be gone, got %v", err)
	}
}

func TestCreateObjectValidation(t *testing.T) {
	s := New(Config{})
	if _, err := s.CreateObject(ObjectSpec{Kind: StaticBody, Shapes: []ShapeRef{{Shape: 42}}}); !errors.Is(err, ErrUnknownShape) {
		t.Errorf("Expected ErrUnknownShape, got %v", err)
	}
	singular := vmath.Transform2D{X: vmath.Right, Y: vmath.Right}
	if _, err := s.CreateObject(ObjectSpec{Kind: StaticBody, Transform: singular}); !errors.Is(err, vmath.ErrSingular) {
		t.Errorf("Expected ErrSingular, got %v", err)
	}
	if _, err := s.CreateObject(ObjectSpec{Kind: Kind(9)}); !errors.Is(err, ErrInvalidObject) {
		t.Errorf("Expected ErrInvalidObject, got %v", err)
	}

	sid := circleShape(t, s, 3)
	id := spawn(t, s, StaticBody, sid, 0, 0)
	if err := s.DestroyShape(sid); !errors.Is(err, ErrShapeInUse) {
		t.Errorf("Expected ErrShapeInUse, got %v", err)
	}
	if err := s.Destroy(id); err != nil {
		t.Fatal(err)
	}
	if err := s.DestroyShape(sid); err != nil {
		t.Errorf("Expected shape release after destroy, got %v", err)
	}
	if err := s.DestroyShape(sid); !errors.Is(err, ErrUnknownShape) {
		t.Errorf("Expected ErrUnknownShape, got %v", err)
	}
}

func TestVariableTimestep(t *testing.T) {
	s := New(Config{})
	if err := s.Step(fixed.One); !errors.Is(err, ErrVariableTimestep) {
		t.Errorf("Expected ErrVariableTimestep, got %v", err)
	}
	if s.CurrentStep() != 0 {
		t.Errorf("Expected rejected step not to count, got %d", s.CurrentStep())
	}
}

func TestCollisionEvents(t *testing.T) {
	s := New(Config{})
	mover := spawn(t, s, KinematicBody, circleShape(t, s, 10), 0, 0)
	rock := spawn(t, s, StaticBody, circleShape(t, s, 5), 12, 0)

	step(t, s, 1)
	recs := s.Events()
	if len(recs) != 1 {
		t.Fatalf("Expected one event, got %v", recs)
	}
	r := recs[0]
	if r.Type != event.CollisionStart || r.A != uint64(mover) || r.B != uint64(rock) || r.Step != 1 {
		t.Errorf("Expected start(%d,%d) at step 1, got %v", mover, rock, r)
	}
	if r.Depth != fixed.FromInt(3) || r.Normal != vmath.Left {
		t.Errorf("Expected depth 3 normal (-1, 0), got %v %v", r.Depth, r.Normal)
	}

	cs, err := s.Contacts(rock)
	if err != nil || len(cs) != 1 {
		t.Fatalf("Expected one contact, got %v (%v)", cs, err)
	}
	if cs[0].Other != mover || cs[0].Normal != vmath.Right {
		t.Errorf("Expected contact seen from the rock to point right, got %+v", cs[0])
	}

	step(t, s, 1)
	if got := types(s.Events()); !slices.Equal(got, []event.Type{event.CollisionContinue}) {
		t.Errorf("Expected continue, got %v", got)
	}

	if err := s.SetTransform(mover, vmath.Translation(vmath.VecInt(-100, 0))); err != nil {
		t.Fatal(err)
	}
	step(t, s, 1)
	recs = s.Events()
	if got := types(recs); !slices.Equal(got, []event.Type{event.CollisionEnd}) {
		t.Fatalf("Expected end, got %v", got)
	}
	if recs[0].Depth != 0 || !recs[0].Normal.IsZero() {
		t.Errorf("Expected empty payload on end, got %v", recs[0])
	}
	if s.Events() != nil {
		t.Error("Expected drained queue to return nil")
	}
}

func TestVelocityIntoWallEvents(t *testing.T) {
	s := New(Config{})
	body := spawn(t, s, KinematicBody, circleShape(t, s, 10), 0, 0)
	wall := spawn(t, s, StaticBody, rectShape(t, s, 10, 10), 50, 0)
	if err := s.SetVelocity(body, vmath.VecInt(600, 0)); err != nil {
		t.Fatal(err)
	}

	var recs []event.Record
	for i := 0; i < 10 && len(recs) == 0; i++ {
		step(t, s, 1)
		recs = s.Events()
	}
	if len(recs) != 1 || recs[0].Type != event.CollisionStart {
		t.Fatalf("Expected a single collision start, got %v", recs)
	}
	if recs[0].A != uint64(body) || recs[0].B != uint64(wall) || recs[0].Normal != vmath.Left {
		t.Errorf("Expected start(%d,%d) with normal (-1, 0), got %v", body, wall, recs[0])
	}
	if x := origin(t, s, body).X; x > fixed.FromInt(30) || x < fixed.FromInt(29) {
		t.Errorf("Expected body stopped at the wall face, got x=%v", x)
	}
	cs, err := s.Contacts(body)
	if err != nil || len(cs) != 1 || cs[0].Other != wall {
		t.Fatalf("Expected contact with the wall, got %v (%v)", cs, err)
	}

	step(t, s, 1)
	if got := types(s.Events()); !slices.Equal(got, []event.Type{event.CollisionContinue}) {
		t.Errorf("Expected continue while pressing the wall, got %v", got)
	}
	st, err := s.BodyState(body)
	if err != nil {
		t.Fatal(err)
	}
	if st.Velocity.X >= fixed.FromInt(600) || len(st.SlideCollisions) != 1 || st.SlideCollisions[0].Collider != wall {
		t.Errorf("Expected resolved velocity below 600 and one collision, got %+v", st)
	}
	if v, _ := s.Velocity(body); v != vmath.VecInt(600, 0) {
		t.Errorf("Expected commanded velocity kept, got %v", v)
	}

	if err := s.SetVelocity(body, vmath.VecInt(-600, 0)); err != nil {
		t.Fatal(err)
	}
	step(t, s, 1)
	if got := types(s.Events()); !slices.Equal(got, []event.Type{event.CollisionEnd}) {
		t.Errorf("Expected end after backing away, got %v", got)
	}
	if cs, _ := s.Contacts(body); len(cs) != 0 {
		t.Errorf("Expected no contacts, got %v", cs)
	}
}

func TestSaturatedMoveCounted(t *testing.T) {
	s := New(Config{})
	id, err := s.CreateObject(ObjectSpec{
		Kind:      Area,
		Shapes:    []ShapeRef{{Shape: circleShape(t, s, 1)}},
		Transform: vmath.Translation(vmath.Vec(fixed.Max.Sub(fixed.One), 0)),
		Velocity:  vmath.VecInt(600, 0),
	})
	if err != nil {
		t.Fatal(err)
	}
	step(t, s, 1)
	if got := origin(t, s, id); got.X != fixed.Max {
		t.Fatalf("Expected x clamped to Max, got %v", got.X)
	}
	if got := s.Stats().Saturated; got != 1 {
		t.Errorf("Expected one saturated move, got %d", got)
	}
	if got := s.Config().Registry.Ints.Get(MetricSaturated).Load(); got != 1 {
		t.Errorf("Expected registry saturation count 1, got %d", got)
	}
}

func TestStaticPairsIgnored(t *testing.T) {
	s := New(Config{})
	sid := circleShape(t, s, 10)
	spawn(t, s, StaticBody, sid, 0, 0)
	spawn(t, s, StaticBody, sid, 5, 0)
	step(t, s, 1)
	if recs := s.Events(); recs != nil {
		t.Errorf("Expected no events between static bodies, got %v", recs)
	}
}

func TestAreaEvents(t *testing.T) {
	s := New(Config{})
	zone, err := s.CreateObject(ObjectSpec{
		Kind:   Area,
		Shapes: []ShapeRef{{Shape: rectShape(t, s, 20, 20)}},
		Mask:   1,
	})
	if err != nil {
		t.Fatal(err)
	}
	body := spawn(t, s, KinematicBody, circleShape(t, s, 5), 100, 0)

	// A silent area that others cannot see
	ghost, err := s.CreateObject(ObjectSpec{
		Kind:      Area,
		Shapes:    []ShapeRef{{Shape: circleShape(t, s, 4)}},
		Transform: vmath.Translation(vmath.VecInt(5, 5)),
		Layer:     1,
	})
	if err != nil {
		t.Fatal(err)
	}

	step(t, s, 1)
	if recs := s.Events(); recs != nil {
		t.Fatalf("Expected no events yet, got %v", recs)
	}

	if err := s.SetTransform(body, vmath.Identity); err != nil {
		t.Fatal(err)
	}
	step(t, s, 1)
	recs := s.Events()
	if len(recs) != 1 || recs[0].Type != event.AreaEnter || recs[0].A != uint64(zone) || recs[0].B != uint64(body) {
		t.Fatalf("Expected enter(%d,%d), got %v", zone, body, recs)
	}
	if ids, _ := s.Overlaps(zone); !slices.Equal(ids, []ObjectID{body}) {
		t.Errorf("Expected overlaps [%d], got %v", body, ids)
	}

	// Monitorable areas are seen by other areas
	if err := s.Destroy(ghost); err != nil {
		t.Fatal(err)
	}
	ghost, err = s.CreateObject(ObjectSpec{
		Kind:        Area,
		Shapes:      []ShapeRef{{Shape: circleShape(t, s, 4)}},
		Transform:   vmath.Translation(vmath.VecInt(5, 5)),
		Layer:       1,
		Monitorable: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	step(t, s, 1)
	recs = s.Events()
	if len(recs) != 1 || recs[0].Type != event.AreaEnter || recs[0].B != uint64(ghost) {
		t.Fatalf("Expected enter for the monitorable area, got %v", recs)
	}

	// Destroying the body ends its overlap at once
	if err := s.Destroy(body); err != nil {
		t.Fatal(err)
	}
	recs = s.Events()
	if len(recs) != 1 || recs[0].Type != event.AreaExit || recs[0].B != uint64(body) || recs[0].Step != 3 {
		t.Fatalf("Expected exit(%d,%d) stamped step 3, got %v", zone, body, recs)
	}
	if _, err := s.Overlaps(body); !errors.Is(err, ErrUnknownObject) {
		t.Errorf("Expected ErrUnknownObject, got %v", err)
	}
}

func TestEventOrder(t *testing.T) {
	s := New(Config{})
	zone, err := s.CreateObject(ObjectSpec{
		Kind:   Area,
		Shapes: []ShapeRef{{Shape: rectShape(t, s, 200, 200)}},
		Mask:   1,
	})
	if err != nil {
		t.Fatal(err)
	}
	wall := spawn(t, s, StaticBody, rectShape(t, s, 10, 10), 0, 0)
	sid := circleShape(t, s, 5)
	b1 := spawn(t, s, KinematicBody, sid, 12, 0)
	b2 := spawn(t, s, KinematicBody, sid, -12, 0)

	step(t, s, 1)
	recs := s.Events()
	want := []event.Record{
		{Type: event.CollisionStart, A: uint64(wall), B: uint64(b1)},
		{Type: event.CollisionStart, A: uint64(wall), B: uint64(b2)},
		{Type: event.AreaEnter, A: uint64(zone), B: uint64(wall)},
		{Type: event.AreaEnter, A: uint64(zone), B: uint64(b1)},
		{Type: event.AreaEnter, A: uint64(zone), B: uint64(b2)},
	}
	if len(recs) != len(want) {
		t.Fatalf("Expected %d events, got %v", len(want), recs)
	}
	for i, w := range want {
		if recs[i].Type != w.Type || recs[i].A != w.A || recs[i].B != w.B {
			t.Errorf("Event %d: expected %v, got %v", i, w, recs[i])
		}
	}
}

func TestMoveAndCollideWall(t *testing.T) {
	s := New(Config{})
	body := spawn(t, s, KinematicBody, circleShape(t, s, 10), 0, 0)
	wall := spawn(t, s, StaticBody, rectShape(t, s, 10, 100), 50, 0)

	c, err := s.MoveAndCollide(body, vmath.VecInt(100, 0))
	if err != nil {
		t.Fatal(err)
	}
	if c == nil {
		t.Fatal("Expected a collision")
	}
	if c.Collider != wall || c.Normal != vmath.Left || c.Depth != 0 {
		t.Errorf("Expected wall hit with normal (-1, 0) and no residue, got %+v", c)
	}
	if got := origin(t, s, body); got != vmath.VecInt(30, 0) {
		t.Errorf("Expected body stopped at (30, 0), got %v", got)
	}
	if c.Travel != vmath.VecInt(30, 0) || !c.Remainder.IsZero() {
		t.Errorf("Expected travel (30, 0) and no remainder, got %v %v", c.Travel, c.Remainder)
	}

	// Free motion applies fully
	c, err = s.MoveAndCollide(body, vmath.VecInt(0, 20))
	if err != nil || c != nil {
		t.Fatalf("Expected free motion, got %+v (%v)", c, err)
	}
	if got := origin(t, s, body); got != vmath.VecInt(30, 20) {
		t.Errorf("Expected (30, 20), got %v", got)
	}

	if _, err := s.MoveAndCollide(wall, vmath.VecInt(1, 0)); !errors.Is(err, ErrNotKinematic) {
		t.Errorf("Expected ErrNotKinematic, got %v", err)
	}
}

func TestMoveAndSlideWall(t *testing.T) {
	s := New(Config{})
	body := spawn(t, s, KinematicBody, circleShape(t, s, 10), 0, 0)
	spawn(t, s, StaticBody, rectShape(t, s, 10, 100), 50, 0)

	v, err := s.MoveAndSlide(body, vmath.VecInt(100, 40), vmath.Up, DefaultMaxSlides, DefaultFloorMaxAngle)
	if err != nil {
		t.Fatal(err)
	}
	pos := origin(t, s, body)
	tol := fixed.MustParse("0.01")
	if pos.X > fixed.FromInt(30).Add(tol) {
		t.Errorf("Expected x held at the wall, got %v", pos)
	}
	if !near(pos.Y, fixed.FromInt(40), fixed.MustParse("0.05")) {
		t.Errorf("Expected y to slide to ~40, got %v", pos)
	}
	if !near(v.X, 0, tol) || !near(v.Y, fixed.FromInt(40), tol) {
		t.Errorf("Expected velocity (0, 40) after sliding, got %v", v)
	}

	st, err := s.BodyState(body)
	if err != nil {
		t.Fatal(err)
	}
	if !st.OnWall || st.OnFloor || st.OnCeiling || len(st.SlideCollisions) != 1 {
		t.Errorf("Expected one wall collision, got %+v", st)
	}
}

func TestMoveAndSlideFloor(t *testing.T) {
	s := New(Config{})
	body := spawn(t, s, KinematicBody, circleShape(t, s, 10), 0, 0)
	spawn(t, s, StaticBody, rectShape(t, s, 100, 10), 0, 50)

	v, err := s.MoveAndSlide(body, vmath.VecInt(0, 100), vmath.Up, DefaultMaxSlides, DefaultFloorMaxAngle)
	if err != nil {
		t.Fatal(err)
	}
	if !v.IsZero() {
		t.Errorf("Expected falling velocity absorbed, got %v", v)
	}
	if got := origin(t, s, body); got != vmath.VecInt(0, 30) {
		t.Errorf("Expected rest at (0, 30), got %v", got)
	}
	st, _ := s.BodyState(body)
	if !st.OnFloor || st.FloorNormal != vmath.Up || st.FloorAngle(vmath.Up) != 0 {
		t.Errorf("Expected floor contact with normal up, got %+v", st)
	}

	// Zero up treats everything as wall
	s.MoveAndSlide(body, vmath.VecInt(0, 10), vmath.Zero, DefaultMaxSlides, DefaultFloorMaxAngle)
	st, _ = s.BodyState(body)
	if !st.OnWall || st.OnFloor {
		t.Errorf("Expected wall with zero up, got %+v", st)
	}
}

func TestUnstuck(t *testing.T) {
	s := New(Config{})
	body := spawn(t, s, KinematicBody, circleShape(t, s, 10), 0, 0)
	spawn(t, s, StaticBody, circleShape(t, s, 10), 15, 0)

	free, err := s.Unstuck(body, 4)
	if err != nil || !free {
		t.Fatalf("Expected body freed, got %v (%v)", free, err)
	}
	if got := origin(t, s, body); !near(got.X, fixed.FromInt(-5), fixed.MustParse("0.01")) {
		t.Errorf("Expected push to x ~-5, got %v", got)
	}
	if ids := s.IntersectPoint(vmath.VecInt(10, 0), 1); len(ids) != 1 || ids[0] == body {
		t.Errorf("Expected only the static body at (10, 0), got %v", ids)
	}

	// Zero attempts cannot free an overlapping body
	if err := s.SetTransform(body, vmath.Identity); err != nil {
		t.Fatal(err)
	}
	if free, _ := s.Unstuck(body, 0); free {
		t.Error("Expected no progress with zero attempts")
	}
}

func TestRotateAndSlide(t *testing.T) {
	s := New(Config{})
	body := spawn(t, s, KinematicBody, rectShape(t, s, 30, 2), 0, 0)
	spawn(t, s, StaticBody, rectShape(t, s, 40, 10), 0, 25)

	free, err := s.RotateAndSlide(body, fixed.HalfPi, DefaultMaxSlides)
	if err != nil || !free {
		t.Fatalf("Expected rotation to resolve, got %v (%v)", free, err)
	}
	xf, _ := s.Transform(body)
	if !near(xf.Rotation(), fixed.HalfPi, fixed.MustParse("0.001")) {
		t.Errorf("Expected quarter turn, got %v", xf.Rotation())
	}
	if xf.Origin.Y >= 0 {
		t.Errorf("Expected push away from the block, got %v", xf.Origin)
	}

	// Scale survives the turn
	big := spawn(t, s, KinematicBody, circleShape(t, s, 1), 500, 500)
	scaled := vmath.Identity.Scaled(vmath.VecInt(2, 3)).WithOrigin(vmath.VecInt(500, 500))
	if err := s.SetTransform(big, scaled); err != nil {
		t.Fatal(err)
	}
	if _, err := s.RotateAndSlide(big, fixed.HalfPi, DefaultMaxSlides); err != nil {
		t.Fatal(err)
	}
	xf, _ = s.Transform(big)
	tol := fixed.MustParse("0.001")
	if sc := xf.Scale(); !near(sc.X, fixed.FromInt(2), tol) || !near(sc.Y, fixed.FromInt(3), tol) {
		t.Errorf("Expected scale (2, 3) kept, got %v", sc)
	}
	if xf.Origin != vmath.VecInt(500, 500) {
		t.Errorf("Expected origin unchanged, got %v", xf.Origin)
	}
	if !near(xf.Rotation(), fixed.HalfPi, tol) {
		t.Errorf("Expected quarter turn, got %v", xf.Rotation())
	}
}

func TestMaxSpeedAndVelocity(t *testing.T) {
	s := New(Config{})
	id, err := s.CreateObject(ObjectSpec{
		Kind:     KinematicBody,
		Shapes:   []ShapeRef{{Shape: circleShape(t, s, 2)}},
		Velocity: vmath.VecInt(6000, 0),
		MaxSpeed: fixed.FromInt(600),
		Layer:    1,
		Mask:     1,
	})
	if err != nil {
		t.Fatal(err)
	}
	step(t, s, 1)
	want := vmath.VecInt(600, 0).Mul(dt)
	if got := origin(t, s, id); got != want {
		t.Errorf("Expected clamped move %v, got %v", want, got)
	}
	if v, _ := s.Velocity(id); v != vmath.VecInt(600, 0) {
		t.Errorf("Expected stored velocity clamped, got %v", v)
	}

	// Sleeping objects hold still
	if err := s.Sleep(id); err != nil {
		t.Fatal(err)
	}
	step(t, s, 1)
	if got := origin(t, s, id); got != want {
		t.Errorf("Expected sleeping object to stay, got %v", got)
	}
}

func TestDeferredMutations(t *testing.T) {
	s := New(Config{})
	sid := circleShape(t, s, 5)
	victim := spawn(t, s, StaticBody, sid, 50, 0)

	var spawned ObjectID
	var inner error
	driver, err := s.CreateObject(ObjectSpec{
		Kind:   Area,
		Shapes: []ShapeRef{{Shape: sid}},
		Motion: func(ctx MotionContext) vmath.Vector2 {
			if ctx.Step != 1 {
				return vmath.Zero
			}
			srv := ctx.Server
			spawned, inner = srv.CreateObject(ObjectSpec{
				Kind:      StaticBody,
				Shapes:    []ShapeRef{{Shape: sid}},
				Transform: vmath.Translation(vmath.VecInt(200, 0)),
				Layer:     1,
			})
			if inner != nil {
				return vmath.Zero
			}
			if len(srv.IntersectPoint(vmath.VecInt(200, 0), 1)) != 0 {
				inner = errors.New("pending object visible mid-step")
			}
			if err := srv.Destroy(victim); err != nil {
				inner = err
			}
			if _, err := srv.Transform(victim); err != nil {
				inner = errors.New("destroy applied mid-step")
			}
			if err := srv.Step(dt); !errors.Is(err, ErrStepInProgress) {
				inner = errors.New("nested step allowed")
			}
			return vmath.VecInt(60, 0)
		},
	})
	if err != nil {
		t.Fatal(err)
	}

	step(t, s, 1)
	if inner != nil {
		t.Fatalf("Callback: %v", inner)
	}
	if st, _ := s.State(victim); st != Destroyed {
		t.Errorf("Expected victim destroyed at step end, got %v", st)
	}
	if st, _ := s.State(spawned); st != Created {
		t.Errorf("Expected spawned object created, got %v", st)
	}
	if got := origin(t, s, driver); got != vmath.VecInt(60, 0).Mul(dt) {
		t.Errorf("Expected area moved by callback velocity, got %v", got)
	}
	if ids := s.ObjectIDs(); !slices.Equal(ids, []ObjectID{driver, spawned}) {
		t.Errorf("Expected live objects [%d %d], got %v", driver, spawned, ids)
	}

	step(t, s, 1)
	if st, _ := s.State(spawned); st != Active {
		t.Errorf("Expected spawned object active next step, got %v", st)
	}
	if ids := s.IntersectPoint(vmath.VecInt(200, 0), 1); !slices.Equal(ids, []ObjectID{spawned}) {
		t.Errorf("Expected spawned object queryable, got %v", ids)
	}
}

func TestCastRay(t *testing.T) {
	s := New(Config{})
	target := spawn(t, s, StaticBody, circleShape(t, s, 10), 50, 0)
	zone, err := s.CreateObject(ObjectSpec{
		Kind:      Area,
		Shapes:    []ShapeRef{{Shape: rectShape(t, s, 5, 5)}},
		Transform: vmath.Translation(vmath.VecInt(20, 0)),
		Layer:     1,
	})
	if err != nil {
		t.Fatal(err)
	}

	hit := s.CastRay(vmath.Zero, vmath.VecInt(100, 0), DefaultRayOptions())
	if hit == nil {
		t.Fatal("Expected a hit")
	}
	tol := fixed.MustParse("0.01")
	if hit.Collider != target || !near(hit.Point.X, fixed.FromInt(40), tol) || !near(hit.Point.Y, 0, tol) {
		t.Errorf("Expected hit at (40, 0) on %d, got %+v", target, hit)
	}
	if !near(hit.T, fixed.MustParse("0.4"), tol) || !near(hit.Normal.X, fixed.NegOne, tol) || !near(hit.Normal.Y, 0, tol) {
		t.Errorf("Expected T 0.4 and normal (-1, 0), got %v %v", hit.T, hit.Normal)
	}

	opts := DefaultRayOptions()
	opts.CollideAreas = true
	if hit := s.CastRay(vmath.Zero, vmath.VecInt(100, 0), opts); hit == nil || hit.Collider != zone {
		t.Errorf("Expected the area first when areas are enabled, got %+v", hit)
	}

	opts = DefaultRayOptions()
	opts.Exclude = []ObjectID{target}
	if hit := s.CastRay(vmath.Zero, vmath.VecInt(100, 0), opts); hit != nil {
		t.Errorf("Expected excluded target to be skipped, got %+v", hit)
	}
	if hit := s.CastRay(vmath.Zero, vmath.VecInt(100, 0), RayOptions{}); hit != nil {
		t.Errorf("Expected zero options to hit nothing, got %+v", hit)
	}
	if hit := s.CastRay(vmath.VecInt(0, 30), vmath.VecInt(100, 30), DefaultRayOptions()); hit != nil {
		t.Errorf("Expected a miss above the circle, got %+v", hit)
	}
}

func TestIntersectShape(t *testing.T) {
	s := New(Config{})
	sid := circleShape(t, s, 10)
	a := spawn(t, s, StaticBody, sid, 0, 0)
	b := spawn(t, s, StaticBody, sid, 30, 0)
	spawn(t, s, StaticBody, sid, 100, 0)

	probe := rectShape(t, s, 10, 5)
	ids, err := s.IntersectShape(probe, vmath.Translation(vmath.VecInt(15, 0)), 1)
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(ids, []ObjectID{a, b}) {
		t.Errorf("Expected [%d %d], got %v", a, b, ids)
	}
	if ids, _ := s.IntersectShape(probe, vmath.Translation(vmath.VecInt(15, 0)), 2); ids != nil {
		t.Errorf("Expected mask to filter everything, got %v", ids)
	}
	if _, err := s.IntersectShape(999, vmath.Identity, 1); !errors.Is(err, ErrUnknownShape) {
		t.Errorf("Expected ErrUnknownShape, got %v", err)
	}
}

func TestShapeOffsetsAndDisable(t *testing.T) {
	s := New(Config{})
	sid := circleShape(t, s, 5)
	id, err := s.CreateObject(ObjectSpec{
		Kind: StaticBody,
		Shapes: []ShapeRef{
			{Shape: sid},
			{Shape: sid, Offset: vmath.Translation(vmath.VecInt(20, 0))},
		},
		Transform: vmath.Translation(vmath.VecInt(100, 0)),
		Layer:     1,
	})
	if err != nil {
		t.Fatal(err)
	}
	if ids := s.IntersectPoint(vmath.VecInt(120, 0), 1); !slices.Equal(ids, []ObjectID{id}) {
		t.Errorf("Expected offset shape at (120, 0), got %v", ids)
	}
	if err := s.SetShapeDisabled(id, 1, true); err != nil {
		t.Fatal(err)
	}
	if ids := s.IntersectPoint(vmath.VecInt(120, 0), 1); ids != nil {
		t.Errorf("Expected disabled shape ignored, got %v", ids)
	}
	info, _ := s.Object(id)
	if len(info.Shapes) != 1 {
		t.Errorf("Expected one enabled shape, got %d", len(info.Shapes))
	}
	if err := s.SetShapeDisabled(id, 5, true); !errors.Is(err, ErrInvalidObject) {
		t.Errorf("Expected ErrInvalidObject, got %v", err)
	}
}

func TestFindPath(t *testing.T) {
	s := New(Config{})
	g := astar.NewGraph()
	for i, p := range []vmath.Vector2{vmath.VecInt(0, 0), vmath.VecInt(10, 0), vmath.VecInt(20, 0)} {
		if err := g.AddPoint(astar.PointID(i+1), p, fixed.One); err != nil {
			t.Fatal(err)
		}
	}
	g.ConnectPoints(1, 2, true)
	g.ConnectPoints(2, 3, true)

	path, err := s.FindPath(vmath.VecInt(1, 1), vmath.VecInt(19, 0), g)
	if err != nil {
		t.Fatal(err)
	}
	if len(path) != 3 || path[0] != vmath.Zero || path[2] != vmath.VecInt(20, 0) {
		t.Errorf("Expected 3-point path, got %v", path)
	}

	g.DisconnectPoints(2, 3, true)
	if _, err := s.FindPath(vmath.Zero, vmath.VecInt(20, 0), g); !errors.Is(err, astar.ErrNoPath) {
		t.Errorf("Expected ErrNoPath, got %v", err)
	}
	if _, err := s.FindPath(vmath.Zero, vmath.Zero, astar.NewGraph()); !errors.Is(err, astar.ErrUnknownPoint) {
		t.Errorf("Expected ErrUnknownPoint on an empty graph, got %v", err)
	}
}

func TestStatsAndRegistry(t *testing.T) {
	cfg := DefaultConfig()
	s := New(cfg)
	spawn(t, s, KinematicBody, circleShape(t, s, 10), 0, 0)
	spawn(t, s, StaticBody, circleShape(t, s, 5), 12, 0)
	step(t, s, 3)

	st := s.Stats()
	if st.Step != 3 || st.Objects != 2 || st.Contacts != 1 || st.Events != 3 {
		t.Errorf("Expected 3 steps, 2 objects, 1 contact, 3 events, got %+v", st)
	}
	if st.PairsTested != 3 {
		t.Errorf("Expected one pair per step, got %d", st.PairsTested)
	}
	if got := s.Config().Registry.Ints.Get(MetricSteps).Load(); got != 3 {
		t.Errorf("Expected registry step counter 3, got %d", got)
	}
	reg := s.Config().Registry
	if got := reg.Nums.Get(MetricMaxDepth).Load(); got != fixed.FromInt(3) {
		t.Errorf("Expected max depth 3, got %v", got)
	}
	if reg.Bools.Get(MetricStepping).Load() {
		t.Error("Expected stepping flag cleared after Step")
	}
}

// scene builds a busy world driven entirely by velocities and callbacks
func scene(t testing.TB) *Server {
	s := New(Config{})
	wall := rectShape(t, s, 10, 200)
	floor := rectShape(t, s, 300, 10)
	spawn(t, s, StaticBody, wall, -150, 0)
	spawn(t, s, StaticBody, wall, 150, 0)
	spawn(t, s, StaticBody, floor, 0, 150)
	spawn(t, s, StaticBody, floor, 0, -150)

	ball := circleShape(t, s, 7)
	for i := range int64(12) {
		v := vmath.VecInt(300+i*37, 150-i*53)
		_, err := s.CreateObject(ObjectSpec{
			Kind:      KinematicBody,
			Shapes:    []ShapeRef{{Shape: ball}},
			Transform: vmath.Translation(vmath.VecInt(-100+i*16, -60+i*9)),
			Layer:     1,
			Mask:      1,
			Velocity:  v,
			Motion: func(ctx MotionContext) vmath.Vector2 {
				// Turn a little each step so bodies sweep the box
				return ctx.Velocity.Rotated(fixed.MustParse("0.03"))
			},
		})
		if err != nil {
			t.Fatal(err)
		}
	}
	_, err := s.CreateObject(ObjectSpec{
		Kind:   Area,
		Shapes: []ShapeRef{{Shape: rectShape(t, s, 40, 40)}},
		Mask:   1,
	})
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestDeterminism(t *testing.T) {
	run := func() ([]vmath.Transform2D, []event.Record) {
		s := scene(t)
		var recs []event.Record
		for range 240 {
			step(t, s, 1)
			recs = append(recs, s.Events()...)
		}
		var xfs []vmath.Transform2D
		for _, id := range s.ObjectIDs() {
			xf, _ := s.Transform(id)
			xfs = append(xfs, xf)
		}
		return xfs, recs
	}
	x1, e1 := run()
	x2, e2 := run()
	if !slices.Equal(x1, x2) {
		t.Error("Expected identical transforms across runs")
	}
	if !slices.Equal(e1, e2) {
		t.Errorf("Expected identical event streams, got %d and %d records", len(e1), len(e2))
	}
	if len(e1) == 0 {
		t.Error("Expected the scene to produce events")
	}
}

func BenchmarkStep(b *testing.B) {
	s := scene(b)
	for i := 0; i < b.N; i++ {
		s.Step(dt)
		s.Events()
	}
}
