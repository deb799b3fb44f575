package curve

import (
	"errors"
	"math"
	"testing"

	"github.com/lixenwraith/sgphysics/fixed"
	"github.com/lixenwraith/sgphysics/vmath"
)

var tol = fixed.MustParse("0.25")

func near(a, b fixed.Num, tol fixed.Num) bool { return a.Sub(b).Abs() <= tol }

// line returns a uniform-speed straight curve from (0, 0) to (100, 0)
func line() *Curve {
	c := New()
	third, _ := fixed.FromFraction(100, 3)
	c.AddPoint(vmath.Zero, vmath.Zero, vmath.Vec(third, 0), -1)
	c.AddPoint(vmath.VecInt(100, 0), vmath.Vec(third.Neg(), 0), vmath.Zero, -1)
	return c
}

// arc returns a curve bending through a quarter turn
func arc() *Curve {
	c := New()
	c.AddPoint(vmath.VecInt(0, 0), vmath.Zero, vmath.VecInt(55, 0), -1)
	c.AddPoint(vmath.VecInt(100, 100), vmath.VecInt(0, -55), vmath.Zero, -1)
	return c
}

func TestPointEditing(t *testing.T) {
	c := New()
	c.AddPoint(vmath.VecInt(0, 0), vmath.Zero, vmath.Zero, -1)
	c.AddPoint(vmath.VecInt(20, 0), vmath.Zero, vmath.Zero, -1)
	c.AddPoint(vmath.VecInt(10, 0), vmath.Zero, vmath.Zero, 1)

	if c.PointCount() != 3 {
		t.Fatalf("Expected 3 points, got %d", c.PointCount())
	}
	if p, _ := c.PointPosition(1); p != vmath.VecInt(10, 0) {
		t.Errorf("Expected inserted point at index 1, got %v", p)
	}

	if err := c.SetPointOut(0, vmath.VecInt(1, 1)); err != nil {
		t.Fatal(err)
	}
	if out, _ := c.PointOut(0); out != vmath.VecInt(1, 1) {
		t.Errorf("Expected out (1, 1), got %v", out)
	}
	if err := c.SetPointIn(5, vmath.Zero); !errors.Is(err, ErrIndex) {
		t.Errorf("Expected ErrIndex, got %v", err)
	}
	if err := c.RemovePoint(1); err != nil {
		t.Fatal(err)
	}
	if p, _ := c.PointPosition(1); p != vmath.VecInt(20, 0) {
		t.Errorf("Expected (20, 0) after removal, got %v", p)
	}
	c.Clear()
	if c.PointCount() != 0 {
		t.Errorf("Expected empty curve, got %d", c.PointCount())
	}
}

func TestInterpolateSegment(t *testing.T) {
	c := arc()
	if p, _ := c.InterpolateSegment(0, 0); p != vmath.VecInt(0, 0) {
		t.Errorf("Expected start point, got %v", p)
	}
	if p, _ := c.InterpolateSegment(0, fixed.One); p != vmath.VecInt(100, 100) {
		t.Errorf("Expected end point, got %v", p)
	}

	for _, bad := range []fixed.Num{fixed.NegOne, fixed.One.Add(fixed.Epsilon)} {
		if _, err := c.InterpolateSegment(0, bad); !errors.Is(err, ErrDomain) || !errors.Is(err, fixed.ErrDomain) {
			t.Errorf("Expected ErrDomain for t=%v, got %v", bad, err)
		}
	}
	if _, err := c.InterpolateSegment(1, 0); !errors.Is(err, ErrIndex) {
		t.Errorf("Expected ErrIndex for missing segment, got %v", err)
	}

	single := New()
	single.AddPoint(vmath.Zero, vmath.Zero, vmath.Zero, -1)
	if _, err := single.InterpolateSegment(0, 0); !errors.Is(err, ErrEmptyCurve) {
		t.Errorf("Expected ErrEmptyCurve, got %v", err)
	}
	if _, err := single.Evaluate(fixed.Half); !errors.Is(err, ErrEmptyCurve) {
		t.Errorf("Expected ErrEmptyCurve from Evaluate, got %v", err)
	}
}

func TestBakeLine(t *testing.T) {
	c := line()
	length := c.BakedLength()
	if !near(length, fixed.FromInt(100), tol) {
		t.Errorf("Expected baked length ~100, got %v", length)
	}

	pts := c.BakedPoints()
	if len(pts) < 20 || len(pts) > 22 {
		t.Errorf("Expected about 21 baked points, got %d", len(pts))
	}
	for i := 1; i < len(pts)-1; i++ {
		d := pts[i-1].DistanceTo(pts[i])
		if d < c.BakeInterval() || !near(d, c.BakeInterval(), fixed.MustParse("0.05")) {
			t.Errorf("Expected spacing just over the interval at %d, got %v", i, d)
		}
	}
	if pts[len(pts)-1] != vmath.VecInt(100, 0) {
		t.Errorf("Expected last baked point at the end, got %v", pts[len(pts)-1])
	}

	// Changing the interval rebakes
	if err := c.SetBakeInterval(fixed.FromInt(10)); err != nil {
		t.Fatal(err)
	}
	if n := len(c.BakedPoints()); n < 10 || n > 12 {
		t.Errorf("Expected about 11 points at interval 10, got %d", n)
	}
	if err := c.SetBakeInterval(0); !errors.Is(err, ErrDomain) {
		t.Errorf("Expected ErrDomain for zero interval, got %v", err)
	}
}

func TestEvaluateAndInterpolateBaked(t *testing.T) {
	c := line()
	if p, _ := c.Evaluate(0); p != vmath.Zero {
		t.Errorf("Expected start, got %v", p)
	}
	if p, _ := c.Evaluate(fixed.One); p != vmath.VecInt(100, 0) {
		t.Errorf("Expected end, got %v", p)
	}
	mid, err := c.Evaluate(fixed.Half)
	if err != nil {
		t.Fatal(err)
	}
	if !near(mid.X, fixed.FromInt(50), tol) || mid.Y != 0 {
		t.Errorf("Expected ~(50, 0), got %v", mid)
	}
	if _, err := c.Evaluate(fixed.Two); !errors.Is(err, ErrDomain) {
		t.Errorf("Expected ErrDomain, got %v", err)
	}

	for _, cubic := range []bool{false, true} {
		p, err := c.InterpolateBaked(fixed.FromInt(30), cubic)
		if err != nil {
			t.Fatal(err)
		}
		if !near(p.X, fixed.FromInt(30), tol) || p.Y != 0 {
			t.Errorf("Expected ~(30, 0) cubic=%v, got %v", cubic, p)
		}
	}
	if _, err := c.InterpolateBaked(c.BakedLength().Add(fixed.One), false); !errors.Is(err, ErrDomain) {
		t.Errorf("Expected ErrDomain past the end, got %v", err)
	}
	if _, err := c.InterpolateBaked(fixed.NegOne, false); !errors.Is(err, ErrDomain) {
		t.Errorf("Expected ErrDomain before the start, got %v", err)
	}
}

func TestEvaluateOnCubic(t *testing.T) {
	// Tangents of the same sign bow the segment into an arch whose chords
	// cut well inside the cubic
	c := New()
	c.AddPoint(vmath.Zero, vmath.Zero, vmath.VecInt(0, -60), -1)
	c.AddPoint(vmath.VecInt(100, 0), vmath.VecInt(0, -60), vmath.Zero, -1)

	// Distance from p to the cubic, sampled densely in float64
	onCurve := func(p vmath.Vector2) float64 {
		px, py := p.X.Float64(), p.Y.Float64()
		best := math.Inf(1)
		const samples = 20000
		for i := 0; i <= samples; i++ {
			s := float64(i) / samples
			x := 100 * s * s * (3 - 2*s)
			y := -180 * s * (1 - s)
			best = min(best, math.Hypot(px-x, py-y))
		}
		return best
	}

	step, _ := fixed.FromFraction(1, 64)
	prevX := fixed.NegOne
	for u := fixed.Num(0); u <= fixed.One; u = u.Add(step) {
		p, err := c.Evaluate(u)
		if err != nil {
			t.Fatal(err)
		}
		if d := onCurve(p); d > 0.01 {
			t.Errorf("Evaluate(%v) = %v is %.4f off the cubic", u, p, d)
		}
		if p.X < prevX {
			t.Errorf("Evaluate(%v) moved backward to %v", u, p)
		}
		prevX = p.X
	}

	// Whole-curve parameter: integer part picks the segment
	c.AddPoint(vmath.VecInt(200, 0), vmath.Zero, vmath.Zero, -1)
	tests := []struct {
		f    fixed.Num
		want vmath.Vector2
	}{
		{fixed.NegOne, vmath.Zero},
		{0, vmath.Zero},
		{fixed.One, vmath.VecInt(100, 0)},
		{fixed.Two, vmath.VecInt(200, 0)},
		{fixed.FromInt(9), vmath.VecInt(200, 0)},
	}
	for _, tt := range tests {
		got, err := c.InterpolateF(tt.f)
		if err != nil {
			t.Fatal(err)
		}
		if got != tt.want {
			t.Errorf("InterpolateF(%v): expected %v, got %v", tt.f, tt.want, got)
		}
	}
	half, _ := c.InterpolateSegment(1, fixed.Half)
	if got, _ := c.InterpolateF(fixed.MustParse("1.5")); got != half {
		t.Errorf("Expected InterpolateF(1.5) to match segment 1 at 0.5 %v, got %v", half, got)
	}
	if _, err := New().InterpolateF(0); !errors.Is(err, ErrEmptyCurve) {
		t.Errorf("Expected ErrEmptyCurve, got %v", err)
	}
}

func TestClosest(t *testing.T) {
	c := line()
	p, err := c.ClosestPoint(vmath.VecInt(50, 30))
	if err != nil {
		t.Fatal(err)
	}
	if !near(p.X, fixed.FromInt(50), tol) || p.Y != 0 {
		t.Errorf("Expected ~(50, 0), got %v", p)
	}
	off, _ := c.ClosestOffset(vmath.VecInt(50, 30))
	if !near(off, fixed.FromInt(50), tol) {
		t.Errorf("Expected offset ~50, got %v", off)
	}

	// Beyond the ends clamps to the endpoints
	if p, _ := c.ClosestPoint(vmath.VecInt(-40, 5)); p != vmath.Zero {
		t.Errorf("Expected start point, got %v", p)
	}
	if off, _ := c.ClosestOffset(vmath.VecInt(400, 0)); off != c.BakedLength() {
		t.Errorf("Expected full length %v, got %v", c.BakedLength(), off)
	}
}

func TestTessellate(t *testing.T) {
	straight := line().Tessellate(5, fixed.FromInt(4))
	if len(straight) != 2 {
		t.Errorf("Expected straight curve to need no midpoints, got %d points", len(straight))
	}

	bent := arc().Tessellate(5, fixed.FromInt(4))
	if len(bent) <= 3 {
		t.Fatalf("Expected subdivisions on the arc, got %d points", len(bent))
	}
	if bent[0] != vmath.Zero || bent[len(bent)-1] != vmath.VecInt(100, 100) {
		t.Errorf("Expected endpoints preserved, got %v .. %v", bent[0], bent[len(bent)-1])
	}
	// Points advance monotonically along this arc
	for i := 1; i < len(bent); i++ {
		if bent[i].X < bent[i-1].X || bent[i].Y < bent[i-1].Y {
			t.Errorf("Expected monotonic tessellation at %d: %v -> %v", i, bent[i-1], bent[i])
		}
	}
	if New().Tessellate(5, fixed.FromInt(4)) != nil {
		t.Error("Expected nil for an empty curve")
	}
}

func TestFollower(t *testing.T) {
	c := line()
	f := NewFollower(c)
	f.Loop = false

	f.SetOffset(fixed.FromInt(20))
	xf, err := f.Transform()
	if err != nil {
		t.Fatal(err)
	}
	if !near(xf.Origin.X, fixed.FromInt(20), tol) {
		t.Errorf("Expected x ~20, got %v", xf.Origin)
	}
	if xf.Rotation() != 0 {
		t.Errorf("Expected rotation 0 along +x, got %v", xf.Rotation())
	}

	// Open path clamps
	f.Advance(fixed.FromInt(500))
	if f.Offset != c.BakedLength() {
		t.Errorf("Expected clamp to length, got %v", f.Offset)
	}
	// At the end the lookahead stalls and the look-behind keeps the heading
	xf, _ = f.Transform()
	if xf.Rotation() != 0 {
		t.Errorf("Expected heading kept at the end, got %v", xf.Rotation())
	}

	// Looping wraps
	f.Loop = true
	f.SetOffset(c.BakedLength().Add(fixed.FromInt(10)))
	if !near(f.Offset, fixed.FromInt(10), fixed.Epsilon) {
		t.Errorf("Expected wrap to 10, got %v", f.Offset)
	}
	f.SetOffset(fixed.FromInt(-10))
	if f.Offset != c.BakedLength().Sub(fixed.FromInt(10)) {
		t.Errorf("Expected negative wrap, got %v", f.Offset)
	}

	// VOffset displaces along the curve normal, +y for a +x heading
	f.Loop = false
	f.SetOffset(fixed.FromInt(50))
	f.VOffset = fixed.FromInt(3)
	xf, _ = f.Transform()
	if !near(xf.Origin.Y, fixed.FromInt(3), tol) {
		t.Errorf("Expected y ~3, got %v", xf.Origin)
	}

	f.SetUnitOffset(fixed.Half)
	if !near(f.UnitOffset(), fixed.Half, fixed.FromRaw(4)) {
		t.Errorf("Expected unit offset 0.5, got %v", f.UnitOffset())
	}

	if _, err := NewFollower(New()).Transform(); !errors.Is(err, ErrEmptyCurve) {
		t.Errorf("Expected ErrEmptyCurve, got %v", err)
	}
}
