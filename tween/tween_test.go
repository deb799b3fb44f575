package tween

import (
	"math"
	"testing"

	"github.com/lixenwraith/sgphysics/fixed"
	"github.com/lixenwraith/sgphysics/vmath"
)

// Float reference curves in classic Penner form, normalized to b=0, c=1, d=1
func refIn(tr Transition, x float64) float64 {
	switch tr {
	case Sine:
		return 1 - math.Cos(x*math.Pi/2)
	case Quint:
		return math.Pow(x, 5)
	case Quart:
		return math.Pow(x, 4)
	case Quad:
		return x * x
	case Expo:
		if x == 0 {
			return 0
		}
		return math.Pow(2, 10*(x-1))
	case Elastic:
		if x == 0 || x == 1 {
			return x
		}
		p, s := 0.3, 0.075
		x--
		return -(math.Pow(2, 10*x) * math.Sin((x-s)*2*math.Pi/p))
	case Cubic:
		return x * x * x
	case Circ:
		return 1 - math.Sqrt(1-x*x)
	case Bounce:
		return 1 - refBounceOut(1-x)
	case Back:
		s := 1.70158
		return x * x * ((s+1)*x - s)
	}
	return x
}

func refBounceOut(x float64) float64 {
	switch {
	case x < 1/2.75:
		return 7.5625 * x * x
	case x < 2/2.75:
		x -= 1.5 / 2.75
		return 7.5625*x*x + 0.75
	case x < 2.5/2.75:
		x -= 2.25 / 2.75
		return 7.5625*x*x + 0.9375
	}
	x -= 2.625 / 2.75
	return 7.5625*x*x + 0.984375
}

func refOut(tr Transition, x float64) float64 {
	switch tr {
	case Bounce:
		return refBounceOut(x)
	case Elastic:
		if x == 0 || x == 1 {
			return x
		}
		p, s := 0.3, 0.075
		return math.Pow(2, -10*x)*math.Sin((x-s)*2*math.Pi/p) + 1
	case Back:
		s := 1.70158
		x--
		return x*x*((s+1)*x+s) + 1
	}
	return 1 - refIn(tr, 1-x)
}

func refEval(tr Transition, e Ease, x float64) float64 {
	switch e {
	case Out:
		return refOut(tr, x)
	case InOut:
		switch tr {
		case Back:
			s := 1.70158 * 1.525
			u := 2 * x
			if u < 1 {
				return 0.5 * (u * u * ((s+1)*u - s))
			}
			u -= 2
			return 0.5 * (u*u*((s+1)*u+s) + 2)
		case Elastic:
			p := 0.45
			s := p / 4
			u := 2*x - 1
			if u < 0 {
				return -0.5 * math.Pow(2, 10*u) * math.Sin((u-s)*2*math.Pi/p)
			}
			return math.Pow(2, -10*u)*math.Sin((u-s)*2*math.Pi/p)*0.5 + 1
		}
		if x < 0.5 {
			return refIn(tr, 2*x) / 2
		}
		return 0.5 + refOut(tr, 2*x-1)/2
	case OutIn:
		if x < 0.5 {
			return refOut(tr, 2*x) / 2
		}
		return 0.5 + refIn(tr, 2*x-1)/2
	}
	return refIn(tr, x)
}

func TestRunMatchesReference(t *testing.T) {
	d := fixed.FromInt(20)
	b := fixed.FromInt(10)
	c := fixed.FromInt(-4)
	for tr := Linear; tr < transitionCount; tr++ {
		for e := In; e < easeCount; e++ {
			for step := int64(1); step < 20; step++ {
				got := Run(tr, e, fixed.FromInt(step), b, c, d).Float64()
				want := 10 - 4*refEval(tr, e, float64(step)/20)
				if math.Abs(got-want) > 0.005 {
					t.Errorf("%v %v step %d: expected %.5f, got %.5f", tr, e, step, want, got)
				}
			}
		}
	}
}

func TestRunEndpoints(t *testing.T) {
	d := fixed.FromInt(7)
	b := fixed.MustParse("-2.5")
	c := fixed.FromInt(9)
	for tr := Linear; tr < transitionCount; tr++ {
		for e := In; e < easeCount; e++ {
			if got := Run(tr, e, 0, b, c, d); got != b {
				t.Errorf("%v %v: expected start %v, got %v", tr, e, b, got)
			}
			if got := Run(tr, e, d, b, c, d); got != b.Add(c) {
				t.Errorf("%v %v: expected end %v, got %v", tr, e, b.Add(c), got)
			}
			// Out of range time clamps
			if got := Run(tr, e, fixed.FromInt(-3), b, c, d); got != b {
				t.Errorf("%v %v: expected clamp to start, got %v", tr, e, got)
			}
			if got := Run(tr, e, fixed.FromInt(30), b, c, d); got != b.Add(c) {
				t.Errorf("%v %v: expected clamp to end, got %v", tr, e, got)
			}
		}
	}
	if got := Run(Quad, In, fixed.One, b, c, 0); got != b.Add(c) {
		t.Errorf("Expected zero duration to jump to the end, got %v", got)
	}
}

func TestRunShapes(t *testing.T) {
	d := fixed.FromInt(100)
	c := fixed.FromInt(100)

	// Back dips below the start before rising
	if v := Run(Back, In, fixed.FromInt(20), 0, c, d); v >= 0 {
		t.Errorf("Expected back-in to undershoot, got %v", v)
	}
	// Elastic overshoots the target on the way out
	overshoot := false
	for s := int64(1); s < 100; s++ {
		if Run(Elastic, Out, fixed.FromInt(s), 0, c, d) > c {
			overshoot = true
			break
		}
	}
	if !overshoot {
		t.Error("Expected elastic-out to overshoot")
	}

	// Polynomial in-curves are monotonic
	for _, tr := range []Transition{Quad, Cubic, Quart, Quint, Sine, Circ, Expo} {
		prev := fixed.Min
		for s := int64(0); s <= 100; s++ {
			v := Run(tr, In, fixed.FromInt(s), 0, c, d)
			if v < prev {
				t.Errorf("%v: expected monotonic rise at step %d, %v < %v", tr, s, v, prev)
				break
			}
			prev = v
		}
	}

	// Symmetric in-out curves pass through the midpoint
	for _, tr := range []Transition{Linear, Quad, Cubic, Sine, Circ} {
		v := Run(tr, InOut, fixed.FromInt(50), 0, c, d)
		if v.Sub(fixed.FromInt(50)).Abs() > fixed.MustParse("0.01") {
			t.Errorf("%v: expected midpoint 50, got %v", tr, v)
		}
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		tr   Transition
		fail bool
	}{
		{"linear", Linear, false},
		{"BOUNCE", Bounce, false},
		{"Elastic", Elastic, false},
		{"wobble", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseTransition(tt.in)
		if (err != nil) != tt.fail {
			t.Errorf("ParseTransition(%q): unexpected error state %v", tt.in, err)
			continue
		}
		if !tt.fail && got != tt.tr {
			t.Errorf("ParseTransition(%q): expected %v, got %v", tt.in, tt.tr, got)
		}
	}

	for in, want := range map[string]Ease{"in": In, "OUT": Out, "in-out": InOut, "outin": OutIn, "out_in": OutIn} {
		got, err := ParseEase(in)
		if err != nil || got != want {
			t.Errorf("ParseEase(%q): expected %v, got %v (%v)", in, want, got, err)
		}
	}
	if _, err := ParseEase("sideways"); err == nil {
		t.Error("Expected error for unknown ease")
	}
	if s := Transition(99).String(); s != "Transition(99)" {
		t.Errorf("Expected fallback name, got %q", s)
	}
}

func TestTweenClock(t *testing.T) {
	tw := &Tween{
		Clock: Clock{Duration: 4, Delay: 2},
		Trans: Linear,
		From:  fixed.FromInt(10),
		To:    fixed.FromInt(18),
	}
	want := []int64{10, 10, 10, 12, 14, 16, 18}
	for i, w := range want {
		if i > 0 {
			done := tw.Step()
			if done != (i == len(want)-1) {
				t.Errorf("Step %d: expected done=%v, got %v", i, i == len(want)-1, done)
			}
		}
		if got := tw.Value(); got != fixed.FromInt(w) {
			t.Errorf("Step %d: expected %d, got %v", i, w, got)
		}
	}
	// Finished tweens hold the end value
	tw.Step()
	if tw.Value() != fixed.FromInt(18) || tw.Elapsed() != 6 {
		t.Errorf("Expected hold at 18, got %v after %d steps", tw.Value(), tw.Elapsed())
	}

	tw.Seek(4)
	if tw.Value() != fixed.FromInt(14) {
		t.Errorf("Expected 14 after seek, got %v", tw.Value())
	}
	tw.Reset()
	if tw.Value() != fixed.FromInt(10) {
		t.Errorf("Expected 10 after reset, got %v", tw.Value())
	}
}

func TestTweenRepeat(t *testing.T) {
	c := Clock{Duration: 2, Repeat: true}
	var seen []int
	for range 5 {
		if c.Step() {
			t.Fatal("Expected repeating clock never to finish")
		}
		seen = append(seen, c.Elapsed())
	}
	want := []int{1, 2, 0, 1, 2}
	for i := range want {
		if seen[i] != want[i] {
			t.Fatalf("Expected elapsed %v, got %v", want, seen)
		}
	}
}

func TestVectorTween(t *testing.T) {
	tw := &VectorTween{
		Clock: Clock{Duration: 2},
		Trans: Quad,
		Ease:  In,
		From:  vmath.VecInt(0, 100),
		To:    vmath.VecInt(8, 0),
	}
	tw.Step()
	// Quad-in at half time covers a quarter of the change
	if got := tw.Value(); got != vmath.VecInt(2, 75) {
		t.Errorf("Expected (2, 75), got %v", got)
	}
	tw.Step()
	if got := tw.Value(); got != tw.To {
		t.Errorf("Expected end %v, got %v", tw.To, got)
	}
}

func BenchmarkRun(b *testing.B) {
	d := fixed.FromInt(60)
	c := fixed.FromInt(100)
	for i := 0; i < b.N; i++ {
		Run(Elastic, InOut, fixed.FromInt(int64(i%60)), 0, c, d)
	}
}
