// Package tween provides Penner easing equations and step-driven tweens in
// fixed point.
package tween

import (
	"fmt"
	"strings"

	"github.com/lixenwraith/sgphysics/fixed"
)

// Transition selects the curve shape
type Transition uint8

const (
	Linear Transition = iota
	Sine
	Quint
	Quart
	Quad
	Expo
	Elastic
	Cubic
	Circ
	Bounce
	Back
	transitionCount
)

var transitionNames = [transitionCount]string{
	"linear", "sine", "quint", "quart", "quad", "expo",
	"elastic", "cubic", "circ", "bounce", "back",
}

func (tr Transition) String() string {
	if tr < transitionCount {
		return transitionNames[tr]
	}
	return fmt.Sprintf("Transition(%d)", uint8(tr))
}

// ParseTransition matches a transition by name, case insensitive
func ParseTransition(s string) (Transition, error) {
	for i, name := range transitionNames {
		if strings.EqualFold(s, name) {
			return Transition(i), nil
		}
	}
	return 0, fmt.Errorf("tween: unknown transition %q", s)
}

// Ease selects which end of the curve is applied where
type Ease uint8

const (
	In Ease = iota
	Out
	InOut
	OutIn
	easeCount
)

var easeNames = [easeCount]string{"in", "out", "in_out", "out_in"}

func (e Ease) String() string {
	if e < easeCount {
		return easeNames[e]
	}
	return fmt.Sprintf("Ease(%d)", uint8(e))
}

// ParseEase accepts in, out, in_out and out_in; dashes and a missing
// underscore are tolerated
func ParseEase(s string) (Ease, error) {
	norm := strings.ToLower(strings.ReplaceAll(s, "-", "_"))
	switch norm {
	case "inout":
		norm = "in_out"
	case "outin":
		norm = "out_in"
	}
	for i, name := range easeNames {
		if norm == name {
			return Ease(i), nil
		}
	}
	return 0, fmt.Errorf("tween: unknown ease %q", s)
}

// Shared constants, all Q48.16
var (
	ten           = fixed.FromInt(10)
	backS         = fixed.FromRaw(111514) // 1.70158
	backSInOut    = fixed.FromRaw(170059) // 1.70158 * 1.525
	elasticPeriod = fixed.MustParse("0.3")
	elasticInOutP = fixed.MustParse("0.45")
	elasticFreq   = fixed.Tau.Quo(elasticPeriod)
	elasticFreqIO = fixed.Tau.Quo(elasticInOutP)
	elasticShift  = elasticPeriod.Mul(fixed.Quarter)
	elasticShiftI = elasticInOutP.Mul(fixed.Quarter)

	bounceK  = fixed.FromRaw(495616) // 7.5625
	bounceX1 = fixed.FromRaw(23831)  // 1 / 2.75
	bounceX2 = fixed.FromRaw(47662)  // 2 / 2.75
	bounceX3 = fixed.FromRaw(59578)  // 2.5 / 2.75
	bounceC1 = fixed.FromRaw(35746)  // 1.5 / 2.75
	bounceC2 = fixed.FromRaw(53620)  // 2.25 / 2.75
	bounceC3 = fixed.FromRaw(62557)  // 2.625 / 2.75
	bounceY1 = fixed.FromRaw(49152)  // 0.75
	bounceY2 = fixed.FromRaw(61440)  // 0.9375
	bounceY3 = fixed.FromRaw(64512)  // 0.984375
)

// unit maps progress x in [0, 1] to eased progress
type unit func(x fixed.Num) fixed.Num

func pow(x fixed.Num, n int) fixed.Num {
	r := fixed.One
	for range n {
		r = r.Mul(x)
	}
	return r
}

func powIn(n int) unit {
	return func(x fixed.Num) fixed.Num { return pow(x, n) }
}

func sineIn(x fixed.Num) fixed.Num {
	return fixed.One.Sub(x.Mul(fixed.HalfPi).Cos())
}

func expoIn(x fixed.Num) fixed.Num {
	if x == 0 {
		return 0
	}
	return x.Sub(fixed.One).Mul(ten).Exp2()
}

func circIn(x fixed.Num) fixed.Num {
	s, err := fixed.One.Sub(x.Mul(x)).Sqrt()
	if err != nil {
		return fixed.One
	}
	return fixed.One.Sub(s)
}

func backIn(x fixed.Num) fixed.Num {
	return x.Mul(x).Mul(backS.Add(fixed.One).Mul(x).Sub(backS))
}

func elasticIn(x fixed.Num) fixed.Num {
	if x == 0 || x == fixed.One {
		return x
	}
	v := x.Sub(fixed.One)
	return v.Mul(ten).Exp2().Mul(v.Sub(elasticShift).Mul(elasticFreq).Sin()).Neg()
}

func bounceOut(x fixed.Num) fixed.Num {
	var c, y fixed.Num
	switch {
	case x < bounceX1:
		return bounceK.Mul(x).Mul(x)
	case x < bounceX2:
		c, y = bounceC1, bounceY1
	case x < bounceX3:
		c, y = bounceC2, bounceY2
	default:
		c, y = bounceC3, bounceY3
	}
	v := x.Sub(c)
	return bounceK.Mul(v).Mul(v).Add(y)
}

// mirror turns an in curve into its out curve and back
func mirror(f unit) unit {
	return func(x fixed.Num) fixed.Num {
		return fixed.One.Sub(f(fixed.One.Sub(x)))
	}
}

func backInOut(x fixed.Num) fixed.Num {
	u := x.Add(x)
	k := backSInOut.Add(fixed.One)
	if u < fixed.One {
		return u.Mul(u).Mul(k.Mul(u).Sub(backSInOut)).Mul(fixed.Half)
	}
	u = u.Sub(fixed.Two)
	return u.Mul(u).Mul(k.Mul(u).Add(backSInOut)).Add(fixed.Two).Mul(fixed.Half)
}

func elasticInOut(x fixed.Num) fixed.Num {
	if x == 0 || x == fixed.One {
		return x
	}
	u := x.Add(x).Sub(fixed.One)
	wave := u.Sub(elasticShiftI).Mul(elasticFreqIO).Sin()
	if u < 0 {
		return u.Mul(ten).Exp2().Mul(wave).Mul(fixed.Half).Neg()
	}
	return u.Mul(ten).Neg().Exp2().Mul(wave).Mul(fixed.Half).Add(fixed.One)
}

type curves struct {
	in, out, inOut unit
}

var table [transitionCount]curves

func init() {
	ins := [transitionCount]unit{
		Linear:  func(x fixed.Num) fixed.Num { return x },
		Sine:    sineIn,
		Quint:   powIn(5),
		Quart:   powIn(4),
		Quad:    powIn(2),
		Expo:    expoIn,
		Elastic: elasticIn,
		Cubic:   powIn(3),
		Circ:    circIn,
		Bounce:  mirror(bounceOut),
		Back:    backIn,
	}
	for tr, in := range ins {
		c := curves{in: in, out: mirror(in)}
		if Transition(tr) == Bounce {
			c.out = bounceOut
		}
		table[tr] = c
	}
	table[Back].inOut = backInOut
	table[Elastic].inOut = elasticInOut
}

// apply evaluates the eased curve at x in [0, 1]
func apply(tr Transition, e Ease, x fixed.Num) fixed.Num {
	if tr >= transitionCount {
		tr = Linear
	}
	c := table[tr]
	x2 := x.Add(x)
	switch e {
	case Out:
		return c.out(x)
	case InOut:
		if c.inOut != nil {
			return c.inOut(x)
		}
		if x2 < fixed.One {
			return c.in(x2).Mul(fixed.Half)
		}
		return c.out(x2.Sub(fixed.One)).Mul(fixed.Half).Add(fixed.Half)
	case OutIn:
		if x2 < fixed.One {
			return c.out(x2).Mul(fixed.Half)
		}
		return c.in(x2.Sub(fixed.One)).Mul(fixed.Half).Add(fixed.Half)
	default:
		return c.in(x)
	}
}

// Run evaluates an easing equation in Penner form: t is elapsed time, b the
// start value, c the total change and d the duration.
// t is clamped into [0, d]; the ends return b and b+c exactly. A
// non-positive duration returns b+c. Unknown transitions behave as Linear
// and unknown eases as In.
func Run(tr Transition, e Ease, t, b, c, d fixed.Num) fixed.Num {
	if d <= 0 || t >= d {
		return b.Add(c)
	}
	if t <= 0 {
		return b
	}
	x, err := t.Div(d)
	if err != nil {
		return b.Add(c)
	}
	return b.Add(c.Mul(apply(tr, e, x)))
}
