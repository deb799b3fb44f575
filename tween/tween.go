package tween

import (
	"github.com/lixenwraith/sgphysics/fixed"
	"github.com/lixenwraith/sgphysics/vmath"
)

// Clock counts whole simulation steps for a tween
type Clock struct {
	Duration int // Steps from start to end value
	Delay    int // Steps held at the start value before easing begins
	Repeat   bool

	elapsed int
}

// Step advances one step and reports whether the tween has finished.
// A repeating clock returns to the start on the step after it reaches the
// end and never reports finished.
func (c *Clock) Step() bool {
	total := c.span()
	switch {
	case c.elapsed < total:
		c.elapsed++
	case c.Repeat:
		c.elapsed = 0
	}
	return c.Done()
}

func (c *Clock) span() int { return c.Delay + max(c.Duration, 0) }

// Seek jumps to an elapsed step count, clamped to the tween's span
func (c *Clock) Seek(steps int) {
	c.elapsed = min(max(steps, 0), c.span())
}

func (c *Clock) Reset() { c.elapsed = 0 }

func (c *Clock) Elapsed() int { return c.elapsed }

func (c *Clock) Done() bool {
	return !c.Repeat && c.elapsed >= c.span()
}

// progress returns eased time and duration in fixed point
func (c *Clock) progress() (t, d fixed.Num) {
	return fixed.FromInt(int64(c.elapsed - c.Delay)), fixed.FromInt(int64(c.Duration))
}

// Tween eases a scalar from From to To
type Tween struct {
	Clock
	Trans    Transition
	Ease     Ease
	From, To fixed.Num
}

// Value returns the eased value at the current step
func (tw *Tween) Value() fixed.Num {
	t, d := tw.progress()
	return Run(tw.Trans, tw.Ease, t, tw.From, tw.To.Sub(tw.From), d)
}

// VectorTween eases a Vector2 componentwise
type VectorTween struct {
	Clock
	Trans    Transition
	Ease     Ease
	From, To vmath.Vector2
}

func (tw *VectorTween) Value() vmath.Vector2 {
	t, d := tw.progress()
	delta := tw.To.Sub(tw.From)
	return vmath.Vec(
		Run(tw.Trans, tw.Ease, t, tw.From.X, delta.X, d),
		Run(tw.Trans, tw.Ease, t, tw.From.Y, delta.Y, d),
	)
}
