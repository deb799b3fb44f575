package scene

import (
	"github.com/lixenwraith/sgphysics/curve"
	"github.com/lixenwraith/sgphysics/fixed"
	"github.com/lixenwraith/sgphysics/physics"
	"github.com/lixenwraith/sgphysics/tween"
	"github.com/lixenwraith/sgphysics/vmath"
)

// seek returns the velocity that carries an object from its position to
// target within one step. Rounding error does not accumulate because the
// next step measures from where the object actually is.
func seek(ctx physics.MotionContext, target vmath.Vector2) vmath.Vector2 {
	v, err := target.Sub(ctx.Transform.Origin).Div(ctx.Dt)
	if err != nil {
		return vmath.Zero
	}
	return v
}

// TweenMotion drives an object along a tween, one tween step per physics
// step
func TweenMotion(tw *tween.VectorTween) physics.MotionFunc {
	return func(ctx physics.MotionContext) vmath.Vector2 {
		tw.Step()
		return seek(ctx, tw.Value())
	}
}

// FollowMotion advances a follower by speed each step and steers the object
// onto it
func FollowMotion(f *curve.Follower, speed fixed.Num) physics.MotionFunc {
	return func(ctx physics.MotionContext) vmath.Vector2 {
		f.Advance(speed)
		xf, err := f.Transform()
		if err != nil {
			return vmath.Zero
		}
		return seek(ctx, xf.Origin)
	}
}
