package scene

import (
	"fmt"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"

	"github.com/lixenwraith/sgphysics/fixed"
	"github.com/lixenwraith/sgphysics/physics"
	"github.com/lixenwraith/sgphysics/vmath"
)

// scriptModules are the stdlib modules scripts may import. Modules that
// read clocks, randomness or the host are left out.
var scriptModules = []string{"text", "enum"}

// scriptInputs are the globals a script sees each step. Positions and
// velocities are raw fixed-point integers; ONE is the raw value of 1.
var scriptInputs = []string{"step", "id", "x", "y", "vx", "vy"}

// Script is a compiled motion script. Each object gets its own clone so
// script globals do not leak between objects.
type Script struct {
	Name     string
	compiled *tengo.Compiled
	err      error
}

// CompileScript compiles tengo source. The script reads step, id, x, y, vx
// and vy and leaves its chosen velocity in vx and vy.
func CompileScript(name, src string) (*Script, error) {
	s := tengo.NewScript([]byte(src))
	for _, v := range scriptInputs {
		if err := s.Add(v, 0); err != nil {
			return nil, fmt.Errorf("script %q: %w", name, err)
		}
	}
	if err := s.Add("ONE", fixed.One.Raw()); err != nil {
		return nil, fmt.Errorf("script %q: %w", name, err)
	}
	s.SetImports(stdlib.GetModuleMap(scriptModules...))
	compiled, err := s.Compile()
	if err != nil {
		return nil, fmt.Errorf("script %q: %w", name, err)
	}
	return &Script{Name: name, compiled: compiled}, nil
}

// Clone returns an independent copy with fresh globals
func (s *Script) Clone() *Script {
	return &Script{Name: s.Name, compiled: s.compiled.Clone()}
}

// Err returns the first error the script raised while running
func (s *Script) Err() error { return s.err }

// Run executes the script once for the given context and returns the
// velocity it chose
func (s *Script) Run(ctx physics.MotionContext) (vmath.Vector2, error) {
	c := s.compiled
	inputs := []struct {
		name  string
		value int64
	}{
		{"step", int64(ctx.Step)},
		{"id", int64(ctx.ID)},
		{"x", ctx.Transform.Origin.X.Raw()},
		{"y", ctx.Transform.Origin.Y.Raw()},
		{"vx", ctx.Velocity.X.Raw()},
		{"vy", ctx.Velocity.Y.Raw()},
	}
	for _, in := range inputs {
		if err := c.Set(in.name, in.value); err != nil {
			return ctx.Velocity, err
		}
	}
	if err := c.Run(); err != nil {
		return ctx.Velocity, err
	}
	vx, err := rawInt(c, "vx")
	if err != nil {
		return ctx.Velocity, err
	}
	vy, err := rawInt(c, "vy")
	if err != nil {
		return ctx.Velocity, err
	}
	return vmath.Vec(fixed.FromRaw(vx), fixed.FromRaw(vy)), nil
}

func rawInt(c *tengo.Compiled, name string) (int64, error) {
	v := c.Get(name)
	if v.ValueType() != "int" {
		return 0, fmt.Errorf("%s must stay an int, got %s", name, v.ValueType())
	}
	return v.Int64(), nil
}

// Motion adapts the script to a physics.MotionFunc. After the first error
// the object keeps its velocity and the script stops running; Err reports
// what happened.
func (s *Script) Motion() physics.MotionFunc {
	return func(ctx physics.MotionContext) vmath.Vector2 {
		if s.err != nil {
			return ctx.Velocity
		}
		v, err := s.Run(ctx)
		if err != nil {
			s.err = fmt.Errorf("script %q object %d step %d: %w", s.Name, ctx.ID, ctx.Step, err)
			return ctx.Velocity
		}
		return v
	}
}
