package scene

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/lixenwraith/sgphysics/astar"
	"github.com/lixenwraith/sgphysics/curve"
	"github.com/lixenwraith/sgphysics/fixed"
	"github.com/lixenwraith/sgphysics/maze"
	"github.com/lixenwraith/sgphysics/physics"
	"github.com/lixenwraith/sgphysics/shape"
	"github.com/lixenwraith/sgphysics/status"
	"github.com/lixenwraith/sgphysics/tween"
	"github.com/lixenwraith/sgphysics/vmath"
)

// World is a built scene ready to step
type World struct {
	Scene  *Scene
	Server *physics.Server
	Curve  *curve.Curve
	Grid   *astar.Grid
	Route  []astar.Cell // Grid path from start to goal; nil when blocked

	ids      map[string]physics.ObjectID
	names    map[physics.ObjectID]string
	scripts  []*Script
	sleepers []physics.ObjectID
}

// RayHit pairs a scene ray with its result; Result is nil on a miss
type RayHit struct {
	Ray    RayDef
	Result *physics.RayResult
}

// MetricScene holds the loaded scene's name in the status registry
const MetricScene = "scene.name"

// Build creates a server and populates it. Objects are created in file
// order, so their IDs follow the file.
func (sc *Scene) Build(log *slog.Logger, reg *status.Registry) (*World, error) {
	cfg := physics.Config{
		TimeStep:      sc.World.TimeStep,
		CellSize:      sc.World.CellSize,
		MaxIterations: sc.World.MaxIterations,
		SafeMargin:    sc.World.SafeMargin,
		Logger:        log,
		Registry:      reg,
	}
	w := &World{
		Scene:  sc,
		Server: physics.New(cfg),
		ids:    make(map[string]physics.ObjectID),
		names:  make(map[physics.ObjectID]string),
	}
	w.Server.Config().Registry.Strings.Get(MetricScene).Store(sc.Name)

	if sc.Curve != nil {
		c, err := buildCurve(sc.Curve)
		if err != nil {
			return nil, err
		}
		w.Curve = c
	}
	if sc.Grid != nil {
		if err := w.buildGrid(sc.Grid); err != nil {
			return nil, err
		}
	}

	compiled := make(map[string]*Script, len(sc.Scripts))
	for name, src := range sc.Scripts {
		s, err := CompileScript(name, src)
		if err != nil {
			return nil, err
		}
		compiled[name] = s
	}

	shapes := make(map[string]physics.ShapeID, len(sc.Shapes))
	for _, def := range sc.Shapes {
		s, err := buildShape(def)
		if err != nil {
			return nil, fmt.Errorf("shape %q: %w", def.Name, err)
		}
		shapes[def.Name] = w.Server.CreateShape(s)
	}

	for i, def := range sc.Objects {
		if err := w.buildObject(i, def, shapes, compiled); err != nil {
			return nil, err
		}
	}
	return w, nil
}

func buildShape(def ShapeDef) (shape.Shape, error) {
	kind, err := shape.ParseKind(def.Kind)
	if err != nil {
		return shape.Shape{}, err
	}
	switch kind {
	case shape.KindCircle:
		return shape.NewCircle(def.Radius)
	case shape.KindCapsule:
		return shape.NewCapsule(def.Radius, def.Height)
	case shape.KindRectangle:
		return shape.NewRectangle(def.Extents.Vector())
	default:
		pts := make([]vmath.Vector2, len(def.Points))
		for i, p := range def.Points {
			pts[i] = p.Vector()
		}
		return shape.NewPolygon(pts)
	}
}

func buildCurve(def *CurveDef) (*curve.Curve, error) {
	c := curve.New()
	if def.BakeInterval != 0 {
		if err := c.SetBakeInterval(def.BakeInterval); err != nil {
			return nil, fmt.Errorf("curve: %w", err)
		}
	}
	for _, p := range def.Points {
		c.AddPoint(p.Position.Vector(), p.In.Vector(), p.Out.Vector(), -1)
	}
	return c, nil
}

func (w *World) buildGrid(def *GridDef) error {
	rows := def.Rows
	start := astar.Cell{X: def.Start[0], Y: def.Start[1]}
	goal := astar.Cell{X: def.Goal[0], Y: def.Goal[1]}
	if def.Maze != nil {
		res := maze.Generate(maze.Config{
			Width:    def.Maze.Width,
			Height:   def.Maze.Height,
			Braiding: def.Maze.Braiding,
			Seed:     def.Maze.Seed,
		})
		rows = MazeRows(res)
		if def.Start == [2]int{} && def.Goal == [2]int{} {
			start, goal = res.Start, res.End
		}
	}

	g := astar.NewGrid(len(rows[0]), len(rows))
	for y, row := range rows {
		for x, ch := range []byte(row) {
			if ch == '#' {
				if err := g.SetBlocked(astar.Cell{X: x, Y: y}, true); err != nil {
					return fmt.Errorf("grid: %w", err)
				}
			}
		}
	}
	w.Grid = g
	route, err := g.FindPath(start, goal)
	switch {
	case errors.Is(err, astar.ErrNoPath):
		w.Route = nil
	case err != nil:
		return fmt.Errorf("grid route: %w", err)
	default:
		w.Route = route
	}
	return nil
}

func (w *World) buildObject(i int, def ObjectDef, shapes map[string]physics.ShapeID, scripts map[string]*Script) error {
	label := def.Name
	if label == "" {
		label = fmt.Sprintf("#%d", i)
	}
	kind, err := physics.ParseKind(def.Kind)
	if err != nil {
		return fmt.Errorf("object %s: %w", label, err)
	}

	refs := make([]physics.ShapeRef, len(def.Shapes))
	for j, u := range def.Shapes {
		refs[j] = physics.ShapeRef{
			Shape:    shapes[u.Shape],
			Offset:   vmath.NewTransform(u.Rotation, u.Offset.Vector()),
			Disabled: u.Disabled,
		}
	}

	spec := physics.ObjectSpec{
		Kind:        kind,
		Shapes:      refs,
		Transform:   vmath.NewTransform(def.Rotation, def.Position.Vector()),
		Layer:       def.Layer,
		Mask:        def.Mask,
		Monitorable: def.Monitorable,
		Velocity:    def.Velocity.Vector(),
		MaxSpeed:    def.MaxSpeed,
	}

	switch {
	case def.Script != "":
		s := scripts[def.Script].Clone()
		w.scripts = append(w.scripts, s)
		spec.Motion = s.Motion()
	case def.Tween != nil:
		tw, err := buildTween(def.Tween, def.Position.Vector())
		if err != nil {
			return fmt.Errorf("object %s: %w", label, err)
		}
		spec.Motion = TweenMotion(tw)
	case def.Follow != nil:
		f := curve.NewFollower(w.Curve)
		f.Loop = def.Follow.Loop
		f.Rotate = false
		f.SetOffset(def.Follow.Offset)
		if xf, err := f.Transform(); err == nil {
			spec.Transform = spec.Transform.WithOrigin(xf.Origin)
		}
		spec.Motion = FollowMotion(f, def.Follow.Speed)
	}

	id, err := w.Server.CreateObject(spec)
	if err != nil {
		return fmt.Errorf("object %s: %w", label, err)
	}
	if def.Name != "" {
		w.ids[def.Name] = id
	}
	w.names[id] = label

	if def.Sleeping {
		// Only an active object can sleep
		w.sleepers = append(w.sleepers, id)
	}
	return nil
}

func buildTween(def *TweenDef, from vmath.Vector2) (*tween.VectorTween, error) {
	tr := tween.Linear
	if def.Transition != "" {
		var err error
		if tr, err = tween.ParseTransition(def.Transition); err != nil {
			return nil, err
		}
	}
	e := tween.In
	if def.Ease != "" {
		var err error
		if e, err = tween.ParseEase(def.Ease); err != nil {
			return nil, err
		}
	}
	return &tween.VectorTween{
		Clock: tween.Clock{Duration: def.Duration, Delay: def.Delay, Repeat: def.Repeat},
		Trans: tr,
		Ease:  e,
		From:  from,
		To:    def.To.Vector(),
	}, nil
}

// MazeRows renders a generated maze in the '#' and '.' row format
func MazeRows(res maze.Result) []string {
	rows := make([]string, len(res.Grid))
	for y, line := range res.Grid {
		b := make([]byte, len(line))
		for x, wall := range line {
			b[x] = '.'
			if wall == maze.Wall {
				b[x] = '#'
			}
		}
		rows[y] = string(b)
	}
	return rows
}

// ID looks up an object by its scene name
func (w *World) ID(name string) (physics.ObjectID, bool) {
	id, ok := w.ids[name]
	return id, ok
}

// Name returns an object's scene name, or #index for unnamed objects
func (w *World) Name(id physics.ObjectID) string {
	if n, ok := w.names[id]; ok {
		return n
	}
	return fmt.Sprintf("id%d", id)
}

// Step advances the world one tick. Objects marked sleeping in the scene
// are put to sleep after the first step activates them.
func (w *World) Step() error {
	if err := w.Server.Step(w.Server.Config().TimeStep); err != nil {
		return err
	}
	for _, id := range w.sleepers {
		if err := w.Server.Sleep(id); err != nil {
			return fmt.Errorf("sleep %s: %w", w.Name(id), err)
		}
	}
	w.sleepers = nil
	return w.ScriptErr()
}

// ScriptErr joins the errors raised by motion scripts so far
func (w *World) ScriptErr() error {
	var errs []error
	for _, s := range w.scripts {
		if err := s.Err(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// CastRays runs the scene's rays against the current state
func (w *World) CastRays() []RayHit {
	out := make([]RayHit, len(w.Scene.Rays))
	for i, r := range w.Scene.Rays {
		opts := physics.DefaultRayOptions()
		if r.Mask != 0 {
			opts.Mask = r.Mask
		}
		opts.CollideAreas = r.Areas
		out[i] = RayHit{Ray: r, Result: w.Server.CastRay(r.From.Vector(), r.To.Vector(), opts)}
	}
	return out
}

// CellCenter maps a grid cell to world space
func (w *World) CellCenter(c astar.Cell) vmath.Vector2 {
	g := w.Scene.Grid
	if g == nil {
		return vmath.Zero
	}
	size := g.CellSize
	if size == 0 {
		size = fixed.One
	}
	half := size.Mul(fixed.Half)
	return g.Origin.Vector().Add(vmath.Vec(
		fixed.FromInt(int64(c.X)).Mul(size).Add(half),
		fixed.FromInt(int64(c.Y)).Mul(size).Add(half),
	))
}

// RoutePoints returns the grid route in world space
func (w *World) RoutePoints() []vmath.Vector2 {
	if w.Route == nil {
		return nil
	}
	out := make([]vmath.Vector2, len(w.Route))
	for i, c := range w.Route {
		out[i] = w.CellCenter(c)
	}
	return out
}
