// Package scene loads world descriptions from TOML or YAML files and builds
// them into a physics server.
//
// Every number in a scene is a decimal parsed exactly into fixed point;
// quote numbers in TOML to keep them out of the float path.
package scene

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/lixenwraith/sgphysics/fixed"
	"github.com/lixenwraith/sgphysics/vmath"
)

//go:embed default.toml
var defaultTOML []byte

var (
	ErrFormat  = errors.New("scene: unsupported file format")
	ErrInvalid = errors.New("scene: invalid scene")
)

// Vec is a two-element decimal vector
type Vec [2]fixed.Num

func (v Vec) Vector() vmath.Vector2 { return vmath.Vec(v[0], v[1]) }

// Scene is the decoded file
type Scene struct {
	Name  string `toml:"name" yaml:"name"`
	Steps int    `toml:"steps" yaml:"steps"`

	World   WorldDef          `toml:"world" yaml:"world"`
	Shapes  []ShapeDef        `toml:"shapes" yaml:"shapes"`
	Objects []ObjectDef       `toml:"objects" yaml:"objects"`
	Curve   *CurveDef         `toml:"curve" yaml:"curve"`
	Grid    *GridDef          `toml:"grid" yaml:"grid"`
	Rays    []RayDef          `toml:"rays" yaml:"rays"`
	Scripts map[string]string `toml:"scripts" yaml:"scripts"`
}

// WorldDef overrides physics.Config; zero fields keep the defaults
type WorldDef struct {
	TimeStep      fixed.Num `toml:"time_step" yaml:"time_step"`
	CellSize      fixed.Num `toml:"cell_size" yaml:"cell_size"`
	MaxIterations int       `toml:"max_iterations" yaml:"max_iterations"`
	SafeMargin    fixed.Num `toml:"safe_margin" yaml:"safe_margin"`
}

type ShapeDef struct {
	Name    string    `toml:"name" yaml:"name"`
	Kind    string    `toml:"kind" yaml:"kind"` // circle, capsule, rectangle, polygon
	Radius  fixed.Num `toml:"radius" yaml:"radius"`
	Height  fixed.Num `toml:"height" yaml:"height"`
	Extents Vec       `toml:"extents" yaml:"extents"`
	Points  []Vec     `toml:"points" yaml:"points"`
}

// ShapeUse attaches a named shape to an object
type ShapeUse struct {
	Shape    string    `toml:"shape" yaml:"shape"`
	Offset   Vec       `toml:"offset" yaml:"offset"`
	Rotation fixed.Num `toml:"rotation" yaml:"rotation"`
	Disabled bool      `toml:"disabled" yaml:"disabled"`
}

type ObjectDef struct {
	Name        string     `toml:"name" yaml:"name"`
	Kind        string     `toml:"kind" yaml:"kind"` // area, static, kinematic
	Shapes      []ShapeUse `toml:"shapes" yaml:"shapes"`
	Position    Vec        `toml:"position" yaml:"position"`
	Rotation    fixed.Num  `toml:"rotation" yaml:"rotation"`
	Layer       uint32     `toml:"layer" yaml:"layer"`
	Mask        uint32     `toml:"mask" yaml:"mask"`
	Monitorable bool       `toml:"monitorable" yaml:"monitorable"`
	Velocity    Vec        `toml:"velocity" yaml:"velocity"`
	MaxSpeed    fixed.Num  `toml:"max_speed" yaml:"max_speed"`
	Sleeping    bool       `toml:"sleeping" yaml:"sleeping"`

	// At most one motion source
	Script string     `toml:"script" yaml:"script"`
	Tween  *TweenDef  `toml:"tween" yaml:"tween"`
	Follow *FollowDef `toml:"follow" yaml:"follow"`
}

// TweenDef eases an object's position toward To
type TweenDef struct {
	Transition string `toml:"transition" yaml:"transition"`
	Ease       string `toml:"ease" yaml:"ease"`
	To         Vec    `toml:"to" yaml:"to"`
	Duration   int    `toml:"duration" yaml:"duration"`
	Delay      int    `toml:"delay" yaml:"delay"`
	Repeat     bool   `toml:"repeat" yaml:"repeat"`
}

// FollowDef moves an object along the scene curve
type FollowDef struct {
	Speed  fixed.Num `toml:"speed" yaml:"speed"` // Baked length per step
	Offset fixed.Num `toml:"offset" yaml:"offset"`
	Loop   bool      `toml:"loop" yaml:"loop"`
}

type CurvePointDef struct {
	Position Vec `toml:"position" yaml:"position"`
	In       Vec `toml:"in" yaml:"in"`
	Out      Vec `toml:"out" yaml:"out"`
}

type CurveDef struct {
	BakeInterval fixed.Num       `toml:"bake_interval" yaml:"bake_interval"`
	Points       []CurvePointDef `toml:"points" yaml:"points"`
}

// GridDef is an occupancy grid for A*; '#' marks a blocked cell.
// Either Rows or Maze describes the cells.
type GridDef struct {
	Rows     []string  `toml:"rows" yaml:"rows"`
	Maze     *MazeDef  `toml:"maze" yaml:"maze"`
	CellSize fixed.Num `toml:"cell_size" yaml:"cell_size"`
	Origin   Vec       `toml:"origin" yaml:"origin"`
	Start    [2]int    `toml:"start" yaml:"start"`
	Goal     [2]int    `toml:"goal" yaml:"goal"`
}

// MazeDef generates grid rows from a seed. Start and goal default to the
// maze's corner rooms when both are left at zero.
type MazeDef struct {
	Width    int       `toml:"width" yaml:"width"`
	Height   int       `toml:"height" yaml:"height"`
	Seed     uint64    `toml:"seed" yaml:"seed"`
	Braiding fixed.Num `toml:"braiding" yaml:"braiding"`
}

// RayDef is a ray cast performed after every step
type RayDef struct {
	Name  string `toml:"name" yaml:"name"`
	From  Vec    `toml:"from" yaml:"from"`
	To    Vec    `toml:"to" yaml:"to"`
	Mask  uint32 `toml:"mask" yaml:"mask"`
	Areas bool   `toml:"areas" yaml:"areas"`
}

// Load reads a scene file, choosing the decoder by extension
func Load(path string) (*Scene, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("scene: %w", err)
	}
	sc, err := Parse(data, filepath.Ext(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return sc, nil
}

// Parse decodes scene data; format is a file extension such as ".toml"
func Parse(data []byte, format string) (*Scene, error) {
	sc := &Scene{}
	switch strings.ToLower(strings.TrimPrefix(format, ".")) {
	case "toml":
		if _, err := toml.Decode(string(data), sc); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
		}
	case "yaml", "yml":
		if err := yaml.Unmarshal(data, sc); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrFormat, format)
	}
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return sc, nil
}

// Default returns the built-in demo scene
func Default() *Scene {
	sc, err := Parse(defaultTOML, "toml")
	if err != nil {
		panic(fmt.Sprintf("embedded scene: %v", err))
	}
	return sc
}

// IsSceneFile reports whether path has an extension Load understands
func IsSceneFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml", ".yaml", ".yml":
		return true
	}
	return false
}

// Validate checks names and references
func (sc *Scene) Validate() error {
	if sc.Steps < 0 {
		return fmt.Errorf("%w: negative steps", ErrInvalid)
	}
	shapes := make(map[string]bool, len(sc.Shapes))
	for i, s := range sc.Shapes {
		if s.Name == "" {
			return fmt.Errorf("%w: shape %d has no name", ErrInvalid, i)
		}
		if shapes[s.Name] {
			return fmt.Errorf("%w: duplicate shape %q", ErrInvalid, s.Name)
		}
		shapes[s.Name] = true
	}

	names := make(map[string]bool, len(sc.Objects))
	for i, o := range sc.Objects {
		if o.Name != "" {
			if names[o.Name] {
				return fmt.Errorf("%w: duplicate object %q", ErrInvalid, o.Name)
			}
			names[o.Name] = true
		}
		for _, u := range o.Shapes {
			if !shapes[u.Shape] {
				return fmt.Errorf("%w: object %d uses unknown shape %q", ErrInvalid, i, u.Shape)
			}
		}
		motions := 0
		if o.Script != "" {
			motions++
			if _, ok := sc.Scripts[o.Script]; !ok {
				return fmt.Errorf("%w: object %d uses unknown script %q", ErrInvalid, i, o.Script)
			}
		}
		if o.Tween != nil {
			motions++
		}
		if o.Follow != nil {
			motions++
			if sc.Curve == nil {
				return fmt.Errorf("%w: object %d follows a curve but the scene has none", ErrInvalid, i)
			}
		}
		if motions > 1 {
			return fmt.Errorf("%w: object %d has more than one motion source", ErrInvalid, i)
		}
	}

	if g := sc.Grid; g != nil {
		if g.Maze != nil {
			if len(g.Rows) != 0 {
				return fmt.Errorf("%w: grid has both rows and a maze", ErrInvalid)
			}
			if g.Maze.Width < 3 || g.Maze.Height < 3 {
				return fmt.Errorf("%w: maze smaller than 3x3", ErrInvalid)
			}
			if g.Maze.Braiding < 0 || g.Maze.Braiding > fixed.One {
				return fmt.Errorf("%w: maze braiding outside [0, 1]", ErrInvalid)
			}
			return nil
		}
		if len(g.Rows) == 0 {
			return fmt.Errorf("%w: empty grid", ErrInvalid)
		}
		w := len(g.Rows[0])
		for _, r := range g.Rows {
			if len(r) != w {
				return fmt.Errorf("%w: ragged grid rows", ErrInvalid)
			}
		}
	}
	return nil
}
