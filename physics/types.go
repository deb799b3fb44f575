// Package physics is the world server: it owns collision objects, steps
// kinematic motion, detects contacts and area overlaps, and drains the
// resulting events in a deterministic order.
package physics

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/lixenwraith/sgphysics/fixed"
	"github.com/lixenwraith/sgphysics/shape"
	"github.com/lixenwraith/sgphysics/vmath"
)

var (
	ErrUnknownObject     = errors.New("physics: unknown object")
	ErrUnknownShape      = errors.New("physics: unknown shape")
	ErrShapeInUse        = errors.New("physics: shape referenced by a live object")
	ErrVariableTimestep  = errors.New("physics: variable timestep")
	ErrInvalidTransition = errors.New("physics: invalid state transition")
	ErrNotKinematic      = errors.New("physics: object is not a kinematic body")
	ErrInvalidObject     = errors.New("physics: invalid object spec")
	ErrStepInProgress    = errors.New("physics: step already in progress")
)

// ObjectID identifies a collision object. IDs are issued in creation order
// and never reused, so comparing IDs compares creation sequence.
type ObjectID uint64

func (id ObjectID) LogValue() slog.Value { return slog.Uint64Value(uint64(id)) }

// ShapeID identifies a registered shape
type ShapeID uint64

// Kind is the collision object category
type Kind uint8

const (
	Area Kind = iota
	StaticBody
	KinematicBody
)

func (k Kind) String() string {
	switch k {
	case Area:
		return "area"
	case StaticBody:
		return "static"
	case KinematicBody:
		return "kinematic"
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// ParseKind accepts the names String returns
func ParseKind(s string) (Kind, error) {
	switch s {
	case "area":
		return Area, nil
	case "static":
		return StaticBody, nil
	case "kinematic":
		return KinematicBody, nil
	}
	return 0, fmt.Errorf("%w: unknown kind %q", ErrInvalidObject, s)
}

func (k Kind) isBody() bool { return k != Area }

// State is an object's lifecycle stage
type State uint8

const (
	Created State = iota
	Active
	Sleeping
	Destroyed
)

func (s State) String() string {
	switch s {
	case Created:
		return "created"
	case Active:
		return "active"
	case Sleeping:
		return "sleeping"
	case Destroyed:
		return "destroyed"
	}
	return fmt.Sprintf("State(%d)", uint8(s))
}

// transitions lists the legal lifecycle edges
var transitions = map[State][]State{
	Created:  {Active, Destroyed},
	Active:   {Sleeping, Destroyed},
	Sleeping: {Active, Destroyed},
}

func canTransition(from, to State) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// ShapeRef attaches a registered shape to an object at a local offset.
// A zero Offset means identity.
type ShapeRef struct {
	Shape    ShapeID
	Offset   vmath.Transform2D
	Disabled bool
}

// MotionContext is passed to a MotionFunc once per step
type MotionContext struct {
	Server    *Server
	ID        ObjectID
	Step      uint64
	Dt        fixed.Num
	Transform vmath.Transform2D
	Velocity  vmath.Vector2
}

// MotionFunc returns the velocity an object should move with this step.
// Server mutations made from inside it are deferred until the step ends.
type MotionFunc func(ctx MotionContext) vmath.Vector2

// ObjectSpec describes an object to create.
// A zero Transform means identity.
type ObjectSpec struct {
	Kind        Kind
	Shapes      []ShapeRef
	Transform   vmath.Transform2D
	Layer       uint32
	Mask        uint32
	Monitorable bool // Other areas may detect this area
	Velocity    vmath.Vector2
	MaxSpeed    fixed.Num // Zero means unlimited
	Motion      MotionFunc
}

// Collision is the result of a blocked kinematic move
type Collision struct {
	Collider ObjectID
	Normal   vmath.Vector2 // Pushes the mover out of Collider
	// Depth is the penetration left after resolution; nonzero only when the
	// iteration budget ran out
	Depth     fixed.Num
	Point     vmath.Vector2
	Remainder vmath.Vector2 // Unused motion slid along the contact tangent
	Travel    vmath.Vector2 // Motion actually applied
}

func (c *Collision) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Uint64("collider", uint64(c.Collider)),
		slog.String("normal", c.Normal.String()),
		slog.String("depth", c.Depth.String()),
		slog.String("travel", c.Travel.String()),
	)
}

// BodyState is a kinematic body's result from its last MoveAndSlide
type BodyState struct {
	Velocity        vmath.Vector2
	OnFloor         bool
	OnWall          bool
	OnCeiling       bool
	FloorNormal     vmath.Vector2
	SlideCollisions []Collision
}

// FloorAngle is the angle between the floor normal and up
func (b BodyState) FloorAngle(up vmath.Vector2) fixed.Num {
	a, err := b.FloorNormal.Dot(up).Clamp(fixed.NegOne, fixed.One).Acos()
	if err != nil {
		return 0
	}
	return a
}

// Contact is one body contact from the last step, seen from the queried
// object: Normal pushes that object out of Other
type Contact struct {
	Other  ObjectID
	Normal vmath.Vector2
	Depth  fixed.Num
	Point  vmath.Vector2
}

// RayOptions filter a ray cast. The zero value hits nothing; start from
// DefaultRayOptions.
type RayOptions struct {
	Mask          uint32
	Exclude       []ObjectID
	CollideAreas  bool
	CollideBodies bool
}

// DefaultRayOptions hits bodies on every layer
func DefaultRayOptions() RayOptions {
	return RayOptions{Mask: ^uint32(0), CollideBodies: true}
}

// RayResult is the nearest hit of a ray cast
type RayResult struct {
	Collider ObjectID
	Point    vmath.Vector2
	Normal   vmath.Vector2
	T        fixed.Num
}

// Stats is a snapshot of the world's counters
type Stats struct {
	Step        uint64
	Objects     int
	PairsTested int64
	Contacts    int64
	Overlaps    int64
	Events      int64
	Iterations  int64
	Saturated   int64 // Moves that left an object on a fixed-point bound
}

// PlacedShape is a shape with its world transform
type PlacedShape struct {
	Shape     shape.Shape
	Transform vmath.Transform2D
}

// ObjectInfo is a read-only view of an object
type ObjectInfo struct {
	ID          ObjectID
	Kind        Kind
	State       State
	Transform   vmath.Transform2D
	Velocity    vmath.Vector2
	Layer       uint32
	Mask        uint32
	Monitorable bool
	Shapes      []PlacedShape // Enabled shapes only
}
