// Package event defines the contact and overlap records a physics world
// emits each step and the queue they are drained from.
package event

import (
	"fmt"
	"log/slog"

	"github.com/lixenwraith/sgphysics/fixed"
	"github.com/lixenwraith/sgphysics/vmath"
)

// Type represents the kind of contact change
type Type int

const (
	// CollisionStart signals two bodies began touching this step
	// Trigger: narrow-phase contact with no contact last step
	// Payload: Normal and Depth of the new contact
	CollisionStart Type = iota + 1

	// CollisionContinue signals a contact that persists from the last step
	// Payload: Normal and Depth of the current contact
	CollisionContinue

	// CollisionEnd signals a contact from the last step is gone
	// Trigger: separation, or destruction of either body
	// Payload: none, Normal and Depth are zero
	CollisionEnd

	// AreaEnter signals an object started overlapping a monitoring area
	// A is the area, B the entering object
	AreaEnter

	// AreaExit signals an object stopped overlapping a monitoring area
	AreaExit
)

// Record is one drained event.
// A is created before B for collisions; for area events A is the area.
// Normal pushes A out of B.
type Record struct {
	Type   Type
	A, B   uint64
	Normal vmath.Vector2
	Depth  fixed.Num
	Step   uint64
}

func (r Record) String() string {
	return fmt.Sprintf("%d:%s(%d,%d)", r.Step, r.Type, r.A, r.B)
}

func (r Record) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("type", r.Type.String()),
		slog.Uint64("a", r.A),
		slog.Uint64("b", r.B),
		slog.Uint64("step", r.Step),
		slog.String("depth", r.Depth.String()),
	)
}
