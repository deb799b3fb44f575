package physics

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/lixenwraith/sgphysics/astar"
	"github.com/lixenwraith/sgphysics/collision"
	"github.com/lixenwraith/sgphysics/vmath"
)

// CastRay returns the nearest object hit by the segment from -> to, or nil.
// Equal hit fractions resolve to the lowest ID.
func (s *Server) CastRay(from, to vmath.Vector2, opts RayOptions) *RayResult {
	var best *RayResult
	for _, bid := range s.grid.QuerySegment(from, to, opts.Mask) {
		id := ObjectID(bid)
		o := s.objects[id]
		if o == nil || o.dying || slices.Contains(opts.Exclude, id) {
			continue
		}
		if o.kind == Area && !opts.CollideAreas || o.kind.isBody() && !opts.CollideBodies {
			continue
		}
		for _, p := range s.placed(o) {
			hit, ok := collision.RayShape(p.Shape, p.Transform, from, to)
			if !ok {
				continue
			}
			// IDs arrive ascending, so strict comparison keeps the lowest on ties
			if best == nil || hit.T < best.T {
				best = &RayResult{Collider: id, Point: hit.Point, Normal: hit.Normal, T: hit.T}
			}
		}
	}
	return best
}

// IntersectPoint lists objects containing p whose layer matches mask,
// ascending
func (s *Server) IntersectPoint(p vmath.Vector2, mask uint32) []ObjectID {
	var out []ObjectID
	probe := vmath.NewRect(p, vmath.Zero)
	for _, bid := range s.grid.Query(probe, mask) {
		o := s.objects[ObjectID(bid)]
		if o == nil || o.dying {
			continue
		}
		for _, ps := range s.placed(o) {
			if collision.PointInside(ps.Shape, ps.Transform, p) {
				out = append(out, o.id)
				break
			}
		}
	}
	return out
}

// IntersectShape lists objects a registered shape would overlap at xform,
// ascending
func (s *Server) IntersectShape(shapeID ShapeID, xform vmath.Transform2D, mask uint32) ([]ObjectID, error) {
	sh, err := s.Shape(shapeID)
	if err != nil {
		return nil, err
	}
	xform = orIdentity(xform)
	var out []ObjectID
	for _, bid := range s.grid.Query(sh.WorldBounds(xform), mask) {
		o := s.objects[ObjectID(bid)]
		if o == nil || o.dying {
			continue
		}
		for _, ps := range s.placed(o) {
			if _, ok := collision.Overlap(sh, xform, ps.Shape, ps.Transform); ok {
				out = append(out, o.id)
				break
			}
		}
	}
	return out, nil
}

// Contacts lists the body contacts id had at the end of the last step,
// ordered by the other object's ID. Normals push id out of the other body.
func (s *Server) Contacts(id ObjectID) ([]Contact, error) {
	if _, err := s.lookup(id); err != nil {
		return nil, err
	}
	var out []Contact
	for k, c := range s.contacts {
		switch id {
		case k.a:
			out = append(out, Contact{Other: k.b, Normal: c.Normal, Depth: c.Depth, Point: c.Point})
		case k.b:
			out = append(out, Contact{Other: k.a, Normal: c.Normal.Neg(), Depth: c.Depth, Point: c.Point})
		}
	}
	slices.SortFunc(out, func(x, y Contact) int { return cmp.Compare(x.Other, y.Other) })
	return out, nil
}

// Overlaps lists the objects an area detected at the end of the last step,
// ascending
func (s *Server) Overlaps(area ObjectID) ([]ObjectID, error) {
	o, err := s.lookup(area)
	if err != nil {
		return nil, err
	}
	if o.kind != Area {
		return nil, fmt.Errorf("%w: %d is %v, not an area", ErrInvalidObject, area, o.kind)
	}
	var out []ObjectID
	for k := range s.overlaps {
		if k.area == area {
			out = append(out, k.other)
		}
	}
	slices.Sort(out)
	return out, nil
}

// FindPath snaps from and to onto the nearest enabled graph points and
// returns the point path between them
func (s *Server) FindPath(from, to vmath.Vector2, g *astar.Graph) ([]vmath.Vector2, error) {
	start, err := g.ClosestPoint(from, false)
	if err != nil {
		return nil, fmt.Errorf("path start: %w", err)
	}
	goal, err := g.ClosestPoint(to, false)
	if err != nil {
		return nil, fmt.Errorf("path goal: %w", err)
	}
	path, err := g.FindPointPath(start, goal)
	if err != nil {
		return nil, fmt.Errorf("path %d -> %d: %w", start, goal, err)
	}
	return path, nil
}
