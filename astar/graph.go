// Package astar finds least-cost paths over weighted point graphs and
// 4-connected boolean grids, entirely in fixed point.
//
// The open set is a binary heap keyed on f = g + h with insertion order as
// the tie-break, and neighbours are expanded in ascending ID order, so the
// returned path depends only on the graph contents.
package astar

import (
	"errors"
	"fmt"
	"slices"

	"github.com/lixenwraith/sgphysics/collision"
	"github.com/lixenwraith/sgphysics/fixed"
	"github.com/lixenwraith/sgphysics/vmath"
)

var (
	ErrNoPath            = errors.New("astar: no path found")
	ErrUnknownPoint      = errors.New("astar: unknown point")
	ErrInvalidWeight     = errors.New("astar: weight scale must be at least 1")
	ErrInvalidConnection = errors.New("astar: invalid connection")
)

// PointID identifies a graph point
type PointID int64

// Point is a graph vertex. WeightScale multiplies the cost of entering it.
type Point struct {
	ID          PointID
	Position    vmath.Vector2
	WeightScale fixed.Num
	Disabled    bool
}

// Coster supplies edge costs and the goal estimate. Heuristic must not
// overestimate Cost for paths to be optimal.
type Coster interface {
	Cost(a, b Point) fixed.Num
	Heuristic(a, goal Point) fixed.Num
}

// Euclidean is the default Coster
type Euclidean struct{}

func (Euclidean) Cost(a, b Point) fixed.Num      { return a.Position.DistanceTo(b.Position) }
func (Euclidean) Heuristic(a, b Point) fixed.Num { return a.Position.DistanceTo(b.Position) }

// Manhattan measures |dx| + |dy|
type Manhattan struct{}

func (Manhattan) Cost(a, b Point) fixed.Num      { return manhattan(a.Position, b.Position) }
func (Manhattan) Heuristic(a, b Point) fixed.Num { return manhattan(a.Position, b.Position) }

func manhattan(a, b vmath.Vector2) fixed.Num {
	d := b.Sub(a).Abs()
	return d.X.Add(d.Y)
}

type node struct {
	Point
	out []PointID // outgoing, ascending
	in  []PointID // incoming, ascending; kept for removal
}

// Graph is a directed point graph. Not safe for concurrent use.
type Graph struct {
	Coster Coster

	nodes map[PointID]*node
}

// NewGraph creates an empty graph using Euclidean costs
func NewGraph() *Graph {
	return &Graph{
		Coster: Euclidean{},
		nodes:  make(map[PointID]*node),
	}
}

func (g *Graph) lookup(id PointID) (*node, error) {
	n, ok := g.nodes[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownPoint, id)
	}
	return n, nil
}

// --- Points ---

// AddPoint adds a point, or updates position and weight of an existing one
// keeping its connections
func (g *Graph) AddPoint(id PointID, pos vmath.Vector2, weight fixed.Num) error {
	if weight < fixed.One {
		return fmt.Errorf("%w: point %d weight %v", ErrInvalidWeight, id, weight)
	}
	if n, ok := g.nodes[id]; ok {
		n.Position = pos
		n.WeightScale = weight
		return nil
	}
	g.nodes[id] = &node{Point: Point{ID: id, Position: pos, WeightScale: weight}}
	return nil
}

func (g *Graph) HasPoint(id PointID) bool {
	_, ok := g.nodes[id]
	return ok
}

func (g *Graph) Point(id PointID) (Point, error) {
	n, err := g.lookup(id)
	if err != nil {
		return Point{}, err
	}
	return n.Point, nil
}

// PointIDs returns all point IDs ascending
func (g *Graph) PointIDs() []PointID {
	ids := make([]PointID, 0, len(g.nodes))
	for id := range g.nodes {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

func (g *Graph) PointCount() int { return len(g.nodes) }

// NextAvailableID returns one past the highest ID in use
func (g *Graph) NextAvailableID() PointID {
	var next PointID
	for id := range g.nodes {
		if id >= next {
			next = id + 1
		}
	}
	return next
}

func (g *Graph) SetPointPosition(id PointID, pos vmath.Vector2) error {
	n, err := g.lookup(id)
	if err != nil {
		return err
	}
	n.Position = pos
	return nil
}

func (g *Graph) SetPointWeightScale(id PointID, weight fixed.Num) error {
	n, err := g.lookup(id)
	if err != nil {
		return err
	}
	if weight < fixed.One {
		return fmt.Errorf("%w: point %d weight %v", ErrInvalidWeight, id, weight)
	}
	n.WeightScale = weight
	return nil
}

// SetPointDisabled excludes a point from searches without removing it
func (g *Graph) SetPointDisabled(id PointID, disabled bool) error {
	n, err := g.lookup(id)
	if err != nil {
		return err
	}
	n.Disabled = disabled
	return nil
}

// RemovePoint deletes a point and every connection touching it
func (g *Graph) RemovePoint(id PointID) error {
	n, err := g.lookup(id)
	if err != nil {
		return err
	}
	for _, o := range n.out {
		other := g.nodes[o]
		other.in = deleteSorted(other.in, id)
	}
	for _, i := range n.in {
		other := g.nodes[i]
		other.out = deleteSorted(other.out, id)
	}
	delete(g.nodes, id)
	return nil
}

// Clear removes all points
func (g *Graph) Clear() { clear(g.nodes) }

// --- Connections ---

func insertSorted(ids []PointID, id PointID) []PointID {
	i, found := slices.BinarySearch(ids, id)
	if found {
		return ids
	}
	return slices.Insert(ids, i, id)
}

func deleteSorted(ids []PointID, id PointID) []PointID {
	i, found := slices.BinarySearch(ids, id)
	if !found {
		return ids
	}
	return slices.Delete(ids, i, i+1)
}

func containsSorted(ids []PointID, id PointID) bool {
	_, found := slices.BinarySearch(ids, id)
	return found
}

// ConnectPoints adds a segment a -> b, and b -> a when bidirectional
func (g *Graph) ConnectPoints(a, b PointID, bidirectional bool) error {
	if a == b {
		return fmt.Errorf("%w: point %d to itself", ErrInvalidConnection, a)
	}
	na, err := g.lookup(a)
	if err != nil {
		return err
	}
	nb, err := g.lookup(b)
	if err != nil {
		return err
	}
	na.out = insertSorted(na.out, b)
	nb.in = insertSorted(nb.in, a)
	if bidirectional {
		nb.out = insertSorted(nb.out, a)
		na.in = insertSorted(na.in, b)
	}
	return nil
}

// DisconnectPoints removes a -> b, and b -> a when bidirectional
func (g *Graph) DisconnectPoints(a, b PointID, bidirectional bool) error {
	na, err := g.lookup(a)
	if err != nil {
		return err
	}
	nb, err := g.lookup(b)
	if err != nil {
		return err
	}
	na.out = deleteSorted(na.out, b)
	nb.in = deleteSorted(nb.in, a)
	if bidirectional {
		nb.out = deleteSorted(nb.out, a)
		na.in = deleteSorted(na.in, b)
	}
	return nil
}

// ArePointsConnected reports a segment between a and b. With bidirectional
// false only a -> b counts.
func (g *Graph) ArePointsConnected(a, b PointID, bidirectional bool) bool {
	na, ok := g.nodes[a]
	if !ok {
		return false
	}
	if containsSorted(na.out, b) {
		return true
	}
	return bidirectional && containsSorted(na.in, b)
}

// PointConnections returns the outgoing neighbours of id, ascending
func (g *Graph) PointConnections(id PointID) ([]PointID, error) {
	n, err := g.lookup(id)
	if err != nil {
		return nil, err
	}
	return slices.Clone(n.out), nil
}

// --- Lookups ---

// ClosestPoint returns the point nearest pos; ties resolve to the lowest ID
func (g *Graph) ClosestPoint(pos vmath.Vector2, includeDisabled bool) (PointID, error) {
	var best PointID
	var bestD fixed.Num
	found := false
	for _, id := range g.PointIDs() {
		n := g.nodes[id]
		if n.Disabled && !includeDisabled {
			continue
		}
		d := n.Position.DistanceSquaredTo(pos)
		if !found || d < bestD {
			best, bestD, found = id, d, true
		}
	}
	if !found {
		return 0, fmt.Errorf("%w: graph has no eligible points", ErrUnknownPoint)
	}
	return best, nil
}

// ClosestPositionInSegment returns the nearest position on any segment whose
// endpoints are both enabled. Ties keep the segment found first in ascending
// (from, to) order.
func (g *Graph) ClosestPositionInSegment(pos vmath.Vector2) (vmath.Vector2, bool) {
	var best vmath.Vector2
	var bestD fixed.Num
	found := false
	for _, id := range g.PointIDs() {
		n := g.nodes[id]
		if n.Disabled {
			continue
		}
		for _, o := range n.out {
			other := g.nodes[o]
			if other.Disabled {
				continue
			}
			p := collision.ClosestOnSegment(n.Position, other.Position, pos)
			d := p.DistanceSquaredTo(pos)
			if !found || d < bestD {
				best, bestD, found = p, d, true
			}
		}
	}
	return best, found
}

// --- Search ---

// FindIDPath returns the point IDs from -> to inclusive
func (g *Graph) FindIDPath(from, to PointID) ([]PointID, error) {
	start, err := g.lookup(from)
	if err != nil {
		return nil, err
	}
	goal, err := g.lookup(to)
	if err != nil {
		return nil, err
	}
	if from == to {
		return []PointID{from}, nil
	}

	prev, ok := g.solve(start, goal)
	if !ok {
		return nil, fmt.Errorf("%w: %d -> %d", ErrNoPath, from, to)
	}

	path := []PointID{to}
	for cur := to; cur != from; {
		cur = prev[cur]
		path = append(path, cur)
	}
	slices.Reverse(path)
	return path, nil
}

// FindPointPath returns the positions along FindIDPath
func (g *Graph) FindPointPath(from, to PointID) ([]vmath.Vector2, error) {
	ids, err := g.FindIDPath(from, to)
	if err != nil {
		return nil, err
	}
	out := make([]vmath.Vector2, len(ids))
	for i, id := range ids {
		out[i] = g.nodes[id].Position
	}
	return out, nil
}

// solve runs A* and returns the predecessor map on success
func (g *Graph) solve(start, goal *node) (map[PointID]PointID, bool) {
	if goal.Disabled {
		return nil, false
	}
	coster := g.Coster
	if coster == nil {
		coster = Euclidean{}
	}

	gScore := map[PointID]fixed.Num{start.ID: 0}
	prev := make(map[PointID]PointID)
	closed := make(map[PointID]bool)
	var seq uint64

	open := make(minHeap, 0, 16)
	open.push(heapEntry{id: start.ID, f: coster.Heuristic(start.Point, goal.Point), seq: seq})

	for len(open) > 0 {
		e := open.pop()
		if closed[e.id] || e.g > gScore[e.id] {
			continue
		}
		if e.id == goal.ID {
			return prev, true
		}
		closed[e.id] = true

		cur := g.nodes[e.id]
		for _, nid := range cur.out {
			nb := g.nodes[nid]
			if nb.Disabled || closed[nid] {
				continue
			}
			ng := e.g.Add(coster.Cost(cur.Point, nb.Point).Mul(nb.WeightScale))
			if old, seen := gScore[nid]; seen && ng >= old {
				continue
			}
			gScore[nid] = ng
			prev[nid] = e.id
			seq++
			open.push(heapEntry{
				id:  nid,
				f:   ng.Add(coster.Heuristic(nb.Point, goal.Point)),
				g:   ng,
				seq: seq,
			})
		}
	}
	return nil, false
}

// PathCost sums the entry costs along a path the way the search does
func (g *Graph) PathCost(path []PointID) (fixed.Num, error) {
	coster := g.Coster
	if coster == nil {
		coster = Euclidean{}
	}
	var total fixed.Num
	for i := 1; i < len(path); i++ {
		a, err := g.lookup(path[i-1])
		if err != nil {
			return 0, err
		}
		b, err := g.lookup(path[i])
		if err != nil {
			return 0, err
		}
		if !containsSorted(a.out, b.ID) {
			return 0, fmt.Errorf("%w: %d -> %d not connected", ErrInvalidConnection, a.ID, b.ID)
		}
		total = total.Add(coster.Cost(a.Point, b.Point).Mul(b.WeightScale))
	}
	return total, nil
}
