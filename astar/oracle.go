package astar

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/graph/path"
	"gonum.org/v1/gonum/graph/simple"
)

// OracleCost recomputes the least from -> to cost with gonum's Dijkstra over
// a float copy of the graph. It is an independent cross-check for FindIDPath
// and never feeds simulation state.
func OracleCost(g *Graph, from, to PointID) (float64, error) {
	if _, err := g.lookup(from); err != nil {
		return 0, err
	}
	if _, err := g.lookup(to); err != nil {
		return 0, err
	}
	coster := g.Coster
	if coster == nil {
		coster = Euclidean{}
	}

	wg := simple.NewWeightedDirectedGraph(0, math.Inf(1))
	wg.AddNode(simple.Node(from))
	for _, id := range g.PointIDs() {
		n := g.nodes[id]
		if n.Disabled && id != from {
			continue
		}
		for _, o := range n.out {
			nb := g.nodes[o]
			if nb.Disabled {
				continue
			}
			w := coster.Cost(n.Point, nb.Point).Mul(nb.WeightScale)
			wg.SetWeightedEdge(wg.NewWeightedEdge(simple.Node(id), simple.Node(o), w.Float64()))
		}
	}
	if wg.Node(int64(to)) == nil {
		return 0, fmt.Errorf("%w: %d -> %d", ErrNoPath, from, to)
	}

	shortest := path.DijkstraFrom(simple.Node(from), wg)
	w := shortest.WeightTo(int64(to))
	if math.IsInf(w, 1) {
		return 0, fmt.Errorf("%w: %d -> %d", ErrNoPath, from, to)
	}
	return w, nil
}

// Verify checks that path is a connected route from its first to its last
// point whose fixed-point cost matches the oracle within tolerance
func Verify(g *Graph, route []PointID, tolerance float64) error {
	if len(route) == 0 {
		return fmt.Errorf("%w: empty path", ErrNoPath)
	}
	cost, err := g.PathCost(route)
	if err != nil {
		return err
	}
	want, err := OracleCost(g, route[0], route[len(route)-1])
	if err != nil {
		return err
	}
	if diff := math.Abs(cost.Float64() - want); diff > tolerance {
		return fmt.Errorf("astar: path cost %v differs from oracle %.6f by %.6f", cost, want, diff)
	}
	return nil
}
