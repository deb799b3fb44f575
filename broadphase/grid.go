// Package broadphase is a uniform hashed grid over bounding rects.
// Queries return conservative candidate sets ordered by ID so narrow-phase
// iteration is independent of map layout.
package broadphase

import (
	"cmp"
	"math"
	"slices"

	"github.com/lixenwraith/sgphysics/fixed"
	"github.com/lixenwraith/sgphysics/vmath"
)

// DefaultCellSize matches the usual physics/2d/cell_size project setting
var DefaultCellSize = fixed.FromInt(128)

// MaxCellsPerEntry bounds how many cells one entry may occupy; larger
// entries live on the oversize list and are scanned by every query
const MaxCellsPerEntry = 64

// ID identifies an entry; the server uses object IDs directly
type ID uint64

// Pair is a candidate pair with A < B
type Pair struct {
	A, B ID
}

type cellKey struct {
	x, y int64
}

// cellRange is the inclusive cell span of a rect
type cellRange struct {
	minX, minY, maxX, maxY int64
}

func (c cellRange) count() int64 {
	w, h := c.maxX-c.minX+1, c.maxY-c.minY+1
	if w > 1<<24 || h > 1<<24 {
		return math.MaxInt64
	}
	return w * h
}

type entry struct {
	rect     vmath.Rect2
	layer    uint32
	mask     uint32
	span     cellRange
	oversize bool
}

// Grid is a sparse grid: only occupied cells are allocated.
// Not safe for concurrent use.
type Grid struct {
	CellSize fixed.Num

	entries  map[ID]*entry
	cells    map[cellKey][]ID
	oversize []ID
}

// NewGrid creates an empty grid; a non-positive cellSize selects DefaultCellSize
func NewGrid(cellSize fixed.Num) *Grid {
	if cellSize <= 0 {
		cellSize = DefaultCellSize
	}
	return &Grid{
		CellSize: cellSize,
		entries:  make(map[ID]*entry),
		cells:    make(map[cellKey][]ID),
	}
}

func (g *Grid) spanOf(r vmath.Rect2) cellRange {
	minX, minY := vmath.CellOf(r.Position, g.CellSize)
	maxX, maxY := vmath.CellOf(r.End(), g.CellSize)
	return cellRange{minX, minY, maxX, maxY}
}

// Insert adds or replaces an entry
func (g *Grid) Insert(id ID, rect vmath.Rect2, layer, mask uint32) {
	if _, ok := g.entries[id]; ok {
		g.Remove(id)
	}
	e := &entry{rect: rect, layer: layer, mask: mask}
	g.entries[id] = e
	g.place(id, e)
}

func (g *Grid) place(id ID, e *entry) {
	e.span = g.spanOf(e.rect)
	if e.span.count() > MaxCellsPerEntry {
		e.oversize = true
		g.oversize = append(g.oversize, id)
		return
	}
	e.oversize = false
	for y := e.span.minY; y <= e.span.maxY; y++ {
		for x := e.span.minX; x <= e.span.maxX; x++ {
			k := cellKey{x, y}
			g.cells[k] = append(g.cells[k], id)
		}
	}
}

func (g *Grid) unplace(id ID, e *entry) {
	if e.oversize {
		g.oversize = removeID(g.oversize, id)
		return
	}
	for y := e.span.minY; y <= e.span.maxY; y++ {
		for x := e.span.minX; x <= e.span.maxX; x++ {
			k := cellKey{x, y}
			ids := removeID(g.cells[k], id)
			if len(ids) == 0 {
				delete(g.cells, k)
			} else {
				g.cells[k] = ids
			}
		}
	}
}

// removeID swap-removes id from ids
func removeID(ids []ID, id ID) []ID {
	for i, v := range ids {
		if v == id {
			last := len(ids) - 1
			ids[i] = ids[last]
			return ids[:last]
		}
	}
	return ids
}

// Remove deletes an entry; unknown IDs are ignored
func (g *Grid) Remove(id ID) {
	e, ok := g.entries[id]
	if !ok {
		return
	}
	g.unplace(id, e)
	delete(g.entries, id)
}

// Update moves an entry to a new rect. Cells are only touched when the
// covered span changes. Returns false for unknown IDs.
func (g *Grid) Update(id ID, rect vmath.Rect2) bool {
	e, ok := g.entries[id]
	if !ok {
		return false
	}
	if g.spanOf(rect) == e.span && !e.oversize {
		e.rect = rect
		return true
	}
	g.unplace(id, e)
	e.rect = rect
	g.place(id, e)
	return true
}

// SetFilter changes the layer and mask of an entry
func (g *Grid) SetFilter(id ID, layer, mask uint32) {
	if e, ok := g.entries[id]; ok {
		e.layer, e.mask = layer, mask
	}
}

// Rect returns the stored rect of an entry
func (g *Grid) Rect(id ID) (vmath.Rect2, bool) {
	e, ok := g.entries[id]
	if !ok {
		return vmath.Rect2{}, false
	}
	return e.rect, true
}

// Len is the number of entries
func (g *Grid) Len() int { return len(g.entries) }

// CellCount is the number of occupied cells
func (g *Grid) CellCount() int { return len(g.cells) }

// OversizeCount is the number of entries on the oversize list
func (g *Grid) OversizeCount() int { return len(g.oversize) }

// Clear removes all entries
func (g *Grid) Clear() {
	clear(g.entries)
	clear(g.cells)
	g.oversize = g.oversize[:0]
}

// Query returns IDs whose rect overlaps r (closed edges) and whose layer
// matches mask, ascending
func (g *Grid) Query(r vmath.Rect2, mask uint32) []ID {
	seen := make(map[ID]struct{})
	var out []ID
	consider := func(id ID) {
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		e := g.entries[id]
		if e.layer&mask != 0 && e.rect.Intersects(r) {
			out = append(out, id)
		}
	}

	span := g.spanOf(r)
	if span.count() > int64(len(g.cells)) {
		// Sparse world relative to query area: scan occupied cells instead
		for k, ids := range g.cells {
			if k.x >= span.minX && k.x <= span.maxX && k.y >= span.minY && k.y <= span.maxY {
				for _, id := range ids {
					consider(id)
				}
			}
		}
	} else {
		for y := span.minY; y <= span.maxY; y++ {
			for x := span.minX; x <= span.maxX; x++ {
				for _, id := range g.cells[cellKey{x, y}] {
					consider(id)
				}
			}
		}
	}
	for _, id := range g.oversize {
		consider(id)
	}
	slices.Sort(out)
	return out
}

// QuerySegment returns IDs whose cells are crossed by the segment from -> to
// and whose layer matches mask, ascending. Rect overlap with the segment's
// bounds is checked; exact intersection is left to the narrow phase.
func (g *Grid) QuerySegment(from, to vmath.Vector2, mask uint32) []ID {
	bounds := vmath.RectFromPoints(from, to)
	seen := make(map[ID]struct{})
	var out []ID
	consider := func(id ID) {
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		e := g.entries[id]
		if e.layer&mask != 0 && e.rect.Intersects(bounds) {
			out = append(out, id)
		}
	}

	tr := vmath.NewGridTraverser(from, to, g.CellSize)
	for tr.Next() {
		x, y := tr.Pos()
		for _, id := range g.cells[cellKey{x, y}] {
			consider(id)
		}
	}
	for _, id := range g.oversize {
		consider(id)
	}
	slices.Sort(out)
	return out
}

// Pairs returns every pair of entries whose rects overlap and where at least
// one side's mask accepts the other's layer. Sorted by (A, B).
func (g *Grid) Pairs() []Pair {
	seen := make(map[Pair]struct{})
	var out []Pair
	consider := func(a, b ID) {
		if a == b {
			return
		}
		if a > b {
			a, b = b, a
		}
		p := Pair{a, b}
		if _, ok := seen[p]; ok {
			return
		}
		seen[p] = struct{}{}
		ea, eb := g.entries[a], g.entries[b]
		if ea.layer&eb.mask == 0 && eb.layer&ea.mask == 0 {
			return
		}
		if ea.rect.Intersects(eb.rect) {
			out = append(out, p)
		}
	}

	for _, ids := range g.cells {
		for i := 0; i < len(ids); i++ {
			for j := i + 1; j < len(ids); j++ {
				consider(ids[i], ids[j])
			}
		}
	}
	for _, big := range g.oversize {
		for id := range g.entries {
			consider(big, id)
		}
	}

	slices.SortFunc(out, func(x, y Pair) int {
		return cmp.Or(cmp.Compare(x.A, y.A), cmp.Compare(x.B, y.B))
	})
	return out
}
