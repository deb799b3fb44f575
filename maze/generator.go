// Package maze generates seeded grid mazes used as pathfinding fixtures and
// scene obstacles. Output depends only on Config, never on wall-clock time.
package maze

import (
	"math/rand/v2"

	"github.com/lixenwraith/sgphysics/astar"
	"github.com/lixenwraith/sgphysics/fixed"
)

// Cell types
const (
	Wall    = true
	Passage = false
)

type Config struct {
	Width, Height int

	// Braiding: 0 (perfect maze, a tree) to 1 (no dead ends).
	// Higher values add cycles. Plaza and pillar constraints take precedence.
	Braiding fixed.Num

	Start *astar.Cell // Optional (nil = top-left room)
	End   *astar.Cell // Optional (nil = bottom-right room)
	Seed  uint64
}

type Result struct {
	Grid       [][]bool // [y][x], Wall or Passage
	Start, End astar.Cell

	// Solution is a BFS shortest path, start and end inclusive
	Solution []astar.Cell
}

// Generate carves a maze with a recursive backtracker, then optionally braids it
func Generate(cfg Config) Result {
	// Round down to odd sizes so rooms sit on odd coordinates
	rows := ensureOdd(cfg.Height)
	cols := ensureOdd(cfg.Width)

	grid := make([][]bool, rows)
	for i := range grid {
		grid[i] = make([]bool, cols)
		for j := range grid[i] {
			grid[i][j] = Wall
		}
	}

	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15))

	start := resolveCell(rows, cols, cfg.Start, 1, 1)
	end := resolveCell(rows, cols, cfg.End, cols-2, rows-2)

	carve(grid, start, rng)

	if cfg.Braiding > 0 {
		braid(grid, cfg.Braiding, rng)
	}

	forceOpen(grid, start)
	forceOpen(grid, end)

	return Result{
		Grid:     grid,
		Start:    start,
		End:      end,
		Solution: solveBFS(grid, start, end),
	}
}

// AStarGrid converts the maze into a pathfinding grid with walls blocked
func (r Result) AStarGrid() *astar.Grid {
	rows := len(r.Grid)
	if rows == 0 {
		return astar.NewGrid(0, 0)
	}
	cols := len(r.Grid[0])
	g := astar.NewGrid(cols, rows)
	for y := range r.Grid {
		for x, wall := range r.Grid[y] {
			if wall {
				// In bounds by construction
				_ = g.SetBlocked(astar.Cell{X: x, Y: y}, true)
			}
		}
	}
	return g
}

// --- Core Algorithms ---

// carve is an iterative recursive backtracker producing a spanning tree
func carve(grid [][]bool, start astar.Cell, rng *rand.Rand) {
	rows, cols := len(grid), len(grid[0])

	// Carving runs on odd rooms; snap an even start onto one
	room := astar.Cell{X: start.X | 1, Y: start.Y | 1}
	if room.X >= cols-1 || room.Y >= rows-1 {
		room = astar.Cell{X: 1, Y: 1}
	}

	stack := []astar.Cell{room}
	grid[room.Y][room.X] = Passage

	dirs := []astar.Cell{{X: 0, Y: -2}, {X: 0, Y: 2}, {X: -2, Y: 0}, {X: 2, Y: 0}}
	candidates := make([]astar.Cell, 0, 4)

	for len(stack) > 0 {
		curr := stack[len(stack)-1]
		candidates = candidates[:0]

		for _, d := range dirs {
			nx, ny := curr.X+d.X, curr.Y+d.Y
			// Leave a one-cell wall border
			if nx > 0 && nx < cols-1 && ny > 0 && ny < rows-1 && grid[ny][nx] == Wall {
				candidates = append(candidates, d)
			}
		}

		if len(candidates) == 0 {
			stack = stack[:len(stack)-1]
			continue
		}

		d := candidates[rng.IntN(len(candidates))]
		grid[curr.Y+d.Y/2][curr.X+d.X/2] = Passage
		next := astar.Cell{X: curr.X + d.X, Y: curr.Y + d.Y}
		grid[next.Y][next.X] = Passage
		stack = append(stack, next)
	}
}

// braid opens walls at dead ends with the given probability, adding cycles
func braid(grid [][]bool, probability fixed.Num, rng *rand.Rand) {
	rows, cols := len(grid), len(grid[0])
	ortho := []astar.Cell{{X: 0, Y: -1}, {X: 0, Y: 1}, {X: -1, Y: 0}, {X: 1, Y: 0}}

	for y := 1; y < rows-1; y += 2 {
		for x := 1; x < cols-1; x += 2 {
			if grid[y][x] == Wall {
				continue
			}

			exits := 0
			for _, d := range ortho {
				if grid[y+d.Y][x+d.X] == Passage {
					exits++
				}
			}
			// Draw in fixed point so the decision sequence is exact
			if exits != 1 || fixed.FromRaw(rng.Int64N(int64(fixed.One))) >= probability {
				continue
			}

			var candidates []astar.Cell
			for _, d := range ortho {
				nx, ny := x+2*d.X, y+2*d.Y
				wx, wy := x+d.X, y+d.Y
				if nx < 0 || nx >= cols || ny < 0 || ny >= rows {
					continue
				}
				if grid[ny][nx] == Passage && grid[wy][wx] == Wall && canSafelyRemoveWall(grid, wx, wy) {
					candidates = append(candidates, astar.Cell{X: wx, Y: wy})
				}
			}
			if len(candidates) > 0 {
				c := candidates[rng.IntN(len(candidates))]
				grid[c.Y][c.X] = Passage
			}
		}
	}
}

// canSafelyRemoveWall reports whether opening grid[y][x] avoids 2x2 open
// plazas and isolated wall pillars
func canSafelyRemoveWall(grid [][]bool, x, y int) bool {
	rows, cols := len(grid), len(grid[0])

	isP := func(tx, ty int) bool {
		if tx < 0 || tx >= cols || ty < 0 || ty >= rows {
			return false
		}
		return grid[ty][tx] == Passage
	}

	// --- No plazas ---
	for _, q := range [][2]int{{-1, -1}, {1, -1}, {-1, 1}, {1, 1}} {
		if isP(x+q[0], y) && isP(x, y+q[1]) && isP(x+q[0], y+q[1]) {
			return false
		}
	}

	// --- No pillars ---
	ortho := [][2]int{{0, -1}, {0, 1}, {-1, 0}, {1, 0}}
	for _, d := range ortho {
		nx, ny := x+d[0], y+d[1]
		if nx < 0 || nx >= cols || ny < 0 || ny >= rows || grid[ny][nx] == Passage {
			continue
		}
		walls := 0
		for _, d2 := range ortho {
			nnx, nny := nx+d2[0], ny+d2[1]
			// (x, y) is about to open
			if nnx == x && nny == y {
				continue
			}
			if nnx >= 0 && nnx < cols && nny >= 0 && nny < rows && grid[nny][nnx] == Wall {
				walls++
			}
		}
		if walls == 0 {
			return false
		}
	}
	return true
}

// --- Helpers ---

func ensureOdd(n int) int {
	if n < 3 {
		return 3
	}
	if n%2 == 0 {
		return n - 1
	}
	return n
}

func resolveCell(rows, cols int, c *astar.Cell, defX, defY int) astar.Cell {
	if c == nil {
		return astar.Cell{X: defX, Y: defY}
	}
	return astar.Cell{X: clampInt(c.X, 0, cols-1), Y: clampInt(c.Y, 0, rows-1)}
}

func clampInt(v, lo, hi int) int {
	return max(lo, min(v, hi))
}

// forceOpen opens p and, if it has no open neighbour, one adjacent interior cell
func forceOpen(grid [][]bool, p astar.Cell) {
	rows, cols := len(grid), len(grid[0])
	grid[p.Y][p.X] = Passage

	dirs := []astar.Cell{{X: 0, Y: -1}, {X: 0, Y: 1}, {X: -1, Y: 0}, {X: 1, Y: 0}}
	for _, d := range dirs {
		nx, ny := p.X+d.X, p.Y+d.Y
		if nx >= 0 && nx < cols && ny >= 0 && ny < rows && grid[ny][nx] == Passage {
			return
		}
	}
	for _, d := range dirs {
		nx, ny := p.X+d.X, p.Y+d.Y
		if nx > 0 && nx < cols-1 && ny > 0 && ny < rows-1 {
			grid[ny][nx] = Passage
			return
		}
	}
}

// solveBFS returns a shortest 4-connected path, or nil when unreachable
func solveBFS(grid [][]bool, start, end astar.Cell) []astar.Cell {
	rows, cols := len(grid), len(grid[0])
	if grid[start.Y][start.X] == Wall || grid[end.Y][end.X] == Wall {
		return nil
	}

	queue := []astar.Cell{start}
	cameFrom := map[astar.Cell]astar.Cell{}
	visited := map[astar.Cell]bool{start: true}
	dirs := []astar.Cell{{X: 0, Y: -1}, {X: 0, Y: 1}, {X: -1, Y: 0}, {X: 1, Y: 0}}

	for len(queue) > 0 {
		curr := queue[0]
		queue = queue[1:]

		if curr == end {
			path := []astar.Cell{curr}
			for curr != start {
				curr = cameFrom[curr]
				path = append(path, curr)
			}
			for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
				path[i], path[j] = path[j], path[i]
			}
			return path
		}

		for _, d := range dirs {
			next := astar.Cell{X: curr.X + d.X, Y: curr.Y + d.Y}
			if next.X < 0 || next.X >= cols || next.Y < 0 || next.Y >= rows {
				continue
			}
			if grid[next.Y][next.X] == Passage && !visited[next] {
				visited[next] = true
				cameFrom[next] = curr
				queue = append(queue, next)
			}
		}
	}
	return nil
}
