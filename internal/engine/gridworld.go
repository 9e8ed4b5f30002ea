package engine

import (
	"errors"
	"fmt"
	"sort"
)

// HazardCycle is the number of ticks after which every hazard repeats its pattern.
const HazardCycle = 4

type Position struct {
	Row int
	Col int
}

// Offset returns the position shifted by dr rows and dc columns.
func (p Position) Offset(dr, dc int) Position {
	return Position{Row: p.Row + dr, Col: p.Col + dc}
}

func (p Position) String() string {
	return fmt.Sprintf("%d,%d", p.Row, p.Col)
}

// Hazard is a cell that is lethal only on some phases of the hazard cycle.
type Hazard struct {
	Pos          Position
	ActivePhases []int
}

// ActiveOn reports whether the hazard fires on the given tick.
func (h Hazard) ActiveOn(tick int) bool {
	phase := tick % HazardCycle
	for _, p := range h.ActivePhases {
		if p == phase {
			return true
		}
	}
	return false
}

type tileKind int

const (
	tileEmpty tileKind = iota
	tileWall
	tileHazard
)

// Layout is the mutable description a GridWorld is built from.
type Layout struct {
	Size            int
	Start           Position
	Goal            Position
	Walls           []Position
	Hazards         []Hazard
	AdversaryStarts []Position
}

// GridWorld is the static map. Nothing mutates it after NewGridWorld returns.
type GridWorld struct {
	size            int
	start           Position
	goal            Position
	tiles           map[Position]tileKind
	hazards         []Hazard
	hazardIndex     map[Position]int
	adversaryStarts []Position
}

var errEmptyGrid = errors.New("grid size must be positive")

func NewGridWorld(layout Layout) (*GridWorld, error) {
	if layout.Size <= 0 {
		return nil, errEmptyGrid
	}
	g := &GridWorld{
		size:        layout.Size,
		start:       layout.Start,
		goal:        layout.Goal,
		tiles:       make(map[Position]tileKind, len(layout.Walls)+len(layout.Hazards)),
		hazardIndex: make(map[Position]int, len(layout.Hazards)),
	}
	for _, w := range layout.Walls {
		if !g.InBounds(w) {
			return nil, fmt.Errorf("wall %v out of bounds", w)
		}
		g.tiles[w] = tileWall
	}
	if !g.InBounds(g.start) || g.IsWall(g.start) {
		return nil, fmt.Errorf("start %v must be an open in-bounds cell", g.start)
	}
	if !g.InBounds(g.goal) || g.IsWall(g.goal) {
		return nil, fmt.Errorf("goal %v must be an open in-bounds cell", g.goal)
	}
	for _, h := range layout.Hazards {
		if !g.InBounds(h.Pos) || g.IsWall(h.Pos) {
			return nil, fmt.Errorf("hazard %v must be an open in-bounds cell", h.Pos)
		}
		if _, dup := g.hazardIndex[h.Pos]; dup {
			return nil, fmt.Errorf("duplicate hazard at %v", h.Pos)
		}
		phases := make([]int, 0, len(h.ActivePhases))
		for _, p := range h.ActivePhases {
			if p < 0 || p >= HazardCycle {
				return nil, fmt.Errorf("hazard %v phase %d outside [0,%d)", h.Pos, p, HazardCycle)
			}
			phases = append(phases, p)
		}
		g.hazardIndex[h.Pos] = len(g.hazards)
		g.hazards = append(g.hazards, Hazard{Pos: h.Pos, ActivePhases: phases})
		g.tiles[h.Pos] = tileHazard
	}
	for _, a := range layout.AdversaryStarts {
		if !g.InBounds(a) || g.IsWall(a) {
			return nil, fmt.Errorf("adversary start %v must be an open in-bounds cell", a)
		}
	}
	g.adversaryStarts = clonePositions(layout.AdversaryStarts)
	return g, nil
}

// DefaultLayout is the eight by eight map the demo ships with.
func DefaultLayout() Layout {
	return Layout{
		Size:  8,
		Start: Position{Row: 0, Col: 0},
		Goal:  Position{Row: 7, Col: 7},
		Walls: []Position{
			{0, 3}, {1, 1}, {1, 5}, {1, 6}, {2, 1}, {2, 6},
			{3, 3}, {4, 1}, {4, 2}, {4, 6}, {5, 5},
			{6, 1}, {6, 3}, {7, 5},
		},
		Hazards: []Hazard{
			{Pos: Position{Row: 2, Col: 3}, ActivePhases: []int{0, 1}},
			{Pos: Position{Row: 5, Col: 2}, ActivePhases: []int{2, 3}},
		},
		AdversaryStarts: []Position{{3, 5}, {5, 3}},
	}
}

func DefaultGridWorld() *GridWorld {
	g, err := NewGridWorld(DefaultLayout())
	if err != nil {
		panic("default layout invalid: " + err.Error())
	}
	return g
}

func (g *GridWorld) Size() int { return g.size }

func (g *GridWorld) Start() Position { return g.start }

func (g *GridWorld) Goal() Position { return g.goal }

func (g *GridWorld) AdversaryStarts() []Position {
	return clonePositions(g.adversaryStarts)
}

func (g *GridWorld) InBounds(p Position) bool {
	return p.Row >= 0 && p.Row < g.size && p.Col >= 0 && p.Col < g.size
}

func (g *GridWorld) IsWall(p Position) bool {
	return g.tiles[p] == tileWall
}

// IsBlocked is true for walls and for anything off the grid.
func (g *GridWorld) IsBlocked(p Position) bool {
	return !g.InBounds(p) || g.IsWall(p)
}

// HazardAt returns the hazard occupying p, if any.
func (g *GridWorld) HazardAt(p Position) (Hazard, bool) {
	idx, ok := g.hazardIndex[p]
	if !ok {
		return Hazard{}, false
	}
	return g.hazards[idx], true
}

func (g *GridWorld) IsHazardActiveAt(p Position, tick int) bool {
	h, ok := g.HazardAt(p)
	return ok && h.ActiveOn(tick)
}

// Walls lists wall cells in row-major order.
func (g *GridWorld) Walls() []Position {
	walls := make([]Position, 0, len(g.tiles))
	for pos, kind := range g.tiles {
		if kind == tileWall {
			walls = append(walls, pos)
		}
	}
	sort.Slice(walls, func(i, j int) bool {
		if walls[i].Row != walls[j].Row {
			return walls[i].Row < walls[j].Row
		}
		return walls[i].Col < walls[j].Col
	})
	return walls
}

func (g *GridWorld) Hazards() []Hazard {
	out := make([]Hazard, len(g.hazards))
	for i, h := range g.hazards {
		out[i] = Hazard{Pos: h.Pos, ActivePhases: append([]int(nil), h.ActivePhases...)}
	}
	return out
}

func ManhattanDistance(a, b Position) int {
	return absInt(a.Row-b.Row) + absInt(a.Col-b.Col)
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func clonePositions(positions []Position) []Position {
	if len(positions) == 0 {
		return nil
	}
	copied := make([]Position, len(positions))
	copy(copied, positions)
	return copied
}
