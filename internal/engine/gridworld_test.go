package engine

import (
	"strings"
	"testing"
)

func openLayout(size int) Layout {
	return Layout{
		Size:  size,
		Start: Position{Row: 0, Col: 0},
		Goal:  Position{Row: size - 1, Col: size - 1},
	}
}

func mustWorld(t testing.TB, layout Layout) *GridWorld {
	t.Helper()
	world, err := NewGridWorld(layout)
	if err != nil {
		t.Fatalf("NewGridWorld: %v", err)
	}
	return world
}

func TestIsBlockedMatchesWallsAndBounds(t *testing.T) {
	layout := DefaultLayout()
	world := mustWorld(t, layout)

	walls := make(map[Position]bool, len(layout.Walls))
	for _, w := range layout.Walls {
		walls[w] = true
	}

	for r := -1; r <= layout.Size; r++ {
		for c := -1; c <= layout.Size; c++ {
			p := Position{Row: r, Col: c}
			outside := r < 0 || c < 0 || r >= layout.Size || c >= layout.Size
			want := outside || walls[p]
			if got := world.IsBlocked(p); got != want {
				t.Errorf("IsBlocked(%v) = %v, want %v", p, got, want)
			}
		}
	}

	if got := len(world.Walls()); got != len(layout.Walls) {
		t.Errorf("Walls() returned %d cells, want %d", got, len(layout.Walls))
	}
}

func TestHazardPhases(t *testing.T) {
	world := DefaultGridWorld()
	laser := Position{Row: 2, Col: 3}

	tests := []struct {
		tick int
		want bool
	}{
		{0, true}, {1, true}, {2, false}, {3, false},
		{4, true}, {5, true}, {6, false}, {11, false}, {12, true},
	}
	for _, tt := range tests {
		if got := world.IsHazardActiveAt(laser, tt.tick); got != tt.want {
			t.Errorf("tick %d: active = %v, want %v", tt.tick, got, tt.want)
		}
	}
	if world.IsHazardActiveAt(Position{Row: 0, Col: 1}, 0) {
		t.Errorf("plain floor must never be an active hazard")
	}
}

func TestManhattanDistance(t *testing.T) {
	tests := []struct {
		a, b Position
		want int
	}{
		{Position{0, 0}, Position{7, 7}, 14},
		{Position{3, 5}, Position{3, 5}, 0},
		{Position{5, 1}, Position{2, 4}, 6},
	}
	for _, tt := range tests {
		if got := ManhattanDistance(tt.a, tt.b); got != tt.want {
			t.Errorf("ManhattanDistance(%v, %v) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
		if got := ManhattanDistance(tt.b, tt.a); got != tt.want {
			t.Errorf("distance is not symmetric for %v, %v", tt.a, tt.b)
		}
	}
}

func TestNewGridWorldRejectsBadLayouts(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Layout)
		want   string
	}{
		{"empty grid", func(l *Layout) { l.Size = 0 }, "size"},
		{"goal on wall", func(l *Layout) { l.Walls = append(l.Walls, l.Goal) }, "goal"},
		{"start on wall", func(l *Layout) { l.Walls = append(l.Walls, l.Start) }, "start"},
		{"start outside", func(l *Layout) { l.Start = Position{Row: -1, Col: 0} }, "start"},
		{"wall outside", func(l *Layout) { l.Walls = append(l.Walls, Position{Row: 9, Col: 0}) }, "wall"},
		{"hazard on wall", func(l *Layout) {
			l.Walls = append(l.Walls, Position{Row: 2, Col: 2})
			l.Hazards = append(l.Hazards, Hazard{Pos: Position{Row: 2, Col: 2}, ActivePhases: []int{0}})
		}, "hazard"},
		{"hazard phase", func(l *Layout) {
			l.Hazards = append(l.Hazards, Hazard{Pos: Position{Row: 2, Col: 2}, ActivePhases: []int{4}})
		}, "phase"},
		{"adversary on wall", func(l *Layout) {
			l.Walls = append(l.Walls, Position{Row: 3, Col: 3})
			l.AdversaryStarts = append(l.AdversaryStarts, Position{Row: 3, Col: 3})
		}, "adversary"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			layout := openLayout(8)
			tt.mutate(&layout)
			_, err := NewGridWorld(layout)
			if err == nil {
				t.Fatalf("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestGridWorldAccessorsReturnCopies(t *testing.T) {
	world := DefaultGridWorld()

	starts := world.AdversaryStarts()
	starts[0] = Position{Row: 9, Col: 9}
	if world.AdversaryStarts()[0] == starts[0] {
		t.Fatalf("AdversaryStarts leaked internal slice")
	}

	hazards := world.Hazards()
	hazards[0].ActivePhases[0] = 3
	if !world.IsHazardActiveAt(Position{Row: 2, Col: 3}, 0) {
		t.Fatalf("Hazards leaked internal phase slice")
	}
}
