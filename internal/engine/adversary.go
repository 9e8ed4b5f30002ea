package engine

import "math/rand"

// AdversaryPolicy moves a single non-learning adversary by one tick.
type AdversaryPolicy interface {
	Step(pos Position) Position
}

const adversaryMoveProbability = 0.4

var adversaryMoves = [4]Position{{0, 1}, {0, -1}, {1, 0}, {-1, 0}}

type randomWalk struct {
	world *GridWorld
	rng   *rand.Rand
}

// NewRandomWalk returns the policy that idles most ticks and otherwise
// tries one random axis move, refusing moves into walls or off the grid.
func NewRandomWalk(world *GridWorld, rng *rand.Rand) AdversaryPolicy {
	return &randomWalk{world: world, rng: rng}
}

func (r *randomWalk) Step(pos Position) Position {
	if r.random() >= adversaryMoveProbability {
		return pos
	}
	move := adversaryMoves[r.intn(len(adversaryMoves))]
	next := pos.Offset(move.Row, move.Col)
	if r.world.IsBlocked(next) {
		return pos
	}
	return next
}

func (r *randomWalk) random() float64 {
	if r.rng != nil {
		return r.rng.Float64()
	}
	return rand.Float64()
}

func (r *randomWalk) intn(n int) int {
	if r.rng != nil {
		return r.rng.Intn(n)
	}
	return rand.Intn(n)
}

// stationary never moves. Useful for scripted scenarios.
type stationary struct{}

func Stationary() AdversaryPolicy { return stationary{} }

func (stationary) Step(pos Position) Position { return pos }
