package engine

import "fmt"

// noAdversary stands in for the nearest adversary on maps without any.
var noAdversary = Position{Row: -1, Col: -1}

// StateKey deliberately drops everything but the nearest adversary.
type StateKey struct {
	Agent   Position
	Nearest Position
	Phase   int
}

// NewStateKey picks the first adversary at minimum Manhattan distance.
func NewStateKey(agent Position, adversaries []Position, tick int) StateKey {
	nearest := noAdversary
	best := -1
	for _, adv := range adversaries {
		d := ManhattanDistance(adv, agent)
		if best < 0 || d < best {
			best = d
			nearest = adv
		}
	}
	return StateKey{Agent: agent, Nearest: nearest, Phase: tick % HazardCycle}
}

func (k StateKey) String() string {
	return fmt.Sprintf("%d,%d,%d,%d,%d", k.Agent.Row, k.Agent.Col, k.Nearest.Row, k.Nearest.Col, k.Phase)
}
