package engine

import "math/rand"

// QLearner owns the value table and the exploration schedule.
type QLearner struct {
	rng            *rand.Rand
	table          *QTable
	alpha          float64
	gamma          float64
	epsilon        float64
	initialEpsilon float64
	epsilonMin     float64
	epsilonDecay   float64
}

func NewQLearner(rng *rand.Rand, cfg Config) *QLearner {
	return &QLearner{
		rng:            rng,
		table:          NewQTable(),
		alpha:          cfg.Alpha,
		gamma:          cfg.Gamma,
		epsilon:        cfg.Epsilon,
		initialEpsilon: cfg.Epsilon,
		epsilonMin:     cfg.EpsilonMin,
		epsilonDecay:   cfg.EpsilonDecay,
	}
}

// SelectAction is epsilon-greedy when explore is set and purely greedy
// otherwise. Ties go to the lowest action index.
func (l *QLearner) SelectAction(key StateKey, explore bool) Action {
	if explore && l.rng.Float64() < l.epsilon {
		return Action(l.rng.Intn(numActions))
	}
	action, _ := l.table.argmax(key)
	return action
}

// Confidence is the value of the greedy choice for key.
func (l *QLearner) Confidence(key StateKey) float64 {
	_, value := l.table.argmax(key)
	return value
}

func (l *QLearner) Update(key StateKey, action Action, reward float64, next StateKey) {
	l.table.row(key)
	nextMax := l.table.maxValue(next)
	l.table.row(next)
	current := l.table.Get(key, action)
	target := reward + l.gamma*nextMax
	l.table.set(key, action, current+l.alpha*(target-current))
}

func (l *QLearner) DecayExploration() {
	l.epsilon = maxFloat(l.epsilonMin, l.epsilon*l.epsilonDecay)
}

func (l *QLearner) Reset() {
	l.table.clear()
	l.epsilon = l.initialEpsilon
}

func (l *QLearner) Epsilon() float64 { return l.epsilon }

func (l *QLearner) TableSize() int { return l.table.Len() }

// Table exposes the value table for read-only views.
func (l *QLearner) Table() *QTable { return l.table }
