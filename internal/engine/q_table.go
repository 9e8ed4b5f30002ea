package engine

// QTable is the sparse action-value table. Reads of unknown states see a
// zero row without creating it; only row() grows the table.
type QTable struct {
	data map[StateKey]*[numActions]float64
}

func NewQTable() *QTable {
	return &QTable{data: make(map[StateKey]*[numActions]float64)}
}

func (q *QTable) row(key StateKey) *[numActions]float64 {
	r, ok := q.data[key]
	if !ok {
		r = new([numActions]float64)
		q.data[key] = r
	}
	return r
}

// Row returns a copy of the values for key.
func (q *QTable) Row(key StateKey) [numActions]float64 {
	if r, ok := q.data[key]; ok {
		return *r
	}
	return [numActions]float64{}
}

func (q *QTable) Get(key StateKey, action Action) float64 {
	if r, ok := q.data[key]; ok {
		return r[action]
	}
	return 0
}

func (q *QTable) set(key StateKey, action Action, value float64) {
	q.row(key)[action] = value
}

func (q *QTable) Has(key StateKey) bool {
	_, ok := q.data[key]
	return ok
}

func (q *QTable) Len() int { return len(q.data) }

func (q *QTable) maxValue(key StateKey) float64 {
	r := q.Row(key)
	best := r[0]
	for a := 1; a < numActions; a++ {
		if r[a] > best {
			best = r[a]
		}
	}
	return best
}

// argmax returns the first action holding the row maximum.
func (q *QTable) argmax(key StateKey) (Action, float64) {
	r := q.Row(key)
	best := Action(0)
	for a := 1; a < numActions; a++ {
		if r[a] > r[best] {
			best = Action(a)
		}
	}
	return best, r[best]
}

func (q *QTable) clear() {
	q.data = make(map[StateKey]*[numActions]float64)
}

// StateValues folds the table onto the grid: each visited cell gets the best
// value seen across every key with the agent on that cell.
func (q *QTable) StateValues() map[Position]float64 {
	values := make(map[Position]float64)
	for key := range q.data {
		v := q.maxValue(key)
		if cur, ok := values[key.Agent]; !ok || v > cur {
			values[key.Agent] = v
		}
	}
	return values
}
