package engine

// Action indexes the four agent moves and the columns of a QTable row.
type Action int

const (
	ActionUp Action = iota
	ActionDown
	ActionLeft
	ActionRight
)

const numActions = 4

func (a Action) String() string {
	switch a {
	case ActionUp:
		return "up"
	case ActionDown:
		return "down"
	case ActionLeft:
		return "left"
	case ActionRight:
		return "right"
	}
	return "unknown"
}

// Outcome says how an episode ended.
type Outcome string

const (
	OutcomeNone    Outcome = ""
	OutcomeGoal    Outcome = "goal"
	OutcomeHazard  Outcome = "hazard"
	OutcomeCaught  Outcome = "caught"
	OutcomeTimeout Outcome = "timeout"
)

// Failed is true for every terminal outcome except reaching the goal.
func (o Outcome) Failed() bool {
	return o == OutcomeHazard || o == OutcomeCaught || o == OutcomeTimeout
}

const (
	progressRewardScale = 1.5
	hazardReward        = -50.0
	caughtReward        = -100.0
	goalReward          = 500.0
	// successThreshold separates the goal reward from every other reward.
	successThreshold = 100.0
)

// EpisodeState is the mutable part of an episode. Environment.Step never
// modifies the state it is given.
type EpisodeState struct {
	Agent       Position
	Adversaries []Position
	Tick        int
	Done        bool
	Outcome     Outcome
}

func (s EpisodeState) clone() EpisodeState {
	s.Adversaries = clonePositions(s.Adversaries)
	return s
}

type StepResult struct {
	Next    EpisodeState
	Reward  float64
	Done    bool
	Outcome Outcome
}

type Environment struct {
	world  *GridWorld
	policy AdversaryPolicy
}

func NewEnvironment(world *GridWorld, policy AdversaryPolicy) *Environment {
	if policy == nil {
		policy = Stationary()
	}
	return &Environment{world: world, policy: policy}
}

func (e *Environment) World() *GridWorld { return e.world }

func (e *Environment) Reset() EpisodeState {
	return EpisodeState{
		Agent:       e.world.Start(),
		Adversaries: e.world.AdversaryStarts(),
	}
}

// nextPosition clamps the move at the grid edge and cancels it on walls.
func (e *Environment) nextPosition(pos Position, action Action) Position {
	next := pos
	switch action {
	case ActionUp:
		if pos.Row > 0 {
			next.Row--
		}
	case ActionDown:
		if pos.Row < e.world.Size()-1 {
			next.Row++
		}
	case ActionLeft:
		if pos.Col > 0 {
			next.Col--
		}
	case ActionRight:
		if pos.Col < e.world.Size()-1 {
			next.Col++
		}
	}
	if e.world.IsWall(next) {
		return pos
	}
	return next
}

func (e *Environment) Step(state EpisodeState, action Action) StepResult {
	agent := e.nextPosition(state.Agent, action)

	adversaries := make([]Position, len(state.Adversaries))
	for i, pos := range state.Adversaries {
		adversaries[i] = e.policy.Step(pos)
	}
	tick := state.Tick + 1

	goal := e.world.Goal()
	oldDist := ManhattanDistance(state.Agent, goal)
	newDist := ManhattanDistance(agent, goal)
	reward := float64(oldDist-newDist) * progressRewardScale

	// Later checks override earlier ones when several coincide.
	outcome := OutcomeNone
	if e.world.IsHazardActiveAt(agent, tick) {
		reward = hazardReward
		outcome = OutcomeHazard
	}
	for _, adv := range adversaries {
		if adv == agent {
			reward = caughtReward
			outcome = OutcomeCaught
			break
		}
	}
	if agent == goal {
		reward = goalReward
		outcome = OutcomeGoal
	}
	done := outcome != OutcomeNone

	return StepResult{
		Next: EpisodeState{
			Agent:       agent,
			Adversaries: adversaries,
			Tick:        tick,
			Done:        done,
			Outcome:     outcome,
		},
		Reward:  reward,
		Done:    done,
		Outcome: outcome,
	}
}

// Key reduces a state to the value-table identity.
func (e *Environment) Key(state EpisodeState) StateKey {
	return NewStateKey(state.Agent, state.Adversaries, state.Tick)
}
