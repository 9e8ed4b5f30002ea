package engine

import "math/rand"

// EvalStep is one observable tick of an evaluation run.
type EvalStep struct {
	Action     Action
	Confidence *float64
	Result     StepResult
	Status     Status
}

// Evaluator plays a single episode for observation. It only reads the
// learner's table, so stopping it at any point leaves learning untouched.
type Evaluator struct {
	env      *Environment
	learner  *QLearner
	rng      *rand.Rand
	raw      bool
	maxSteps int
	state    EpisodeState
	status   Status
	outcome  Outcome
}

func NewEvaluator(env *Environment, learner *QLearner, rng *rand.Rand, raw bool, maxSteps int) *Evaluator {
	if maxSteps <= 0 {
		maxSteps = DefaultEvalMaxSteps
	}
	return &Evaluator{
		env:      env,
		learner:  learner,
		rng:      rng,
		raw:      raw,
		maxSteps: maxSteps,
		state:    env.Reset(),
		status:   StatusRunning,
	}
}

func (e *Evaluator) Raw() bool { return e.raw }

func (e *Evaluator) State() EpisodeState { return e.state.clone() }

func (e *Evaluator) Status() Status { return e.status }

func (e *Evaluator) Outcome() Outcome { return e.outcome }

func (e *Evaluator) Finished() bool { return e.status != StatusRunning }

// Step advances exactly one environment transition. Pacing is the caller's
// business.
func (e *Evaluator) Step() EvalStep {
	if e.Finished() {
		return EvalStep{Status: e.status}
	}
	var (
		action     Action
		confidence *float64
	)
	if e.raw {
		action = Action(e.rng.Intn(numActions))
	} else {
		key := e.env.Key(e.state)
		action = e.learner.SelectAction(key, false)
		c := e.learner.Confidence(key)
		confidence = &c
	}

	res := e.env.Step(e.state, action)
	e.state = res.Next

	switch {
	case res.Done && res.Outcome == OutcomeGoal:
		e.status = StatusSuccess
		e.outcome = res.Outcome
	case res.Done:
		e.status = StatusFailed
		e.outcome = res.Outcome
	case e.state.Tick > e.maxSteps:
		e.status = StatusFailed
		e.outcome = OutcomeTimeout
		e.state.Done = true
		e.state.Outcome = OutcomeTimeout
	}

	return EvalStep{Action: action, Confidence: confidence, Result: res, Status: e.status}
}
