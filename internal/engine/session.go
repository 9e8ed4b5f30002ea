package engine

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"drivex/internal/logger"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var (
	// ErrTaskActive rejects a command while training or evaluation runs.
	ErrTaskActive = errors.New("another task is active")
	// ErrUndertrained rejects greedy evaluation before enough episodes.
	ErrUndertrained = errors.New("not enough training episodes")
)

const (
	msgSystemReady   = "System ready. Choose a mode..."
	msgCoreCleared   = "Core cleared. Waiting..."
	msgTrainingDone  = "Network trained. Ready for testing."
	msgLaunchGreedy  = "Launching policy test..."
	msgLaunchRaw     = "Launching without learned protocols..."
	msgMissionOK     = "MISSION: SUCCESS."
	msgTimeExhausted = "TIME EXHAUSTED"
	msgDestroyed     = "AGENT DESTROYED"
	msgStopped       = "Run aborted."
)

// Snapshot is a read-only copy of everything a presentation layer needs.
type Snapshot struct {
	SessionID   string
	Status      Status
	Agent       Position
	Adversaries []Position
	Tick        int
	TableSize   int
	Epsilon     float64
	Episodes    int
	EpisodeCap  int
	Progress    float64
	Successes   int
	Confidence  *float64
	Raw         bool
	Outcome     Outcome
	Log         []string
}

// Session is the owned simulation context. At most one of training or
// evaluation is active at a time, and a Session is driven from a single
// goroutine: either by calling Advance directly or through Drive.
type Session struct {
	id         string
	cfg        Config
	world      *GridWorld
	rng        *rand.Rand
	env        *Environment
	learner    *QLearner
	trainer    *Trainer
	evaluator  *Evaluator
	log        *MessageLog
	fields     logrus.Fields
	status     Status
	state      EpisodeState
	confidence *float64
	raw        bool
	outcome    Outcome
}

func NewSession(cfg Config, world *GridWorld) *Session {
	cfg = normalizeConfig(cfg)
	if world == nil {
		world = DefaultGridWorld()
	}
	id := uuid.NewString()
	fields := logrus.Fields{"session": id}
	rng := rand.New(rand.NewSource(cfg.Seed))
	env := NewEnvironment(world, NewRandomWalk(world, rng))
	learner := NewQLearner(rng, cfg)
	s := &Session{
		id:      id,
		cfg:     cfg,
		world:   world,
		rng:     rng,
		env:     env,
		learner: learner,
		trainer: NewTrainer(cfg, env, learner, fields),
		log:     NewMessageLog(cfg.LogCapacity, fields),
		fields:  fields,
		status:  StatusIdle,
		state:   env.Reset(),
	}
	s.log.Add(msgSystemReady)
	return s
}

func (s *Session) ID() string { return s.id }

func (s *Session) Config() Config { return s.cfg }

func (s *Session) World() *GridWorld { return s.world }

func (s *Session) Status() Status { return s.status }

// Active reports whether training or evaluation currently owns the session.
func (s *Session) Active() bool {
	return s.status == StatusTraining || s.status == StatusRunning
}

// Learner gives read access to the value table for views.
func (s *Session) Learner() *QLearner { return s.learner }

func (s *Session) TrainingHistory() []BatchStats { return s.trainer.History() }

func (s *Session) StartTraining() error {
	if s.Active() {
		return fmt.Errorf("start training: %w (%s)", ErrTaskActive, s.status)
	}
	s.trainer.Start()
	s.status = s.trainer.Status()
	s.entry().Info("training started")
	if s.status == StatusReady {
		s.log.Add(msgTrainingDone)
	}
	return nil
}

func (s *Session) StartEvaluation(raw bool) error {
	if s.Active() {
		return fmt.Errorf("start evaluation: %w (%s)", ErrTaskActive, s.status)
	}
	if !raw && s.trainer.Episodes() < s.cfg.MinEvalEpisodes {
		return fmt.Errorf("start evaluation: %w (%d of %d)", ErrUndertrained, s.trainer.Episodes(), s.cfg.MinEvalEpisodes)
	}
	s.evaluator = NewEvaluator(s.env, s.learner, s.rng, raw, s.cfg.EvalMaxSteps)
	s.status = StatusRunning
	s.raw = raw
	s.state = s.evaluator.State()
	s.confidence = nil
	s.outcome = OutcomeNone
	if raw {
		s.log.Add(msgLaunchRaw)
	} else {
		s.log.Add(msgLaunchGreedy)
	}
	return nil
}

// Stop aborts a running evaluation. Training has no stop; it ends at its
// episode cap or on Reset.
func (s *Session) Stop() {
	if s.status != StatusRunning {
		return
	}
	s.evaluator = nil
	s.status = s.restingStatus()
	s.log.Add(msgStopped)
}

// Reset tears the context down to the state NewSession produced.
func (s *Session) Reset() {
	s.rng.Seed(s.cfg.Seed)
	s.learner.Reset()
	s.trainer.Reset()
	s.evaluator = nil
	s.status = StatusIdle
	s.state = s.env.Reset()
	s.confidence = nil
	s.raw = false
	s.outcome = OutcomeNone
	s.log.Replace(msgCoreCleared)
}

// Advance runs one scheduling quantum: a training batch or a single
// evaluation step. It returns true while a task is still active.
func (s *Session) Advance() bool {
	switch s.status {
	case StatusTraining:
		s.advanceTraining()
	case StatusRunning:
		s.advanceEvaluation()
	}
	return s.Active()
}

func (s *Session) advanceTraining() {
	stats := s.trainer.RunBatch()
	if stats.Successes > 0 {
		s.log.Add(fmt.Sprintf("Batch success: +%d", stats.Successes))
	}
	if s.trainer.Finished() {
		s.status = StatusReady
		s.entry().WithFields(logrus.Fields{
			"episodes":  s.trainer.Episodes(),
			"successes": s.trainer.Successes(),
			"states":    s.learner.TableSize(),
		}).Info("training finished")
		s.log.Add(msgTrainingDone)
	}
}

func (s *Session) advanceEvaluation() {
	step := s.evaluator.Step()
	s.state = s.evaluator.State()
	s.confidence = step.Confidence
	if !s.evaluator.Finished() {
		return
	}
	s.status = s.evaluator.Status()
	s.outcome = s.evaluator.Outcome()
	s.entry().WithFields(logrus.Fields{
		"raw":     s.raw,
		"outcome": s.outcome,
		"tick":    s.state.Tick,
	}).Info("evaluation finished")
	switch s.outcome {
	case OutcomeGoal:
		s.log.Add(msgMissionOK)
	case OutcomeTimeout:
		s.log.Add(msgTimeExhausted)
	default:
		s.log.Add(msgDestroyed)
	}
}

func (s *Session) restingStatus() Status {
	if s.trainer.Finished() {
		return StatusReady
	}
	return StatusIdle
}

// finalSnapshotWait bounds how long Drive waits for a consumer to take the
// snapshot that follows a cancellation.
var finalSnapshotWait = time.Second

// Drive advances the active task until it ends or ctx is cancelled,
// emitting a snapshot after every quantum. Evaluation steps are spaced by
// the configured step delay; training batches only yield. The session
// must not be touched by anyone else until the channel closes. After a
// cancellation the goroutine exits even if nobody reads the channel.
func (s *Session) Drive(ctx context.Context) <-chan Snapshot {
	out := make(chan Snapshot)
	go func() {
		defer close(out)
		for s.Active() {
			select {
			case <-ctx.Done():
				s.stopAndEmit(out)
				return
			default:
			}
			evaluating := s.status == StatusRunning
			s.Advance()
			select {
			case out <- s.Snapshot():
			case <-ctx.Done():
				s.stopAndEmit(out)
				return
			}
			if !evaluating || !s.Active() || s.cfg.StepDelayMs <= 0 {
				continue
			}
			select {
			case <-ctx.Done():
				s.stopAndEmit(out)
				return
			case <-time.After(s.cfg.StepDelay()):
			}
		}
	}()
	return out
}

func (s *Session) stopAndEmit(out chan<- Snapshot) {
	s.Stop()
	select {
	case out <- s.Snapshot():
	case <-time.After(finalSnapshotWait):
	}
}

func (s *Session) Snapshot() Snapshot {
	var confidence *float64
	if s.confidence != nil {
		c := *s.confidence
		confidence = &c
	}
	episodes := s.trainer.Episodes()
	return Snapshot{
		SessionID:   s.id,
		Status:      s.status,
		Agent:       s.state.Agent,
		Adversaries: clonePositions(s.state.Adversaries),
		Tick:        s.state.Tick,
		TableSize:   s.learner.TableSize(),
		Epsilon:     s.learner.Epsilon(),
		Episodes:    episodes,
		EpisodeCap:  s.cfg.Episodes,
		Progress:    float64(episodes) / float64(s.cfg.Episodes),
		Successes:   s.trainer.Successes(),
		Confidence:  confidence,
		Raw:         s.raw,
		Outcome:     s.outcome,
		Log:         s.log.Lines(),
	}
}

func (s *Session) entry() *logrus.Entry {
	return logger.Log.WithFields(s.fields).WithField("component", "session")
}
