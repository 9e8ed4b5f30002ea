package engine

import (
	"drivex/internal/logger"

	"github.com/sirupsen/logrus"
)

type Status string

const (
	StatusIdle     Status = "IDLE"
	StatusTraining Status = "TRAINING"
	StatusReady    Status = "READY"
	StatusRunning  Status = "RUNNING"
	StatusSuccess  Status = "SUCCESS"
	StatusFailed   Status = "FAILED"
)

// EpisodeResult summarises one training episode.
type EpisodeResult struct {
	Steps       int
	FinalReward float64
	TotalReward float64
	Outcome     Outcome
}

// Success is true only when the episode ended on the goal reward.
func (r EpisodeResult) Success() bool {
	return r.Outcome != OutcomeTimeout && r.FinalReward > successThreshold
}

// BatchStats is what a training batch reports back to its scheduler.
type BatchStats struct {
	Batch     int     `json:"batch"`
	Episodes  int     `json:"episodes"`
	Completed int     `json:"completed"`
	Successes int     `json:"successes"`
	Hazards   int     `json:"hazards"`
	Caught    int     `json:"caught"`
	Timeouts  int     `json:"timeouts"`
	AvgSteps  float64 `json:"avgSteps"`
	Epsilon   float64 `json:"epsilon"`
	TableSize int     `json:"tableSize"`
}

// SuccessRate is the share of episodes in the batch that reached the goal.
func (b BatchStats) SuccessRate() float64 {
	if b.Episodes == 0 {
		return 0
	}
	return float64(b.Successes) / float64(b.Episodes)
}

// Trainer runs a fixed budget of episodes in bounded batches. The caller
// decides when the next batch runs.
type Trainer struct {
	cfg       Config
	env       *Environment
	learner   *QLearner
	fields    logrus.Fields
	status    Status
	episodes  int
	successes int
	history   []BatchStats
}

func NewTrainer(cfg Config, env *Environment, learner *QLearner, fields logrus.Fields) *Trainer {
	return &Trainer{
		cfg:     normalizeConfig(cfg),
		env:     env,
		learner: learner,
		fields:  fields,
		status:  StatusIdle,
	}
}

func (t *Trainer) Start() {
	if t.Finished() {
		t.status = StatusReady
		return
	}
	t.status = StatusTraining
}

func (t *Trainer) Status() Status { return t.status }

func (t *Trainer) Finished() bool { return t.episodes >= t.cfg.Episodes }

func (t *Trainer) Episodes() int { return t.episodes }

func (t *Trainer) Successes() int { return t.successes }

func (t *Trainer) History() []BatchStats {
	out := make([]BatchStats, len(t.history))
	copy(out, t.history)
	return out
}

// RunBatch runs at most BatchSize episodes, stopping exactly at the cap.
func (t *Trainer) RunBatch() BatchStats {
	stats := BatchStats{Batch: len(t.history) + 1}
	if t.status != StatusTraining {
		return stats
	}
	n := t.cfg.BatchSize
	if remaining := t.cfg.Episodes - t.episodes; remaining < n {
		n = remaining
	}
	totalSteps := 0
	for i := 0; i < n; i++ {
		result := t.runEpisode()
		t.learner.DecayExploration()
		t.episodes++
		stats.Episodes++
		totalSteps += result.Steps
		switch result.Outcome {
		case OutcomeHazard:
			stats.Hazards++
		case OutcomeCaught:
			stats.Caught++
		case OutcomeTimeout:
			stats.Timeouts++
		}
		if result.Success() {
			stats.Successes++
		}
	}
	if stats.Episodes > 0 {
		stats.AvgSteps = float64(totalSteps) / float64(stats.Episodes)
	}
	t.successes += stats.Successes
	stats.Completed = t.episodes
	stats.Epsilon = t.learner.Epsilon()
	stats.TableSize = t.learner.TableSize()
	t.history = append(t.history, stats)
	if t.Finished() {
		t.status = StatusReady
	}

	logger.Log.WithFields(t.fields).WithFields(logrus.Fields{
		"component": "trainer",
		"batch":     stats.Batch,
		"completed": stats.Completed,
		"successes": stats.Successes,
		"epsilon":   stats.Epsilon,
		"states":    stats.TableSize,
	}).Debug("training batch complete")
	return stats
}

func (t *Trainer) runEpisode() EpisodeResult {
	state := t.env.Reset()
	var result EpisodeResult
	for !state.Done && state.Tick < t.cfg.MaxSteps {
		key := t.env.Key(state)
		action := t.learner.SelectAction(key, true)
		res := t.env.Step(state, action)
		t.learner.Update(key, action, res.Reward, t.env.Key(res.Next))
		state = res.Next
		result.Steps++
		result.FinalReward = res.Reward
		result.TotalReward += res.Reward
	}
	result.Outcome = state.Outcome
	if !state.Done {
		result.Outcome = OutcomeTimeout
	}
	return result
}

// Reset forgets progress. The learner is reset separately by its owner.
func (t *Trainer) Reset() {
	t.status = StatusIdle
	t.episodes = 0
	t.successes = 0
	t.history = nil
}
