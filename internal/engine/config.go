package engine

import (
	"errors"
	"fmt"
	"time"
)

const (
	DefaultEpisodes        = 8000
	DefaultBatchSize       = 300
	DefaultMaxSteps        = 80
	DefaultEvalMaxSteps    = 120
	DefaultMinEvalEpisodes = 100
	DefaultStepDelayMs     = 150
	DefaultLogCapacity     = 4
)

// Config holds the training parameters plus the pacing and gating knobs of
// a session. It is fixed for the life of a Session.
type Config struct {
	Episodes        int     `yaml:"episodes"`
	BatchSize       int     `yaml:"batch_size"`
	MaxSteps        int     `yaml:"max_steps"`
	EvalMaxSteps    int     `yaml:"eval_max_steps"`
	MinEvalEpisodes int     `yaml:"min_eval_episodes"`
	Seed            int64   `yaml:"seed"`
	Alpha           float64 `yaml:"alpha"`
	Gamma           float64 `yaml:"gamma"`
	Epsilon         float64 `yaml:"epsilon"`
	EpsilonMin      float64 `yaml:"epsilon_min"`
	EpsilonDecay    float64 `yaml:"epsilon_decay"`
	StepDelayMs     int     `yaml:"step_delay_ms"`
	LogCapacity     int     `yaml:"log_capacity"`
}

func DefaultConfig() Config {
	return Config{
		Episodes:        DefaultEpisodes,
		BatchSize:       DefaultBatchSize,
		MaxSteps:        DefaultMaxSteps,
		EvalMaxSteps:    DefaultEvalMaxSteps,
		MinEvalEpisodes: DefaultMinEvalEpisodes,
		Seed:            1,
		Alpha:           0.5,
		Gamma:           0.98,
		Epsilon:         1.0,
		EpsilonMin:      0.01,
		EpsilonDecay:    0.9995,
		StepDelayMs:     DefaultStepDelayMs,
		LogCapacity:     DefaultLogCapacity,
	}
}

// StepDelay is the wall-clock pause between evaluation steps.
func (c Config) StepDelay() time.Duration {
	return time.Duration(c.StepDelayMs) * time.Millisecond
}

// Validate reports every parameter that is out of range.
func (c Config) Validate() error {
	var errs []error
	if c.Episodes <= 0 {
		errs = append(errs, fmt.Errorf("episodes must be positive (got %d)", c.Episodes))
	}
	if c.BatchSize <= 0 {
		errs = append(errs, fmt.Errorf("batch size must be positive (got %d)", c.BatchSize))
	}
	if c.MaxSteps <= 0 {
		errs = append(errs, fmt.Errorf("max steps must be positive (got %d)", c.MaxSteps))
	}
	if c.EvalMaxSteps <= 0 {
		errs = append(errs, fmt.Errorf("eval max steps must be positive (got %d)", c.EvalMaxSteps))
	}
	if c.MinEvalEpisodes < 0 {
		errs = append(errs, fmt.Errorf("min eval episodes must not be negative (got %d)", c.MinEvalEpisodes))
	}
	if c.Alpha < 0 || c.Alpha > 1 {
		errs = append(errs, fmt.Errorf("alpha must be between 0 and 1 (got %.2f)", c.Alpha))
	}
	if c.Gamma < 0 || c.Gamma > 1 {
		errs = append(errs, fmt.Errorf("gamma must be between 0 and 1 (got %.2f)", c.Gamma))
	}
	if c.Epsilon < 0 || c.Epsilon > 1 {
		errs = append(errs, fmt.Errorf("epsilon must be between 0 and 1 (got %.2f)", c.Epsilon))
	}
	if c.EpsilonMin < 0 || c.EpsilonMin > c.Epsilon {
		errs = append(errs, fmt.Errorf("epsilon min must be between 0 and epsilon (got %.2f)", c.EpsilonMin))
	}
	if c.EpsilonDecay < 0 || c.EpsilonDecay > 1 {
		errs = append(errs, fmt.Errorf("epsilon decay must be between 0 and 1 (got %.4f)", c.EpsilonDecay))
	}
	if c.StepDelayMs < 0 {
		errs = append(errs, fmt.Errorf("step delay must not be negative (got %d)", c.StepDelayMs))
	}
	if c.LogCapacity <= 0 {
		errs = append(errs, fmt.Errorf("log capacity must be positive (got %d)", c.LogCapacity))
	}
	return errors.Join(errs...)
}

// normalizeConfig quietly repairs out-of-range values instead of failing.
func normalizeConfig(cfg Config) Config {
	def := DefaultConfig()
	if cfg.Episodes <= 0 {
		cfg.Episodes = def.Episodes
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = def.BatchSize
	}
	if cfg.MaxSteps <= 0 {
		cfg.MaxSteps = def.MaxSteps
	}
	if cfg.EvalMaxSteps <= 0 {
		cfg.EvalMaxSteps = def.EvalMaxSteps
	}
	if cfg.MinEvalEpisodes < 0 {
		cfg.MinEvalEpisodes = 0
	}
	if cfg.Seed == 0 {
		cfg.Seed = 1
	}
	cfg.Alpha = clampFloat(cfg.Alpha, 0, 1)
	if cfg.Gamma < 0 || cfg.Gamma > 1 {
		cfg.Gamma = def.Gamma
	}
	cfg.Epsilon = clampFloat(cfg.Epsilon, 0, 1)
	if cfg.EpsilonMin < 0 || cfg.EpsilonMin > cfg.Epsilon {
		cfg.EpsilonMin = 0
	}
	if cfg.EpsilonDecay < 0 || cfg.EpsilonDecay > 1 {
		cfg.EpsilonDecay = def.EpsilonDecay
	}
	if cfg.StepDelayMs < 0 {
		cfg.StepDelayMs = 0
	}
	if cfg.LogCapacity <= 0 {
		cfg.LogCapacity = def.LogCapacity
	}
	return cfg
}

func clampFloat(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
