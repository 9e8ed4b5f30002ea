package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"drivex/internal/api"
	"drivex/internal/config"
	"drivex/internal/engine"
	"drivex/internal/logger"
	"drivex/internal/render"
	"drivex/internal/report"
)

func main() {
	logger.Init()
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "drivex: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	if len(os.Args) < 2 {
		return errors.New("missing subcommand; try 'train', 'eval' or 'schema'")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	subcommand := os.Args[1]
	switch subcommand {
	case "train":
		return runTrain(ctx, os.Args[2:])
	case "eval":
		return runEval(ctx, os.Args[2:])
	case "schema":
		return runSchema(os.Args[2:])
	default:
		return fmt.Errorf("unknown subcommand %q", subcommand)
	}
}

// sessionFlags are shared by every subcommand that builds a session. Flags
// the user sets override the config file, which overrides the defaults.
type sessionFlags struct {
	fs         *flag.FlagSet
	configPath *string
	episodes   *int
	seed       *int64
	alpha      *float64
	gamma      *float64
	epsilon    *float64
	delayMs    *int
	color      *bool
}

func newSessionFlags(name string) *sessionFlags {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	defaults := engine.DefaultConfig()
	return &sessionFlags{
		fs:         fs,
		configPath: fs.String("config", "", "YAML file with training parameters and map layout"),
		episodes:   fs.Int("episodes", defaults.Episodes, "number of training episodes"),
		seed:       fs.Int64("seed", defaults.Seed, "deterministic seed (0 for default)"),
		alpha:      fs.Float64("alpha", defaults.Alpha, "learning rate (0-1)"),
		gamma:      fs.Float64("gamma", defaults.Gamma, "discount factor (0-1)"),
		epsilon:    fs.Float64("epsilon", defaults.Epsilon, "initial exploration rate (0-1)"),
		delayMs:    fs.Int("delay", defaults.StepDelayMs, "milliseconds between evaluation steps"),
		color:      fs.Bool("color", true, "colour console output"),
	}
}

func (f *sessionFlags) session() (*engine.Session, error) {
	settings := config.Default()
	if *f.configPath != "" {
		loaded, err := config.Load(*f.configPath)
		if err != nil {
			return nil, err
		}
		settings = loaded
	}

	cfg := settings.Config
	f.fs.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "episodes":
			cfg.Episodes = *f.episodes
		case "seed":
			cfg.Seed = normalizeSeed(*f.seed)
		case "alpha":
			cfg.Alpha = *f.alpha
		case "gamma":
			cfg.Gamma = *f.gamma
		case "epsilon":
			cfg.Epsilon = *f.epsilon
		case "delay":
			cfg.StepDelayMs = *f.delayMs
		}
	})
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return engine.NewSession(cfg, settings.World), nil
}

func runTrain(ctx context.Context, args []string) error {
	flags := newSessionFlags("train")
	reportPath := flags.fs.String("report", "", "write an HTML chart of the training run to this file")
	showValues := flags.fs.Bool("values", false, "print the learned value map")
	if err := flags.fs.Parse(args); err != nil {
		return err
	}

	session, err := flags.session()
	if err != nil {
		return err
	}
	cfg := session.Config()
	fmt.Printf("train config => episodes=%d batch=%d seed=%d alpha=%.2f gamma=%.2f epsilon=%.2f\n",
		cfg.Episodes, cfg.BatchSize, cfg.Seed, cfg.Alpha, cfg.Gamma, cfg.Epsilon)

	if err := train(ctx, session, true); err != nil {
		return err
	}

	console := render.NewConsole(*flags.color)
	history := session.TrainingHistory()
	snap := session.Snapshot()
	fmt.Printf("summary: episodes=%d successes=%d success_rate=%.2f states=%d epsilon=%.4f\n",
		snap.Episodes, snap.Successes, float64(snap.Successes)/float64(snap.Episodes), snap.TableSize, snap.Epsilon)
	if *showValues {
		if err := console.ValueMap(os.Stdout, session.World(), session.Learner().Table()); err != nil {
			return err
		}
	}
	if *reportPath != "" {
		if err := report.WriteFile(*reportPath, history); err != nil {
			return err
		}
		fmt.Printf("report written to %s\n", *reportPath)
	}
	return nil
}

// train runs the session to its episode cap. An interrupt leaves the
// session part-trained and is reported as an error.
func train(ctx context.Context, session *engine.Session, verbose bool) error {
	if err := session.StartTraining(); err != nil {
		return err
	}
	for snap := range session.Drive(ctx) {
		if verbose {
			fmt.Printf("episodes %d/%d: successes=%d epsilon=%.4f states=%d\n",
				snap.Episodes, snap.EpisodeCap, snap.Successes, snap.Epsilon, snap.TableSize)
		}
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("training interrupted: %w", err)
	}
	return nil
}

func runEval(ctx context.Context, args []string) error {
	flags := newSessionFlags("eval")
	raw := flags.fs.Bool("raw", false, "act uniformly at random instead of following the learned policy")
	if err := flags.fs.Parse(args); err != nil {
		return err
	}

	session, err := flags.session()
	if err != nil {
		return err
	}
	if !*raw {
		fmt.Printf("training %d episodes before evaluation...\n", session.Config().Episodes)
		if err := train(ctx, session, false); err != nil {
			return err
		}
	}
	if err := session.StartEvaluation(*raw); err != nil {
		return err
	}

	console := render.NewConsole(*flags.color)
	last := session.Snapshot()
	if err := console.Frame(os.Stdout, session.World(), last); err != nil {
		return err
	}
	for snap := range session.Drive(ctx) {
		fmt.Println()
		if err := console.Frame(os.Stdout, session.World(), snap); err != nil {
			return err
		}
		last = snap
	}
	fmt.Println()
	return console.Log(os.Stdout, last.Log)
}

func runSchema(args []string) error {
	fs := flag.NewFlagSet("schema", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	out := fs.String("out", "schema", "directory to write the JSON schemas into")
	if err := fs.Parse(args); err != nil {
		return err
	}

	paths, err := api.WriteSchemas(*out)
	if err != nil {
		return err
	}
	for _, path := range paths {
		fmt.Println(path)
	}
	return nil
}

func normalizeSeed(seed int64) int64 {
	if seed == 0 {
		return 1
	}
	return seed
}
