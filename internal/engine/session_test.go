package engine

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"
)

func smallConfig() Config {
	cfg := DefaultConfig()
	cfg.Episodes = 600
	cfg.StepDelayMs = 0
	cfg.Seed = 21
	return cfg
}

func trainToCompletion(t *testing.T, s *Session) {
	t.Helper()
	if err := s.StartTraining(); err != nil {
		t.Fatalf("StartTraining: %v", err)
	}
	for s.Advance() {
	}
	if s.Status() != StatusReady {
		t.Fatalf("status = %s after training, want READY", s.Status())
	}
}

// withoutLog strips the informational fields.
func withoutLog(snap Snapshot) Snapshot {
	snap.Log = nil
	return snap
}

func TestInitialSnapshot(t *testing.T) {
	s := NewSession(smallConfig(), nil)
	snap := s.Snapshot()

	if snap.Status != StatusIdle || snap.Tick != 0 || snap.Episodes != 0 || snap.Successes != 0 {
		t.Fatalf("unexpected initial snapshot %+v", snap)
	}
	if snap.Agent != (Position{0, 0}) {
		t.Fatalf("agent = %v", snap.Agent)
	}
	if !reflect.DeepEqual(snap.Adversaries, []Position{{3, 5}, {5, 3}}) {
		t.Fatalf("adversaries = %v", snap.Adversaries)
	}
	if snap.TableSize != 0 || snap.Epsilon != 1.0 || snap.Confidence != nil {
		t.Fatalf("learner not pristine: %+v", snap)
	}
	if len(snap.Log) != 1 || snap.Log[0] != msgSystemReady {
		t.Fatalf("log = %v", snap.Log)
	}
	if snap.SessionID == "" {
		t.Fatalf("missing session id")
	}
}

func TestTrainingRunsInBatches(t *testing.T) {
	s := NewSession(smallConfig(), nil)
	if err := s.StartTraining(); err != nil {
		t.Fatalf("StartTraining: %v", err)
	}
	if s.Status() != StatusTraining {
		t.Fatalf("status = %s", s.Status())
	}

	if !s.Advance() {
		t.Fatalf("first batch should leave training active")
	}
	if got := s.Snapshot().Episodes; got != 300 {
		t.Fatalf("episodes after one batch = %d, want 300", got)
	}
	if s.Advance() {
		t.Fatalf("second batch should finish training")
	}

	snap := s.Snapshot()
	if snap.Status != StatusReady || snap.Episodes != 600 || snap.Progress != 1 {
		t.Fatalf("snapshot after training = %+v", snap)
	}
	if snap.Log[0] != msgTrainingDone {
		t.Fatalf("latest log line = %q", snap.Log[0])
	}
	if s.Advance() {
		t.Fatalf("Advance on a READY session reported work")
	}
}

func TestCommandsAreMutuallyExclusive(t *testing.T) {
	s := NewSession(smallConfig(), nil)

	if err := s.StartEvaluation(true); err != nil {
		t.Fatalf("raw evaluation should not need training: %v", err)
	}
	s.Advance()
	before := s.Snapshot()

	if err := s.StartTraining(); !errors.Is(err, ErrTaskActive) {
		t.Fatalf("StartTraining during evaluation: err = %v", err)
	}
	if err := s.StartEvaluation(false); !errors.Is(err, ErrTaskActive) {
		t.Fatalf("StartEvaluation during evaluation: err = %v", err)
	}
	if after := s.Snapshot(); !reflect.DeepEqual(before, after) {
		t.Fatalf("rejected commands changed state:\n%+v\n%+v", before, after)
	}

	s.Stop()
	if s.Status() != StatusIdle {
		t.Fatalf("stopped untrained session status = %s", s.Status())
	}

	if err := s.StartTraining(); err != nil {
		t.Fatalf("StartTraining: %v", err)
	}
	if err := s.StartEvaluation(true); !errors.Is(err, ErrTaskActive) {
		t.Fatalf("StartEvaluation during training: err = %v", err)
	}
	if err := s.StartTraining(); !errors.Is(err, ErrTaskActive) {
		t.Fatalf("StartTraining twice: err = %v", err)
	}
}

func TestGreedyEvaluationNeedsTraining(t *testing.T) {
	s := NewSession(smallConfig(), nil)
	before := s.Snapshot()

	err := s.StartEvaluation(false)
	if !errors.Is(err, ErrUndertrained) {
		t.Fatalf("err = %v, want ErrUndertrained", err)
	}
	if !reflect.DeepEqual(before, s.Snapshot()) {
		t.Fatalf("rejected evaluation changed state")
	}

	trainToCompletion(t, s)
	if err := s.StartEvaluation(false); err != nil {
		t.Fatalf("StartEvaluation after training: %v", err)
	}
}

func TestEvaluationLeavesTableUntouched(t *testing.T) {
	s := NewSession(smallConfig(), nil)
	trainToCompletion(t, s)
	size := s.Learner().TableSize()
	eps := s.Learner().Epsilon()
	values := s.Learner().Table().StateValues()

	for _, raw := range []bool{false, true} {
		if err := s.StartEvaluation(raw); err != nil {
			t.Fatalf("StartEvaluation(%v): %v", raw, err)
		}
		for s.Advance() {
		}
		snap := s.Snapshot()
		if snap.Status != StatusSuccess && snap.Status != StatusFailed {
			t.Fatalf("evaluation ended in %s", snap.Status)
		}
		if snap.Status == StatusFailed && !snap.Outcome.Failed() {
			t.Fatalf("FAILED run has outcome %q", snap.Outcome)
		}
		if raw && snap.Confidence != nil {
			t.Fatalf("raw run reported confidence")
		}
		if !raw && snap.Confidence == nil {
			t.Fatalf("greedy run reported no confidence")
		}
	}

	if s.Learner().TableSize() != size || s.Learner().Epsilon() != eps {
		t.Fatalf("evaluation changed the learner")
	}
	if !reflect.DeepEqual(values, s.Learner().Table().StateValues()) {
		t.Fatalf("evaluation changed table values")
	}
}

func TestResetRestoresInitialSnapshot(t *testing.T) {
	s := NewSession(smallConfig(), nil)
	initial := withoutLog(s.Snapshot())

	trainToCompletion(t, s)
	first := s.Snapshot()
	if err := s.StartEvaluation(false); err != nil {
		t.Fatalf("StartEvaluation: %v", err)
	}
	s.Advance()

	s.Reset()
	snap := s.Snapshot()
	if !reflect.DeepEqual(initial, withoutLog(snap)) {
		t.Fatalf("reset snapshot differs:\n got %+v\nwant %+v", withoutLog(snap), initial)
	}
	if len(snap.Log) != 1 || snap.Log[0] != msgCoreCleared {
		t.Fatalf("log after reset = %v", snap.Log)
	}

	// The rng is reseeded, so a second run learns the same table.
	trainToCompletion(t, s)
	second := s.Snapshot()
	if second.TableSize != first.TableSize || second.Successes != first.Successes || second.Epsilon != first.Epsilon {
		t.Fatalf("retraining after reset diverged: %+v vs %+v", withoutLog(second), withoutLog(first))
	}
}

func TestResetDuringEvaluation(t *testing.T) {
	s := NewSession(smallConfig(), nil)
	if err := s.StartEvaluation(true); err != nil {
		t.Fatalf("StartEvaluation: %v", err)
	}
	s.Advance()
	s.Reset()
	if s.Status() != StatusIdle || s.Advance() {
		t.Fatalf("reset did not cancel evaluation")
	}
}

func evalTrace(ch <-chan Snapshot) []Snapshot {
	var trace []Snapshot
	for snap := range ch {
		trace = append(trace, withoutLog(snap))
	}
	return trace
}

func TestPacingDoesNotChangeTrajectory(t *testing.T) {
	run := func(delayMs int) []Snapshot {
		cfg := smallConfig()
		cfg.StepDelayMs = delayMs
		s := NewSession(cfg, nil)
		trainToCompletion(t, s)
		if err := s.StartEvaluation(false); err != nil {
			t.Fatalf("StartEvaluation: %v", err)
		}
		trace := evalTrace(s.Drive(context.Background()))
		for i := range trace {
			trace[i].SessionID = ""
		}
		return trace
	}

	paced := run(1)
	unpaced := run(0)
	if len(paced) == 0 {
		t.Fatalf("no snapshots emitted")
	}
	if !reflect.DeepEqual(paced, unpaced) {
		t.Fatalf("paced run diverged from unpaced run (%d vs %d snapshots)", len(paced), len(unpaced))
	}
	last := paced[len(paced)-1]
	if last.Status != StatusSuccess && last.Status != StatusFailed {
		t.Fatalf("drive ended in %s", last.Status)
	}
}

func TestDriveTrainingYieldsPerBatch(t *testing.T) {
	s := NewSession(smallConfig(), nil)
	if err := s.StartTraining(); err != nil {
		t.Fatalf("StartTraining: %v", err)
	}
	trace := evalTrace(s.Drive(context.Background()))
	if len(trace) != 2 {
		t.Fatalf("got %d snapshots, want one per batch", len(trace))
	}
	if trace[0].Episodes != 300 || trace[1].Status != StatusReady {
		t.Fatalf("unexpected trace %+v", trace)
	}
}

func TestCancelledDriveStopsEvaluation(t *testing.T) {
	cfg := smallConfig()
	cfg.StepDelayMs = 20
	s := NewSession(cfg, nil)
	trainToCompletion(t, s)
	size := s.Learner().TableSize()

	if err := s.StartEvaluation(false); err != nil {
		t.Fatalf("StartEvaluation: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	ch := s.Drive(ctx)
	<-ch
	cancel()

	var last Snapshot
	timeout := time.After(2 * time.Second)
	for done := false; !done; {
		select {
		case snap, ok := <-ch:
			if !ok {
				done = true
				continue
			}
			last = snap
		case <-timeout:
			t.Fatalf("drive did not stop after cancel")
		}
	}

	if last.Status != StatusReady && last.Status != StatusSuccess && last.Status != StatusFailed {
		t.Fatalf("status after cancel = %s", last.Status)
	}
	if s.Learner().TableSize() != size {
		t.Fatalf("cancelled evaluation changed the table")
	}
}

func TestCancelledDriveExitsWithoutReader(t *testing.T) {
	saved := finalSnapshotWait
	finalSnapshotWait = 10 * time.Millisecond
	defer func() { finalSnapshotWait = saved }()

	cfg := smallConfig()
	cfg.StepDelayMs = 1000
	s := NewSession(cfg, nil)
	if err := s.StartEvaluation(true); err != nil {
		t.Fatalf("StartEvaluation: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	ch := s.Drive(ctx)
	<-ch
	cancel()

	// Nobody takes the final snapshot; the goroutine must give up and close.
	time.Sleep(100 * time.Millisecond)
	select {
	case _, ok := <-ch:
		if ok {
			t.Fatalf("drive still delivering after cancel with no reader")
		}
	case <-time.After(time.Second):
		t.Fatalf("drive did not close its channel")
	}
	if s.Status() != StatusIdle {
		t.Fatalf("status after cancelled raw run = %s, want IDLE", s.Status())
	}
}
