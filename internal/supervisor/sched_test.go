package supervisor

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/BruceWind/HysteriaClientDocker/pkg/types"
)

type fakeEvaluator struct {
	mu      sync.Mutex
	results []types.BenchmarkResult
	rounds  int
	block   chan struct{} // when set, EvaluateAll waits on it
}

func (f *fakeEvaluator) EvaluateAll(ctx context.Context) ([]types.BenchmarkResult, error) {
	f.mu.Lock()
	f.rounds++
	block := f.block
	out := make([]types.BenchmarkResult, len(f.results))
	copy(out, f.results)
	f.mu.Unlock()
	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
		}
	}
	return out, nil
}

func newTestScheduler(t *testing.T, sup *Supervisor, ev Evaluator) *Scheduler {
	t.Helper()
	return &Scheduler{
		Interval:      10 * time.Millisecond,
		LivenessEvery: 5 * time.Millisecond,
		Evaluator:     ev,
		Sup:           sup,
		Log:           zerolog.Nop(),
	}
}

func TestRunOnceAdoptsWinner(t *testing.T) {
	dir := writeConfigs(t, "fast", "slow")
	l := &fakeLauncher{}
	sup := newTestSupervisor(t, dir, l)
	ev := &fakeEvaluator{results: []types.BenchmarkResult{
		{Config: "fast", Success: true, LatencyMs: 45, Detail: "Success"},
		{Config: "slow", Success: true, LatencyMs: 200, Detail: "Success"},
	}}
	sched := newTestScheduler(t, sup, ev)

	if err := sched.RunOnce(context.Background()); err != nil {
		t.Fatalf("run once: %v", err)
	}
	if name, ok := sup.Current(); !ok || name != "fast" {
		t.Fatalf("current = %q ok=%v", name, ok)
	}
	finished, results := sched.LastResults()
	if finished.IsZero() || len(results) != 2 {
		t.Fatalf("last results: %v %+v", finished, results)
	}
	if st := sup.Status(); st.RoundsTotal != 1 {
		t.Fatalf("rounds = %d", st.RoundsTotal)
	}
}

func TestRunOnceZeroSuccessesLeavesChildAlone(t *testing.T) {
	dir := writeConfigs(t, "alpha")
	l := &fakeLauncher{}
	sup := newTestSupervisor(t, dir, l)
	if err := sup.Start(context.Background(), "alpha", 45); err != nil {
		t.Fatalf("start: %v", err)
	}

	failed := make([]types.BenchmarkResult, 0, 5)
	for _, n := range []string{"a", "b", "c", "d", "e"} {
		failed = append(failed, types.BenchmarkResult{Config: n, Success: false, Detail: "timeout"})
	}
	sched := newTestScheduler(t, sup, &fakeEvaluator{results: failed})

	err := sched.RunOnce(context.Background())
	if !IsNoWorkingConfig(err) {
		t.Fatalf("expected no-working-config error, got %v", err)
	}
	if name, ok := sup.Current(); !ok || name != "alpha" {
		t.Fatalf("production child must keep running, current = %q ok=%v", name, ok)
	}
	if !l.last().Alive() {
		t.Fatal("child was stopped by an empty round")
	}
}

func TestRunOnceRejectsConcurrentRounds(t *testing.T) {
	dir := writeConfigs(t, "alpha")
	sup := newTestSupervisor(t, dir, &fakeLauncher{})
	block := make(chan struct{})
	ev := &fakeEvaluator{block: block}
	sched := newTestScheduler(t, sup, ev)

	done := make(chan error, 1)
	go func() { done <- sched.RunOnce(context.Background()) }()

	// wait for the first round to be in flight
	deadline := time.Now().Add(time.Second)
	for {
		ev.mu.Lock()
		started := ev.rounds > 0
		ev.mu.Unlock()
		if started {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("first round never started")
		}
		time.Sleep(time.Millisecond)
	}

	if err := sched.RunOnce(context.Background()); !IsBusy(err) {
		t.Fatalf("expected busy error, got %v", err)
	}
	close(block)
	<-done
}

func TestRunStopsChildOnShutdown(t *testing.T) {
	dir := writeConfigs(t, "alpha")
	l := &fakeLauncher{}
	sup := newTestSupervisor(t, dir, l)
	if err := sup.Start(context.Background(), "alpha", 45); err != nil {
		t.Fatalf("start: %v", err)
	}
	sched := newTestScheduler(t, sup, &fakeEvaluator{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sched.Run(ctx)
		close(done)
	}()
	time.Sleep(20 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not shut down promptly")
	}
	if l.last().Alive() {
		t.Fatal("production child orphaned after shutdown")
	}
}

func TestLivenessLoopRestartsCrashedChild(t *testing.T) {
	dir := writeConfigs(t, "alpha")
	l := &fakeLauncher{}
	sup := newTestSupervisor(t, dir, l)
	if err := sup.Start(context.Background(), "alpha", 45); err != nil {
		t.Fatalf("start: %v", err)
	}
	sched := newTestScheduler(t, sup, &fakeEvaluator{})
	sched.Interval = time.Hour // keep the evaluation loop quiet

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go sched.Run(ctx)

	l.last().die()
	deadline := time.Now().Add(time.Second)
	for {
		if n := l.launches(); n >= 2 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("liveness loop did not restart the crashed child")
		}
		time.Sleep(5 * time.Millisecond)
	}
	if name, ok := sup.Current(); !ok || name != "alpha" {
		t.Fatalf("current = %q ok=%v", name, ok)
	}
}

func TestRunOnceCanceledContextSkipsSwitch(t *testing.T) {
	dir := writeConfigs(t, "fast")
	l := &fakeLauncher{}
	sup := newTestSupervisor(t, dir, l)
	sched := newTestScheduler(t, sup, &fakeEvaluator{results: []types.BenchmarkResult{
		{Config: "fast", Success: true, LatencyMs: 45, Detail: "Success"},
	}})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := sched.RunOnce(ctx); err == nil {
		t.Fatal("expected error from canceled round")
	}
	if n := l.launches(); n != 0 {
		t.Fatalf("canceled round spawned %d child(ren)", n)
	}
}

func TestRunDrainsTriggeredRoundBeforeStop(t *testing.T) {
	dir := writeConfigs(t, "alpha", "beta")
	l := &fakeLauncher{}
	sup := newTestSupervisor(t, dir, l)
	if err := sup.Start(context.Background(), "alpha", 45); err != nil {
		t.Fatalf("start: %v", err)
	}

	block := make(chan struct{})
	ev := &fakeEvaluator{block: block, results: []types.BenchmarkResult{
		{Config: "beta", Success: true, LatencyMs: 30, Detail: "Success"},
	}}
	sched := newTestScheduler(t, sup, ev)
	sched.Interval = time.Hour // only the triggered round matters here

	// The triggered round outlives the loops' context on purpose.
	if err := sched.RunAsync(context.Background()); err != nil {
		t.Fatalf("run async: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sched.Run(ctx)
		close(done)
	}()
	cancel()

	// Run must not return while the triggered round is still in flight.
	select {
	case <-done:
		t.Fatal("scheduler stopped before the triggered round drained")
	case <-time.After(50 * time.Millisecond):
	}

	close(block)
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not shut down after the round drained")
	}
	if n := l.aliveCount(); n != 0 {
		t.Fatalf("%d child(ren) left alive after shutdown", n)
	}
}
