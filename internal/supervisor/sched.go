package supervisor

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/BruceWind/HysteriaClientDocker/internal/bench"
	"github.com/BruceWind/HysteriaClientDocker/pkg/types"
)

// Evaluator is the per-round fleet benchmark, satisfied by *bench.Fleet.
type Evaluator interface {
	EvaluateAll(ctx context.Context) ([]types.BenchmarkResult, error)
}

const defaultLivenessEvery = time.Second

// Scheduler drives the two background loops: a periodic evaluation loop
// feeding winners into the supervisor's switch path, and a liveness loop
// restarting the production child after crashes. Both loops observe
// context cancellation within a second.
type Scheduler struct {
	Interval      time.Duration
	LivenessEvery time.Duration
	Evaluator     Evaluator
	Sup           *Supervisor
	Log           zerolog.Logger

	inFlight    atomic.Bool
	asyncRounds sync.WaitGroup

	resMu        sync.Mutex
	lastResults  []types.BenchmarkResult
	lastFinished time.Time
}

// Run blocks until ctx is canceled, then stops the production child before
// returning so shutdown never orphans it.
func (s *Scheduler) Run(ctx context.Context) {
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		s.evaluationLoop(ctx)
	}()
	go func() {
		defer wg.Done()
		s.livenessLoop(ctx)
	}()
	wg.Wait()
	// Rounds triggered over RunAsync must drain before the child is
	// stopped, or a late launch could outlive the process.
	s.asyncRounds.Wait()
	s.Sup.Stop()
	s.Log.Info().Msg("scheduler stopped")
}

func (s *Scheduler) evaluationLoop(ctx context.Context) {
	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		if err := s.RunOnce(ctx); err != nil && ctx.Err() == nil {
			s.Log.Warn().Err(err).Msg("evaluation round ended without a switch")
		}
	}
}

func (s *Scheduler) livenessLoop(ctx context.Context) {
	every := s.LivenessEvery
	if every <= 0 {
		every = defaultLivenessEvery
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sup.CheckAlive(ctx)
		}
	}
}

// RunOnce performs one evaluation round: benchmark everything, record the
// ranked results, and hand the winner to the supervisor. A round with zero
// successes leaves the running production child untouched. Only one round
// runs at a time.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	if !s.inFlight.CompareAndSwap(false, true) {
		return busyError{}
	}
	defer s.inFlight.Store(false)
	return s.runRound(ctx)
}

// RunAsync starts a round in the background, for operator-triggered
// evaluations. It returns a busy error when a round is already in flight.
func (s *Scheduler) RunAsync(ctx context.Context) error {
	if !s.inFlight.CompareAndSwap(false, true) {
		return busyError{}
	}
	s.asyncRounds.Add(1)
	go func() {
		defer s.asyncRounds.Done()
		defer s.inFlight.Store(false)
		if err := s.runRound(ctx); err != nil && ctx.Err() == nil {
			s.Log.Warn().Err(err).Msg("triggered evaluation round ended without a switch")
		}
	}()
	return nil
}

func (s *Scheduler) runRound(ctx context.Context) error {
	results, err := s.Evaluator.EvaluateAll(ctx)
	if err != nil {
		return err
	}
	s.resMu.Lock()
	s.lastResults = results
	s.lastFinished = time.Now()
	s.resMu.Unlock()
	s.Sup.noteRound()

	winner, ok := bench.Winner(results)
	if !ok {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		s.Log.Warn().Int("candidates", len(results)).Msg("no working config this round, leaving production child untouched")
		return noWorkingConfigError{}
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.Sup.MaybeSwitch(ctx, winner)
}

// LastResults returns the most recent round's ranked results and when that
// round finished. The zero time means no round has completed yet.
func (s *Scheduler) LastResults() (time.Time, []types.BenchmarkResult) {
	s.resMu.Lock()
	defer s.resMu.Unlock()
	out := make([]types.BenchmarkResult, len(s.lastResults))
	copy(out, s.lastResults)
	return s.lastFinished, out
}
