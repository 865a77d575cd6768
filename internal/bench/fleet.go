package bench

import (
	"context"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/BruceWind/HysteriaClientDocker/internal/registry"
	"github.com/BruceWind/HysteriaClientDocker/pkg/types"
)

// Runner is the per-candidate benchmark, satisfied by *Benchmarker.
type Runner interface {
	Benchmark(ctx context.Context, cand types.Candidate, port int) types.BenchmarkResult
}

const defaultSettleDelay = 2 * time.Second

// Fleet evaluates every candidate in a config directory, each on a private
// probe port, and returns results ranked best-first.
type Fleet struct {
	ConfigDir string
	BasePort  int
	// Pause between candidates so OS socket state settles before the next
	// child launch. Candidates run sequentially.
	SettleDelay time.Duration
	Runner      Runner
	Log         zerolog.Logger
}

// NewFleet wires a Fleet with the default settle delay.
func NewFleet(configDir string, basePort int, runner Runner, log zerolog.Logger) *Fleet {
	return &Fleet{
		ConfigDir:   configDir,
		BasePort:    basePort,
		SettleDelay: defaultSettleDelay,
		Runner:      runner,
		Log:         log,
	}
}

// EvaluateAll discovers the current candidate set and benchmarks each one.
// Successes come first, ascending by latency; failures follow in discovery
// order. An empty directory yields an empty slice and no error.
func (f *Fleet) EvaluateAll(ctx context.Context) ([]types.BenchmarkResult, error) {
	cands, err := registry.LoadDir(f.ConfigDir)
	if err != nil {
		return nil, err
	}
	f.Log.Info().Int("candidates", len(cands)).Str("dir", f.ConfigDir).Msg("evaluation round starting")
	if len(cands) == 0 {
		return nil, nil
	}

	alloc := NewPortAllocator(f.BasePort)
	results := make([]types.BenchmarkResult, 0, len(cands))
	for i, cand := range cands {
		if ctx.Err() != nil {
			break
		}
		results = append(results, f.Runner.Benchmark(ctx, cand, alloc.Next()))
		roundCandidatesTotal.Inc()
		if i < len(cands)-1 {
			if !sleepCtx(ctx, f.settleDelay()) {
				break
			}
		}
	}

	Rank(results)
	f.logSummary(results)
	roundsTotal.Inc()
	return results, nil
}

func (f *Fleet) settleDelay() time.Duration {
	if f.SettleDelay < 0 {
		return 0
	}
	if f.SettleDelay == 0 {
		return defaultSettleDelay
	}
	return f.SettleDelay
}

// Rank sorts results in place: successes ascending by latency ahead of all
// failures. The sort is stable so failure order stays as discovered.
func Rank(results []types.BenchmarkResult) {
	sort.SliceStable(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if a.Success != b.Success {
			return a.Success
		}
		if !a.Success {
			return false
		}
		return a.LatencyMs < b.LatencyMs
	})
}

// Winner returns the best successful result, or false when the round had
// no successes.
func Winner(results []types.BenchmarkResult) (types.BenchmarkResult, bool) {
	best := types.BenchmarkResult{}
	found := false
	for _, r := range results {
		if !r.Success {
			continue
		}
		if !found || r.LatencyMs < best.LatencyMs {
			best = r
			found = true
		}
	}
	return best, found
}

func (f *Fleet) logSummary(results []types.BenchmarkResult) {
	ok, failed := 0, 0
	for _, r := range results {
		if r.Success {
			ok++
			f.Log.Info().Str("config", r.Config).Float64("latency_ms", r.LatencyMs).Msg("round result")
			probeLatency.Observe(r.LatencyMs / 1000)
		} else {
			failed++
			f.Log.Warn().Str("config", r.Config).Str("detail", r.Detail).Msg("round result")
			benchFailures.WithLabelValues(failureReason(r.Detail)).Inc()
		}
	}
	if w, found := Winner(results); found {
		f.Log.Info().Str("config", w.Config).Float64("latency_ms", w.LatencyMs).
			Int("ok", ok).Int("failed", failed).Msg("round winner")
	} else {
		f.Log.Warn().Int("failed", failed).Msg("round produced no working config")
	}
}
