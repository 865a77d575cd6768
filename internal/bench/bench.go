// Package bench runs candidate configs through a full benchmark cycle and
// ranks them by measured latency.
package bench

import (
	"context"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/BruceWind/HysteriaClientDocker/internal/clientcfg"
	"github.com/BruceWind/HysteriaClientDocker/internal/proc"
	"github.com/BruceWind/HysteriaClientDocker/pkg/types"
)

// Prober abstracts the reachability check so benchmarks are testable
// without a live SOCKS5 endpoint.
type Prober interface {
	Probe(ctx context.Context, port int) types.ProbeResult
}

// Defaults applied when the corresponding Benchmarker fields are unset.
const (
	defaultStartupGrace   = 3 * time.Second
	defaultPollBackoff    = 2 * time.Second
	defaultOverallTimeout = 15 * time.Second
	defaultStopGrace      = 5 * time.Second
)

// Benchmarker runs the cycle for one candidate: materialize a test variant,
// launch the client against it, poll through the prober until success or
// timeout, then tear everything down.
type Benchmarker struct {
	Launcher proc.Launcher
	Prober   Prober

	// How long the child gets before the first probe.
	StartupGrace time.Duration
	// Sleep between failed probes.
	PollBackoff time.Duration
	// Budget for the whole poll loop.
	OverallTimeout time.Duration
	// Graceful-terminate window before the child is killed.
	StopGrace time.Duration

	Log zerolog.Logger

	// materialize is swapped in tests.
	materialize func(basePath string, port int) (string, error)
}

// NewBenchmarker wires a Benchmarker with defaults.
func NewBenchmarker(launcher proc.Launcher, prober Prober, log zerolog.Logger) *Benchmarker {
	return &Benchmarker{
		Launcher:       launcher,
		Prober:         prober,
		StartupGrace:   defaultStartupGrace,
		PollBackoff:    defaultPollBackoff,
		OverallTimeout: defaultOverallTimeout,
		StopGrace:      defaultStopGrace,
		Log:            log,
		materialize:    clientcfg.MaterializeTest,
	}
}

// Benchmark runs one candidate on an exclusively-assigned port. Exactly one
// child process is spawned and reaped, and the test variant file is deleted
// on every exit path.
func (b *Benchmarker) Benchmark(ctx context.Context, cand types.Candidate, port int) types.BenchmarkResult {
	log := b.Log.With().Str("config", cand.Name).Int("port", port).Logger()
	log.Debug().Msg("benchmark start")

	testPath, err := b.materializeFn()(cand.Path, port)
	if err != nil {
		log.Warn().Err(err).Msg("test variant creation failed")
		return types.BenchmarkResult{Config: cand.Name, Success: false, Detail: "config creation failed"}
	}
	defer func() {
		if rmErr := os.Remove(testPath); rmErr != nil && !os.IsNotExist(rmErr) {
			log.Warn().Err(rmErr).Str("path", testPath).Msg("could not remove test variant")
		}
	}()

	child, err := b.Launcher.Launch(testPath)
	if err != nil {
		log.Warn().Err(err).Msg("client launch failed")
		return types.BenchmarkResult{Config: cand.Name, Success: false, Detail: "process error: " + err.Error()}
	}
	defer func() {
		_ = child.Stop(b.stopGrace())
	}()

	if !sleepCtx(ctx, b.startupGrace()) {
		return types.BenchmarkResult{Config: cand.Name, Success: false, Detail: "canceled"}
	}

	res := b.pollLoop(ctx, child, port)
	out := types.BenchmarkResult{
		Config:    cand.Name,
		Success:   res.Success,
		LatencyMs: res.LatencyMs,
		Detail:    res.Detail,
	}
	if out.Success {
		log.Info().Float64("latency_ms", out.LatencyMs).Msg("benchmark ok")
	} else {
		log.Info().Str("detail", out.Detail).Msg("benchmark failed")
	}
	return out
}

func (b *Benchmarker) pollLoop(ctx context.Context, child proc.Process, port int) types.ProbeResult {
	deadline := time.Now().Add(b.overallTimeout())
	last := types.ProbeResult{Success: false, Detail: "timeout"}
	for time.Now().Before(deadline) {
		if ctx.Err() != nil {
			return types.ProbeResult{Success: false, Detail: "canceled"}
		}
		if !child.Alive() {
			return types.ProbeResult{Success: false, Detail: "process exited prematurely"}
		}
		last = b.Prober.Probe(ctx, port)
		if last.Success {
			return last
		}
		if !sleepCtx(ctx, b.pollBackoff()) {
			return types.ProbeResult{Success: false, Detail: "canceled"}
		}
	}
	return last
}

func (b *Benchmarker) materializeFn() func(string, int) (string, error) {
	if b.materialize == nil {
		return clientcfg.MaterializeTest
	}
	return b.materialize
}

func (b *Benchmarker) startupGrace() time.Duration {
	if b.StartupGrace <= 0 {
		return defaultStartupGrace
	}
	return b.StartupGrace
}

func (b *Benchmarker) pollBackoff() time.Duration {
	if b.PollBackoff <= 0 {
		return defaultPollBackoff
	}
	return b.PollBackoff
}

func (b *Benchmarker) overallTimeout() time.Duration {
	if b.OverallTimeout <= 0 {
		return defaultOverallTimeout
	}
	return b.OverallTimeout
}

func (b *Benchmarker) stopGrace() time.Duration {
	if b.StopGrace <= 0 {
		return defaultStopGrace
	}
	return b.StopGrace
}

// sleepCtx sleeps for d unless ctx ends first; it reports whether the full
// sleep completed. Every blocking delay in the benchmark path goes through
// here so shutdown interrupts in-flight rounds promptly.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
