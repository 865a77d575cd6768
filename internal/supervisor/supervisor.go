// Package supervisor owns the single production client process: it starts,
// stops and hot-swaps the child, persists the adopted winner, and recovers
// from crashes.
package supervisor

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/BruceWind/HysteriaClientDocker/internal/proc"
	"github.com/BruceWind/HysteriaClientDocker/internal/registry"
	"github.com/BruceWind/HysteriaClientDocker/pkg/types"
)

// State is the lifecycle state of the production child slot.
type State string

const (
	StateStopped  State = "stopped"
	StateStarting State = "starting"
	StateRunning  State = "running"
	StateStopping State = "stopping"
)

// Defaults applied when Config durations are unset.
const (
	defaultStartupGrace = 2 * time.Second
	defaultStopGrace    = 10 * time.Second
)

// Config carries the supervisor's tunables.
type Config struct {
	// Directory of candidate configs; the production child always runs a
	// real (non-test) config from here.
	ConfigDir string
	Launcher  proc.Launcher
	// Path of the persisted winner record. Empty disables persistence.
	StateFile string
	Policy    SwitchPolicy
	// Liveness window after launch before the child counts as started.
	StartupGrace time.Duration
	// Graceful-terminate window on stop before the kill escalation.
	StopGrace time.Duration
	Log       zerolog.Logger
}

// Supervisor serializes every transition of the one production child slot
// behind its mutex: the evaluation loop's switch path and the liveness
// loop's crash restart can never overlap, so at most one production child
// is alive at any time.
type Supervisor struct {
	mu          sync.Mutex
	cfg         Config
	state       State
	runningName string
	lastLatency float64
	child       proc.Process

	startTime time.Time
	rounds    uint64
	switches  uint64
	crashes   uint64
}

// New builds a stopped Supervisor.
func New(cfg Config) *Supervisor {
	if cfg.Policy == nil {
		cfg.Policy, _ = ParsePolicy("always")
	}
	if cfg.StartupGrace <= 0 {
		cfg.StartupGrace = defaultStartupGrace
	}
	if cfg.StopGrace <= 0 {
		cfg.StopGrace = defaultStopGrace
	}
	return &Supervisor{cfg: cfg, state: StateStopped, startTime: time.Now()}
}

// Start launches the production child for the named config. Any child
// still alive is stopped first; a start never begins while another child
// holds the slot.
func (s *Supervisor) Start(ctx context.Context, name string, latencyMs float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
	return s.startLocked(ctx, name, latencyMs)
}

// Stop terminates the production child if one runs.
func (s *Supervisor) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
}

// MaybeSwitch feeds a round's winner through the switch policy and swaps
// the production child when the policy says so. When starting the new
// winner fails, the previous identity is restored best-effort; if that also
// fails the slot stays stopped and the next round or crash-recovery pass
// tries again.
func (s *Supervisor) MaybeSwitch(ctx context.Context, winner types.BenchmarkResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateRunning && s.child != nil && s.child.Alive() {
		if winner.Config == s.runningName {
			s.cfg.Log.Info().Str("config", winner.Config).Msg("winner unchanged, still best")
			return nil
		}
		if !s.cfg.Policy.ShouldSwitch(Running{Name: s.runningName, LatencyMs: s.lastLatency}, winner) {
			s.cfg.Log.Info().
				Str("running", s.runningName).
				Str("winner", winner.Config).
				Float64("winner_latency_ms", winner.LatencyMs).
				Msg("keeping current config per switch policy")
			return nil
		}
	}

	prevName, prevLatency := s.runningName, s.lastLatency
	s.stopLocked()

	if err := s.startLocked(ctx, winner.Config, winner.LatencyMs); err != nil {
		s.cfg.Log.Error().Err(err).Str("config", winner.Config).Msg("failed to start new winner")
		if prevName != "" && prevName != winner.Config {
			if rerr := s.startLocked(ctx, prevName, prevLatency); rerr == nil {
				s.cfg.Log.Info().Str("config", prevName).Msg("restored previous config")
				return err
			}
			s.cfg.Log.Error().Str("config", prevName).Msg("could not restore previous config; staying stopped")
		}
		return err
	}
	s.switches++
	switchesTotal.Inc()
	s.cfg.Log.Info().Str("config", winner.Config).Float64("latency_ms", winner.LatencyMs).Msg("switched production config")
	return nil
}

// CheckAlive is the liveness probe: when the slot claims RUNNING but the
// child has exited, it records the crash and restarts the same identity.
func (s *Supervisor) CheckAlive(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateRunning || s.child == nil || s.child.Alive() {
		return
	}
	name, latency := s.runningName, s.lastLatency
	s.cfg.Log.Error().Str("config", name).Msg("production child exited unexpectedly")
	s.child = nil
	s.runningName = ""
	s.state = StateStopped
	childUp.Set(0)
	s.crashes++
	crashRestartsTotal.Inc()

	if err := s.startLocked(ctx, name, latency); err != nil {
		s.cfg.Log.Error().Err(err).Str("config", name).Msg("crash recovery restart failed")
		return
	}
	s.cfg.Log.Info().Str("config", name).Msg("crash recovery restart succeeded")
}

// startLocked runs the STOPPED -> STARTING -> RUNNING|STOPPED transition.
// Callers hold s.mu and have already cleared the child slot.
func (s *Supervisor) startLocked(ctx context.Context, name string, latencyMs float64) error {
	// A canceled context means shutdown; never spawn a child that nobody
	// will reap.
	if err := ctx.Err(); err != nil {
		return err
	}
	cand, ok, err := registry.Lookup(s.cfg.ConfigDir, name)
	if err != nil {
		return err
	}
	if !ok {
		return unknownConfigError{name: name}
	}

	s.state = StateStarting
	s.cfg.Log.Info().Str("config", name).Str("path", cand.Path).Msg("starting production child")
	child, err := s.cfg.Launcher.Launch(cand.Path)
	if err != nil {
		s.state = StateStopped
		startFailuresTotal.Inc()
		return startFailedError{name: name, err: err}
	}

	// Liveness check after a short grace: still alive means started.
	if !sleepCtx(ctx, s.cfg.StartupGrace) || !child.Alive() {
		_ = child.Stop(s.cfg.StopGrace)
		s.state = StateStopped
		startFailuresTotal.Inc()
		return startFailedError{name: name}
	}

	s.child = child
	s.runningName = name
	s.lastLatency = latencyMs
	s.state = StateRunning
	childUp.Set(1)
	s.cfg.Log.Info().Str("config", name).Int("pid", child.PID()).Msg("production child running")

	if s.cfg.StateFile != "" {
		if err := SaveState(s.cfg.StateFile, name, latencyMs); err != nil {
			s.cfg.Log.Warn().Err(err).Msg("could not persist winner state")
		}
	}
	return nil
}

// stopLocked runs RUNNING -> STOPPING -> STOPPED. Idempotent.
func (s *Supervisor) stopLocked() {
	if s.child == nil {
		s.state = StateStopped
		return
	}
	s.state = StateStopping
	s.cfg.Log.Info().Str("config", s.runningName).Msg("stopping production child")
	_ = s.child.Stop(s.cfg.StopGrace)
	s.child = nil
	s.runningName = ""
	s.state = StateStopped
	childUp.Set(0)
}

// Current returns the running identity, or ok=false when the slot is empty.
func (s *Supervisor) Current() (name string, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateRunning {
		return "", false
	}
	return s.runningName, true
}

// Status assembles the operator-facing snapshot.
func (s *Supervisor) Status() types.StatusResponse {
	s.mu.Lock()
	defer s.mu.Unlock()
	resp := types.StatusResponse{
		State:              string(s.state),
		RunningConfig:      s.runningName,
		LastLatencyMs:      s.lastLatency,
		SwitchPolicy:       s.cfg.Policy.Name(),
		RoundsTotal:        s.rounds,
		SwitchesTotal:      s.switches,
		CrashRestartsTotal: s.crashes,
		UptimeSeconds:      int64(time.Since(s.startTime).Seconds()),
		ServerTimeUnix:     time.Now().Unix(),
	}
	if s.child != nil {
		resp.PID = s.child.PID()
	}
	return resp
}

func (s *Supervisor) noteRound() {
	s.mu.Lock()
	s.rounds++
	s.mu.Unlock()
}

// sleepCtx sleeps for d unless ctx ends first and reports whether the full
// sleep completed.
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
