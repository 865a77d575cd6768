package supervisor

import (
	"fmt"

	"github.com/BruceWind/HysteriaClientDocker/pkg/types"
)

// SwitchPolicy decides whether a round's winner should replace the
// currently running config. current.Name is empty when nothing runs.
type SwitchPolicy interface {
	ShouldSwitch(current Running, winner types.BenchmarkResult) bool
	Name() string
}

// Running describes the production child's identity for policy decisions.
type Running struct {
	Name      string
	LatencyMs float64
}

// alwaysPolicy adopts the latest winner whenever its name differs from the
// running config. More switching, but the measured-best config always runs.
// This is the default.
type alwaysPolicy struct{}

func (alwaysPolicy) Name() string { return "always" }

func (alwaysPolicy) ShouldSwitch(current Running, winner types.BenchmarkResult) bool {
	return current.Name == "" || winner.Config != current.Name
}

// DefaultHysteresisRatio means a different winner is adopted only when it
// improves on the running config's recorded latency by at least 20%.
const DefaultHysteresisRatio = 0.8

// hysteresisPolicy avoids flapping between near-equal configs on noisy
// measurements.
type hysteresisPolicy struct {
	ratio float64
}

func (hysteresisPolicy) Name() string { return "hysteresis" }

func (p hysteresisPolicy) ShouldSwitch(current Running, winner types.BenchmarkResult) bool {
	if current.Name == "" {
		return true
	}
	if winner.Config == current.Name {
		return false
	}
	if current.LatencyMs <= 0 {
		// no usable baseline, adopt the measured winner
		return true
	}
	return winner.LatencyMs < current.LatencyMs*p.ratio
}

// ParsePolicy maps a config string to a policy: "always" (default when
// empty) or "hysteresis".
func ParsePolicy(name string) (SwitchPolicy, error) {
	switch name {
	case "", "always":
		return alwaysPolicy{}, nil
	case "hysteresis":
		return hysteresisPolicy{ratio: DefaultHysteresisRatio}, nil
	default:
		return nil, fmt.Errorf("unknown switch policy %q (want always or hysteresis)", name)
	}
}
