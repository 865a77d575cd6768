package supervisor

import (
	"encoding/json"
	"os"
	"time"

	"github.com/BruceWind/HysteriaClientDocker/pkg/types"
)

// SaveState persists the adopted winner so a supervisor restart can resume
// without benchmarking first.
func SaveState(path, config string, latencyMs float64) error {
	st := types.WinnerState{
		Config:    config,
		LatencyMs: latencyMs,
		Timestamp: time.Now().Format(time.RFC3339),
	}
	b, err := json.Marshal(st)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}

// LoadState reads a previously persisted winner. A missing file is not an
// error; ok is false.
func LoadState(path string) (types.WinnerState, bool, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return types.WinnerState{}, false, nil
		}
		return types.WinnerState{}, false, err
	}
	var st types.WinnerState
	if err := json.Unmarshal(b, &st); err != nil {
		return types.WinnerState{}, false, err
	}
	return st, st.Config != "", nil
}
