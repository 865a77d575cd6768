package registry

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BruceWind/HysteriaClientDocker/internal/common/fsutil"
	"github.com/BruceWind/HysteriaClientDocker/pkg/types"
)

// LoadDir scans a directory for *.yaml client configs and builds the
// candidate set from filenames. Name is the filename without extension;
// Path is the absolute file path. The set is re-read on every call since
// configs may be added or removed between evaluation rounds.
func LoadDir(dir string) ([]types.Candidate, error) {
	base, err := fsutil.ExpandHome(dir)
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(base)
	if err != nil {
		return nil, fmt.Errorf("abs path: %w", err)
	}
	entries, err := os.ReadDir(abs)
	if err != nil {
		return nil, fmt.Errorf("read dir: %w", err)
	}
	var out []types.Candidate
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		lower := strings.ToLower(name)
		if !strings.HasSuffix(lower, ".yaml") && !strings.HasSuffix(lower, ".yml") {
			continue
		}
		stem := strings.TrimSuffix(name, filepath.Ext(name))
		// A leftover benchmark variant must never become a candidate.
		if strings.HasSuffix(stem, "_test") {
			continue
		}
		out = append(out, types.Candidate{Name: stem, Path: filepath.Join(abs, name)})
	}
	return out, nil
}

// Lookup returns the candidate with the given name, or false when the
// directory holds no config by that name.
func Lookup(dir, name string) (types.Candidate, bool, error) {
	cands, err := LoadDir(dir)
	if err != nil {
		return types.Candidate{}, false, err
	}
	for _, c := range cands {
		if c.Name == name {
			return c, true, nil
		}
	}
	return types.Candidate{}, false, nil
}
