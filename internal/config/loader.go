package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Config holds runtime parameters for the daemon.
// Zero values mean "unspecified" and will be replaced by defaults in main.
type Config struct {
	Addr            string `json:"addr" yaml:"addr" toml:"addr"`
	ConfigDir       string `json:"config_dir" yaml:"config_dir" toml:"config_dir"`
	Bin             string `json:"bin" yaml:"bin" toml:"bin"`
	IntervalSeconds int    `json:"interval_seconds" yaml:"interval_seconds" toml:"interval_seconds"`
	BasePort        int    `json:"base_port" yaml:"base_port" toml:"base_port"`
	SwitchPolicy    string `json:"switch_policy" yaml:"switch_policy" toml:"switch_policy"`
	StateFile       string `json:"state_file" yaml:"state_file" toml:"state_file"`
	InitialConfig   string `json:"initial_config" yaml:"initial_config" toml:"initial_config"`
	LogLevel        string `json:"log_level" yaml:"log_level" toml:"log_level"`
}

// Load reads a configuration file based on its extension.
// Supports: .yaml/.yml, .json, .toml
func Load(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, fmt.Errorf("empty config path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".json":
		if err := json.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".toml":
		if err := toml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	default:
		return cfg, fmt.Errorf("unsupported config extension: %s", ext)
	}
	return cfg, nil
}
