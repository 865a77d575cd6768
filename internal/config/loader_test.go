package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTempFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return p
}

func TestLoadYAML(t *testing.T) {
	d := t.TempDir()
	p := writeTempFile(t, d, "cfg.yaml", "addr: :9999\nconfig_dir: /etc/hysteria\nbin: /usr/local/bin/hysteria\ninterval_seconds: 300\nbase_port: 20000\nswitch_policy: hysteresis\nstate_file: /tmp/winner.json\nlog_level: debug\n")
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != ":9999" || cfg.ConfigDir != "/etc/hysteria" || cfg.Bin != "/usr/local/bin/hysteria" {
		t.Fatalf("unexpected cfg: %+v", cfg)
	}
	if cfg.IntervalSeconds != 300 || cfg.BasePort != 20000 || cfg.SwitchPolicy != "hysteresis" {
		t.Fatalf("unexpected cfg: %+v", cfg)
	}
	if cfg.StateFile != "/tmp/winner.json" || cfg.LogLevel != "debug" {
		t.Fatalf("unexpected cfg: %+v", cfg)
	}
}

func TestLoadJSON(t *testing.T) {
	d := t.TempDir()
	p := writeTempFile(t, d, "cfg.json", `{"addr":":7070","config_dir":"/c","bin":"hysteria","interval_seconds":60,"initial_config":"fast"}`)
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != ":7070" || cfg.ConfigDir != "/c" || cfg.Bin != "hysteria" || cfg.IntervalSeconds != 60 || cfg.InitialConfig != "fast" {
		t.Fatalf("unexpected cfg: %+v", cfg)
	}
}

func TestLoadTOML(t *testing.T) {
	d := t.TempDir()
	p := writeTempFile(t, d, "cfg.toml", "addr=\":8081\"\nconfig_dir=\"/x\"\nbase_port=21000\nswitch_policy=\"always\"\n")
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != ":8081" || cfg.ConfigDir != "/x" || cfg.BasePort != 21000 || cfg.SwitchPolicy != "always" {
		t.Fatalf("unexpected cfg: %+v", cfg)
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(""); err == nil {
		t.Fatalf("expected error on empty path")
	}
	d := t.TempDir()
	p := writeTempFile(t, d, "cfg.txt", "not supported")
	if _, err := Load(p); err == nil {
		t.Fatalf("expected unsupported extension error")
	}
	if _, err := Load("/definitely/not/a/real/file-12345.yaml"); err == nil {
		t.Fatalf("expected error for nonexistent file")
	}
}

func TestLoadInvalidPayloads(t *testing.T) {
	d := t.TempDir()
	if _, err := Load(writeTempFile(t, d, "bad.yaml", "addr: :8080\n: broken\n")); err == nil {
		t.Fatalf("expected YAML unmarshal error")
	}
	if _, err := Load(writeTempFile(t, d, "bad.json", `{ "addr": ":8080", "config_dir": }`)); err == nil {
		t.Fatalf("expected JSON unmarshal error")
	}
	if _, err := Load(writeTempFile(t, d, "bad.toml", "addr=:8080\nconfig_dir\n")); err == nil {
		t.Fatalf("expected TOML unmarshal error")
	}
}
