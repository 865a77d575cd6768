package clientcfg

import (
	"os"
	"path/filepath"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestMaterializeTestInjectsListener(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "fast.yaml")
	src := "server: example.com:443\nauth: secret\nobfs:\n  type: salamander\nsocks5:\n  listen: 0.0.0.0:1080\n"
	if err := os.WriteFile(base, []byte(src), 0o644); err != nil {
		t.Fatalf("write base: %v", err)
	}

	testPath, err := MaterializeTest(base, 11081)
	if err != nil {
		t.Fatalf("materialize: %v", err)
	}
	defer os.Remove(testPath)

	if testPath != filepath.Join(dir, "fast_test.yaml") {
		t.Fatalf("unexpected variant path %q", testPath)
	}

	b, err := os.ReadFile(testPath)
	if err != nil {
		t.Fatalf("read variant: %v", err)
	}
	var doc map[string]any
	if err := yaml.Unmarshal(b, &doc); err != nil {
		t.Fatalf("parse variant: %v", err)
	}
	socks, ok := doc["socks5"].(map[string]any)
	if !ok || socks["listen"] != "127.0.0.1:11081" {
		t.Fatalf("socks5 listener not rewritten: %+v", doc["socks5"])
	}
	// fields the supervisor knows nothing about must survive
	if _, ok := doc["obfs"]; !ok {
		t.Fatal("unrelated field dropped by materialization")
	}
	if doc["server"] != "example.com:443" || doc["auth"] != "secret" {
		t.Fatalf("base fields mutated: %+v", doc)
	}

	// the base file is untouched
	orig, _ := os.ReadFile(base)
	if string(orig) != src {
		t.Fatal("base config was mutated")
	}
}

func TestMaterializeTestReadFailure(t *testing.T) {
	_, err := MaterializeTest(filepath.Join(t.TempDir(), "missing.yaml"), 1080)
	if err == nil {
		t.Fatal("expected error")
	}
	if !IsReadError(err) {
		t.Fatalf("expected read error classification, got %v", err)
	}
}

func TestMaterializeTestParseFailure(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "broken.yaml")
	if err := os.WriteFile(base, []byte(":\n\t- not yaml"), 0o644); err != nil {
		t.Fatalf("write base: %v", err)
	}
	if _, err := MaterializeTest(base, 1080); err == nil || !IsReadError(err) {
		t.Fatalf("expected read error for malformed yaml, got %v", err)
	}
}

func TestTestVariantPath(t *testing.T) {
	if got := TestVariantPath("/etc/hysteria/a.yaml"); got != "/etc/hysteria/a_test.yaml" {
		t.Fatalf("got %q", got)
	}
	if got := TestVariantPath("b.yml"); got != "b_test.yml" {
		t.Fatalf("got %q", got)
	}
}

func TestConfigWriteFileRoundTrip(t *testing.T) {
	insecure := true
	cfg := &Config{
		Server:    "example.com:443",
		Auth:      "secret",
		Name:      "node",
		TLS:       &TLS{Insecure: &insecure, SNI: "example.com"},
		Bandwidth: &Bandwidth{Up: "100 mbps"},
		SOCKS5:    &Listener{Listen: "0.0.0.0:1080"},
	}
	path := filepath.Join(t.TempDir(), "sub", "node.yaml")
	if err := cfg.WriteFile(path); err != nil {
		t.Fatalf("write: %v", err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	var got Config
	if err := yaml.Unmarshal(b, &got); err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got.Server != cfg.Server || got.Auth != cfg.Auth {
		t.Fatalf("round trip mismatch: %+v", got)
	}
	if got.TLS == nil || got.TLS.Insecure == nil || !*got.TLS.Insecure {
		t.Fatalf("tls lost in round trip: %+v", got.TLS)
	}
	if got.HTTP != nil {
		t.Fatal("absent http section must stay absent")
	}
}
