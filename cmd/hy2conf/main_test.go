package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRunSingleWritesYAML(t *testing.T) {
	d := t.TempDir()
	out := filepath.Join(d, "fast.yaml")
	url := "hysteria2://secret@example.com:443?sni=example.com&insecure=1#V5%20fast"
	if err := runSingle(url, out); err != nil {
		t.Fatalf("runSingle: %v", err)
	}
	b, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	s := string(b)
	if !strings.Contains(s, "example.com:443") || !strings.Contains(s, "secret") {
		t.Fatalf("unexpected output:\n%s", s)
	}
}

func TestRunBatchSkipsBadLines(t *testing.T) {
	d := t.TempDir()
	urls := filepath.Join(d, "urls.txt")
	content := strings.Join([]string{
		"# comment",
		"",
		"hysteria2://a@h1.example.com:443#alpha",
		"not-a-share-url",
		"hysteria2://b@h2.example.com#beta",
	}, "\n")
	if err := os.WriteFile(urls, []byte(content), 0o644); err != nil {
		t.Fatalf("write urls: %v", err)
	}
	outDir := filepath.Join(d, "out")
	if err := runBatch(urls, outDir); err != nil {
		t.Fatalf("runBatch: %v", err)
	}
	for _, name := range []string{"alpha.yaml", "beta.yaml"} {
		if _, err := os.Stat(filepath.Join(outDir, name)); err != nil {
			t.Fatalf("expected %s to exist: %v", name, err)
		}
	}
	entries, err := os.ReadDir(outDir)
	if err != nil {
		t.Fatalf("read out dir: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 configs, got %d", len(entries))
	}
}

func TestRunBatchFailsWhenNothingProduced(t *testing.T) {
	d := t.TempDir()
	urls := filepath.Join(d, "urls.txt")
	if err := os.WriteFile(urls, []byte("garbage\n# only comments\n"), 0o644); err != nil {
		t.Fatalf("write urls: %v", err)
	}
	if err := runBatch(urls, filepath.Join(d, "out")); err == nil {
		t.Fatalf("expected error when zero configs were produced")
	}
}
