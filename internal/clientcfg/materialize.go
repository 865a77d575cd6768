package clientcfg

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// MaterializeTest derives a benchmark variant of the base config: the same
// document with the socks5 listener rewritten to bind 127.0.0.1 on port.
// The variant is written next to the base file with a "_test" suffix and
// its path is returned; the caller owns deleting it. The base config is
// decoded into a generic map so every field it carries survives untouched.
func MaterializeTest(basePath string, port int) (string, error) {
	b, err := os.ReadFile(basePath)
	if err != nil {
		return "", readError{path: basePath, err: err}
	}
	var doc map[string]any
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return "", readError{path: basePath, err: err}
	}
	if doc == nil {
		doc = make(map[string]any)
	}
	doc["socks5"] = map[string]any{
		"listen": fmt.Sprintf("127.0.0.1:%d", port),
	}
	out, err := yaml.Marshal(doc)
	if err != nil {
		return "", writeError{path: basePath, err: err}
	}
	testPath := TestVariantPath(basePath)
	if err := os.WriteFile(testPath, out, 0o644); err != nil {
		return "", writeError{path: testPath, err: err}
	}
	return testPath, nil
}

// TestVariantPath returns the deterministic benchmark-variant path for a
// base config, e.g. /etc/hysteria/fast.yaml -> /etc/hysteria/fast_test.yaml.
func TestVariantPath(basePath string) string {
	ext := filepath.Ext(basePath)
	return strings.TrimSuffix(basePath, ext) + "_test" + ext
}
