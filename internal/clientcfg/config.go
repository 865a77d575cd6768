// Package clientcfg models the Hysteria client configuration document:
// parsing hysteria2:// share URLs into configs, writing configs to disk,
// and deriving benchmark variants with an injected local SOCKS5 listener.
package clientcfg

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// TLS carries the optional TLS sub-structure. Insecure is a pointer so a
// config built without an explicit insecure flag omits the key entirely
// instead of serializing a default false.
type TLS struct {
	Insecure *bool  `yaml:"insecure,omitempty"`
	SNI      string `yaml:"sni,omitempty"`
}

// Bandwidth caps for the client, as accepted by Hysteria (e.g. "100 mbps").
type Bandwidth struct {
	Up   string `yaml:"up,omitempty"`
	Down string `yaml:"down,omitempty"`
}

// Listener is a local proxy listener sub-structure.
type Listener struct {
	Listen string `yaml:"listen"`
}

// Config is a Hysteria client configuration. Field order matches the
// document order the translator emits.
type Config struct {
	Server    string     `yaml:"server"`
	Auth      string     `yaml:"auth"`
	Name      string     `yaml:"name,omitempty"`
	TLS       *TLS       `yaml:"tls,omitempty"`
	Bandwidth *Bandwidth `yaml:"bandwidth,omitempty"`
	SOCKS5    *Listener  `yaml:"socks5,omitempty"`
	HTTP      *Listener  `yaml:"http,omitempty"`
}

// WriteFile serializes the config as YAML at path, creating parent
// directories as needed.
func (c *Config) WriteFile(path string) error {
	b, err := yaml.Marshal(c)
	if err != nil {
		return writeError{path: path, err: err}
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return writeError{path: path, err: err}
		}
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return writeError{path: path, err: err}
	}
	return nil
}

// readError and writeError classify config I/O failures so callers can
// skip a candidate instead of aborting a round.
type readError struct {
	path string
	err  error
}

func (e readError) Error() string { return fmt.Sprintf("read config %s: %v", e.path, e.err) }
func (e readError) Unwrap() error { return e.err }

type writeError struct {
	path string
	err  error
}

func (e writeError) Error() string { return fmt.Sprintf("write config %s: %v", e.path, e.err) }
func (e writeError) Unwrap() error { return e.err }

// IsReadError reports whether err came from reading or parsing a config file.
func IsReadError(err error) bool {
	_, ok := err.(readError)
	return ok
}

// IsWriteError reports whether err came from serializing or writing a config file.
func IsWriteError(err error) bool {
	_, ok := err.(writeError)
	return ok
}
