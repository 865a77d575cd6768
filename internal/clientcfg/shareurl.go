package clientcfg

import (
	"fmt"
	"net/url"
	"strings"
	"unicode"
)

// DefaultName is used when a share URL carries no fragment.
const DefaultName = "Hysteria Client"

// ParseShareURL parses a hysteria2:// share URL into a client config.
//
// Example:
//
//	hysteria2://57903c8f@vs5.example.top:57022?insecure=1&sni=www.bing.com#V5-fast
//
// Userinfo is the auth credential, host:port the server (port defaults to
// 443), the fragment the display name. Recognized query parameters:
// insecure (1/true/yes), sni, up/down bandwidth caps, socks5 and http
// listener overrides. Unless overridden, the config exposes SOCKS5 on
// 0.0.0.0:1080 and HTTP on 0.0.0.0:1089.
func ParseShareURL(raw string) (*Config, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse url: %w", err)
	}
	if u.Scheme != "hysteria2" {
		return nil, fmt.Errorf("unsupported scheme %q, expected hysteria2", u.Scheme)
	}
	if u.User == nil || u.User.Username() == "" {
		return nil, fmt.Errorf("missing auth credential in url")
	}
	host := u.Hostname()
	if host == "" {
		return nil, fmt.Errorf("missing server host in url")
	}
	port := u.Port()
	if port == "" {
		port = "443"
	}

	cfg := &Config{
		Server: host + ":" + port,
		Auth:   u.User.Username(),
		Name:   DefaultName,
	}
	if u.Fragment != "" {
		cfg.Name = u.Fragment
	}

	q := u.Query()

	var tls TLS
	if v, ok := firstQuery(q, "insecure"); ok {
		insecure := parseBool(v)
		tls.Insecure = &insecure
	}
	if v, ok := firstQuery(q, "sni"); ok {
		tls.SNI = v
	}
	if tls.Insecure != nil || tls.SNI != "" {
		cfg.TLS = &tls
	}

	// down only accompanies up, matching the translator contract.
	if up, ok := firstQuery(q, "up"); ok {
		bw := &Bandwidth{Up: up}
		if down, ok := firstQuery(q, "down"); ok {
			bw.Down = down
		}
		cfg.Bandwidth = bw
	}

	cfg.SOCKS5 = &Listener{Listen: "0.0.0.0:1080"}
	if v, ok := firstQuery(q, "socks5"); ok {
		cfg.SOCKS5.Listen = v
	}
	cfg.HTTP = &Listener{Listen: "0.0.0.0:1089"}
	if v, ok := firstQuery(q, "http"); ok {
		cfg.HTTP.Listen = v
	}

	return cfg, nil
}

func firstQuery(q url.Values, key string) (string, bool) {
	vs, ok := q[key]
	if !ok || len(vs) == 0 {
		return "", false
	}
	return vs[0], true
}

func parseBool(v string) bool {
	switch strings.ToLower(v) {
	case "1", "true", "yes":
		return true
	}
	return false
}

// SanitizeName converts a display name into a safe filename stem: only
// letters, digits, space, dash and underscore survive, and spaces become
// underscores. Non-ASCII letters (common in share-URL names) are kept.
func SanitizeName(name string) string {
	var b strings.Builder
	for _, r := range name {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == ' ' || r == '-' || r == '_' {
			b.WriteRune(r)
		}
	}
	return strings.ReplaceAll(strings.TrimSpace(b.String()), " ", "_")
}
