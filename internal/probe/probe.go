// Package probe measures reachability and round-trip latency of a local
// SOCKS5 endpoint by fetching well-known generate_204 style targets
// through it.
package probe

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/net/proxy"

	"github.com/BruceWind/HysteriaClientDocker/pkg/types"
)

// DefaultTargets are tried in priority order. Any single endpoint may be
// unreachable or geo-blocked, so several independent ones are listed.
var DefaultTargets = []string{
	"https://www.google.com/generate_204",
	"http://cp.cloudflare.com/generate_204",
	"https://www.gstatic.com/generate_204",
}

// DefaultTimeout bounds a single target attempt.
const DefaultTimeout = 10 * time.Second

// Prober checks connectivity through a SOCKS5 proxy on 127.0.0.1.
type Prober struct {
	Targets []string
	Timeout time.Duration

	// transport builds the RoundTripper for a proxy address. Tests swap it
	// for a direct transport.
	transport func(proxyAddr string) (http.RoundTripper, error)
}

// New returns a Prober over the given targets. Empty targets fall back to
// DefaultTargets, a non-positive timeout to DefaultTimeout.
func New(targets []string, timeout time.Duration) *Prober {
	if len(targets) == 0 {
		targets = DefaultTargets
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Prober{Targets: targets, Timeout: timeout, transport: socksTransport}
}

func socksTransport(proxyAddr string) (http.RoundTripper, error) {
	dialer, err := proxy.SOCKS5("tcp", proxyAddr, nil, proxy.Direct)
	if err != nil {
		return nil, err
	}
	return &http.Transport{
		Dial:                dialer.Dial,
		DisableKeepAlives:   true,
		TLSHandshakeTimeout: 5 * time.Second,
		IdleConnTimeout:     time.Second,
	}, nil
}

// Probe tries each target in order through the SOCKS5 listener on port and
// returns on the first success-class response (HTTP 200 or 204). When every
// target fails, the result of the last attempt is returned, not the best.
func (p *Prober) Probe(ctx context.Context, port int) types.ProbeResult {
	rt, err := p.transport(fmt.Sprintf("127.0.0.1:%d", port))
	if err != nil {
		return types.ProbeResult{Success: false, LatencyMs: 0, Detail: "connection error"}
	}
	client := &http.Client{Transport: rt, Timeout: p.Timeout}

	var last types.ProbeResult
	for _, target := range p.Targets {
		last = p.attempt(ctx, client, target)
		if last.Success {
			return last
		}
		if ctx.Err() != nil {
			return last
		}
	}
	return last
}

func (p *Prober) attempt(ctx context.Context, client *http.Client, target string) types.ProbeResult {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return types.ProbeResult{Success: false, LatencyMs: 0, Detail: "connection error"}
	}
	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		if isTimeout(err) {
			return types.ProbeResult{
				Success:   false,
				LatencyMs: float64(p.Timeout) / float64(time.Millisecond),
				Detail:    "timeout",
			}
		}
		return types.ProbeResult{Success: false, LatencyMs: 0, Detail: "connection error"}
	}
	defer resp.Body.Close()
	latency := float64(time.Since(start)) / float64(time.Millisecond)
	if resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusNoContent {
		return types.ProbeResult{Success: true, LatencyMs: latency, Detail: "Success"}
	}
	return types.ProbeResult{
		Success:   false,
		LatencyMs: latency,
		Detail:    fmt.Sprintf("HTTP %d", resp.StatusCode),
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ue *url.Error
	if errors.As(err, &ue) && ue.Timeout() {
		return true
	}
	return false
}
