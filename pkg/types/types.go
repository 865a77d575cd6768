package types

// Candidate is a named, file-backed client config eligible for benchmarking.
type Candidate struct {
	// Stable identifier derived from the filename (without extension).
	// example: V5-fast
	Name string `json:"name" example:"V5-fast"`
	// Absolute path to the base config file on disk.
	// example: /etc/hysteria/V5-fast.yaml
	Path string `json:"path" example:"/etc/hysteria/V5-fast.yaml"`
}

// ProbeResult is the outcome of one reachability check through a local
// SOCKS5 endpoint. LatencyMs is meaningful only when Success is true; on
// failure it holds a display-only sentinel (0 or the timeout duration).
type ProbeResult struct {
	Success   bool    `json:"success"`
	LatencyMs float64 `json:"latency_ms"`
	Detail    string  `json:"detail"`
}

// BenchmarkResult tags a ProbeResult with the candidate it belongs to.
// Produced once per candidate per evaluation round.
type BenchmarkResult struct {
	// Candidate config name.
	// example: V5-fast
	Config string `json:"config" example:"V5-fast"`
	// Whether any probe target answered with a success-class response.
	Success bool `json:"success"`
	// Round-trip latency in milliseconds (valid only on success).
	// example: 45.2
	LatencyMs float64 `json:"latency_ms" example:"45.2"`
	// Human-readable outcome, e.g. "Success", "timeout", "HTTP 403".
	Detail string `json:"detail" example:"Success"`
}

// WinnerState is the persisted record of the last adopted config so a
// supervisor restart can resume without re-benchmarking immediately.
type WinnerState struct {
	// Name of the adopted config.
	// example: V5-fast
	Config string `json:"config" example:"V5-fast"`
	// Latency measured when the config was adopted, in milliseconds.
	// example: 45.2
	LatencyMs float64 `json:"latency" example:"45.2"`
	// RFC 3339 time of adoption.
	// example: 2024-05-01T12:00:00Z
	Timestamp string `json:"timestamp" example:"2024-05-01T12:00:00Z"`
}
