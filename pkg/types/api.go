package types

// StatusResponse is returned by GET /status.
type StatusResponse struct {
	// Supervisor lifecycle state (stopped, starting, running, stopping).
	// example: running
	State string `json:"state" example:"running"`
	// Name of the config the production child is running with, if any.
	// example: V5-fast
	RunningConfig string `json:"running_config,omitempty" example:"V5-fast"`
	// PID of the production child (0 when stopped).
	// example: 12345
	PID int `json:"pid,omitempty" example:"12345"`
	// Latency recorded when the running config was adopted (ms).
	// example: 45.2
	LastLatencyMs float64 `json:"last_latency_ms,omitempty" example:"45.2"`
	// Active switch policy (always or hysteresis).
	// example: always
	SwitchPolicy string `json:"switch_policy" example:"always"`
	// Completed evaluation rounds since start.
	// example: 12
	RoundsTotal uint64 `json:"rounds_total" example:"12"`
	// Config switches performed since start.
	// example: 3
	SwitchesTotal uint64 `json:"switches_total" example:"3"`
	// Crash-recovery restarts since start.
	// example: 1
	CrashRestartsTotal uint64 `json:"crash_restarts_total" example:"1"`
	// Uptime of the daemon in seconds.
	// example: 3600
	UptimeSeconds int64 `json:"uptime_seconds" example:"3600"`
	// Server time in unix seconds.
	// example: 1700000000
	ServerTimeUnix int64 `json:"server_time_unix" example:"1700000000"`
}

// ResultsResponse wraps the ranked results of the most recent evaluation
// round for GET /results.
type ResultsResponse struct {
	// Unix seconds the round finished; 0 when no round has run yet.
	// example: 1700000000
	FinishedUnix int64 `json:"finished_unix" example:"1700000000"`
	// Results sorted best-first (successes ascending by latency, then failures).
	Results []BenchmarkResult `json:"results"`
}

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	// Error message.
	// example: evaluation already in progress
	Error string `json:"error" example:"evaluation already in progress"`
	// HTTP status code.
	// example: 409
	Code int `json:"code" example:"409"`
}
