package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/BruceWind/HysteriaClientDocker/internal/bench"
	"github.com/BruceWind/HysteriaClientDocker/internal/common/fsutil"
	"github.com/BruceWind/HysteriaClientDocker/internal/config"
	"github.com/BruceWind/HysteriaClientDocker/internal/httpapi"
	"github.com/BruceWind/HysteriaClientDocker/internal/probe"
	"github.com/BruceWind/HysteriaClientDocker/internal/proc"
	"github.com/BruceWind/HysteriaClientDocker/internal/registry"
	"github.com/BruceWind/HysteriaClientDocker/internal/supervisor"
	"github.com/BruceWind/HysteriaClientDocker/pkg/types"
)

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// splitCSV splits a comma-separated flag value, trimming spaces and
// dropping empty items.
func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

// apiService adapts the supervisor and scheduler to the HTTP layer.
type apiService struct {
	sup   *supervisor.Supervisor
	sched *supervisor.Scheduler
	base  context.Context
}

func (a *apiService) Status() types.StatusResponse { return a.sup.Status() }

func (a *apiService) Results() types.ResultsResponse {
	finished, results := a.sched.LastResults()
	resp := types.ResultsResponse{Results: results}
	if !finished.IsZero() {
		resp.FinishedUnix = finished.Unix()
	}
	return resp
}

func (a *apiService) TriggerEvaluation() error { return a.sched.RunAsync(a.base) }

func (a *apiService) Ready() bool {
	_, ok := a.sup.Current()
	return ok
}

func main() {
	// Flags with environment variable defaults
	addr := flag.String("addr", envStr("HYSTERIAD_ADDR", ":8080"), "HTTP status API listen address (empty disables the API)")
	configDir := flag.String("dir", envStr("HYSTERIAD_CONFIG_DIR", "./configs"), "Directory to scan for candidate *.yaml client configs")
	bin := flag.String("bin", envStr("HYSTERIAD_BIN", "hysteria"), "Path to the hysteria client binary")
	interval := flag.Int("interval", envInt("HYSTERIAD_INTERVAL", 300), "Seconds between evaluation rounds")
	basePort := flag.Int("base-port", envInt("HYSTERIAD_BASE_PORT", 18080), "First local SOCKS5 port handed to benchmark children")
	switchPolicy := flag.String("switch-policy", envStr("HYSTERIAD_SWITCH_POLICY", "always"), "Winner adoption policy: always|hysteresis")
	stateFile := flag.String("state-file", envStr("HYSTERIAD_STATE_FILE", "/tmp/current_config.json"), "Path of the persisted winner record (empty disables persistence)")
	initialConfig := flag.String("config", envStr("HYSTERIAD_INITIAL_CONFIG", ""), "Config name to start before the first round (default: resume persisted winner)")
	logLevel := flag.String("log-level", envStr("HYSTERIAD_LOG_LEVEL", "info"), "Log level: debug|info|warn|error")
	corsOrigins := flag.String("cors-origins", envStr("HYSTERIAD_CORS_ORIGINS", ""), "Comma-separated CORS origins for the status API (empty disables CORS)")
	cfgFile := flag.String("config-file", envStr("HYSTERIAD_CONFIG_FILE", ""), "Optional daemon settings file (.yaml/.json/.toml); explicit flags win")
	flag.Parse()

	if *cfgFile != "" {
		fileCfg, err := config.Load(*cfgFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "load settings file: %v\n", err)
			os.Exit(1)
		}
		set := map[string]bool{}
		flag.Visit(func(f *flag.Flag) { set[f.Name] = true })
		applyFileConfig(fileCfg, set, addr, configDir, bin, interval, basePort, switchPolicy, stateFile, initialConfig, logLevel)
	}

	lvl, err := zerolog.ParseLevel(*logLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid log level %q\n", *logLevel)
		os.Exit(1)
	}
	log := zerolog.New(os.Stderr).With().Timestamp().Logger().Level(lvl)

	dir, err := fsutil.ExpandHome(*configDir)
	if err != nil {
		log.Fatal().Err(err).Msg("resolve config dir")
	}
	if !fsutil.PathExists(dir) {
		log.Fatal().Str("dir", dir).Msg("config dir does not exist")
	}

	policy, err := supervisor.ParsePolicy(*switchPolicy)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid switch policy")
	}

	launcher := &proc.ExecLauncher{Bin: *bin}
	prober := probe.New(nil, 0)
	runner := bench.NewBenchmarker(launcher, prober, log)
	fleet := bench.NewFleet(dir, *basePort, runner, log)

	sup := supervisor.New(supervisor.Config{
		ConfigDir: dir,
		Launcher:  launcher,
		StateFile: *stateFile,
		Policy:    policy,
		Log:       log,
	})

	sched := &supervisor.Scheduler{
		Interval:  time.Duration(*interval) * time.Second,
		Evaluator: fleet,
		Sup:       sup,
		Log:       log,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start an initial client before the first round: explicit --config wins,
	// otherwise resume the persisted winner from the previous run.
	if name := initialName(log, dir, *initialConfig, *stateFile); name != "" {
		latency := resumedLatency(*stateFile, name)
		if err := sup.Start(ctx, name, latency); err != nil {
			if *initialConfig != "" {
				log.Fatal().Err(err).Str("config", name).Msg("initial config failed to start")
			}
			log.Warn().Err(err).Str("config", name).Msg("persisted winner failed to start, waiting for first round")
		}
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		sched.Run(ctx)
	}()

	var srv *http.Server
	if *addr != "" {
		httpapi.SetLogger(log)
		if origins := splitCSV(*corsOrigins); len(origins) > 0 {
			httpapi.SetCORSOptions(true, origins,
				[]string{"GET", "POST", "OPTIONS"},
				[]string{"Content-Type"})
		}
		mux := httpapi.NewMux(&apiService{sup: sup, sched: sched, base: ctx})
		srv = &http.Server{Addr: *addr, Handler: mux}
		go func() {
			log.Info().Str("addr", *addr).Str("dir", dir).Msg("hysteriad listening")
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatal().Err(err).Msg("server error")
			}
		}()
	} else {
		log.Info().Str("dir", dir).Msg("hysteriad running without status API")
	}

	<-ctx.Done()
	if srv != nil {
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutCtx); err != nil {
			log.Warn().Err(err).Msg("graceful shutdown error")
		}
	}
	// Scheduler stops the production child on its way out.
	wg.Wait()
}

// applyFileConfig copies settings-file values into flags the user did not
// set explicitly on the command line.
func applyFileConfig(fileCfg config.Config, set map[string]bool, addr, configDir, bin *string, interval, basePort *int, switchPolicy, stateFile, initialConfig, logLevel *string) {
	if fileCfg.Addr != "" && !set["addr"] {
		*addr = fileCfg.Addr
	}
	if fileCfg.ConfigDir != "" && !set["dir"] {
		*configDir = fileCfg.ConfigDir
	}
	if fileCfg.Bin != "" && !set["bin"] {
		*bin = fileCfg.Bin
	}
	if fileCfg.IntervalSeconds > 0 && !set["interval"] {
		*interval = fileCfg.IntervalSeconds
	}
	if fileCfg.BasePort > 0 && !set["base-port"] {
		*basePort = fileCfg.BasePort
	}
	if fileCfg.SwitchPolicy != "" && !set["switch-policy"] {
		*switchPolicy = fileCfg.SwitchPolicy
	}
	if fileCfg.StateFile != "" && !set["state-file"] {
		*stateFile = fileCfg.StateFile
	}
	if fileCfg.InitialConfig != "" && !set["config"] {
		*initialConfig = fileCfg.InitialConfig
	}
	if fileCfg.LogLevel != "" && !set["log-level"] {
		*logLevel = fileCfg.LogLevel
	}
}

// initialName decides which config, if any, to start before the first
// evaluation round. An explicit name that is missing from the directory is
// fatal; a stale persisted winner is only a warning.
func initialName(log zerolog.Logger, dir, explicit, stateFile string) string {
	if explicit != "" {
		if _, ok, err := registry.Lookup(dir, explicit); err != nil || !ok {
			log.Fatal().Str("config", explicit).Msg("requested config not found in config dir")
		}
		return explicit
	}
	state, ok, err := supervisor.LoadState(stateFile)
	if err != nil {
		log.Warn().Err(err).Msg("could not read persisted winner, waiting for first round")
		return ""
	}
	if !ok {
		return ""
	}
	if _, ok, err := registry.Lookup(dir, state.Config); err != nil || !ok {
		log.Warn().Str("config", state.Config).Msg("persisted winner no longer in config dir, waiting for first round")
		return ""
	}
	log.Info().Str("config", state.Config).Str("since", state.Timestamp).Msg("resuming persisted winner")
	return state.Config
}

// resumedLatency recovers the recorded latency for a resumed winner so the
// hysteresis policy has a baseline to compare against.
func resumedLatency(stateFile, name string) float64 {
	state, ok, err := supervisor.LoadState(stateFile)
	if err != nil || !ok || state.Config != name {
		return 0
	}
	return state.LatencyMs
}
