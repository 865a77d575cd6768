package supervisor

import "github.com/prometheus/client_golang/prometheus"

var (
	switchesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "hysteriad",
		Subsystem: "supervisor",
		Name:      "switches_total",
		Help:      "Production config switches performed",
	})

	crashRestartsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "hysteriad",
		Subsystem: "supervisor",
		Name:      "crash_restarts_total",
		Help:      "Crash-recovery restarts of the production child",
	})

	startFailuresTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "hysteriad",
		Subsystem: "supervisor",
		Name:      "start_failures_total",
		Help:      "Failed production start attempts",
	})

	childUp = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "hysteriad",
		Subsystem: "supervisor",
		Name:      "child_up",
		Help:      "1 while a production child is running",
	})
)

func init() {
	prometheus.MustRegister(switchesTotal, crashRestartsTotal, startFailuresTotal, childUp)
}
