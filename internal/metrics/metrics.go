package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	PageLoads = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "rips_import",
		Name:      "page_loads_total",
		Help:      "Page loads handled by the import driver, by page.",
	}, []string{"page"})
	ClientsSkipped = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "rips_import",
		Name:      "clients_skipped_total",
		Help:      "Records abandoned with a diagnostic.",
	})
	ClientsRegistered = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "rips_import",
		Name:      "clients_registered_total",
		Help:      "Records submitted on the registration page.",
	})
	ClientsMatched = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "rips_import",
		Name:      "clients_matched_total",
		Help:      "Records matched to exactly one existing client.",
	})
	ServicesAdded = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "rips_import",
		Name:      "services_added_total",
		Help:      "Services submitted for a client.",
	})
	ActionsAdded = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "rips_import",
		Name:      "actions_added_total",
		Help:      "Actions submitted for a client service.",
	})
	FieldFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "rips_import",
		Name:      "field_failures_total",
		Help:      "Form fields that could not be filled.",
	})
	ImportsFinished = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "rips_import",
		Name:      "imports_finished_total",
		Help:      "Batches that ran through every record.",
	})
	ImportsAborted = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "rips_import",
		Name:      "imports_aborted_total",
		Help:      "Batches stopped before the last record.",
	})
)

// Collectors lists every collector in this package.
func Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		PageLoads, ClientsSkipped, ClientsRegistered, ClientsMatched,
		ServicesAdded, ActionsAdded, FieldFailures, ImportsFinished, ImportsAborted,
	}
}

// Init registers collectors; call once from main.
func Init() {
	prometheus.MustRegister(Collectors()...)
}

// Serve starts a /metrics server on addr (e.g. ":9090"). It blocks; run it
// in a goroutine. An empty addr disables the server.
func Serve(addr string) error {
	if addr == "" {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return http.ListenAndServe(addr, mux)
}
