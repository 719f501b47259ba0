// Package metrics owns the process Prometheus registry and the ringroster collectors
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "ringroster"

// Registry bundles the collectors a process exposes
type Registry struct {
	reg     *prometheus.Registry
	Sync    *Sync
	Uploads *Uploads
}

// New builds a registry with the Go and process collectors plus the ringroster ones
func New() *Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	r := &Registry{reg: reg, Sync: newSync(), Uploads: newUploads()}
	r.Sync.register(reg)
	r.Uploads.register(reg)
	return r
}

// Handler serves the registry in the text exposition format
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{Registry: r.reg})
}

// Gatherer exposes the registry to tests and pushers
func (r *Registry) Gatherer() prometheus.Gatherer { return r.reg }

// Sync counts list synchronization events; it satisfies contactsync.Metrics
type Sync struct {
	pages      prometheus.Counter
	added      prometheus.Counter
	duplicates prometheus.Counter
	stale      prometheus.Counter
	failures   prometheus.Counter
	resets     prometheus.Counter
}

func counter(subsystem, name, help string) prometheus.Counter {
	return prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      name,
		Help:      help,
	})
}

func newSync() *Sync {
	return &Sync{
		pages:      counter("sync", "pages_merged_total", "Pages merged into the current generation."),
		added:      counter("sync", "records_added_total", "Records appended to the accumulated list."),
		duplicates: counter("sync", "duplicates_dropped_total", "Records dropped because their id was already listed."),
		stale:      counter("sync", "stale_discards_total", "Fetch results discarded for a superseded generation."),
		failures:   counter("sync", "fetch_failures_total", "Page fetches that failed."),
		resets:     counter("sync", "resets_total", "Generations started."),
	}
}

func (s *Sync) register(reg prometheus.Registerer) {
	reg.MustRegister(s.pages, s.added, s.duplicates, s.stale, s.failures, s.resets)
}

func (s *Sync) PageMerged(added, dropped int) {
	s.pages.Inc()
	s.added.Add(float64(added))
	s.duplicates.Add(float64(dropped))
}

func (s *Sync) StaleDiscarded() { s.stale.Inc() }
func (s *Sync) FetchFailed()    { s.failures.Inc() }
func (s *Sync) Reset()          { s.resets.Inc() }

// Uploads counts bulk upload outcomes
type Uploads struct {
	uploads prometheus.Counter
	rows    *prometheus.CounterVec
}

func newUploads() *Uploads {
	return &Uploads{
		uploads: counter("uploads", "total", "Bulk uploads processed."),
		rows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "uploads",
			Name:      "rows_total",
			Help:      "Uploaded rows by result.",
		}, []string{"result"}),
	}
}

func (u *Uploads) register(reg prometheus.Registerer) {
	reg.MustRegister(u.uploads, u.rows)
}

// Observe records one finished upload; safe on a nil receiver so callers need no guard
func (u *Uploads) Observe(success, failure int) {
	if u == nil {
		return
	}
	u.uploads.Inc()
	u.rows.WithLabelValues("success").Add(float64(success))
	u.rows.WithLabelValues("failure").Add(float64(failure))
}
