package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	AdapterRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "contactfinder_adapter_runs_total",
			Help: "Research method runs by terminal status",
		},
		[]string{"method", "status", "error_kind"},
	)

	AdapterDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "contactfinder_adapter_duration_seconds",
			Help:    "Wall time of research method runs including retries",
			Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60, 120},
		},
		[]string{"method"},
	)

	RawContactsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "contactfinder_raw_contacts_total",
			Help: "Raw contact candidates returned by research methods",
		},
		[]string{"method"},
	)

	ScrapedPagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "contactfinder_scraped_pages_total",
			Help: "Pages fetched by the website scraper",
		},
		[]string{"status", "blocked_by"},
	)

	ResearchRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "contactfinder_research_runs_total",
			Help: "Completed research runs",
		},
		[]string{"outcome"},
	)
)

// RecordAdapterRun updates run counters and the duration histogram.
func RecordAdapterRun(method, status, errorKind string, contacts int, took time.Duration) {
	AdapterRunsTotal.WithLabelValues(method, status, errorKind).Inc()
	AdapterDuration.WithLabelValues(method).Observe(took.Seconds())
	if contacts > 0 {
		RawContactsTotal.WithLabelValues(method).Add(float64(contacts))
	}
}

// RecordPage counts one scraper fetch; status 0 means a transport error.
func RecordPage(status int, blockedBy string) {
	label := strconv.Itoa(status)
	if status == 0 {
		label = "error"
	}
	ScrapedPagesTotal.WithLabelValues(label, blockedBy).Inc()
}

// RecordResearch counts a finished research run.
func RecordResearch(cancelled bool, contacts int) {
	outcome := "completed"
	switch {
	case cancelled:
		outcome = "cancelled"
	case contacts == 0:
		outcome = "empty"
	}
	ResearchRunsTotal.WithLabelValues(outcome).Inc()
}

// Handler exposes the default registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}
