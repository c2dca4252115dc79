// Package metrics holds the Prometheus collectors of a generation run.
package metrics

import (
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "basquet"

// Run outcomes.
const (
	OutcomeOK        = "ok"
	OutcomeNoMatches = "no_matches"
	OutcomeError     = "error"
)

// Metrics is safe for concurrent use. A nil *Metrics records nothing.
type Metrics struct {
	fetchTotal   *prometheus.CounterVec
	matches      prometheus.Gauge
	skipped      prometheus.Counter
	duplicates   prometheus.Counter
	duration     prometheus.Histogram
	runsTotal    *prometheus.CounterVec
	httpRequests *prometheus.CounterVec
}

// New registers the collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		fetchTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_total",
			Help:      "Upstream fetches by source and status",
		}, []string{"source", "status"}),
		matches: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "matches_extracted",
			Help:      "Matches of the configured team found by the last run",
		}),
		skipped: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_skipped_total",
			Help:      "Matches dropped because they could not be serialized",
		}),
		duplicates: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "duplicates_dropped_total",
			Help:      "Matches dropped as duplicates of an earlier one",
		}),
		duration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "generation_duration_seconds",
			Help:      "Time spent fetching, extracting and rendering a calendar",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
		}),
		runsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Generation runs by outcome",
		}, []string{"outcome"}),
		httpRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Calendar HTTP requests by method and code",
		}, []string{"method", "code"}),
	}
}

func (m *Metrics) Fetch(source string, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.fetchTotal.WithLabelValues(source, status).Inc()
}

func (m *Metrics) Extracted(n int) {
	if m == nil {
		return
	}
	m.matches.Set(float64(n))
}

func (m *Metrics) Skipped(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.skipped.Add(float64(n))
}

func (m *Metrics) Duplicates(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.duplicates.Add(float64(n))
}

// Run records a finished run started at start.
func (m *Metrics) Run(outcome string, start time.Time) {
	if m == nil {
		return
	}
	m.runsTotal.WithLabelValues(outcome).Inc()
	m.duration.Observe(time.Since(start).Seconds())
}

// Instrument counts requests served by h.
func (m *Metrics) Instrument(h http.Handler) http.Handler {
	if m == nil {
		return h
	}
	return promhttp.InstrumentHandlerCounter(m.httpRequests, h)
}

// Dump renders every series of g on one line, for modes that have no /metrics
// endpoint to scrape. Histograms are reported by count and sum.
func Dump(g prometheus.Gatherer) (string, error) {
	families, err := g.Gather()
	if err != nil {
		return "", err
	}

	var series []string
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			var labels []string
			for _, l := range m.GetLabel() {
				labels = append(labels, fmt.Sprintf("%s=%q", l.GetName(), l.GetValue()))
			}
			name := mf.GetName()
			if len(labels) > 0 {
				name += "{" + strings.Join(labels, ",") + "}"
			}

			switch {
			case m.GetCounter() != nil:
				series = append(series, fmt.Sprintf("%s=%g", name, m.GetCounter().GetValue()))
			case m.GetGauge() != nil:
				series = append(series, fmt.Sprintf("%s=%g", name, m.GetGauge().GetValue()))
			case m.GetHistogram() != nil:
				h := m.GetHistogram()
				series = append(series, fmt.Sprintf("%s_count=%d", name, h.GetSampleCount()))
				series = append(series, fmt.Sprintf("%s_sum=%g", name, h.GetSampleSum()))
			}
		}
	}
	sort.Strings(series)
	return strings.Join(series, " "), nil
}
