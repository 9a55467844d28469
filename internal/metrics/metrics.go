// Package metrics records update outcomes as prometheus collectors.
package metrics

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/adamancini/updsync/internal/provider"
	"github.com/adamancini/updsync/internal/types"
	"github.com/adamancini/updsync/internal/update"
)

const namespace = "updsync"

var trackLabels = []string{"track"}

// Metrics holds the update collectors in a private registry.
type Metrics struct {
	registry *prometheus.Registry

	transitions     *prometheus.CounterVec
	failures        *prometheus.CounterVec
	downloadedBytes *prometheus.GaugeVec
	lastSuccess     *prometheus.GaugeVec

	mu   sync.Mutex
	last map[types.Track]update.StateKind
}

// New creates the collectors.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		transitions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "state_transitions_total",
			Help:      "Count of state transitions per track and entered state",
		}, append(trackLabels, "state")),
		failures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "failures_total",
			Help:      "Count of failed operations per track and reason",
		}, append(trackLabels, "reason")),
		downloadedBytes: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "download_bytes",
			Help:      "Bytes downloaded by the current or last download",
		}, trackLabels),
		lastSuccess: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last successful update",
		}, trackLabels),
		last: make(map[types.Track]update.StateKind),
	}
}

// Registry returns the registry holding the collectors.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Hook returns an orchestrator hook feeding the collectors.
func (m *Metrics) Hook() update.Hook {
	return m.observe
}

func (m *Metrics) observe(track types.Track, st update.State) {
	label := track.String()

	m.mu.Lock()
	prev, seen := m.last[track]
	m.last[track] = st.Kind()
	m.mu.Unlock()

	if s, ok := st.(update.Downloading); ok {
		m.downloadedBytes.WithLabelValues(label).Set(float64(s.Progress.Downloaded))
	}
	if seen && prev == st.Kind() {
		return
	}

	m.transitions.WithLabelValues(label, st.Kind().String()).Inc()
	switch s := st.(type) {
	case update.Failed:
		m.failures.WithLabelValues(label, Reason(s.Err)).Inc()
	case update.Success:
		m.lastSuccess.WithLabelValues(label).SetToCurrentTime()
	}
}

// WriteTextfile writes the collectors in the text exposition format, for the
// node exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}

// Reason returns a low-cardinality label for err.
func Reason(err provider.UpdateError) string {
	switch e := err.(type) {
	case provider.NetworkError:
		return "network"
	case provider.ServiceUnavailable:
		return "service_unavailable"
	case provider.BusinessError:
		return fmt.Sprintf("business_%d", e.Code())
	case provider.EntitlementRequired:
		return "entitlement_required"
	case provider.ExtractionError:
		return "extraction"
	case provider.InstallError:
		return "install"
	default:
		return "unknown"
	}
}
