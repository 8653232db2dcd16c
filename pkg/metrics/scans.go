package metrics

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

// ScanMetrics records scan endpoint outcomes.
type ScanMetrics struct {
	scans    *prometheus.CounterVec
	failures *prometheus.CounterVec
}

// NewScanMetrics registers the scan metrics on the provided registerer.
func NewScanMetrics(reg prometheus.Registerer) *ScanMetrics {
	if reg == nil {
		return &ScanMetrics{}
	}
	scans := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "qr_scans_total",
		Help: "Successful QR code scans by destination type.",
	}, []string{"destination"})
	failures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "qr_scan_failures_total",
		Help: "Failed QR code scans by reason.",
	}, []string{"reason"})
	reg.MustRegister(scans, failures)
	return &ScanMetrics{
		scans:    scans,
		failures: failures,
	}
}

// IncScan increments the scan counter for the given destination type.
func (s *ScanMetrics) IncScan(destination string) {
	if s == nil || s.scans == nil {
		return
	}
	s.scans.WithLabelValues(normalizeLabel(destination)).Inc()
}

// IncFailure increments the failure counter for the given reason.
func (s *ScanMetrics) IncFailure(reason string) {
	if s == nil || s.failures == nil {
		return
	}
	s.failures.WithLabelValues(normalizeLabel(reason)).Inc()
}

func normalizeLabel(value string) string {
	trimmed := strings.TrimSpace(strings.ToLower(value))
	if trimmed == "" {
		return "unknown"
	}
	return strings.ReplaceAll(trimmed, " ", "_")
}
