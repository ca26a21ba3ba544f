package scan

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	sessionsStarted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scan_sessions_started_total",
			Help: "Scan sessions opened, by decoder backend",
		},
		[]string{"backend"},
	)

	framesObserved = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scan_frames_total",
			Help: "Frames run through a decoder, by backend and outcome",
		},
		[]string{"backend", "outcome"}, // decoded | no_code | error
	)

	scansConfirmed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scan_confirmed_total",
			Help: "Scans accepted by the consensus engine, by backend",
		},
		[]string{"backend"},
	)

	readsToConfirm = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "scan_reads_to_confirm",
			Help:    "Raw reads collected before a scan was confirmed",
			Buckets: []float64{1, 2, 3, 4, 5},
		},
	)
)
