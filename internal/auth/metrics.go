// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package auth

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricSessions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gesture_lock",
		Name:      "sessions_started_total",
		Help:      "Recording sessions started, by mode.",
	}, []string{"mode"})

	metricDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gesture_lock",
		Name:      "decisions_total",
		Help:      "Verification outcomes.",
	}, []string{"outcome"})

	metricIgnoredTriggers = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gesture_lock",
		Name:      "ignored_triggers_total",
		Help:      "Triggers dropped because the lock was in the wrong state.",
	}, []string{"trigger", "state"})

	metricAxisDistance = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "gesture_lock",
		Name:      "axis_distance",
		Help:      "Per-axis DTW distance of verification attempts (sentinel distances excluded).",
		Buckets:   prometheus.ExponentialBuckets(0.5, 2, 12),
	}, []string{"axis"})

	metricSegmentLength = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "gesture_lock",
		Name:      "segment_length",
		Help:      "Samples kept by the segmenter, per axis.",
		Buckets:   prometheus.LinearBuckets(0, 10, 7),
	}, []string{"axis"})

	metricState = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "gesture_lock",
		Name:      "state",
		Help:      "Current state: 0 idle, 1 enrolling, 2 locked, 3 verifying.",
	})
)
