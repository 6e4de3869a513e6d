// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package feedback turns lock events into something a person can see:
// LEDs, the OLED, log lines, and MQTT/NATS messages for remote UIs.
// It also holds the trigger inputs (button, MQTT) that feed the lock.
package feedback

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/relabs-tech/gesture_lock/internal/auth"
)

var metricDropped = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "gesture_lock",
	Name:      "feedback_dropped_events_total",
	Help:      "Events dropped because a feedback sink fell behind.",
}, []string{"sink"})

// Fanout delivers every event to each sink in order.
type Fanout []auth.Sink

func (f Fanout) Notify(e auth.Event) {
	for _, s := range f {
		s.Notify(e)
	}
}

// LogSink writes events to the log; progress ticks only at debug level.
type LogSink struct {
	Log *zap.SugaredLogger
}

func (l LogSink) Notify(e auth.Event) {
	switch e.Kind {
	case auth.EventEnrollProgress, auth.EventVerifyProgress:
		l.Log.Debugf("%s %d/%d", e.Kind, e.Sample, e.Samples)
	case auth.EventAccept, auth.EventReject:
		l.Log.Infow(string(e.Kind), "session", e.SessionID, "distances", e.Distances, "degenerate", e.Degenerate)
	default:
		l.Log.Infow(string(e.Kind), "session", e.SessionID, "state", e.State.String())
	}
}

// Async runs a sink on its own goroutine so the sampling loop never waits
// on it. When the queue is full the event is dropped.
type Async struct {
	name string
	sink auth.Sink
	ch   chan auth.Event
	done chan struct{}
	log  *zap.SugaredLogger
}

// NewAsync starts the worker goroutine. Call Close to drain and stop it.
func NewAsync(name string, sink auth.Sink, queue int, log *zap.SugaredLogger) *Async {
	if queue < 1 {
		queue = 1
	}
	a := &Async{
		name: name,
		sink: sink,
		ch:   make(chan auth.Event, queue),
		done: make(chan struct{}),
		log:  log,
	}
	go a.run()
	return a
}

func (a *Async) run() {
	defer close(a.done)
	for e := range a.ch {
		a.sink.Notify(e)
	}
}

// Notify queues e without blocking.
func (a *Async) Notify(e auth.Event) {
	select {
	case a.ch <- e:
	default:
		metricDropped.WithLabelValues(a.name).Inc()
		a.log.Warnf("feedback %s: queue full, dropping %s event", a.name, e.Kind)
	}
}

// Close delivers what is queued and stops the worker. Notify must not be
// called after Close.
func (a *Async) Close() {
	close(a.ch)
	<-a.done
}
