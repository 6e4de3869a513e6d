// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package auth

import (
	"time"

	"go.uber.org/zap"

	"github.com/relabs-tech/gesture_lock/internal/dtw"
	"github.com/relabs-tech/gesture_lock/internal/gyro"
	"github.com/relabs-tech/gesture_lock/internal/motion"
)

// Settings are the tunables of a Machine.
type Settings struct {
	Samples   int // N, samples per session
	Deadband  motion.Deadband
	Threshold float64
}

// DefaultSettings matches the shipped configuration: 60 samples (3 s at
// 20 Hz) and a ±0.4 deadband around the sigmoid rest level.
func DefaultSettings() Settings {
	return Settings{
		Samples:   60,
		Deadband:  motion.DefaultDeadband,
		Threshold: DefaultThreshold,
	}
}

// Machine drives enrollment and verification. It is not safe for
// concurrent use: one goroutine feeds it triggers and frames.
type Machine struct {
	settings  Settings
	segmenter motion.Segmenter
	policy    Policy
	sink      Sink
	log       *zap.SugaredLogger
	now       func() time.Time

	// reused by every session; segments copy out of them
	buffers [3]*motion.Buffer

	state       State
	session     *Session
	lastSession string
	template    *Template
}

// NewMachine returns a machine in Idle. sink may be nil.
func NewMachine(s Settings, sink Sink, log *zap.SugaredLogger) *Machine {
	if sink == nil {
		sink = SinkFunc(func(Event) {})
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	m := &Machine{
		settings:  s,
		segmenter: motion.Segmenter{Deadband: s.Deadband},
		policy:    Policy{Threshold: s.Threshold},
		sink:      sink,
		log:       log,
		now:       time.Now,
	}
	for i := range m.buffers {
		m.buffers[i] = motion.NewBuffer(s.Samples)
	}
	metricState.Set(float64(m.state))
	return m
}

// State returns the current state.
func (m *Machine) State() State { return m.state }

// Settings returns the machine's tunables.
func (m *Machine) Settings() Settings { return m.settings }

// Template returns the enrolled template, if any.
func (m *Machine) Template() (Template, bool) {
	if m.template == nil {
		return Template{}, false
	}
	return *m.template, true
}

// Session returns the recording in progress, or nil.
func (m *Machine) Session() *Session { return m.session }

// Handle dispatches a trigger and reports whether it was accepted.
func (m *Machine) Handle(t Trigger) bool {
	switch t {
	case TriggerEnroll:
		return m.StartEnrollment()
	case TriggerVerify:
		return m.StartVerification()
	case TriggerPress:
		return m.Press()
	default:
		m.log.Warnf("unknown trigger %d", int(t))
		return false
	}
}

// Press is the single-button behavior: the first press enrolls, every
// later press starts an attempt.
func (m *Machine) Press() bool {
	if m.state == Idle {
		return m.StartEnrollment()
	}
	return m.StartVerification()
}

// StartEnrollment begins recording the password gesture. Only valid in
// Idle; enrollment happens once per process.
func (m *Machine) StartEnrollment() bool {
	if m.state != Idle {
		m.ignore(TriggerEnroll)
		return false
	}
	m.begin(Enrolling, EventEnrollStart)
	return true
}

// StartVerification begins recording an unlock attempt. Only valid in
// Locked.
func (m *Machine) StartVerification() bool {
	if m.state != Locked {
		m.ignore(TriggerVerify)
		return false
	}
	m.begin(Verifying, EventVerifyStart)
	return true
}

// Tick consumes one gyro frame. Frames outside a session are dropped.
// The session completes on the tick that fills the buffers.
func (m *Machine) Tick(f gyro.Frame) {
	if m.session == nil {
		return
	}
	if err := m.session.record(motion.Normalize(f.Axes())); err != nil {
		m.log.Errorf("session %s: %v", m.session.ID, err)
		return
	}

	progress := EventEnrollProgress
	if m.state == Verifying {
		progress = EventVerifyProgress
	}
	m.emit(Event{Kind: progress, Sample: m.session.Count()})

	if !m.session.Full() {
		return
	}
	switch m.state {
	case Enrolling:
		m.finishEnrollment()
	case Verifying:
		m.finishVerification()
	}
}

func (m *Machine) begin(mode State, kind EventKind) {
	now := m.now()
	m.session = newSession(mode, m.buffers, now)
	m.setState(mode)
	metricSessions.WithLabelValues(mode.String()).Inc()
	m.log.Infof("%s started (session %s, %d samples)", mode, m.session.ID, m.settings.Samples)
	m.emit(Event{Kind: kind})
}

func (m *Machine) finishEnrollment() {
	if m.template != nil {
		// unreachable: Idle is never re-entered
		m.log.Errorf("template already enrolled, dropping session %s", m.session.ID)
		m.endSession(Locked)
		return
	}
	segs := m.session.segments(m.segmenter)
	m.observeSegments(segs)
	m.template = newTemplate(segs, m.now())

	for i, s := range segs {
		if s.Empty() {
			m.log.Warnf("enrolled template has an empty %s axis", motion.Axis(i))
		}
	}
	m.log.Infof("template enrolled: lengths x=%d y=%d z=%d",
		segs[motion.AxisX].Len(), segs[motion.AxisY].Len(), segs[motion.AxisZ].Len())

	ev := Event{Kind: EventTemplateReady, Sample: m.session.Count()}
	m.endSession(Locked)
	m.emit(ev)
}

func (m *Machine) finishVerification() {
	segs := m.session.segments(m.segmenter)
	m.observeSegments(segs)
	dist := m.template.Compare(segs)
	dec := m.policy.Decide(dist, segs)

	for i, d := range dist {
		if d != dtw.Sentinel {
			metricAxisDistance.WithLabelValues(motion.Axis(i).String()).Observe(d)
		}
	}

	kind, outcome := EventReject, "reject"
	if dec.Accepted {
		kind, outcome = EventAccept, "accept"
	}
	metricDecisions.WithLabelValues(outcome).Inc()
	m.log.Infow("verification finished",
		"session", m.session.ID,
		"outcome", outcome,
		"degenerate", dec.Degenerate,
		"x", dist[motion.AxisX],
		"y", dist[motion.AxisY],
		"z", dist[motion.AxisZ],
		"threshold", m.policy.Threshold,
	)

	ev := Event{Kind: kind, Sample: m.session.Count(), Distances: &dec.Distances, Degenerate: dec.Degenerate}
	m.endSession(Locked)
	m.emit(ev)
}

// endSession drops the buffers and moves to next; emit after so the
// event carries the new state.
func (m *Machine) endSession(next State) {
	id := m.session.ID
	m.session = nil
	m.setState(next)
	m.lastSession = id
}

func (m *Machine) observeSegments(segs [3]motion.Segment) {
	for i, s := range segs {
		metricSegmentLength.WithLabelValues(motion.Axis(i).String()).Observe(float64(s.Len()))
	}
}

func (m *Machine) ignore(t Trigger) {
	metricIgnoredTriggers.WithLabelValues(t.String(), m.state.String()).Inc()
	m.log.Debugf("ignoring %s trigger in state %s", t, m.state)
}

func (m *Machine) setState(s State) {
	m.state = s
	metricState.Set(float64(s))
}

func (m *Machine) emit(e Event) {
	e.State = m.state
	e.Samples = m.settings.Samples
	e.Time = m.now()
	switch {
	case m.session != nil:
		e.SessionID = m.session.ID
	default:
		e.SessionID = m.lastSession
	}
	m.sink.Notify(e)
}
