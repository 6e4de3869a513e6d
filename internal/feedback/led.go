// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package feedback

import (
	"sync"
	"time"

	"go.uber.org/zap"
	"periph.io/x/conn/v3/gpio"

	"github.com/relabs-tech/gesture_lock/internal/auth"
)

// LEDs drives the red and green indicators:
//   - red flickers while the password is recorded, green while an attempt is;
//   - after a decision the matching LED blinks Blinks times.
//
// The result blink runs on its own goroutine and is cut short by the next
// session, so it never holds up sampling.
type LEDs struct {
	Red   gpio.PinOut // may be nil
	Green gpio.PinOut // may be nil

	On     time.Duration
	Off    time.Duration
	Blinks int

	log *zap.SugaredLogger

	mu     sync.Mutex
	cancel chan struct{}
	wg     sync.WaitGroup
}

// NewLEDs returns LEDs with the 500 ms on / 100 ms off, three-blink result.
func NewLEDs(red, green gpio.PinOut, log *zap.SugaredLogger) *LEDs {
	return &LEDs{
		Red:    red,
		Green:  green,
		On:     500 * time.Millisecond,
		Off:    100 * time.Millisecond,
		Blinks: 3,
		log:    log,
	}
}

func (l *LEDs) Notify(e auth.Event) {
	switch e.Kind {
	case auth.EventEnrollStart, auth.EventVerifyStart, auth.EventTemplateReady:
		l.stopBlink()
		l.wait()
		l.set(l.Red, gpio.Low)
		l.set(l.Green, gpio.Low)
	case auth.EventEnrollProgress:
		l.set(l.Red, gpio.Level(e.Sample%2 == 1))
	case auth.EventVerifyProgress:
		l.set(l.Green, gpio.Level(e.Sample%2 == 1))
	case auth.EventAccept:
		l.set(l.Green, gpio.Low)
		l.blink(l.Green)
	case auth.EventReject:
		l.set(l.Green, gpio.Low)
		l.blink(l.Red)
	}
}

// wait blocks until a running result blink has finished.
func (l *LEDs) wait() { l.wg.Wait() }

// Close stops any blink and turns both LEDs off.
func (l *LEDs) Close() {
	l.stopBlink()
	l.wait()
	l.set(l.Red, gpio.Low)
	l.set(l.Green, gpio.Low)
}

func (l *LEDs) set(pin gpio.PinOut, level gpio.Level) {
	if pin == nil {
		return
	}
	if err := pin.Out(level); err != nil {
		l.log.Warnf("led %s: %v", pin.Name(), err)
	}
}

func (l *LEDs) blink(pin gpio.PinOut) {
	if pin == nil {
		return
	}
	l.stopBlink()
	l.wait()

	l.mu.Lock()
	cancel := make(chan struct{})
	l.cancel = cancel
	l.mu.Unlock()

	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		defer l.set(pin, gpio.Low)
		for i := 0; i < l.Blinks; i++ {
			l.set(pin, gpio.High)
			if !sleep(l.On, cancel) {
				return
			}
			l.set(pin, gpio.Low)
			if !sleep(l.Off, cancel) {
				return
			}
		}
	}()
}

func (l *LEDs) stopBlink() {
	l.mu.Lock()
	if l.cancel != nil {
		close(l.cancel)
		l.cancel = nil
	}
	l.mu.Unlock()
}

// sleep waits d or until cancel closes, reporting whether d elapsed.
func sleep(d time.Duration, cancel <-chan struct{}) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-cancel:
		return false
	}
}
