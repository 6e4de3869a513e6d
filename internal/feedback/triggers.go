// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package feedback

import (
	"context"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"
	"periph.io/x/conn/v3/gpio"

	"github.com/relabs-tech/gesture_lock/internal/auth"
)

// Debounce is the minimum gap between two accepted button presses.
const Debounce = 250 * time.Millisecond

// WatchButton turns rising edges on pin into TriggerPress until ctx is
// done. The pin must already be configured for edge detection.
func WatchButton(ctx context.Context, pin gpio.PinIn, out chan<- auth.Trigger, log *zap.SugaredLogger) {
	var last time.Time
	for {
		if ctx.Err() != nil {
			return
		}
		if !pin.WaitForEdge(100 * time.Millisecond) {
			continue
		}
		now := time.Now()
		if !last.IsZero() && now.Sub(last) < Debounce {
			continue
		}
		last = now
		log.Debugf("button %s pressed", pin.Name())
		offer(out, auth.TriggerPress, "button", log)
	}
}

// SetupButton configures a pull-down input with rising-edge detection.
func SetupButton(pin gpio.PinIO) error {
	return pin.In(gpio.PullDown, gpio.RisingEdge)
}

// SubscribeTriggers forwards trigger names published on topic
// ("enroll", "verify" or "press") to out.
func SubscribeTriggers(client mqtt.Client, topic string, out chan<- auth.Trigger, log *zap.SugaredLogger) error {
	token := client.Subscribe(topic, 0, func(_ mqtt.Client, msg mqtt.Message) {
		t, err := auth.ParseTrigger(strings.TrimSpace(string(msg.Payload())))
		if err != nil {
			log.Warnf("mqtt: %s: %v", topic, err)
			return
		}
		offer(out, t, "mqtt", log)
	})
	token.Wait()
	if token.Error() != nil {
		return token.Error()
	}
	log.Infof("mqtt: subscribed to %s", topic)
	return nil
}

// offer never blocks: a trigger arriving while one is pending is dropped,
// the lock would ignore it anyway.
func offer(out chan<- auth.Trigger, t auth.Trigger, from string, log *zap.SugaredLogger) {
	select {
	case out <- t:
	default:
		log.Debugf("%s: %s trigger dropped, one already pending", from, t)
	}
}
