// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package feedback

import (
	"encoding/json"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/relabs-tech/gesture_lock/internal/auth"
)

// MQTTSink publishes each event as JSON on one topic.
type MQTTSink struct {
	client mqtt.Client
	topic  string
	log    *zap.SugaredLogger
}

func NewMQTTSink(client mqtt.Client, topic string, log *zap.SugaredLogger) *MQTTSink {
	return &MQTTSink{client: client, topic: topic, log: log}
}

func (m *MQTTSink) Notify(e auth.Event) {
	payload, err := json.Marshal(e)
	if err != nil {
		m.log.Errorf("mqtt: event marshal error: %v", err)
		return
	}
	// QoS 0, no wait: paho queues the write
	token := m.client.Publish(m.topic, 0, false, payload)
	go func() {
		if token.Wait() && token.Error() != nil {
			m.log.Warnf("mqtt: publish to %s: %v", m.topic, token.Error())
		}
	}()
}

// NATSSink publishes each event as JSON on one subject.
type NATSSink struct {
	conn    *nats.Conn
	subject string
	log     *zap.SugaredLogger
}

func NewNATSSink(conn *nats.Conn, subject string, log *zap.SugaredLogger) *NATSSink {
	return &NATSSink{conn: conn, subject: subject, log: log}
}

func (n *NATSSink) Notify(e auth.Event) {
	payload, err := json.Marshal(e)
	if err != nil {
		n.log.Errorf("nats: event marshal error: %v", err)
		return
	}
	if err := n.conn.Publish(n.subject, payload); err != nil {
		n.log.Warnf("nats: publish to %s: %v", n.subject, err)
	}
}
