// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/gesture_lock/internal/auth"
	"github.com/relabs-tech/gesture_lock/internal/config"
	"github.com/relabs-tech/gesture_lock/internal/feedback"
	"github.com/relabs-tech/gesture_lock/internal/gyro"
	"github.com/relabs-tech/gesture_lock/internal/sensors"
)

// asyncQueue is how many events a slow sink may lag behind.
const asyncQueue = 128

// OpenSource opens the gyro source selected by cfg.Kind. The returned
// close func is never nil.
func OpenSource(ctx context.Context, cfg config.SourceConfig, log *zap.SugaredLogger) (gyro.Source, func(), error) {
	noop := func() {}
	switch cfg.Kind {
	case config.SourceMPU9250:
		src, err := sensors.NewGyroSource(cfg, log)
		if err != nil {
			return nil, noop, err
		}
		return src, func() {
			if c, ok := src.(io.Closer); ok {
				c.Close()
			}
		}, nil
	case config.SourceNMEA:
		ctx, cancel := context.WithCancel(ctx)
		src, err := gyro.NewNMEASource(ctx, cfg.SerialPort, cfg.BaudRate, log)
		if err != nil {
			cancel()
			return nil, noop, err
		}
		return src, cancel, nil
	case config.SourceReplay:
		rec, err := gyro.LoadRecording(cfg.ReplayFile)
		if err != nil {
			return nil, noop, err
		}
		if cfg.RateHz > 0 {
			rec.RateHz = cfg.RateHz
		}
		log.Infof("replaying %d frames from %s at %d Hz", rec.Len(), cfg.ReplayFile, rec.RateHz)
		return gyro.NewReplaySource(rec), noop, nil
	default:
		return nil, noop, fmt.Errorf("unknown source kind %q", cfg.Kind)
	}
}

// ConnectMQTT connects a paho client to broker.
func ConnectMQTT(broker, clientID string) (mqtt.Client, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("mqtt: connect %s: %w", broker, token.Error())
	}
	return client, nil
}

// RunLock is the lock daemon: gyro source, state machine, local and
// remote feedback, trigger inputs and the metrics endpoint, until ctx is
// done or a finite source runs out.
func RunLock(ctx context.Context, cfg *config.Config, log *zap.SugaredLogger) error {
	src, closeSource, err := OpenSource(ctx, cfg.Source, log)
	if err != nil {
		return err
	}
	defer closeSource()

	triggers := make(chan auth.Trigger, 4)
	sinks := feedback.Fanout{feedback.LogSink{Log: log}}
	var cleanup []func()
	defer func() {
		for i := len(cleanup) - 1; i >= 0; i-- {
			cleanup[i]()
		}
	}()
	wrap := func(name string, s auth.Sink) {
		a := feedback.NewAsync(name, s, asyncQueue, log)
		sinks = append(sinks, a)
		cleanup = append(cleanup, a.Close)
	}

	// --- local feedback ---
	fb := cfg.Feedback
	if fb.LEDRedPin != "" || fb.LEDGreenPin != "" || fb.ButtonPin != "" {
		if _, err := host.Init(); err != nil {
			return fmt.Errorf("failed to initialize periph: %w", err)
		}
	}
	if fb.LEDRedPin != "" || fb.LEDGreenPin != "" {
		red, err := outPin(fb.LEDRedPin)
		if err != nil {
			return err
		}
		green, err := outPin(fb.LEDGreenPin)
		if err != nil {
			return err
		}
		leds := feedback.NewLEDs(red, green, log)
		cleanup = append(cleanup, leds.Close)
		wrap("leds", leds)
		log.Infof("leds: red=%q green=%q", fb.LEDRedPin, fb.LEDGreenPin)
	}
	if fb.Display.Enabled {
		dev, bus, err := feedback.OpenSSD1306(fb.Display.I2CBus)
		if err != nil {
			return err
		}
		cleanup = append(cleanup, func() { bus.Close() })
		wrap("display", feedback.NewDisplay(dev, log))
		log.Info("display: initialized")
	}
	if fb.ButtonPin != "" {
		pin := gpioreg.ByName(fb.ButtonPin)
		if pin == nil {
			return fmt.Errorf("button pin %q not found", fb.ButtonPin)
		}
		if err := feedback.SetupButton(pin); err != nil {
			return fmt.Errorf("button pin %s: %w", fb.ButtonPin, err)
		}
		go feedback.WatchButton(ctx, pin, triggers, log)
		log.Infof("button: watching %s", fb.ButtonPin)
	}

	// --- remote feedback and triggers ---
	if cfg.MQTT.Broker != "" {
		client, err := ConnectMQTT(cfg.MQTT.Broker, cfg.MQTT.ClientIDLock)
		if err != nil {
			return err
		}
		cleanup = append(cleanup, func() { client.Disconnect(250) })
		log.Infof("connected to MQTT broker at %s", cfg.MQTT.Broker)

		wrap("mqtt", feedback.NewMQTTSink(client, cfg.MQTT.TopicEvents, log))
		if err := feedback.SubscribeTriggers(client, cfg.MQTT.TopicTriggers, triggers, log); err != nil {
			return fmt.Errorf("mqtt: subscribe %s: %w", cfg.MQTT.TopicTriggers, err)
		}
	}
	if cfg.NATS.URL != "" {
		nc, err := nats.Connect(cfg.NATS.URL, nats.Name(cfg.MQTT.ClientIDLock))
		if err != nil {
			return fmt.Errorf("nats: connect %s: %w", cfg.NATS.URL, err)
		}
		cleanup = append(cleanup, func() {
			if err := nc.Drain(); err != nil {
				nc.Close()
			}
		})
		wrap("nats", feedback.NewNATSSink(nc, cfg.NATS.Subject, log))
		log.Infof("connected to NATS at %s, publishing on %s", cfg.NATS.URL, cfg.NATS.Subject)
	}

	if cfg.Metrics.Addr != "" {
		srv := serveMetrics(cfg.Metrics.Addr, log)
		cleanup = append(cleanup, func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx)
		})
	}

	machine := auth.NewMachine(SettingsFromConfig(cfg.Session), sinks, log)
	log.Infof("lock ready: %d samples per session, deadband [%g, %g], threshold %g",
		cfg.Session.Samples, cfg.Session.DeadbandLo, cfg.Session.DeadbandHi, cfg.Session.Threshold)

	err = Loop(ctx, src, triggers, machine, log)
	if errors.Is(err, context.Canceled) {
		log.Info("lock: shutting down")
		return nil
	}
	return err
}

func outPin(name string) (gpio.PinOut, error) {
	if name == "" {
		return nil, nil
	}
	pin := gpioreg.ByName(name)
	if pin == nil {
		return nil, fmt.Errorf("led pin %q not found", name)
	}
	if err := pin.Out(gpio.Low); err != nil {
		return nil, fmt.Errorf("led pin %s: %w", name, err)
	}
	return pin, nil
}

func serveMetrics(addr string, log *zap.SugaredLogger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		log.Infof("metrics listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorf("metrics server: %v", err)
		}
	}()
	return srv
}
