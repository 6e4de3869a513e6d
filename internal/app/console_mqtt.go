package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	"github.com/relabs-tech/gesture_lock/internal/auth"
	"github.com/relabs-tech/gesture_lock/internal/config"
	"github.com/relabs-tech/gesture_lock/internal/feedback"
)

// formatEvent renders one console line for an event.
func formatEvent(e auth.Event) string {
	st := feedback.StatusFor(e)
	switch e.Kind {
	case auth.EventEnrollProgress, auth.EventVerifyProgress:
		return fmt.Sprintf("[%-9s] %-17s %3d/%-3d %s", e.State, st.Title, e.Sample, e.Samples, progressBar(st.Progress, 20))
	case auth.EventAccept, auth.EventReject:
		d := auth.Distances{}
		if e.Distances != nil {
			d = *e.Distances
		}
		return fmt.Sprintf("[%-9s] %-17s x=%.2f y=%.2f z=%.2f", e.State, st.Title, d[0], d[1], d[2])
	default:
		return fmt.Sprintf("[%-9s] %-17s %s", e.State, st.Title, st.Detail)
	}
}

func progressBar(p float64, width int) string {
	if p < 0 {
		p = 0
	}
	if p > 1 {
		p = 1
	}
	filled := int(p * float64(width))
	bar := make([]byte, width)
	for i := range bar {
		if i < filled {
			bar[i] = '#'
		} else {
			bar[i] = '.'
		}
	}
	return string(bar)
}

// RunConsoleMQTT prints the lock's events to out until ctx is done.
func RunConsoleMQTT(ctx context.Context, cfg *config.Config, out io.Writer, log *zap.SugaredLogger) error {
	if cfg.MQTT.Broker == "" {
		return errors.New("console: mqtt.broker is required")
	}
	client, err := ConnectMQTT(cfg.MQTT.Broker, cfg.MQTT.ClientIDConsole)
	if err != nil {
		return err
	}
	log.Infof("console: connected to MQTT broker at %s", cfg.MQTT.Broker)

	token := client.Subscribe(cfg.MQTT.TopicEvents, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var e auth.Event
		if err := json.Unmarshal(msg.Payload(), &e); err != nil {
			log.Warnf("console: event unmarshal error: %v", err)
			return
		}
		fmt.Fprintln(out, formatEvent(e))
	})
	token.Wait()
	if token.Error() != nil {
		return token.Error()
	}
	log.Infof("console: subscribed to %s", cfg.MQTT.TopicEvents)

	<-ctx.Done()

	log.Info("console: shutting down")
	client.Disconnect(250)
	return nil
}
