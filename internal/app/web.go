package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/relabs-tech/gesture_lock/internal/auth"
	"github.com/relabs-tech/gesture_lock/internal/config"
	"github.com/relabs-tech/gesture_lock/internal/feedback"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for local development
	},
}

// WSMessage is what a browser sends: {"action": "enroll"|"verify"|"press"}.
type WSMessage struct {
	Action string `json:"action"`
}

// WSResponse is what a browser receives: either an event or an error.
type WSResponse struct {
	Type    string           `json:"type"` // event, error
	Event   *auth.Event      `json:"event,omitempty"`
	Status  *feedback.Status `json:"status,omitempty"`
	Message string           `json:"message,omitempty"`
}

// webServer bridges the lock's MQTT topics to HTTP and websockets.
type webServer struct {
	publish func(trigger string) error
	log     *zap.SugaredLogger

	mu   sync.RWMutex
	last *auth.Event

	clientsMu sync.Mutex
	clients   map[*wsClient]struct{}
}

type wsClient struct {
	conn *websocket.Conn
	mu   sync.Mutex // one writer at a time
}

func (c *wsClient) send(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(2 * time.Second))
	return c.conn.WriteJSON(v)
}

func newWebServer(publish func(string) error, log *zap.SugaredLogger) *webServer {
	return &webServer{
		publish: publish,
		log:     log,
		clients: make(map[*wsClient]struct{}),
	}
}

// handleEvent stores an event payload from the lock and pushes it to
// every connected browser.
func (s *webServer) handleEvent(payload []byte) {
	var e auth.Event
	if err := json.Unmarshal(payload, &e); err != nil {
		s.log.Warnf("web: event unmarshal error: %v", err)
		return
	}
	s.mu.Lock()
	s.last = &e
	s.mu.Unlock()

	st := feedback.StatusFor(e)
	msg := WSResponse{Type: "event", Event: &e, Status: &st}

	s.clientsMu.Lock()
	clients := make([]*wsClient, 0, len(s.clients))
	for c := range s.clients {
		clients = append(clients, c)
	}
	s.clientsMu.Unlock()

	for _, c := range clients {
		if err := c.send(msg); err != nil {
			s.log.Debugf("web: websocket write error: %v", err)
			s.drop(c)
		}
	}
}

func (s *webServer) clientCount() int {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	return len(s.clients)
}

func (s *webServer) drop(c *wsClient) {
	s.clientsMu.Lock()
	delete(s.clients, c)
	s.clientsMu.Unlock()
	c.conn.Close()
}

// trigger validates a trigger name and publishes it to the lock.
func (s *webServer) trigger(name string) error {
	t, err := auth.ParseTrigger(name)
	if err != nil {
		return err
	}
	return s.publish(t.String())
}

func (s *webServer) routes(staticDir string) *http.ServeMux {
	mux := http.NewServeMux()

	// latest event and the card it maps to
	mux.HandleFunc("/api/status", func(w http.ResponseWriter, r *http.Request) {
		s.mu.RLock()
		defer s.mu.RUnlock()

		if s.last == nil {
			http.Error(w, "no data yet", http.StatusServiceUnavailable)
			return
		}

		st := feedback.StatusFor(*s.last)
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(WSResponse{Type: "event", Event: s.last, Status: &st}); err != nil {
			s.log.Warnf("json encode error: %v", err)
		}
	})

	// POST /api/trigger/{enroll|verify|press}
	mux.HandleFunc("/api/trigger/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", http.MethodPost)
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		name := strings.TrimPrefix(r.URL.Path, "/api/trigger/")
		if err := s.trigger(name); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusAccepted)
	})

	mux.HandleFunc("/ws", s.handleWS)

	if staticDir != "" {
		mux.Handle("/", http.FileServer(http.Dir(staticDir)))
	}
	return mux
}

// handleWS streams events to the browser and accepts trigger actions.
func (s *webServer) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warnf("web: websocket upgrade error: %v", err)
		return
	}
	c := &wsClient{conn: conn}
	s.clientsMu.Lock()
	s.clients[c] = struct{}{}
	s.clientsMu.Unlock()
	defer s.drop(c)

	// Main message loop
	for {
		var msg WSMessage
		if err := conn.ReadJSON(&msg); err != nil {
			s.log.Debugf("web: websocket read error: %v", err)
			return
		}
		if err := s.trigger(msg.Action); err != nil {
			c.send(WSResponse{Type: "error", Message: err.Error()})
		}
	}
}

// RunWeb serves the browser UI. It follows the lock over MQTT: events in
// from topic_events, triggers out on topic_triggers.
func RunWeb(ctx context.Context, cfg *config.Config, log *zap.SugaredLogger) error {
	if cfg.MQTT.Broker == "" {
		return errors.New("web: mqtt.broker is required")
	}
	client, err := ConnectMQTT(cfg.MQTT.Broker, cfg.MQTT.ClientIDWeb)
	if err != nil {
		return err
	}
	defer client.Disconnect(250)
	log.Infof("connected to MQTT broker at %s", cfg.MQTT.Broker)

	s := newWebServer(func(trigger string) error {
		token := client.Publish(cfg.MQTT.TopicTriggers, 0, false, trigger)
		token.Wait()
		return token.Error()
	}, log)

	token := client.Subscribe(cfg.MQTT.TopicEvents, 0, func(_ mqtt.Client, msg mqtt.Message) {
		s.handleEvent(msg.Payload())
	})
	token.Wait()
	if token.Error() != nil {
		return token.Error()
	}
	log.Infof("subscribed to MQTT topic %s", cfg.MQTT.TopicEvents)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Web.Port),
		Handler: s.routes(cfg.Web.StaticDir),
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	log.Infof("web server listening on %s", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
