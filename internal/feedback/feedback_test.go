package feedback

import (
	"context"
	"encoding/json"
	"image"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
	"periph.io/x/devices/v3/ssd1306/image1bit"

	"github.com/relabs-tech/gesture_lock/internal/auth"
)

type recorder struct{ events []auth.Event }

func (r *recorder) Notify(e auth.Event) { r.events = append(r.events, e) }

func progress(kind auth.EventKind, i, n int) auth.Event {
	return auth.Event{Kind: kind, Sample: i, Samples: n}
}

func TestFanoutDeliversToAllInOrder(t *testing.T) {
	a, b := &recorder{}, &recorder{}
	f := Fanout{a, b}
	f.Notify(auth.Event{Kind: auth.EventEnrollStart})
	f.Notify(auth.Event{Kind: auth.EventTemplateReady})

	for _, r := range []*recorder{a, b} {
		require.Len(t, r.events, 2)
		assert.Equal(t, auth.EventEnrollStart, r.events[0].Kind)
		assert.Equal(t, auth.EventTemplateReady, r.events[1].Kind)
	}
}

// gated blocks in Notify until released.
type gated struct {
	entered chan struct{}
	release chan struct{}
	got     []auth.Event
}

func (g *gated) Notify(e auth.Event) {
	g.entered <- struct{}{}
	<-g.release
	g.got = append(g.got, e)
}

func TestAsyncNeverBlocksAndDropsWhenFull(t *testing.T) {
	g := &gated{entered: make(chan struct{}, 4), release: make(chan struct{})}
	a := NewAsync("test", g, 1, zaptest.NewLogger(t).Sugar())

	a.Notify(progress(auth.EventVerifyProgress, 1, 3))
	<-g.entered // worker is now stuck inside the sink

	done := make(chan struct{})
	go func() {
		a.Notify(progress(auth.EventVerifyProgress, 2, 3)) // queued
		a.Notify(progress(auth.EventVerifyProgress, 3, 3)) // dropped
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Notify blocked on a slow sink")
	}

	close(g.release)
	a.Close()
	require.Len(t, g.got, 2)
	assert.Equal(t, 1, g.got[0].Sample)
	assert.Equal(t, 2, g.got[1].Sample)
}

func TestAsyncCloseDrains(t *testing.T) {
	r := &recorder{}
	a := NewAsync("test", r, 8, zaptest.NewLogger(t).Sugar())
	for i := 1; i <= 5; i++ {
		a.Notify(progress(auth.EventEnrollProgress, i, 5))
	}
	a.Close()
	require.Len(t, r.events, 5)
	for i, e := range r.events {
		assert.Equal(t, i+1, e.Sample)
	}
}

func TestStatusFor(t *testing.T) {
	d := auth.Distances{12.4, 0, 250}
	far := auth.Distances{1, 0, 1e300}

	cases := []struct {
		name   string
		event  auth.Event
		title  string
		detail string
	}{
		{"enroll start", auth.Event{Kind: auth.EventEnrollStart, Samples: 60}, TextRecording, "new password"},
		{"verify tick", progress(auth.EventVerifyProgress, 30, 60), TextRecording, "unlock attempt"},
		{"template", auth.Event{Kind: auth.EventTemplateReady}, TextLocked, "press to unlock"},
		{"accept", auth.Event{Kind: auth.EventAccept, Distances: &d}, TextUnlocked, "12 0 250"},
		{"reject", auth.Event{Kind: auth.EventReject, Distances: &far}, TextWrong, "1 0 --"},
		{"still", auth.Event{Kind: auth.EventReject, Distances: &d, Degenerate: true}, TextWrong, "no motion"},
		{"unknown", auth.Event{Kind: "bogus"}, TextNoPassword, "press to record"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := StatusFor(tc.event)
			assert.Equal(t, tc.title, s.Title)
			assert.Equal(t, tc.detail, s.Detail)
		})
	}

	assert.InDelta(t, 0.5, StatusFor(progress(auth.EventVerifyProgress, 30, 60)).Progress, 1e-12)
	assert.Equal(t, -1.0, StatusFor(auth.Event{Kind: auth.EventAccept}).Progress)
}

func TestLEDsFlickerWhileRecording(t *testing.T) {
	red := &gpiotest.Pin{N: "RED"}
	green := &gpiotest.Pin{N: "GREEN"}
	l := NewLEDs(red, green, zaptest.NewLogger(t).Sugar())

	l.Notify(auth.Event{Kind: auth.EventEnrollStart})
	l.Notify(progress(auth.EventEnrollProgress, 1, 4))
	assert.Equal(t, gpio.High, red.Read())
	l.Notify(progress(auth.EventEnrollProgress, 2, 4))
	assert.Equal(t, gpio.Low, red.Read())
	assert.Equal(t, gpio.Low, green.Read())

	l.Notify(auth.Event{Kind: auth.EventVerifyStart})
	l.Notify(progress(auth.EventVerifyProgress, 1, 4))
	assert.Equal(t, gpio.High, green.Read())
	assert.Equal(t, gpio.Low, red.Read())
}

func TestLEDsResultBlinkEndsDark(t *testing.T) {
	red := &gpiotest.Pin{N: "RED"}
	green := &gpiotest.Pin{N: "GREEN"}
	l := NewLEDs(red, green, zaptest.NewLogger(t).Sugar())
	l.On, l.Off = time.Millisecond, time.Millisecond

	l.Notify(auth.Event{Kind: auth.EventAccept})
	l.wait()
	assert.Equal(t, gpio.Low, green.Read())
	assert.Equal(t, gpio.Low, red.Read())
}

func TestLEDsBlinkCutShortByNextSession(t *testing.T) {
	red := &gpiotest.Pin{N: "RED"}
	l := NewLEDs(red, nil, zaptest.NewLogger(t).Sugar())
	l.On = time.Hour

	l.Notify(auth.Event{Kind: auth.EventReject})
	require.Eventually(t, func() bool { return red.Read() == gpio.High }, time.Second, time.Millisecond)

	start := time.Now()
	l.Notify(auth.Event{Kind: auth.EventVerifyStart})
	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, gpio.Low, red.Read())
	l.Close()
}

type fakeScreen struct {
	draws int
	last  image.Image
}

func (f *fakeScreen) Bounds() image.Rectangle { return image.Rect(0, 0, 128, 64) }

func (f *fakeScreen) Draw(_ image.Rectangle, src image.Image, _ image.Point) error {
	f.draws++
	f.last = src
	return nil
}

func TestDisplayDrawsCards(t *testing.T) {
	screen := &fakeScreen{}
	d := NewDisplay(screen, zaptest.NewLogger(t).Sugar())
	assert.Equal(t, 1, screen.draws, "idle card on start")

	d.Notify(auth.Event{Kind: auth.EventVerifyStart, Samples: 4})
	for i := 1; i <= 4; i++ {
		d.Notify(progress(auth.EventVerifyProgress, i, 4))
	}
	assert.Equal(t, 6, screen.draws)

	img, ok := screen.last.(*image1bit.VerticalLSB)
	require.True(t, ok)
	assert.Equal(t, image1bit.On, img.BitAt(60, 54), "full progress bar")

	dist := auth.Distances{1, 2, 3}
	d.Notify(auth.Event{Kind: auth.EventAccept, Distances: &dist})
	d.Notify(auth.Event{Kind: auth.EventAccept, Distances: &dist})
	assert.Equal(t, 7, screen.draws, "unchanged card is not redrawn")

	img = screen.last.(*image1bit.VerticalLSB)
	assert.Equal(t, image1bit.Off, img.BitAt(60, 54), "no bar outside recording")
}

// fakeClient records publishes and subscriptions.
type fakeClient struct {
	mqtt.Client
	published map[string][][]byte
	handlers  map[string]mqtt.MessageHandler
}

func newFakeClient() *fakeClient {
	return &fakeClient{published: map[string][][]byte{}, handlers: map[string]mqtt.MessageHandler{}}
}

func (f *fakeClient) Publish(topic string, _ byte, _ bool, payload interface{}) mqtt.Token {
	f.published[topic] = append(f.published[topic], payload.([]byte))
	return &mqtt.DummyToken{}
}

func (f *fakeClient) Subscribe(topic string, _ byte, cb mqtt.MessageHandler) mqtt.Token {
	f.handlers[topic] = cb
	return &mqtt.DummyToken{}
}

type fakeMessage struct {
	topic   string
	payload []byte
}

func (m fakeMessage) Duplicate() bool   { return false }
func (m fakeMessage) Qos() byte         { return 0 }
func (m fakeMessage) Retained() bool    { return false }
func (m fakeMessage) Topic() string     { return m.topic }
func (m fakeMessage) MessageID() uint16 { return 0 }
func (m fakeMessage) Payload() []byte   { return m.payload }
func (m fakeMessage) Ack()              {}

func TestMQTTSinkPublishesJSON(t *testing.T) {
	c := newFakeClient()
	s := NewMQTTSink(c, "gesture/events", zaptest.NewLogger(t).Sugar())

	d := auth.Distances{3, 4, 5}
	s.Notify(auth.Event{Kind: auth.EventReject, State: auth.Locked, SessionID: "abc", Samples: 60, Distances: &d})

	require.Len(t, c.published["gesture/events"], 1)
	var got auth.Event
	require.NoError(t, json.Unmarshal(c.published["gesture/events"][0], &got))
	assert.Equal(t, auth.EventReject, got.Kind)
	assert.Equal(t, auth.Locked, got.State)
	assert.Equal(t, "abc", got.SessionID)
	require.NotNil(t, got.Distances)
	assert.Equal(t, d, *got.Distances)
}

func TestSubscribeTriggers(t *testing.T) {
	c := newFakeClient()
	out := make(chan auth.Trigger, 1)
	require.NoError(t, SubscribeTriggers(c, "gesture/triggers", out, zaptest.NewLogger(t).Sugar()))

	cb := c.handlers["gesture/triggers"]
	require.NotNil(t, cb)

	cb(c, fakeMessage{topic: "gesture/triggers", payload: []byte("verify\n")})
	assert.Equal(t, auth.TriggerVerify, <-out)

	cb(c, fakeMessage{topic: "gesture/triggers", payload: []byte("open")})
	assert.Empty(t, out, "unknown payloads are ignored")

	cb(c, fakeMessage{topic: "gesture/triggers", payload: []byte("press")})
	cb(c, fakeMessage{topic: "gesture/triggers", payload: []byte("enroll")})
	assert.Equal(t, auth.TriggerPress, <-out, "second trigger dropped while one is pending")
	assert.Empty(t, out)
}

func TestWatchButton(t *testing.T) {
	pin := &gpiotest.Pin{N: "BTN", EdgesChan: make(chan gpio.Level, 1)}
	require.NoError(t, SetupButton(pin))

	ctx, cancel := context.WithCancel(context.Background())
	out := make(chan auth.Trigger, 1)
	stopped := make(chan struct{})
	go func() {
		WatchButton(ctx, pin, out, zaptest.NewLogger(t).Sugar())
		close(stopped)
	}()

	pin.EdgesChan <- gpio.High
	select {
	case tr := <-out:
		assert.Equal(t, auth.TriggerPress, tr)
	case <-time.After(2 * time.Second):
		t.Fatal("no trigger from button edge")
	}

	cancel()
	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop")
	}
}
