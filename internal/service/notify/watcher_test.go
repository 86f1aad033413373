package notify

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingTrigger struct {
	mu      sync.Mutex
	reasons []string
	ch      chan string
}

func newRecordingTrigger() *recordingTrigger {
	return &recordingTrigger{ch: make(chan string, 16)}
}

func (r *recordingTrigger) Trigger(reason string) {
	r.mu.Lock()
	r.reasons = append(r.reasons, reason)
	r.mu.Unlock()
	r.ch <- reason
}

func (r *recordingTrigger) next(t *testing.T) string {
	t.Helper()
	select {
	case s := <-r.ch:
		return s
	case <-time.After(2 * time.Second):
		t.Fatal("no trigger received")
		return ""
	}
}

func wsServer(t *testing.T, handle func(*websocket.Conn, *http.Request)) *httptest.Server {
	t.Helper()
	up := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := up.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		handle(conn, r)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestWatcherTriggersOnTrainingComplete(t *testing.T) {
	auth := make(chan string, 1)
	srv := wsServer(t, func(conn *websocket.Conn, r *http.Request) {
		auth <- r.Header.Get("Authorization")
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`not json`))
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"event":"status","data":{}}`))
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"event":"model_training_complete","data":{"model_id":7,"status":"trained"}}`))
		time.Sleep(200 * time.Millisecond)
	})

	trig := newRecordingTrigger()
	w := New(wsURL(srv), trig, WithToken("secret"), WithPingInterval(0), WithReconnectDelay(time.Hour))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	assert.Equal(t, "notify:connected", trig.next(t))
	assert.Equal(t, "notify:model_training_complete", trig.next(t))
	assert.Equal(t, "Bearer secret", <-auth)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop")
	}
	assert.False(t, w.IsConnected())
}

func TestWatcherAcceptsTypeField(t *testing.T) {
	srv := wsServer(t, func(conn *websocket.Conn, _ *http.Request) {
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"model_training_complete","data":{"model_id":"3"}}`))
		time.Sleep(200 * time.Millisecond)
	})

	trig := newRecordingTrigger()
	w := New(wsURL(srv), trig, WithPingInterval(0), WithReconnectDelay(time.Hour))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Run(ctx) }()

	trig.next(t)
	assert.Equal(t, "notify:model_training_complete", trig.next(t))
}

func TestWatcherReconnects(t *testing.T) {
	srv := wsServer(t, func(conn *websocket.Conn, _ *http.Request) {
		// drop immediately
	})

	trig := newRecordingTrigger()
	w := New(wsURL(srv), trig, WithPingInterval(0), WithReconnectDelay(10*time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Run(ctx) }()

	assert.Equal(t, "notify:connected", trig.next(t))
	assert.Equal(t, "notify:connected", trig.next(t))
}
