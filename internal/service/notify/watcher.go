package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	applogger "TradeDesk/pkg/logger"
)

// EventTrainingComplete is pushed by the backend when a training job ends.
const EventTrainingComplete = "model_training_complete"

// Trigger receives refresh requests; usecase.Refresher satisfies it.
type Trigger interface {
	Trigger(reason string)
}

// frame is one backend push. Older backends name the event in "type".
type frame struct {
	Event string `json:"event"`
	Type  string `json:"type"`
	Data  struct {
		ModelID json.RawMessage `json:"model_id"`
		Status  string          `json:"status"`
	} `json:"data"`
}

func (f frame) name() string {
	if f.Event != "" {
		return f.Event
	}
	return f.Type
}

// Watcher listens on the backend notification socket and turns
// training-complete pushes into registry refresh triggers. It reconnects
// until its context is cancelled.
type Watcher struct {
	url            string
	token          string
	reconnectDelay time.Duration
	pingInterval   time.Duration
	trigger        Trigger
	logger         *applogger.Logger
	dialer         *websocket.Dialer

	connected atomic.Bool
}

type Option func(*Watcher)

func WithToken(token string) Option {
	return func(w *Watcher) { w.token = token }
}

func WithReconnectDelay(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.reconnectDelay = d
		}
	}
}

func WithPingInterval(d time.Duration) Option {
	return func(w *Watcher) { w.pingInterval = d }
}

func WithLogger(l *applogger.Logger) Option {
	return func(w *Watcher) {
		if l != nil {
			w.logger = l
		}
	}
}

func New(url string, trigger Trigger, opts ...Option) *Watcher {
	w := &Watcher{
		url:            url,
		reconnectDelay: 5 * time.Second,
		pingInterval:   30 * time.Second,
		trigger:        trigger,
		logger:         applogger.Nop(),
		dialer:         websocket.DefaultDialer,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// IsConnected indicates status.
func (w *Watcher) IsConnected() bool { return w.connected.Load() }

// Run connects, reads and reconnects until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	for {
		err := w.session(ctx)
		if ctx.Err() != nil {
			return nil
		}
		w.logger.Warn("notify: connection lost", applogger.Error(err), applogger.Duration("retry_in", w.reconnectDelay))
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(w.reconnectDelay):
		}
	}
}

func (w *Watcher) session(ctx context.Context) error {
	header := http.Header{}
	if w.token != "" {
		header.Set("Authorization", "Bearer "+w.token)
	}
	conn, _, err := w.dialer.DialContext(ctx, w.url, header)
	if err != nil {
		return fmt.Errorf("notify connect: %w", err)
	}
	w.connected.Store(true)
	w.logger.Info("notify: connected", applogger.String("url", w.url))
	// Catch up on anything finished while disconnected.
	w.trigger.Trigger("notify:connected")

	sctx, cancel := context.WithCancel(ctx)
	defer func() {
		cancel()
		w.connected.Store(false)
		_ = conn.Close()
	}()

	go func() {
		<-sctx.Done()
		// unblocks ReadMessage
		_ = conn.Close()
	}()
	if w.pingInterval > 0 {
		go w.pingLoop(sctx, conn)
	}

	for {
		_, b, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("notify read: %w", err)
		}
		var f frame
		if err := json.Unmarshal(b, &f); err != nil {
			// ignore non-JSON frames
			continue
		}
		if f.name() != EventTrainingComplete {
			continue
		}
		w.logger.Debug("notify: training complete",
			applogger.String("model_id", string(f.Data.ModelID)),
			applogger.String("status", f.Data.Status))
		w.trigger.Trigger("notify:" + EventTrainingComplete)
	}
}

func (w *Watcher) pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(w.pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deadline := time.Now().Add(w.pingInterval / 2)
			if err := conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				w.logger.Debug("notify: ping failed", applogger.Error(err))
				return
			}
		}
	}
}
