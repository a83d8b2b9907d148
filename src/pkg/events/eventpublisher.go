// Package events fans completed store mutations out to websocket
// subscribers, the push channel dashboards watch instead of polling
// the status endpoint.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/frame-vault/framevault/src/pkg/store"
)

const (
	queueSize    = 100
	writeTimeout = 5 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Dashboards are served from other origins; events carry no secrets.
	CheckOrigin: func(r *http.Request) bool { return true },
}

type Publisher struct {
	ch   chan<- store.Event
	done atomic.Bool

	mu   sync.Mutex
	subs map[*websocket.Conn]struct{}
}

// Notify queues an event for broadcast. Never blocks the store: when
// the queue is full the event is dropped.
func (p *Publisher) Notify(event store.Event) {
	if err := p.publish(event); err != nil {
		slog.Warn("failed to publish event", "type", event.Type, "error", err)
	}
}

func (p *Publisher) publish(event store.Event) error {
	if p.done.Load() {
		return fmt.Errorf("publisher is closed")
	}

	select {
	case p.ch <- event:
		return nil
	default:
		return fmt.Errorf("event queue is full, dropping event")
	}
}

// Handler upgrades the connection and keeps it subscribed until the
// client goes away.
func (p *Publisher) Handler(w http.ResponseWriter, r *http.Request) {
	conn, upgradeErr := upgrader.Upgrade(w, r, nil)
	if upgradeErr != nil {
		slog.Warn("websocket upgrade failed", "error", upgradeErr)
		return
	}

	p.mu.Lock()
	p.subs[conn] = struct{}{}
	p.mu.Unlock()
	slog.Debug("event subscriber connected", "remote", conn.RemoteAddr())

	// Drain the reader so close frames and pings are processed.
	go func() {
		for {
			if _, _, readErr := conn.NextReader(); readErr != nil {
				p.drop(conn)
				return
			}
		}
	}()
}

func (p *Publisher) drop(conn *websocket.Conn) {
	p.mu.Lock()
	_, present := p.subs[conn]
	delete(p.subs, conn)
	p.mu.Unlock()

	if present {
		if closeErr := conn.Close(); closeErr != nil {
			slog.Debug("failed to close subscriber connection", "error", closeErr)
		}
	}
}

func (p *Publisher) broadcast(event store.Event) {
	payload, marshalErr := json.Marshal(event)
	if marshalErr != nil {
		slog.Warn("failed to marshal event", "error", marshalErr)
		return
	}

	p.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(p.subs))
	for conn := range p.subs {
		conns = append(conns, conn)
	}
	p.mu.Unlock()

	for _, conn := range conns {
		if deadlineErr := conn.SetWriteDeadline(time.Now().Add(writeTimeout)); deadlineErr != nil {
			p.drop(conn)
			continue
		}
		if writeErr := conn.WriteMessage(websocket.TextMessage, payload); writeErr != nil {
			slog.Debug("dropping slow event subscriber", "error", writeErr)
			p.drop(conn)
		}
	}
}

// NewEventPublisher starts the broadcast loop. It stops, closing every
// subscriber, when ctx is cancelled.
func NewEventPublisher(ctx context.Context) *Publisher {
	eventCh := make(chan store.Event, queueSize)
	publisher := &Publisher{
		ch:   eventCh,
		subs: make(map[*websocket.Conn]struct{}),
	}

	go func() {
		defer func() {
			publisher.done.Store(true)
			publisher.mu.Lock()
			for conn := range publisher.subs {
				_ = conn.Close()
			}
			publisher.subs = make(map[*websocket.Conn]struct{})
			publisher.mu.Unlock()
		}()

		for {
			select {
			case <-ctx.Done():
				return
			case event := <-eventCh:
				publisher.broadcast(event)
			}
		}
	}()

	return publisher
}
