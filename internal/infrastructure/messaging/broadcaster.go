// Package messaging provides the live telemetry event broadcaster for the
// ops dashboard websocket feed.
package messaging

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/gedlingdental/cohort-go/internal/infrastructure/observability/logging"
)

const clientBufferSize = 16

// Broadcaster fans telemetry events out to connected websocket clients.
// Slow clients are dropped rather than allowed to block the pipeline.
type Broadcaster struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]chan []byte
	logger  *logging.ChanneledLogger
}

// NewBroadcaster creates an empty broadcaster.
func NewBroadcaster(logger *logging.ChanneledLogger) *Broadcaster {
	return &Broadcaster{
		clients: make(map[*websocket.Conn]chan []byte),
		logger:  logger,
	}
}

// AddClient registers a websocket connection and starts its writer loop.
func (b *Broadcaster) AddClient(conn *websocket.Conn) {
	ch := make(chan []byte, clientBufferSize)

	b.mu.Lock()
	b.clients[conn] = ch
	count := len(b.clients)
	b.mu.Unlock()

	b.logger.Telemetry().Debug("Stream client registered", "clients", count)

	go func() {
		for msg := range ch {
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				b.RemoveClient(conn)
				return
			}
		}
	}()
}

// RemoveClient unregisters a connection and closes it.
func (b *Broadcaster) RemoveClient(conn *websocket.Conn) {
	b.mu.Lock()
	ch, exists := b.clients[conn]
	if exists {
		delete(b.clients, conn)
		close(ch)
	}
	count := len(b.clients)
	b.mu.Unlock()

	if exists {
		conn.Close()
		b.logger.Telemetry().Debug("Stream client unregistered", "clients", count)
	}
}

// Broadcast sends an event to every connected client. Clients whose buffer
// is full miss the event; the feed is best-effort.
func (b *Broadcaster) Broadcast(event any) {
	payload, err := json.Marshal(event)
	if err != nil {
		b.logger.Telemetry().Warn("Failed to marshal stream event", "error", err.Error())
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	for _, ch := range b.clients {
		select {
		case ch <- payload:
		default:
		}
	}
}

// ClientCount returns the number of connected stream clients.
func (b *Broadcaster) ClientCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.clients)
}
