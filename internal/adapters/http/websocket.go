package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"

	"github.com/samirrijal/mapcat/internal/core/domain"
	"github.com/samirrijal/mapcat/internal/core/usecases"
	"github.com/samirrijal/mapcat/internal/pkg/metrics"
)

const (
	clientBuffer = 256
	pingInterval = 30 * time.Second
	writeTimeout = 10 * time.Second
)

// wsError is sent to a single client whose command line was rejected.
type wsError struct {
	Error wsErrorBody `json:"error"`
}

type wsErrorBody struct {
	Kind    string `json:"kind"`
	Command string `json:"command,omitempty"`
	Message string `json:"message"`
}

// client is one connected subscriber. The hub only ever writes to send;
// the connection's writer goroutine owns the socket.
type client struct {
	send   chan []byte
	closed bool
}

// Hub fans outward events out to every connected websocket client.
// It implements ports.EventPublisher. A client whose buffer is full is
// dropped rather than allowed to stall the command pipeline.
type Hub struct {
	mu      sync.Mutex
	clients map[*client]struct{}
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{clients: make(map[*client]struct{})}
}

func (h *Hub) Name() string { return "websocket" }

// Publish encodes the event once and enqueues it for every client.
func (h *Hub) Publish(_ context.Context, event domain.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for cl := range h.clients {
		select {
		case cl.send <- data:
		default:
			slog.Warn("ws client too slow, dropping", "action", event.Action())
			h.removeLocked(cl)
		}
	}
	return nil
}

// Len returns the number of connected clients.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// register adds a client and queues an Add event for each existing feature.
// Callers run it inside CommandService.Snapshot so no mutation lands between
// the replay and the registration.
func (h *Hub) register(features []domain.Feature) *client {
	cl := &client{send: make(chan []byte, clientBuffer+len(features))}
	for _, f := range features {
		data, err := json.Marshal(domain.NewAddEvent(f))
		if err != nil {
			continue
		}
		cl.send <- data
	}

	h.mu.Lock()
	h.clients[cl] = struct{}{}
	h.mu.Unlock()
	metrics.ActiveWebSockets.Inc()
	return cl
}

func (h *Hub) unregister(cl *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(cl)
}

func (h *Hub) removeLocked(cl *client) {
	if cl.closed {
		return
	}
	cl.closed = true
	delete(h.clients, cl)
	close(cl.send)
	metrics.ActiveWebSockets.Dec()
}

// reply queues a message for one client only. It reports false if the
// client is gone or its buffer is full.
func (h *Hub) reply(cl *client, data []byte) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if cl.closed {
		return false
	}
	select {
	case cl.send <- data:
		return true
	default:
		return false
	}
}

// WebSocketHandler returns a handler that upgrades to WebSocket, replays the
// current features as Add events, then streams every subsequent event.
// Text frames from the client are executed as command lines; a rejected line
// is answered to that client only as {"error":{kind,command,message}}.
func WebSocketHandler(deps *Dependencies) func(*websocket.Conn) {
	return func(c *websocket.Conn) {
		defer c.Close()

		remoteAddr := c.RemoteAddr().String()
		slog.Info("ws client connected", "remote", remoteAddr)

		var cl *client
		deps.Commands.Snapshot(func(features []domain.Feature) {
			cl = deps.Hub.register(features)
		})

		done := make(chan struct{})
		go writePump(c, cl, done)

		for {
			msgType, msg, err := c.ReadMessage()
			if err != nil {
				break
			}
			if msgType != websocket.TextMessage {
				continue
			}
			line := strings.TrimSpace(string(msg))
			if line == "" {
				continue
			}
			if _, err := deps.Commands.Execute(context.Background(), "ws", line); err != nil {
				data, _ := json.Marshal(wsError{Error: wsErrorBody{
					Kind:    usecases.FailureKind(err),
					Command: usecases.FailureCommand(err),
					Message: usecases.FailureReason(err),
				}})
				deps.Hub.reply(cl, data)
			}
		}

		// Cleanup
		deps.Hub.unregister(cl)
		<-done
		slog.Info("ws client disconnected", "remote", remoteAddr)
	}
}

// writePump drains the client's queue onto the socket and keeps it alive
// with pings. It exits when the queue is closed or a write fails.
func writePump(c *websocket.Conn, cl *client, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case data, ok := <-cl.send:
			if !ok {
				_ = c.WriteMessage(websocket.CloseMessage, nil)
				_ = c.Close()
				return
			}
			_ = c.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.WriteMessage(websocket.TextMessage, data); err != nil {
				_ = c.Close()
				return
			}
		case <-ticker.C:
			_ = c.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.WriteMessage(websocket.PingMessage, nil); err != nil {
				_ = c.Close()
				return
			}
		}
	}
}
