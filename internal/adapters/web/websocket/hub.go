package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"sync"
	"time"

	gorilla "github.com/gorilla/websocket"
	"github.com/pkg/errors"

	"github.com/lcalzada-xor/assetvuln/internal/core/domain"
	"github.com/lcalzada-xor/assetvuln/internal/core/ports"
)

const writeTimeout = 5 * time.Second

// Message is the frame sent to clients for every notification.
type Message struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// Hub keeps the connected websocket clients and broadcasts notifications to
// them. It implements ports.NotificationSink.
type Hub struct {
	upgrader gorilla.Upgrader
	clients  map[*gorilla.Conn]struct{}
	mu       sync.Mutex
}

var _ ports.NotificationSink = (*Hub)(nil)

// NewHub creates a hub accepting connections from the given origins.
// Without origins only same-host (or Origin-less) requests are accepted.
func NewHub(allowedOrigins []string) *Hub {
	h := &Hub{clients: make(map[*gorilla.Conn]struct{})}
	h.upgrader = gorilla.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(allowedOrigins),
	}
	return h
}

func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		if slices.Contains(allowed, origin) {
			return true
		}
		if len(allowed) == 0 {
			u, err := url.Parse(origin)
			if err == nil && strings.EqualFold(u.Host, r.Host) {
				return true
			}
		}
		slog.Warn("websocket origin rejected", "origin", origin)
		return false
	}
}

// HandleWebSocket upgrades the request and registers the client until it
// disconnects. Clients are not expected to send anything.
func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Debug("websocket upgrade failed", "err", err)
		return
	}

	h.mu.Lock()
	h.clients[conn] = struct{}{}
	h.mu.Unlock()
	slog.Debug("websocket connected", "remote", r.RemoteAddr)

	go func() {
		defer h.remove(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// Publish broadcasts the event to every connected client. Clients that fail
// to receive it are dropped. Having no client is not an error.
func (h *Hub) Publish(ctx context.Context, event domain.NotificationEvent) error {
	if err := ctx.Err(); err != nil {
		return errors.Wrap(domain.ErrNotificationPublish, err.Error())
	}
	data, err := json.Marshal(Message{Type: domain.NotificationTypeNewCVE, Message: event.Message})
	if err != nil {
		return errors.Wrap(domain.ErrNotificationPublish, err.Error())
	}

	deadline := time.Now().Add(writeTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		conn.SetWriteDeadline(deadline)
		if err := conn.WriteMessage(gorilla.TextMessage, data); err != nil {
			slog.Debug("dropping websocket client", "err", err)
			conn.Close()
			delete(h.clients, conn)
		}
	}
	return nil
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		conn.WriteControl(gorilla.CloseMessage,
			gorilla.FormatCloseMessage(gorilla.CloseGoingAway, "server shutdown"),
			time.Now().Add(time.Second))
		conn.Close()
		delete(h.clients, conn)
	}
}

func (h *Hub) remove(conn *gorilla.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[conn]; ok {
		conn.Close()
		delete(h.clients, conn)
		slog.Debug("websocket disconnected")
	}
}
