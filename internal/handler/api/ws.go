package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	models "WhaleRadar/internal/domain/models"
	xlogger "WhaleRadar/pkg/logger"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Dashboard clients connect from other origins.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// SignalHub pushes accepted signals to connected WebSocket clients. It
// doubles as a SignalPublisher so the scanner fan-out can include it.
type SignalHub struct {
	logger *xlogger.Logger

	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
}

func NewSignalHub(logger *xlogger.Logger) *SignalHub {
	return &SignalHub{
		logger:  logger,
		clients: make(map[*websocket.Conn]struct{}),
	}
}

// RegisterRoutes mounts the stream endpoint.
func (h *SignalHub) RegisterRoutes(e *echo.Echo) {
	e.GET("/ws/signals", h.Serve)
}

// Serve upgrades the connection and parks it until the client leaves.
func (h *SignalHub) Serve(c echo.Context) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}
	h.mu.Lock()
	h.clients[conn] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()
	if h.logger != nil {
		h.logger.Debug("ws client connected", xlogger.Int("clients", n))
	}

	// Drain reads so pings and close frames are processed.
	go func() {
		defer h.drop(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
	return nil
}

func (h *SignalHub) drop(conn *websocket.Conn) {
	h.mu.Lock()
	delete(h.clients, conn)
	h.mu.Unlock()
	_ = conn.Close()
}

// Publish broadcasts the signal to every connected client. Slow or
// broken clients are dropped instead of blocking the pipeline.
func (h *SignalHub) Publish(_ context.Context, s *models.Signal) error {
	payload, err := json.Marshal(s)
	if err != nil {
		return err
	}

	h.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(h.clients))
	for conn := range h.clients {
		conns = append(conns, conn)
	}
	h.mu.Unlock()

	for _, conn := range conns {
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			h.drop(conn)
		}
	}
	return nil
}

// Close disconnects all clients.
func (h *SignalHub) Close() error {
	h.mu.Lock()
	for conn := range h.clients {
		_ = conn.Close()
	}
	h.clients = make(map[*websocket.Conn]struct{})
	h.mu.Unlock()
	return nil
}
