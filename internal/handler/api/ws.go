package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"LevelWatch/internal/domain/models"
	xlogger "LevelWatch/pkg/logger"
)

type wsMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// WSHub fans alert events and summary frames out to connected dashboards.
// It satisfies both the Notifier and the summary broadcast interfaces.
type WSHub struct {
	clients    map[*wsClient]bool
	register   chan *wsClient
	unregister chan *wsClient
	broadcast  chan []byte
	stop       chan struct{}
	logger     *xlogger.Logger
}

type wsClient struct {
	hub  *WSHub
	conn *websocket.Conn
	send chan []byte
}

// NewWSHub creates a hub. Run must be started before clients connect.
func NewWSHub(logger *xlogger.Logger) *WSHub {
	return &WSHub{
		clients:    map[*wsClient]bool{},
		register:   make(chan *wsClient),
		unregister: make(chan *wsClient),
		broadcast:  make(chan []byte, 1024),
		stop:       make(chan struct{}),
		logger:     logger,
	}
}

// Run drives registration and fan-out until Stop is called.
func (h *WSHub) Run() {
	for {
		select {
		case <-h.stop:
			for c := range h.clients {
				close(c.send)
				delete(h.clients, c)
			}
			return
		case c := <-h.register:
			h.clients[c] = true
		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
		case msg := <-h.broadcast:
			for c := range h.clients {
				select {
				case c.send <- msg:
				default:
					// slow client, drop it
					close(c.send)
					delete(h.clients, c)
				}
			}
		}
	}
}

// Stop shuts the hub down and disconnects every client.
func (h *WSHub) Stop() {
	close(h.stop)
}

// Notify pushes a fired alert to every connected client. Never fails: a
// full broadcast buffer drops the frame, clients catch up via summary.
func (h *WSHub) Notify(_ context.Context, event *models.AlertEvent) error {
	h.enqueue(marshalWS("alert", event))
	return nil
}

// BroadcastSummary pushes the periodic watch-list summary.
func (h *WSHub) BroadcastSummary(entries []models.SummaryEntry) {
	h.enqueue(marshalWS("summary", entries))
}

func (h *WSHub) enqueue(msg []byte) {
	select {
	case h.broadcast <- msg:
	default:
		h.logger.Warn("ws broadcast buffer full, frame dropped")
	}
}

var upgrader = websocket.Upgrader{
	HandshakeTimeout:  10 * time.Second,
	ReadBufferSize:    4096,
	WriteBufferSize:   4096,
	CheckOrigin:       func(r *http.Request) bool { return true }, // SPA local
	EnableCompression: true,
}

// RegisterRoutes mounts the websocket endpoint.
func (h *WSHub) RegisterRoutes(e *echo.Echo) {
	e.GET("/ws/monitor", h.serveWS)
}

func (h *WSHub) serveWS(c echo.Context) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.logger.Error("ws upgrade", xlogger.Error(err))
		return nil
	}
	client := &wsClient{
		hub:  h,
		conn: conn,
		send: make(chan []byte, 256),
	}
	h.register <- client
	go client.writePump()
	go client.readPump()
	return nil
}

func (c *wsClient) readPump() {
	defer func() {
		c.hub.unregister <- c
		_ = c.conn.Close()
	}()
	c.conn.SetReadLimit(4096)
	_ = c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *wsClient) writePump() {
	ticker := time.NewTicker(25 * time.Second)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			if _, err := w.Write(msg); err != nil {
				return
			}
			if err := w.Close(); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, []byte("ping")); err != nil {
				return
			}
		}
	}
}

func marshalWS(t string, v interface{}) []byte {
	b, _ := json.Marshal(wsMessage{Type: t, Data: v})
	return b
}
