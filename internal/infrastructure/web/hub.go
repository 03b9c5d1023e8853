package web

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"

	"live-detect/internal/domain/entity"
	"live-detect/internal/domain/port"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	sendBuffer = 16
)

// Hub рассылает сообщения всем подключённым websocket-клиентам
type Hub struct {
	mu      sync.Mutex
	clients map[*client]struct{}
	last    []byte // последнее сообщение, его получает новый клиент
	logger  *slog.Logger
}

type client struct {
	send chan []byte
}

// NewHub создаёт пустой hub
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		clients: make(map[*client]struct{}),
		logger:  logger,
	}
}

// Broadcast отправляет сообщение всем. Медленные клиенты отключаются.
func (h *Hub) Broadcast(data []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.last = data
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			close(c.send)
			delete(h.clients, c)
			h.logger.Warn("dropped slow websocket client")
		}
	}
}

// BroadcastJSON кодирует и рассылает сообщение
func (h *Hub) BroadcastJSON(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	h.Broadcast(data)
	return nil
}

// ClientCount число подключённых клиентов
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) register() *client {
	c := &client{send: make(chan []byte, sendBuffer)}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = struct{}{}
	if h.last != nil {
		c.send <- h.last
	}
	return c
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

// Serve обслуживает одно websocket-соединение до его закрытия
func (h *Hub) Serve(conn *websocket.Conn) {
	c := h.register()
	h.logger.Debug("websocket client connected", "clients", h.ClientCount())

	go h.writePump(conn, c)

	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	// Клиенты ничего не шлют, чтение нужно только чтобы заметить отключение.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	h.unregister(c)
	h.logger.Debug("websocket client disconnected", "clients", h.ClientCount())
}

func (h *Hub) writePump(conn *websocket.Conn, c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// ViewMessage сообщение живого вида
type ViewMessage struct {
	Type     string           `json:"type"` // overlays | clear
	Overlays []entity.Overlay `json:"overlays"`
}

// LiveView показывает оверлеи в браузере через websocket
type LiveView struct {
	hub *Hub
}

// NewLiveView создаёт живой вид поверх hub
func NewLiveView(hub *Hub) *LiveView {
	return &LiveView{hub: hub}
}

func (v *LiveView) Render(overlays []entity.Overlay) {
	if overlays == nil {
		overlays = []entity.Overlay{}
	}
	_ = v.hub.BroadcastJSON(ViewMessage{Type: "overlays", Overlays: overlays})
}

func (v *LiveView) Clear() {
	_ = v.hub.BroadcastJSON(ViewMessage{Type: "clear", Overlays: []entity.Overlay{}})
}

var _ port.OverlayView = (*LiveView)(nil)
