package satisfaction

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ssafy/baperang/backend/internal/contracts"
	"github.com/ssafy/baperang/backend/pkg/logger"
)

const (
	pingInterval = 30 * time.Second
	pongWait     = 60 * time.Second
	writeWait    = 10 * time.Second

	// per-subscriber buffer; a subscriber that falls further behind is dropped
	sendBuffer = 16
)

type subscriber struct {
	conn *websocket.Conn
	send chan contracts.SatisfactionUpdate
}

// Hub fans SatisfactionUpdate messages out to connected dashboards
// ⭐ SSOT: 만족도 실시간 푸시는 이 Hub에서만
type Hub struct {
	upgrader websocket.Upgrader
	logger   *logger.Logger

	mu   sync.RWMutex
	subs map[*subscriber]struct{}
}

// NewHub creates a websocket hub
func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		logger: log,
		subs:   make(map[*subscriber]struct{}),
	}
}

// Broadcast queues an update for every subscriber without blocking
func (h *Hub) Broadcast(update contracts.SatisfactionUpdate) {
	h.mu.RLock()
	var slow []*subscriber
	for s := range h.subs {
		select {
		case s.send <- update:
		default:
			slow = append(slow, s)
		}
	}
	h.mu.RUnlock()

	for _, s := range slow {
		h.logger.Warn("Dropping slow satisfaction subscriber")
		h.remove(s)
	}
}

// Subscribers reports the number of connected dashboards
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// ServeHTTP upgrades the request and streams updates until the client leaves
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WithError(err).Warn("WebSocket upgrade failed")
		return
	}

	s := &subscriber{conn: conn, send: make(chan contracts.SatisfactionUpdate, sendBuffer)}
	h.mu.Lock()
	h.subs[s] = struct{}{}
	h.mu.Unlock()

	h.logger.WithField("subscribers", h.Subscribers()).Debug("Satisfaction subscriber connected")

	go h.writeLoop(s)
	h.readLoop(s)
}

// remove closes a subscriber once
func (h *Hub) remove(s *subscriber) {
	h.mu.Lock()
	_, ok := h.subs[s]
	if ok {
		delete(h.subs, s)
		close(s.send)
	}
	h.mu.Unlock()

	if ok {
		s.conn.Close()
	}
}

// readLoop only drains control frames; clients never send data
func (h *Hub) readLoop(s *subscriber) {
	defer h.remove(s)

	s.conn.SetReadLimit(512)
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writeLoop(s *subscriber) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case update, ok := <-s.send:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = s.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := s.conn.WriteJSON(update); err != nil {
				h.remove(s)
				return
			}
		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				h.remove(s)
				return
			}
		}
	}
}
