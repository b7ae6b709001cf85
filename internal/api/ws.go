package api

import (
	"sync"
	"time"

	"daily_quest/internal/middleware"
	"daily_quest/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	subscriberBuffer = 16
	writeWait        = 10 * time.Second
	pongWait         = 60 * time.Second
	pingPeriod       = pongWait * 9 / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Event is pushed to a session's open sockets so pages can refresh.
type Event struct {
	Type    string         `json:"type"`
	Payload map[string]any `json:"payload,omitempty"`
}

type subscriber struct {
	events chan Event
}

// Hub fans events out to the sockets of one session. Publishing never blocks;
// a subscriber with a full buffer misses the event.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[uuid.UUID]map[*subscriber]struct{}
}

func NewHub() *Hub {
	return &Hub{
		subscribers: make(map[uuid.UUID]map[*subscriber]struct{}),
	}
}

func (h *Hub) Subscribe(sessionID uuid.UUID) (<-chan Event, func()) {
	sub := &subscriber{events: make(chan Event, subscriberBuffer)}

	h.mu.Lock()
	if h.subscribers[sessionID] == nil {
		h.subscribers[sessionID] = make(map[*subscriber]struct{})
	}
	h.subscribers[sessionID][sub] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subscribers[sessionID], sub)
			if len(h.subscribers[sessionID]) == 0 {
				delete(h.subscribers, sessionID)
			}
			h.mu.Unlock()
		})
	}
	return sub.events, unsubscribe
}

// Publish returns the number of subscribers that received the event.
func (h *Hub) Publish(sessionID uuid.UUID, event Event) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for sub := range h.subscribers[sessionID] {
		select {
		case sub.events <- event:
			delivered++
		default:
			logger.Logger().Warn("dropping websocket event for slow subscriber",
				zap.String("session_id", sessionID.String()),
				zap.String("type", event.Type),
			)
		}
	}
	return delivered
}

func (h *Hub) Subscribers(sessionID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers[sessionID])
}

func NewWebSocketRoutes(handler *gin.RouterGroup, hub *Hub, sessions *middleware.Sessions) {
	handler.GET("/ws", sessions.Require(), hub.handleWebSocket)
}

func (h *Hub) handleWebSocket(c *gin.Context) {
	log := logger.Logger()
	session := middleware.CurrentSession(c)

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	events, unsubscribe := h.Subscribe(session.ID)
	defer unsubscribe()

	done := make(chan struct{})
	go func() {
		defer close(done)
		conn.SetReadLimit(512)
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Info("websocket unexpected close", zap.Error(err))
				}
				return
			}
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-c.Request.Context().Done():
			return
		case event := <-events:
			data, err := json.Marshal(event)
			if err != nil {
				log.Error("failed to encode websocket event", zap.Error(err))
				continue
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
