// Package notify pushes session events to connected browsers over
// websockets, so a dashboard reacts to role changes without polling.
package notify

import (
	"net/http"
	"sync"
	"time"

	"mswdportal/internal/core/domain"
	"mswdportal/internal/core/ports"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // CORS is enforced at the HTTP layer
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// HubMetrics is the monitoring hook for client lifecycle and drops. A nil
// implementation is tolerated.
type HubMetrics interface {
	NotifyClientConnected()
	NotifyClientDisconnected()
	NotifyMessageDropped()
}

type client struct {
	userID    domain.UserID
	sessionID domain.SessionID
	conn      *websocket.Conn
	send      chan domain.SessionEvent
}

// Hub fans session events out to each user's open connections. Slow clients
// get messages dropped, never block the emitter.
type Hub struct {
	provider ports.IdentityProvider
	metrics  HubMetrics
	logger   *zap.SugaredLogger

	pingInterval time.Duration
	pongTimeout  time.Duration
	writeTimeout time.Duration

	mu      sync.RWMutex
	clients map[domain.UserID]map[*client]bool
}

func NewHub(
	provider ports.IdentityProvider,
	pingInterval, pongTimeout, writeTimeout time.Duration,
	metrics HubMetrics,
	logger *zap.SugaredLogger,
) *Hub {
	return &Hub{
		provider:     provider,
		metrics:      metrics,
		logger:       logger,
		pingInterval: pingInterval,
		pongTimeout:  pongTimeout,
		writeTimeout: writeTimeout,
		clients:      make(map[domain.UserID]map[*client]bool),
	}
}

// HandleWebSocket upgrades an authenticated request. The token travels in
// the query string because browsers cannot set headers on websocket dials.
func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		http.Error(w, "token required", http.StatusUnauthorized)
		return
	}

	claims, err := h.provider.ValidateToken(token)
	if err != nil {
		http.Error(w, "invalid or expired token", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Errorw("websocket upgrade failed", "error", err)
		return
	}

	c := &client{
		userID:    claims.UserID,
		sessionID: claims.SessionID,
		conn:      conn,
		send:      make(chan domain.SessionEvent, 16),
	}

	h.register(c)
	h.logger.Infow("notify client connected",
		"user_id", c.userID,
		"session_id", c.sessionID,
	)

	go h.writeLoop(c)
	h.readLoop(c)
}

// Publish delivers the event to every connection of the event's user.
// Satisfies the session manager's subscriber signature.
func (h *Hub) Publish(ev domain.SessionEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.clients[ev.UserID] {
		select {
		case c.send <- ev:
		default:
			if h.metrics != nil {
				h.metrics.NotifyMessageDropped()
			}
		}
	}
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	if h.clients[c.userID] == nil {
		h.clients[c.userID] = make(map[*client]bool)
	}
	h.clients[c.userID][c] = true
	h.mu.Unlock()

	if h.metrics != nil {
		h.metrics.NotifyClientConnected()
	}
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	if conns, ok := h.clients[c.userID]; ok {
		if conns[c] {
			delete(conns, c)
			if len(conns) == 0 {
				delete(h.clients, c.userID)
			}
			if h.metrics != nil {
				h.metrics.NotifyClientDisconnected()
			}
		}
	}
	h.mu.Unlock()

	c.conn.Close()
}

func (h *Hub) readLoop(c *client) {
	defer h.unregister(c)

	c.conn.SetReadDeadline(time.Now().Add(h.pongTimeout))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(h.pongTimeout))
		return nil
	})

	// Clients never send application messages; the loop exists to service
	// pongs and detect closure.
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debugw("notify client read error",
					"user_id", c.userID,
					"error", err,
				)
			}
			return
		}
	}
}

func (h *Hub) writeLoop(c *client) {
	pingTicker := time.NewTicker(h.pingInterval)
	defer func() {
		pingTicker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case ev, ok := <-c.send:
			if !ok {
				return
			}
			c.conn.SetWriteDeadline(time.Now().Add(h.writeTimeout))
			if err := c.conn.WriteJSON(ev); err != nil {
				h.logger.Debugw("notify write failed",
					"user_id", c.userID,
					"error", err,
				)
				return
			}

		case <-pingTicker.C:
			c.conn.SetWriteDeadline(time.Now().Add(h.writeTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// ClientCount reports the number of open connections, for health output.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	n := 0
	for _, conns := range h.clients {
		n += len(conns)
	}
	return n
}

// Close drops every client connection.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, conns := range h.clients {
		for c := range conns {
			c.conn.Close()
		}
	}
	h.clients = make(map[domain.UserID]map[*client]bool)
}
