package api

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"datapact/internal/logging"
)

const maxConnectionsPerEmail = 10

// StreamManager fans out short notification frames to the websocket
// connections of each recipient email.
type StreamManager struct {
	connections map[string]map[*websocket.Conn]bool
	mutex       sync.Mutex
	logger      *logging.Logger
}

// NewStreamManager constructs an empty StreamManager.
func NewStreamManager(logger *logging.Logger) *StreamManager {
	return &StreamManager{
		connections: make(map[string]map[*websocket.Conn]bool),
		logger:      logger,
	}
}

// AddConnection registers a connection for an email. It returns false when
// the email already holds the maximum number of connections; the caller must
// close the connection itself in that case.
func (m *StreamManager) AddConnection(email string, conn *websocket.Conn) bool {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if _, exists := m.connections[email]; !exists {
		m.connections[email] = make(map[*websocket.Conn]bool)
	}
	if len(m.connections[email]) >= maxConnectionsPerEmail {
		m.logger.Warnf("Max websocket connections reached for %s", email)
		return false
	}
	m.connections[email][conn] = true
	m.logger.Infof("Added websocket connection for %s (total: %d)", email, len(m.connections[email]))
	return true
}

// RemoveConnection drops a connection for an email.
func (m *StreamManager) RemoveConnection(email string, conn *websocket.Conn) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if conns, exists := m.connections[email]; exists {
		delete(conns, conn)
		if len(conns) == 0 {
			delete(m.connections, email)
		}
	}
}

// Publish writes a text frame to every connection of an email. Connections
// that fail are dropped.
func (m *StreamManager) Publish(email string, message []byte) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	conns, exists := m.connections[email]
	if !exists {
		return
	}
	for conn := range conns {
		if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
			m.logger.Errorf("Failed to push websocket frame to %s: %v", email, err)
			delete(conns, conn)
		}
	}
	if len(conns) == 0 {
		delete(m.connections, email)
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// StreamNotifications upgrades the request and holds the connection open
// until the client goes away.
func (h *Handler) StreamNotifications(c *gin.Context) {
	email := c.Param("email")
	if email == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email is required"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Errorf("Websocket upgrade failed for %s: %v", email, err)
		return
	}

	if !h.stream.AddConnection(email, conn) {
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "too many connections"))
		conn.Close()
		return
	}
	defer func() {
		h.stream.RemoveConnection(email, conn)
		conn.Close()
	}()

	// Drain client frames; we only push.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
