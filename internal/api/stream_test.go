package api

import (
	"fmt"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"

	"datapact/internal/logging"
)

func TestStreamManagerConnectionCap(t *testing.T) {
	m := NewStreamManager(logging.NewTest())

	conns := make([]*websocket.Conn, maxConnectionsPerEmail)
	for i := range conns {
		conns[i] = &websocket.Conn{}
		assert.True(t, m.AddConnection("a@example.com", conns[i]), "connection %d", i)
	}

	// The cap applies per email, not globally.
	assert.False(t, m.AddConnection("a@example.com", &websocket.Conn{}))
	assert.True(t, m.AddConnection("b@example.com", &websocket.Conn{}))

	// Freeing a slot admits a new connection.
	m.RemoveConnection("a@example.com", conns[0])
	assert.True(t, m.AddConnection("a@example.com", &websocket.Conn{}))
}

func TestStreamManagerRemoveUnknownConnection(t *testing.T) {
	m := NewStreamManager(logging.NewTest())

	m.RemoveConnection("a@example.com", &websocket.Conn{})

	registered := &websocket.Conn{}
	assert.True(t, m.AddConnection("a@example.com", registered))
	m.RemoveConnection("a@example.com", &websocket.Conn{})
	m.RemoveConnection("a@example.com", registered)
	assert.Empty(t, m.connections)
}

func TestStreamManagerDistinctEmails(t *testing.T) {
	m := NewStreamManager(logging.NewTest())
	for i := 0; i < 3; i++ {
		email := fmt.Sprintf("user%d@example.com", i)
		assert.True(t, m.AddConnection(email, &websocket.Conn{}))
	}
	assert.Len(t, m.connections, 3)
}
