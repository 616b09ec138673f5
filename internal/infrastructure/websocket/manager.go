package websocket

import (
	"context"
	"sync"

	"github.com/gorilla/websocket"

	"linkup/pkg/logger"
)

// Client is one connected device session. The same user may hold several,
// one per device, each with its own unread state.
type Client struct {
	SessionID string
	UserEmail string
	Conn      *websocket.Conn
	Send      chan []byte
}

// Manager tracks all active device connections.
type Manager struct {
	clients    map[string]*Client
	Register   chan *Client
	Unregister chan *Client
	mutex      sync.RWMutex
}

func NewManager() *Manager {
	return &Manager{
		clients:    make(map[string]*Client),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
	}
}

// Start runs the manager's main loop in a goroutine.
func (m *Manager) Start(ctx context.Context) {
	go func() {
		for {
			select {
			case client := <-m.Register:
				m.mutex.Lock()
				m.clients[client.SessionID] = client
				m.mutex.Unlock()
				logger.Info("Device session registered: %s", client.SessionID)

			case client := <-m.Unregister:
				m.mutex.Lock()
				if _, ok := m.clients[client.SessionID]; ok {
					delete(m.clients, client.SessionID)
					close(client.Send)
				}
				m.mutex.Unlock()
				logger.Info("Device session unregistered: %s", client.SessionID)

			case <-ctx.Done():
				return
			}
		}
	}()
}

// SendToSession queues a message for one device session.
func (m *Manager) SendToSession(sessionID string, message []byte) {
	m.mutex.RLock()
	client, ok := m.clients[sessionID]
	m.mutex.RUnlock()

	if ok {
		select {
		case client.Send <- message:
		default:
			logger.Warn("Dropping message for slow session %s", sessionID)
		}
	}
}

// SendToUser queues a message for every device session of a user.
func (m *Manager) SendToUser(email string, message []byte) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	for _, client := range m.clients {
		if client.UserEmail == email {
			select {
			case client.Send <- message:
			default:
			}
		}
	}
}

// WritePump sends queued messages to the WebSocket connection.
func (c *Client) WritePump() {
	defer c.Conn.Close()

	for {
		message, ok := <-c.Send
		if !ok {
			c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}

		if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
			logger.Error("Write failed for session %s: %v", c.SessionID, err)
			return
		}
	}
}
