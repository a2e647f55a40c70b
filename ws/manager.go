package ws

import (
	"sync"

	"sav3_backend/internal/logger"
)

// WebSocketManager tracks connected clients per user. A user may hold
// several connections at once (phone and web side by side).
type WebSocketManager struct {
	clients    map[string]map[*Client]bool
	register   chan *Client
	unregister chan *Client
	mu         sync.RWMutex
}

func NewWebSocketManager() *WebSocketManager {
	return &WebSocketManager{
		clients:    make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

func (manager *WebSocketManager) Run() {
	for {
		select {
		case client := <-manager.register:
			manager.mu.Lock()
			if manager.clients[client.UserID] == nil {
				manager.clients[client.UserID] = make(map[*Client]bool)
			}
			manager.clients[client.UserID][client] = true
			manager.mu.Unlock()
			logger.Debug("ws client registered", "user_id", client.UserID)

		case client := <-manager.unregister:
			manager.mu.Lock()
			if conns, ok := manager.clients[client.UserID]; ok {
				if _, ok := conns[client]; ok {
					close(client.Send)
					delete(conns, client)
					if len(conns) == 0 {
						delete(manager.clients, client.UserID)
					}
					logger.Debug("ws client unregistered", "user_id", client.UserID)
				}
			}
			manager.mu.Unlock()
		}
	}
}

// PushToUser sends a message to every live connection of the user.
// Returns false when the user has no connections.
func (manager *WebSocketManager) PushToUser(userID string, message any) bool {
	manager.mu.RLock()
	defer manager.mu.RUnlock()

	conns, ok := manager.clients[userID]
	if !ok || len(conns) == 0 {
		return false
	}

	for client := range conns {
		select {
		case client.Send <- message:
		default:
			// Send channel full, the connection is stuck.
			go func(c *Client) {
				manager.unregister <- c
			}(client)
		}
	}
	return true
}

func (manager *WebSocketManager) ClientCount() int {
	manager.mu.RLock()
	defer manager.mu.RUnlock()

	total := 0
	for _, conns := range manager.clients {
		total += len(conns)
	}
	return total
}

func (manager *WebSocketManager) IsConnected(userID string) bool {
	manager.mu.RLock()
	defer manager.mu.RUnlock()
	return len(manager.clients[userID]) > 0
}
