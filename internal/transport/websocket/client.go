package websocket

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/avolkov/gemrush/backend/internal/domain"
)

// ConnectionManager tracks active sockets by player id. It implements
// game.Notifier, so rooms can broadcast without knowing the transport.
type ConnectionManager struct {
	connections map[string]*websocket.Conn

	// writeMu ensures only one goroutine writes to a specific socket at
	// a time; conn.WriteJSON is not safe for concurrent use.
	writeMu map[string]*sync.Mutex

	mu sync.RWMutex // protects the maps themselves
}

func NewConnectionManager() *ConnectionManager {
	return &ConnectionManager{
		connections: make(map[string]*websocket.Conn),
		writeMu:     make(map[string]*sync.Mutex),
	}
}

// Add registers a new connection and initializes its write lock.
func (cm *ConnectionManager) Add(playerID string, conn *websocket.Conn) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if oldConn, exists := cm.connections[playerID]; exists {
		oldConn.Close()
	}

	cm.connections[playerID] = conn
	cm.writeMu[playerID] = &sync.Mutex{}
}

// RemoveIfMatching drops the player's entry only when it still points
// at this exact socket, so a cleanup for an old connection can never
// tear down a newer one.
func (cm *ConnectionManager) RemoveIfMatching(playerID string, conn *websocket.Conn) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if currentConn, exists := cm.connections[playerID]; exists && currentConn == conn {
		currentConn.Close()
		delete(cm.connections, playerID)
		delete(cm.writeMu, playerID)
	}
}

// Send delivers a JSON message to one player. A missing connection is
// not an error; the player simply disconnected.
func (cm *ConnectionManager) Send(playerID string, msg domain.ServerMessage) error {
	cm.mu.RLock()
	conn, exists := cm.connections[playerID]
	mu, muExists := cm.writeMu[playerID]
	cm.mu.RUnlock()

	if !exists || !muExists {
		return nil
	}

	mu.Lock()
	defer mu.Unlock()

	conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return conn.WriteJSON(msg)
}
