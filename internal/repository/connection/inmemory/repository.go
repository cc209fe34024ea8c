package inmemory

import (
	"sync"

	"github.com/gorilla/websocket"
	"github.com/roomcast/roomcast/internal/repository/connection"
)

type repo struct {
	connList map[*websocket.Conn]connection.Identity
	idList   map[string]*websocket.Conn
	mu       sync.RWMutex
}

func NewRepo() *repo {
	return &repo{
		connList: make(map[*websocket.Conn]connection.Identity),
		idList:   make(map[string]*websocket.Conn),
	}
}

// Add registers the connection. A user reconnecting with a new conn
// replaces their previous mapping, the newest connection wins.
func (r *repo) Add(conn *websocket.Conn, identity connection.Identity) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.connList[conn]; ok {
		return connection.ErrAlreadyExists
	}

	r.connList[conn] = identity
	r.idList[identity.UserId] = conn

	return nil
}

func (r *repo) RemoveByConn(conn *websocket.Conn) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	identity, ok := r.connList[conn]
	if !ok {
		return connection.ErrNotFound
	}

	delete(r.connList, conn)
	// a stale conn must not evict a newer mapping for the same user
	if r.idList[identity.UserId] == conn {
		delete(r.idList, identity.UserId)
	}

	return nil
}

func (r *repo) GetIdentity(conn *websocket.Conn) (connection.Identity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	identity, ok := r.connList[conn]
	if !ok {
		return connection.Identity{}, connection.ErrNotFound
	}

	return identity, nil
}

func (r *repo) GetConn(userId string) (*websocket.Conn, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conn, ok := r.idList[userId]
	if !ok {
		return nil, connection.ErrNotFound
	}

	return conn, nil
}
