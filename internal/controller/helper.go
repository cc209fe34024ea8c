package controller

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/roomcast/roomcast/internal/repository/connection"
)

type Output struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

func (c controller) generateTimeBasedId() string {
	return strconv.FormatInt(time.Now().UnixNano(), 36)
}

// resolveIdentity reads the caller's identity from headers (REST) or query
// params (websocket), falling back to a fresh guest identity. Proper auth
// middleware sits in front of this service and is not our concern.
func (c controller) resolveIdentity(r *http.Request) connection.Identity {
	userId := r.Header.Get("X-User-Id")
	username := r.Header.Get("X-Username")

	if userId == "" {
		userId = r.URL.Query().Get("user-id")
	}
	if username == "" {
		username = r.URL.Query().Get("username")
	}

	if userId == "" {
		userId = "guest-" + uuid.NewString()
	}
	if username == "" {
		username = "Guest"
	}

	return connection.Identity{UserId: userId, Username: username}
}

func (c controller) writeToConn(ctx context.Context, conn *websocket.Conn, output *Output) error {
	if err := conn.WriteJSON(output); err != nil {
		return fmt.Errorf("failed to write to conn: %w", err)
	}

	return nil
}

func (c controller) broadcast(ctx context.Context, conns []*websocket.Conn, output *Output) error {
	for _, conn := range conns {
		if err := conn.WriteJSON(output); err != nil {
			c.logger.DebugContext(ctx, "failed to write to conn during broadcast", "error", err)
		}
	}

	return nil
}

func (c controller) writeError(ctx context.Context, conn *websocket.Conn, err error) {
	if writeErr := conn.WriteJSON(&Output{
		Type:    "error",
		Payload: map[string]string{"message": err.Error()},
	}); writeErr != nil {
		c.logger.DebugContext(ctx, "failed to write error", "error", writeErr)
	}
}
