package controller

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/roomcast/roomcast/internal/service/room"
	"github.com/roomcast/roomcast/pkg/ctxlogger"
)

// serveWS upgrades the connection, resolves its identity once, and serves
// the message loop until the peer goes away. On exit every room the identity
// had joined gets a synthesized leave.
func (c controller) serveWS(w http.ResponseWriter, r *http.Request) {
	identity := c.resolveIdentity(r)

	conn, err := c.upgrader.Upgrade(w, r, nil)
	if err != nil {
		c.logger.WarnContext(r.Context(), "failed to upgrade to websocket", "error", err)
		return
	}
	defer conn.Close()

	ctx := context.WithValue(r.Context(), identityCtxKey, identity)
	ctx = ctxlogger.AppendCtx(ctx, slog.String("user_id", identity.UserId))

	if err := c.roomService.ConnectUser(ctx, &room.ConnectUserParams{
		Conn:     conn,
		Identity: identity,
	}); err != nil {
		c.logger.WarnContext(ctx, "failed to connect user", "error", err)
		return
	}
	defer c.disconnect(ctx, conn, identity.UserId, identity.Username)

	if err := c.wsmux.ServeConn(ctx, conn, c.onHandlerError); err != nil {
		c.logger.InfoContext(ctx, "websocket connection closed", "error", err)
	}
}

func (c controller) onHandlerError(ctx context.Context, conn *websocket.Conn, err error) {
	c.logger.InfoContext(ctx, "failed to handle websocket message", "error", err)
	c.writeError(ctx, conn, err)
}

func (c controller) disconnect(ctx context.Context, conn *websocket.Conn, userId, username string) {
	left, err := c.roomService.DisconnectUser(ctx, &room.DisconnectUserParams{
		Conn:   conn,
		UserId: userId,
	})
	if err != nil {
		c.logger.WarnContext(ctx, "failed to clean up rooms on disconnect", "error", err)
	}

	for _, room := range left {
		c.broadcast(ctx, room.Conns, &Output{
			Type: "user-left",
			Payload: map[string]any{
				"user_id":      userId,
				"username":     username,
				"participants": room.ParticipantCount,
			},
		})
	}

	if err := c.roomService.DisconnectConn(ctx, conn); err != nil {
		c.logger.DebugContext(ctx, "failed to unregister connection", "error", err)
	}
}
