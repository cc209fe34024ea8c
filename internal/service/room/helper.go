package room

import (
	"context"

	"github.com/gorilla/websocket"
)

// getConnsExcept returns the live connections of every participant of the
// room except exceptUserId. Participants whose connection has already gone
// away are skipped: the relay and broadcast paths drop silently.
func (s service) getConnsExcept(ctx context.Context, roomId, exceptUserId string) ([]*websocket.Conn, error) {
	participantIds, err := s.roomRepo.GetParticipantIds(ctx, roomId)
	if err != nil {
		return nil, err
	}

	conns := make([]*websocket.Conn, 0, len(participantIds))
	for _, userId := range participantIds {
		if userId == exceptUserId {
			continue
		}

		conn, err := s.connRepo.GetConn(userId)
		if err != nil {
			s.logger.DebugContext(ctx, "participant has no live connection", "user_id", userId)
			continue
		}

		conns = append(conns, conn)
	}

	return conns, nil
}
