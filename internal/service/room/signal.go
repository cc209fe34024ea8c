package room

import (
	"context"
	"errors"
	"fmt"

	"github.com/gorilla/websocket"
	"github.com/roomcast/roomcast/internal/repository/connection"
	"github.com/roomcast/roomcast/internal/repository/room"
)

type RelaySignalParams struct {
	RoomId   string
	SenderId string
	// To targets one participant; empty means broadcast to the room minus
	// the sender.
	To string
}

type RelaySignalResponse struct {
	Conns []*websocket.Conn
}

// RelaySignal resolves the connections a signaling envelope should be
// forwarded to. The payload itself is never inspected here; the only check
// is that the sender currently participates in the named room. A vanished
// target yields zero conns rather than an error: the envelope is dropped
// and the peer's own negotiation timeout takes over.
func (s service) RelaySignal(ctx context.Context, params *RelaySignalParams) (RelaySignalResponse, error) {
	isParticipant, err := s.roomRepo.IsParticipant(ctx, &room.ParticipantParams{
		RoomId: params.RoomId,
		UserId: params.SenderId,
	})
	if err != nil {
		return RelaySignalResponse{}, fmt.Errorf("failed to check participant: %w", err)
	}
	if !isParticipant {
		return RelaySignalResponse{}, ErrNotParticipant
	}

	if params.To != "" {
		targetIsParticipant, err := s.roomRepo.IsParticipant(ctx, &room.ParticipantParams{
			RoomId: params.RoomId,
			UserId: params.To,
		})
		if err != nil {
			return RelaySignalResponse{}, fmt.Errorf("failed to check target: %w", err)
		}
		if !targetIsParticipant {
			s.logger.DebugContext(ctx, "signal target is not a participant, dropping", "to", params.To)
			return RelaySignalResponse{}, nil
		}

		conn, err := s.connRepo.GetConn(params.To)
		if err != nil {
			if errors.Is(err, connection.ErrNotFound) {
				s.logger.DebugContext(ctx, "signal target connection is gone, dropping", "to", params.To)
				return RelaySignalResponse{}, nil
			}
			return RelaySignalResponse{}, fmt.Errorf("failed to get target conn: %w", err)
		}

		return RelaySignalResponse{Conns: []*websocket.Conn{conn}}, nil
	}

	conns, err := s.getConnsExcept(ctx, params.RoomId, params.SenderId)
	if err != nil {
		return RelaySignalResponse{}, fmt.Errorf("failed to get conns: %w", err)
	}

	return RelaySignalResponse{Conns: conns}, nil
}
