package room

import (
	"context"
	"fmt"
	"time"

	"github.com/gorilla/websocket"
	"github.com/roomcast/roomcast/internal/repository/room"
)

type ChatMessageParams struct {
	RoomId   string
	SenderId string
	Message  string
}

type ChatMessageResponse struct {
	Timestamp int64
	// Conns includes the sender: chat is the one event type intentionally
	// echoed, there is no local feedback loop to avoid.
	Conns []*websocket.Conn
}

func (s service) ChatMessage(ctx context.Context, params *ChatMessageParams) (ChatMessageResponse, error) {
	exists, err := s.roomRepo.IsRoomExists(ctx, params.RoomId)
	if err != nil {
		return ChatMessageResponse{}, fmt.Errorf("failed to check room: %w", err)
	}
	if !exists {
		return ChatMessageResponse{}, ErrRoomNotFound
	}

	isParticipant, err := s.roomRepo.IsParticipant(ctx, &room.ParticipantParams{
		RoomId: params.RoomId,
		UserId: params.SenderId,
	})
	if err != nil {
		return ChatMessageResponse{}, fmt.Errorf("failed to check participant: %w", err)
	}
	if !isParticipant {
		return ChatMessageResponse{}, ErrNotParticipant
	}

	conns, err := s.getConnsExcept(ctx, params.RoomId, "")
	if err != nil {
		return ChatMessageResponse{}, fmt.Errorf("failed to get conns: %w", err)
	}

	return ChatMessageResponse{
		Timestamp: time.Now().Unix(),
		Conns:     conns,
	}, nil
}
