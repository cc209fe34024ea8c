package room

import (
	"context"
	"errors"
	"fmt"

	"github.com/gorilla/websocket"
	"github.com/roomcast/roomcast/internal/repository/connection"
	"github.com/roomcast/roomcast/internal/repository/room"
)

type JoinRoomParams struct {
	RoomId string
	UserId string
}

type JoinRoomResponse struct {
	Playback         Playback
	ParticipantCount int
	// Conns are the other participants' connections for the user-joined
	// broadcast. The joiner itself gets the room-state catch-up instead.
	Conns []*websocket.Conn
}

// JoinRoom adds the user to the room's participant set. Re-joining is a
// no-op on membership but still returns the current authoritative state.
func (s service) JoinRoom(ctx context.Context, params *JoinRoomParams) (JoinRoomResponse, error) {
	stored, err := s.roomRepo.GetRoom(ctx, params.RoomId)
	if err != nil {
		if errors.Is(err, room.ErrRoomNotFound) {
			return JoinRoomResponse{}, ErrRoomNotFound
		}
		return JoinRoomResponse{}, fmt.Errorf("failed to get room: %w", err)
	}

	if err := s.roomRepo.AddParticipant(ctx, &room.ParticipantParams{
		RoomId: params.RoomId,
		UserId: params.UserId,
	}); err != nil {
		return JoinRoomResponse{}, fmt.Errorf("failed to add participant: %w", err)
	}

	participantCount, err := s.roomRepo.GetParticipantCount(ctx, params.RoomId)
	if err != nil {
		return JoinRoomResponse{}, fmt.Errorf("failed to get participant count: %w", err)
	}

	conns, err := s.getConnsExcept(ctx, params.RoomId, params.UserId)
	if err != nil {
		return JoinRoomResponse{}, fmt.Errorf("failed to get conns: %w", err)
	}

	return JoinRoomResponse{
		Playback: Playback{
			VideoUrl:    stored.VideoUrl,
			IsPlaying:   stored.IsPlaying,
			CurrentTime: stored.CurrentTime,
		},
		ParticipantCount: participantCount,
		Conns:            conns,
	}, nil
}

type LeaveRoomParams struct {
	RoomId string
	UserId string
}

type LeaveRoomResponse struct {
	ParticipantCount int
	Conns            []*websocket.Conn
}

// LeaveRoom is idempotent. Emptying the participant set does not delete the
// room: ownership persists independently of membership.
func (s service) LeaveRoom(ctx context.Context, params *LeaveRoomParams) (LeaveRoomResponse, error) {
	exists, err := s.roomRepo.IsRoomExists(ctx, params.RoomId)
	if err != nil {
		return LeaveRoomResponse{}, fmt.Errorf("failed to check room: %w", err)
	}
	if !exists {
		return LeaveRoomResponse{}, nil
	}

	if err := s.roomRepo.RemoveParticipant(ctx, &room.ParticipantParams{
		RoomId: params.RoomId,
		UserId: params.UserId,
	}); err != nil {
		return LeaveRoomResponse{}, fmt.Errorf("failed to remove participant: %w", err)
	}

	participantCount, err := s.roomRepo.GetParticipantCount(ctx, params.RoomId)
	if err != nil {
		return LeaveRoomResponse{}, fmt.Errorf("failed to get participant count: %w", err)
	}

	conns, err := s.getConnsExcept(ctx, params.RoomId, params.UserId)
	if err != nil {
		return LeaveRoomResponse{}, fmt.Errorf("failed to get conns: %w", err)
	}

	return LeaveRoomResponse{
		ParticipantCount: participantCount,
		Conns:            conns,
	}, nil
}

type RoomLeft struct {
	RoomId           string
	ParticipantCount int
	Conns            []*websocket.Conn
}

type DisconnectUserParams struct {
	Conn   *websocket.Conn
	UserId string
}

// DisconnectUser synthesizes a leave for every room the user's connection
// had joined. This is the only server-initiated cleanup path. A close of a
// connection the registry no longer maps to the user is a reconnect leftover
// and must not touch the live session's membership.
func (s service) DisconnectUser(ctx context.Context, params *DisconnectUserParams) ([]RoomLeft, error) {
	if current, err := s.connRepo.GetConn(params.UserId); err == nil && current != params.Conn {
		s.logger.DebugContext(ctx, "ignoring disconnect of superseded connection", "user_id", params.UserId)
		return nil, nil
	}

	roomIds, err := s.roomRepo.GetParticipantRoomIds(ctx, params.UserId)
	if err != nil {
		return nil, fmt.Errorf("failed to get room ids: %w", err)
	}

	left := make([]RoomLeft, 0, len(roomIds))
	for _, roomId := range roomIds {
		resp, err := s.LeaveRoom(ctx, &LeaveRoomParams{RoomId: roomId, UserId: params.UserId})
		if err != nil {
			s.logger.WarnContext(ctx, "failed to leave room on disconnect", "room_id", roomId, "error", err)
			continue
		}

		left = append(left, RoomLeft{
			RoomId:           roomId,
			ParticipantCount: resp.ParticipantCount,
			Conns:            resp.Conns,
		})
	}

	return left, nil
}

type ConnectUserParams struct {
	Conn     *websocket.Conn
	Identity connection.Identity
}

func (s service) ConnectUser(ctx context.Context, params *ConnectUserParams) error {
	if err := s.connRepo.Add(params.Conn, params.Identity); err != nil {
		return fmt.Errorf("failed to register connection: %w", err)
	}

	return nil
}

func (s service) DisconnectConn(ctx context.Context, conn *websocket.Conn) error {
	if err := s.connRepo.RemoveByConn(conn); err != nil {
		return fmt.Errorf("failed to unregister connection: %w", err)
	}

	return nil
}
