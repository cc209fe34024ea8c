package room

import (
	"context"
	"errors"
	"fmt"

	"github.com/gorilla/websocket"
	"github.com/roomcast/roomcast/internal/repository/room"
)

type PlaybackCommandParams struct {
	RoomId   string
	SenderId string
}

type PlaybackResponse struct {
	Playback Playback
	// Conns are every participant except the issuer: playback deltas are
	// never echoed back to their originator.
	Conns []*websocket.Conn
}

func (s service) getPlayback(ctx context.Context, roomId string) (room.Room, error) {
	stored, err := s.roomRepo.GetRoom(ctx, roomId)
	if err != nil {
		if errors.Is(err, room.ErrRoomNotFound) {
			return room.Room{}, ErrRoomNotFound
		}
		return room.Room{}, fmt.Errorf("failed to get room: %w", err)
	}

	return stored, nil
}

func (s service) applyPlayback(ctx context.Context, params *PlaybackCommandParams, playback Playback) (PlaybackResponse, error) {
	if err := s.roomRepo.UpdatePlayback(ctx, &room.UpdatePlaybackParams{
		RoomId:      params.RoomId,
		VideoUrl:    playback.VideoUrl,
		IsPlaying:   playback.IsPlaying,
		CurrentTime: playback.CurrentTime,
	}); err != nil {
		return PlaybackResponse{}, fmt.Errorf("failed to update playback: %w", err)
	}

	conns, err := s.getConnsExcept(ctx, params.RoomId, params.SenderId)
	if err != nil {
		return PlaybackResponse{}, fmt.Errorf("failed to get conns: %w", err)
	}

	return PlaybackResponse{Playback: playback, Conns: conns}, nil
}

func (s service) PlayVideo(ctx context.Context, params *PlaybackCommandParams) (PlaybackResponse, error) {
	stored, err := s.getPlayback(ctx, params.RoomId)
	if err != nil {
		return PlaybackResponse{}, err
	}

	return s.applyPlayback(ctx, params, Playback{
		VideoUrl:    stored.VideoUrl,
		IsPlaying:   true,
		CurrentTime: stored.CurrentTime,
	})
}

func (s service) PauseVideo(ctx context.Context, params *PlaybackCommandParams) (PlaybackResponse, error) {
	stored, err := s.getPlayback(ctx, params.RoomId)
	if err != nil {
		return PlaybackResponse{}, err
	}

	return s.applyPlayback(ctx, params, Playback{
		VideoUrl:    stored.VideoUrl,
		IsPlaying:   false,
		CurrentTime: stored.CurrentTime,
	})
}

type SeekVideoParams struct {
	RoomId      string
	SenderId    string
	CurrentTime float64
}

func (s service) SeekVideo(ctx context.Context, params *SeekVideoParams) (PlaybackResponse, error) {
	stored, err := s.getPlayback(ctx, params.RoomId)
	if err != nil {
		return PlaybackResponse{}, err
	}

	return s.applyPlayback(ctx, &PlaybackCommandParams{RoomId: params.RoomId, SenderId: params.SenderId}, Playback{
		VideoUrl:    stored.VideoUrl,
		IsPlaying:   stored.IsPlaying,
		CurrentTime: params.CurrentTime,
	})
}

type ChangeVideoUrlParams struct {
	RoomId   string
	SenderId string
	VideoUrl string
}

// ChangeVideoUrl swaps the video and resets currentTime to 0 and isPlaying
// to false in the same write, so the change reaches other participants as
// one combined delta.
func (s service) ChangeVideoUrl(ctx context.Context, params *ChangeVideoUrlParams) (PlaybackResponse, error) {
	if _, err := s.getPlayback(ctx, params.RoomId); err != nil {
		return PlaybackResponse{}, err
	}

	return s.applyPlayback(ctx, &PlaybackCommandParams{RoomId: params.RoomId, SenderId: params.SenderId}, Playback{
		VideoUrl:    params.VideoUrl,
		IsPlaying:   false,
		CurrentTime: 0,
	})
}
