package controller

import (
	"context"
	"fmt"

	"github.com/gorilla/websocket"
	"github.com/roomcast/roomcast/internal/service/room"
)

type JoinRoomInput struct {
	RoomId string `json:"room_id"`
}

func (c controller) handleJoinRoom(ctx context.Context, conn *websocket.Conn, input JoinRoomInput) error {
	identity := c.getIdentityFromCtx(ctx)

	joinRoomResp, err := c.roomService.JoinRoom(ctx, &room.JoinRoomParams{
		RoomId: input.RoomId,
		UserId: identity.UserId,
	})
	if err != nil {
		return fmt.Errorf("failed to join room: %w", err)
	}

	if err := c.writeToConn(ctx, conn, &Output{
		Type: "room-state",
		Payload: map[string]any{
			"video_url":    joinRoomResp.Playback.VideoUrl,
			"is_playing":   joinRoomResp.Playback.IsPlaying,
			"current_time": joinRoomResp.Playback.CurrentTime,
			"participants": joinRoomResp.ParticipantCount,
		},
	}); err != nil {
		return err
	}

	return c.broadcast(ctx, joinRoomResp.Conns, &Output{
		Type: "user-joined",
		Payload: map[string]any{
			"user_id":      identity.UserId,
			"username":     identity.Username,
			"participants": joinRoomResp.ParticipantCount,
		},
	})
}

type LeaveRoomInput struct {
	RoomId string `json:"room_id"`
}

func (c controller) handleLeaveRoom(ctx context.Context, conn *websocket.Conn, input LeaveRoomInput) error {
	identity := c.getIdentityFromCtx(ctx)

	leaveRoomResp, err := c.roomService.LeaveRoom(ctx, &room.LeaveRoomParams{
		RoomId: input.RoomId,
		UserId: identity.UserId,
	})
	if err != nil {
		return fmt.Errorf("failed to leave room: %w", err)
	}

	return c.broadcast(ctx, leaveRoomResp.Conns, &Output{
		Type: "user-left",
		Payload: map[string]any{
			"user_id":      identity.UserId,
			"username":     identity.Username,
			"participants": leaveRoomResp.ParticipantCount,
		},
	})
}

type VideoPlayInput struct {
	RoomId string `json:"room_id"`
}

func (c controller) handleVideoPlay(ctx context.Context, conn *websocket.Conn, input VideoPlayInput) error {
	identity := c.getIdentityFromCtx(ctx)

	playResp, err := c.roomService.PlayVideo(ctx, &room.PlaybackCommandParams{
		RoomId:   input.RoomId,
		SenderId: identity.UserId,
	})
	if err != nil {
		return fmt.Errorf("failed to play video: %w", err)
	}

	return c.broadcast(ctx, playResp.Conns, &Output{
		Type:    "video-play",
		Payload: map[string]any{},
	})
}

type VideoPauseInput struct {
	RoomId string `json:"room_id"`
}

func (c controller) handleVideoPause(ctx context.Context, conn *websocket.Conn, input VideoPauseInput) error {
	identity := c.getIdentityFromCtx(ctx)

	pauseResp, err := c.roomService.PauseVideo(ctx, &room.PlaybackCommandParams{
		RoomId:   input.RoomId,
		SenderId: identity.UserId,
	})
	if err != nil {
		return fmt.Errorf("failed to pause video: %w", err)
	}

	return c.broadcast(ctx, pauseResp.Conns, &Output{
		Type:    "video-pause",
		Payload: map[string]any{},
	})
}

type VideoSeekInput struct {
	RoomId      string  `json:"room_id"`
	CurrentTime float64 `json:"current_time"`
}

func (c controller) handleVideoSeek(ctx context.Context, conn *websocket.Conn, input VideoSeekInput) error {
	identity := c.getIdentityFromCtx(ctx)

	seekResp, err := c.roomService.SeekVideo(ctx, &room.SeekVideoParams{
		RoomId:      input.RoomId,
		SenderId:    identity.UserId,
		CurrentTime: input.CurrentTime,
	})
	if err != nil {
		return fmt.Errorf("failed to seek video: %w", err)
	}

	return c.broadcast(ctx, seekResp.Conns, &Output{
		Type: "video-seek",
		Payload: map[string]any{
			"current_time": seekResp.Playback.CurrentTime,
		},
	})
}

type VideoUrlChangeInput struct {
	RoomId   string `json:"room_id"`
	VideoUrl string `json:"video_url"`
}

func (c controller) handleVideoUrlChange(ctx context.Context, conn *websocket.Conn, input VideoUrlChangeInput) error {
	identity := c.getIdentityFromCtx(ctx)

	changeResp, err := c.roomService.ChangeVideoUrl(ctx, &room.ChangeVideoUrlParams{
		RoomId:   input.RoomId,
		SenderId: identity.UserId,
		VideoUrl: input.VideoUrl,
	})
	if err != nil {
		return fmt.Errorf("failed to change video url: %w", err)
	}

	// one combined event: url, time and playing state travel together
	return c.broadcast(ctx, changeResp.Conns, &Output{
		Type: "video-url-change",
		Payload: map[string]any{
			"video_url":    changeResp.Playback.VideoUrl,
			"is_playing":   changeResp.Playback.IsPlaying,
			"current_time": changeResp.Playback.CurrentTime,
		},
	})
}

type ChatMessageInput struct {
	RoomId  string `json:"room_id"`
	Message string `json:"message"`
}

func (c controller) handleChatMessage(ctx context.Context, conn *websocket.Conn, input ChatMessageInput) error {
	identity := c.getIdentityFromCtx(ctx)

	chatResp, err := c.roomService.ChatMessage(ctx, &room.ChatMessageParams{
		RoomId:   input.RoomId,
		SenderId: identity.UserId,
		Message:  input.Message,
	})
	if err != nil {
		return fmt.Errorf("failed to send chat message: %w", err)
	}

	return c.broadcast(ctx, chatResp.Conns, &Output{
		Type: "chat-message",
		Payload: map[string]any{
			"user_id":   identity.UserId,
			"username":  identity.Username,
			"message":   input.Message,
			"timestamp": chatResp.Timestamp,
		},
	})
}
