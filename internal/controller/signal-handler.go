package controller

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/gorilla/websocket"
	"github.com/roomcast/roomcast/internal/service/room"
)

// Voice signaling handlers forward envelopes without inspecting the SDP or
// ICE payloads. The service layer authorizes the sender and resolves target
// connections; a vanished target simply yields an empty conn list.

type VoiceOfferInput struct {
	RoomId string          `json:"room_id"`
	Offer  json.RawMessage `json:"offer"`
	To     string          `json:"to,omitempty"`
}

func (c controller) handleVoiceOffer(ctx context.Context, conn *websocket.Conn, input VoiceOfferInput) error {
	identity := c.getIdentityFromCtx(ctx)

	relayResp, err := c.roomService.RelaySignal(ctx, &room.RelaySignalParams{
		RoomId:   input.RoomId,
		SenderId: identity.UserId,
		To:       input.To,
	})
	if err != nil {
		return fmt.Errorf("failed to relay voice offer: %w", err)
	}

	return c.broadcast(ctx, relayResp.Conns, &Output{
		Type: "voice-offer",
		Payload: map[string]any{
			"offer":         input.Offer,
			"from":          identity.UserId,
			"from_username": identity.Username,
			"to":            input.To,
		},
	})
}

type VoiceAnswerInput struct {
	RoomId string          `json:"room_id"`
	Answer json.RawMessage `json:"answer"`
	To     string          `json:"to"`
}

func (c controller) handleVoiceAnswer(ctx context.Context, conn *websocket.Conn, input VoiceAnswerInput) error {
	identity := c.getIdentityFromCtx(ctx)

	relayResp, err := c.roomService.RelaySignal(ctx, &room.RelaySignalParams{
		RoomId:   input.RoomId,
		SenderId: identity.UserId,
		To:       input.To,
	})
	if err != nil {
		return fmt.Errorf("failed to relay voice answer: %w", err)
	}

	return c.broadcast(ctx, relayResp.Conns, &Output{
		Type: "voice-answer",
		Payload: map[string]any{
			"answer": input.Answer,
			"from":   identity.UserId,
			"to":     input.To,
		},
	})
}

type VoiceIceCandidateInput struct {
	RoomId    string          `json:"room_id"`
	Candidate json.RawMessage `json:"candidate"`
	To        string          `json:"to,omitempty"`
}

func (c controller) handleVoiceIceCandidate(ctx context.Context, conn *websocket.Conn, input VoiceIceCandidateInput) error {
	identity := c.getIdentityFromCtx(ctx)

	relayResp, err := c.roomService.RelaySignal(ctx, &room.RelaySignalParams{
		RoomId:   input.RoomId,
		SenderId: identity.UserId,
		To:       input.To,
	})
	if err != nil {
		return fmt.Errorf("failed to relay ice candidate: %w", err)
	}

	return c.broadcast(ctx, relayResp.Conns, &Output{
		Type: "voice-ice-candidate",
		Payload: map[string]any{
			"candidate": input.Candidate,
			"from":      identity.UserId,
			"to":        input.To,
		},
	})
}

type VoicePresenceInput struct {
	RoomId string `json:"room_id"`
}

func (c controller) handleVoiceUserJoined(ctx context.Context, conn *websocket.Conn, input VoicePresenceInput) error {
	return c.relayPresence(ctx, input.RoomId, "voice-user-joined")
}

func (c controller) handleVoiceUserLeft(ctx context.Context, conn *websocket.Conn, input VoicePresenceInput) error {
	return c.relayPresence(ctx, input.RoomId, "voice-user-left")
}

func (c controller) relayPresence(ctx context.Context, roomId, eventType string) error {
	identity := c.getIdentityFromCtx(ctx)

	relayResp, err := c.roomService.RelaySignal(ctx, &room.RelaySignalParams{
		RoomId:   roomId,
		SenderId: identity.UserId,
	})
	if err != nil {
		return fmt.Errorf("failed to relay %s: %w", eventType, err)
	}

	return c.broadcast(ctx, relayResp.Conns, &Output{
		Type: eventType,
		Payload: map[string]any{
			"user_id":  identity.UserId,
			"username": identity.Username,
		},
	})
}
