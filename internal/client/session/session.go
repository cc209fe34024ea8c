// Package session wires the signaling connection, the playback
// reconciler and the voice coordinator into one running room session.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/roomcast/roomcast/internal/client/playback"
	"github.com/roomcast/roomcast/internal/client/protocol"
	"github.com/roomcast/roomcast/internal/client/signaling"
	"github.com/roomcast/roomcast/internal/client/voice"
)

// Handlers receive room events the session does not consume itself.
// Nil handlers are skipped.
type Handlers struct {
	OnRoomState   func(protocol.RoomStatePayload)
	OnUserJoined  func(protocol.PresencePayload)
	OnUserLeft    func(protocol.PresencePayload)
	OnChatMessage func(protocol.ChatMessageEventPayload)
	OnServerError func(message string)
}

type Config struct {
	RoomId   string
	UserId   string
	Username string
}

type Session struct {
	cfg      Config
	client   *signaling.Client
	playback *playback.Reconciler
	voice    *voice.Coordinator
	handlers Handlers
	logger   *slog.Logger
}

func New(cfg Config, client *signaling.Client, reconciler *playback.Reconciler, coordinator *voice.Coordinator, handlers Handlers, logger *slog.Logger) *Session {
	return &Session{
		cfg:      cfg,
		client:   client,
		playback: reconciler,
		voice:    coordinator,
		handlers: handlers,
		logger:   logger,
	}
}

// Run joins the room and dispatches server messages until the context
// is cancelled or the connection drops.
func (s *Session) Run(ctx context.Context) error {
	if err := s.client.Send(protocol.TypeJoinRoom, &protocol.JoinRoomPayload{RoomId: s.cfg.RoomId}); err != nil {
		return fmt.Errorf("join room: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			s.leave()
			return ctx.Err()
		case msg, ok := <-s.client.Incoming():
			if !ok {
				return signaling.ErrClosed
			}
			if err := s.dispatch(ctx, msg); err != nil {
				s.logger.Warn("failed to handle message", "type", msg.Type, "error", err)
			}
		}
	}
}

func (s *Session) SendChat(message string) error {
	return s.client.Send(protocol.TypeChatMessage, &protocol.ChatMessagePayload{
		RoomId:  s.cfg.RoomId,
		Message: message,
	})
}

func (s *Session) Playback() *playback.Reconciler {
	return s.playback
}

func (s *Session) JoinVoice(ctx context.Context) error {
	return s.voice.JoinCall(ctx)
}

func (s *Session) LeaveVoice() error {
	return s.voice.LeaveCall()
}

func (s *Session) leave() {
	if err := s.voice.LeaveCall(); err != nil {
		s.logger.Debug("leave call on shutdown", "error", err)
	}
	if err := s.client.Send(protocol.TypeLeaveRoom, &protocol.LeaveRoomPayload{RoomId: s.cfg.RoomId}); err != nil {
		s.logger.Debug("leave room on shutdown", "error", err)
	}
	s.client.Close()
}

func (s *Session) dispatch(ctx context.Context, msg protocol.Message) error {
	switch msg.Type {
	case protocol.TypeRoomState:
		var p protocol.RoomStatePayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			return fmt.Errorf("decode room state: %w", err)
		}
		s.playback.ApplyRoomState(&p)
		if s.handlers.OnRoomState != nil {
			s.handlers.OnRoomState(p)
		}

	case protocol.TypeUserJoined:
		var p protocol.PresencePayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			return fmt.Errorf("decode user joined: %w", err)
		}
		if s.handlers.OnUserJoined != nil {
			s.handlers.OnUserJoined(p)
		}

	case protocol.TypeUserLeft:
		var p protocol.PresencePayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			return fmt.Errorf("decode user left: %w", err)
		}
		// A participant leaving the room also leaves the call.
		s.voice.HandlePeerLeft(p.UserId)
		if s.handlers.OnUserLeft != nil {
			s.handlers.OnUserLeft(p)
		}

	case protocol.TypeVideoPlay:
		s.playback.ApplyPlay()

	case protocol.TypeVideoPause:
		s.playback.ApplyPause()

	case protocol.TypeVideoSeek:
		var p protocol.VideoSeekEventPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			return fmt.Errorf("decode seek: %w", err)
		}
		s.playback.ApplySeek(p.CurrentTime)

	case protocol.TypeVideoUrlChange:
		var p protocol.VideoUrlChangeEventPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			return fmt.Errorf("decode url change: %w", err)
		}
		s.playback.ApplyUrlChange(&p)

	case protocol.TypeChatMessage:
		var p protocol.ChatMessageEventPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			return fmt.Errorf("decode chat message: %w", err)
		}
		if s.handlers.OnChatMessage != nil {
			s.handlers.OnChatMessage(p)
		}

	case protocol.TypeVoiceUserJoined:
		var p protocol.VoicePresencePayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			return fmt.Errorf("decode voice presence: %w", err)
		}
		return s.voice.HandlePeerJoined(ctx, p.UserId, p.Username)

	case protocol.TypeVoiceUserLeft:
		var p protocol.VoicePresencePayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			return fmt.Errorf("decode voice presence: %w", err)
		}
		s.voice.HandlePeerLeft(p.UserId)

	case protocol.TypeVoiceOffer:
		var p protocol.VoiceOfferPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			return fmt.Errorf("decode offer: %w", err)
		}
		if p.To != "" && p.To != s.cfg.UserId {
			return nil
		}
		return s.voice.HandleOffer(ctx, p.From, p.Offer)

	case protocol.TypeVoiceAnswer:
		var p protocol.VoiceAnswerPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			return fmt.Errorf("decode answer: %w", err)
		}
		if p.To != "" && p.To != s.cfg.UserId {
			return nil
		}
		return s.voice.HandleAnswer(ctx, p.From, p.Answer)

	case protocol.TypeVoiceIceCandidate:
		var p protocol.VoiceIceCandidatePayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			return fmt.Errorf("decode candidate: %w", err)
		}
		if p.To != "" && p.To != s.cfg.UserId {
			return nil
		}
		return s.voice.HandleCandidate(p.From, p.Candidate)

	case protocol.TypeError:
		var p protocol.ErrorPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			return fmt.Errorf("decode error payload: %w", err)
		}
		if s.handlers.OnServerError != nil {
			s.handlers.OnServerError(p.Message)
		}

	default:
		s.logger.Debug("ignoring unknown message", "type", msg.Type)
	}
	return nil
}
