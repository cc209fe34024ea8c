// Package protocol mirrors the server's websocket surface: message type
// names and payload shapes for both directions.
package protocol

import "encoding/json"

type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Message type constants.
const (
	TypeJoinRoom       = "join-room"
	TypeLeaveRoom      = "leave-room"
	TypeVideoPlay      = "video-play"
	TypeVideoPause     = "video-pause"
	TypeVideoSeek      = "video-seek"
	TypeVideoUrlChange = "video-url-change"
	TypeChatMessage    = "chat-message"

	TypeVoiceOffer        = "voice-offer"
	TypeVoiceAnswer       = "voice-answer"
	TypeVoiceIceCandidate = "voice-ice-candidate"
	TypeVoiceUserJoined   = "voice-user-joined"
	TypeVoiceUserLeft     = "voice-user-left"

	TypeRoomState  = "room-state"
	TypeUserJoined = "user-joined"
	TypeUserLeft   = "user-left"
	TypeError      = "error"
)

type JoinRoomPayload struct {
	RoomId string `json:"room_id"`
}

type LeaveRoomPayload struct {
	RoomId string `json:"room_id"`
}

type VideoPlayPayload struct {
	RoomId string `json:"room_id"`
}

type VideoPausePayload struct {
	RoomId string `json:"room_id"`
}

type VideoSeekPayload struct {
	RoomId      string  `json:"room_id"`
	CurrentTime float64 `json:"current_time"`
}

type VideoUrlChangePayload struct {
	RoomId   string `json:"room_id"`
	VideoUrl string `json:"video_url"`
}

type ChatMessagePayload struct {
	RoomId  string `json:"room_id"`
	Message string `json:"message"`
}

type VoiceOfferPayload struct {
	RoomId string          `json:"room_id,omitempty"`
	Offer  json.RawMessage `json:"offer"`
	From   string          `json:"from,omitempty"`
	To     string          `json:"to,omitempty"`
}

type VoiceAnswerPayload struct {
	RoomId string          `json:"room_id,omitempty"`
	Answer json.RawMessage `json:"answer"`
	From   string          `json:"from,omitempty"`
	To     string          `json:"to,omitempty"`
}

type VoiceIceCandidatePayload struct {
	RoomId    string          `json:"room_id,omitempty"`
	Candidate json.RawMessage `json:"candidate"`
	From      string          `json:"from,omitempty"`
	To        string          `json:"to,omitempty"`
}

type VoicePresencePayload struct {
	RoomId   string `json:"room_id,omitempty"`
	UserId   string `json:"user_id,omitempty"`
	Username string `json:"username,omitempty"`
}

type RoomStatePayload struct {
	VideoUrl     string  `json:"video_url"`
	IsPlaying    bool    `json:"is_playing"`
	CurrentTime  float64 `json:"current_time"`
	Participants int     `json:"participants"`
}

type PresencePayload struct {
	UserId       string `json:"user_id"`
	Username     string `json:"username"`
	Participants int    `json:"participants"`
}

type VideoSeekEventPayload struct {
	CurrentTime float64 `json:"current_time"`
}

type VideoUrlChangeEventPayload struct {
	VideoUrl    string  `json:"video_url"`
	IsPlaying   bool    `json:"is_playing"`
	CurrentTime float64 `json:"current_time"`
}

type ChatMessageEventPayload struct {
	UserId    string `json:"user_id"`
	Username  string `json:"username"`
	Message   string `json:"message"`
	Timestamp int64  `json:"timestamp"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}
