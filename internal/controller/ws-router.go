package controller

import (
	"github.com/roomcast/roomcast/pkg/wsrouter"
)

func (c *controller) getWSRouter() *wsrouter.WSRouter {
	mux := wsrouter.New()

	mux.Use(c.wsRequestIdMw())
	mux.Use(c.wsLoggerMw())

	// room
	wsrouter.Handle(mux, "join-room", c.handleJoinRoom)
	wsrouter.Handle(mux, "leave-room", c.handleLeaveRoom)

	// playback
	wsrouter.Handle(mux, "video-play", c.handleVideoPlay)
	wsrouter.Handle(mux, "video-pause", c.handleVideoPause)
	wsrouter.Handle(mux, "video-seek", c.handleVideoSeek)
	wsrouter.Handle(mux, "video-url-change", c.handleVideoUrlChange)

	// chat
	wsrouter.Handle(mux, "chat-message", c.handleChatMessage)

	// voice signaling
	wsrouter.Handle(mux, "voice-offer", c.handleVoiceOffer)
	wsrouter.Handle(mux, "voice-answer", c.handleVoiceAnswer)
	wsrouter.Handle(mux, "voice-ice-candidate", c.handleVoiceIceCandidate)
	wsrouter.Handle(mux, "voice-user-joined", c.handleVoiceUserJoined)
	wsrouter.Handle(mux, "voice-user-left", c.handleVoiceUserLeft)

	return mux
}
