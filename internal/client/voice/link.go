package voice

import (
	"encoding/json"
	"time"
)

// LinkState tracks one peer link through its negotiation lifecycle.
type LinkState int

const (
	LinkIdle LinkState = iota
	LinkOfferSent
	LinkAnswerApplied
	LinkAnswerSent
	LinkConnected
	LinkDisconnected
	LinkFailed
	LinkClosed
)

func (s LinkState) String() string {
	switch s {
	case LinkIdle:
		return "idle"
	case LinkOfferSent:
		return "offer-sent"
	case LinkAnswerApplied:
		return "answer-applied"
	case LinkAnswerSent:
		return "answer-sent"
	case LinkConnected:
		return "connected"
	case LinkDisconnected:
		return "disconnected"
	case LinkFailed:
		return "failed"
	case LinkClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// link is the coordinator's bookkeeping for a single peer. At most one
// live link exists per peer at any time.
type link struct {
	peerId    string
	initiator bool
	state     LinkState
	transport PeerTransport

	// Candidates received before the remote description was applied,
	// kept in arrival order.
	remoteDescApplied bool
	pendingCandidates []json.RawMessage

	timeout *time.Timer
}

func (l *link) live() bool {
	switch l.state {
	case LinkClosed, LinkFailed, LinkDisconnected:
		return false
	default:
		return true
	}
}

func (l *link) stopTimeout() {
	if l.timeout != nil {
		l.timeout.Stop()
		l.timeout = nil
	}
}
