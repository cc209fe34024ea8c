package voice

import (
	"context"
	"encoding/json"
)

// TransportState is the subset of peer connection states the
// coordinator reacts to.
type TransportState int

const (
	TransportConnecting TransportState = iota
	TransportConnected
	TransportDisconnected
	TransportFailed
	TransportClosed
)

func (s TransportState) String() string {
	switch s {
	case TransportConnecting:
		return "connecting"
	case TransportConnected:
		return "connected"
	case TransportDisconnected:
		return "disconnected"
	case TransportFailed:
		return "failed"
	case TransportClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// PeerTransport is one media connection to one peer. Implementations
// wrap an actual WebRTC peer connection; tests substitute fakes.
type PeerTransport interface {
	// CreateOffer produces a local offer description.
	CreateOffer(ctx context.Context) (json.RawMessage, error)
	// AcceptOffer applies a remote offer and produces the answer.
	AcceptOffer(ctx context.Context, offer json.RawMessage) (json.RawMessage, error)
	// AcceptAnswer applies the remote answer to a previously sent offer.
	AcceptAnswer(ctx context.Context, answer json.RawMessage) error
	// AddCandidate applies one remote ICE candidate. Callers only
	// invoke it after a remote description has been applied.
	AddCandidate(candidate json.RawMessage) error
	Close() error
}

// PeerCallbacks are invoked by a transport as negotiation progresses.
// They may fire from arbitrary goroutines.
type PeerCallbacks struct {
	OnCandidate func(candidate json.RawMessage)
	OnState     func(state TransportState)
}

// PeerFactory creates transports. One factory serves a whole call.
type PeerFactory interface {
	NewPeer(peerId string, cb PeerCallbacks) (PeerTransport, error)
}

// MediaSource is the local outgoing audio. The coordinator acquires it
// once per call and releases it when the last link closes.
type MediaSource interface {
	Close() error
}

// MediaProvider acquires the local media source, typically prompting
// for microphone access. A failure here is fatal to the voice call but
// never to the room session.
type MediaProvider func(ctx context.Context) (MediaSource, error)
