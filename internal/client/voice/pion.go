package voice

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/pion/webrtc/v4"
)

// TrackSource is a media source that exposes the local tracks to attach
// to every peer connection.
type TrackSource interface {
	MediaSource
	Tracks() []webrtc.TrackLocal
}

type FactoryConfig struct {
	StunUrls []string

	// TrackId names the outgoing audio track, usually the local userId.
	TrackId string

	// OnRemoteTrack receives every inbound track so the caller can feed
	// it into playback. Optional.
	OnRemoteTrack func(peerId string, track *webrtc.TrackRemote)
}

type pionFactory struct {
	cfg FactoryConfig

	mu     sync.Mutex
	source TrackSource
}

// NewPionFactory builds WebRTC-backed peer transports. The current media
// source, acquired through AcquireMedia, is shared across all peers.
func NewPionFactory(cfg FactoryConfig) *pionFactory {
	if len(cfg.StunUrls) == 0 {
		cfg.StunUrls = []string{"stun:stun.l.google.com:19302"}
	}
	if cfg.TrackId == "" {
		cfg.TrackId = "roomcast"
	}
	return &pionFactory{cfg: cfg}
}

// AcquireMedia satisfies MediaProvider. Every call builds a fresh source,
// so a call left and re-joined does not inherit a closed track.
func (f *pionFactory) AcquireMedia(ctx context.Context) (MediaSource, error) {
	source, err := NewOpusSource(f.cfg.TrackId)
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	f.source = source
	f.mu.Unlock()
	return source, nil
}

func (f *pionFactory) NewPeer(peerId string, cb PeerCallbacks) (PeerTransport, error) {
	f.mu.Lock()
	source := f.source
	f.mu.Unlock()
	if source == nil {
		return nil, fmt.Errorf("no media source acquired")
	}

	pc, err := webrtc.NewPeerConnection(webrtc.Configuration{
		ICEServers: []webrtc.ICEServer{
			{URLs: f.cfg.StunUrls},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create peer connection: %w", err)
	}

	for _, track := range source.Tracks() {
		if _, err := pc.AddTrack(track); err != nil {
			pc.Close()
			return nil, fmt.Errorf("add local track: %w", err)
		}
	}

	pc.OnICECandidate(func(candidate *webrtc.ICECandidate) {
		if candidate == nil || cb.OnCandidate == nil {
			return
		}
		b, err := json.Marshal(candidate.ToJSON())
		if err != nil {
			return
		}
		cb.OnCandidate(b)
	})

	pc.OnConnectionStateChange(func(state webrtc.PeerConnectionState) {
		if cb.OnState == nil {
			return
		}
		switch state {
		case webrtc.PeerConnectionStateConnected:
			cb.OnState(TransportConnected)
		case webrtc.PeerConnectionStateDisconnected:
			cb.OnState(TransportDisconnected)
		case webrtc.PeerConnectionStateFailed:
			cb.OnState(TransportFailed)
		case webrtc.PeerConnectionStateClosed:
			cb.OnState(TransportClosed)
		}
	})

	if f.cfg.OnRemoteTrack != nil {
		pc.OnTrack(func(track *webrtc.TrackRemote, _ *webrtc.RTPReceiver) {
			f.cfg.OnRemoteTrack(peerId, track)
		})
	}

	return &pionPeer{pc: pc}, nil
}

type pionPeer struct {
	pc *webrtc.PeerConnection
}

func (p *pionPeer) CreateOffer(ctx context.Context) (json.RawMessage, error) {
	offer, err := p.pc.CreateOffer(nil)
	if err != nil {
		return nil, fmt.Errorf("create offer: %w", err)
	}
	if err := p.pc.SetLocalDescription(offer); err != nil {
		return nil, fmt.Errorf("set local description: %w", err)
	}
	b, err := json.Marshal(offer)
	if err != nil {
		return nil, fmt.Errorf("marshal offer: %w", err)
	}
	return b, nil
}

func (p *pionPeer) AcceptOffer(ctx context.Context, offer json.RawMessage) (json.RawMessage, error) {
	var desc webrtc.SessionDescription
	if err := json.Unmarshal(offer, &desc); err != nil {
		return nil, fmt.Errorf("unmarshal offer: %w", err)
	}
	if err := p.pc.SetRemoteDescription(desc); err != nil {
		return nil, fmt.Errorf("set remote description: %w", err)
	}
	answer, err := p.pc.CreateAnswer(nil)
	if err != nil {
		return nil, fmt.Errorf("create answer: %w", err)
	}
	if err := p.pc.SetLocalDescription(answer); err != nil {
		return nil, fmt.Errorf("set local description: %w", err)
	}
	b, err := json.Marshal(answer)
	if err != nil {
		return nil, fmt.Errorf("marshal answer: %w", err)
	}
	return b, nil
}

func (p *pionPeer) AcceptAnswer(ctx context.Context, answer json.RawMessage) error {
	var desc webrtc.SessionDescription
	if err := json.Unmarshal(answer, &desc); err != nil {
		return fmt.Errorf("unmarshal answer: %w", err)
	}
	if err := p.pc.SetRemoteDescription(desc); err != nil {
		return fmt.Errorf("set remote description: %w", err)
	}
	return nil
}

func (p *pionPeer) AddCandidate(candidate json.RawMessage) error {
	var init webrtc.ICECandidateInit
	if err := json.Unmarshal(candidate, &init); err != nil {
		return fmt.Errorf("unmarshal candidate: %w", err)
	}
	if err := p.pc.AddICECandidate(init); err != nil {
		return fmt.Errorf("add ice candidate: %w", err)
	}
	return nil
}

func (p *pionPeer) Close() error {
	return p.pc.Close()
}
