// Package voice runs the client side of group voice: one peer link per
// other in-call participant, negotiated over the server's signaling
// relay.
package voice

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/roomcast/roomcast/internal/client/protocol"
)

var (
	ErrNotInCall     = errors.New("voice: not in call")
	ErrAlreadyInCall = errors.New("voice: already in call")
	// ErrMediaAccess wraps provider failures so callers can tell a
	// denied microphone apart from signaling trouble.
	ErrMediaAccess = errors.New("voice: media access denied")
)

const defaultNegotiationTimeout = 30 * time.Second

type iSignalSender interface {
	Send(messageType string, payload any) error
}

type Config struct {
	RoomId   string
	UserId   string
	Username string

	// NegotiationTimeout bounds how long a link may sit between offer
	// and connected before it is failed.
	NegotiationTimeout time.Duration

	// OnLinkState, when set, is notified of every link transition. It
	// is called with the coordinator lock released.
	OnLinkState func(peerId string, state LinkState)
}

// Coordinator owns every peer link of the local participant. All state
// transitions happen under one lock; transport callbacks re-enter
// through exported handlers.
type Coordinator struct {
	cfg     Config
	sender  iSignalSender
	factory PeerFactory
	media   MediaProvider
	logger  *slog.Logger

	mu     sync.Mutex
	inCall map[string]string
	links  map[string]*link
	source MediaSource
	joined bool
}

func NewCoordinator(cfg Config, sender iSignalSender, factory PeerFactory, media MediaProvider, logger *slog.Logger) *Coordinator {
	if cfg.NegotiationTimeout <= 0 {
		cfg.NegotiationTimeout = defaultNegotiationTimeout
	}
	return &Coordinator{
		cfg:     cfg,
		sender:  sender,
		factory: factory,
		media:   media,
		logger:  logger,
		inCall:  make(map[string]string),
		links:   make(map[string]*link),
	}
}

// JoinCall acquires local media, offers to every participant already
// known to be in the call, then announces presence. A media failure is
// fatal to the call only; room membership is untouched.
func (c *Coordinator) JoinCall(ctx context.Context) error {
	c.mu.Lock()
	if c.joined {
		c.mu.Unlock()
		return ErrAlreadyInCall
	}
	c.mu.Unlock()

	source, err := c.media(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrMediaAccess, err)
	}

	c.mu.Lock()
	c.source = source
	c.joined = true
	peers := make([]string, 0, len(c.inCall))
	for peerId := range c.inCall {
		peers = append(peers, peerId)
	}
	c.mu.Unlock()

	// Offers go out before the announcement, so an existing member sees
	// our offer first and answers rather than initiating back.
	for _, peerId := range peers {
		c.mu.Lock()
		err := c.initiateLocked(ctx, peerId)
		c.mu.Unlock()
		if err != nil {
			c.logger.Warn("initial offer failed", "peer_id", peerId, "error", err)
		}
	}

	if err := c.sender.Send(protocol.TypeVoiceUserJoined, &protocol.VoicePresencePayload{RoomId: c.cfg.RoomId}); err != nil {
		return fmt.Errorf("announce call join: %w", err)
	}
	return nil
}

// LeaveCall closes every link, releases local media and announces the
// departure. Safe to call when not in a call.
func (c *Coordinator) LeaveCall() error {
	c.mu.Lock()
	if !c.joined {
		c.mu.Unlock()
		return nil
	}
	c.joined = false
	for peerId := range c.links {
		c.closeLinkLocked(peerId, LinkClosed)
	}
	source := c.source
	c.source = nil
	c.mu.Unlock()

	if source != nil {
		if err := source.Close(); err != nil {
			c.logger.Warn("failed to release media source", "error", err)
		}
	}
	if err := c.sender.Send(protocol.TypeVoiceUserLeft, &protocol.VoicePresencePayload{RoomId: c.cfg.RoomId}); err != nil {
		return fmt.Errorf("announce call leave: %w", err)
	}
	return nil
}

// HandlePeerJoined records the peer as in-call and, when we are in the
// call ourselves with no live link yet, initiates an offer toward them.
func (c *Coordinator) HandlePeerJoined(ctx context.Context, peerId, username string) error {
	if peerId == c.cfg.UserId {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.inCall[peerId] = username
	if !c.joined {
		return nil
	}
	if l, ok := c.links[peerId]; ok && l.live() {
		return nil
	}
	return c.initiateLocked(ctx, peerId)
}

// HandlePeerLeft closes the peer's link, if any, and forgets them.
func (c *Coordinator) HandlePeerLeft(peerId string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.inCall, peerId)
	if _, ok := c.links[peerId]; ok {
		c.closeLinkLocked(peerId, LinkClosed)
	}
}

// HandleOffer answers an incoming offer. An offer arriving while our
// own offer to the same peer is in flight means both sides initiated.
// The tie-break is by userId: the greater side yields, abandons its
// offer and answers; the lesser side ignores the crossing offer and
// keeps waiting for its answer. Both sides agree on who yields, so
// exactly one link survives.
func (c *Coordinator) HandleOffer(ctx context.Context, from string, offer json.RawMessage) error {
	if from == c.cfg.UserId {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.joined {
		return nil
	}
	if l, ok := c.links[from]; ok {
		switch l.state {
		case LinkOfferSent:
			if c.cfg.UserId < from {
				c.logger.Debug("offer glare, holding own offer", "peer_id", from)
				return nil
			}
			c.logger.Debug("offer glare, yielding", "peer_id", from)
			c.closeLinkLocked(from, LinkClosed)
		case LinkAnswerSent, LinkConnected:
			return nil
		default:
			c.closeLinkLocked(from, LinkClosed)
		}
	}

	l, err := c.newLinkLocked(from, false)
	if err != nil {
		return err
	}
	answer, err := l.transport.AcceptOffer(ctx, offer)
	if err != nil {
		c.failLinkLocked(from)
		return fmt.Errorf("accept offer from %s: %w", from, err)
	}
	l.remoteDescApplied = true
	c.drainCandidatesLocked(l)
	c.setStateLocked(l, LinkAnswerSent)

	if err := c.sender.Send(protocol.TypeVoiceAnswer, &protocol.VoiceAnswerPayload{
		RoomId: c.cfg.RoomId,
		Answer: answer,
		To:     from,
	}); err != nil {
		c.failLinkLocked(from)
		return fmt.Errorf("send answer to %s: %w", from, err)
	}
	return nil
}

// HandleAnswer applies the peer's answer to our outstanding offer.
// Answers for links in any other state are stale and dropped.
func (c *Coordinator) HandleAnswer(ctx context.Context, from string, answer json.RawMessage) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	l, ok := c.links[from]
	if !ok || l.state != LinkOfferSent {
		c.logger.Debug("dropping stale answer", "peer_id", from)
		return nil
	}
	if err := l.transport.AcceptAnswer(ctx, answer); err != nil {
		c.failLinkLocked(from)
		return fmt.Errorf("accept answer from %s: %w", from, err)
	}
	l.remoteDescApplied = true
	c.drainCandidatesLocked(l)
	c.setStateLocked(l, LinkAnswerApplied)
	return nil
}

// HandleCandidate applies or queues one remote ICE candidate. The
// transport requires a remote description first, so early arrivals are
// queued in order and drained once the description lands.
func (c *Coordinator) HandleCandidate(from string, candidate json.RawMessage) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	l, ok := c.links[from]
	if !ok || !l.live() {
		return nil
	}
	if !l.remoteDescApplied {
		l.pendingCandidates = append(l.pendingCandidates, candidate)
		return nil
	}
	if err := l.transport.AddCandidate(candidate); err != nil {
		return fmt.Errorf("add candidate from %s: %w", from, err)
	}
	return nil
}

// LinkStates snapshots the current state of every known link.
func (c *Coordinator) LinkStates() map[string]LinkState {
	c.mu.Lock()
	defer c.mu.Unlock()

	states := make(map[string]LinkState, len(c.links))
	for peerId, l := range c.links {
		states[peerId] = l.state
	}
	return states
}

func (c *Coordinator) initiateLocked(ctx context.Context, peerId string) error {
	l, err := c.newLinkLocked(peerId, true)
	if err != nil {
		return err
	}
	offer, err := l.transport.CreateOffer(ctx)
	if err != nil {
		c.failLinkLocked(peerId)
		return fmt.Errorf("create offer for %s: %w", peerId, err)
	}
	c.setStateLocked(l, LinkOfferSent)

	if err := c.sender.Send(protocol.TypeVoiceOffer, &protocol.VoiceOfferPayload{
		RoomId: c.cfg.RoomId,
		Offer:  offer,
		To:     peerId,
	}); err != nil {
		c.failLinkLocked(peerId)
		return fmt.Errorf("send offer to %s: %w", peerId, err)
	}
	return nil
}

func (c *Coordinator) newLinkLocked(peerId string, initiator bool) (*link, error) {
	transport, err := c.factory.NewPeer(peerId, PeerCallbacks{
		OnCandidate: func(candidate json.RawMessage) {
			c.sendCandidate(peerId, candidate)
		},
		OnState: func(state TransportState) {
			c.onTransportState(peerId, state)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create peer transport for %s: %w", peerId, err)
	}

	l := &link{
		peerId:    peerId,
		initiator: initiator,
		state:     LinkIdle,
		transport: transport,
	}
	l.timeout = time.AfterFunc(c.cfg.NegotiationTimeout, func() {
		c.onNegotiationTimeout(peerId)
	})
	c.links[peerId] = l
	return l, nil
}

func (c *Coordinator) sendCandidate(peerId string, candidate json.RawMessage) {
	err := c.sender.Send(protocol.TypeVoiceIceCandidate, &protocol.VoiceIceCandidatePayload{
		RoomId:    c.cfg.RoomId,
		Candidate: candidate,
		To:        peerId,
	})
	if err != nil {
		c.logger.Warn("failed to send ice candidate", "peer_id", peerId, "error", err)
	}
}

func (c *Coordinator) onTransportState(peerId string, state TransportState) {
	c.mu.Lock()
	defer c.mu.Unlock()

	l, ok := c.links[peerId]
	if !ok || !l.live() {
		return
	}
	switch state {
	case TransportConnected:
		l.stopTimeout()
		c.setStateLocked(l, LinkConnected)
	case TransportDisconnected:
		c.closeLinkLocked(peerId, LinkDisconnected)
	case TransportFailed:
		c.failLinkLocked(peerId)
	}
}

func (c *Coordinator) onNegotiationTimeout(peerId string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	l, ok := c.links[peerId]
	if !ok || l.state == LinkConnected || !l.live() {
		return
	}
	c.logger.Warn("negotiation timed out", "peer_id", peerId, "state", l.state.String())
	c.failLinkLocked(peerId)
}

func (c *Coordinator) drainCandidatesLocked(l *link) {
	for _, candidate := range l.pendingCandidates {
		if err := l.transport.AddCandidate(candidate); err != nil {
			c.logger.Warn("failed to apply queued candidate", "peer_id", l.peerId, "error", err)
		}
	}
	l.pendingCandidates = nil
}

// failLinkLocked moves a link to Failed. The failure stays isolated to
// this one pair; no other link is touched.
func (c *Coordinator) failLinkLocked(peerId string) {
	c.closeLinkLocked(peerId, LinkFailed)
}

func (c *Coordinator) closeLinkLocked(peerId string, terminal LinkState) {
	l, ok := c.links[peerId]
	if !ok {
		return
	}
	l.stopTimeout()
	if err := l.transport.Close(); err != nil {
		c.logger.Debug("transport close failed", "peer_id", peerId, "error", err)
	}
	c.setStateLocked(l, terminal)
	delete(c.links, peerId)
}

func (c *Coordinator) setStateLocked(l *link, state LinkState) {
	l.state = state
	if c.cfg.OnLinkState != nil {
		peerId := l.peerId
		go c.cfg.OnLinkState(peerId, state)
	}
}
